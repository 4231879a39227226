package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const apiPrefix = "/api"

// BodyKind tags the normalized shape of a gateway response body.
type BodyKind int

const (
	BodyEmpty BodyKind = iota
	BodyJSON
	BodyText
)

// Response is the normalized result of one gateway call. Gateway deployments
// answer with JSON, plain text or nothing depending on endpoint and version,
// so the raw body is always read as text first and tagged afterwards.
type Response struct {
	Kind BodyKind
	JSON any
	Text string
}

// Map returns the response body as a JSON object. Text bodies are wrapped
// under a "data" key instead of failing.
func (r Response) Map() map[string]any {
	switch r.Kind {
	case BodyJSON:
		if m, ok := r.JSON.(map[string]any); ok {
			return m
		}
		return map[string]any{}
	case BodyText:
		return map[string]any{"data": r.Text}
	default:
		return map[string]any{}
	}
}

// List returns the response body as a JSON array, or nil for any other shape.
func (r Response) List() []any {
	if r.Kind != BodyJSON {
		return nil
	}
	list, _ := r.JSON.([]any)
	return list
}

// RequestError is a failed gateway call: a transport failure or a non-2xx
// response, with a human-readable message extracted from the body.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

type RequestOptions struct {
	Method  string
	Headers map[string]string
	Body    any
}

// Executor issues single HTTP calls against a gateway deployment. It never
// touches persisted state.
type Executor struct {
	httpClient *http.Client
}

func NewExecutor(httpClient *http.Client) *Executor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Executor{httpClient: httpClient}
}

// buildURL joins the gateway base URL and the call path. A base URL that
// already ends in the API prefix combined with a path that repeats it would
// produce /api/api/... , a real failure mode of reverse-proxied deployments,
// so the redundant prefix is stripped first.
func buildURL(serverURL, path string) string {
	base := strings.TrimSuffix(strings.TrimSpace(serverURL), "/")
	if strings.HasSuffix(base, apiPrefix) && (path == apiPrefix || strings.HasPrefix(path, apiPrefix+"/")) {
		path = strings.TrimPrefix(path, apiPrefix)
	}
	return base + path
}

func (e *Executor) Execute(ctx context.Context, serverURL, apiKey, path string, opts RequestOptions) (Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var reqBody io.Reader
	if opts.Body != nil {
		raw, err := json.Marshal(opts.Body)
		if err != nil {
			return Response{}, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, buildURL(serverURL, path), reqBody)
	if err != nil {
		return Response{}, &RequestError{Message: err.Error()}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", apiKey)
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return Response{}, &RequestError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &RequestError{Status: resp.StatusCode, Message: fmt.Sprintf("failed to read response body: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, &RequestError{
			Status:  resp.StatusCode,
			Message: extractErrorMessage(raw, resp.StatusCode),
		}
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return Response{Kind: BodyEmpty}, nil
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// Unexpected non-JSON success bodies degrade to text instead of failing
		return Response{Kind: BodyText, Text: text}, nil
	}
	return Response{Kind: BodyJSON, JSON: parsed}, nil
}

// extractErrorMessage pulls a readable message out of an error response body,
// preferring a JSON "message"/"error" field, then the raw text, then the
// status line.
func extractErrorMessage(raw []byte, status int) string {
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if msg, ok := parsed["message"].(string); ok && msg != "" {
			return msg
		}
		if msg, ok := parsed["error"].(string); ok && msg != "" {
			return msg
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
}
