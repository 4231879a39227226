package gateway

// attempt is one candidate operation in an ordered fallback chain, labeled by
// the endpoint shape it targets.
type attempt[T any] struct {
	endpoint string
	run      func() (T, error)
}

// firstSuccess evaluates attempts in order and stops at the first one that
// does not fail, returning its result and endpoint label. When every attempt
// fails, the first error is returned so callers surface the primary shape's
// failure rather than the fallback's.
func firstSuccess[T any](attempts []attempt[T]) (T, string, error) {
	var zero T
	var firstErr error
	for _, a := range attempts {
		result, err := a.run()
		if err == nil {
			return result, a.endpoint, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return zero, "", firstErr
}
