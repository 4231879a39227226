package constant

const (
	// DefaultSession is the only session name the upstream gateway service
	// supports per deployment. Every session-scoped call addresses it.
	DefaultSession = "default"

	// ChatSuffix is appended to bare phone numbers to form a chat address.
	ChatSuffix  = "@c.us"
	GroupSuffix = "@g.us"
)

const (
	GATEWAY_CONNECTED    = "Gateway connected successfully"
	GATEWAY_DISCONNECTED = "Gateway disconnected successfully"
	GATEWAY_SEND_OK      = "Message sent successfully"
	GATEWAY_READ_OK      = "Messages marked as read"

	GATEWAY_NOT_FOUND        = "Gateway not found"
	GATEWAY_INACTIVE         = "Gateway is not active"
	GATEWAY_CONFIRM_REQUIRED = "Disconnect requires confirmation"
	CONNECTION_FAILED        = "connection failed"
	CONNECTION_HINT          = "check the server URL and API key, and that the gateway service is reachable"
)
