package roomrelay

// Error messages sent back to clients in "error" frames.
const (
	ErrInvalidMessageFormat = "Invalid message format"
	ErrInvalidNumber        = "Number must be an integer between 1 and 90"
	ErrMessageTooLong       = "Message too long (max 500 characters)"
	ErrEmptyMessage         = "Message must not be empty"
	ErrMissingTarget        = "Signaling message requires a target"
	ErrInvalidWinAmount     = "winAmount must be a number"
	ErrRateLimited          = "Rate limit exceeded"
)

// Admission rejections returned over HTTP before a connection exists.
const (
	ErrTooManyRequests  = "Too many requests"
	ErrForbidden        = "Invalid admin secret"
	ErrMethodNotAllowed = "Method not allowed"
)

// Connection errors
const (
	ErrConnectionClosed = "client connection is closed"
	ErrSendBufferFull   = "client send buffer is full"
	ErrServerClosed     = "server closed"
)

// Wire limits.
const (
	MinNumber       = 1
	MaxNumber       = 90
	MaxChatLength   = 500
	MaxNameLength   = 50
	MaxRoomLength   = 64
	DefaultName     = "Anonymous"
	DefaultRoom     = "default"
	BroadcastTarget = "broadcast"
)
