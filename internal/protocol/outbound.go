package protocol

// User is one roster entry.
type User struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	JoinedAt int64  `json:"joinedAt"`
}

// Welcome is sent once to a newly admitted connection.
type Welcome struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	UserID    string `json:"userId"`
	Timestamp int64  `json:"timestamp"`
}

// Presence is a user-joined or user-left notification.
type Presence struct {
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Timestamp int64  `json:"timestamp"`
	Users     []User `json:"users"`
}

// Pong answers a ping.
type Pong struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// NumberCalled is the broadcast form of a number call.
type NumberCalled struct {
	Type      string `json:"type"`
	Number    int    `json:"number"`
	CalledBy  string `json:"calledBy"`
	Timestamp int64  `json:"timestamp"`
}

// Winner is the broadcast form of a win announcement.
type Winner struct {
	Type      string  `json:"type"`
	UserID    string  `json:"userId"`
	UserName  string  `json:"userName"`
	Timestamp int64   `json:"timestamp"`
	WinAmount float64 `json:"winAmount"`
}

// ChatMessage is the broadcast form of a chat frame.
type ChatMessage struct {
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// UsersList answers a roster query.
type UsersList struct {
	Type  string `json:"type"`
	Users []User `json:"users"`
}

// Error is only ever sent to the connection that caused it.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewError builds an error frame.
func NewError(message string) Error {
	return Error{Type: TypeError, Message: message}
}
