package session

// Session is the server-side record of an issued session.
type Session struct {
	SessionID string
	UserID    string

	CreatedAt int64
	ExpiresAt int64
}
