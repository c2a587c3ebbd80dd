package store

import "time"

const (
	SenderUser = "user"
	SenderBot  = "bot"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt    time.Time `json:"created_at"`
}

type ChatMessage struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Sender    string    `json:"sender"` // "user" or "bot"
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the server-side half of a browser login.
type Session struct {
	ID        string    `json:"id"` // UUID, carried inside the signed cookie
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
