package store

import (
	"context"
	"errors"
	"strings"
)

var ErrUsernameTaken = errors.New("username already exists")

// Store is implemented by SQLiteStore and PostgresStore.
// Lookups that find nothing return (nil, nil).
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)

	AppendChatTurn(ctx context.Context, userID int64, userText, botText string) ([]ChatMessage, error)
	GetChatMessagesByUserID(ctx context.Context, userID int64) ([]ChatMessage, error)

	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, userID int64) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// Open picks the Postgres store for postgres:// URLs and treats anything else as a SQLite file.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return NewPostgresStore(ctx, databaseURL)
	}
	return NewSQLiteStore(databaseURL)
}
