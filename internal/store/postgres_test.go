package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

func newPostgresTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set TEST_POSTGRES_DSN to run postgres store tests")
	}
	s, err := NewPostgresStore(context.Background(), dsn)
	if err != nil {
		t.Fatalf("failed to open postgres store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgresUserAndChatTurn(t *testing.T) {
	ctx := context.Background()
	s := newPostgresTestStore(t)

	username := fmt.Sprintf("pg-user-%d", time.Now().UnixNano())
	user, err := s.CreateUser(ctx, username, "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := s.CreateUser(ctx, username, "hash"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	if _, err := s.AppendChatTurn(ctx, user.ID, "question", "answer"); err != nil {
		t.Fatalf("append turn: %v", err)
	}
	messages, err := s.GetChatMessagesByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(messages) != 2 || messages[0].Sender != SenderUser || messages[1].Sender != SenderBot {
		t.Fatalf("unexpected history %+v", messages)
	}

	now := time.Now().UTC()
	sess := &Session{ID: fmt.Sprintf("pg-session-%d", now.UnixNano()), UserID: user.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	got, err := s.GetSession(ctx, sess.ID)
	if err != nil || got == nil || got.UserID != user.ID {
		t.Fatalf("get session: %+v, %v", got, err)
	}
	if err := s.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
}
