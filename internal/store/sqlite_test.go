package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "chatbot.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func countRows(t *testing.T, s *SQLiteStore, query string, args ...any) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	user, err := s.CreateUser(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID == 0 || user.Username != "alice" {
		t.Fatalf("unexpected user %+v", user)
	}

	if _, err := s.CreateUser(ctx, "alice", "other-hash"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if n := countRows(t, s, "SELECT COUNT(*) FROM users WHERE username = ?", "alice"); n != 1 {
		t.Fatalf("expected exactly one row, got %d", n)
	}
}

func TestGetUserNotFoundReturnsNil(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	user, err := s.GetUserByUsername(ctx, "nobody")
	if err != nil || user != nil {
		t.Fatalf("expected nil user and nil error, got %+v, %v", user, err)
	}
	user, err = s.GetUserByID(ctx, 42)
	if err != nil || user != nil {
		t.Fatalf("expected nil user and nil error, got %+v, %v", user, err)
	}
}

func TestGetUserRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.CreateUser(ctx, "bob", "bcrypt-hash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	byName, err := s.GetUserByUsername(ctx, "bob")
	if err != nil || byName == nil {
		t.Fatalf("lookup by name failed: %+v, %v", byName, err)
	}
	byID, err := s.GetUserByID(ctx, created.ID)
	if err != nil || byID == nil {
		t.Fatalf("lookup by id failed: %+v, %v", byID, err)
	}
	if byName.ID != created.ID || byID.PasswordHash != "bcrypt-hash" {
		t.Fatalf("unexpected users %+v %+v", byName, byID)
	}
}

func TestAppendChatTurnStoresUserThenBot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	user, err := s.CreateUser(ctx, "carol", "hash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	other, err := s.CreateUser(ctx, "dave", "hash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.AppendChatTurn(ctx, user.ID, "I have a headache", "Possible Disease: migraine"); err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	if _, err := s.AppendChatTurn(ctx, other.ID, "cough", "Possible Disease: flu"); err != nil {
		t.Fatalf("other user's turn failed: %v", err)
	}
	if _, err := s.AppendChatTurn(ctx, user.ID, "and fever", "Possible Disease: flu"); err != nil {
		t.Fatalf("second turn failed: %v", err)
	}

	messages, err := s.GetChatMessagesByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	wantSenders := []string{SenderUser, SenderBot, SenderUser, SenderBot}
	for i, msg := range messages {
		if msg.Sender != wantSenders[i] {
			t.Fatalf("message %d: expected sender %s, got %s", i, wantSenders[i], msg.Sender)
		}
		if msg.UserID != user.ID {
			t.Fatalf("message %d belongs to user %d", i, msg.UserID)
		}
	}
	if messages[0].Message != "I have a headache" || messages[3].Message != "Possible Disease: flu" {
		t.Fatalf("unexpected history order: %+v", messages)
	}
}

func TestAppendChatTurnRequiresExistingUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.AppendChatTurn(ctx, 999, "hello", "hi"); err == nil {
		t.Fatal("expected foreign key failure for unknown user")
	}
	if n := countRows(t, s, "SELECT COUNT(*) FROM chat_messages"); n != 0 {
		t.Fatalf("expected no rows after failed turn, got %d", n)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	user, err := s.CreateUser(ctx, "erin", "hash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := time.Now().UTC()
	live := &Session{ID: "live-session", UserID: user.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	stale := &Session{ID: "stale-session", UserID: user.ID, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	for _, sess := range []*Session{live, stale} {
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatalf("create session: %v", err)
		}
	}

	got, err := s.GetSession(ctx, "live-session")
	if err != nil || got == nil {
		t.Fatalf("get session failed: %+v, %v", got, err)
	}
	if got.UserID != user.ID || got.Expired(now) {
		t.Fatalf("unexpected session %+v", got)
	}

	removed, err := s.DeleteExpiredSessions(ctx, user.ID)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 expired session removed, got %d", removed)
	}

	if err := s.DeleteSession(ctx, "live-session"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	got, err = s.GetSession(ctx, "live-session")
	if err != nil || got != nil {
		t.Fatalf("expected session to be gone, got %+v, %v", got, err)
	}
}

func TestSqliteDSN(t *testing.T) {
	if got := sqliteDSN("chatbot.db"); got != "chatbot.db?_foreign_keys=on&_busy_timeout=5000" {
		t.Fatalf("unexpected dsn %s", got)
	}
	if got := sqliteDSN("file:test.db?mode=memory"); got != "file:test.db?mode=memory" {
		t.Fatalf("caller parameters should be kept, got %s", got)
	}
}

func TestOpenSelectsSQLite(t *testing.T) {
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "open.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStore); !ok {
		t.Fatalf("expected *SQLiteStore, got %T", s)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
