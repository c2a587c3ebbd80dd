package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/logger"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/store"
)

var (
	ErrUsernameTaken      = store.ErrUsernameTaken
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidInput       = errors.New("username and password are required")
)

type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error)
	GetUserByUsername(ctx context.Context, username string) (*store.User, error)
	GetUserByID(ctx context.Context, id int64) (*store.User, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, session *store.Session) error
	GetSession(ctx context.Context, id string) (*store.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// expiredSessionSweeper is implemented by session stores that do not expire records on their own.
type expiredSessionSweeper interface {
	DeleteExpiredSessions(ctx context.Context, userID int64) (int64, error)
}

type Manager struct {
	users    UserStore
	sessions SessionStore
	secret   []byte
	ttl      time.Duration
	log      *logger.Logger
	now      func() time.Time
}

func NewManager(users UserStore, sessions SessionStore, secret string, ttl time.Duration, log *logger.Logger) *Manager {
	return &Manager{
		users:    users,
		sessions: sessions,
		secret:   []byte(secret),
		ttl:      ttl,
		log:      log.With("service", "SessionManager"),
		now:      time.Now,
	}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Register creates a user with a bcrypt hash of the password.
func (m *Manager) Register(ctx context.Context, username, password string) (*store.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	existing, err := m.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := m.users.CreateUser(ctx, username, hashedPassword)
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	m.log.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies the credentials and opens a server-side session. The returned token goes into the cookie.
func (m *Manager) Login(ctx context.Context, username, password string) (*store.Session, string, error) {
	user, err := m.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	if sweeper, ok := m.sessions.(expiredSessionSweeper); ok {
		if n, err := sweeper.DeleteExpiredSessions(ctx, user.ID); err != nil {
			m.log.Warn("failed to sweep expired sessions", "user_id", user.ID, "error", err)
		} else if n > 0 {
			m.log.Debug("swept expired sessions", "user_id", user.ID, "count", n)
		}
	}

	now := m.now().UTC()
	session := &store.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.sessions.CreateSession(ctx, session); err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}

	token, err := GenerateJWT(m.secret, session.ID, user.ID, session.ExpiresAt)
	if err != nil {
		_ = m.sessions.DeleteSession(ctx, session.ID)
		return nil, "", fmt.Errorf("failed to sign session token: %w", err)
	}
	m.log.Info("user logged in", "user_id", user.ID)
	return session, token, nil
}

// Logout removes the session named by the token. Tokens that do not verify are ignored.
func (m *Manager) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := ValidateJWT(m.secret, token)
	if err != nil {
		return nil
	}
	if err := m.sessions.DeleteSession(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a cookie token to its live session and user.
// It returns ErrUnauthenticated for anything short of a valid, unexpired session whose user still exists.
func (m *Manager) Authenticate(ctx context.Context, token string) (*store.Session, *store.User, error) {
	if token == "" {
		return nil, nil, ErrUnauthenticated
	}
	claims, err := ValidateJWT(m.secret, token)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	session, err := m.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || session.UserID != claims.UserID {
		return nil, nil, ErrUnauthenticated
	}
	if session.Expired(m.now()) {
		_ = m.sessions.DeleteSession(ctx, session.ID)
		return nil, nil, ErrUnauthenticated
	}

	user, err := m.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session user: %w", err)
	}
	if user == nil {
		_ = m.sessions.DeleteSession(ctx, session.ID)
		return nil, nil, ErrUnauthenticated
	}
	return session, user, nil
}
