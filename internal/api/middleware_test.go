package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/auth"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/classifier"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/logger"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/store"
)

// spyStore counts every call and fails the test if one is made.
type spyStore struct {
	t     *testing.T
	calls int
}

func (s *spyStore) touch(name string) {
	s.calls++
	s.t.Errorf("unexpected store call: %s", name)
}

func (s *spyStore) CreateUser(context.Context, string, string) (*store.User, error) {
	s.touch("CreateUser")
	return nil, nil
}

func (s *spyStore) GetUserByUsername(context.Context, string) (*store.User, error) {
	s.touch("GetUserByUsername")
	return nil, nil
}

func (s *spyStore) GetUserByID(context.Context, int64) (*store.User, error) {
	s.touch("GetUserByID")
	return nil, nil
}

func (s *spyStore) CreateSession(context.Context, *store.Session) error {
	s.touch("CreateSession")
	return nil
}

func (s *spyStore) GetSession(context.Context, string) (*store.Session, error) {
	s.touch("GetSession")
	return nil, nil
}

func (s *spyStore) DeleteSession(context.Context, string) error {
	s.touch("DeleteSession")
	return nil
}

func (s *spyStore) Respond(context.Context, int64, string) (string, error) {
	s.touch("Respond")
	return "", nil
}

func (s *spyStore) History(context.Context, int64) ([]store.ChatMessage, error) {
	s.touch("History")
	return nil, nil
}

func (s *spyStore) Assess(context.Context, string, []byte) (string, error) {
	s.touch("Assess")
	return "", nil
}

func (s *spyStore) Diseases() (json.RawMessage, error) {
	s.touch("Diseases")
	return nil, nil
}

func (s *spyStore) FAQs() (json.RawMessage, error) {
	s.touch("FAQs")
	return nil, nil
}

func TestUnauthenticatedRequestsRedirectWithoutDataAccess(t *testing.T) {
	spy := &spyStore{t: t}
	log := logger.NewNop()
	h := NewAPIHandler(Services{
		Auth:   auth.NewManager(spy, spy, "secret", time.Hour, log),
		Chat:   spy,
		PAC:    spy,
		Data:   spy,
		Models: classifier.NewRegistry(nil, nil),
	}, false, log)
	router := NewRouter(h, "", log)

	cases := []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodGet, "/history"},
		{http.MethodGet, "/pac"},
		{http.MethodGet, "/logout"},
		{http.MethodGet, "/api/predict?message=test"},
		{http.MethodGet, "/api/diseases"},
		{http.MethodGet, "/api/faqs"},
		{http.MethodPost, "/predict_pac/diabetes"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{"a": 1}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
			t.Errorf("%s %s: got %d location %q", tc.method, tc.path, rec.Code, rec.Header().Get("Location"))
		}
	}
	if spy.calls != 0 {
		t.Fatalf("expected no store access, got %d calls", spy.calls)
	}
}

func TestGarbageCookieIsClearedAndRedirected(t *testing.T) {
	spy := &spyStore{t: t}
	log := logger.NewNop()
	h := NewAPIHandler(Services{
		Auth:   auth.NewManager(spy, spy, "secret", time.Hour, log),
		Models: classifier.NewRegistry(nil, nil),
	}, false, log)

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "not-a-token"})
	rec := httptest.NewRecorder()
	NewRouter(h, "", log).ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected the session cookie to be cleared")
	}
}

func TestBodyLimit(t *testing.T) {
	handler := limitBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tooLarge *http.MaxBytesError
		if _, err := io.ReadAll(r.Body); errors.As(err, &tooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
