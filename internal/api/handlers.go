package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/auth"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/classifier"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/core"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/logger"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/store"
)

const (
	flashUsernameTaken   = "Username already exists."
	flashRegistered      = "Registration successful. Please login."
	flashInvalidLogin    = "Invalid credentials."
	flashMissingFields   = "Username and password are required."
	flashTryAgain        = "Something went wrong. Please try again."
	diseasesLoadError    = "Unable to load diseases.json"
	faqsLoadError        = "Unable to load faqs.json"
	readinessPingTimeout = 2 * time.Second
)

type Authenticator interface {
	Register(ctx context.Context, username, password string) (*store.User, error)
	Login(ctx context.Context, username, password string) (*store.Session, string, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*store.Session, *store.User, error)
}

type ChatResponder interface {
	Respond(ctx context.Context, userID int64, message string) (string, error)
	History(ctx context.Context, userID int64) ([]store.ChatMessage, error)
}

type Assessor interface {
	Assess(ctx context.Context, condition string, form []byte) (string, error)
}

type ReferenceData interface {
	Diseases() (json.RawMessage, error)
	FAQs() (json.RawMessage, error)
}

type ModelCatalog interface {
	Status() []classifier.SlotStatus
	FeatureNames(condition string) []string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the collaborators the HTTP layer calls into.
type Services struct {
	Auth   Authenticator
	Chat   ChatResponder
	PAC    Assessor
	Data   ReferenceData
	Models ModelCatalog
	DB     Pinger
}

type APIHandler struct {
	auth         Authenticator
	chat         ChatResponder
	pac          Assessor
	data         ReferenceData
	models       ModelCatalog
	db           Pinger
	cookieSecure bool
	log          *logger.Logger
}

func NewAPIHandler(svc Services, cookieSecure bool, log *logger.Logger) *APIHandler {
	return &APIHandler{
		auth:         svc.Auth,
		chat:         svc.Chat,
		pac:          svc.PAC,
		data:         svc.Data,
		models:       svc.Models,
		db:           svc.DB,
		cookieSecure: cookieSecure,
		log:          log.With("component", "api"),
	}
}

func (h *APIHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, "index", pageData{
		Title:    "Chat",
		Flash:    h.popFlash(w, r),
		Username: currentUser(r).Username,
	})
}

func (h *APIHandler) RegisterPageHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, "register", pageData{Title: "Register", Flash: h.popFlash(w, r)})
}

func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}

	_, err := h.auth.Register(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	switch {
	case err == nil:
		h.setFlash(w, flashRegistered)
		http.Redirect(w, r, "/login", http.StatusFound)
	case errors.Is(err, auth.ErrUsernameTaken):
		h.setFlash(w, flashUsernameTaken)
		http.Redirect(w, r, "/register", http.StatusFound)
	case errors.Is(err, auth.ErrInvalidInput):
		h.setFlash(w, flashMissingFields)
		http.Redirect(w, r, "/register", http.StatusFound)
	default:
		h.log.Error("Registration failed", "error", err)
		h.setFlash(w, flashTryAgain)
		http.Redirect(w, r, "/register", http.StatusFound)
	}
}

func (h *APIHandler) LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login", pageData{Title: "Login", Flash: h.popFlash(w, r)})
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}

	session, token, err := h.auth.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.log.Error("Login failed", "error", err)
		}
		h.setFlash(w, flashInvalidLogin)
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	h.setSessionCookie(w, token, session.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.auth.Logout(r.Context(), c.Value); err != nil {
			h.log.Error("Logout failed", "error", err)
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

type predictResponse struct {
	Response string `json:"response"`
}

func (h *APIHandler) PredictHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	reply, err := h.chat.Respond(r.Context(), user.ID, r.URL.Query().Get("message"))
	if err != nil {
		h.log.Error("Chat prediction failed", "user_id", user.ID, "error", err)
		reply = core.ChatErrorReply
	}
	writeJSON(w, http.StatusOK, predictResponse{Response: reply})
}

func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	messages, err := h.chat.History(r.Context(), user.ID)
	if err != nil {
		h.log.Error("Failed to load history", "user_id", user.ID, "error", err)
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	h.render(w, "history", pageData{Title: "History", Username: user.Username, Messages: messages})
}

func (h *APIHandler) PACPageHandler(w http.ResponseWriter, r *http.Request) {
	var forms []pacForm
	for _, c := range classifier.Conditions() {
		forms = append(forms, pacForm{Condition: c, Features: h.models.FeatureNames(c)})
	}
	h.render(w, "pac", pageData{Title: "Health checks", Username: currentUser(r).Username, Forms: forms})
}

type pacResponse struct {
	Result string `json:"result"`
}

func (h *APIHandler) PredictPACHandler(w http.ResponseWriter, r *http.Request) {
	condition := chi.URLParam(r, "condition")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Warn("Failed to read PAC form", "condition", condition, "error", err)
		writeJSON(w, http.StatusOK, pacResponse{Result: core.PACErrorReply})
		return
	}

	result, err := h.pac.Assess(r.Context(), condition, body)
	if err != nil {
		h.log.Warn("PAC prediction failed", "condition", condition, "error", err)
		result = core.FailureReply(err)
	}
	writeJSON(w, http.StatusOK, pacResponse{Result: result})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *APIHandler) DiseasesHandler(w http.ResponseWriter, r *http.Request) {
	h.serveDocument(w, h.data.Diseases, diseasesLoadError)
}

func (h *APIHandler) FAQsHandler(w http.ResponseWriter, r *http.Request) {
	h.serveDocument(w, h.data.FAQs, faqsLoadError)
}

func (h *APIHandler) serveDocument(w http.ResponseWriter, load func() (json.RawMessage, error), failure string) {
	doc, err := load()
	if err != nil {
		h.log.Warn("Failed to load reference data", "error", err)
		writeJSON(w, http.StatusOK, errorResponse{Error: failure})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type readinessResponse struct {
	Status   string                  `json:"status"`
	Database string                  `json:"database"`
	Models   []classifier.SlotStatus `json:"models"`
}

// ReadyHandler reports 503 only when the database is unreachable. Model slots
// are informational since the service degrades per slot.
func (h *APIHandler) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessPingTimeout)
	defer cancel()

	resp := readinessResponse{Status: "ok", Database: "ok", Models: h.models.Status()}
	status := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("Readiness check failed", "error", err)
		resp.Status = "unavailable"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
