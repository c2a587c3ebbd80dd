package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/logger"
)

// NewRouter wires every route. An empty staticDir disables /static.
func NewRouter(apiHandler *APIHandler, staticDir string, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(limitBodySize(maxBodyBytes))

	// Public routes
	r.Get("/healthz", apiHandler.HealthHandler)
	r.Get("/readyz", apiHandler.ReadyHandler)
	r.Get("/register", apiHandler.RegisterPageHandler)
	r.Post("/register", apiHandler.RegisterHandler)
	r.Get("/login", apiHandler.LoginPageHandler)
	r.Post("/login", apiHandler.LoginHandler)
	if staticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	// Session-authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(apiHandler.RequireSession)

		r.Get("/", apiHandler.IndexHandler)
		r.Get("/logout", apiHandler.LogoutHandler)
		r.Get("/history", apiHandler.HistoryHandler)
		r.Get("/pac", apiHandler.PACPageHandler)
		r.Post("/predict_pac/{condition}", apiHandler.PredictPACHandler)

		r.Route("/api", func(r chi.Router) {
			r.Get("/predict", apiHandler.PredictHandler)
			r.Get("/diseases", apiHandler.DiseasesHandler)
			r.Get("/faqs", apiHandler.FAQsHandler)
		})
	})

	return otelhttp.NewHandler(r, "http.server")
}
