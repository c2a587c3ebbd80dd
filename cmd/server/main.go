package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/api"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/auth"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/classifier"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/config"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/core"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/logger"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/observability"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/recommend"
	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/store"
)

func main() {
	checkModelsFlag := flag.Bool("check-models", false, "Load every model artifact, print slot status and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	if !cfg.EnvFileLoaded {
		log.Info("No .env file found, using environment variables")
	}

	ctx := context.Background()

	source := classifier.NewSource()
	defer source.Close()

	registry, llmService, err := loadRegistry(ctx, cfg, source, log)
	if err != nil {
		log.Fatal("Failed to load models", "error", err)
	}
	if llmService != nil {
		defer llmService.Close()
	}

	if *checkModelsFlag {
		// os.Exit skips deferred calls, so release the clients here.
		os.Exit(runModelCheck(os.Stdout, registry, func() {
			if llmService != nil {
				llmService.Close()
			}
			if err := source.Close(); err != nil {
				log.Warn("Failed to close artifact source", "error", err)
			}
			log.Sync()
		}))
	}

	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  cfg.ServiceName,
		Endpoint:     cfg.OTelEndpoint,
		Insecure:     cfg.OTelInsecure,
		SamplerRatio: cfg.OTelSamplerRatio,
	})

	// Initialize database store
	dbStore, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}
	defer dbStore.Close()

	var sessions auth.SessionStore = dbStore
	if cfg.SessionBackend == config.SessionBackendRedis {
		redisSessions, err := auth.NewRedisSessionStore(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("Failed to connect session store", "error", err)
		}
		defer redisSessions.Close()
		sessions = redisSessions
	}
	sessionManager := auth.NewManager(dbStore, sessions, cfg.SessionSecret, cfg.SessionTTL, log)

	recs := recommend.NewLookup(cfg.DataDir, log)
	chatService := core.NewChatService(dbStore, registry, recs, log)
	pacService := core.NewPACService(registry, recs, log)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(api.Services{
		Auth:   sessionManager,
		Chat:   chatService,
		PAC:    pacService,
		Data:   recs,
		Models: registry,
		DB:     dbStore,
	}, cfg.CookieSecure, log)
	router := api.NewRouter(apiHandler, cfg.StaticDir, log)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("Starting server", "addr", serverAddr, "session_backend", cfg.SessionBackend, "chat_backend", cfg.ChatBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Could not listen", "addr", serverAddr, "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn("otel shutdown failed", "error", err)
	}
	log.Info("Server exiting gracefully")
}

// loadRegistry reads the manifest and every artifact. With the gemini backend
// the chat slot is served by Gemini instead of the local vectorizer and model.
func loadRegistry(ctx context.Context, cfg *config.Config, source *classifier.Source, log *logger.Logger) (*classifier.Registry, *core.LLMService, error) {
	manifest, err := classifier.LoadManifest(ctx, source, cfg.ModelManifest)
	if err != nil {
		return nil, nil, fmt.Errorf("model manifest: %w", err)
	}

	opts := classifier.LoadOptions{
		ModelDir: cfg.ModelDir,
		Manifest: manifest,
		Reader:   source,
	}

	var llmService *core.LLMService
	if cfg.ChatBackend == config.ChatBackendGemini {
		opts.RemoteChat = true
		llmService, err = core.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, manifest.Chat.Labels, log)
		if err != nil {
			log.Error("Gemini chat backend unavailable", "error", err)
			llmService = nil
		} else {
			opts.Chat = llmService
		}
	}

	return classifier.Load(ctx, opts, log), llmService, nil
}

// runModelCheck prints the slot report, runs cleanup and returns the exit code.
func runModelCheck(w io.Writer, registry *classifier.Registry, cleanup func()) int {
	code := checkModels(w, registry)
	cleanup()
	return code
}

func checkModels(w io.Writer, registry *classifier.Registry) int {
	code := 0
	for _, s := range registry.Status() {
		state := "ok"
		if !s.Available {
			state = "unavailable"
			code = 1
		}
		fmt.Fprintf(w, "%-14s %s\n", s.Name, state)
	}
	return code
}
