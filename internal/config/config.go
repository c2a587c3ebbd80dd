package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SessionBackendSQL   = "sql"
	SessionBackendRedis = "redis"

	ChatBackendLocal  = "local"
	ChatBackendGemini = "gemini"
)

type Config struct {
	HTTPPort    string
	DatabaseURL string
	LogLevel    string
	LogMode     string

	SessionSecret  string
	SessionTTL     time.Duration
	SessionBackend string
	RedisAddr      string
	CookieSecure   bool

	ModelDir      string
	ModelManifest string
	DataDir       string
	StaticDir     string

	ChatBackend  string
	GeminiAPIKey string
	GeminiModel  string

	ServiceName      string
	OTelEnabled      bool
	OTelEndpoint     string
	OTelInsecure     bool
	OTelSamplerRatio float64

	// EnvFileLoaded is false when no .env file was found and only the environment was used.
	EnvFileLoaded bool
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	envErr := godotenv.Load()

	cfg := &Config{
		EnvFileLoaded: envErr == nil,

		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "chatbot.db"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogMode:     getEnv("LOG_MODE", "dev"),

		SessionSecret:  getEnv("SESSION_SECRET", ""),
		SessionTTL:     time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		SessionBackend: strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendSQL)),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		CookieSecure:   getEnvAsBool("COOKIE_SECURE", false),

		ModelDir:      getEnv("MODEL_DIR", "ml_models"),
		ModelManifest: getEnv("MODEL_MANIFEST", ""),
		DataDir:       getEnv("DATA_DIR", "static/data"),
		StaticDir:     getEnv("STATIC_DIR", "static"),

		ChatBackend:  strings.ToLower(getEnv("CHAT_BACKEND", ChatBackendLocal)),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash-latest"),

		ServiceName:      getEnv("SERVICE_NAME", "health-chatbot"),
		OTelEnabled:      getEnvAsBool("OTEL_ENABLED", false),
		OTelEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTelInsecure:     getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		OTelSamplerRatio: getEnvAsFloat("OTEL_SAMPLER_RATIO", 0.1),
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}

	switch cfg.SessionBackend {
	case SessionBackendSQL:
	case SessionBackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when SESSION_BACKEND=redis")
		}
	default:
		return nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}

	switch cfg.ChatBackend {
	case ChatBackendLocal:
	case ChatBackendGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when CHAT_BACKEND=gemini")
		}
	default:
		return nil, fmt.Errorf("unknown CHAT_BACKEND %q", cfg.ChatBackend)
	}

	return cfg, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}
