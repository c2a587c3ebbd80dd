package config

import (
	"testing"
	"time"
)

func TestLoadRequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when SESSION_SECRET is missing")
	}
}

func TestLoadUsesDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("CHAT_BACKEND", "")
	t.Setenv("SESSION_TTL_HOURS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.DatabaseURL != "chatbot.db" {
		t.Fatalf("expected sqlite default database, got %s", cfg.DatabaseURL)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("expected 24h session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.SessionBackend != SessionBackendSQL || cfg.ChatBackend != ChatBackendLocal {
		t.Fatalf("unexpected backends: %s %s", cfg.SessionBackend, cfg.ChatBackend)
	}
	if cfg.DataDir != "static/data" {
		t.Fatalf("unexpected data dir %s", cfg.DataDir)
	}
}

func TestLoadRedisBackendNeedsAddress(t *testing.T) {
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("CHAT_BACKEND", "")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when REDIS_ADDR is missing")
	}

	t.Setenv("REDIS_ADDR", "localhost:6379")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("unexpected redis addr %s", cfg.RedisAddr)
	}
}

func TestLoadGeminiBackendNeedsKey(t *testing.T) {
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("CHAT_BACKEND", "gemini")
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when GEMINI_API_KEY is missing")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("CHAT_BACKEND", "")
	t.Setenv("SESSION_BACKEND", "memcached")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown session backend")
	}
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("FLAG_ON", "Yes")
	t.Setenv("FLAG_BAD", "maybe")
	if !getEnvAsBool("FLAG_ON", false) {
		t.Fatal("expected true")
	}
	if !getEnvAsBool("FLAG_BAD", true) {
		t.Fatal("expected default for unparsable value")
	}
}
