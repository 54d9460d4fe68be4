package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("AI_TIMEOUT_SECONDS", "15")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:9999/v1/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AITimeout != 15*time.Second {
		t.Fatalf("expected 15s timeout, got %v", cfg.AITimeout)
	}
	if cfg.OpenAIBaseURL != "http://localhost:9999/v1" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.OpenAIBaseURL)
	}
	if cfg.WordPageSize != 1000 {
		t.Fatalf("expected default page size, got %d", cfg.WordPageSize)
	}
}

func TestLoadRejectsPostgresWithoutURL(t *testing.T) {
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for postgres without DATABASE_URL")
	}
}

func TestLoadRejectsBadChatID(t *testing.T) {
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("TELEGRAM_TEACHER_CHAT_ID", "teacher")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-numeric chat id")
	}
}
