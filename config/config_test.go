package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"LLM_PROVIDER", "MODEL_NAME", "CONTEXT_LENGTH_THRESHOLD", "DOC_DIR",
		"INDEX_DIR", "LOG_FILE_PATH", "LLM_TIMEOUT", "WORKER_POOL_SIZE",
		"LISTEN_ADDR", "TOOL_MAX_RETRIES", "TOOL_RETRY_DELAY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "openai" {
		t.Fatalf("want default provider openai, got %q", cfg.Provider)
	}
	if cfg.WorkerPoolSize != 4 {
		t.Fatalf("want default worker pool size 4, got %d", cfg.WorkerPoolSize)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("want default listen addr :8080, got %q", cfg.ListenAddr)
	}
	if cfg.ToolRetryDelay != 2*time.Second {
		t.Fatalf("want default tool retry delay 2s, got %s", cfg.ToolRetryDelay)
	}
}

func TestLoadHonorsEnvOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("WORKER_POOL_SIZE", "16")
	t.Setenv("LISTEN_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "anthropic" {
		t.Fatalf("want anthropic, got %q", cfg.Provider)
	}
	if cfg.WorkerPoolSize != 16 {
		t.Fatalf("want 16, got %d", cfg.WorkerPoolSize)
	}
	if cfg.ListenAddr != ":9090" {
		t.Fatalf("want :9090, got %q", cfg.ListenAddr)
	}
}

func TestGetenvIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("API_KEY", "test-key")
	t.Setenv("TOOL_MAX_RETRIES", "not-a-number")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ToolMaxRetries != 3 {
		t.Fatalf("want fallback default 3, got %d", cfg.ToolMaxRetries)
	}
}

func TestLoadFailsWithoutAPIKey(t *testing.T) {
	for _, key := range []string{"LLM_PROVIDER", "API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_API_KEY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	_, err := Load()
	if err == nil {
		t.Fatal("want error when no API key is configured, got nil")
	}
}
