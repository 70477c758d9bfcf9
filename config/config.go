// Package config loads the process-wide configuration once at startup
// into an immutable Config. No component reads the environment directly
// after main() builds this.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting the running process
// needs. Zero value is never used directly — build one with Load.
type Config struct {
	Provider               string // "openai", "anthropic", or "google"
	APIKey                 string
	AnthropicAPIKey        string
	GoogleAPIKey           string
	BaseURL                string
	ModelName              string
	LongContextModel       string
	ContextLengthThreshold int
	SerperAPIKey           string
	DocDir                 string
	IndexDir               string
	MySQLDSN               string
	LogFilePath            string
	LLMTimeout             time.Duration
	WorkerPoolSize         int
	ListenAddr             string
	ToolMaxRetries         int
	ToolRetryDelay         time.Duration
}

// Load reads a .env file if present (silently ignored if absent, the way
// a deployed process with real environment variables expects) and then
// layers os.Getenv on top, applying the documented defaults for anything
// unset.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Provider:               getenvDefault("LLM_PROVIDER", "openai"),
		APIKey:                 os.Getenv("API_KEY"),
		AnthropicAPIKey:        os.Getenv("ANTHROPIC_API_KEY"),
		GoogleAPIKey:           os.Getenv("GOOGLE_API_KEY"),
		BaseURL:                os.Getenv("BASE_URL"),
		ModelName:              getenvDefault("MODEL_NAME", "gpt-4o"),
		LongContextModel:       os.Getenv("LONG_CONTEXT_MODEL"),
		ContextLengthThreshold: getenvInt("CONTEXT_LENGTH_THRESHOLD", 8000),
		SerperAPIKey:           os.Getenv("SERPER_API_KEY"),
		DocDir:                 getenvDefault("DOC_DIR", "./docs"),
		IndexDir:               getenvDefault("INDEX_DIR", "./index"),
		MySQLDSN:               os.Getenv("MYSQL_DSN"),
		LogFilePath:            getenvDefault("LOG_FILE_PATH", "logs/agentgraph.log"),
		LLMTimeout:             getenvDuration("LLM_TIMEOUT", 30*time.Second),
		WorkerPoolSize:         getenvInt("WORKER_POOL_SIZE", 4),
		ListenAddr:             getenvDefault("LISTEN_ADDR", ":8080"),
		ToolMaxRetries:         getenvInt("TOOL_MAX_RETRIES", 3),
		ToolRetryDelay:         getenvDuration("TOOL_RETRY_DELAY", 2*time.Second),
	}

	if err := requireAPIKey(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// requireAPIKey fails fast when the key the configured provider needs to
// authenticate is absent, so a misconfigured deployment never binds the
// HTTP listener only to fail opaquely on its first LLM call.
func requireAPIKey(cfg Config) error {
	var key, envVar string
	switch cfg.Provider {
	case "anthropic":
		key, envVar = cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY"
	case "google":
		key, envVar = cfg.GoogleAPIKey, "GOOGLE_API_KEY"
	default:
		key, envVar = cfg.APIKey, "API_KEY"
	}
	if key == "" {
		return fmt.Errorf("config: %s is required for LLM_PROVIDER=%q", envVar, cfg.Provider)
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
