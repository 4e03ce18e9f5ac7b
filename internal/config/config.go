// Package config reads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth + CORS
	APIKey      string
	CORSOrigins []string

	// Uploads
	DataDir        string
	MaxUploadBytes int64

	// Worker pool
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration

	// Persistence
	StoreBackend string
	DatabaseURL  string

	// Summaries
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	SummaryModel         string
	SummaryFallbackModel string

	// Analysis tuning
	HeuristicsFile    string
	PdftotextFallback bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey:      os.Getenv("API_KEY"),
		CORSOrigins: splitList(envOr("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),

		DataDir:        envOr("DATA_DIR", "./data"),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),
		JobTTL:       envDuration("JOB_TTL", 1*time.Hour),

		StoreBackend: envOr("STORE_BACKEND", "memory"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:        envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		SummaryModel:         envOr("SUMMARY_MODEL", "gpt-5-mini"),
		SummaryFallbackModel: envOr("SUMMARY_FALLBACK_MODEL", "gpt-4.1-mini"),

		HeuristicsFile:    os.Getenv("HEURISTICS_FILE"),
		PdftotextFallback: envBool("PDFTOTEXT_FALLBACK", true),
	}

	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.MaxQueueSize < 1 {
		cfg.MaxQueueSize = 1
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL < time.Minute {
		cfg.JobTTL = time.Minute
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}

	return cfg
}

func (c Config) Validate() error {
	if c.StoreBackend != "memory" && c.StoreBackend != "postgres" {
		return fmt.Errorf("STORE_BACKEND must be memory or postgres, got %q", c.StoreBackend)
	}
	if c.StoreBackend == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is postgres")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// splitList parses a comma-separated env value, dropping blanks.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
