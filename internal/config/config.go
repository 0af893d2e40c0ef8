package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Gemini backend
	GeminiAPIKey string
	GeminiModel  string

	// Local model backend; empty disables it.
	LocalModelCmd string

	// Persisted reader state
	StateDir string

	// Upload limits
	MaxUploadBytes int64

	// Session eviction
	SessionTTL      time.Duration
	CleanupInterval time.Duration

	// Optional overrides for the built-in chapter table and vocabulary.
	ChapterConfig string
	VocabConfig   string

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("TEXTBOOKD_API_KEY"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envOr("GEMINI_MODEL", "gemini-1.5-flash-latest"),

		LocalModelCmd: os.Getenv("LOCAL_MODEL_CMD"),

		StateDir: envOr("STATE_DIR", "data"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 104857600), // 100MB, textbooks are large

		SessionTTL:      envDuration("SESSION_TTL", 24*time.Hour),
		CleanupInterval: envDuration("CLEANUP_INTERVAL", 10*time.Minute),

		ChapterConfig: os.Getenv("CHAPTER_CONFIG"),
		VocabConfig:   os.Getenv("VOCAB_CONFIG"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 104857600
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 10 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("TEXTBOOKD_API_KEY is required")
	}
	if c.StateDir == "" {
		return fmt.Errorf("STATE_DIR must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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
