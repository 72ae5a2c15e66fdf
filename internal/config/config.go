package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth. Empty disables bearer checks on /api routes.
	APIKey string

	// Request limits
	MaxRequestBytes int64
	MaxUploadBytes  int64
	MaxBatchSize    int

	// Batch fan-out
	MaxConcurrentChunk int

	// Result cache entries; 0 disables the cache.
	CacheSize int

	// Stats window
	StatsWindow time.Duration

	// Chunking defaults
	ParagraphDelimiter string

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("DOCCHUNK_API_KEY"),

		MaxRequestBytes: envInt64("MAX_REQUEST_BYTES", 10485760), // 10MB
		MaxUploadBytes:  envInt64("MAX_UPLOAD_BYTES", 52428800),  // 50MB
		MaxBatchSize:    envInt("MAX_BATCH_SIZE", 32),

		MaxConcurrentChunk: envInt("MAX_CONCURRENT_CHUNK", 4),

		CacheSize: envInt("CACHE_SIZE", 256),

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),

		ParagraphDelimiter: envOr("PARAGRAPH_DELIMITER", "\n"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = 10485760
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 32
	}
	if cfg.MaxConcurrentChunk <= 0 {
		cfg.MaxConcurrentChunk = 4
	}
	if cfg.CacheSize < 0 {
		cfg.CacheSize = 0
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.MaxBatchSize < c.MaxConcurrentChunk {
		return fmt.Errorf("MAX_BATCH_SIZE (%d) must be >= MAX_CONCURRENT_CHUNK (%d)", c.MaxBatchSize, c.MaxConcurrentChunk)
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
