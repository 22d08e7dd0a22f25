package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string
	DefaultLocale  string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// GenerateRatePerMin bounds outbound calls to the generation provider.
	GenerateRatePerMin int
	// BatchConcurrency is the default worker-pool size for batch generation.
	BatchConcurrency int
	// MaxUploadDimension caps the long side of padded uploads in pixels.
	MaxUploadDimension int

	LibraryPath string
	StoragePath string

	// Shake gesture tuning handed to clients verbatim. The thresholds are
	// empirical, not derived from a model; treat them as configuration.
	ShakeVelocityPxPerSec float64
	ShakeCooldown         time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigins:        splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		DefaultLocale:         getEnv("DEFAULT_LOCALE", "en"),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL:         getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GenerateRatePerMin:    getEnvInt("GENERATE_RATE_PER_MINUTE", 30),
		BatchConcurrency:      getEnvInt("BATCH_CONCURRENCY", 2),
		MaxUploadDimension:    getEnvInt("MAX_UPLOAD_DIMENSION", 1568),
		LibraryPath:           getEnv("LIBRARY_PATH", "./studio-library.db"),
		StoragePath:           getEnv("STORAGE_PATH", "./storage"),
		ShakeVelocityPxPerSec: getEnvFloat("SHAKE_VELOCITY_PX_PER_SEC", 1500),
		ShakeCooldown:         time.Second * time.Duration(getEnvInt("SHAKE_COOLDOWN_SECONDS", 2)),
		HTTPReadTimeout:       time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:      time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:       time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.BatchConcurrency < 1 {
		return nil, fmt.Errorf("BATCH_CONCURRENCY must be at least 1")
	}

	if cfg.MaxUploadDimension < 256 {
		return nil, fmt.Errorf("MAX_UPLOAD_DIMENSION must be at least 256")
	}

	if cfg.GenerateRatePerMin < 1 {
		return nil, fmt.Errorf("GENERATE_RATE_PER_MINUTE must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
