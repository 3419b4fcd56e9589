package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries every runtime setting, loaded once at startup. All values
// have working defaults so a local run needs nothing but the OpenAI key.
type Config struct {
	APIPort        string
	LogLevel       string
	AllowedOrigins string

	// DatabaseURL enables the durable conversation store when set; empty
	// means conversations live in process memory only.
	DatabaseURL string

	OpenAIAPIKey string
	OpenAIModel  string

	InventoryBaseURL string
	OrdersBaseURL    string

	CollaboratorTimeout time.Duration
	RetryMaxAttempts    int
	BreakerEnabled      bool

	SessionTTL       time.Duration
	RequestBodyLimit int64
}

// Load reads configuration from the environment, falling back to defaults.
func Load() Config {
	return Config{
		APIPort:        mustEnv("API_PORT", "8080"),
		LogLevel:       mustEnv("LOG_LEVEL", "info"),
		AllowedOrigins: mustEnv("ALLOWED_ORIGINS", ""),

		DatabaseURL: mustEnv("DATABASE_URL", ""),

		OpenAIAPIKey: mustEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  mustEnv("OPENAI_MODEL", ""),

		InventoryBaseURL: mustEnv("INVENTORY_BASE_URL", "http://localhost:8081"),
		OrdersBaseURL:    mustEnv("ORDERS_BASE_URL", "http://localhost:8082"),

		CollaboratorTimeout: time.Duration(mustEnvInt("COLLABORATOR_TIMEOUT_SECONDS", 15)) * time.Second,
		RetryMaxAttempts:    mustEnvInt("RETRY_MAX_ATTEMPTS", 3),
		BreakerEnabled:      mustEnvBool("BREAKER_ENABLED", true),

		SessionTTL:       time.Duration(mustEnvInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
		RequestBodyLimit: int64(mustEnvInt("REQUEST_BODY_LIMIT_BYTES", 1<<20)),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
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

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
