package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.CollaboratorTimeout)
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.True(t, cfg.BreakerEnabled)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9999")
	t.Setenv("SESSION_TTL_MINUTES", "5")
	t.Setenv("BREAKER_ENABLED", "false")
	t.Setenv("RETRY_MAX_ATTEMPTS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9999", cfg.APIPort)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.False(t, cfg.BreakerEnabled)
	assert.Equal(t, 3, cfg.RetryMaxAttempts, "unparsable values fall back to the default")
}
