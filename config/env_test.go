package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "SESSION_TTL", "STEPUP_MODE", "CORS_ORIGINS", "UPLOAD_DIR"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "none", cfg.Auth.StepUpMode)
	assert.Equal(t, "public/uploads", cfg.Assets.UploadDir)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("STEPUP_MODE", "TOTP")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("REDIS_DB", "2")

	cfg := LoadConfig()
	assert.Equal(t, 90*time.Minute, cfg.Auth.SessionTTL)
	assert.Equal(t, "totp", cfg.Auth.StepUpMode)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestLoadConfig_BadSessionTTLFallsBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")
	assert.Equal(t, 24*time.Hour, LoadConfig().Auth.SessionTTL)
}

func TestValidate(t *testing.T) {
	valid := Config{
		DB:   DBConfig{DSN: "postgres://localhost/resto"},
		Auth: AuthConfig{JWTSecret: "s", StepUpMode: "none"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"missing dsn", func(c *Config) { c.DB.DSN = "" }, "DATABASE_DSN"},
		{"missing jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }, "JWT_SECRET"},
		{"secret mode without secret", func(c *Config) { c.Auth.StepUpMode = "secret" }, "STEPUP_SECRET"},
		{"totp mode without secret", func(c *Config) { c.Auth.StepUpMode = "totp" }, "STEPUP_TOTP_SECRET"},
		{"unknown mode", func(c *Config) { c.Auth.StepUpMode = "sms" }, "unknown STEPUP_MODE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
