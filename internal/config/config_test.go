package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "admin")
	t.Setenv("DB_NAME", "accounts")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.Equal(t, "disable", cfg.DB.SSLMode)
	assert.False(t, cfg.Admin.StrictDescriptors)
	assert.Equal(t, 5, cfg.Admin.LoginMaxAttempts)
	assert.Equal(t, time.Minute, cfg.Admin.LoginAttemptWindow)
	assert.Equal(t, "file://migrations", cfg.Admin.MigrationsPath)
	assert.Equal(t, []string{"localhost:3000", "127.0.0.1:3000"}, cfg.CORSAllowedHosts)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_STRICT_DESCRIPTORS", "true")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")
	t.Setenv("LOGIN_ATTEMPT_WINDOW", "30s")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CORS_ALLOWED_HOSTS", " Admin.Example.com , ,backoffice.example.com")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Admin.StrictDescriptors)
	assert.Equal(t, 3, cfg.Admin.LoginMaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Admin.LoginAttemptWindow)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, []string{"admin.example.com", "backoffice.example.com"}, cfg.CORSAllowedHosts)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.5"}, cfg.TrustedProxies)
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_IncompleteDatabase(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_HOST", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_HOST")
}

func TestLoad_InvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_TTL")
}
