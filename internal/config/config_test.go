package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func validConfig() Config {
	cfg := Defaults()
	cfg.Auth.JWTSecret = testSecret
	return cfg
}

func TestDefaultsValidateWithSecret(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "batch"
	cfg.LogLevel = "loud"
	cfg.Redis.Addr = ""
	cfg.Dashboard.Timezone = "Mars/Olympus"
	cfg.Notify.TelegramToken = "tok"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"unknown mode", "unknown log_level", "redis:", "timezone", "telegram_chat_id"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateRequiresSecretOnlyForServer(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "worker"
	assert.NoError(t, cfg.Validate())

	cfg.Mode = "server"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestValidateS3WhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.S3.Enabled = true
	cfg.S3.Bucket = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3: bucket")
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compliancehub.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "server"

[dashboard]
cache_ttl = "2m"
timezone = "America/Chicago"

[server]
port = 9090
`), 0o600))

	t.Setenv("COMPLIANCEHUB_SERVER_CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("COMPLIANCEHUB_AUTH_JWT_SECRET", testSecret)
	t.Setenv("COMPLIANCEHUB_JOBS_LOCK_TTL", "90s")
	t.Setenv("COMPLIANCEHUB_SERVER_RATE_LIMIT", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "server", cfg.Mode)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Dashboard.CacheTTL.Duration)
	assert.Equal(t, "America/Chicago", cfg.Dashboard.Location().String())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 90*time.Second, cfg.Jobs.LockTTL.Duration)
	assert.Equal(t, 120, cfg.Server.RateLimit)
	assert.Equal(t, 600, cfg.Server.IPRateLimit)
	assert.Equal(t, []string{"GET", "OPTIONS"}, cfg.Server.CORSMethods)
	assert.Equal(t, 10*time.Minute, cfg.Server.CORSMaxAge.Duration)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, DashboardConfig{}.Location())
	assert.Equal(t, time.UTC, DashboardConfig{Timezone: "nowhere"}.Location())
}

func TestRedactedConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Supabase.Password = "pw"
	cfg.S3.SecretKey = "sk"
	cfg.Notify.DiscordWebhookURL = "https://discord.example/hook"

	out := RedactedConfig(&cfg)

	assert.Equal(t, redacted, out.Auth.JWTSecret)
	assert.Equal(t, redacted, out.Supabase.Password)
	assert.Equal(t, redacted, out.S3.SecretKey)
	assert.Equal(t, redacted, out.Notify.DiscordWebhookURL)
	assert.Empty(t, out.Supabase.DSN)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)

	out.Server.CORSOrigins[0] = "mutated"
	assert.False(t, strings.HasPrefix(cfg.Server.CORSOrigins[0], "mutated"))
}
