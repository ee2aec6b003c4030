package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load merges the TOML file at path over Defaults, loads a .env file when
// present and applies COMPLIANCEHUB_* overrides. An empty path skips the
// file. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Supabase
	setStr(&cfg.Supabase.DSN, "COMPLIANCEHUB_SUPABASE_DSN")
	setStr(&cfg.Supabase.DSN, "DATABASE_URL")
	setStr(&cfg.Supabase.Host, "COMPLIANCEHUB_SUPABASE_HOST")
	setInt(&cfg.Supabase.Port, "COMPLIANCEHUB_SUPABASE_PORT")
	setStr(&cfg.Supabase.Database, "COMPLIANCEHUB_SUPABASE_DATABASE")
	setStr(&cfg.Supabase.User, "COMPLIANCEHUB_SUPABASE_USER")
	setStr(&cfg.Supabase.Password, "COMPLIANCEHUB_SUPABASE_PASSWORD")
	setStr(&cfg.Supabase.SSLMode, "COMPLIANCEHUB_SUPABASE_SSL_MODE")
	setInt(&cfg.Supabase.PoolMaxConns, "COMPLIANCEHUB_SUPABASE_POOL_MAX_CONNS")
	setInt(&cfg.Supabase.PoolMinConns, "COMPLIANCEHUB_SUPABASE_POOL_MIN_CONNS")
	setBool(&cfg.Supabase.RunMigrations, "COMPLIANCEHUB_SUPABASE_RUN_MIGRATIONS")

	// Redis
	setStr(&cfg.Redis.URL, "COMPLIANCEHUB_REDIS_URL")
	setStr(&cfg.Redis.Addr, "COMPLIANCEHUB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "COMPLIANCEHUB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "COMPLIANCEHUB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "COMPLIANCEHUB_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "COMPLIANCEHUB_REDIS_TLS_ENABLED")

	// S3
	setBool(&cfg.S3.Enabled, "COMPLIANCEHUB_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "COMPLIANCEHUB_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "COMPLIANCEHUB_S3_REGION")
	setStr(&cfg.S3.Bucket, "COMPLIANCEHUB_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "COMPLIANCEHUB_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "COMPLIANCEHUB_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "COMPLIANCEHUB_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "COMPLIANCEHUB_S3_FORCE_PATH_STYLE")

	// Auth
	setStr(&cfg.Auth.JWTSecret, "COMPLIANCEHUB_AUTH_JWT_SECRET")
	setStr(&cfg.Auth.JWTSecret, "SUPABASE_JWT_SECRET")
	setStr(&cfg.Auth.Audience, "COMPLIANCEHUB_AUTH_AUDIENCE")
	setStr(&cfg.Auth.Issuer, "COMPLIANCEHUB_AUTH_ISSUER")

	// Dashboard
	setDuration(&cfg.Dashboard.CacheTTL, "COMPLIANCEHUB_DASHBOARD_CACHE_TTL")
	setStr(&cfg.Dashboard.Timezone, "COMPLIANCEHUB_DASHBOARD_TIMEZONE")

	// Jobs
	setStr(&cfg.Jobs.DeadlineCron, "COMPLIANCEHUB_JOBS_DEADLINE_CRON")
	setStr(&cfg.Jobs.SnapshotCron, "COMPLIANCEHUB_JOBS_SNAPSHOT_CRON")
	setDuration(&cfg.Jobs.LockTTL, "COMPLIANCEHUB_JOBS_LOCK_TTL")

	// Server
	setInt(&cfg.Server.Port, "COMPLIANCEHUB_SERVER_PORT")
	setInt(&cfg.Server.Port, "PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "COMPLIANCEHUB_SERVER_CORS_ORIGINS")
	setStringSlice(&cfg.Server.CORSMethods, "COMPLIANCEHUB_SERVER_CORS_METHODS")
	setDuration(&cfg.Server.CORSMaxAge, "COMPLIANCEHUB_SERVER_CORS_MAX_AGE")
	setInt(&cfg.Server.RateLimit, "COMPLIANCEHUB_SERVER_RATE_LIMIT")
	setInt(&cfg.Server.IPRateLimit, "COMPLIANCEHUB_SERVER_IP_RATE_LIMIT")

	// Notify
	setStr(&cfg.Notify.TelegramToken, "COMPLIANCEHUB_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "COMPLIANCEHUB_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "COMPLIANCEHUB_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "COMPLIANCEHUB_NOTIFY_EVENTS")

	setStr(&cfg.Mode, "COMPLIANCEHUB_MODE")
	setStr(&cfg.LogLevel, "COMPLIANCEHUB_LOG_LEVEL")
}

// The set* helpers only touch dst when the variable is non-empty and parses.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var cleaned []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) > 0 {
		*dst = cleaned
	}
}
