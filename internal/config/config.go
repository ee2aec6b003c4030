// Package config defines the compliancehub configuration and its validation.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config is the root configuration. Fields come from a TOML file and may be
// overridden by COMPLIANCEHUB_* environment variables.
type Config struct {
	Supabase  SupabaseConfig  `toml:"supabase"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Auth      AuthConfig      `toml:"auth"`
	Dashboard DashboardConfig `toml:"dashboard"`
	Jobs      JobsConfig      `toml:"jobs"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// SupabaseConfig holds the PostgreSQL connection behind the Supabase project.
type SupabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	URL        string `toml:"url"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds the snapshot archive bucket.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// AuthConfig verifies Supabase-issued access tokens.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	// Audience is matched against the aud claim when set.
	Audience string `toml:"audience"`
	Issuer   string `toml:"issuer"`
}

// DashboardConfig tunes dashboard computation and caching.
type DashboardConfig struct {
	CacheTTL duration `toml:"cache_ttl"`
	// Timezone is the IANA zone used for deadline day boundaries.
	Timezone string `toml:"timezone"`
}

// Location resolves Timezone, falling back to UTC.
func (d DashboardConfig) Location() *time.Location {
	if d.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// JobsConfig schedules the background jobs run in worker mode.
type JobsConfig struct {
	DeadlineCron string   `toml:"deadline_cron"`
	SnapshotCron string   `toml:"snapshot_cron"`
	LockTTL      duration `toml:"lock_ttl"`
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port         int      `toml:"port"`
	CORSOrigins  []string `toml:"cors_origins"`
	CORSMethods  []string `toml:"cors_methods"`
	CORSMaxAge   duration `toml:"cors_max_age"`
	RateLimit    int      `toml:"rate_limit"`    // requests per minute per user
	IPRateLimit  int      `toml:"ip_rate_limit"` // requests per minute per IP, checked before auth
	ReadTimeout  duration `toml:"read_timeout"`
	WriteTimeout duration `toml:"write_timeout"`
}

// NotifyConfig holds alert channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config suitable for local development.
func Defaults() Config {
	return Config{
		Supabase: SupabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: false,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "compliance-snapshots",
			ForcePathStyle: true,
		},
		Auth: AuthConfig{
			Audience: "authenticated",
		},
		Dashboard: DashboardConfig{
			CacheTTL: duration{60 * time.Second},
			Timezone: "UTC",
		},
		Jobs: JobsConfig{
			DeadlineCron: "0 13 * * *",
			SnapshotCron: "30 23 * * *",
			LockTTL:      duration{10 * time.Minute},
		},
		Server: ServerConfig{
			Port:         8080,
			CORSOrigins:  []string{"http://localhost:3000"},
			CORSMethods:  []string{"GET", "OPTIONS"},
			CORSMaxAge:   duration{10 * time.Minute},
			RateLimit:    120,
			IPRateLimit:  600,
			ReadTimeout:  duration{15 * time.Second},
			WriteTimeout: duration{30 * time.Second},
		},
		Notify: NotifyConfig{
			Events: []string{"deadline_overdue", "job_failed"},
		},
		Mode:     ModeFull,
		LogLevel: "info",
	}
}

// Operating modes.
const (
	ModeServer = "server" // HTTP API and WebSocket hub
	ModeWorker = "worker" // scheduled jobs only
	ModeFull   = "full"   // both
)

var validModes = map[string]bool{
	ModeServer: true,
	ModeWorker: true,
	ModeFull:   true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []string
	mode := strings.ToLower(c.Mode)

	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, worker, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if strings.TrimSpace(c.Supabase.DSN) == "" {
		if c.Supabase.Host == "" {
			errs = append(errs, "supabase: host must not be empty (or set supabase.dsn)")
		}
		if c.Supabase.Port <= 0 || c.Supabase.Port > 65535 {
			errs = append(errs, fmt.Sprintf("supabase: port must be 1-65535, got %d", c.Supabase.Port))
		}
		if c.Supabase.Database == "" {
			errs = append(errs, "supabase: database must not be empty")
		}
	}
	if c.Supabase.PoolMaxConns < 1 {
		errs = append(errs, "supabase: pool_max_conns must be >= 1")
	}
	if c.Supabase.PoolMinConns < 0 || c.Supabase.PoolMinConns > c.Supabase.PoolMaxConns {
		errs = append(errs, "supabase: pool_min_conns must be between 0 and pool_max_conns")
	}

	if c.Redis.URL == "" && c.Redis.Addr == "" {
		errs = append(errs, "redis: url or addr must be set")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	if c.S3.Enabled && c.S3.Bucket == "" {
		errs = append(errs, "s3: bucket must not be empty when enabled")
	}
	if c.S3.Enabled && c.S3.Region == "" {
		errs = append(errs, "s3: region must not be empty when enabled")
	}

	if mode == ModeServer || mode == ModeFull {
		if len(c.Auth.JWTSecret) < 32 {
			errs = append(errs, "auth: jwt_secret must be at least 32 characters")
		}
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
		if c.Server.IPRateLimit < 0 {
			errs = append(errs, "server: ip_rate_limit must be >= 0")
		}
		if c.Server.CORSMaxAge.Duration < 0 {
			errs = append(errs, "server: cors_max_age must not be negative")
		}
	}

	if c.Dashboard.CacheTTL.Duration < 0 {
		errs = append(errs, "dashboard: cache_ttl must not be negative")
	}
	if c.Dashboard.Timezone != "" {
		if _, err := time.LoadLocation(c.Dashboard.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("dashboard: unknown timezone %q", c.Dashboard.Timezone))
		}
	}

	if mode == ModeWorker || mode == ModeFull {
		if c.Jobs.DeadlineCron == "" && c.Jobs.SnapshotCron == "" {
			errs = append(errs, "jobs: at least one of deadline_cron or snapshot_cron must be set")
		}
		if c.Jobs.LockTTL.Duration <= 0 {
			errs = append(errs, "jobs: lock_ttl must be > 0")
		}
	}

	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
