package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days"`

	HTTPAddr               string        `mapstructure:"http_addr"`
	ShutdownTimeoutSeconds int64         `mapstructure:"shutdown_timeout_seconds"`
	ShutdownTimeout        time.Duration `mapstructure:"-"`
	RequestTimeoutSeconds  int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout         time.Duration `mapstructure:"-"`

	PredictorsFile string `mapstructure:"predictors_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	MessageTTLMs      int64         `mapstructure:"message_ttl_ms"`
	MessageTTL        time.Duration `mapstructure:"-"`
	SessionTTLSeconds int64         `mapstructure:"session_ttl_seconds"`
	SessionTTL        time.Duration `mapstructure:"-"`

	SubmitRatePerSecond float64 `mapstructure:"submit_rate_per_second"`
	SubmitBurst         int     `mapstructure:"submit_burst"`

	// TrustedProxiesRaw is a comma separated list of proxy IPs or CIDRs whose
	// X-Forwarded-For header is honoured. Empty trusts no proxy.
	TrustedProxiesRaw string   `mapstructure:"trusted_proxies"`
	TrustedProxies    []string `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-name-profiler")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 50)
	v.SetDefault("log_max_backups", 5)
	v.SetDefault("log_max_age_days", 14)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("shutdown_timeout_seconds", 10)
	v.SetDefault("request_timeout_seconds", 10)
	v.SetDefault("predictors_file", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("message_ttl_ms", 1000)
	v.SetDefault("session_ttl_seconds", int64((30*time.Minute)/time.Second))
	v.SetDefault("submit_rate_per_second", 2.0)
	v.SetDefault("submit_burst", 5)
	v.SetDefault("trusted_proxies", "")
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/responses.db")
	v.SetDefault("storage_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64(time.Hour/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize validates the raw numeric settings and derives the duration fields.
func (cfg *Config) normalize() error {
	if cfg.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid shutdown_timeout_seconds (must be positive seconds)")
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	if cfg.MessageTTLMs <= 0 {
		return fmt.Errorf("invalid message_ttl_ms (must be positive milliseconds)")
	}
	if cfg.SessionTTLSeconds <= 0 {
		return fmt.Errorf("invalid session_ttl_seconds (must be positive seconds)")
	}
	if cfg.SubmitRatePerSecond <= 0 || cfg.SubmitBurst <= 0 {
		return fmt.Errorf("invalid submit rate limit (rate=%v burst=%d)", cfg.SubmitRatePerSecond, cfg.SubmitBurst)
	}
	cfg.ShutdownTimeout = time.Duration(cfg.ShutdownTimeoutSeconds) * time.Second
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	cfg.MessageTTL = time.Duration(cfg.MessageTTLMs) * time.Millisecond
	cfg.SessionTTL = time.Duration(cfg.SessionTTLSeconds) * time.Second
	cfg.TrustedProxies = splitList(cfg.TrustedProxiesRaw)

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
