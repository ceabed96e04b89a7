package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the scheduler.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Instantly InstantlyConfig `yaml:"instantly"`
	SES       SESConfig       `yaml:"ses"`
	Warmup    WarmupConfig    `yaml:"warmup"`
	Reset     ResetConfig     `yaml:"reset"`
	Admission AdmissionConfig `yaml:"admission"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds the optional Redis connection used for distributed
// locks. When disabled, locking falls back to PG advisory locks.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

// InstantlyConfig holds Instantly.ai API configuration
type InstantlyConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	CampaignID     string `yaml:"campaign_id"`
	Enabled        bool   `yaml:"enabled"`
}

// Timeout returns the configured timeout as a duration
func (c InstantlyConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SESConfig holds AWS SES API configuration used for the upstream send
// quota cross-check.
type SESConfig struct {
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Enabled        bool   `yaml:"enabled"`
}

// Timeout returns the configured timeout as a duration
func (c SESConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WarmupConfig holds the account warmup schedule. Thresholds are days
// since warmup start; multipliers scale the base daily limit during the
// intermediate phases.
type WarmupConfig struct {
	LimitedAfterDays      int     `yaml:"limited_after_days"`
	RampingAfterDays      int     `yaml:"ramping_after_days"`
	ActiveAfterDays       int     `yaml:"active_after_days"`
	LimitedMultiplier     float64 `yaml:"limited_multiplier"`
	RampingMultiplier     float64 `yaml:"ramping_multiplier"`
	DefaultBaseDailyLimit int     `yaml:"default_base_daily_limit"`
}

// ResetConfig holds the daily counter reset worker configuration.
type ResetConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalMinutes int  `yaml:"interval_minutes"`
}

// Interval returns the reset check interval as a duration
func (c ResetConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// AdmissionConfig controls admission behavior. SerializeScopes turns on
// per-scope distributed locking so concurrent batches for the same
// market/agent cannot both pass the capacity check.
type AdmissionConfig struct {
	SerializeScopes bool `yaml:"serialize_scopes"`
	LockTTLSeconds  int  `yaml:"lock_ttl_seconds"`
}

// LockTTL returns the admission lock TTL as a duration
func (c AdmissionConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Instantly.BaseURL == "" {
		cfg.Instantly.BaseURL = "https://api.instantly.ai/api/v1"
	}
	if cfg.Instantly.TimeoutSeconds == 0 {
		cfg.Instantly.TimeoutSeconds = 30
	}
	if cfg.SES.TimeoutSeconds == 0 {
		cfg.SES.TimeoutSeconds = 30
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-west-2"
	}
	if cfg.Warmup.LimitedAfterDays == 0 {
		cfg.Warmup.LimitedAfterDays = 14
	}
	if cfg.Warmup.RampingAfterDays == 0 {
		cfg.Warmup.RampingAfterDays = 21
	}
	if cfg.Warmup.ActiveAfterDays == 0 {
		cfg.Warmup.ActiveAfterDays = 35
	}
	if cfg.Warmup.LimitedMultiplier == 0 {
		cfg.Warmup.LimitedMultiplier = 0.25
	}
	if cfg.Warmup.RampingMultiplier == 0 {
		cfg.Warmup.RampingMultiplier = 0.5
	}
	if cfg.Warmup.DefaultBaseDailyLimit == 0 {
		cfg.Warmup.DefaultBaseDailyLimit = 50
	}
	if cfg.Reset.IntervalMinutes == 0 {
		cfg.Reset.IntervalMinutes = 15
	}
	if cfg.Admission.LockTTLSeconds == 0 {
		cfg.Admission.LockTTLSeconds = 60
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if apiKey := os.Getenv("INSTANTLY_API_KEY"); apiKey != "" {
		cfg.Instantly.APIKey = apiKey
		cfg.Instantly.Enabled = true
	}
	if baseURL := os.Getenv("INSTANTLY_BASE_URL"); baseURL != "" {
		cfg.Instantly.BaseURL = baseURL
	}
	if campaignID := os.Getenv("INSTANTLY_CAMPAIGN_ID"); campaignID != "" {
		cfg.Instantly.CampaignID = campaignID
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			cfg.Redis.DB = n
		}
	}
	if accessKey := os.Getenv("AWS_SES_ACCESS_KEY"); accessKey != "" {
		cfg.SES.AccessKey = accessKey
	}
	if secretKey := os.Getenv("AWS_SES_SECRET_KEY"); secretKey != "" {
		cfg.SES.SecretKey = secretKey
	}
	if region := os.Getenv("AWS_SES_REGION"); region != "" {
		cfg.SES.Region = region
	}

	return cfg, nil
}
