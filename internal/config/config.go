// Package config loads the application configuration from a YAML file
// with environment-variable overrides. Secrets live in .env locally and
// in real env vars in production.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	AdsLibrary AdsLibraryConfig `yaml:"ads_library"`
	Scraper    ScraperConfig    `yaml:"scraper"`
	Worker     WorkerConfig     `yaml:"worker"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection.
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds the relational store connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds the task-broker coordination settings (distributed
// locks and rate-limit cooldowns).
type RedisConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// AdsLibraryConfig holds ads-library API configuration.
type AdsLibraryConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIVersion     string `yaml:"api_version"`
	AccessToken    string `yaml:"access_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PageLimit      int    `yaml:"page_limit"`
}

// Timeout returns the configured timeout as a duration.
func (c AdsLibraryConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ScraperConfig holds storefront fetching configuration.
type ScraperConfig struct {
	UserAgent             string `yaml:"user_agent"`
	HTMLTimeoutSeconds    int    `yaml:"html_timeout_seconds"`
	HeaderTimeoutSeconds  int    `yaml:"header_timeout_seconds"`
	SitemapTimeoutSeconds int    `yaml:"sitemap_timeout_seconds"`
	MaxPerHost            int    `yaml:"max_per_host"`
}

// HTMLTimeout returns the full-body fetch timeout.
func (c ScraperConfig) HTMLTimeout() time.Duration {
	return time.Duration(c.HTMLTimeoutSeconds) * time.Second
}

// HeaderTimeout returns the headers-only fetch timeout.
func (c ScraperConfig) HeaderTimeout() time.Duration {
	return time.Duration(c.HeaderTimeoutSeconds) * time.Second
}

// SitemapTimeout returns the per-sitemap fetch timeout.
func (c ScraperConfig) SitemapTimeout() time.Duration {
	return time.Duration(c.SitemapTimeoutSeconds) * time.Second
}

// WorkerConfig holds task pool sizing and snapshot scheduling.
type WorkerConfig struct {
	NumWorkers          int    `yaml:"num_workers"`
	BatchSize           int    `yaml:"batch_size"`
	PollIntervalMS      int    `yaml:"poll_interval_ms"`
	SnapshotHourUTC     int    `yaml:"snapshot_hour_utc"`
	SnapshotLockSeconds int    `yaml:"snapshot_lock_seconds"`
	WorkerIDPrefix      string `yaml:"worker_id_prefix"`
}

// PollInterval returns the queue polling cadence.
func (c WorkerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// ArchiveConfig holds the optional S3 raw-payload archive settings.
type ArchiveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	S3Bucket string `yaml:"s3_bucket"`
	Region   string `yaml:"region"`
}

// LoggingConfig holds log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // simple | detailed
}

// Load reads and parses the configuration file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.AdsLibrary.BaseURL == "" {
		cfg.AdsLibrary.BaseURL = "https://graph.facebook.com"
	}
	if cfg.AdsLibrary.APIVersion == "" {
		cfg.AdsLibrary.APIVersion = "v21.0"
	}
	if cfg.AdsLibrary.TimeoutSeconds == 0 {
		cfg.AdsLibrary.TimeoutSeconds = 30
	}
	if cfg.AdsLibrary.PageLimit == 0 {
		cfg.AdsLibrary.PageLimit = 1000
	}
	if cfg.Scraper.UserAgent == "" {
		cfg.Scraper.UserAgent = "Mozilla/5.0 (compatible; ads-monitor/1.0)"
	}
	if cfg.Scraper.HTMLTimeoutSeconds == 0 {
		cfg.Scraper.HTMLTimeoutSeconds = 15
	}
	if cfg.Scraper.HeaderTimeoutSeconds == 0 {
		cfg.Scraper.HeaderTimeoutSeconds = 10
	}
	if cfg.Scraper.SitemapTimeoutSeconds == 0 {
		cfg.Scraper.SitemapTimeoutSeconds = 15
	}
	if cfg.Scraper.MaxPerHost == 0 {
		cfg.Scraper.MaxPerHost = 5
	}
	if cfg.Worker.NumWorkers == 0 {
		cfg.Worker.NumWorkers = 8
	}
	if cfg.Worker.BatchSize == 0 {
		cfg.Worker.BatchSize = 20
	}
	if cfg.Worker.PollIntervalMS == 0 {
		cfg.Worker.PollIntervalMS = 500
	}
	if cfg.Worker.SnapshotHourUTC == 0 {
		cfg.Worker.SnapshotHourUTC = 3
	}
	if cfg.Worker.SnapshotLockSeconds == 0 {
		cfg.Worker.SnapshotLockSeconds = 600
	}
	if cfg.Worker.WorkerIDPrefix == "" {
		cfg.Worker.WorkerIDPrefix = "worker"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "detailed"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env
// vars. If path is empty or unreadable and DATABASE_URL is set, an
// all-defaults config driven by env vars is returned.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		if !os.IsNotExist(err) || os.Getenv("DATABASE_URL") == "" {
			return nil, err
		}
		cfg = &Config{}
		applyDefaults(cfg)
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("TASK_BROKER_URL"); v != "" {
		cfg.Redis.URL = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("ADS_LIBRARY_TOKEN"); v != "" {
		cfg.AdsLibrary.AccessToken = v
	}
	if v := os.Getenv("ADS_LIBRARY_BASE_URL"); v != "" {
		cfg.AdsLibrary.BaseURL = v
	}
	if v := os.Getenv("ADS_LIBRARY_API_VERSION"); v != "" {
		cfg.AdsLibrary.APIVersion = v
	}
	if v := os.Getenv("HTTP_USER_AGENT"); v != "" {
		cfg.Scraper.UserAgent = v
	}
	if v := os.Getenv("HTTP_TIMEOUT_DEFAULT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.AdsLibrary.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("ARCHIVE_S3_BUCKET"); v != "" {
		cfg.Archive.S3Bucket = v
		cfg.Archive.Enabled = true
	}
	if v := os.Getenv("ARCHIVE_S3_REGION"); v != "" {
		cfg.Archive.Region = v
	}

	return cfg, nil
}
