package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Database DatabaseConfig `yaml:"database"`
	Calendar CalendarConfig `yaml:"calendar"`
	Terms    []TermConfig   `yaml:"terms"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// UpstreamConfig describes the academic-records API this service reads
// timetables from.
type UpstreamConfig struct {
	BaseURL         string        `yaml:"base_url"`
	AuthToken       string        `yaml:"auth_token"`
	TimeoutSeconds  int           `yaml:"timeout_seconds"`
	Timeout         time.Duration `yaml:"-"` // Ignored by YAML parser
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
	CacheTTL        time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// CalendarConfig holds settings for feed generation and storage.
type CalendarConfig struct {
	Dir            string `yaml:"dir"`
	UIDDomain      string `yaml:"uid_domain"`
	WorkerPoolSize int    `yaml:"worker_pool_size"`
}

// TermConfig is one academic term as declared in the configuration file.
// The start date anchors week 1 / weekday 1 of the term.
type TermConfig struct {
	ID          string             `yaml:"id"`    // e.g. "2023-2024-1"
	Start       string             `yaml:"start"` // e.g. "2023-09-04"
	Adjustments []AdjustmentConfig `yaml:"adjustments"`
}

// AdjustmentConfig is a single date-level schedule override. Exactly one of
// To and Cancelled is meaningful: a move carries a replacement date, a
// cancellation suppresses the occurrence on the keyed date.
type AdjustmentConfig struct {
	Date      string `yaml:"date"`
	To        string `yaml:"to"`
	Cancelled bool   `yaml:"cancelled"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Upstream.BaseURL == "" {
		return nil, fmt.Errorf("upstream.base_url must be configured")
	}
	if cfg.Upstream.TimeoutSeconds <= 0 {
		cfg.Upstream.TimeoutSeconds = 15
	}
	cfg.Upstream.Timeout = time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second

	if cfg.Upstream.CacheTTLSeconds <= 0 {
		cfg.Upstream.CacheTTLSeconds = 300
	}
	cfg.Upstream.CacheTTL = time.Duration(cfg.Upstream.CacheTTLSeconds) * time.Second

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}

	if cfg.Calendar.Dir == "" {
		cfg.Calendar.Dir = "./calendar_files"
	}
	if cfg.Calendar.UIDDomain == "" {
		cfg.Calendar.UIDDomain = "classtable.app"
	}
	if cfg.Calendar.WorkerPoolSize <= 0 {
		log.Printf("calendar.worker_pool_size is not set or invalid; defaulting to 1")
		cfg.Calendar.WorkerPoolSize = 1
	}

	return &cfg, nil
}
