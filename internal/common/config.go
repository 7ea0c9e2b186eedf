// Package common provides shared utilities for nsechat
package common

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for nsechat.
// A Config is built once at startup and handed to constructors; nothing mutates it afterwards.
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Cache       CacheConfig   `toml:"cache"`
	Search      SearchConfig  `toml:"search"`
	Refresh     RefreshConfig `toml:"refresh"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	MCPPath string `toml:"mcp_path"`
}

// StorageConfig selects and configures the metadata store backend.
type StorageConfig struct {
	Backend   string          `toml:"backend"` // surrealdb, postgres or badger
	SurrealDB SurrealDBConfig `toml:"surrealdb"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Badger    BadgerConfig    `toml:"badger"`
}

// SurrealDBConfig holds SurrealDB connection settings
type SurrealDBConfig struct {
	Address   string `toml:"address"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	DSN             string `toml:"dsn"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
}

// GetConnMaxLifetime parses and returns the connection lifetime
func (c *PostgresConfig) GetConnMaxLifetime() time.Duration {
	d, err := time.ParseDuration(c.ConnMaxLifetime)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// BadgerConfig holds embedded store settings
type BadgerConfig struct {
	Path     string `toml:"path"`
	InMemory bool   `toml:"in_memory"`
}

// ClientsConfig holds upstream client configurations
type ClientsConfig struct {
	NSE NSEConfig `toml:"nse"`
}

// NSEConfig holds NSE API configuration
type NSEConfig struct {
	BaseURL    string `toml:"base_url"`
	RateLimit  int    `toml:"rate_limit"`
	Timeout    string `toml:"timeout"`
	UserAgent  string `toml:"user_agent"`
	TestSymbol string `toml:"test_symbol"`
}

// GetTimeout parses and returns the timeout duration
func (c *NSEConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// CacheConfig holds the upstream response cache settings
type CacheConfig struct {
	Enabled  bool   `toml:"enabled"`
	RedisURL string `toml:"redis_url"`
}

// SearchConfig tunes the ranked search cascade.
type SearchConfig struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	MaxDistanceRatio    float64 `toml:"max_distance_ratio"`
	LeadQuota           int     `toml:"lead_quota"`
	PassQuota           int     `toml:"pass_quota"`
	ShrinkQuota         int     `toml:"shrink_quota"`
}

// RefreshConfig holds metadata reconciliation settings
type RefreshConfig struct {
	Workers   int    `toml:"workers"`
	Schedule  string `toml:"schedule"` // cron expression, empty disables
	OnStartup bool   `toml:"on_startup"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxBackups int      `toml:"max_backups"`
}

// envOverrides mirrors the settings that may be supplied through the process environment.
type envOverrides struct {
	Environment    string  `envconfig:"ENV"`
	Host           string  `envconfig:"HOST"`
	Port           int     `envconfig:"PORT"`
	LogLevel       string  `envconfig:"LOG_LEVEL"`
	StorageBackend string  `envconfig:"STORAGE_BACKEND"`
	SurrealAddress string  `envconfig:"SURREALDB_ADDRESS"`
	SurrealUser    string  `envconfig:"SURREALDB_USERNAME"`
	SurrealPass    string  `envconfig:"SURREALDB_PASSWORD"`
	PostgresDSN    string  `envconfig:"POSTGRES_DSN"`
	BadgerPath     string  `envconfig:"BADGER_PATH"`
	NSEBaseURL     string  `envconfig:"NSE_BASE_URL"`
	RedisURL       string  `envconfig:"REDIS_URL"`
	RefreshCron    string  `envconfig:"REFRESH_SCHEDULE"`
	RefreshWorkers int     `envconfig:"REFRESH_WORKERS"`
	SimThreshold   float64 `envconfig:"SEARCH_SIMILARITY_THRESHOLD"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8000,
			MCPPath: "/mcp",
		},
		Storage: StorageConfig{
			Backend: "surrealdb",
			SurrealDB: SurrealDBConfig{
				Address:   "ws://localhost:8001/rpc",
				Username:  "root",
				Password:  "root",
				Namespace: "nsechat",
				Database:  "nsechat",
			},
			Postgres: PostgresConfig{
				DSN:             "postgres://postgres@localhost:5432/postgres?sslmode=disable",
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: "5m",
			},
			Badger: BadgerConfig{
				Path: "data/metadata",
			},
		},
		Clients: ClientsConfig{
			NSE: NSEConfig{
				BaseURL:    "https://www.nseindia.com",
				RateLimit:  3,
				Timeout:    "15s",
				UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				TestSymbol: "TCS",
			},
		},
		Search: SearchConfig{
			SimilarityThreshold: 0.1,
			MaxDistanceRatio:    0.5,
			LeadQuota:           2,
			PassQuota:           3,
			ShrinkQuota:         2,
		},
		Refresh: RefreshConfig{
			Workers: 5,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Outputs:    []string{"console", "file"},
			FilePath:   "./logs/nsechat.log",
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// .env is optional; values already in the environment win
	_ = godotenv.Load()

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	normalise(config)

	return config, nil
}

// applyEnvOverrides applies NSECHAT_* environment variables to config
func applyEnvOverrides(config *Config) error {
	var env envOverrides
	if err := envconfig.Process("NSECHAT", &env); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	if env.Environment != "" {
		config.Environment = env.Environment
	}
	if env.Host != "" {
		config.Server.Host = env.Host
	}
	if env.Port > 0 {
		config.Server.Port = env.Port
	}
	if env.LogLevel != "" {
		config.Logging.Level = env.LogLevel
	}
	if env.StorageBackend != "" {
		config.Storage.Backend = env.StorageBackend
	}
	if env.SurrealAddress != "" {
		config.Storage.SurrealDB.Address = env.SurrealAddress
	}
	if env.SurrealUser != "" {
		config.Storage.SurrealDB.Username = env.SurrealUser
	}
	if env.SurrealPass != "" {
		config.Storage.SurrealDB.Password = env.SurrealPass
	}
	if env.PostgresDSN != "" {
		config.Storage.Postgres.DSN = env.PostgresDSN
	}
	if env.BadgerPath != "" {
		config.Storage.Badger.Path = env.BadgerPath
	}
	if env.NSEBaseURL != "" {
		config.Clients.NSE.BaseURL = env.NSEBaseURL
	}
	if env.RedisURL != "" {
		config.Cache.RedisURL = env.RedisURL
		config.Cache.Enabled = true
	}
	if env.RefreshCron != "" {
		config.Refresh.Schedule = env.RefreshCron
	}
	if env.RefreshWorkers > 0 {
		config.Refresh.Workers = env.RefreshWorkers
	}
	if env.SimThreshold > 0 {
		config.Search.SimilarityThreshold = env.SimThreshold
	}
	return nil
}

// normalise clamps values that would break the search cascade or worker pool.
func normalise(config *Config) {
	config.Storage.Backend = strings.ToLower(strings.TrimSpace(config.Storage.Backend))
	if config.Server.MCPPath == "" {
		config.Server.MCPPath = "/mcp"
	}
	if config.Refresh.Workers <= 0 {
		config.Refresh.Workers = 5
	}
	s := &config.Search
	if s.PassQuota <= 0 || s.PassQuota > 3 {
		s.PassQuota = 3
	}
	if s.LeadQuota <= 0 || s.LeadQuota > s.PassQuota {
		s.LeadQuota = s.PassQuota
	}
	if s.ShrinkQuota <= 0 || s.ShrinkQuota > s.PassQuota {
		s.ShrinkQuota = s.PassQuota
	}
	if s.MaxDistanceRatio <= 0 {
		s.MaxDistanceRatio = 0.5
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// StorageAddress describes the configured backend for banners and health output.
func (c *Config) StorageAddress() string {
	switch c.Storage.Backend {
	case "postgres":
		return "postgres"
	case "badger":
		if c.Storage.Badger.InMemory {
			return "badger (in-memory)"
		}
		return "badger " + c.Storage.Badger.Path
	default:
		return "surrealdb " + c.Storage.SurrealDB.Address
	}
}
