// Package config provides configuration management for the edgeboard application.
package config

import (
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Source    SourceConfig    `mapstructure:"source" validate:"required"`
	Sports    SportsConfig    `mapstructure:"sports" validate:"required"`
	Refresh   RefreshConfig   `mapstructure:"refresh" validate:"required"`
	Consensus ConsensusConfig `mapstructure:"consensus"`
	API       APIConfig       `mapstructure:"api" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
	Health    HealthConfig    `mapstructure:"health"`
	Secrets   SecretsConfig   `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	// Timezone used to resolve "today" for board requests without a date
	Timezone string `mapstructure:"timezone" validate:"required,timezone"`
}

// DatabaseConfig represents database connection configuration.
// Only required when source.kind is postgres.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"omitempty,gt=0"`
}

// Source kinds
const (
	SourcePostgres = "postgres"
	SourceREST     = "rest"
)

// SourceConfig selects and tunes the backend the rows are read from
type SourceConfig struct {
	Kind                   string  `mapstructure:"kind" validate:"required,oneof=postgres rest"`
	URL                    string  `mapstructure:"url" validate:"omitempty,url"`
	APIKey                 string  `mapstructure:"api_key"`
	TimeoutSeconds         int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts          int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RequestsPerSecond      float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Burst                  int     `mapstructure:"burst" validate:"required,gt=0"`
	BreakerThreshold       int     `mapstructure:"breaker_threshold" validate:"required,gt=0"`
	BreakerCooldownSeconds int     `mapstructure:"breaker_cooldown_seconds" validate:"required,gt=0"`
}

// SportsConfig lists the enabled sports and where their rows live
type SportsConfig struct {
	Enabled []string               `mapstructure:"enabled" validate:"required,min=1,sports"`
	Tables  map[string]SportTables `mapstructure:"tables"`
}

// SportTables names the tables or views for one sport
type SportTables struct {
	Games       string `mapstructure:"games"`
	Predictions string `mapstructure:"predictions"`
	Accuracy    string `mapstructure:"accuracy"`
}

// RefreshConfig represents accuracy index refresh scheduling
type RefreshConfig struct {
	Schedule        string `mapstructure:"schedule" validate:"required"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	OnStartup       bool   `mapstructure:"on_startup"`
}

// ConsensusConfig represents consensus calculation settings
type ConsensusConfig struct {
	Weighting string `mapstructure:"weighting" validate:"omitempty,oneof=equal sample_size"`
}

// APIConfig represents the HTTP API server configuration
type APIConfig struct {
	Port                int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	CORSOrigins         []string `mapstructure:"cors_origins"`
	DefaultSort         string   `mapstructure:"default_sort" validate:"omitempty,sortmode"`
	ReadTimeoutSeconds  int      `mapstructure:"read_timeout_seconds" validate:"gte=0"`
	WriteTimeoutSeconds int      `mapstructure:"write_timeout_seconds" validate:"gte=0"`
}

// RedisConfig represents the optional shared bucket-row snapshot store
type RedisConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Addr               string `mapstructure:"addr"`
	Password           string `mapstructure:"password"`
	DB                 int    `mapstructure:"db" validate:"gte=0"`
	KeyPrefix          string `mapstructure:"key_prefix"`
	SnapshotTTLSeconds int    `mapstructure:"snapshot_ttl_seconds" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// HealthConfig represents the health check server configuration
type HealthConfig struct {
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
}

// SecretsConfig enables the AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Location returns the configured timezone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TablesFor returns the table names for a sport, filling unset names with
// <sport>_games, <sport>_latest_predictions and <sport>_edge_accuracy_buckets
func (c *Config) TablesFor(sport string) SportTables {
	tables := c.Sports.Tables[sport]
	if tables.Games == "" {
		tables.Games = sport + "_games"
	}
	if tables.Predictions == "" {
		tables.Predictions = sport + "_latest_predictions"
	}
	if tables.Accuracy == "" {
		tables.Accuracy = sport + "_edge_accuracy_buckets"
	}
	return tables
}

// SourceTimeout returns the backend request timeout
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long a built index stays cached
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Refresh.CacheTTLSeconds) * time.Second
}

// BreakerCooldown returns how long the source circuit breaker stays open
func (c *Config) BreakerCooldown() time.Duration {
	return time.Duration(c.Source.BreakerCooldownSeconds) * time.Second
}

// SnapshotTTL returns how long a shared Redis row snapshot lives; zero means no expiry
func (c *Config) SnapshotTTL() time.Duration {
	return time.Duration(c.Redis.SnapshotTTLSeconds) * time.Second
}
