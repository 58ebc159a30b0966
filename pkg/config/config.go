// Package config loads and validates the typed configuration for the
// ingestion core: database connection, network feed, ingest cadence,
// cleanup/summarizer policy, geometry file locations, controller radius
// overrides, and logging.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the complete application configuration. Configuration
// is loaded from a JSON file, with environment variables overriding
// sensitive fields such as the database password.
type Config struct {
	Database    DatabaseConfig    `json:"database"`
	Network     NetworkConfig     `json:"network"`
	Ingest      IngestConfig      `json:"ingest"`
	Cleanup     CleanupConfig     `json:"cleanup"`
	Summarizer  SummarizerConfig  `json:"summarizer"`
	Geo         GeoConfig         `json:"geo"`
	Controllers ControllersConfig `json:"controllers"`
	Logging     LoggingConfig     `json:"logging"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	// Driver is the database driver (postgres only, for now).
	Driver string `json:"driver"`

	// Host is the database server hostname.
	Host string `json:"host"`

	// Port is the database server port.
	Port int `json:"port"`

	// Database is the database name.
	Database string `json:"database"`

	// Username for database authentication.
	Username string `json:"username"`

	// Password for database authentication (should be loaded from environment).
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full).
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int `json:"max_idle_conns"`
}

// NetworkConfig contains the upstream network data feed settings.
type NetworkConfig struct {
	// URL is the network data endpoint returning the JSON snapshot.
	URL string `json:"url"`

	// ConnectTimeoutSeconds bounds TCP+TLS handshake time.
	ConnectTimeoutSeconds int `json:"connect_timeout_seconds"`

	// TotalTimeoutSeconds bounds the entire request including body read.
	TotalTimeoutSeconds int `json:"total_timeout_seconds"`

	// RequestsPerSecond caps how often the feed is polled beyond the
	// ingest tick cadence.
	RequestsPerSecond float64 `json:"requests_per_second"`

	// MaxRetries is the maximum number of retry attempts on transient errors.
	MaxRetries int `json:"max_retries"`

	// InitialRetryDelaySeconds is the starting backoff delay.
	InitialRetryDelaySeconds int `json:"initial_retry_delay_seconds"`

	// MaxRetryDelaySeconds caps the exponential backoff delay.
	MaxRetryDelaySeconds int `json:"max_retry_delay_seconds"`
}

// IngestConfig controls the main pipeline tick cadence.
type IngestConfig struct {
	// TickIntervalSeconds is how often to fetch and process a snapshot.
	TickIntervalSeconds int `json:"tick_interval_seconds"`
}

// CleanupConfig controls stale-aircraft reconciliation.
type CleanupConfig struct {
	// StaleAfterSeconds is how long an aircraft can go unseen in a
	// snapshot before its open sector occupancies are force-closed.
	StaleAfterSeconds int `json:"stale_after_seconds"`
}

// SummarizerConfig controls completed-flight aggregation and archival.
type SummarizerConfig struct {
	// IntervalSeconds is how often the summarizer sweeps for completed flights.
	IntervalSeconds int `json:"interval_seconds"`

	// CompletionThresholdSeconds is how long a flight must be absent from
	// live state before it is considered complete.
	CompletionThresholdSeconds int `json:"completion_threshold_seconds"`

	// RetentionDays is how long archived flight samples are kept before
	// the summarizer deletes them. Flight summaries are not deleted.
	RetentionDays int `json:"retention_days"`

	// BatchLimit caps how many completed flights are aggregated per sweep.
	BatchLimit int `json:"batch_limit"`
}

// GeoConfig points at the geometry files used to build the GeoIndex.
type GeoConfig struct {
	// BoundaryFile is the outer region boundary polygon.
	BoundaryFile string `json:"boundary_file"`

	// SectorsFile is the named-sector feature collection.
	SectorsFile string `json:"sectors_file"`
}

// ControllersConfig carries per-deployment proximity radius overrides,
// keyed by controller type name (ground, tower, approach, center, fss,
// unknown).
type ControllersConfig struct {
	RadiusOverridesNM map[string]float64 `json:"radius_overrides_nm"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`

	// Directory is where rotated log files are written. Empty means the
	// current working directory.
	Directory string `json:"directory"`

	// MaxSizeMB is the size at which a log file is rotated.
	MaxSizeMB int `json:"max_size_mb"`

	// MaxBackups is how many rotated log files are retained.
	MaxBackups int `json:"max_backups"`

	// MaxAgeDays is how long rotated log files are retained.
	MaxAgeDays int `json:"max_age_days"`
}

// ConnectTimeout returns the configured connect timeout as a time.Duration.
func (n NetworkConfig) ConnectTimeout() time.Duration {
	return time.Duration(n.ConnectTimeoutSeconds) * time.Second
}

// TotalTimeout returns the configured total timeout as a time.Duration.
func (n NetworkConfig) TotalTimeout() time.Duration {
	return time.Duration(n.TotalTimeoutSeconds) * time.Second
}

// TickInterval returns the configured ingest tick interval.
func (i IngestConfig) TickInterval() time.Duration {
	return time.Duration(i.TickIntervalSeconds) * time.Second
}

// StaleAfter returns the configured stale-aircraft threshold.
func (c CleanupConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterSeconds) * time.Second
}

// Interval returns the configured summarizer sweep interval.
func (s SummarizerConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// CompletionThreshold returns the configured flight-completion threshold.
func (s SummarizerConfig) CompletionThreshold() time.Duration {
	return time.Duration(s.CompletionThresholdSeconds) * time.Second
}

// Retention returns the configured archive retention window.
func (s SummarizerConfig) Retention() time.Duration {
	return time.Duration(s.RetentionDays) * 24 * time.Hour
}

// Load reads configuration from a JSON file. If the file doesn't exist,
// returns a default configuration. Environment overrides are applied in
// both cases.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvironmentOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	return cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with the defaults named throughout
// the component design: 60s ingest tick, 10s/30s feed timeouts, 3 retries
// starting at 5s, 7-day archive retention.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:       "postgres",
			Host:         "localhost",
			Port:         5432,
			Database:     "atc_ingest",
			Username:     "atc_ingest",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Network: NetworkConfig{
			URL:                      "https://data.example-network.net/v3/vatsim-data.json",
			ConnectTimeoutSeconds:    10,
			TotalTimeoutSeconds:      30,
			RequestsPerSecond:        1,
			MaxRetries:               3,
			InitialRetryDelaySeconds: 5,
			MaxRetryDelaySeconds:     60,
		},
		Ingest: IngestConfig{
			TickIntervalSeconds: 60,
		},
		Cleanup: CleanupConfig{
			StaleAfterSeconds: 300,
		},
		Summarizer: SummarizerConfig{
			IntervalSeconds:            3600,
			CompletionThresholdSeconds: 14 * 60 * 60,
			RetentionDays:              7,
			BatchLimit:                 500,
		},
		Geo: GeoConfig{
			BoundaryFile: "./data/boundary.json",
			SectorsFile:  "./data/sectors.json",
		},
		Controllers: ControllersConfig{
			RadiusOverridesNM: map[string]float64{},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Directory:  "",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the
// config. This allows sensitive data like passwords to be kept out of
// config files.
func (c *Config) applyEnvironmentOverrides() {
	if dbHost := os.Getenv("ATC_INGEST_DB_HOST"); dbHost != "" {
		c.Database.Host = dbHost
	}
	if dbPassword := os.Getenv("ATC_INGEST_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if feedURL := os.Getenv("ATC_INGEST_NETWORK_URL"); feedURL != "" {
		c.Network.URL = feedURL
	}
	if level := os.Getenv("ATC_INGEST_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}
