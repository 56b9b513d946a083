// Package config provides domain models for keyscope configuration.
package config

import "time"

// Config represents the complete keyscope configuration.
type Config struct {
	// Name is a human-readable name for this configuration.
	Name string `json:"name" yaml:"name"`
	// Version is the configuration schema version.
	Version string `json:"version" yaml:"version"`

	// Cache contains keyspace cache settings.
	Cache CacheConfig `json:"cache,omitempty" yaml:"cache,omitempty"`
	// Scan contains enumeration and bulk-cleanup settings.
	Scan ScanConfig `json:"scan,omitempty" yaml:"scan,omitempty"`
	// Connections lists the stores keyscope can browse.
	Connections []ConnectionConfig `json:"connections,omitempty" yaml:"connections,omitempty"`
	// ConnectionStore is the path of the saved-connection database.
	ConnectionStore string `json:"connection_store,omitempty" yaml:"connection_store,omitempty"`
	// Logging contains logger settings.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// CacheConfig contains keyspace cache settings.
type CacheConfig struct {
	// ListingTTL is the TTL for bulk key-listing entries.
	ListingTTL Duration `json:"listing_ttl,omitempty" yaml:"listing_ttl,omitempty"`
	// PointReadTTL is the TTL for single-value and metadata entries.
	PointReadTTL Duration `json:"point_read_ttl,omitempty" yaml:"point_read_ttl,omitempty"`
	// SweepInterval is the background sweep period.
	SweepInterval Duration `json:"sweep_interval,omitempty" yaml:"sweep_interval,omitempty"`
}

// ScanConfig contains enumeration settings.
type ScanConfig struct {
	// PageSize is the COUNT hint for each scan page.
	PageSize int64 `json:"page_size,omitempty" yaml:"page_size,omitempty"`
	// DeleteBatchSize bounds each bulk-delete round trip.
	DeleteBatchSize int `json:"delete_batch_size,omitempty" yaml:"delete_batch_size,omitempty"`
	// MaxConcurrentScans bounds concurrently running prefix enumerations.
	MaxConcurrentScans int `json:"max_concurrent_scans,omitempty" yaml:"max_concurrent_scans,omitempty"`
	// FetchTimeout bounds a single page fetch.
	FetchTimeout Duration `json:"fetch_timeout,omitempty" yaml:"fetch_timeout,omitempty"`
	// ProbeLow and ProbeHigh bound the numeric-key existence probe.
	ProbeLow  int64 `json:"probe_low,omitempty" yaml:"probe_low,omitempty"`
	ProbeHigh int64 `json:"probe_high,omitempty" yaml:"probe_high,omitempty"`
}

// ConnectionConfig describes one browsable store connection.
type ConnectionConfig struct {
	// ID identifies the connection in cache keys and CLI flags.
	ID string `json:"id" yaml:"id"`
	// Name is a human-readable label.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Address is the host:port of the store.
	Address string `json:"address" yaml:"address"`
	// Username and Password authenticate the connection. Password values
	// normally arrive via ${VAR} expansion rather than literals.
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	// DB selects the logical database.
	DB int `json:"db,omitempty" yaml:"db,omitempty"`
	// UseTLS enables TLS on the connection.
	UseTLS bool `json:"use_tls,omitempty" yaml:"use_tls,omitempty"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is the output format (json or console).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Default returns a configuration with sensible defaults applied.
func Default() *Config {
	return &Config{
		Name:    "keyscope",
		Version: "1",
		Cache: CacheConfig{
			ListingTTL:    Duration(30 * time.Second),
			PointReadTTL:  Duration(10 * time.Second),
			SweepInterval: Duration(60 * time.Second),
		},
		Scan: ScanConfig{
			PageSize:           1000,
			DeleteBatchSize:    1000,
			MaxConcurrentScans: 4,
			FetchTimeout:       Duration(10 * time.Second),
			ProbeLow:           0,
			ProbeHigh:          9999,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ApplyDefaults fills unset fields from Default.
func (c *Config) ApplyDefaults() {
	d := Default()
	if c.Cache.ListingTTL == 0 {
		c.Cache.ListingTTL = d.Cache.ListingTTL
	}
	if c.Cache.PointReadTTL == 0 {
		c.Cache.PointReadTTL = d.Cache.PointReadTTL
	}
	if c.Cache.SweepInterval == 0 {
		c.Cache.SweepInterval = d.Cache.SweepInterval
	}
	if c.Scan.PageSize == 0 {
		c.Scan.PageSize = d.Scan.PageSize
	}
	if c.Scan.DeleteBatchSize == 0 {
		c.Scan.DeleteBatchSize = d.Scan.DeleteBatchSize
	}
	if c.Scan.MaxConcurrentScans == 0 {
		c.Scan.MaxConcurrentScans = d.Scan.MaxConcurrentScans
	}
	if c.Scan.FetchTimeout == 0 {
		c.Scan.FetchTimeout = d.Scan.FetchTimeout
	}
	if c.Scan.ProbeHigh == 0 {
		c.Scan.ProbeHigh = d.Scan.ProbeHigh
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
