package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates keyscope configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(cfg *Config) ValidationErrors {
	v.errors = nil

	v.validateCache(cfg)
	v.validateScan(cfg)
	v.validateConnections(cfg)
	v.validateLogging(cfg)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateCache(cfg *Config) {
	if cfg.Cache.ListingTTL < 0 {
		v.addError("cache.listing_ttl", "must not be negative")
	}
	if cfg.Cache.PointReadTTL < 0 {
		v.addError("cache.point_read_ttl", "must not be negative")
	}
	if cfg.Cache.SweepInterval < 0 {
		v.addError("cache.sweep_interval", "must not be negative")
	}
}

func (v *Validator) validateScan(cfg *Config) {
	if cfg.Scan.PageSize < 0 {
		v.addError("scan.page_size", "must not be negative")
	}
	if cfg.Scan.DeleteBatchSize < 0 {
		v.addError("scan.delete_batch_size", "must not be negative")
	}
	if cfg.Scan.MaxConcurrentScans < 0 {
		v.addError("scan.max_concurrent_scans", "must not be negative")
	}
	if cfg.Scan.ProbeHigh != 0 && cfg.Scan.ProbeHigh < cfg.Scan.ProbeLow {
		v.addError("scan.probe_high", "must not be below probe_low")
	}
}

func (v *Validator) validateConnections(cfg *Config) {
	seen := make(map[string]bool)
	for i, conn := range cfg.Connections {
		path := fmt.Sprintf("connections[%d]", i)
		if conn.ID == "" {
			v.addError(path+".id", "id is required")
		} else if seen[conn.ID] {
			v.addError(path+".id", "duplicate connection id "+conn.ID)
		}
		seen[conn.ID] = true
		if conn.Address == "" {
			v.addError(path+".address", "address is required")
		}
		if conn.DB < 0 {
			v.addError(path+".db", "must not be negative")
		}
	}
}

func (v *Validator) validateLogging(cfg *Config) {
	switch cfg.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		v.addError("logging.level", "unknown level "+cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "", "json", "console":
	default:
		v.addError("logging.format", "unknown format "+cfg.Logging.Format)
	}
}
