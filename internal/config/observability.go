package config

import (
	"fmt"
	"time"
)

// ObservabilityConfig groups all configuration related to telemetry and runtime visibility.
//
// This typically includes:
//   - logging settings (format, level, thresholds)
//   - APM/tracing provider settings (New Relic here)
//   - health check settings (liveness/readiness style checks)
//
// It is intended to be embedded under Config.Observability and can be optional
// at the root-level (pointer in Config). If omitted, defaults are injected.
type ObservabilityConfig struct {
	// ServiceName identifies this service in logs/traces/APM dashboards.
	// Always forced to config.ServiceName at load time.
	ServiceName string `koanf:"service_name" validate:"required"`

	// Environment is a label used to split telemetry by environment
	// (production, staging, development, etc.).
	Environment string `koanf:"environment" validate:"required"`

	// Logging config controls structured logger behavior.
	Logging LoggingConfig `koanf:"logging" validate:"required"`

	// NewRelic config controls APM and tracing features.
	NewRelic NewRelicConfig `koanf:"new_relic" validate:"required"`

	// HealthChecks config controls periodic dependency health checks.
	HealthChecks HealthChecksConfig `koanf:"health_checks" validate:"required"`
}

// LoggingConfig holds application logging configuration.
type LoggingConfig struct {
	// Level is the verbosity threshold (debug/info/warn/error).
	// Any logs below this level are ignored.
	Level string `koanf:"level" validate:"required"`

	// Format selects the output format for logs ("json" or "console").
	Format string `koanf:"format" validate:"required"`

	// SlowQueryThreshold is a duration beyond which repository statements are
	// logged at warn level. Zero disables slow statement logging.
	//
	// Env should supply parseable duration strings like "100ms" or "1s".
	SlowQueryThreshold time.Duration `koanf:"slow_query_threshold"`
}

// NewRelicConfig holds configuration for New Relic APM and tracing.
//
// LicenseKey switches the agent on. Others are feature toggles.
type NewRelicConfig struct {
	// LicenseKey is the New Relic ingest key. Empty means "not configured"
	// and the agent is never started.
	LicenseKey string `koanf:"license_key"`

	// AppLogForwardingEnabled enables forwarding of application logs to New Relic
	// (if the agent supports it and is configured).
	AppLogForwardingEnabled bool `koanf:"app_log_forwarding_enabled"`

	// DistributedTracingEnabled enables distributed tracing so requests can be traced
	// across service boundaries.
	DistributedTracingEnabled bool `koanf:"distributed_tracing_enabled"`

	// DebugLogging enables debug output for the agent/integration.
	// Usually off in production to avoid noisy logs and format pollution.
	DebugLogging bool `koanf:"debug_logging"`
}

// HealthChecksConfig controls the dependency pings behind GET /status.
type HealthChecksConfig struct {
	// Timeout bounds each dependency ping.
	Timeout time.Duration `koanf:"timeout" validate:"min=1s"`

	// Checks names the dependencies to ping ("database", "redis"). Redis is
	// skipped when no address is configured.
	Checks []string `koanf:"checks"`
}

// DefaultObservabilityConfig provides a safe set of defaults.
//
// Used when Config.Observability is nil (not provided via env/config).
// Defaults aim to be sensible for local dev, while not breaking production.
func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{
		// Default service/environment are overwritten in LoadConfig():
		// ServiceName forced to ServiceName, Environment derived from primary.env.
		ServiceName: ServiceName,
		Environment: "development",

		// Logging defaults:
		// - info level avoids debug spam
		// - json format works well in log aggregators
		// - 100ms threshold is a common "hmm maybe slow" boundary
		Logging: LoggingConfig{
			Level:              "info",
			Format:             "json",
			SlowQueryThreshold: 100 * time.Millisecond,
		},

		// New Relic defaults:
		// - LicenseKey empty, so the agent stays off until a key is provided
		// - app log forwarding + distributed tracing enabled by default
		// - debug off to prevent mixed log formats/noise
		NewRelic: NewRelicConfig{
			LicenseKey:                "",
			AppLogForwardingEnabled:   true,
			DistributedTracingEnabled: true,
			DebugLogging:              false, // Disabled by default to avoid mixed log formats
		},

		HealthChecks: HealthChecksConfig{
			Timeout: 5 * time.Second,
			Checks:  []string{"database", "redis"},
		},
	}
}

// Validate applies custom validation rules that go beyond struct tags.
//
// This is *separate* from go-playground/validator tags used in config.go.
// It's useful for validating enums, cross-field constraints, and business rules.
//
// Returns:
//   - nil if configuration is valid
//   - an error describing the first validation failure
func (c *ObservabilityConfig) Validate() error {
	// ServiceName must not be empty. This is partially redundant with validate:"required",
	// but needed if you ever bypass the struct-tag validator or set values manually.
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}

	// Validate log levels: enforce a strict set of allowed values.
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be one of: debug, info, warn, error)", c.Logging.Level)
	}

	if c.Logging.SlowQueryThreshold < 0 {
		return fmt.Errorf("logging slow_query_threshold must be non-negative")
	}

	return nil
}

// GetLogLevel returns the effective log level to use at runtime.
//
// It supports "defaulting by environment":
//   - In production: default to "info" if no level is set.
//   - In development: default to "debug" if no level is set.
//
// Otherwise it returns whatever c.Logging.Level is set to.
func (c *ObservabilityConfig) GetLogLevel() string {
	switch c.Environment {
	case "production":
		// Production defaults to info if nothing is set.
		if c.Logging.Level == "" {
			return "info"
		}
	case "development":
		// Development defaults to debug if nothing is set.
		if c.Logging.Level == "" {
			return "debug"
		}
	}

	// If environment is neither "production" nor "development",
	// or level is explicitly set, just return the configured value.
	return c.Logging.Level
}

// IsProduction reports whether the application is running in production mode.
//
// This is typically used to:
//   - enable/disable debug features
//   - change log verbosity
//   - tighten security defaults
func (c *ObservabilityConfig) IsProduction() bool {
	return c.Environment == "production"
}
