// Package config defines the service configuration, its defaults and the
// environment loader that builds the provider fleet. Configuration is read
// once at startup; a YAML file is optional and environment variables always
// win.
package config

import (
	"time"
)

// Config is the root service configuration.
type Config struct {
	// Server holds the HTTP server settings.
	Server ServerConfig `yaml:"server"`

	// Logging holds the structured-logging settings.
	Logging LoggingConfig `yaml:"logging"`

	// Consensus holds the orchestrator and aggregation settings.
	Consensus ConsensusConfig `yaml:"consensus"`

	// Metrics holds the Prometheus settings.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health holds the background health-sweep settings.
	Health HealthConfig `yaml:"health"`

	// Pricing holds the optional pricing-override settings.
	Pricing PricingConfig `yaml:"pricing"`

	// Providers maps provider name to its settings. Environment variables
	// override each field per provider.
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the host:port the server binds to.
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout bounds reading a request, header included.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing a response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout bounds keep-alive idleness.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds the structured-logging settings.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	Format string `yaml:"format"`

	// AddSource includes file:line in every record.
	AddSource bool `yaml:"add_source"`
}

// ConsensusConfig holds the orchestrator settings.
type ConsensusConfig struct {
	// MinProviders is the minimum number of successful provider responses
	// required for a consensus.
	MinProviders int `yaml:"min_providers"`

	// MinConfidence filters provider responses below this confidence.
	MinConfidence float64 `yaml:"min_confidence"`

	// Timeout is the total budget for one consensus request.
	Timeout time.Duration `yaml:"timeout"`

	// ReasoningMaxLen bounds per-provider reasoning text in results, in
	// bytes.
	ReasoningMaxLen int `yaml:"reasoning_max_len"`
}

// MetricsConfig holds the Prometheus settings.
type MetricsConfig struct {
	// Enabled toggles the /metrics endpoint and all recording.
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric namespace prefix.
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem prefix.
	Subsystem string `yaml:"subsystem"`
}

// HealthConfig holds the background health-sweep settings.
type HealthConfig struct {
	// SweepSchedule is a cron expression for the periodic provider probe.
	// Empty disables the sweep.
	SweepSchedule string `yaml:"sweep_schedule"`

	// ProbeTimeout bounds one full sweep.
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

// PricingConfig holds the optional pricing-override settings.
type PricingConfig struct {
	// OverridesFile is a YAML file of per-provider model prices. Empty
	// means vendor defaults only.
	OverridesFile string `yaml:"overrides_file"`

	// Watch hot-reloads the overrides file on change.
	Watch bool `yaml:"watch"`
}

// ProviderConfig holds one provider's settings as they appear in the file
// and the environment. The loader translates it into the adapter
// configuration.
type ProviderConfig struct {
	// APIKey is the vendor secret. A provider with no key is not registered.
	APIKey string `yaml:"api_key"`

	// Enabled marks the provider as eligible for consensus.
	Enabled *bool `yaml:"enabled"`

	// Model overrides the vendor default model.
	Model string `yaml:"model"`

	// BaseURL overrides the vendor endpoint.
	BaseURL string `yaml:"base_url"`

	// Weight is the default vote weight (0 to 2).
	Weight float64 `yaml:"weight"`

	// MaxTokens is the completion token budget.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature is the sampling temperature (0 to 2).
	Temperature float64 `yaml:"temperature"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the retry budget for transient errors.
	MaxRetries *int `yaml:"max_retries"`
}
