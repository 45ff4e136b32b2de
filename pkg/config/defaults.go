package config

import "time"

// Service defaults. Every value can be overridden by file or environment.
const (
	DefaultListenAddress   = ":8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMinProviders     = 2
	DefaultMinConfidence    = 0.0
	DefaultConsensusTimeout = 30 * time.Second
	DefaultReasoningMaxLen  = 500

	DefaultSweepSchedule = "@every 1m"
	DefaultProbeTimeout  = 10 * time.Second

	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "thalas"
	DefaultMetricsSubsystem = "trader"

	DefaultProviderWeight      = 1.0
	DefaultProviderMaxTokens   = 1024
	DefaultProviderTemperature = 0.7
	DefaultProviderTimeout     = 30 * time.Second
	DefaultProviderMaxRetries  = 3
)

// KnownProviders is the fixed set of provider names the loader understands,
// in registration order.
var KnownProviders = []string{"anthropic", "openai", "gemini", "grok"}

// ApplyDefaults fills every unset field in place.
func (c *Config) ApplyDefaults() {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = DefaultListenAddress
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.IdleTimeout <= 0 {
		c.Server.IdleTimeout = DefaultIdleTimeout
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}

	if c.Consensus.MinProviders <= 0 {
		c.Consensus.MinProviders = DefaultMinProviders
	}
	if c.Consensus.MinConfidence < 0 {
		c.Consensus.MinConfidence = DefaultMinConfidence
	}
	if c.Consensus.Timeout <= 0 {
		c.Consensus.Timeout = DefaultConsensusTimeout
	}
	if c.Consensus.ReasoningMaxLen <= 0 {
		c.Consensus.ReasoningMaxLen = DefaultReasoningMaxLen
	}

	if c.Health.SweepSchedule == "" {
		c.Health.SweepSchedule = DefaultSweepSchedule
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Metrics.Subsystem == "" {
		c.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if c.Health.ProbeTimeout <= 0 {
		c.Health.ProbeTimeout = DefaultProbeTimeout
	}

	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	for name, p := range c.Providers {
		p.applyDefaults()
		c.Providers[name] = p
	}
}

func (p *ProviderConfig) applyDefaults() {
	if p.Weight == 0 {
		p.Weight = DefaultProviderWeight
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = DefaultProviderMaxTokens
	}
	if p.Temperature == 0 {
		p.Temperature = DefaultProviderTemperature
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultProviderTimeout
	}
	if p.MaxRetries == nil {
		retries := DefaultProviderMaxRetries
		p.MaxRetries = &retries
	}
	if p.Enabled == nil {
		enabled := true
		p.Enabled = &enabled
	}
}

// Default returns a configuration with every default applied and no
// providers. Fields that default to true (metrics) are set here so that an
// explicit false in the file survives unmarshalling over the defaults.
func Default() *Config {
	c := &Config{}
	c.Metrics.Enabled = DefaultMetricsEnabled
	c.ApplyDefaults()
	return c
}
