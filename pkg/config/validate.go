package config

import (
	"fmt"
	"slices"
)

// Validate checks the configuration invariants after defaults are applied.
func (c *Config) Validate() error {
	if c.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address is required")
	}
	if c.Consensus.MinProviders < 1 {
		return fmt.Errorf("consensus.min_providers must be at least 1, got %d", c.Consensus.MinProviders)
	}
	if c.Consensus.MinConfidence < 0 || c.Consensus.MinConfidence > 1 {
		return fmt.Errorf("consensus.min_confidence must be in [0, 1], got %g", c.Consensus.MinConfidence)
	}
	if c.Consensus.Timeout <= 0 {
		return fmt.Errorf("consensus.timeout must be positive, got %s", c.Consensus.Timeout)
	}

	for name, p := range c.Providers {
		if !slices.Contains(KnownProviders, name) {
			return fmt.Errorf("unknown provider %q (known: %v)", name, KnownProviders)
		}
		if p.APIKey == "" {
			continue // not registered, nothing further to check
		}
		if p.Weight < 0 || p.Weight > 2 {
			return fmt.Errorf("provider %s: weight must be in [0, 2], got %g", name, p.Weight)
		}
		if p.Temperature < 0 || p.Temperature > 2 {
			return fmt.Errorf("provider %s: temperature must be in [0, 2], got %g", name, p.Temperature)
		}
		if p.MaxTokens <= 0 {
			return fmt.Errorf("provider %s: max_tokens must be positive, got %d", name, p.MaxTokens)
		}
		if p.MaxRetries != nil && *p.MaxRetries < 0 {
			return fmt.Errorf("provider %s: max_retries must be non-negative, got %d", name, *p.MaxRetries)
		}
	}

	return nil
}

// ConfiguredProviders returns the names of providers that carry an API key,
// in registration order.
func (c *Config) ConfiguredProviders() []string {
	var names []string
	for _, name := range KnownProviders {
		if p, ok := c.Providers[name]; ok && p.APIKey != "" {
			names = append(names, name)
		}
	}
	return names
}
