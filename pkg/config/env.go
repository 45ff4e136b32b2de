package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnv overlays environment variables onto the configuration.
// Per provider P (uppercased name): {P}_API_KEY, {P}_ENABLED, {P}_MODEL,
// {P}_BASE_URL, {P}_WEIGHT, {P}_MAX_TOKENS, {P}_TEMPERATURE, {P}_TIMEOUT
// (seconds), {P}_MAX_RETRIES. Service level: CONSENSUS_MIN_PROVIDERS,
// CONSENSUS_MIN_CONFIDENCE, CONSENSUS_TIMEOUT (seconds),
// CONSENSUS_REASONING_MAX_LEN, LISTEN_ADDRESS, LOG_LEVEL, LOG_FORMAT. A
// provider appears in the fleet only if it ends up with an API key from
// either source.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("LISTEN_ADDRESS"); v != "" {
		c.Server.ListenAddress = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("METRICS_ENABLED: %w", err)
		}
		c.Metrics.Enabled = enabled
	}

	if v := os.Getenv("CONSENSUS_MIN_PROVIDERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CONSENSUS_MIN_PROVIDERS: %w", err)
		}
		c.Consensus.MinProviders = n
	}
	if v := os.Getenv("CONSENSUS_MIN_CONFIDENCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CONSENSUS_MIN_CONFIDENCE: %w", err)
		}
		c.Consensus.MinConfidence = f
	}
	if v := os.Getenv("CONSENSUS_TIMEOUT"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("CONSENSUS_TIMEOUT: %w", err)
		}
		c.Consensus.Timeout = d
	}
	if v := os.Getenv("CONSENSUS_REASONING_MAX_LEN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CONSENSUS_REASONING_MAX_LEN: %w", err)
		}
		c.Consensus.ReasoningMaxLen = n
	}

	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	for _, name := range KnownProviders {
		p := c.Providers[name]
		if err := p.applyEnv(strings.ToUpper(name)); err != nil {
			return err
		}
		c.Providers[name] = p
	}
	return nil
}

func (p *ProviderConfig) applyEnv(prefix string) error {
	if v := os.Getenv(prefix + "_API_KEY"); v != "" {
		p.APIKey = v
	}
	if v := os.Getenv(prefix + "_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s_ENABLED: %w", prefix, err)
		}
		p.Enabled = &enabled
	}
	if v := os.Getenv(prefix + "_MODEL"); v != "" {
		p.Model = v
	}
	if v := os.Getenv(prefix + "_BASE_URL"); v != "" {
		p.BaseURL = v
	}
	if v := os.Getenv(prefix + "_WEIGHT"); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s_WEIGHT: %w", prefix, err)
		}
		p.Weight = w
	}
	if v := os.Getenv(prefix + "_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s_MAX_TOKENS: %w", prefix, err)
		}
		p.MaxTokens = n
	}
	if v := os.Getenv(prefix + "_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s_TEMPERATURE: %w", prefix, err)
		}
		p.Temperature = t
	}
	if v := os.Getenv(prefix + "_TIMEOUT"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("%s_TIMEOUT: %w", prefix, err)
		}
		p.Timeout = d
	}
	if v := os.Getenv(prefix + "_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s_MAX_RETRIES: %w", prefix, err)
		}
		p.MaxRetries = &n
	}
	return nil
}

// parseSeconds accepts either a bare number of seconds ("30") or a Go
// duration string ("30s", "1m").
func parseSeconds(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}
