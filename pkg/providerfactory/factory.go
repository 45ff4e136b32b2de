// Package providerfactory builds the provider fleet from configuration.
// It owns the fixed switch over known provider names; adding a vendor means
// adding an adapter package and one case here.
package providerfactory

import (
	"fmt"
	"log/slog"

	"github.com/thalas777/thalas-trader-sub000/pkg/config"
	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
	"github.com/thalas777/thalas-trader-sub000/pkg/providers/anthropic"
	"github.com/thalas777/thalas-trader-sub000/pkg/providers/gemini"
	"github.com/thalas777/thalas-trader-sub000/pkg/providers/grok"
	"github.com/thalas777/thalas-trader-sub000/pkg/providers/openai"
	"github.com/thalas777/thalas-trader-sub000/pkg/registry"
)

// BuildRegistry constructs every configured provider and registers it, in
// the fixed registration order anthropic, openai, gemini, grok. Providers
// without an API key are skipped. Construction failure of any configured
// provider aborts the build; already-built providers are closed.
func BuildRegistry(cfg *config.Config) (*registry.Registry, error) {
	reg := registry.New()

	for _, name := range config.KnownProviders {
		pc, ok := cfg.Providers[name]
		if !ok || pc.APIKey == "" {
			slog.Debug("provider not configured, skipping", "provider", name)
			continue
		}

		provider, err := build(name, pc)
		if err != nil {
			reg.Close()
			return nil, fmt.Errorf("failed to build provider %s: %w", name, err)
		}
		if err := reg.Register(provider); err != nil {
			provider.Close()
			reg.Close()
			return nil, err
		}
	}

	if reg.Len() == 0 {
		slog.Warn("no providers configured; consensus requests will fail until one is added")
	}
	return reg, nil
}

// build maps a provider name to its adapter constructor.
func build(name string, pc config.ProviderConfig) (providers.Provider, error) {
	cfg := adapterConfig(name, pc)
	switch name {
	case "anthropic":
		return anthropic.New(cfg)
	case "openai":
		return openai.New(cfg)
	case "gemini":
		return gemini.New(cfg)
	case "grok":
		return grok.New(cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// adapterConfig translates the file/env settings into the adapter
// configuration.
func adapterConfig(name string, pc config.ProviderConfig) providers.Config {
	maxRetries := config.DefaultProviderMaxRetries
	if pc.MaxRetries != nil {
		maxRetries = *pc.MaxRetries
	}
	enabled := true
	if pc.Enabled != nil {
		enabled = *pc.Enabled
	}
	return providers.Config{
		Name:        name,
		Model:       pc.Model,
		APIKey:      pc.APIKey,
		BaseURL:     pc.BaseURL,
		MaxTokens:   pc.MaxTokens,
		Temperature: pc.Temperature,
		Timeout:     pc.Timeout,
		MaxRetries:  maxRetries,
		Weight:      pc.Weight,
		Enabled:     enabled,
	}
}
