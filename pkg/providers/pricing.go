package providers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ModelPrice holds a model's token pricing in USD per one million tokens.
type ModelPrice struct {
	// InputPerMTok is the cost of one million prompt tokens.
	InputPerMTok float64 `yaml:"input_per_mtok"`

	// OutputPerMTok is the cost of one million completion tokens.
	OutputPerMTok float64 `yaml:"output_per_mtok"`
}

// PricingTable maps model identifiers to token prices for one provider.
// Lookup order: exact model match, then longest prefix match (so "gpt-4o"
// covers "gpt-4o-2024-08-06"), then the table's fallback price.
//
// Tables are thread-safe and support hot reload via Update.
type PricingTable struct {
	mu       sync.RWMutex
	prices   map[string]ModelPrice
	fallback ModelPrice
}

// NewPricingTable builds a table from per-model prices and a fallback used
// when no model matches.
func NewPricingTable(prices map[string]ModelPrice, fallback ModelPrice) *PricingTable {
	cloned := make(map[string]ModelPrice, len(prices))
	for model, price := range prices {
		cloned[model] = price
	}
	return &PricingTable{prices: cloned, fallback: fallback}
}

// Estimate returns the USD cost for the given token counts under model's
// pricing. It is a pure function of the table contents.
func (t *PricingTable) Estimate(model string, tokensIn, tokensOut int) float64 {
	price := t.lookup(model)
	cost := float64(tokensIn)/1e6*price.InputPerMTok +
		float64(tokensOut)/1e6*price.OutputPerMTok
	if cost < 0 {
		return 0
	}
	return cost
}

// lookup resolves a model to its price.
func (t *PricingTable) lookup(model string) ModelPrice {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if price, ok := t.prices[model]; ok {
		return price
	}

	bestLen := 0
	best := t.fallback
	for pattern, price := range t.prices {
		if strings.HasPrefix(model, pattern) && len(pattern) > bestLen {
			bestLen = len(pattern)
			best = price
		}
	}
	return best
}

// Update replaces per-model prices, merging over the existing entries.
// Safe to call while the table is in use.
func (t *PricingTable) Update(prices map[string]ModelPrice) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for model, price := range prices {
		t.prices[model] = price
	}
}

// PricingOverrides is the on-disk shape of a pricing override file:
// provider name to model to price.
type PricingOverrides map[string]map[string]ModelPrice

// LoadPricingFile reads a YAML pricing override file.
func LoadPricingFile(path string) (PricingOverrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file %q: %w", path, err)
	}
	var overrides PricingOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse pricing file %q: %w", path, err)
	}
	return overrides, nil
}

// WatchPricingFile watches a pricing override file and invokes apply with
// the freshly parsed overrides on every change. Events are debounced since
// editors emit several write events per save. The watcher stops when ctx is
// cancelled. Parse failures are logged and the previous pricing stays in
// effect.
func WatchPricingFile(ctx context.Context, path string, apply func(PricingOverrides)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create pricing watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch pricing file %q: %w", path, err)
	}

	go func() {
		defer watcher.Close()

		const debounce = 250 * time.Millisecond
		var timer *time.Timer
		var timerC <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
					timerC = timer.C
				} else {
					timer.Reset(debounce)
				}

			case <-timerC:
				overrides, err := LoadPricingFile(path)
				if err != nil {
					slog.Error("pricing reload failed, keeping previous prices",
						"path", path,
						"error", err,
					)
					continue
				}
				apply(overrides)
				slog.Info("pricing overrides reloaded", "path", path, "providers", len(overrides))

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("pricing watcher error", "path", path, "error", err)
			}
		}
	}()

	return nil
}
