package providers

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Name:        "anthropic",
		Model:       "claude-3-5-sonnet-20241022",
		APIKey:      "key",
		MaxTokens:   1024,
		Temperature: 0.7,
		Timeout:     30 * time.Second,
		MaxRetries:  3,
		Weight:      1.0,
		Enabled:     true,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty name", func(c *Config) { c.Name = "" }, true},
		{"uppercase name", func(c *Config) { c.Name = "Anthropic" }, true},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, true},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, true},
		{"negative temperature", func(c *Config) { c.Temperature = -0.1 }, true},
		{"weight too high", func(c *Config) { c.Weight = 2.1 }, true},
		{"negative weight", func(c *Config) { c.Weight = -1 }, true},
		{"zero weight allowed", func(c *Config) { c.Weight = 0 }, false},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		raw     string
		want    Decision
		wantErr bool
	}{
		{"BUY", DecisionBuy, false},
		{"buy", DecisionBuy, false},
		{" Sell ", DecisionSell, false},
		{"hold", DecisionHold, false},
		{"LONG", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDecision(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDecision(%q) error = %v, wantErr = %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDecision(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestRiskLevelRank(t *testing.T) {
	if !(RiskLow.Rank() < RiskMedium.Rank() && RiskMedium.Rank() < RiskHigh.Rank()) {
		t.Error("risk ordering must be low < medium < high")
	}
	if RiskLevel("unknown").Rank() != RiskMedium.Rank() {
		t.Error("unknown risk must rank as medium")
	}
}
