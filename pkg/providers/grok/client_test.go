package grok

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	mock "github.com/thalas777/thalas-trader-sub000/internal/providers"
	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
)

func testConfig(baseURL string) providers.Config {
	return providers.Config{
		Name:        "grok",
		APIKey:      "test-key",
		BaseURL:     baseURL,
		MaxTokens:   512,
		Temperature: 0.5,
		Timeout:     5 * time.Second,
		MaxRetries:  0,
		Weight:      1.0,
		Enabled:     true,
	}
}

func TestNewAppliesGrokDefaults(t *testing.T) {
	p, err := New(testConfig(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	if p.Config().BaseURL != defaultBaseURL {
		t.Errorf("base URL = %s, want xAI default", p.Config().BaseURL)
	}
	if p.Config().Model != DefaultModel {
		t.Errorf("model = %s, want %s", p.Config().Model, DefaultModel)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	cfg := testConfig("")
	cfg.APIKey = ""
	_, err := New(cfg)

	var perr *providers.Error
	if !errors.As(err, &perr) || perr.Kind != providers.ErrorValidation {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestGenerateSignalSpeaksChatProtocol(t *testing.T) {
	srv := mock.NewMockServer()
	defer srv.Close()
	srv.SetResponse("/v1/chat/completions", mock.MockResponse{
		StatusCode: http.StatusOK,
		Body:       mock.ChatEnvelope(mock.SignalJSON),
	})

	p, err := New(testConfig(srv.URL()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	resp, err := p.GenerateSignal(context.Background(), &providers.SignalRequest{
		MarketData:   map[string]float64{"rsi": 45},
		Pair:         "SOL/USD",
		Timeframe:    "15m",
		CurrentPrice: 150,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ProviderName != "grok" {
		t.Errorf("provider = %s, want grok", resp.ProviderName)
	}
	if resp.Decision != providers.DecisionBuy {
		t.Errorf("decision = %s, want BUY", resp.Decision)
	}
}
