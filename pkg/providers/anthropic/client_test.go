package anthropic

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
		Name:        "anthropic",
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

func testRequest() *providers.SignalRequest {
	return &providers.SignalRequest{
		MarketData:   map[string]float64{"rsi": 28.5, "macd": -0.4},
		Pair:         "BTC/USD",
		Timeframe:    "1h",
		CurrentPrice: 50000,
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

func TestNewAppliesDefaults(t *testing.T) {
	p, err := New(testConfig(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	if p.Config().BaseURL != defaultBaseURL {
		t.Errorf("base URL = %s, want vendor default", p.Config().BaseURL)
	}
	if p.Config().Model != DefaultModel {
		t.Errorf("model = %s, want %s", p.Config().Model, DefaultModel)
	}
}

func TestGenerateSignal(t *testing.T) {
	srv := mock.NewMockServer()
	defer srv.Close()
	srv.SetResponse("/v1/messages", mock.MockResponse{
		StatusCode: http.StatusOK,
		Body:       mock.AnthropicEnvelope(mock.SignalJSON),
	})

	p, err := New(testConfig(srv.URL()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	resp, err := p.GenerateSignal(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ProviderName != "anthropic" {
		t.Errorf("provider = %s", resp.ProviderName)
	}
	if resp.Decision != providers.DecisionBuy {
		t.Errorf("decision = %s, want BUY", resp.Decision)
	}
	if resp.Confidence != 0.85 {
		t.Errorf("confidence = %g, want 0.85", resp.Confidence)
	}
	if resp.TokensIn != 420 || resp.TokensOut != 96 {
		t.Errorf("tokens = %d/%d, want 420/96", resp.TokensIn, resp.TokensOut)
	}
	if resp.CostUSD <= 0 {
		t.Errorf("cost = %g, want positive", resp.CostUSD)
	}
	if resp.SuggestedStopLoss == nil || *resp.SuggestedStopLoss != 48500.0 {
		t.Errorf("stop loss = %v, want 48500", resp.SuggestedStopLoss)
	}
}

func TestGenerateSignalParseFailure(t *testing.T) {
	srv := mock.NewMockServer()
	defer srv.Close()
	srv.SetResponse("/v1/messages", mock.MockResponse{
		StatusCode: http.StatusOK,
		Body:       mock.AnthropicEnvelope("I cannot provide trading advice."),
	})

	p, _ := New(testConfig(srv.URL()))
	defer p.Close()

	_, err := p.GenerateSignal(context.Background(), testRequest())
	var perr *providers.Error
	if !errors.As(err, &perr) {
		t.Fatalf("want *Error, got %v", err)
	}
	if perr.Kind != providers.ErrorParse {
		t.Errorf("kind = %s, want parse", perr.Kind)
	}

	// A parse failure counts against the provider's status even though the
	// HTTP exchange succeeded.
	if st := p.Status(); st.ErrorsTotal != 1 {
		t.Errorf("errors recorded = %d, want 1", st.ErrorsTotal)
	}
}

func TestGenerateSignalAuthFailure(t *testing.T) {
	srv := mock.NewMockServer()
	defer srv.Close()
	srv.SetResponse("/v1/messages", mock.MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       mock.VendorError("invalid x-api-key"),
	})

	p, _ := New(testConfig(srv.URL()))
	defer p.Close()

	_, err := p.GenerateSignal(context.Background(), testRequest())
	var perr *providers.Error
	if !errors.As(err, &perr) {
		t.Fatalf("want *Error, got %v", err)
	}
	if perr.Kind != providers.ErrorAuthentication {
		t.Errorf("kind = %s, want authentication", perr.Kind)
	}
}

func TestHealthCheck(t *testing.T) {
	srv := mock.NewMockServer()
	defer srv.Close()
	srv.SetResponse("/v1/messages", mock.MockResponse{
		StatusCode: http.StatusOK,
		Body:       mock.AnthropicEnvelope("pong"),
	})

	p, _ := New(testConfig(srv.URL()))
	defer p.Close()

	if err := p.HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	srv.SetResponse("/v1/messages", mock.MockResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       mock.VendorError("overloaded"),
	})
	if err := p.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected probe failure")
	}
	if st := p.Status(); st.State != providers.StateUnavailable {
		t.Errorf("state = %s, want UNAVAILABLE after failed probe", st.State)
	}
}
