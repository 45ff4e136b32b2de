package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
)

// maxBackoff caps the exponential retry delay.
const maxBackoff = 60 * time.Second

// HTTPClient is the shared base for HTTP provider adapters. It provides
// connection pooling, the retry/backoff policy, deadline discipline and
// status tracking. Concrete adapters embed it and implement the
// vendor-specific envelope on top of Do/DoJSON.
type HTTPClient struct {
	config  Config
	client  *http.Client
	tracker *StatusTracker
	pricing *PricingTable
	enabled atomic.Bool
}

// NewHTTPClient validates the configuration and creates a pooled HTTP client
// wrapped in a fresh status tracker.
func NewHTTPClient(config Config, pricing *PricingTable) (*HTTPClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	c := &HTTPClient{
		config:  config,
		client:  &http.Client{Transport: transport},
		tracker: NewStatusTracker(config.Name),
		pricing: pricing,
	}
	c.enabled.Store(config.Enabled)

	return c, nil
}

// Name returns the provider identifier.
func (c *HTTPClient) Name() string { return c.config.Name }

// Weight returns the provider's default vote weight.
func (c *HTTPClient) Weight() float64 { return c.config.Weight }

// Model returns the configured vendor model string.
func (c *HTTPClient) Model() string { return c.config.Model }

// Config returns a copy of the adapter configuration.
func (c *HTTPClient) Config() Config { return c.config }

// Enabled reports whether the provider participates in consensus.
func (c *HTTPClient) Enabled() bool { return c.enabled.Load() }

// SetEnabled toggles participation. Idempotent.
func (c *HTTPClient) SetEnabled(enabled bool) { c.enabled.Store(enabled) }

// Status returns a snapshot of the provider's runtime state.
func (c *HTTPClient) Status() Status { return c.tracker.Status() }

// Tracker exposes the status tracker for health probes.
func (c *HTTPClient) Tracker() *StatusTracker { return c.tracker }

// Pricing returns the adapter's pricing table.
func (c *HTTPClient) Pricing() *PricingTable { return c.pricing }

// EstimateCost returns the USD cost of a call with the given token counts
// under the configured model's pricing.
func (c *HTTPClient) EstimateCost(tokensIn, tokensOut int) float64 {
	return c.pricing.Estimate(c.config.Model, tokensIn, tokensOut)
}

// Close releases pooled connections.
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	slog.Debug("provider closed", "provider", c.config.Name)
	return nil
}

// Do performs a request, retrying transient failures with exponential
// backoff. It returns the response body on 2xx.
//
// Retry policy: timeouts, rate limits, transport failures and 5xx responses
// are retried up to MaxRetries with delay min(2^attempt + jitter, 60s),
// jitter uniform in [0, 1) seconds. Authentication failures and other 4xx
// responses are returned immediately. The cumulative elapsed time never
// exceeds the context deadline: if the next backoff would cross it, the most
// recent error is returned instead.
//
// Do itself carries no circuit breaker; adapters run the whole signal call
// under Call so that the breaker sees one outcome per call.
func (c *HTTPClient) Do(ctx context.Context, method, url string, body []byte, headers map[string]string) ([]byte, error) {
	return c.doWithRetry(ctx, method, url, body, headers)
}

// Call runs one full signal operation under the circuit breaker and records
// its outcome in the status counters. fn covers the HTTP exchange and the
// extraction, so parse failures count toward tripping the circuit the same
// as vendor failures. A call refused by an open circuit is not recorded:
// the provider was never exercised.
func (c *HTTPClient) Call(fn func() error) error {
	start := time.Now()
	err := c.tracker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return err
	}
	c.tracker.Record(err == nil, time.Since(start))
	return err
}

// Probe performs a single request without the circuit breaker or retries,
// recording the outcome as a health-probe result.
func (c *HTTPClient) Probe(ctx context.Context, method, url string, body []byte, headers map[string]string) error {
	_, err := c.doOnce(ctx, method, url, body, headers)
	c.tracker.RecordProbe(err == nil)
	return err
}

// doWithRetry is the retry loop shared by all adapters.
func (c *HTTPClient) doWithRetry(ctx context.Context, method, url string, body []byte, headers map[string]string) ([]byte, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	var lastErr *Error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt-1, lastErr.RetryAfter)
			if deadline, ok := ctx.Deadline(); ok && time.Now().Add(delay).After(deadline) {
				slog.Debug("backoff would exceed deadline, aborting retries",
					"provider", c.config.Name,
					"attempt", attempt,
					"delay", delay,
				)
				return nil, lastErr
			}
			select {
			case <-ctx.Done():
				return nil, c.timeoutError(ctx.Err())
			case <-time.After(delay):
			}
		}

		respBody, err := c.doOnce(ctx, method, url, body, headers)
		if err == nil {
			return respBody, nil
		}

		var perr *Error
		if !errors.As(err, &perr) {
			// doOnce only returns *Error; treat anything else as generic.
			perr = &Error{Kind: ErrorGeneric, Provider: c.config.Name, Message: err.Error(), Cause: err}
		}
		if !perr.Retryable() {
			return nil, perr
		}
		if perr.Kind == ErrorTimeout {
			// The deadline is gone; there is no budget left to retry.
			return nil, perr
		}
		lastErr = perr

		slog.Warn("provider request failed, will retry",
			"provider", c.config.Name,
			"attempt", attempt+1,
			"max_retries", c.config.MaxRetries,
			"kind", string(perr.Kind),
			"error", perr.Message,
		)
	}

	return nil, lastErr
}

// doOnce performs a single HTTP exchange and classifies its outcome.
func (c *HTTPClient) doOnce(ctx context.Context, method, url string, body []byte, headers map[string]string) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, &Error{Kind: ErrorValidation, Provider: c.config.Name,
			Message: fmt.Sprintf("failed to build request: %v", err), Cause: err}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, c.timeoutError(ctx.Err())
		}
		return nil, &Error{Kind: ErrorTransport, Provider: c.config.Name,
			Message: err.Error(), Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, c.timeoutError(ctx.Err())
		}
		return nil, &Error{Kind: ErrorTransport, Provider: c.config.Name,
			Message: fmt.Sprintf("failed to read response: %v", err), Cause: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	perr := &Error{
		Kind:       classifyStatus(resp.StatusCode),
		Provider:   c.config.Name,
		StatusCode: resp.StatusCode,
		Message:    truncateBody(respBody),
	}
	if perr.Kind == ErrorRateLimited {
		perr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return nil, perr
}

// DoJSON marshals reqBody, performs the request and unmarshals the response
// into respBody. Envelope decode failures are classified as VALIDATION: the
// vendor broke its own response schema.
func (c *HTTPClient) DoJSON(ctx context.Context, method, url string, reqBody, respBody interface{}, headers map[string]string) error {
	var payload []byte
	if reqBody != nil {
		var err error
		payload, err = json.Marshal(reqBody)
		if err != nil {
			return &Error{Kind: ErrorValidation, Provider: c.config.Name,
				Message: fmt.Sprintf("failed to marshal request: %v", err), Cause: err}
		}
	}

	raw, err := c.Do(ctx, method, url, payload, headers)
	if err != nil {
		return err
	}

	if respBody != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, respBody); err != nil {
			return &Error{Kind: ErrorValidation, Provider: c.config.Name,
				Message: fmt.Sprintf("failed to decode response envelope: %v", err), Cause: err}
		}
	}
	return nil
}

// timeoutError classifies a context error. Both deadline expiry and
// cancellation surface as TIMEOUT: from the orchestrator's perspective the
// call was abandoned for lack of time.
func (c *HTTPClient) timeoutError(cause error) *Error {
	msg := "request deadline exceeded"
	if errors.Is(cause, context.Canceled) {
		msg = "request cancelled"
	}
	return &Error{Kind: ErrorTimeout, Provider: c.config.Name, Message: msg, Cause: cause}
}

// backoffDelay computes the delay before retry number attempt (0-based):
// min(2^attempt + jitter, 60s), raised to the vendor's Retry-After when the
// previous failure was a rate limit.
func backoffDelay(attempt int, retryAfter time.Duration) time.Duration {
	if attempt > 6 {
		attempt = 6 // 2^6 = 64s, already past the cap
	}
	delay := time.Duration(1<<uint(attempt))*time.Second +
		time.Duration(rand.Float64()*float64(time.Second))
	if delay > maxBackoff {
		delay = maxBackoff
	}
	if retryAfter > delay {
		delay = retryAfter
	}
	return delay
}

// parseRetryAfter parses a Retry-After header in either delay-seconds or
// HTTP-date form.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 0
}

// truncateBody keeps vendor error bodies readable in logs and error chains.
func truncateBody(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
