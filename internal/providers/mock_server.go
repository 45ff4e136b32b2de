// Package providers holds shared test doubles for the provider adapters:
// a configurable mock vendor server and canned vendor response bodies.
package providers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// MockServer simulates a vendor API for adapter tests. Responses are
// registered per path; unknown paths return 404.
type MockServer struct {
	server       *httptest.Server
	responses    map[string][]MockResponse
	served       map[string]int
	requestCount int
	lastQuery    url.Values
	mu           sync.Mutex
}

// MockResponse is one canned response. When several are registered for a
// path they are served in order, the last one repeating; that shapes retry
// scenarios (fail, fail, succeed).
type MockResponse struct {
	StatusCode int
	Body       interface{}
	Delay      time.Duration
	Headers    map[string]string
}

// NewMockServer starts the mock vendor.
func NewMockServer() *MockServer {
	ms := &MockServer{
		responses: make(map[string][]MockResponse),
		served:    make(map[string]int),
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close shuts the mock server down.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse registers the response sequence for a path, replacing any
// previous registration.
func (ms *MockServer) SetResponse(path string, responses ...MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[path] = responses
	ms.served[path] = 0
}

// RequestCount returns the number of requests received so far.
func (ms *MockServer) RequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.requestCount
}

// LastQuery returns the query parameters of the most recent request.
func (ms *MockServer) LastQuery() url.Values {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.lastQuery
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	ms.mu.Lock()
	ms.requestCount++
	ms.lastQuery = r.URL.Query()
	seq, ok := ms.responses[r.URL.Path]
	var response MockResponse
	if ok {
		idx := ms.served[r.URL.Path]
		if idx >= len(seq) {
			idx = len(seq) - 1
		}
		response = seq[idx]
		ms.served[r.URL.Path]++
	}
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		time.Sleep(response.Delay)
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	w.WriteHeader(response.StatusCode)
	if response.Body == nil {
		return
	}
	switch v := response.Body.(type) {
	case string:
		_, _ = w.Write([]byte(v))
	case []byte:
		_, _ = w.Write(v)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}
