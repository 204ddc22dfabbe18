// Package testutil provides testing utilities for the Scribe client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock backend endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockBackend is a configurable mock Scribe backend for testing.
type MockBackend struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	csrfToken string

	// Tracking
	requestCount      int
	pathCounts        map[string]int
	lastRequestHeader http.Header
}

// NewMockBackend creates a new mock backend server.
func NewMockBackend() *MockBackend {
	mock := &MockBackend{
		handlers:   make(map[string]http.HandlerFunc),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[r.URL.Path]++
		mock.lastRequestHeader = r.Header.Clone()
		token := mock.csrfToken
		mock.mu.Unlock()

		// The backend refreshes the anti-forgery cookie on reads.
		if token != "" && r.Method == http.MethodGet {
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: token, Path: "/"})
		}

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockBackend) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockBackend) Close() {
	m.server.Close()
}

// Reset clears handlers and tracking counters.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = make(map[string]http.HandlerFunc)
	m.pathCounts = make(map[string]int)
	m.requestCount = 0
	m.lastRequestHeader = nil
}

// SetCSRFToken makes the backend issue an anti-forgery cookie on reads.
func (m *MockBackend) SetCSRFToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.csrfToken = token
}

// SetHandler sets a custom handler for a specific path.
func (m *MockBackend) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a canned response for a path.
func (m *MockBackend) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetEnvelope configures a path to reply with the explicit envelope
// format: {"status": ..., "message": ..., "data": ...}.
func (m *MockBackend) SetEnvelope(path string, statusCode int, status, message string, data any) {
	body := map[string]any{"status": status, "message": message}
	if data != nil {
		body["data"] = data
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal envelope: %v", err))
	}
	m.SetResponse(path, MockResponse{
		StatusCode: statusCode,
		Body:       string(encoded),
		Headers:    map[string]string{"Content-Type": "application/json"},
	})
}

// SetPage configures a paginated list reply with an optional next cursor.
func (m *MockBackend) SetPage(path string, items any, next string) {
	body := map[string]any{
		"status": "success",
		"data":   items,
	}
	if next != "" {
		body["pagination"] = map[string]any{"next": next, "previous": "", "page_size": 10}
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal page: %v", err))
	}
	m.SetResponse(path, MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(encoded),
		Headers:    map[string]string{"Content-Type": "application/json"},
	})
}

// RequestCount returns the total number of requests seen.
func (m *MockBackend) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathCount returns the number of requests seen for a path.
func (m *MockBackend) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockBackend) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// defaultHandler replies with a generic not-found envelope.
func (m *MockBackend) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, `{"detail":"Not found: %s"}`, r.URL.Path)
}
