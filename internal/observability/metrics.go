package observability

import (
	"sync"
	"time"
)

type requestKey struct {
	Path   string
	Method string
	Status int
}

type errorKey struct {
	Path   string
	Method string
	Code   string
}

// Metrics keeps in-memory request and error counters plus the accumulated
// handling time per route. A nil receiver is a no-op so callers never have to
// guard the wiring.
type Metrics struct {
	mu       sync.Mutex
	requests map[requestKey]int64
	errors   map[errorKey]int64
	elapsed  map[requestKey]time.Duration
}

// NewMetrics initializes the counter maps.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[requestKey]int64),
		errors:   make(map[errorKey]int64),
		elapsed:  make(map[requestKey]time.Duration),
	}
}

// RecordRequest counts a handled request under its final response status.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := requestKey{Path: path, Method: method, Status: status}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[key]++
	m.elapsed[key] += duration
}

// RecordError counts an error response by its domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[errorKey{Path: path, Method: method, Code: code}]++
}

// RequestCount returns how many requests finished with the given status.
func (m *Metrics) RequestCount(path, method string, status int) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[requestKey{Path: path, Method: method, Status: status}]
}

// ErrorCount returns how many responses carried the given error code.
func (m *Metrics) ErrorCount(path, method, code string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[errorKey{Path: path, Method: method, Code: code}]
}
