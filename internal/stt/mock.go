package stt

import (
	"context"
	"sync"
)

// MockAdapter is a deterministic Adapter for testing.
type MockAdapter struct {
	// Fn produces the result for one call. attempt counts from 1 per path.
	Fn func(path string, attempt int) (string, error)

	Backend Provider

	mu    sync.Mutex
	calls map[string]int
}

// NewMockAdapter creates a MockAdapter backed by fn.
func NewMockAdapter(p Provider, fn func(path string, attempt int) (string, error)) *MockAdapter {
	return &MockAdapter{Fn: fn, Backend: p, calls: make(map[string]int)}
}

func (m *MockAdapter) Transcribe(_ context.Context, path string) (string, error) {
	m.mu.Lock()
	m.calls[path]++
	n := m.calls[path]
	m.mu.Unlock()
	return m.Fn(path, n)
}

func (m *MockAdapter) Provider() Provider { return m.Backend }

// Calls returns how many times path was transcribed.
func (m *MockAdapter) Calls(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[path]
}

// TotalCalls returns the number of Transcribe calls across all paths.
func (m *MockAdapter) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// Factory returns an AdapterFactory that always yields m.
func (m *MockAdapter) Factory() AdapterFactory {
	return func(Provider, Config) (Adapter, error) { return m, nil }
}
