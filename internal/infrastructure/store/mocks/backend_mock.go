package mocks

import (
	"context"
	"sync"
)

// MockBackend is a mock implementation of store.Backend for testing
type MockBackend struct {
	mu   sync.RWMutex
	data map[string][]byte

	// For tracking calls in tests
	GetCalls    []string
	SetCalls    []SetCall
	DeleteCalls []string

	// Errors returned instead of touching data, when set
	GetErr    error
	SetErr    error
	DeleteErr error
}

// SetCall records parameters passed to Set
type SetCall struct {
	Key   string
	Value []byte
}

// NewMockBackend creates a new MockBackend
func NewMockBackend() *MockBackend {
	return &MockBackend{
		data:        make(map[string][]byte),
		GetCalls:    make([]string, 0),
		SetCalls:    make([]SetCall, 0),
		DeleteCalls: make([]string, 0),
	}
}

// Get retrieves a value by key
func (m *MockBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls = append(m.GetCalls, key)
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	value, ok := m.data[key]
	return value, ok, nil
}

// Set stores a value
func (m *MockBackend) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls = append(m.SetCalls, SetCall{Key: key, Value: value})
	if m.SetErr != nil {
		return m.SetErr
	}
	m.data[key] = value
	return nil
}

// Delete removes a value
func (m *MockBackend) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, key)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.data, key)
	return nil
}

// SetData sets data directly for testing
func (m *MockBackend) SetData(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// GetData gets data directly for testing (without recording the call)
func (m *MockBackend) GetData(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	return value, ok
}
