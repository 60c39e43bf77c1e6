package keystore

import (
	"errors"
	"sync"
)

// ErrNotFound is the error returned by a backend when a key does not exist.
var ErrNotFound = errors.New("keystore: key not found")

// Backend is the key-value store persisting keystore state.
type Backend interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// Put stores value under key, overwriting any previous value.
	Put(key, value []byte) error

	// Close releases any resources held by the backend.
	Close() error
}

// MemoryBackend is a volatile in-memory backend. State is lost on restart.
type MemoryBackend struct {
	sync.RWMutex

	items map[string][]byte
}

// Get implements Backend.
func (m *MemoryBackend) Get(key []byte) ([]byte, error) {
	m.RLock()
	defer m.RUnlock()

	value, ok := m.items[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte{}, value...), nil
}

// Put implements Backend.
func (m *MemoryBackend) Put(key, value []byte) error {
	m.Lock()
	defer m.Unlock()

	m.items[string(key)] = append([]byte{}, value...)
	return nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	return nil
}

// NewMemoryBackend creates a new in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		items: make(map[string][]byte),
	}
}
