// Package storage is the durable key/value layer under the wardrobe. Values
// are JSON documents addressed by string keys; every successful write is
// pushed synchronously to subscribers of that key.
package storage

import (
	"bytes"
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by a Backend when the key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// Backend persists raw JSON documents.
type Backend interface {
	// Load returns the stored document or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save replaces the stored document.
	Save(ctx context.Context, key string, value []byte) error
	// Delete removes the document. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Swapper is implemented by backends that can replace a document only if it
// still holds the expected bytes. A nil old value means "key is absent".
type Swapper interface {
	CompareAndSwap(ctx context.Context, key string, old, new []byte) (bool, error)
}

// MemoryBackend keeps documents in process memory.
type MemoryBackend struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string][]byte)}
}

func (m *MemoryBackend) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (m *MemoryBackend) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = bytes.Clone(value)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

func (m *MemoryBackend) CompareAndSwap(_ context.Context, key string, old, new []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.docs[key]
	if old == nil {
		if ok {
			return false, nil
		}
	} else if !ok || !bytes.Equal(cur, old) {
		return false, nil
	}
	m.docs[key] = bytes.Clone(new)
	return true, nil
}
