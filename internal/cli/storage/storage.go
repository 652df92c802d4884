// Package storage is the console's local key/value store. It holds the session
// token, the cached user record and the remembered login email.
package storage

import (
	"errors"
	"fmt"
	"sync"
)

// Canonical keys shared by the request client and the navigation guard.
const (
	KeyToken           = "admin_token"
	KeyUser            = "admin_user"
	KeyRememberedEmail = "remembered_admin_email"
)

// Backend names accepted by Open
const (
	BackendFile    = "file"
	BackendKeyring = "keyring"
	BackendMemory  = "memory"
)

// ErrNotFound is returned by Get when the key has never been set or was deleted
var ErrNotFound = errors.New("key not found")

// Store defines the key/value operations used by the console.
// Delete of a missing key is not an error.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Open returns the store for the given backend
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendFile, "":
		if path == "" {
			p, err := DefaultPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		return NewFile(path), nil
	case BackendKeyring:
		return NewKeyring(DefaultKeyringService), nil
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// Memory is an in-process Store
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}
