package storage

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Package storage persists the session bearer token between runs.

// Store is the canonical home of the session token.
type Store interface {
	Close() error
	// LoadToken returns the stored token, or ok=false when none is stored or it expired.
	LoadToken() (token string, ok bool, err error)
	// SaveToken replaces the stored token. A zero expiresAt means now+TokenTTL.
	SaveToken(token string, expiresAt time.Time) error
	ClearToken() error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	TokenTTL time.Duration
}

const defaultTokenTTL = 7 * 24 * time.Hour

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "memory":
		return newMemoryStore(opts), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	return opts
}

// expiryFor caps the requested expiry at now+ttl.
func expiryFor(now, requested time.Time, ttl time.Duration) time.Time {
	limit := now.Add(ttl)
	if requested.IsZero() || requested.After(limit) {
		return limit
	}
	return requested
}

type noopStore struct{}

func (noopStore) Close() error                      { return nil }
func (noopStore) LoadToken() (string, bool, error)  { return "", false, nil }
func (noopStore) SaveToken(string, time.Time) error { return nil }
func (noopStore) ClearToken() error                 { return nil }

// memoryStore keeps the token for the life of the process.
type memoryStore struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func newMemoryStore(opts Options) *memoryStore {
	return &memoryStore{ttl: opts.TokenTTL, now: time.Now}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) LoadToken() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", false, nil
	}
	if !m.expiresAt.After(m.now()) {
		m.token = ""
		m.expiresAt = time.Time{}
		return "", false, nil
	}
	return m.token, true, nil
}

func (m *memoryStore) SaveToken(token string, expiresAt time.Time) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.expiresAt = expiryFor(m.now(), expiresAt, m.ttl)
	return nil
}

func (m *memoryStore) ClearToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.expiresAt = time.Time{}
	return nil
}
