package auth

import (
	"context"
	"sync"
	"time"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/clock"
)

// RefreshTokenStore tracks which refresh tokens are still live.
type RefreshTokenStore interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Remove(ctx context.Context, token string) error
	Contains(ctx context.Context, token string) (bool, error)
}

// MemoryRefreshTokenStore is an in-process RefreshTokenStore with per-entry expiry.
type MemoryRefreshTokenStore struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[string]time.Time
}

// NewMemoryRefreshTokenStore creates an empty store. A nil clock uses the system clock.
func NewMemoryRefreshTokenStore(clk clock.Clock) *MemoryRefreshTokenStore {
	if clk == nil {
		clk = clock.System{}
	}
	return &MemoryRefreshTokenStore{clock: clk, entries: make(map[string]time.Time)}
}

func (m *MemoryRefreshTokenStore) Add(_ context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[token] = m.clock.Now().Add(ttl)
	return nil
}

func (m *MemoryRefreshTokenStore) Remove(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, token)
	return nil
}

func (m *MemoryRefreshTokenStore) Contains(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiresAt, ok := m.entries[token]
	if !ok {
		return false, nil
	}
	if !m.clock.Now().Before(expiresAt) {
		delete(m.entries, token)
		return false, nil
	}
	return true, nil
}

// Len returns the number of tracked tokens, expired ones included.
func (m *MemoryRefreshTokenStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
