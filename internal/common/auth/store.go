// Package auth persists the access/refresh token pair and renews it.
package auth

import (
	"context"
	"sync"

	"nova-client/internal/models"
)

// TokenStore persists the two session tokens. It is the only client-side
// state that survives between runs.
type TokenStore interface {
	Load(ctx context.Context) (models.TokenPair, error)
	Save(ctx context.Context, tokens models.TokenPair) error
	SaveAccess(ctx context.Context, access string) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps tokens for the life of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens models.TokenPair
}

func NewMemoryStore(initial models.TokenPair) *MemoryStore {
	return &MemoryStore{tokens: initial}
}

func (m *MemoryStore) Load(context.Context) (models.TokenPair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens, nil
}

func (m *MemoryStore) Save(_ context.Context, tokens models.TokenPair) error {
	m.mu.Lock()
	m.tokens = tokens
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) SaveAccess(_ context.Context, access string) error {
	m.mu.Lock()
	m.tokens.Access = access
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.tokens = models.TokenPair{}
	m.mu.Unlock()
	return nil
}
