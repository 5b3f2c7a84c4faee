package auth

import (
	"context"
	"errors"
	"sync"
)

// ErrNoCredentials is returned when the store holds neither token.
var ErrNoCredentials = errors.New("no credentials stored")

// TokenPair is the access/refresh token pair for the Strava API.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Empty reports whether both tokens are blank.
func (p TokenPair) Empty() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// CredentialStore keeps the user's TokenPair. Get returns ErrNoCredentials when
// nothing is stored; a pair with only one token set is returned as is.
type CredentialStore interface {
	Get(ctx context.Context) (TokenPair, error)
	Set(ctx context.Context, pair TokenPair) error
	Clear(ctx context.Context) error
}

// MemoryStore is an in-process CredentialStore.
type MemoryStore struct {
	mu   sync.RWMutex
	pair TokenPair
}

// NewMemoryStore returns a store seeded with pair (which may be empty).
func NewMemoryStore(pair TokenPair) *MemoryStore {
	return &MemoryStore{pair: pair}
}

func (m *MemoryStore) Get(ctx context.Context) (TokenPair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pair.Empty() {
		return TokenPair{}, ErrNoCredentials
	}
	return m.pair, nil
}

func (m *MemoryStore) Set(ctx context.Context, pair TokenPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = pair
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = TokenPair{}
	return nil
}
