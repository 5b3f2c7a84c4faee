package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(TokenPair{})

	_, err := s.Get(ctx)
	assert.ErrorIs(t, err, ErrNoCredentials)

	want := TokenPair{AccessToken: "a1", RefreshToken: "r1"}
	require.NoError(t, s.Set(ctx, want))

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Get(ctx)
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestMemoryStorePartialPair(t *testing.T) {
	s := NewMemoryStore(TokenPair{AccessToken: "only-access"})

	got, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "only-access", got.AccessToken)
	assert.Empty(t, got.RefreshToken)
}
