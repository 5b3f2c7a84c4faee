package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strava-dashboard/internal/auth"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := New(db)
	require.NoError(t, err)
	return s
}

func TestStore_EmptyHasNoCredentials(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Get(context.Background())
	assert.ErrorIs(t, err, auth.ErrNoCredentials)
}

func TestStore_SetGetClear(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, auth.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))
	pair, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.TokenPair{AccessToken: "A1", RefreshToken: "R1"}, pair)

	require.NoError(t, s.Set(ctx, auth.TokenPair{AccessToken: "A2", RefreshToken: "R2"}))
	pair, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A2", pair.AccessToken)
	assert.Equal(t, "R2", pair.RefreshToken)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Get(ctx)
	assert.ErrorIs(t, err, auth.ErrNoCredentials)
}

func TestStore_PartialPair(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, auth.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))
	require.NoError(t, s.Set(ctx, auth.TokenPair{AccessToken: "A2"}))

	pair, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.TokenPair{AccessToken: "A2"}, pair)

	v, err := s.Value(ctx, KeyRefreshToken)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestStore_ClearLeavesOtherKeys(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetValue(ctx, "athlete_id", "4242"))
	require.NoError(t, s.Set(ctx, auth.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))
	require.NoError(t, s.Clear(ctx))

	v, err := s.Value(ctx, "athlete_id")
	require.NoError(t, err)
	assert.Equal(t, "4242", v)
}

func TestOpen_CreatesPrivateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.db")

	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), auth.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, s.Close())
	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	pair, err := reopened.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A1", pair.AccessToken)
}
