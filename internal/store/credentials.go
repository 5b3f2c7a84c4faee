package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"strava-dashboard/internal/auth"
)

// Keys under which the token pair is stored.
const (
	KeyAccessToken  = "strava_access_token"
	KeyRefreshToken = "strava_refresh_token"
)

var _ auth.CredentialStore = (*Store)(nil)

// Get returns the stored pair, or auth.ErrNoCredentials when neither token is set.
func (s *Store) Get(ctx context.Context) (auth.TokenPair, error) {
	access, err := s.Value(ctx, KeyAccessToken)
	if err != nil {
		return auth.TokenPair{}, err
	}
	refresh, err := s.Value(ctx, KeyRefreshToken)
	if err != nil {
		return auth.TokenPair{}, err
	}

	pair := auth.TokenPair{AccessToken: access, RefreshToken: refresh}
	if pair.Empty() {
		return auth.TokenPair{}, auth.ErrNoCredentials
	}
	return pair, nil
}

// Set replaces both tokens atomically. A blank token removes its key.
func (s *Store) Set(ctx context.Context, pair auth.TokenPair) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := putValue(ctx, tx, KeyAccessToken, pair.AccessToken); err != nil {
			return err
		}
		return putValue(ctx, tx, KeyRefreshToken, pair.RefreshToken)
	})
}

// Clear removes both tokens.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM credentials WHERE key IN (?, ?)
	`, KeyAccessToken, KeyRefreshToken)
	if err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	return nil
}

// Value returns a stored value, or "" if the key doesn't exist.
func (s *Store) Value(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM credentials WHERE key = ?
	`, key).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

// SetValue stores a value; an empty value deletes the key.
func (s *Store) SetValue(ctx context.Context, key, value string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return putValue(ctx, tx, key, value)
	})
}

func putValue(ctx context.Context, tx *sql.Tx, key, value string) error {
	var err error
	if value == "" {
		_, err = tx.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, key)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO credentials (key, value, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				updated_at = CURRENT_TIMESTAMP
		`, key, value)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
