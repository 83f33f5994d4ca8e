package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/p-blackswan/taskhub/pkg/tokenstore"
)

var _ tokenstore.Store = (*Store)(nil)

// Set stores a value. ttl <= 0 stores it without expiry.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt int64
	if exp := tokenstore.ExpiryFor(ttl); !exp.IsZero() {
		expiresAt = exp.UnixMilli()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv (key, value, expires_at, updated_at) VALUES (?, ?, ?, ?)`,
		key, value, expiresAt, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Get returns the stored value, tokenstore.ErrTokenNotFound, or tokenstore.ErrTokenExpired.
func (s *Store) Get(ctx context.Context, key string) (*tokenstore.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		value     string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tokenstore.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	tok := &tokenstore.Token{Key: key, Value: value}
	if expiresAt > 0 {
		tok.ExpiresAt = time.UnixMilli(expiresAt)
	}
	if tok.IsExpired() {
		return nil, tokenstore.ErrTokenExpired
	}
	return tok, nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Cleanup removes expired rows and returns how many were deleted.
func (s *Store) Cleanup(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE expires_at > 0 AND expires_at < ?`,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up expired values: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.logger.Debug().Int64("removed", n).Msg("expired values removed")
	}
	return int(n), nil
}
