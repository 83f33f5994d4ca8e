// Package tokenstore persists the small set of client-side values that survive
// a restart: the bearer token, the cached user profile, and the theme.
package tokenstore

import (
	"context"
	"errors"
	"time"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")
)

// Persisted keys. No other key is written by the client.
const (
	KeyToken = "auth_token"
	KeyUser  = "auth_user"
	KeyTheme = "theme"
)

// Token is a stored value with metadata. A zero ExpiresAt never expires.
type Token struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired checks if the value has expired.
func (t Token) IsExpired() bool { return t.expiredAt(time.Now()) }

func (t Token) expiredAt(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// ExpiryFor converts a TTL into an absolute expiry; ttl <= 0 means never.
func ExpiryFor(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

// Store defines the persisted client-state interface.
type Store interface {
	// Set stores a value with the given key and TTL (<= 0 for no expiry).
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get retrieves a value by key. Returns ErrTokenNotFound or ErrTokenExpired.
	Get(ctx context.Context, key string) (*Token, error)
	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error
	// Cleanup removes all expired values.
	Cleanup(ctx context.Context) (int, error)
}
