package tokenstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PersistsSessionKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, KeyToken, "jwt-abc", time.Hour))
	require.NoError(t, store.Set(ctx, KeyUser, `{"id":7}`, 0))
	require.NoError(t, store.Set(ctx, KeyTheme, "dark", 0))

	tok, err := store.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "jwt-abc", tok.Value)
	assert.False(t, tok.IsExpired())

	user, err := store.Get(ctx, KeyUser)
	require.NoError(t, err)
	assert.Equal(t, `{"id":7}`, user.Value)
	assert.True(t, user.ExpiresAt.IsZero())
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	_, err := NewMemoryStore().Get(context.Background(), KeyToken)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

// clocked returns a store whose clock only moves when advance is called.
func clocked() (*MemoryStore, func(time.Duration)) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }
	return store, func(d time.Duration) { now = now.Add(d) }
}

func TestMemoryStore_GetExpiredDropsEntry(t *testing.T) {
	ctx := context.Background()
	store, advance := clocked()

	require.NoError(t, store.Set(ctx, KeyToken, "val", time.Minute))
	advance(59 * time.Second)
	_, err := store.Get(ctx, KeyToken)
	require.NoError(t, err)

	advance(2 * time.Second)
	_, err = store.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Zero(t, store.Len())

	_, err = store.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestMemoryStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_ = store.Set(ctx, KeyUser, "val", 0)
	require.NoError(t, store.Delete(ctx, KeyUser))
	require.NoError(t, store.Delete(ctx, KeyUser))

	_, err := store.Get(ctx, KeyUser)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Set(ctx, KeyTheme, "light", 0)

	tok, err := store.Get(ctx, KeyTheme)
	require.NoError(t, err)
	tok.Value = "mutated"

	again, err := store.Get(ctx, KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "light", again.Value)
}

func TestToken_IsExpired(t *testing.T) {
	assert.True(t, (&Token{ExpiresAt: time.Now().Add(-time.Second)}).IsExpired())
	assert.False(t, (&Token{ExpiresAt: time.Now().Add(time.Hour)}).IsExpired())
	assert.False(t, (&Token{}).IsExpired())
}

func TestExpiryFor(t *testing.T) {
	assert.True(t, ExpiryFor(0).IsZero())
	assert.True(t, ExpiryFor(-time.Minute).IsZero())
	assert.WithinDuration(t, time.Now().Add(time.Hour), ExpiryFor(time.Hour), time.Second)
}

func TestMemoryStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	store, advance := clocked()

	_ = store.Set(ctx, KeyTheme, "dark", 0)
	_ = store.Set(ctx, KeyUser, "val", 5*time.Minute)
	_ = store.Set(ctx, KeyToken, "val", time.Second)
	advance(time.Minute)

	count, err := store.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 2, store.Len())

	_, err = store.Get(ctx, KeyTheme)
	assert.NoError(t, err)
	_, err = store.Get(ctx, KeyUser)
	assert.NoError(t, err)
}
