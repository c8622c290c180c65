package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedisStore connects to REDIS_TEST_URL, skipping when it is not set.
func newTestRedisStore(t *testing.T) *RedisSessionStore {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	store, err := NewRedisSessionStore(context.Background(), url, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	session := newTestSession()
	require.NoError(t, store.Save(ctx, session))
	t.Cleanup(func() { store.Delete(ctx, session.ID) })

	got, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Identifiers, got.Identifiers)

	require.NoError(t, store.Delete(ctx, session.ID))
	_, err = store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisUnlockKeepsLockTakenOverByAnotherRequest(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	id := NewSessionID()
	t.Cleanup(func() { store.client.Del(ctx, lockKey(id)) })

	staleUnlock, err := store.Lock(ctx, id)
	require.NoError(t, err)

	// The first holder outlives lockTTL and another request takes the lock.
	require.NoError(t, store.client.Del(ctx, lockKey(id)).Err())
	freshUnlock, err := store.Lock(ctx, id)
	require.NoError(t, err)

	staleUnlock()

	_, err = store.Lock(ctx, id)
	assert.ErrorIs(t, err, ErrSessionBusy)

	freshUnlock()

	again, err := store.Lock(ctx, id)
	require.NoError(t, err)
	again()
}
