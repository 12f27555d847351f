package bot

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupSessionStore(t *testing.T, ttl time.Duration) (SessionStore, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionStore(client, ttl), server
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store, _ := setupSessionStore(t, time.Minute)
	ctx := context.Background()

	session := Session{Step: StepAwaitingCode, CourseID: 1, TaskID: 7}
	require.NoError(t, store.Put(ctx, 1001, session))

	loaded, err := store.Get(ctx, 1001)
	require.NoError(t, err)
	require.Equal(t, session, loaded)
}

func TestSessionStoreMissingChatYieldsIdle(t *testing.T) {
	store, _ := setupSessionStore(t, time.Minute)

	loaded, err := store.Get(context.Background(), 555)
	require.NoError(t, err)
	require.Equal(t, StepIdle, loaded.Step)
	require.Zero(t, loaded.TaskID)
}

func TestSessionStoreClear(t *testing.T) {
	store, _ := setupSessionStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1001, Session{Step: StepAwaitingText, TaskID: 5}))
	require.NoError(t, store.Clear(ctx, 1001))

	loaded, err := store.Get(ctx, 1001)
	require.NoError(t, err)
	require.Equal(t, StepIdle, loaded.Step)
}

func TestSessionStoreExpires(t *testing.T) {
	store, server := setupSessionStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1001, Session{Step: StepAwaitingCode, TaskID: 7}))
	server.FastForward(2 * time.Minute)

	loaded, err := store.Get(ctx, 1001)
	require.NoError(t, err)
	require.Equal(t, StepIdle, loaded.Step)
}

func TestSessionStoreCorruptPayloadTreatedAsIdle(t *testing.T) {
	store, server := setupSessionStore(t, time.Minute)

	require.NoError(t, server.Set(sessionKey(1001), "not-json"))

	loaded, err := store.Get(context.Background(), 1001)
	require.NoError(t, err)
	require.Equal(t, StepIdle, loaded.Step)
}
