package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshkumar07/Collab-Board/internal/protocol"
)

func newTestLog(t *testing.T) (*RedisLog, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLog(client), mr
}

func TestAppendAndReadAllPreservesOrder(t *testing.T) {
	log, _ := newTestLog(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ev := protocol.Event{X2: float64(i), Color: "#000000", Size: 1}
		require.NoError(t, log.Append(ctx, "alpha", ev))
	}

	events, err := log.ReadAll(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, 1.0, events[0].X2)
	assert.Equal(t, 2.0, events[1].X2)
	assert.Equal(t, 3.0, events[2].X2)
}

func TestReadAllUnknownRoomIsEmpty(t *testing.T) {
	log, _ := newTestLog(t)

	events, err := log.ReadAll(context.Background(), "ghost")
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestReadAllSkipsUndecodableEntries(t *testing.T) {
	log, mr := newTestLog(t)
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, "alpha", protocol.Event{X2: 1, Color: "#fff", Size: 1}))
	_, err := mr.Push("room:alpha:events", "not-json")
	require.NoError(t, err)
	require.NoError(t, log.Append(ctx, "alpha", protocol.Event{X2: 2, Color: "#fff", Size: 1}))

	events, err := log.ReadAll(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 1.0, events[0].X2)
	assert.Equal(t, 2.0, events[1].X2)
}

func TestDeleteAll(t *testing.T) {
	log, mr := newTestLog(t)
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, "alpha", protocol.Event{Color: "#fff", Size: 1}))
	require.NoError(t, log.DeleteAll(ctx, "alpha"))

	assert.False(t, mr.Exists("room:alpha:events"))
	events, err := log.ReadAll(ctx, "alpha")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestArmExpiryDiscardsLogAfterTTL(t *testing.T) {
	log, mr := newTestLog(t)
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, "alpha", protocol.Event{Color: "#fff", Size: 1}))
	require.NoError(t, log.ArmExpiry(ctx, "alpha", 300*time.Second))

	assert.Equal(t, 300*time.Second, mr.TTL("room:alpha:events"))

	mr.FastForward(301 * time.Second)
	assert.False(t, mr.Exists("room:alpha:events"))

	events, err := log.ReadAll(ctx, "alpha")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDisarmExpiryKeepsLog(t *testing.T) {
	log, mr := newTestLog(t)
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, "alpha", protocol.Event{X2: 7, Color: "#fff", Size: 1}))
	require.NoError(t, log.ArmExpiry(ctx, "alpha", 300*time.Second))
	require.NoError(t, log.DisarmExpiry(ctx, "alpha"))

	mr.FastForward(301 * time.Second)

	events, err := log.ReadAll(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 7.0, events[0].X2)
}

func TestDisarmExpiryMissingKeyIsNoop(t *testing.T) {
	log, _ := newTestLog(t)
	assert.NoError(t, log.DisarmExpiry(context.Background(), "ghost"))
}
