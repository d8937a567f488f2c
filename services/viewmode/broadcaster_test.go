package viewmode

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	redis_models "notropolis/models/redis"
	"notropolis/services/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBroadcaster(t *testing.T) (*Broadcaster, *redis.RedisClient) {
	mr := miniredis.RunT(t)
	rc, err := redis.InitRedis(mr.Addr(), 0)
	require.NoError(t, err)
	t.Cleanup(func() { redis.CloseRedis(rc) })
	return NewBroadcaster(rc), rc
}

func TestBroadcasterCurrent(t *testing.T) {
	b, _ := testBroadcaster(t)

	mode, err := b.Current("alice")
	require.NoError(t, err)
	assert.Equal(t, redis_models.ViewModeNone, mode)
}

func TestBroadcasterSet(t *testing.T) {
	b, rc := testBroadcaster(t)

	pubsub := rc.SubscribeViewMode("alice")
	defer pubsub.Close()
	// force the subscription before publishing
	_, err := pubsub.Receive(context.Background())
	require.NoError(t, err)

	require.NoError(t, b.Set("alice", redis_models.ViewModeOverview))

	// persisted first
	mode, err := b.Current("alice")
	require.NoError(t, err)
	assert.Equal(t, redis_models.ViewModeOverview, mode)

	// then published
	select {
	case msg := <-pubsub.Channel():
		var event redis_models.ViewModeEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, "alice", event.Username)
		assert.Equal(t, redis_models.ViewModeOverview, event.Mode)
	case <-time.After(2 * time.Second):
		t.Fatal("no view mode event published")
	}
}

func TestBroadcasterSetInvalid(t *testing.T) {
	b, _ := testBroadcaster(t)

	assert.ErrorIs(t, b.Set("alice", redis_models.ViewMode("sideways")), ErrInvalidMode)

	mode, err := b.Current("alice")
	require.NoError(t, err)
	assert.Equal(t, redis_models.ViewModeNone, mode, "a rejected transition must not persist")
}

func TestBroadcasterReset(t *testing.T) {
	b, _ := testBroadcaster(t)

	require.NoError(t, b.Set("alice", redis_models.ViewModeZoomed))
	b.Reset("alice")

	mode, err := b.Current("alice")
	require.NoError(t, err)
	assert.Equal(t, redis_models.ViewModeNone, mode, "disconnect must leave the terminal mode")
}
