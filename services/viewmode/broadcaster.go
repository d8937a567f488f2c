package viewmode

import (
	"errors"
	"log"

	redis_models "notropolis/models/redis"
	"notropolis/services/redis"
)

// Broadcaster persists and publishes map view-mode transitions. Every
// transition does both: the persisted mode lets a reload resume, the
// published event lets structurally unrelated components (the dashboard
// sidebar) react without polling.

var ErrInvalidMode = errors.New("invalid view mode")

type Broadcaster struct {
	redisClient *redis.RedisClient
}

func NewBroadcaster(redisClient *redis.RedisClient) *Broadcaster {
	return &Broadcaster{redisClient: redisClient}
}

// Current returns the user's persisted view mode, "none" if never set.
func (b *Broadcaster) Current(username string) (redis_models.ViewMode, error) {
	return b.redisClient.GetViewMode(username)
}

// Set validates the transition, persists the new mode and publishes the
// event. Persisting first keeps a reload consistent even if a subscriber
// misses the event.
func (b *Broadcaster) Set(username string, mode redis_models.ViewMode) error {
	if !mode.Valid() {
		return ErrInvalidMode
	}
	if err := b.redisClient.SaveViewMode(username, mode); err != nil {
		return err
	}
	return b.redisClient.PublishViewMode(&redis_models.ViewModeEvent{
		Username: username,
		Mode:     mode,
	})
}

// Reset is the cleanup obligation: the map page went away, so subscribers
// must see the terminal "none" no matter how the page was left. Errors are
// logged only; cleanup must not fail the disconnect path.
func (b *Broadcaster) Reset(username string) {
	if err := b.Set(username, redis_models.ViewModeNone); err != nil {
		log.Printf("view mode reset failed for %s: %v", username, err)
	}
}
