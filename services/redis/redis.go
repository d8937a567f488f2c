package redis

import (
	redis_models "notropolis/models/redis"
	redis_utils "notropolis/services/redis/utils"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient handles Redis operations
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisClient creates a new Redis client instance. Addr is either a
// host:port pair or a full redis:// URL (managed providers hand out URLs).
func NewRedisClient(Addr string, DB int) *RedisClient {
	var client *redis.Client
	if strings.Contains(Addr, "://") {
		log.Println("Connecting to remote Redis...")
		opt, err := redis.ParseURL(Addr)
		if err != nil {
			panic("Error parsing Redis URL")
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: Addr,
			DB:   DB,
		})
	}
	return &RedisClient{
		client: client,
		ctx:    context.Background(),
	}
}

// SaveSession stores a session record in Redis
// Key format: "session:{id}"
// TTL: 24 hours
func (rc *RedisClient) SaveSession(session *redis_models.Session) error {
	key := redis_utils.FormatSessionKey(session.ID)
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("error marshaling session data: %v", err)
	}
	return rc.client.Set(rc.ctx, key, data, 24*time.Hour).Err()
}

// GetSession retrieves a session record from Redis
// Key format: "session:{id}"
func (rc *RedisClient) GetSession(sessionID string) (*redis_models.Session, error) {
	key := redis_utils.FormatSessionKey(sessionID)
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("error getting session data: %v", err)
	}

	var session redis_models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("error unmarshaling session data: %v", err)
	}
	return &session, nil
}

// DeleteSession removes a session record from Redis
func (rc *RedisClient) DeleteSession(sessionID string) error {
	key := redis_utils.FormatSessionKey(sessionID)
	if err := rc.client.Del(rc.ctx, key).Err(); err != nil {
		return fmt.Errorf("error deleting session data: %v", err)
	}
	return nil
}

// SaveBlackjackGame stores a blackjack hand state in Redis
// Key format: "blackjack:{session_id}"
// TTL: 1 hour (abandoned hands expire and forfeit the bet)
func (rc *RedisClient) SaveBlackjackGame(game *redis_models.BlackjackGame) error {
	key := redis_utils.FormatBlackjackKey(game.SessionID)
	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("error marshaling blackjack data: %v", err)
	}
	return rc.client.Set(rc.ctx, key, data, time.Hour).Err()
}

// GetBlackjackGame retrieves the session's blackjack hand from Redis
func (rc *RedisClient) GetBlackjackGame(sessionID string) (*redis_models.BlackjackGame, error) {
	key := redis_utils.FormatBlackjackKey(sessionID)
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("error getting blackjack data: %v", err)
	}

	var game redis_models.BlackjackGame
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, fmt.Errorf("error unmarshaling blackjack data: %v", err)
	}
	return &game, nil
}

// ClaimBlackjackSettlement atomically marks a game id as settled via SETNX.
// Exactly one caller per game id gets true, even when two requests loaded
// the hand before either persisted the settled state.
func (rc *RedisClient) ClaimBlackjackSettlement(gameID string) (bool, error) {
	key := redis_utils.FormatBlackjackSettledKey(gameID)
	claimed, err := rc.client.SetNX(rc.ctx, key, "1", time.Hour).Result()
	if err != nil {
		return false, fmt.Errorf("error claiming blackjack settlement: %v", err)
	}
	return claimed, nil
}

// ReleaseBlackjackSettlement gives a claim back after a failed settlement
// so the credit can be retried.
func (rc *RedisClient) ReleaseBlackjackSettlement(gameID string) error {
	key := redis_utils.FormatBlackjackSettledKey(gameID)
	if err := rc.client.Del(rc.ctx, key).Err(); err != nil {
		return fmt.Errorf("error releasing blackjack settlement: %v", err)
	}
	return nil
}

// DeleteBlackjackGame removes the session's blackjack hand from Redis
func (rc *RedisClient) DeleteBlackjackGame(sessionID string) error {
	key := redis_utils.FormatBlackjackKey(sessionID)
	if err := rc.client.Del(rc.ctx, key).Err(); err != nil {
		return fmt.Errorf("error deleting blackjack data: %v", err)
	}
	return nil
}

// SaveViewMode persists the user's last map view mode
// Key format: "viewmode:{username}", no TTL (UI preference)
func (rc *RedisClient) SaveViewMode(username string, mode redis_models.ViewMode) error {
	key := redis_utils.FormatViewModeKey(username)
	return rc.client.Set(rc.ctx, key, string(mode), 0).Err()
}

// GetViewMode retrieves the user's last map view mode.
// A missing key means the user never opened the map: "none".
func (rc *RedisClient) GetViewMode(username string) (redis_models.ViewMode, error) {
	key := redis_utils.FormatViewModeKey(username)
	val, err := rc.client.Get(rc.ctx, key).Result()
	if err == redis.Nil {
		return redis_models.ViewModeNone, nil
	}
	if err != nil {
		return redis_models.ViewModeNone, fmt.Errorf("error getting view mode: %v", err)
	}
	return redis_models.ViewMode(val), nil
}

// PublishViewMode broadcasts a view-mode transition on the user's channel
func (rc *RedisClient) PublishViewMode(event *redis_models.ViewModeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error marshaling view mode event: %v", err)
	}
	channel := redis_utils.FormatViewModeChannel(event.Username)
	return rc.client.Publish(rc.ctx, channel, data).Err()
}

// SubscribeViewMode subscribes to a user's view-mode channel
func (rc *RedisClient) SubscribeViewMode(username string) *redis.PubSub {
	channel := redis_utils.FormatViewModeChannel(username)
	return rc.client.Subscribe(rc.ctx, channel)
}

// SaveTwoFactorCode stores a pending 2FA code for a login attempt
// Key format: "2fa:{email}"
// TTL: 5 minutes
func (rc *RedisClient) SaveTwoFactorCode(email, code string) error {
	key := redis_utils.FormatTwoFactorKey(email)
	return rc.client.Set(rc.ctx, key, code, 5*time.Minute).Err()
}

// GetTwoFactorCode retrieves and deletes the pending 2FA code (single use)
func (rc *RedisClient) GetTwoFactorCode(email string) (string, error) {
	key := redis_utils.FormatTwoFactorKey(email)
	code, err := rc.client.GetDel(rc.ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("error getting 2FA code: %v", err)
	}
	return code, nil
}

// UpdateLeaderboard sets a company's net worth in the global leaderboard ZSET
func (rc *RedisClient) UpdateLeaderboard(companyName string, netWorth int64) error {
	return rc.client.ZAdd(rc.ctx, redis_utils.LeaderboardKey, redis.Z{
		Score:  float64(netWorth),
		Member: companyName,
	}).Err()
}

// TopCompanies returns the top n companies by net worth, richest first
func (rc *RedisClient) TopCompanies(n int64) ([]redis.Z, error) {
	res, err := rc.client.ZRevRangeWithScores(rc.ctx, redis_utils.LeaderboardKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("error reading leaderboard: %v", err)
	}
	return res, nil
}

// CleanupKeys removes the specified keys from Redis
func (rc *RedisClient) CleanupKeys(keys []string) error {
	for _, key := range keys {
		if err := rc.client.Del(rc.ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to cleanup Redis key %s: %v", key, err)
		}
	}
	return nil
}
