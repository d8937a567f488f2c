package viewmode

import (
	"encoding/json"
	"log"
	"net/http"

	redis_models "notropolis/models/redis"
	"notropolis/services/redis"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Auth happens on the bearer token before the upgrade; origins are
	// already filtered by the CORS layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeSubscriber upgrades the request to a websocket and forwards the
// user's view-mode events until the client goes away. The connection is the
// subscriber lifecycle: closing it unsubscribes from Redis.
func ServeSubscriber(w http.ResponseWriter, r *http.Request, redisClient *redis.RedisClient, username string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("view mode ws upgrade failed: %v", err)
		return
	}

	pubsub := redisClient.SubscribeViewMode(username)

	// Drain client frames so pings and close frames are processed.
	go func() {
		defer pubsub.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Send the persisted mode first so a late subscriber starts consistent.
	if mode, err := redisClient.GetViewMode(username); err == nil {
		writeEvent(conn, &redis_models.ViewModeEvent{Username: username, Mode: mode})
	}

	for msg := range pubsub.Channel() {
		var event redis_models.ViewModeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Printf("bad view mode event payload: %v", err)
			continue
		}
		if err := writeEvent(conn, &event); err != nil {
			break
		}
	}
	conn.Close()
}

func writeEvent(conn *websocket.Conn, event *redis_models.ViewModeEvent) error {
	return conn.WriteJSON(event)
}
