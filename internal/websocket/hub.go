package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"ai-tutoring-sync/internal/pkg/logger"
	"ai-tutoring-sync/pkg/orchestration"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisChannel = "orchestration_frames"

// Hub fans orchestration frames out to the sockets watching each session.
// A session usually has one viewer, but nothing stops a second tab.
type Hub struct {
	// Registered clients map: SessionID -> list of attached sockets
	rooms map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Optional Redis connection for cross-instance delivery
	rdb *redis.Client

	// instance tags mirrored frames so we don't redeliver our own
	instance string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string][]*Client),
		rdb:        rdb,
		instance:   uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.rooms[client.SessionID] = append(h.rooms[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.SessionID]; ok {
				for i, c := range clients {
					if c == client {
						h.rooms[client.SessionID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.rooms[client.SessionID]) == 0 {
					delete(h.rooms, client.SessionID)
					h.logger.Info("Hub", "Session room emptied", map[string]interface{}{"session_id": client.SessionID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Push delivers one frame to every socket watching the session, and mirrors
// it to Redis so other instances can deliver to rooms they hold.
func (h *Hub) Push(sessionID string, frame orchestration.Frame) {
	data, err := frame.Encode()
	if err != nil {
		h.logger.Error("Hub", "Failed to encode frame", map[string]interface{}{"error": err.Error()})
		return
	}

	h.deliverLocal(sessionID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"origin":            h.instance,
			"target_session_id": sessionID,
			"frame":             json.RawMessage(data),
		})
		h.rdb.Publish(context.Background(), redisChannel, payload)
	}
}

func (h *Hub) deliverLocal(sessionID string, data []byte) {
	h.mu.RLock()
	clients := h.rooms[sessionID]
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"session_id": sessionID})
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

// subscribeToRedis replays frames published by sibling instances into the
// rooms this instance holds. Frames for unknown sessions are ignored.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			Origin          string          `json:"origin"`
			TargetSessionID string          `json:"target_session_id"`
			Frame           json.RawMessage `json:"frame"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis frame parse error: %v", err)
			continue
		}
		if payload.Origin == h.instance {
			continue
		}

		h.mu.RLock()
		_, local := h.rooms[payload.TargetSessionID]
		h.mu.RUnlock()
		if local {
			h.deliverLocal(payload.TargetSessionID, payload.Frame)
		}
	}
}
