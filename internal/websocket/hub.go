package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-chat-session-be/internal/constant"
	"ai-chat-session-be/internal/dto"
	"ai-chat-session-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub keeps the usage stream connections of this instance and fans usage
// updates out to other instances over redis.
type Hub struct {
	// Registered clients map: UserID -> List of Clients (multi-device)
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Optional. Without redis only local clients are reached.
	rdb *redis.Client

	logger logger.ILogger
}

type clusterMessage struct {
	Origin       string          `json:"origin"`
	TargetUserID string          `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

// instanceId lets an instance skip its own redis echoes; local clients were already served.
var instanceId = uuid.NewString()

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"user_id": client.UserID})
				}
			}
			h.mu.Unlock()
		}
	}
}

func encodeUsage(event dto.UsageEvent) []byte {
	data, _ := json.Marshal(map[string]interface{}{
		"type": constant.WsMessageTypeUsage,
		"data": event,
	})
	return data
}

// NotifyUsage pushes the post-turn usage to every connection of the session owner.
func (h *Hub) NotifyUsage(ctx context.Context, event dto.UsageEvent) {
	data := encodeUsage(event)
	h.deliverLocal(event.UserId, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{
			Origin:       instanceId,
			TargetUserID: event.UserId.String(),
			Message:      data,
		})
		if err := h.rdb.Publish(ctx, constant.UsageEventsChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to publish usage event to redis", map[string]interface{}{
				"user_id": event.UserId,
				"error":   err.Error(),
			})
		}
	}
}

// deliverLocal never blocks: a client whose buffer is full misses this update
// and catches up on the next one.
func (h *Hub) deliverLocal(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[userID] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping message", map[string]interface{}{"user_id": userID})
		}
	}
}

// ConnectedClients reports how many connections a user has on this instance.
func (h *Hub) ConnectedClients(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, constant.UsageEventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleClusterMessage([]byte(msg.Payload))
		}
	}
}

func (h *Hub) handleClusterMessage(raw []byte) {
	var payload clusterMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
		return
	}
	if payload.Origin == instanceId {
		return
	}

	uid, err := uuid.Parse(payload.TargetUserID)
	if err != nil {
		return
	}
	h.deliverLocal(uid, payload.Message)
}
