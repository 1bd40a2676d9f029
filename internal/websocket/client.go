package websocket

import (
	"encoding/json"
	"time"

	"ai-chat-session-be/internal/constant"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Client is one usage stream connection of a user.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	UserID uuid.UUID

	// Send carries encoded frames; the hub closes it on unregister.
	Send chan []byte
}

// ServeWs registers the connection and blocks until it closes.
func ServeWs(hub *Hub, conn *websocket.Conn, userID uuid.UUID) {
	client := &Client{Hub: hub, Conn: conn, UserID: userID, Send: make(chan []byte, sendBuffer)}
	hub.register <- client

	go client.writePump()
	client.readPump()
}

// replyTo answers an inbound frame. Browsers cannot send protocol pings, so
// {"type":"ping"} gets {"type":"pong"}; anything else is ignored.
func replyTo(frame []byte) []byte {
	var msg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(frame, &msg); err != nil || msg.Type != constant.WsMessageTypePing {
		return nil
	}
	pong, _ := json.Marshal(map[string]string{"type": constant.WsMessageTypePong})
	return pong
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				})
			}
			return
		}

		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		if reply := replyTo(frame); reply != nil {
			select {
			case c.Send <- reply:
			default:
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// One frame per update; clients parse each frame as a JSON object.
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Hub.logger.Warn("Client", "Ping failed", map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				})
				return
			}
		}
	}
}
