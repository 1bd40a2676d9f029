package handler

import (
	"strings"

	"ai-chat-session-be/internal/pkg/logger"
	internalWS "ai-chat-session-be/internal/websocket"
	"ai-chat-session-be/pkg/identity"
	"ai-chat-session-be/pkg/metering"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// UsageStreamHandler upgrades authenticated callers to the usage websocket.
type UsageStreamHandler struct {
	hub      *internalWS.Hub
	verifier *identity.Verifier
	logger   logger.ILogger
}

func NewUsageStreamHandler(hub *internalWS.Hub, verifier *identity.Verifier, log logger.ILogger) *UsageStreamHandler {
	return &UsageStreamHandler{
		hub:      hub,
		verifier: verifier,
		logger:   log,
	}
}

func (h *UsageStreamHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws/usage", h.ServeWs)
}

// ServeWs authenticates before the upgrade. Browsers cannot set headers on a
// websocket handshake, so the token query param takes priority.
func (h *UsageStreamHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		tokenStr = strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
	}
	if tokenStr == "" {
		return metering.New(metering.Unauthorized, nil)
	}

	userID, err := h.verifier.Verify(tokenStr)
	if err != nil {
		h.logger.Warn("UsageStream", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return metering.New(metering.Unauthorized, err)
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("UsageStream", "Starting WebSocket session", map[string]interface{}{"user_id": userID})
		internalWS.ServeWs(h.hub, conn, userID)
		h.logger.Info("UsageStream", "WebSocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}
