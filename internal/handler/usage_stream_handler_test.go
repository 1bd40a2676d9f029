package handler

import (
	"net/http/httptest"
	"testing"
	"time"

	"ai-chat-session-be/internal/pkg/logger"
	"ai-chat-session-be/internal/pkg/serverutils"
	internalWS "ai-chat-session-be/internal/websocket"
	"ai-chat-session-be/pkg/identity"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeWsHandshake(t *testing.T) {
	verifier := identity.NewVerifier("ws-secret", time.Hour)
	token, _, err := verifier.Issue(uuid.New())
	require.NoError(t, err)

	log := logger.NewNopLogger()
	h := NewUsageStreamHandler(internalWS.NewHub(nil, log), verifier, log)

	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler(log)})
	h.RegisterRoutes(app.Group("/api"))

	tests := []struct {
		name   string
		target string
		header string
		status int
	}{
		{name: "no token", target: "/api/ws/usage", status: fiber.StatusUnauthorized},
		{name: "bad token", target: "/api/ws/usage?token=garbage", status: fiber.StatusUnauthorized},
		{name: "query token without upgrade", target: "/api/ws/usage?token=" + token, status: fiber.StatusUpgradeRequired},
		{name: "header token without upgrade", target: "/api/ws/usage", header: "Bearer " + token, status: fiber.StatusUpgradeRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
