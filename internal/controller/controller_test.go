package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-chat-session-be/internal/dto"
	"ai-chat-session-be/internal/pkg/logger"
	"ai-chat-session-be/internal/pkg/serverutils"
	"ai-chat-session-be/internal/repository/memory"
	"ai-chat-session-be/internal/service"
	"ai-chat-session-be/pkg/events"
	"ai-chat-session-be/pkg/identity"
	"ai-chat-session-be/pkg/metering"
	"ai-chat-session-be/pkg/metering/quota"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatService struct {
	gotUser uuid.UUID
	gotReq  *dto.ChatRequest
	res     *dto.ChatResponse
	err     error
}

func (f *fakeChatService) Send(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	f.gotUser, f.gotReq = userId, req
	return f.res, f.err
}

type testApp struct {
	app    *fiber.App
	token  string
	userId uuid.UUID
	chat   *fakeChatService
	store  *memory.Store
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log := logger.NewNopLogger()
	verifier := identity.NewVerifier("controller-secret", time.Hour)
	userId := uuid.New()
	token, _, err := verifier.Issue(userId)
	require.NoError(t, err)

	store := memory.NewStore()
	chat := &fakeChatService{}
	jwt := serverutils.JwtMiddleware(verifier)

	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler(log)})
	api := app.Group("/api")
	NewAuthController(service.NewAuthService(store, verifier, log)).RegisterRoutes(api)
	NewPlanController(service.NewPlanService(store)).RegisterRoutes(api)
	NewSessionController(service.NewSessionService(store, quota.NewResolver(0, log), events.NewSessionEvents(nil, log), log)).RegisterRoutes(api, jwt)
	NewConversationController(service.NewConversationService(store, log)).RegisterRoutes(api, jwt)
	NewChatController(chat).RegisterRoutes(api, jwt)

	return &testApp{app: app, token: token, userId: userId, chat: chat, store: store}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}, auth bool) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestChatSuccessShape(t *testing.T) {
	a := newTestApp(t)
	a.chat.res = &dto.ChatResponse{Message: "hi!", TokensUsed: 120, TokenLimit: 1000}
	sessionId := uuid.New()

	status, body := a.do(t, http.MethodPost, "/api/chat", map[string]interface{}{
		"sessionId": sessionId,
		"messages":  []map[string]string{{"role": "user", "content": "hello"}},
	}, true)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "hi!", body["message"])
	assert.EqualValues(t, 120, body["tokensUsed"])
	assert.EqualValues(t, 1000, body["tokenLimit"])
	assert.NotContains(t, body, "conversationId")
	assert.Equal(t, a.userId, a.chat.gotUser)
	assert.Equal(t, sessionId, a.chat.gotReq.SessionId)
}

func TestChatErrorMapping(t *testing.T) {
	quotaErr := metering.New(metering.QuotaExceeded, nil)
	quotaErr.Used, quotaErr.Limit = 1050, 1000

	tests := []struct {
		name      string
		err       error
		status    int
		errorType string
	}{
		{name: "no session", err: metering.New(metering.NoActiveSession, nil), status: 403, errorType: "no_active_session"},
		{name: "expired", err: metering.New(metering.SessionExpired, nil), status: 403, errorType: "session_expired"},
		{name: "quota", err: quotaErr, status: 429, errorType: "quota_exceeded"},
		{name: "rate limited", err: metering.New(metering.UpstreamRateLimited, nil), status: 429, errorType: "upstream_rate_limited"},
		{name: "payment", err: metering.New(metering.UpstreamPaymentRequired, nil), status: 402, errorType: "upstream_payment_required"},
		{name: "upstream", err: metering.New(metering.UpstreamError, nil), status: 500, errorType: "upstream_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t)
			a.chat.err = tt.err

			status, body := a.do(t, http.MethodPost, "/api/chat", map[string]interface{}{
				"sessionId": uuid.New(),
				"messages":  []map[string]string{{"role": "user", "content": "hello"}},
			}, true)

			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.errorType, body["error_type"])
			assert.NotEmpty(t, body["error"])
			if tt.errorType == "quota_exceeded" {
				assert.EqualValues(t, 1050, body["tokensUsed"])
				assert.EqualValues(t, 1000, body["tokenLimit"])
			}
		})
	}
}

func TestChatRejectsBeforeService(t *testing.T) {
	tests := []struct {
		name      string
		body      interface{}
		auth      bool
		status    int
		errorType string
	}{
		{name: "no credential", body: map[string]interface{}{"sessionId": uuid.New()}, auth: false, status: 401, errorType: "unauthorized"},
		{name: "no messages", body: map[string]interface{}{"sessionId": uuid.New()}, auth: true, status: 400, errorType: "invalid_request"},
		{name: "missing role", body: map[string]interface{}{
			"sessionId": uuid.New(),
			"messages":  []map[string]string{{"content": "hello"}},
		}, auth: true, status: 400, errorType: "invalid_request"},
		{name: "bad session id", body: map[string]interface{}{
			"sessionId": "not-a-uuid",
			"messages":  []map[string]string{{"role": "user", "content": "hello"}},
		}, auth: true, status: 400, errorType: "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t)
			status, body := a.do(t, http.MethodPost, "/api/chat", tt.body, tt.auth)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.errorType, body["error_type"])
			assert.Nil(t, a.chat.gotReq)
		})
	}
}

func TestSessionEndpoints(t *testing.T) {
	a := newTestApp(t)

	status, body := a.do(t, http.MethodGet, "/api/sessions/active", nil, true)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])

	status, _ = a.do(t, http.MethodPost, "/api/sessions", map[string]interface{}{"plan_id": "basic", "hours": 9}, true)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(t, http.MethodPost, "/api/sessions", map[string]interface{}{"plan_id": "gold", "hours": 1}, true)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = a.do(t, http.MethodPost, "/api/sessions", map[string]interface{}{"plan_id": "standard", "hours": 3}, true)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "google/gemini-2.5-flash", data["model_name"])
	assert.EqualValues(t, 60, data["price_paid"])

	status, body = a.do(t, http.MethodGet, "/api/sessions/active", nil, true)
	require.Equal(t, http.StatusOK, status)
	active := body["data"].(map[string]interface{})
	assert.Equal(t, data["id"], active["id"])
	assert.EqualValues(t, 0, active["token_limit"])

	status, body = a.do(t, http.MethodGet, "/api/sessions", nil, true)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = a.do(t, http.MethodGet, "/api/sessions", nil, false)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthAndPlans(t *testing.T) {
	a := newTestApp(t)

	status, _ := a.do(t, http.MethodPost, "/api/auth/register", map[string]string{"full_name": "Al", "email": "x", "password": "short"}, false)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(t, http.MethodPost, "/api/auth/register", map[string]string{"full_name": "Grace Hopper", "email": "grace@example.com", "password": "cobol-rules"}, false)
	require.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, http.MethodPost, "/api/auth/register", map[string]string{"full_name": "Grace Hopper", "email": "grace@example.com", "password": "cobol-rules"}, false)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = a.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "grace@example.com", "password": "nope"}, false)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := a.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "grace@example.com", "password": "cobol-rules"}, false)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["data"].(map[string]interface{})["access_token"])

	status, body = a.do(t, http.MethodGet, "/api/plans", nil, false)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 3)
}

func TestConversationEndpoints(t *testing.T) {
	a := newTestApp(t)

	status, body := a.do(t, http.MethodPost, "/api/sessions", map[string]interface{}{"plan_id": "basic", "hours": 1}, true)
	require.Equal(t, http.StatusOK, status)
	sessionId := body["data"].(map[string]interface{})["id"]

	status, body = a.do(t, http.MethodPost, "/api/conversations", map[string]interface{}{"session_id": sessionId, "first_message": "tell me about go"}, true)
	require.Equal(t, http.StatusOK, status)
	conv := body["data"].(map[string]interface{})
	assert.Equal(t, "tell me about go", conv["title"])

	status, body = a.do(t, http.MethodGet, "/api/conversations", nil, true)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = a.do(t, http.MethodGet, "/api/conversations/"+conv["id"].(string)+"/messages", nil, true)
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, http.MethodGet, "/api/conversations/"+uuid.NewString()+"/messages", nil, true)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = a.do(t, http.MethodGet, "/api/conversations/bogus/messages", nil, true)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(t, http.MethodDelete, "/api/conversations/"+conv["id"].(string), nil, true)
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, http.MethodDelete, "/api/conversations/"+conv["id"].(string), nil, true)
	assert.Equal(t, http.StatusNotFound, status)
}
