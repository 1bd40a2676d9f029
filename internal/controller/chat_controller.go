package controller

import (
	"ai-chat-session-be/internal/dto"
	"ai-chat-session-be/internal/pkg/serverutils"
	"ai-chat-session-be/internal/service"
	"ai-chat-session-be/pkg/metering"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler)
	Send(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{chatService: chatService}
}

func (c *chatController) RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler) {
	api.Post("/chat", jwtMiddleware, c.Send)
}

// Send runs one metered chat turn. Failures are *metering.Error values and are
// rendered as {error, error_type} by serverutils.ErrorHandler.
// @Summary Send a chat turn
// @Tags Chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Transcript and session"
// @Success 200 {object} dto.ChatResponse
// @Router /api/chat [post]
func (c *chatController) Send(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return metering.New(metering.InvalidRequest, err)
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return metering.New(metering.InvalidRequest, err)
	}

	res, err := c.chatService.Send(ctx.UserContext(), serverutils.CurrentUserID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
