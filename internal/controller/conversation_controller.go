package controller

import (
	"ai-chat-session-be/internal/dto"
	"ai-chat-session-be/internal/pkg/serverutils"
	"ai-chat-session-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IConversationController interface {
	RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler)
}

type conversationController struct {
	conversationService service.IConversationService
}

func NewConversationController(conversationService service.IConversationService) IConversationController {
	return &conversationController{conversationService: conversationService}
}

func (c *conversationController) RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler) {
	h := api.Group("/conversations", jwtMiddleware)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get("/:id/messages", c.Messages)
	h.Delete("/:id", c.Delete)
}

func (c *conversationController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateConversationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return badRequest(ctx, err.Error())
	}

	res, err := c.conversationService.Create(ctx.UserContext(), serverutils.CurrentUserID(ctx), &req)
	if err != nil {
		return writeServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Conversation created", res))
}

func (c *conversationController) List(ctx *fiber.Ctx) error {
	res, err := c.conversationService.List(ctx.UserContext(), serverutils.CurrentUserID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Conversations retrieved", res))
}

func (c *conversationController) Messages(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return badRequest(ctx, "Invalid conversation id")
	}

	res, err := c.conversationService.Messages(ctx.UserContext(), serverutils.CurrentUserID(ctx), id)
	if err != nil {
		return writeServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Messages retrieved", res))
}

func (c *conversationController) Delete(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return badRequest(ctx, "Invalid conversation id")
	}

	if err := c.conversationService.Delete(ctx.UserContext(), serverutils.CurrentUserID(ctx), id); err != nil {
		return writeServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Conversation deleted", nil))
}
