package controller

import (
	"ai-chat-session-be/internal/dto"
	"ai-chat-session-be/internal/pkg/serverutils"
	"ai-chat-session-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler)
}

type sessionController struct {
	sessionService service.ISessionService
}

func NewSessionController(sessionService service.ISessionService) ISessionController {
	return &sessionController{sessionService: sessionService}
}

func (c *sessionController) RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler) {
	h := api.Group("/sessions", jwtMiddleware)
	h.Post("", c.Purchase)
	h.Get("", c.List)
	h.Get("/active", c.Active)
}

// Purchase opens a new time-boxed session
// @Summary Purchase a session
// @Tags Sessions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.PurchaseSessionRequest true "Plan and hours"
// @Success 200 {object} dto.SessionResponse
// @Router /api/sessions [post]
func (c *sessionController) Purchase(ctx *fiber.Ctx) error {
	var req dto.PurchaseSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return badRequest(ctx, err.Error())
	}

	res, err := c.sessionService.Purchase(ctx.UserContext(), serverutils.CurrentUserID(ctx), &req)
	if err != nil {
		return writeServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Session purchased", res))
}

func (c *sessionController) List(ctx *fiber.Ctx) error {
	res, err := c.sessionService.List(ctx.UserContext(), serverutils.CurrentUserID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Sessions retrieved", res))
}

// Active returns the newest active session with its budget and time left, or 404.
func (c *sessionController) Active(ctx *fiber.Ctx) error {
	res, err := c.sessionService.Active(ctx.UserContext(), serverutils.CurrentUserID(ctx))
	if err != nil {
		return writeServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Active session retrieved", res))
}
