package controller

import (
	"ai-chat-session-be/internal/dto"
	"ai-chat-session-be/internal/pkg/serverutils"
	"ai-chat-session-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
}

type authController struct {
	service service.IAuthService
}

func NewAuthController(service service.IAuthService) IAuthController {
	return &authController{service: service}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/register", c.Register)
	h.Post("/login", c.Login)
}

func (c *authController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return badRequest(ctx, err.Error())
	}

	res, err := c.service.Register(ctx.UserContext(), &req)
	if err != nil {
		return writeServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("User registered successfully", res))
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return badRequest(ctx, err.Error())
	}

	res, err := c.service.Login(ctx.UserContext(), &req)
	if err != nil {
		return writeServiceError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Login successful", res))
}
