package controller

import (
	"errors"

	"ai-chat-session-be/internal/pkg/serverutils"
	"ai-chat-session-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// writeServiceError renders a service error in the envelope. Unrecognised errors
// are returned so the fiber ErrorHandler logs them and answers 500.
func writeServiceError(ctx *fiber.Ctx, err error) error {
	var status int
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		status = fiber.StatusUnauthorized
	case errors.Is(err, service.ErrEmailTaken):
		status = fiber.StatusConflict
	case errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrConversationNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrInvalidHours):
		status = fiber.StatusBadRequest
	default:
		return err
	}
	return ctx.Status(status).JSON(serverutils.ErrorResponse(status, err.Error()))
}

func badRequest(ctx *fiber.Ctx, message string) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, message))
}
