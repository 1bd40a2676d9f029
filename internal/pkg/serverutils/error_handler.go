package serverutils

import (
	"errors"

	"ai-chat-session-be/internal/pkg/logger"
	"ai-chat-session-be/pkg/metering"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind metering.Kind) int {
	switch kind {
	case metering.Unauthorized:
		return fiber.StatusUnauthorized
	case metering.InvalidRequest:
		return fiber.StatusBadRequest
	case metering.NoActiveSession, metering.SessionExpired:
		return fiber.StatusForbidden
	case metering.QuotaExceeded, metering.UpstreamRateLimited:
		return fiber.StatusTooManyRequests
	case metering.UpstreamPaymentRequired:
		return fiber.StatusPaymentRequired
	default:
		return fiber.StatusInternalServerError
	}
}

// MeteringErrorBody is the caller-facing shape of a failed turn. Internal causes never leave here.
func MeteringErrorBody(e *metering.Error) fiber.Map {
	body := fiber.Map{
		"error":      e.Message,
		"error_type": e.Kind.String(),
	}
	if e.Kind == metering.QuotaExceeded {
		body["tokensUsed"] = e.Used
		body["tokenLimit"] = e.Limit
		body["show_modal_pricing"] = true
	}
	return body
}

// ErrorHandler is the fiber ErrorHandler. *metering.Error values get the taxonomy body,
// *fiber.Error keeps its code, anything else is a 500.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(ErrorResponse(fe.Code, fe.Message))
		}

		e := metering.AsError(err)
		status := StatusFor(e.Kind)
		if status >= fiber.StatusInternalServerError {
			details := map[string]interface{}{
				"path":       ctx.Path(),
				"error_type": e.Kind.String(),
				"error":      err.Error(),
			}
			if e.UpstreamStatus != 0 {
				details["upstream_status"] = e.UpstreamStatus
			}
			log.Error("HTTP", "Request failed", details)
		}
		return ctx.Status(status).JSON(MeteringErrorBody(e))
	}
}
