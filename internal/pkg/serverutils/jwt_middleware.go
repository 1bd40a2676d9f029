package serverutils

import (
	"strings"

	"ai-chat-session-be/pkg/identity"
	"ai-chat-session-be/pkg/metering"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userIdKey = "user_id"

// JwtMiddleware verifies the bearer token and stores the caller id in Locals.
// Failures are returned as Unauthorized metering errors so the error handler renders them.
func JwtMiddleware(verifier *identity.Verifier) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return metering.New(metering.Unauthorized, nil)
		}

		userId, err := verifier.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			return metering.New(metering.Unauthorized, err)
		}

		ctx.Locals(userIdKey, userId)
		return ctx.Next()
	}
}

// CurrentUserID returns the caller set by JwtMiddleware, or uuid.Nil.
func CurrentUserID(ctx *fiber.Ctx) uuid.UUID {
	userId, ok := ctx.Locals(userIdKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userId
}
