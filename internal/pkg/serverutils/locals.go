package serverutils

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UserIdFromCtx reads the user id the JWT middleware stored in Locals.
func UserIdFromCtx(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw := ctx.Locals("user_id")
	s, ok := raw.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing user_id in request context")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user_id in request context: %w", err)
	}
	return id, nil
}
