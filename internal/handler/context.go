package handler

import (
	"errors"

	"go-stockcount-ws/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Identity helpers reading what RequireAuth stashed in locals.

func getUserID(c *fiber.Ctx) uuid.UUID {
	if v, ok := c.Locals("user_id").(string); ok {
		if id, err := uuid.Parse(v); err == nil {
			return id
		}
	}
	return uuid.Nil
}

func getTenantID(c *fiber.Ctx) uuid.UUID {
	if v, ok := c.Locals("tenant_id").(string); ok {
		if id, err := uuid.Parse(v); err == nil {
			return id
		}
	}
	return uuid.Nil
}

func getUserName(c *fiber.Ctx) string {
	if v, ok := c.Locals("user_name").(string); ok {
		return v
	}
	return "Unknown"
}

func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// respondError maps the error taxonomy onto HTTP responses. Conflicts
// attach the conflicting resource so the caller can offer resolution;
// invalid state names the disallowed transition.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		body := fiber.Map{"error": appErr.Message, "kind": appErr.Kind.String()}
		if appErr.Resource != nil {
			body["conflict"] = appErr.Resource
		}
		if appErr.Current != "" {
			body["current_state"] = appErr.Current
			body["attempted"] = appErr.Attempted
		}
		return c.Status(apperr.HTTPStatus(err)).JSON(body)
	}
	return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
}
