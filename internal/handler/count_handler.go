package handler

import (
	"go-stockcount-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CountHandler struct {
	service service.SessionService
}

func NewCountHandler(s service.SessionService) *CountHandler {
	return &CountHandler{service: s}
}

// SubmitCount accepts one measurement. The response always carries the
// anomaly findings and verdict; the record is present only when the count
// was persisted.
// POST /api/v1/counts
func (h *CountHandler) SubmitCount(c *fiber.Ctx) error {
	var req service.RecordCountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.service.RecordCount(getTenantID(c), getUserID(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	status := 201
	if result.Record == nil {
		// Blocked by the detector: nothing was written.
		status = 200
	}
	return c.Status(status).JSON(result)
}
