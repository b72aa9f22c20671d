package handler

import (
	"go-stockcount-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SyncHandler struct {
	service service.SyncService
}

func NewSyncHandler(s service.SyncService) *SyncHandler {
	return &SyncHandler{service: s}
}

type syncBatchRequest struct {
	Events []service.SyncEvent `json:"events"`
}

// SyncBatch accepts a batch of offline-captured events and reports
// per-event outcomes. The batch itself always succeeds; rejections ride
// in the response body.
// POST /api/v1/sync/batch
func (h *SyncHandler) SyncBatch(c *fiber.Ctx) error {
	var req syncBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if len(req.Events) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "events is required"})
	}

	result, err := h.service.ProcessBatch(c.Context(), getTenantID(c), getUserID(c), req.Events)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
