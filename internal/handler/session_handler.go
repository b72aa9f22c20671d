package handler

import (
	"go-stockcount-ws/internal/model"
	"go-stockcount-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SessionHandler struct {
	service service.SessionService
}

func NewSessionHandler(s service.SessionService) *SessionHandler {
	return &SessionHandler{service: s}
}

type createSessionRequest struct {
	LocationID string `json:"location_id"`
}

// CreateSession starts a counting pass over a location.
// POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	locationID, err := parseUUID(req.LocationID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid location ID"})
	}

	session, err := h.service.Create(getTenantID(c), locationID, getUserID(c), getUserName(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Count session started", "data": session})
}

// GetSessions lists sessions, optionally filtered by ?status=.
// GET /api/v1/sessions
func (h *SessionHandler) GetSessions(c *fiber.Ctx) error {
	status := model.SessionStatus(c.Query("status"))
	sessions, err := h.service.List(getTenantID(c), status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sessions)
}

// GetSession returns one session.
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid session ID"})
	}
	session, err := h.service.Get(getTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(session)
}

// GetProgress returns the progress accounting for a session.
// GET /api/v1/sessions/:id/progress
func (h *SessionHandler) GetProgress(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid session ID"})
	}
	progress, err := h.service.Progress(getTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(progress)
}

type transitionRequest struct {
	Action string `json:"action"`
}

// Transition pauses, resumes or commits a session.
// POST /api/v1/sessions/:id/transition
func (h *SessionHandler) Transition(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	var req transitionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	session, err := h.service.Transition(getTenantID(c), id, model.SessionAction(req.Action), getUserID(c).String())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Session " + string(session.Status), "data": session})
}
