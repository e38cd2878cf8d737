package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/onboarding-portal-api/internal/dto"
	"github.com/noah-isme/onboarding-portal-api/internal/service"
	"github.com/noah-isme/onboarding-portal-api/internal/utils"
)

// PortalHandler serves the client-facing onboarding portal. The client id always comes from the token.
type PortalHandler struct {
	dashboard service.DashboardService
	clients   service.ClientService
	documents service.DocumentService
	logger    zerolog.Logger
}

// NewPortalHandler constructs the handler.
func NewPortalHandler(dashboard service.DashboardService, clients service.ClientService, documents service.DocumentService, logger zerolog.Logger) *PortalHandler {
	return &PortalHandler{
		dashboard: dashboard,
		clients:   clients,
		documents: documents,
		logger:    logger.With().Str("component", "portal_handler").Logger(),
	}
}

// Register attaches portal routes.
func (h *PortalHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.getDashboard)
	router.Get("/profile", h.profile)
	router.Patch("/profile", h.updateProfile)
	router.Get("/tasks", h.tasks)
	router.Get("/documents", h.listDocuments)
	router.Post("/tasks/:taskId/upload", h.upload)
}

func (h *PortalHandler) clientID(c *fiber.Ctx) (uint, bool) {
	id := localUint(c, "client_id")
	if id == nil {
		return 0, false
	}
	return *id, true
}

func (h *PortalHandler) getDashboard(c *fiber.Ctx) error {
	dashboard, err := h.dashboard.ClientDashboard(requestContext(c), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load dashboard")
	}
	return utils.OK(c, dashboard, "dashboard retrieved", nil)
}

func (h *PortalHandler) profile(c *fiber.Ctx) error {
	clientID, ok := h.clientID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusForbidden, "client account required")
	}

	client, err := h.clients.Get(requestContext(c), actorFromContext(c), clientID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load profile")
	}
	return utils.OK(c, client, "profile retrieved", nil)
}

func (h *PortalHandler) updateProfile(c *fiber.Ctx) error {
	clientID, ok := h.clientID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusForbidden, "client account required")
	}

	var payload dto.ClientUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	client, err := h.clients.UpdateProfile(requestContext(c), actorFromContext(c), clientID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update profile")
	}
	return utils.OK(c, client, "profile updated", nil)
}

func (h *PortalHandler) tasks(c *fiber.Ctx) error {
	clientID, ok := h.clientID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusForbidden, "client account required")
	}

	tasks, err := h.clients.ListTasks(requestContext(c), actorFromContext(c), clientID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list onboarding tasks")
	}
	return utils.OK(c, tasks, "onboarding tasks retrieved", nil)
}

func (h *PortalHandler) listDocuments(c *fiber.Ctx) error {
	clientID, ok := h.clientID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusForbidden, "client account required")
	}
	return listDocuments(c, h.documents, h.logger, actorFromContext(c), clientID)
}

func (h *PortalHandler) upload(c *fiber.Ctx) error {
	clientID, ok := h.clientID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusForbidden, "client account required")
	}
	return uploadDocument(c, h.documents, h.logger, clientID)
}
