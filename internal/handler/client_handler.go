package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/onboarding-portal-api/internal/dto"
	"github.com/noah-isme/onboarding-portal-api/internal/service"
	"github.com/noah-isme/onboarding-portal-api/internal/utils"
)

// ClientHandler exposes client records to staff.
type ClientHandler struct {
	clients   service.ClientService
	documents service.DocumentService
	activity  service.ActivityService
	logger    zerolog.Logger
}

// NewClientHandler constructs the handler.
func NewClientHandler(clients service.ClientService, documents service.DocumentService, activity service.ActivityService, logger zerolog.Logger) *ClientHandler {
	return &ClientHandler{
		clients:   clients,
		documents: documents,
		activity:  activity,
		logger:    logger.With().Str("component", "client_handler").Logger(),
	}
}

// Register attaches the read routes shared by admins and service-center reviewers.
func (h *ClientHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
}

// RegisterAdmin attaches the full admin client surface.
func (h *ClientHandler) RegisterAdmin(router fiber.Router) {
	h.Register(router)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Get("/:id/tasks", h.tasks)
	router.Get("/:id/documents", h.listDocuments)
	router.Post("/:id/tasks/:taskId/upload", h.upload)
	router.Put("/:id/service-center", h.reassign)
	router.Get("/:id/activity", h.listActivity)
}

func (h *ClientHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := parsePaging(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	centerID, err := parseQueryUint(c, "service_center_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid service center id")
	}

	req := dto.ClientListRequest{
		Page:            page,
		PageSize:        pageSize,
		Search:          c.Query("search"),
		Status:          c.Query("status"),
		Stage:           c.Query("stage"),
		ServiceCenterID: centerID,
		Sort:            c.Query("sort"),
	}

	result, err := h.clients.List(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list clients")
	}

	meta := fiber.Map{
		"pagination": result.Pagination,
		"filters": fiber.Map{
			"search":            req.Search,
			"status":            req.Status,
			"stage":             req.Stage,
			"service_center_id": req.ServiceCenterID,
			"sort":              req.Sort,
		},
	}

	return utils.OK(c, result.Items, "clients retrieved", meta)
}

func (h *ClientHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	client, err := h.clients.Get(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch client")
	}

	return utils.OK(c, client, "client retrieved", nil)
}

func (h *ClientHandler) create(c *fiber.Ctx) error {
	var payload dto.ClientCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	client, err := h.clients.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create client")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "client created", client)
}

func (h *ClientHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ClientUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	client, err := h.clients.UpdateProfile(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update client")
	}

	return utils.OK(c, client, "client updated", nil)
}

func (h *ClientHandler) tasks(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	tasks, err := h.clients.ListTasks(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list onboarding tasks")
	}

	return utils.OK(c, tasks, "onboarding tasks retrieved", nil)
}

func (h *ClientHandler) listDocuments(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor := actorFromContext(c)
	if _, err := h.clients.Get(requestContext(c), actor, id); err != nil {
		return respondError(c, h.logger, err, "failed to fetch client")
	}

	return listDocuments(c, h.documents, h.logger, actor, id)
}

func (h *ClientHandler) upload(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	return uploadDocument(c, h.documents, h.logger, id)
}

func (h *ClientHandler) reassign(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReassignServiceCenterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	client, err := h.clients.ReassignServiceCenter(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to reassign service center")
	}

	return utils.OK(c, client, "service center updated", nil)
}

func (h *ClientHandler) listActivity(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if _, err := h.clients.Get(requestContext(c), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to fetch client")
	}

	req, err := activityRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	req.ClientID = id

	result, err := h.activity.List(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list activity")
	}

	return utils.OK(c, result.Items, "activity retrieved", fiber.Map{"pagination": result.Pagination})
}
