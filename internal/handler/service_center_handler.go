package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/onboarding-portal-api/internal/dto"
	"github.com/noah-isme/onboarding-portal-api/internal/service"
	"github.com/noah-isme/onboarding-portal-api/internal/utils"
)

// ServiceCenterHandler manages service centers.
type ServiceCenterHandler struct {
	service service.ServiceCenterService
	logger  zerolog.Logger
}

// NewServiceCenterHandler constructs the handler.
func NewServiceCenterHandler(service service.ServiceCenterService, logger zerolog.Logger) *ServiceCenterHandler {
	return &ServiceCenterHandler{
		service: service,
		logger:  logger.With().Str("component", "service_center_handler").Logger(),
	}
}

// Register attaches routes.
func (h *ServiceCenterHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
}

func (h *ServiceCenterHandler) list(c *fiber.Ctx) error {
	centers, err := h.service.List(requestContext(c), c.Query("search"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list service centers")
	}
	return utils.OK(c, centers, "service centers retrieved", nil)
}

func (h *ServiceCenterHandler) create(c *fiber.Ctx) error {
	var payload dto.ServiceCenterCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	center, err := h.service.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create service center")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "service center created", center)
}

func (h *ServiceCenterHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	center, err := h.service.Get(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch service center")
	}
	return utils.OK(c, center, "service center retrieved", nil)
}
