package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/onboarding-portal-api/internal/dto"
	"github.com/noah-isme/onboarding-portal-api/internal/service"
	"github.com/noah-isme/onboarding-portal-api/internal/utils"
)

// ActivityHandler exposes the audit log.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/export", h.export)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	req, err := activityRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.List(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list activity")
	}

	meta := fiber.Map{
		"pagination": result.Pagination,
		"filters": fiber.Map{
			"search":     req.Search,
			"action":     req.Action,
			"actor_role": req.ActorRole,
			"client_id":  req.ClientID,
			"date":       req.Date,
		},
	}
	return utils.OK(c, result.Items, "activity retrieved", meta)
}

func (h *ActivityHandler) export(c *fiber.Ctx) error {
	req, err := activityRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	export, err := h.service.Export(requestContext(c), req, c.Query("format"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to export activity")
	}

	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.FileName))
	return c.Status(fiber.StatusOK).Send(export.Body)
}

func activityRequest(c *fiber.Ctx) (dto.ActivityListRequest, error) {
	page, pageSize, err := parsePaging(c)
	if err != nil {
		return dto.ActivityListRequest{}, err
	}
	clientID, err := parseQueryUint(c, "client_id")
	if err != nil {
		return dto.ActivityListRequest{}, errors.New("invalid client id")
	}

	return dto.ActivityListRequest{
		Page:      page,
		PageSize:  pageSize,
		Search:    c.Query("search"),
		Action:    c.Query("action"),
		ActorRole: c.Query("actor_role"),
		ClientID:  clientID,
		Date:      c.Query("date"),
	}, nil
}
