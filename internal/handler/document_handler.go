package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/onboarding-portal-api/internal/dto"
	"github.com/noah-isme/onboarding-portal-api/internal/service"
	"github.com/noah-isme/onboarding-portal-api/internal/utils"
)

// DocumentHandler exposes the review queue to staff.
type DocumentHandler struct {
	documents service.DocumentService
	logger    zerolog.Logger
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(documents service.DocumentService, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		logger:    logger.With().Str("component", "document_handler").Logger(),
	}
}

// Register attaches document routes.
func (h *DocumentHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Patch("/:id/status", h.updateStatus)
}

func (h *DocumentHandler) list(c *fiber.Ctx) error {
	clientID, err := parseQueryUint(c, "client_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid client id")
	}
	return listDocuments(c, h.documents, h.logger, actorFromContext(c), clientID)
}

func (h *DocumentHandler) updateStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DocumentStatusUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.documents.UpdateStatus(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update document status")
	}

	message := "document status updated"
	if !result.Changed {
		message = "document status unchanged"
	}
	return utils.OK(c, result, message, nil)
}

func listDocuments(c *fiber.Ctx, documents service.DocumentService, logger zerolog.Logger, actor service.Actor, clientID uint) error {
	page, pageSize, err := parsePaging(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	req := dto.DocumentListRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Type:     c.Query("type"),
		ClientID: clientID,
	}

	result, err := documents.List(requestContext(c), actor, req)
	if err != nil {
		return respondError(c, logger, err, "failed to list documents")
	}

	return utils.OK(c, result.Items, "documents retrieved", fiber.Map{"pagination": result.Pagination})
}

func uploadDocument(c *fiber.Ctx, documents service.DocumentService, logger zerolog.Logger, clientID uint) error {
	taskID, err := parseUintParam(c, "taskId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, service.ErrUploadMissing.Error())
	}

	key := strings.TrimSpace(c.Get("Idempotency-Key"))
	result, err := documents.Upload(requestContext(c), actorFromContext(c), clientID, taskID, file, key)
	if err != nil {
		return respondError(c, logger, err, "upload failed")
	}

	if result.Replayed {
		return utils.OK(c, result, "upload already processed", nil)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "document uploaded", result)
}
