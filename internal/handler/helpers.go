package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/onboarding-portal-api/internal/middleware"
	"github.com/noah-isme/onboarding-portal-api/internal/models"
	"github.com/noah-isme/onboarding-portal-api/internal/service"
	"github.com/noah-isme/onboarding-portal-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseQueryUint(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

// parsePaging reads page and pageSize, accepting page_size as a fallback spelling.
func parsePaging(c *fiber.Ctx) (int, int, error) {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return 0, 0, errors.New("invalid page")
	}
	pageSize, err := parseQueryInt(c, "pageSize")
	if err != nil {
		return 0, 0, errors.New("invalid page size")
	}
	if pageSize == 0 {
		if legacy, legacyErr := parseQueryInt(c, "page_size"); legacyErr == nil {
			pageSize = legacy
		}
	}
	return page, pageSize, nil
}

func localUint(c *fiber.Ctx, key string) *uint {
	switch v := c.Locals(key).(type) {
	case uint:
		if v == 0 {
			return nil
		}
		id := v
		return &id
	case int:
		if v <= 0 {
			return nil
		}
		id := uint(v)
		return &id
	default:
		return nil
	}
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	actor := service.Actor{
		ServiceCenterID: localUint(c, "service_center_id"),
		ClientID:        localUint(c, "client_id"),
	}
	if id := localUint(c, "user_id"); id != nil {
		actor.ID = *id
	}
	if role, ok := c.Locals("user_role").(string); ok {
		actor.Role = role
	}
	if name, ok := c.Locals("user_name").(string); ok {
		actor.Name = name
	}
	return actor
}

// recipientFor maps the caller to the notification recipient key it reads from.
func recipientFor(actor service.Actor) string {
	switch actor.NormalizedRole() {
	case models.RoleServiceCenter:
		if actor.ServiceCenterID != nil {
			return service.ServiceCenterRecipient(*actor.ServiceCenterID)
		}
	case models.RoleClient:
		if actor.ClientID != nil {
			return service.ClientRecipient(*actor.ClientID)
		}
	}
	return ""
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[toSnakeCase(fieldErr.Field())] = fieldErr.Tag()
	}
	return details
}

func toSnakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				prev := rune(name[i-1])
				if prev < 'A' || prev > 'Z' {
					b.WriteByte('_')
				}
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// respondError maps service sentinels onto HTTP statuses. Anything unrecognised is logged and hidden.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	case errors.Is(err, service.ErrClientNotFound),
		errors.Is(err, service.ErrServiceCenterNotFound),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, service.ErrNotificationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrServiceCenterExists),
		errors.Is(err, service.ErrSameServiceCenter),
		errors.Is(err, service.ErrStatusConflict),
		errors.Is(err, service.ErrUploadNotAllowed),
		errors.Is(err, service.ErrIdempotencyKeyReused),
		errors.Is(err, service.ErrClientBusy):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrRejectionReasonRequired),
		errors.Is(err, service.ErrUploadMissing),
		errors.Is(err, service.ErrUploadTypeNotAllowed),
		errors.Is(err, service.ErrUploadScanFailed),
		errors.Is(err, service.ErrUnsupportedExportFormat):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
