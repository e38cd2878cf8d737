package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/onboarding-portal-api/internal/dto"
	"github.com/noah-isme/onboarding-portal-api/internal/service"
	"github.com/noah-isme/onboarding-portal-api/internal/utils"
)

const (
	recipientLocal         = "notification_recipient"
	defaultStreamKeepAlive = 30 * time.Second
	streamRetryMillis      = 5000
)

// NotificationHandler serves the caller's notification inbox and its SSE stream.
type NotificationHandler struct {
	service   service.NotificationService
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewNotificationHandler constructs a handler instance. The stream sends a keep-alive comment every half keepAlive.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger, keepAlive time.Duration) *NotificationHandler {
	if keepAlive <= 0 {
		keepAlive = defaultStreamKeepAlive
	}
	return &NotificationHandler{
		service:   service,
		logger:    logger.With().Str("component", "notification_handler").Logger(),
		keepAlive: keepAlive,
	}
}

// Register binds the notification routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Get("", h.requireInbox, h.list)
	router.Get("/stream", h.requireInbox, h.stream)
	router.Patch("/read-all", h.requireInbox, h.markAllRead)
	router.Patch("/:id/read", h.requireInbox, h.markRead)
}

// requireInbox resolves the recipient key of the caller. Admins have no inbox.
func (h *NotificationHandler) requireInbox(c *fiber.Ctx) error {
	recipient := recipientFor(actorFromContext(c))
	if recipient == "" {
		return utils.SendError(c, fiber.StatusForbidden, "no notification inbox for this account")
	}
	c.Locals(recipientLocal, recipient)
	return c.Next()
}

func inboxOf(c *fiber.Ctx) string {
	recipient, _ := c.Locals(recipientLocal).(string)
	return recipient
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	var query dto.NotificationListRequest
	var err error
	if query.Limit, err = parseQueryInt(c, "limit"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	if query.Offset, err = parseQueryInt(c, "offset"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}
	query.UnreadOnly = c.QueryBool("unread", false)

	inbox, err := h.service.List(requestContext(c), inboxOf(c), query)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list notifications")
	}

	return utils.OK(c, inbox.Items, "notifications retrieved", fiber.Map{"unread": inbox.Unread})
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid notification id")
	}

	notification, err := h.service.MarkRead(requestContext(c), id, inboxOf(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to update notification")
	}

	return utils.OK(c, notification, "notification updated", nil)
}

func (h *NotificationHandler) markAllRead(c *fiber.Ctx) error {
	updated, err := h.service.MarkAllRead(requestContext(c), inboxOf(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to update notifications")
	}

	return utils.OK(c, fiber.Map{"updated": updated}, "notifications marked as read", nil)
}

func (h *NotificationHandler) stream(c *fiber.Ctx) error {
	recipient := inboxOf(c)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(requestContext(c))
	events, unsubscribe := h.service.Subscribe(recipient)
	log := requestLogger(h.logger, c).With().Str("recipient", recipient).Logger()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer unsubscribe()

		if _, err := fmt.Fprintf(w, "retry: %d\n\n", streamRetryMillis); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}

		ticker := time.NewTicker(h.keepAlive / 2)
		defer ticker.Stop()

		for {
			var err error
			select {
			case <-ctx.Done():
				return
			case notification, ok := <-events:
				if !ok {
					return
				}
				err = writeEvent(w, "notification", notification)
			case now := <-ticker.C:
				_, err = fmt.Fprintf(w, ": keep-alive %s\n\n", now.UTC().Format(time.RFC3339))
				if err == nil {
					err = w.Flush()
				}
			}
			if err != nil {
				// The client went away; fasthttp reports it as a write error.
				log.Debug().Err(err).Msg("notification stream closed")
				return
			}
		}
	})

	return nil
}

func writeEvent(w *bufio.Writer, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}
