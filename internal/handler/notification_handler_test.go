package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/onboarding-portal-api/internal/database"
	"github.com/noah-isme/onboarding-portal-api/internal/dto"
	"github.com/noah-isme/onboarding-portal-api/internal/handler"
	"github.com/noah-isme/onboarding-portal-api/internal/repository"
	"github.com/noah-isme/onboarding-portal-api/internal/service"
)

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:hdl_"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func newNotificationService(t *testing.T) service.NotificationService {
	t.Helper()
	db := setupHandlerDB(t)
	return service.NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, validator.New(), zerolog.Nop())
}

func TestNotificationHandler_ListAndMarkRead(t *testing.T) {
	svc := newNotificationService(t)
	ctx := context.Background()

	mine, err := svc.Publish(ctx, dto.NotificationCreateRequest{Recipient: service.ServiceCenterRecipient(2), Type: "document_uploaded", Message: "Acme uploaded Bank Statements"})
	require.NoError(t, err)
	other, err := svc.Publish(ctx, dto.NotificationCreateRequest{Recipient: service.ServiceCenterRecipient(5), Type: "document_uploaded", Message: "Other center"})
	require.NoError(t, err)

	app := fiber.New()
	group := app.Group("/notifications", withActor("service_center", 4, uintPtr(2), nil))
	handler.NewNotificationHandler(svc, zerolog.Nop(), time.Second).Register(group)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/notifications", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list envelope[[]dto.NotificationResponse]
	decodeResponse(t, resp, &list)
	require.Len(t, list.Data, 1)
	require.Equal(t, mine.ID, list.Data[0].ID)
	require.JSONEq(t, `{"unread":1}`, string(list.Meta))

	resp, err = app.Test(httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/notifications/%d/read", other.ID), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/notifications/%d/read", mine.ID), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated envelope[dto.NotificationResponse]
	decodeResponse(t, resp, &updated)
	require.True(t, updated.Data.Read)
}

func TestNotificationHandler_MarkAllReadAndUnreadFilter(t *testing.T) {
	svc := newNotificationService(t)
	ctx := context.Background()
	for _, message := range []string{"W-9 uploaded", "EIN Letter uploaded"} {
		_, err := svc.Publish(ctx, dto.NotificationCreateRequest{Recipient: service.ServiceCenterRecipient(2), Type: service.NotificationDocumentUploaded, Message: message})
		require.NoError(t, err)
	}

	app := fiber.New()
	group := app.Group("/notifications", withActor("service_center", 4, uintPtr(2), nil))
	handler.NewNotificationHandler(svc, zerolog.Nop(), time.Second).Register(group)

	resp, err := app.Test(httptest.NewRequest(http.MethodPatch, "/notifications/read-all", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated envelope[map[string]int64]
	decodeResponse(t, resp, &updated)
	require.Equal(t, int64(2), updated.Data["updated"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/notifications?unread=true", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list envelope[[]dto.NotificationResponse]
	decodeResponse(t, resp, &list)
	require.Empty(t, list.Data)
	require.JSONEq(t, `{"unread":0}`, string(list.Meta))
}

func TestNotificationHandler_ClientInbox(t *testing.T) {
	svc := newNotificationService(t)
	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{Recipient: service.ClientRecipient(9), Type: "document_rejected", Message: "Bank Statements needs attention"})
	require.NoError(t, err)

	app := fiber.New()
	group := app.Group("/notifications", withActor("client", 30, nil, uintPtr(9)))
	handler.NewNotificationHandler(svc, zerolog.Nop(), time.Second).Register(group)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/notifications?limit=5", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list envelope[[]dto.NotificationResponse]
	decodeResponse(t, resp, &list)
	require.Len(t, list.Data, 1)
	require.Equal(t, "document_rejected", list.Data[0].Type)
}

func TestNotificationHandler_AdminHasNoInbox(t *testing.T) {
	app := fiber.New()
	group := app.Group("/notifications", withActor("admin", 1, nil, nil))
	handler.NewNotificationHandler(newNotificationService(t), zerolog.Nop(), time.Second).Register(group)

	for _, path := range []string{"/notifications", "/notifications/stream"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusForbidden, resp.StatusCode, path)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodPatch, "/notifications/read-all", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestNotificationHandler_InvalidParams(t *testing.T) {
	app := fiber.New()
	group := app.Group("/notifications", withActor("service_center", 4, uintPtr(2), nil))
	handler.NewNotificationHandler(newNotificationService(t), zerolog.Nop(), time.Second).Register(group)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/notifications?limit=ten", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPatch, "/notifications/abc/read", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
