package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/onboarding-portal-api/internal/dto"
	"github.com/noah-isme/onboarding-portal-api/internal/service"
)

type envelope[T any] struct {
	Success bool              `json:"success"`
	Data    T                 `json:"data"`
	Message string            `json:"message"`
	Meta    json.RawMessage   `json:"meta"`
	Details map[string]string `json:"details"`
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target))
}

func withActor(role string, userID uint, centerID, clientID *uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("user_role", role)
		c.Locals("user_name", "Test "+role)
		if centerID != nil {
			c.Locals("service_center_id", *centerID)
		}
		if clientID != nil {
			c.Locals("client_id", *clientID)
		}
		return c.Next()
	}
}

func uintPtr(v uint) *uint { return &v }

func multipartBody(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

type stubDocumentService struct {
	lastActor    service.Actor
	lastClientID uint
	lastTaskID   uint
	lastKey      string
	lastFileName string
	lastDocID    uint
	lastPayload  dto.DocumentStatusUpdateRequest
	lastList     dto.DocumentListRequest

	upload    dto.DocumentUploadResponse
	status    dto.DocumentStatusResponse
	list      dto.DocumentListResponse
	uploadErr error
	statusErr error
	listErr   error
}

func (s *stubDocumentService) Upload(_ context.Context, actor service.Actor, clientID, taskID uint, file *multipart.FileHeader, key string) (dto.DocumentUploadResponse, error) {
	s.lastActor = actor
	s.lastClientID = clientID
	s.lastTaskID = taskID
	s.lastKey = key
	if file != nil {
		s.lastFileName = file.Filename
	}
	return s.upload, s.uploadErr
}

func (s *stubDocumentService) UpdateStatus(_ context.Context, actor service.Actor, id uint, payload dto.DocumentStatusUpdateRequest) (dto.DocumentStatusResponse, error) {
	s.lastActor = actor
	s.lastDocID = id
	s.lastPayload = payload
	return s.status, s.statusErr
}

func (s *stubDocumentService) List(_ context.Context, actor service.Actor, req dto.DocumentListRequest) (dto.DocumentListResponse, error) {
	s.lastActor = actor
	s.lastList = req
	return s.list, s.listErr
}

type stubClientService struct {
	lastActor    service.Actor
	lastList     dto.ClientListRequest
	lastCreate   dto.ClientCreateRequest
	lastClientID uint
	lastReassign dto.ReassignServiceCenterRequest
	lastUpdate   dto.ClientUpdateRequest

	detail      dto.ClientDetailResponse
	list        dto.ClientListResponse
	tasks       []dto.TaskResponse
	client      dto.ClientResponse
	err         error
	getErr      error
	reassignErr error
}

func (s *stubClientService) Create(_ context.Context, actor service.Actor, payload dto.ClientCreateRequest) (dto.ClientDetailResponse, error) {
	s.lastActor = actor
	s.lastCreate = payload
	return s.detail, s.err
}

func (s *stubClientService) List(_ context.Context, actor service.Actor, req dto.ClientListRequest) (dto.ClientListResponse, error) {
	s.lastActor = actor
	s.lastList = req
	return s.list, s.err
}

func (s *stubClientService) Get(_ context.Context, actor service.Actor, id uint) (dto.ClientDetailResponse, error) {
	s.lastActor = actor
	s.lastClientID = id
	return s.detail, s.getErr
}

func (s *stubClientService) ListTasks(_ context.Context, actor service.Actor, clientID uint) ([]dto.TaskResponse, error) {
	s.lastActor = actor
	s.lastClientID = clientID
	return s.tasks, s.err
}

func (s *stubClientService) ReassignServiceCenter(_ context.Context, actor service.Actor, clientID uint, payload dto.ReassignServiceCenterRequest) (dto.ClientResponse, error) {
	s.lastActor = actor
	s.lastClientID = clientID
	s.lastReassign = payload
	return s.client, s.reassignErr
}

func (s *stubClientService) UpdateProfile(_ context.Context, actor service.Actor, clientID uint, payload dto.ClientUpdateRequest) (dto.ClientDetailResponse, error) {
	s.lastActor = actor
	s.lastClientID = clientID
	s.lastUpdate = payload
	return s.detail, s.err
}

type stubActivityService struct {
	lastList   dto.ActivityListRequest
	lastFormat string
	list       dto.ActivityListResponse
	export     service.ActivityExport
	err        error
}

func (s *stubActivityService) Record(context.Context, service.ActivityEntry) (dto.ActivityResponse, error) {
	return dto.ActivityResponse{}, nil
}

func (s *stubActivityService) List(_ context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	s.lastList = req
	return s.list, s.err
}

func (s *stubActivityService) Export(_ context.Context, req dto.ActivityListRequest, format string) (service.ActivityExport, error) {
	s.lastList = req
	s.lastFormat = format
	return s.export, s.err
}

type stubDashboardService struct {
	summary    dto.AdminDashboardResponse
	client     dto.ClientDashboardResponse
	err        error
	lastActor  service.Actor
	invalidate int
}

func (s *stubDashboardService) AdminSummary(context.Context) (dto.AdminDashboardResponse, error) {
	return s.summary, s.err
}

func (s *stubDashboardService) ClientDashboard(_ context.Context, actor service.Actor) (dto.ClientDashboardResponse, error) {
	s.lastActor = actor
	return s.client, s.err
}

func (s *stubDashboardService) Invalidate(context.Context) { s.invalidate++ }
