package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/onboarding-portal-api/internal/dto"
	"github.com/noah-isme/onboarding-portal-api/internal/handler"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile("file://" + filepath.ToSlash(path))
	require.NoError(t, err)
	return schema
}

func validateAgainst(t *testing.T, schema *jsonschema.Schema, resp *http.Response) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestAdminDashboardContract(t *testing.T) {
	schema := compileSchema(t, "admin_dashboard.schema.json")

	svc := &stubDashboardService{summary: dto.AdminDashboardResponse{
		TotalClients:      3,
		ClientsByStage:    map[string]int64{"document_collection": 1, "review": 1, "completed": 1},
		AwaitingReview:    2,
		RejectedDocuments: 1,
		ServiceCenters:    2,
		AverageProgress:   58.3,
		GeneratedAt:       time.Now().UTC(),
	}}
	app := fiber.New()
	handler.NewDashboardHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/admin/dashboard"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	validateAgainst(t, schema, resp)
}

func TestClientDetailContract(t *testing.T) {
	schema := compileSchema(t, "client_detail.schema.json")

	uploaded := time.Now().UTC()
	reason := "Statement is cut off"
	clients := &stubClientService{detail: dto.ClientDetailResponse{
		ClientResponse: dto.ClientResponse{
			ID:                 7,
			LegalName:          "Acme Holdings LLC",
			Status:             "active",
			Stage:              "document_collection",
			OnboardingProgress: 25,
			ServiceCenter:      dto.ServiceCenterSummary{ID: 2, Name: "Downtown"},
		},
		Profile: dto.ClientProfile{FederalEIN: "12-3456789", BusinessEmail: "ops@acme.test", MailingAddress: "1 Main St"},
		Tasks: []dto.TaskResponse{
			{ID: 1, ClientID: 7, Title: "Bank Statements", Position: 1, Status: "approved", UploadDate: &uploaded, ReviewDate: &uploaded},
			{ID: 2, ClientID: 7, Title: "Tax Returns", Position: 2, Status: "rejected", UploadDate: &uploaded, ReviewDate: &uploaded, RejectionReason: &reason},
			{ID: 3, ClientID: 7, Title: "EIN Letter", Position: 3, Status: "pending"},
		},
	}}
	app := fiber.New()
	group := app.Group("/api/v1/admin/clients", withActor("admin", 1, nil, nil))
	handler.NewClientHandler(clients, &stubDocumentService{}, &stubActivityService{}, zerolog.Nop()).RegisterAdmin(group)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/clients/7", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	validateAgainst(t, schema, resp)
}

func TestDocumentStatusContract(t *testing.T) {
	schema := compileSchema(t, "document_status.schema.json")

	reviewed := time.Now().UTC()
	documents := &stubDocumentService{status: dto.DocumentStatusResponse{
		Document: dto.DocumentResponse{ID: 4, ClientID: 7, TaskID: 1, Name: "Bank Statements", Status: "approved", URL: "/files/clients/7/statement.pdf"},
		Task:     &dto.TaskResponse{ID: 1, ClientID: 7, Title: "Bank Statements", Status: "approved", ReviewDate: &reviewed},
		Stage:    "review",
		Changed:  true,
	}}
	documents.status.OnboardingProgress = 50

	app := fiber.New()
	group := app.Group("/api/v1/service-center/documents", withActor("service_center", 4, uintPtr(2), nil))
	handler.NewDocumentHandler(documents, zerolog.Nop()).Register(group)

	resp := patchStatus(t, app, "/api/v1/service-center/documents/4/status", `{"status":"approved"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	validateAgainst(t, schema, resp)
}
