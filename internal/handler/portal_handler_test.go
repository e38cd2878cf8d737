package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/onboarding-portal-api/internal/dto"
	"github.com/noah-isme/onboarding-portal-api/internal/service"
)

func TestPortalHandler_ProfileUsesTokenClient(t *testing.T) {
	clients := &stubClientService{detail: dto.ClientDetailResponse{
		ClientResponse: dto.ClientResponse{ID: 3, LegalName: "Acme Holdings"},
		Profile:        dto.ClientProfile{Website: "https://acme.test"},
	}}
	app := newPortalApp(&stubDocumentService{}, clients, &stubDashboardService{}, uintPtr(3))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/client/profile", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope[dto.ClientDetailResponse]
	decodeResponse(t, resp, &body)
	require.Equal(t, "profile retrieved", body.Message)
	require.Equal(t, "https://acme.test", body.Data.Profile.Website)
	require.Equal(t, uint(3), clients.lastClientID)
}

func TestPortalHandler_UpdateProfile(t *testing.T) {
	clients := &stubClientService{detail: dto.ClientDetailResponse{
		ClientResponse: dto.ClientResponse{ID: 3, LegalName: "Acme Holdings", ContactPhone: "555-0150"},
	}}
	app := newPortalApp(&stubDocumentService{}, clients, &stubDashboardService{}, uintPtr(3))

	resp, err := app.Test(jsonRequest(t, http.MethodPatch, "/client/profile", map[string]interface{}{"contact_phone": "555-0150"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope[dto.ClientDetailResponse]
	decodeResponse(t, resp, &body)
	require.Equal(t, "profile updated", body.Message)
	require.Equal(t, "555-0150", body.Data.ContactPhone)

	require.Equal(t, uint(3), clients.lastClientID)
	require.Equal(t, "client", clients.lastActor.Role)
	require.NotNil(t, clients.lastUpdate.ContactPhone)
	require.Equal(t, "555-0150", *clients.lastUpdate.ContactPhone)
}

func TestPortalHandler_UpdateProfileErrors(t *testing.T) {
	clients := &stubClientService{err: service.ErrForbidden}
	app := newPortalApp(&stubDocumentService{}, clients, &stubDashboardService{}, uintPtr(3))

	resp, err := app.Test(jsonRequest(t, http.MethodPatch, "/client/profile", map[string]interface{}{"legal_name": "Acme Group"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.NotNil(t, clients.lastUpdate.LegalName)

	orphan := newPortalApp(&stubDocumentService{}, &stubClientService{}, &stubDashboardService{}, nil)
	resp, err = orphan.Test(jsonRequest(t, http.MethodPatch, "/client/profile", map[string]interface{}{"website": ""}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
