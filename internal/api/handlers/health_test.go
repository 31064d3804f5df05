// Package handlers_test provides unit tests for the API handlers.
package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/axiumai/chat-widget/internal/api/dto"
	"github.com/axiumai/chat-widget/internal/api/handlers"
	"github.com/axiumai/chat-widget/internal/testutil"
	"github.com/axiumai/chat-widget/internal/testutil/mocks"
)

func newHealthRouter(bus, vault *mocks.MockVault) http.Handler {
	handler := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"eventbus": bus,
		"vault":    vault,
	})
	router := testutil.SetupTestRouter()
	router.GET("/health", handler.Health)
	router.GET("/ready", handler.Ready)
	router.GET("/live", handler.Live)
	return router
}

func TestHealthHandler_Health_AllHealthy(t *testing.T) {
	bus, vault := new(mocks.MockVault), new(mocks.MockVault)
	bus.On("Ping", mock.Anything).Return(nil)
	vault.On("Ping", mock.Anything).Return(nil)

	w := testutil.PerformRequest(newHealthRouter(bus, vault), http.MethodGet, "/health", nil, nil)

	testutil.AssertStatusCode(t, http.StatusOK, w)
	var response dto.HealthResponse
	testutil.ParseJSONResponse(t, w, &response)
	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, "healthy", response.Components["eventbus"])
	assert.Equal(t, "healthy", response.Components["vault"])
	bus.AssertExpectations(t)
	vault.AssertExpectations(t)
}

func TestHealthHandler_Health_BusUnhealthy(t *testing.T) {
	bus, vault := new(mocks.MockVault), new(mocks.MockVault)
	bus.On("Ping", mock.Anything).Return(assert.AnError)
	vault.On("Ping", mock.Anything).Return(nil)

	w := testutil.PerformRequest(newHealthRouter(bus, vault), http.MethodGet, "/health", nil, nil)

	testutil.AssertStatusCode(t, http.StatusServiceUnavailable, w)
	var response dto.HealthResponse
	testutil.ParseJSONResponse(t, w, &response)
	assert.Equal(t, "unhealthy", response.Status)
	assert.Equal(t, "unhealthy", response.Components["eventbus"])
	assert.Equal(t, "healthy", response.Components["vault"])
}

func TestHealthHandler_Ready(t *testing.T) {
	bus, vault := new(mocks.MockVault), new(mocks.MockVault)
	bus.On("Ping", mock.Anything).Return(nil)
	vault.On("Ping", mock.Anything).Return(nil)

	w := testutil.PerformRequest(newHealthRouter(bus, vault), http.MethodGet, "/ready", nil, nil)

	testutil.AssertStatusCode(t, http.StatusOK, w)
	assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())
}

func TestHealthHandler_Ready_NotReady(t *testing.T) {
	bus, vault := new(mocks.MockVault), new(mocks.MockVault)
	bus.On("Ping", mock.Anything).Return(assert.AnError)
	vault.On("Ping", mock.Anything).Return(nil).Maybe()

	w := testutil.PerformRequest(newHealthRouter(bus, vault), http.MethodGet, "/ready", nil, nil)

	testutil.AssertStatusCode(t, http.StatusServiceUnavailable, w)
	assert.JSONEq(t, `{"status":"not ready","reason":"eventbus unavailable"}`, w.Body.String())
}

func TestHealthHandler_Live(t *testing.T) {
	w := testutil.PerformRequest(newHealthRouter(new(mocks.MockVault), new(mocks.MockVault)), http.MethodGet, "/live", nil, nil)

	testutil.AssertStatusCode(t, http.StatusOK, w)
	assert.JSONEq(t, `{"status":"alive"}`, w.Body.String())
}
