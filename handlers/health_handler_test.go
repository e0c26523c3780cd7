package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamechat-rag/services"
)

type stubChecker struct {
	status services.HealthStatus
}

func (c stubChecker) Name() string { return "stub" }

func (c stubChecker) Check(ctx context.Context) services.ComponentHealth {
	return services.ComponentHealth{Name: "stub", Status: c.status, Timestamp: time.Now()}
}

func TestHealthHandler_StatusCodes(t *testing.T) {
	tests := []struct {
		status         services.HealthStatus
		expectedStatus int
	}{
		{services.HealthStatusHealthy, http.StatusOK},
		{services.HealthStatusDegraded, http.StatusOK},
		{services.HealthStatusUnhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			health := services.NewHealthService(services.Version, services.NewNopLogger())
			health.RegisterChecker(stubChecker{status: tt.status})
			recorder := httptest.NewRecorder()

			NewHealthHandler(health, nil).Health(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

			assert.Equal(t, tt.expectedStatus, recorder.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, string(tt.status), body["status"])
			assert.Contains(t, body["components"], "stub")
		})
	}
}

func TestHealthHandler_NoService(t *testing.T) {
	recorder := httptest.NewRecorder()

	NewHealthHandler(nil, nil).Health(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, recorder.Body.String())
}

func TestHealthHandler_Component(t *testing.T) {
	health := services.NewHealthService(services.Version, services.NewNopLogger())
	health.RegisterChecker(stubChecker{status: services.HealthStatusUnhealthy})
	handler := NewHealthHandler(health, nil)

	t.Run("registered component", func(t *testing.T) {
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/v1/health/stub", nil), map[string]string{"component": "stub"})
		recorder := httptest.NewRecorder()

		handler.Component(recorder, req)

		assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, "stub", body["name"])
		assert.Equal(t, "unhealthy", body["status"])
	})

	t.Run("unknown component", func(t *testing.T) {
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/v1/health/vector_index", nil), map[string]string{"component": "vector_index"})
		recorder := httptest.NewRecorder()

		handler.Component(recorder, req)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
		detail := decodeDetail(t, recorder)
		assert.Equal(t, "request", detail["stage"])
		assert.Equal(t, "health component not found: vector_index", detail["message"])
	})
}

func TestHealthHandler_IncludesSystemInfo(t *testing.T) {
	health := services.NewHealthService(services.Version, nil)
	health.RegisterChecker(stubChecker{status: services.HealthStatusHealthy})
	recorder := httptest.NewRecorder()

	NewHealthHandler(health, nil).Health(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	system := body["system"].(map[string]interface{})
	assert.Equal(t, services.Version, system["version"])
	assert.Equal(t, []interface{}{"stub"}, system["components"])
}
