package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gorilla/mux"

	"gamechat-rag/errors"
	"gamechat-rag/services"
)

// HealthHandler serves the health endpoint
type HealthHandler struct {
	health services.HealthService
	logger services.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(health services.HealthService, logger services.Logger) *HealthHandler {
	if logger == nil {
		logger = services.NewNopLogger()
	}
	return &HealthHandler{health: health, logger: logger}
}

// Health handles GET /api/v1/health. Degraded still answers 200.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	logger := services.LoggerFromContext(r.Context(), h.logger)

	if h.health == nil {
		writeJSONResponse(w, logger, http.StatusOK, map[string]string{"status": string(services.HealthStatusHealthy)})
		return
	}

	systemHealth := h.health.CheckHealth(r.Context())
	writeJSONResponse(w, logger, healthStatusCode(systemHealth.Status), systemHealth)
}

// Component handles GET /api/v1/health/{component}
func (h *HealthHandler) Component(w http.ResponseWriter, r *http.Request) {
	logger := services.LoggerFromContext(r.Context(), h.logger)
	name := mux.Vars(r)["component"]

	if h.health == nil {
		writeAppErrorResponse(w, logger, errors.NewNotFoundError("health component not found: "+name, nil))
		return
	}

	component, err := h.health.CheckComponent(r.Context(), name)
	if err != nil {
		if stderrors.Is(err, services.ErrComponentNotFound) {
			err = errors.NewNotFoundError("health component not found: "+name, err)
		}
		writeAppErrorResponse(w, logger, err)
		return
	}
	writeJSONResponse(w, logger, healthStatusCode(component.Status), component)
}

func healthStatusCode(status services.HealthStatus) int {
	if status == services.HealthStatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
