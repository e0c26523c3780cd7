package handlers

import (
	"encoding/json"
	"net/http"

	"gamechat-rag/errors"
	"gamechat-rag/models"
	"gamechat-rag/services"
)

// writeJSONResponse writes a JSON response with the given status code
func writeJSONResponse(w http.ResponseWriter, logger services.Logger, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", err)
	}
}

// writeAppErrorResponse writes a staged error as {"detail": {...}}. Pipeline
// errors keep their upstream text out of the payload; it is only logged.
func writeAppErrorResponse(w http.ResponseWriter, logger services.Logger, err error) {
	appErr, ok := errors.AsAppError(errors.Ensure(err))
	if !ok {
		appErr = errors.NewPipelineError(err)
	}

	detail := models.ErrorDetail{
		Stage:   appErr.Stage,
		Message: appErr.Message,
	}
	if appErr.Type != errors.ErrTypePipeline {
		detail.UpstreamError = appErr.UpstreamError
	}

	fields := []services.LogField{
		services.String("stage", appErr.Stage),
		services.String("code", appErr.Code),
		services.Int("status_code", appErr.GetHTTPStatusCode()),
	}
	if appErr.UpstreamStatus != 0 {
		fields = append(fields, services.Int("upstream_status", appErr.UpstreamStatus))
	}
	if errors.IsKind(appErr, errors.ErrTypeValidation) || errors.IsKind(appErr, errors.ErrTypeNotFound) {
		logger.Warn("Rejected request: "+appErr.Message, fields...)
	} else {
		logger.Error("API error: "+appErr.Message, appErr.Cause, fields...)
	}

	writeJSONResponse(w, logger, appErr.GetHTTPStatusCode(), models.APIError{Detail: detail})
}
