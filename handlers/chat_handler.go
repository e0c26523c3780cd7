package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"gamechat-rag/errors"
	"gamechat-rag/models"
	"gamechat-rag/services"
)

// ChatHandler serves the chat endpoint
type ChatHandler struct {
	pipeline services.ChatPipeline
	logger   services.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(pipeline services.ChatPipeline, logger services.Logger) *ChatHandler {
	if logger == nil {
		logger = services.NewNopLogger()
	}
	return &ChatHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	logger := services.LoggerFromContext(r.Context(), h.logger)

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppErrorResponse(w, logger, errors.NewValidationError(
			errors.ErrCodeInvalidFormat, "invalid request body", err))
		return
	}

	if err := validateChatRequest(&req); err != nil {
		writeAppErrorResponse(w, logger, err)
		return
	}

	resp, err := h.pipeline.Chat(r.Context(), req.Message, req.History)
	if err != nil {
		writeAppErrorResponse(w, logger, err)
		return
	}

	writeJSONResponse(w, logger, http.StatusOK, resp)
}

func validateChatRequest(req *models.ChatRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return errors.NewValidationError(errors.ErrCodeMissingField, "message is required", nil)
	}
	for i, turn := range req.History {
		if !models.ValidRole(turn.Role) {
			return errors.NewValidationError(errors.ErrCodeInvalidInput,
				fmt.Sprintf("history[%d].role must be one of user, assistant", i), nil)
		}
	}
	return nil
}
