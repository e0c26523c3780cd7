package services

import (
	stderrors "errors"

	"github.com/sashabaranov/go-openai"

	"gamechat-rag/config"
)

// NewOpenAIClient builds the shared OpenAI client. It returns nil when no API
// key is configured so callers can raise a configuration error per request.
func NewOpenAIClient(cfg *config.OpenAIConfig) *openai.Client {
	if cfg == nil || cfg.APIKey == "" {
		return nil
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

// openAIStatus extracts the HTTP status from an OpenAI SDK error, or 0
func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if stderrors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
