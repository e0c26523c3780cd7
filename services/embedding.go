package services

import (
	"context"
	stderrors "errors"

	"github.com/sashabaranov/go-openai"

	"gamechat-rag/errors"
)

// embeddingService implements EmbeddingService on the OpenAI embeddings API
type embeddingService struct {
	client *openai.Client
	model  string
	logger Logger
}

// NewEmbeddingService creates a new embedding service instance. A nil client
// means no credential is configured.
func NewEmbeddingService(client *openai.Client, model string, logger Logger) EmbeddingService {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &embeddingService{
		client: client,
		model:  model,
		logger: logger,
	}
}

// Embed generates the query embedding. Failures are not retried.
func (s *embeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.client == nil {
		err := errors.NewConfigurationError(errors.StageEmbeddingsConfig, "OpenAI API key is not configured")
		s.logger.Error("RAG stage failed", err, String("stage", err.Stage))
		return nil, err
	}

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(s.model),
	})
	if err == nil && len(resp.Data) == 0 {
		err = stderrors.New("embedding response contained no vectors")
	}
	if err != nil {
		appErr := errors.NewUpstreamError(errors.StageEmbeddings, "Embedding request failed", err).
			WithUpstreamStatus(openAIStatus(err))
		s.logger.Error("RAG stage failed", err,
			String("stage", appErr.Stage),
			Int("upstream_status", appErr.UpstreamStatus))
		return nil, appErr
	}

	return resp.Data[0].Embedding, nil
}
