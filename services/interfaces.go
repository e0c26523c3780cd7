package services

import (
	"context"

	"gamechat-rag/models"
)

// CardCatalog resolves card ids to catalog records
type CardCatalog interface {
	Get(id string) (models.CardRecord, bool)
	Len() int
}

// EmbeddingService turns query text into a vector
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher queries the vector index. A topK of zero means the configured
// default; an empty namespace means the unscoped default partition.
type VectorSearcher interface {
	Search(ctx context.Context, vector []float32, topK int, namespace string) ([]models.RetrievedDocument, models.SearchDiagnostics, error)
}

// FanOutSearcher queries every configured effect namespace and merges results
type FanOutSearcher interface {
	SearchAll(ctx context.Context, vector []float32, topK int) ([]models.RetrievedDocument, models.SearchDiagnostics, error)
}

// AnswerGenerator produces the final answer from retrieved context
type AnswerGenerator interface {
	Generate(ctx context.Context, query, contextText string, history []models.ChatMessage, titles []string) (string, error)
}

// ChatPipeline is the single inbound operation served over HTTP
type ChatPipeline interface {
	Chat(ctx context.Context, message string, history []models.ChatMessage) (*models.ChatResponse, error)
}
