package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gamechat-rag/models"
)

type MockEmbeddingService struct {
	mock.Mock
}

func (m *MockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	vector, _ := args.Get(0).([]float32)
	return vector, args.Error(1)
}

type MockVectorSearcher struct {
	mock.Mock
}

func (m *MockVectorSearcher) Search(ctx context.Context, vector []float32, topK int, namespace string) ([]models.RetrievedDocument, models.SearchDiagnostics, error) {
	args := m.Called(ctx, vector, topK, namespace)
	docs, _ := args.Get(0).([]models.RetrievedDocument)
	return docs, args.Get(1).(models.SearchDiagnostics), args.Error(2)
}

type MockFanOutSearcher struct {
	mock.Mock
}

func (m *MockFanOutSearcher) SearchAll(ctx context.Context, vector []float32, topK int) ([]models.RetrievedDocument, models.SearchDiagnostics, error) {
	args := m.Called(ctx, vector, topK)
	docs, _ := args.Get(0).([]models.RetrievedDocument)
	return docs, args.Get(1).(models.SearchDiagnostics), args.Error(2)
}

type MockAnswerGenerator struct {
	mock.Mock
}

func (m *MockAnswerGenerator) Generate(ctx context.Context, query, contextText string, history []models.ChatMessage, titles []string) (string, error) {
	args := m.Called(ctx, query, contextText, history, titles)
	return args.String(0), args.Error(1)
}

// staticCatalog is an in-memory CardCatalog fixture
type staticCatalog map[string]models.CardRecord

func (c staticCatalog) Get(id string) (models.CardRecord, bool) {
	record, ok := c[id]
	return record, ok
}

func (c staticCatalog) Len() int {
	return len(c)
}
