package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gamechat-rag/errors"
	"gamechat-rag/models"
)

func docsFor(namespace string, n int) []models.RetrievedDocument {
	docs := make([]models.RetrievedDocument, 0, n)
	for i := 0; i < n; i++ {
		docs = append(docs, models.RetrievedDocument{Text: fmt.Sprintf("%s-%d", namespace, i)})
	}
	return docs
}

func TestFanOutSearchService_SearchAll(t *testing.T) {
	searcher := &MockVectorSearcher{}
	vector := []float32{1, 2}
	namespaces := []string{"effect_1", "effect_2", "effect_3"}

	// Later namespaces answer first; merge order must not depend on it.
	for i, ns := range namespaces {
		delay := time.Duration(len(namespaces)-i) * 10 * time.Millisecond
		searcher.On("Search", mock.Anything, vector, 2, ns).
			After(delay).
			Return(docsFor(ns, 2), models.SearchDiagnostics{Namespace: ns, RawMatchCount: 3, UpstreamStatusCode: 200 + i}, nil)
	}

	service := NewFanOutSearchService(searcher, namespaces, 5, 3, NewNopLogger())

	docs, diag, err := service.SearchAll(context.Background(), vector, 0)
	require.NoError(t, err)

	assert.Equal(t, []models.RetrievedDocument{
		{Text: "effect_1-0"}, {Text: "effect_1-1"},
		{Text: "effect_2-0"}, {Text: "effect_2-1"},
		{Text: "effect_3-0"},
	}, docs)
	assert.Equal(t, MultiNamespaceLabel, diag.Namespace)
	assert.Equal(t, namespaces, diag.SearchedNamespaces)
	assert.Equal(t, 2, diag.PayloadTopK)
	assert.Equal(t, 9, diag.RawMatchCount)
	assert.Equal(t, 6, diag.UsableDocCount)
	assert.Equal(t, 202, diag.UpstreamStatusCode)
	assert.Equal(t, []int{200, 201, 202}, diag.UpstreamStatusCodes)
	assert.Equal(t, []models.NamespaceResult{
		{Namespace: "effect_1", UsableDocCount: 2, RawMatchCount: 3},
		{Namespace: "effect_2", UsableDocCount: 2, RawMatchCount: 3},
		{Namespace: "effect_3", UsableDocCount: 2, RawMatchCount: 3},
	}, diag.NamespaceResults)
	searcher.AssertExpectations(t)
}

func TestFanOutSearchService_NeverExceedsTopK(t *testing.T) {
	for count := 1; count <= 6; count++ {
		for topK := 1; topK <= 8; topK++ {
			namespaces := make([]string, 0, count)
			for i := 1; i <= count; i++ {
				namespaces = append(namespaces, fmt.Sprintf("effect_%d", i))
			}
			searcher := &MockVectorSearcher{}
			perNamespace := perNamespaceTopK(topK, count)
			for _, ns := range namespaces {
				searcher.On("Search", mock.Anything, mock.Anything, perNamespace, ns).
					Return(docsFor(ns, perNamespace), models.SearchDiagnostics{}, nil)
			}

			service := NewFanOutSearchService(searcher, namespaces, 5, 2, nil)
			docs, _, err := service.SearchAll(context.Background(), []float32{1}, topK)

			require.NoError(t, err)
			assert.LessOrEqual(t, len(docs), topK, "count=%d topK=%d", count, topK)
			assert.GreaterOrEqual(t, perNamespace, 1)
		}
	}
}

func TestPerNamespaceTopK(t *testing.T) {
	tests := []struct {
		topK, count, expected int
	}{
		{5, 5, 1},
		{5, 2, 3},
		{1, 4, 1},
		{8, 3, 3},
		{10, 1, 10},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, perNamespaceTopK(tt.topK, tt.count), "topK=%d count=%d", tt.topK, tt.count)
	}
}

func TestFanOutSearchService_NoNamespaces(t *testing.T) {
	searcher := &MockVectorSearcher{}
	service := NewFanOutSearchService(searcher, nil, 5, 4, nil)

	docs, diag, err := service.SearchAll(context.Background(), []float32{1}, 0)
	require.NoError(t, err)

	assert.Empty(t, docs)
	assert.Equal(t, "no_effect_namespaces_configured", diag.Warning)
	assert.Equal(t, MultiNamespaceLabel, diag.Namespace)
	searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// orderedSearcher fails the named namespaces and records the peak concurrency
type orderedSearcher struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	failing  map[string]time.Duration
}

func (s *orderedSearcher) Search(ctx context.Context, _ []float32, _ int, namespace string) ([]models.RetrievedDocument, models.SearchDiagnostics, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if delay, ok := s.failing[namespace]; ok {
		time.Sleep(delay)
		return nil, models.SearchDiagnostics{}, errors.NewUpstreamError(errors.StageVectorQuery,
			fmt.Sprintf("Vector search failed (namespace=%s)", namespace), fmt.Errorf("status 503"))
	}

	select {
	case <-time.After(20 * time.Millisecond):
		return docsFor(namespace, 1), models.SearchDiagnostics{Namespace: namespace, RawMatchCount: 1}, nil
	case <-ctx.Done():
		return nil, models.SearchDiagnostics{}, errors.NewUpstreamError(errors.StageVectorQuery,
			fmt.Sprintf("Vector search failed (namespace=%s)", namespace), fmt.Errorf("request failed: %w", ctx.Err()))
	}
}

func TestFanOutSearchService_FirstFailureInDeclarationOrder(t *testing.T) {
	searcher := &orderedSearcher{failing: map[string]time.Duration{
		"effect_2": 15 * time.Millisecond,
		"effect_4": 0,
	}}
	namespaces := []string{"effect_1", "effect_2", "effect_3", "effect_4"}
	service := NewFanOutSearchService(searcher, namespaces, 8, 4, nil)

	_, _, err := service.SearchAll(context.Background(), []float32{1}, 0)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Vector search failed (namespace=effect_2)", appErr.Message)
}

func TestFanOutSearchService_ConcurrencyLimit(t *testing.T) {
	searcher := &orderedSearcher{failing: map[string]time.Duration{}}
	namespaces := []string{"effect_1", "effect_2", "effect_3", "effect_4", "effect_5"}
	service := NewFanOutSearchService(searcher, namespaces, 5, 2, nil)

	docs, _, err := service.SearchAll(context.Background(), []float32{1}, 0)
	require.NoError(t, err)

	assert.Len(t, docs, 5)
	assert.LessOrEqual(t, searcher.peak, 2)
}
