package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamechat-rag/config"
	"gamechat-rag/errors"
	"gamechat-rag/models"
)

func newVectorTestService(t *testing.T, handler http.HandlerFunc) *VectorSearchService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewVectorSearchService(&config.VectorConfig{
		URL:     server.URL + "/",
		Token:   "upstash-token",
		Timeout: 5 * time.Second,
	}, 5, NewNopLogger())
}

func writeBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestVectorSearchService_Request(t *testing.T) {
	var (
		path     string
		auth     string
		received map[string]interface{}
	)
	service := newVectorTestService(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		auth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		writeBody(`{"result":[]}`)(w, r)
	})

	t.Run("scoped", func(t *testing.T) {
		_, diag, err := service.Search(context.Background(), []float32{0.5, 1}, 3, "effect_1")
		require.NoError(t, err)

		assert.Equal(t, "/query/effect_1", path)
		assert.Equal(t, "Bearer upstash-token", auth)
		assert.Equal(t, float64(3), received["topK"])
		assert.Equal(t, []interface{}{0.5, float64(1)}, received["vector"])
		assert.Equal(t, false, received["includeVectors"])
		assert.Equal(t, true, received["includeMetadata"])
		assert.Equal(t, "effect_1", diag.Namespace)
		assert.Equal(t, 3, diag.PayloadTopK)
	})

	t.Run("unscoped uses default top-k", func(t *testing.T) {
		_, diag, err := service.Search(context.Background(), []float32{1}, 0, "")
		require.NoError(t, err)

		assert.Equal(t, "/query", path)
		assert.Equal(t, float64(5), received["topK"])
		assert.Equal(t, "default", diag.Namespace)
		assert.Equal(t, 5, diag.PayloadTopK)
		assert.Equal(t, http.StatusOK, diag.UpstreamStatusCode)
	})
}

func TestVectorSearchService_ResponseShapes(t *testing.T) {
	match := `{"id":"a","score":0.9,"metadata":{"text":"ドローする","title":"Drake","card_id":"c1"}}`

	tests := []struct {
		name string
		body string
		raw  int
	}{
		{"top-level matches", `{"matches":[` + match + `]}`, 1},
		{"result.matches", `{"result":{"matches":[` + match + `]}}`, 1},
		{"result.result", `{"result":{"result":[` + match + `]}}`, 1},
		{"result list", `{"result":[` + match + `]}`, 1},
		{"nested list match", `{"result":[[1,"x",` + match + `]]}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newVectorTestService(t, writeBody(tt.body))

			docs, diag, err := service.Search(context.Background(), []float32{1}, 0, "")
			require.NoError(t, err)

			assert.Equal(t, []models.RetrievedDocument{{Text: "ドローする", Title: "Drake", CardID: "c1"}}, docs)
			assert.Equal(t, tt.raw, diag.RawMatchCount)
			assert.Equal(t, 1, diag.UsableDocCount)
			assert.Empty(t, diag.Warning)
		})
	}
}

func TestVectorSearchService_UnknownShape(t *testing.T) {
	for _, body := range []string{`{"result":"oops"}`, `{"data":[]}`, `[]`, `{"result":{"items":[]}}`} {
		service := newVectorTestService(t, writeBody(body))

		docs, diag, err := service.Search(context.Background(), []float32{1}, 0, "")
		require.NoError(t, err, body)

		assert.Empty(t, docs, body)
		assert.Equal(t, 0, diag.RawMatchCount, body)
		assert.Equal(t, "no_usable_docs", diag.Warning, body)
	}
}

func TestVectorSearchService_Normalization(t *testing.T) {
	body := `{"result":[
		{"metadata":{"title":"no text"}},
		{"text":"top-level text","title":"Top"},
		{"data":"data field","metadata":{"card_id":42}},
		{"metadata":{"text":"zero id","card_id":0}},
		"not an object",
		[1,2],
		{"metadata":{"text":"","title":"empty"},"text":"fallback text"}
	]}`
	service := newVectorTestService(t, writeBody(body))

	docs, diag, err := service.Search(context.Background(), []float32{1}, 0, "effect_2")
	require.NoError(t, err)

	assert.Equal(t, []models.RetrievedDocument{
		{Text: "top-level text", Title: "Top"},
		{Text: "data field", CardID: "42"},
		{Text: "zero id"},
		{Text: "fallback text", Title: "empty"},
	}, docs)
	assert.Equal(t, 7, diag.RawMatchCount)
	assert.Equal(t, 4, diag.UsableDocCount)
}

func TestVectorSearchService_MissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.VectorConfig
	}{
		{"no url", config.VectorConfig{Token: "t"}},
		{"no token", config.VectorConfig{URL: "http://127.0.0.1:1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewVectorSearchService(&tt.cfg, 5, nil)

			_, _, err := service.Search(context.Background(), []float32{1}, 0, "")

			appErr, ok := errors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrTypeConfiguration, appErr.Type)
			assert.Equal(t, errors.StageVectorConfig, appErr.Stage)
			assert.Equal(t, "Upstash Vector credentials are not configured", appErr.Message)
		})
	}
}

func TestVectorSearchService_UpstreamFailures(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		service := newVectorTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
		})

		_, _, err := service.Search(context.Background(), []float32{1}, 0, "effect_3")

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrTypeUpstream, appErr.Type)
		assert.Equal(t, errors.StageVectorQuery, appErr.Stage)
		assert.Equal(t, "Vector search failed (namespace=effect_3)", appErr.Message)
		assert.Equal(t, http.StatusUnauthorized, appErr.UpstreamStatus)
		assert.Contains(t, appErr.UpstreamError, "Unauthorized")
	})

	t.Run("invalid json", func(t *testing.T) {
		service := newVectorTestService(t, writeBody(`{"result":[`))

		_, _, err := service.Search(context.Background(), []float32{1}, 0, "")

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrTypeUpstream, appErr.Type)
		assert.Equal(t, "Vector search failed (namespace=default)", appErr.Message)
	})

	t.Run("transport failure", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		service := NewVectorSearchService(&config.VectorConfig{URL: url, Token: "t", Timeout: time.Second}, 5, nil)

		_, _, err := service.Search(context.Background(), []float32{1}, 0, "")

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrTypeUpstream, appErr.Type)
		assert.Equal(t, 0, appErr.UpstreamStatus)
	})
}
