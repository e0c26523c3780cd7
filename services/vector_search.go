package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/buger/jsonparser"

	"gamechat-rag/config"
	"gamechat-rag/errors"
	"gamechat-rag/models"
)

const (
	defaultNamespaceLabel = "default"
	warningNoUsableDocs   = "no_usable_docs"
	maxErrorBodyBytes     = 512
)

// VectorSearchService queries an Upstash Vector index over REST
type VectorSearchService struct {
	baseURL     string
	token       string
	defaultTopK int
	httpClient  *http.Client
	logger      Logger
}

// NewVectorSearchService creates a vector search client. The configured timeout
// bounds every query.
func NewVectorSearchService(cfg *config.VectorConfig, defaultTopK int, logger Logger) *VectorSearchService {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &VectorSearchService{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		token:       cfg.Token,
		defaultTopK: defaultTopK,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

type vectorQuery struct {
	TopK            int       `json:"topK"`
	Vector          []float32 `json:"vector"`
	IncludeVectors  bool      `json:"includeVectors"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

// Search runs one nearest-neighbour query, scoped to namespace when non-empty
func (s *VectorSearchService) Search(ctx context.Context, vector []float32, topK int, namespace string) ([]models.RetrievedDocument, models.SearchDiagnostics, error) {
	if s.baseURL == "" || s.token == "" {
		err := errors.NewConfigurationError(errors.StageVectorConfig, "Upstash Vector credentials are not configured")
		s.logger.Error("RAG stage failed", err, String("stage", err.Stage))
		return nil, models.SearchDiagnostics{}, err
	}

	effectiveTopK := topK
	if effectiveTopK <= 0 {
		effectiveTopK = s.defaultTopK
	}
	label := namespace
	if label == "" {
		label = defaultNamespaceLabel
	}

	statusCode, body, err := s.query(ctx, vector, effectiveTopK, namespace)
	if err != nil {
		appErr := errors.NewUpstreamError(errors.StageVectorQuery,
			fmt.Sprintf("Vector search failed (namespace=%s)", label), err).
			WithUpstreamStatus(statusCode)
		s.logger.Error("RAG stage failed", err,
			String("stage", appErr.Stage),
			String("namespace", label),
			Int("upstream_status", statusCode))
		return nil, models.SearchDiagnostics{}, appErr
	}

	matches, shapeOK := extractMatches(body)
	if !shapeOK {
		s.logger.Warn("Unexpected vector search response shape", String("namespace", label))
	}

	docs := make([]models.RetrievedDocument, 0, len(matches))
	for i, match := range matches {
		candidate, ok := candidateFrom(match)
		if !ok {
			s.logger.Warn("Skipping vector match that is not an object",
				String("namespace", label), Int("index", i))
			continue
		}
		if doc, ok := documentFrom(candidate); ok {
			docs = append(docs, doc)
		}
	}

	diagnostics := models.SearchDiagnostics{
		Namespace:          label,
		PayloadTopK:        effectiveTopK,
		UpstreamStatusCode: statusCode,
		RawMatchCount:      len(matches),
		UsableDocCount:     len(docs),
	}
	if len(docs) == 0 {
		diagnostics.Warning = warningNoUsableDocs
	}

	s.logger.Info("Vector search completed",
		String("namespace", label),
		Int("top_k", effectiveTopK),
		Int("raw_match_count", len(matches)),
		Int("usable_doc_count", len(docs)))

	return docs, diagnostics, nil
}

// query posts the request and returns the status code and body of a 2xx
// response. Non-2xx responses are errors carrying their status code.
func (s *VectorSearchService) query(ctx context.Context, vector []float32, topK int, namespace string) (int, []byte, error) {
	endpoint := s.baseURL + "/query"
	if namespace != "" {
		endpoint += "/" + url.PathEscape(namespace)
	}

	payload, err := json.Marshal(vectorQuery{
		TopK:            topK,
		Vector:          vector,
		IncludeVectors:  false,
		IncludeMetadata: true,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := body
		if len(snippet) > maxErrorBodyBytes {
			snippet = snippet[:maxErrorBodyBytes]
		}
		return resp.StatusCode, nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if !json.Valid(body) {
		return resp.StatusCode, nil, fmt.Errorf("response body is not valid JSON")
	}

	return resp.StatusCode, body, nil
}

// rawValue is one JSON value together with its type
type rawValue struct {
	data     []byte
	dataType jsonparser.ValueType
}

// extractMatches finds the match list, trying in order: a top-level "matches"
// list, "result.matches", "result.result", then "result" as a list. It reports
// false when none of the shapes apply.
func extractMatches(body []byte) ([]rawValue, bool) {
	if list, ok := arrayAt(body, "matches"); ok {
		return list, true
	}

	result, resultType, _, err := jsonparser.Get(body, "result")
	if err != nil {
		return nil, false
	}

	switch resultType {
	case jsonparser.Object:
		if list, ok := arrayAt(result, "matches"); ok {
			return list, true
		}
		if list, ok := arrayAt(result, "result"); ok {
			return list, true
		}
	case jsonparser.Array:
		return arrayElements(result), true
	}
	return nil, false
}

func arrayAt(data []byte, key string) ([]rawValue, bool) {
	value, dataType, _, err := jsonparser.Get(data, key)
	if err != nil || dataType != jsonparser.Array {
		return nil, false
	}
	return arrayElements(value), true
}

func arrayElements(array []byte) []rawValue {
	elements := []rawValue{}
	_, _ = jsonparser.ArrayEach(array, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		if err != nil {
			return
		}
		elements = append(elements, rawValue{data: value, dataType: dataType})
	})
	return elements
}

// candidateFrom reduces a match to an object: the match itself, or the first
// object inside a list-valued match
func candidateFrom(match rawValue) ([]byte, bool) {
	switch match.dataType {
	case jsonparser.Object:
		return match.data, true
	case jsonparser.Array:
		for _, element := range arrayElements(match.data) {
			if element.dataType == jsonparser.Object {
				return element.data, true
			}
		}
	}
	return nil, false
}

// documentFrom reads text from metadata.text, text, then data; title from
// metadata.title then title; card_id from metadata only. Matches without text
// are not usable.
func documentFrom(candidate []byte) (models.RetrievedDocument, bool) {
	text := firstString(candidate, []string{"metadata", "text"}, []string{"text"}, []string{"data"})
	if text == "" {
		return models.RetrievedDocument{}, false
	}
	return models.RetrievedDocument{
		Text:   text,
		Title:  firstString(candidate, []string{"metadata", "title"}, []string{"title"}),
		CardID: scalarString(candidate, "metadata", "card_id"),
	}, true
}

func firstString(data []byte, paths ...[]string) string {
	for _, path := range paths {
		value, dataType, _, err := jsonparser.Get(data, path...)
		if err != nil || dataType != jsonparser.String {
			continue
		}
		s, err := jsonparser.ParseString(value)
		if err == nil && s != "" {
			return s
		}
	}
	return ""
}

// scalarString renders a string or number at path; zero and empty values are absent
func scalarString(data []byte, path ...string) string {
	value, dataType, _, err := jsonparser.Get(data, path...)
	if err != nil {
		return ""
	}
	switch dataType {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return ""
		}
		return s
	case jsonparser.Number:
		if string(value) == "0" {
			return ""
		}
		return string(value)
	}
	return ""
}
