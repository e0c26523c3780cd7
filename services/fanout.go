package services

import (
	"context"
	stderrors "errors"

	"golang.org/x/sync/errgroup"

	"gamechat-rag/models"
)

const (
	// MultiNamespaceLabel names the aggregate of a fan-out search
	MultiNamespaceLabel = "effect_multi"

	warningNoEffectNamespaces = "no_effect_namespaces_configured"
	defaultFanoutConcurrency  = 4
)

// FanOutSearchService queries every configured effect namespace and merges
// the results in declaration order
type FanOutSearchService struct {
	searcher    VectorSearcher
	namespaces  []string
	defaultTopK int
	concurrency int
	logger      Logger
}

// NewFanOutSearchService creates a fan-out searcher over namespaces. At most
// concurrency namespace queries are in flight per call.
func NewFanOutSearchService(searcher VectorSearcher, namespaces []string, defaultTopK, concurrency int, logger Logger) *FanOutSearchService {
	if logger == nil {
		logger = NewNopLogger()
	}
	if concurrency < 1 {
		concurrency = defaultFanoutConcurrency
	}
	return &FanOutSearchService{
		searcher:    searcher,
		namespaces:  append([]string(nil), namespaces...),
		defaultTopK: defaultTopK,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Namespaces returns the configured namespace set in declaration order
func (s *FanOutSearchService) Namespaces() []string {
	return append([]string(nil), s.namespaces...)
}

type namespaceOutcome struct {
	docs        []models.RetrievedDocument
	diagnostics models.SearchDiagnostics
	err         error
}

// SearchAll runs one search per namespace with a per-namespace budget of
// ceil(topK / namespaces), merges in declaration order and truncates to topK
func (s *FanOutSearchService) SearchAll(ctx context.Context, vector []float32, topK int) ([]models.RetrievedDocument, models.SearchDiagnostics, error) {
	requested := topK
	if requested <= 0 {
		requested = s.defaultTopK
	}

	diagnostics := models.SearchDiagnostics{
		Namespace:          MultiNamespaceLabel,
		SearchedNamespaces: s.Namespaces(),
	}

	if len(s.namespaces) == 0 {
		diagnostics.Warning = warningNoEffectNamespaces
		s.logger.Warn("Fan-out search skipped", String("warning", warningNoEffectNamespaces))
		return []models.RetrievedDocument{}, diagnostics, nil
	}

	perNamespace := perNamespaceTopK(requested, len(s.namespaces))
	diagnostics.PayloadTopK = perNamespace

	outcomes := make([]namespaceOutcome, len(s.namespaces))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)

	for i, namespace := range s.namespaces {
		group.Go(func() error {
			docs, diag, err := s.searcher.Search(groupCtx, vector, perNamespace, namespace)
			outcomes[i] = namespaceOutcome{docs: docs, diagnostics: diag, err: err}
			return err
		})
	}
	groupErr := group.Wait()

	if groupErr != nil {
		err := firstFailure(ctx, outcomes, groupErr)
		s.logger.Error("Fan-out search failed", err, Strings("namespaces", s.namespaces))
		return nil, models.SearchDiagnostics{}, err
	}

	merged := make([]models.RetrievedDocument, 0, len(s.namespaces)*perNamespace)
	for i, namespace := range s.namespaces {
		outcome := outcomes[i]
		merged = append(merged, outcome.docs...)
		diagnostics.RawMatchCount += outcome.diagnostics.RawMatchCount
		diagnostics.NamespaceResults = append(diagnostics.NamespaceResults, models.NamespaceResult{
			Namespace:      namespace,
			UsableDocCount: len(outcome.docs),
			RawMatchCount:  outcome.diagnostics.RawMatchCount,
		})
		if code := outcome.diagnostics.UpstreamStatusCode; code != 0 {
			diagnostics.UpstreamStatusCodes = append(diagnostics.UpstreamStatusCodes, code)
			diagnostics.UpstreamStatusCode = code
		}
	}
	diagnostics.UsableDocCount = len(merged)

	if len(merged) > requested {
		merged = merged[:requested]
	}

	s.logger.Info("Fan-out search completed",
		Int("namespace_count", len(s.namespaces)),
		Int("payload_top_k", perNamespace),
		Int("raw_match_count", diagnostics.RawMatchCount),
		Int("usable_doc_count", diagnostics.UsableDocCount),
		Int("returned_doc_count", len(merged)))

	return merged, diagnostics, nil
}

// perNamespaceTopK returns ceil(topK / count), at least one
func perNamespaceTopK(topK, count int) int {
	if count < 1 {
		return topK
	}
	perNamespace := (topK + count - 1) / count
	if perNamespace < 1 {
		return 1
	}
	return perNamespace
}

// firstFailure picks the error of the first failing namespace in declaration
// order. Cancellations caused by a sibling failure are skipped unless the
// caller's context was itself cancelled.
func firstFailure(ctx context.Context, outcomes []namespaceOutcome, fallback error) error {
	callerDone := ctx.Err() != nil
	for _, outcome := range outcomes {
		if outcome.err == nil {
			continue
		}
		if !callerDone && isCancellation(outcome.err) {
			continue
		}
		return outcome.err
	}
	return fallback
}

func isCancellation(err error) bool {
	return stderrors.Is(err, context.Canceled)
}
