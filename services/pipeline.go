package services

import (
	"context"
	"fmt"
	"time"

	"gamechat-rag/config"
	"gamechat-rag/errors"
	"gamechat-rag/models"
)

const unknownCardName = "Unknown"

// RAGPipelineDeps groups the collaborators of the retrieval pipeline
type RAGPipelineDeps struct {
	Parser           *DirectiveParser
	Embedder         EmbeddingService
	Searcher         VectorSearcher
	FanOut           FanOutSearcher
	Generator        AnswerGenerator
	Catalog          CardCatalog
	ContextCharLimit int
	Metrics          MetricsService
	Logger           Logger
}

// RAGPipeline sequences directive parsing, embedding, retrieval with
// empty-result fallback, catalog join and answer generation
type RAGPipeline struct {
	parser           *DirectiveParser
	embedder         EmbeddingService
	searcher         VectorSearcher
	fanout           FanOutSearcher
	generator        AnswerGenerator
	catalog          CardCatalog
	contextCharLimit int
	metrics          MetricsService
	logger           Logger
}

// NewRAGPipeline creates the live pipeline
func NewRAGPipeline(deps RAGPipelineDeps) *RAGPipeline {
	p := &RAGPipeline{
		parser:           deps.Parser,
		embedder:         deps.Embedder,
		searcher:         deps.Searcher,
		fanout:           deps.FanOut,
		generator:        deps.Generator,
		catalog:          deps.Catalog,
		contextCharLimit: deps.ContextCharLimit,
		metrics:          deps.Metrics,
		logger:           deps.Logger,
	}
	if p.parser == nil {
		p.parser = NewDirectiveParser(config.DefaultDirectiveKeyword)
	}
	if p.metrics == nil {
		p.metrics = NewNoopMetrics()
	}
	if p.logger == nil {
		p.logger = NewNopLogger()
	}
	return p
}

// Chat answers one question. Staged errors are returned unchanged; any other
// failure, including a panic, becomes a rag_pipeline error.
func (p *RAGPipeline) Chat(ctx context.Context, message string, history []models.ChatMessage) (resp *models.ChatResponse, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			resp = nil
			err = errors.NewPipelineError(fmt.Errorf("panic: %v", recovered))
			p.logger.Error("RAG pipeline panicked", err, String("stage", errors.StagePipeline))
		}
	}()

	resp, err = p.run(ctx, message, history)
	if err != nil {
		err = errors.Ensure(err)
		if appErr, ok := errors.AsAppError(err); ok && appErr.Type == errors.ErrTypePipeline {
			p.logger.Error("RAG pipeline failed", appErr.Cause, String("stage", appErr.Stage))
		}
		return nil, err
	}
	return resp, nil
}

func (p *RAGPipeline) run(ctx context.Context, message string, history []models.ChatMessage) (*models.ChatResponse, error) {
	directive := p.parser.Parse(message)

	start := time.Now()
	vector, err := p.embedder.Embed(ctx, directive.Query)
	p.metrics.ObserveStage(MetricStageEmbed, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	docs, diagnostics, err := p.retrieve(ctx, vector, directive)
	if err != nil {
		return nil, err
	}

	contextText := BuildContext(docs, p.contextCharLimit)
	titles := matchedTitles(docs)
	cards := p.cardSummaries(docs)

	start = time.Now()
	answer, err := p.generator.Generate(ctx, message, contextText, history, titles)
	p.metrics.ObserveStage(MetricStageGenerate, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	meta := models.ChatResponseMeta{
		UsedContextCount:  len(docs),
		MatchedTitles:     titles,
		UsedNamespace:     models.StringPtr(diagnostics.Namespace),
		FallbackNamespace: models.StringPtr(diagnostics.FallbackNamespace),
		RawMatchCount:     models.IntPtr(diagnostics.RawMatchCount),
		UpstreamWarning:   models.StringPtr(diagnostics.Warning),
		Cards:             cards,
	}
	if diagnostics.UpstreamStatusCode != 0 {
		meta.UpstreamStatusCode = models.IntPtr(diagnostics.UpstreamStatusCode)
	}

	p.logger.Info("RAG pipeline completed",
		String("namespace", diagnostics.Namespace),
		String("fallback_namespace", diagnostics.FallbackNamespace),
		Int("used_context_count", len(docs)),
		Any("upstash_status_codes", diagnostics.UpstreamStatusCodes),
		Int("card_count", len(cards)))

	return &models.ChatResponse{Answer: answer, Meta: meta}, nil
}

// retrieve routes the search: an explicit namespace searches that namespace,
// the multi-namespace directive fans out, anything else searches unscoped.
// Scoped searches without usable documents fall back to an unscoped search.
func (p *RAGPipeline) retrieve(ctx context.Context, vector []float32, directive Directive) ([]models.RetrievedDocument, models.SearchDiagnostics, error) {
	var (
		docs          []models.RetrievedDocument
		diagnostics   models.SearchDiagnostics
		err           error
		fallbackLabel string
	)

	start := time.Now()
	switch {
	case directive.Namespace != "":
		docs, diagnostics, err = p.searcher.Search(ctx, vector, 0, directive.Namespace)
		fallbackLabel = directive.Namespace
	case directive.MultiNamespace && p.fanout != nil:
		docs, diagnostics, err = p.fanout.SearchAll(ctx, vector, 0)
		fallbackLabel = MultiNamespaceLabel
	default:
		docs, diagnostics, err = p.searcher.Search(ctx, vector, 0, "")
	}
	p.metrics.ObserveStage(MetricStageRetrieve, time.Since(start), err)
	if err != nil {
		return nil, models.SearchDiagnostics{}, err
	}

	if fallbackLabel == "" || len(docs) > 0 {
		return docs, diagnostics, nil
	}

	p.logger.Info("Scoped search returned no usable documents, retrying unscoped",
		String("fallback_namespace", fallbackLabel))
	p.metrics.IncrementFallback(fallbackLabel)

	start = time.Now()
	docs, diagnostics, err = p.searcher.Search(ctx, vector, 0, "")
	p.metrics.ObserveStage(MetricStageFallback, time.Since(start), err)
	if err != nil {
		return nil, models.SearchDiagnostics{}, err
	}
	diagnostics.FallbackNamespace = fallbackLabel
	return docs, diagnostics, nil
}

func matchedTitles(docs []models.RetrievedDocument) []string {
	titles := []string{}
	for _, doc := range docs {
		if doc.Title != "" {
			titles = append(titles, doc.Title)
		}
	}
	return titles
}

// cardSummaries joins documents to the catalog; the first document per card id wins
func (p *RAGPipeline) cardSummaries(docs []models.RetrievedDocument) []models.CardSummary {
	cards := []models.CardSummary{}
	if p.catalog == nil {
		return cards
	}

	seen := make(map[string]struct{})
	for _, doc := range docs {
		if doc.CardID == "" {
			continue
		}
		if _, ok := seen[doc.CardID]; ok {
			continue
		}
		seen[doc.CardID] = struct{}{}

		record, ok := p.catalog.Get(doc.CardID)
		if !ok {
			continue
		}
		cards = append(cards, SummarizeCard(record, doc))
	}
	return cards
}

// SummarizeCard projects a catalog record for the response. The headline
// effect is effect slot 1, or the document text when the card has none.
func SummarizeCard(record models.CardRecord, doc models.RetrievedDocument) models.CardSummary {
	name := record.Name
	if name == "" {
		name = unknownCardName
	}
	effect := record.Effect(1)
	if effect == "" {
		effect = doc.Text
	}
	keywords := record.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	return models.CardSummary{
		CardID:      record.ID,
		Name:        name,
		Class:       orDash(record.Class),
		Rarity:      orDash(record.Rarity),
		Cost:        record.Cost,
		Attack:      record.Attack,
		HP:          record.HP,
		Effect:      effect,
		Effects:     record.EffectTexts(),
		Keywords:    keywords,
		ImageBefore: record.ImageBefore,
		ImageAfter:  record.ImageAfter,
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
