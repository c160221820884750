package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"onboarding-copilot/internal/logger"
	"onboarding-copilot/internal/telemetry"
	"onboarding-copilot/models"
)

// Pipeline stages, in order of a successful request.
const (
	StageReceivedQuery = "received_query"
	StageCacheChecked  = "cache_checked"
	StageRouted        = "routed"
	StageRetrieving    = "retrieving"
	StageFusing        = "fusing"
	StageGenerating    = "generating"
	StageCombining     = "combining"
	StageCached        = "cached"
	StageResponded     = "responded"
	StageFailed        = "failed"
)

// PipelineResult is the fully-assembled answer for one query.
type PipelineResult struct {
	Response  string
	Routing   models.RoutingDecision
	Sources   []models.SourceRef
	Advisory  string
	Followups []string
}

// PipelineConfig carries the tunables the pipeline needs.
type PipelineConfig struct {
	TopK                   int
	DenseWeight            float64
	SparseWeight           float64
	MinGroundedDocs        int
	MinRetrievalConfidence float64
	UpstreamRetries        int
}

// Pipeline runs a query through cache probe, routing, per-department
// hybrid retrieval, fusion and generation. Department branches run
// concurrently; within each branch the sparse and dense searches also
// run concurrently.
type Pipeline struct {
	processor *QueryProcessor
	embedder  Embedder
	cache     *SemanticCache
	router    *Router
	keyword   *KeywordIndex
	vector    *VectorIndex
	generator *Generator
	cfg       PipelineConfig
}

func NewPipeline(processor *QueryProcessor, embedder Embedder, cache *SemanticCache, router *Router,
	keyword *KeywordIndex, vector *VectorIndex, generator *Generator, cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		processor: processor,
		embedder:  embedder,
		cache:     cache,
		router:    router,
		keyword:   keyword,
		vector:    vector,
		generator: generator,
		cfg:       cfg,
	}
}

type branchResult struct {
	department string
	answer     *GeneratedAnswer
	confidence float64
	err        error
}

// Process answers a single query. A cache hit short-circuits the
// whole pipeline; otherwise every routed department contributes one
// concurrently-generated section. A branch failure degrades to a
// partial answer; the request fails only when every branch fails.
func (p *Pipeline) Process(ctx context.Context, message, language string) (*PipelineResult, error) {
	started := time.Now()
	stage := StageReceivedQuery
	logger.Debug("Pipeline started", "stage", stage)

	query := p.processor.Process(message)
	if language == "" {
		language = DetectLanguage(message)
	}

	if entry := p.cache.Lookup(ctx, query); entry != nil {
		telemetry.RecordCacheHit(ctx)
		routing := models.RoutingDecision{
			PredictedDepartment: entry.Department,
			FinalDepartment:     entry.Department,
			Departments:         []string{entry.Department},
			IsCached:            true,
		}
		logger.Info("Pipeline answered from cache", "department", entry.Department, "duration_ms", time.Since(started).Milliseconds())
		return &PipelineResult{
			Response:  entry.Response,
			Routing:   routing,
			Sources:   entry.Sources,
			Followups: Followups(entry.Department),
		}, nil
	}
	telemetry.RecordCacheMiss(ctx)
	stage = StageCacheChecked

	queryVec, err := p.embedWithRetry(ctx, query)
	if err != nil {
		logger.Error("Pipeline failed to embed query", "stage", stage, "error", err)
		return nil, err
	}

	routing := p.router.Decide(query)
	stage = StageRouted
	if routing.WasOverridden {
		telemetry.RecordRoutingOverride(ctx, routing.FinalDepartment)
	}
	telemetry.RecordFanout(ctx, len(routing.Departments))
	logger.Info("Pipeline routed",
		"predicted", routing.PredictedDepartment,
		"confidence", routing.PredictionConfidence,
		"final", routing.FinalDepartment,
		"departments", routing.Departments,
		"multi_intent", routing.IsMultiIntent,
		"overridden", routing.WasOverridden)

	results := make(chan branchResult, len(routing.Departments))
	for _, dept := range routing.Departments {
		go func(dept string) {
			answer, confidence, err := p.runBranch(ctx, query, dept, language, queryVec)
			results <- branchResult{department: dept, answer: answer, confidence: confidence, err: err}
		}(dept)
	}

	byDept := make(map[string]branchResult, len(routing.Departments))
	routing.RetrievalConfidence = make(map[string]float64, len(routing.Departments))
	for range routing.Departments {
		res := <-results
		byDept[res.department] = res
		routing.RetrievalConfidence[res.department] = res.confidence
	}
	stage = StageCombining

	response, sources, allFailed, anyFailed, lastErr := p.combine(routing.Departments, byDept)
	if allFailed {
		logger.Error("Pipeline failed, no department branch succeeded", "stage", StageFailed, "error", lastErr)
		return nil, lastErr
	}

	if !anyFailed {
		go func() {
			storeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			p.cache.Store(storeCtx, query, response, routing.FinalDepartment, sources)
		}()
		stage = StageCached
	}

	result := &PipelineResult{
		Response:  response,
		Routing:   routing,
		Sources:   sources,
		Followups: Followups(routing.FinalDepartment),
	}
	if routing.LowConfidence {
		result.Advisory = "I wasn't sure which team this question belongs to, so I answered from general onboarding guidance. If this doesn't help, try rephrasing with more detail or contact your onboarding buddy."
	}

	stage = StageResponded
	logger.Info("Pipeline responded", "stage", stage, "departments", len(routing.Departments),
		"sources", len(sources), "duration_ms", time.Since(started).Milliseconds())
	return result, nil
}

// runBranch performs hybrid retrieval and generation for one
// department. Sparse and dense searches run concurrently. A branch
// whose retrieval confidence falls below the floor, or that retrieves
// fewer than the grounding minimum, generates without context so a
// weakly-supported chunk never masquerades as a source.
func (p *Pipeline) runBranch(ctx context.Context, query, department, language string, queryVec []float32) (*GeneratedAnswer, float64, error) {
	sparseCh := make(chan []SparseHit, 1)
	go func() {
		sparseCh <- p.keyword.Search(query, p.cfg.TopK*2, department)
	}()
	dense := p.vector.Search(queryVec, p.cfg.TopK*2, department)
	sparse := <-sparseCh

	fused := Fuse(sparse, dense, p.cfg.TopK, p.cfg.DenseWeight, p.cfg.SparseWeight)
	telemetry.RecordRetrieval(ctx, department, len(fused))

	confidence := RetrievalConfidence(fused)
	if len(fused) < p.cfg.MinGroundedDocs || confidence < p.cfg.MinRetrievalConfidence {
		logger.Warn("Branch grounding too weak, answering without context",
			"department", department, "results", len(fused), "confidence", confidence)
		fused = nil
	}

	var answer *GeneratedAnswer
	err := p.withRetry(ctx, func() error {
		var genErr error
		answer, genErr = p.generator.Generate(ctx, query, department, language, fused)
		return genErr
	})
	if err != nil {
		return nil, confidence, fmt.Errorf("branch %s: %w", department, err)
	}
	return answer, confidence, nil
}

// combine assembles the final response from branch results in routing
// order. Multi-department answers get per-department section headers;
// failed branches are noted inline.
func (p *Pipeline) combine(departments []string, byDept map[string]branchResult) (response string, sources []models.SourceRef, allFailed, anyFailed bool, lastErr error) {
	var sections []string
	seenSources := make(map[string]struct{})
	succeeded := 0

	for _, dept := range departments {
		res := byDept[dept]
		if res.err != nil {
			anyFailed = true
			lastErr = res.err
			if len(departments) > 1 {
				sections = append(sections, fmt.Sprintf("## %s\n\nI couldn't retrieve an answer for the %s part of your question right now. Please try again in a moment.", dept, dept))
			}
			continue
		}
		succeeded++

		text := res.answer.Text
		if len(departments) > 1 {
			text = fmt.Sprintf("## %s\n\n%s", dept, text)
		}
		sections = append(sections, text)

		for _, chunk := range res.answer.UsedChunks {
			key := chunk.Source + "|" + chunk.Section
			if _, ok := seenSources[key]; ok {
				continue
			}
			seenSources[key] = struct{}{}
			sources = append(sources, models.SourceRef{
				Document:   chunk.Source,
				Section:    chunk.Section,
				Department: chunk.Department,
			})
		}
	}

	if succeeded == 0 {
		return "", nil, true, true, lastErr
	}
	return strings.Join(sections, "\n\n---\n\n"), sources, false, anyFailed, nil
}

func (p *Pipeline) embedWithRetry(ctx context.Context, query string) ([]float32, error) {
	var vec []float32
	err := p.withRetry(ctx, func() error {
		var embErr error
		vec, embErr = p.embedder.Embed(ctx, query)
		return embErr
	})
	return vec, err
}

// withRetry runs fn with bounded exponential backoff. Context
// cancellation aborts immediately and is never retried.
func (p *Pipeline) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= p.cfg.UpstreamRetries; attempt++ {
		if attempt > 0 {
			backoff := 200 * time.Millisecond << (attempt - 1)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err = fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		logger.Warn("Upstream call failed, retrying", "attempt", attempt+1, "error", err)
	}
	return err
}
