// internal/trend/orchestrator.go
package trend

import (
	"context"
	"time"

	"coaching-workers/internal/common/config"
	"coaching-workers/internal/common/errors"
	"coaching-workers/internal/common/logger"
	"coaching-workers/internal/common/metrics"
	"coaching-workers/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("coaching-workers/internal/trend")

// EvaluationStore is the record source for trend runs.
type EvaluationStore interface {
	Count(ctx context.Context, repIDs []string, dr models.DateRange) (int, error)
	Fetch(ctx context.Context, repIDs []string, dr models.DateRange) ([]models.CallEvaluation, error)
}

// Directory resolves reps and teams for aggregate scopes.
type Directory interface {
	ListReps(ctx context.Context, scope string, teamID string) ([]models.Rep, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
}

// Synthesizer is the full synthesis service surface: one-shot synthesis for
// the direct and sampled tiers plus the map/reduce pair.
type Synthesizer interface {
	Synthesize(ctx context.Context, records []models.FormattedRecord, dr models.DateRange) (*models.TrendAnalysis, error)
	ChunkSynthesizer
}

// Result is what trend generation hands back to callers.
type Result struct {
	Analysis *models.TrendAnalysis   `json:"analysis"`
	Metadata models.AnalysisMetadata `json:"metadata"`
}

// AggregateResult augments the analysis with the multi-rep breakdown.
type AggregateResult struct {
	Analysis *models.TrendAnalysis    `json:"analysis"`
	Metadata models.AggregateMetadata `json:"metadata"`
}

// AggregateRequest describes a team or organization run.
type AggregateRequest struct {
	Scope        string
	TeamID       string
	DateRange    models.DateRange
	ForceRefresh bool
}

// Orchestrator is the top-level trend engine entry point. Per invocation:
// check cache, count records, classify tier, run the tier's pipeline, write
// cache, return. All synthesis happens sequentially inside the caller's
// request lifecycle.
type Orchestrator struct {
	store     EvaluationStore
	directory Directory
	synth     Synthesizer
	cache     *Cache
	cfg       config.AnalysisConfig
	logger    logger.Logger
}

func NewOrchestrator(
	store EvaluationStore,
	dir Directory,
	synth Synthesizer,
	cache *Cache,
	cfg config.AnalysisConfig,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		directory: dir,
		synth:     synth,
		cache:     cache,
		cfg:       cfg,
		logger:    log,
	}
}

// Generate produces the trend analysis for one rep over a date range.
func (o *Orchestrator) Generate(ctx context.Context, repID string, dr models.DateRange, forceRefresh bool) (*Result, error) {
	if err := validateRange(dr); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "trend.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("repId", repID))

	runID := uuid.NewString()
	log := o.logger.With(map[string]interface{}{
		"runId": runID,
		"repId": repID,
	})
	start := time.Now()

	count, err := o.store.Count(ctx, []string{repID}, dr)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errors.NewNoDataError(noDataDetails(repID, dr))
	}

	tier := ClassifyTier(count, o.cfg.DirectMax, o.cfg.SamplingMax)

	if !forceRefresh {
		if entry, ok := o.cache.GetRep(ctx, repID, dr, count); ok {
			log.Info("serving cached trend analysis", map[string]interface{}{
				"tier":       string(tier),
				"computedAt": entry.ComputedAt,
			})
			return &Result{
				Analysis: entry.Analysis,
				// Tier is recomputed from the live count so metadata stays
				// accurate even if boundaries were reconfigured since caching.
				Metadata: models.AnalysisMetadata{
					Tier:          tier,
					TotalCalls:    count,
					AnalyzedCalls: count,
				},
			}, nil
		}
	}

	evals, err := o.store.Fetch(ctx, []string{repID}, dr)
	if err != nil {
		return nil, err
	}
	if len(evals) == 0 {
		return nil, errors.NewNoDataError(noDataDetails(repID, dr))
	}

	analysis, metadata, err := o.runTier(ctx, log, "rep", evals, dr)
	if err != nil {
		metrics.AnalysisRuns.WithLabelValues(string(metadata.Tier), "error").Inc()
		return nil, err
	}

	o.cache.SetRep(ctx, repID, dr, models.CacheEntry{
		Analysis:   analysis,
		CallCount:  metadata.TotalCalls,
		ComputedAt: time.Now().UTC(),
	})

	metrics.AnalysisRuns.WithLabelValues(string(metadata.Tier), "ok").Inc()
	metrics.AnalysisDuration.WithLabelValues(string(metadata.Tier)).Observe(time.Since(start).Seconds())
	log.Info("trend analysis complete", map[string]interface{}{
		"tier":          string(metadata.Tier),
		"totalCalls":    metadata.TotalCalls,
		"analyzedCalls": metadata.AnalyzedCalls,
		"durationMs":    time.Since(start).Milliseconds(),
	})

	return &Result{Analysis: analysis, Metadata: metadata}, nil
}

// GenerateAggregate produces the trend analysis for a team or the whole
// organization, with per-rep contribution metadata.
func (o *Orchestrator) GenerateAggregate(ctx context.Context, req AggregateRequest) (*AggregateResult, error) {
	if err := validateRange(req.DateRange); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "trend.GenerateAggregate")
	defer span.End()
	span.SetAttributes(
		attribute.String("scope", req.Scope),
		attribute.String("teamId", req.TeamID),
	)

	runID := uuid.NewString()
	log := o.logger.With(map[string]interface{}{
		"runId":  runID,
		"scope":  req.Scope,
		"teamId": req.TeamID,
	})
	start := time.Now()

	if !req.ForceRefresh {
		if entry, ok := o.cache.GetAggregate(ctx, req.Scope, req.TeamID, req.DateRange); ok {
			log.Info("serving cached aggregate trend analysis", map[string]interface{}{
				"computedAt": entry.ComputedAt,
			})
			return &AggregateResult{Analysis: entry.Analysis, Metadata: entry.Metadata}, nil
		}
	}

	reps, err := o.directory.ListReps(ctx, req.Scope, req.TeamID)
	if err != nil {
		return nil, err
	}
	if len(reps) == 0 {
		return nil, errors.NewNoDataError(noDataDetails(req.Scope, req.DateRange))
	}

	repIDs := make([]string, len(reps))
	for i, rep := range reps {
		repIDs[i] = rep.ID
	}

	evals, err := o.store.Fetch(ctx, repIDs, req.DateRange)
	if err != nil {
		return nil, err
	}
	if len(evals) == 0 {
		return nil, errors.NewNoDataError(noDataDetails(req.Scope, req.DateRange))
	}

	analysis, metadata, err := o.runTier(ctx, log, req.Scope, evals, req.DateRange)
	if err != nil {
		metrics.AnalysisRuns.WithLabelValues(string(metadata.Tier), "error").Inc()
		return nil, err
	}

	teamNames, err := o.teamNameLookup(ctx, reps)
	if err != nil {
		return nil, err
	}

	aggMetadata := models.AggregateMetadata{
		AnalysisMetadata: metadata,
		Scope:            req.Scope,
		TeamID:           req.TeamID,
		RepCount:         len(reps),
		Contributions:    CalculateRepContributions(evals, reps, teamNames, len(evals)),
	}

	o.cache.SetAggregate(ctx, req.Scope, req.TeamID, req.DateRange, AggregateEntry{
		Analysis:   analysis,
		Metadata:   aggMetadata,
		ComputedAt: time.Now().UTC(),
	})

	metrics.AnalysisRuns.WithLabelValues(string(metadata.Tier), "ok").Inc()
	metrics.AnalysisDuration.WithLabelValues(string(metadata.Tier)).Observe(time.Since(start).Seconds())
	log.Info("aggregate trend analysis complete", map[string]interface{}{
		"tier":       string(metadata.Tier),
		"totalCalls": metadata.TotalCalls,
		"repCount":   len(reps),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return &AggregateResult{Analysis: analysis, Metadata: aggMetadata}, nil
}

// runTier executes the pipeline selected by the live record count. The tier
// is never downgraded on failure; chunk errors abort the run.
func (o *Orchestrator) runTier(ctx context.Context, log logger.Logger, scope string, evals []models.CallEvaluation, dr models.DateRange) (*models.TrendAnalysis, models.AnalysisMetadata, error) {
	total := len(evals)
	tier := ClassifyTier(total, o.cfg.DirectMax, o.cfg.SamplingMax)

	ctx, span := tracer.Start(ctx, "trend.runTier")
	defer span.End()
	span.SetAttributes(
		attribute.String("tier", string(tier)),
		attribute.Int("totalCalls", total),
	)

	metadata := models.AnalysisMetadata{
		Tier:       tier,
		TotalCalls: total,
	}

	switch tier {
	case models.TierDirect:
		analysis, err := o.synth.Synthesize(ctx, FormatRecords(evals), dr)
		if err != nil {
			return nil, metadata, err
		}
		metadata.AnalyzedCalls = total
		return analysis, metadata, nil

	case models.TierSampled:
		sample := StratifiedSample(evals, o.cfg.DirectMax)
		log.Info("sampled evaluation batch", map[string]interface{}{
			"originalCount": sample.OriginalCount,
			"sampledCount":  len(sample.Records),
		})

		analysis, err := o.synth.Synthesize(ctx, FormatRecords(sample.Records), dr)
		if err != nil {
			return nil, metadata, err
		}
		metadata.AnalyzedCalls = len(sample.Records)
		metadata.SamplingInfo = &models.SamplingInfo{
			Method:        "stratified_weekly",
			OriginalCount: sample.OriginalCount,
			SampledCount:  len(sample.Records),
		}
		return analysis, metadata, nil

	default: // hierarchical
		analyzer := NewHierarchicalAnalyzer(o.synth, o.cfg.MinChunkSize, o.cfg.MaxChunkSize, log)
		result, err := analyzer.Analyze(ctx, evals, dr)
		if err != nil {
			return nil, metadata, err
		}
		metrics.ChunksAnalyzed.WithLabelValues(scope).Observe(float64(result.ChunksAnalyzed))
		metadata.AnalyzedCalls = total
		metadata.HierarchicalInfo = &models.HierarchicalInfo{
			ChunksAnalyzed: result.ChunksAnalyzed,
			CallsPerChunk:  result.CallsPerChunk,
		}
		return result.Analysis, metadata, nil
	}
}

// teamNameLookup resolves team ids to names when contributions will carry
// team labels. Skipped entirely when no rep belongs to a team.
func (o *Orchestrator) teamNameLookup(ctx context.Context, reps []models.Rep) (map[string]string, error) {
	needsLookup := false
	for _, rep := range reps {
		if rep.TeamID != "" {
			needsLookup = true
			break
		}
	}
	if !needsLookup {
		return map[string]string{}, nil
	}

	teams, err := o.directory.ListTeams(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(teams))
	for _, team := range teams {
		names[team.ID] = team.Name
	}
	return names, nil
}

func validateRange(dr models.DateRange) error {
	if dr.From.IsZero() || dr.To.IsZero() {
		return errors.NewInvalidDateRangeError("both range ends are required")
	}
	if dr.To.Before(dr.From) {
		return errors.NewInvalidDateRangeError("range end precedes range start")
	}
	return nil
}

func noDataDetails(subject string, dr models.DateRange) string {
	return subject + ": " + dr.From.Format("2006-01-02") + " to " + dr.To.Format("2006-01-02")
}
