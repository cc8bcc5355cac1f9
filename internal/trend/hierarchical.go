// internal/trend/hierarchical.go
package trend

import (
	"context"

	"coaching-workers/internal/common/errors"
	"coaching-workers/internal/common/logger"
	"coaching-workers/internal/models"
)

// ChunkSynthesizer is the seam between the map/reduce orchestration and the
// synthesis service. Chunk calls run sequentially today; a bounded-concurrency
// implementation can be swapped in behind this interface without touching the
// partitioning or reduce logic.
type ChunkSynthesizer interface {
	SummarizeChunk(ctx context.Context, records []models.FormattedRecord, chunkIndex int, dr models.DateRange) (*models.ChunkSummary, error)
	SynthesizeFromSummaries(ctx context.Context, summaries []models.ChunkSummary, dr models.DateRange, totalCalls int) (*models.TrendAnalysis, error)
}

// HierarchicalResult carries the reduce-stage output plus the chunk layout
// for observability.
type HierarchicalResult struct {
	Analysis       *models.TrendAnalysis
	ChunksAnalyzed int
	CallsPerChunk  []int
}

// HierarchicalAnalyzer runs the two-stage map/reduce for volumes too large
// for a single sample.
type HierarchicalAnalyzer struct {
	synth        ChunkSynthesizer
	minChunkSize int
	maxChunkSize int
	logger       logger.Logger
}

func NewHierarchicalAnalyzer(synth ChunkSynthesizer, minChunkSize, maxChunkSize int, log logger.Logger) *HierarchicalAnalyzer {
	return &HierarchicalAnalyzer{
		synth:        synth,
		minChunkSize: minChunkSize,
		maxChunkSize: maxChunkSize,
		logger:       log,
	}
}

// Analyze partitions the batch into weekly chunks, summarizes each chunk
// sequentially, then reduces all summaries in one final synthesis call.
// Any chunk failure aborts the whole run: a trend built from a subset of
// chunks without the reduce stage knowing would be misleading.
func (a *HierarchicalAnalyzer) Analyze(ctx context.Context, evals []models.CallEvaluation, dr models.DateRange) (*HierarchicalResult, error) {
	chunks := SplitIntoWeeklyChunks(evals, a.minChunkSize, a.maxChunkSize)

	a.logger.Info("starting hierarchical analysis", map[string]interface{}{
		"totalCalls": len(evals),
		"chunks":     len(chunks),
	})

	summaries := make([]models.ChunkSummary, 0, len(chunks))
	callsPerChunk := make([]int, 0, len(chunks))

	for i, chunk := range chunks {
		summary, err := a.synth.SummarizeChunk(ctx, FormatRecords(chunk), i, chunkRange(chunk, dr))
		if err != nil {
			return nil, errors.NewChunkSynthesisFailedError(i, err)
		}

		summaries = append(summaries, *summary)
		callsPerChunk = append(callsPerChunk, len(chunk))

		a.logger.Debug("chunk summarized", map[string]interface{}{
			"chunkIndex": i,
			"callCount":  len(chunk),
		})
	}

	analysis, err := a.synth.SynthesizeFromSummaries(ctx, summaries, dr, len(evals))
	if err != nil {
		return nil, err
	}

	return &HierarchicalResult{
		Analysis:       analysis,
		ChunksAnalyzed: len(chunks),
		CallsPerChunk:  callsPerChunk,
	}, nil
}

// chunkRange is the sub-range covered by one chunk's records, falling back to
// the overall range for safety on empty chunks.
func chunkRange(chunk []models.CallEvaluation, overall models.DateRange) models.DateRange {
	if len(chunk) == 0 {
		return overall
	}
	return models.DateRange{
		From: chunk[0].CreatedAt,
		To:   chunk[len(chunk)-1].CreatedAt,
	}
}
