// internal/trend/hierarchical_test.go
package trend

import (
	"context"
	"fmt"
	"testing"
	"time"

	"coaching-workers/internal/common/errors"
	"coaching-workers/internal/common/logger"
	"coaching-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fakes
// ==========================

// fakeSynthesizer implements the full Synthesizer surface with configurable
// failures, recording every call for assertions.
type fakeSynthesizer struct {
	synthesizeCalls int
	chunkCalls      int
	reduceCalls     int
	lastRecordCount int
	lastSummaries   []models.ChunkSummary
	lastTotalCalls  int
	failChunkIndex  int // -1 disables
	chunkErr        error
	synthesizeErr   error
	reduceErr       error
}

func newFakeSynthesizer() *fakeSynthesizer {
	return &fakeSynthesizer{failChunkIndex: -1}
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, records []models.FormattedRecord, dr models.DateRange) (*models.TrendAnalysis, error) {
	f.synthesizeCalls++
	f.lastRecordCount = len(records)
	if f.synthesizeErr != nil {
		return nil, f.synthesizeErr
	}
	return &models.TrendAnalysis{
		Summary:     fmt.Sprintf("analysis of %d records", len(records)),
		PeriodStats: models.PeriodStats{CallCount: len(records)},
	}, nil
}

func (f *fakeSynthesizer) SummarizeChunk(ctx context.Context, records []models.FormattedRecord, chunkIndex int, dr models.DateRange) (*models.ChunkSummary, error) {
	f.chunkCalls++
	if f.failChunkIndex >= 0 && chunkIndex == f.failChunkIndex {
		if f.chunkErr != nil {
			return nil, f.chunkErr
		}
		return nil, errors.NewSynthesisUnavailableError("chunk boom")
	}
	return &models.ChunkSummary{
		DateFrom:  dr.From.Format("2006-01-02"),
		DateTo:    dr.To.Format("2006-01-02"),
		CallCount: len(records),
	}, nil
}

func (f *fakeSynthesizer) SynthesizeFromSummaries(ctx context.Context, summaries []models.ChunkSummary, dr models.DateRange, totalCalls int) (*models.TrendAnalysis, error) {
	f.reduceCalls++
	f.lastSummaries = summaries
	f.lastTotalCalls = totalCalls
	if f.reduceErr != nil {
		return nil, f.reduceErr
	}
	return &models.TrendAnalysis{
		Summary:     fmt.Sprintf("reduced %d summaries", len(summaries)),
		PeriodStats: models.PeriodStats{CallCount: totalCalls},
	}, nil
}

// ==========================
// Hierarchical Analyzer Tests
// ==========================

func TestHierarchicalAnalyzer_MapReduce(t *testing.T) {
	synth := newFakeSynthesizer()
	analyzer := NewHierarchicalAnalyzer(synth, 5, 25, logger.NewNoOpLogger())

	evals := makeEvals(150, time.Date(2026, 1, 4, 8, 0, 0, 0, time.UTC), 3*time.Hour)
	dr := models.DateRange{From: evals[0].CreatedAt, To: evals[len(evals)-1].CreatedAt}

	result, err := analyzer.Analyze(context.Background(), evals, dr)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.ChunksAnalyzed, 1)
	assert.Len(t, result.CallsPerChunk, result.ChunksAnalyzed)

	sum := 0
	for _, n := range result.CallsPerChunk {
		sum += n
	}
	assert.Equal(t, 150, sum, "every record summarized exactly once")

	assert.Equal(t, result.ChunksAnalyzed, synth.chunkCalls)
	assert.Equal(t, 1, synth.reduceCalls)
	assert.Equal(t, 150, synth.lastTotalCalls)
	assert.Len(t, synth.lastSummaries, result.ChunksAnalyzed)
}

func TestHierarchicalAnalyzer_ChunkFailureAborts(t *testing.T) {
	synth := newFakeSynthesizer()
	synth.failChunkIndex = 1
	analyzer := NewHierarchicalAnalyzer(synth, 5, 25, logger.NewNoOpLogger())

	evals := makeEvals(120, time.Date(2026, 1, 4, 8, 0, 0, 0, time.UTC), 3*time.Hour)
	dr := models.DateRange{From: evals[0].CreatedAt, To: evals[len(evals)-1].CreatedAt}

	_, err := analyzer.Analyze(context.Background(), evals, dr)

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeChunkSynthesisFailed, stdErr.Code)
	assert.Equal(t, 1, stdErr.Metadata["chunkIndex"])

	// No partial result: the reduce stage never ran
	assert.Equal(t, 0, synth.reduceCalls)
	// Map stage stopped at the failing chunk
	assert.Equal(t, 2, synth.chunkCalls)
}

func TestHierarchicalAnalyzer_ReduceFailurePropagates(t *testing.T) {
	synth := newFakeSynthesizer()
	synth.reduceErr = errors.NewSynthesisRateLimitedError("reduce limited")
	analyzer := NewHierarchicalAnalyzer(synth, 5, 25, logger.NewNoOpLogger())

	evals := makeEvals(110, time.Date(2026, 1, 4, 8, 0, 0, 0, time.UTC), 3*time.Hour)
	dr := models.DateRange{From: evals[0].CreatedAt, To: evals[len(evals)-1].CreatedAt}

	_, err := analyzer.Analyze(context.Background(), evals, dr)

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	// The reduce failure keeps its own classification
	assert.Equal(t, errors.ErrCodeSynthesisRateLimited, stdErr.Code)
}

func TestHierarchicalAnalyzer_ChunkSubRanges(t *testing.T) {
	synth := newFakeSynthesizer()
	analyzer := NewHierarchicalAnalyzer(synth, 5, 25, logger.NewNoOpLogger())

	evals := makeEvals(150, time.Date(2026, 1, 4, 8, 0, 0, 0, time.UTC), 3*time.Hour)
	dr := models.DateRange{From: evals[0].CreatedAt, To: evals[len(evals)-1].CreatedAt}

	result, err := analyzer.Analyze(context.Background(), evals, dr)
	require.NoError(t, err)

	// Summaries carry contiguous, ordered sub-ranges
	var prev string
	for i, summary := range synth.lastSummaries {
		assert.NotEmpty(t, summary.DateFrom, "chunk %d", i)
		assert.GreaterOrEqual(t, summary.DateTo, summary.DateFrom)
		if prev != "" {
			assert.GreaterOrEqual(t, summary.DateFrom, prev)
		}
		prev = summary.DateTo
	}
	assert.Equal(t, len(synth.lastSummaries), result.ChunksAnalyzed)
}
