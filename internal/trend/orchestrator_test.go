// internal/trend/orchestrator_test.go
package trend

import (
	"context"
	"testing"
	"time"

	"coaching-workers/internal/common/config"
	"coaching-workers/internal/common/errors"
	"coaching-workers/internal/common/logger"
	"coaching-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fakes
// ==========================

type fakeStore struct {
	evals      []models.CallEvaluation
	countCalls int
	fetchCalls int
	countErr   error
	fetchErr   error
}

func (f *fakeStore) matches(repIDs []string, eval models.CallEvaluation) bool {
	for _, id := range repIDs {
		if id == eval.RepID {
			return true
		}
	}
	return false
}

func (f *fakeStore) Count(ctx context.Context, repIDs []string, dr models.DateRange) (int, error) {
	f.countCalls++
	if f.countErr != nil {
		return 0, f.countErr
	}
	n := 0
	for _, eval := range f.evals {
		if f.matches(repIDs, eval) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) Fetch(ctx context.Context, repIDs []string, dr models.DateRange) ([]models.CallEvaluation, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []models.CallEvaluation
	for _, eval := range f.evals {
		if f.matches(repIDs, eval) {
			out = append(out, eval)
		}
	}
	return out, nil
}

type fakeDirectory struct {
	reps  []models.Rep
	teams []models.Team
}

func (f *fakeDirectory) ListReps(ctx context.Context, scope, teamID string) ([]models.Rep, error) {
	if scope == "team" {
		var out []models.Rep
		for _, rep := range f.reps {
			if rep.TeamID == teamID {
				out = append(out, rep)
			}
		}
		return out, nil
	}
	return f.reps, nil
}

func (f *fakeDirectory) ListTeams(ctx context.Context) ([]models.Team, error) {
	return f.teams, nil
}

// ==========================
// Test Setup
// ==========================

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		DirectMax:         50,
		SamplingMax:       100,
		MinChunkSize:      5,
		MaxChunkSize:      25,
		AggregateCacheTTL: 300000,
	}
}

func setupOrchestrator(t *testing.T, store *fakeStore, dir *fakeDirectory, synth *fakeSynthesizer) *Orchestrator {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cache := NewCache(client, 5*time.Minute, logger.NewNoOpLogger())
	return NewOrchestrator(store, dir, synth, cache, testAnalysisConfig(), logger.NewNoOpLogger())
}

func fullRange() models.DateRange {
	return models.DateRange{
		From: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC),
	}
}

// ==========================
// Single-Rep Scenarios
// ==========================

func TestOrchestrator_DirectTier(t *testing.T) {
	store := &fakeStore{evals: makeEvals(40, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), 6*time.Hour)}
	synth := newFakeSynthesizer()
	o := setupOrchestrator(t, store, &fakeDirectory{}, synth)

	result, err := o.Generate(context.Background(), "rep-1", fullRange(), false)

	require.NoError(t, err)
	assert.Equal(t, models.TierDirect, result.Metadata.Tier)
	assert.Equal(t, 40, result.Metadata.TotalCalls)
	assert.Equal(t, 40, result.Metadata.AnalyzedCalls)
	assert.Nil(t, result.Metadata.SamplingInfo)
	assert.Nil(t, result.Metadata.HierarchicalInfo)
	assert.Equal(t, 1, synth.synthesizeCalls)
	assert.Equal(t, 40, synth.lastRecordCount)
}

func TestOrchestrator_SampledTier(t *testing.T) {
	store := &fakeStore{evals: makeEvals(75, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), 6*time.Hour)}
	synth := newFakeSynthesizer()
	o := setupOrchestrator(t, store, &fakeDirectory{}, synth)

	result, err := o.Generate(context.Background(), "rep-1", fullRange(), false)

	require.NoError(t, err)
	assert.Equal(t, models.TierSampled, result.Metadata.Tier)
	require.NotNil(t, result.Metadata.SamplingInfo)
	assert.Equal(t, "stratified_weekly", result.Metadata.SamplingInfo.Method)
	assert.Equal(t, 75, result.Metadata.SamplingInfo.OriginalCount)
	assert.LessOrEqual(t, result.Metadata.SamplingInfo.SampledCount, 50)
	assert.Equal(t, result.Metadata.SamplingInfo.SampledCount, result.Metadata.AnalyzedCalls)
	assert.LessOrEqual(t, result.Metadata.AnalyzedCalls, result.Metadata.TotalCalls)
}

func TestOrchestrator_HierarchicalTier(t *testing.T) {
	store := &fakeStore{evals: makeEvals(150, time.Date(2026, 1, 4, 9, 0, 0, 0, time.UTC), 4*time.Hour)}
	synth := newFakeSynthesizer()
	o := setupOrchestrator(t, store, &fakeDirectory{}, synth)

	result, err := o.Generate(context.Background(), "rep-1", fullRange(), false)

	require.NoError(t, err)
	assert.Equal(t, models.TierHierarchical, result.Metadata.Tier)
	require.NotNil(t, result.Metadata.HierarchicalInfo)
	assert.GreaterOrEqual(t, result.Metadata.HierarchicalInfo.ChunksAnalyzed, 1)

	sum := 0
	for _, n := range result.Metadata.HierarchicalInfo.CallsPerChunk {
		sum += n
	}
	assert.Equal(t, 150, sum)
	assert.Equal(t, 1, synth.reduceCalls)
}

func TestOrchestrator_NoData(t *testing.T) {
	store := &fakeStore{}
	synth := newFakeSynthesizer()
	o := setupOrchestrator(t, store, &fakeDirectory{}, synth)

	_, err := o.Generate(context.Background(), "rep-1", fullRange(), false)

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeNoData, stdErr.Code)
	assert.Equal(t, 0, synth.synthesizeCalls, "synthesis never invoked without data")
}

func TestOrchestrator_InvalidDateRange(t *testing.T) {
	o := setupOrchestrator(t, &fakeStore{}, &fakeDirectory{}, newFakeSynthesizer())

	dr := models.DateRange{
		From: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err := o.Generate(context.Background(), "rep-1", dr, false)

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidDateRange, stdErr.Code)
}

// ==========================
// Cache Behavior
// ==========================

func TestOrchestrator_CacheHitSkipsSynthesis(t *testing.T) {
	store := &fakeStore{evals: makeEvals(40, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), 6*time.Hour)}
	synth := newFakeSynthesizer()
	o := setupOrchestrator(t, store, &fakeDirectory{}, synth)
	ctx := context.Background()

	first, err := o.Generate(ctx, "rep-1", fullRange(), false)
	require.NoError(t, err)
	require.Equal(t, 1, synth.synthesizeCalls)

	second, err := o.Generate(ctx, "rep-1", fullRange(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, synth.synthesizeCalls, "second run served from cache")
	assert.Equal(t, first.Analysis.Summary, second.Analysis.Summary)
	assert.Equal(t, models.TierDirect, second.Metadata.Tier)
	assert.Equal(t, 40, second.Metadata.TotalCalls)
}

func TestOrchestrator_CountChangeInvalidatesCache(t *testing.T) {
	evals := makeEvals(40, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), 6*time.Hour)
	store := &fakeStore{evals: evals}
	synth := newFakeSynthesizer()
	o := setupOrchestrator(t, store, &fakeDirectory{}, synth)
	ctx := context.Background()

	_, err := o.Generate(ctx, "rep-1", fullRange(), false)
	require.NoError(t, err)

	// One more evaluation lands: live count 41 vs cached 40
	extra := makeEvals(1, time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC), time.Hour)
	store.evals = append(store.evals, extra...)

	_, err = o.Generate(ctx, "rep-1", fullRange(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, synth.synthesizeCalls, "stale entry triggers recomputation")
}

func TestOrchestrator_ForceRefreshSkipsCache(t *testing.T) {
	store := &fakeStore{evals: makeEvals(40, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), 6*time.Hour)}
	synth := newFakeSynthesizer()
	o := setupOrchestrator(t, store, &fakeDirectory{}, synth)
	ctx := context.Background()

	_, err := o.Generate(ctx, "rep-1", fullRange(), false)
	require.NoError(t, err)

	_, err = o.Generate(ctx, "rep-1", fullRange(), true)
	require.NoError(t, err)

	assert.Equal(t, 2, synth.synthesizeCalls)
}

func TestOrchestrator_ChunkFailureNotCached(t *testing.T) {
	store := &fakeStore{evals: makeEvals(150, time.Date(2026, 1, 4, 9, 0, 0, 0, time.UTC), 4*time.Hour)}
	synth := newFakeSynthesizer()
	synth.failChunkIndex = 0
	o := setupOrchestrator(t, store, &fakeDirectory{}, synth)
	ctx := context.Background()

	_, err := o.Generate(ctx, "rep-1", fullRange(), false)
	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeChunkSynthesisFailed, stdErr.Code)

	// Failure left no cache entry: fixing the synthesizer reruns the pipeline
	synth.failChunkIndex = -1
	result, err := o.Generate(ctx, "rep-1", fullRange(), false)
	require.NoError(t, err)
	assert.Equal(t, models.TierHierarchical, result.Metadata.Tier)
}

// ==========================
// Aggregate Scenarios
// ==========================

func aggregateFixture() (*fakeStore, *fakeDirectory) {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	repEvals := func(repID string, n int) []models.CallEvaluation {
		evals := makeEvals(n, base, 6*time.Hour)
		for i := range evals {
			evals[i].RepID = repID
		}
		return evals
	}

	var all []models.CallEvaluation
	all = append(all, repEvals("rep-1", 20)...)
	all = append(all, repEvals("rep-2", 10)...)

	store := &fakeStore{evals: all}
	dir := &fakeDirectory{
		reps: []models.Rep{
			{ID: "rep-1", Name: "Alice", TeamID: "team-1"},
			{ID: "rep-2", Name: "Bob", TeamID: "team-1"},
			{ID: "rep-3", Name: "Cara", TeamID: "team-2"},
		},
		teams: []models.Team{
			{ID: "team-1", Name: "Enterprise"},
			{ID: "team-2", Name: "SMB"},
		},
	}
	return store, dir
}

func TestOrchestrator_GenerateAggregate_Team(t *testing.T) {
	store, dir := aggregateFixture()
	synth := newFakeSynthesizer()
	o := setupOrchestrator(t, store, dir, synth)

	result, err := o.GenerateAggregate(context.Background(), AggregateRequest{
		Scope:     "team",
		TeamID:    "team-1",
		DateRange: fullRange(),
	})

	require.NoError(t, err)
	assert.Equal(t, "team", result.Metadata.Scope)
	assert.Equal(t, "team-1", result.Metadata.TeamID)
	assert.Equal(t, 2, result.Metadata.RepCount)
	assert.Equal(t, 30, result.Metadata.TotalCalls)

	require.Len(t, result.Metadata.Contributions, 2)
	assert.Equal(t, "rep-1", result.Metadata.Contributions[0].RepID)
	assert.Equal(t, 20, result.Metadata.Contributions[0].CallCount)
	assert.Equal(t, "Enterprise", result.Metadata.Contributions[0].TeamName)

	var pctSum float64
	for _, c := range result.Metadata.Contributions {
		pctSum += c.PercentageOfTotal
	}
	assert.InDelta(t, 100.0, pctSum, 0.1)
}

func TestOrchestrator_GenerateAggregate_OrganizationOmitsIdleReps(t *testing.T) {
	store, dir := aggregateFixture()
	synth := newFakeSynthesizer()
	o := setupOrchestrator(t, store, dir, synth)

	result, err := o.GenerateAggregate(context.Background(), AggregateRequest{
		Scope:     "organization",
		DateRange: fullRange(),
	})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Metadata.RepCount)
	// rep-3 had no calls and is absent from contributions
	require.Len(t, result.Metadata.Contributions, 2)
}

func TestOrchestrator_GenerateAggregate_TTLCacheHit(t *testing.T) {
	store, dir := aggregateFixture()
	synth := newFakeSynthesizer()
	o := setupOrchestrator(t, store, dir, synth)
	ctx := context.Background()

	req := AggregateRequest{Scope: "team", TeamID: "team-1", DateRange: fullRange()}

	first, err := o.GenerateAggregate(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 1, synth.synthesizeCalls)

	second, err := o.GenerateAggregate(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 1, synth.synthesizeCalls, "TTL window serves the cached aggregate")
	assert.Equal(t, first.Metadata.Contributions, second.Metadata.Contributions)
}

func TestOrchestrator_GenerateAggregate_NoReps(t *testing.T) {
	store, dir := aggregateFixture()
	synth := newFakeSynthesizer()
	o := setupOrchestrator(t, store, dir, synth)

	_, err := o.GenerateAggregate(context.Background(), AggregateRequest{
		Scope:     "team",
		TeamID:    "team-9",
		DateRange: fullRange(),
	})

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeNoData, stdErr.Code)
}
