// internal/models/trend.go
package models

import "time"

// AnalysisTier is the strategy selected for a trend run based on volume.
type AnalysisTier string

const (
	TierDirect       AnalysisTier = "direct"
	TierSampled      AnalysisTier = "sampled"
	TierHierarchical AnalysisTier = "hierarchical"
)

// ChunkSummary is the map-stage output for one weekly chunk. It only lives
// long enough to feed the reduce stage.
type ChunkSummary struct {
	DateFrom          string             `json:"dateFrom"`
	DateTo            string             `json:"dateTo"`
	CallCount         int                `json:"callCount"`
	FrameworkAverages map[string]float64 `json:"frameworkAverages,omitempty"`
	FrameworkTrends   map[string]string  `json:"frameworkTrends,omitempty"`
	TopMissingInfo    []string           `json:"topMissingInfo,omitempty"`
	ImprovementThemes []string           `json:"improvementThemes,omitempty"`
	Observations      string             `json:"observations,omitempty"`
}

// FrameworkTrend describes how one qualification dimension moved across the
// analyzed period.
type FrameworkTrend struct {
	Direction       string  `json:"direction"`
	StartingAverage float64 `json:"startingAverage"`
	EndingAverage   float64 `json:"endingAverage"`
	Insight         string  `json:"insight,omitempty"`
	Evidence        string  `json:"evidence,omitempty"`
	Recommendation  string  `json:"recommendation,omitempty"`
}

// PeriodStats summarizes the analyzed batch as a whole.
type PeriodStats struct {
	CallCount    int      `json:"callCount"`
	AvgHeatScore *float64 `json:"avgHeatScore,omitempty"`
	HeatTrend    string   `json:"heatTrend,omitempty"`
}

// PatternAnalysis tracks how information gaps and follow-up themes evolved.
type PatternAnalysis struct {
	PersistentGaps []string `json:"persistentGaps,omitempty"`
	NewGaps        []string `json:"newGaps,omitempty"`
	ResolvedGaps   []string `json:"resolvedGaps,omitempty"`
	FollowUpThemes []string `json:"followUpThemes,omitempty"`
}

// PriorityAction is one ranked coaching action item.
type PriorityAction struct {
	Rank      int    `json:"rank"`
	Action    string `json:"action"`
	Rationale string `json:"rationale,omitempty"`
}

// TrendAnalysis is the structured result of a trend run and the unit that
// gets cached. Sub-objects accrete over time; all of them default to their
// zero value so consumers never branch on presence.
type TrendAnalysis struct {
	Summary         string                    `json:"summary"`
	PeriodStats     PeriodStats               `json:"periodStats"`
	Frameworks      map[string]FrameworkTrend `json:"frameworks,omitempty"`
	Patterns        PatternAnalysis           `json:"patterns"`
	PriorityActions []PriorityAction          `json:"priorityActions,omitempty"`
}

// EmptyTrendAnalysis returns a TrendAnalysis with all collections allocated,
// so partial decodes from the synthesis service stay total.
func EmptyTrendAnalysis() *TrendAnalysis {
	return &TrendAnalysis{
		Frameworks:      map[string]FrameworkTrend{},
		PriorityActions: []PriorityAction{},
	}
}

// SamplingInfo records what the stratified sampler did for a sampled run.
type SamplingInfo struct {
	Method        string `json:"method"`
	OriginalCount int    `json:"originalCount"`
	SampledCount  int    `json:"sampledCount"`
}

// HierarchicalInfo records the chunk layout of a hierarchical run.
type HierarchicalInfo struct {
	ChunksAnalyzed int   `json:"chunksAnalyzed"`
	CallsPerChunk  []int `json:"callsPerChunk"`
}

// AnalysisMetadata accompanies every TrendAnalysis returned to a caller.
// AnalyzedCalls is always <= TotalCalls; exactly one of SamplingInfo or
// HierarchicalInfo is set for the non-direct tiers.
type AnalysisMetadata struct {
	Tier             AnalysisTier      `json:"tier"`
	TotalCalls       int               `json:"totalCalls"`
	AnalyzedCalls    int               `json:"analyzedCalls"`
	SamplingInfo     *SamplingInfo     `json:"samplingInfo,omitempty"`
	HierarchicalInfo *HierarchicalInfo `json:"hierarchicalInfo,omitempty"`
}

// RepContribution is one rep's share of a multi-rep batch.
type RepContribution struct {
	RepID             string             `json:"repId"`
	RepName           string             `json:"repName"`
	TeamName          string             `json:"teamName,omitempty"`
	CallCount         int                `json:"callCount"`
	PercentageOfTotal float64            `json:"percentageOfTotal"`
	AvgHeatScore      *float64           `json:"avgHeatScore,omitempty"`
	FrameworkAverages map[string]float64 `json:"frameworkAverages,omitempty"`
}

// AggregateMetadata extends AnalysisMetadata for team/organization runs.
type AggregateMetadata struct {
	AnalysisMetadata
	Scope         string            `json:"scope"`
	TeamID        string            `json:"teamId,omitempty"`
	RepCount      int               `json:"repCount"`
	Contributions []RepContribution `json:"contributions"`
}

// CacheEntry is a stored trend result plus the freshness proxy it was
// computed against.
type CacheEntry struct {
	Analysis   *TrendAnalysis `json:"analysis"`
	CallCount  int            `json:"callCount"`
	ComputedAt time.Time      `json:"computedAt"`
}
