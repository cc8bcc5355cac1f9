// internal/trend/tier.go
package trend

import (
	"coaching-workers/internal/models"
)

// Default tier boundaries. DirectMax keeps a single synthesis call inside the
// service's reliable context size; SamplingMax is the largest volume one
// stratified sample can still represent.
const (
	DefaultDirectMax   = 50
	DefaultSamplingMax = 100
)

// ClassifyTier maps a call count to the analysis strategy:
// count <= directMax -> direct, <= samplingMax -> sampled, above -> hierarchical.
func ClassifyTier(count, directMax, samplingMax int) models.AnalysisTier {
	if directMax <= 0 {
		directMax = DefaultDirectMax
	}
	if samplingMax <= 0 {
		samplingMax = DefaultSamplingMax
	}

	switch {
	case count <= directMax:
		return models.TierDirect
	case count <= samplingMax:
		return models.TierSampled
	default:
		return models.TierHierarchical
	}
}
