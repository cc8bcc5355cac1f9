// internal/trend/contributions.go
package trend

import (
	"math"
	"sort"

	"coaching-workers/internal/models"
)

// CalculateRepContributions computes the "who drove this trend" breakdown for
// a multi-rep batch. Reps with zero calls in the batch are omitted entirely;
// averages skip missing scores. Results are sorted by call count descending.
func CalculateRepContributions(
	evals []models.CallEvaluation,
	reps []models.Rep,
	teamNames map[string]string,
	totalCalls int,
) []models.RepContribution {
	if totalCalls == 0 || len(evals) == 0 {
		return []models.RepContribution{}
	}

	byRep := map[string][]models.CallEvaluation{}
	for _, eval := range evals {
		byRep[eval.RepID] = append(byRep[eval.RepID], eval)
	}

	contributions := make([]models.RepContribution, 0, len(reps))
	for _, rep := range reps {
		repEvals := byRep[rep.ID]
		if len(repEvals) == 0 {
			continue
		}

		contributions = append(contributions, models.RepContribution{
			RepID:             rep.ID,
			RepName:           rep.Name,
			TeamName:          teamNames[rep.TeamID],
			CallCount:         len(repEvals),
			PercentageOfTotal: roundPercent(float64(len(repEvals)) / float64(totalCalls) * 100),
			AvgHeatScore:      averageHeatScore(repEvals),
			FrameworkAverages: frameworkAverages(repEvals),
		})
	}

	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].CallCount > contributions[j].CallCount
	})

	return contributions
}

func roundPercent(v float64) float64 {
	return math.Round(v*100) / 100
}

// averageHeatScore ignores evaluations without a heat score; nil means no
// rep call carried one.
func averageHeatScore(evals []models.CallEvaluation) *float64 {
	var sum float64
	var n int
	for _, eval := range evals {
		if eval.HeatScore != nil {
			sum += *eval.HeatScore
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := math.Round(sum/float64(n)*100) / 100
	return &avg
}

// frameworkAverages averages each framework dimension across the rep's
// calls, counting only calls that scored that dimension.
func frameworkAverages(evals []models.CallEvaluation) map[string]float64 {
	sums := map[string]float64{}
	counts := map[string]int{}

	for _, eval := range evals {
		for name, fs := range eval.PrimaryFrameworks() {
			sums[name] += fs.Score
			counts[name]++
		}
	}

	if len(sums) == 0 {
		return nil
	}

	averages := make(map[string]float64, len(sums))
	for name, sum := range sums {
		averages[name] = math.Round(sum/float64(counts[name])*100) / 100
	}
	return averages
}
