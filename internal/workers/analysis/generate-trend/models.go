// internal/workers/analysis/generate-trend/models.go
package generatetrend

import (
	"fmt"
	"time"

	"coaching-workers/internal/common/errors"
	"coaching-workers/internal/models"
)

type Input struct {
	RepID        string `json:"repId"`
	DateFrom     string `json:"dateFrom"`
	DateTo       string `json:"dateTo"`
	ForceRefresh bool   `json:"forceRefresh,omitempty"`
}

// ParseDateRange converts the RFC3339 input bounds to a DateRange.
func (i *Input) ParseDateRange() (models.DateRange, error) {
	from, err := time.Parse(time.RFC3339, i.DateFrom)
	if err != nil {
		return models.DateRange{}, errors.NewInvalidDateRangeError(fmt.Sprintf("dateFrom: %v", err))
	}
	to, err := time.Parse(time.RFC3339, i.DateTo)
	if err != nil {
		return models.DateRange{}, errors.NewInvalidDateRangeError(fmt.Sprintf("dateTo: %v", err))
	}
	return models.DateRange{From: from, To: to}, nil
}

type Output struct {
	Analysis *models.TrendAnalysis   `json:"analysis"`
	Metadata models.AnalysisMetadata `json:"metadata"`
}
