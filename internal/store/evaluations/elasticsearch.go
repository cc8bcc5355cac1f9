// internal/store/evaluations/elasticsearch.go
package evaluations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coaching-workers/internal/common/errors"
	"coaching-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// esMaxPageSize bounds one search page; ranges larger than this are paged
// with search_after on the sort key.
const esMaxPageSize = 1000

// ElasticsearchStore is the alternate evaluation store backend, selected by
// analysis.evaluation_source. Documents mirror the postgres rows with a
// boolean `deleted` flag instead of a deleted_at column.
type ElasticsearchStore struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchStore(client *elasticsearch.Client, index string) *ElasticsearchStore {
	return &ElasticsearchStore{client: client, index: index}
}

type esEvaluationDoc struct {
	ID                     string                           `json:"id"`
	RepID                  string                           `json:"repId"`
	CallID                 string                           `json:"callId"`
	CreatedAt              time.Time                        `json:"createdAt"`
	Frameworks             map[string]models.FrameworkScore `json:"frameworks"`
	BANTScores             map[string]models.FrameworkScore `json:"bantScores"`
	HeatScore              *float64                         `json:"heatScore"`
	MissingInfo            []string                         `json:"missingInfo"`
	FollowUpQuestions      []string                         `json:"followUpQuestions"`
	ImprovementSuggestions string                           `json:"improvementSuggestions"`
}

func (s *ElasticsearchStore) buildQuery(repIDs []string, dr models.DateRange) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"filter": []interface{}{
				map[string]interface{}{
					"terms": map[string]interface{}{"repId": repIDs},
				},
				map[string]interface{}{
					"range": map[string]interface{}{
						"createdAt": map[string]interface{}{
							"gte": dr.From.Format(time.RFC3339),
							"lte": dr.To.Format(time.RFC3339),
						},
					},
				},
				map[string]interface{}{
					"term": map[string]interface{}{"deleted": false},
				},
			},
		},
	}
}

// Count returns the number of matching evaluation documents.
func (s *ElasticsearchStore) Count(ctx context.Context, repIDs []string, dr models.DateRange) (int, error) {
	body, _ := json.Marshal(map[string]interface{}{"query": s.buildQuery(repIDs, dr)})

	req := esapi.CountRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return 0, errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, errors.NewSearchQueryFailedError("count_evaluations", fmt.Errorf("elasticsearch status %s", res.Status()))
	}

	var parsed struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, errors.NewSearchQueryFailedError("count_evaluations", err)
	}

	return parsed.Count, nil
}

// Fetch returns matching evaluations ascending by creation time, paging with
// search_after until the range is exhausted.
func (s *ElasticsearchStore) Fetch(ctx context.Context, repIDs []string, dr models.DateRange) ([]models.CallEvaluation, error) {
	var (
		evals       []models.CallEvaluation
		searchAfter []interface{}
	)

	for {
		searchBody := map[string]interface{}{
			"query": s.buildQuery(repIDs, dr),
			"sort": []interface{}{
				map[string]interface{}{"createdAt": map[string]interface{}{"order": "asc"}},
				map[string]interface{}{"id": map[string]interface{}{"order": "asc"}},
			},
			"size": esMaxPageSize,
		}
		if searchAfter != nil {
			searchBody["search_after"] = searchAfter
		}

		body, _ := json.Marshal(searchBody)
		req := esapi.SearchRequest{
			Index: []string{s.index},
			Body:  bytes.NewReader(body),
		}

		res, err := req.Do(ctx, s.client)
		if err != nil {
			return nil, errors.NewElasticsearchConnectionFailedError(err)
		}

		hits, last, err := decodeSearchPage(res)
		if err != nil {
			return nil, err
		}

		evals = append(evals, hits...)

		if len(hits) < esMaxPageSize {
			return evals, nil
		}
		searchAfter = last
	}
}

func decodeSearchPage(res *esapi.Response) ([]models.CallEvaluation, []interface{}, error) {
	defer res.Body.Close()

	if res.IsError() {
		return nil, nil, errors.NewSearchQueryFailedError("fetch_evaluations", fmt.Errorf("elasticsearch status %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source esEvaluationDoc `json:"_source"`
				Sort   []interface{}   `json:"sort"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, nil, errors.NewSearchQueryFailedError("fetch_evaluations", err)
	}

	evals := make([]models.CallEvaluation, 0, len(parsed.Hits.Hits))
	var last []interface{}
	for _, hit := range parsed.Hits.Hits {
		doc := hit.Source
		evals = append(evals, models.CallEvaluation{
			ID:                     doc.ID,
			RepID:                  doc.RepID,
			CallID:                 doc.CallID,
			CreatedAt:              doc.CreatedAt,
			Frameworks:             doc.Frameworks,
			LegacyBANT:             doc.BANTScores,
			HeatScore:              doc.HeatScore,
			MissingInfo:            doc.MissingInfo,
			FollowUpQuestions:      doc.FollowUpQuestions,
			ImprovementSuggestions: doc.ImprovementSuggestions,
		})
		last = hit.Sort
	}

	return evals, last, nil
}
