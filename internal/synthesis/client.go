// internal/synthesis/client.go
package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coaching-workers/internal/common/errors"
	"coaching-workers/internal/common/logger"
	"coaching-workers/internal/common/metrics"
	"coaching-workers/internal/models"
)

const (
	trendsEndpoint        = "/api/analysis/trends"
	chunkSummaryEndpoint  = "/api/analysis/chunk-summary"
	fromSummariesEndpoint = "/api/analysis/trends-from-summaries"
)

// Config holds the synthesis service connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client invokes the external synthesis service. It classifies failures into
// the standard taxonomy at the response boundary and never retries; retry
// policy belongs to the caller (the BPMN engine for worker jobs).
type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		// No transport-level timeout; each post derives its own deadline
		// from Config.Timeout.
		client: &http.Client{},
		logger: log.With(map[string]interface{}{
			"component": "synthesis-client",
		}),
	}
}

type trendsRequest struct {
	Records   []models.FormattedRecord `json:"records"`
	DateFrom  string                   `json:"dateFrom"`
	DateTo    string                   `json:"dateTo"`
	CallCount int                      `json:"callCount"`
}

type chunkSummaryRequest struct {
	Records    []models.FormattedRecord `json:"records"`
	ChunkIndex int                      `json:"chunkIndex"`
	DateFrom   string                   `json:"dateFrom"`
	DateTo     string                   `json:"dateTo"`
}

type fromSummariesRequest struct {
	Summaries  []models.ChunkSummary `json:"summaries"`
	DateFrom   string                `json:"dateFrom"`
	DateTo     string                `json:"dateTo"`
	TotalCalls int                   `json:"totalCalls"`
}

// Synthesize produces a trend analysis from one batch of formatted records.
func (c *Client) Synthesize(ctx context.Context, records []models.FormattedRecord, dr models.DateRange) (*models.TrendAnalysis, error) {
	req := trendsRequest{
		Records:   records,
		DateFrom:  dr.From.Format(time.RFC3339),
		DateTo:    dr.To.Format(time.RFC3339),
		CallCount: len(records),
	}

	analysis := models.EmptyTrendAnalysis()
	if err := c.post(ctx, trendsEndpoint, req, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

// SummarizeChunk produces the map-stage summary for one weekly chunk.
func (c *Client) SummarizeChunk(ctx context.Context, records []models.FormattedRecord, chunkIndex int, dr models.DateRange) (*models.ChunkSummary, error) {
	req := chunkSummaryRequest{
		Records:    records,
		ChunkIndex: chunkIndex,
		DateFrom:   dr.From.Format(time.RFC3339),
		DateTo:     dr.To.Format(time.RFC3339),
	}

	var summary models.ChunkSummary
	if err := c.post(ctx, chunkSummaryEndpoint, req, &summary); err != nil {
		return nil, err
	}
	if summary.CallCount == 0 {
		summary.CallCount = len(records)
	}
	return &summary, nil
}

// SynthesizeFromSummaries is the reduce stage: one call over all chunk
// summaries produces the final trend analysis.
func (c *Client) SynthesizeFromSummaries(ctx context.Context, summaries []models.ChunkSummary, dr models.DateRange, totalCalls int) (*models.TrendAnalysis, error) {
	req := fromSummariesRequest{
		Summaries:  summaries,
		DateFrom:   dr.From.Format(time.RFC3339),
		DateTo:     dr.To.Format(time.RFC3339),
		TotalCalls: totalCalls,
	}

	analysis := models.EmptyTrendAnalysis()
	if err := c.post(ctx, fromSummariesEndpoint, req, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload interface{}, out interface{}) error {
	start := time.Now()

	// The configured timeout bounds each synthesis call on its own; the job
	// context only wins when it expires sooner.
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.NewSynthesisFailedError(fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.NewSynthesisFailedError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("X-API-Key", c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.SynthesisCalls.WithLabelValues(endpoint, "error").Inc()
		if ctx.Err() == context.DeadlineExceeded {
			return errors.NewSynthesisTimeoutError()
		}
		return errors.NewSynthesisUnavailableError(err.Error())
	}
	defer resp.Body.Close()

	metrics.SynthesisDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err := c.classifyStatus(resp, endpoint); err != nil {
		return err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.SynthesisCalls.WithLabelValues(endpoint, "error").Inc()
		return errors.NewSynthesisFailedError(fmt.Errorf("read response: %w", err))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		metrics.SynthesisCalls.WithLabelValues(endpoint, "error").Inc()
		return errors.NewSynthesisFailedError(fmt.Errorf("empty response body"))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		metrics.SynthesisCalls.WithLabelValues(endpoint, "error").Inc()
		return errors.NewSynthesisFailedError(fmt.Errorf("decode response: %w", err))
	}

	metrics.SynthesisCalls.WithLabelValues(endpoint, "ok").Inc()
	return nil
}

// classifyStatus maps HTTP failures into the standard taxonomy. All
// downstream code sees typed errors, never raw status codes.
func (c *Client) classifyStatus(resp *http.Response, endpoint string) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))

	c.logger.Warn("synthesis call failed", map[string]interface{}{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
	})
	metrics.SynthesisCalls.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.NewSynthesisRateLimitedError(detail)

	case resp.StatusCode == http.StatusPaymentRequired ||
		strings.Contains(strings.ToLower(string(raw)), "quota"):
		return errors.NewSynthesisQuotaExceededError(detail)

	case resp.StatusCode >= 500:
		return errors.NewSynthesisUnavailableError(detail)

	default:
		return errors.NewSynthesisFailedError(fmt.Errorf("%s", detail))
	}
}
