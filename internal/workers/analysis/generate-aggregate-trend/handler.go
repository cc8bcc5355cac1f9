// internal/workers/analysis/generate-aggregate-trend/handler.go
package generateaggregatetrend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"coaching-workers/internal/common/errors"
	"coaching-workers/internal/common/logger"
	"coaching-workers/internal/common/metrics"
	"coaching-workers/internal/common/validation"
	"coaching-workers/internal/store/directory"
	"coaching-workers/internal/trend"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-aggregate-trend"
)

var inputSchema = validation.MustCompileSchema(`{
	"type": "object",
	"required": ["scope", "dateFrom", "dateTo"],
	"properties": {
		"scope": {"type": "string", "enum": ["team", "organization"]},
		"teamId": {"type": "string"},
		"dateFrom": {"type": "string", "format": "date-time"},
		"dateTo": {"type": "string", "format": "date-time"},
		"forceRefresh": {"type": "boolean"}
	}
}`)

// AggregateGenerator is the engine surface this worker drives.
type AggregateGenerator interface {
	GenerateAggregate(ctx context.Context, req trend.AggregateRequest) (*trend.AggregateResult, error)
}

type Handler struct {
	config       *Config
	engine       AggregateGenerator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, engine AggregateGenerator, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		engine:       engine,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errors.CodeOf(err)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errors.CodeOf(err)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	return nil
}

// Execute runs the aggregate trend generation for a validated input. Exported
// so tests and non-Camunda callers can drive it directly.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Scope == directory.ScopeTeam && input.TeamID == "" {
		return nil, errors.NewInputValidationFailedError("teamId is required for team scope")
	}

	dr, err := input.ParseDateRange()
	if err != nil {
		return nil, err
	}

	result, err := h.engine.GenerateAggregate(ctx, trend.AggregateRequest{
		Scope:        input.Scope,
		TeamID:       input.TeamID,
		DateRange:    dr,
		ForceRefresh: input.ForceRefresh,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("aggregate trend generated", map[string]interface{}{
		"scope":      input.Scope,
		"teamId":     input.TeamID,
		"tier":       string(result.Metadata.Tier),
		"totalCalls": result.Metadata.TotalCalls,
		"repCount":   result.Metadata.RepCount,
	})

	return &Output{Analysis: result.Analysis, Metadata: result.Metadata}, nil
}

func parseInput(variables string) (*Input, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("parse variables: %v", err))
	}

	if result := inputSchema.ValidateInput(raw); !result.Valid {
		return nil, errors.NewInputValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("decode input: %v", err))
	}
	return &input, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	// The job context may be near its deadline by now; completion gets its
	// own short window.
	sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err = cmd.Send(sendCtx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}
