// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Analysis errors
	ErrCodeNoData                ErrorCode = "NO_DATA"
	ErrCodeChunkSynthesisFailed  ErrorCode = "CHUNK_SYNTHESIS_FAILED"
	ErrCodeInvalidDateRange      ErrorCode = "INVALID_DATE_RANGE"
	ErrCodeInvalidScope          ErrorCode = "INVALID_SCOPE"
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"

	// Synthesis service errors
	ErrCodeSynthesisRateLimited   ErrorCode = "SYNTHESIS_RATE_LIMITED"
	ErrCodeSynthesisQuotaExceeded ErrorCode = "SYNTHESIS_QUOTA_EXCEEDED"
	ErrCodeSynthesisUnavailable   ErrorCode = "SYNTHESIS_UNAVAILABLE"
	ErrCodeSynthesisFailed        ErrorCode = "SYNTHESIS_FAILED"
	ErrCodeSynthesisTimeout       ErrorCode = "SYNTHESIS_TIMEOUT"

	// Storage errors
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeCacheWriteFailed ErrorCode = "CACHE_WRITE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodeOf returns the error code of a StandardError, or INTERNAL_ERROR for
// anything else. Useful as a metrics label.
func CodeOf(err error) string {
	if stdErr, ok := err.(*StandardError); ok {
		return string(stdErr.Code)
	}
	return "INTERNAL_ERROR"
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewNoDataError creates a non-retryable error for a range with zero evaluations.
func NewNoDataError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoData,
		Message:   "No call evaluations found in the requested date range",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidDateRangeError creates a non-retryable date range error.
func NewInvalidDateRangeError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidDateRange,
		Message:   "Invalid analysis date range",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidScopeError creates a non-retryable scope error.
func NewInvalidScopeError(scope string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidScope,
		Message:   "Unsupported aggregate scope",
		Details:   fmt.Sprintf("scope: %s", scope),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInputValidationFailedError creates a non-retryable input validation error.
func NewInputValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputValidationFailed,
		Message:   "Job input failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSynthesisRateLimitedError creates a retryable rate-limit error.
// The caller may retry after a short delay.
func NewSynthesisRateLimitedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSynthesisRateLimited,
		Message:   "Synthesis service rate limit reached, try again shortly",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSynthesisQuotaExceededError creates a non-retryable quota error.
// Recovery requires operator action, not retries.
func NewSynthesisQuotaExceededError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSynthesisQuotaExceeded,
		Message:   "Synthesis service quota exceeded",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSynthesisUnavailableError creates a retryable availability error.
func NewSynthesisUnavailableError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSynthesisUnavailable,
		Message:   "Synthesis service temporarily unavailable",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSynthesisFailedError creates a generic synthesis failure.
func NewSynthesisFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSynthesisFailed,
		Message:   "Synthesis service error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSynthesisTimeoutError creates a retryable synthesis timeout error.
func NewSynthesisTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSynthesisTimeout,
		Message:   "Synthesis call exceeded timeout threshold",
		Details:   "context deadline exceeded",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewChunkSynthesisFailedError wraps a map-stage failure with the index of the
// failing chunk. A hierarchical run never reports partial results.
func NewChunkSynthesisFailedError(chunkIndex int, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeChunkSynthesisFailed,
		Message:   fmt.Sprintf("Chunk %d synthesis failed, aborting hierarchical analysis", chunkIndex),
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"chunkIndex": chunkIndex},
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheWriteFailedError records a best-effort cache write failure. It is
// logged by the orchestrator and never propagated to callers.
func NewCacheWriteFailedError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheWriteFailed,
		Message:   "Trend cache write failed",
		Details:   fmt.Sprintf("key: %s, error: %s", key, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (identical
// by convention, kept explicit so renames stay deliberate).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeNoData:                        "NO_DATA",
	ErrCodeInvalidDateRange:              "INVALID_DATE_RANGE",
	ErrCodeInvalidScope:                  "INVALID_SCOPE",
	ErrCodeInputValidationFailed:         "INPUT_VALIDATION_FAILED",
	ErrCodeSynthesisRateLimited:          "SYNTHESIS_RATE_LIMITED",
	ErrCodeSynthesisQuotaExceeded:        "SYNTHESIS_QUOTA_EXCEEDED",
	ErrCodeSynthesisUnavailable:          "SYNTHESIS_UNAVAILABLE",
	ErrCodeSynthesisFailed:               "SYNTHESIS_FAILED",
	ErrCodeSynthesisTimeout:              "SYNTHESIS_TIMEOUT",
	ErrCodeChunkSynthesisFailed:          "CHUNK_SYNTHESIS_FAILED",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeSearchQueryFailed:             "SEARCH_QUERY_FAILED",
	ErrCodeCacheWriteFailed:              "CACHE_WRITE_FAILED",
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSynthesisRateLimited,
		ErrCodeSynthesisUnavailable,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout:
		return 2 // Partial retry for timeouts

	case ErrCodeSynthesisFailed,
		ErrCodeSynthesisTimeout:
		return 1 // As per BPMN boundary event

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	errVars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		errVars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: errVars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SYNTHESIS"):
		return "SYNTHESIS"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case codeStr == "NO_DATA":
		return "BUSINESS"
	default:
		return "OTHER"
	}
}
