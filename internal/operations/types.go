package operations

import (
	"time"
)

// Operation step identifiers
const (
	StepIDLoad      = "load"
	StepIDFeaturize = "featurize"
	StepIDSummarize = "summarize"
	StepIDExport    = "export"
)

// Operation step names
const (
	StepNameLoad      = "Observation Loading"
	StepNameFeaturize = "Feature Engineering"
	StepNameSummarize = "Object Summarization"
	StepNameExport    = "Snapshot Export"
)

// Context keys for operation state
const (
	ContextKeyInputDir     = "input_dir"
	ContextKeyObjectIDs    = "object_ids"
	ContextKeyFillValue    = "fill_value"
	ContextKeyMaxWorkers   = "max_workers"
	ContextKeyDataset      = "dataset"
	ContextKeyFeatureRows  = "feature_rows"
	ContextKeySummaries    = "summaries"
	ContextKeyRowsLoaded   = "rows_loaded"
	ContextKeyRowsSkipped  = "rows_skipped"
	ContextKeyObjectCount  = "object_count"
	ContextKeyRowsProduced = "rows_produced"
	ContextKeyOutputFiles  = "output_files"
)

// WebSocket event types - using frontend format
const (
	EventTypeOperationStatus   = "operation:status"
	EventTypeOperationProgress = "operation:progress"
	EventTypeOperationComplete = "operation:complete"
	EventTypeOperationError    = "operation:error"
)

// Default timeouts
const (
	DefaultStepTimeout      = 10 * time.Minute
	DefaultLoadTimeout      = 15 * time.Minute
	DefaultFeaturizeTimeout = 10 * time.Minute
	DefaultSummarizeTimeout = 5 * time.Minute
	DefaultExportTimeout    = 10 * time.Minute
)

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// OperationRequest represents a request to execute an operation
type OperationRequest struct {
	ID         string                 `json:"id"`
	Step       string                 `json:"step,omitempty"`
	InputDir   string                 `json:"input_dir,omitempty"`
	ObjectIDs  []int64                `json:"object_ids,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// OperationResponse represents the response from an operation execution
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Error    string                `json:"error,omitempty"`
}

// ProgressUpdate represents a progress update from a step
type ProgressUpdate struct {
	StepID   string                 `json:"step_id"`
	Progress float64                `json:"progress"`
	Message  string                 `json:"message"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
