package operations

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lcpulse/internal/infrastructure"
)

// WebSocketHub is the broadcasting surface the manager needs. Satisfied by
// *websocket.Hub; a nil hub disables broadcasting.
type WebSocketHub interface {
	BroadcastProgress(operationID, stepID string, progress int, message string)
	BroadcastStatus(operationID string, status string)
	BroadcastError(operationID, stepID, message string)
}

// Manager orchestrates operation execution
type Manager struct {
	registry *Registry
	config   *Config
	hub      WebSocketHub
	logger   *slog.Logger
	metrics  *infrastructure.PipelineMetrics

	// Active and recently finished operations
	mu         sync.RWMutex
	operations map[string]*OperationState
}

// NewManager creates a new operation manager with dependency injection
func NewManager(hub WebSocketHub, registry *Registry, config *Config, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		registry:   registry,
		config:     config,
		hub:        hub,
		logger:     logger,
		operations: make(map[string]*OperationState),
	}
}

// RegisterStep registers a step with the operation
func (m *Manager) RegisterStep(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the registry for accessing registered steps
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// SetMetrics attaches pipeline metrics. A nil value disables recording.
func (m *Manager) SetMetrics(metrics *infrastructure.PipelineMetrics) {
	m.metrics = metrics
}

// Execute runs an operation with the given request
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if req.ID == "" {
		req.ID = fmt.Sprintf("operation-%d", time.Now().UnixNano())
	}

	state := NewOperationState(req.ID)

	if req.InputDir != "" {
		state.SetConfig(ContextKeyInputDir, req.InputDir)
	}
	if len(req.ObjectIDs) > 0 {
		state.SetConfig(ContextKeyObjectIDs, req.ObjectIDs)
	}
	for k, v := range req.Parameters {
		state.SetConfig(k, v)
	}

	m.storeOperation(state)

	// Determine which steps to run
	var steps []Step
	if req.Step != "" && req.Step != "full_pipeline" {
		requestedStep, err := m.registry.Get(req.Step)
		if err != nil {
			m.logger.ErrorContext(ctx, "requested step not found",
				slog.String("step_id", req.Step),
				slog.String("operation_id", req.ID))
			state.Fail(err)
			return m.createResponse(state), err
		}
		steps = []Step{requestedStep}

		m.logger.InfoContext(ctx, "executing single step",
			slog.String("step_id", req.Step),
			slog.String("operation_id", req.ID))
	} else {
		var err error
		steps, err = m.registry.GetDependencyOrder()
		if err != nil {
			state.Fail(err)
			return m.createResponse(state), fmt.Errorf("resolve dependency order: %w", err)
		}

		m.logger.InfoContext(ctx, "executing full pipeline",
			slog.Int("step_count", len(steps)),
			slog.String("operation_id", req.ID))
	}

	for _, step := range steps {
		state.SetStep(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	state.Start()
	m.broadcastStatus(req.ID, string(OperationStatusRunning))

	if m.metrics != nil {
		m.metrics.OperationActiveOperations.Add(ctx, 1)
		defer m.metrics.OperationActiveOperations.Add(ctx, -1)
	}

	err := m.executeSequential(ctx, state, steps)

	switch {
	case state.GetStatus() == OperationStatusCancelled:
		// CancelOperation already set and broadcast the final status;
		// it must not be clobbered by Complete/Fail.
		m.logger.InfoContext(ctx, "operation cancelled during execution",
			slog.String("operation_id", req.ID))
	case err != nil:
		state.Fail(err)
		m.broadcastStatus(req.ID, string(OperationStatusFailed))
	default:
		state.Complete()
		m.broadcastStatus(req.ID, string(OperationStatusCompleted))
	}

	m.recordOperationOutcome(ctx, state, err)

	return m.createResponse(state), err
}

// recordOperationOutcome records the run itself plus the dataset counters
// the steps left in the operation context
func (m *Manager) recordOperationOutcome(ctx context.Context, state *OperationState, err error) {
	if m.metrics == nil {
		return
	}

	infrastructure.RecordOperationMetrics(ctx, m.metrics, state.ID, state.Duration(), err == nil, err)

	if n, ok := contextInt(state, ContextKeyRowsLoaded); ok {
		m.metrics.ObservationsLoaded.Add(ctx, int64(n))
	}
	if n, ok := contextInt(state, ContextKeyRowsSkipped); ok {
		m.metrics.MalformedRecords.Add(ctx, int64(n))
	}
	if n, ok := contextInt(state, ContextKeyObjectCount); ok {
		m.metrics.ObjectsProcessed.Add(ctx, int64(n))
	}
	if n, ok := contextInt(state, ContextKeyRowsProduced); ok {
		m.metrics.FeatureRowsProduced.Add(ctx, int64(n))
	}
}

// contextInt reads an int counter a step stored in the operation context
func contextInt(state *OperationState, key string) (int, bool) {
	v, ok := state.GetContext(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

// executeSequential executes steps one by one.
// The pipeline is inherently sequential: each step consumes the previous
// step's output through the operation context.
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	for i, step := range steps {
		select {
		case <-ctx.Done():
			m.logger.WarnContext(ctx, "operation cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			return NewCancellationError(step.ID())
		default:
		}

		stepState := state.GetStep(step.ID())
		if stepState != nil && stepState.Status == StepStatusSkipped {
			continue
		}

		m.logger.InfoContext(ctx, "executing step",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := m.executeStep(ctx, state, step); err != nil {
			if !m.config.ContinueOnError {
				m.skipDependentSteps(state, steps, step.ID())
				return err
			}
			m.logger.WarnContext(ctx, "step failed, continuing",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("error", err.Error()))
		}
	}

	m.logger.InfoContext(ctx, "all steps finished",
		slog.String("operation_id", state.ID))
	return nil
}

// executeStep executes a single step with retry logic
func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStep(step.ID())
	if stepState == nil {
		return NewFatalError("step state not found", nil)
	}

	if err := m.checkDependencies(state, step); err != nil {
		stepState.Skip(fmt.Sprintf("Dependencies not met: %v", err))
		m.broadcastProgress(state.ID, step.ID(), int(stepState.Progress), stepState.Message)
		return err
	}

	if err := step.Validate(state); err != nil {
		stepState.Skip(fmt.Sprintf("Validation failed: %v", err))
		m.broadcastProgress(state.ID, step.ID(), int(stepState.Progress), stepState.Message)
		return NewValidationError(step.ID(), err.Error())
	}

	timeout := m.config.GetStepTimeout(step.ID())
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	retryConfig := m.config.RetryConfig
	var lastErr error

	for attempt := 1; attempt <= retryConfig.MaxAttempts; attempt++ {
		stepState.Start()
		m.broadcastProgress(state.ID, step.ID(), 0, "Step started")

		startTime := time.Now()
		err := step.Execute(stepCtx, state)
		duration := time.Since(startTime)

		infrastructure.RecordStepMetrics(ctx, m.metrics, state.ID, step.ID(), duration, err == nil)

		if err == nil {
			stepState.Complete()
			m.logger.InfoContext(ctx, "step completed",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.Duration("duration", duration))
			m.broadcastProgress(state.ID, step.ID(), 100, "Step completed successfully")
			return nil
		}

		m.logger.ErrorContext(ctx, "step execution failed",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))

		lastErr = err

		if !IsRetryable(err) || attempt >= retryConfig.MaxAttempts {
			stepState.Fail(err)
			m.broadcastError(state.ID, step.ID(), err.Error())
			return WrapError(err, step.ID(), "step execution failed")
		}

		delay := m.calculateRetryDelay(attempt, retryConfig)
		m.logger.WarnContext(ctx, "retrying step",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", retryConfig.MaxAttempts),
			slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-stepCtx.Done():
			timeoutErr := NewTimeoutError(step.ID(), timeout.String())
			stepState.Fail(timeoutErr)
			m.broadcastError(state.ID, step.ID(), timeoutErr.Error())
			return timeoutErr
		}
	}

	stepState.Fail(lastErr)
	m.broadcastError(state.ID, step.ID(), lastErr.Error())
	return WrapError(lastErr, step.ID(), "step execution failed after retries")
}

// skipDependentSteps marks all steps that depend on the failed step as skipped
func (m *Manager) skipDependentSteps(state *OperationState, steps []Step, failedStepID string) {
	for _, step := range steps {
		for _, dep := range step.GetDependencies() {
			if dep == failedStepID {
				stepState := state.GetStep(step.ID())
				if stepState != nil && stepState.Status == StepStatusPending {
					stepState.Skip(fmt.Sprintf("Dependency %s failed", failedStepID))
					m.broadcastProgress(state.ID, step.ID(), int(stepState.Progress), stepState.Message)
					m.skipDependentSteps(state, steps, step.ID())
				}
				break
			}
		}
	}
}

// checkDependencies verifies that all dependencies are satisfied
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStep(dep)
		if depState == nil {
			// Single-step runs have no dependency states; the step's own
			// Validate decides whether it can run standalone.
			continue
		}
		if depState.Status != StepStatusCompleted {
			return NewDependencyError(step.ID(), dep,
				fmt.Sprintf("dependency %s not completed (status: %s)", dep, depState.Status))
		}
	}
	return nil
}

// calculateRetryDelay calculates the delay before next retry
func (m *Manager) calculateRetryDelay(attempt int, config RetryConfig) time.Duration {
	delay := config.InitialDelay * time.Duration(float64(attempt-1)*config.Multiplier)
	if delay < config.InitialDelay {
		delay = config.InitialDelay
	}
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

// createResponse creates an operation response from state
func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	resp := &OperationResponse{
		ID:       state.ID,
		Status:   state.Status,
		Duration: state.Duration(),
		Steps:    state.Steps,
	}

	if state.Error != nil {
		resp.Error = state.Error.Error()
	}

	return resp
}

// GetOperation retrieves the state of an operation
func (m *Manager) GetOperation(id string) (*OperationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.operations[id]
	if !exists {
		return nil, fmt.Errorf("operation %s not found", id)
	}

	return state.Clone(), nil
}

// ListOperations returns all tracked operations
func (m *Manager) ListOperations() []*OperationState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	operations := make([]*OperationState, 0, len(m.operations))
	for _, state := range m.operations {
		operations = append(operations, state.Clone())
	}

	return operations
}

// CancelOperation cancels a running operation
func (m *Manager) CancelOperation(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, exists := m.operations[id]
	if !exists {
		return fmt.Errorf("operation %s not found", id)
	}

	state.Cancel()
	m.broadcastStatus(id, string(OperationStatusCancelled))
	if m.metrics != nil {
		m.metrics.OperationCancellations.Add(context.Background(), 1)
	}
	return nil
}

// storeOperation stores an operation state
func (m *Manager) storeOperation(state *OperationState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[state.ID] = state
}

func (m *Manager) broadcastProgress(operationID, stepID string, progress int, message string) {
	if m.hub != nil {
		m.hub.BroadcastProgress(operationID, stepID, progress, message)
	}
}

func (m *Manager) broadcastStatus(operationID, status string) {
	if m.hub != nil {
		m.hub.BroadcastStatus(operationID, status)
	}
}

func (m *Manager) broadcastError(operationID, stepID, message string) {
	if m.hub != nil {
		m.hub.BroadcastError(operationID, stepID, message)
	}
}
