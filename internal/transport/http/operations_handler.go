package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "lcpulse/internal/errors"
	"lcpulse/internal/middleware"
	"lcpulse/internal/operations"
)

var validate = validator.New()

// OperationsHandler handles operation-related HTTP requests
type OperationsHandler struct {
	service OperationService
	logger  *slog.Logger
}

// NewOperationsHandler creates a new operations handler
func NewOperationsHandler(service OperationService, logger *slog.Logger) *OperationsHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationsHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "operations")),
	}
}

// StartOperationRequest represents the request to start a new operation
type StartOperationRequest struct {
	Step       string   `json:"step,omitempty" validate:"omitempty,oneof=load featurize summarize export full_pipeline"`
	InputDir   string   `json:"input_dir,omitempty"`
	ObjectIDs  []int64  `json:"object_ids,omitempty" validate:"omitempty,dive,gt=0"`
	FillValue  *float64 `json:"fill_value,omitempty"`
	MaxWorkers int      `json:"max_workers,omitempty" validate:"omitempty,gte=1,lte=64"`
}

// Bind implements the render.Binder interface for request validation
func (r *StartOperationRequest) Bind(req *http.Request) error {
	return validate.Struct(r)
}

// Routes returns a chi router for operations endpoints
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Full pipeline runs can take a while on large dumps
	r.Use(middleware.Timeout(15*time.Minute, h.logger))

	r.Post("/", h.StartOperation)
	r.Get("/", h.ListOperations)
	r.Get("/{id}", h.GetOperation)
	r.Post("/{id}/cancel", h.CancelOperation)

	return r
}

// StartOperation handles POST /api/operations
func (h *OperationsHandler) StartOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetRequestID(ctx)
	tracer := otel.Tracer("operations-handler")

	ctx, span := tracer.Start(ctx, "operations_handler.start_operation",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/operations"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	data := &StartOperationRequest{}
	if err := render.Bind(r, data); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "request_validation"))

		h.logger.ErrorContext(ctx, "failed to bind operation request",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	operationID := reqID
	if operationID == "" {
		operationID = uuid.New().String()
	}

	request := operations.OperationRequest{
		ID:         operationID,
		Step:       data.Step,
		InputDir:   data.InputDir,
		ObjectIDs:  data.ObjectIDs,
		Parameters: make(map[string]interface{}),
	}
	if data.FillValue != nil {
		request.Parameters[operations.ContextKeyFillValue] = *data.FillValue
	}
	if data.MaxWorkers > 0 {
		request.Parameters[operations.ContextKeyMaxWorkers] = data.MaxWorkers
	}

	span.SetAttributes(
		attribute.String("operation.id", request.ID),
		attribute.String("operation.step", request.Step),
		attribute.Int("operation.object_filter_count", len(request.ObjectIDs)),
	)

	h.logger.InfoContext(ctx, "operation start request",
		slog.String("operation_id", request.ID),
		slog.String("step", request.Step),
		slog.String("request_id", reqID))

	execCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	start := time.Now()
	result, err := h.service.Execute(execCtx, request)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation execution failed")

		h.logger.ErrorContext(ctx, "operation execution failed",
			slog.String("operation_id", request.ID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))

		render.Render(w, r, apierrors.ErrOperationExecution(err))
		return
	}

	span.SetAttributes(
		attribute.Bool("operation.success", result.Status == operations.OperationStatusCompleted),
		attribute.Float64("operation.duration_ms", float64(result.Duration.Milliseconds())),
	)

	h.logger.InfoContext(ctx, "operation completed",
		slog.String("operation_id", request.ID),
		slog.Duration("duration", result.Duration))

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{
		"id":       result.ID,
		"status":   result.Status,
		"duration": result.Duration.String(),
		"steps":    result.Steps,
	})
}

// GetOperation handles GET /api/operations/{id}
func (h *OperationsHandler) GetOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	operationID := chi.URLParam(r, "id")

	state, err := h.service.GetOperation(operationID)
	if err != nil {
		h.logger.WarnContext(ctx, "operation not found",
			slog.String("operation_id", operationID))
		render.Render(w, r, apierrors.NotFoundError("operation"))
		return
	}

	response := map[string]interface{}{
		"id":         state.ID,
		"status":     state.Status,
		"steps":      state.Steps,
		"start_time": state.StartTime,
	}
	if state.EndTime != nil {
		response["end_time"] = state.EndTime
		response["duration"] = state.Duration().String()
	}
	if state.Error != nil {
		response["error"] = state.Error.Error()
	}

	render.JSON(w, r, response)
}

// ListOperations handles GET /api/operations
func (h *OperationsHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")
	if statusFilter != "" && !validOperationStatus(statusFilter) {
		render.Render(w, r, apierrors.ErrValidation("status",
			"must be one of pending, running, completed, failed, cancelled"))
		return
	}

	states := h.service.ListOperations()

	list := make([]map[string]interface{}, 0, len(states))
	for _, op := range states {
		if statusFilter != "" && string(op.Status) != statusFilter {
			continue
		}
		entry := map[string]interface{}{
			"id":          op.ID,
			"status":      op.Status,
			"steps_count": len(op.Steps),
			"start_time":  op.StartTime,
		}
		if op.EndTime != nil {
			entry["end_time"] = op.EndTime
			entry["duration"] = op.Duration().String()
		}
		if op.Error != nil {
			entry["error"] = op.Error.Error()
		}
		list = append(list, entry)
	}

	render.JSON(w, r, map[string]interface{}{
		"operations": list,
		"count":      len(list),
	})
}

// CancelOperation handles POST /api/operations/{id}/cancel
func (h *OperationsHandler) CancelOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	operationID := chi.URLParam(r, "id")

	if err := h.service.CancelOperation(operationID); err != nil {
		h.logger.WarnContext(ctx, "failed to cancel operation",
			slog.String("operation_id", operationID),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NotFoundError("operation"))
		return
	}

	h.logger.InfoContext(ctx, "operation cancelled",
		slog.String("operation_id", operationID))

	render.JSON(w, r, map[string]string{
		"message": "Operation cancelled successfully",
	})
}

func validOperationStatus(s string) bool {
	switch operations.OperationStatusValue(s) {
	case operations.OperationStatusPending,
		operations.OperationStatusRunning,
		operations.OperationStatusCompleted,
		operations.OperationStatusFailed,
		operations.OperationStatusCancelled:
		return true
	}
	return false
}
