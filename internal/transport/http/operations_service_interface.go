package http

import (
	"context"

	"lcpulse/internal/operations"
)

// OperationService defines the operation lifecycle surface the handler
// needs. Satisfied by *operations.Manager.
type OperationService interface {
	Execute(ctx context.Context, req operations.OperationRequest) (*operations.OperationResponse, error)
	GetOperation(id string) (*operations.OperationState, error)
	ListOperations() []*operations.OperationState
	CancelOperation(id string) error
}
