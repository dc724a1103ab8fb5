package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorImplementsError(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "bad input")
	assert.Equal(t, "bad input", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", err.ErrorCode)
}

func TestNewWithDetails(t *testing.T) {
	err := NewWithDetails(http.StatusNotFound, "DATASET_NOT_FOUND", "Dataset file not found", "training_set.csv")
	assert.Equal(t, "training_set.csv", err.Details)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrDatasetNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DATASET_NOT_FOUND", resp.Error.ErrorCode)
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("dataset", "is required")
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)

	detail, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "dataset", detail.Field)
	assert.Equal(t, "is required", detail.Message)
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err  *APIError
		code int
	}{
		{ErrInvalidRequest, http.StatusBadRequest},
		{ErrOperationNotFound, http.StatusNotFound},
		{ErrRateLimitExceeded, http.StatusTooManyRequests},
		{ErrOperationFailed, http.StatusInternalServerError},
		{ErrServiceUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.err.ErrorCode, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.StatusCode)
		})
	}
}
