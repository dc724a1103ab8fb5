package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lcpulse/internal/operations"
)

// stubOperationService is a canned OperationService for handler tests
type stubOperationService struct {
	lastRequest operations.OperationRequest
	executeResp *operations.OperationResponse
	executeErr  error
	states      map[string]*operations.OperationState
	cancelErr   error
}

func (s *stubOperationService) Execute(ctx context.Context, req operations.OperationRequest) (*operations.OperationResponse, error) {
	s.lastRequest = req
	if s.executeErr != nil {
		return nil, s.executeErr
	}
	if s.executeResp != nil {
		return s.executeResp, nil
	}
	return &operations.OperationResponse{
		ID:       req.ID,
		Status:   operations.OperationStatusCompleted,
		Duration: time.Second,
		Steps:    map[string]*operations.StepState{},
	}, nil
}

func (s *stubOperationService) GetOperation(id string) (*operations.OperationState, error) {
	state, ok := s.states[id]
	if !ok {
		return nil, errors.New("operation not found")
	}
	return state, nil
}

func (s *stubOperationService) ListOperations() []*operations.OperationState {
	list := make([]*operations.OperationState, 0, len(s.states))
	for _, state := range s.states {
		list = append(list, state)
	}
	return list
}

func (s *stubOperationService) CancelOperation(id string) error {
	return s.cancelErr
}

func newOperationsServer(t *testing.T, svc *stubOperationService) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewOperationsHandler(svc, nil).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestStartOperation(t *testing.T) {
	svc := &stubOperationService{}
	srv := newOperationsServer(t, svc)

	resp := postJSON(t, srv.URL+"/", map[string]interface{}{
		"step":       "full_pipeline",
		"object_ids": []int64{615, 713},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, string(operations.OperationStatusCompleted), body["status"])
	assert.NotEmpty(t, body["id"])

	assert.Equal(t, "full_pipeline", svc.lastRequest.Step)
	assert.Equal(t, []int64{615, 713}, svc.lastRequest.ObjectIDs)
}

func TestStartOperationParameterOverrides(t *testing.T) {
	svc := &stubOperationService{}
	srv := newOperationsServer(t, svc)

	resp := postJSON(t, srv.URL+"/", map[string]interface{}{
		"fill_value":  -999.0,
		"max_workers": 8,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, -999.0, svc.lastRequest.Parameters[operations.ContextKeyFillValue])
	assert.Equal(t, 8, svc.lastRequest.Parameters[operations.ContextKeyMaxWorkers])
}

func TestStartOperationRejectsUnknownStep(t *testing.T) {
	svc := &stubOperationService{}
	srv := newOperationsServer(t, svc)

	resp := postJSON(t, srv.URL+"/", map[string]interface{}{
		"step": "scrape",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStartOperationRejectsBadObjectIDs(t *testing.T) {
	svc := &stubOperationService{}
	srv := newOperationsServer(t, svc)

	resp := postJSON(t, srv.URL+"/", map[string]interface{}{
		"object_ids": []int64{-1},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStartOperationExecutionFailure(t *testing.T) {
	svc := &stubOperationService{executeErr: errors.New("no csv files")}
	srv := newOperationsServer(t, svc)

	resp := postJSON(t, srv.URL+"/", map[string]interface{}{})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "OPERATION_EXECUTION_FAILED", body["error_code"])
}

func TestGetOperation(t *testing.T) {
	state := operations.NewOperationState("op-1")
	state.Start()
	state.Complete()

	svc := &stubOperationService{states: map[string]*operations.OperationState{"op-1": state}}
	srv := newOperationsServer(t, svc)

	resp, err := http.Get(srv.URL + "/op-1")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "op-1", body["id"])
	assert.Equal(t, string(operations.OperationStatusCompleted), body["status"])
}

func TestGetOperationNotFound(t *testing.T) {
	svc := &stubOperationService{states: map[string]*operations.OperationState{}}
	srv := newOperationsServer(t, svc)

	resp, err := http.Get(srv.URL + "/missing")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListOperations(t *testing.T) {
	state := operations.NewOperationState("op-1")
	svc := &stubOperationService{states: map[string]*operations.OperationState{"op-1": state}}
	srv := newOperationsServer(t, svc)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["count"])
}

func TestListOperationsInvalidStatusFilter(t *testing.T) {
	svc := &stubOperationService{}
	srv := newOperationsServer(t, svc)

	resp, err := http.Get(srv.URL + "/?status=bogus")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCancelOperation(t *testing.T) {
	svc := &stubOperationService{}
	srv := newOperationsServer(t, svc)

	resp := postJSON(t, srv.URL+"/op-1/cancel", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCancelOperationNotFound(t *testing.T) {
	svc := &stubOperationService{cancelErr: errors.New("not found")}
	srv := newOperationsServer(t, svc)

	resp := postJSON(t, srv.URL+"/op-1/cancel", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
