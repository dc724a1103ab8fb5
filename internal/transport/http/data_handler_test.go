package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lcpulse/internal/config"
)

func dataFixture(t *testing.T) (*DataHandler, *config.Paths) {
	t.Helper()
	paths := config.PathsFor(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())
	return NewDataHandler(paths, nil), paths
}

func TestListDatasets(t *testing.T) {
	handler, paths := dataFixture(t)

	require.NoError(t, os.WriteFile(filepath.Join(paths.RawDir, "training_set.csv"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(paths.RawDir, "notes.txt"), []byte("x"), 0644))

	rec := httptest.NewRecorder()
	handler.ListDatasets(rec, httptest.NewRequest(http.MethodGet, "/api/datasets", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Datasets []FileInfo `json:"datasets"`
		Count    int        `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	// Only CSV files are listed
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "training_set.csv", body.Datasets[0].Name)
}

func TestListDatasetsEmptyDir(t *testing.T) {
	handler, _ := dataFixture(t)

	rec := httptest.NewRecorder()
	handler.ListDatasets(rec, httptest.NewRequest(http.MethodGet, "/api/datasets", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Count)
}

func TestListSnapshots(t *testing.T) {
	handler, paths := dataFixture(t)

	require.NoError(t, os.WriteFile(paths.FeaturesCSV, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(paths.SummaryReport, []byte("x"), 0644))

	rec := httptest.NewRecorder()
	handler.ListSnapshots(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Snapshots []FileInfo `json:"snapshots"`
		Count     int        `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
}

func TestHealthCheck(t *testing.T) {
	handler := NewHealthHandler(nil)

	rec := httptest.NewRecorder()
	handler.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "lcpulse", body["service"])
}
