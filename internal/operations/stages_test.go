package operations

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lcpulse/internal/config"
)

func writeObservationsCSV(t *testing.T, dir string) {
	t.Helper()
	content := "object_id,mjd,passband,flux,flux_err,detected\n" +
		"615,59750.0,2,10.0,1.0,1\n" +
		"615,59751.5,2,15.0,1.2,1\n" +
		"615,59753.0,3,-5.0,0.8,0\n" +
		"713,59750.0,1,100.0,2.0,1\n" +
		"713,59752.0,1,90.0,2.1,1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "training_set.csv"), []byte(content), 0644))
}

func pipelineFixture(t *testing.T) (*Manager, *config.Paths) {
	t.Helper()

	paths := config.PathsFor(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())
	writeObservationsCSV(t, paths.RawDir)

	cfg := config.Default()
	cfg.Pipeline.WorkbookExport = false // keep the fixture fast

	m := NewManager(nil, nil, fastConfig(), nil)
	require.NoError(t, RegisterPipelineSteps(m, cfg, paths, nil))
	return m, paths
}

func TestPipelineEndToEnd(t *testing.T) {
	m, paths := pipelineFixture(t)

	resp, err := m.Execute(context.Background(), OperationRequest{ID: "run-1"})
	require.NoError(t, err)

	assert.Equal(t, OperationStatusCompleted, resp.Status)
	for _, stepID := range []string{StepIDLoad, StepIDFeaturize, StepIDSummarize, StepIDExport} {
		require.Contains(t, resp.Steps, stepID)
		assert.Equal(t, StepStatusCompleted, resp.Steps[stepID].Status, stepID)
	}

	// Both tabular snapshots exist
	assert.FileExists(t, paths.FeaturesCSV)
	assert.FileExists(t, paths.ObjectSummaryCSV)
	assert.FileExists(t, paths.FeaturesJSON)
	assert.FileExists(t, paths.SummaryReport)

	state, err := m.GetOperation("run-1")
	require.NoError(t, err)

	rowsLoaded, ok := state.GetContext(ContextKeyRowsLoaded)
	require.True(t, ok)
	assert.Equal(t, 5, rowsLoaded)

	rowsProduced, ok := state.GetContext(ContextKeyRowsProduced)
	require.True(t, ok)
	assert.Equal(t, 5, rowsProduced)
}

func TestPipelineObjectFilter(t *testing.T) {
	m, _ := pipelineFixture(t)

	resp, err := m.Execute(context.Background(), OperationRequest{
		ID:        "run-2",
		ObjectIDs: []int64{713},
	})
	require.NoError(t, err)
	assert.Equal(t, OperationStatusCompleted, resp.Status)

	state, err := m.GetOperation("run-2")
	require.NoError(t, err)

	rowsLoaded, _ := state.GetContext(ContextKeyRowsLoaded)
	assert.Equal(t, 2, rowsLoaded)
}

func TestPipelineEmptyInputFails(t *testing.T) {
	paths := config.PathsFor(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	m := NewManager(nil, nil, fastConfig(), nil)
	require.NoError(t, RegisterPipelineSteps(m, config.Default(), paths, nil))

	resp, err := m.Execute(context.Background(), OperationRequest{ID: "run-3"})
	require.Error(t, err)

	assert.Equal(t, OperationStatusFailed, resp.Status)
	assert.Equal(t, StepStatusFailed, resp.Steps[StepIDLoad].Status)
	assert.Equal(t, StepStatusSkipped, resp.Steps[StepIDFeaturize].Status)
	assert.Equal(t, StepStatusSkipped, resp.Steps[StepIDExport].Status)
}

func TestPipelineCustomInputDir(t *testing.T) {
	m, _ := pipelineFixture(t)

	otherDir := t.TempDir()
	writeObservationsCSV(t, otherDir)

	resp, err := m.Execute(context.Background(), OperationRequest{
		ID:       "run-4",
		InputDir: otherDir,
	})
	require.NoError(t, err)
	assert.Equal(t, OperationStatusCompleted, resp.Status)
}

func TestFeaturizeStepFillValueOverride(t *testing.T) {
	m, paths := pipelineFixture(t)

	resp, err := m.Execute(context.Background(), OperationRequest{
		ID: "run-5",
		Parameters: map[string]interface{}{
			ContextKeyFillValue: -1.0,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, OperationStatusCompleted, resp.Status)
	assert.FileExists(t, paths.FeaturesCSV)
}
