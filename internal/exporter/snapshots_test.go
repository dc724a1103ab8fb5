package exporter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lcpulse/internal/lightcurve"
)

func snapshotRow(objectID int64, step int, mjd, flux, fluxDelta, mjdDelta float64, pb lightcurve.Passband, detected bool) lightcurve.FeatureRow {
	return lightcurve.FeatureRow{
		Observation: lightcurve.Observation{
			ObjectID: objectID,
			MJD:      mjd,
			Passband: pb,
			Flux:     flux,
			FluxErr:  2.0,
			Detected: detected,
		},
		Step:      step,
		FluxDelta: fluxDelta,
		MJDDelta:  mjdDelta,
	}
}

func snapshotRows() []lightcurve.FeatureRow {
	return []lightcurve.FeatureRow{
		snapshotRow(615, 0, 59750.0, 10.0, 0, 0, lightcurve.PassbandG, true),
		snapshotRow(615, 1, 59755.0, 20.0, 10.0, 5.0, lightcurve.PassbandR, true),
		snapshotRow(713, 0, 59800.0, -4.0, 0, 0, lightcurve.PassbandU, false),
	}
}

func TestSaveFeaturesCSV(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "features", "features.csv")

	require.NoError(t, SaveFeaturesCSV(snapshotRows(), outputPath))

	records := readCSVSkippingBOM(t, outputPath)
	require.Len(t, records, 4) // header + 3 rows

	assert.Equal(t, []string{
		"object_id", "mjd", "passband", "flux", "flux_err", "detected",
		"step", "flux_delta", "mjd_delta", "flux_log", "flux_err_log",
	}, records[0])

	assert.Equal(t, "615", records[1][0])
	assert.Equal(t, "0", records[1][6])
	assert.Equal(t, "1", records[2][6])
	assert.Equal(t, "1", records[1][5]) // detected
	assert.Equal(t, "0", records[3][5])
}

func TestSaveFeaturesCSVEmpty(t *testing.T) {
	err := SaveFeaturesCSV(nil, filepath.Join(t.TempDir(), "features.csv"))
	assert.Error(t, err)
}

func TestSaveSummaryCSV(t *testing.T) {
	summaries, err := lightcurve.Summarize(snapshotRows())
	require.NoError(t, err)

	outputPath := filepath.Join(t.TempDir(), "object_summary.csv")
	require.NoError(t, SaveSummaryCSV(summaries, outputPath))

	records := readCSVSkippingBOM(t, outputPath)
	require.Len(t, records, 3) // header + 2 objects

	assert.Equal(t, "object_id", records[0][0])
	assert.Equal(t, "615", records[1][0])
	assert.Equal(t, "2", records[1][1]) // observations
	assert.Equal(t, "713", records[2][0])
}

func TestSaveSummaryCSVEmpty(t *testing.T) {
	err := SaveSummaryCSV(nil, filepath.Join(t.TempDir(), "object_summary.csv"))
	assert.Error(t, err)
}
