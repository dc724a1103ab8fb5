package lightcurve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func featureRow(objectID int64, step int, mjd, flux, fluxDelta, mjdDelta float64, pb Passband, detected bool) FeatureRow {
	return FeatureRow{
		Observation: Observation{
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

func TestSummarize(t *testing.T) {
	rows := []FeatureRow{
		featureRow(615, 0, 59750.0, 10.0, 0, 0, PassbandG, true),
		featureRow(615, 1, 59755.0, 20.0, 10.0, 5.0, PassbandR, true),
		featureRow(615, 2, 59760.0, 0.0, -20.0, 5.0, PassbandG, false),
		featureRow(713, 0, 59800.0, -4.0, 0, 0, PassbandU, false),
	}

	summaries, err := Summarize(rows)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	s := summaries[0]
	assert.Equal(t, int64(615), s.ObjectID)
	assert.Equal(t, 3, s.Observations)
	assert.Equal(t, 2, s.DetectedObs)
	assert.InDelta(t, 10.0, s.MJDSpan, 1e-9)
	assert.InDelta(t, 10.0, s.FluxMean, 1e-9)
	assert.InDelta(t, 0.0, s.FluxMin, 1e-9)
	assert.InDelta(t, 20.0, s.FluxMax, 1e-9)
	assert.InDelta(t, 5.0, s.MeanMJDDelta, 1e-9)
	assert.InDelta(t, 20.0, s.MaxAbsDelta, 1e-9)
	assert.Equal(t, 2, s.PassbandsSeen)

	single := summaries[1]
	assert.Equal(t, int64(713), single.ObjectID)
	assert.Equal(t, 1, single.Observations)
	assert.Equal(t, 0.0, single.MJDSpan)
	assert.Equal(t, 0.0, single.MeanMJDDelta)
	assert.Equal(t, 1, single.PassbandsSeen)
}

func TestSummarizeFillValueNotCounted(t *testing.T) {
	// First-row deltas hold fill values and must not leak into aggregates
	rows := []FeatureRow{
		featureRow(615, 0, 59750.0, 10.0, -999, -999, PassbandG, true),
		featureRow(615, 1, 59752.0, 11.0, 1.0, 2.0, PassbandG, true),
	}

	summaries, err := Summarize(rows)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	assert.InDelta(t, 2.0, summaries[0].MeanMJDDelta, 1e-9)
	assert.InDelta(t, 1.0, summaries[0].MaxAbsDelta, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	_, err := Summarize(nil)
	assert.Error(t, err)
}

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   StatsSummary
	}{
		{
			name:   "odd count",
			values: []float64{3, 1, 2},
			want:   StatsSummary{Mean: 2, Median: 2, StdDev: math.Sqrt(2.0 / 3.0), Min: 1, Max: 3},
		},
		{
			name:   "even count",
			values: []float64{4, 1, 3, 2},
			want:   StatsSummary{Mean: 2.5, Median: 2.5, StdDev: math.Sqrt(1.25), Min: 1, Max: 4},
		},
		{
			name:   "single value",
			values: []float64{7},
			want:   StatsSummary{Mean: 7, Median: 7, StdDev: 0, Min: 7, Max: 7},
		},
		{
			name:   "empty",
			values: nil,
			want:   StatsSummary{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStats(tt.values)
			assert.InDelta(t, tt.want.Mean, got.Mean, 1e-9)
			assert.InDelta(t, tt.want.Median, got.Median, 1e-9)
			assert.InDelta(t, tt.want.StdDev, got.StdDev, 1e-9)
			assert.InDelta(t, tt.want.Min, got.Min, 1e-9)
			assert.InDelta(t, tt.want.Max, got.Max, 1e-9)
		})
	}
}

func TestComputeStatsDoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	ComputeStats(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}
