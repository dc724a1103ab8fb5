package lightcurve

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testObservation(objectID int64, mjd, flux float64) Observation {
	return Observation{
		ObjectID: objectID,
		MJD:      mjd,
		Passband: PassbandG,
		Flux:     flux,
		FluxErr:  1.5,
		Detected: true,
	}
}

func TestNewEngineerRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EngineerConfig)
	}{
		{"zero workers", func(c *EngineerConfig) { c.MaxWorkers = 0 }},
		{"negative workers", func(c *EngineerConfig) { c.MaxWorkers = -2 }},
		{"zero timeout", func(c *EngineerConfig) { c.Timeout = 0 }},
		{"nan fill value", func(c *EngineerConfig) { c.FillValue = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultEngineerConfig()
			tt.mutate(&cfg)

			_, err := NewEngineer(cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestEngineerStepNumbering(t *testing.T) {
	eng, err := NewEngineer(DefaultEngineerConfig(), nil)
	require.NoError(t, err)

	// Deliberately out of mjd order
	dataset := map[int64][]Observation{
		615: {
			testObservation(615, 59752.3, 12.0),
			testObservation(615, 59750.1, 10.0),
			testObservation(615, 59751.2, 11.0),
		},
	}

	rows, err := eng.Engineer(context.Background(), dataset)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	for i, row := range rows {
		assert.Equal(t, i, row.Step)
	}
	assert.Equal(t, 59750.1, rows[0].MJD)
	assert.Equal(t, 59751.2, rows[1].MJD)
	assert.Equal(t, 59752.3, rows[2].MJD)
}

func TestEngineerDeltas(t *testing.T) {
	cfg := DefaultEngineerConfig()
	cfg.FillValue = -999

	eng, err := NewEngineer(cfg, nil)
	require.NoError(t, err)

	dataset := map[int64][]Observation{
		615: {
			testObservation(615, 59750.0, 10.0),
			testObservation(615, 59753.5, 7.5),
			testObservation(615, 59760.0, 12.5),
		},
	}

	rows, err := eng.Engineer(context.Background(), dataset)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// First row of each object gets the fill value
	assert.Equal(t, -999.0, rows[0].FluxDelta)
	assert.Equal(t, -999.0, rows[0].MJDDelta)

	assert.InDelta(t, -2.5, rows[1].FluxDelta, 1e-9)
	assert.InDelta(t, 3.5, rows[1].MJDDelta, 1e-9)
	assert.InDelta(t, 5.0, rows[2].FluxDelta, 1e-9)
	assert.InDelta(t, 6.5, rows[2].MJDDelta, 1e-9)
}

func TestEngineerDeltasDoNotCrossObjects(t *testing.T) {
	eng, err := NewEngineer(DefaultEngineerConfig(), nil)
	require.NoError(t, err)

	dataset := map[int64][]Observation{
		615: {
			testObservation(615, 59750.0, 10.0),
			testObservation(615, 59751.0, 20.0),
		},
		713: {
			testObservation(713, 59752.0, 100.0),
			testObservation(713, 59753.0, 150.0),
		},
	}

	rows, err := eng.Engineer(context.Background(), dataset)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	// Output sorted by object_id then step
	assert.Equal(t, int64(615), rows[0].ObjectID)
	assert.Equal(t, int64(713), rows[2].ObjectID)

	// Each object restarts at the fill value, never a cross-object diff
	assert.Equal(t, 0.0, rows[0].FluxDelta)
	assert.Equal(t, 0.0, rows[2].FluxDelta)
	assert.InDelta(t, 10.0, rows[1].FluxDelta, 1e-9)
	assert.InDelta(t, 50.0, rows[3].FluxDelta, 1e-9)
}

func TestEngineerLogTransforms(t *testing.T) {
	eng, err := NewEngineer(DefaultEngineerConfig(), nil)
	require.NoError(t, err)

	obs := testObservation(615, 59750.0, -5.0)
	obs.FluxErr = 2.0

	rows, err := eng.Engineer(context.Background(), map[int64][]Observation{615: {obs}})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// Negative flux keeps its sign through the log compression
	assert.InDelta(t, -math.Log1p(5.0), rows[0].FluxLog, 1e-12)
	assert.InDelta(t, math.Log1p(2.0), rows[0].FluxErrLog, 1e-12)
}

func TestEngineerSingleObservation(t *testing.T) {
	eng, err := NewEngineer(DefaultEngineerConfig(), nil)
	require.NoError(t, err)

	rows, err := eng.Engineer(context.Background(), map[int64][]Observation{
		615: {testObservation(615, 59750.0, 3.0)},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, 0, rows[0].Step)
	assert.Equal(t, 0.0, rows[0].FluxDelta)
	assert.Equal(t, 0.0, rows[0].MJDDelta)
}

func TestEngineerEmptyDataset(t *testing.T) {
	eng, err := NewEngineer(DefaultEngineerConfig(), nil)
	require.NoError(t, err)

	_, err = eng.Engineer(context.Background(), map[int64][]Observation{})
	assert.Error(t, err)
}

func TestEngineerManyObjectsParallel(t *testing.T) {
	cfg := DefaultEngineerConfig()
	cfg.MaxWorkers = 8

	eng, err := NewEngineer(cfg, nil)
	require.NoError(t, err)

	dataset := make(map[int64][]Observation)
	for id := int64(1); id <= 50; id++ {
		for i := 0; i < 20; i++ {
			dataset[id] = append(dataset[id],
				testObservation(id, 59750.0+float64(i), float64(i)*2))
		}
	}

	rows, err := eng.Engineer(context.Background(), dataset)
	require.NoError(t, err)
	assert.Len(t, rows, 50*20)

	// Spot check ordering invariant across the whole result
	for i := 1; i < len(rows); i++ {
		if rows[i].ObjectID == rows[i-1].ObjectID {
			assert.Equal(t, rows[i-1].Step+1, rows[i].Step)
		} else {
			assert.Greater(t, rows[i].ObjectID, rows[i-1].ObjectID)
			assert.Equal(t, 0, rows[i].Step)
		}
	}
}

func TestEngineerCancelledContext(t *testing.T) {
	eng, err := NewEngineer(DefaultEngineerConfig(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dataset := make(map[int64][]Observation)
	for id := int64(1); id <= 100; id++ {
		dataset[id] = []Observation{testObservation(id, 59750.0, 1.0)}
	}

	_, err = eng.Engineer(ctx, dataset)
	assert.Error(t, err)
}

func TestSignedLog1p(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{"zero", 0, 0},
		{"positive", 10, math.Log1p(10)},
		{"negative", -10, -math.Log1p(10)},
		{"small negative", -0.5, -math.Log1p(0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SignedLog1p(tt.input), 1e-12)
		})
	}
}

func TestPassbandString(t *testing.T) {
	assert.Equal(t, "u", PassbandU.String())
	assert.Equal(t, "y", PassbandY.String())
	assert.Equal(t, "passband(7)", Passband(7).String())
}

func TestObservationIsValid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Observation)
		want   bool
	}{
		{"valid", func(o *Observation) {}, true},
		{"negative flux is valid", func(o *Observation) { o.Flux = -42.5 }, true},
		{"zero object id", func(o *Observation) { o.ObjectID = 0 }, false},
		{"bad passband", func(o *Observation) { o.Passband = 9 }, false},
		{"zero flux err", func(o *Observation) { o.FluxErr = 0 }, false},
		{"nan flux", func(o *Observation) { o.Flux = math.NaN() }, false},
		{"negative mjd", func(o *Observation) { o.MJD = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := testObservation(615, 59750.0, 1.0)
			tt.mutate(&obs)
			assert.Equal(t, tt.want, obs.IsValid())
		})
	}
}
