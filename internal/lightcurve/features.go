package lightcurve

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Engineer derives feature rows from grouped light-curve observations
type Engineer struct {
	config EngineerConfig
	logger *slog.Logger
}

// NewEngineer creates a feature engineer with the specified configuration
func NewEngineer(config EngineerConfig, logger *slog.Logger) (*Engineer, error) {
	if !config.IsValid() {
		return nil, fmt.Errorf("invalid engineer config: fill=%v workers=%d timeout=%s",
			config.FillValue, config.MaxWorkers, config.Timeout)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engineer{
		config: config,
		logger: logger,
	}, nil
}

// Engineer computes feature rows for every object in the dataset. Objects
// are processed concurrently with a bounded worker count; within an object
// the computation is a single ordered pass. The result is sorted by
// object_id then step so output files are deterministic.
func (e *Engineer) Engineer(ctx context.Context, dataset map[int64][]Observation) ([]FeatureRow, error) {
	start := time.Now()

	if len(dataset) == 0 {
		return nil, fmt.Errorf("no observations to engineer")
	}

	e.logger.InfoContext(ctx, "starting feature engineering",
		slog.Int("objects", len(dataset)),
		slog.Int("max_workers", e.config.MaxWorkers),
		slog.Float64("fill_value", e.config.FillValue))

	engCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	var (
		mu   sync.Mutex
		rows []FeatureRow
	)

	g, gCtx := errgroup.WithContext(engCtx)
	g.SetLimit(e.config.MaxWorkers)

	for objectID, observations := range dataset {
		objectID, observations := objectID, observations

		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
			}

			objectRows, err := e.engineerObject(objectID, observations)
			if err != nil {
				return fmt.Errorf("engineer object %d: %w", objectID, err)
			}

			mu.Lock()
			rows = append(rows, objectRows...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.logger.ErrorContext(ctx, "feature engineering failed",
			slog.String("error", err.Error()))
		return nil, err
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ObjectID != rows[j].ObjectID {
			return rows[i].ObjectID < rows[j].ObjectID
		}
		return rows[i].Step < rows[j].Step
	})

	e.logger.InfoContext(ctx, "feature engineering completed",
		slog.Int("objects", len(dataset)),
		slog.Int("feature_rows", len(rows)),
		slog.Duration("duration", time.Since(start)))

	return rows, nil
}

// engineerObject computes features for a single object's light curve.
// Observations must already be sorted by mjd; a stable re-sort here guards
// callers that assembled the group by hand.
func (e *Engineer) engineerObject(objectID int64, observations []Observation) ([]FeatureRow, error) {
	if len(observations) < MinObservationsPerObject {
		return nil, fmt.Errorf("no observations for object")
	}

	curve := make([]Observation, len(observations))
	copy(curve, observations)
	sort.SliceStable(curve, func(i, j int) bool {
		return curve[i].MJD < curve[j].MJD
	})

	rows := make([]FeatureRow, len(curve))
	for i, obs := range curve {
		row := FeatureRow{
			Observation: obs,
			Step:        i,
			FluxLog:     SignedLog1p(obs.Flux),
			FluxErrLog:  math.Log1p(obs.FluxErr),
		}

		if i == 0 {
			row.FluxDelta = e.config.FillValue
			row.MJDDelta = e.config.FillValue
		} else {
			row.FluxDelta = obs.Flux - curve[i-1].Flux
			row.MJDDelta = obs.MJD - curve[i-1].MJD
		}

		rows[i] = row
	}

	return rows, nil
}
