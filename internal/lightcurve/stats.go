package lightcurve

import (
	"fmt"
	"math"
	"sort"
)

// Summarize aggregates feature rows into one summary per object. Rows must
// carry correct step numbers; the mjd span and delta statistics rely on the
// per-object ordering the Engineer produces.
func Summarize(rows []FeatureRow) ([]ObjectSummary, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no feature rows to summarize")
	}

	grouped := make(map[int64][]FeatureRow)
	for _, row := range rows {
		grouped[row.ObjectID] = append(grouped[row.ObjectID], row)
	}

	summaries := make([]ObjectSummary, 0, len(grouped))
	for objectID, objectRows := range grouped {
		summaries = append(summaries, summarizeObject(objectID, objectRows))
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ObjectID < summaries[j].ObjectID
	})

	return summaries, nil
}

// summarizeObject computes the aggregate statistics for one object
func summarizeObject(objectID int64, rows []FeatureRow) ObjectSummary {
	summary := ObjectSummary{
		ObjectID:     objectID,
		Observations: len(rows),
		FluxMin:      math.Inf(1),
		FluxMax:      math.Inf(-1),
	}

	var (
		fluxSum     float64
		fluxErrSum  float64
		mjdDeltaSum float64
		mjdMin      = math.Inf(1)
		mjdMax      = math.Inf(-1)
		passbands   [len(passbandNames)]bool
	)

	for _, row := range rows {
		if row.Detected {
			summary.DetectedObs++
		}

		fluxSum += row.Flux
		fluxErrSum += row.FluxErr

		if row.Flux < summary.FluxMin {
			summary.FluxMin = row.Flux
		}
		if row.Flux > summary.FluxMax {
			summary.FluxMax = row.Flux
		}
		if row.MJD < mjdMin {
			mjdMin = row.MJD
		}
		if row.MJD > mjdMax {
			mjdMax = row.MJD
		}

		// The first row's deltas hold the fill value, not a real gap
		if row.Step > 0 {
			mjdDeltaSum += row.MJDDelta
			if abs := math.Abs(row.FluxDelta); abs > summary.MaxAbsDelta {
				summary.MaxAbsDelta = abs
			}
		}

		if row.Passband.IsValid() {
			passbands[row.Passband] = true
		}
	}

	n := float64(len(rows))
	summary.FluxMean = fluxSum / n
	summary.FluxErrMean = fluxErrSum / n
	summary.MJDSpan = mjdMax - mjdMin

	if len(rows) > 1 {
		summary.MeanMJDDelta = mjdDeltaSum / float64(len(rows)-1)
	}

	var variance float64
	for _, row := range rows {
		diff := row.Flux - summary.FluxMean
		variance += diff * diff
	}
	summary.FluxStdDev = math.Sqrt(variance / n)

	for _, seen := range passbands {
		if seen {
			summary.PassbandsSeen++
		}
	}

	return summary
}

// StatsSummary holds a statistical summary for one feature column
type StatsSummary struct {
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
}

// ComputeStats calculates summary statistics for a slice of values
func ComputeStats(values []float64) StatsSummary {
	if len(values) == 0 {
		return StatsSummary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var variance float64
	for _, v := range sorted {
		variance += (v - mean) * (v - mean)
	}

	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}

	return StatsSummary{
		Mean:   mean,
		Median: median,
		StdDev: math.Sqrt(variance / float64(len(sorted))),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}
