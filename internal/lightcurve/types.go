package lightcurve

import (
	"fmt"
	"math"
	"time"
)

// Default configuration values
const (
	// DefaultFillValue is assigned to delta columns for the first
	// observation of each object, which has no predecessor.
	DefaultFillValue = 0.0

	// DefaultMaxWorkers bounds concurrent per-object engineering
	DefaultMaxWorkers = 4

	// DefaultEngineerTimeout is the maximum time for a full engineering run
	DefaultEngineerTimeout = 10 * time.Minute

	// MinObservationsPerObject is the minimum light-curve length that still
	// produces features. A single observation yields one row with fill
	// values in the delta columns.
	MinObservationsPerObject = 1
)

// Passband identifies the filter/wavelength channel of a measurement.
// The survey uses six channels numbered 0-5.
type Passband int

// Passband channels in wavelength order
const (
	PassbandU Passband = iota
	PassbandG
	PassbandR
	PassbandI
	PassbandZ
	PassbandY
)

// passbandNames maps channel numbers to the conventional filter letters
var passbandNames = [...]string{"u", "g", "r", "i", "z", "y"}

// String returns the conventional filter letter for the passband
func (p Passband) String() string {
	if p < 0 || int(p) >= len(passbandNames) {
		return fmt.Sprintf("passband(%d)", int(p))
	}
	return passbandNames[p]
}

// IsValid reports whether the passband is one of the six survey channels
func (p Passband) IsValid() bool {
	return p >= PassbandU && p <= PassbandY
}

// Observation represents a single raw light-curve measurement
type Observation struct {
	ObjectID int64    `json:"object_id"`
	MJD      float64  `json:"mjd"`
	Passband Passband `json:"passband"`
	Flux     float64  `json:"flux"`
	FluxErr  float64  `json:"flux_err"`
	Detected bool     `json:"detected"`
}

// IsValid reports whether the observation is usable for feature engineering.
// Flux may legitimately be negative (background-subtracted photometry), but
// the error must be positive and both values finite.
func (o Observation) IsValid() bool {
	if o.ObjectID <= 0 {
		return false
	}
	if !o.Passband.IsValid() {
		return false
	}
	if math.IsNaN(o.MJD) || math.IsInf(o.MJD, 0) || o.MJD <= 0 {
		return false
	}
	if math.IsNaN(o.Flux) || math.IsInf(o.Flux, 0) {
		return false
	}
	if math.IsNaN(o.FluxErr) || math.IsInf(o.FluxErr, 0) || o.FluxErr <= 0 {
		return false
	}
	return true
}

// FeatureRow is an observation enriched with engineered feature columns
type FeatureRow struct {
	Observation

	// Step is the 0-based position of this observation within its object's
	// light curve after sorting by mjd (ties broken by input order).
	Step int `json:"step"`

	// FluxDelta is the first difference of flux against the previous
	// observation of the same object; fill value for the first row.
	FluxDelta float64 `json:"flux_delta"`

	// MJDDelta is the first difference of mjd against the previous
	// observation of the same object; fill value for the first row.
	MJDDelta float64 `json:"mjd_delta"`

	// FluxLog is the signed log compression of flux: sign(x) * log1p(|x|).
	// The sign is preserved because flux can be negative.
	FluxLog float64 `json:"flux_log"`

	// FluxErrLog is log1p of the flux error (always positive)
	FluxErrLog float64 `json:"flux_err_log"`
}

// EngineerConfig holds the tunable parameters of a feature-engineering run
type EngineerConfig struct {
	// FillValue is written to delta columns for each object's first row
	FillValue float64

	// MaxWorkers bounds the number of objects engineered concurrently
	MaxWorkers int

	// Timeout caps the duration of a full engineering run
	Timeout time.Duration
}

// DefaultEngineerConfig returns the standard engineering configuration
func DefaultEngineerConfig() EngineerConfig {
	return EngineerConfig{
		FillValue:  DefaultFillValue,
		MaxWorkers: DefaultMaxWorkers,
		Timeout:    DefaultEngineerTimeout,
	}
}

// IsValid reports whether the configuration is usable
func (c EngineerConfig) IsValid() bool {
	if math.IsNaN(c.FillValue) || math.IsInf(c.FillValue, 0) {
		return false
	}
	if c.MaxWorkers <= 0 {
		return false
	}
	if c.Timeout <= 0 {
		return false
	}
	return true
}

// ObjectSummary aggregates engineered features for a single object.
// One summary row per object forms the second output snapshot.
type ObjectSummary struct {
	ObjectID      int64   `json:"object_id"`
	Observations  int     `json:"observations"`
	DetectedObs   int     `json:"detected_obs"`
	MJDSpan       float64 `json:"mjd_span"`
	FluxMean      float64 `json:"flux_mean"`
	FluxStdDev    float64 `json:"flux_std"`
	FluxMin       float64 `json:"flux_min"`
	FluxMax       float64 `json:"flux_max"`
	FluxErrMean   float64 `json:"flux_err_mean"`
	MeanMJDDelta  float64 `json:"mjd_delta_mean"`
	MaxAbsDelta   float64 `json:"flux_delta_max_abs"`
	PassbandsSeen int     `json:"passbands_seen"`
}

// SignedLog1p compresses a value that may be negative: sign(x) * log1p(|x|).
// Monotonic over the full real line, so ordering is preserved.
func SignedLog1p(x float64) float64 {
	if x < 0 {
		return -math.Log1p(-x)
	}
	return math.Log1p(x)
}
