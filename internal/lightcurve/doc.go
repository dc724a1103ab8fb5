// Package lightcurve implements feature engineering for astronomical
// light-curve data.
//
// A light curve is the time series of brightness (flux) measurements for a
// single astronomical object, identified by object_id. Each measurement
// carries a Modified Julian Date timestamp (mjd), the passband (filter
// channel) it was taken through, the flux value and its error.
//
// The Engineer derives per-object features from the raw observations:
// sequence step numbers, first differences of flux and mjd against the
// previous observation of the same object, and log-compressed flux columns.
// Objects are independent, so engineering runs in parallel across objects
// with a bounded worker count.
package lightcurve
