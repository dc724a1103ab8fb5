package exporter

import (
	"fmt"
	"strconv"

	"lcpulse/internal/lightcurve"
)

// Snapshot column layouts. Order matches the engineered row and summary
// types and is what downstream training jobs expect.
var (
	featuresHeader = []string{
		"object_id",
		"mjd",
		"passband",
		"flux",
		"flux_err",
		"detected",
		"step",
		"flux_delta",
		"mjd_delta",
		"flux_log",
		"flux_err_log",
	}

	summaryHeader = []string{
		"object_id",
		"observations",
		"detected_obs",
		"mjd_span",
		"flux_mean",
		"flux_std",
		"flux_min",
		"flux_max",
		"flux_err_mean",
		"mjd_delta_mean",
		"flux_delta_max_abs",
		"passbands_seen",
	}
)

// SaveFeaturesCSV streams the row-level feature snapshot to outputPath.
// Rows are expected in object/step order as produced by the Engineer; the
// snapshot can be large, so it goes through a StreamWriter rather than
// being buffered.
func SaveFeaturesCSV(rows []lightcurve.FeatureRow, outputPath string) error {
	if len(rows) == 0 {
		return fmt.Errorf("no feature rows to save")
	}

	stream, err := NewCSVWriter(nil).CreateStreamWriter(outputPath, featuresHeader)
	if err != nil {
		return fmt.Errorf("create feature snapshot: %w", err)
	}

	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row.ObjectID, 10),
			formatFloat(row.MJD, 4),
			strconv.Itoa(int(row.Passband)),
			formatFloat(row.Flux, 6),
			formatFloat(row.FluxErr, 6),
			formatDetected(row.Detected),
			strconv.Itoa(row.Step),
			formatFloat(row.FluxDelta, 6),
			formatFloat(row.MJDDelta, 6),
			formatFloat(row.FluxLog, 6),
			formatFloat(row.FluxErrLog, 6),
		}
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return fmt.Errorf("write record for object %d: %w", row.ObjectID, err)
		}
	}

	return stream.Close()
}

// SaveSummaryCSV writes the per-object summary snapshot to outputPath
func SaveSummaryCSV(summaries []lightcurve.ObjectSummary, outputPath string) error {
	if len(summaries) == 0 {
		return fmt.Errorf("no summaries to save")
	}

	records := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		records = append(records, []string{
			strconv.FormatInt(s.ObjectID, 10),
			strconv.Itoa(s.Observations),
			strconv.Itoa(s.DetectedObs),
			formatFloat(s.MJDSpan, 4),
			formatFloat(s.FluxMean, 6),
			formatFloat(s.FluxStdDev, 6),
			formatFloat(s.FluxMin, 6),
			formatFloat(s.FluxMax, 6),
			formatFloat(s.FluxErrMean, 6),
			formatFloat(s.MeanMJDDelta, 6),
			formatFloat(s.MaxAbsDelta, 6),
			strconv.Itoa(s.PassbandsSeen),
		})
	}

	return NewCSVWriter(nil).WriteSimpleCSV(outputPath, summaryHeader, records)
}

// formatFloat formats a float64 value for CSV output with specified precision
func formatFloat(value float64, precision int) string {
	return strconv.FormatFloat(value, 'f', precision, 64)
}

// formatDetected writes the survey's 0/1 convention
func formatDetected(detected bool) string {
	if detected {
		return "1"
	}
	return "0"
}
