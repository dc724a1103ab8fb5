package lightcurve

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// The CSV snapshots are written by internal/exporter; this file covers the
// JSON export and the plain-text summary report.

// SaveToJSON saves feature rows to a JSON file with a metadata envelope
func SaveToJSON(rows []FeatureRow, outputPath string) error {
	if len(rows) == 0 {
		return fmt.Errorf("no feature rows to save")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	output := map[string]interface{}{
		"metadata": map[string]interface{}{
			"generated_at":   time.Now().Format(time.RFC3339),
			"total_rows":     len(rows),
			"unique_objects": countUniqueObjects(rows),
		},
		"features": rows,
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	return nil
}

// SaveSummaryReport writes a human-readable summary of the engineering run
func SaveSummaryReport(rows []FeatureRow, summaries []ObjectSummary, outputPath string) error {
	if len(rows) == 0 || len(summaries) == 0 {
		return fmt.Errorf("nothing to report")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer file.Close()

	var fluxValues, deltaValues, mjdDeltaValues []float64
	for _, row := range rows {
		fluxValues = append(fluxValues, row.Flux)
		if row.Step > 0 {
			deltaValues = append(deltaValues, row.FluxDelta)
			mjdDeltaValues = append(mjdDeltaValues, row.MJDDelta)
		}
	}

	fluxStats := ComputeStats(fluxValues)
	deltaStats := ComputeStats(deltaValues)
	gapStats := ComputeStats(mjdDeltaValues)

	fmt.Fprintf(file, "Light-Curve Feature Engineering - Summary Report\n")
	fmt.Fprintf(file, "================================================\n\n")
	fmt.Fprintf(file, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	fmt.Fprintf(file, "DATASET OVERVIEW\n")
	fmt.Fprintf(file, "----------------\n")
	fmt.Fprintf(file, "Feature Rows: %d\n", len(rows))
	fmt.Fprintf(file, "Objects: %d\n\n", len(summaries))

	fmt.Fprintf(file, "FLUX STATISTICS\n")
	fmt.Fprintf(file, "---------------\n")
	fmt.Fprintf(file, "Mean: %.4f\n", fluxStats.Mean)
	fmt.Fprintf(file, "Median: %.4f\n", fluxStats.Median)
	fmt.Fprintf(file, "Std Dev: %.4f\n", fluxStats.StdDev)
	fmt.Fprintf(file, "Min: %.4f\n", fluxStats.Min)
	fmt.Fprintf(file, "Max: %.4f\n\n", fluxStats.Max)

	fmt.Fprintf(file, "FLUX DELTA STATISTICS\n")
	fmt.Fprintf(file, "---------------------\n")
	fmt.Fprintf(file, "Mean: %.4f\n", deltaStats.Mean)
	fmt.Fprintf(file, "Median: %.4f\n", deltaStats.Median)
	fmt.Fprintf(file, "Std Dev: %.4f\n\n", deltaStats.StdDev)

	fmt.Fprintf(file, "OBSERVATION GAP STATISTICS (mjd_delta)\n")
	fmt.Fprintf(file, "--------------------------------------\n")
	fmt.Fprintf(file, "Mean: %.4f days\n", gapStats.Mean)
	fmt.Fprintf(file, "Median: %.4f days\n", gapStats.Median)
	fmt.Fprintf(file, "Max: %.4f days\n\n", gapStats.Max)

	fmt.Fprintf(file, "TOP 10 LONGEST LIGHT CURVES\n")
	fmt.Fprintf(file, "---------------------------\n")
	longest := topByObservations(summaries, 10)
	for i, s := range longest {
		fmt.Fprintf(file, "%2d. object %d: %d observations over %.1f days\n",
			i+1, s.ObjectID, s.Observations, s.MJDSpan)
	}

	return nil
}

// countUniqueObjects counts distinct object IDs in the feature rows
func countUniqueObjects(rows []FeatureRow) int {
	objects := make(map[int64]bool)
	for _, row := range rows {
		objects[row.ObjectID] = true
	}
	return len(objects)
}

// topByObservations returns the n summaries with the most observations
func topByObservations(summaries []ObjectSummary, n int) []ObjectSummary {
	sorted := make([]ObjectSummary, len(summaries))
	copy(sorted, summaries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Observations > sorted[j].Observations
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
