package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"lcpulse/internal/lightcurve"
)

// Workbook sheet names
const (
	sheetObjects  = "Objects"
	sheetFeatures = "Features"
)

// featureSheetLimit caps the number of feature rows written to the workbook.
// The full snapshot lives in features.csv; the workbook is for eyeballing.
const featureSheetLimit = 10000

// SaveSummaryWorkbook writes an Excel workbook with per-object summaries and
// a capped sample of feature rows.
func SaveSummaryWorkbook(rows []lightcurve.FeatureRow, summaries []lightcurve.ObjectSummary, outputPath string) error {
	if len(summaries) == 0 {
		return fmt.Errorf("no summaries to export")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeObjectsSheet(f, summaries); err != nil {
		return fmt.Errorf("write objects sheet: %w", err)
	}

	if err := writeFeaturesSheet(f, rows); err != nil {
		return fmt.Errorf("write features sheet: %w", err)
	}

	// Drop the default sheet created by excelize
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	return nil
}

// writeObjectsSheet writes one row per object summary
func writeObjectsSheet(f *excelize.File, summaries []lightcurve.ObjectSummary) error {
	if _, err := f.NewSheet(sheetObjects); err != nil {
		return err
	}

	header := []interface{}{
		"object_id", "observations", "detected_obs", "mjd_span",
		"flux_mean", "flux_std", "flux_min", "flux_max",
		"flux_err_mean", "mjd_delta_mean", "flux_delta_max_abs", "passbands_seen",
	}
	if err := f.SetSheetRow(sheetObjects, "A1", &header); err != nil {
		return err
	}

	for i, s := range summaries {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{
			s.ObjectID, s.Observations, s.DetectedObs, s.MJDSpan,
			s.FluxMean, s.FluxStdDev, s.FluxMin, s.FluxMax,
			s.FluxErrMean, s.MeanMJDDelta, s.MaxAbsDelta, s.PassbandsSeen,
		}
		if err := f.SetSheetRow(sheetObjects, cell, &row); err != nil {
			return err
		}
	}

	return nil
}

// writeFeaturesSheet writes feature rows up to the sheet limit
func writeFeaturesSheet(f *excelize.File, rows []lightcurve.FeatureRow) error {
	if _, err := f.NewSheet(sheetFeatures); err != nil {
		return err
	}

	header := []interface{}{
		"object_id", "mjd", "passband", "flux", "flux_err", "detected",
		"step", "flux_delta", "mjd_delta", "flux_log", "flux_err_log",
	}
	if err := f.SetSheetRow(sheetFeatures, "A1", &header); err != nil {
		return err
	}

	limit := len(rows)
	if limit > featureSheetLimit {
		limit = featureSheetLimit
	}

	for i := 0; i < limit; i++ {
		r := rows[i]
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{
			r.ObjectID, r.MJD, r.Passband.String(), r.Flux, r.FluxErr, r.Detected,
			r.Step, r.FluxDelta, r.MJDDelta, r.FluxLog, r.FluxErrLog,
		}
		if err := f.SetSheetRow(sheetFeatures, cell, &row); err != nil {
			return err
		}
	}

	return nil
}
