package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"lcpulse/internal/config"
	"lcpulse/internal/exporter"
	"lcpulse/internal/lightcurve"
)

func main() {
	inputDir := flag.String("in", "", "directory with raw observation CSV files (defaults to data/raw)")
	outputDir := flag.String("out", "", "output directory for feature snapshots (defaults to data/features)")
	objects := flag.String("objects", "", "comma-separated object IDs to keep (default: all)")
	fillValue := flag.Float64("fill", lightcurve.DefaultFillValue, "fill value for first-row deltas")
	workers := flag.Int("workers", lightcurve.DefaultMaxWorkers, "number of parallel per-object workers")
	workbook := flag.Bool("workbook", false, "also write the xlsx summary workbook")
	flag.Parse()

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create data directories", "error", err)
		os.Exit(1)
	}

	if *inputDir == "" {
		*inputDir = paths.RawDir
	}
	if *outputDir == "" {
		*outputDir = paths.FeaturesDir
	}

	objectIDs, err := parseObjectIDs(*objects)
	if err != nil {
		slog.Error("Invalid -objects value", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger := slog.Default()

	slog.Info("Loading observations", "dir", *inputDir, "object_filter", len(objectIDs))
	dataset, stats, err := lightcurve.AssembleDataset(ctx, *inputDir, objectIDs, logger)
	if err != nil {
		slog.Error("Failed to load observations", "error", err,
			"hint", "Expected CSV files with object_id,mjd,passband,flux,flux_err,detected columns")
		os.Exit(1)
	}
	slog.Info("Loaded observations",
		"objects", len(dataset),
		"files", stats.Files,
		"rows_skipped", stats.RowsSkipped)

	engCfg := lightcurve.DefaultEngineerConfig()
	engCfg.FillValue = *fillValue
	engCfg.MaxWorkers = *workers

	engineer, err := lightcurve.NewEngineer(engCfg, logger)
	if err != nil {
		slog.Error("Invalid engineering configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Computing features...")
	rows, err := engineer.Engineer(ctx, dataset)
	if err != nil {
		slog.Error("Failed to compute features", "error", err)
		os.Exit(1)
	}
	slog.Info("Computed feature rows", "rows", len(rows))

	summaries, err := lightcurve.Summarize(rows)
	if err != nil {
		slog.Error("Failed to summarize objects", "error", err)
		os.Exit(1)
	}

	featuresPath := filepath.Join(*outputDir, "features.csv")
	summaryPath := filepath.Join(*outputDir, "object_summary.csv")
	jsonPath := filepath.Join(*outputDir, "features.json")
	reportPath := filepath.Join(*outputDir, "feature_summary.txt")

	if err := exporter.SaveFeaturesCSV(rows, featuresPath); err != nil {
		slog.Error("Failed to save feature snapshot", "error", err)
		os.Exit(1)
	}
	if err := exporter.SaveSummaryCSV(summaries, summaryPath); err != nil {
		slog.Error("Failed to save object summary snapshot", "error", err)
		os.Exit(1)
	}
	if err := lightcurve.SaveToJSON(rows, jsonPath); err != nil {
		slog.Error("Failed to save JSON export", "error", err)
		os.Exit(1)
	}
	if err := lightcurve.SaveSummaryReport(rows, summaries, reportPath); err != nil {
		slog.Error("Failed to save summary report", "error", err)
		os.Exit(1)
	}

	if *workbook {
		workbookPath := filepath.Join(*outputDir, "feature_summary.xlsx")
		if err := exporter.SaveSummaryWorkbook(rows, summaries, workbookPath); err != nil {
			slog.Error("Failed to save summary workbook", "error", err)
			os.Exit(1)
		}
		slog.Info("Saved summary workbook", "path", workbookPath)
	}

	slog.Info("Feature engineering complete",
		"features", featuresPath,
		"summary", summaryPath,
		"rows", len(rows),
		"objects", len(summaries))
}

func parseObjectIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse object ID %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
