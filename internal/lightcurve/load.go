package lightcurve

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// csvColumnCount is the fixed input schema width:
// object_id, mjd, passband, flux, flux_err, detected
const csvColumnCount = 6

// LoadResult reports what a CSV load produced
type LoadResult struct {
	Observations []Observation
	RowsRead     int
	RowsSkipped  int
}

// LoadObservations reads light-curve observations from a single CSV file.
// Malformed records are skipped with a warning rather than failing the whole
// load; the caller can inspect RowsSkipped to judge data quality.
func LoadObservations(ctx context.Context, path string, logger *slog.Logger) (*LoadResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open observations file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // validated per record for better diagnostics
	reader.TrimLeadingSpace = true

	result := &LoadResult{}
	lineNum := 0

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("load cancelled: %w", ctx.Err())
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV record at line %d: %w", lineNum+1, err)
		}
		lineNum++

		if lineNum == 1 && isHeaderRow(record) {
			continue
		}

		result.RowsRead++

		obs, err := parseObservationRecord(record)
		if err != nil {
			result.RowsSkipped++
			logger.WarnContext(ctx, "skipping malformed observation record",
				slog.String("file", filepath.Base(path)),
				slog.Int("line", lineNum),
				slog.String("error", err.Error()))
			continue
		}

		if !obs.IsValid() {
			result.RowsSkipped++
			logger.WarnContext(ctx, "skipping invalid observation",
				slog.String("file", filepath.Base(path)),
				slog.Int("line", lineNum),
				slog.Int64("object_id", obs.ObjectID))
			continue
		}

		result.Observations = append(result.Observations, obs)
	}

	logger.InfoContext(ctx, "loaded observations",
		slog.String("file", filepath.Base(path)),
		slog.Int("rows_read", result.RowsRead),
		slog.Int("rows_skipped", result.RowsSkipped),
		slog.Int("observations", len(result.Observations)))

	return result, nil
}

// parseObservationRecord converts one CSV record to an Observation
func parseObservationRecord(record []string) (Observation, error) {
	if len(record) != csvColumnCount {
		return Observation{}, fmt.Errorf("expected %d columns, got %d", csvColumnCount, len(record))
	}

	objectID, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return Observation{}, fmt.Errorf("parse object_id %q: %w", record[0], err)
	}

	mjd, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return Observation{}, fmt.Errorf("parse mjd %q: %w", record[1], err)
	}

	passband, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return Observation{}, fmt.Errorf("parse passband %q: %w", record[2], err)
	}

	flux, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil {
		return Observation{}, fmt.Errorf("parse flux %q: %w", record[3], err)
	}

	fluxErr, err := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
	if err != nil {
		return Observation{}, fmt.Errorf("parse flux_err %q: %w", record[4], err)
	}

	detected, err := parseDetected(strings.TrimSpace(record[5]))
	if err != nil {
		return Observation{}, fmt.Errorf("parse detected %q: %w", record[5], err)
	}

	return Observation{
		ObjectID: objectID,
		MJD:      mjd,
		Passband: Passband(passband),
		Flux:     flux,
		FluxErr:  fluxErr,
		Detected: detected,
	}, nil
}

// parseDetected accepts the 0/1 convention of the survey files plus the
// usual boolean spellings.
func parseDetected(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "t":
		return true, nil
	case "0", "false", "f", "":
		return false, nil
	default:
		return false, fmt.Errorf("unrecognized detected flag")
	}
}

// isHeaderRow detects whether the first CSV record is a header line
func isHeaderRow(record []string) bool {
	if len(record) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(record[0]))
	if first == "object_id" {
		return true
	}
	// Any non-numeric first field on line 1 is treated as a header
	_, err := strconv.ParseInt(first, 10, 64)
	return err != nil
}

// DatasetStats aggregates load counters across every file of a dataset
type DatasetStats struct {
	Files       int `json:"files"`
	RowsRead    int `json:"rows_read"`
	RowsSkipped int `json:"rows_skipped"`
}

// AssembleDataset loads every CSV file in a directory and groups the
// observations by object, each group sorted by mjd. An optional objectIDs
// filter restricts the result to the named objects.
func AssembleDataset(ctx context.Context, dir string, objectIDs []int64, logger *slog.Logger) (map[int64][]Observation, DatasetStats, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var stats DatasetStats

	files, err := findCSVFiles(dir)
	if err != nil {
		return nil, stats, fmt.Errorf("find CSV files: %w", err)
	}
	if len(files) == 0 {
		return nil, stats, fmt.Errorf("no CSV files found in %s", dir)
	}
	stats.Files = len(files)

	var filter map[int64]bool
	if len(objectIDs) > 0 {
		filter = make(map[int64]bool, len(objectIDs))
		for _, id := range objectIDs {
			filter[id] = true
		}
	}

	dataset := make(map[int64][]Observation)

	for _, file := range files {
		result, err := LoadObservations(ctx, file, logger)
		if err != nil {
			return nil, stats, fmt.Errorf("load %s: %w", filepath.Base(file), err)
		}

		stats.RowsRead += result.RowsRead
		stats.RowsSkipped += result.RowsSkipped
		for _, obs := range result.Observations {
			if filter != nil && !filter[obs.ObjectID] {
				continue
			}
			dataset[obs.ObjectID] = append(dataset[obs.ObjectID], obs)
		}
	}

	if len(dataset) == 0 {
		return nil, stats, fmt.Errorf("no observations matched in %d file(s)", len(files))
	}

	// Stable sort keeps input order for equal timestamps, which fixes the
	// step numbering for duplicate-mjd rows.
	for id := range dataset {
		group := dataset[id]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].MJD < group[j].MJD
		})
	}

	logger.InfoContext(ctx, "assembled dataset",
		slog.Int("files", stats.Files),
		slog.Int("objects", len(dataset)),
		slog.Int("rows_skipped", stats.RowsSkipped))

	return dataset, stats, nil
}

// findCSVFiles lists the CSV files in a directory, sorted by name
func findCSVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(files)
	return files, nil
}
