package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// This is the single source of truth for ALL file paths in the application.
type Paths struct {
	ExecutableDir string
	DataDir       string
	RawDir        string
	FeaturesDir   string
	ReportsDir    string
	CacheDir      string
	LogsDir       string

	// Well-known output files
	FeaturesCSV      string
	ObjectSummaryCSV string
	FeaturesJSON     string
	SummaryWorkbook  string
	SummaryReport    string
}

// GetPaths returns the application paths relative to the executable location.
// All paths are ALWAYS relative to the executable directory, never the
// current working directory.
//
// Directory structure:
//
//	<exe dir>/
//	  ├── data/
//	  │   ├── raw/        (input light-curve CSV files)
//	  │   ├── features/   (engineered feature snapshots)
//	  │   ├── reports/    (summary workbook and report)
//	  │   └── cache/      (temporary files)
//	  └── logs/           (application logs)
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	exeDir := filepath.Dir(exe)
	return PathsFor(exeDir), nil
}

// PathsFor builds the path set rooted at the given base directory.
// Used directly by tests and by CLI flags that override the data root.
func PathsFor(baseDir string) *Paths {
	dataDir := filepath.Join(baseDir, "data")
	featuresDir := filepath.Join(dataDir, "features")
	reportsDir := filepath.Join(dataDir, "reports")

	return &Paths{
		ExecutableDir: baseDir,
		DataDir:       dataDir,
		RawDir:        filepath.Join(dataDir, "raw"),
		FeaturesDir:   featuresDir,
		ReportsDir:    reportsDir,
		CacheDir:      filepath.Join(dataDir, "cache"),
		LogsDir:       filepath.Join(baseDir, "logs"),

		FeaturesCSV:      filepath.Join(featuresDir, "features.csv"),
		ObjectSummaryCSV: filepath.Join(featuresDir, "object_summary.csv"),
		FeaturesJSON:     filepath.Join(featuresDir, "features.json"),
		SummaryWorkbook:  filepath.Join(reportsDir, "feature_summary.xlsx"),
		SummaryReport:    filepath.Join(reportsDir, "feature_summary.txt"),
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.RawDir,
		p.FeaturesDir,
		p.ReportsDir,
		p.CacheDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// GetRawPath returns the path for a raw input file
func (p *Paths) GetRawPath(filename string) string {
	return filepath.Join(p.RawDir, filename)
}

// GetFeaturePath returns the path for a feature snapshot file
func (p *Paths) GetFeaturePath(filename string) string {
	return filepath.Join(p.FeaturesDir, filename)
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetCachePath returns the path for a cache file
func (p *Paths) GetCachePath(filename string) string {
	return filepath.Join(p.CacheDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("raw", p.RawDir),
			slog.String("features", p.FeaturesDir),
			slog.String("reports", p.ReportsDir),
			slog.String("cache", p.CacheDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("output_files",
			slog.String("features_csv", p.FeaturesCSV),
			slog.String("object_summary_csv", p.ObjectSummaryCSV),
			slog.String("features_json", p.FeaturesJSON),
			slog.String("summary_workbook", p.SummaryWorkbook),
		))
}
