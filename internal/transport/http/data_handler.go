package http

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/render"

	"lcpulse/internal/config"
	apierrors "lcpulse/internal/errors"
)

// DataHandler serves dataset and snapshot listings
type DataHandler struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(paths *config.Paths, logger *slog.Logger) *DataHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataHandler{
		paths:  paths,
		logger: logger.With(slog.String("handler", "data")),
	}
}

// FileInfo describes a single data file in a listing
type FileInfo struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// ListDatasets handles GET /api/datasets. It lists the raw observation
// CSV files available for loading.
func (h *DataHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	files, err := h.listCSVFiles(h.paths.RawDir)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list datasets",
			slog.String("dir", h.paths.RawDir),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.FileSystemError("list datasets", err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"datasets": files,
		"count":    len(files),
	})
}

// ListSnapshots handles GET /api/snapshots. It lists the feature and
// summary outputs produced by completed operations.
func (h *DataHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var files []FileInfo
	for _, dir := range []string{h.paths.FeaturesDir, h.paths.ReportsDir} {
		listed, err := h.listDir(dir)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to list snapshots",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
			render.Render(w, r, apierrors.FileSystemError("list snapshots", err))
			return
		}
		files = append(files, listed...)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})

	render.JSON(w, r, map[string]interface{}{
		"snapshots": files,
		"count":     len(files),
	})
}

func (h *DataHandler) listCSVFiles(dir string) ([]FileInfo, error) {
	files, err := h.listDir(dir)
	if err != nil {
		return nil, err
	}

	csvFiles := make([]FileInfo, 0, len(files))
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			csvFiles = append(csvFiles, f)
		}
	}
	return csvFiles, nil
}

func (h *DataHandler) listDir(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:     entry.Name(),
			Path:     filepath.Join(dir, entry.Name()),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
