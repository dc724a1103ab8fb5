package operations

import (
	"context"
	"fmt"
	"log/slog"

	"lcpulse/internal/config"
	"lcpulse/internal/exporter"
	"lcpulse/internal/lightcurve"
)

// LoadStep reads raw observation CSV files and assembles the per-object dataset
type LoadStep struct {
	BaseStep
	paths  *config.Paths
	logger *slog.Logger
}

// NewLoadStep creates the observation loading step
func NewLoadStep(paths *config.Paths, logger *slog.Logger) *LoadStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadStep{
		BaseStep: NewBaseStep(StepIDLoad, StepNameLoad, nil),
		paths:    paths,
		logger:   logger,
	}
}

// Validate checks the input directory exists
func (s *LoadStep) Validate(state *OperationState) error {
	dir := s.inputDir(state)
	if dir == "" {
		return fmt.Errorf("no input directory configured")
	}
	return nil
}

// Execute loads the dataset and stores it in the operation context
func (s *LoadStep) Execute(ctx context.Context, state *OperationState) error {
	dir := s.inputDir(state)

	var objectIDs []int64
	if v, ok := state.GetConfig(ContextKeyObjectIDs); ok {
		if ids, ok := v.([]int64); ok {
			objectIDs = ids
		}
	}

	dataset, stats, err := lightcurve.AssembleDataset(ctx, dir, objectIDs, s.logger)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}

	rowCount := 0
	for _, observations := range dataset {
		rowCount += len(observations)
	}

	state.SetContext(ContextKeyDataset, dataset)
	state.SetContext(ContextKeyRowsLoaded, rowCount)
	state.SetContext(ContextKeyRowsSkipped, stats.RowsSkipped)
	state.SetContext(ContextKeyObjectCount, len(dataset))

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("operation_id", state.ID),
		slog.Int("objects", len(dataset)),
		slog.Int("rows", rowCount))

	return nil
}

func (s *LoadStep) inputDir(state *OperationState) string {
	if v, ok := state.GetConfig(ContextKeyInputDir); ok {
		if dir, ok := v.(string); ok && dir != "" {
			return dir
		}
	}
	if s.paths != nil {
		return s.paths.RawDir
	}
	return ""
}

// FeaturizeStep computes engineered feature rows from the loaded dataset
type FeaturizeStep struct {
	BaseStep
	pipelineCfg config.PipelineConfig
	logger      *slog.Logger
}

// NewFeaturizeStep creates the feature engineering step
func NewFeaturizeStep(pipelineCfg config.PipelineConfig, logger *slog.Logger) *FeaturizeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeaturizeStep{
		BaseStep:    NewBaseStep(StepIDFeaturize, StepNameFeaturize, []string{StepIDLoad}),
		pipelineCfg: pipelineCfg,
		logger:      logger,
	}
}

// Validate checks the dataset is present in the operation context
func (s *FeaturizeStep) Validate(state *OperationState) error {
	if _, ok := state.GetContext(ContextKeyDataset); !ok {
		return fmt.Errorf("no dataset loaded")
	}
	return nil
}

// Execute runs the feature engineer and stores the rows in context
func (s *FeaturizeStep) Execute(ctx context.Context, state *OperationState) error {
	v, ok := state.GetContext(ContextKeyDataset)
	if !ok {
		return NewValidationError(s.ID(), "no dataset loaded")
	}
	dataset, ok := v.(map[int64][]lightcurve.Observation)
	if !ok {
		return NewFatalError("dataset has unexpected type", nil)
	}

	engCfg := lightcurve.DefaultEngineerConfig()
	engCfg.FillValue = s.pipelineCfg.FillValue
	if s.pipelineCfg.MaxWorkers > 0 {
		engCfg.MaxWorkers = s.pipelineCfg.MaxWorkers
	}
	if s.pipelineCfg.StepTimeout > 0 {
		engCfg.Timeout = s.pipelineCfg.StepTimeout
	}

	// Per-request override from the operation config
	if v, ok := state.GetConfig(ContextKeyFillValue); ok {
		if fill, ok := v.(float64); ok {
			engCfg.FillValue = fill
		}
	}
	if v, ok := state.GetConfig(ContextKeyMaxWorkers); ok {
		if workers, ok := v.(int); ok && workers > 0 {
			engCfg.MaxWorkers = workers
		}
	}

	engineer, err := lightcurve.NewEngineer(engCfg, s.logger)
	if err != nil {
		return NewValidationError(s.ID(), err.Error())
	}

	rows, err := engineer.Engineer(ctx, dataset)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}

	state.SetContext(ContextKeyFeatureRows, rows)
	state.SetContext(ContextKeyRowsProduced, len(rows))

	return nil
}

// SummarizeStep aggregates feature rows into per-object summaries
type SummarizeStep struct {
	BaseStep
	logger *slog.Logger
}

// NewSummarizeStep creates the object summarization step
func NewSummarizeStep(logger *slog.Logger) *SummarizeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummarizeStep{
		BaseStep: NewBaseStep(StepIDSummarize, StepNameSummarize, []string{StepIDFeaturize}),
		logger:   logger,
	}
}

// Validate checks feature rows are present in the operation context
func (s *SummarizeStep) Validate(state *OperationState) error {
	if _, ok := state.GetContext(ContextKeyFeatureRows); !ok {
		return fmt.Errorf("no feature rows computed")
	}
	return nil
}

// Execute computes summaries and stores them in context
func (s *SummarizeStep) Execute(ctx context.Context, state *OperationState) error {
	v, ok := state.GetContext(ContextKeyFeatureRows)
	if !ok {
		return NewValidationError(s.ID(), "no feature rows computed")
	}
	rows, ok := v.([]lightcurve.FeatureRow)
	if !ok {
		return NewFatalError("feature rows have unexpected type", nil)
	}

	summaries, err := lightcurve.Summarize(rows)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}

	state.SetContext(ContextKeySummaries, summaries)

	s.logger.InfoContext(ctx, "summaries computed",
		slog.String("operation_id", state.ID),
		slog.Int("objects", len(summaries)))

	return nil
}

// ExportStep writes the output snapshots to disk
type ExportStep struct {
	BaseStep
	paths          *config.Paths
	workbookExport bool
	logger         *slog.Logger
}

// NewExportStep creates the snapshot export step
func NewExportStep(paths *config.Paths, workbookExport bool, logger *slog.Logger) *ExportStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportStep{
		BaseStep:       NewBaseStep(StepIDExport, StepNameExport, []string{StepIDSummarize}),
		paths:          paths,
		workbookExport: workbookExport,
		logger:         logger,
	}
}

// Validate checks rows and summaries are present and paths configured
func (s *ExportStep) Validate(state *OperationState) error {
	if s.paths == nil {
		return fmt.Errorf("no output paths configured")
	}
	if _, ok := state.GetContext(ContextKeyFeatureRows); !ok {
		return fmt.Errorf("no feature rows computed")
	}
	if _, ok := state.GetContext(ContextKeySummaries); !ok {
		return fmt.Errorf("no summaries computed")
	}
	return nil
}

// Execute writes the feature snapshot, summary snapshot, JSON, workbook,
// and text report.
func (s *ExportStep) Execute(ctx context.Context, state *OperationState) error {
	rowsVal, _ := state.GetContext(ContextKeyFeatureRows)
	rows, ok := rowsVal.([]lightcurve.FeatureRow)
	if !ok {
		return NewFatalError("feature rows have unexpected type", nil)
	}

	summariesVal, _ := state.GetContext(ContextKeySummaries)
	summaries, ok := summariesVal.([]lightcurve.ObjectSummary)
	if !ok {
		return NewFatalError("summaries have unexpected type", nil)
	}

	var outputs []string

	if err := exporter.SaveFeaturesCSV(rows, s.paths.FeaturesCSV); err != nil {
		return NewExecutionError(s.ID(), fmt.Errorf("save features CSV: %w", err), true)
	}
	outputs = append(outputs, s.paths.FeaturesCSV)

	if err := exporter.SaveSummaryCSV(summaries, s.paths.ObjectSummaryCSV); err != nil {
		return NewExecutionError(s.ID(), fmt.Errorf("save summary CSV: %w", err), true)
	}
	outputs = append(outputs, s.paths.ObjectSummaryCSV)

	if err := lightcurve.SaveToJSON(rows, s.paths.FeaturesJSON); err != nil {
		return NewExecutionError(s.ID(), fmt.Errorf("save features JSON: %w", err), true)
	}
	outputs = append(outputs, s.paths.FeaturesJSON)

	if err := lightcurve.SaveSummaryReport(rows, summaries, s.paths.SummaryReport); err != nil {
		return NewExecutionError(s.ID(), fmt.Errorf("save summary report: %w", err), true)
	}
	outputs = append(outputs, s.paths.SummaryReport)

	if s.workbookExport {
		if err := exporter.SaveSummaryWorkbook(rows, summaries, s.paths.SummaryWorkbook); err != nil {
			return NewExecutionError(s.ID(), fmt.Errorf("save summary workbook: %w", err), true)
		}
		outputs = append(outputs, s.paths.SummaryWorkbook)
	}

	state.SetContext(ContextKeyOutputFiles, outputs)

	s.logger.InfoContext(ctx, "snapshots exported",
		slog.String("operation_id", state.ID),
		slog.Int("files", len(outputs)))

	return nil
}

// RegisterPipelineSteps registers the full pipeline in dependency order
func RegisterPipelineSteps(m *Manager, cfg *config.Config, paths *config.Paths, logger *slog.Logger) error {
	steps := []Step{
		NewLoadStep(paths, logger),
		NewFeaturizeStep(cfg.Pipeline, logger),
		NewSummarizeStep(logger),
		NewExportStep(paths, cfg.Pipeline.WorkbookExport, logger),
	}

	for _, step := range steps {
		if err := m.RegisterStep(step); err != nil {
			return fmt.Errorf("register step %s: %w", step.ID(), err)
		}
	}

	return m.GetRegistry().ValidateDependencies()
}
