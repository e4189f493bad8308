// Package importer runs a statement upload end to end: validation, archiving,
// normalisation and best-effort persistence, with an audit run per upload.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	bq "github.com/dvloznov/efinance/internal/bigquery"
	"github.com/dvloznov/efinance/internal/csvimport"
	"github.com/dvloznov/efinance/internal/domain"
	"github.com/dvloznov/efinance/internal/gcsuploader"
	"github.com/dvloznov/efinance/internal/logger"
)

// Summary is what the caller shows after an import.
type Summary struct {
	RunID      string           `json:"runId"`
	Format     string           `json:"format"`
	ArchiveURI string           `json:"archiveUri,omitempty"`
	DataRows   int              `json:"dataRows"`
	Imported   int              `json:"imported"`
	Failed     int              `json:"failed"`
	Skipped    int              `json:"skipped"`
	Skips      []csvimport.Skip `json:"skips"`
	Failures   []Failure        `json:"failures"`
	Records    []*domain.Record `json:"records"`
	Message    string           `json:"message"`
}

// Service imports statements for users.
type Service struct {
	records    bq.RecordRepository
	runs       bq.ImportRunRepository
	archiver   gcsuploader.Archiver
	normalizer *csvimport.Normalizer
	log        zerolog.Logger
	now        func() time.Time
}

// NewService creates an import service. archiver may be nil to disable archiving.
func NewService(records bq.RecordRepository, runs bq.ImportRunRepository, archiver gcsuploader.Archiver, normalizer *csvimport.Normalizer, log zerolog.Logger) *Service {
	if normalizer == nil {
		normalizer = csvimport.NewNormalizer(csvimport.Options{})
	}
	return &Service{
		records:    records,
		runs:       runs,
		archiver:   archiver,
		normalizer: normalizer,
		log:        log,
		now:        time.Now,
	}
}

// Import processes one upload for userID.
//
// Whole-file failures come back as errors: csvimport.ErrNoFile,
// ErrUnsupportedType, ErrFileTooLarge, ErrPDFNotImplemented, ErrEmptyInput and
// ErrNoValidRows. For ErrNoValidRows the Summary with its skips is returned as
// well. Rows the store rejects are reported in Summary.Failures.
func (s *Service) Import(ctx context.Context, userID string, up Upload) (*Summary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("Import: userId is required: %w", domain.ErrValidation)
	}

	log := s.log.With().Str("user_id", userID).Str("file", up.Name).Logger()
	ctx = logger.WithContext(ctx, log)

	state := &State{UserID: userID, Upload: up}
	if err := NewPipeline(&ValidateFileStep{}).Execute(ctx, state); err != nil {
		log.Info().Err(err).Msg("Upload rejected")
		return nil, fmt.Errorf("Import: %w", err)
	}

	run := &domain.ImportRun{
		UserID:    userID,
		FileName:  up.Name,
		FileKind:  string(state.Kind),
		Status:    domain.ImportRunning,
		StartedAt: s.now().UTC(),
	}
	runID, err := s.runs.StartImportRun(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("Import: start run: %w", err)
	}
	run.ID = runID
	state.Run = run

	log = log.With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)

	pipeline := NewPipeline(
		&ReadBytesStep{},
		&ArchiveStep{Archiver: s.archiver, Now: s.now},
		&SplitRowsStep{},
		&NormalizeStep{Normalizer: s.normalizer},
		&PersistStep{Records: s.records},
	)
	pipeErr := pipeline.Execute(ctx, state)

	summary := buildSummary(state)
	s.finishRun(ctx, run, summary, pipeErr)

	if pipeErr != nil {
		log.Warn().Err(pipeErr).Msg("Import failed")
		if errors.Is(pipeErr, csvimport.ErrNoValidRows) {
			return summary, fmt.Errorf("Import: %w", pipeErr)
		}
		return nil, fmt.Errorf("Import: %w", pipeErr)
	}

	log.Info().
		Int("imported", summary.Imported).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Msg(summary.Message)
	return summary, nil
}

func buildSummary(state *State) *Summary {
	sum := &Summary{
		RunID:      state.Run.ID,
		Format:     state.Result.Format,
		ArchiveURI: state.ArchiveURI,
		DataRows:   state.Result.DataRows,
		Imported:   len(state.Stored),
		Failed:     len(state.Failures),
		Skipped:    len(state.Result.Skips),
		Skips:      state.Result.Skips,
		Failures:   state.Failures,
		Records:    state.Stored,
	}
	if sum.Skips == nil {
		sum.Skips = []csvimport.Skip{}
	}
	if sum.Failures == nil {
		sum.Failures = []Failure{}
	}
	if sum.Records == nil {
		sum.Records = []*domain.Record{}
	}
	sum.Message = fmt.Sprintf("imported %d of %d rows", sum.Imported, sum.DataRows)
	return sum
}

// finishRun records the outcome. A store error here is logged only; the
// records already saved stay saved.
func (s *Service) finishRun(ctx context.Context, run *domain.ImportRun, sum *Summary, pipeErr error) {
	run.Format = sum.Format
	run.ArchiveURI = sum.ArchiveURI
	run.DataRows = sum.DataRows
	run.Imported = sum.Imported
	run.Failed = sum.Failed
	run.Skipped = sum.Skipped
	run.Issues = run.Issues[:0]
	for _, sk := range sum.Skips {
		run.Issues = append(run.Issues, domain.RowIssue{Row: sk.Row, Reason: sk.Reason})
	}
	for _, f := range sum.Failures {
		run.Issues = append(run.Issues, domain.RowIssue{Row: f.Row, Reason: "save failed: " + f.Reason})
	}

	if pipeErr != nil {
		run.Status = domain.ImportFailed
		run.ErrorMessage = pipeErr.Error()
	} else {
		run.Status = domain.FinishStatus(sum.Imported, sum.Failed)
	}
	finished := s.now().UTC()
	run.FinishedAt = &finished

	if err := s.runs.FinishImportRun(ctx, run); err != nil {
		log := logger.FromContext(ctx)
		log.Error().
			Err(err).
			Str("run_id", run.ID).
			Msg("Failed to record import run outcome")
	}
}

// Run returns one import run.
func (s *Service) Run(ctx context.Context, runID string) (*domain.ImportRun, error) {
	return s.runs.GetImportRun(ctx, runID)
}

// Runs lists a user's import runs, newest first.
func (s *Service) Runs(ctx context.Context, userID string) ([]*domain.ImportRun, error) {
	return s.runs.ListImportRuns(ctx, userID)
}
