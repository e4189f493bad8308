package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dvloznov/efinance/internal/csvimport"
	"github.com/dvloznov/efinance/internal/gcsuploader"
	"github.com/dvloznov/efinance/internal/logger"

	bq "github.com/dvloznov/efinance/internal/bigquery"
)

// Failure is a normalised row the store refused.
type Failure struct {
	Row    int    `json:"row"`
	TempID string `json:"tempId"`
	Reason string `json:"reason"`
}

// ValidateFileStep runs the pre-flight file check. PDFs are recognised but
// rejected.
type ValidateFileStep struct{}

func (s *ValidateFileStep) Name() string { return "validate" }

func (s *ValidateFileStep) Execute(ctx context.Context, state *State) error {
	kind, err := csvimport.ValidateFile(csvimport.FileInfo{
		Name:        state.Upload.Name,
		ContentType: state.Upload.ContentType,
		Size:        state.Upload.Size,
	})
	if err != nil {
		return err
	}
	if state.Upload.Body == nil {
		return csvimport.ErrNoFile
	}
	state.Kind = kind
	if kind == csvimport.KindPDF {
		return csvimport.ErrPDFNotImplemented
	}
	return nil
}

// ReadBytesStep reads the body, enforcing MaxFileSize even when the declared
// size was wrong.
type ReadBytesStep struct{}

func (s *ReadBytesStep) Name() string { return "read" }

func (s *ReadBytesStep) Execute(ctx context.Context, state *State) error {
	data, err := io.ReadAll(io.LimitReader(state.Upload.Body, csvimport.MaxFileSize+1))
	if err != nil {
		return fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > csvimport.MaxFileSize {
		return csvimport.ErrFileTooLarge
	}
	state.Data = data
	return nil
}

// ArchiveStep copies the raw file to object storage. Failures are logged and
// the import carries on.
type ArchiveStep struct {
	Archiver gcsuploader.Archiver
	Now      func() time.Time
}

func (s *ArchiveStep) Name() string { return "archive" }

func (s *ArchiveStep) Execute(ctx context.Context, state *State) error {
	if s.Archiver == nil {
		return nil
	}
	log := logger.FromContext(ctx)

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	object := gcsuploader.ObjectName(state.UserID, state.Run.ID, state.Upload.Name, now())

	uri, err := s.Archiver.Archive(ctx, object, state.Upload.ContentType, bytes.NewReader(state.Data))
	if err != nil {
		log.Warn().
			Err(err).
			Str("object", object).
			Msg("Failed to archive statement, continuing import")
		return nil
	}

	state.ArchiveURI = uri
	log.Debug().Str("archive_uri", uri).Msg("Statement archived")
	return nil
}

// SplitRowsStep splits the CSV text into rows.
type SplitRowsStep struct{}

func (s *SplitRowsStep) Name() string { return "split" }

func (s *SplitRowsStep) Execute(ctx context.Context, state *State) error {
	rows, err := csvimport.ReadRows(bytes.NewReader(state.Data))
	if err != nil {
		return err
	}
	state.Rows = rows
	return nil
}

// NormalizeStep converts rows into canonical records.
type NormalizeStep struct {
	Normalizer *csvimport.Normalizer
}

func (s *NormalizeStep) Name() string { return "normalize" }

func (s *NormalizeStep) Execute(ctx context.Context, state *State) error {
	res, err := s.Normalizer.Normalize(state.Rows)
	state.Result = res
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("format", res.Format).
		Int("records", len(res.Records)).
		Int("skipped", len(res.Skips)).
		Msg("Statement normalised")
	return nil
}

// PersistStep saves records one at a time. A failed save is logged and
// tallied; it never stops the remaining rows.
type PersistStep struct {
	Records bq.RecordRepository
}

func (s *PersistStep) Name() string { return "persist" }

func (s *PersistStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)

	for _, rec := range state.Result.Records {
		dr := rec.ToDomain(state.UserID)
		stored, err := s.Records.Create(ctx, &dr)
		if err != nil {
			log.Warn().
				Err(err).
				Int("row", rec.Row).
				Str("temp_id", rec.TempID).
				Msg("Failed to save imported row, skipping")
			state.Failures = append(state.Failures, Failure{Row: rec.Row, TempID: rec.TempID, Reason: err.Error()})
			continue
		}
		state.Stored = append(state.Stored, stored)
	}
	return nil
}
