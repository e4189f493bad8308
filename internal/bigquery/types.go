package bigquery

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/efinance/internal/domain"
)

// RecordRepository stores transactions, expenses and investments. Each kind
// lives in its own table but shares one schema.
type RecordRepository interface {
	// Create validates rec, assigns ID and timestamps and stores it.
	Create(ctx context.Context, rec *domain.Record) (*domain.Record, error)

	// Get returns one record or domain.ErrNotFound.
	Get(ctx context.Context, kind domain.Kind, id string) (*domain.Record, error)

	// ListByUser returns every record of kind owned by userID, newest first.
	ListByUser(ctx context.Context, kind domain.Kind, userID string) ([]*domain.Record, error)

	// ListByUserAndPeriod returns the user's records dated inside period, newest first.
	ListByUserAndPeriod(ctx context.Context, kind domain.Kind, userID string, period domain.Period) ([]*domain.Record, error)

	// Update replaces the mutable fields of an existing record or returns domain.ErrNotFound.
	Update(ctx context.Context, rec *domain.Record) (*domain.Record, error)

	// Delete removes a record or returns domain.ErrNotFound.
	Delete(ctx context.Context, kind domain.Kind, id string) error

	// Close releases the underlying connection.
	Close() error
}

// UserRepository mirrors identity-provider profiles.
type UserRepository interface {
	// CreateOrGetUser returns the stored user for u.ExternalID, creating it when
	// absent. created reports whether a new row was written.
	CreateOrGetUser(ctx context.Context, u *domain.User) (user *domain.User, created bool, err error)

	// GetUser returns the user or domain.ErrNotFound.
	GetUser(ctx context.Context, externalID string) (*domain.User, error)

	// UpdateUser overwrites the profile fields or returns domain.ErrNotFound.
	UpdateUser(ctx context.Context, u *domain.User) (*domain.User, error)
}

// ImportRunRepository keeps the audit trail of statement uploads.
type ImportRunRepository interface {
	// StartImportRun stores run with status RUNNING and returns the new run id.
	StartImportRun(ctx context.Context, run *domain.ImportRun) (string, error)

	// FinishImportRun records the final status, tallies and issues.
	FinishImportRun(ctx context.Context, run *domain.ImportRun) error

	// GetImportRun returns one run or domain.ErrNotFound.
	GetImportRun(ctx context.Context, runID string) (*domain.ImportRun, error)

	// ListImportRuns returns the user's runs, newest first.
	ListImportRuns(ctx context.Context, userID string) ([]*domain.ImportRun, error)
}

// RecordRow is one row of finance.transactions, finance.expenses or finance.investments.
type RecordRow struct {
	RecordID    string                 `bigquery:"record_id"`
	UserID      string                 `bigquery:"user_id"`
	RecordDate  civil.Date             `bigquery:"record_date"`
	Description string                 `bigquery:"description"`
	Amount      *big.Rat               `bigquery:"amount"`
	Type        string                 `bigquery:"type"`
	Source      bigquery.NullString    `bigquery:"source"`
	CreatedTS   time.Time              `bigquery:"created_ts"`
	UpdatedTS   bigquery.NullTimestamp `bigquery:"updated_ts"`
}

// NewRecordRow maps a domain record onto its table row.
func NewRecordRow(rec *domain.Record) *RecordRow {
	row := &RecordRow{
		RecordID:    rec.ID,
		UserID:      rec.UserID,
		RecordDate:  rec.Date,
		Description: rec.Description,
		Amount:      rec.Amount.Rat(),
		Type:        rec.Type,
		Source:      bigquery.NullString{StringVal: rec.Source, Valid: rec.Source != ""},
		CreatedTS:   rec.CreatedAt,
	}
	if !rec.UpdatedAt.IsZero() {
		row.UpdatedTS = bigquery.NullTimestamp{Timestamp: rec.UpdatedAt, Valid: true}
	}
	return row
}

// ToDomain converts the row back into a record of the given kind.
func (r *RecordRow) ToDomain(kind domain.Kind) (*domain.Record, error) {
	amount := decimal.Zero
	if r.Amount != nil {
		parsed, err := decimal.NewFromString(r.Amount.FloatString(9))
		if err != nil {
			return nil, fmt.Errorf("ToDomain: amount of %s: %w", r.RecordID, err)
		}
		amount = parsed
	}

	rec := &domain.Record{
		ID:          r.RecordID,
		Kind:        kind,
		UserID:      r.UserID,
		Date:        r.RecordDate,
		Description: r.Description,
		Amount:      amount,
		Type:        r.Type,
		Source:      r.Source.StringVal,
		CreatedAt:   r.CreatedTS,
	}
	if r.UpdatedTS.Valid {
		rec.UpdatedAt = r.UpdatedTS.Timestamp
	}
	return rec, nil
}

// UserRow is one row of finance.users.
type UserRow struct {
	ExternalID string                 `bigquery:"external_id"`
	Email      bigquery.NullString    `bigquery:"email"`
	FirstName  bigquery.NullString    `bigquery:"first_name"`
	LastName   bigquery.NullString    `bigquery:"last_name"`
	CreatedTS  time.Time              `bigquery:"created_ts"`
	UpdatedTS  bigquery.NullTimestamp `bigquery:"updated_ts"`
}

// ToDomain converts the row into a user.
func (r *UserRow) ToDomain() *domain.User {
	u := &domain.User{
		ExternalID: r.ExternalID,
		Email:      r.Email.StringVal,
		FirstName:  r.FirstName.StringVal,
		LastName:   r.LastName.StringVal,
		CreatedAt:  r.CreatedTS,
	}
	if r.UpdatedTS.Valid {
		u.UpdatedAt = r.UpdatedTS.Timestamp
	}
	return u
}

// ImportRunRow is one row of finance.import_runs.
type ImportRunRow struct {
	ImportRunID  string                 `bigquery:"import_run_id"`
	UserID       string                 `bigquery:"user_id"`
	FileName     string                 `bigquery:"file_name"`
	FileKind     string                 `bigquery:"file_kind"`
	ArchiveURI   bigquery.NullString    `bigquery:"archive_uri"`
	Format       bigquery.NullString    `bigquery:"format"`
	Status       string                 `bigquery:"status"`
	DataRows     int64                  `bigquery:"data_rows"`
	Imported     int64                  `bigquery:"imported"`
	Failed       int64                  `bigquery:"failed"`
	Skipped      int64                  `bigquery:"skipped"`
	IssuesJSON   bigquery.NullString    `bigquery:"issues_json"`
	ErrorMessage bigquery.NullString    `bigquery:"error_message"`
	StartedTS    time.Time              `bigquery:"started_ts"`
	FinishedTS   bigquery.NullTimestamp `bigquery:"finished_ts"`
}

// ToDomain converts the row into an import run.
func (r *ImportRunRow) ToDomain() (*domain.ImportRun, error) {
	run := &domain.ImportRun{
		ID:           r.ImportRunID,
		UserID:       r.UserID,
		FileName:     r.FileName,
		FileKind:     r.FileKind,
		ArchiveURI:   r.ArchiveURI.StringVal,
		Format:       r.Format.StringVal,
		Status:       r.Status,
		DataRows:     int(r.DataRows),
		Imported:     int(r.Imported),
		Failed:       int(r.Failed),
		Skipped:      int(r.Skipped),
		ErrorMessage: r.ErrorMessage.StringVal,
		StartedAt:    r.StartedTS,
	}
	if r.FinishedTS.Valid {
		finished := r.FinishedTS.Timestamp
		run.FinishedAt = &finished
	}
	if r.IssuesJSON.Valid && r.IssuesJSON.StringVal != "" {
		if err := json.Unmarshal([]byte(r.IssuesJSON.StringVal), &run.Issues); err != nil {
			return nil, fmt.Errorf("ToDomain: issues of run %s: %w", r.ImportRunID, err)
		}
	}
	return run, nil
}

// EncodeIssues serialises row issues for the issues_json column.
func EncodeIssues(issues []domain.RowIssue) (string, error) {
	if len(issues) == 0 {
		return "", nil
	}
	data, err := json.Marshal(issues)
	if err != nil {
		return "", fmt.Errorf("EncodeIssues: %w", err)
	}
	return string(data), nil
}
