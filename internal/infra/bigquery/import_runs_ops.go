package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	bq "github.com/dvloznov/efinance/internal/bigquery"
	"github.com/dvloznov/efinance/internal/domain"
)

const importRunColumns = `
	import_run_id,
	user_id,
	file_name,
	file_kind,
	archive_uri,
	format,
	status,
	data_rows,
	imported,
	failed,
	skipped,
	issues_json,
	error_message,
	started_ts,
	finished_ts`

// StartImportRunWithClient inserts a new row into import_runs with
// status=RUNNING and returns the generated import_run_id.
func StartImportRunWithClient(ctx context.Context, client *bigquery.Client, datasetID string, run *domain.ImportRun) (string, error) {
	runID := uuid.NewString()
	started := run.StartedAt
	if started.IsZero() {
		started = time.Now().UTC()
	}

	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			import_run_id,
			user_id,
			file_name,
			file_kind,
			status,
			data_rows,
			imported,
			failed,
			skipped,
			started_ts
		)
		VALUES (
			@import_run_id,
			@user_id,
			@file_name,
			@file_kind,
			@status,
			0, 0, 0, 0,
			@started_ts
		)
	`, datasetID, importRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "import_run_id", Value: runID},
		{Name: "user_id", Value: run.UserID},
		{Name: "file_name", Value: run.FileName},
		{Name: "file_kind", Value: run.FileKind},
		{Name: "status", Value: domain.ImportRunning},
		{Name: "started_ts", Value: started},
	}

	if _, err := runDML(ctx, q); err != nil {
		return "", fmt.Errorf("StartImportRun: %w", err)
	}
	return runID, nil
}

// FinishImportRunWithClient records the outcome of a run. The error message is
// cut to 2000 bytes.
func FinishImportRunWithClient(ctx context.Context, client *bigquery.Client, datasetID string, run *domain.ImportRun) error {
	issues, err := bq.EncodeIssues(run.Issues)
	if err != nil {
		return fmt.Errorf("FinishImportRun: %w", err)
	}
	finished := time.Now().UTC()
	if run.FinishedAt != nil {
		finished = *run.FinishedAt
	}

	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    archive_uri = @archive_uri,
		    format = @format,
		    data_rows = @data_rows,
		    imported = @imported,
		    failed = @failed,
		    skipped = @skipped,
		    issues_json = @issues_json,
		    error_message = @error_message,
		    finished_ts = @finished_ts
		WHERE import_run_id = @import_run_id
	`, datasetID, importRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: run.Status},
		{Name: "archive_uri", Value: run.ArchiveURI},
		{Name: "format", Value: run.Format},
		{Name: "data_rows", Value: run.DataRows},
		{Name: "imported", Value: run.Imported},
		{Name: "failed", Value: run.Failed},
		{Name: "skipped", Value: run.Skipped},
		{Name: "issues_json", Value: issues},
		{Name: "error_message", Value: truncate(run.ErrorMessage, maxErrorMessageLen)},
		{Name: "finished_ts", Value: finished},
		{Name: "import_run_id", Value: run.ID},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("FinishImportRun: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("FinishImportRun: %s: %w", run.ID, domain.ErrNotFound)
	}
	return nil
}

// GetImportRunWithClient fetches one run.
func GetImportRunWithClient(ctx context.Context, client *bigquery.Client, datasetID, runID string) (*domain.ImportRun, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s.%s
		WHERE import_run_id = @import_run_id
		LIMIT 1
	`, importRunColumns, datasetID, importRunsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "import_run_id", Value: runID},
	}

	rows, err := readAll[bq.ImportRunRow](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("GetImportRun: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("GetImportRun: %s: %w", runID, domain.ErrNotFound)
	}
	return rows[0].ToDomain()
}

// ListImportRunsWithClient lists a user's runs, newest first.
func ListImportRunsWithClient(ctx context.Context, client *bigquery.Client, datasetID, userID string) ([]*domain.ImportRun, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s.%s
		WHERE user_id = @user_id
		ORDER BY started_ts DESC
	`, importRunColumns, datasetID, importRunsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	rows, err := readAll[bq.ImportRunRow](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListImportRuns: %w", err)
	}

	runs := make([]*domain.ImportRun, 0, len(rows))
	for _, row := range rows {
		run, err := row.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("ListImportRuns: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
