package bigquery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	bq "github.com/dvloznov/efinance/internal/bigquery"
	"github.com/dvloznov/efinance/internal/domain"
)

const recordColumns = `
	record_id,
	user_id,
	record_date,
	description,
	amount,
	type,
	source,
	created_ts,
	updated_ts`

// CreateRecordWithClient inserts rec into the table for its kind. DML is used
// instead of the streaming inserter so the row can be updated or deleted
// straight away.
func CreateRecordWithClient(ctx context.Context, client *bigquery.Client, datasetID string, rec *domain.Record) (*domain.Record, error) {
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("CreateRecord: %w", err)
	}
	table, err := tableFor(rec.Kind)
	if err != nil {
		return nil, fmt.Errorf("CreateRecord: %w", err)
	}

	stored := *rec
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	row := bq.NewRecordRow(&stored)

	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (%s)
		VALUES (
			@record_id,
			@user_id,
			@record_date,
			@description,
			@amount,
			@type,
			@source,
			@created_ts,
			@updated_ts
		)
	`, datasetID, table, recordColumns))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "record_id", Value: row.RecordID},
		{Name: "user_id", Value: row.UserID},
		{Name: "record_date", Value: row.RecordDate},
		{Name: "description", Value: row.Description},
		{Name: "amount", Value: row.Amount},
		{Name: "type", Value: row.Type},
		{Name: "source", Value: stored.Source},
		{Name: "created_ts", Value: stored.CreatedAt},
		{Name: "updated_ts", Value: stored.UpdatedAt},
	}

	if _, err := runDML(ctx, q); err != nil {
		return nil, fmt.Errorf("CreateRecord: %s: %w", table, err)
	}
	return &stored, nil
}

// GetRecordWithClient fetches one record by id.
func GetRecordWithClient(ctx context.Context, client *bigquery.Client, datasetID string, kind domain.Kind, id string) (*domain.Record, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, fmt.Errorf("GetRecord: %w", err)
	}

	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s.%s
		WHERE record_id = @record_id
		LIMIT 1
	`, recordColumns, datasetID, table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "record_id", Value: id},
	}

	rows, err := readAll[bq.RecordRow](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("GetRecord: %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("GetRecord: %s %s: %w", kind, id, domain.ErrNotFound)
	}
	return rows[0].ToDomain(kind)
}

// ListRecordsWithClient lists a user's records, newest first. A nil period
// lists everything.
func ListRecordsWithClient(ctx context.Context, client *bigquery.Client, datasetID string, kind domain.Kind, userID string, period *domain.Period) ([]*domain.Record, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, fmt.Errorf("ListRecords: %w", err)
	}

	where := "user_id = @user_id"
	params := []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}
	if period != nil {
		first, last := period.Range()
		where += " AND record_date >= @start_date AND record_date <= @end_date"
		params = append(params,
			bigquery.QueryParameter{Name: "start_date", Value: first},
			bigquery.QueryParameter{Name: "end_date", Value: last},
		)
	}

	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s.%s
		WHERE %s
		ORDER BY record_date DESC, created_ts DESC
	`, recordColumns, datasetID, table, where))
	q.Parameters = params

	rows, err := readAll[bq.RecordRow](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListRecords: %s: %w", table, err)
	}

	records := make([]*domain.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.ToDomain(kind)
		if err != nil {
			return nil, fmt.Errorf("ListRecords: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// UpdateRecordWithClient overwrites date, description, amount and type.
func UpdateRecordWithClient(ctx context.Context, client *bigquery.Client, datasetID string, rec *domain.Record) (*domain.Record, error) {
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("UpdateRecord: %w", err)
	}
	table, err := tableFor(rec.Kind)
	if err != nil {
		return nil, fmt.Errorf("UpdateRecord: %w", err)
	}

	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET record_date = @record_date,
		    description = @description,
		    amount = @amount,
		    type = @type,
		    updated_ts = @updated_ts
		WHERE record_id = @record_id
	`, datasetID, table))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "record_date", Value: rec.Date},
		{Name: "description", Value: rec.Description},
		{Name: "amount", Value: rec.Amount.Rat()},
		{Name: "type", Value: rec.Type},
		{Name: "updated_ts", Value: time.Now().UTC()},
		{Name: "record_id", Value: rec.ID},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("UpdateRecord: %s: %w", table, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("UpdateRecord: %s %s: %w", rec.Kind, rec.ID, domain.ErrNotFound)
	}

	return GetRecordWithClient(ctx, client, datasetID, rec.Kind, rec.ID)
}

// DeleteRecordWithClient removes one record.
func DeleteRecordWithClient(ctx context.Context, client *bigquery.Client, datasetID string, kind domain.Kind, id string) error {
	table, err := tableFor(kind)
	if err != nil {
		return fmt.Errorf("DeleteRecord: %w", err)
	}

	q := client.Query(fmt.Sprintf(`
		DELETE FROM %s.%s
		WHERE record_id = @record_id
	`, datasetID, table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "record_id", Value: id},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("DeleteRecord: %s: %w", table, err)
	}
	if affected == 0 {
		return fmt.Errorf("DeleteRecord: %s %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

// isNotFound is shared by the ops files.
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
