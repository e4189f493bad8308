package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	bq "github.com/dvloznov/efinance/internal/bigquery"
	"github.com/dvloznov/efinance/internal/domain"
)

// Re-export interfaces from the shared package.
type RecordRepository = bq.RecordRepository
type UserRepository = bq.UserRepository
type ImportRunRepository = bq.ImportRunRepository

// DefaultDatasetID is the dataset the migrations create.
const DefaultDatasetID = "finance"

// BigQueryRepository implements RecordRepository, UserRepository and
// ImportRunRepository over one shared BigQuery client.
type BigQueryRepository struct {
	client    *bigquery.Client
	datasetID string
}

var (
	_ RecordRepository    = (*BigQueryRepository)(nil)
	_ UserRepository      = (*BigQueryRepository)(nil)
	_ ImportRunRepository = (*BigQueryRepository)(nil)
)

// NewBigQueryRepository creates a repository with its own client.
func NewBigQueryRepository(ctx context.Context, projectID, datasetID string) (*BigQueryRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryRepository: creating client: %w", err)
	}
	return NewBigQueryRepositoryWithClient(client, datasetID), nil
}

// NewBigQueryRepositoryWithClient wraps an existing client.
func NewBigQueryRepositoryWithClient(client *bigquery.Client, datasetID string) *BigQueryRepository {
	if datasetID == "" {
		datasetID = DefaultDatasetID
	}
	return &BigQueryRepository{client: client, datasetID: datasetID}
}

// Close closes the BigQuery client connection.
func (r *BigQueryRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Create delegates to CreateRecordWithClient.
func (r *BigQueryRepository) Create(ctx context.Context, rec *domain.Record) (*domain.Record, error) {
	return CreateRecordWithClient(ctx, r.client, r.datasetID, rec)
}

// Get delegates to GetRecordWithClient.
func (r *BigQueryRepository) Get(ctx context.Context, kind domain.Kind, id string) (*domain.Record, error) {
	return GetRecordWithClient(ctx, r.client, r.datasetID, kind, id)
}

// ListByUser delegates to ListRecordsWithClient.
func (r *BigQueryRepository) ListByUser(ctx context.Context, kind domain.Kind, userID string) ([]*domain.Record, error) {
	return ListRecordsWithClient(ctx, r.client, r.datasetID, kind, userID, nil)
}

// ListByUserAndPeriod delegates to ListRecordsWithClient with the month range.
func (r *BigQueryRepository) ListByUserAndPeriod(ctx context.Context, kind domain.Kind, userID string, period domain.Period) ([]*domain.Record, error) {
	return ListRecordsWithClient(ctx, r.client, r.datasetID, kind, userID, &period)
}

// Update delegates to UpdateRecordWithClient.
func (r *BigQueryRepository) Update(ctx context.Context, rec *domain.Record) (*domain.Record, error) {
	return UpdateRecordWithClient(ctx, r.client, r.datasetID, rec)
}

// Delete delegates to DeleteRecordWithClient.
func (r *BigQueryRepository) Delete(ctx context.Context, kind domain.Kind, id string) error {
	return DeleteRecordWithClient(ctx, r.client, r.datasetID, kind, id)
}

// CreateOrGetUser delegates to CreateOrGetUserWithClient.
func (r *BigQueryRepository) CreateOrGetUser(ctx context.Context, u *domain.User) (*domain.User, bool, error) {
	return CreateOrGetUserWithClient(ctx, r.client, r.datasetID, u)
}

// GetUser delegates to GetUserWithClient.
func (r *BigQueryRepository) GetUser(ctx context.Context, externalID string) (*domain.User, error) {
	return GetUserWithClient(ctx, r.client, r.datasetID, externalID)
}

// UpdateUser delegates to UpdateUserWithClient.
func (r *BigQueryRepository) UpdateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	return UpdateUserWithClient(ctx, r.client, r.datasetID, u)
}

// StartImportRun delegates to StartImportRunWithClient.
func (r *BigQueryRepository) StartImportRun(ctx context.Context, run *domain.ImportRun) (string, error) {
	return StartImportRunWithClient(ctx, r.client, r.datasetID, run)
}

// FinishImportRun delegates to FinishImportRunWithClient.
func (r *BigQueryRepository) FinishImportRun(ctx context.Context, run *domain.ImportRun) error {
	return FinishImportRunWithClient(ctx, r.client, r.datasetID, run)
}

// GetImportRun delegates to GetImportRunWithClient.
func (r *BigQueryRepository) GetImportRun(ctx context.Context, runID string) (*domain.ImportRun, error) {
	return GetImportRunWithClient(ctx, r.client, r.datasetID, runID)
}

// ListImportRuns delegates to ListImportRunsWithClient.
func (r *BigQueryRepository) ListImportRuns(ctx context.Context, userID string) ([]*domain.ImportRun, error) {
	return ListImportRunsWithClient(ctx, r.client, r.datasetID, userID)
}
