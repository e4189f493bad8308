package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	bq "github.com/dvloznov/efinance/internal/bigquery"
	"github.com/dvloznov/efinance/internal/domain"
)

// CreateOrGetUserWithClient returns the existing user or inserts a new one.
func CreateOrGetUserWithClient(ctx context.Context, client *bigquery.Client, datasetID string, u *domain.User) (*domain.User, bool, error) {
	if err := u.Validate(); err != nil {
		return nil, false, fmt.Errorf("CreateOrGetUser: %w", err)
	}

	existing, err := GetUserWithClient(ctx, client, datasetID, u.ExternalID)
	if err == nil {
		return existing, false, nil
	}
	if !isNotFound(err) {
		return nil, false, fmt.Errorf("CreateOrGetUser: %w", err)
	}

	now := time.Now().UTC()
	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			external_id,
			email,
			first_name,
			last_name,
			created_ts
		)
		VALUES (
			@external_id,
			@email,
			@first_name,
			@last_name,
			@created_ts
		)
	`, datasetID, usersTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "external_id", Value: u.ExternalID},
		{Name: "email", Value: u.Email},
		{Name: "first_name", Value: u.FirstName},
		{Name: "last_name", Value: u.LastName},
		{Name: "created_ts", Value: now},
	}

	if _, err := runDML(ctx, q); err != nil {
		return nil, false, fmt.Errorf("CreateOrGetUser: %w", err)
	}

	created := *u
	created.CreatedAt = now
	return &created, true, nil
}

// GetUserWithClient looks a user up by external id.
func GetUserWithClient(ctx context.Context, client *bigquery.Client, datasetID, externalID string) (*domain.User, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			external_id,
			email,
			first_name,
			last_name,
			created_ts,
			updated_ts
		FROM %s.%s
		WHERE external_id = @external_id
		LIMIT 1
	`, datasetID, usersTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "external_id", Value: externalID},
	}

	rows, err := readAll[bq.UserRow](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("GetUser: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("GetUser: %s: %w", externalID, domain.ErrNotFound)
	}
	return rows[0].ToDomain(), nil
}

// UpdateUserWithClient overwrites the profile fields.
func UpdateUserWithClient(ctx context.Context, client *bigquery.Client, datasetID string, u *domain.User) (*domain.User, error) {
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("UpdateUser: %w", err)
	}

	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET email = @email,
		    first_name = @first_name,
		    last_name = @last_name,
		    updated_ts = @updated_ts
		WHERE external_id = @external_id
	`, datasetID, usersTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "email", Value: u.Email},
		{Name: "first_name", Value: u.FirstName},
		{Name: "last_name", Value: u.LastName},
		{Name: "updated_ts", Value: time.Now().UTC()},
		{Name: "external_id", Value: u.ExternalID},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("UpdateUser: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("UpdateUser: %s: %w", u.ExternalID, domain.ErrNotFound)
	}

	return GetUserWithClient(ctx, client, datasetID, u.ExternalID)
}
