package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/efinance/internal/domain"
)

const (
	transactionsTable = "transactions"
	expensesTable     = "expenses"
	investmentsTable  = "investments"
	usersTable        = "users"
	importRunsTable   = "import_runs"

	maxErrorMessageLen = 2000
)

// tableFor maps a record kind onto its table.
func tableFor(kind domain.Kind) (string, error) {
	switch kind {
	case domain.KindTransaction:
		return transactionsTable, nil
	case domain.KindExpense:
		return expensesTable, nil
	case domain.KindInvestment:
		return investmentsTable, nil
	default:
		return "", fmt.Errorf("unknown record kind %q: %w", kind, domain.ErrValidation)
	}
}

// runDML runs a DML statement and returns the number of affected rows.
func runDML(ctx context.Context, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	if status.Statistics != nil {
		if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
			return qs.NumDMLAffectedRows, nil
		}
	}
	return 0, nil
}

// readAll drains a query into rows of type T.
func readAll[T any](ctx context.Context, q *bigquery.Query) ([]*T, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}

	var rows []*T
	for {
		var r T
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating rows: %w", err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
