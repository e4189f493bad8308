// Package dashboard aggregates one month of a user's records into the figures
// the dashboard charts draw.
package dashboard

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	bq "github.com/dvloznov/efinance/internal/bigquery"
	"github.com/dvloznov/efinance/internal/domain"
	"github.com/dvloznov/efinance/internal/logger"
)

// OtherCategory groups debits that carry no category.
const OtherCategory = "Other"

// CategoryAmount is one slice of a breakdown.
type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Point is one labelled value of a time series.
type Point struct {
	Date  civil.Date      `json:"date"`
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// TransactionSummary totals a month of bank transactions.
type TransactionSummary struct {
	TotalCredit decimal.Decimal  `json:"totalCredit"`
	TotalDebit  decimal.Decimal  `json:"totalDebit"`
	Net         decimal.Decimal  `json:"total"`
	Breakdown   []CategoryAmount `json:"expensesBreakdown"`
	Balance     []Point          `json:"balance"`
}

// ExpenseSummary holds parallel category and amount slices for a pie chart.
type ExpenseSummary struct {
	Categories []string          `json:"categories"`
	Amounts    []decimal.Decimal `json:"amounts"`
}

// InvestmentSummary is the cumulative value of investments over the month.
type InvestmentSummary struct {
	Labels           []string          `json:"labels"`
	CumulativeValues []decimal.Decimal `json:"cumulativeValues"`
	Investments      []*domain.Record  `json:"investments"`
}

// Summary is everything the dashboard shows for one month.
type Summary struct {
	Period       string             `json:"period"`
	Transactions TransactionSummary `json:"transactionSummary"`
	Expenses     ExpenseSummary     `json:"expenseSummary"`
	Investments  InvestmentSummary  `json:"investmentSummary"`
}

// Label formats a date as DD/MM.
func Label(d civil.Date) string {
	return fmt.Sprintf("%02d/%02d", d.Day, int(d.Month))
}

// SummarizeTransactions totals credits and debits, breaks debits down by
// category and builds a running balance with one point per date.
func SummarizeTransactions(records []*domain.Record) TransactionSummary {
	sum := TransactionSummary{
		TotalCredit: decimal.Zero,
		TotalDebit:  decimal.Zero,
		Breakdown:   []CategoryAmount{},
		Balance:     []Point{},
	}

	breakdown := newAccumulator()
	for _, r := range records {
		switch r.Type {
		case domain.TypeCredit:
			sum.TotalCredit = sum.TotalCredit.Add(r.Amount)
		case domain.TypeDebit:
			sum.TotalDebit = sum.TotalDebit.Add(r.Amount)
			breakdown.add(categoryOf(r), r.Amount)
		}
	}
	sum.Net = sum.TotalCredit.Sub(sum.TotalDebit)
	for i, c := range breakdown.keys {
		sum.Breakdown = append(sum.Breakdown, CategoryAmount{Category: c, Amount: breakdown.values[i]})
	}

	running := decimal.Zero
	for _, r := range chronological(records) {
		switch r.Type {
		case domain.TypeCredit:
			running = running.Add(r.Amount)
		case domain.TypeDebit:
			running = running.Sub(r.Amount)
		default:
			continue
		}
		n := len(sum.Balance)
		if n > 0 && sum.Balance[n-1].Date == r.Date {
			sum.Balance[n-1].Value = running
			continue
		}
		sum.Balance = append(sum.Balance, Point{Date: r.Date, Label: Label(r.Date), Value: running})
	}
	return sum
}

// SummarizeExpenses sums expenses per category. Categories appear in the
// order they are first seen.
func SummarizeExpenses(records []*domain.Record) ExpenseSummary {
	acc := newAccumulator()
	for _, r := range records {
		acc.add(categoryOf(r), r.Amount)
	}
	return ExpenseSummary{Categories: acc.keys, Amounts: acc.values}
}

// SummarizeInvestments returns the running total of investments in date order.
func SummarizeInvestments(records []*domain.Record) InvestmentSummary {
	sum := InvestmentSummary{
		Labels:           []string{},
		CumulativeValues: []decimal.Decimal{},
		Investments:      []*domain.Record{},
	}
	running := decimal.Zero
	for _, r := range chronological(records) {
		running = running.Add(r.Amount)
		sum.Labels = append(sum.Labels, Label(r.Date))
		sum.CumulativeValues = append(sum.CumulativeValues, running)
		sum.Investments = append(sum.Investments, r)
	}
	return sum
}

// Build loads the user's records for period and summarises all three kinds.
func Build(ctx context.Context, repo bq.RecordRepository, userID string, period domain.Period) (*Summary, error) {
	load := func(kind domain.Kind) ([]*domain.Record, error) {
		recs, err := repo.ListByUserAndPeriod(ctx, kind, userID, period)
		if err != nil {
			return nil, fmt.Errorf("Build: list %s: %w", kind, err)
		}
		return recs, nil
	}

	txns, err := load(domain.KindTransaction)
	if err != nil {
		return nil, err
	}
	expenses, err := load(domain.KindExpense)
	if err != nil {
		return nil, err
	}
	investments, err := load(domain.KindInvestment)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("user_id", userID).
		Str("period", period.String()).
		Int("transactions", len(txns)).
		Int("expenses", len(expenses)).
		Int("investments", len(investments)).
		Msg("Building dashboard")

	return &Summary{
		Period:       period.String(),
		Transactions: SummarizeTransactions(txns),
		Expenses:     SummarizeExpenses(expenses),
		Investments:  SummarizeInvestments(investments),
	}, nil
}

// categoryOf returns the expense category. Bank transactions have none.
func categoryOf(r *domain.Record) string {
	if r.Kind == domain.KindExpense && r.Type != "" {
		return r.Type
	}
	return OtherCategory
}

// chronological returns a copy sorted by date, keeping input order within a day.
func chronological(records []*domain.Record) []*domain.Record {
	out := make([]*domain.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

type accumulator struct {
	index  map[string]int
	keys   []string
	values []decimal.Decimal
}

func newAccumulator() *accumulator {
	return &accumulator{index: map[string]int{}, keys: []string{}, values: []decimal.Decimal{}}
}

func (a *accumulator) add(key string, v decimal.Decimal) {
	i, ok := a.index[key]
	if !ok {
		i = len(a.keys)
		a.index[key] = i
		a.keys = append(a.keys, key)
		a.values = append(a.values, decimal.Zero)
	}
	a.values[i] = a.values[i].Add(v)
}
