package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/efinance/internal/domain"
)

func newRecord(kind domain.Kind, user string, d civil.Date, desc, amount, typ string) *domain.Record {
	return &domain.Record{
		Kind:        kind,
		UserID:      user,
		Date:        d,
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Type:        typ,
	}
}

func day(m time.Month, d int) civil.Date {
	return civil.Date{Year: 2025, Month: m, Day: d}
}

func TestStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	in := newRecord(domain.KindTransaction, " user_1 ", day(time.January, 15), "  Groceries ", "500", domain.TypeDebit)
	created, err := s.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Errorf("Create() did not assign id and timestamps: %+v", created)
	}
	if created.UserID != "user_1" || created.Description != "Groceries" {
		t.Errorf("Create() did not trim fields: %+v", created)
	}

	got, err := s.Get(ctx, domain.KindTransaction, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != created.ID || !got.Amount.Equal(created.Amount) {
		t.Errorf("Get() = %+v, want %+v", got, created)
	}

	// Mutating the returned copy must not change the stored record.
	got.Description = "changed"
	again, _ := s.Get(ctx, domain.KindTransaction, created.ID)
	if again.Description != "Groceries" {
		t.Errorf("stored record was mutated through a returned copy")
	}

	if _, err := s.Get(ctx, domain.KindExpense, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() from another kind error = %v, want ErrNotFound", err)
	}
}

func TestStore_CreateValidates(t *testing.T) {
	s := NewStore()
	bad := newRecord(domain.KindExpense, "user_1", day(time.January, 1), "Lunch", "10", "Snacks")

	if _, err := s.Create(context.Background(), bad); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Create() error = %v, want ErrValidation", err)
	}
}

func TestStore_ListByUserAndPeriod(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	seed := []*domain.Record{
		newRecord(domain.KindExpense, "user_1", day(time.January, 5), "Bus", "2", "Transport"),
		newRecord(domain.KindExpense, "user_1", day(time.January, 31), "Rent", "900", "Housing"),
		newRecord(domain.KindExpense, "user_1", day(time.February, 1), "Cinema", "12", "Entertainment"),
		newRecord(domain.KindExpense, "user_2", day(time.January, 10), "Other user", "5", "Food"),
		newRecord(domain.KindExpense, "user_1", day(time.January, 5), "Coffee", "3", "Food"),
	}
	for _, r := range seed {
		if _, err := s.Create(ctx, r); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := s.ListByUserAndPeriod(ctx, domain.KindExpense, "user_1", domain.Period{Year: 2025, Month: time.January})
	if err != nil {
		t.Fatalf("ListByUserAndPeriod() error = %v", err)
	}

	want := []string{"Rent", "Coffee", "Bus"}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i, desc := range want {
		if got[i].Description != desc {
			t.Errorf("record %d = %q, want %q", i, got[i].Description, desc)
		}
	}

	all, err := s.ListByUser(ctx, domain.KindExpense, "user_1")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(all) != 4 || all[0].Description != "Cinema" {
		t.Errorf("ListByUser() = %d records, first %q", len(all), all[0].Description)
	}

	empty, err := s.ListByUser(ctx, domain.KindInvestment, "user_1")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("ListByUser() on empty kind = %v, %v; want empty non-nil slice", empty, err)
	}
}

func TestStore_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	created, err := s.Create(ctx, newRecord(domain.KindInvestment, "user_1", day(time.March, 1), "Index fund", "1000", "Mutual Funds"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	upd := *created
	upd.Amount = decimal.RequireFromString("1500")
	upd.Type = "Stocks"
	upd.UserID = "someone_else"
	updated, err := s.Update(ctx, &upd)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !updated.Amount.Equal(decimal.RequireFromString("1500")) || updated.Type != "Stocks" {
		t.Errorf("Update() = %+v", updated)
	}
	if updated.UserID != "user_1" {
		t.Errorf("Update() changed owner to %q", updated.UserID)
	}

	missing := upd
	missing.ID = "nope"
	if _, err := s.Update(ctx, &missing); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Delete(ctx, domain.KindInvestment, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, domain.KindInvestment, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestStore_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Create(ctx, newRecord(domain.KindTransaction, "user_1", day(time.April, 1), "Tx", "1", domain.TypeCredit))
		}()
	}
	wg.Wait()

	all, err := s.ListByUser(ctx, domain.KindTransaction, "user_1")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(all) != 50 {
		t.Errorf("got %d records, want 50", len(all))
	}
}

func TestStore_Users(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	u, created, err := s.CreateOrGetUser(ctx, &domain.User{ExternalID: "clerk_1", Email: "a@example.com", FirstName: "Ada"})
	if err != nil || !created {
		t.Fatalf("CreateOrGetUser() = %v, %v, %v", u, created, err)
	}

	again, created, err := s.CreateOrGetUser(ctx, &domain.User{ExternalID: "clerk_1", Email: "other@example.com"})
	if err != nil || created {
		t.Fatalf("second CreateOrGetUser() created = %v, err = %v", created, err)
	}
	if again.Email != "a@example.com" {
		t.Errorf("CreateOrGetUser() overwrote existing user: %+v", again)
	}

	updated, err := s.UpdateUser(ctx, &domain.User{ExternalID: "clerk_1", Email: "new@example.com", LastName: "Lovelace"})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if updated.Email != "new@example.com" || updated.LastName != "Lovelace" || updated.CreatedAt != u.CreatedAt {
		t.Errorf("UpdateUser() = %+v", updated)
	}

	if _, err := s.GetUser(ctx, "clerk_2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetUser(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.UpdateUser(ctx, &domain.User{ExternalID: "clerk_2"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateUser(missing) error = %v, want ErrNotFound", err)
	}
	if _, _, err := s.CreateOrGetUser(ctx, &domain.User{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("CreateOrGetUser(empty) error = %v, want ErrValidation", err)
	}
}

func TestStore_ImportRuns(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	first, err := s.StartImportRun(ctx, &domain.ImportRun{UserID: "user_1", FileName: "jan.csv", FileKind: "csv"})
	if err != nil {
		t.Fatalf("StartImportRun() error = %v", err)
	}
	second, _ := s.StartImportRun(ctx, &domain.ImportRun{UserID: "user_1", FileName: "feb.csv", FileKind: "csv"})
	_, _ = s.StartImportRun(ctx, &domain.ImportRun{UserID: "user_2", FileName: "x.csv", FileKind: "csv"})

	run, err := s.GetImportRun(ctx, first)
	if err != nil {
		t.Fatalf("GetImportRun() error = %v", err)
	}
	if run.Status != domain.ImportRunning || run.FinishedAt != nil {
		t.Errorf("new run = %+v, want RUNNING and unfinished", run)
	}

	run.Status = domain.ImportPartial
	run.Imported, run.Failed, run.Skipped, run.DataRows = 3, 1, 1, 5
	run.Issues = []domain.RowIssue{{Row: 2, Reason: "empty row"}}
	if err := s.FinishImportRun(ctx, run); err != nil {
		t.Fatalf("FinishImportRun() error = %v", err)
	}

	done, _ := s.GetImportRun(ctx, first)
	if done.Status != domain.ImportPartial || done.Imported != 3 || done.FinishedAt == nil || len(done.Issues) != 1 {
		t.Errorf("finished run = %+v", done)
	}

	runs, err := s.ListImportRuns(ctx, "user_1")
	if err != nil {
		t.Fatalf("ListImportRuns() error = %v", err)
	}
	if len(runs) != 2 || runs[0].ID != second || runs[1].ID != first {
		t.Errorf("ListImportRuns() order wrong: %+v", runs)
	}

	if err := s.FinishImportRun(ctx, &domain.ImportRun{ID: "missing"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("FinishImportRun(missing) error = %v, want ErrNotFound", err)
	}
}
