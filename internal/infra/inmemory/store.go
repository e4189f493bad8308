// Package inmemory provides map-backed repositories for local development and tests.
// Data is lost on restart.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	bq "github.com/dvloznov/efinance/internal/bigquery"
	"github.com/dvloznov/efinance/internal/domain"
)

type storedRecord struct {
	rec domain.Record
	seq uint64
}

type storedRun struct {
	run domain.ImportRun
	seq uint64
}

// Store implements the record, user and import-run repositories. It is safe
// for concurrent use; every value is copied on the way in and out.
type Store struct {
	mu      sync.RWMutex
	seq     uint64
	records map[domain.Kind]map[string]*storedRecord
	users   map[string]*domain.User
	runs    map[string]*storedRun
	now     func() time.Time
}

var (
	_ bq.RecordRepository    = (*Store)(nil)
	_ bq.UserRepository      = (*Store)(nil)
	_ bq.ImportRunRepository = (*Store)(nil)
)

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{
		records: make(map[domain.Kind]map[string]*storedRecord),
		users:   make(map[string]*domain.User),
		runs:    make(map[string]*storedRun),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, k := range domain.Kinds {
		s.records[k] = make(map[string]*storedRecord)
	}
	return s
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) table(kind domain.Kind) (map[string]*storedRecord, error) {
	t, ok := s.records[kind]
	if !ok {
		return nil, fmt.Errorf("unknown record kind %q: %w", kind, domain.ErrValidation)
	}
	return t, nil
}

// Create implements RecordRepository.
func (s *Store) Create(ctx context.Context, rec *domain.Record) (*domain.Record, error) {
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(rec.Kind)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	stored := *rec
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.now()
	stored.UpdatedAt = stored.CreatedAt
	s.seq++
	t[stored.ID] = &storedRecord{rec: stored, seq: s.seq}

	out := stored
	return &out, nil
}

// Get implements RecordRepository.
func (s *Store) Get(ctx context.Context, kind domain.Kind, id string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(kind)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	sr, ok := t[id]
	if !ok {
		return nil, fmt.Errorf("Get: %s %s: %w", kind, id, domain.ErrNotFound)
	}
	out := sr.rec
	return &out, nil
}

// ListByUser implements RecordRepository.
func (s *Store) ListByUser(ctx context.Context, kind domain.Kind, userID string) ([]*domain.Record, error) {
	return s.list(kind, userID, nil)
}

// ListByUserAndPeriod implements RecordRepository.
func (s *Store) ListByUserAndPeriod(ctx context.Context, kind domain.Kind, userID string, period domain.Period) ([]*domain.Record, error) {
	return s.list(kind, userID, &period)
}

func (s *Store) list(kind domain.Kind, userID string, period *domain.Period) ([]*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(kind)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}

	matched := make([]*storedRecord, 0)
	for _, sr := range t {
		if sr.rec.UserID != userID {
			continue
		}
		if period != nil && !period.Contains(sr.rec.Date) {
			continue
		}
		matched = append(matched, sr)
	}

	// Newest date first; later inserts first within a day.
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.rec.Date != b.rec.Date {
			return a.rec.Date.After(b.rec.Date)
		}
		return a.seq > b.seq
	})

	result := make([]*domain.Record, 0, len(matched))
	for _, sr := range matched {
		out := sr.rec
		result = append(result, &out)
	}
	return result, nil
}

// Update implements RecordRepository.
func (s *Store) Update(ctx context.Context, rec *domain.Record) (*domain.Record, error) {
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(rec.Kind)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	sr, ok := t[rec.ID]
	if !ok {
		return nil, fmt.Errorf("Update: %s %s: %w", rec.Kind, rec.ID, domain.ErrNotFound)
	}

	sr.rec.Date = rec.Date
	sr.rec.Description = rec.Description
	sr.rec.Amount = rec.Amount
	sr.rec.Type = rec.Type
	sr.rec.UpdatedAt = s.now()

	out := sr.rec
	return &out, nil
}

// Delete implements RecordRepository.
func (s *Store) Delete(ctx context.Context, kind domain.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(kind)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if _, ok := t[id]; !ok {
		return fmt.Errorf("Delete: %s %s: %w", kind, id, domain.ErrNotFound)
	}
	delete(t, id)
	return nil
}
