package inmemory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/google/uuid"

	"github.com/dvloznov/efinance/internal/domain"
)

// StartImportRun implements ImportRunRepository.
func (s *Store) StartImportRun(ctx context.Context, run *domain.ImportRun) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *run
	stored.ID = uuid.NewString()
	stored.Status = domain.ImportRunning
	if stored.StartedAt.IsZero() {
		stored.StartedAt = s.now()
	}
	stored.Issues = slices.Clone(run.Issues)
	s.seq++
	s.runs[stored.ID] = &storedRun{run: stored, seq: s.seq}
	return stored.ID, nil
}

// FinishImportRun implements ImportRunRepository.
func (s *Store) FinishImportRun(ctx context.Context, run *domain.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sr, ok := s.runs[run.ID]
	if !ok {
		return fmt.Errorf("FinishImportRun: %s: %w", run.ID, domain.ErrNotFound)
	}

	finished := s.now()
	if run.FinishedAt != nil {
		finished = *run.FinishedAt
	}

	updated := *run
	updated.UserID = sr.run.UserID
	updated.StartedAt = sr.run.StartedAt
	updated.FinishedAt = &finished
	updated.Issues = slices.Clone(run.Issues)
	sr.run = updated
	return nil
}

// GetImportRun implements ImportRunRepository.
func (s *Store) GetImportRun(ctx context.Context, runID string) (*domain.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sr, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("GetImportRun: %s: %w", runID, domain.ErrNotFound)
	}
	return copyRun(sr.run), nil
}

// ListImportRuns implements ImportRunRepository.
func (s *Store) ListImportRuns(ctx context.Context, userID string) ([]*domain.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*storedRun, 0)
	for _, sr := range s.runs {
		if sr.run.UserID == userID {
			matched = append(matched, sr)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })

	result := make([]*domain.ImportRun, 0, len(matched))
	for _, sr := range matched {
		result = append(result, copyRun(sr.run))
	}
	return result, nil
}

func copyRun(run domain.ImportRun) *domain.ImportRun {
	out := run
	out.Issues = slices.Clone(run.Issues)
	if run.FinishedAt != nil {
		finished := *run.FinishedAt
		out.FinishedAt = &finished
	}
	return &out
}
