package inmemory

import (
	"context"
	"fmt"

	"github.com/dvloznov/efinance/internal/domain"
)

// CreateOrGetUser implements UserRepository.
func (s *Store) CreateOrGetUser(ctx context.Context, u *domain.User) (*domain.User, bool, error) {
	if err := u.Validate(); err != nil {
		return nil, false, fmt.Errorf("CreateOrGetUser: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.users[u.ExternalID]; ok {
		out := *existing
		return &out, false, nil
	}

	stored := *u
	stored.CreatedAt = s.now()
	stored.UpdatedAt = stored.CreatedAt
	s.users[u.ExternalID] = &stored

	out := stored
	return &out, true, nil
}

// GetUser implements UserRepository.
func (s *Store) GetUser(ctx context.Context, externalID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[externalID]
	if !ok {
		return nil, fmt.Errorf("GetUser: %s: %w", externalID, domain.ErrNotFound)
	}
	out := *u
	return &out, nil
}

// UpdateUser implements UserRepository.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("UpdateUser: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ExternalID]
	if !ok {
		return nil, fmt.Errorf("UpdateUser: %s: %w", u.ExternalID, domain.ErrNotFound)
	}
	existing.Email = u.Email
	existing.FirstName = u.FirstName
	existing.LastName = u.LastName
	existing.UpdatedAt = s.now()

	out := *existing
	return &out, nil
}
