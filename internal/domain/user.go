package domain

import (
	"fmt"
	"strings"
	"time"
)

// User is the profile mirrored from the external identity provider.
// ExternalID is the provider's user id and the key for every lookup.
type User struct {
	ExternalID string    `json:"clerkId"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Validate requires the external id.
func (u *User) Validate() error {
	if strings.TrimSpace(u.ExternalID) == "" {
		return fmt.Errorf("Validate: clerkId is required: %w", ErrValidation)
	}
	return nil
}
