package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Kind identifies one of the three record collections.
type Kind string

const (
	KindTransaction Kind = "transaction"
	KindExpense     Kind = "expense"
	KindInvestment  Kind = "investment"
)

// Kinds lists every record kind in display order.
var Kinds = []Kind{KindTransaction, KindExpense, KindInvestment}

// Transaction directions.
const (
	TypeCredit = "Credit"
	TypeDebit  = "Debit"
)

// TypeOther is shared by the expense and investment enumerations.
const TypeOther = "Other"

var kindTypes = map[Kind][]string{
	KindTransaction: {TypeCredit, TypeDebit},
	KindExpense:     {"Food", "Transport", "Housing", "Utilities", "Entertainment", "Healthcare", TypeOther},
	KindInvestment:  {"Stocks", "Bonds", "Mutual Funds", "Real Estate", TypeOther},
}

// ParseKind accepts the singular or plural collection name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	if _, ok := kindTypes[k]; !ok {
		return "", fmt.Errorf("ParseKind: unknown kind %q: %w", s, ErrValidation)
	}
	return k, nil
}

// Types returns the closed type enumeration for the kind.
func (k Kind) Types() []string {
	return slices.Clone(kindTypes[k])
}

// ValidType reports whether t belongs to the kind's enumeration.
func (k Kind) ValidType(t string) bool {
	return slices.Contains(kindTypes[k], t)
}

// Record is the canonical shape shared by transactions, expenses and investments.
// Amount is always a non-negative magnitude; direction or category is carried by Type.
type Record struct {
	ID          string
	Kind        Kind
	UserID      string
	Date        civil.Date
	Description string
	Amount      decimal.Decimal
	Type        string
	Source      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate enforces the required-field rules every store applies before writing.
func (r *Record) Validate() error {
	if _, ok := kindTypes[r.Kind]; !ok {
		return fmt.Errorf("Validate: unknown kind %q: %w", r.Kind, ErrValidation)
	}
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("Validate: userId is required: %w", ErrValidation)
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("Validate: %s is required: %w", r.descriptionField(), ErrValidation)
	}
	if r.Amount.IsNegative() {
		return fmt.Errorf("Validate: amount must not be negative: %w", ErrValidation)
	}
	if r.Date.IsZero() || !r.Date.IsValid() {
		return fmt.Errorf("Validate: date is required: %w", ErrValidation)
	}
	if !r.Kind.ValidType(r.Type) {
		return fmt.Errorf("Validate: %s %q is not one of %s: %w",
			r.typeField(), r.Type, strings.Join(kindTypes[r.Kind], ", "), ErrValidation)
	}
	return nil
}

// Normalize trims free-text fields in place.
func (r *Record) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.Description = strings.TrimSpace(r.Description)
	r.Type = strings.TrimSpace(r.Type)
}

func (r *Record) descriptionField() string {
	if r.Kind == KindInvestment {
		return "name"
	}
	return "description"
}

func (r *Record) typeField() string {
	if r.Kind == KindExpense {
		return "category"
	}
	return "type"
}

type recordJSON struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	UserID      string          `json:"userId"`
	Date        civil.Date      `json:"date"`
	Description string          `json:"description"`
	Name        string          `json:"name,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Category    string          `json:"category,omitempty"`
	Source      string          `json:"source,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// MarshalJSON emits the field names the web client already uses: expenses
// also carry "category" and investments "name".
func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		ID:          r.ID,
		Kind:        r.Kind,
		UserID:      r.UserID,
		Date:        r.Date,
		Description: r.Description,
		Amount:      r.Amount,
		Type:        r.Type,
		Source:      r.Source,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	switch r.Kind {
	case KindExpense:
		out.Category = r.Type
	case KindInvestment:
		out.Name = r.Description
	}
	return json.Marshal(out)
}
