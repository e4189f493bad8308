package csvimport

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/efinance/internal/domain"
)

// Format names, in detection priority order.
const (
	FormatDebitCredit        = "debit_credit"
	FormatAmountType         = "amount_type"
	FormatSignedAmount       = "signed_amount"
	FormatPositional         = "positional"
	FormatPositionalFallback = "positional_fallback"
)

// Placeholder descriptions used when the description cell is blank.
const (
	DefaultDescription         = "Bank Transaction"
	DefaultFallbackDescription = "Imported Transaction"
)

const utf8BOM = "\ufeff"

// Header is the lower-cased, trimmed header row.
type Header []string

// NewHeader normalises the raw header cells.
func NewHeader(row Row) Header {
	h := make(Header, len(row))
	for i, cell := range row {
		if i == 0 {
			cell = strings.TrimPrefix(cell, utf8BOM)
		}
		h[i] = strings.ToLower(strings.TrimSpace(cell))
	}
	return h
}

// Index returns the position of the first column named name, or -1.
func (h Header) Index(name string) int {
	for i, col := range h {
		if col == name {
			return i
		}
	}
	return -1
}

// Has reports whether every name is present.
func (h Header) Has(names ...string) bool {
	for _, name := range names {
		if h.Index(name) < 0 {
			return false
		}
	}
	return true
}

// Fields is what a Format pulls out of one data row. Amount is already a
// magnitude and Type is Credit or Debit.
type Fields struct {
	Date        string
	Description string
	Amount      decimal.Decimal
	Type        string
}

// Format is one named bank-export layout: a predicate over the header and an
// extractor for data rows.
type Format struct {
	Name    string
	Match   func(h Header) bool
	Extract func(h Header, row Row) Fields
}

// DefaultFormats returns the built-in layouts in priority order. The last one
// matches any header.
func DefaultFormats() []Format {
	return []Format{
		{
			Name:    FormatDebitCredit,
			Match:   func(h Header) bool { return h.Has("date", "description", "debit", "credit") },
			Extract: extractDebitCredit,
		},
		{
			Name:    FormatAmountType,
			Match:   func(h Header) bool { return h.Has("date", "description", "amount", "type") },
			Extract: extractAmountType,
		},
		{
			Name:    FormatSignedAmount,
			Match:   func(h Header) bool { return h.Has("date", "description", "amount") },
			Extract: extractSignedAmount,
		},
		{
			Name:  FormatPositional,
			Match: func(h Header) bool { return h.Has("date", "description") },
			Extract: func(_ Header, row Row) Fields {
				return extractPositional(row, DefaultDescription)
			},
		},
		{
			Name:  FormatPositionalFallback,
			Match: func(Header) bool { return true },
			Extract: func(_ Header, row Row) Fields {
				return extractPositional(row, DefaultFallbackDescription)
			},
		},
	}
}

// Detect returns the first format whose predicate accepts h.
func Detect(formats []Format, h Header) (Format, bool) {
	for _, f := range formats {
		if f.Match(h) {
			return f, true
		}
	}
	return Format{}, false
}

func extractDebitCredit(h Header, row Row) Fields {
	debit := ParseAmount(cell(row, h.Index("debit")))
	credit := ParseAmount(cell(row, h.Index("credit")))

	f := Fields{
		Date:        cell(row, h.Index("date")),
		Description: description(cell(row, h.Index("description")), DefaultDescription),
	}
	if !debit.IsZero() {
		f.Amount, f.Type = debit.Abs(), domain.TypeDebit
	} else {
		f.Amount, f.Type = credit.Abs(), domain.TypeCredit
	}
	return f
}

func extractAmountType(h Header, row Row) Fields {
	typ := domain.TypeCredit
	if strings.TrimSpace(cell(row, h.Index("type"))) == domain.TypeDebit {
		typ = domain.TypeDebit
	}
	return Fields{
		Date:        cell(row, h.Index("date")),
		Description: description(cell(row, h.Index("description")), DefaultDescription),
		Amount:      ParseAmount(cell(row, h.Index("amount"))).Abs(),
		Type:        typ,
	}
}

func extractSignedAmount(h Header, row Row) Fields {
	amount := ParseAmount(cell(row, h.Index("amount")))
	return Fields{
		Date:        cell(row, h.Index("date")),
		Description: description(cell(row, h.Index("description")), DefaultDescription),
		Amount:      amount.Abs(),
		Type:        direction(amount.IsNegative()),
	}
}

// extractPositional reads date, description, amount and a direction hint
// from columns 0 to 3.
func extractPositional(row Row, placeholder string) Fields {
	amount := ParseAmount(cell(row, 2))
	hint := strings.Contains(strings.ToLower(cell(row, 3)), "debit")
	return Fields{
		Date:        cell(row, 0),
		Description: description(cell(row, 1), placeholder),
		Amount:      amount.Abs(),
		Type:        direction(hint || amount.IsNegative()),
	}
}

// leadingNumber is the numeric prefix of an amount cell, so "500 CR" reads as 500.
var leadingNumber = regexp.MustCompile(`^(?:[0-9]+(?:\.[0-9]+)?|\.[0-9]+)`)

// ParseAmount reads a decimal cell. Surrounding space, thousands separators, a
// leading currency symbol and any trailing text after the number are ignored;
// a cell that does not start with a number is zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = leadingNumber.FindString(strings.TrimLeft(s, "₹$£€ "))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if neg {
		return d.Neg()
	}
	return d
}

func cell(row Row, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func description(s, placeholder string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return placeholder
}

func direction(debit bool) string {
	if debit {
		return domain.TypeDebit
	}
	return domain.TypeCredit
}
