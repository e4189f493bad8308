// Package csvimport turns bank-statement CSV exports into canonical
// transaction records.
//
// The header row selects one of an ordered list of formats; each data row then
// becomes either a Record or a Skip. Only whole-file problems are errors.
package csvimport

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/efinance/internal/domain"
)

// Source marks records that came from a CSV upload.
const Source = "csv_import"

// Skip reasons.
const (
	ReasonEmptyRow       = "empty row"
	ReasonMissingFirst   = "first field is empty"
	ReasonNonPositive    = "amount is not a positive number"
	ReasonInvalidDate    = "invalid date"
	ReasonExtractFailure = "row could not be read"
)

// Row is one line of the statement, already split into cells.
type Row []string

// Record is a normalised statement line awaiting persistence.
type Record struct {
	TempID      string          `json:"id"`
	Row         int             `json:"row"`
	Date        civil.Date      `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Source      string          `json:"source"`
}

// ToDomain converts the record into a transaction owned by userID.
func (r Record) ToDomain(userID string) domain.Record {
	return domain.Record{
		Kind:        domain.KindTransaction,
		UserID:      userID,
		Date:        r.Date,
		Description: r.Description,
		Amount:      r.Amount,
		Type:        r.Type,
		Source:      r.Source,
	}
}

// Skip records why a data row produced no record. Row is the index in the
// input, so the header is row 0.
type Skip struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result is the outcome of one normalisation.
type Result struct {
	Format   string   `json:"format"`
	DataRows int      `json:"dataRows"`
	Records  []Record `json:"records"`
	Skips    []Skip   `json:"skips"`
}

// Options tunes a Normalizer. The zero value is valid.
type Options struct {
	// MonthFirst reads DD/MM/YYYY style dates as MM/DD/YYYY.
	MonthFirst bool
	// StrictDates skips rows whose date cannot be read instead of using today.
	StrictDates bool
	// Formats overrides DefaultFormats.
	Formats []Format
	// NewID generates temporary record ids.
	NewID func() string
	// Now is the clock used for the today fallback.
	Now func() time.Time
}

// Normalizer converts statement rows. It holds no state between calls.
type Normalizer struct {
	formats []Format
	dates   DateParser
	newID   func() string
	now     func() time.Time
}

// NewNormalizer builds a Normalizer from opts.
func NewNormalizer(opts Options) *Normalizer {
	n := &Normalizer{
		formats: opts.Formats,
		dates:   DateParser{DayFirst: !opts.MonthFirst, Strict: opts.StrictDates},
		newID:   opts.NewID,
		now:     opts.Now,
	}
	if len(n.formats) == 0 {
		n.formats = DefaultFormats()
	}
	if n.newID == nil {
		n.newID = NewTempID
	}
	if n.now == nil {
		n.now = time.Now
	}
	return n
}

// NewTempID returns an id of the form import_<uuid>.
func NewTempID() string {
	return "import_" + uuid.NewString()
}

// Normalize runs a default Normalizer over rows.
func Normalize(rows []Row) (Result, error) {
	return NewNormalizer(Options{}).Normalize(rows)
}

// Normalize detects the format from rows[0] and converts every following row.
// When no row yields a record it returns the populated Result together with
// ErrNoValidRows.
func (n *Normalizer) Normalize(rows []Row) (Result, error) {
	if len(rows) == 0 {
		return Result{}, ErrEmptyInput
	}

	header := NewHeader(rows[0])
	format, ok := Detect(n.formats, header)
	if !ok {
		return Result{}, fmt.Errorf("Normalize: no format matches header %v", []string(header))
	}

	today := civil.DateOf(n.now())
	res := Result{
		Format:   format.Name,
		DataRows: len(rows) - 1,
		Records:  []Record{},
		Skips:    []Skip{},
	}

	for i := 1; i < len(rows); i++ {
		rec, skip := n.normalizeRow(format, header, i, rows[i], today)
		if skip != nil {
			res.Skips = append(res.Skips, *skip)
			continue
		}
		rec.TempID = n.newID()
		res.Records = append(res.Records, rec)
	}

	if len(res.Records) == 0 {
		return res, ErrNoValidRows
	}
	return res, nil
}

func (n *Normalizer) normalizeRow(format Format, header Header, index int, row Row, today civil.Date) (rec Record, skip *Skip) {
	defer func() {
		if r := recover(); r != nil {
			rec = Record{}
			skip = &Skip{Row: index, Reason: fmt.Sprintf("%s: %v", ReasonExtractFailure, r)}
		}
	}()

	if isBlank(row) {
		return Record{}, &Skip{Row: index, Reason: ReasonEmptyRow}
	}
	if strings.TrimSpace(row[0]) == "" {
		return Record{}, &Skip{Row: index, Reason: ReasonMissingFirst}
	}

	fields := format.Extract(header, row)
	if !fields.Amount.IsPositive() {
		return Record{}, &Skip{Row: index, Reason: ReasonNonPositive}
	}

	date, err := n.dates.Parse(fields.Date, today)
	if err != nil {
		return Record{}, &Skip{Row: index, Reason: fmt.Sprintf("%s: %v", ReasonInvalidDate, err)}
	}

	return Record{
		Row:         index,
		Date:        date,
		Description: fields.Description,
		Amount:      fields.Amount,
		Type:        fields.Type,
		Source:      Source,
	}, nil
}

func isBlank(row Row) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
