package csvimport

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/araddon/dateparse"
)

var (
	numericDate = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	isoDate     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
)

// DateParser turns statement date cells into calendar dates.
//
// DD/MM/YYYY and DD-MM-YYYY are read day-first unless DayFirst is false, in
// which case the first part is the month. Other strings go through a generic
// parser. Blank or unparseable input resolves to today; with Strict set it is
// an ErrInvalidDate instead.
type DateParser struct {
	DayFirst bool
	Strict   bool
}

// NormalizeDate parses s with the default day-first policy, resolving bad
// input to the date of now.
func NormalizeDate(s string, now time.Time) (civil.Date, error) {
	return DateParser{DayFirst: true}.Parse(s, civil.DateOf(now))
}

// Parse returns the date in s, or today when s cannot be read.
func (p DateParser) Parse(s string, today civil.Date) (civil.Date, error) {
	d, err := p.parse(strings.TrimSpace(s))
	if err != nil {
		if p.Strict {
			return civil.Date{}, err
		}
		return today, nil
	}
	return d, nil
}

func (p DateParser) parse(s string) (civil.Date, error) {
	if s == "" {
		return civil.Date{}, fmt.Errorf("empty value: %w", ErrInvalidDate)
	}

	if m := numericDate.FindStringSubmatch(s); m != nil {
		first, second, year := atoi(m[1]), atoi(m[2]), atoi(m[3])
		day, month := first, second
		if !p.DayFirst {
			day, month = second, first
		}
		return calendarDate(year, month, day, s)
	}

	if m := isoDate.FindStringSubmatch(s); m != nil {
		return calendarDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), s)
	}

	t, err := dateparse.ParseIn(s, time.UTC, dateparse.PreferMonthFirst(!p.DayFirst))
	if err != nil {
		return civil.Date{}, fmt.Errorf("%q: %w", s, ErrInvalidDate)
	}
	d := civil.DateOf(t)
	if d.Year < 1 || d.Year > 9999 {
		return civil.Date{}, fmt.Errorf("%q: year out of range: %w", s, ErrInvalidDate)
	}
	return d, nil
}

// calendarDate rejects impossible dates such as 31/02 instead of rolling them over.
func calendarDate(year, month, day int, raw string) (civil.Date, error) {
	d := civil.Date{Year: year, Month: time.Month(month), Day: day}
	if year < 1 || !d.IsValid() {
		return civil.Date{}, fmt.Errorf("%q: %w", raw, ErrInvalidDate)
	}
	return d, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
