package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Period is one calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses month (1-12) and year query values.
func ParsePeriod(month, year string) (Period, error) {
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil || m < 1 || m > 12 {
		return Period{}, fmt.Errorf("ParsePeriod: invalid month %q: %w", month, ErrValidation)
	}
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y < 1 || y > 9999 {
		return Period{}, fmt.Errorf("ParsePeriod: invalid year %q: %w", year, ErrValidation)
	}
	return Period{Year: y, Month: time.Month(m)}, nil
}

// PeriodOf returns the month containing d.
func PeriodOf(d civil.Date) Period {
	return Period{Year: d.Year, Month: d.Month}
}

// Range returns the first and last day of the month, both inclusive.
func (p Period) Range() (first, last civil.Date) {
	first = civil.Date{Year: p.Year, Month: p.Month, Day: 1}
	last = civil.DateOf(time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC))
	return first, last
}

// Contains reports whether d falls inside the month.
func (p Period) Contains(d civil.Date) bool {
	return d.Year == p.Year && d.Month == p.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
