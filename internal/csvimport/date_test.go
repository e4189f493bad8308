package csvimport

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestDateParser_Parse(t *testing.T) {
	today := civil.Date{Year: 2025, Month: time.March, Day: 10}

	tests := []struct {
		name     string
		in       string
		dayFirst bool
		want     civil.Date
	}{
		{name: "day first slash", in: "15/01/2025", dayFirst: true, want: date(2025, time.January, 15)},
		{name: "day first dash", in: "5-2-2025", dayFirst: true, want: date(2025, time.February, 5)},
		{name: "ambiguous day first", in: "03/04/2025", dayFirst: true, want: date(2025, time.April, 3)},
		{name: "ambiguous month first", in: "03/04/2025", dayFirst: false, want: date(2025, time.March, 4)},
		{name: "iso", in: "2025-01-15", dayFirst: true, want: date(2025, time.January, 15)},
		{name: "iso short parts", in: "2025-1-5", dayFirst: true, want: date(2025, time.January, 5)},
		{name: "surrounding space", in: "  2025-01-15 ", dayFirst: true, want: date(2025, time.January, 15)},
		{name: "generic parser", in: "January 20, 2025", dayFirst: true, want: date(2025, time.January, 20)},
		{name: "generic timestamp", in: "2025-01-20T18:45:00Z", dayFirst: true, want: date(2025, time.January, 20)},
		{name: "impossible calendar date", in: "31/02/2025", dayFirst: true, want: today},
		{name: "month thirteen", in: "2025-13-01", dayFirst: true, want: today},
		{name: "garbage", in: "not-a-date", dayFirst: true, want: today},
		{name: "empty", in: "", dayFirst: true, want: today},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DateParser{DayFirst: tt.dayFirst}.Parse(tt.in, today)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestDateParser_Strict(t *testing.T) {
	today := civil.Date{Year: 2025, Month: time.March, Day: 10}
	p := DateParser{DayFirst: true, Strict: true}

	for _, in := range []string{"", "not-a-date", "31/02/2025"} {
		if _, err := p.Parse(in, today); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidDate", in, err)
		}
	}
	if got, err := p.Parse("01/02/2025", today); err != nil || got != date(2025, time.February, 1) {
		t.Errorf("Parse(01/02/2025) = %s, %v", got, err)
	}
}

func TestNormalizeDate(t *testing.T) {
	now := time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC)

	got, err := NormalizeDate("07/08/2024", now)
	if err != nil || got.String() != "2024-08-07" {
		t.Errorf("NormalizeDate() = %s, %v; want 2024-08-07", got, err)
	}

	got, err = NormalizeDate("whenever", now)
	if err != nil || got.String() != "2024-12-31" {
		t.Errorf("NormalizeDate(fallback) = %s, %v; want 2024-12-31", got, err)
	}
}
