package sip

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestCalculate_ReferenceValue(t *testing.T) {
	proj, err := Calculate(Params{MonthlyContribution: 5000, AnnualRatePercent: 12, DurationYears: 10})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}

	want := 5000 * ((math.Pow(1.01, 120) - 1) / 0.01) * 1.01
	if math.Abs(proj.MaturityValue-want) > 1e-6 {
		t.Errorf("MaturityValue = %.6f, want %.6f", proj.MaturityValue, want)
	}
	if math.Abs(proj.MaturityValue-1161695.38) > 0.01 {
		t.Errorf("MaturityValue = %.2f, want about 1161695.38", proj.MaturityValue)
	}
	if proj.TotalInvestment != 600000 {
		t.Errorf("TotalInvestment = %v, want 600000", proj.TotalInvestment)
	}
	if math.Abs(proj.InterestEarned-(proj.MaturityValue-proj.TotalInvestment)) > 1e-9 {
		t.Errorf("InterestEarned = %v, want maturity - total", proj.InterestEarned)
	}
}

func TestCalculate_Breakdown(t *testing.T) {
	p := Params{MonthlyContribution: 5000, AnnualRatePercent: 12, DurationYears: 10}
	proj, err := Calculate(p)
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}

	if len(proj.YearlyBreakdown) != p.DurationYears {
		t.Fatalf("len(YearlyBreakdown) = %d, want %d", len(proj.YearlyBreakdown), p.DurationYears)
	}
	for i, snap := range proj.YearlyBreakdown {
		if snap.Year != i+1 {
			t.Errorf("snapshot %d Year = %d", i, snap.Year)
		}
		if snap.Investment != p.MonthlyContribution*float64(12*(i+1)) {
			t.Errorf("year %d Investment = %v", snap.Year, snap.Investment)
		}
		if math.Abs(snap.Interest-(snap.Value-snap.Investment)) > 1e-9 {
			t.Errorf("year %d Interest = %v, want value - investment", snap.Year, snap.Interest)
		}
		if i > 0 && snap.Value <= proj.YearlyBreakdown[i-1].Value {
			t.Errorf("year %d Value %v not above year %d value %v", snap.Year, snap.Value, i, proj.YearlyBreakdown[i-1].Value)
		}
	}

	last := proj.YearlyBreakdown[len(proj.YearlyBreakdown)-1]
	if last.Value != proj.MaturityValue || last.Investment != proj.TotalInvestment {
		t.Errorf("final snapshot %+v does not match totals", last)
	}
}

func TestCalculate_Monotonic(t *testing.T) {
	cases := []Params{
		{MonthlyContribution: 500, AnnualRatePercent: 1, DurationYears: 30},
		{MonthlyContribution: 100000, AnnualRatePercent: 30, DurationYears: 30},
		{MonthlyContribution: 0.01, AnnualRatePercent: 0.5, DurationYears: 5},
		{MonthlyContribution: 2500, AnnualRatePercent: 45, DurationYears: 40},
	}
	for _, p := range cases {
		proj, err := Calculate(p)
		if err != nil {
			t.Fatalf("Calculate(%+v) error = %v", p, err)
		}
		for i := 1; i < len(proj.YearlyBreakdown); i++ {
			if proj.YearlyBreakdown[i].Value <= proj.YearlyBreakdown[i-1].Value {
				t.Errorf("Calculate(%+v) not strictly increasing at year %d", p, i+1)
			}
		}
		if proj.InterestEarned <= 0 {
			t.Errorf("Calculate(%+v) InterestEarned = %v, want > 0", p, proj.InterestEarned)
		}
	}
}

func TestCalculate_TinyRate(t *testing.T) {
	for _, rate := range []float64{1e-14, 1e-9, 1e-6} {
		proj, err := Calculate(Params{MonthlyContribution: 5000, AnnualRatePercent: rate, DurationYears: 3})
		if err != nil {
			t.Fatalf("Calculate(rate %v) error = %v", rate, err)
		}
		if proj.MaturityValue < proj.TotalInvestment {
			t.Errorf("rate %v: MaturityValue = %v, below TotalInvestment %v", rate, proj.MaturityValue, proj.TotalInvestment)
		}
		if proj.InterestEarned < 0 {
			t.Errorf("rate %v: InterestEarned = %v, want >= 0", rate, proj.InterestEarned)
		}
		for i := 1; i < len(proj.YearlyBreakdown); i++ {
			if proj.YearlyBreakdown[i].Value <= proj.YearlyBreakdown[i-1].Value {
				t.Errorf("rate %v: value not strictly increasing at year %d", rate, i+1)
			}
		}
	}
}

func TestCalculate_Overflow(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{name: "huge rate", p: Params{MonthlyContribution: 5000, AnnualRatePercent: 1000, DurationYears: 100}},
		{name: "huge contribution", p: Params{MonthlyContribution: math.MaxFloat64 / 2, AnnualRatePercent: 12, DurationYears: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proj, err := Calculate(tt.p)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("Calculate() = %+v, %v, want ErrInvalidParameter", proj.MaturityValue, err)
			}
		})
	}
}

func TestCalculate_ZeroRate(t *testing.T) {
	proj, err := Calculate(Params{MonthlyContribution: 1000, AnnualRatePercent: 0, DurationYears: 3})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}

	if proj.MaturityValue != proj.TotalInvestment || proj.MaturityValue != 36000 {
		t.Errorf("MaturityValue = %v, TotalInvestment = %v, want both 36000", proj.MaturityValue, proj.TotalInvestment)
	}
	if proj.InterestEarned != 0 {
		t.Errorf("InterestEarned = %v, want 0", proj.InterestEarned)
	}
	for _, snap := range proj.YearlyBreakdown {
		if math.IsNaN(snap.Value) || math.IsInf(snap.Value, 0) || snap.Interest != 0 {
			t.Errorf("snapshot %+v not finite and interest free", snap)
		}
	}
}

func TestCalculate_InvalidParameters(t *testing.T) {
	tests := []struct {
		name  string
		p     Params
		field string
	}{
		{name: "zero contribution", p: Params{MonthlyContribution: 0, AnnualRatePercent: 12, DurationYears: 10}, field: "contribution"},
		{name: "negative contribution", p: Params{MonthlyContribution: -5, AnnualRatePercent: 12, DurationYears: 10}, field: "contribution"},
		{name: "nan contribution", p: Params{MonthlyContribution: math.NaN(), AnnualRatePercent: 12, DurationYears: 10}, field: "contribution"},
		{name: "negative rate", p: Params{MonthlyContribution: 5000, AnnualRatePercent: -1, DurationYears: 10}, field: "rate"},
		{name: "infinite rate", p: Params{MonthlyContribution: 5000, AnnualRatePercent: math.Inf(1), DurationYears: 10}, field: "rate"},
		{name: "zero years", p: Params{MonthlyContribution: 5000, AnnualRatePercent: 12, DurationYears: 0}, field: "years"},
		{name: "negative years", p: Params{MonthlyContribution: 5000, AnnualRatePercent: 12, DurationYears: -3}, field: "years"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calculate(tt.p)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("Calculate() error = %v, want ErrInvalidParameter", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Calculate() error = %v, want it to name %q", err, tt.field)
			}
		})
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	p := Params{MonthlyContribution: 1234.5, AnnualRatePercent: 7.25, DurationYears: 12}
	a, _ := Calculate(p)
	b, _ := Calculate(p)
	if a.MaturityValue != b.MaturityValue || len(a.YearlyBreakdown) != len(b.YearlyBreakdown) {
		t.Error("Calculate() not deterministic")
	}
	for i := range a.YearlyBreakdown {
		if a.YearlyBreakdown[i] != b.YearlyBreakdown[i] {
			t.Errorf("year %d differs: %+v vs %+v", i+1, a.YearlyBreakdown[i], b.YearlyBreakdown[i])
		}
	}
}
