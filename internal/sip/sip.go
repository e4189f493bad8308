// Package sip projects the growth of a systematic investment plan: a fixed
// monthly contribution compounded monthly and paid at the start of each month.
package sip

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameter is wrapped with the offending field name.
var ErrInvalidParameter = errors.New("invalid parameter")

// Params are the calculator inputs. Bounds shown by a UI are not enforced here.
type Params struct {
	MonthlyContribution float64 `json:"contribution"`
	AnnualRatePercent   float64 `json:"rate"`
	DurationYears       int     `json:"years"`
}

// YearSnapshot is the position at the end of one year.
type YearSnapshot struct {
	Year       int     `json:"year"`
	Investment float64 `json:"investment"`
	Value      float64 `json:"value"`
	Interest   float64 `json:"interest"`
}

// Projection is the full result for a set of Params.
type Projection struct {
	TotalInvestment float64        `json:"totalInvestment"`
	InterestEarned  float64        `json:"interestEarned"`
	MaturityValue   float64        `json:"maturityValue"`
	YearlyBreakdown []YearSnapshot `json:"yearlyBreakdown"`
}

// Validate checks p without computing anything.
func (p Params) Validate() error {
	switch {
	case !finite(p.MonthlyContribution) || p.MonthlyContribution <= 0:
		return fmt.Errorf("contribution must be a positive number, got %v: %w", p.MonthlyContribution, ErrInvalidParameter)
	case !finite(p.AnnualRatePercent) || p.AnnualRatePercent < 0:
		return fmt.Errorf("rate must be zero or a positive number, got %v: %w", p.AnnualRatePercent, ErrInvalidParameter)
	case p.DurationYears <= 0:
		return fmt.Errorf("years must be positive, got %d: %w", p.DurationYears, ErrInvalidParameter)
	}
	return nil
}

// Calculate returns the projection for p. It is pure: equal Params always give
// equal results.
func Calculate(p Params) (Projection, error) {
	if err := p.Validate(); err != nil {
		return Projection{}, fmt.Errorf("Calculate: %w", err)
	}

	r := p.AnnualRatePercent / 12 / 100
	months := p.DurationYears * 12

	total := p.MonthlyContribution * float64(months)
	maturity := FutureValue(p.MonthlyContribution, r, months)
	if !finite(total) || !finite(maturity) {
		return Projection{}, fmt.Errorf("Calculate: projection overflows for contribution %v, rate %v, years %d: %w",
			p.MonthlyContribution, p.AnnualRatePercent, p.DurationYears, ErrInvalidParameter)
	}

	proj := Projection{
		TotalInvestment: total,
		MaturityValue:   maturity,
		InterestEarned:  maturity - total,
		YearlyBreakdown: make([]YearSnapshot, 0, p.DurationYears),
	}

	for year := 1; year <= p.DurationYears; year++ {
		n := year * 12
		invested := p.MonthlyContribution * float64(n)
		value := FutureValue(p.MonthlyContribution, r, n)
		proj.YearlyBreakdown = append(proj.YearlyBreakdown, YearSnapshot{
			Year:       year,
			Investment: invested,
			Value:      value,
			Interest:   value - invested,
		})
	}

	return proj, nil
}

// FutureValue is the annuity-due value of n contributions at monthly rate r.
// A zero rate means no compounding. The result is never below the amount paid
// in, however small r is.
func FutureValue(contribution, r float64, n int) float64 {
	paid := contribution * float64(n)
	if r == 0 {
		return paid
	}
	fv := contribution * (math.Expm1(float64(n)*math.Log1p(r)) / r) * (1 + r)
	if fv < paid {
		return paid
	}
	return fv
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
