package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dvloznov/efinance/internal/api/middleware"
	"github.com/dvloznov/efinance/internal/sip"
)

// MaxSIPYears bounds the duration a single request may project.
const MaxSIPYears = 100

// SIP handles GET /api/sip?contribution=&rate=&years=
func SIP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	contribution, err := strconv.ParseFloat(q.Get("contribution"), 64)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("contribution must be a number, got %q", q.Get("contribution")))
		return
	}
	rate, err := strconv.ParseFloat(q.Get("rate"), 64)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("rate must be a number, got %q", q.Get("rate")))
		return
	}
	years, err := strconv.Atoi(q.Get("years"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("years must be a whole number, got %q", q.Get("years")))
		return
	}
	if years > MaxSIPYears {
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("years must be at most %d, got %d", MaxSIPYears, years))
		return
	}

	proj, err := sip.Calculate(sip.Params{
		MonthlyContribution: contribution,
		AnnualRatePercent:   rate,
		DurationYears:       years,
	})
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, PublicMessage(err))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, proj)
}
