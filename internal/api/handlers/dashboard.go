package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/efinance/internal/api/middleware"
	bq "github.com/dvloznov/efinance/internal/bigquery"
	"github.com/dvloznov/efinance/internal/dashboard"
	"github.com/dvloznov/efinance/internal/domain"
)

// DashboardHandler serves the monthly dashboard summary.
type DashboardHandler struct {
	repo bq.RecordRepository
	log  zerolog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(repo bq.RecordRepository, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		repo: repo,
		log:  log,
	}
}

// Get handles GET /api/dashboard?userId=&month=&year=
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("userId")
	if strings.TrimSpace(userID) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "userId is required")
		return
	}
	period, err := domain.ParsePeriod(q.Get("month"), q.Get("year"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, PublicMessage(err))
		return
	}

	summary, err := dashboard.Build(r.Context(), h.repo, userID, period)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to build dashboard")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, summary)
}
