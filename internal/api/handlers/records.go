package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/efinance/internal/api/middleware"
	bq "github.com/dvloznov/efinance/internal/bigquery"
	"github.com/dvloznov/efinance/internal/domain"
)

// RecordsHandler serves CRUD for one record kind.
type RecordsHandler struct {
	kind domain.Kind
	repo bq.RecordRepository
	log  zerolog.Logger
}

// NewRecordsHandler creates a handler for kind.
func NewRecordsHandler(kind domain.Kind, repo bq.RecordRepository, log zerolog.Logger) *RecordsHandler {
	return &RecordsHandler{
		kind: kind,
		repo: repo,
		log:  log.With().Str("kind", string(kind)).Logger(),
	}
}

// recordRequest accepts both the generic field names and the per-kind
// aliases the web client sends (name for investments, category for expenses).
type recordRequest struct {
	UserID      string          `json:"userId"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
}

func (req recordRequest) apply(rec *domain.Record) error {
	date, err := parseRecordDate(req.Date)
	if err != nil {
		return err
	}
	rec.Date = date
	rec.Description = firstNonEmpty(req.Description, req.Name)
	rec.Amount = req.Amount
	rec.Type = firstNonEmpty(req.Type, req.Category)
	return nil
}

// parseRecordDate accepts YYYY-MM-DD, a full timestamp or any layout
// dateparse recognises. Timestamps keep their calendar day in UTC.
func parseRecordDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, fmt.Errorf("date is required: %w", domain.ErrValidation)
	}
	if d, err := civil.ParseDate(s); err == nil {
		return d, nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q: %w", s, domain.ErrValidation)
	}
	return civil.DateOf(t.UTC()), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (h *RecordsHandler) title() string {
	s := string(h.kind)
	return strings.ToUpper(s[:1]) + s[1:]
}

// List handles GET /api/{kind}s?userId=
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if strings.TrimSpace(userID) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "userId is required")
		return
	}

	records, err := h.repo.ListByUser(r.Context(), h.kind, userID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list "+string(h.kind)+"s")
		return
	}
	if records == nil {
		records = []*domain.Record{}
	}
	middleware.WriteJSON(w, http.StatusOK, records)
}

// ListByMonth handles GET /api/{kind}s/month?userId=&month=&year=
func (h *RecordsHandler) ListByMonth(w http.ResponseWriter, r *http.Request) {
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

	records, err := h.repo.ListByUserAndPeriod(r.Context(), h.kind, userID, period)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list "+string(h.kind)+"s")
		return
	}
	if records == nil {
		records = []*domain.Record{}
	}
	middleware.WriteJSON(w, http.StatusOK, records)
}

// Create handles POST /api/{kind}s
func (h *RecordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec := &domain.Record{Kind: h.kind, UserID: req.UserID}
	if err := req.apply(rec); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, PublicMessage(err))
		return
	}

	created, err := h.repo.Create(r.Context(), rec)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create "+string(h.kind))
		return
	}

	h.log.Info().Str("id", created.ID).Msg("Record created")
	middleware.WriteJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/{kind}s/{id}
func (h *RecordsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req recordRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	existing, err := h.repo.Get(r.Context(), h.kind, id)
	if err != nil {
		if StatusFor(err) == http.StatusNotFound {
			middleware.WriteError(w, http.StatusNotFound, h.title()+" not found")
			return
		}
		writeServiceError(w, h.log, err, "Failed to update "+string(h.kind))
		return
	}

	if err := req.apply(existing); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, PublicMessage(err))
		return
	}

	updated, err := h.repo.Update(r.Context(), existing)
	if err != nil {
		if StatusFor(err) == http.StatusNotFound {
			middleware.WriteError(w, http.StatusNotFound, h.title()+" not found")
			return
		}
		writeServiceError(w, h.log, err, "Failed to update "+string(h.kind))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/{kind}s/{id}
func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.repo.Delete(r.Context(), h.kind, id); err != nil {
		if StatusFor(err) == http.StatusNotFound {
			middleware.WriteError(w, http.StatusNotFound, h.title()+" not found")
			return
		}
		writeServiceError(w, h.log, err, "Failed to delete "+string(h.kind))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": h.title() + " deleted successfully",
	})
}
