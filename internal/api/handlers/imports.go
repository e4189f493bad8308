package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/efinance/internal/api/middleware"
	"github.com/dvloznov/efinance/internal/csvimport"
	"github.com/dvloznov/efinance/internal/importer"
)

// multipartOverhead is the allowance for form boundaries and headers on top
// of the file itself.
const multipartOverhead = 1 << 20

// ImportsHandler accepts statement uploads and reports import runs.
type ImportsHandler struct {
	svc *importer.Service
	log zerolog.Logger
}

// NewImportsHandler creates a new imports handler.
func NewImportsHandler(svc *importer.Service, log zerolog.Logger) *ImportsHandler {
	return &ImportsHandler{
		svc: svc,
		log: log,
	}
}

// Import handles POST /api/transactions/import?userId= with a multipart "file" field.
func (h *ImportsHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, csvimport.MaxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, csvimport.ErrFileTooLarge.Error())
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = r.FormValue("userId")
	}
	if strings.TrimSpace(userID) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "userId is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, csvimport.ErrNoFile.Error())
		return
	}
	defer file.Close()

	summary, err := h.svc.Import(ctx, userID, importer.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		status := StatusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Msg("Import failed")
			middleware.WriteError(w, status, "Failed to import statement")
			return
		}
		body := map[string]interface{}{"error": PublicMessage(err)}
		if summary != nil {
			body["summary"] = summary
		}
		middleware.WriteJSON(w, status, body)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, summary)
}

// List handles GET /api/imports?userId=
func (h *ImportsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if strings.TrimSpace(userID) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "userId is required")
		return
	}

	runs, err := h.svc.Runs(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list imports")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"imports": runs,
		"count":   len(runs),
	})
}

// Get handles GET /api/imports/{id}
func (h *ImportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.Run(r.Context(), r.PathValue("id"))
	if err != nil {
		if StatusFor(err) == http.StatusNotFound {
			middleware.WriteError(w, http.StatusNotFound, "Import not found")
			return
		}
		writeServiceError(w, h.log, err, "Failed to get import")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, run)
}
