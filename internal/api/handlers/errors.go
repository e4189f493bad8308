// Package handlers implements the JSON endpoints behind the web client.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/dvloznov/efinance/internal/api/middleware"
	"github.com/dvloznov/efinance/internal/csvimport"
	"github.com/dvloznov/efinance/internal/domain"
	"github.com/dvloznov/efinance/internal/sip"
)

// StatusFor maps a service error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, sip.ErrInvalidParameter),
		errors.Is(err, csvimport.ErrNoFile):
		return http.StatusBadRequest
	case errors.Is(err, csvimport.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, csvimport.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, csvimport.ErrPDFNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, csvimport.ErrEmptyInput),
		errors.Is(err, csvimport.ErrNoValidRows):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// opPrefix matches the "Op: " prefixes added while wrapping.
var opPrefix = regexp.MustCompile(`^(?:[A-Z][A-Za-z]*: )+`)

// fileErrors are shown to clients by their own text.
var fileErrors = []error{
	csvimport.ErrNoFile,
	csvimport.ErrUnsupportedType,
	csvimport.ErrFileTooLarge,
	csvimport.ErrPDFNotImplemented,
	csvimport.ErrEmptyInput,
	csvimport.ErrNoValidRows,
}

// PublicMessage strips operation prefixes so clients see only the cause.
func PublicMessage(err error) string {
	for _, fe := range fileErrors {
		if errors.Is(err, fe) {
			return fe.Error()
		}
	}
	return opPrefix.ReplaceAllString(err.Error(), "")
}

// writeServiceError logs server-side failures and writes the mapped status.
// fallback is shown instead of the error text for 500s.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, err error, fallback string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg(fallback)
		middleware.WriteError(w, status, fallback)
		return
	}
	middleware.WriteError(w, status, PublicMessage(err))
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
