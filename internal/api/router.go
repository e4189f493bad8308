// Package api assembles the HTTP routes and middleware of the API server.
package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/efinance/internal/api/handlers"
	"github.com/dvloznov/efinance/internal/api/middleware"
	bq "github.com/dvloznov/efinance/internal/bigquery"
	"github.com/dvloznov/efinance/internal/domain"
	"github.com/dvloznov/efinance/internal/importer"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Records     bq.RecordRepository
	Users       bq.UserRepository
	Importer    *importer.Service
	CORSOrigins []string
	Log         zerolog.Logger
}

// NewRouter returns the full handler: routes wrapped in recovery, request ID,
// access logging and CORS.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	for _, kind := range domain.Kinds {
		h := handlers.NewRecordsHandler(kind, d.Records, d.Log)
		base := "/api/" + string(kind) + "s"
		mux.HandleFunc("GET "+base, h.List)
		mux.HandleFunc("GET "+base+"/month", h.ListByMonth)
		mux.HandleFunc("POST "+base, h.Create)
		mux.HandleFunc("PUT "+base+"/{id}", h.Update)
		mux.HandleFunc("DELETE "+base+"/{id}", h.Delete)
	}

	imports := handlers.NewImportsHandler(d.Importer, d.Log)
	mux.HandleFunc("POST /api/transactions/import", imports.Import)
	mux.HandleFunc("GET /api/imports", imports.List)
	mux.HandleFunc("GET /api/imports/{id}", imports.Get)

	users := handlers.NewUsersHandler(d.Users, d.Log)
	mux.HandleFunc("POST /api/users", users.CreateOrGet)
	mux.HandleFunc("GET /api/users/{externalId}", users.Get)
	mux.HandleFunc("PUT /api/users/{externalId}", users.Update)

	mux.HandleFunc("GET /api/sip", handlers.SIP)
	mux.HandleFunc("GET /api/dashboard", handlers.NewDashboardHandler(d.Records, d.Log).Get)

	mux.HandleFunc("GET /api/test", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "API is working"})
	})

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.Chain(mux,
		middleware.Recovery(d.Log),
		middleware.RequestID,
		middleware.Logger(d.Log),
		middleware.CORS(d.CORSOrigins),
	)
}
