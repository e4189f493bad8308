package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/efinance/internal/api/middleware"
	bq "github.com/dvloznov/efinance/internal/bigquery"
	"github.com/dvloznov/efinance/internal/domain"
)

// UsersHandler mirrors identity-provider profiles.
type UsersHandler struct {
	repo bq.UserRepository
	log  zerolog.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(repo bq.UserRepository, log zerolog.Logger) *UsersHandler {
	return &UsersHandler{
		repo: repo,
		log:  log,
	}
}

// CreateOrGet handles POST /api/users. An existing profile is returned
// unchanged, with 200 either way.
func (h *UsersHandler) CreateOrGet(w http.ResponseWriter, r *http.Request) {
	var u domain.User
	if err := decodeJSON(r, &u); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, created, err := h.repo.CreateOrGetUser(r.Context(), &u)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create user")
		return
	}
	if created {
		h.log.Info().Str("external_id", user.ExternalID).Msg("User created")
	}
	middleware.WriteJSON(w, http.StatusOK, user)
}

// Get handles GET /api/users/{externalId}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.repo.GetUser(r.Context(), r.PathValue("externalId"))
	if err != nil {
		if StatusFor(err) == http.StatusNotFound {
			middleware.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		writeServiceError(w, h.log, err, "Failed to get user")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{externalId}
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var u domain.User
	if err := decodeJSON(r, &u); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	u.ExternalID = r.PathValue("externalId")

	user, err := h.repo.UpdateUser(r.Context(), &u)
	if err != nil {
		if StatusFor(err) == http.StatusNotFound {
			middleware.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		writeServiceError(w, h.log, err, "Failed to update user")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, user)
}
