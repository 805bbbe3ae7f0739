package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/bird-tracker/internal/apperror"
	"github.com/sakif/bird-tracker/internal/service"
	"github.com/sakif/bird-tracker/internal/validate"
)

type SightingHandler struct {
	sightings *service.SightingService
	logger    *slog.Logger
}

func NewSightingHandler(sightings *service.SightingService, logger *slog.Logger) *SightingHandler {
	return &SightingHandler{sightings: sightings, logger: logger}
}

// HTTP: GET /sightings/users/{id}
func (h *SightingHandler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, apperror.NotFound(service.MsgNoSightings))
		return
	}

	sightings, err := h.sightings.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sightings)
}

// HTTP: GET /sightings/categories/{id}
func (h *SightingHandler) HandleListByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, apperror.NotFound(service.MsgNoCategorySightings))
		return
	}

	sightings, err := h.sightings.ListByCategory(r.Context(), categoryID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sightings)
}

// HandleCreate records a sighting.
//
// HTTP: POST /sightings
// REQUEST BODY: bird_species, favorite, wishlist and user_id must be present
// (null and false count); date, city, state, notes, photo and category_id
// are optional.
func (h *SightingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := validate.Decode(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := h.sightings.Create(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

// HandleUpdate changes a sighting. The body must carry a category_id naming
// an existing category.
//
// HTTP: PATCH /sightings/{id}
func (h *SightingHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := validate.Decode(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	sightings, err := h.sightings.Update(r.Context(), id, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sightings)
}

// HTTP: DELETE /sightings/{id}
func (h *SightingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.sightings.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Success: sighting has been deleted"})
}
