package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/bird-tracker/internal/service"
	"github.com/sakif/bird-tracker/internal/validate"
)

// UserHandler serves /users.
//
// Handlers only deal with HTTP: they pull ids out of the path, decode the
// body, call the service and write whatever comes back. Every rule about
// what is valid lives in the service.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleLookup checks a username/password pair.
//
// HTTP: GET /users/{username}/{password}
// RESPONSE: 200 [{"id":1,"username":"...","city":"...","state":"..."}]
func (h *UserHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Lookup(r.Context(), pathParam(r, "username"), pathParam(r, "password"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleCreate registers an account.
//
// HTTP: POST /users
// REQUEST BODY: {"username":"...","password":"...","city":"...","state":"..."}
// RESPONSE: 201 {"id": 1}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := validate.Decode(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := h.users.Create(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

// HandleUpdate applies a partial update.
//
// HTTP: PATCH /users/{id}
// RESPONSE: 200 with the updated rows (never including the password)
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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

	users, err := h.users.Update(r.Context(), id, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleDelete removes an account and, through the cascade, its sightings.
//
// HTTP: DELETE /users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Success: user has been deleted"})
}
