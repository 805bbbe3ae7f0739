package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/bird-tracker/internal/apperror"
	"github.com/sakif/bird-tracker/internal/service"
	"github.com/sakif/bird-tracker/internal/validate"
)

type CategoryHandler struct {
	categories *service.CategoryService
	logger     *slog.Logger
}

func NewCategoryHandler(categories *service.CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logger: logger}
}

// HandleListByUser lists a user's categories.
//
// HTTP: GET /categories/users/{id}
//
// A malformed id cannot match any user, so it gets the same "none found"
// answer as an unknown one, without a query.
func (h *CategoryHandler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, apperror.NotFound(service.MsgNoCategories))
		return
	}

	categories, err := h.categories.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// HandleCreate adds a category.
//
// HTTP: POST /categories
// REQUEST BODY: {"name":"Falcons","user_id":1}
func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := validate.Decode(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := h.categories.Create(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}
