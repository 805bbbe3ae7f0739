package service

import (
	"context"
	"log/slog"

	"github.com/sakif/bird-tracker/internal/apperror"
	"github.com/sakif/bird-tracker/internal/model"
	"github.com/sakif/bird-tracker/internal/repository"
	"github.com/sakif/bird-tracker/internal/validate"
)

const (
	MsgNoCategories    = "You do not currently have any categories. Create some!"
	msgCategoryMissing = "invalid format - required format: { name: <string>, user_id: <integer>}. You are missing a %s"
)

var categoryFields = []validate.Field{
	{Name: "name", Test: validate.Truthy},
	{Name: "user_id", Test: validate.Truthy},
}

type CategoryService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewCategoryService(store repository.Store, logger *slog.Logger) *CategoryService {
	return &CategoryService{store: store, logger: logger}
}

// ListByUser returns the user's categories, or a not-found error when there
// are none. An unknown user simply has none.
func (s *CategoryService) ListByUser(ctx context.Context, userID int64) ([]model.Category, error) {
	categories, err := s.store.ListCategoriesByUser(ctx, userID)
	if err != nil {
		s.logger.Error("listing categories", "user_id", userID, "error", err)
		return nil, err
	}
	if len(categories) == 0 {
		return nil, apperror.NotFound(MsgNoCategories)
	}
	return categories, nil
}

// Create inserts a category. The user_id is not checked against users.
func (s *CategoryService) Create(ctx context.Context, body validate.Body) (int64, error) {
	if err := checkBody(ctx, body, categoryFields, msgCategoryMissing, validate.CategoryCreate); err != nil {
		return 0, err
	}
	userID, err := intField(body.Fields, "user_id")
	if err != nil {
		return 0, err
	}

	category := &model.Category{
		Name:   *stringField(body.Fields, "name"),
		UserID: userID,
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		s.logger.Error("creating category", "name", category.Name, "error", err)
		return 0, err
	}

	s.logger.Info("category created", "id", category.ID, "name", category.Name)
	return category.ID, nil
}
