package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sakif/bird-tracker/internal/apperror"
	"github.com/sakif/bird-tracker/internal/integrity"
	"github.com/sakif/bird-tracker/internal/model"
	"github.com/sakif/bird-tracker/internal/repository"
	"github.com/sakif/bird-tracker/internal/validate"
)

const (
	MsgNoSightings         = "You do not currently have any sightings. Go Birding!"
	MsgNoCategorySightings = "There are currently no sightings for this category. Add some!"
	msgSightingMissing     = "invalid format - requires species, favorite, wishlist, user_id. You are missing %s"
	msgSightingNotFound    = "Could not locate sighting: %d"
	msgCategoryNotFound    = "Could not locate category: %s"
)

// sightingFields uses the Defined test: false, 0 and null all count as
// present for sightings.
var sightingFields = []validate.Field{
	{Name: "bird_species", Test: validate.Defined},
	{Name: "favorite", Test: validate.Defined},
	{Name: "wishlist", Test: validate.Defined},
	{Name: "user_id", Test: validate.Defined},
}

type SightingService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewSightingService(store repository.Store, logger *slog.Logger) *SightingService {
	return &SightingService{store: store, logger: logger}
}

func (s *SightingService) ListByUser(ctx context.Context, userID int64) ([]model.Sighting, error) {
	sightings, err := s.store.ListSightingsByUser(ctx, userID)
	if err != nil {
		s.logger.Error("listing sightings by user", "user_id", userID, "error", err)
		return nil, err
	}
	if len(sightings) == 0 {
		return nil, apperror.NotFound(MsgNoSightings)
	}
	return sightings, nil
}

func (s *SightingService) ListByCategory(ctx context.Context, categoryID int64) ([]model.Sighting, error) {
	sightings, err := s.store.ListSightingsByCategory(ctx, categoryID)
	if err != nil {
		s.logger.Error("listing sightings by category", "category_id", categoryID, "error", err)
		return nil, err
	}
	if len(sightings) == 0 {
		return nil, apperror.NotFound(MsgNoCategorySightings)
	}
	return sightings, nil
}

// Create inserts a sighting and returns its id.
//
// Neither category_id nor user_id is checked up front. A user_id with no
// matching user fails on the foreign key and comes back as a store error.
func (s *SightingService) Create(ctx context.Context, body validate.Body) (int64, error) {
	if err := checkBody(ctx, body, sightingFields, msgSightingMissing, validate.SightingCreate); err != nil {
		return 0, err
	}

	sighting, err := sightingFrom(body.Fields)
	if err != nil {
		return 0, err
	}
	if err := s.store.CreateSighting(ctx, sighting); err != nil {
		s.logger.Error("creating sighting", "error", err)
		return 0, err
	}

	s.logger.Info("sighting created", "id", sighting.ID)
	return sighting.ID, nil
}

// Update applies a partial update. Checks run in this order: the sighting
// exists, the category named by the body's category_id exists, the body has
// the patch shape. A category_id that is absent or not an integer names no
// category and is reported as not found.
func (s *SightingService) Update(ctx context.Context, id int64, body validate.Body) ([]model.Sighting, error) {
	var sightings []model.Sighting
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		check := integrity.New(q)
		if err := check.RequireSighting(ctx, id); err != nil {
			return err
		}
		categoryID, raw, ok := categoryRef(body.Fields)
		if !ok {
			return apperror.NotFound(fmt.Sprintf(msgCategoryNotFound, raw))
		}
		if err := check.RequireCategory(ctx, categoryID); err != nil {
			return err
		}

		if err := validate.SightingPatch.Check(ctx, body.Raw); err != nil {
			return err
		}
		patch, err := patchFrom(body.Fields)
		if err != nil {
			return err
		}
		rows, err := q.UpdateSighting(ctx, id, patch)
		if err != nil {
			return err
		}
		// Deleted by a concurrent request after the existence check.
		if len(rows) == 0 {
			return apperror.NotFound(fmt.Sprintf(msgSightingNotFound, id))
		}
		sightings = rows
		return nil
	})
	if err != nil {
		if !expected(err) {
			s.logger.Error("updating sighting", "id", id, "error", err)
		}
		return nil, err
	}

	s.logger.Info("sighting updated", "id", id)
	return sightings, nil
}

// categoryRef reads category_id from a patch body. raw is the value as the
// client sent it, for the not-found message.
func categoryRef(fields map[string]any) (id int64, raw string, ok bool) {
	v, present := fields["category_id"]
	if !present {
		return 0, "undefined", false
	}
	switch x := v.(type) {
	case nil:
		return 0, "null", false
	case json.Number:
		i, err := toInt64("category_id", x)
		if err != nil {
			return 0, x.String(), false
		}
		return i, x.String(), true
	default:
		return 0, fmt.Sprint(x), false
	}
}

func (s *SightingService) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		if err := integrity.New(q).RequireSighting(ctx, id); err != nil {
			return err
		}
		return q.DeleteSighting(ctx, id)
	})
	if err != nil {
		if !expected(err) {
			s.logger.Error("deleting sighting", "id", id, "error", err)
		}
		return err
	}

	s.logger.Info("sighting deleted", "id", id)
	return nil
}

func sightingFrom(fields map[string]any) (*model.Sighting, error) {
	categoryID, err := intField(fields, "category_id")
	if err != nil {
		return nil, err
	}
	userID, err := intField(fields, "user_id")
	if err != nil {
		return nil, err
	}
	return &model.Sighting{
		BirdSpecies: stringField(fields, "bird_species"),
		Date:        stringField(fields, "date"),
		City:        stringField(fields, "city"),
		State:       stringField(fields, "state"),
		Notes:       stringField(fields, "notes"),
		Photo:       stringField(fields, "photo"),
		Wishlist:    boolField(fields, "wishlist"),
		Favorite:    boolField(fields, "favorite"),
		CategoryID:  categoryID,
		UserID:      userID,
	}, nil
}
