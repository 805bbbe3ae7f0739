package sqlstore

import (
	"context"
	"fmt"

	"github.com/sakif/bird-tracker/internal/apperror"
	"github.com/sakif/bird-tracker/internal/model"
	"github.com/sakif/bird-tracker/internal/repository"
)

const sightingColumns = `id, bird_species, date, city, state, notes, photo, wishlist, favorite,
	category_id, user_id, created_at, updated_at`

var sightingWritable = []string{
	"bird_species", "date", "city", "state", "notes", "photo",
	"wishlist", "favorite", "category_id", "user_id",
}

func (q *queries) listSightings(ctx context.Context, where string, arg int64) ([]model.Sighting, error) {
	rows, err := q.query(ctx,
		`SELECT `+sightingColumns+` FROM sightings WHERE `+where+` = ? ORDER BY id`, arg,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing sightings by %s %d: %w", where, arg, err)
	}
	defer rows.Close()

	var sightings []model.Sighting
	for rows.Next() {
		var s model.Sighting
		err := rows.Scan(
			&s.ID,
			&s.BirdSpecies,
			&s.Date,
			&s.City,
			&s.State,
			&s.Notes,
			&s.Photo,
			&s.Wishlist,
			&s.Favorite,
			&s.CategoryID,
			&s.UserID,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning sighting row: %w", err)
		}
		sightings = append(sightings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating sighting rows: %w", err)
	}
	return sightings, nil
}

func (q *queries) ListSightingsByUser(ctx context.Context, userID int64) ([]model.Sighting, error) {
	return q.listSightings(ctx, "user_id", userID)
}

func (q *queries) ListSightingsByCategory(ctx context.Context, categoryID int64) ([]model.Sighting, error) {
	return q.listSightings(ctx, "category_id", categoryID)
}

// CreateSighting inserts sighting and sets its ID. Nil fields are stored as
// NULL. A user_id that matches no user fails on the foreign key.
func (q *queries) CreateSighting(ctx context.Context, sighting *model.Sighting) error {
	err := q.queryRow(ctx,
		`INSERT INTO sightings
		    (bird_species, date, city, state, notes, photo, wishlist, favorite, category_id, user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		sighting.BirdSpecies,
		sighting.Date,
		sighting.City,
		sighting.State,
		sighting.Notes,
		sighting.Photo,
		sighting.Wishlist,
		sighting.Favorite,
		sighting.CategoryID,
		sighting.UserID,
	).Scan(&sighting.ID)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting sighting: %w", mapErr(err))
	}
	return nil
}

func (q *queries) UpdateSighting(ctx context.Context, id int64, patch repository.Patch) ([]model.Sighting, error) {
	set, args, err := updateSet(patch, sightingWritable)
	if err != nil {
		return nil, err
	}
	if _, err := q.exec(ctx, `UPDATE sightings SET `+set+` WHERE id = ?`, append(args, id)...); err != nil {
		return nil, fmt.Errorf("sqlstore: updating sighting %d: %w", id, err)
	}
	return q.listSightings(ctx, "id", id)
}

func (q *queries) DeleteSighting(ctx context.Context, id int64) error {
	res, err := q.exec(ctx, `DELETE FROM sightings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting sighting %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(fmt.Sprintf("Could not locate sighting: %d", id))
	}
	return nil
}
