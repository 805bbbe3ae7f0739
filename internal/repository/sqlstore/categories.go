package sqlstore

import (
	"context"
	"fmt"

	"github.com/sakif/bird-tracker/internal/model"
)

func (q *queries) ListCategoriesByUser(ctx context.Context, userID int64) ([]model.Category, error) {
	rows, err := q.query(ctx,
		`SELECT id, COALESCE(name, ''), user_id, created_at, updated_at
		 FROM categories WHERE user_id = ? ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing categories for user %d: %w", userID, err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating category rows: %w", err)
	}
	return categories, nil
}

// CreateCategory inserts category and sets its ID. The user_id is stored as
// given; nothing checks that the user exists.
func (q *queries) CreateCategory(ctx context.Context, category *model.Category) error {
	err := q.queryRow(ctx,
		`INSERT INTO categories (name, user_id) VALUES (?, ?) RETURNING id`,
		category.Name, category.UserID,
	).Scan(&category.ID)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting category %q: %w", category.Name, mapErr(err))
	}
	return nil
}
