package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/bird-tracker/internal/apperror"
	"github.com/sakif/bird-tracker/internal/model"
	"github.com/sakif/bird-tracker/internal/repository"
)

const userColumns = `id, username, password, COALESCE(city, ''), COALESCE(state, ''), created_at, updated_at`

// userWritable is the set of columns a patch may touch, in SET-clause order.
var userWritable = []string{"username", "password", "city", "state"}

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.City, &u.State, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// FindUserByUsername returns apperror.ErrNotFound if no user has that name.
func (q *queries) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(q.queryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: finding user %q: %w", username, err)
	}
	return &u, nil
}

// CreateUser inserts user and sets its ID. A taken username comes back as
// apperror.ErrConflict.
func (q *queries) CreateUser(ctx context.Context, user *model.User) error {
	err := q.queryRow(ctx,
		`INSERT INTO users (username, password, city, state) VALUES (?, ?, ?, ?) RETURNING id`,
		user.Username, user.Password, user.City, user.State,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting user %q: %w", user.Username, mapErr(err))
	}
	return nil
}

// UpdateUser applies patch to the user with the given id and returns the
// rows that matched, re-read after the update.
func (q *queries) UpdateUser(ctx context.Context, id int64, patch repository.Patch) ([]model.User, error) {
	set, args, err := updateSet(patch, userWritable)
	if err != nil {
		return nil, err
	}

	if _, err := q.exec(ctx, `UPDATE users SET `+set+` WHERE id = ?`, append(args, id)...); err != nil {
		return nil, fmt.Errorf("sqlstore: updating user %d: %w", id, err)
	}

	rows, err := q.query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: reading user %d: %w", id, err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating user rows: %w", err)
	}
	return users, nil
}

// DeleteUser removes the user. Their sightings go with them through the
// foreign key cascade; categories are left alone.
func (q *queries) DeleteUser(ctx context.Context, id int64) error {
	res, err := q.exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(fmt.Sprintf("Could not locate user: %d", id))
	}
	return nil
}
