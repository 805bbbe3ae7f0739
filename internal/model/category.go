package model

import "time"

// Category is a named bucket for sightings (e.g. "Falcons").
//
// UserID is a plain column, not a foreign key: the schema no longer enforces
// category ownership, but listing by user and creation still use it.
// It is a pointer because the column is nullable.
type Category struct {
	ID        int64     `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	UserID    *int64    `json:"user_id"    db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
