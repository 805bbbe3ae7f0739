package model

import "time"

// Sighting is a single recorded bird observation.
//
// WHY SO MANY POINTERS?
// Every column except id is nullable. Creation only requires bird_species,
// favorite, wishlist and user_id to be *defined*, and an explicit JSON null
// counts as defined. A pointer distinguishes "null" from the zero value, so
// a sighting stored with favorite = NULL is returned as null, not false.
type Sighting struct {
	ID          int64     `json:"id"           db:"id"`
	BirdSpecies *string   `json:"bird_species" db:"bird_species"`
	Date        *string   `json:"date"         db:"date"`
	City        *string   `json:"city"         db:"city"`
	State       *string   `json:"state"        db:"state"`
	Notes       *string   `json:"notes"        db:"notes"`
	Photo       *string   `json:"photo"        db:"photo"`
	Wishlist    *bool     `json:"wishlist"     db:"wishlist"`
	Favorite    *bool     `json:"favorite"     db:"favorite"`
	CategoryID  *int64    `json:"category_id"  db:"category_id"`
	UserID      *int64    `json:"user_id"      db:"user_id"` // deleting the user cascades here
	CreatedAt   time.Time `json:"created_at"   db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"   db:"updated_at"`
}
