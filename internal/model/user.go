// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data: similar to classes in other languages,
// but without inheritance.
//
// JSON tags use the column names (snake_case) because the API returns rows
// exactly as they are stored.
package model

import "time"

// User represents a bird watcher's account.
//
// WHY IS Password TAGGED `json:"-"`?
// The password is stored and compared as plain text (that is the account
// contract), but it must never leave the server. The "-" tag tells
// encoding/json to skip the field entirely, so no handler can leak it by
// accident when it encodes a User.
type User struct {
	ID        int64     `json:"id"         db:"id"`
	Username  string    `json:"username"   db:"username"` // unique across users
	Password  string    `json:"-"          db:"password"`
	City      string    `json:"city"       db:"city"`
	State     string    `json:"state"      db:"state"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PublicUser is the shape returned by the lookup-as-login endpoint:
// exactly id, username, city and state.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	City     string `json:"city"`
	State    string `json:"state"`
}

// Public strips everything but the public profile fields.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		City:     u.City,
		State:    u.State,
	}
}
