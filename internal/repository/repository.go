// Package repository declares the persistence contract the services depend on.
//
// Services never see SQL. They get a Store, run single statements through its
// Queries methods, and wrap multi-step check-then-act sequences in WithTx so
// the check and the mutation commit (or fail) together.
package repository

import (
	"context"

	"github.com/sakif/bird-tracker/internal/model"
)

// Table names the tables an existence lookup may target. It is a closed set
// so a table name can be spliced into SQL safely.
type Table string

const (
	Users      Table = "users"
	Categories Table = "categories"
	Sightings  Table = "sightings"
)

// Valid reports whether t is one of the known tables.
func (t Table) Valid() bool {
	switch t {
	case Users, Categories, Sightings:
		return true
	}
	return false
}

// Patch is a column -> value map for partial updates. Values are plain Go
// values (string, bool, int64, nil) already checked against the column set.
type Patch map[string]any

// Queries is every single-statement operation the services use.
//
// Lookup methods that target one row return apperror.ErrNotFound when the row
// is absent. Update* returns the updated rows, which is empty when nothing
// matched. Inserts set the generated ID on the passed struct.
type Queries interface {
	Exists(ctx context.Context, table Table, id int64) (bool, error)
	// DeleteAll empties table and returns how many rows went. Only the seed
	// loader uses it.
	DeleteAll(ctx context.Context, table Table) (int64, error)

	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, id int64, patch Patch) ([]model.User, error)
	DeleteUser(ctx context.Context, id int64) error

	ListCategoriesByUser(ctx context.Context, userID int64) ([]model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error

	ListSightingsByUser(ctx context.Context, userID int64) ([]model.Sighting, error)
	ListSightingsByCategory(ctx context.Context, categoryID int64) ([]model.Sighting, error)
	CreateSighting(ctx context.Context, sighting *model.Sighting) error
	UpdateSighting(ctx context.Context, id int64, patch Patch) ([]model.Sighting, error)
	DeleteSighting(ctx context.Context, id int64) error
}

// Store is the long-lived handle opened once at process start and injected
// into every service.
type Store interface {
	Queries

	// WithTx runs fn against a transaction-scoped Queries. The transaction
	// commits if fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(q Queries) error) error

	Ping(ctx context.Context) error
	Close() error
}
