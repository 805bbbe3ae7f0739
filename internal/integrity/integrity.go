// Package integrity guards mutations with existence checks.
//
// A Checker is bound to one repository.Queries. Handed the transaction-scoped
// Queries from Store.WithTx, the check and the mutation that follows it see
// the same snapshot and commit together.
package integrity

import (
	"context"
	"fmt"

	"github.com/sakif/bird-tracker/internal/apperror"
	"github.com/sakif/bird-tracker/internal/repository"
)

type Checker struct {
	q repository.Queries
}

func New(q repository.Queries) *Checker {
	return &Checker{q: q}
}

// Exists reports whether table has a row with the given id.
func (c *Checker) Exists(ctx context.Context, table repository.Table, id int64) (bool, error) {
	return c.q.Exists(ctx, table, id)
}

// RequireUser returns an apperror.ErrNotFound error if the user is absent.
func (c *Checker) RequireUser(ctx context.Context, id int64) error {
	return c.require(ctx, repository.Users, id, "user")
}

func (c *Checker) RequireCategory(ctx context.Context, id int64) error {
	return c.require(ctx, repository.Categories, id, "category")
}

func (c *Checker) RequireSighting(ctx context.Context, id int64) error {
	return c.require(ctx, repository.Sightings, id, "sighting")
}

func (c *Checker) require(ctx context.Context, table repository.Table, id int64, noun string) error {
	ok, err := c.q.Exists(ctx, table, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound(fmt.Sprintf("Could not locate %s: %d", noun, id))
	}
	return nil
}
