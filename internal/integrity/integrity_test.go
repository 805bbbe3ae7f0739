package integrity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/bird-tracker/internal/apperror"
	"github.com/sakif/bird-tracker/internal/repository"
)

// fakeQueries answers Exists from a fixed set of rows. Only Exists is ever
// called by the Checker; the embedded interface panics on anything else.
type fakeQueries struct {
	repository.Queries
	rows  map[repository.Table]map[int64]bool
	err   error
	calls int
}

func (f *fakeQueries) Exists(_ context.Context, table repository.Table, id int64) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.rows[table][id], nil
}

func newFake() *fakeQueries {
	return &fakeQueries{rows: map[repository.Table]map[int64]bool{
		repository.Users:      {1: true},
		repository.Categories: {2: true},
		repository.Sightings:  {3: true},
	}}
}

func TestRequire(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		check   func(c *Checker) error
		wantMsg string
	}{
		{"user present", func(c *Checker) error { return c.RequireUser(ctx, 1) }, ""},
		{"user absent", func(c *Checker) error { return c.RequireUser(ctx, 9) }, "Could not locate user: 9"},
		{"category present", func(c *Checker) error { return c.RequireCategory(ctx, 2) }, ""},
		{"category absent", func(c *Checker) error { return c.RequireCategory(ctx, 1) }, "Could not locate category: 1"},
		{"sighting present", func(c *Checker) error { return c.RequireSighting(ctx, 3) }, ""},
		{"sighting absent", func(c *Checker) error { return c.RequireSighting(ctx, 30) }, "Could not locate sighting: 30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check(New(newFake()))
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrNotFound))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestRequire_StoreErrorIsNotNotFound(t *testing.T) {
	f := newFake()
	f.err = errors.New("database is locked")

	err := New(f).RequireUser(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperror.ErrNotFound))
	assert.Equal(t, 1, f.calls)
}

func TestExists(t *testing.T) {
	c := New(newFake())
	ok, err := c.Exists(context.Background(), repository.Sightings, 3)
	require.NoError(t, err)
	assert.True(t, ok)
}
