package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/bird-tracker/internal/apperror"
	"github.com/sakif/bird-tracker/internal/model"
	"github.com/sakif/bird-tracker/internal/repository"
)

// newTestStore opens a migrated in-memory SQLite store that is closed when
// the test ends. Every test gets its own database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Driver: DriverSQLite, DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func ptr[T any](v T) *T { return &v }

func createUser(t *testing.T, s *Store, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Password: "pw", City: "Golden", State: "CO"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "mysql", DSN: "x"}, nil)
	assert.Error(t, err)

	_, err = Open(Config{Driver: DriverSQLite}, nil)
	assert.Error(t, err)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate())

	mg, err := s.NewMigrator()
	require.NoError(t, err)
	defer mg.Close()

	v, dirty, err := mg.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(3), v)
	assert.False(t, dirty)

	// The store must still be usable after the migrator is closed.
	require.NoError(t, mg.Close())
	assert.NoError(t, s.Ping(context.Background()))
}

func TestRebind(t *testing.T) {
	lite := &queries{dialect: DriverSQLite}
	pg := &queries{dialect: DriverPostgres}

	q := `UPDATE users SET city = ?, state = ? WHERE id = ?`
	assert.Equal(t, q, lite.rebind(q))
	assert.Equal(t, `UPDATE users SET city = $1, state = $2 WHERE id = $3`, pg.rebind(q))
}

func TestUpdateSet(t *testing.T) {
	set, args, err := updateSet(repository.Patch{"state": "CO", "city": "Golden"}, userWritable)
	require.NoError(t, err)
	assert.Equal(t, "city = ?, state = ?, updated_at = CURRENT_TIMESTAMP", set)
	assert.Equal(t, []any{"Golden", "CO"}, args)

	_, _, err = updateSet(repository.Patch{"id": 4}, userWritable)
	assert.Error(t, err)

	_, _, err = updateSet(repository.Patch{}, userWritable)
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "birder")

	ok, err := s.Exists(ctx, repository.Users, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, repository.Sightings, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Exists(ctx, repository.Table("users; DROP TABLE users"), 1)
	assert.Error(t, err)
}

// =========================================================================
// USERS
// =========================================================================

func TestCreateUser_AssignsIncreasingIDs(t *testing.T) {
	s := newTestStore(t)
	a := createUser(t, s, "a")
	b := createUser(t, s, "b")
	assert.Positive(t, a.ID)
	assert.Greater(t, b.ID, a.ID)
}

func TestCreateUser_DuplicateUsernameIsConflict(t *testing.T) {
	s := newTestStore(t)
	createUser(t, s, "dupe")

	err := s.CreateUser(context.Background(), &model.User{Username: "dupe", Password: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)
}

func TestFindUserByUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	created := createUser(t, s, "adamsjr8576")

	got, err := s.FindUserByUsername(ctx, "adamsjr8576")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "pw", got.Password)
	assert.Equal(t, "Golden", got.City)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.FindUserByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestUpdateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "mover")

	rows, err := s.UpdateUser(ctx, u.ID, repository.Patch{"city": "Denver"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Denver", rows[0].City)
	assert.Equal(t, "CO", rows[0].State)

	rows, err = s.UpdateUser(ctx, 999, repository.Patch{"city": "Boulder"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUpdateUser_TakenUsernameIsConflict(t *testing.T) {
	s := newTestStore(t)
	createUser(t, s, "first")
	second := createUser(t, s, "second")

	_, err := s.UpdateUser(context.Background(), second.ID, repository.Patch{"username": "first"})
	assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)
}

func TestDeleteUser_CascadesToSightingsOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "leaving")

	cat := &model.Category{Name: "Falcons", UserID: &u.ID}
	require.NoError(t, s.CreateCategory(ctx, cat))
	sighting := &model.Sighting{BirdSpecies: ptr("Kestrel"), UserID: &u.ID, CategoryID: &cat.ID}
	require.NoError(t, s.CreateSighting(ctx, sighting))

	require.NoError(t, s.DeleteUser(ctx, u.ID))

	ok, err := s.Exists(ctx, repository.Sightings, sighting.ID)
	require.NoError(t, err)
	assert.False(t, ok, "sighting should be removed with its user")

	ok, err = s.Exists(ctx, repository.Categories, cat.ID)
	require.NoError(t, err)
	assert.True(t, ok, "categories are not owned by users")

	err = s.DeleteUser(ctx, u.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

// =========================================================================
// CATEGORIES
// =========================================================================

func TestCategories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "lister")
	other := createUser(t, s, "other")

	for _, name := range []string{"Falcons", "Song Birds"} {
		require.NoError(t, s.CreateCategory(ctx, &model.Category{Name: name, UserID: &u.ID}))
	}
	require.NoError(t, s.CreateCategory(ctx, &model.Category{Name: "Owls", UserID: &other.ID}))

	got, err := s.ListCategoriesByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Falcons", got[0].Name)
	assert.Equal(t, "Song Birds", got[1].Name)
	assert.Equal(t, u.ID, *got[0].UserID)

	// a dangling user_id is accepted
	require.NoError(t, s.CreateCategory(ctx, &model.Category{Name: "Ghost", UserID: ptr(int64(777))}))

	got, err = s.ListCategoriesByUser(ctx, 12345)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// =========================================================================
// SIGHTINGS
// =========================================================================

func TestCreateSighting_StoresNullsAndFalse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "spotter")

	in := &model.Sighting{
		BirdSpecies: ptr("Western Tanager"),
		Wishlist:    ptr(false),
		Favorite:    ptr(true),
		UserID:      &u.ID,
	}
	require.NoError(t, s.CreateSighting(ctx, in))
	assert.Positive(t, in.ID)

	got, err := s.ListSightingsByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Western Tanager", *got[0].BirdSpecies)
	assert.Nil(t, got[0].Notes)
	assert.Nil(t, got[0].CategoryID)
	require.NotNil(t, got[0].Wishlist)
	assert.False(t, *got[0].Wishlist)
	assert.True(t, *got[0].Favorite)
}

func TestCreateSighting_UnknownUserFails(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateSighting(context.Background(), &model.Sighting{UserID: ptr(int64(404))})
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperror.ErrNotFound))
	assert.False(t, errors.Is(err, apperror.ErrConflict))
}

func TestListSightingsByCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "sorter")

	for _, cat := range []int64{1, 2, 1} {
		require.NoError(t, s.CreateSighting(ctx, &model.Sighting{UserID: &u.ID, CategoryID: ptr(cat)}))
	}

	got, err := s.ListSightingsByCategory(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Less(t, got[0].ID, got[1].ID)
}

func TestUpdateAndDeleteSighting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "editor")
	in := &model.Sighting{BirdSpecies: ptr("Hawk"), UserID: &u.ID}
	require.NoError(t, s.CreateSighting(ctx, in))

	rows, err := s.UpdateSighting(ctx, in.ID, repository.Patch{"category_id": int64(3), "notes": nil, "favorite": true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), *rows[0].CategoryID)
	assert.True(t, *rows[0].Favorite)
	assert.Equal(t, "Hawk", *rows[0].BirdSpecies)

	require.NoError(t, s.DeleteSighting(ctx, in.ID))
	err = s.DeleteSighting(ctx, in.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

// =========================================================================
// TRANSACTIONS
// =========================================================================

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(q repository.Queries) error {
		if err := q.CreateUser(ctx, &model.User{Username: "ghost", Password: "x"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.FindUserByUsername(ctx, "ghost")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestWithTx_Commits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(q repository.Queries) error {
		return q.CreateUser(ctx, &model.User{Username: "kept", Password: "x"})
	})
	require.NoError(t, err)

	_, err = s.FindUserByUsername(ctx, "kept")
	assert.NoError(t, err)
}

func TestWithTx_PassesAppErrorsThrough(t *testing.T) {
	s := newTestStore(t)
	err := s.WithTx(context.Background(), func(q repository.Queries) error {
		return apperror.NotFound("Could not locate sighting: 5")
	})
	assert.EqualError(t, err, "Could not locate sighting: 5")
}
