package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/bird-tracker/internal/apperror"
	"github.com/sakif/bird-tracker/internal/model"
)

func newUserService(t *testing.T) (*UserService, *mockStore) {
	t.Helper()
	store := newMockStore()
	return NewUserService(store, testLogger()), store
}

func seedUser(t *testing.T, store *mockStore, username, password string) model.User {
	t.Helper()
	u := &model.User{Username: username, Password: password, City: "Golden", State: "CO"}
	require.NoError(t, store.CreateUser(context.Background(), u))
	store.calls = nil
	return *u
}

// =========================================================================
// LOOKUP
// =========================================================================

func TestUserLookup(t *testing.T) {
	svc, store := newUserService(t)
	u := seedUser(t, store, "adamsjr8576", "test")

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
		wantMsg  string
	}{
		{"match", "adamsjr8576", "test", nil, ""},
		{"unknown username", "nobody", "test", apperror.ErrNotFound,
			"username: nobody does not exist. Please try a different username or create an account"},
		{"wrong password", "adamsjr8576", "Test", apperror.ErrForbidden,
			"The password entered is incorrect. Please try again."},
		{"empty password", "adamsjr8576", "", apperror.ErrForbidden,
			"The password entered is incorrect. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Lookup(context.Background(), tt.username, tt.password)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Equal(t, tt.wantMsg, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []model.PublicUser{{ID: u.ID, Username: "adamsjr8576", City: "Golden", State: "CO"}}, got)
		})
	}
}

func TestUserLookup_StoreError(t *testing.T) {
	svc, store := newUserService(t)
	store.failOn = "FindUserByUsername"

	_, err := svc.Lookup(context.Background(), "x", "y")
	assert.ErrorIs(t, err, errStore)
}

// =========================================================================
// CREATE
// =========================================================================

func TestUserCreate(t *testing.T) {
	svc, store := newUserService(t)

	id, err := svc.Create(context.Background(), body(t, `{"username":"new","password":"pw","city":"Golden","state":"CO"}`))
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, "new", store.users[id].Username)
	assert.Equal(t, 1, store.txs)
}

func TestUserCreate_MissingFields(t *testing.T) {
	const prefix = "invalid format - required format: { username: <string>, password: <string>, city: <string>, state: <string> }. You are missing a "

	tests := []struct {
		name    string
		body    string
		missing string
	}{
		{"empty body", ``, "username"},
		{"no password", `{"username":"a","city":"c","state":"s"}`, "password"},
		{"empty city", `{"username":"a","password":"p","city":"","state":"s"}`, "city"},
		{"first wins", `{"username":"a","password":"p"}`, "city"},
		{"no state", `{"username":"a","password":"p","city":"c"}`, "state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newUserService(t)
			_, err := svc.Create(context.Background(), body(t, tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrValidation))
			assert.Equal(t, prefix+tt.missing, err.Error())
			assert.Empty(t, store.calls, "validation must not touch the store")
		})
	}
}

func TestUserCreate_WrongTypeIsRejected(t *testing.T) {
	svc, store := newUserService(t)
	_, err := svc.Create(context.Background(), body(t, `{"username":"a","password":"p","city":"c","state":7}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Empty(t, store.calls)
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	svc, store := newUserService(t)
	seedUser(t, store, "taken", "pw")

	_, err := svc.Create(context.Background(), body(t, `{"username":"taken","password":"pw","city":"c","state":"s"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
	assert.Equal(t, "An account with the username taken already exists - please choose another", err.Error())
	assert.Len(t, store.users, 1)
}

func TestUserCreate_StoreError(t *testing.T) {
	svc, store := newUserService(t)
	store.failOn = "CreateUser"

	_, err := svc.Create(context.Background(), body(t, `{"username":"a","password":"p","city":"c","state":"s"}`))
	assert.ErrorIs(t, err, errStore)
	assert.Empty(t, store.users)
}

// =========================================================================
// UPDATE / DELETE
// =========================================================================

func TestUserUpdate(t *testing.T) {
	svc, store := newUserService(t)
	u := seedUser(t, store, "mover", "pw")

	rows, err := svc.Update(context.Background(), u.ID, body(t, `{"city":"Denver"}`))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Denver", rows[0].City)
	assert.Equal(t, "CO", rows[0].State)
}

func TestUserUpdate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		id      int64
		body    string
		wantErr error
		wantMsg string
	}{
		{"unknown user", 99, `{"city":"Denver"}`, apperror.ErrNotFound, "Could not locate user: 99"},
		{"unknown user with empty patch", 99, `{}`, apperror.ErrNotFound, "Could not locate user: 99"},
		{"unknown user with bad column", 99, `{"favorite":true}`, apperror.ErrNotFound, "Could not locate user: 99"},
		{"empty patch", 1, `{}`, apperror.ErrValidation, ""},
		{"unknown column", 1, `{"favorite":true}`, apperror.ErrValidation, ""},
		{"username taken", 1, `{"username":"other"}`, apperror.ErrConflict,
			"An account with the username other already exists - please choose another"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newUserService(t)
			seedUser(t, store, "mover", "pw")
			seedUser(t, store, "other", "pw")

			_, err := svc.Update(context.Background(), tt.id, body(t, tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
			assert.Equal(t, "mover", store.users[1].Username)
		})
	}
}

func TestUserUpdate_DeletedMidway(t *testing.T) {
	svc, store := newUserService(t)
	u := seedUser(t, store, "mover", "pw")
	store.beforeUpdate = func() { delete(store.users, u.ID) }

	rows, err := svc.Update(context.Background(), u.ID, body(t, `{"city":"Denver"}`))
	assert.Nil(t, rows)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.EqualError(t, err, "Could not locate user: 1")
}

func TestUserDelete(t *testing.T) {
	svc, store := newUserService(t)
	u := seedUser(t, store, "leaving", "pw")
	store.sightings[50] = model.Sighting{ID: 50, UserID: ptr(u.ID)}

	require.NoError(t, svc.Delete(context.Background(), u.ID))
	assert.Empty(t, store.users)
	assert.Empty(t, store.sightings, "sightings cascade with the user")

	err := svc.Delete(context.Background(), u.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Equal(t, "Could not locate user: 1", err.Error())
}

func TestUserDelete_StoreErrorRollsBack(t *testing.T) {
	svc, store := newUserService(t)
	u := seedUser(t, store, "stays", "pw")
	store.failOn = "DeleteUser"

	err := svc.Delete(context.Background(), u.ID)
	assert.ErrorIs(t, err, errStore)
	assert.False(t, errors.Is(err, apperror.ErrNotFound))
	assert.Len(t, store.users, 1)
}
