package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/bird-tracker/internal/apperror"
	"github.com/sakif/bird-tracker/internal/integrity"
	"github.com/sakif/bird-tracker/internal/model"
	"github.com/sakif/bird-tracker/internal/repository"
	"github.com/sakif/bird-tracker/internal/validate"
)

const (
	msgUnknownUsername = "username: %s does not exist. Please try a different username or create an account"
	msgWrongPassword   = "The password entered is incorrect. Please try again."
	msgUserMissing     = "invalid format - required format: { username: <string>, password: <string>, city: <string>, state: <string> }. You are missing a %s"
	msgUsernameTaken   = "An account with the username %s already exists - please choose another"
	msgUserNotFound    = "Could not locate user: %d"
)

// userFields is the account-creation contract. The order is the order in
// which a missing field is reported.
var userFields = []validate.Field{
	{Name: "username", Test: validate.Truthy},
	{Name: "password", Test: validate.Truthy},
	{Name: "city", Test: validate.Truthy},
	{Name: "state", Test: validate.Truthy},
}

// UserService handles accounts.
type UserService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewUserService(store repository.Store, logger *slog.Logger) *UserService {
	return &UserService{store: store, logger: logger}
}

// Lookup is the lookup-as-login operation: it finds the account by username
// and compares the stored password by exact equality. On success it returns
// a one-element list with the public profile.
func (s *UserService) Lookup(ctx context.Context, username, password string) ([]model.PublicUser, error) {
	user, err := s.store.FindUserByUsername(ctx, username)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NotFound(fmt.Sprintf(msgUnknownUsername, username))
	}
	if err != nil {
		s.logger.Error("looking up user", "username", username, "error", err)
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(password)) != 1 {
		return nil, apperror.Forbidden(msgWrongPassword)
	}

	return []model.PublicUser{user.Public()}, nil
}

// Create validates body and inserts a new account, returning its id.
//
// The username check and the insert share a transaction, and the UNIQUE
// constraint on users.username catches anything that slips between them.
// Both paths produce the same duplicate-username message.
func (s *UserService) Create(ctx context.Context, body validate.Body) (int64, error) {
	if err := checkBody(ctx, body, userFields, msgUserMissing, validate.UserCreate); err != nil {
		return 0, err
	}

	user := &model.User{
		Username: *stringField(body.Fields, "username"),
		Password: *stringField(body.Fields, "password"),
		City:     *stringField(body.Fields, "city"),
		State:    *stringField(body.Fields, "state"),
	}
	taken := apperror.Conflict("username", fmt.Sprintf(msgUsernameTaken, user.Username))

	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		_, err := q.FindUserByUsername(ctx, user.Username)
		switch {
		case err == nil:
			return taken
		case !errors.Is(err, apperror.ErrNotFound):
			return err
		}
		return q.CreateUser(ctx, user)
	})
	if errors.Is(err, apperror.ErrConflict) {
		return 0, taken
	}
	if err != nil {
		s.logger.Error("creating user", "username", user.Username, "error", err)
		return 0, err
	}

	s.logger.Info("user created", "id", user.ID, "username", user.Username)
	return user.ID, nil
}

// Update applies a partial update to the user and returns the updated rows.
// A missing user is reported before anything about the body.
func (s *UserService) Update(ctx context.Context, id int64, body validate.Body) ([]model.User, error) {
	var users []model.User
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		if err := integrity.New(q).RequireUser(ctx, id); err != nil {
			return err
		}

		if err := validate.UserPatch.Check(ctx, body.Raw); err != nil {
			return err
		}
		patch, err := patchFrom(body.Fields)
		if err != nil {
			return err
		}
		rows, err := q.UpdateUser(ctx, id, patch)
		if err != nil {
			return err
		}
		// Deleted by a concurrent request after the existence check.
		if len(rows) == 0 {
			return apperror.NotFound(fmt.Sprintf(msgUserNotFound, id))
		}
		users = rows
		return nil
	})
	if errors.Is(err, apperror.ErrConflict) {
		return nil, apperror.Conflict("username", fmt.Sprintf(msgUsernameTaken, body.Fields["username"]))
	}
	if err != nil {
		if !expected(err) {
			s.logger.Error("updating user", "id", id, "error", err)
		}
		return nil, err
	}

	s.logger.Info("user updated", "id", id)
	return users, nil
}

// Delete removes the user; their sightings are removed by the cascade.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		if err := integrity.New(q).RequireUser(ctx, id); err != nil {
			return err
		}
		return q.DeleteUser(ctx, id)
	})
	if err != nil {
		if !expected(err) {
			s.logger.Error("deleting user", "id", id, "error", err)
		}
		return err
	}

	s.logger.Info("user deleted", "id", id)
	return nil
}
