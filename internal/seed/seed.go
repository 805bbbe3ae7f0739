// Package seed loads fixture data into the store.
//
// Fixtures are YAML. Each user lists the categories and sightings that
// belong to them; a sighting names its category by name and the loader
// resolves that to the id the category got on insert.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/sakif/bird-tracker/internal/model"
	"github.com/sakif/bird-tracker/internal/repository"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

type Fixtures struct {
	Users []User `yaml:"users"`
}

type User struct {
	Username   string     `yaml:"username"`
	Password   string     `yaml:"password"`
	City       string     `yaml:"city"`
	State      string     `yaml:"state"`
	Categories []Category `yaml:"categories"`
	Sightings  []Sighting `yaml:"sightings"`
}

type Category struct {
	Name string `yaml:"name"`
}

type Sighting struct {
	BirdSpecies *string `yaml:"bird_species"`
	Date        *string `yaml:"date"`
	City        *string `yaml:"city"`
	State       *string `yaml:"state"`
	Notes       *string `yaml:"notes"`
	Photo       *string `yaml:"photo"`
	Wishlist    *bool   `yaml:"wishlist"`
	Favorite    *bool   `yaml:"favorite"`
	Category    string  `yaml:"category"` // name of one of the user's categories, or empty
}

// Summary counts what Apply wrote.
type Summary struct {
	Users      int
	Categories int
	Sightings  int
}

// Default returns the embedded development fixtures.
func Default() (*Fixtures, error) {
	return Parse(bytes.NewReader(defaultFixtures))
}

// Parse decodes fixtures and checks that every sighting's category is one
// its user declares. Unknown YAML keys are rejected.
func Parse(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fx Fixtures
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("seed: decoding fixtures: %w", err)
	}

	for _, u := range fx.Users {
		if u.Username == "" {
			return nil, fmt.Errorf("seed: user without a username")
		}
		names := make(map[string]bool, len(u.Categories))
		for _, c := range u.Categories {
			names[c.Name] = true
		}
		for i, s := range u.Sightings {
			if s.Category != "" && !names[s.Category] {
				return nil, fmt.Errorf("seed: user %s sighting %d: unknown category %q", u.Username, i, s.Category)
			}
		}
	}
	return &fx, nil
}

// Apply replaces the contents of the store with fx in one transaction.
// Tables are cleared children first.
func Apply(ctx context.Context, store repository.Store, fx *Fixtures, logger *slog.Logger) (Summary, error) {
	var sum Summary

	err := store.WithTx(ctx, func(q repository.Queries) error {
		for _, t := range []repository.Table{repository.Sightings, repository.Categories, repository.Users} {
			n, err := q.DeleteAll(ctx, t)
			if err != nil {
				return err
			}
			logger.Debug("seed: cleared table", "table", t, "rows", n)
		}

		for _, u := range fx.Users {
			user := &model.User{Username: u.Username, Password: u.Password, City: u.City, State: u.State}
			if err := q.CreateUser(ctx, user); err != nil {
				return err
			}
			sum.Users++

			categoryIDs := make(map[string]int64, len(u.Categories))
			for _, c := range u.Categories {
				cat := &model.Category{Name: c.Name, UserID: &user.ID}
				if err := q.CreateCategory(ctx, cat); err != nil {
					return err
				}
				categoryIDs[c.Name] = cat.ID
				sum.Categories++
			}

			for _, s := range u.Sightings {
				sighting := &model.Sighting{
					BirdSpecies: s.BirdSpecies,
					Date:        s.Date,
					City:        s.City,
					State:       s.State,
					Notes:       s.Notes,
					Photo:       s.Photo,
					Wishlist:    s.Wishlist,
					Favorite:    s.Favorite,
					UserID:      &user.ID,
				}
				if id, ok := categoryIDs[s.Category]; ok {
					sighting.CategoryID = &id
				}
				if err := q.CreateSighting(ctx, sighting); err != nil {
					return err
				}
				sum.Sightings++
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("seed: applying fixtures: %w", err)
	}

	logger.Info("seed applied", "users", sum.Users, "categories", sum.Categories, "sightings", sum.Sightings)
	return sum, nil
}
