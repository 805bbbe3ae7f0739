// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses paths and bodies, writes responses
//	Service (Business layer) → validates payloads, guards mutations, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// Every service takes a repository.Store (interface), not a *sqlstore.Store.
// Tests pass the in-memory mock from mock_test.go instead.
//
// CHECK-THEN-ACT:
// Operations that look something up before mutating (username uniqueness,
// "does this sighting exist", "does this category exist") run the lookup and
// the mutation inside one Store.WithTx call. The integrity.Checker is built
// on the transaction's Queries so the guard and the write commit together.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/sakif/bird-tracker/internal/apperror"
	"github.com/sakif/bird-tracker/internal/repository"
	"github.com/sakif/bird-tracker/internal/validate"
)

// checkBody runs the two validation stages in order: presence first, so a
// missing field is always reported with the resource's own message, then
// the JSON schema.
func checkBody(ctx context.Context, body validate.Body, fields []validate.Field, missingMsg string, shape *validate.Shape) error {
	if res := validate.Required(body.Fields, fields); !res.OK() {
		return apperror.ValidationFailed(res.Missing, fmt.Sprintf(missingMsg, res.Missing))
	}
	return shape.Check(ctx, body.Raw)
}

// expected reports errors that are outcomes for the client rather than
// failures worth an Error log line.
func expected(err error) bool {
	return errors.Is(err, apperror.ErrNotFound) ||
		errors.Is(err, apperror.ErrValidation) ||
		errors.Is(err, apperror.ErrConflict)
}

// patchFrom converts decoded JSON values to plain Go values the store can
// bind. Integers arrive as json.Number; the schema has already checked they
// are integral.
func patchFrom(fields map[string]any) (repository.Patch, error) {
	p := make(repository.Patch, len(fields))
	for k, v := range fields {
		if n, ok := v.(json.Number); ok {
			i, err := toInt64(k, n)
			if err != nil {
				return nil, err
			}
			p[k] = i
			continue
		}
		p[k] = v
	}
	return p, nil
}

func stringField(fields map[string]any, name string) *string {
	if s, ok := fields[name].(string); ok {
		return &s
	}
	return nil
}

func boolField(fields map[string]any, name string) *bool {
	if b, ok := fields[name].(bool); ok {
		return &b
	}
	return nil
}

func intField(fields map[string]any, name string) (*int64, error) {
	n, ok := fields[name].(json.Number)
	if !ok {
		return nil, nil
	}
	i, err := toInt64(name, n)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// toInt64 accepts integral numbers in any JSON spelling ("3", "3.0", "3e0")
// that fit in an int64.
func toInt64(field string, n json.Number) (int64, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, apperror.ValidationFailed(field, fmt.Sprintf("invalid format - %s: %s is not a valid integer", field, n))
	}
	return int64(f), nil
}
