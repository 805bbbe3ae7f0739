// Package validate checks request payloads before anything touches the store.
//
// Two independent checks run, always in this order:
//
//  1. Required: walk a resource's required-field list IN ORDER and report the
//     first field that fails its presence test. Only that one field name is
//     ever reported, so the order of the list is part of the API.
//  2. Shape: a JSON schema describing the types and allowed columns of the
//     body (see shape.go).
//
// Running presence first means a missing field always produces the
// "You are missing ..." message, never a schema complaint about it.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/sakif/bird-tracker/internal/apperror"
)

// MaxBodyBytes caps how much of a request body Decode will read.
const MaxBodyBytes = 1 << 20

// Test selects how a required field counts as "present".
type Test int

const (
	// Truthy: the key exists and its value is not null, false, 0 or "".
	Truthy Test = iota
	// Defined: the key exists. false, 0, "" and even null all count.
	Defined
)

func (t Test) String() string {
	switch t {
	case Truthy:
		return "truthy"
	case Defined:
		return "defined"
	default:
		return fmt.Sprintf("Test(%d)", int(t))
	}
}

// Field is one entry of a required-field contract.
type Field struct {
	Name string
	Test Test
}

// Result is the outcome of Required: either OK (Missing == "") with the
// payload passed through, or the name of the first missing field.
type Result struct {
	Payload map[string]any
	Missing string
}

// OK reports whether every required field was present.
func (r Result) OK() bool { return r.Missing == "" }

// Required evaluates fields in order against payload and stops at the first
// one that fails its presence test. It has no side effects.
func Required(payload map[string]any, fields []Field) Result {
	for _, f := range fields {
		v, ok := payload[f.Name]
		if !present(v, ok, f.Test) {
			return Result{Missing: f.Name}
		}
	}
	return Result{Payload: payload}
}

func present(v any, ok bool, test Test) bool {
	if !ok {
		return false
	}
	if test == Defined {
		return true
	}
	return truthy(v)
}

// truthy mirrors JSON-level truthiness: null, false, 0 and "" are falsy.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := strconv.ParseFloat(x.String(), 64)
		return err != nil || f != 0
	case float64:
		return x != 0
	default:
		// objects and arrays are always truthy
		return true
	}
}

// Body is a decoded JSON request body. Raw is kept for schema validation;
// Fields is used for presence checks and patch columns.
type Body struct {
	Raw    []byte
	Fields map[string]any
}

// Has reports whether the body contains the key at all.
func (b Body) Has(name string) bool {
	_, ok := b.Fields[name]
	return ok
}

// Decode reads a JSON object from r. Numbers are kept as json.Number so
// integer ids survive without float rounding.
func Decode(r io.Reader) (Body, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxBodyBytes))
	if err != nil {
		return Body{}, fmt.Errorf("reading request body: %w", err)
	}

	// An empty body behaves like {} so the required-field check can name
	// the first missing field.
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return Body{}, apperror.ValidationFailed("", "invalid format - request body must be a JSON object")
	}

	return Body{Raw: raw, Fields: fields}, nil
}
