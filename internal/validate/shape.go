package validate

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/qri-io/jsonschema"

	"github.com/sakif/bird-tracker/internal/apperror"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Shape is a compiled JSON schema for one kind of request body.
type Shape struct {
	name   string
	schema *jsonschema.Schema
}

// Request body shapes. Create shapes only constrain types (presence is the
// job of Required); patch shapes also pin the set of writable columns.
var (
	UserCreate     = mustLoad("user_create")
	UserPatch      = mustLoad("user_patch")
	CategoryCreate = mustLoad("category_create")
	SightingCreate = mustLoad("sighting_create")
	SightingPatch  = mustLoad("sighting_patch")
)

// Compile parses a JSON schema document.
func Compile(name string, doc []byte) (*Shape, error) {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(doc, rs); err != nil {
		return nil, fmt.Errorf("validate: compiling schema %s: %w", name, err)
	}
	return &Shape{name: name, schema: rs}, nil
}

func mustLoad(name string) *Shape {
	doc, err := schemaFS.ReadFile(path.Join("schemas", name+".json"))
	if err != nil {
		panic(fmt.Sprintf("validate: reading schema %s: %v", name, err))
	}
	s, err := Compile(name, doc)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema's name.
func (s *Shape) Name() string { return s.name }

// Check validates raw against the schema. It returns nil or a
// ValidationFailed naming the first offending property.
func (s *Shape) Check(ctx context.Context, raw []byte) error {
	keyErrs, err := s.schema.ValidateBytes(ctx, raw)
	if err != nil {
		return apperror.ValidationFailed("", "invalid format - request body must be a JSON object")
	}
	if len(keyErrs) == 0 {
		return nil
	}

	// Keyword evaluation order is not stable; sort so the same body always
	// reports the same complaint.
	sort.Slice(keyErrs, func(i, j int) bool {
		if keyErrs[i].PropertyPath != keyErrs[j].PropertyPath {
			return keyErrs[i].PropertyPath < keyErrs[j].PropertyPath
		}
		return keyErrs[i].Message < keyErrs[j].Message
	})

	first := keyErrs[0]
	if field, msg, ok := rewrite(first.Message); ok {
		return apperror.ValidationFailed(field, "invalid format - "+msg)
	}
	field := strings.TrimPrefix(first.PropertyPath, "/")
	if field == "" {
		return apperror.ValidationFailed("", "invalid format - "+first.Message)
	}
	return apperror.ValidationFailed(field, fmt.Sprintf("invalid format - %s: %s", field, first.Message))
}

var (
	requiredMsg      = regexp.MustCompile(`^"([^"]+)" value is required$`)
	minPropertiesMsg = regexp.MustCompile(`^\d+ object Properties below \d+ minimum$`)
)

// rewrite turns the object-level keyword messages, which name no property
// path, into client-facing text.
func rewrite(msg string) (field, text string, ok bool) {
	if m := requiredMsg.FindStringSubmatch(msg); m != nil {
		return m[1], m[1] + " is required", true
	}
	if minPropertiesMsg.MatchString(msg) {
		return "", "request body must contain at least one field", true
	}
	return "", "", false
}
