package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// RootField is the field name gojsonschema reports for document-level errors.
const RootField = "(root)"

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSON schema that can be reused across documents.
type Schema struct {
	schema *gojsonschema.Schema
}

// NewSchema compiles a schema given as a Go map.
func NewSchema(definition map[string]interface{}) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(definition))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// MustSchema is NewSchema for package-level schemas known to be valid.
func MustSchema(definition map[string]interface{}) *Schema {
	s, err := NewSchema(definition)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks document (any JSON-marshalable Go value) against the schema.
func (s *Schema) Validate(document interface{}) (*ValidationResult, error) {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}
	return toResult(result), nil
}

// ValidateInput validates input against a schema definition in one step.
func ValidateInput(input map[string]interface{}, definition map[string]interface{}) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(definition),
		gojsonschema.NewGoLoader(input),
	)
	if err != nil {
		return nil, fmt.Errorf("validate input: %w", err)
	}
	return toResult(result), nil
}

func toResult(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldName(desc),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out
}

// fieldName reports the top-level property an error belongs to. Errors on
// nested values are attributed to their top-level parent.
func fieldName(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if field == "" || field == RootField {
		if prop, ok := desc.Details()["property"].(string); ok && prop != "" {
			return prop
		}
		return RootField
	}
	if i := strings.Index(field, "."); i > 0 {
		return field[:i]
	}
	return field
}

// InvalidFields returns the sorted set of top-level fields that failed.
func (r *ValidationResult) InvalidFields() []string {
	seen := make(map[string]bool)
	for _, e := range r.Errors {
		if e.Field != RootField {
			seen[e.Field] = true
		}
	}
	fields := make([]string, 0, len(seen))
	for f := range seen {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// HasRootErrors reports errors that concern the document as a whole.
func (r *ValidationResult) HasRootErrors() bool {
	for _, e := range r.Errors {
		if e.Field == RootField {
			return true
		}
	}
	return false
}

// Error joins the messages into a single string.
func (r *ValidationResult) Error() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	return strings.Join(msgs, "; ")
}
