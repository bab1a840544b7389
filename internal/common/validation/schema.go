// Package validation checks request payloads against JSON schemas before
// they are sent, so invalid input never costs a network call.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"nova-client/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSON schema.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile parses schemaJSON once for repeated use.
func Compile(name, schemaJSON string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid %s schema: %w", name, err)
	}
	return &Schema{name: name, schema: s}, nil
}

// MustCompile is Compile for schemas built into the binary.
func MustCompile(name, schemaJSON string) *Schema {
	s, err := Compile(name, schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks doc, any value that marshals to JSON.
func (s *Schema) Validate(doc interface{}) *ValidationResult {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "UNREADABLE_INPUT",
		}}}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if prop, ok := desc.Details()["property"].(string); ok && desc.Type() == "required" {
			field = prop
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    errorCode(desc.Type()),
		})
	}
	return out
}

// Check is Validate folded into a VALIDATION_FAILED error, or nil.
func (s *Schema) Check(doc interface{}) error {
	res := s.Validate(doc)
	if res.Valid {
		return nil
	}
	return errors.NewValidationError(fmt.Sprintf("%s: %s", s.name, strings.Join(res.GetErrorMessages(), "; ")))
}

func errorCode(kind string) string {
	switch kind {
	case "required":
		return "REQUIRED_FIELD_MISSING"
	case "invalid_type":
		return "INVALID_TYPE"
	case "number_gte", "number_gt":
		return "MINIMUM_VIOLATION"
	case "number_lte", "number_lt":
		return "MAXIMUM_VIOLATION"
	case "string_gte":
		return "MIN_LENGTH_VIOLATION"
	case "string_lte":
		return "MAX_LENGTH_VIOLATION"
	case "enum", "const":
		return "INVALID_ENUM_VALUE"
	case "pattern", "format":
		return "PATTERN_MISMATCH"
	case "additional_property_not_allowed":
		return "EXTRA_FIELD"
	}
	return strings.ToUpper(kind)
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}
