package covmap

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is the JSON Schema (draft-07) of the coverage map format.
//
//go:embed schema.json
var Schema []byte

// FieldError is a single schema violation.
type FieldError struct {
	Field       string
	Description string
}

// SchemaError lists every schema violation found in a document.
// It matches ErrParse under errors.Is.
type SchemaError struct {
	Errors []FieldError
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Errors))

	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Description)
	}

	return fmt.Sprintf("%s: %d schema violation(s): %s", ErrParse, len(e.Errors), strings.Join(parts, "; "))
}

// Unwrap ties schema failures to ErrParse.
func (e *SchemaError) Unwrap() error {
	return ErrParse
}

// Validate checks data against [Schema].
// Malformed JSON yields an error wrapping ErrParse; schema violations yield *SchemaError.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(Schema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}

	if result.Valid() {
		return nil
	}

	schemaErr := &SchemaError{}

	for _, re := range result.Errors() {
		schemaErr.Errors = append(schemaErr.Errors, FieldError{
			Field:       re.Field(),
			Description: re.Description(),
		})
	}

	return schemaErr
}

// ParseStrict validates data against the schema before parsing it.
func ParseStrict(data []byte) ([]*Map, error) {
	err := Validate(data)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}
