package encoder

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedValue is returned in strict mode for a categorical value
	// outside the field's mapping.
	ErrUnrecognizedValue = errors.New("unrecognized value")
	// ErrMissingField is returned when a required column is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidValue is returned for values outside a field's declared domain.
	ErrInvalidValue = errors.New("invalid value")
	// ErrSchemaMismatch is returned when encoded features differ from the
	// feature list a model was trained on.
	ErrSchemaMismatch = errors.New("feature schema mismatch")
	// ErrUnknownTask is returned for a task other than classification or regression.
	ErrUnknownTask = errors.New("unknown task")
)

// FieldError ties an encoding failure to a field and row. Row is -1 when the
// failure concerns the whole batch.
type FieldError struct {
	Field string
	Row   int
	Value any
	Err   error
}

func (e *FieldError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("row %d field %q value %v: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
