package condition

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when a trial collection has zero records.
var ErrEmptyInput = errors.New("condition: trial collection is empty")

// SchemaError reports a required field that is absent or invalid in the
// input records. Row is the zero-based record position, or -1 when the
// problem is table-wide (e.g. a missing column).
type SchemaError struct {
	Row    int
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("condition: schema error: field %q %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("condition: schema error at row %d: field %q %s", e.Row, e.Field, e.Reason)
}

// IsSchemaError reports whether err is (or wraps) a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
