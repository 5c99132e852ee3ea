package dialogue

import (
	"errors"
	"fmt"
)

// ErrValidation matches every *ValidationError through errors.Is
var ErrValidation = errors.New("validation error")

// ValidationError reports a structural problem with one input item: a malformed
// annotation, an unknown speaker, a duplicate id or a non-positive duration.
// It is always fatal to the current build or render.
type ValidationError struct {
	Item   string
	Reason string
}

// NewValidationError creates a ValidationError for item
func NewValidationError(item, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Item:   item,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Item, e.Reason)
}

// Is reports whether target is ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
