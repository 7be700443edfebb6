package records

import "errors"

// ErrNotFound is matched by every *NotFoundError
var ErrNotFound = errors.New("patient record not found")

// NotFoundError is returned when a lookup, update or delete targets a missing id.
// Msg describes the failed operation and the id.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string {
	return e.Msg
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a NotFoundError with the given message
func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{Msg: msg}
}
