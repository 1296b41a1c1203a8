package shortcut

import (
	"errors"
	"fmt"
)

// ErrEmptySequence is returned when a binding has no key tokens.
var ErrEmptySequence = errors.New("binding has an empty key sequence")

// InvalidBindingError reports a binding that could not be registered.
// The registry is unchanged when it is returned.
type InvalidBindingError struct {
	// ID is the binding id, possibly empty.
	ID string

	// Keys is the offending key spec.
	Keys string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *InvalidBindingError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("invalid binding %q (%s): %v", e.ID, e.Keys, e.Err)
	}
	return fmt.Sprintf("invalid binding (%s): %v", e.Keys, e.Err)
}

// Unwrap returns the underlying cause.
func (e *InvalidBindingError) Unwrap() error {
	return e.Err
}
