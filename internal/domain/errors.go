package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed or out-of-range input field. Field is
// the client-facing name (e.g. "price" or "specifications.torque").
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// AsValidation unwraps err into a *ValidationError.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
