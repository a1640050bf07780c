package hookutil

import (
	"errors"
	"fmt"
)

// ErrMethodNotAllowed marks calls rejected by Disallow.
var ErrMethodNotAllowed = errors.New("method not allowed")

// ErrMissingField marks records rejected by Require.
var ErrMissingField = errors.New("missing required field")

// DeniedError is returned when a webhook denies a call.
type DeniedError struct {
	Name   string
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("denied by webhook %s: %s", e.Name, e.Reason)
}

// IsDenied reports whether err is a webhook denial.
func IsDenied(err error) bool {
	var derr *DeniedError
	return errors.As(err, &derr)
}
