// internal/driver/fidelity/errors.go
package fidelity

import (
	"errors"
	"fmt"
)

// Sentinel errors for failures that reach the caller.
var (
	ErrNotImplemented = errors.New("not implemented")
	ErrDecode         = errors.New("response is not valid UTF-8 text")
)

// Scan bookkeeping; these never leave the package except inside logged aggregates.
var (
	errOpenFailed  = errors.New("port could not be opened")
	errNotVerified = errors.New("no identity and dispersion response")
)

// CommandError represents a failed command exchange.
type CommandError struct {
	Command string // command line without terminator
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is a response decoding failure.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrDecode)
}

// IsNotImplemented reports whether err comes from a reserved operation.
func IsNotImplemented(err error) bool {
	return errors.Is(err, ErrNotImplemented)
}
