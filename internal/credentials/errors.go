package credentials

import (
	"github.com/bouncerd/bouncer/internal/utils"
)

// errorFlag is a private error type that allows declaring error constants.
type errorFlag string

const (
	// All package errors are wrapping Error
	Error            = errorFlag("credentials: error")
	ErrEmptyPassword = errorFlag("credentials: empty password")
	ErrShortFile     = errorFlag("credentials: short credential file")
	ErrShortEntropy  = errorFlag("credentials: short read from entropy source")
	noError          = errorFlag("")
)

// Error implements the error interface.
func (self errorFlag) Error() string {
	return string(self)
}

func (self errorFlag) Unwrap() error {
	if Error == self || noError == self {
		return nil
	}
	return Error
}

// newError returns a utils.RaisedErr{} that contains file & line of where it was called.
func newError(msg string, args ...any) error {
	return utils.NewError(1, Error, msg, args...)
}

// flagError returns a utils.RaisedErr{} flagged with flag.
func flagError(flag errorFlag, msg string, args ...any) error {
	return utils.NewError(1, flag, msg, args...)
}

// wrapError returns a utils.RaisedErr{} that contains file & line of where it was called.
func wrapError(cause error, msg string, args ...any) error {
	return utils.WrapError(cause, 1, Error, msg, args...)
}

// wrapFlagError returns a utils.RaisedErr{} flagged with flag that wraps cause.
func wrapFlagError(cause error, flag errorFlag, msg string, args ...any) error {
	return utils.WrapError(cause, 1, flag, msg, args...)
}
