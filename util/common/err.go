package common

import (
	"errors"
	"fmt"

	"github.com/filedock/filedock/logger"
)

// NewErrorf formats an error; %w wraps as with fmt.Errorf.
func NewErrorf(format string, a ...any) error {
	return fmt.Errorf(format, a...)
}

// Recover must be called directly by a deferred function.
func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil {
		if msg != "" {
			logger.Error(msg, "panic:", panicErr)
		}
	}
	return panicErr
}

// Combine joins the non-nil errors, returning nil when there are none.
func Combine(errs ...error) error {
	return errors.Join(errs...)
}
