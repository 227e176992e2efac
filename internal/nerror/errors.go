// Package nerror defines the error kinds shared by training and tagging.
package nerror

import (
	"errors"
	"fmt"
)

// ErrNumericOverflow is returned when a score or gradient stops being a
// finite number. Training must abort when it shows up.
var ErrNumericOverflow = errors.New("numeric overflow")

// ConfigError reports an invalid configuration: unknown task, bad option
// values or metadata that does not match the loaded parameters.
type ConfigError struct {
	Msg string
}

func (err ConfigError) Error() string {
	return err.Msg
}

// NewConfigError creates a ConfigError with a formatted message.
func NewConfigError(format string, args ...any) ConfigError {
	return ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// ----------------------------

// MissingResourceError reports a dictionary, affix list, gazetteer or
// parameter file that could not be found or read.
type MissingResourceError struct {
	Resource string
	Path     string
	Err      error
}

func (err MissingResourceError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("missing %s (%s): %v", err.Resource, err.Path, err.Err)
	}
	return fmt.Sprintf("missing %s (%s)", err.Resource, err.Path)
}

func (err MissingResourceError) Unwrap() error {
	return err.Err
}

// Overflow wraps ErrNumericOverflow with information about where it happened.
func Overflow(where string) error {
	return fmt.Errorf("%s: %w", where, ErrNumericOverflow)
}
