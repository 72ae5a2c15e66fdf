// Package chunkerr defines the error taxonomy surfaced by the chunking engine.
// None of these are retryable: the same input always fails the same way.
package chunkerr

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError reports an invalid parameter, such as an unknown code behavior
// or unit and metadata sequences of different lengths.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Message
}

// Configf builds a ConfigError from a format string.
func Configf(format string, args ...any) error {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// InputTypeError reports a strategy invoked with an input type it cannot handle.
type InputTypeError struct {
	Strategy  string
	InputType string
	Allowed   []string
}

func (e *InputTypeError) Error() string {
	quoted := make([]string, len(e.Allowed))
	for i, a := range e.Allowed {
		quoted[i] = "'" + a + "'"
	}
	var want string
	switch len(quoted) {
	case 0:
		want = "Please use a different strategy."
	case 1:
		want = "Please use " + quoted[0] + "."
	default:
		want = "Please use one of " + strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1] + "."
	}
	return fmt.Sprintf("input_type '%s' not supported with chunking strategy '%s'. %s", e.InputType, e.Strategy, want)
}

// InputError reports empty or unparseable input where output is required.
type InputError struct {
	Message string
	Err     error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return "input error: " + e.Message + ": " + e.Err.Error()
	}
	return "input error: " + e.Message
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Inputf builds an InputError from a format string.
func Inputf(format string, args ...any) error {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// IsClientError reports whether err belongs to the taxonomy above, i.e. the
// caller sent something the engine refuses rather than the engine failing.
func IsClientError(err error) bool {
	var cfgErr *ConfigError
	var typeErr *InputTypeError
	var inErr *InputError
	return errors.As(err, &cfgErr) || errors.As(err, &typeErr) || errors.As(err, &inErr)
}
