package options

import (
	"errors"
	"fmt"
	"strings"
)

// TypeMismatchError reports a value whose kind is outside the option's
// accepted set. Invalid holds the offending values (the elements for
// collection options).
type TypeMismatchError struct {
	Option  Option
	Owner   string
	Value   any
	Invalid []any
}

func (e *TypeMismatchError) Error() string {
	kinds := make([]string, len(e.Option.Types))
	for i, k := range e.Option.Types {
		kinds[i] = k.String()
	}
	msg := fmt.Sprintf("option %s.%s: invalid value(s) %v, accepted kinds: %s",
		e.Option.Group, e.Option.Name, e.Invalid, strings.Join(kinds, ", "))
	if e.Owner != "" {
		msg += fmt.Sprintf(" (test case %s)", e.Owner)
	}
	return msg
}

// IsTypeMismatch checks if the error is or wraps a TypeMismatchError.
func IsTypeMismatch(err error) bool {
	var typeErr *TypeMismatchError
	return err != nil && errors.As(err, &typeErr)
}

// InvalidArgumentError reports arguments an option group cannot accept:
// values outside a choice whitelist, unknown keyword arguments, or
// positional arguments on a group that takes none.
type InvalidArgumentError struct {
	Group   string
	Option  string
	Owner   string
	Values  []any
	Allowed []any
	Unknown []string
	Message string
}

func (e *InvalidArgumentError) Error() string {
	var msg string
	switch {
	case e.Message != "":
		msg = fmt.Sprintf("group %s: %s", e.Group, e.Message)
	case len(e.Unknown) > 0:
		msg = fmt.Sprintf("group %s: unknown keyword argument(s): %s",
			e.Group, strings.Join(e.Unknown, ", "))
	default:
		msg = fmt.Sprintf("option %s.%s: value(s) %v not in allowed choices %v",
			e.Group, e.Option, e.Values, e.Allowed)
	}
	if e.Owner != "" {
		msg += fmt.Sprintf(" (test case %s)", e.Owner)
	}
	return msg
}

// IsInvalidArgument checks if the error is or wraps an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var argErr *InvalidArgumentError
	return err != nil && errors.As(err, &argErr)
}
