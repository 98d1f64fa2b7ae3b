package combinations

import (
	"errors"
	"fmt"
)

// FilterError reports a filter value that is not one of the two supported
// function shapes. It is raised before any expansion happens.
type FilterError struct {
	Index  int
	Filter any
}

func (e *FilterError) Error() string {
	return fmt.Sprintf(
		"filter %d has unsupported type %T, want func(Combination) bool or func(Combination, any) bool",
		e.Index, e.Filter)
}

// IsFilterError checks if the error is or wraps a FilterError.
func IsFilterError(err error) bool {
	var filterErr *FilterError
	return err != nil && errors.As(err, &filterErr)
}

// DuplicateIDError reports two distinct combinations deriving the same
// identifier. Ambiguous identifiers would collide downstream, so the whole
// generation fails.
type DuplicateIDError struct {
	ID     string
	First  Combination
	Second Combination
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate combination id %q derived for %v and %v",
		e.ID, e.First, e.Second)
}

// IsDuplicateIDError checks if the error is or wraps a DuplicateIDError.
func IsDuplicateIDError(err error) bool {
	var dupErr *DuplicateIDError
	return err != nil && errors.As(err, &dupErr)
}
