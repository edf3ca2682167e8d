package search

import "fmt"

// NotFoundError is returned when no adapter is registered for a
// document type.
type NotFoundError struct {
	DocType string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("no search adapter registered for doc type %q", e.DocType)
}

// InvalidFilterError signals a filter value that violates the facet's
// value contract, e.g. a range filter with non-numeric bounds. It is a
// caller contract violation and fails the query build.
type InvalidFilterError struct {
	Facet string
	Value string
	Err   error
}

func (e InvalidFilterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid value %q for facet %q: %s", e.Value, e.Facet, e.Err)
	}
	return fmt.Sprintf("invalid value %q for facet %q", e.Value, e.Facet)
}

func (e InvalidFilterError) Unwrap() error {
	return e.Err
}
