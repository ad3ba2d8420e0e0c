package vehicle

import (
	"errors"
	"fmt"
)

// Lookup errors returned by the taxonomy resolvers.
var (
	ErrUnknownCategory           = errors.New("unknown vehicle category")
	ErrUnknownSubtypeForCategory = errors.New("unknown vehicle subtype for category")
)

// LookupError carries the values a taxonomy lookup failed on.
type LookupError struct {
	Category Category
	Subtype  Subtype
	Err      error
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	if e.Subtype == "" {
		return fmt.Sprintf("%v: %q", e.Err, e.Category)
	}
	return fmt.Sprintf("%v: %q/%q", e.Err, e.Category, e.Subtype)
}

// Unwrap returns the sentinel error.
func (e *LookupError) Unwrap() error {
	return e.Err
}
