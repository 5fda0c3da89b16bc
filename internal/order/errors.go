package order

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both a missing order and an ownership mismatch:
	// non-owners must not learn whether an order exists.
	ErrNotFound = errors.New("order not found")

	ErrAlreadyCancelled = errors.New("order is already cancelled")
	ErrCannotCancel     = errors.New("cannot cancel shipped or delivered order")

	ErrProductNotFound = errors.New("product not found")
)

// ValidationError reports malformed input. No side effects have happened.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// UnavailableError reports the first line item that failed the availability
// check. The whole create is aborted; nothing was persisted.
type UnavailableError struct {
	ProductID         string
	AvailableStock    int
	RequestedQuantity int
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("product %s is not available in requested quantity (stock=%d, requested=%d)",
		e.ProductID, e.AvailableStock, e.RequestedQuantity)
}

// DependencyError wraps a product-service call that failed for a reason other
// than unavailability.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *DependencyError) Unwrap() error { return e.Err }

// PersistenceError wraps a repository failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }
