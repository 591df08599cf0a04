package sale

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for missing aggregates and concurrent writers.
var (
	// ErrNotFound is returned when a sale id resolves to nothing.
	ErrNotFound = errors.New("sale not found")
	// ErrItemNotFound is returned when an item id resolves to nothing
	// within its sale.
	ErrItemNotFound = errors.New("sale item not found")
	// ErrVersionConflict is returned when a replace loses a race against a
	// concurrent writer of the same sale.
	ErrVersionConflict = errors.New("sale was modified concurrently")
)

// InvalidArgumentError indicates malformed or out-of-range input. The caller
// can recover by correcting the input; it is never retried.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return e.Reason
}

// InvalidStateError indicates an operation disallowed by the current
// lifecycle, e.g. mutating a cancelled sale. It is terminal for the request.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return e.Reason
}

// QuantityExceededError indicates the per-product quantity cap was violated.
// It is a business rule, surfaced distinctly from generic bad input.
type QuantityExceededError struct {
	ProductName string
	Quantity    int
}

func (e *QuantityExceededError) Error() string {
	return fmt.Sprintf("cannot sell more than %d identical items (product %q, requested %d)",
		MaxItemQuantity, e.ProductName, e.Quantity)
}
