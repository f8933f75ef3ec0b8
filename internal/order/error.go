package order

import (
	"errors"
	"fmt"
)

var ErrOrderNotFound = errors.New("order not found")

// ErrNotCancellable means the cancellation write matched no rows: the order
// already left pending, most likely a payment confirmation racing the
// compensation.
var ErrNotCancellable = errors.New("order is not cancellable")

// RateLimitError fires before any price or stock work when a known buyer
// has placed too many orders in the trailing window.
type RateLimitError struct {
	Count int
	Max   int
}

func (e *RateLimitError) Error() string {
	return "Too many orders placed recently. Please try again in a few minutes."
}

// PriceVerificationError wraps a failure to re-derive trust from the cart:
// an unknown product or a coupon rejected at checkout.
type PriceVerificationError struct {
	Reason error
}

func (e *PriceVerificationError) Error() string {
	return e.Reason.Error()
}

func (e *PriceVerificationError) Unwrap() error {
	return e.Reason
}

// PriceMismatchError means the client-declared total disagrees with the
// server-computed one beyond tolerance. Both values are logged server-side
// for fraud triage before this surfaces.
type PriceMismatchError struct {
	Expected float64
	Declared float64
}

func (e *PriceMismatchError) Error() string {
	return "Security check failed: order total does not match the expected amount."
}

// PersistenceError covers failed inserts/updates in the order tables.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
