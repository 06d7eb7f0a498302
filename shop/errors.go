/*
errors.go - Centralized error types for the shop engine

PURPOSE:
  All error types in one place for consistency and discoverability.

ERROR CHANNELS (two, used consistently engine-wide):
  1. Input-contract violations (malformed barcode/card, out-of-range
     discount rate, non-positive quantity or id) are typed errors below,
     checked BEFORE any state mutation.
  2. Business-rule failures (insufficient funds/stock, wrong status,
     missing entity) are boolean "not done" results, never errors.
     No state changes in that case either.

Nothing here is fatal: every failure is local and recoverable by the
caller retrying with different input. A cached balance disagreeing with
Recompute() is a logic defect, not a runtime error; tests assert the
equivalence after every operation.

USAGE:
  if errors.Is(err, shop.ErrInvalidBarcode) { ... }

  var stockErr *shop.InsufficientStockError
  if errors.As(err, &stockErr) { ... stockErr.Available ... }
*/
package shop

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidID is returned for a non-positive transaction or product id.
	ErrInvalidID = errors.New("invalid id")

	// ErrInvalidBarcode is returned when a barcode is empty, non-numeric,
	// of the wrong length, or fails the GTIN checksum.
	ErrInvalidBarcode = errors.New("invalid barcode")

	// ErrInvalidCard is returned when a card number fails the Luhn check.
	ErrInvalidCard = errors.New("invalid credit card number")

	// ErrInvalidQuantity is returned for a negative or zero quantity where
	// a positive one is required.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInvalidPrice is returned for a non-positive unit price.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInvalidDiscountRate is returned for a rate outside [0, 1).
	ErrInvalidDiscountRate = errors.New("invalid discount rate")

	// ErrInvalidLocation is returned for a malformed shelf position.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrNoLocation is returned when stock arrives for a product that has
	// no assigned shelf position.
	ErrNoLocation = errors.New("product has no assigned location")

	// ErrDuplicateBarcode is returned when creating or updating a product
	// would violate barcode uniqueness.
	ErrDuplicateBarcode = errors.New("duplicate barcode")

	// ErrDuplicateTag is returned when admitting an RFID tag that already
	// exists anywhere in the catalog. The dummy tag is exempt.
	ErrDuplicateTag = errors.New("duplicate rfid tag")

	// ErrDuplicateEntry is returned when posting an entry whose id is
	// already present in the account book.
	ErrDuplicateEntry = errors.New("duplicate ledger entry id")

	// ErrDuplicateIdempotencyKey is returned by stores when appending an
	// entry whose idempotency key was already written.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrInsufficientStock wraps InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInsufficientFunds wraps InsufficientFundsError.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError details a failed quantity reservation.
type InsufficientStockError struct {
	Barcode   string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.Barcode, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InsufficientFundsError details a failed affordability check.
type InsufficientFundsError struct {
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, requested %s",
		e.Balance, e.Requested)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }
