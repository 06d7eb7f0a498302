/*
Package shop implements the transactional core of a retail-shop backend:
the product catalog with quantity reservation, the sale/return/order state
machines, and the append-only account book that aggregates their monetary
effect.

KEY CONCEPTS IN THIS FILE (types.go):
  - Status: shared lifecycle enum for sales, returns and orders
  - AffectsBalance: the single predicate deciding which statuses count
  - EntryKind: the five kinds of monetary event in the ledger
  - Config: engine policy knobs (loyalty points, restock timing, ...)

DESIGN PRINCIPLES:
  1. Precision: all money is decimal.Decimal, never float64
  2. One status enum: affects-balance-ness is computed in ONE place,
     not duplicated per transaction kind
  3. Sequential atomicity: every public operation validates everything
     before mutating anything (there is no transaction manager to lean on)

SEE ALSO:
  - book.go: the account book and its cached balance invariant
  - sale.go, ret.go, order.go: the three state machines
  - shop.go: the orchestrator tying the views together
*/
package shop

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// STATUS - Shared lifecycle enum
// =============================================================================

// Status is the lifecycle state of a transaction.
//
// Sales and returns walk OPEN -> CLOSED -> PAID.
// Orders walk ISSUED -> PAID -> COMPLETED (arrived).
// Manual credits/debits are born COMPLETED.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusClosed    Status = "CLOSED"
	StatusIssued    Status = "ISSUED"
	StatusPaid      Status = "PAID"
	StatusCompleted Status = "COMPLETED"
)

// AffectsBalance reports whether an entry in the given status counts
// toward the account-book balance. This is the ONE place the rule lives:
// exactly PAID and COMPLETED count, for every entry kind.
func AffectsBalance(s Status) bool {
	return s == StatusPaid || s == StatusCompleted
}

// =============================================================================
// ENTRY KINDS
// =============================================================================

// EntryKind tags a ledger entry with the kind of monetary event it records.
// The kind-specific state (line items, order payload, return lines) lives in
// the engine registries and is referenced from the entry by id; the ledger
// itself only needs the shared header. See entry.go.
type EntryKind string

const (
	KindCredit EntryKind = "credit"
	KindDebit  EntryKind = "debit"
	KindOrder  EntryKind = "order"
	KindSale   EntryKind = "sale"
	KindReturn EntryKind = "return"
)

// =============================================================================
// PAYMENT
// =============================================================================

// PaymentMethod selects how a sale or refund is settled.
type PaymentMethod string

const (
	PayCash PaymentMethod = "cash"
	PayCard PaymentMethod = "card"
)

// =============================================================================
// CONFIG - Engine policy knobs
// =============================================================================

// Config carries the policy decisions the reference behavior leaves open.
type Config struct {
	// RejectDiscountAfterPayment rejects ApplySaleDiscount on a PAID sale.
	// The reference behavior accepts it (the posted ledger amount is
	// snapshotted at payment time and never retro-edited either way).
	RejectDiscountAfterPayment bool

	// RestockOnCommit moves the physical restock of returned items to the
	// commit of the return instead of its refund payment.
	RestockOnCommit bool

	// EurosPerPoint is the sale total required per loyalty point.
	// Points are truncated, not rounded.
	EurosPerPoint decimal.Decimal
}

// DefaultConfig returns the reference policy: discounts accepted after
// payment, restock on refund, one point per 10 euros.
func DefaultConfig() Config {
	return Config{
		EurosPerPoint: decimal.NewFromInt(10),
	}
}

// =============================================================================
// RFID
// =============================================================================

// DummyTag is the placeholder RFID tag representing untracked stock.
// Unlike real tags it may appear in any number of items simultaneously.
const DummyTag = "000000000000"

// ValidRate reports whether a discount rate is inside [0, 1).
func ValidRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThan(decimal.NewFromInt(1))
}

// MustDecimal parses a decimal literal. Use only for constants and tests.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
