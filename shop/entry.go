/*
entry.go - Ledger entries (the monetary events)

PURPOSE:
  An Entry records one monetary event in the account book: a manual
  credit or debit, a supplier order, a sale, or a return. The reference
  design modeled these as a class hierarchy; here they share ONE header
  struct tagged with an EntryKind, and kind-specific state (line items,
  order payload, return lines) lives in the engine registries, referenced
  by id. Dispatch is on the tag, not on virtual methods.

IMMUTABILITY:
  Once an entry's status affects the balance it is history: it is never
  edited, only compensated by a fresh entry of opposite sign. Deleting an
  unpaid sale/return removes its entry (there should not be one, since
  entries are posted at payment); after payment, removal is forbidden by
  the callers.

IDEMPOTENCY:
  Every entry carries a UUID idempotency key so stores can refuse a
  double append after a retried persist.
*/
package shop

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is one monetary event in the account book.
type Entry struct {
	ID     int // unique within the ledger
	Date   time.Time
	Amount decimal.Decimal // signed: positive grows the balance
	Status Status
	Kind   EntryKind

	// Ref is the id of the sale/return/order this entry settles.
	// Zero for manual credits and debits.
	Ref int

	// IdempotencyKey guards stores against duplicate appends.
	IdempotencyKey string
}

// NewEntry builds an entry header with a fresh idempotency key.
func NewEntry(id int, kind EntryKind, amount decimal.Decimal, status Status, ref int, date time.Time) Entry {
	return Entry{
		ID:             id,
		Date:           date,
		Amount:         amount,
		Status:         status,
		Kind:           kind,
		Ref:            ref,
		IdempotencyKey: uuid.NewString(),
	}
}
