/*
ret.go - Return transaction state machine

PURPOSE:
  A Return references a completed sale and accumulates returned
  quantities per product. On finalization it either commits (mutates the
  parent sale's line items) or rolls back (discards everything, releases
  nothing). The refund itself is a separate step: only the refund payment
  posts the negative ledger entry.

SNAPSHOTS:
  Each return line snapshots the unit price and the discounts in effect
  (item discount AND sale discount) at the moment the item is recorded.
  Later discount changes on the sale do not move the refund value.

COMMIT vs RESTOCK ASYMMETRY:
  Committing decrements the parent sale's line items but does NOT grow
  on-shelf stock; physical stock is reconciled on the explicit cash/card
  refund, mirroring how a sale only hits the ledger when paid.
  Config.RestockOnCommit moves the restock to commit time instead.

SEE ALSO:
  - sale.go: the parent line items being decremented
  - shop.go: EndReturn / refund payments / DeleteReturn orchestration
*/
package shop

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReturnLine is one returned product with its value snapshot.
type ReturnLine struct {
	ProductID int
	Barcode   string
	Quantity  int

	// UnitPrice and DiscountRate are snapshotted from the sale's line
	// item, so that deleting a committed return can rebuild it.
	UnitPrice    decimal.Decimal
	DiscountRate decimal.Decimal

	// EffectiveUnitPrice folds in the item and sale discounts in effect
	// when the line was recorded. The refund is computed from this.
	EffectiveUnitPrice decimal.Decimal
}

// Value is the refundable value of this line.
func (rl *ReturnLine) Value() decimal.Decimal {
	return rl.EffectiveUnitPrice.Mul(decimal.NewFromInt(int64(rl.Quantity)))
}

// Return is one return transaction against a completed sale.
type Return struct {
	ID     int
	SaleID int
	Status Status
	Lines  []*ReturnLine
	Date   time.Time

	// Committed records whether End applied the lines to the parent sale.
	Committed bool

	// Restocked records whether on-shelf stock has been credited already,
	// so that refund payment and deletion stay symmetric under either
	// restock policy.
	Restocked bool
}

// NewReturn creates an OPEN return against the given sale.
func NewReturn(id, saleID int, date time.Time) *Return {
	return &Return{ID: id, SaleID: saleID, Status: StatusOpen, Date: date}
}

// Line returns the accumulated line for productID, or nil.
func (r *Return) Line(productID int) *ReturnLine {
	for _, rl := range r.Lines {
		if rl.ProductID == productID {
			return rl
		}
	}
	return nil
}

// Returned is the cumulative quantity recorded for productID.
func (r *Return) Returned(productID int) int {
	if rl := r.Line(productID); rl != nil {
		return rl.Quantity
	}
	return 0
}

// Add accumulates a returned quantity, snapshotting the value from the
// parent sale's line item and its sale-level discount.
// Valid only while OPEN; the caller bounds quantity against the parent.
func (r *Return) Add(li *LineItem, saleDiscount decimal.Decimal, quantity int) bool {
	if r.Status != StatusOpen || quantity <= 0 {
		return false
	}
	rl := r.Line(li.ProductID)
	if rl == nil {
		rl = &ReturnLine{
			ProductID:    li.ProductID,
			Barcode:      li.Barcode,
			UnitPrice:    li.UnitPrice,
			DiscountRate: li.DiscountRate,
			EffectiveUnitPrice: li.EffectiveUnitPrice().
				Mul(decimal.NewFromInt(1).Sub(saleDiscount)),
		}
		r.Lines = append(r.Lines, rl)
	}
	rl.Quantity += quantity
	return true
}

// Value is the total refundable value of the recorded lines.
func (r *Return) Value() decimal.Decimal {
	sum := decimal.Zero
	for _, rl := range r.Lines {
		sum = sum.Add(rl.Value())
	}
	return sum
}
