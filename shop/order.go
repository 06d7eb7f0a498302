/*
order.go - Purchase order record

PURPOSE:
  An Order is a purchase from a supplier: ISSUED -> PAID -> COMPLETED
  (arrived). Issuing is pure record creation with no ledger effect;
  paying posts the negative entry; arrival credits inventory. Orders
  reserve nothing until they arrive.

SEE ALSO:
  - shop.go: PayOrder / RecordOrderArrival orchestration
  - catalog.go: CreditOnArrival, the only stock-growing path
*/
package shop

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is one purchase order.
type Order struct {
	ID        int
	ProductID int
	Barcode   string
	Quantity  int
	UnitPrice decimal.Decimal
	Status    Status
	Date      time.Time
}

// NewOrder creates an ISSUED order.
func NewOrder(id int, p *Product, quantity int, unitPrice decimal.Decimal, date time.Time) *Order {
	return &Order{
		ID:        id,
		ProductID: p.ID,
		Barcode:   p.Barcode,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Status:    StatusIssued,
		Date:      date,
	}
}

// Total is quantity x unitPrice, the amount debited when the order is paid.
func (o *Order) Total() decimal.Decimal {
	return o.UnitPrice.Mul(decimal.NewFromInt(int64(o.Quantity)))
}
