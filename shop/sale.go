/*
sale.go - Sale transaction state machine and line items

PURPOSE:
  A Sale owns an ordered collection of line items (product + quantity +
  per-item discount), the transaction-level discount, and the status
  state machine OPEN -> CLOSED -> PAID. It computes totals and loyalty
  points. The cached total is recomputed on EVERY mutation, not just at
  payment time.

OWNERSHIP:
  Line items are owned exclusively by their sale. The unit price is
  snapshotted at add time; later catalog price changes do not move an
  open sale's total.

INVENTORY COUPLING:
  The methods here mutate sale state only. The Shop orchestrator pairs
  every AddItem with a prior successful Catalog.Reserve and every
  RemoveItem with a Release, so that the two views never diverge.

TOTAL:
  (1 - saleDiscount) * sum over items of qty * unitPrice * (1 - itemDiscount)

SEE ALSO:
  - ret.go: returns mutate a paid sale through its line items
  - shop.go: payment posts the ledger entry
*/
package shop

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LINE ITEM
// =============================================================================

// LineItem is a product-quantity-discount tuple inside a sale.
type LineItem struct {
	ProductID    int
	Barcode      string
	Quantity     int
	UnitPrice    decimal.Decimal // snapshot at add time
	DiscountRate decimal.Decimal // [0, 1)

	// Tags holds the RFID tags of exactly tracked units in this item.
	// When tags are present, Quantity equals len(Tags) plus any untracked
	// (dummy-tagged) units.
	Tags map[string]struct{}
}

// Value is quantity x unitPrice x (1 - discountRate).
func (li *LineItem) Value() decimal.Decimal {
	return li.UnitPrice.
		Mul(decimal.NewFromInt(int64(li.Quantity))).
		Mul(decimal.NewFromInt(1).Sub(li.DiscountRate))
}

// EffectiveUnitPrice is the per-unit price after the item discount.
func (li *LineItem) EffectiveUnitPrice() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(1).Sub(li.DiscountRate))
}

// =============================================================================
// SALE
// =============================================================================

// Sale is one sale transaction.
type Sale struct {
	ID           int
	Status       Status
	DiscountRate decimal.Decimal
	Items        []*LineItem
	Returns      []int // ids of return transactions referencing this sale
	Date         time.Time

	total decimal.Decimal // cached, recomputed on every mutation
}

// NewSale creates an OPEN sale.
func NewSale(id int, date time.Time) *Sale {
	return &Sale{ID: id, Status: StatusOpen, Date: date}
}

// Item returns the line item for productID, or nil.
func (s *Sale) Item(productID int) *LineItem {
	for _, li := range s.Items {
		if li.ProductID == productID {
			return li
		}
	}
	return nil
}

// AddItem accumulates quantity onto the product's line item, creating it
// on first add with the unit price snapshotted from the product.
// Valid only while OPEN; the caller must have reserved the quantity.
func (s *Sale) AddItem(p *Product, quantity int) bool {
	if s.Status != StatusOpen || quantity <= 0 {
		return false
	}
	li := s.Item(p.ID)
	if li == nil {
		li = &LineItem{
			ProductID: p.ID,
			Barcode:   p.Barcode,
			UnitPrice: p.UnitPrice,
			Tags:      make(map[string]struct{}),
		}
		s.Items = append(s.Items, li)
	}
	li.Quantity += quantity
	s.recompute()
	return true
}

// AddItemTag adds one exactly tracked unit.
func (s *Sale) AddItemTag(p *Product, tag string) bool {
	if s.Status != StatusOpen {
		return false
	}
	if tag != DummyTag {
		if li := s.Item(p.ID); li != nil {
			if _, dup := li.Tags[tag]; dup {
				return false
			}
		}
	}
	if !s.AddItem(p, 1) {
		return false
	}
	if tag != DummyTag {
		s.Item(p.ID).Tags[tag] = struct{}{}
	}
	return true
}

// RemoveItem takes quantity off the product's line item. Fails if the
// sale is not OPEN, the product is absent, or the requested quantity
// exceeds the item's. On exact match the line item is deleted.
func (s *Sale) RemoveItem(productID, quantity int) bool {
	if s.Status != StatusOpen || quantity <= 0 {
		return false
	}
	li := s.Item(productID)
	if li == nil || li.Quantity < quantity {
		return false
	}
	li.Quantity -= quantity
	if li.Quantity == 0 {
		s.deleteItem(productID)
	}
	s.recompute()
	return true
}

// RemoveItemTag removes one exactly tracked unit by its tag.
func (s *Sale) RemoveItemTag(productID int, tag string) bool {
	if s.Status != StatusOpen {
		return false
	}
	li := s.Item(productID)
	if li == nil {
		return false
	}
	if tag == DummyTag {
		// Quantity covers tracked and untracked units alike; only an
		// untracked unit may leave under the dummy tag.
		if li.Quantity <= len(li.Tags) {
			return false
		}
	} else {
		if _, held := li.Tags[tag]; !held {
			return false
		}
		delete(li.Tags, tag)
	}
	return s.RemoveItem(productID, 1)
}

func (s *Sale) deleteItem(productID int) {
	for i, li := range s.Items {
		if li.ProductID == productID {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			return
		}
	}
}

// ApplyItemDiscount sets the per-item discount rate. A no-op returning
// false if the product is not in the sale or the sale is not OPEN.
func (s *Sale) ApplyItemDiscount(productID int, rate decimal.Decimal) bool {
	if s.Status != StatusOpen || !ValidRate(rate) {
		return false
	}
	li := s.Item(productID)
	if li == nil {
		return false
	}
	li.DiscountRate = rate
	s.recompute()
	return true
}

// ApplySaleDiscount sets the transaction-level discount. It does not
// require OPEN; whether a PAID sale still accepts it is the caller's
// policy decision (Config.RejectDiscountAfterPayment). The ledger amount
// posted at payment is never retro-edited.
func (s *Sale) ApplySaleDiscount(rate decimal.Decimal) bool {
	if !ValidRate(rate) {
		return false
	}
	s.DiscountRate = rate
	s.recompute()
	return true
}

// End freezes the line items, transitioning OPEN -> CLOSED exactly once.
func (s *Sale) End() bool {
	if s.Status != StatusOpen {
		return false
	}
	s.Status = StatusClosed
	return true
}

// ComputeTotal returns the discounted sale total.
func (s *Sale) ComputeTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range s.Items {
		sum = sum.Add(li.Value())
	}
	return decimal.NewFromInt(1).Sub(s.DiscountRate).Mul(sum)
}

// Total returns the cached total.
func (s *Sale) Total() decimal.Decimal { return s.total }

// ComputePoints returns the loyalty points: the total divided by the
// euros-per-point constant, truncated (never rounded up).
func (s *Sale) ComputePoints(eurosPerPoint decimal.Decimal) int64 {
	if eurosPerPoint.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	return s.ComputeTotal().Div(eurosPerPoint).IntPart()
}

// recompute refreshes the cached total after a mutation. Returns mutate
// the parent sale through the orchestrator, which calls this too.
func (s *Sale) recompute() { s.total = s.ComputeTotal() }
