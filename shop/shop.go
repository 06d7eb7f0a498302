/*
shop.go - The orchestrator

PURPOSE:
  Shop ties the four mutable views together: transaction status, line
  item contents, shelf inventory, and the running account balance. Every
  public operation either applies its FULL set of side effects or none
  of them. There is no external transaction manager: each method
  validates everything before mutating anything, or compensates its own
  partial work (EndReturn, DeleteReturn).

ERROR CHANNELS (see errors.go):
  - typed error: input-contract violation, checked before any mutation
  - ok=false, err=nil: business-rule failure ("not done"), no mutation

CONTROL FLOW (happy path of a sale):
  StartSale -> AddToSale (reserves stock) -> ApplyItemDiscount ->
  EndSale (freezes items) -> PaySaleCash/Card (posts ledger entry,
  status PAID)

SEE ALSO:
  - book.go: where the balance invariant is maintained
  - store.go: the optional persistence collaborator
*/
package shop

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Shop is the transactional engine for one shop instance.
// It is single-threaded by design: callers serialize access per instance.
type Shop struct {
	Catalog *Catalog
	Book    *AccountBook
	Circuit CardCircuit
	Config  Config

	sales   map[int]*Sale
	returns map[int]*Return
	orders  map[int]*Order

	now func() time.Time
}

// New creates an empty shop engine.
func New(cfg Config, circuit CardCircuit) *Shop {
	if cfg.EurosPerPoint.IsZero() {
		cfg.EurosPerPoint = DefaultConfig().EurosPerPoint
	}
	return &Shop{
		Catalog: NewCatalog(),
		Book:    NewAccountBook(),
		Circuit: circuit,
		Config:  cfg,
		sales:   make(map[int]*Sale),
		returns: make(map[int]*Return),
		orders:  make(map[int]*Order),
		now:     time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *Shop) SetClock(now func() time.Time) { s.now = now }

func (s *Shop) nextEntryID() int { return NextID(s.Book.EntryIDs()) }

// =============================================================================
// SALES
// =============================================================================

// StartSale opens a new sale transaction and returns its id.
func (s *Shop) StartSale() int {
	id := NextID(idSet(s.sales))
	s.sales[id] = NewSale(id, s.now())
	return id
}

// SaleByID returns the sale with the given id, or nil.
func (s *Shop) SaleByID(id int) *Sale { return s.sales[id] }

// Sales returns all sale transactions ordered by id.
func (s *Shop) Sales() []*Sale {
	out := make([]*Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		out = append(out, sale)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddToSale reserves quantity on the shelf and accumulates it onto the
// sale's line item for the product, snapshotting the unit price on first
// add. Not done if the sale is missing or not OPEN, the product is
// unknown, or stock is insufficient.
func (s *Shop) AddToSale(saleID int, barcode string, quantity int) (bool, error) {
	if saleID <= 0 {
		return false, ErrInvalidID
	}
	if quantity <= 0 {
		return false, ErrInvalidQuantity
	}
	if !ValidBarcode(barcode) {
		return false, ErrInvalidBarcode
	}

	sale := s.sales[saleID]
	if sale == nil || sale.Status != StatusOpen {
		return false, nil
	}
	p := s.Catalog.FindByBarcode(barcode)
	if p == nil {
		return false, nil
	}
	if !s.Catalog.Reserve(barcode, quantity) {
		return false, nil
	}
	if !sale.AddItem(p, quantity) {
		// Cannot happen after the checks above; undo the reservation
		// anyway so the views cannot diverge.
		s.Catalog.Release(barcode, quantity)
		return false, nil
	}
	return true, nil
}

// AddTagToSale reserves one exactly tracked unit by its RFID tag.
func (s *Shop) AddTagToSale(saleID int, barcode, tag string) (bool, error) {
	if saleID <= 0 {
		return false, ErrInvalidID
	}
	if !ValidBarcode(barcode) {
		return false, ErrInvalidBarcode
	}
	if tag == "" {
		return false, ErrInvalidID
	}

	sale := s.sales[saleID]
	if sale == nil || sale.Status != StatusOpen {
		return false, nil
	}
	p := s.Catalog.FindByBarcode(barcode)
	if p == nil {
		return false, nil
	}
	if tag != DummyTag {
		if owner := s.Catalog.TagOwner(tag); owner == nil || owner.ID != p.ID {
			return false, nil
		}
	}
	if !s.Catalog.ReserveTag(barcode, tag) {
		return false, nil
	}
	if !sale.AddItemTag(p, tag) {
		_ = s.Catalog.ReleaseTag(barcode, tag)
		return false, nil
	}
	return true, nil
}

// RemoveFromSale releases quantity back to the shelf and reduces the
// line item, deleting it on exact match. Not done if the requested
// quantity exceeds the line item's.
func (s *Shop) RemoveFromSale(saleID int, barcode string, quantity int) (bool, error) {
	if saleID <= 0 {
		return false, ErrInvalidID
	}
	if quantity <= 0 {
		return false, ErrInvalidQuantity
	}
	if !ValidBarcode(barcode) {
		return false, ErrInvalidBarcode
	}

	sale := s.sales[saleID]
	if sale == nil || sale.Status != StatusOpen {
		return false, nil
	}
	p := s.Catalog.FindByBarcode(barcode)
	if p == nil {
		return false, nil
	}
	if !sale.RemoveItem(p.ID, quantity) {
		return false, nil
	}
	s.Catalog.Release(barcode, quantity)
	return true, nil
}

// RemoveTagFromSale releases one exactly tracked unit by its RFID tag.
func (s *Shop) RemoveTagFromSale(saleID int, barcode, tag string) (bool, error) {
	if saleID <= 0 {
		return false, ErrInvalidID
	}
	if !ValidBarcode(barcode) {
		return false, ErrInvalidBarcode
	}

	sale := s.sales[saleID]
	if sale == nil || sale.Status != StatusOpen {
		return false, nil
	}
	p := s.Catalog.FindByBarcode(barcode)
	if p == nil {
		return false, nil
	}
	if !sale.RemoveItemTag(p.ID, tag) {
		return false, nil
	}
	if err := s.Catalog.ReleaseTag(barcode, tag); err != nil {
		// The tag was just taken off the shelf by this sale, so
		// re-admitting it cannot collide.
		return false, err
	}
	return true, nil
}

// ApplyItemDiscount sets the per-item discount on an OPEN sale.
func (s *Shop) ApplyItemDiscount(saleID int, barcode string, rate decimal.Decimal) (bool, error) {
	if saleID <= 0 {
		return false, ErrInvalidID
	}
	if !ValidRate(rate) {
		return false, ErrInvalidDiscountRate
	}
	if !ValidBarcode(barcode) {
		return false, ErrInvalidBarcode
	}

	sale := s.sales[saleID]
	if sale == nil {
		return false, nil
	}
	p := s.Catalog.FindByBarcode(barcode)
	if p == nil {
		return false, nil
	}
	return sale.ApplyItemDiscount(p.ID, rate), nil
}

// ApplySaleDiscount sets the transaction-level discount. The reference
// behavior accepts it even on a CLOSED or PAID sale (the posted ledger
// amount is never retro-edited); Config.RejectDiscountAfterPayment
// rejects it once the sale is paid.
func (s *Shop) ApplySaleDiscount(saleID int, rate decimal.Decimal) (bool, error) {
	if saleID <= 0 {
		return false, ErrInvalidID
	}
	if !ValidRate(rate) {
		return false, ErrInvalidDiscountRate
	}

	sale := s.sales[saleID]
	if sale == nil {
		return false, nil
	}
	if s.Config.RejectDiscountAfterPayment && AffectsBalance(sale.Status) {
		return false, nil
	}
	return sale.ApplySaleDiscount(rate), nil
}

// EndSale freezes the sale's line items (OPEN -> CLOSED).
func (s *Shop) EndSale(saleID int) (bool, error) {
	if saleID <= 0 {
		return false, ErrInvalidID
	}
	sale := s.sales[saleID]
	if sale == nil {
		return false, nil
	}
	return sale.End(), nil
}

// SalePoints returns the loyalty points the sale is worth.
func (s *Shop) SalePoints(saleID int) (int64, bool, error) {
	if saleID <= 0 {
		return 0, false, ErrInvalidID
	}
	sale := s.sales[saleID]
	if sale == nil {
		return 0, false, nil
	}
	return sale.ComputePoints(s.Config.EurosPerPoint), true, nil
}

// PaySaleCash settles a CLOSED sale with cash and returns the change.
// Not done if the cash does not cover the total or the sale is already
// paid; nothing changes then.
func (s *Shop) PaySaleCash(saleID int, cash decimal.Decimal) (decimal.Decimal, bool, error) {
	if saleID <= 0 {
		return decimal.Zero, false, ErrInvalidID
	}
	if cash.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false, ErrInvalidPrice
	}

	sale := s.sales[saleID]
	if sale == nil || sale.Status != StatusClosed {
		return decimal.Zero, false, nil
	}
	total := sale.ComputeTotal()
	if cash.LessThan(total) {
		return decimal.Zero, false, nil
	}

	if err := s.postSaleEntry(sale, total); err != nil {
		return decimal.Zero, false, err
	}
	return cash.Sub(total), true, nil
}

// PaySaleCard settles a CLOSED sale via the card circuit. The card number
// is Luhn-validated before any circuit call.
func (s *Shop) PaySaleCard(saleID int, card string) (bool, error) {
	if saleID <= 0 {
		return false, ErrInvalidID
	}
	if !ValidCard(card) {
		return false, ErrInvalidCard
	}

	sale := s.sales[saleID]
	if sale == nil || sale.Status != StatusClosed {
		return false, nil
	}
	total := sale.ComputeTotal()
	if !s.Circuit.Debit(card, total) {
		return false, nil
	}
	if err := s.postSaleEntry(sale, total); err != nil {
		// Undo the external debit so no money is stranded.
		s.Circuit.Credit(card, total)
		return false, err
	}
	return true, nil
}

func (s *Shop) postSaleEntry(sale *Sale, total decimal.Decimal) error {
	e := NewEntry(s.nextEntryID(), KindSale, total, StatusPaid, sale.ID, s.now())
	if err := s.Book.Post(e); err != nil {
		return err
	}
	sale.Status = StatusPaid
	return nil
}

// DeleteSale rolls back an unpaid sale: every reserved unit goes back to
// the shelf and the transaction is discarded. Never permitted after
// payment.
func (s *Shop) DeleteSale(saleID int) (bool, error) {
	if saleID <= 0 {
		return false, ErrInvalidID
	}
	sale := s.sales[saleID]
	if sale == nil || AffectsBalance(sale.Status) {
		return false, nil
	}

	for _, li := range sale.Items {
		for tag := range li.Tags {
			_ = s.Catalog.ReleaseTag(li.Barcode, tag)
		}
		if untracked := li.Quantity - len(li.Tags); untracked > 0 {
			s.Catalog.Release(li.Barcode, untracked)
		}
	}
	// Only paid sales post entries, so this is a defensive no-op.
	if e, ok := s.Book.FindByRef(KindSale, saleID); ok {
		s.Book.Remove(e.ID)
	}
	delete(s.sales, saleID)
	return true, nil
}

// =============================================================================
// RETURNS
// =============================================================================

// StartReturn opens a return transaction against a completed sale.
// Independent of any other open returns on the same sale.
func (s *Shop) StartReturn(saleID int) (int, bool, error) {
	if saleID <= 0 {
		return 0, false, ErrInvalidID
	}
	sale := s.sales[saleID]
	if sale == nil || !AffectsBalance(sale.Status) {
		return 0, false, nil
	}

	id := NextID(idSet(s.returns))
	s.returns[id] = NewReturn(id, saleID, s.now())
	sale.Returns = append(sale.Returns, id)
	return id, true, nil
}

// ReturnByID returns the return transaction with the given id, or nil.
func (s *Shop) ReturnByID(id int) *Return { return s.returns[id] }

// ReturnItem records a returned quantity. The cumulative quantity for a
// product within this return may never exceed what is currently present
// in the parent sale's line item.
func (s *Shop) ReturnItem(returnID int, barcode string, quantity int) (bool, error) {
	if returnID <= 0 {
		return false, ErrInvalidID
	}
	if quantity <= 0 {
		return false, ErrInvalidQuantity
	}
	if !ValidBarcode(barcode) {
		return false, ErrInvalidBarcode
	}

	ret := s.returns[returnID]
	if ret == nil || ret.Status != StatusOpen {
		return false, nil
	}
	sale := s.sales[ret.SaleID]
	if sale == nil {
		return false, nil
	}
	p := s.Catalog.FindByBarcode(barcode)
	if p == nil {
		return false, nil
	}
	li := sale.Item(p.ID)
	if li == nil || ret.Returned(p.ID)+quantity > li.Quantity {
		return false, nil
	}
	return ret.Add(li, sale.DiscountRate, quantity), nil
}

// EndReturn finalizes an OPEN return. commit=true applies the recorded
// lines to the parent sale (decrementing line items, dropping the ones
// that reach zero, recomputing the total); commit=false discards them.
// Either way the return transitions to CLOSED. Stock is NOT credited
// here unless Config.RestockOnCommit is set; the default reconciles
// stock on the refund payment.
func (s *Shop) EndReturn(returnID int, commit bool) (bool, error) {
	if returnID <= 0 {
		return false, ErrInvalidID
	}
	ret := s.returns[returnID]
	if ret == nil || ret.Status != StatusOpen {
		return false, nil
	}

	if !commit {
		ret.Lines = nil
		ret.Status = StatusClosed
		return true, nil
	}

	sale := s.sales[ret.SaleID]
	if sale == nil {
		return false, nil
	}
	// Validate the whole commit before touching the sale: another return
	// on the same sale may have shrunk the line items since ReturnItem.
	for _, rl := range ret.Lines {
		li := sale.Item(rl.ProductID)
		if li == nil || li.Quantity < rl.Quantity {
			return false, nil
		}
	}

	for _, rl := range ret.Lines {
		li := sale.Item(rl.ProductID)
		li.Quantity -= rl.Quantity
		if li.Quantity == 0 {
			sale.deleteItem(rl.ProductID)
		}
	}
	sale.recompute()

	if s.Config.RestockOnCommit {
		s.restock(ret)
	}
	ret.Committed = true
	ret.Status = StatusClosed
	return true, nil
}

func (s *Shop) restock(ret *Return) {
	for _, rl := range ret.Lines {
		s.Catalog.Release(rl.Barcode, rl.Quantity)
	}
	ret.Restocked = true
}

// unstock re-reserves previously restocked units. All-or-nothing: it
// fails without mutating if any product no longer has the stock.
func (s *Shop) unstock(ret *Return) error {
	for _, rl := range ret.Lines {
		p := s.Catalog.FindByBarcode(rl.Barcode)
		if p == nil || p.Quantity < rl.Quantity {
			available := 0
			if p != nil {
				available = p.Quantity
			}
			return &InsufficientStockError{
				Barcode:   rl.Barcode,
				Available: available,
				Requested: rl.Quantity,
			}
		}
	}
	for _, rl := range ret.Lines {
		s.Catalog.Reserve(rl.Barcode, rl.Quantity)
	}
	ret.Restocked = false
	return nil
}

// ReturnCashPayment refunds a committed, CLOSED return in cash. The
// refund value comes from the snapshotted lines; stock is credited here
// under the default policy. Paying twice is not done and posts nothing.
func (s *Shop) ReturnCashPayment(returnID int) (decimal.Decimal, bool, error) {
	if returnID <= 0 {
		return decimal.Zero, false, ErrInvalidID
	}
	ret := s.returns[returnID]
	if ret == nil || ret.Status != StatusClosed || !ret.Committed {
		return decimal.Zero, false, nil
	}
	refund := ret.Value()
	if err := s.postReturnEntry(ret, refund); err != nil {
		return decimal.Zero, false, err
	}
	return refund, true, nil
}

// ReturnCardPayment refunds through the card circuit.
func (s *Shop) ReturnCardPayment(returnID int, card string) (decimal.Decimal, bool, error) {
	if returnID <= 0 {
		return decimal.Zero, false, ErrInvalidID
	}
	if !ValidCard(card) {
		return decimal.Zero, false, ErrInvalidCard
	}

	ret := s.returns[returnID]
	if ret == nil || ret.Status != StatusClosed || !ret.Committed {
		return decimal.Zero, false, nil
	}
	refund := ret.Value()
	if !s.Circuit.Credit(card, refund) {
		return decimal.Zero, false, nil
	}
	if err := s.postReturnEntry(ret, refund); err != nil {
		s.Circuit.Debit(card, refund)
		return decimal.Zero, false, err
	}
	return refund, true, nil
}

func (s *Shop) postReturnEntry(ret *Return, refund decimal.Decimal) error {
	e := NewEntry(s.nextEntryID(), KindReturn, refund.Neg(), StatusPaid, ret.ID, s.now())
	if err := s.Book.Post(e); err != nil {
		return err
	}
	if !ret.Restocked {
		s.restock(ret)
	}
	ret.Status = StatusPaid
	return nil
}

// DeleteReturn discards a return before payment. For a committed return
// this reverses the commit: the parent sale's line items get their
// quantities back (rebuilt from the snapshots if they were dropped), and
// any restocked units are re-reserved.
func (s *Shop) DeleteReturn(returnID int) (bool, error) {
	if returnID <= 0 {
		return false, ErrInvalidID
	}
	ret := s.returns[returnID]
	if ret == nil || AffectsBalance(ret.Status) {
		return false, nil
	}

	if ret.Committed {
		sale := s.sales[ret.SaleID]
		if sale == nil {
			return false, nil
		}
		if ret.Restocked {
			if err := s.unstock(ret); err != nil {
				return false, err
			}
		}
		for _, rl := range ret.Lines {
			li := sale.Item(rl.ProductID)
			if li == nil {
				li = &LineItem{
					ProductID:    rl.ProductID,
					Barcode:      rl.Barcode,
					UnitPrice:    rl.UnitPrice,
					DiscountRate: rl.DiscountRate,
					Tags:         make(map[string]struct{}),
				}
				sale.Items = append(sale.Items, li)
			}
			li.Quantity += rl.Quantity
		}
		sale.recompute()
	}

	if sale := s.sales[ret.SaleID]; sale != nil {
		for i, id := range sale.Returns {
			if id == returnID {
				sale.Returns = append(sale.Returns[:i], sale.Returns[i+1:]...)
				break
			}
		}
	}
	delete(s.returns, returnID)
	return true, nil
}

// =============================================================================
// ORDERS
// =============================================================================

// IssueOrder records a purchase order in ISSUED state. Pure record
// creation: no ledger effect, no inventory effect.
func (s *Shop) IssueOrder(barcode string, quantity int, unitPrice decimal.Decimal) (int, bool, error) {
	if !ValidBarcode(barcode) {
		return 0, false, ErrInvalidBarcode
	}
	if quantity <= 0 {
		return 0, false, ErrInvalidQuantity
	}
	if unitPrice.LessThanOrEqual(decimal.Zero) {
		return 0, false, ErrInvalidPrice
	}

	p := s.Catalog.FindByBarcode(barcode)
	if p == nil {
		return 0, false, nil
	}
	id := NextID(idSet(s.orders))
	s.orders[id] = NewOrder(id, p, quantity, unitPrice, s.now())
	return id, true, nil
}

// PayOrder debits the order total from the balance (ISSUED -> PAID).
// Not done on insufficient funds; nothing changes then.
func (s *Shop) PayOrder(orderID int) (bool, error) {
	if orderID <= 0 {
		return false, ErrInvalidID
	}
	o := s.orders[orderID]
	if o == nil || o.Status != StatusIssued {
		return false, nil
	}
	total := o.Total()
	if !s.Book.CheckAvailability(total) {
		return false, nil
	}

	e := NewEntry(s.nextEntryID(), KindOrder, total.Neg(), StatusPaid, o.ID, s.now())
	if err := s.Book.Post(e); err != nil {
		return false, err
	}
	o.Status = StatusPaid
	return true, nil
}

// PayOrderFor issues and pays an order in one step. On insufficient
// funds no order is recorded at all.
func (s *Shop) PayOrderFor(barcode string, quantity int, unitPrice decimal.Decimal) (int, bool, error) {
	id, ok, err := s.IssueOrder(barcode, quantity, unitPrice)
	if err != nil || !ok {
		return 0, false, err
	}
	ok, err = s.PayOrder(id)
	if err != nil || !ok {
		delete(s.orders, id)
		return 0, false, err
	}
	return id, true, nil
}

// RecordOrderArrival credits inventory for a PAID order and closes it
// (PAID -> COMPLETED). Fails with a location error if the product has no
// shelf position, leaving the status unchanged. Once COMPLETED, repeated
// calls are idempotent no-ops returning true.
func (s *Shop) RecordOrderArrival(orderID int) (bool, error) {
	if orderID <= 0 {
		return false, ErrInvalidID
	}
	o := s.orders[orderID]
	if o == nil {
		return false, nil
	}
	if o.Status == StatusCompleted {
		return true, nil
	}
	if o.Status != StatusPaid {
		return false, nil
	}

	if err := s.Catalog.CreditOnArrival(o.Barcode, o.Quantity); err != nil {
		return false, err
	}
	s.completeOrder(o)
	return true, nil
}

// RecordOrderArrivalTags is the RFID variant of RecordOrderArrival:
// the arrived units enter stock as individually tracked tags, one per
// ordered unit.
func (s *Shop) RecordOrderArrivalTags(orderID int, tags []string) (bool, error) {
	if orderID <= 0 {
		return false, ErrInvalidID
	}
	o := s.orders[orderID]
	if o == nil {
		return false, nil
	}
	if o.Status == StatusCompleted {
		return true, nil
	}
	if o.Status != StatusPaid {
		return false, nil
	}
	if len(tags) != o.Quantity {
		return false, ErrInvalidQuantity
	}
	p := s.Catalog.FindByBarcode(o.Barcode)
	if p == nil {
		return false, ErrInvalidBarcode
	}
	if p.Location == nil {
		return false, ErrNoLocation
	}

	if err := s.Catalog.AttachTags(o.Barcode, tags); err != nil {
		return false, err
	}
	s.completeOrder(o)
	return true, nil
}

func (s *Shop) completeOrder(o *Order) {
	o.Status = StatusCompleted
	// PAID and COMPLETED both affect the balance, so this flip is
	// balance-neutral by construction.
	if e, ok := s.Book.FindByRef(KindOrder, o.ID); ok {
		s.Book.UpdateStatus(e.ID, StatusCompleted)
	}
}

// OrderByID returns the order with the given id, or nil.
func (s *Shop) OrderByID(id int) *Order { return s.orders[id] }

// Orders returns all orders ordered by id.
func (s *Shop) Orders() []*Order {
	out := make([]*Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// =============================================================================
// BALANCE
// =============================================================================

// RecordBalanceUpdate posts a manual credit (positive) or debit
// (negative). A debit that would drive the balance negative is not done.
func (s *Shop) RecordBalanceUpdate(amount decimal.Decimal) (bool, error) {
	if s.Book.Balance().Add(amount).IsNegative() {
		return false, nil
	}
	kind := KindCredit
	if amount.IsNegative() {
		kind = KindDebit
	}
	// Manual adjustments are terminal on creation.
	e := NewEntry(s.nextEntryID(), kind, amount, StatusCompleted, 0, s.now())
	return true, s.Book.Post(e)
}

// ComputeBalance returns the incrementally maintained balance.
func (s *Shop) ComputeBalance() decimal.Decimal { return s.Book.Balance() }

// RecomputeBalance rebuilds the balance from scratch. Repair operation;
// in a healthy engine it returns the same value as ComputeBalance.
func (s *Shop) RecomputeBalance() decimal.Decimal { return s.Book.Recompute() }

// =============================================================================
// PERSISTENCE (optional collaborator)
// =============================================================================

// Persist writes the durable views (products, ledger entries, orders) to
// the store. Entry appends are idempotent: a re-persisted entry is
// recognized by its idempotency key and only its status is refreshed.
func (s *Shop) Persist(ctx context.Context, st Store) error {
	products := make([]Product, 0, len(s.Catalog.byID))
	for _, p := range s.Catalog.Products() {
		products = append(products, *p)
	}
	if err := st.ReplaceProducts(ctx, products); err != nil {
		return err
	}

	for _, e := range s.Book.Entries() {
		err := st.AppendEntry(ctx, e)
		if errors.Is(err, ErrDuplicateIdempotencyKey) {
			err = st.UpdateEntryStatus(ctx, e.ID, e.Status)
		}
		if err != nil {
			return err
		}
	}

	orders := make([]Order, 0, len(s.orders))
	for _, o := range s.Orders() {
		orders = append(orders, *o)
	}
	return st.ReplaceOrders(ctx, orders)
}

// Restore replaces the engine's durable views with the store's contents.
// Open sales and returns are volatile and start empty.
func (s *Shop) Restore(ctx context.Context, st Store) error {
	products, err := st.LoadProducts(ctx)
	if err != nil {
		return err
	}
	entries, err := st.LoadEntries(ctx)
	if err != nil {
		return err
	}
	orders, err := st.LoadOrders(ctx)
	if err != nil {
		return err
	}

	catalog := NewCatalog()
	for i := range products {
		p := products[i]
		if p.Tags == nil {
			p.Tags = make(map[string]struct{})
		}
		catalog.byID[p.ID] = &p
		catalog.byBarcode[p.Barcode] = &p
		for tag := range p.Tags {
			catalog.tagOwner[tag] = p.ID
		}
	}

	book := NewAccountBook()
	for _, e := range entries {
		if err := book.Post(e); err != nil {
			return err
		}
	}
	book.Recompute()

	s.Catalog = catalog
	s.Book = book
	s.orders = make(map[int]*Order, len(orders))
	for i := range orders {
		o := orders[i]
		s.orders[o.ID] = &o
	}
	s.sales = make(map[int]*Sale)
	s.returns = make(map[int]*Return)
	return nil
}
