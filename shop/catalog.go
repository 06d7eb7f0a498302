/*
catalog.go - Product catalog and inventory reservation

PURPOSE:
  Holds product records keyed by a stable id and by a unique barcode, and
  exposes the reserve/release operations that keep on-shelf stock
  consistent with in-flight transactions.

CRITICAL INVARIANTS:
  1. Barcode uniqueness, enforced at creation and update
  2. QuantityOnShelf never negative: Reserve fails instead
  3. RFID tags globally unique across the whole catalog, except the
     dummy tag which represents untracked stock
  4. Shelf positions unique across products

RESERVE vs RELEASE ASYMMETRY:
  Reserve can fail (insufficient stock); Release always succeeds for an
  existing product. Releases happen when line items are removed or an
  unpaid sale is deleted, i.e. when stock that was taken off the shelf
  comes back.

SEE ALSO:
  - sale.go: line items snapshot the unit price at add time
  - order.go: CreditOnArrival is the only path that grows stock
*/
package shop

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LOCATION - Shelf position
// =============================================================================

// Location is a structured shelf position: aisle, rack, level.
type Location struct {
	Aisle int
	Rack  int
	Level int
}

func (l Location) String() string {
	return fmt.Sprintf("%d-%d-%d", l.Aisle, l.Rack, l.Level)
}

// ParseLocation parses an "aisle-rack-level" position string.
func ParseLocation(s string) (Location, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Location{}, ErrInvalidLocation
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Location{}, ErrInvalidLocation
		}
		nums[i] = n
	}
	return Location{Aisle: nums[0], Rack: nums[1], Level: nums[2]}, nil
}

// =============================================================================
// PRODUCT
// =============================================================================

// Product is one product type on the shelf.
type Product struct {
	ID          int // immutable, unique
	Barcode     string
	Description string
	UnitPrice   decimal.Decimal
	Quantity    int // on-shelf stock, never negative
	Location    *Location
	Note        string

	// Tags holds the RFID tags of individually tracked units.
	// The dummy tag is never stored here.
	Tags map[string]struct{}
}

// TaggedQuantity returns the number of individually tracked units.
func (p *Product) TaggedQuantity() int { return len(p.Tags) }

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is the product catalog plus the inventory-reservation engine.
type Catalog struct {
	byID      map[int]*Product
	byBarcode map[string]*Product
	tagOwner  map[string]int // rfid tag -> product id, dummy excluded
}

func NewCatalog() *Catalog {
	return &Catalog{
		byID:      make(map[int]*Product),
		byBarcode: make(map[string]*Product),
		tagOwner:  make(map[string]int),
	}
}

// Create adds a product type. The barcode must be checksum-valid and
// unused; the price must be positive.
func (c *Catalog) Create(barcode, description string, price decimal.Decimal, note string) (*Product, error) {
	if !ValidBarcode(barcode) {
		return nil, ErrInvalidBarcode
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidPrice
	}
	if _, taken := c.byBarcode[barcode]; taken {
		return nil, ErrDuplicateBarcode
	}

	p := &Product{
		ID:          NextID(idSet(c.byID)),
		Barcode:     barcode,
		Description: description,
		UnitPrice:   price,
		Note:        note,
		Tags:        make(map[string]struct{}),
	}
	c.byID[p.ID] = p
	c.byBarcode[barcode] = p
	return p, nil
}

// Update changes the mutable product properties. Changing the barcode
// revalidates checksum and uniqueness. Returns false if id is unknown.
func (c *Catalog) Update(id int, barcode, description string, price decimal.Decimal, note string) (bool, error) {
	if !ValidBarcode(barcode) {
		return false, ErrInvalidBarcode
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return false, ErrInvalidPrice
	}
	p, ok := c.byID[id]
	if !ok {
		return false, nil
	}
	if other, taken := c.byBarcode[barcode]; taken && other.ID != id {
		return false, ErrDuplicateBarcode
	}

	delete(c.byBarcode, p.Barcode)
	p.Barcode = barcode
	p.Description = description
	p.UnitPrice = price
	p.Note = note
	c.byBarcode[barcode] = p
	return true, nil
}

// Delete removes a product type and its tags. Returns false if unknown.
func (c *Catalog) Delete(id int) bool {
	p, ok := c.byID[id]
	if !ok {
		return false
	}
	for tag := range p.Tags {
		delete(c.tagOwner, tag)
	}
	delete(c.byBarcode, p.Barcode)
	delete(c.byID, id)
	return true
}

// FindByBarcode returns the product with the given barcode, or nil.
func (c *Catalog) FindByBarcode(barcode string) *Product { return c.byBarcode[barcode] }

// FindByID returns the product with the given id, or nil.
func (c *Catalog) FindByID(id int) *Product { return c.byID[id] }

// Products returns all products ordered by id.
func (c *Catalog) Products() []*Product {
	out := make([]*Product, 0, len(c.byID))
	for _, p := range c.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// =============================================================================
// QUANTITY RESERVATION
// =============================================================================

// Reserve decrements on-shelf stock. It succeeds iff the product exists,
// quantity is non-negative, and enough stock is on the shelf; otherwise
// nothing changes.
func (c *Catalog) Reserve(barcode string, quantity int) bool {
	p := c.byBarcode[barcode]
	if p == nil || quantity < 0 || p.Quantity < quantity {
		return false
	}
	p.Quantity -= quantity
	return true
}

// Release returns previously reserved stock to the shelf. It always
// succeeds for an existing product.
func (c *Catalog) Release(barcode string, quantity int) bool {
	p := c.byBarcode[barcode]
	if p == nil || quantity < 0 {
		return false
	}
	p.Quantity += quantity
	return true
}

// CreditOnArrival grows stock when an order arrives. A product without an
// assigned shelf position cannot receive stock.
func (c *Catalog) CreditOnArrival(barcode string, quantity int) error {
	p := c.byBarcode[barcode]
	if p == nil {
		return ErrInvalidBarcode
	}
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if p.Location == nil {
		return ErrNoLocation
	}
	p.Quantity += quantity
	return nil
}

// UpdateQuantity applies a signed delta to on-shelf stock. Returns false
// if the product is unknown, has no location, or the result would be
// negative.
func (c *Catalog) UpdateQuantity(id int, delta int) bool {
	p := c.byID[id]
	if p == nil || p.Location == nil || p.Quantity+delta < 0 {
		return false
	}
	p.Quantity += delta
	return true
}

// SetLocation assigns a shelf position, unique across products.
// Returns false if the product is unknown or the position is taken.
func (c *Catalog) SetLocation(id int, loc Location) bool {
	p := c.byID[id]
	if p == nil {
		return false
	}
	for _, other := range c.byID {
		if other.ID != id && other.Location != nil && *other.Location == loc {
			return false
		}
	}
	l := loc
	p.Location = &l
	return true
}

// =============================================================================
// RFID TAGS - Exact-unit tracking
// =============================================================================

// AttachTags admits individually tracked units into stock, growing the
// on-shelf quantity by one per accepted tag. Every tag must be globally
// unique across the catalog; the dummy tag is accepted any number of
// times (it stays untracked). All-or-nothing: one duplicate rejects the
// whole batch.
func (c *Catalog) AttachTags(barcode string, tags []string) error {
	p := c.byBarcode[barcode]
	if p == nil {
		return ErrInvalidBarcode
	}
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if tag == DummyTag {
			continue
		}
		if _, dup := c.tagOwner[tag]; dup {
			return ErrDuplicateTag
		}
		if _, dup := seen[tag]; dup {
			return ErrDuplicateTag
		}
		seen[tag] = struct{}{}
	}

	for _, tag := range tags {
		if tag != DummyTag {
			p.Tags[tag] = struct{}{}
			c.tagOwner[tag] = p.ID
		}
		p.Quantity++
	}
	return nil
}

// TagOwner returns the product holding the given tag on the shelf, or nil.
// The dummy tag has no owner.
func (c *Catalog) TagOwner(tag string) *Product {
	id, ok := c.tagOwner[tag]
	if !ok {
		return nil
	}
	return c.byID[id]
}

// ReserveTag takes one tracked unit off the shelf. For the dummy tag an
// untracked unit of the product is reserved instead.
func (c *Catalog) ReserveTag(barcode, tag string) bool {
	p := c.byBarcode[barcode]
	if p == nil {
		return false
	}
	if tag == DummyTag {
		return c.Reserve(barcode, 1)
	}
	if _, onShelf := p.Tags[tag]; !onShelf {
		return false
	}
	delete(p.Tags, tag)
	delete(c.tagOwner, tag)
	p.Quantity--
	return true
}

// ReleaseTag puts a tracked unit back on the shelf. Global uniqueness is
// re-checked on the way in.
func (c *Catalog) ReleaseTag(barcode, tag string) error {
	p := c.byBarcode[barcode]
	if p == nil {
		return ErrInvalidBarcode
	}
	if tag == DummyTag {
		p.Quantity++
		return nil
	}
	if _, dup := c.tagOwner[tag]; dup {
		return ErrDuplicateTag
	}
	p.Tags[tag] = struct{}{}
	c.tagOwner[tag] = p.ID
	p.Quantity++
	return nil
}
