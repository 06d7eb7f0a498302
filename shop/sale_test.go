package shop_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openretail/shop-engine/shop"
)

func testProduct(id int, barcode, price string) *shop.Product {
	return &shop.Product{
		ID:        id,
		Barcode:   barcode,
		UnitPrice: shop.MustDecimal(price),
		Tags:      make(map[string]struct{}),
	}
}

func openSale() *shop.Sale {
	return shop.NewSale(1, time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC))
}

// =============================================================================
// LINE ITEMS
// =============================================================================

func TestLineItem_Value(t *testing.T) {
	li := &shop.LineItem{
		Quantity:     3,
		UnitPrice:    shop.MustDecimal("12.50"),
		DiscountRate: shop.MustDecimal("0.2"),
	}
	// 3 x 12.50 x 0.8 = 30
	assert.True(t, li.Value().Equal(shop.MustDecimal("30")), "got %s", li.Value())
	assert.True(t, li.EffectiveUnitPrice().Equal(shop.MustDecimal("10")))
}

func TestSale_AddItem_AccumulatesAndSnapshotsPrice(t *testing.T) {
	// GIVEN: an open sale and a product at 2.50
	// WHEN: adding it twice and then raising the catalog price
	// THEN: one line item with the summed quantity at the original price

	s := openSale()
	p := testProduct(1, "4006381333931", "2.50")

	require.True(t, s.AddItem(p, 2))
	require.True(t, s.AddItem(p, 3))
	p.UnitPrice = shop.MustDecimal("99")

	require.Len(t, s.Items, 1)
	li := s.Item(p.ID)
	assert.Equal(t, 5, li.Quantity)
	assert.True(t, li.UnitPrice.Equal(shop.MustDecimal("2.50")), "price is snapshotted at add time")
	assert.True(t, s.Total().Equal(shop.MustDecimal("12.5")), "got %s", s.Total())
}

func TestSale_RemoveItem_DeletesOnExactMatch(t *testing.T) {
	s := openSale()
	p := testProduct(1, "4006381333931", "2")
	require.True(t, s.AddItem(p, 5))

	assert.False(t, s.RemoveItem(p.ID, 6), "more than present")
	assert.True(t, s.RemoveItem(p.ID, 2))
	assert.Equal(t, 3, s.Item(p.ID).Quantity)

	assert.True(t, s.RemoveItem(p.ID, 3))
	assert.Nil(t, s.Item(p.ID), "exact removal drops the line item")
	assert.True(t, s.Total().IsZero())
}

func TestSale_ItemTags(t *testing.T) {
	s := openSale()
	p := testProduct(1, "4006381333931", "2")

	require.True(t, s.AddItemTag(p, "t-1"))
	assert.False(t, s.AddItemTag(p, "t-1"), "same tag twice in one sale")
	require.True(t, s.AddItemTag(p, shop.DummyTag))
	require.True(t, s.AddItemTag(p, shop.DummyTag), "the dummy tag repeats freely")

	li := s.Item(p.ID)
	assert.Equal(t, 3, li.Quantity)
	assert.Len(t, li.Tags, 1)

	assert.False(t, s.RemoveItemTag(p.ID, "t-9"), "unknown tag")
	assert.True(t, s.RemoveItemTag(p.ID, "t-1"))
	assert.True(t, s.RemoveItemTag(p.ID, shop.DummyTag))
	assert.Equal(t, 1, s.Item(p.ID).Quantity)
}

func TestSale_RemoveItemTag_DummyNeedsAnUntrackedUnit(t *testing.T) {
	s := openSale()
	p := testProduct(1, "4006381333931", "2")

	require.True(t, s.AddItemTag(p, "t-1"))
	require.True(t, s.AddItemTag(p, "t-2"))

	// Every unit on the line is tag-tracked; the dummy tag moves only
	// untracked units.
	assert.False(t, s.RemoveItemTag(p.ID, shop.DummyTag))
	li := s.Item(p.ID)
	assert.Equal(t, 2, li.Quantity)
	assert.Len(t, li.Tags, 2)

	require.True(t, s.AddItemTag(p, shop.DummyTag))
	assert.True(t, s.RemoveItemTag(p.ID, shop.DummyTag))
	assert.False(t, s.RemoveItemTag(p.ID, shop.DummyTag))
	assert.Equal(t, 2, s.Item(p.ID).Quantity)
}

// =============================================================================
// DISCOUNTS AND TOTALS
// =============================================================================

func TestSale_ComputeTotal_StacksItemAndSaleDiscounts(t *testing.T) {
	// GIVEN: 2 x 50 with a 10% item discount and a 25% sale discount
	// THEN: total = 0.75 x (2 x 50 x 0.9) = 67.5

	s := openSale()
	p := testProduct(1, "4006381333931", "50")
	require.True(t, s.AddItem(p, 2))
	require.True(t, s.ApplyItemDiscount(p.ID, shop.MustDecimal("0.1")))
	require.True(t, s.ApplySaleDiscount(shop.MustDecimal("0.25")))

	assert.True(t, s.ComputeTotal().Equal(shop.MustDecimal("67.5")), "got %s", s.ComputeTotal())
	assert.True(t, s.Total().Equal(s.ComputeTotal()), "cached total tracks mutations")
}

func TestSale_ApplyDiscount_RejectsOutOfRangeRate(t *testing.T) {
	s := openSale()
	p := testProduct(1, "4006381333931", "10")
	require.True(t, s.AddItem(p, 1))

	assert.False(t, s.ApplyItemDiscount(p.ID, shop.MustDecimal("1")), "100% is out of range")
	assert.False(t, s.ApplyItemDiscount(p.ID, shop.MustDecimal("-0.1")))
	assert.False(t, s.ApplySaleDiscount(shop.MustDecimal("1.5")))
	assert.True(t, s.ApplySaleDiscount(shop.MustDecimal("0")), "zero rate is allowed")
}

func TestSale_ApplyItemDiscount_RequiresOpenSale(t *testing.T) {
	s := openSale()
	p := testProduct(1, "4006381333931", "10")
	require.True(t, s.AddItem(p, 1))
	require.True(t, s.End())

	assert.False(t, s.ApplyItemDiscount(p.ID, shop.MustDecimal("0.1")))
	// The transaction-level discount remains available after closing.
	assert.True(t, s.ApplySaleDiscount(shop.MustDecimal("0.1")))
}

// =============================================================================
// STATE MACHINE
// =============================================================================

func TestSale_End_FreezesItems(t *testing.T) {
	s := openSale()
	p := testProduct(1, "4006381333931", "10")
	require.True(t, s.AddItem(p, 1))

	require.True(t, s.End())
	assert.Equal(t, shop.StatusClosed, s.Status)
	assert.False(t, s.End(), "ending twice")
	assert.False(t, s.AddItem(p, 1))
	assert.False(t, s.RemoveItem(p.ID, 1))
}

// =============================================================================
// LOYALTY POINTS
// =============================================================================

func TestSale_ComputePoints_Truncates(t *testing.T) {
	s := openSale()
	p := testProduct(1, "4006381333931", "67.5")
	require.True(t, s.AddItem(p, 1))

	// 67.5 / 10 = 6.75 -> 6 points, never rounded up
	assert.EqualValues(t, 6, s.ComputePoints(shop.MustDecimal("10")))
	assert.EqualValues(t, 67, s.ComputePoints(shop.MustDecimal("1")))
	assert.EqualValues(t, 0, s.ComputePoints(shop.MustDecimal("100")))
	assert.EqualValues(t, 0, s.ComputePoints(shop.MustDecimal("0")), "degenerate ratio yields no points")
}
