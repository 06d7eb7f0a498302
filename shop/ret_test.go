package shop_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openretail/shop-engine/shop"
)

func TestReturn_Add_SnapshotsEffectivePrice(t *testing.T) {
	// GIVEN: a line item at 50 with a 10% item discount, under a 25%
	// sale discount
	// WHEN: recording 2 units
	// THEN: the refund snapshot is 50 x 0.9 x 0.75 = 33.75 per unit

	li := &shop.LineItem{
		ProductID:    1,
		Barcode:      "4006381333931",
		Quantity:     3,
		UnitPrice:    shop.MustDecimal("50"),
		DiscountRate: shop.MustDecimal("0.1"),
	}
	r := shop.NewReturn(1, 7, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC))

	require.True(t, r.Add(li, shop.MustDecimal("0.25"), 2))

	rl := r.Line(1)
	require.NotNil(t, rl)
	assert.True(t, rl.EffectiveUnitPrice.Equal(shop.MustDecimal("33.75")), "got %s", rl.EffectiveUnitPrice)
	assert.True(t, rl.UnitPrice.Equal(shop.MustDecimal("50")), "raw price kept for commit reversal")
	assert.True(t, rl.DiscountRate.Equal(shop.MustDecimal("0.1")))
	assert.True(t, r.Value().Equal(shop.MustDecimal("67.5")), "got %s", r.Value())
}

func TestReturn_Add_AccumulatesPerProduct(t *testing.T) {
	li := &shop.LineItem{ProductID: 1, UnitPrice: shop.MustDecimal("10")}
	r := shop.NewReturn(1, 7, time.Now())

	require.True(t, r.Add(li, shop.MustDecimal("0"), 1))
	require.True(t, r.Add(li, shop.MustDecimal("0"), 2))

	assert.Equal(t, 3, r.Returned(1))
	assert.Len(t, r.Lines, 1)
	assert.Equal(t, 0, r.Returned(99))
}

func TestReturn_Add_LaterDiscountChangesDoNotMoveTheSnapshot(t *testing.T) {
	li := &shop.LineItem{ProductID: 1, UnitPrice: shop.MustDecimal("10")}
	r := shop.NewReturn(1, 7, time.Now())
	require.True(t, r.Add(li, shop.MustDecimal("0"), 1))

	li.DiscountRate = shop.MustDecimal("0.5")

	assert.True(t, r.Value().Equal(shop.MustDecimal("10")),
		"the snapshot is taken when the line is recorded")
}

func TestReturn_Add_RequiresOpenReturn(t *testing.T) {
	li := &shop.LineItem{ProductID: 1, UnitPrice: shop.MustDecimal("10")}
	r := shop.NewReturn(1, 7, time.Now())
	r.Status = shop.StatusClosed

	assert.False(t, r.Add(li, shop.MustDecimal("0"), 1))
	assert.Empty(t, r.Lines)
}
