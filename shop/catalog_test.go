package shop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openretail/shop-engine/shop"
)

func newCatalogWith(t *testing.T, barcode string, price string) (*shop.Catalog, *shop.Product) {
	t.Helper()
	c := shop.NewCatalog()
	p, err := c.Create(barcode, "test product", shop.MustDecimal(price), "")
	require.NoError(t, err)
	return c, p
}

// =============================================================================
// CREATION AND UPDATE
// =============================================================================

func TestCatalog_Create_ValidatesInput(t *testing.T) {
	c := shop.NewCatalog()

	_, err := c.Create("4006381333930", "bad checksum", shop.MustDecimal("1"), "")
	assert.ErrorIs(t, err, shop.ErrInvalidBarcode)

	_, err = c.Create("4006381333931", "free", shop.MustDecimal("0"), "")
	assert.ErrorIs(t, err, shop.ErrInvalidPrice)

	_, err = c.Create("4006381333931", "negative", shop.MustDecimal("-2"), "")
	assert.ErrorIs(t, err, shop.ErrInvalidPrice)
}

func TestCatalog_Create_RejectsDuplicateBarcode(t *testing.T) {
	c, _ := newCatalogWith(t, "4006381333931", "2.50")

	_, err := c.Create("4006381333931", "same barcode", shop.MustDecimal("3"), "")
	assert.ErrorIs(t, err, shop.ErrDuplicateBarcode)
}

func TestCatalog_Create_AssignsDistinctIDs(t *testing.T) {
	c := shop.NewCatalog()
	a, err := c.Create("4006381333931", "a", shop.MustDecimal("1"), "")
	require.NoError(t, err)
	b, err := c.Create("5901234123457", "b", shop.MustDecimal("1"), "")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Same(t, a, c.FindByID(a.ID))
	assert.Same(t, b, c.FindByBarcode("5901234123457"))
}

func TestCatalog_Update_RekeysBarcode(t *testing.T) {
	// GIVEN: a product found under its original barcode
	// WHEN: the barcode changes
	// THEN: only the new barcode resolves, and the old one is free again

	c, p := newCatalogWith(t, "4006381333931", "2.50")

	done, err := c.Update(p.ID, "5901234123457", "renamed", shop.MustDecimal("3"), "note")
	require.NoError(t, err)
	require.True(t, done)

	assert.Nil(t, c.FindByBarcode("4006381333931"))
	assert.Same(t, p, c.FindByBarcode("5901234123457"))
	assert.Equal(t, "renamed", p.Description)

	_, err = c.Create("4006381333931", "reuses freed barcode", shop.MustDecimal("1"), "")
	assert.NoError(t, err)
}

func TestCatalog_Update_RejectsTakenBarcode(t *testing.T) {
	c, p := newCatalogWith(t, "4006381333931", "2.50")
	_, err := c.Create("5901234123457", "other", shop.MustDecimal("1"), "")
	require.NoError(t, err)

	_, err = c.Update(p.ID, "5901234123457", "steal", shop.MustDecimal("1"), "")
	assert.ErrorIs(t, err, shop.ErrDuplicateBarcode)

	// Re-asserting a product's own barcode is fine.
	done, err := c.Update(p.ID, "4006381333931", "same", shop.MustDecimal("1"), "")
	assert.NoError(t, err)
	assert.True(t, done)
}

func TestCatalog_Update_UnknownID(t *testing.T) {
	c := shop.NewCatalog()
	done, err := c.Update(99, "4006381333931", "ghost", shop.MustDecimal("1"), "")
	assert.NoError(t, err)
	assert.False(t, done)
}

func TestCatalog_Delete_FreesBarcodeAndTags(t *testing.T) {
	c, p := newCatalogWith(t, "4006381333931", "2.50")
	require.NoError(t, c.AttachTags(p.Barcode, []string{"tag-1", "tag-2"}))

	require.True(t, c.Delete(p.ID))

	assert.Nil(t, c.FindByBarcode("4006381333931"))
	assert.Nil(t, c.TagOwner("tag-1"))
	assert.False(t, c.Delete(p.ID), "second delete")

	// Freed tags may be attached to another product.
	q, err := c.Create("5901234123457", "successor", shop.MustDecimal("1"), "")
	require.NoError(t, err)
	assert.NoError(t, c.AttachTags(q.Barcode, []string{"tag-1"}))
}

// =============================================================================
// QUANTITY RESERVATION - Stock is conserved and never negative
// =============================================================================

func TestCatalog_ReserveRelease_ConservesStock(t *testing.T) {
	c, p := newCatalogWith(t, "4006381333931", "2.50")
	require.True(t, c.SetLocation(p.ID, shop.Location{Aisle: 1, Rack: 2, Level: 3}))
	require.True(t, c.UpdateQuantity(p.ID, 10))

	assert.True(t, c.Reserve(p.Barcode, 7))
	assert.Equal(t, 3, p.Quantity)
	assert.True(t, c.Release(p.Barcode, 7))
	assert.Equal(t, 10, p.Quantity)
}

func TestCatalog_Reserve_FailsInsteadOfGoingNegative(t *testing.T) {
	c, p := newCatalogWith(t, "4006381333931", "2.50")
	require.True(t, c.SetLocation(p.ID, shop.Location{Aisle: 1, Rack: 1, Level: 1}))
	require.True(t, c.UpdateQuantity(p.ID, 5))

	assert.False(t, c.Reserve(p.Barcode, 6))
	assert.Equal(t, 5, p.Quantity, "failed reserve must not change stock")
	assert.False(t, c.Reserve(p.Barcode, -1))
	assert.False(t, c.Reserve("5901234123457", 1), "unknown product")
}

func TestCatalog_UpdateQuantity_RequiresLocation(t *testing.T) {
	c, p := newCatalogWith(t, "4006381333931", "2.50")

	assert.False(t, c.UpdateQuantity(p.ID, 5), "no shelf position assigned yet")

	require.True(t, c.SetLocation(p.ID, shop.Location{Aisle: 1, Rack: 1, Level: 1}))
	assert.True(t, c.UpdateQuantity(p.ID, 5))
	assert.False(t, c.UpdateQuantity(p.ID, -6), "would go negative")
	assert.Equal(t, 5, p.Quantity)
}

func TestCatalog_CreditOnArrival(t *testing.T) {
	c, p := newCatalogWith(t, "4006381333931", "2.50")

	assert.ErrorIs(t, c.CreditOnArrival(p.Barcode, 4), shop.ErrNoLocation)

	require.True(t, c.SetLocation(p.ID, shop.Location{Aisle: 2, Rack: 1, Level: 1}))
	require.NoError(t, c.CreditOnArrival(p.Barcode, 4))
	assert.Equal(t, 4, p.Quantity)

	assert.ErrorIs(t, c.CreditOnArrival("5901234123457", 1), shop.ErrInvalidBarcode)
}

// =============================================================================
// LOCATIONS
// =============================================================================

func TestParseLocation(t *testing.T) {
	loc, err := shop.ParseLocation("3-12-1")
	require.NoError(t, err)
	assert.Equal(t, shop.Location{Aisle: 3, Rack: 12, Level: 1}, loc)
	assert.Equal(t, "3-12-1", loc.String())

	for _, bad := range []string{"", "3-12", "3-12-1-9", "a-1-1", "3--1", "3-12--1"} {
		_, err := shop.ParseLocation(bad)
		assert.ErrorIs(t, err, shop.ErrInvalidLocation, "input %q", bad)
	}
}

func TestCatalog_SetLocation_UniqueAcrossProducts(t *testing.T) {
	c, p := newCatalogWith(t, "4006381333931", "2.50")
	q, err := c.Create("5901234123457", "other", shop.MustDecimal("1"), "")
	require.NoError(t, err)

	loc := shop.Location{Aisle: 1, Rack: 1, Level: 1}
	require.True(t, c.SetLocation(p.ID, loc))
	assert.False(t, c.SetLocation(q.ID, loc), "position already taken")
	assert.True(t, c.SetLocation(q.ID, shop.Location{Aisle: 1, Rack: 1, Level: 2}))

	// Moving a product to its own position stays allowed.
	assert.True(t, c.SetLocation(p.ID, loc))
}

// =============================================================================
// RFID TAGS
// =============================================================================

func TestCatalog_AttachTags_GrowsStockPerUnit(t *testing.T) {
	c, p := newCatalogWith(t, "4006381333931", "2.50")

	require.NoError(t, c.AttachTags(p.Barcode, []string{"t-1", "t-2", shop.DummyTag}))

	assert.Equal(t, 3, p.Quantity)
	assert.Equal(t, 2, p.TaggedQuantity(), "the dummy tag is never stored")
	assert.Same(t, p, c.TagOwner("t-1"))
	assert.Nil(t, c.TagOwner(shop.DummyTag))
}

func TestCatalog_AttachTags_AllOrNothingOnDuplicate(t *testing.T) {
	// GIVEN: tag t-1 already on the shelf
	// WHEN: attaching a batch containing t-1 again
	// THEN: the whole batch is rejected and stock is untouched

	c, p := newCatalogWith(t, "4006381333931", "2.50")
	require.NoError(t, c.AttachTags(p.Barcode, []string{"t-1"}))

	err := c.AttachTags(p.Barcode, []string{"t-2", "t-1", "t-3"})
	assert.ErrorIs(t, err, shop.ErrDuplicateTag)
	assert.Equal(t, 1, p.Quantity)
	assert.Nil(t, c.TagOwner("t-2"), "no tag of the rejected batch may land")

	// Duplicate within the batch itself is rejected the same way.
	err = c.AttachTags(p.Barcode, []string{"t-4", "t-4"})
	assert.ErrorIs(t, err, shop.ErrDuplicateTag)
}

func TestCatalog_AttachTags_UniqueAcrossProducts(t *testing.T) {
	c, p := newCatalogWith(t, "4006381333931", "2.50")
	q, err := c.Create("5901234123457", "other", shop.MustDecimal("1"), "")
	require.NoError(t, err)
	require.NoError(t, c.AttachTags(p.Barcode, []string{"t-1"}))

	assert.ErrorIs(t, c.AttachTags(q.Barcode, []string{"t-1"}), shop.ErrDuplicateTag)

	// The dummy tag is exempt: any number of untracked units, anywhere.
	assert.NoError(t, c.AttachTags(p.Barcode, []string{shop.DummyTag}))
	assert.NoError(t, c.AttachTags(q.Barcode, []string{shop.DummyTag, shop.DummyTag}))
}

func TestCatalog_ReserveTag_RoundTrip(t *testing.T) {
	c, p := newCatalogWith(t, "4006381333931", "2.50")
	require.NoError(t, c.AttachTags(p.Barcode, []string{"t-1", "t-2"}))

	require.True(t, c.ReserveTag(p.Barcode, "t-1"))
	assert.Equal(t, 1, p.Quantity)
	assert.Nil(t, c.TagOwner("t-1"), "a reserved tag is off the shelf")
	assert.False(t, c.ReserveTag(p.Barcode, "t-1"), "cannot reserve twice")

	require.NoError(t, c.ReleaseTag(p.Barcode, "t-1"))
	assert.Equal(t, 2, p.Quantity)
	assert.Same(t, p, c.TagOwner("t-1"))

	// Releasing a tag that is already on the shelf would break uniqueness.
	assert.ErrorIs(t, c.ReleaseTag(p.Barcode, "t-2"), shop.ErrDuplicateTag)
}

func TestCatalog_ReserveTag_DummyFallsBackToQuantity(t *testing.T) {
	c, p := newCatalogWith(t, "4006381333931", "2.50")
	require.NoError(t, c.AttachTags(p.Barcode, []string{shop.DummyTag, shop.DummyTag}))

	assert.True(t, c.ReserveTag(p.Barcode, shop.DummyTag))
	assert.Equal(t, 1, p.Quantity)
	require.NoError(t, c.ReleaseTag(p.Barcode, shop.DummyTag))
	assert.Equal(t, 2, p.Quantity)
}
