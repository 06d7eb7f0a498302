package shop_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openretail/shop-engine/shop"
)

func entry(id int, kind shop.EntryKind, amount string, status shop.Status) shop.Entry {
	return shop.NewEntry(id, kind, shop.MustDecimal(amount), status,
		0, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
}

// =============================================================================
// POSTING
// =============================================================================

func TestAccountBook_Post_OnlySettledStatusesCount(t *testing.T) {
	// GIVEN: an empty book
	// WHEN: posting entries in every status
	// THEN: only PAID and COMPLETED move the balance

	b := shop.NewAccountBook()
	require.NoError(t, b.Post(entry(1, shop.KindCredit, "100", shop.StatusCompleted)))
	require.NoError(t, b.Post(entry(2, shop.KindSale, "50", shop.StatusPaid)))
	require.NoError(t, b.Post(entry(3, shop.KindOrder, "-30", shop.StatusIssued)))
	require.NoError(t, b.Post(entry(4, shop.KindSale, "999", shop.StatusOpen)))
	require.NoError(t, b.Post(entry(5, shop.KindSale, "999", shop.StatusClosed)))

	assert.True(t, b.Balance().Equal(shop.MustDecimal("150")), "got %s", b.Balance())
}

func TestAccountBook_Post_RejectsDuplicateID(t *testing.T) {
	b := shop.NewAccountBook()
	require.NoError(t, b.Post(entry(7, shop.KindCredit, "10", shop.StatusCompleted)))

	err := b.Post(entry(7, shop.KindDebit, "-10", shop.StatusCompleted))
	assert.ErrorIs(t, err, shop.ErrDuplicateEntry)
	assert.True(t, b.Balance().Equal(shop.MustDecimal("10")), "failed post must not move the balance")
}

func TestAccountBook_Post_RejectsNonPositiveID(t *testing.T) {
	b := shop.NewAccountBook()
	assert.ErrorIs(t, b.Post(entry(0, shop.KindCredit, "10", shop.StatusCompleted)), shop.ErrInvalidID)
	assert.ErrorIs(t, b.Post(entry(-3, shop.KindCredit, "10", shop.StatusCompleted)), shop.ErrInvalidID)
}

// =============================================================================
// STATUS FLIPS
// =============================================================================

func TestAccountBook_UpdateStatus_FlipsBalanceBothWays(t *testing.T) {
	// GIVEN: an ISSUED order entry of -30 (not counted)
	// WHEN: flipping it to PAID, then back to ISSUED
	// THEN: the balance follows each flip

	b := shop.NewAccountBook()
	require.NoError(t, b.Post(entry(1, shop.KindCredit, "100", shop.StatusCompleted)))
	require.NoError(t, b.Post(entry(2, shop.KindOrder, "-30", shop.StatusIssued)))
	assert.True(t, b.Balance().Equal(shop.MustDecimal("100")))

	assert.True(t, b.UpdateStatus(2, shop.StatusPaid))
	assert.True(t, b.Balance().Equal(shop.MustDecimal("70")))

	// PAID -> COMPLETED both count: balance-neutral
	assert.True(t, b.UpdateStatus(2, shop.StatusCompleted))
	assert.True(t, b.Balance().Equal(shop.MustDecimal("70")))

	assert.True(t, b.UpdateStatus(2, shop.StatusIssued))
	assert.True(t, b.Balance().Equal(shop.MustDecimal("100")))
}

func TestAccountBook_UpdateStatus_UnknownEntry(t *testing.T) {
	b := shop.NewAccountBook()
	assert.False(t, b.UpdateStatus(42, shop.StatusPaid))
}

// =============================================================================
// REMOVAL
// =============================================================================

func TestAccountBook_Remove_IsInverseOfPost(t *testing.T) {
	b := shop.NewAccountBook()
	require.NoError(t, b.Post(entry(1, shop.KindCredit, "100", shop.StatusCompleted)))
	require.NoError(t, b.Post(entry(2, shop.KindSale, "40", shop.StatusPaid)))
	require.NoError(t, b.Post(entry(3, shop.KindSale, "5", shop.StatusOpen)))

	assert.True(t, b.Remove(2))
	assert.True(t, b.Balance().Equal(shop.MustDecimal("100")))

	// Removing a non-counting entry is balance-neutral.
	assert.True(t, b.Remove(3))
	assert.True(t, b.Balance().Equal(shop.MustDecimal("100")))

	_, found := b.Entry(2)
	assert.False(t, found)
	assert.False(t, b.Remove(2), "second removal of the same id")
}

func TestAccountBook_Remove_ReindexesLaterEntries(t *testing.T) {
	b := shop.NewAccountBook()
	for id := 1; id <= 5; id++ {
		require.NoError(t, b.Post(entry(id, shop.KindCredit, "1", shop.StatusCompleted)))
	}

	require.True(t, b.Remove(2))

	// Entries after the removed one must still be addressable by id.
	for _, id := range []int{1, 3, 4, 5} {
		got, found := b.Entry(id)
		require.True(t, found, "entry %d lost after removal", id)
		assert.Equal(t, id, got.ID)
	}
	assert.True(t, b.UpdateStatus(5, shop.StatusOpen))
	assert.True(t, b.Balance().Equal(shop.MustDecimal("3")))
}

// =============================================================================
// RECOMPUTE - The cached balance oracle
// =============================================================================

func TestAccountBook_Recompute_AgreesWithIncremental(t *testing.T) {
	// GIVEN: a book mutated through posts, flips and removals
	// THEN: the from-scratch recomputation equals the cached balance
	// at every step

	b := shop.NewAccountBook()
	check := func() {
		cached := b.Balance()
		assert.True(t, b.Recompute().Equal(cached),
			"cached %s diverged from recomputed %s", cached, b.Recompute())
	}

	require.NoError(t, b.Post(entry(1, shop.KindCredit, "200", shop.StatusCompleted)))
	check()
	require.NoError(t, b.Post(entry(2, shop.KindOrder, "-75.50", shop.StatusPaid)))
	check()
	require.NoError(t, b.Post(entry(3, shop.KindSale, "12.99", shop.StatusOpen)))
	check()
	b.UpdateStatus(3, shop.StatusPaid)
	check()
	b.UpdateStatus(2, shop.StatusCompleted)
	check()
	b.Remove(1)
	check()
	b.UpdateStatus(3, shop.StatusClosed)
	check()
}

// =============================================================================
// AVAILABILITY
// =============================================================================

func TestAccountBook_CheckAvailability(t *testing.T) {
	b := shop.NewAccountBook()
	require.NoError(t, b.Post(entry(1, shop.KindCredit, "50", shop.StatusCompleted)))

	assert.True(t, b.CheckAvailability(shop.MustDecimal("50")))
	assert.True(t, b.CheckAvailability(shop.MustDecimal("49.99")))
	assert.False(t, b.CheckAvailability(shop.MustDecimal("50.01")))
}

func TestAccountBook_FindByRef(t *testing.T) {
	b := shop.NewAccountBook()
	e := shop.NewEntry(1, shop.KindSale, shop.MustDecimal("20"), shop.StatusPaid,
		9, time.Now())
	require.NoError(t, b.Post(e))

	got, found := b.FindByRef(shop.KindSale, 9)
	require.True(t, found)
	assert.Equal(t, 1, got.ID)

	_, found = b.FindByRef(shop.KindReturn, 9)
	assert.False(t, found)
}
