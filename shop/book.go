/*
book.go - The account book (ledger)

PURPOSE:
  The AccountBook is the append-ordered collection of all ledger entries
  and the single source of truth for "can we afford this" checks. It
  maintains a running balance incrementally and can rebuild it from
  scratch.

CRITICAL INVARIANT:
  cachedBalance == sum of Amount over entries whose status affects the
  balance, at ALL times. Recompute() is the explicit repair operation and
  the test oracle: it must always agree with the incremental value, and a
  disagreement is a logic defect, not a runtime condition.

BALANCE MAINTENANCE:
  - Post: adds the amount iff the entry's status affects the balance
  - UpdateStatus: adjusts the balance only when affects-balance-ness
    flips (false->true adds, true->false subtracts)
  - Remove: symmetric inverse of Post

SEE ALSO:
  - entry.go: the entry header and kinds
  - shop.go: who posts what, and when
*/
package shop

import (
	"github.com/shopspring/decimal"
)

// AccountBook is the append-only ledger plus its running balance.
type AccountBook struct {
	entries []Entry
	index   map[int]int // entry id -> position in entries
	balance decimal.Decimal
}

func NewAccountBook() *AccountBook {
	return &AccountBook{index: make(map[int]int)}
}

// Post appends an entry. Insertion order is chronological order.
func (b *AccountBook) Post(e Entry) error {
	if e.ID <= 0 {
		return ErrInvalidID
	}
	if _, dup := b.index[e.ID]; dup {
		return ErrDuplicateEntry
	}
	b.index[e.ID] = len(b.entries)
	b.entries = append(b.entries, e)
	if AffectsBalance(e.Status) {
		b.balance = b.balance.Add(e.Amount)
	}
	return nil
}

// UpdateStatus changes an entry's status, adjusting the cached balance
// when its affects-balance-ness flips in either direction.
// Returns false if the entry is unknown.
func (b *AccountBook) UpdateStatus(id int, status Status) bool {
	pos, ok := b.index[id]
	if !ok {
		return false
	}
	e := &b.entries[pos]
	before, after := AffectsBalance(e.Status), AffectsBalance(status)
	switch {
	case !before && after:
		b.balance = b.balance.Add(e.Amount)
	case before && !after:
		b.balance = b.balance.Sub(e.Amount)
	}
	e.Status = status
	return true
}

// Remove deletes an entry, the symmetric inverse of Post.
// Returns false if the entry is unknown.
func (b *AccountBook) Remove(id int) bool {
	pos, ok := b.index[id]
	if !ok {
		return false
	}
	e := b.entries[pos]
	if AffectsBalance(e.Status) {
		b.balance = b.balance.Sub(e.Amount)
	}
	b.entries = append(b.entries[:pos], b.entries[pos+1:]...)
	delete(b.index, id)
	for i := pos; i < len(b.entries); i++ {
		b.index[b.entries[i].ID] = i
	}
	return true
}

// Balance returns the incrementally maintained balance.
func (b *AccountBook) Balance() decimal.Decimal { return b.balance }

// Recompute rebuilds the cached balance from scratch and returns it.
// Exposed as a consistency-repair operation; in a healthy engine it never
// changes the value.
func (b *AccountBook) Recompute() decimal.Decimal {
	total := decimal.Zero
	for _, e := range b.entries {
		if AffectsBalance(e.Status) {
			total = total.Add(e.Amount)
		}
	}
	b.balance = total
	return total
}

// CheckAvailability reports whether the balance covers amount.
func (b *AccountBook) CheckAvailability(amount decimal.Decimal) bool {
	return b.balance.GreaterThanOrEqual(amount)
}

// Entry returns the entry with the given id.
func (b *AccountBook) Entry(id int) (Entry, bool) {
	pos, ok := b.index[id]
	if !ok {
		return Entry{}, false
	}
	return b.entries[pos], true
}

// FindByRef returns the entry of the given kind settling the given
// transaction id. At most one such entry ever exists.
func (b *AccountBook) FindByRef(kind EntryKind, ref int) (Entry, bool) {
	for _, e := range b.entries {
		if e.Kind == kind && e.Ref == ref {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns all entries in chronological (insertion) order.
func (b *AccountBook) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// EntryIDs returns the set of ids in use, for NextID.
func (b *AccountBook) EntryIDs() map[int]struct{} {
	set := make(map[int]struct{}, len(b.index))
	for id := range b.index {
		set[id] = struct{}{}
	}
	return set
}
