/*
store.go - Persistence collaborator boundary

PURPOSE:
  The engine is fully consistent in memory; durability is an injected
  collaborator. Store persists the durable views only: the product
  catalog, the ledger entries, and the order records. Open sales and
  returns are volatile per-process state.

APPEND-ONLY ENTRIES:
  Entries carry a UUID idempotency key. AppendEntry rejects a key it has
  already written with ErrDuplicateIdempotencyKey, so Persist can be
  retried safely; the only in-place entry change a store ever sees is a
  status refresh (order arrival).

IMPLEMENTATIONS:
  - shop/store: in-memory, for tests and dev
  - store/sqlite: SQLite-backed
*/
package shop

import "context"

// Store persists the engine's durable views.
type Store interface {
	// ReplaceProducts overwrites the stored catalog.
	ReplaceProducts(ctx context.Context, products []Product) error

	// LoadProducts returns the stored catalog.
	LoadProducts(ctx context.Context) ([]Product, error)

	// AppendEntry persists one ledger entry. Returns
	// ErrDuplicateIdempotencyKey if the entry's key was already written.
	AppendEntry(ctx context.Context, e Entry) error

	// UpdateEntryStatus refreshes a stored entry's status.
	UpdateEntryStatus(ctx context.Context, id int, status Status) error

	// LoadEntries returns all stored entries in chronological order.
	LoadEntries(ctx context.Context) ([]Entry, error)

	// ReplaceOrders overwrites the stored order records.
	ReplaceOrders(ctx context.Context, orders []Order) error

	// LoadOrders returns the stored order records.
	LoadOrders(ctx context.Context) ([]Order, error)
}
