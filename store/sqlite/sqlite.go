/*
Package sqlite provides a SQLite-backed implementation of shop.Store.

PURPOSE:
  Persists the engine's durable views: the product catalog, the ledger
  entries, and the order records. Open sales and returns are volatile
  per-process state and never touch the database.

APPEND-ONLY ENTRIES:
  Entries are append-only: the only UPDATE the entries table ever sees
  is a status refresh (order arrival flips PAID -> COMPLETED). The UNIQUE
  index on the idempotency key turns a duplicate append into
  shop.ErrDuplicateIdempotencyKey, which Persist treats as "already
  written".

KEY TABLES:
  products: catalog snapshot (replaced wholesale on persist)
  entries:  the ledger, chronological by rowid
  orders:   order records (replaced wholesale on persist)

WAL MODE:
  Opened with WAL for better crash recovery; a single process owns the
  file, matching the single-threaded engine model.

USAGE:
  store, err := sqlite.New("./data/shop.db")
  ...
  engine.Restore(ctx, store)

SEE ALSO:
  - shop/store.go: the interface definition
  - shop/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/openretail/shop-engine/shop"
)

// Store implements shop.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a SQLite store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY,
		barcode TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		location TEXT,
		note TEXT,
		tags_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY,
		date TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL,
		kind TEXT NOT NULL,
		ref INTEGER NOT NULL,
		idempotency_key TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY,
		product_id INTEGER NOT NULL,
		barcode TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL,
		status TEXT NOT NULL,
		date TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (s *Store) ReplaceProducts(ctx context.Context, products []shop.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return err
	}
	for _, p := range products {
		tags := make([]string, 0, len(p.Tags))
		for tag := range p.Tags {
			tags = append(tags, tag)
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return err
		}
		var location sql.NullString
		if p.Location != nil {
			location = sql.NullString{String: p.Location.String(), Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO products (id, barcode, description, unit_price, quantity, location, note, tags_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Barcode, p.Description, p.UnitPrice.String(), p.Quantity,
			location, p.Note, string(tagsJSON),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) LoadProducts(ctx context.Context) ([]shop.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, barcode, description, unit_price, quantity, location, note, tags_json
		FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []shop.Product
	for rows.Next() {
		var (
			p        shop.Product
			price    string
			location sql.NullString
			tagsJSON string
		)
		if err := rows.Scan(&p.ID, &p.Barcode, &p.Description, &price,
			&p.Quantity, &location, &p.Note, &tagsJSON); err != nil {
			return nil, err
		}
		if p.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if location.Valid {
			loc, err := shop.ParseLocation(location.String)
			if err != nil {
				return nil, err
			}
			p.Location = &loc
		}
		var tags []string
		if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
			return nil, err
		}
		p.Tags = make(map[string]struct{}, len(tags))
		for _, tag := range tags {
			p.Tags[tag] = struct{}{}
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// =============================================================================
// ENTRIES
// =============================================================================

func (s *Store) AppendEntry(ctx context.Context, e shop.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (id, date, amount, status, kind, ref, idempotency_key)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Date.UTC().Format(time.RFC3339Nano), e.Amount.String(),
		string(e.Status), string(e.Kind), e.Ref, e.IdempotencyKey,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return shop.ErrDuplicateIdempotencyKey
	}
	return err
}

func (s *Store) UpdateEntryStatus(ctx context.Context, id int, status shop.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`UPDATE entries SET status = ? WHERE id = ?`, string(status), id)
	return err
}

func (s *Store) LoadEntries(ctx context.Context) ([]shop.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, amount, status, kind, ref, idempotency_key
		FROM entries ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []shop.Entry
	for rows.Next() {
		var (
			e            shop.Entry
			date, amount string
			status, kind string
		)
		if err := rows.Scan(&e.ID, &date, &amount, &status, &kind, &e.Ref, &e.IdempotencyKey); err != nil {
			return nil, err
		}
		if e.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, err
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		e.Status = shop.Status(status)
		e.Kind = shop.EntryKind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// ORDERS
// =============================================================================

func (s *Store) ReplaceOrders(ctx context.Context, orders []shop.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders`); err != nil {
		return err
	}
	for _, o := range orders {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, product_id, barcode, quantity, unit_price, status, date)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.ProductID, o.Barcode, o.Quantity, o.UnitPrice.String(),
			string(o.Status), o.Date.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) LoadOrders(ctx context.Context) ([]shop.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, barcode, quantity, unit_price, status, date
		FROM orders ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []shop.Order
	for rows.Next() {
		var (
			o           shop.Order
			price, date string
			status      string
		)
		if err := rows.Scan(&o.ID, &o.ProductID, &o.Barcode, &o.Quantity, &price, &status, &date); err != nil {
			return nil, err
		}
		if o.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if o.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, err
		}
		o.Status = shop.Status(status)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

var _ shop.Store = (*Store)(nil)
