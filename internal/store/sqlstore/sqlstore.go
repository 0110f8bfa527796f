// Package sqlstore is a Store on database/sql for PostgreSQL (pgx) and
// MySQL (go-sql-driver).
package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/stocksync/internal/store"
	"github.com/agentstation/stocksync/pkg/errors"
	"github.com/agentstation/stocksync/pkg/inventory"
)

const productColumns = "id, sku, name, stock_quantity, vendor, updated_at"

const eventColumns = "id, sku, vendor, previous_quantity, occurred_at"

// Store persists products and events in a SQL database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	writer  chan struct{}
}

var _ store.Store = (*Store)(nil)

// Open connects using driver ("postgres" or "mysql") and dsn.
func Open(driver, dsn string) (*Store, error) {
	d, err := DialectFor(driver)
	if err != nil {
		return nil, errors.NewConfigError("store", err.Error(), err)
	}
	db, err := d.Open(dsn)
	if err != nil {
		return nil, errors.NewConfigError("store", "invalid dsn", err)
	}
	return New(db, d), nil
}

// New wraps an existing connection pool.
func New(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, dialect: d, writer: make(chan struct{}, 1)}
}

// DB exposes the underlying pool.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.WrapStore("migrate", "", "", err)
		}
	}
	return nil
}

// Begin implements store.Store.
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapStore("begin", "", "", err)
	}
	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.WrapStore("begin", "", "", ctx.Err())
	}
	// database/sql rolls a Tx back when its context ends; a started batch
	// must run to commit or failure.
	sqlTx, err := s.db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		<-s.writer
		return nil, errors.WrapStore("begin", "", "", err)
	}
	return &tx{s: s, tx: sqlTx}, nil
}

// ListProducts implements store.Store.
func (s *Store) ListProducts(ctx context.Context) ([]inventory.Product, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products ORDER BY vendor, sku")
	if err != nil {
		return nil, errors.WrapStore("list", "", "", err)
	}
	defer func() { _ = rows.Close() }()

	out := []inventory.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.WrapStore("list", "", "", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapStore("list", "", "", err)
	}
	return out, nil
}

// ListStockOuts implements store.Store.
func (s *Store) ListStockOuts(ctx context.Context, f store.EventFilter) ([]inventory.StockOutEvent, error) {
	var (
		where []string
		args  []any
	)
	if f.Vendor != "" {
		where = append(where, "vendor = ?")
		args = append(args, f.Vendor)
	}
	if f.SKU != "" {
		where = append(where, "sku = ?")
		args = append(args, f.SKU)
	}
	if !f.Since.IsZero() {
		where = append(where, "occurred_at >= ?")
		args = append(args, f.Since.UTC())
	}

	query := "SELECT " + eventColumns + " FROM stock_out_events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY occurred_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, errors.WrapStore("list", f.SKU, f.Vendor, err)
	}
	defer func() { _ = rows.Close() }()

	out := []inventory.StockOutEvent{}
	for rows.Next() {
		var e inventory.StockOutEvent
		if err := rows.Scan(&e.ID, &e.SKU, &e.Vendor, &e.PreviousQuantity, &e.OccurredAt); err != nil {
			return nil, errors.WrapStore("list", f.SKU, f.Vendor, err)
		}
		e.OccurredAt = e.OccurredAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapStore("list", f.SKU, f.Vendor, err)
	}
	return out, nil
}

// Ping implements store.Store.
func (s *Store) Ping(ctx context.Context) error {
	return errors.WrapStore("ping", "", "", s.db.PingContext(ctx))
}

// Close implements store.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

type tx struct {
	s    *Store
	tx   *sql.Tx
	done bool
}

func (t *tx) FindBySKUAndVendor(ctx context.Context, sku, vendor string) (*inventory.Product, error) {
	query := t.s.dialect.Rebind("SELECT " + productColumns + " FROM products WHERE sku = ? AND vendor = ? FOR UPDATE")
	p, err := scanProduct(t.tx.QueryRowContext(ctx, query, sku, vendor))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapStore("find", sku, vendor, err)
	}
	return p, nil
}

func (t *tx) SaveProduct(ctx context.Context, p *inventory.Product) error {
	updatedAt := p.UpdatedAt.UTC()
	if p.ID == uuid.Nil {
		id := uuid.New()
		query := t.s.dialect.Rebind("INSERT INTO products (" + productColumns + ") VALUES (?, ?, ?, ?, ?, ?)")
		if _, err := t.tx.ExecContext(ctx, query, id, p.SKU, p.Name, nullableQty(p.StockQuantity), p.Vendor, updatedAt); err != nil {
			return errors.WrapStore("save", p.SKU, p.Vendor, err)
		}
		p.ID = id
		return nil
	}

	query := t.s.dialect.Rebind("UPDATE products SET name = ?, stock_quantity = ?, updated_at = ? WHERE id = ?")
	res, err := t.tx.ExecContext(ctx, query, p.Name, nullableQty(p.StockQuantity), updatedAt, p.ID)
	if err != nil {
		return errors.WrapStore("save", p.SKU, p.Vendor, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 && t.s.dialect.Name != MySQL.Name {
		// MySQL reports zero affected rows when nothing changed.
		return errors.NewStoreError("save", p.SKU, p.Vendor, errors.NewNotFoundError("product", p.ID.String()))
	}
	return nil
}

func (t *tx) AppendStockOut(ctx context.Context, e *inventory.StockOutEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	query := t.s.dialect.Rebind("INSERT INTO stock_out_events (" + eventColumns + ") VALUES (?, ?, ?, ?, ?)")
	if _, err := t.tx.ExecContext(ctx, query, e.ID, e.SKU, e.Vendor, e.PreviousQuantity, e.OccurredAt.UTC()); err != nil {
		return errors.WrapStore("append", e.SKU, e.Vendor, err)
	}
	return nil
}

func (t *tx) Commit() error {
	if t.done {
		return errors.NewStoreError("commit", "", "", sql.ErrTxDone)
	}
	t.done = true
	defer func() { <-t.s.writer }()
	return errors.WrapStore("commit", "", "", t.tx.Commit())
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	defer func() { <-t.s.writer }()
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return errors.WrapStore("rollback", "", "", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*inventory.Product, error) {
	var (
		p   inventory.Product
		qty sql.NullInt64
		at  time.Time
	)
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &qty, &p.Vendor, &at); err != nil {
		return nil, err
	}
	if qty.Valid {
		q := int(qty.Int64)
		p.StockQuantity = &q
	}
	p.UpdatedAt = at.UTC()
	return &p, nil
}

func nullableQty(q *int) sql.NullInt64 {
	if q == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*q), Valid: true}
}
