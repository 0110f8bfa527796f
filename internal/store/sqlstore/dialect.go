package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// Dialect captures the differences between the supported databases.
type Dialect struct {
	Name string
	// numbered placeholders ($1) instead of ?
	numbered bool
	schema   []string
}

// Postgres is the dialect for PostgreSQL via pgx.
var Postgres = Dialect{
	Name:     "postgres",
	numbered: true,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS products (
			id             UUID PRIMARY KEY,
			sku            TEXT NOT NULL,
			name           TEXT NOT NULL,
			stock_quantity INTEGER,
			vendor         TEXT NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL,
			CONSTRAINT uk_sku_vendor UNIQUE (sku, vendor)
		)`,
		`CREATE TABLE IF NOT EXISTS stock_out_events (
			id                UUID PRIMARY KEY,
			sku               TEXT NOT NULL,
			vendor            TEXT NOT NULL,
			previous_quantity INTEGER NOT NULL CHECK (previous_quantity > 0),
			occurred_at       TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sku_vendor_time ON stock_out_events (sku, vendor, occurred_at)`,
	},
}

// MySQL is the dialect for MySQL via go-sql-driver.
var MySQL = Dialect{
	Name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS products (
			id             CHAR(36) NOT NULL PRIMARY KEY,
			sku            VARCHAR(191) NOT NULL,
			name           VARCHAR(512) NOT NULL,
			stock_quantity INT NULL,
			vendor         VARCHAR(191) NOT NULL,
			updated_at     DATETIME(6) NOT NULL,
			UNIQUE KEY uk_sku_vendor (sku, vendor)
		)`,
		`CREATE TABLE IF NOT EXISTS stock_out_events (
			id                CHAR(36) NOT NULL PRIMARY KEY,
			sku               VARCHAR(191) NOT NULL,
			vendor            VARCHAR(191) NOT NULL,
			previous_quantity INT NOT NULL,
			occurred_at       DATETIME(6) NOT NULL,
			INDEX idx_sku_vendor_time (sku, vendor, occurred_at)
		)`,
	},
}

// DialectFor returns the dialect registered under driver.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "pgx":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported sql driver %q", driver)
	}
}

// Rebind rewrites ? placeholders for dialects that number them.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Open connects to the database described by dsn.
func (d Dialect) Open(dsn string) (*sql.DB, error) {
	switch d.Name {
	case Postgres.Name:
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, err
		}
		return stdlib.OpenDB(*cfg), nil
	case MySQL.Name:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, err
		}
		// Timestamps are scanned into time.Time and stored in UTC.
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		connector, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, err
		}
		return sql.OpenDB(connector), nil
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", d.Name)
	}
}
