package sqlstore_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"strings"
	"sync"
)

// fakeDB is a database/sql driver that accepts every statement, returns no
// rows and records what it was asked to do.
type fakeDB struct {
	mu        sync.Mutex
	execs     []string
	commits   int
	rollbacks int
}

func (db *fakeDB) open() *sql.DB { return sql.OpenDB(fakeConnector{db}) }

func (db *fakeDB) inserts(table string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, q := range db.execs {
		if strings.HasPrefix(q, "INSERT INTO "+table+" ") {
			n++
		}
	}
	return n
}

func (db *fakeDB) counts() (commits, rollbacks int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.commits, db.rollbacks
}

type fakeConnector struct{ db *fakeDB }

func (c fakeConnector) Connect(context.Context) (driver.Conn, error) { return &fakeConn{db: c.db}, nil }
func (c fakeConnector) Driver() driver.Driver                       { return fakeDriver{c.db} }

type fakeDriver struct{ db *fakeDB }

func (d fakeDriver) Open(string) (driver.Conn, error) { return &fakeConn{db: d.db}, nil }

type fakeConn struct{ db *fakeDB }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{db: c.db, query: query}, nil
}
func (c *fakeConn) Close() error              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) { return &fakeTx{db: c.db}, nil }

type fakeTx struct{ db *fakeDB }

func (t *fakeTx) Commit() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.commits++
	return nil
}

func (t *fakeTx) Rollback() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.rollbacks++
	return nil
}

type fakeStmt struct {
	db    *fakeDB
	query string
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec([]driver.Value) (driver.Result, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.execs = append(s.db.execs, s.query)
	return driver.RowsAffected(1), nil
}

func (s *fakeStmt) Query([]driver.Value) (driver.Rows, error) { return emptyRows{}, nil }

type emptyRows struct{}

func (emptyRows) Columns() []string {
	return []string{"id", "sku", "name", "stock_quantity", "vendor", "updated_at"}
}
func (emptyRows) Close() error               { return nil }
func (emptyRows) Next([]driver.Value) error { return io.EOF }
