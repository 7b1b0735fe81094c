// Package storetest provides an in-memory database/sql driver for exercising
// the store without a MySQL server. It records every statement and answers
// every query with the same canned rows.
package storetest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"sync"
)

type Statement struct {
	Query string
	Args  []driver.Value
	InTx  bool
}

type DB struct {
	// Columns and Rows are returned by every query.
	Columns []string
	Rows    [][]driver.Value

	// FailExec, when set, is consulted before recording an Exec.
	FailExec func(query string, args []driver.Value) error

	mu        sync.Mutex
	execs     []Statement
	queries   []Statement
	commits   int
	rollbacks int
}

// Open returns a *sql.DB backed by d.
func (d *DB) Open() *sql.DB {
	return sql.OpenDB(connector{d})
}

func (d *DB) Execs() []Statement {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Statement(nil), d.execs...)
}

func (d *DB) Queries() []Statement {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Statement(nil), d.queries...)
}

func (d *DB) Commits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commits
}

func (d *DB) Rollbacks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rollbacks
}

type connector struct {
	db *DB
}

func (c connector) Connect(context.Context) (driver.Conn, error) {
	return &conn{db: c.db}, nil
}

func (c connector) Driver() driver.Driver {
	return fakeDriver(c)
}

type fakeDriver struct {
	db *DB
}

func (d fakeDriver) Open(string) (driver.Conn, error) {
	return &conn{db: d.db}, nil
}

type conn struct {
	db   *DB
	inTx bool
}

func (c *conn) Prepare(query string) (driver.Stmt, error) {
	return &stmt{conn: c, query: query}, nil
}

func (c *conn) Close() error {
	return nil
}

func (c *conn) Begin() (driver.Tx, error) {
	c.inTx = true
	return &tx{conn: c}, nil
}

type tx struct {
	conn *conn
}

func (t *tx) Commit() error {
	t.conn.inTx = false
	t.conn.db.mu.Lock()
	defer t.conn.db.mu.Unlock()
	t.conn.db.commits++
	return nil
}

func (t *tx) Rollback() error {
	t.conn.inTx = false
	t.conn.db.mu.Lock()
	defer t.conn.db.mu.Unlock()
	t.conn.db.rollbacks++
	return nil
}

type stmt struct {
	conn  *conn
	query string
}

func (s *stmt) Close() error {
	return nil
}

func (s *stmt) NumInput() int {
	return -1
}

func (s *stmt) Exec(args []driver.Value) (driver.Result, error) {
	db := s.conn.db
	if db.FailExec != nil {
		if err := db.FailExec(s.query, args); err != nil {
			return nil, err
		}
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	db.execs = append(db.execs, Statement{Query: s.query, Args: args, InTx: s.conn.inTx})
	return driver.RowsAffected(1), nil
}

func (s *stmt) Query(args []driver.Value) (driver.Rows, error) {
	db := s.conn.db

	db.mu.Lock()
	defer db.mu.Unlock()
	db.queries = append(db.queries, Statement{Query: s.query, Args: args, InTx: s.conn.inTx})
	return &rows{columns: db.Columns, data: db.Rows}, nil
}

type rows struct {
	columns []string
	data    [][]driver.Value
	pos     int
}

func (r *rows) Columns() []string {
	return r.columns
}

func (r *rows) Close() error {
	return nil
}

func (r *rows) Next(dest []driver.Value) error {
	if r.pos == len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.pos])
	r.pos++
	return nil
}
