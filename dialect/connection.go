// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dialect

import (
	"database/sql"

	"github.com/patrickascher/norm/logger"
	"github.com/patrickascher/norm/registry"
)

// Connection wraps a sql.DB with its dialect.
// If a logger is set, every executed statement will be logged with the
// needed duration and arguments on debug level.
type Connection struct {
	db      *sql.DB
	dialect Dialect
	log     logger.Manager
	name    string
}

// NewConnection wraps an existing database handle.
// Useful for tests (sqlmock) or if the handle was opened somewhere else.
func NewConnection(db *sql.DB, d Dialect, name string) *Connection {
	if name == "" {
		name = DefaultConnection
	}
	return &Connection{db: db, dialect: d, name: name}
}

// RegisterConnection registers the connection under its name.
func RegisterConnection(c *Connection) error {
	return registry.Set(registryConnectionPrefix+c.name, c)
}

// Name of the connection.
func (c *Connection) Name() string {
	return c.name
}

// DB returns the raw database handle.
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Dialect of the connection.
func (c *Connection) Dialect() Dialect {
	return c.dialect
}

// SetLogger enables the sql debug logging.
func (c *Connection) SetLogger(l logger.Manager) {
	c.log = l
}

// Exec runs a statement which returns no rows.
// The generic ? placeholders will be converted for the driver.
func (c *Connection) Exec(stmt string, args []interface{}) (sql.Result, error) {
	stmt = ReplacePlaceholders(stmt, c.dialect.Placeholder())

	var timer logger.Manager
	if c.log != nil {
		timer = c.log.WithTimer()
	}

	res, err := c.db.Exec(stmt, args...)
	if timer != nil {
		timer.WithFields(logger.Fields{"sql": stmt, "args": args}).Debug("exec")
	}
	return res, err
}

// QueryMaps runs a query and returns every row as a map keyed by the column
// alias. []byte values are converted to string, so the rows are comparable
// over different drivers.
func (c *Connection) QueryMaps(stmt string, args []interface{}) ([]map[string]interface{}, error) {
	stmt = ReplacePlaceholders(stmt, c.dialect.Placeholder())

	var timer logger.Manager
	if c.log != nil {
		timer = c.log.WithTimer()
	}

	rows, err := c.db.Query(stmt, args...)
	if timer != nil {
		timer.WithFields(logger.Fields{"sql": stmt, "args": args}).Debug("query")
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var rv []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		scan := make([]interface{}, len(cols))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		rv = append(rv, row)
	}

	return rv, rows.Err()
}

// QueryRowScan runs a query which is expected to return a single row and
// scans it into dest. sql.ErrNoRows will return if the result is empty.
func (c *Connection) QueryRowScan(stmt string, args []interface{}, dest ...interface{}) error {
	stmt = ReplacePlaceholders(stmt, c.dialect.Placeholder())

	var timer logger.Manager
	if c.log != nil {
		timer = c.log.WithTimer()
	}

	err := c.db.QueryRow(stmt, args...).Scan(dest...)
	if timer != nil {
		timer.WithFields(logger.Fields{"sql": stmt, "args": args}).Debug("query row")
	}
	return err
}

// Close the underlying database handle.
func (c *Connection) Close() error {
	return c.db.Close()
}
