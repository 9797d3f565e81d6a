// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sqlite registers the sqlite dialect.
// It uses the cgo-free driver https://modernc.org/sqlite.
package sqlite

import (
	"database/sql"
	"log"
	"net/url"
	"strings"

	"github.com/patrickascher/norm/dialect"
	_ "modernc.org/sqlite"
)

// init registers the sqlite dialect.
func init() {
	if err := dialect.Register(&sqlite{}); err != nil {
		log.Fatal(err)
	}
}

// New returns the sqlite dialect.
// Mainly needed for tests in combination with dialect.NewConnection.
func New() dialect.Dialect {
	return &sqlite{}
}

type sqlite struct{}

func (s *sqlite) Name() string {
	return "sqlite"
}

func (s *sqlite) Schemes() []string {
	return []string{"sqlite", "sqlite3"}
}

func (s *sqlite) Placeholder() dialect.Placeholder {
	return dialect.Placeholder{Char: "?"}
}

// Concat - sqlite concatenates with the || operator.
func (s *sqlite) Concat() dialect.Concat {
	return dialect.Concat{Symbol: "||"}
}

func (s *sqlite) EscapeForLike(needle string) string {
	return dialect.EscapeDefault(needle)
}

func (s *sqlite) EscapeClause() string {
	return dialect.EscapeClauseDefault
}

func (s *sqlite) SupportsReturning() bool {
	return true
}

func (s *sqlite) AutoIncrement() string {
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// Open the database file. The url sqlite://app.db points to the file app.db,
// sqlite::memory: opens an in-memory database.
func (s *sqlite) Open(u *url.URL) (*sql.DB, error) {
	dsn := u.Opaque
	if dsn == "" {
		dsn = strings.TrimPrefix(u.Host+u.Path, "/")
	}
	return sql.Open("sqlite", dsn)
}
