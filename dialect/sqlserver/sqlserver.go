// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sqlserver registers the sqlserver dialect.
// It uses the driver https://github.com/denisenkom/go-mssqldb.
package sqlserver

import (
	"database/sql"
	"log"
	"net/url"

	_ "github.com/denisenkom/go-mssqldb"
	"github.com/patrickascher/norm/dialect"
)

// init registers the sqlserver dialect.
func init() {
	if err := dialect.Register(&sqlserver{}); err != nil {
		log.Fatal(err)
	}
}

// New returns the sqlserver dialect.
func New() dialect.Dialect {
	return &sqlserver{}
}

type sqlserver struct{}

func (s *sqlserver) Name() string {
	return "sqlserver"
}

func (s *sqlserver) Schemes() []string {
	return []string{"mssql", "sqlserver"}
}

// Placeholder - the driver expects numbered @p placeholders.
func (s *sqlserver) Placeholder() dialect.Placeholder {
	return dialect.Placeholder{Char: "@p", Numeric: true}
}

// Concat - sqlserver concatenates with the CONCAT function.
func (s *sqlserver) Concat() dialect.Concat {
	return dialect.Concat{Symbol: "CONCAT", Function: true}
}

func (s *sqlserver) EscapeForLike(needle string) string {
	return dialect.EscapeDefault(needle)
}

func (s *sqlserver) EscapeClause() string {
	return dialect.EscapeClauseDefault
}

func (s *sqlserver) SupportsReturning() bool {
	return false
}

func (s *sqlserver) AutoIncrement() string {
	return "BIGINT IDENTITY(1,1) PRIMARY KEY"
}

// Open passes the url on, the driver understands the sqlserver:// format.
func (s *sqlserver) Open(u *url.URL) (*sql.DB, error) {
	return sql.Open("sqlserver", u.String())
}
