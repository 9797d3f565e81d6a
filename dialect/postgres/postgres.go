// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package postgres registers the postgresql dialect.
// It uses the driver https://github.com/lib/pq.
package postgres

import (
	"database/sql"
	"log"
	"net/url"

	_ "github.com/lib/pq"
	"github.com/patrickascher/norm/dialect"
)

// init registers the postgresql dialect.
func init() {
	if err := dialect.Register(&postgres{}); err != nil {
		log.Fatal(err)
	}
}

// New returns the postgresql dialect.
func New() dialect.Dialect {
	return &postgres{}
}

type postgres struct{}

func (p *postgres) Name() string {
	return "postgresql"
}

func (p *postgres) Schemes() []string {
	return []string{"postgres", "postgresql"}
}

// Placeholder - lib/pq expects numbered $ placeholders.
func (p *postgres) Placeholder() dialect.Placeholder {
	return dialect.Placeholder{Char: "$", Numeric: true}
}

// Concat - postgresql concatenates with the || operator.
func (p *postgres) Concat() dialect.Concat {
	return dialect.Concat{Symbol: "||"}
}

func (p *postgres) EscapeForLike(needle string) string {
	return dialect.EscapeDefault(needle)
}

func (p *postgres) EscapeClause() string {
	return dialect.EscapeClauseDefault
}

func (p *postgres) SupportsReturning() bool {
	return true
}

func (p *postgres) AutoIncrement() string {
	return "BIGSERIAL PRIMARY KEY"
}

// Open passes the url on, lib/pq understands the postgres:// format.
func (p *postgres) Open(u *url.URL) (*sql.DB, error) {
	return sql.Open("postgres", u.String())
}
