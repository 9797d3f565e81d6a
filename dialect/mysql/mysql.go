// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mysql registers the mysql dialect.
// It uses the driver https://github.com/go-sql-driver/mysql.
package mysql

import (
	"database/sql"
	"log"
	"net/url"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/patrickascher/norm/dialect"
)

// init registers the mysql dialect.
func init() {
	if err := dialect.Register(&mysql{}); err != nil {
		log.Fatal(err)
	}
}

// New returns the mysql dialect.
func New() dialect.Dialect {
	return &mysql{}
}

type mysql struct{}

func (m *mysql) Name() string {
	return "mysql"
}

func (m *mysql) Schemes() []string {
	return []string{"mysql"}
}

func (m *mysql) Placeholder() dialect.Placeholder {
	return dialect.Placeholder{Char: "?"}
}

// Concat - mysql interprets || as logical or, so the CONCAT function is used.
func (m *mysql) Concat() dialect.Concat {
	return dialect.Concat{Symbol: "CONCAT", Function: true}
}

func (m *mysql) EscapeForLike(needle string) string {
	return dialect.EscapeDefault(needle)
}

// EscapeClause - mysql lexes backslash escapes inside string literals, so
// the backslash of the clause itself must be doubled.
func (m *mysql) EscapeClause() string {
	return `ESCAPE '\\'`
}

// SupportsReturning - mysql has no RETURNING clause, the orm falls back to
// sql.Result.LastInsertId.
func (m *mysql) SupportsReturning() bool {
	return false
}

func (m *mysql) AutoIncrement() string {
	return "BIGINT PRIMARY KEY AUTO_INCREMENT"
}

// Open converts the database url into the driver dsn
// (user:password@tcp(host:port)/dbname?parseTime=true).
func (m *mysql) Open(u *url.URL) (*sql.DB, error) {
	var dsn strings.Builder
	if u.User != nil {
		dsn.WriteString(u.User.Username())
		if pw, ok := u.User.Password(); ok {
			dsn.WriteString(":" + pw)
		}
		dsn.WriteString("@")
	}
	dsn.WriteString("tcp(" + u.Host + ")")
	dsn.WriteString(u.Path)

	// parseTime is needed to scan timestamps into time.Time.
	query := u.Query()
	query.Set("parseTime", "true")
	dsn.WriteString("?" + query.Encode())

	return sql.Open("mysql", dsn.String())
}
