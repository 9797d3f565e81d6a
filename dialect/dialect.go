// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package dialect holds the database specific parts of the orm.
// A dialect is registered by its url schemes and knows how to open a
// database handle, which placeholder the driver expects, how strings are
// concatenated and how a LIKE needle has to be escaped.
//
// Connections are opened from a database url and can be registered under a
// name, so entities can refer to them without passing handles around.
package dialect

import (
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/patrickascher/norm/registry"
)

// registry prefixes.
const (
	registryPrefix           = "dialect_"
	registryConnectionPrefix = "connection_"
)

// DefaultConnection is the name used when no connection name is given.
const DefaultConnection = "default"

// Error messages.
var (
	ErrScheme     = "dialect: unsupported database scheme %#v"
	ErrConnection = "dialect: connection %#v is not registered"
)

// Concat describes how the dialect concatenates strings.
// Either with an operator (a || b) or with a function call (CONCAT(a, b)).
type Concat struct {
	Symbol   string
	Function bool
}

// Placeholder describes the bind placeholder of the database driver.
// If Numeric is set, the placeholder gets a 1-based counter suffix ($1, $2, ...).
type Placeholder struct {
	Char    string
	Numeric bool
}

// Dialect interface.
type Dialect interface {
	// Name of the dialect (sqlite, mysql, postgresql, sqlserver).
	Name() string
	// Schemes which map to this dialect in a database url.
	Schemes() []string
	// Placeholder of the underlying driver.
	Placeholder() Placeholder
	// Concat style of the dialect.
	Concat() Concat
	// EscapeForLike escapes the wildcard characters of a LIKE needle.
	EscapeForLike(string) string
	// EscapeClause is the ESCAPE clause appended to a LIKE with an
	// escaped needle.
	EscapeClause() string
	// SupportsReturning reports if INSERT ... RETURNING can be used.
	SupportsReturning() bool
	// AutoIncrement is the column definition of the generated primary key.
	AutoIncrement() string
	// Open a database handle by the parsed url.
	Open(u *url.URL) (*sql.DB, error)
}

// Register a dialect under all of its schemes.
func Register(d Dialect) error {
	for _, scheme := range d.Schemes() {
		if err := registry.Set(registryPrefix+scheme, d); err != nil {
			return err
		}
	}
	return nil
}

// ByScheme returns the registered dialect for the given url scheme.
// Error will return if the scheme is not registered.
func ByScheme(scheme string) (Dialect, error) {
	d, err := registry.Get(registryPrefix + scheme)
	if err != nil {
		return nil, fmt.Errorf(ErrScheme, scheme)
	}
	return d.(Dialect), nil
}

// Open parses the database url, picks the dialect by the url scheme and
// opens a connection. The connection is not registered under a name.
func Open(rawurl string) (*Connection, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, fmt.Errorf("dialect: %w", err)
	}

	d, err := ByScheme(u.Scheme)
	if err != nil {
		return nil, err
	}

	db, err := d.Open(u)
	if err != nil {
		return nil, fmt.Errorf("dialect: %w", err)
	}

	return &Connection{db: db, dialect: d, name: DefaultConnection}, nil
}

// Connect opens the database url and registers the connection under the
// given name. If no name is given, dialect.DefaultConnection will be used.
func Connect(rawurl string, name ...string) (*Connection, error) {
	c, err := Open(rawurl)
	if err != nil {
		return nil, err
	}

	n := DefaultConnection
	if len(name) > 0 && name[0] != "" {
		n = name[0]
	}
	c.name = n

	if err := registry.Set(registryConnectionPrefix+n, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ConnectionByName returns a registered connection.
// Error will return if the connection name is unknown.
func ConnectionByName(name string) (*Connection, error) {
	c, err := registry.Get(registryConnectionPrefix + name)
	if err != nil {
		return nil, fmt.Errorf(ErrConnection, name)
	}
	return c.(*Connection), nil
}

// ReplacePlaceholders converts the generic ? placeholders of a compiled
// statement into the driver specific ones.
func ReplacePlaceholders(stmt string, p Placeholder) string {
	if p.Char == "?" && !p.Numeric {
		return stmt
	}

	var b strings.Builder
	n := 0
	for _, r := range stmt {
		if r == '?' {
			b.WriteString(p.Char)
			if p.Numeric {
				n++
				b.WriteString(strconv.Itoa(n))
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EscapeClauseDefault declares the backslash as LIKE escape character.
const EscapeClauseDefault = `ESCAPE '\'`

// EscapeDefault escapes the backslash, percent and underscore characters of
// a LIKE needle. The backslash must be replaced first.
func EscapeDefault(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
