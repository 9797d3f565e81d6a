// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package catalog

import (
	"fmt"
	"strings"
)

// Raw marks a default value which is rendered into the DDL as-is
// (eg CURRENT_TIMESTAMP).
type Raw string

// sqlType returns the database type of the storage type.
func (c Column) sqlType() string {
	switch c.Type {
	case Bool:
		return "BOOLEAN"
	case Integer:
		return "INTEGER"
	case Float:
		return "REAL"
	case Text:
		return "TEXT"
	case Timestamp:
		return "TIMESTAMP"
	case JSON:
		return "TEXT"
	case Enum:
		return "TEXT"
	case Reference:
		return "INTEGER"
	}
	return "TEXT"
}

// DDL returns the column definitions of the logical column.
// A polymorphic relation creates two definitions (foo_table, foo_id).
func (c Column) DDL() []string {
	var rv []string

	if d := c.DiscriminatorColumn(); d != "" {
		rv = append(rv, d+" TEXT")
	}

	def := c.PhysicalColumn() + " "
	if c.Reference && c.Collection {
		// id lists are stored as json text.
		def += "TEXT"
	} else {
		def += c.sqlType()
	}

	if c.Type == Enum && len(c.Enum) > 0 {
		members := make([]string, len(c.Enum))
		for i, m := range c.Enum {
			members[i] = quoteLiteral(m)
		}
		def += fmt.Sprintf(" CHECK (%s IN (%s))", c.Name, strings.Join(members, ", "))
	}

	if c.Required {
		def += " NOT NULL"
	}

	if c.Default != nil {
		def += " DEFAULT " + renderDefault(c.Default)
	}

	return append(rv, def)
}

// renderDefault renders the default value as sql literal.
// catalog.Raw values are rendered without quoting.
func renderDefault(v interface{}) string {
	switch d := v.(type) {
	case Raw:
		return string(d)
	case string:
		return quoteLiteral(d)
	case bool:
		if d {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(d)
	}
}

// quoteLiteral quotes a string literal for the DDL.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
