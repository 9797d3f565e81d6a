// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package expression builds sql fragments as a tree.
//
// Every node renders its sql with ? placeholders and returns the bind
// values in the same order, so that the placeholder count of SQL() always
// matches len(Values()). Columns and tables are resolved against an entity
// definition, operators compose the nodes:
//
//	col, _ := table.Resolve("name")
//	col.(*expression.Column).Eq("Frisch")
//
// renders "(authors.name = ?)" with the value "Frisch".
package expression

import (
	"reflect"
	"strings"

	"github.com/patrickascher/norm/catalog"
	"github.com/patrickascher/norm/dialect"
	"github.com/patrickascher/norm/entity"
)

// AliasSeparator joins the path segments of join aliases and select
// column aliases (authors____book, book____title).
const AliasSeparator = "____"

// Expression is a sql fragment with its bind values.
// The number of ? placeholders in SQL() equals len(Values()).
type Expression interface {
	SQL() string
	Values() []interface{}
}

// argSQL renders an operator argument. Sub-expressions render their own
// sql, a slice expands into a placeholder list, everything else binds as
// a single placeholder.
func argSQL(a interface{}) string {
	if e, ok := a.(Expression); ok {
		return e.SQL()
	}
	if vs, ok := asList(a); ok {
		return "(" + strings.TrimSuffix(strings.Repeat("?, ", len(vs)), ", ") + ")"
	}
	return "?"
}

// argValues collects the bind values of an operator argument.
// Entities bind as their primary key.
func argValues(a interface{}) []interface{} {
	if e, ok := a.(Expression); ok {
		return e.Values()
	}
	if i, ok := a.(entity.Interface); ok {
		return []interface{}{i.PrimaryKey()}
	}
	if vs, ok := asList(a); ok {
		var rv []interface{}
		for _, v := range vs {
			rv = append(rv, argValues(v)...)
		}
		return rv
	}
	return []interface{}{a}
}

// asList expands slice arguments (IN lists). Strings and byte slices are
// scalar values.
func asList(a interface{}) ([]interface{}, bool) {
	if a == nil {
		return nil, false
	}
	if _, ok := a.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(a)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	list := make([]interface{}, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	return list, true
}

// Nary renders its arguments joined by an infix symbol: (a AND b AND c).
type Nary struct {
	Symbol    string
	Arguments []interface{}
}

func (n Nary) SQL() string {
	parts := make([]string, len(n.Arguments))
	for i, a := range n.Arguments {
		parts[i] = argSQL(a)
	}
	return "(" + strings.Join(parts, " "+n.Symbol+" ") + ")"
}

func (n Nary) Values() []interface{} {
	var rv []interface{}
	for _, a := range n.Arguments {
		rv = append(rv, argValues(a)...)
	}
	return rv
}

// Unary renders its symbol before or after the argument:
// NOT (a) or a IS NULL.
type Unary struct {
	Symbol   string
	Argument interface{}
	Postfix  bool
}

func (u Unary) SQL() string {
	if u.Postfix {
		return argSQL(u.Argument) + " " + u.Symbol
	}
	return u.Symbol + " " + argSQL(u.Argument)
}

func (u Unary) Values() []interface{} {
	return argValues(u.Argument)
}

// Func renders a function call: SYMBOL(a, b).
type Func struct {
	Symbol    string
	Arguments []interface{}
}

func (f Func) SQL() string {
	parts := make([]string, len(f.Arguments))
	for i, a := range f.Arguments {
		parts[i] = argSQL(a)
	}
	return f.Symbol + "(" + strings.Join(parts, ", ") + ")"
}

func (f Func) Values() []interface{} {
	var rv []interface{}
	for _, a := range f.Arguments {
		rv = append(rv, argValues(a)...)
	}
	return rv
}

// And combines the expressions with AND.
func And(args ...interface{}) Expression {
	return Nary{Symbol: "AND", Arguments: args}
}

// Or combines the expressions with OR.
func Or(args ...interface{}) Expression {
	return Nary{Symbol: "OR", Arguments: args}
}

// Not negates the expression.
func Not(arg interface{}) Expression {
	return Unary{Symbol: "NOT", Argument: arg}
}

// concatSQL joins the parts in the dialect's concat style.
// A single part needs no concatenation.
func concatSQL(parts []string, c dialect.Concat) string {
	if len(parts) == 1 {
		return parts[0]
	}
	if c.Function {
		return c.Symbol + "(" + strings.Join(parts, ", ") + ")"
	}
	return "(" + strings.Join(parts, " "+c.Symbol+" ") + ")"
}

// dialectOf resolves the dialect through the column's table connection.
// Without a registered connection the sqlite defaults are used, so
// expressions render in tests without a database.
func dialectOf(a interface{}) dialect.Dialect {
	var t *Table
	switch n := a.(type) {
	case *Column:
		t = n.Table
	case *Table:
		t = n
	default:
		return nil
	}
	for t != nil && t.Def == nil {
		t = t.Parent
	}
	if t == nil {
		return nil
	}
	c, err := dialect.ConnectionByName(t.Def.Connection)
	if err != nil {
		return nil
	}
	return c.Dialect()
}

// concatOf returns the concat style for the haystack's dialect.
func concatOf(a interface{}) dialect.Concat {
	if d := dialectOf(a); d != nil {
		return d.Concat()
	}
	return dialect.Concat{Symbol: "||"}
}

// escapeOf escapes a LIKE needle with the haystack's dialect.
func escapeOf(a interface{}, needle string) string {
	if d := dialectOf(a); d != nil {
		return d.EscapeForLike(needle)
	}
	return dialect.EscapeDefault(needle)
}

// escapeClauseOf returns the ESCAPE clause for the haystack's dialect.
func escapeClauseOf(a interface{}) string {
	if d := dialectOf(a); d != nil {
		return d.EscapeClause()
	}
	return dialect.EscapeClauseDefault
}

// referenceID extracts the bind value of a relation comparison.
func referenceID(v interface{}) (int64, bool) {
	switch id := v.(type) {
	case entity.Interface:
		return id.PrimaryKey(), true
	case catalog.Identifier:
		return id.PrimaryKey(), true
	case int64:
		return id, true
	case int:
		return int64(id), true
	}
	return 0, false
}
