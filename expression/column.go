// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package expression

// Column references a physical column of a (joined) table.
// It renders as alias.column and carries no bind values.
type Column struct {
	Table *Table
	Name  string
}

func (c *Column) SQL() string {
	return c.Table.Alias() + "." + c.Name
}

func (c *Column) Values() []interface{} {
	return nil
}

// Eq compares for equality, nil compares with IS NULL.
func (c *Column) Eq(v interface{}) Expression {
	if v == nil {
		return c.IsNull()
	}
	return Nary{Symbol: "=", Arguments: []interface{}{c, v}}
}

// Neq compares for inequality, nil compares with IS NOT NULL.
func (c *Column) Neq(v interface{}) Expression {
	if v == nil {
		return c.IsNotNull()
	}
	return Nary{Symbol: "!=", Arguments: []interface{}{c, v}}
}

func (c *Column) Lt(v interface{}) Expression {
	return Nary{Symbol: "<", Arguments: []interface{}{c, v}}
}

func (c *Column) Lte(v interface{}) Expression {
	return Nary{Symbol: "<=", Arguments: []interface{}{c, v}}
}

func (c *Column) Gt(v interface{}) Expression {
	return Nary{Symbol: ">", Arguments: []interface{}{c, v}}
}

func (c *Column) Gte(v interface{}) Expression {
	return Nary{Symbol: ">=", Arguments: []interface{}{c, v}}
}

// In expands the values into a placeholder list: (col IN (?, ?)).
func (c *Column) In(values ...interface{}) Expression {
	return Nary{Symbol: "IN", Arguments: []interface{}{c, values}}
}

// Between spans an inclusive range. A low bound above the high bound
// keeps the always-false range.
func (c *Column) Between(low, high interface{}) Expression {
	return And(c.Gte(low), c.Lte(high))
}

// Is compares with the IS operator, nil renders IS NULL.
func (c *Column) Is(v interface{}) Expression {
	if v == nil {
		return c.IsNull()
	}
	return Nary{Symbol: "IS", Arguments: []interface{}{c, v}}
}

// IsNot compares with the IS NOT operator, nil renders IS NOT NULL.
func (c *Column) IsNot(v interface{}) Expression {
	if v == nil {
		return c.IsNotNull()
	}
	return Nary{Symbol: "IS NOT", Arguments: []interface{}{c, v}}
}

func (c *Column) IsNull() Expression {
	return Unary{Symbol: "IS NULL", Argument: c, Postfix: true}
}

func (c *Column) IsNotNull() Expression {
	return Unary{Symbol: "IS NOT NULL", Argument: c, Postfix: true}
}

// IEq compares case-insensitive on equality. Textual values compare both
// sides lowered, everything else falls back to Eq.
func (c *Column) IEq(v interface{}) Expression {
	if s, ok := v.(string); ok {
		lowered := Func{Symbol: "LOWER", Arguments: []interface{}{s}}
		return Nary{Symbol: "=", Arguments: []interface{}{c.Lower(), lowered}}
	}
	return c.Eq(v)
}

// Like matches a raw pattern, wildcards are not escaped.
func (c *Column) Like(pattern string) Expression {
	return Like{Haystack: c, Needle: pattern}
}

// ILike matches a raw pattern case-insensitive.
func (c *Column) ILike(pattern string) Expression {
	return Like{Haystack: c, Needle: pattern, CaseInsensitive: true}
}

// Contains matches the needle anywhere, wildcards in the needle are
// escaped.
func (c *Column) Contains(needle string) Expression {
	return Like{Haystack: c, Needle: needle, FuzzyStart: true, FuzzyEnd: true, EscapeNeedle: true}
}

// IContains matches the needle anywhere case-insensitive.
func (c *Column) IContains(needle string) Expression {
	return Like{Haystack: c, Needle: needle, FuzzyStart: true, FuzzyEnd: true, CaseInsensitive: true, EscapeNeedle: true}
}

// StartsWith matches the needle at the beginning.
func (c *Column) StartsWith(needle string) Expression {
	return Like{Haystack: c, Needle: needle, FuzzyEnd: true, EscapeNeedle: true}
}

// IStartsWith matches the needle at the beginning case-insensitive.
func (c *Column) IStartsWith(needle string) Expression {
	return Like{Haystack: c, Needle: needle, FuzzyEnd: true, CaseInsensitive: true, EscapeNeedle: true}
}

// EndsWith matches the needle at the end.
func (c *Column) EndsWith(needle string) Expression {
	return Like{Haystack: c, Needle: needle, FuzzyStart: true, EscapeNeedle: true}
}

// IEndsWith matches the needle at the end case-insensitive.
func (c *Column) IEndsWith(needle string) Expression {
	return Like{Haystack: c, Needle: needle, FuzzyStart: true, CaseInsensitive: true, EscapeNeedle: true}
}

// arithmetic operators.

func (c *Column) Add(v interface{}) Expression {
	return Nary{Symbol: "+", Arguments: []interface{}{c, v}}
}

func (c *Column) Sub(v interface{}) Expression {
	return Nary{Symbol: "-", Arguments: []interface{}{c, v}}
}

func (c *Column) Mul(v interface{}) Expression {
	return Nary{Symbol: "*", Arguments: []interface{}{c, v}}
}

func (c *Column) Div(v interface{}) Expression {
	return Nary{Symbol: "/", Arguments: []interface{}{c, v}}
}

func (c *Column) Mod(v interface{}) Expression {
	return Nary{Symbol: "%", Arguments: []interface{}{c, v}}
}

func (c *Column) Pow(v interface{}) Expression {
	return Func{Symbol: "POW", Arguments: []interface{}{c, v}}
}

// string functions.

func (c *Column) Lower() Expression {
	return Func{Symbol: "LOWER", Arguments: []interface{}{c}}
}

func (c *Column) Upper() Expression {
	return Func{Symbol: "UPPER", Arguments: []interface{}{c}}
}

func (c *Column) Trim() Expression {
	return Func{Symbol: "TRIM", Arguments: []interface{}{c}}
}

// Asc orders ascending.
func (c *Column) Asc() *Order {
	return &Order{Column: c}
}

// Desc orders descending.
func (c *Column) Desc() *Order {
	return &Order{Column: c, Desc: true}
}

// Order is an ORDER BY entry. Ascending renders as the plain column.
type Order struct {
	Column *Column
	Desc   bool
}

func (o *Order) SQL() string {
	if o.Desc {
		return o.Column.SQL() + " DESC"
	}
	return o.Column.SQL()
}

func (o *Order) Values() []interface{} {
	return nil
}
