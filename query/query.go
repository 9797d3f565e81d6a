// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package query reads and writes entities.
//
// A query is an immutable builder, every mutator returns a copy. The
// compiled statement selects every column of the root and of all joined
// relations, the rows are hydrated back into entity instances:
//
//	var books []*Book
//	err := query.New(&Book{}).
//		Select("author").
//		Filter(map[string]interface{}{"title__icontains": "go"}).
//		OrderBy("-id").
//		Limit(10).
//		All(&books)
//
// The package also registers the eager strategy which backs the crud
// functions of the entity package.
package query

import (
	"fmt"
	"strings"

	"github.com/patrickascher/norm/entity"
	"github.com/patrickascher/norm/expression"
)

// Error messages.
var (
	ErrNoTable        = "query: cannot resolve path %#v, %#v is not a relation"
	ErrForeignRoot    = "query: expression root is %s but the query is for %s"
	ErrTarget         = "query: unsupported target %#v"
	ErrSoftDelete     = "query: %s has no soft-delete mixin"
	ErrLookup         = "query: unknown lookup %#v in %#v"
	ErrLookupPath     = "query: filter key %#v must include a field path"
	ErrRelationLookup = "query: relation %#v allows only the exact and isnull lookups"
)

// Query is an immutable statement builder for one entity.
type Query struct {
	def  *entity.Definition
	root *expression.Table
	err  error

	selects        []interface{}
	where          []expression.Expression
	orders         []expression.Expression
	limit          int
	offset         int
	includeDeleted bool
}

// New creates a query for the entity.
// Errors of the definition lookup stick to the query and surface on the
// first terminal call.
func New(v entity.Interface) *Query {
	q := &Query{limit: -1, offset: -1}
	d, err := entity.DefinitionOf(v)
	if err != nil {
		q.err = err
		return q
	}
	q.def = d
	q.root = expression.NewTable(d)
	return q
}

// clone copies the query state, the mutators never share slices.
func (q *Query) clone() *Query {
	c := *q
	c.selects = append([]interface{}{}, q.selects...)
	c.where = append([]expression.Expression{}, q.where...)
	c.orders = append([]expression.Expression{}, q.orders...)
	return &c
}

// Err returns the sticky builder error.
func (q *Query) Err() error {
	return q.err
}

// Resolve a target into a column or table of this query.
// Strings are dotted paths from the root ("author.name", "author__name"),
// expressions must belong to the query's root table.
func (q *Query) Resolve(target interface{}) (interface{}, error) {
	switch t := target.(type) {
	case string:
		return q.root.ResolvePath(strings.ReplaceAll(t, "__", "."))
	case *expression.Column:
		if err := q.validateRoot(t); err != nil {
			return nil, err
		}
		return t, nil
	case *expression.Table:
		if err := q.validateRoot(t); err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, fmt.Errorf(ErrTarget, target)
}

// validateRoot checks that the expression was resolved from this query's
// root table and not from a different entity.
func (q *Query) validateRoot(e interface{}) error {
	var t *expression.Table
	switch n := e.(type) {
	case *expression.Column:
		t = n.Table
	case *expression.Table:
		t = n
	default:
		return nil
	}
	root := t.Root()
	if root.Def != q.def {
		return fmt.Errorf(ErrForeignRoot, root.Def.Name, q.def.Name)
	}
	return nil
}

// Select adds preload targets. Relations named here are joined and
// hydrated, everything else stays a lazy reference. Without targets only
// the root columns are selected.
func (q *Query) Select(targets ...interface{}) *Query {
	if q.err != nil {
		return q
	}
	c := q.clone()
	for _, target := range targets {
		resolved, err := c.Resolve(target)
		if err != nil {
			c.err = err
			return c
		}
		c.selects = append(c.selects, resolved)
	}
	return c
}

// Where adds conditions, all conditions are ANDed.
func (q *Query) Where(exprs ...expression.Expression) *Query {
	if q.err != nil {
		return q
	}
	c := q.clone()
	for _, e := range exprs {
		if err := c.validateWhere(e); err != nil {
			c.err = err
			return c
		}
		c.where = append(c.where, e)
	}
	return c
}

// validateWhere walks the expression tree and checks every column and
// table against the query root.
func (q *Query) validateWhere(e interface{}) error {
	switch n := e.(type) {
	case *expression.Column, *expression.Table:
		return q.validateRoot(n)
	case *expression.Order:
		return q.validateWhere(n.Column)
	case expression.Nary:
		for _, a := range n.Arguments {
			if err := q.validateWhere(a); err != nil {
				return err
			}
		}
	case expression.Func:
		for _, a := range n.Arguments {
			if err := q.validateWhere(a); err != nil {
				return err
			}
		}
	case expression.Unary:
		return q.validateWhere(n.Argument)
	case expression.Like:
		return q.validateWhere(n.Haystack)
	}
	return nil
}

// OrderBy sets the ORDER BY targets. Strings with a leading "-" order
// descending, relations normalize to their primary key. Without targets
// the entity default order is used.
func (q *Query) OrderBy(targets ...interface{}) *Query {
	if q.err != nil {
		return q
	}
	c := q.clone()
	for _, target := range targets {
		order, err := c.resolveOrder(target)
		if err != nil {
			c.err = err
			return c
		}
		c.orders = append(c.orders, order)
	}
	return c
}

func (q *Query) resolveOrder(target interface{}) (expression.Expression, error) {
	if o, ok := target.(*expression.Order); ok {
		if err := q.validateWhere(o); err != nil {
			return nil, err
		}
		return o, nil
	}

	desc := false
	if s, ok := target.(string); ok && strings.HasPrefix(s, "-") {
		desc = true
		target = strings.TrimPrefix(s, "-")
	}

	resolved, err := q.Resolve(target)
	if err != nil {
		return nil, err
	}
	if t, ok := resolved.(*expression.Table); ok {
		pk, err := t.Resolve(t.Def.Primary().Name)
		if err != nil {
			return nil, err
		}
		resolved = pk
	}
	col := resolved.(*expression.Column)
	if desc {
		return col.Desc(), nil
	}
	return col.Asc(), nil
}

// Limit sets the maximum row count of the root entity.
func (q *Query) Limit(limit int) *Query {
	c := q.clone()
	c.limit = limit
	return c
}

// Offset skips the first rows of the root entity.
func (q *Query) Offset(offset int) *Query {
	c := q.clone()
	c.offset = offset
	return c
}

// IncludeDeleted disables the soft-delete filter of the query.
// Errors on entities without the soft-delete mixin.
func (q *Query) IncludeDeleted() *Query {
	if q.err != nil {
		return q
	}
	c := q.clone()
	if !c.def.SoftDelete {
		c.err = fmt.Errorf(ErrSoftDelete, c.def.Name)
		return c
	}
	c.includeDeleted = true
	return c
}
