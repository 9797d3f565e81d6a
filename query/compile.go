// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/patrickascher/norm/expression"
	"github.com/patrickascher/norm/slicer"
)

// Error messages.
var (
	ErrCollectionJoin = "query: collection relation %#v cannot be joined, preload it instead"
	ErrWriteJoin      = "query: write statements cannot condition on joined relations"
)

// SQL compiles the select statement. Compiling the same query twice
// yields the identical statement.
func (q *Query) SQL() (string, error) {
	stmt, _, err := q.compileSelect()
	return stmt, err
}

// Values returns the bind values of SQL in placeholder order.
func (q *Query) Values() ([]interface{}, error) {
	_, values, err := q.compileSelect()
	return values, err
}

// compileSelect builds the full select with joins and hydration aliases.
// LIMIT and OFFSET are never applied to the joined projection, they
// paginate a root-id subquery instead.
func (q *Query) compileSelect() (string, []interface{}, error) {
	if q.err != nil {
		return "", nil, q.err
	}

	tables, err := q.joinTables()
	if err != nil {
		return "", nil, err
	}

	var selects []string
	var from []string
	for _, t := range tables {
		selects = append(selects, t.SelectColumns()...)
		decl, err := t.Declarations()
		if err != nil {
			return "", nil, err
		}
		from = append(from, decl...)
	}

	whereClause, values := q.whereClause()
	orderClause, err := q.orderClause()
	if err != nil {
		return "", nil, err
	}

	stmt := "SELECT " + strings.Join(selects, ", ") + " " + strings.Join(from, " ")

	if q.limit >= 0 || q.offset >= 0 {
		rootID := q.root.Alias() + "." + q.def.Primary().Name
		sub := "SELECT " + rootID + " " + strings.Join(from, " ") + whereClause + orderClause
		if q.limit >= 0 {
			sub += " LIMIT " + strconv.Itoa(q.limit)
		}
		if q.offset >= 0 {
			sub += " OFFSET " + strconv.Itoa(q.offset)
		}
		return stmt + " WHERE " + rootID + " IN (" + sub + ")" + orderClause, values, nil
	}

	return stmt + whereClause + orderClause, values, nil
}

// compileCount builds the row count of the root entity.
// Joined rows never inflate the count.
func (q *Query) compileCount() (string, []interface{}, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	tables, err := q.joinTables()
	if err != nil {
		return "", nil, err
	}
	var from []string
	for _, t := range tables {
		decl, err := t.Declarations()
		if err != nil {
			return "", nil, err
		}
		from = append(from, decl...)
	}
	whereClause, values := q.whereClause()
	rootID := q.root.Alias() + "." + q.def.Primary().Name
	return "SELECT COUNT(DISTINCT " + rootID + ") " + strings.Join(from, " ") + whereClause, values, nil
}

// compileExists builds a cheap existence probe.
func (q *Query) compileExists() (string, []interface{}, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	tables, err := q.joinTables()
	if err != nil {
		return "", nil, err
	}
	var from []string
	for _, t := range tables {
		decl, err := t.Declarations()
		if err != nil {
			return "", nil, err
		}
		from = append(from, decl...)
	}
	whereClause, values := q.whereClause()
	return "SELECT 1 " + strings.Join(from, " ") + whereClause + " LIMIT 1", values, nil
}

// compileUpdate builds the UPDATE of all matched root rows.
// data maps physical column names to serialized values, the SET order is
// sorted for stable statements.
func (q *Query) compileUpdate(data map[string]interface{}) (string, []interface{}, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	if err := q.ensureRootOnly(); err != nil {
		return "", nil, err
	}

	columns := make([]string, 0, len(data))
	for column := range data {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	var sets []string
	var values []interface{}
	for _, column := range columns {
		sets = append(sets, column+" = ?")
		values = append(values, data[column])
	}
	if q.def.Timestamps {
		sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	}

	whereClause, whereValues := q.whereClause()
	stmt := "UPDATE " + q.def.TableName + " SET " + strings.Join(sets, ", ") + whereClause
	return stmt, append(values, whereValues...), nil
}

// compileDelete builds the DELETE of all matched root rows.
// Soft-delete entities are marked instead of being removed.
func (q *Query) compileDelete() (string, []interface{}, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	if err := q.ensureRootOnly(); err != nil {
		return "", nil, err
	}

	whereClause, values := q.whereClause()
	if q.def.SoftDelete {
		return "UPDATE " + q.def.TableName + " SET deleted_at = CURRENT_TIMESTAMP" + whereClause, values, nil
	}
	return "DELETE FROM " + q.def.TableName + whereClause, values, nil
}

// whereClause renders the conditions. The soft-delete filter always comes
// first, so deleted rows never leak into joins or counts.
func (q *Query) whereClause() (string, []interface{}) {
	var conditions []string
	var values []interface{}

	if q.def.SoftDelete && !q.includeDeleted {
		deleted := &expression.Column{Table: q.root, Name: q.def.SoftDeleteColumn().Name}
		conditions = append(conditions, deleted.IsNull().SQL())
	}
	for _, e := range q.where {
		conditions = append(conditions, e.SQL())
		values = append(values, e.Values()...)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), values
}

// orderClause renders the ORDER BY. Without user targets the entity
// default is used: primary key descending, versioned entities order by
// their version scope with the newest version last.
func (q *Query) orderClause() (string, error) {
	if len(q.orders) > 0 {
		parts := make([]string, len(q.orders))
		for i, o := range q.orders {
			parts[i] = o.SQL()
		}
		return " ORDER BY " + strings.Join(parts, ", "), nil
	}

	names := q.def.DefaultOrder()
	parts := make([]string, len(names))
	for i, name := range names {
		col, err := q.def.Column(name)
		if err != nil {
			return "", err
		}
		parts[i] = q.root.Alias() + "." + col.PhysicalColumn()
	}
	if q.def.Versioned {
		parts[len(parts)-1] += " DESC"
	} else {
		parts[0] += " DESC"
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// joinTables collects the joined tables of the query: the root, the
// scalar relations of the select targets and every table referenced by a
// where or order expression. Duplicated paths are joined once, parents
// always come before their children.
func (q *Query) joinTables() ([]*expression.Table, error) {
	tables := []*expression.Table{q.root}
	var seen []string

	add := func(t *expression.Table, strict bool) error {
		// parents first, the root is always present.
		var chain []*expression.Table
		for node := t; node.Parent != nil; node = node.Parent {
			chain = append([]*expression.Table{node}, chain...)
		}
		for _, node := range chain {
			col, err := node.Parent.Def.Column(node.Path[len(node.Path)-1])
			if err != nil {
				return err
			}
			if col.Collection {
				// collections are preloaded by id, never joined.
				if strict {
					return fmt.Errorf(ErrCollectionJoin, strings.Join(node.Path, "."))
				}
				return nil
			}
			if node.Def == nil {
				return fmt.Errorf(expression.ErrGenericPreload, strings.Join(node.Path, "."))
			}
			if _, ok := slicer.StringExists(seen, node.PathPrefix()); ok {
				continue
			}
			seen = append(seen, node.PathPrefix())
			tables = append(tables, node)
		}
		return nil
	}

	for _, target := range q.selects {
		if t, ok := target.(*expression.Table); ok {
			if err := add(t, false); err != nil {
				return nil, err
			}
		}
		if c, ok := target.(*expression.Column); ok {
			if err := add(c.Table, false); err != nil {
				return nil, err
			}
		}
	}
	for _, e := range q.where {
		if err := q.collectTables(e, add); err != nil {
			return nil, err
		}
	}
	for _, o := range q.orders {
		if err := q.collectTables(o, add); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

// collectTables walks an expression tree and reports every referenced
// table. Conditions on collection chains are rejected by the callback.
func (q *Query) collectTables(e interface{}, add func(*expression.Table, bool) error) error {
	switch n := e.(type) {
	case *expression.Column:
		return add(n.Table, true)
	case *expression.Table:
		return add(n, true)
	case *expression.Order:
		return q.collectTables(n.Column, add)
	case expression.Nary:
		for _, a := range n.Arguments {
			if err := q.collectTables(a, add); err != nil {
				return err
			}
		}
	case expression.Func:
		for _, a := range n.Arguments {
			if err := q.collectTables(a, add); err != nil {
				return err
			}
		}
	case expression.Unary:
		return q.collectTables(n.Argument, add)
	case expression.Like:
		return q.collectTables(n.Haystack, add)
	}
	return nil
}

// ensureRootOnly rejects write statements which condition on joins.
func (q *Query) ensureRootOnly() error {
	check := func(t *expression.Table, _ bool) error {
		if t.Parent != nil {
			return fmt.Errorf(ErrWriteJoin)
		}
		return nil
	}
	for _, e := range q.where {
		if err := q.collectTables(e, check); err != nil {
			return err
		}
	}
	return nil
}

// preloadPaths returns the dotted relation paths of the select targets.
// The hydration loads collections on these paths eagerly by id.
func (q *Query) preloadPaths() map[string]bool {
	paths := make(map[string]bool)
	for _, target := range q.selects {
		t, ok := target.(*expression.Table)
		if !ok {
			continue
		}
		for node := t; node.Parent != nil; node = node.Parent {
			paths[strings.Join(node.Path, ".")] = true
		}
	}
	return paths
}
