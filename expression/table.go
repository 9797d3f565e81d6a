// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package expression

import (
	"fmt"
	"strings"

	"github.com/patrickascher/norm/entity"
)

// Error messages.
var (
	ErrGenericPreload = "expression: a generic reference cannot be preloaded (%s)"
	ErrGenericValue   = "expression: a generic reference can only be compared to an entity instance or nil, got %#v"
	ErrReferenceValue = "expression: reference %s cannot be compared to %#v"
	ErrNoReference    = "expression: %s is no reference"
)

// Table references the (joined) table of an entity.
//
// The root table has no parent and aliases as the physical table name.
// Every resolved relation creates a child whose alias appends the last
// path segment: authors, authors____book, authors____book____publisher.
// A polymorphic target has no definition, its rows decide the table.
type Table struct {
	Parent *Table
	Def    *entity.Definition
	Path   []string
}

// NewTable creates the root table of a definition.
func NewTable(d *entity.Definition) *Table {
	return &Table{Def: d}
}

// Root of the join tree.
func (t *Table) Root() *Table {
	root := t
	for root.Parent != nil {
		root = root.Parent
	}
	return root
}

// Alias of the table in the join clause.
func (t *Table) Alias() string {
	if t.Parent == nil {
		return t.Def.TableName
	}
	return t.Parent.Alias() + AliasSeparator + t.Path[len(t.Path)-1]
}

// PathPrefix is the join path without the root: "book____publisher".
// Empty for the root table.
func (t *Table) PathPrefix() string {
	return strings.Join(t.Path, AliasSeparator)
}

// Resolve a logical column name into a column or, for relations, a child
// table. Resolving through a polymorphic target is not possible, the
// target table differs per row.
func (t *Table) Resolve(name string) (interface{}, error) {
	if t.Def == nil {
		return nil, fmt.Errorf(ErrGenericPreload, strings.Join(t.Path, "."))
	}

	col, err := t.Def.Column(name)
	if err != nil {
		return nil, err
	}

	if col.Reference {
		child := &Table{Parent: t, Path: append(append([]string{}, t.Path...), col.Name)}
		if !col.Polymorphic {
			def, err := entity.DefinitionOfType(col.GoType)
			if err != nil {
				return nil, err
			}
			child.Def = def
		}
		return child, nil
	}

	return &Column{Table: t, Name: col.Name}, nil
}

// ResolvePath resolves a dotted path (author.name) from this table.
func (t *Table) ResolvePath(path string) (interface{}, error) {
	current := t
	segments := strings.Split(path, ".")
	for i, segment := range segments {
		resolved, err := current.Resolve(segment)
		if err != nil {
			return nil, err
		}
		if i == len(segments)-1 {
			return resolved, nil
		}
		next, ok := resolved.(*Table)
		if !ok {
			return nil, fmt.Errorf(ErrNoReference, strings.Join(segments[:i+1], "."))
		}
		current = next
	}
	return current, nil
}

// Declarations returns the FROM clause of the root or the LEFT JOIN of a
// child table. The join matches the target id against the fk column on
// the parent.
func (t *Table) Declarations() ([]string, error) {
	if t.Parent == nil {
		return []string{"FROM " + t.Def.TableName}, nil
	}
	if t.Def == nil {
		return nil, fmt.Errorf(ErrGenericPreload, strings.Join(t.Path, "."))
	}

	col, err := t.Parent.Def.Column(t.Path[len(t.Path)-1])
	if err != nil {
		return nil, err
	}

	join := fmt.Sprintf("LEFT JOIN %s AS %s ON %s.id = %s.%s",
		t.Def.TableName, t.Alias(), t.Alias(), t.Parent.Alias(), col.PhysicalColumn())
	return []string{join}, nil
}

// SelectColumns returns the select list entries of this table.
// Physical relation columns alias under the logical name, so the
// hydration can map them back to fields: authors.author_id AS author,
// authors____book.title AS book____title.
func (t *Table) SelectColumns() []string {
	alias := t.Alias()
	prefix := t.PathPrefix()
	if prefix != "" {
		prefix += AliasSeparator
	}

	var rv []string
	for i := range t.Def.Columns {
		col := &t.Def.Columns[i]
		if col.Reference {
			if d := col.DiscriminatorColumn(); d != "" {
				rv = append(rv, fmt.Sprintf("%s.%s AS %s%s", alias, d, prefix, d))
			}
			rv = append(rv, fmt.Sprintf("%s.%s AS %s%s", alias, col.PhysicalColumn(), prefix, col.Name))
			continue
		}
		rv = append(rv, fmt.Sprintf("%s.%s AS %s%s", alias, col.Name, prefix, col.Name))
	}
	return rv
}

// Eq compares a relation against an entity instance, an id or nil.
// nil checks the fk column(s) for NULL. A polymorphic relation compares
// the table/id pair and therefore needs an instance.
func (t *Table) Eq(other interface{}) (Expression, error) {
	if t.Parent == nil {
		// comparing the root against an instance means comparing ids.
		id := &Column{Table: t, Name: t.Def.Primary().Name}
		return id.Eq(other), nil
	}

	col, err := t.Parent.Def.Column(t.Path[len(t.Path)-1])
	if err != nil {
		return nil, err
	}
	fk := &Column{Table: t.Parent, Name: col.PhysicalColumn()}

	if col.Polymorphic {
		discriminator := &Column{Table: t.Parent, Name: col.DiscriminatorColumn()}
		if other == nil {
			return And(discriminator.IsNull(), fk.IsNull()), nil
		}
		instance, ok := other.(entity.Interface)
		if !ok {
			return nil, fmt.Errorf(ErrGenericValue, other)
		}
		def, err := entity.DefinitionOf(instance)
		if err != nil {
			return nil, err
		}
		return And(discriminator.Eq(def.TableName), fk.Eq(instance.PrimaryKey())), nil
	}

	if other == nil {
		return fk.IsNull(), nil
	}
	id, ok := referenceID(other)
	if !ok {
		return nil, fmt.Errorf(ErrReferenceValue, col.Name, other)
	}
	return fk.Eq(id), nil
}

// Neq negates Eq.
func (t *Table) Neq(other interface{}) (Expression, error) {
	eq, err := t.Eq(other)
	if err != nil {
		return nil, err
	}
	return Not(eq), nil
}
