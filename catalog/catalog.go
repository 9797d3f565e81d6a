// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package catalog describes the persisted columns of an entity.
// Every logical field maps to a storage type and one or two physical
// database columns. A scalar reference foo is stored as foo_id, a
// polymorphic one additionally keeps the target table in foo_table.
// Collections use the plural forms foo_ids and foo_tables.
//
// The column knows how a go value is serialized into its database
// representation and how a database value is parsed back.
package catalog

import (
	"reflect"
)

// Storage types of a column.
const (
	Bool      = "Bool"
	Integer   = "Integer"
	Float     = "Float"
	Text      = "Text"
	Timestamp = "Timestamp"
	JSON      = "JSON"
	Enum      = "Enum"
	Reference = "Reference"
)

// Error messages.
var (
	ErrKind      = "catalog: field type %s is not supported"
	ErrParse     = "catalog: cannot parse %#v as %s for column %#v"
	ErrSerialize = "catalog: cannot serialize %#v as %s for column %#v"
	ErrEnum      = "catalog: %#v is not a member of enum %#v %v"
)

// Identifier is implemented by every persisted entity.
// It is the minimum the catalog has to know about an entity to serialize a
// reference to it.
type Identifier interface {
	PrimaryKey() int64
}

// Column describes one logical field of an entity.
type Column struct {
	// Name of the logical column (snake_case).
	Name string
	// Field is the go struct field name.
	Field string
	// Type is one of the storage type constants.
	Type string
	// Primary marks the id column.
	Primary bool
	// Required columns are created NOT NULL.
	Required bool
	// ReadOnly columns are set by the database (created_at, version, ...).
	ReadOnly bool
	// Default value, rendered into the DDL.
	Default interface{}
	// Enum members, only set for Type Enum.
	Enum []string
	// GenericJSON marks a JSON column without a fixed container type.
	// Parsing is lenient, undecodable values return as raw string.
	GenericJSON bool
	// Reference marks a relation column.
	Reference bool
	// Collection marks a to-many relation.
	Collection bool
	// Polymorphic marks a relation declared against the entity interface.
	// The target table is stored next to the id.
	Polymorphic bool
	// ReferenceTable is the table of the relation target.
	// Empty for polymorphic relations, the target is per row.
	ReferenceTable string
	// GoType is the declared field type.
	GoType reflect.Type
}

// PhysicalColumn returns the database column which carries the value.
// For relations this is the fk column (foo_id / foo_ids).
func (c Column) PhysicalColumn() string {
	if !c.Reference {
		return c.Name
	}
	if c.Collection {
		return c.Name + "_ids"
	}
	return c.Name + "_id"
}

// DiscriminatorColumn returns the database column which carries the target
// table of a polymorphic relation. Empty for everything else.
func (c Column) DiscriminatorColumn() string {
	if !c.Reference || !c.Polymorphic {
		return ""
	}
	if c.Collection {
		return c.Name + "_tables"
	}
	return c.Name + "_table"
}

// PhysicalColumns returns all database columns of the logical column.
// The discriminator column of a polymorphic relation comes first.
func (c Column) PhysicalColumns() []string {
	if d := c.DiscriminatorColumn(); d != "" {
		return []string{d, c.PhysicalColumn()}
	}
	return []string{c.PhysicalColumn()}
}

// IsEnumMember checks the value against the enum members.
func (c Column) IsEnumMember(v string) bool {
	for _, m := range c.Enum {
		if m == v {
			return true
		}
	}
	return false
}
