// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package entity maps go structs to database tables.
//
// A persisted type embeds entity.Base and optionally one or more of the
// mixins (Timestamps, SoftDelete, Versioned). The struct fields define the
// table columns, relations are declared as pointer (*Author), slice
// ([]*Book) or against the entity.Interface for polymorphic targets.
//
//	type Book struct {
//		entity.Base
//		entity.Timestamps
//
//		Title  string
//		Mood   string `orm:"enum:happy|sad"`
//		Author *Author
//	}
//
// The struct is parsed once and cached. All reads go through the query
// package, writes through Create/Update/Delete.
package entity

import (
	"reflect"

	null "gopkg.in/guregu/null.v4"
)

// Tag and tag keys of the struct field configuration.
const (
	TagName       = "orm"
	tagSkip       = "-"
	tagColumn     = "column"
	tagEnum       = "enum"
	tagJSON       = "json"
	tagReadOnly   = "readonly"
	tagNullable   = "nullable"
	tagDefault    = "default"
	enumSeparator = "|"
)

// Interface is implemented by every persisted entity by embedding Base.
type Interface interface {
	// PrimaryKey of the entity, zero if it was not saved yet.
	PrimaryKey() int64
	// SetPrimaryKey is called after an insert.
	SetPrimaryKey(id int64)
	// LazyRefs returns the not yet loaded relations by field name.
	LazyRefs() map[string]LazyRef
	// SetLazyRef records a not yet loaded relation.
	SetLazyRef(name string, ref LazyRef)
}

// LazyRef holds the fk data of a relation which was not preloaded.
// Load resolves it into instances on demand.
type LazyRef struct {
	IDs        []int64
	Tables     []string
	Collection bool
}

// Base implements the Interface and holds the primary key.
// It must be embedded in every entity struct.
type Base struct {
	ID int64 `json:"id"`

	lazy map[string]LazyRef
}

// PrimaryKey of the entity.
func (b *Base) PrimaryKey() int64 {
	return b.ID
}

// SetPrimaryKey sets the id after an insert.
func (b *Base) SetPrimaryKey(id int64) {
	b.ID = id
}

// LazyRefs returns the not yet loaded relations by field name.
func (b *Base) LazyRefs() map[string]LazyRef {
	return b.lazy
}

// SetLazyRef records a not yet loaded relation.
func (b *Base) SetLazyRef(name string, ref LazyRef) {
	if b.lazy == nil {
		b.lazy = make(map[string]LazyRef)
	}
	b.lazy[name] = ref
}

// DeleteLazyRef removes the record after the relation was loaded.
func (b *Base) DeleteLazyRef(name string) {
	delete(b.lazy, name)
}

// Timestamps mixin adds the created_at and updated_at columns.
// created_at is set by the database, updated_at on every Update call.
type Timestamps struct {
	CreatedAt null.Time `json:"created_at"`
	UpdatedAt null.Time `json:"updated_at"`
}

// SoftDelete mixin adds the deleted_at column.
// Deleted entities are kept and hidden from queries by default.
type SoftDelete struct {
	DeletedAt null.Time `json:"deleted_at"`
}

// Versioned mixin adds the version column.
// Every insert soft-deletes the previous version and increments the counter.
// Versioned requires the SoftDelete mixin.
type Versioned struct {
	Version int64 `json:"version"`
}

// TableNamer can be implemented by an entity to override the default
// table name (pluralized snake_case of the struct name).
type TableNamer interface {
	TableName() string
}

// mixin types for the struct parser.
var (
	baseType       = reflect.TypeOf(Base{})
	timestampsType = reflect.TypeOf(Timestamps{})
	softDeleteType = reflect.TypeOf(SoftDelete{})
	versionedType  = reflect.TypeOf(Versioned{})
	interfaceType  = reflect.TypeOf((*Interface)(nil)).Elem()
)
