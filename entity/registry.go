// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package entity

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/patrickascher/norm/cache"
	_ "github.com/patrickascher/norm/cache/memory"
)

// Error messages.
var (
	ErrUnknownTable = "entity: table %#v is not registered"
)

var (
	defMutex sync.Mutex
	defCache cache.Manager
	// byTable maps registered table names for the polymorphic lookups.
	byTable = make(map[string]*Definition)
)

// Option configures a definition on Register.
type Option func(*Definition)

// WithConnection sets the named connection of the dialect package.
func WithConnection(name string) Option {
	return func(d *Definition) {
		d.Connection = name
	}
}

// WithVersionedAlong sets the logical columns which scope the version
// counter of a versioned entity.
func WithVersionedAlong(columns ...string) Option {
	return func(d *Definition) {
		d.VersionedAlong = columns
	}
}

// Register parses the entity struct and caches the definition.
// Registering is optional for entities without options, the definition is
// created on first use.
func Register(v Interface, opts ...Option) (*Definition, error) {
	defMutex.Lock()
	defer defMutex.Unlock()

	t := baseStructType(v)
	c, err := definitionCache()
	if err != nil {
		return nil, err
	}

	key := t.PkgPath() + "." + t.Name()
	if item, err := c.Get(key); err == nil {
		return item.Value().(*Definition), nil
	}

	d, err := parse(t)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(d)
	}

	// the versioned scope must name existing columns.
	for _, name := range d.VersionedAlong {
		if _, err := d.Column(name); err != nil {
			return nil, err
		}
	}

	if err := c.Set(key, d, cache.NoExpiration); err != nil {
		return nil, err
	}
	byTable[d.TableName] = d

	return d, nil
}

// DefinitionOf returns the cached definition of the entity, parsing the
// struct on first use.
func DefinitionOf(v Interface) (*Definition, error) {
	return Register(v)
}

// DefinitionByTable returns the definition of a registered table name.
// Needed to resolve the target of a polymorphic relation.
func DefinitionByTable(table string) (*Definition, error) {
	defMutex.Lock()
	defer defMutex.Unlock()

	d, ok := byTable[table]
	if !ok {
		return nil, fmt.Errorf(ErrUnknownTable, table)
	}
	return d, nil
}

// DefinitionOfType returns the definition of a relation target type
// (*Book, []*Book, ...).
func DefinitionOfType(t reflect.Type) (*Definition, error) {
	for t.Kind() == reflect.Slice || t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	v, ok := reflect.New(t).Interface().(Interface)
	if !ok {
		return nil, fmt.Errorf(ErrNoStruct, t.String())
	}
	return DefinitionOf(v)
}

// definitionCache lazily creates the memory cache.
func definitionCache() (cache.Manager, error) {
	if defCache == nil {
		c, err := cache.New(cache.MEMORY, nil)
		if err != nil {
			return nil, err
		}
		defCache = c
	}
	return defCache, nil
}

// baseStructType unwraps the struct type of the entity value.
func baseStructType(v Interface) reflect.Type {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
