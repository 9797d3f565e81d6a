// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package entity

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/patrickascher/norm/catalog"
	"github.com/patrickascher/norm/slicer"
)

// Error messages.
var (
	ErrReadOnly = "entity: column %#v of %s is read-only"
)

// ProcessData serializes the writable fields of the instance into their
// physical column values. Polymorphic relations additionally store the
// table name of the target next to the id.
// If columns is not empty, only the named logical columns are processed.
func ProcessData(d *Definition, v Interface, columns ...string) (map[string]interface{}, error) {
	data := make(map[string]interface{})

	for i := range d.Columns {
		col := &d.Columns[i]
		if col.Primary || col.ReadOnly {
			continue
		}
		if _, ok := slicer.StringExists(columns, col.Name); len(columns) > 0 && !ok {
			continue
		}

		serialized, err := SerializeColumn(col, d.FieldValue(v, col))
		if err != nil {
			return nil, err
		}
		for column, value := range serialized {
			data[column] = value
		}
	}

	return data, nil
}

// SerializeColumn serializes one logical column value into its physical
// column entries. Polymorphic relations store the table name of the
// target next to the id.
func SerializeColumn(col *catalog.Column, value interface{}) (map[string]interface{}, error) {
	data := make(map[string]interface{})
	if col.Reference && col.Polymorphic {
		if err := processPolymorphic(col, value, data); err != nil {
			return nil, err
		}
		return data, nil
	}

	serialized, err := col.Serialize(value)
	if err != nil {
		return nil, err
	}
	data[col.PhysicalColumn()] = serialized
	return data, nil
}

// processPolymorphic stores the id/table pair of a polymorphic relation.
func processPolymorphic(col *catalog.Column, value interface{}, data map[string]interface{}) error {
	if col.Collection {
		rv := reflect.ValueOf(value)
		if value == nil || rv.IsNil() {
			data[col.PhysicalColumn()] = nil
			data[col.DiscriminatorColumn()] = nil
			return nil
		}

		ids := make([]int64, rv.Len())
		tables := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			target, ok := rv.Index(i).Interface().(Interface)
			if !ok {
				return fmt.Errorf(catalog.ErrSerialize, value, col.Type, col.Name)
			}
			targetDef, err := DefinitionOf(target)
			if err != nil {
				return err
			}
			ids[i] = target.PrimaryKey()
			tables[i] = targetDef.TableName
		}

		rawIDs, _ := json.Marshal(ids)
		rawTables, _ := json.Marshal(tables)
		data[col.PhysicalColumn()] = string(rawIDs)
		data[col.DiscriminatorColumn()] = string(rawTables)
		return nil
	}

	if value == nil || reflect.ValueOf(value).IsNil() {
		data[col.PhysicalColumn()] = nil
		data[col.DiscriminatorColumn()] = nil
		return nil
	}

	target, ok := value.(Interface)
	if !ok {
		return fmt.Errorf(catalog.ErrSerialize, value, col.Type, col.Name)
	}
	targetDef, err := DefinitionOf(target)
	if err != nil {
		return err
	}
	data[col.PhysicalColumn()] = target.PrimaryKey()
	data[col.DiscriminatorColumn()] = targetDef.TableName
	return nil
}

// EnsureWritable checks user supplied column names against the read-only
// columns of the definition.
func (d *Definition) EnsureWritable(names []string) error {
	for _, name := range names {
		col, err := d.Column(name)
		if err != nil {
			return err
		}
		if col.Primary || col.ReadOnly {
			return fmt.Errorf(ErrReadOnly, name, d.Name)
		}
	}
	return nil
}
