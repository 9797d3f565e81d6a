// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package query

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/patrickascher/norm/catalog"
	"github.com/patrickascher/norm/entity"
	"github.com/patrickascher/norm/expression"
)

// Error messages.
var (
	ErrRowValue = "query: cannot hydrate %#v as id of %s"
)

// primaryAlias is the select alias of every primary key, entity.Base
// guarantees the column name.
const primaryAlias = "id"

// rearrange nests the flat alias rows of the joined select.
//
// A row {"id": 1, "name": "x", "book": 2, "book____id": 2, ...} becomes
// {"id": 1, "name": "x", "book": {"id": 2, ...}}. The raw fk value is
// replaced by the nested map when the join found the row and kept when it
// missed, so the hydration can fall back to a lazy reference. Rows
// sharing a root id merge, rows without a root id are dropped.
func rearrange(rows []map[string]interface{}) []map[string]interface{} {
	var result []map[string]interface{}
	index := make(map[string]int)

	for _, row := range rows {
		if row[primaryAlias] == nil {
			continue
		}
		nested := nest(row)
		key := fmt.Sprint(row[primaryAlias])
		if i, ok := index[key]; ok {
			merge(result[i], nested)
			continue
		}
		index[key] = len(result)
		result = append(result, nested)
	}
	return result
}

// nest splits the aliases on the path separator, shallow segments first.
// A joined segment without an id missed, its keys are discarded.
func nest(flat map[string]interface{}) map[string]interface{} {
	rv := make(map[string]interface{})
	groups := make(map[string]map[string]interface{})

	for key, value := range flat {
		base, rest, found := strings.Cut(key, expression.AliasSeparator)
		if !found {
			rv[key] = value
			continue
		}
		if groups[base] == nil {
			groups[base] = make(map[string]interface{})
		}
		groups[base][rest] = value
	}

	for base, group := range groups {
		nested := nest(group)
		if nested[primaryAlias] == nil {
			continue
		}
		rv[base] = nested
	}
	return rv
}

// merge folds a later row into an already collected one.
func merge(dst, src map[string]interface{}) {
	for key, value := range src {
		if nested, ok := value.(map[string]interface{}); ok {
			if existing, ok := dst[key].(map[string]interface{}); ok {
				merge(existing, nested)
				continue
			}
		}
		if dst[key] == nil {
			dst[key] = value
		}
	}
}

// integrate hydrates one nested row into a fresh entity instance.
// Joined relations are built recursively, everything else becomes a lazy
// reference holding the fk ids. Collections on a preload path are loaded
// eagerly by id in row order.
func integrate(d *entity.Definition, data map[string]interface{}, preload map[string]bool, path string) (entity.Interface, error) {
	v := d.New()
	if err := hydrateInto(d, v, data, preload, path); err != nil {
		return nil, err
	}
	return v, nil
}

// hydrateInto fills an existing instance from one nested row.
func hydrateInto(d *entity.Definition, v entity.Interface, data map[string]interface{}, preload map[string]bool, path string) error {
	for i := range d.Columns {
		col := &d.Columns[i]

		if col.Reference {
			var err error
			if col.Collection {
				err = integrateCollection(d, v, col, data, preload, path)
			} else {
				err = integrateScalar(d, v, col, data, preload, path)
			}
			if err != nil {
				return err
			}
			continue
		}

		value, ok := data[col.Name]
		if !ok {
			continue
		}
		parsed, err := col.Parse(value)
		if err != nil {
			return err
		}
		if err := d.SetFieldValue(v, col, parsed); err != nil {
			return err
		}
	}
	return nil
}

// integrateScalar hydrates a to-one relation: nested map into a child
// instance, raw fk value into a lazy reference, nil stays nil.
func integrateScalar(d *entity.Definition, v entity.Interface, col *catalog.Column, data map[string]interface{}, preload map[string]bool, path string) error {
	value := data[col.Name]
	if value == nil {
		return nil
	}

	var tables []string
	refDef, err := scalarDefinition(col, data)
	if err != nil {
		return err
	}
	if col.Polymorphic {
		tables = []string{refDef.TableName}
	}

	if nested, ok := value.(map[string]interface{}); ok {
		child, err := integrate(refDef, nested, preload, childPath(path, col.Name))
		if err != nil {
			return err
		}
		return d.AssignReference(v, col, []entity.Interface{child})
	}

	id, err := rowID(d, col, value)
	if err != nil {
		return err
	}
	v.SetLazyRef(col.Field, entity.LazyRef{IDs: []int64{id}, Tables: tables})
	return nil
}

// integrateCollection hydrates a to-many relation from its id list
// column. Preloaded paths load every id, otherwise the ids are kept as a
// lazy reference and the field holds an empty slice.
func integrateCollection(d *entity.Definition, v entity.Interface, col *catalog.Column, data map[string]interface{}, preload map[string]bool, path string) error {
	ids, tables, err := collectionIDs(d, col, data)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return d.AssignReference(v, col, nil)
	}

	segment := childPath(path, col.Name)
	if !preloaded(preload, segment) {
		if err := d.AssignReference(v, col, nil); err != nil {
			return err
		}
		v.SetLazyRef(col.Field, entity.LazyRef{IDs: ids, Tables: tables, Collection: true})
		return nil
	}

	instances := make([]entity.Interface, 0, len(ids))
	for i, id := range ids {
		refDef, err := collectionDefinition(col, tables, i)
		if err != nil {
			return err
		}
		instance, err := loadByID(refDef, id)
		if err != nil {
			return err
		}
		instances = append(instances, instance)
	}
	return d.AssignReference(v, col, instances)
}

// scalarDefinition resolves the target definition of a to-one relation.
func scalarDefinition(col *catalog.Column, data map[string]interface{}) (*entity.Definition, error) {
	if !col.Polymorphic {
		return entity.DefinitionOfType(col.GoType)
	}
	table, _ := data[col.DiscriminatorColumn()].(string)
	return entity.DefinitionByTable(table)
}

// collectionDefinition resolves the target definition of one collection
// member.
func collectionDefinition(col *catalog.Column, tables []string, i int) (*entity.Definition, error) {
	if !col.Polymorphic {
		return entity.DefinitionOfType(col.GoType)
	}
	if i >= len(tables) {
		return nil, fmt.Errorf(entity.ErrUnknownTable, "")
	}
	return entity.DefinitionByTable(tables[i])
}

// collectionIDs decodes the id list column and, for polymorphic
// relations, the table list column.
func collectionIDs(d *entity.Definition, col *catalog.Column, data map[string]interface{}) ([]int64, []string, error) {
	raw := data[col.Name]
	if raw == nil {
		return nil, nil, nil
	}
	parsed, err := col.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	ids, ok := parsed.([]int64)
	if !ok {
		return nil, nil, fmt.Errorf(ErrRowValue, raw, d.Name+"."+col.Name)
	}

	var tables []string
	if col.Polymorphic {
		if rawTables, ok := data[col.DiscriminatorColumn()].(string); ok {
			if err := json.Unmarshal([]byte(rawTables), &tables); err != nil {
				return nil, nil, fmt.Errorf(catalog.ErrParse, rawTables, col.Type, col.Name)
			}
		}
	}
	return ids, tables, nil
}

// rowID converts a driver id value.
func rowID(d *entity.Definition, col *catalog.Column, value interface{}) (int64, error) {
	switch id := value.(type) {
	case int64:
		return id, nil
	case int:
		return int64(id), nil
	case float64:
		return int64(id), nil
	case string:
		parsed, err := strconv.ParseInt(id, 10, 64)
		if err == nil {
			return parsed, nil
		}
	}
	return 0, fmt.Errorf(ErrRowValue, value, d.Name+"."+col.Name)
}

// childPath appends a relation segment to a dotted path.
func childPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// preloaded reports if the segment or anything below it is on a preload
// path.
func preloaded(preload map[string]bool, segment string) bool {
	if preload[segment] {
		return true
	}
	for path := range preload {
		if strings.HasPrefix(path, segment+".") {
			return true
		}
	}
	return false
}
