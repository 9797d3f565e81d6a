// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package query

import (
	"fmt"
	"reflect"

	"github.com/patrickascher/norm/dialect"
	"github.com/patrickascher/norm/entity"
	"github.com/patrickascher/norm/expression"
	"github.com/patrickascher/norm/schema"
)

// Error messages.
var (
	ErrNotFound  = "query: no %s found"
	ErrNotOne    = "query: expected exactly one %s, got %d"
	ErrResult    = "query: result must be a ptr to a slice of entities, got %T"
	ErrEntity    = "query: %s cannot receive a %s row"
	ErrGet       = "query: get needs a primary key or expressions"
	ErrConflict  = "query: on-conflict column %#v is missing in the data"
	ErrNoUpdates = "query: no values to update"
)

// connection returns the entity's named connection and ensures the table
// structure on first use.
func (q *Query) connection() (*dialect.Connection, error) {
	if q.err != nil {
		return nil, q.err
	}
	c, err := dialect.ConnectionByName(q.def.Connection)
	if err != nil {
		return nil, err
	}
	if err := schema.Ensure(c, q.def); err != nil {
		return nil, err
	}
	return c, nil
}

// rows executes the compiled select and nests the raw rows.
func (q *Query) rows() ([]map[string]interface{}, error) {
	c, err := q.connection()
	if err != nil {
		return nil, err
	}
	stmt, values, err := q.compileSelect()
	if err != nil {
		return nil, err
	}
	raw, err := c.QueryMaps(stmt, values)
	if err != nil {
		return nil, err
	}
	return rearrange(raw), nil
}

// All executes the query and appends every row to the result slice.
// result must be a ptr to a slice of the queried entity ([]*Book).
func (q *Query) All(result interface{}) error {
	rv := reflect.ValueOf(result)
	if !rv.IsValid() || rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf(ErrResult, result)
	}

	rows, err := q.rows()
	if err != nil {
		return err
	}

	preload := q.preloadPaths()
	slice := rv.Elem()
	slice.SetLen(0)
	for _, row := range rows {
		instance, err := integrate(q.def, row, preload, "")
		if err != nil {
			return err
		}
		iv := reflect.ValueOf(instance)
		if !iv.Type().AssignableTo(slice.Type().Elem()) {
			return fmt.Errorf(ErrEntity, slice.Type().String(), q.def.Name)
		}
		slice = reflect.Append(slice, iv)
	}
	rv.Elem().Set(slice)
	return nil
}

// First hydrates the first matching row into dst.
// Errors when no row matches.
func (q *Query) First(dst entity.Interface) error {
	d, err := entity.DefinitionOf(dst)
	if err != nil {
		return err
	}
	if d != q.def {
		return fmt.Errorf(ErrEntity, d.Name, q.def.Name)
	}

	rows, err := q.Limit(1).rows()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf(ErrNotFound, q.def.Name)
	}
	return hydrateInto(q.def, dst, rows[0], q.preloadPaths(), "")
}

// Get hydrates a single row into dst, selected by its primary key or by
// additional conditions.
//
//	query.New(&Book{}).Get(&book, 12)
//	query.New(&Book{}).Get(&book, title.Eq("Homo Faber"))
func (q *Query) Get(dst entity.Interface, by ...interface{}) error {
	c, err := q.byConditions(by)
	if err != nil {
		return err
	}
	return c.First(dst)
}

// GetOne hydrates exactly one matching row into dst.
// Zero or more than one match is an error.
func (q *Query) GetOne(dst entity.Interface, by ...interface{}) error {
	c, err := q.byConditions(by)
	if err != nil {
		return err
	}

	rows, err := c.Limit(2).rows()
	if err != nil {
		return err
	}
	if len(rows) != 1 {
		return fmt.Errorf(ErrNotOne, q.def.Name, len(rows))
	}
	return hydrateInto(q.def, dst, rows[0], c.preloadPaths(), "")
}

// byConditions turns the Get arguments into conditions. A single integer
// compares the primary key, everything else must be expressions.
func (q *Query) byConditions(by []interface{}) (*Query, error) {
	if q.err != nil {
		return nil, q.err
	}
	c := q
	for _, b := range by {
		switch v := b.(type) {
		case int, int64:
			pk, err := q.Resolve(q.def.Primary().Name)
			if err != nil {
				return nil, err
			}
			c = c.Where(pk.(*expression.Column).Eq(v))
		case expression.Expression:
			c = c.Where(v)
		default:
			return nil, fmt.Errorf(ErrGet)
		}
	}
	return c, nil
}

// Count returns the number of matching root rows.
// Joined relations never inflate the count.
func (q *Query) Count() (int64, error) {
	c, err := q.connection()
	if err != nil {
		return 0, err
	}
	stmt, values, err := q.compileCount()
	if err != nil {
		return 0, err
	}
	var count int64
	if err := c.QueryRowScan(stmt, values, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// Exists reports if at least one root row matches.
func (q *Query) Exists() (bool, error) {
	c, err := q.connection()
	if err != nil {
		return false, err
	}
	stmt, values, err := q.compileExists()
	if err != nil {
		return false, err
	}
	rows, err := c.QueryMaps(stmt, values)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Update writes the given logical column values to all matched rows.
// Read-only columns are rejected, soft-deleted rows are not touched
// unless IncludeDeleted is set.
func (q *Query) Update(values map[string]interface{}) error {
	if q.err != nil {
		return q.err
	}
	if len(values) == 0 {
		return fmt.Errorf(ErrNoUpdates)
	}

	data, err := q.serializeValues(values)
	if err != nil {
		return err
	}

	c, err := q.connection()
	if err != nil {
		return err
	}
	stmt, args, err := q.compileUpdate(data)
	if err != nil {
		return err
	}
	_, err = c.Exec(stmt, args)
	return err
}

// Delete removes all matched rows. Soft-delete entities are marked with
// deleted_at instead of being removed.
func (q *Query) Delete() error {
	c, err := q.connection()
	if err != nil {
		return err
	}
	stmt, values, err := q.compileDelete()
	if err != nil {
		return err
	}
	_, err = c.Exec(stmt, values)
	return err
}

// Upsert inserts the data or updates the row matching the onConflict
// columns. No unique constraint is needed, the match runs as a select.
// The upserted row is hydrated into dst.
func (q *Query) Upsert(dst entity.Interface, onConflict []string, data map[string]interface{}) error {
	if q.err != nil {
		return q.err
	}
	for _, name := range onConflict {
		if _, ok := data[name]; !ok {
			return fmt.Errorf(ErrConflict, name)
		}
	}
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	if err := q.def.EnsureWritable(names); err != nil {
		return err
	}

	match := make(map[string]interface{}, len(onConflict))
	for _, name := range onConflict {
		match[name] = data[name]
	}

	existing := q.def.New()
	err := New(existing).Filter(match).First(existing)
	if err == nil {
		pk, err := q.Resolve(q.def.Primary().Name)
		if err != nil {
			return err
		}
		update := New(q.def.New()).Where(pk.(*expression.Column).Eq(existing.PrimaryKey()))
		if err := update.Update(data); err != nil {
			return err
		}
		return loadInto(q.def, dst, existing.PrimaryKey())
	}
	if err.Error() != fmt.Sprintf(ErrNotFound, q.def.Name) {
		return err
	}

	if err := q.applyData(dst, data); err != nil {
		return err
	}
	return entity.Create(dst)
}

// applyData sets logical column values on the instance fields.
func (q *Query) applyData(v entity.Interface, data map[string]interface{}) error {
	for name, value := range data {
		col, err := q.def.Column(name)
		if err != nil {
			return err
		}
		if err := q.def.SetFieldValue(v, col, value); err != nil {
			return err
		}
	}
	return nil
}

// serializeValues converts logical column values into their physical
// column entries.
func (q *Query) serializeValues(values map[string]interface{}) (map[string]interface{}, error) {
	data := make(map[string]interface{}, len(values))
	for name, value := range values {
		col, err := q.def.Column(name)
		if err != nil {
			return nil, err
		}
		if col.Primary || col.ReadOnly {
			return nil, fmt.Errorf(entity.ErrReadOnly, name, q.def.Name)
		}
		serialized, err := entity.SerializeColumn(col, value)
		if err != nil {
			return nil, err
		}
		for column, v := range serialized {
			data[column] = v
		}
	}
	return data, nil
}

// loadInto reloads a row by primary key into the instance.
func loadInto(d *entity.Definition, v entity.Interface, id int64) error {
	q := New(v)
	if d.SoftDelete {
		q = q.IncludeDeleted()
	}
	pk, err := q.Resolve(d.Primary().Name)
	if err != nil {
		return err
	}
	return q.Where(pk.(*expression.Column).Eq(id)).First(v)
}
