// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package query

import (
	"sort"
	"strings"

	"github.com/patrickascher/norm/catalog"
	"github.com/patrickascher/norm/dialect"
	"github.com/patrickascher/norm/entity"
	"github.com/patrickascher/norm/expression"
	"github.com/patrickascher/norm/schema"
	null "gopkg.in/guregu/null.v4"
)

// init registers the eager strategy, the crud functions of the entity
// package dispatch to it.
func init() {
	_ = entity.RegisterStrategy("eager", eager{})
}

// eager writes and loads instances with immediate statements.
type eager struct{}

// connectionOf returns the named connection of the definition and
// ensures the table structure once per entity.
func connectionOf(d *entity.Definition) (*dialect.Connection, error) {
	c, err := dialect.ConnectionByName(d.Connection)
	if err != nil {
		return nil, err
	}
	if err := schema.Ensure(c, d); err != nil {
		return nil, err
	}
	return c, nil
}

// Insert the serialized data and set the primary key and the database
// generated columns on the instance. Versioned entities soft-delete the
// previous live rows of their version scope and take the next counter.
func (eager) Insert(d *entity.Definition, v entity.Interface, data map[string]interface{}) error {
	c, err := connectionOf(d)
	if err != nil {
		return err
	}

	if d.Versioned {
		version, err := nextVersion(c, d, data)
		if err != nil {
			return err
		}
		if err := retirePrevious(c, d, data); err != nil {
			return err
		}
		data["version"] = version
	}

	columns := sortedColumns(data)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	values := make([]interface{}, len(columns))
	for i, column := range columns {
		values[i] = data[column]
	}

	stmt := "INSERT INTO " + d.TableName + " (" + strings.Join(columns, ", ") + ") VALUES (" + placeholders + ")"

	var id int64
	if c.Dialect().SupportsReturning() {
		if err := c.QueryRowScan(stmt+" RETURNING "+d.Primary().Name, values, &id); err != nil {
			return err
		}
	} else {
		res, err := c.Exec(stmt, values)
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	v.SetPrimaryKey(id)

	return reloadGenerated(c, d, v)
}

// Update the instance row by its primary key.
func (eager) Update(d *entity.Definition, v entity.Interface, data map[string]interface{}) error {
	c, err := connectionOf(d)
	if err != nil {
		return err
	}

	columns := sortedColumns(data)
	sets := make([]string, len(columns))
	values := make([]interface{}, len(columns))
	for i, column := range columns {
		sets[i] = column + " = ?"
		values[i] = data[column]
	}
	if d.Timestamps {
		sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	}

	stmt := "UPDATE " + d.TableName + " SET " + strings.Join(sets, ", ") + " WHERE " + d.Primary().Name + " = ?"
	if _, err := c.Exec(stmt, append(values, v.PrimaryKey())); err != nil {
		return err
	}
	return reloadGenerated(c, d, v)
}

// Delete the instance row, soft-delete entities are marked instead.
func (eager) Delete(d *entity.Definition, v entity.Interface) error {
	c, err := connectionOf(d)
	if err != nil {
		return err
	}

	if d.SoftDelete {
		stmt := "UPDATE " + d.TableName + " SET deleted_at = CURRENT_TIMESTAMP WHERE " + d.Primary().Name + " = ?"
		_, err = c.Exec(stmt, []interface{}{v.PrimaryKey()})
		return err
	}
	_, err = c.Exec("DELETE FROM "+d.TableName+" WHERE "+d.Primary().Name+" = ?", []interface{}{v.PrimaryKey()})
	return err
}

// Load one instance by its primary key. Soft-deleted rows are included,
// a lazy reference must resolve even when its target was deleted later.
func (eager) Load(d *entity.Definition, id int64) (entity.Interface, error) {
	return loadByID(d, id)
}

func loadByID(d *entity.Definition, id int64) (entity.Interface, error) {
	v := d.New()
	q := New(v)
	if d.SoftDelete {
		q = q.IncludeDeleted()
	}
	pk, err := q.Resolve(d.Primary().Name)
	if err != nil {
		return nil, err
	}
	if err := q.Where(pk.(*expression.Column).Eq(id)).First(v); err != nil {
		return nil, err
	}
	return v, nil
}

// nextVersion reads the highest live version of the instance's version
// scope, the first version of a scope is 0.
func nextVersion(c *dialect.Connection, d *entity.Definition, data map[string]interface{}) (int64, error) {
	stmt, values := versionScope("SELECT MAX(version) FROM "+d.TableName+" WHERE deleted_at IS NULL", d, data)

	var max null.Int
	if err := c.QueryRowScan(stmt, values, &max); err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64 + 1, nil
}

// retirePrevious soft-deletes the live predecessors of the version scope.
func retirePrevious(c *dialect.Connection, d *entity.Definition, data map[string]interface{}) error {
	stmt, values := versionScope("UPDATE "+d.TableName+" SET deleted_at = CURRENT_TIMESTAMP WHERE deleted_at IS NULL", d, data)
	_, err := c.Exec(stmt, values)
	return err
}

// versionScope appends the version scope columns as conditions.
func versionScope(stmt string, d *entity.Definition, data map[string]interface{}) (string, []interface{}) {
	var values []interface{}
	for _, name := range d.VersionedAlong {
		col, err := d.Column(name)
		if err != nil {
			continue
		}
		value := data[col.PhysicalColumn()]
		if value == nil {
			stmt += " AND " + col.PhysicalColumn() + " IS NULL"
			continue
		}
		stmt += " AND " + col.PhysicalColumn() + " = ?"
		values = append(values, value)
	}
	return stmt, values
}

// reloadGenerated reads the database generated columns back onto the
// instance (created_at, updated_at, version, defaults).
func reloadGenerated(c *dialect.Connection, d *entity.Definition, v entity.Interface) error {
	var generated []*catalog.Column
	for i := range d.Columns {
		col := &d.Columns[i]
		if col.ReadOnly && !col.Primary && !col.Reference {
			generated = append(generated, col)
		}
	}
	if len(generated) == 0 {
		return nil
	}

	columns := make([]string, len(generated))
	for i, col := range generated {
		columns[i] = col.Name
	}
	stmt := "SELECT " + strings.Join(columns, ", ") + " FROM " + d.TableName + " WHERE " + d.Primary().Name + " = ?"
	rows, err := c.QueryMaps(stmt, []interface{}{v.PrimaryKey()})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	for _, col := range generated {
		parsed, err := col.Parse(rows[0][col.Name])
		if err != nil {
			return err
		}
		if err := d.SetFieldValue(v, col, parsed); err != nil {
			return err
		}
	}
	return nil
}

// sortedColumns keeps the statement column order stable.
func sortedColumns(data map[string]interface{}) []string {
	columns := make([]string, 0, len(data))
	for column := range data {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}
