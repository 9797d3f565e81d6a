// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package schema keeps the database structure in sync with the entity
// definitions. Tables are created on first use, new columns are added to
// existing tables. Columns are never dropped or altered.
package schema

import (
	"strings"
	"sync"

	"github.com/patrickascher/norm/dialect"
	"github.com/patrickascher/norm/entity"
	"github.com/patrickascher/norm/slicer"
)

// ensured guards the once-per-connection/table structure check.
var ensured sync.Map

// Ensure creates the entity table with all of its referenced tables and
// adds missing columns. The check runs once per connection and table,
// every later call is a cheap lookup.
func Ensure(c *dialect.Connection, d *entity.Definition) error {
	key := c.Name() + ":" + d.TableName
	if _, ok := ensured.Load(key); ok {
		return nil
	}

	if err := createTable(c, d, map[string]bool{}); err != nil {
		return err
	}
	if err := addColumns(c, d); err != nil {
		return err
	}

	ensured.Store(key, true)
	return nil
}

// createTable creates the table if it does not exist, referenced tables
// first. The created set breaks reference cycles.
func createTable(c *dialect.Connection, d *entity.Definition, created map[string]bool) error {
	if created[d.TableName] {
		return nil
	}
	created[d.TableName] = true

	for i := range d.Columns {
		col := &d.Columns[i]
		if !col.Reference || col.Polymorphic {
			continue
		}
		ref, err := entity.DefinitionOfType(col.GoType)
		if err != nil {
			return err
		}
		if err := createTable(c, ref, created); err != nil {
			return err
		}
	}

	parts := []string{d.Primary().Name + " " + c.Dialect().AutoIncrement()}
	for i := range d.Columns {
		col := &d.Columns[i]
		if col.Primary {
			continue
		}
		parts = append(parts, col.DDL()...)
	}
	for i := range d.Columns {
		col := &d.Columns[i]
		if col.Reference && !col.Polymorphic && !col.Collection {
			parts = append(parts, "FOREIGN KEY ("+col.PhysicalColumn()+") REFERENCES "+col.ReferenceTable+"(id)")
		}
	}

	stmt := "CREATE TABLE IF NOT EXISTS " + d.TableName + " (" + strings.Join(parts, ", ") + ")"
	_, err := c.Exec(stmt, nil)
	return err
}

// addColumns adds the missing physical columns of the definition.
// The existing columns are probed with an empty select, which works on
// every supported dialect.
func addColumns(c *dialect.Connection, d *entity.Definition) error {
	existing, err := tableColumns(c, d.TableName)
	if err != nil {
		return err
	}

	for i := range d.Columns {
		col := &d.Columns[i]
		if col.Primary {
			continue
		}
		for _, ddl := range col.DDL() {
			// the first token of the definition is the column name.
			name := strings.SplitN(ddl, " ", 2)[0]
			if _, ok := slicer.StringExists(existing, name); ok {
				continue
			}
			// a NOT NULL column without default cannot be added to a
			// filled table, existing rows keep NULL instead.
			if !strings.Contains(ddl, " DEFAULT ") {
				ddl = strings.ReplaceAll(ddl, " NOT NULL", "")
			}
			if _, err := c.Exec("ALTER TABLE "+d.TableName+" ADD COLUMN "+ddl, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// tableColumns returns the column names of the table.
func tableColumns(c *dialect.Connection, table string) ([]string, error) {
	rows, err := c.DB().Query("SELECT * FROM " + table + " WHERE 1=0")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return rows.Columns()
}
