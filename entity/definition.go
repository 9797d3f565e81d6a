// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package entity

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/patrickascher/norm/catalog"
	"github.com/patrickascher/norm/stringer"
	"github.com/patrickascher/norm/structer"
	null "gopkg.in/guregu/null.v4"
)

// Error messages.
var (
	ErrBase                = "entity: %s must embed entity.Base"
	ErrNoStruct            = "entity: %s must be a ptr to a struct"
	ErrReferenceContainer  = "entity: unsupported reference container %s on %s.%s"
	ErrVersionedSoftDelete = "entity: %s is versioned but has no soft-delete mixin"
	ErrUnknownColumn       = "entity: column %#v does not exist on %s"
	ErrField               = "entity: field %s.%s: %w"
)

// Definition is the parsed description of an entity struct.
type Definition struct {
	// Name of the go struct.
	Name string
	// TableName of the entity.
	TableName string
	// Type of the struct (without ptr).
	Type reflect.Type
	// Columns of the entity, the primary key is always first.
	Columns []catalog.Column
	// Connection name of the dialect package.
	Connection string

	// Timestamps is set if the Timestamps mixin is embedded.
	Timestamps bool
	// SoftDelete is set if the SoftDelete mixin is embedded.
	SoftDelete bool
	// Versioned is set if the Versioned mixin is embedded.
	Versioned bool
	// VersionedAlong are the logical columns which scope the version counter.
	VersionedAlong []string
}

// parse reflects over the struct type and builds the definition.
func parse(t reflect.Type) (*Definition, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf(ErrNoStruct, t.String())
	}

	d := &Definition{
		Name:       t.Name(),
		TableName:  defaultTableName(t),
		Type:       t,
		Connection: "default",
	}

	if err := d.parseFields(t); err != nil {
		return nil, err
	}

	// entity.Base is mandatory, it adds the primary key.
	if len(d.Columns) == 0 || !d.Columns[0].Primary {
		return nil, fmt.Errorf(ErrBase, t.String())
	}

	if d.Versioned && !d.SoftDelete {
		return nil, fmt.Errorf(ErrVersionedSoftDelete, t.String())
	}

	return d, nil
}

// parseFields walks the struct fields. Mixins are recognized by type,
// other embedded structs are flattened.
func (d *Definition) parseFields(t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)

		// unexported fields are not persisted.
		if f.PkgPath != "" {
			continue
		}

		if f.Anonymous {
			if err := d.parseMixin(f.Type); err != nil {
				return err
			}
			continue
		}

		col, err := d.parseField(f)
		if err != nil {
			return err
		}
		if col != nil {
			d.Columns = append(d.Columns, *col)
		}
	}
	return nil
}

// parseMixin adds the columns of the known mixins.
func (d *Definition) parseMixin(t reflect.Type) error {
	switch t {
	case baseType:
		// primary key first.
		d.Columns = append([]catalog.Column{{
			Name:     "id",
			Field:    "ID",
			Type:     catalog.Integer,
			Primary:  true,
			ReadOnly: true,
			GoType:   reflect.TypeOf(int64(0)),
		}}, d.Columns...)
	case timestampsType:
		d.Timestamps = true
		d.Columns = append(d.Columns,
			catalog.Column{Name: "created_at", Field: "CreatedAt", Type: catalog.Timestamp, ReadOnly: true, Default: catalog.Raw("CURRENT_TIMESTAMP"), GoType: reflect.TypeOf(null.Time{})},
			catalog.Column{Name: "updated_at", Field: "UpdatedAt", Type: catalog.Timestamp, ReadOnly: true, GoType: reflect.TypeOf(null.Time{})},
		)
	case softDeleteType:
		d.SoftDelete = true
		d.Columns = append(d.Columns,
			catalog.Column{Name: "deleted_at", Field: "DeletedAt", Type: catalog.Timestamp, ReadOnly: true, GoType: reflect.TypeOf(null.Time{})},
		)
	case versionedType:
		d.Versioned = true
		d.Columns = append(d.Columns,
			catalog.Column{Name: "version", Field: "Version", Type: catalog.Integer, ReadOnly: true, Default: 0, GoType: reflect.TypeOf(int64(0))},
		)
	default:
		// flatten foreign embedded structs.
		if t.Kind() == reflect.Struct {
			return d.parseFields(t)
		}
	}
	return nil
}

// parseField converts one struct field into a column.
func (d *Definition) parseField(f reflect.StructField) (*catalog.Column, error) {
	tags := structer.ParseTag(f.Tag.Get(TagName))
	if _, skip := tags[tagSkip]; skip {
		return nil, nil
	}

	col := &catalog.Column{
		Name:   stringer.CamelToSnake(f.Name),
		Field:  f.Name,
		GoType: f.Type,
	}
	if name, ok := tags[tagColumn]; ok && name != "" {
		col.Name = name
	}
	if _, ok := tags[tagReadOnly]; ok {
		col.ReadOnly = true
	}

	// relations first, they do not map to a scalar kind.
	if ok, err := d.parseReference(f, col); err != nil {
		return nil, err
	} else if ok {
		return col, nil
	}

	// enum members are declared in the tag.
	if members, ok := tags[tagEnum]; ok && members != "" {
		col.Type = catalog.Enum
		col.Enum = splitEnum(members)
	} else if _, ok := tags[tagJSON]; ok {
		col.Type = catalog.JSON
		col.GenericJSON = true
	} else if f.Type.Kind() == reflect.Interface {
		// interface{} fields hold arbitrary json data.
		col.Type = catalog.JSON
		col.GenericJSON = true
	} else {
		kind, err := catalog.KindOf(f.Type)
		if err != nil {
			return nil, fmt.Errorf(ErrField, d.Name, f.Name, err)
		}
		col.Type = kind
	}

	if def, ok := tags[tagDefault]; ok {
		v, err := parseDefault(col.Type, def)
		if err != nil {
			return nil, fmt.Errorf(ErrField, d.Name, f.Name, err)
		}
		col.Default = v
	}

	// non nullable fields without default are created NOT NULL.
	if _, nullable := tags[tagNullable]; !nullable {
		col.Required = !catalog.Nullable(f.Type) && col.Default == nil && !col.ReadOnly
	}

	return col, nil
}

// parseReference checks if the field declares a relation.
// *T is a scalar, []*T a collection, the entity.Interface type marks the
// target as polymorphic. Other containers of entities are not supported.
func (d *Definition) parseReference(f reflect.StructField, col *catalog.Column) (bool, error) {
	t := f.Type

	switch {
	case t == interfaceType:
		col.Type = catalog.Reference
		col.Reference = true
		col.Polymorphic = true
		return true, nil
	case t.Kind() == reflect.Ptr && t.Implements(interfaceType):
		col.Type = catalog.Reference
		col.Reference = true
		col.ReferenceTable = tableNameOf(t)
		return true, nil
	case t.Kind() == reflect.Slice:
		elem := t.Elem()
		if elem == interfaceType {
			col.Type = catalog.Reference
			col.Reference = true
			col.Collection = true
			col.Polymorphic = true
			return true, nil
		}
		if elem.Kind() == reflect.Ptr && elem.Implements(interfaceType) {
			col.Type = catalog.Reference
			col.Reference = true
			col.Collection = true
			col.ReferenceTable = tableNameOf(elem)
			return true, nil
		}
	case t.Kind() == reflect.Map || t.Kind() == reflect.Array:
		elem := t.Elem()
		if elem == interfaceType || (elem.Kind() == reflect.Ptr && elem.Implements(interfaceType)) {
			return false, fmt.Errorf(ErrReferenceContainer, t.Kind().String(), d.Name, f.Name)
		}
	case t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Slice:
		elem := t.Elem().Elem()
		if elem == interfaceType || (elem.Kind() == reflect.Ptr && elem.Implements(interfaceType)) {
			return false, fmt.Errorf(ErrReferenceContainer, "ptr to slice", d.Name, f.Name)
		}
	}

	return false, nil
}

// Column returns a column by its logical name, field name or one of its
// physical columns (author_id, owner_table, ...).
func (d *Definition) Column(name string) (*catalog.Column, error) {
	for i := range d.Columns {
		c := &d.Columns[i]
		if c.Name == name || c.Field == name {
			return c, nil
		}
		if c.Reference && (c.PhysicalColumn() == name || c.DiscriminatorColumn() == name) {
			return c, nil
		}
	}
	return nil, fmt.Errorf(ErrUnknownColumn, name, d.Name)
}

// Primary returns the primary key column.
func (d *Definition) Primary() *catalog.Column {
	return &d.Columns[0]
}

// SoftDeleteColumn returns the deleted_at column or nil.
func (d *Definition) SoftDeleteColumn() *catalog.Column {
	if !d.SoftDelete {
		return nil
	}
	c, _ := d.Column("deleted_at")
	return c
}

// DefaultOrder returns the logical columns of the default ORDER BY.
// Versioned entities order by their version scope, everything else by the
// primary key.
func (d *Definition) DefaultOrder() []string {
	if d.Versioned {
		return append(append([]string{}, d.VersionedAlong...), "version")
	}
	return []string{d.Primary().Name}
}

// New creates a zero instance of the entity.
func (d *Definition) New() Interface {
	return reflect.New(d.Type).Interface().(Interface)
}

// defaultTableName is the pluralized snake_case of the struct name.
// A TableNamer implementation wins.
func defaultTableName(t reflect.Type) string {
	if n, ok := reflect.New(t).Interface().(TableNamer); ok {
		return n.TableName()
	}
	return stringer.PluralSnake(t.Name())
}

// tableNameOf resolves the table name of a relation target type.
func tableNameOf(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return defaultTableName(t)
}

// splitEnum splits the enum tag members.
func splitEnum(members string) []string {
	var rv []string
	for _, m := range strings.Split(members, enumSeparator) {
		if m = strings.TrimSpace(m); m != "" {
			rv = append(rv, m)
		}
	}
	return rv
}

// parseDefault coerces the tag default into the storage type.
func parseDefault(kind string, v string) (interface{}, error) {
	switch kind {
	case catalog.Integer:
		return strconv.Atoi(v)
	case catalog.Float:
		return strconv.ParseFloat(v, 64)
	case catalog.Bool:
		return strconv.ParseBool(v)
	}
	return v, nil
}
