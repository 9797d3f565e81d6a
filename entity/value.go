// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package entity

import (
	"fmt"
	"reflect"
	"time"

	"github.com/patrickascher/norm/catalog"
	null "gopkg.in/guregu/null.v4"
)

// ErrAssign - Error message.
var ErrAssign = "entity: cannot assign %#v to %s.%s"

// FieldValue returns the go value of a column on the instance.
// Promoted mixin fields are found as well.
func (d *Definition) FieldValue(v Interface, col *catalog.Column) interface{} {
	return reflect.ValueOf(v).Elem().FieldByName(col.Field).Interface()
}

// SetFieldValue assigns a canonical value to the column field.
// Null wrappers, optional scalars and convertible numerics are handled,
// so the parsed database value can be assigned directly.
func (d *Definition) SetFieldValue(v Interface, col *catalog.Column, val interface{}) error {
	field := reflect.ValueOf(v).Elem().FieldByName(col.Field)
	if !field.IsValid() {
		return fmt.Errorf(ErrAssign, val, d.Name, col.Field)
	}

	if val == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	rval := reflect.ValueOf(val)
	if rval.Type().AssignableTo(field.Type()) {
		field.Set(rval)
		return nil
	}

	// wrap into the null types.
	switch field.Type() {
	case reflect.TypeOf(null.Time{}):
		if t, ok := val.(time.Time); ok {
			field.Set(reflect.ValueOf(null.TimeFrom(t)))
			return nil
		}
	case reflect.TypeOf(null.String{}):
		if s, ok := val.(string); ok {
			field.Set(reflect.ValueOf(null.StringFrom(s)))
			return nil
		}
	case reflect.TypeOf(null.Int{}):
		if i, ok := val.(int64); ok {
			field.Set(reflect.ValueOf(null.IntFrom(i)))
			return nil
		}
	case reflect.TypeOf(null.Float{}):
		if f, ok := val.(float64); ok {
			field.Set(reflect.ValueOf(null.FloatFrom(f)))
			return nil
		}
	case reflect.TypeOf(null.Bool{}):
		if b, ok := val.(bool); ok {
			field.Set(reflect.ValueOf(null.BoolFrom(b)))
			return nil
		}
	}

	// optional scalar.
	if field.Kind() == reflect.Ptr {
		elem := field.Type().Elem()
		if rval.Type().AssignableTo(elem) {
			ptr := reflect.New(elem)
			ptr.Elem().Set(rval)
			field.Set(ptr)
			return nil
		}
		if rval.Type().ConvertibleTo(elem) {
			ptr := reflect.New(elem)
			ptr.Elem().Set(rval.Convert(elem))
			field.Set(ptr)
			return nil
		}
	}

	// numeric widening (int64 -> int, ...).
	if rval.Type().ConvertibleTo(field.Type()) && field.Kind() != reflect.Slice && field.Kind() != reflect.String {
		field.Set(rval.Convert(field.Type()))
		return nil
	}
	if rval.Type().ConvertibleTo(field.Type()) && field.Kind() == reflect.String && rval.Kind() == reflect.String {
		field.Set(rval.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf(ErrAssign, val, d.Name, col.Field)
}

// AssignReference sets the relation field from loaded instances.
// Concrete instances are assignable to both the declared ptr type and the
// entity interface of a polymorphic field.
func (d *Definition) AssignReference(v Interface, col *catalog.Column, instances []Interface) error {
	field := reflect.ValueOf(v).Elem().FieldByName(col.Field)
	if !field.IsValid() {
		return fmt.Errorf(ErrAssign, instances, d.Name, col.Field)
	}

	if col.Collection {
		slice := reflect.MakeSlice(field.Type(), 0, len(instances))
		for _, instance := range instances {
			rv := reflect.ValueOf(instance)
			if !rv.Type().AssignableTo(field.Type().Elem()) {
				return fmt.Errorf(ErrAssign, instance, d.Name, col.Field)
			}
			slice = reflect.Append(slice, rv)
		}
		field.Set(slice)
		return nil
	}

	if len(instances) == 0 {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	rv := reflect.ValueOf(instances[0])
	if !rv.Type().AssignableTo(field.Type()) {
		return fmt.Errorf(ErrAssign, instances[0], d.Name, col.Field)
	}
	field.Set(rv)
	return nil
}

// referenceDefinition resolves the target definition of a relation.
// Polymorphic targets are resolved per row by their stored table name.
func (d *Definition) referenceDefinition(col *catalog.Column, ref LazyRef, i int) (*Definition, error) {
	if col.Polymorphic {
		if i >= len(ref.Tables) {
			return nil, fmt.Errorf(ErrUnknownTable, "")
		}
		return DefinitionByTable(ref.Tables[i])
	}
	return DefinitionOfType(col.GoType)
}

// baseOf exposes the lazy bookkeeping of the embedded Base.
func baseOf(v Interface) (interface{ DeleteLazyRef(string) }, bool) {
	b, ok := v.(interface{ DeleteLazyRef(string) })
	return b, ok
}
