// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package catalog

import (
	"fmt"
	"reflect"
	"time"

	null "gopkg.in/guregu/null.v4"
)

var (
	timeType      = reflect.TypeOf(time.Time{})
	nullTimeType  = reflect.TypeOf(null.Time{})
	nullStrType   = reflect.TypeOf(null.String{})
	nullIntType   = reflect.TypeOf(null.Int{})
	nullFloatType = reflect.TypeOf(null.Float{})
	nullBoolType  = reflect.TypeOf(null.Bool{})
)

// KindOf maps a declared go type to a storage type.
// References are not handled here, the entity package detects them before.
func KindOf(t reflect.Type) (string, error) {
	// nullable wrappers.
	switch t {
	case timeType, nullTimeType:
		return Timestamp, nil
	case nullStrType:
		return Text, nil
	case nullIntType:
		return Integer, nil
	case nullFloatType:
		return Float, nil
	case nullBoolType:
		return Bool, nil
	}

	// optional scalar.
	if t.Kind() == reflect.Ptr {
		return KindOf(t.Elem())
	}

	switch t.Kind() {
	case reflect.Bool:
		return Bool, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Integer, nil
	case reflect.Float32, reflect.Float64:
		return Float, nil
	case reflect.String:
		return Text, nil
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		// containers and embedded models are stored as json.
		return JSON, nil
	}

	return "", fmt.Errorf(ErrKind, t.String())
}

// Nullable reports if the declared go type can hold a null value.
func Nullable(t reflect.Type) bool {
	switch t {
	case nullTimeType, nullStrType, nullIntType, nullFloatType, nullBoolType:
		return true
	}
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return true
	}
	return false
}
