// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package catalog

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	null "gopkg.in/guregu/null.v4"
)

// timestampLayouts are tried in order when a timestamp arrives as string.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Serialize converts a go value into its database representation.
// Null wrappers are unwrapped, invalid ones serialize to nil.
func (c Column) Serialize(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	// unwrap the null types.
	switch n := v.(type) {
	case null.String:
		if !n.Valid {
			return nil, nil
		}
		v = n.String
	case null.Int:
		if !n.Valid {
			return nil, nil
		}
		v = n.Int64
	case null.Float:
		if !n.Valid {
			return nil, nil
		}
		v = n.Float64
	case null.Bool:
		if !n.Valid {
			return nil, nil
		}
		v = n.Bool
	case null.Time:
		if !n.Valid {
			return nil, nil
		}
		v = n.Time
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil, nil
	}

	// references first, the primary key method needs the pointer.
	if c.Reference {
		return c.serializeReference(v, rv)
	}

	// unwrap optional scalars.
	if rv.Kind() == reflect.Ptr {
		v = rv.Elem().Interface()
		rv = reflect.ValueOf(v)
	}

	switch c.Type {
	case Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case Integer:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return int64(rv.Uint()), nil
		}
	case Float:
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			return rv.Float(), nil
		case reflect.Int, reflect.Int64:
			return float64(rv.Int()), nil
		}
	case Text:
		if rv.Kind() == reflect.String {
			return rv.String(), nil
		}
	case Timestamp:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
		if s, ok := v.(string); ok {
			return s, nil
		}
	case Enum:
		if s, ok := v.(string); ok {
			if !c.IsEnumMember(s) {
				return nil, fmt.Errorf(ErrEnum, s, c.Name, c.Enum)
			}
			return s, nil
		}
	case JSON:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf(ErrSerialize, v, c.Type, c.Name)
		}
		return string(b), nil
	}

	return nil, fmt.Errorf(ErrSerialize, v, c.Type, c.Name)
}

// serializeReference converts an entity or id value into the fk column value.
// Collections serialize into a json list of ids.
func (c Column) serializeReference(v interface{}, rv reflect.Value) (interface{}, error) {
	if c.Collection {
		if rv.Kind() != reflect.Slice {
			return nil, fmt.Errorf(ErrSerialize, v, c.Type, c.Name)
		}
		ids := make([]int64, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			id, err := referenceID(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf(ErrSerialize, v, c.Type, c.Name)
			}
			ids[i] = id
		}
		b, err := json.Marshal(ids)
		if err != nil {
			return nil, fmt.Errorf(ErrSerialize, v, c.Type, c.Name)
		}
		return string(b), nil
	}

	id, err := referenceID(v)
	if err != nil {
		return nil, fmt.Errorf(ErrSerialize, v, c.Type, c.Name)
	}
	return id, nil
}

// referenceID extracts the primary key of an entity or accepts a plain id.
func referenceID(v interface{}) (int64, error) {
	switch id := v.(type) {
	case Identifier:
		return id.PrimaryKey(), nil
	case int64:
		return id, nil
	case int:
		return int64(id), nil
	case float64:
		return int64(id), nil
	}
	return 0, fmt.Errorf("no identifier")
}

// Parse converts a database value back into its canonical go value.
// Typed json containers fail hard on undecodable data, generic json
// columns keep the raw string instead.
func (c Column) Parse(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	if c.Reference {
		return c.parseReference(v)
	}

	switch c.Type {
	case Bool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case int64:
			return b != 0, nil
		case string:
			if p, err := strconv.ParseBool(b); err == nil {
				return p, nil
			}
		}
	case Integer:
		switch i := v.(type) {
		case int64:
			return i, nil
		case int:
			return int64(i), nil
		case float64:
			return int64(i), nil
		case string:
			if p, err := strconv.ParseInt(i, 10, 64); err == nil {
				return p, nil
			}
		}
	case Float:
		switch f := v.(type) {
		case float64:
			return f, nil
		case int64:
			return float64(f), nil
		case string:
			if p, err := strconv.ParseFloat(f, 64); err == nil {
				return p, nil
			}
		}
	case Text:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	case Timestamp:
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case string:
			for _, layout := range timestampLayouts {
				if p, err := time.Parse(layout, t); err == nil {
					return p, nil
				}
			}
		}
	case Enum:
		if s, ok := v.(string); ok {
			if !c.IsEnumMember(s) {
				return nil, fmt.Errorf(ErrEnum, s, c.Name, c.Enum)
			}
			return s, nil
		}
	case JSON:
		return c.parseJSON(v)
	}

	return nil, fmt.Errorf(ErrParse, v, c.Type, c.Name)
}

// parseJSON decodes a json column value into the declared container type.
func (c Column) parseJSON(v interface{}) (interface{}, error) {
	// generic json keeps whatever decodes, otherwise the raw value.
	if c.GenericJSON || c.GoType == nil {
		s, ok := v.(string)
		if !ok {
			return v, nil
		}
		var rv interface{}
		if err := json.Unmarshal([]byte(s), &rv); err != nil {
			return s, nil
		}
		return rv, nil
	}

	target := c.GoType
	if target.Kind() == reflect.Ptr {
		target = target.Elem()
	}
	ptr := reflect.New(target)

	switch data := v.(type) {
	case string:
		if err := json.Unmarshal([]byte(data), ptr.Interface()); err != nil {
			return nil, fmt.Errorf(ErrParse, v, c.Type, c.Name)
		}
	case map[string]interface{}:
		// already decoded, convert the map into the container type.
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           ptr.Interface(),
		})
		if err != nil {
			return nil, fmt.Errorf(ErrParse, v, c.Type, c.Name)
		}
		if err := decoder.Decode(data); err != nil {
			return nil, fmt.Errorf(ErrParse, v, c.Type, c.Name)
		}
	default:
		return nil, fmt.Errorf(ErrParse, v, c.Type, c.Name)
	}

	if c.GoType.Kind() == reflect.Ptr {
		return ptr.Interface(), nil
	}
	return ptr.Elem().Interface(), nil
}

// parseReference converts a fk column value into the referenced id(s).
func (c Column) parseReference(v interface{}) (interface{}, error) {
	if c.Collection {
		switch ids := v.(type) {
		case []int64:
			return ids, nil
		case string:
			var rv []int64
			if err := json.Unmarshal([]byte(ids), &rv); err != nil {
				return nil, fmt.Errorf(ErrParse, v, c.Type, c.Name)
			}
			return rv, nil
		}
		return nil, fmt.Errorf(ErrParse, v, c.Type, c.Name)
	}

	switch id := v.(type) {
	case int64:
		return id, nil
	case int:
		return int64(id), nil
	case float64:
		return int64(id), nil
	case string:
		if p, err := strconv.ParseInt(id, 10, 64); err == nil {
			return p, nil
		}
	}
	return nil, fmt.Errorf(ErrParse, v, c.Type, c.Name)
}
