// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package query

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/patrickascher/norm/expression"
)

// lookupSeparator splits the field path from the lookup name.
const lookupSeparator = "__"

// lookups maps the django style filter suffixes to column operators.
var lookups = map[string]func(*expression.Column, interface{}) (expression.Expression, error){
	"exact":       func(c *expression.Column, v interface{}) (expression.Expression, error) { return c.Eq(v), nil },
	"iexact":      func(c *expression.Column, v interface{}) (expression.Expression, error) { return c.IEq(v), nil },
	"lt":          func(c *expression.Column, v interface{}) (expression.Expression, error) { return c.Lt(v), nil },
	"lte":         func(c *expression.Column, v interface{}) (expression.Expression, error) { return c.Lte(v), nil },
	"gt":          func(c *expression.Column, v interface{}) (expression.Expression, error) { return c.Gt(v), nil },
	"gte":         func(c *expression.Column, v interface{}) (expression.Expression, error) { return c.Gte(v), nil },
	"in":          inLookup,
	"range":       rangeLookup,
	"isnull":      isNullLookup,
	"contains":    textLookup((*expression.Column).Contains),
	"icontains":   textLookup((*expression.Column).IContains),
	"startswith":  textLookup((*expression.Column).StartsWith),
	"istartswith": textLookup((*expression.Column).IStartsWith),
	"endswith":    textLookup((*expression.Column).EndsWith),
	"iendswith":   textLookup((*expression.Column).IEndsWith),
	"like":        textLookup((*expression.Column).Like),
	"ilike":       textLookup((*expression.Column).ILike),
}

// textLookup adapts the string operators of the column.
func textLookup(op func(*expression.Column, string) expression.Expression) func(*expression.Column, interface{}) (expression.Expression, error) {
	return func(c *expression.Column, v interface{}) (expression.Expression, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf(expression.ErrReferenceValue, c.Name, v)
		}
		return op(c, s), nil
	}
}

// inLookup spreads the filter value into the IN list.
func inLookup(c *expression.Column, v interface{}) (expression.Expression, error) {
	rv := reflect.ValueOf(v)
	if v == nil || rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf(expression.ErrReferenceValue, c.Name, v)
	}
	values := make([]interface{}, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return c.In(values...), nil
}

// rangeLookup spans an inclusive range between exactly two bounds, any
// slice kind is accepted.
func rangeLookup(c *expression.Column, v interface{}) (expression.Expression, error) {
	rv := reflect.ValueOf(v)
	if v == nil || rv.Kind() != reflect.Slice || rv.Len() != 2 {
		return nil, fmt.Errorf(expression.ErrReferenceValue, c.Name, v)
	}
	return c.Between(rv.Index(0).Interface(), rv.Index(1).Interface()), nil
}

func isNullLookup(c *expression.Column, v interface{}) (expression.Expression, error) {
	isNull, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf(expression.ErrReferenceValue, c.Name, v)
	}
	if isNull {
		return c.IsNull(), nil
	}
	return c.IsNotNull(), nil
}

// Filter adds django style conditions (field__lookup). A bare field name
// compares exact, dotted relations are written path__lookup
// (author__name__icontains). The keys are applied in sorted order, so the
// compiled statement is stable.
func (q *Query) Filter(filters map[string]interface{}) *Query {
	if q.err != nil {
		return q
	}
	c := q.clone()

	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		e, err := c.filterExpression(key, filters[key])
		if err != nil {
			c.err = err
			return c
		}
		c.where = append(c.where, e)
	}
	return c
}

// filterExpression resolves one filter key into an expression.
func (q *Query) filterExpression(key string, value interface{}) (expression.Expression, error) {
	parts := strings.Split(key, lookupSeparator)
	lookup := "exact"
	path := key
	if _, ok := lookups[parts[len(parts)-1]]; ok && len(parts) > 1 {
		lookup = parts[len(parts)-1]
		path = strings.Join(parts[:len(parts)-1], lookupSeparator)
	} else if _, ok := lookups[key]; ok {
		// a bare lookup name carries no field path.
		return nil, fmt.Errorf(ErrLookupPath, key)
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf(ErrLookupPath, key)
	}

	resolved, err := q.Resolve(path)
	if err != nil {
		return nil, err
	}

	// relations only compare against an instance, an id or NULL.
	if t, ok := resolved.(*expression.Table); ok {
		switch lookup {
		case "exact":
			return t.Eq(value)
		case "isnull":
			isNull, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf(expression.ErrReferenceValue, path, value)
			}
			if isNull {
				return t.Eq(nil)
			}
			e, err := t.Eq(nil)
			if err != nil {
				return nil, err
			}
			return expression.Not(e), nil
		}
		return nil, fmt.Errorf(ErrRelationLookup, path)
	}

	return lookups[lookup](resolved.(*expression.Column), value)
}
