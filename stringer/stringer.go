// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package stringer derives the database names of go identifiers.
package stringer

import (
	"github.com/jinzhu/inflection"
	"github.com/serenize/snaker"
)

// CamelToSnake of the given string. Field names map to column names
// with it (CreatedAt -> created_at).
func CamelToSnake(s string) string {
	return snaker.CamelToSnake(s)
}

// PluralSnake returns the pluralized snake_case of the given string,
// the default table name of an entity (BlogPost -> blog_posts).
func PluralSnake(s string) string {
	return inflection.Plural(snaker.CamelToSnake(s))
}
