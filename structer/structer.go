// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package structer parses struct tag configurations.
package structer

import "strings"

// tag syntax.
const (
	tagSeparator = ";"
	tagKeyValue  = ":"
)

// ParseTag splits a struct tag value into a key/value map.
// Entries are separated by ";", key and value by ":". Keys without a
// value are stored with an empty string (flags).
//
//	`orm:"column:mood;enum:happy|sad;readonly"`
func ParseTag(tag string) map[string]string {
	rv := make(map[string]string)
	if strings.TrimSpace(tag) == "" {
		return rv
	}

	for _, entry := range strings.Split(tag, tagSeparator) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if k, v, ok := strings.Cut(entry, tagKeyValue); ok {
			rv[strings.TrimSpace(k)] = strings.TrimSpace(v)
			continue
		}
		rv[entry] = ""
	}

	return rv
}
