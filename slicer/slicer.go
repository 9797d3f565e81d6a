// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package slicer provides string slice helpers.
package slicer

import "strings"

// StringExists checks if the given string exists in the string slice.
// If it exists, the position and a boolean `true` will return.
func StringExists(slice []string, search string) (int, bool) {
	for i, s := range slice {
		if s == search {
			return i, true
		}
	}
	return 0, false
}

// StringPrefixExists checks if the given prefix exists in the string
// slice. If it exists, a slice with all matched results will return.
func StringPrefixExists(slice []string, search string) []string {
	var rv []string
	for _, s := range slice {
		if strings.HasPrefix(s, search) {
			rv = append(rv, s)
		}
	}
	return rv
}

// StringUnique will unique all strings in the given slice, keeping the
// first occurrence.
func StringUnique(slice []string) []string {
	seen := make(map[string]bool, len(slice))
	var rv []string
	for _, s := range slice {
		if seen[s] {
			continue
		}
		seen[s] = true
		rv = append(rv, s)
	}
	return rv
}
