// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package expression

// Like renders a LIKE comparison.
//
// The needle always binds as a placeholder. Fuzzy ends bind a separate "%"
// value which is glued to the needle with the dialect's concat style, so
// the needle itself never needs wildcard characters.
type Like struct {
	// Haystack is the searched expression, usually a column.
	Haystack interface{}
	// Needle is the searched value.
	Needle string
	// FuzzyStart allows anything before the needle (LIKE '%needle').
	FuzzyStart bool
	// FuzzyEnd allows anything after the needle (LIKE 'needle%').
	FuzzyEnd bool
	// CaseInsensitive lowers both sides.
	CaseInsensitive bool
	// EscapeNeedle escapes wildcard characters inside the needle and
	// appends an ESCAPE clause. Without it the needle is a raw pattern.
	EscapeNeedle bool
}

func (l Like) SQL() string {
	haystack := argSQL(l.Haystack)

	// the needle and the optional wildcards each bind as one placeholder.
	var parts []string
	if l.FuzzyStart {
		parts = append(parts, "?")
	}
	needle := "?"
	if l.CaseInsensitive {
		needle = "LOWER(?)"
	}
	parts = append(parts, needle)
	if l.FuzzyEnd {
		parts = append(parts, "?")
	}

	if l.CaseInsensitive {
		haystack = "LOWER(" + haystack + ")"
	}

	sql := haystack + " LIKE " + concatSQL(parts, concatOf(l.Haystack))
	if l.EscapeNeedle {
		sql += " " + escapeClauseOf(l.Haystack)
	}
	return "(" + sql + ")"
}

func (l Like) Values() []interface{} {
	rv := argValues(l.Haystack)
	if l.FuzzyStart {
		rv = append(rv, "%")
	}
	needle := l.Needle
	if l.EscapeNeedle {
		needle = escapeOf(l.Haystack, needle)
	}
	rv = append(rv, needle)
	if l.FuzzyEnd {
		rv = append(rv, "%")
	}
	return rv
}
