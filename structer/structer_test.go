// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package structer_test

import (
	"testing"

	"github.com/patrickascher/norm/structer"
	"github.com/stretchr/testify/assert"
)

// TestParseTag tests:
// - empty and blank tags.
// - flags without a value.
// - key/value entries, trimmed.
// - trailing separator.
func TestParseTag(t *testing.T) {
	asserts := assert.New(t)

	asserts.Equal(map[string]string{}, structer.ParseTag(""))
	asserts.Equal(map[string]string{}, structer.ParseTag(" "))
	asserts.Equal(map[string]string{"readonly": ""}, structer.ParseTag(" readonly "))
	asserts.Equal(map[string]string{"readonly": ""}, structer.ParseTag("readonly;"))
	asserts.Equal(map[string]string{"column": "mood", "enum": "happy|sad"}, structer.ParseTag("column: mood; enum:happy|sad"))
	asserts.Equal(map[string]string{"-": ""}, structer.ParseTag("-"))
}
