// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slicer_test

import (
	"testing"

	"github.com/patrickascher/norm/slicer"
	"github.com/stretchr/testify/assert"
)

func TestStringExists(t *testing.T) {
	asserts := assert.New(t)

	i, ok := slicer.StringExists([]string{"a", "b"}, "b")
	asserts.True(ok)
	asserts.Equal(1, i)

	_, ok = slicer.StringExists([]string{"a", "b"}, "c")
	asserts.False(ok)
}

func TestStringPrefixExists(t *testing.T) {
	asserts := assert.New(t)

	asserts.Equal([]string{"book____id", "book____title"}, slicer.StringPrefixExists([]string{"id", "book____id", "book____title"}, "book____"))
	asserts.Nil(slicer.StringPrefixExists([]string{"id"}, "book____"))
}

func TestStringUnique(t *testing.T) {
	asserts := assert.New(t)

	asserts.Equal([]string{"a", "b", "c"}, slicer.StringUnique([]string{"a", "b", "a", "c", "b"}))
}
