// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package entity_test

import (
	"fmt"
	"testing"

	"github.com/patrickascher/norm/entity"
	"github.com/stretchr/testify/assert"
)

// TestProcessData tests:
// - the primary key and read-only columns are never written.
// - scalar references serialize into their fk column.
// - collections serialize into a json id list.
// - polymorphic relations store the target table next to the id.
func TestProcessData(t *testing.T) {
	asserts := assert.New(t)

	d, err := entity.Register(&Book{})
	asserts.NoError(err)

	publisher := &Publisher{Name: "Hanser"}
	publisher.SetPrimaryKey(3)
	hans := &Author{Name: "Hans"}
	hans.SetPrimaryKey(5)
	greta := &Author{Name: "Greta"}
	greta.SetPrimaryKey(8)

	book := &Book{
		Title:     "Der Prozess",
		Mood:      "sad",
		Rating:    4.5,
		Publisher: publisher,
		Authors:   []*Author{hans, greta},
		Owner:     publisher,
		Likes:     []entity.Interface{hans},
	}

	data, err := entity.ProcessData(d, book)
	asserts.NoError(err)

	asserts.NotContains(data, "id")
	asserts.NotContains(data, "created_at")
	asserts.NotContains(data, "checksum")
	asserts.Equal("Der Prozess", data["title"])
	asserts.Equal("sad", data["mood"])
	asserts.Equal(4.5, data["rating"])
	asserts.Equal(int64(3), data["publisher_id"])
	asserts.Equal("[5,8]", data["authors_ids"])
	asserts.Equal(int64(3), data["owner_id"])
	asserts.Equal("publishers", data["owner_table"])
	asserts.Equal("[5]", data["likes_ids"])
	asserts.Equal(`["authors"]`, data["likes_tables"])

	// nil relations clear both physical columns.
	empty := &Book{Title: "Leer", Mood: "happy"}
	data, err = entity.ProcessData(d, empty)
	asserts.NoError(err)
	asserts.Nil(data["publisher_id"])
	asserts.Nil(data["owner_id"])
	asserts.Nil(data["owner_table"])
	asserts.Equal("[]", data["authors_ids"])
}

// TestProcessData_Columns tests:
// - a column subset only serializes the named logical columns.
func TestProcessData_Columns(t *testing.T) {
	asserts := assert.New(t)

	d, err := entity.Register(&Book{})
	asserts.NoError(err)

	book := &Book{Title: "Amerika", Mood: "happy"}
	data, err := entity.ProcessData(d, book, "title")
	asserts.NoError(err)
	asserts.Len(data, 1)
	asserts.Equal("Amerika", data["title"])
}

// TestProcessData_EnumError tests:
// - values outside of the enum members are rejected.
func TestProcessData_EnumError(t *testing.T) {
	asserts := assert.New(t)

	d, err := entity.Register(&Book{})
	asserts.NoError(err)

	book := &Book{Title: "Das Schloss", Mood: "angry"}
	_, err = entity.ProcessData(d, book)
	asserts.Error(err)
}

// TestEnsureWritable tests:
// - the primary key and read-only columns are rejected.
// - unknown columns are rejected.
func TestEnsureWritable(t *testing.T) {
	asserts := assert.New(t)

	d, err := entity.Register(&Book{})
	asserts.NoError(err)

	asserts.NoError(d.EnsureWritable([]string{"title", "mood"}))
	asserts.EqualError(d.EnsureWritable([]string{"id"}), fmt.Sprintf(entity.ErrReadOnly, "id", "Book"))
	asserts.EqualError(d.EnsureWritable([]string{"checksum"}), fmt.Sprintf(entity.ErrReadOnly, "checksum", "Book"))
	asserts.Error(d.EnsureWritable([]string{"unknown"}))
}

// TestSerializeColumn tests:
// - a single column serializes into its physical entries.
func TestSerializeColumn(t *testing.T) {
	asserts := assert.New(t)

	d, err := entity.Register(&Book{})
	asserts.NoError(err)

	owner, err := d.Column("owner")
	asserts.NoError(err)

	author := &Author{Name: "Anna"}
	author.SetPrimaryKey(9)
	data, err := entity.SerializeColumn(owner, author)
	asserts.NoError(err)
	asserts.Equal(int64(9), data["owner_id"])
	asserts.Equal("authors", data["owner_table"])

	title, err := d.Column("title")
	asserts.NoError(err)
	data, err = entity.SerializeColumn(title, "Die Verwandlung")
	asserts.NoError(err)
	asserts.Equal(map[string]interface{}{"title": "Die Verwandlung"}, data)
}
