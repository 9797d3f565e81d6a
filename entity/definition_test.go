// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package entity_test

import (
	"fmt"
	"testing"

	"github.com/patrickascher/norm/catalog"
	"github.com/patrickascher/norm/entity"
	"github.com/stretchr/testify/assert"
	null "gopkg.in/guregu/null.v4"
)

type Publisher struct {
	entity.Base

	Name string
}

type Book struct {
	entity.Base
	entity.Timestamps
	entity.SoftDelete

	Title     string
	Mood      string `orm:"enum:happy|sad"`
	Pages     *int
	Subtitle  null.String
	Rating    float64 `orm:"default:1.5"`
	Extra     interface{}
	Meta      map[string]string `orm:"json"`
	Internal  string            `orm:"-"`
	Sku       string            `orm:"column:article_number"`
	Checksum  string            `orm:"readonly"`
	Remark    string            `orm:"nullable"`
	Publisher *Publisher
	Authors   []*Author
	Owner     entity.Interface
	Likes     []entity.Interface
}

type Author struct {
	entity.Base

	Name string
}

type Revision struct {
	entity.Base
	entity.SoftDelete
	entity.Versioned

	Slug string
	Body string
}

type Legacy struct {
	entity.Base

	Name string
}

func (l Legacy) TableName() string { return "legacy_rows" }

// TestRegister tests:
// - the table name is the pluralized snake_case of the struct name.
// - the primary key of entity.Base is always the first column.
// - the mixins set their flags and columns.
// - the struct tags configure column name, enum, json, readonly,
//   nullable, default and skip.
func TestRegister(t *testing.T) {
	asserts := assert.New(t)

	d, err := entity.Register(&Book{})
	asserts.NoError(err)
	asserts.Equal("Book", d.Name)
	asserts.Equal("books", d.TableName)
	asserts.True(d.Timestamps)
	asserts.True(d.SoftDelete)
	asserts.False(d.Versioned)

	pk := d.Primary()
	asserts.Equal("id", pk.Name)
	asserts.True(pk.Primary)
	asserts.True(pk.ReadOnly)

	var tests = []struct {
		name string
		typ  string
	}{
		{"id", catalog.Integer},
		{"created_at", catalog.Timestamp},
		{"updated_at", catalog.Timestamp},
		{"deleted_at", catalog.Timestamp},
		{"title", catalog.Text},
		{"mood", catalog.Enum},
		{"pages", catalog.Integer},
		{"subtitle", catalog.Text},
		{"rating", catalog.Float},
		{"extra", catalog.JSON},
		{"meta", catalog.JSON},
		{"article_number", catalog.Text},
		{"checksum", catalog.Text},
		{"remark", catalog.Text},
		{"publisher", catalog.Reference},
		{"authors", catalog.Reference},
		{"owner", catalog.Reference},
		{"likes", catalog.Reference},
	}
	asserts.Len(d.Columns, len(tests))
	for i, tt := range tests {
		asserts.Equal(tt.name, d.Columns[i].Name, tt.name)
		asserts.Equal(tt.typ, d.Columns[i].Type, tt.name)
	}

	mood, err := d.Column("mood")
	asserts.NoError(err)
	asserts.Equal([]string{"happy", "sad"}, mood.Enum)

	rating, err := d.Column("rating")
	asserts.NoError(err)
	asserts.Equal(1.5, rating.Default)
	asserts.False(rating.Required)

	title, err := d.Column("title")
	asserts.NoError(err)
	asserts.True(title.Required)

	remark, err := d.Column("remark")
	asserts.NoError(err)
	asserts.False(remark.Required)

	checksum, err := d.Column("checksum")
	asserts.NoError(err)
	asserts.True(checksum.ReadOnly)

	_, err = d.Column("internal")
	asserts.Error(err)
}

// TestRegister_References tests:
// - a ptr field is a scalar reference, a slice a collection.
// - the entity interface marks the target polymorphic.
// - the physical columns derive from the logical name.
func TestRegister_References(t *testing.T) {
	asserts := assert.New(t)

	d, err := entity.Register(&Book{})
	asserts.NoError(err)

	publisher, err := d.Column("publisher")
	asserts.NoError(err)
	asserts.True(publisher.Reference)
	asserts.False(publisher.Collection)
	asserts.False(publisher.Polymorphic)
	asserts.Equal("publishers", publisher.ReferenceTable)
	asserts.Equal("publisher_id", publisher.PhysicalColumn())
	asserts.Equal("", publisher.DiscriminatorColumn())

	authors, err := d.Column("authors")
	asserts.NoError(err)
	asserts.True(authors.Collection)
	asserts.Equal("authors_ids", authors.PhysicalColumn())

	owner, err := d.Column("owner")
	asserts.NoError(err)
	asserts.True(owner.Polymorphic)
	asserts.Equal("owner_id", owner.PhysicalColumn())
	asserts.Equal("owner_table", owner.DiscriminatorColumn())

	likes, err := d.Column("likes")
	asserts.NoError(err)
	asserts.True(likes.Polymorphic)
	asserts.True(likes.Collection)
	asserts.Equal("likes_ids", likes.PhysicalColumn())
	asserts.Equal("likes_tables", likes.DiscriminatorColumn())

	// physical columns resolve to their logical column.
	byPhysical, err := d.Column("publisher_id")
	asserts.NoError(err)
	asserts.Equal(publisher, byPhysical)
	byDiscriminator, err := d.Column("owner_table")
	asserts.NoError(err)
	asserts.Equal(owner, byDiscriminator)
}

// TestRegister_Errors tests:
// - unsupported reference containers are rejected.
// - the versioned mixin requires soft-delete.
// - the versioned scope must name existing columns.
func TestRegister_Errors(t *testing.T) {
	asserts := assert.New(t)

	type BadContainer struct {
		entity.Base
		Authors map[string]*Author
	}
	_, err := entity.Register(&BadContainer{})
	asserts.EqualError(err, fmt.Sprintf(entity.ErrReferenceContainer, "map", "BadContainer", "Authors"))

	type NoSoftDelete struct {
		entity.Base
		entity.Versioned
		Name string
	}
	_, err = entity.Register(&NoSoftDelete{})
	asserts.EqualError(err, fmt.Sprintf(entity.ErrVersionedSoftDelete, "entity_test.NoSoftDelete"))

	type BadScope struct {
		entity.Base
		entity.SoftDelete
		entity.Versioned
		Name string
	}
	_, err = entity.Register(&BadScope{}, entity.WithVersionedAlong("nope"))
	asserts.EqualError(err, fmt.Sprintf(entity.ErrUnknownColumn, "nope", "BadScope"))
}

// TestDefaultOrder tests:
// - plain entities order by their primary key.
// - versioned entities order by their scope and version.
func TestDefaultOrder(t *testing.T) {
	asserts := assert.New(t)

	d, err := entity.Register(&Author{})
	asserts.NoError(err)
	asserts.Equal([]string{"id"}, d.DefaultOrder())

	d, err = entity.Register(&Revision{}, entity.WithVersionedAlong("slug"))
	asserts.NoError(err)
	asserts.Equal([]string{"slug", "version"}, d.DefaultOrder())
	asserts.Equal([]string{"slug"}, d.VersionedAlong)
}

// TestTableNamer tests:
// - a TableName implementation overrides the default.
func TestTableNamer(t *testing.T) {
	asserts := assert.New(t)

	d, err := entity.Register(&Legacy{})
	asserts.NoError(err)
	asserts.Equal("legacy_rows", d.TableName)
}

// TestDefinitionByTable tests:
// - registered tables resolve to their definition.
// - unknown tables error.
func TestDefinitionByTable(t *testing.T) {
	asserts := assert.New(t)

	_, err := entity.Register(&Author{})
	asserts.NoError(err)

	d, err := entity.DefinitionByTable("authors")
	asserts.NoError(err)
	asserts.Equal("Author", d.Name)

	_, err = entity.DefinitionByTable("unknown")
	asserts.EqualError(err, fmt.Sprintf(entity.ErrUnknownTable, "unknown"))
}

// TestNew tests:
// - New creates a zero instance of the entity type.
func TestNew(t *testing.T) {
	asserts := assert.New(t)

	d, err := entity.Register(&Author{})
	asserts.NoError(err)
	v := d.New()
	_, ok := v.(*Author)
	asserts.True(ok)
	asserts.Zero(v.PrimaryKey())
}
