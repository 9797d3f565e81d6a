// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package catalog_test

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/patrickascher/norm/catalog"
	"github.com/stretchr/testify/assert"
	null "gopkg.in/guregu/null.v4"
)

type book struct {
	id int64
}

func (b book) PrimaryKey() int64 { return b.id }

// shelf implements Identifier on the pointer only, like an embedded base
// with a pointer receiver does.
type shelf struct {
	id int64
}

func (s *shelf) PrimaryKey() int64 { return s.id }

type dimensions struct {
	Width  int
	Height int
}

// TestKindOf tests the go type to storage type mapping.
func TestKindOf(t *testing.T) {
	asserts := assert.New(t)

	var tests = []struct {
		typ  reflect.Type
		kind string
	}{
		{reflect.TypeOf(false), catalog.Bool},
		{reflect.TypeOf(0), catalog.Integer},
		{reflect.TypeOf(int64(0)), catalog.Integer},
		{reflect.TypeOf(uint8(0)), catalog.Integer},
		{reflect.TypeOf(0.0), catalog.Float},
		{reflect.TypeOf(""), catalog.Text},
		{reflect.TypeOf(time.Time{}), catalog.Timestamp},
		{reflect.TypeOf(null.Time{}), catalog.Timestamp},
		{reflect.TypeOf(null.String{}), catalog.Text},
		{reflect.TypeOf(null.Int{}), catalog.Integer},
		{reflect.TypeOf(null.Float{}), catalog.Float},
		{reflect.TypeOf(null.Bool{}), catalog.Bool},
		{reflect.TypeOf(map[string]interface{}{}), catalog.JSON},
		{reflect.TypeOf([]string{}), catalog.JSON},
		{reflect.TypeOf(dimensions{}), catalog.JSON},
		{reflect.TypeOf(new(string)), catalog.Text},
	}

	for _, tt := range tests {
		kind, err := catalog.KindOf(tt.typ)
		asserts.NoError(err, tt.typ.String())
		asserts.Equal(tt.kind, kind, tt.typ.String())
	}

	// error: unsupported type
	_, err := catalog.KindOf(reflect.TypeOf(make(chan int)))
	asserts.Error(err)
	asserts.Equal(fmt.Sprintf(catalog.ErrKind, "chan int"), err.Error())
}

// TestColumn_PhysicalColumns tests the logical to physical column mapping.
func TestColumn_PhysicalColumns(t *testing.T) {
	asserts := assert.New(t)

	// plain column
	c := catalog.Column{Name: "title", Type: catalog.Text}
	asserts.Equal("title", c.PhysicalColumn())
	asserts.Equal([]string{"title"}, c.PhysicalColumns())
	asserts.Equal("", c.DiscriminatorColumn())

	// scalar reference
	c = catalog.Column{Name: "author", Type: catalog.Reference, Reference: true}
	asserts.Equal("author_id", c.PhysicalColumn())
	asserts.Equal([]string{"author_id"}, c.PhysicalColumns())

	// polymorphic scalar reference - discriminator first
	c = catalog.Column{Name: "owner", Type: catalog.Reference, Reference: true, Polymorphic: true}
	asserts.Equal("owner_id", c.PhysicalColumn())
	asserts.Equal("owner_table", c.DiscriminatorColumn())
	asserts.Equal([]string{"owner_table", "owner_id"}, c.PhysicalColumns())

	// polymorphic collection
	c = catalog.Column{Name: "items", Type: catalog.Reference, Reference: true, Collection: true, Polymorphic: true}
	asserts.Equal("items_ids", c.PhysicalColumn())
	asserts.Equal("items_tables", c.DiscriminatorColumn())
	asserts.Equal([]string{"items_tables", "items_ids"}, c.PhysicalColumns())
}

// TestColumn_DDL tests the column definitions.
func TestColumn_DDL(t *testing.T) {
	asserts := assert.New(t)

	var tests = []struct {
		column catalog.Column
		ddl    []string
	}{
		// required text
		{catalog.Column{Name: "title", Type: catalog.Text, Required: true}, []string{"title TEXT NOT NULL"}},
		// enum with check constraint
		{catalog.Column{Name: "mood", Type: catalog.Enum, Enum: []string{"happy", "sad"}}, []string{"mood TEXT CHECK (mood IN ('happy', 'sad'))"}},
		// default literal
		{catalog.Column{Name: "pages", Type: catalog.Integer, Default: 100}, []string{"pages INTEGER DEFAULT 100"}},
		// raw default
		{catalog.Column{Name: "created_at", Type: catalog.Timestamp, Default: catalog.Raw("CURRENT_TIMESTAMP")}, []string{"created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP"}},
		// string default is quoted
		{catalog.Column{Name: "lang", Type: catalog.Text, Default: "en"}, []string{"lang TEXT DEFAULT 'en'"}},
		// scalar reference
		{catalog.Column{Name: "author", Type: catalog.Reference, Reference: true}, []string{"author_id INTEGER"}},
		// polymorphic reference creates the discriminator column
		{catalog.Column{Name: "owner", Type: catalog.Reference, Reference: true, Polymorphic: true}, []string{"owner_table TEXT", "owner_id INTEGER"}},
		// collections are stored as json text
		{catalog.Column{Name: "items", Type: catalog.Reference, Reference: true, Collection: true}, []string{"items_ids TEXT"}},
		// json container
		{catalog.Column{Name: "meta", Type: catalog.JSON}, []string{"meta TEXT"}},
		// boolean
		{catalog.Column{Name: "active", Type: catalog.Bool, Default: true}, []string{"active BOOLEAN DEFAULT 1"}},
	}

	for _, tt := range tests {
		asserts.Equal(tt.ddl, tt.column.DDL(), tt.column.Name)
	}
}

// TestColumn_Serialize tests the go value to database value conversion.
func TestColumn_Serialize(t *testing.T) {
	asserts := assert.New(t)

	// integer widening
	c := catalog.Column{Name: "pages", Type: catalog.Integer}
	v, err := c.Serialize(12)
	asserts.NoError(err)
	asserts.Equal(int64(12), v)

	// nil stays nil
	v, err = c.Serialize(nil)
	asserts.NoError(err)
	asserts.Nil(v)

	// invalid null wrapper serializes to nil
	c = catalog.Column{Name: "deleted_at", Type: catalog.Timestamp}
	v, err = c.Serialize(null.Time{})
	asserts.NoError(err)
	asserts.Nil(v)

	// valid null wrapper unwraps
	now := time.Now()
	v, err = c.Serialize(null.TimeFrom(now))
	asserts.NoError(err)
	asserts.Equal(now, v)

	// enum member check
	c = catalog.Column{Name: "mood", Type: catalog.Enum, Enum: []string{"happy", "sad"}}
	v, err = c.Serialize("happy")
	asserts.NoError(err)
	asserts.Equal("happy", v)
	_, err = c.Serialize("angry")
	asserts.Error(err)
	asserts.Equal(fmt.Sprintf(catalog.ErrEnum, "angry", "mood", []string{"happy", "sad"}), err.Error())

	// json container
	c = catalog.Column{Name: "size", Type: catalog.JSON, GoType: reflect.TypeOf(dimensions{})}
	v, err = c.Serialize(dimensions{Width: 2, Height: 3})
	asserts.NoError(err)
	asserts.Equal(`{"Width":2,"Height":3}`, v)

	// scalar reference takes the primary key
	c = catalog.Column{Name: "author", Type: catalog.Reference, Reference: true}
	v, err = c.Serialize(book{id: 7})
	asserts.NoError(err)
	asserts.Equal(int64(7), v)

	// plain id is kept
	v, err = c.Serialize(int64(9))
	asserts.NoError(err)
	asserts.Equal(int64(9), v)

	// a pointer entity keeps its pointer identity, the primary key
	// method must stay reachable.
	c = catalog.Column{Name: "shelf", Type: catalog.Reference, Reference: true}
	v, err = c.Serialize(&shelf{id: 7})
	asserts.NoError(err)
	asserts.Equal(int64(7), v)

	// collection serializes into a json id list
	c = catalog.Column{Name: "books", Type: catalog.Reference, Reference: true, Collection: true}
	v, err = c.Serialize([]book{{id: 1}, {id: 2}})
	asserts.NoError(err)
	asserts.Equal("[1,2]", v)

	v, err = c.Serialize([]*shelf{{id: 3}, {id: 4}})
	asserts.NoError(err)
	asserts.Equal("[3,4]", v)

	// error: wrong type
	c = catalog.Column{Name: "pages", Type: catalog.Integer}
	_, err = c.Serialize("twelve")
	asserts.Error(err)
}

// TestColumn_Parse tests the database value to go value conversion.
func TestColumn_Parse(t *testing.T) {
	asserts := assert.New(t)

	// integer from different driver representations
	c := catalog.Column{Name: "pages", Type: catalog.Integer}
	for _, raw := range []interface{}{int64(12), float64(12), "12", []byte("12")} {
		v, err := c.Parse(raw)
		asserts.NoError(err)
		asserts.Equal(int64(12), v)
	}

	// bool from integer
	c = catalog.Column{Name: "active", Type: catalog.Bool}
	v, err := c.Parse(int64(1))
	asserts.NoError(err)
	asserts.Equal(true, v)

	// timestamp from string
	c = catalog.Column{Name: "created_at", Type: catalog.Timestamp}
	v, err = c.Parse("2021-06-01 12:30:00")
	asserts.NoError(err)
	asserts.Equal(time.Date(2021, 6, 1, 12, 30, 0, 0, time.UTC), v)

	// enum member check
	c = catalog.Column{Name: "mood", Type: catalog.Enum, Enum: []string{"happy", "sad"}}
	_, err = c.Parse("angry")
	asserts.Error(err)

	// typed json container decodes into the declared type
	c = catalog.Column{Name: "size", Type: catalog.JSON, GoType: reflect.TypeOf(dimensions{})}
	v, err = c.Parse(`{"Width":2,"Height":3}`)
	asserts.NoError(err)
	asserts.Equal(dimensions{Width: 2, Height: 3}, v)

	// typed json container decodes an already parsed map (mapstructure)
	v, err = c.Parse(map[string]interface{}{"Width": 4, "Height": 5})
	asserts.NoError(err)
	asserts.Equal(dimensions{Width: 4, Height: 5}, v)

	// error: typed container fails hard on broken json
	_, err = c.Parse("{broken")
	asserts.Error(err)

	// generic json is lenient and keeps the raw string
	c = catalog.Column{Name: "meta", Type: catalog.JSON, GenericJSON: true}
	v, err = c.Parse("{broken")
	asserts.NoError(err)
	asserts.Equal("{broken", v)
	v, err = c.Parse(`{"a":1}`)
	asserts.NoError(err)
	asserts.Equal(map[string]interface{}{"a": float64(1)}, v)

	// reference id list
	c = catalog.Column{Name: "books", Type: catalog.Reference, Reference: true, Collection: true}
	v, err = c.Parse("[1,2]")
	asserts.NoError(err)
	asserts.Equal([]int64{1, 2}, v)

	// scalar reference id
	c = catalog.Column{Name: "author", Type: catalog.Reference, Reference: true}
	v, err = c.Parse(int64(3))
	asserts.NoError(err)
	asserts.Equal(int64(3), v)
}

// TestColumn_RoundTrip tests parse(serialize(x)) == x for the scalar kinds.
func TestColumn_RoundTrip(t *testing.T) {
	asserts := assert.New(t)

	var tests = []struct {
		column catalog.Column
		value  interface{}
	}{
		{catalog.Column{Name: "a", Type: catalog.Bool}, true},
		{catalog.Column{Name: "b", Type: catalog.Integer}, int64(42)},
		{catalog.Column{Name: "c", Type: catalog.Float}, 1.5},
		{catalog.Column{Name: "d", Type: catalog.Text}, "hello"},
		{catalog.Column{Name: "e", Type: catalog.Enum, Enum: []string{"x", "y"}}, "x"},
	}

	for _, tt := range tests {
		s, err := tt.column.Serialize(tt.value)
		asserts.NoError(err, tt.column.Name)
		p, err := tt.column.Parse(s)
		asserts.NoError(err, tt.column.Name)
		asserts.Equal(tt.value, p, tt.column.Name)
	}
}
