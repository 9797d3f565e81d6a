// Copyright (c) 2021 Patrick Ascher <development@fullhouse-productions.com>. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package expression_test

import (
	"fmt"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/patrickascher/norm/dialect"
	"github.com/patrickascher/norm/dialect/mysql"
	"github.com/patrickascher/norm/entity"
	"github.com/patrickascher/norm/expression"
	"github.com/stretchr/testify/assert"
)

type Publisher struct {
	entity.Base
	Name string
}

type Book struct {
	entity.Base
	entity.SoftDelete

	Title     string
	Publisher *Publisher
}

type Author struct {
	entity.Base

	Name string
	Book *Book
}

type Note struct {
	entity.Base

	Text  string
	Owner entity.Interface
}

// rootOf is a test helper for the root table of an entity.
func rootOf(t *testing.T, v entity.Interface) *expression.Table {
	d, err := entity.DefinitionOf(v)
	assert.NoError(t, err)
	return expression.NewTable(d)
}

// columnOf is a test helper which resolves a dotted path into a column.
func columnOf(t *testing.T, root *expression.Table, path string) *expression.Column {
	c, err := root.ResolvePath(path)
	assert.NoError(t, err)
	col, ok := c.(*expression.Column)
	assert.True(t, ok)
	return col
}

// TestNodes tests:
// - the sql and value rendering of the Nary, Unary and Func nodes.
// - nesting with And, Or and Not.
// - the placeholder count always matches the value count.
func TestNodes(t *testing.T) {
	asserts := assert.New(t)

	root := rootOf(t, &Author{})
	name := columnOf(t, root, "name")

	e := expression.And(name.Eq("Frisch"), expression.Or(name.Eq("Benn"), expression.Not(name.IsNull())))
	asserts.Equal("((authors.name = ?) AND ((authors.name = ?) OR NOT authors.name IS NULL))", e.SQL())
	asserts.Equal([]interface{}{"Frisch", "Benn"}, e.Values())

	f := expression.Func{Symbol: "COALESCE", Arguments: []interface{}{name, "unknown"}}
	asserts.Equal("COALESCE(authors.name, ?)", f.SQL())
	asserts.Equal([]interface{}{"unknown"}, f.Values())
}

// TestColumn_Operators tests:
// - the comparison operators, nil renders as IS NULL / IS NOT NULL.
// - IN expands its values into a placeholder list.
// - Between keeps an always-false range.
// - the arithmetic and string function helpers.
// - entities bind as their primary key.
func TestColumn_Operators(t *testing.T) {
	asserts := assert.New(t)

	root := rootOf(t, &Author{})
	id := columnOf(t, root, "id")
	name := columnOf(t, root, "name")

	asserts.Equal("(authors.id = ?)", id.Eq(5).SQL())
	asserts.Equal([]interface{}{5}, id.Eq(5).Values())
	asserts.Equal("authors.name IS NULL", name.Eq(nil).SQL())
	asserts.Nil(name.Eq(nil).Values())
	asserts.Equal("authors.name IS NOT NULL", name.Neq(nil).SQL())
	asserts.Equal("(authors.id != ?)", id.Neq(5).SQL())
	asserts.Equal("(authors.id IS ?)", id.Is(true).SQL())
	asserts.Equal("authors.name IS NULL", name.Is(nil).SQL())
	asserts.Equal("(authors.id IS NOT ?)", id.IsNot(true).SQL())
	asserts.Equal("authors.name IS NOT NULL", name.IsNot(nil).SQL())
	asserts.Equal("(authors.id < ?)", id.Lt(5).SQL())
	asserts.Equal("(authors.id <= ?)", id.Lte(5).SQL())
	asserts.Equal("(authors.id > ?)", id.Gt(5).SQL())
	asserts.Equal("(authors.id >= ?)", id.Gte(5).SQL())

	in := id.In(1, 2, 3)
	asserts.Equal("(authors.id IN (?, ?, ?))", in.SQL())
	asserts.Equal([]interface{}{1, 2, 3}, in.Values())

	between := id.Between(10, 2)
	asserts.Equal("((authors.id >= ?) AND (authors.id <= ?))", between.SQL())
	asserts.Equal([]interface{}{10, 2}, between.Values())

	asserts.Equal("(authors.id % ?)", id.Mod(2).SQL())
	asserts.Equal("POW(authors.id, ?)", id.Pow(2).SQL())
	asserts.Equal("LOWER(authors.name)", name.Lower().SQL())
	asserts.Equal("UPPER(authors.name)", name.Upper().SQL())
	asserts.Equal("TRIM(authors.name)", name.Trim().SQL())
	asserts.Equal("((authors.id + ?) AND (authors.id - ?) AND (authors.id * ?) AND (authors.id / ?))",
		expression.And(id.Add(1), id.Sub(1), id.Mul(1), id.Div(1)).SQL())

	author := &Author{}
	author.SetPrimaryKey(7)
	asserts.Equal([]interface{}{int64(7)}, id.Eq(author).Values())

	asserts.Equal("authors.name", name.Asc().SQL())
	asserts.Equal("authors.name DESC", name.Desc().SQL())
	asserts.Nil(name.Desc().Values())
}

// TestColumn_Like tests:
// - the raw Like/ILike patterns bind the needle unchanged.
// - the fuzzy helpers bind the wildcards separately and escape the needle.
// - case-insensitive lowers the haystack and the needle placeholder.
// - the value order is haystack, leading %, needle, trailing %.
func TestColumn_Like(t *testing.T) {
	asserts := assert.New(t)

	name := columnOf(t, rootOf(t, &Author{}), "name")

	like := name.Like("M%")
	asserts.Equal("(authors.name LIKE ?)", like.SQL())
	asserts.Equal([]interface{}{"M%"}, like.Values())

	ilike := name.ILike("M%")
	asserts.Equal("(LOWER(authors.name) LIKE LOWER(?))", ilike.SQL())
	asserts.Equal([]interface{}{"M%"}, ilike.Values())

	ieq := name.IEq("Frisch")
	asserts.Equal("(LOWER(authors.name) = LOWER(?))", ieq.SQL())
	asserts.Equal([]interface{}{"Frisch"}, ieq.Values())

	// non-textual values compare plain.
	asserts.Equal("(authors.name = ?)", name.IEq(5).SQL())
	asserts.Equal("authors.name IS NULL", name.IEq(nil).SQL())

	contains := name.Contains("Fri%sch")
	asserts.Equal(`(authors.name LIKE (? || ? || ?) ESCAPE '\')`, contains.SQL())
	asserts.Equal([]interface{}{"%", `Fri\%sch`, "%"}, contains.Values())

	icontains := name.IContains("Fri_sch")
	asserts.Equal(`(LOWER(authors.name) LIKE (? || LOWER(?) || ?) ESCAPE '\')`, icontains.SQL())
	asserts.Equal([]interface{}{"%", `Fri\_sch`, "%"}, icontains.Values())

	starts := name.StartsWith("Max")
	asserts.Equal(`(authors.name LIKE (? || ?) ESCAPE '\')`, starts.SQL())
	asserts.Equal([]interface{}{"Max", "%"}, starts.Values())

	ends := name.IEndsWith("isch")
	asserts.Equal(`(LOWER(authors.name) LIKE (? || LOWER(?)) ESCAPE '\')`, ends.SQL())
	asserts.Equal([]interface{}{"%", "isch"}, ends.Values())
}

// TestColumn_LikeConcatFunction tests:
// - a dialect with function style concatenation renders CONCAT(...) and
//   escapes the needle with its own escaper.
// - the ESCAPE clause comes from the dialect, mysql doubles the backslash
//   because its string literals lex escape sequences.
func TestColumn_LikeConcatFunction(t *testing.T) {
	asserts := assert.New(t)

	db, _, err := sqlmock.New()
	asserts.NoError(err)
	defer db.Close()
	asserts.NoError(dialect.RegisterConnection(dialect.NewConnection(db, mysql.New(), "expression_mysql")))

	type Tag struct {
		entity.Base
		Label string
	}
	d, err := entity.Register(&Tag{}, entity.WithConnection("expression_mysql"))
	asserts.NoError(err)

	label, err := expression.NewTable(d).Resolve("label")
	asserts.NoError(err)

	contains := label.(*expression.Column).Contains("a_b")
	asserts.Equal(`(tags.label LIKE CONCAT(?, ?, ?) ESCAPE '\\')`, contains.SQL())
	asserts.Equal([]interface{}{"%", `a\_b`, "%"}, contains.Values())
}

// TestTable_Resolve tests:
// - the root alias is the table name, children append the path segment.
// - dotted paths resolve through the relations.
// - plain columns resolve into columns, relations into child tables.
// - unknown names error.
func TestTable_Resolve(t *testing.T) {
	asserts := assert.New(t)

	root := rootOf(t, &Author{})
	asserts.Equal("authors", root.Alias())
	asserts.Equal("", root.PathPrefix())

	book, err := root.Resolve("book")
	asserts.NoError(err)
	bookTable, ok := book.(*expression.Table)
	asserts.True(ok)
	asserts.Equal("authors____book", bookTable.Alias())
	asserts.Equal("book", bookTable.PathPrefix())
	asserts.Equal(root, bookTable.Root())

	title, err := bookTable.Resolve("title")
	asserts.NoError(err)
	asserts.Equal("authors____book.title", title.(*expression.Column).SQL())

	publisherName, err := root.ResolvePath("book.publisher.name")
	asserts.NoError(err)
	asserts.Equal("authors____book____publisher.name", publisherName.(*expression.Column).SQL())

	_, err = root.Resolve("doesNotExist")
	asserts.Error(err)
	asserts.Equal(fmt.Sprintf(entity.ErrUnknownColumn, "doesNotExist", "Author"), err.Error())

	// resolving through a column is not possible.
	_, err = root.ResolvePath("name.x")
	asserts.Error(err)
	asserts.Equal(fmt.Sprintf(expression.ErrNoReference, "name"), err.Error())
}

// TestTable_Declarations tests:
// - the root renders a FROM clause.
// - children render a LEFT JOIN against the fk column on the parent.
func TestTable_Declarations(t *testing.T) {
	asserts := assert.New(t)

	root := rootOf(t, &Author{})
	decl, err := root.Declarations()
	asserts.NoError(err)
	asserts.Equal([]string{"FROM authors"}, decl)

	book, err := root.Resolve("book")
	asserts.NoError(err)
	decl, err = book.(*expression.Table).Declarations()
	asserts.NoError(err)
	asserts.Equal([]string{"LEFT JOIN books AS authors____book ON authors____book.id = authors.book_id"}, decl)

	publisher, err := book.(*expression.Table).Resolve("publisher")
	asserts.NoError(err)
	decl, err = publisher.(*expression.Table).Declarations()
	asserts.NoError(err)
	asserts.Equal([]string{"LEFT JOIN publishers AS authors____book____publisher ON authors____book____publisher.id = authors____book.publisher_id"}, decl)
}

// TestTable_SelectColumns tests:
// - root columns alias unprefixed, child columns with their path prefix.
// - relation fk columns alias under the logical name.
// - polymorphic relations add the discriminator column first.
func TestTable_SelectColumns(t *testing.T) {
	asserts := assert.New(t)

	root := rootOf(t, &Author{})
	asserts.Equal([]string{
		"authors.id AS id",
		"authors.name AS name",
		"authors.book_id AS book",
	}, root.SelectColumns())

	book, err := root.Resolve("book")
	asserts.NoError(err)
	asserts.Equal([]string{
		"authors____book.id AS book____id",
		"authors____book.deleted_at AS book____deleted_at",
		"authors____book.title AS book____title",
		"authors____book.publisher_id AS book____publisher",
	}, book.(*expression.Table).SelectColumns())

	asserts.Equal([]string{
		"notes.id AS id",
		"notes.text AS text",
		"notes.owner_table AS owner_table",
		"notes.owner_id AS owner",
	}, rootOf(t, &Note{}).SelectColumns())
}

// TestTable_Eq tests:
// - comparing a relation against an instance, an id and nil.
// - polymorphic relations compare the table/id pair and reject plain ids.
// - the root compares by primary key.
func TestTable_Eq(t *testing.T) {
	asserts := assert.New(t)

	root := rootOf(t, &Author{})
	bookTable, err := root.Resolve("book")
	asserts.NoError(err)
	book := bookTable.(*expression.Table)

	b := &Book{}
	b.SetPrimaryKey(5)
	e, err := book.Eq(b)
	asserts.NoError(err)
	asserts.Equal("(authors.book_id = ?)", e.SQL())
	asserts.Equal([]interface{}{int64(5)}, e.Values())

	e, err = book.Eq(5)
	asserts.NoError(err)
	asserts.Equal([]interface{}{int64(5)}, e.Values())

	e, err = book.Eq(nil)
	asserts.NoError(err)
	asserts.Equal("authors.book_id IS NULL", e.SQL())

	e, err = book.Neq(5)
	asserts.NoError(err)
	asserts.Equal("NOT (authors.book_id = ?)", e.SQL())
	asserts.Equal([]interface{}{int64(5)}, e.Values())

	_, err = book.Eq("five")
	asserts.Error(err)
	asserts.Equal(fmt.Sprintf(expression.ErrReferenceValue, "book", "five"), err.Error())

	_, err = book.Neq("five")
	asserts.Error(err)

	// the root compares by id.
	author := &Author{}
	author.SetPrimaryKey(3)
	e, err = root.Eq(author)
	asserts.NoError(err)
	asserts.Equal("(authors.id = ?)", e.SQL())
	asserts.Equal([]interface{}{int64(3)}, e.Values())
}

// TestTable_Polymorphic tests:
// - a polymorphic relation has no definition and cannot be preloaded.
// - comparing needs an instance, the table name binds alongside the id.
func TestTable_Polymorphic(t *testing.T) {
	asserts := assert.New(t)

	root := rootOf(t, &Note{})
	ownerTable, err := root.Resolve("owner")
	asserts.NoError(err)
	owner := ownerTable.(*expression.Table)
	asserts.Nil(owner.Def)

	_, err = owner.Resolve("name")
	asserts.Error(err)
	asserts.Equal(fmt.Sprintf(expression.ErrGenericPreload, "owner"), err.Error())
	_, err = owner.Declarations()
	asserts.Error(err)

	author := &Author{}
	author.SetPrimaryKey(7)
	e, err := owner.Eq(author)
	asserts.NoError(err)
	asserts.Equal("((notes.owner_table = ?) AND (notes.owner_id = ?))", e.SQL())
	asserts.Equal([]interface{}{"authors", int64(7)}, e.Values())

	e, err = owner.Eq(nil)
	asserts.NoError(err)
	asserts.Equal("(notes.owner_table IS NULL AND notes.owner_id IS NULL)", e.SQL())
	asserts.Nil(e.Values())

	_, err = owner.Eq(7)
	asserts.Error(err)
	asserts.Equal(fmt.Sprintf(expression.ErrGenericValue, 7), err.Error())
}
