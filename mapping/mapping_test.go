package mapping_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/gopa/dialect"
	"github.com/mickamy/gopa/mapping"
)

type Person struct {
	ID    int64  `db:"id,id,generated=identity"`
	Name  string `db:"nick_name,length=255"`
	Age   int    `db:"old"`
	Email string `db:"email,notnull"`
	Index int    `db:"-"`
}

func (Person) TableName() string { return "users" }

type OrderLine struct {
	ID        string
	ProductID int64
	Note      *string
	Price     float64 `db:",type=numeric"`
	Cache     []int   `db:",transient"`
	secret    string
}

type Audit struct {
	CreatedAt time.Time `db:"created_at"`
}

type Article struct {
	Audit
	ID    int64 `db:"id,id"`
	Title string
}

func TestParse_Person(t *testing.T) {
	e, err := mapping.Of(&Person{})
	require.NoError(t, err)

	assert.Equal(t, "users", e.Table)
	assert.Equal(t, "id", e.ID.Name)
	assert.Equal(t, dialect.GenerationIdentity, e.ID.Generation)
	assert.Equal(t, []string{"nick_name", "old", "email"}, e.ColumnNameList())
}

func TestParse_DerivedNames(t *testing.T) {
	e, err := mapping.Of(OrderLine{})
	require.NoError(t, err)

	assert.Equal(t, "order_lines", e.Table)
	assert.Equal(t, "id", e.ID.Name)
	assert.Equal(t, "product_id, note, price", e.ColumnNames())

	price, ok := e.Column("price")
	require.True(t, ok)
	assert.Equal(t, "numeric", price.SQLType)
}

func TestParse_EmbeddedStruct(t *testing.T) {
	e, err := mapping.Of(reflect.TypeOf(Article{}))
	require.NoError(t, err)

	assert.Equal(t, "articles", e.Table)
	assert.Equal(t, "created_at, title", e.ColumnNames())
}

func TestParse_Errors(t *testing.T) {
	type noID struct {
		Name string
	}
	type twoIDs struct {
		A int64 `db:"a,id"`
		B int64 `db:"b,id"`
	}
	type badOption struct {
		ID   int64
		Name string `db:"name,unique"`
	}

	_, err := mapping.Of(noID{})
	assert.ErrorIs(t, err, mapping.ErrNoIDColumn)

	_, err = mapping.Of(twoIDs{})
	assert.ErrorIs(t, err, mapping.ErrMultipleIDColumns)

	_, err = mapping.Of(badOption{})
	assert.ErrorContains(t, err, "unknown tag option")

	_, err = mapping.Of(42)
	assert.ErrorIs(t, err, mapping.ErrNotStruct)
}

func TestColumnsDefinition(t *testing.T) {
	e, err := mapping.Of(Person{})
	require.NoError(t, err)

	got, err := e.ColumnsDefinition(dialect.MySQL{})
	require.NoError(t, err)
	assert.Equal(t, "nick_name varchar(255), old integer, email varchar(255) not null", got)
}

func TestColumnNames(t *testing.T) {
	e, err := mapping.Of(Person{})
	require.NoError(t, err)

	assert.Equal(t, "nick_name, old, email", e.ColumnNames())
}

func TestDefinition(t *testing.T) {
	e, err := mapping.Of(Person{})
	require.NoError(t, err)

	got, err := e.Definition(dialect.MySQL{})
	require.NoError(t, err)
	assert.Equal(t, "id bigint auto_increment primary key, nick_name varchar(255), old integer, email varchar(255) not null", got)
}

func TestSetValue_Coercion(t *testing.T) {
	e, err := mapping.Of(OrderLine{})
	require.NoError(t, err)

	line := &OrderLine{}
	require.NoError(t, e.SetValue(line, "id", []byte("line-1")))
	require.NoError(t, e.SetValue(line, "product_id", []byte("42")))
	require.NoError(t, e.SetValue(line, "note", "fragile"))
	require.NoError(t, e.SetValue(line, "price", "9.5"))

	assert.Equal(t, "line-1", line.ID)
	assert.Equal(t, int64(42), line.ProductID)
	require.NotNil(t, line.Note)
	assert.Equal(t, "fragile", *line.Note)
	assert.InDelta(t, 9.5, line.Price, 1e-9)

	require.NoError(t, e.SetValue(line, "note", nil))
	assert.Nil(t, line.Note)

	err = e.SetValue(line, "missing", 1)
	assert.ErrorIs(t, err, mapping.ErrUnknownColumn)

	err = e.SetValue(*line, "price", 1.0)
	assert.Error(t, err)
}

func TestSetIDValue_Overflow(t *testing.T) {
	type small struct {
		ID int8 `db:"id,id,generated=identity"`
	}
	e, err := mapping.Of(small{})
	require.NoError(t, err)

	s := &small{}
	require.NoError(t, e.SetIDValue(s, int64(7)))
	assert.Equal(t, int8(7), s.ID)

	assert.Error(t, e.SetIDValue(s, int64(1000)))
}

func TestValue(t *testing.T) {
	e, err := mapping.Of(Person{})
	require.NoError(t, err)

	p := &Person{ID: 3, Name: "KIM", Age: 30, Email: "kim@test.com"}
	id, err := e.IDValue(p)
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)

	values, err := e.Values(p)
	require.NoError(t, err)
	assert.Equal(t, mapping.Values{
		{Column: "nick_name", Value: "KIM"},
		{Column: "old", Value: 30},
		{Column: "email", Value: "kim@test.com"},
	}, values)
}
