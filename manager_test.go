package gopa_test

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mickamy/gopa"
	"github.com/mickamy/gopa/dialect"
)

type Person struct {
	ID    int64  `db:"id,id,generated=identity"`
	Name  string `db:"nick_name,length=255"`
	Age   int    `db:"old"`
	Email string `db:"email,notnull"`
	Index int    `db:"-"`
}

func (Person) TableName() string { return "users" }

type Country struct {
	Code string `db:"code,id,length=2"`
	Name string
}

const selectPerson = "select id, nick_name, old, email from users where id = 1"

var personColumns = []string{"id", "nick_name", "old", "email"}

func newManager(t *testing.T, dialectName string, opts ...gopa.Option) (*gopa.EntityManager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	d, err := dialect.Get(dialectName)
	require.NoError(t, err)
	return gopa.NewEntityManager(db, d, opts...), mock
}

func expectPersonRow(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(selectPerson).
		WillReturnRows(sqlmock.NewRows(personColumns).AddRow(int64(1), "KIM", int64(30), "kim@test.com"))
}

func TestEntityManager_FindLoadsOnce(t *testing.T) {
	t.Parallel()

	em, mock := newManager(t, "mysql")
	expectPersonRow(mock)
	ctx := context.Background()

	first, err := gopa.Find[Person](ctx, em, 1)
	require.NoError(t, err)
	assert.Equal(t, Person{ID: 1, Name: "KIM", Age: 30, Email: "kim@test.com"}, *first)

	second, err := gopa.Find[Person](ctx, em, int64(1))
	require.NoError(t, err)
	assert.Same(t, first, second)

	untyped, err := em.Find(ctx, reflect.TypeOf(Person{}), uint(1))
	require.NoError(t, err)
	assert.Same(t, first, untyped)
}

func TestEntityManager_FindNotFound(t *testing.T) {
	t.Parallel()

	em, mock := newManager(t, "mysql")
	mock.ExpectQuery(selectPerson).WillReturnRows(sqlmock.NewRows(personColumns))

	_, err := gopa.Find[Person](context.Background(), em, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, gopa.ErrNotFound)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, ok := em.Context().Entity(reflect.TypeOf(Person{}), 1)
	assert.False(t, ok)
}

func TestEntityManager_PersistAutoIncrement(t *testing.T) {
	t.Parallel()

	em, mock := newManager(t, "mysql")
	mock.ExpectExec("insert into users (nick_name, old, email) values ('KIM', 30, 'kim@test.com')").
		WillReturnResult(sqlmock.NewResult(7, 1))
	ctx := context.Background()

	p := &Person{Name: "KIM", Age: 30, Email: "kim@test.com"}
	require.NoError(t, em.Persist(ctx, p))
	assert.Equal(t, int64(7), p.ID)

	found, err := gopa.Find[Person](ctx, em, 7)
	require.NoError(t, err)
	assert.Same(t, p, found)

	snap, ok := em.Context().Snapshot(reflect.TypeOf(Person{}), 7)
	require.True(t, ok)
	name, _ := snap.Get("nick_name")
	assert.Equal(t, "KIM", name)
}

func TestEntityManager_PersistReturning(t *testing.T) {
	t.Parallel()

	em, mock := newManager(t, "postgres")
	mock.ExpectQuery("insert into users (nick_name, old, email) values ('KIM', 30, 'kim@test.com') returning id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	p := &Person{Name: "KIM", Age: 30, Email: "kim@test.com"}
	require.NoError(t, em.Persist(context.Background(), p))
	assert.Equal(t, int64(11), p.ID)
}

func TestEntityManager_PersistAssignedID(t *testing.T) {
	t.Parallel()

	em, mock := newManager(t, "mysql")
	mock.ExpectExec("insert into countries (name, code) values ('Korea', 'kr')").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ctx := context.Background()

	c := &Country{Code: "kr", Name: "Korea"}
	require.NoError(t, em.Persist(ctx, c))

	found, err := gopa.Find[Country](ctx, em, "kr")
	require.NoError(t, err)
	assert.Same(t, c, found)
}

func TestEntityManager_PersistRequiresPointer(t *testing.T) {
	t.Parallel()

	em, _ := newManager(t, "mysql")
	err := em.Persist(context.Background(), Person{Name: "KIM"})
	assert.ErrorIs(t, err, gopa.ErrNotPointer)

	var nilPerson *Person
	err = em.Persist(context.Background(), nilPerson)
	assert.ErrorIs(t, err, gopa.ErrNotPointer)
}

func TestEntityManager_PersistSequenceUnsupported(t *testing.T) {
	t.Parallel()

	type Ticket struct {
		ID int64 `db:"id,id,generated=sequence"`
	}
	em, _ := newManager(t, "mysql")
	err := em.Persist(context.Background(), &Ticket{})
	assert.ErrorIs(t, err, dialect.ErrUnsupportedGeneration)
}

func TestEntityManager_FlushRunsUpdatesBeforeDeletes(t *testing.T) {
	t.Parallel()

	em, mock := newManager(t, "mysql")
	expectPersonRow(mock)
	mock.ExpectExec("update users set nick_name = 'name', old = 10, email = 'jon@test.com' where id = 1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("delete from users where id = 1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ctx := context.Background()

	p, err := gopa.Find[Person](ctx, em, 1)
	require.NoError(t, err)

	require.NoError(t, em.Remove(p))
	p.Name, p.Age, p.Email = "name", 10, "jon@test.com"
	require.NoError(t, em.Merge(p))

	require.NoError(t, em.Flush(ctx))

	status, ok := em.Context().Status(reflect.TypeOf(Person{}), 1)
	require.True(t, ok)
	assert.Equal(t, gopa.StatusGone, status)
	_, ok = em.Context().Entity(reflect.TypeOf(Person{}), 1)
	assert.False(t, ok)

	assert.ErrorIs(t, em.Merge(p), gopa.ErrEntityGone)
	assert.ErrorIs(t, em.Remove(p), gopa.ErrEntityGone)
}

func TestEntityManager_MergeIsIdempotent(t *testing.T) {
	t.Parallel()

	em, mock := newManager(t, "mysql")
	expectPersonRow(mock)
	mock.ExpectExec("update users set nick_name = 'LEE', old = 30, email = 'kim@test.com' where id = 1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ctx := context.Background()

	p, err := gopa.Find[Person](ctx, em, 1)
	require.NoError(t, err)

	require.NoError(t, em.Merge(p), "unchanged entity")
	p.Name = "LEE"
	require.NoError(t, em.Merge(p))
	require.NoError(t, em.Merge(p))

	require.NoError(t, em.Flush(ctx))
	require.NoError(t, em.Flush(ctx), "queues are empty after a flush")
}

func TestEntityManager_MergeReplaysEachChange(t *testing.T) {
	t.Parallel()

	em, mock := newManager(t, "mysql")
	expectPersonRow(mock)
	// both queued actions reference p, so each update renders its state at flush time
	for range 2 {
		mock.ExpectExec("update users set nick_name = 'LEE', old = 31, email = 'kim@test.com' where id = 1").
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	ctx := context.Background()

	p, err := gopa.Find[Person](ctx, em, 1)
	require.NoError(t, err)

	p.Name = "LEE"
	require.NoError(t, em.Merge(p))
	p.Age = 31
	require.NoError(t, em.Merge(p))

	require.NoError(t, em.Flush(ctx))
}

func TestEntityManager_MergeUnmanaged(t *testing.T) {
	t.Parallel()

	em, _ := newManager(t, "mysql")
	err := em.Merge(&Person{ID: 99, Name: "KIM"})
	assert.ErrorIs(t, err, gopa.ErrNotManaged)
}

func TestEntityManager_FlushStopsOnError(t *testing.T) {
	t.Parallel()

	em, mock := newManager(t, "mysql")
	expectPersonRow(mock)
	boom := errors.New("boom")
	mock.ExpectExec("update users set nick_name = 'LEE', old = 30, email = 'kim@test.com' where id = 1").
		WillReturnError(boom)
	ctx := context.Background()

	p, err := gopa.Find[Person](ctx, em, 1)
	require.NoError(t, err)
	p.Name = "LEE"
	require.NoError(t, em.Merge(p))
	require.NoError(t, em.Remove(p))

	err = em.Flush(ctx)
	assert.ErrorIs(t, err, boom)

	status, ok := em.Context().Status(reflect.TypeOf(Person{}), 1)
	require.True(t, ok)
	assert.Equal(t, gopa.StatusManaged, status)
	assert.Len(t, em.Context().DrainDeleteActions(), 1, "deletes are not drained when an update fails")
}

func TestEntityManager_LogsStatements(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	em, mock := newManager(t, "mysql", gopa.WithLogger(zap.New(core)), gopa.WithShowSQL(true))
	expectPersonRow(mock)

	ctx := gopa.WithTraceID(context.Background(), "trace-1")
	_, err := gopa.Find[Person](ctx, em, 1)
	require.NoError(t, err)

	entries := logs.FilterMessage("sql").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "SELECT", fields["op"])
	assert.Equal(t, "users", fields["table"])
	assert.Equal(t, selectPerson, fields["sql"])
	assert.Equal(t, "trace-1", fields["trace_id"])
}

func TestEntityManager_LogsReturning(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	em, mock := newManager(t, "postgres", gopa.WithLogger(zap.New(core)))
	mock.ExpectQuery("insert into users (nick_name, old, email) values ('KIM', 30, 'kim@test.com') returning id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	require.NoError(t, em.Persist(context.Background(), &Person{Name: "KIM", Age: 30, Email: "kim@test.com"}))

	entries := logs.FilterMessage("sql").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "INSERT", fields["op"])
	assert.Equal(t, true, fields["returning"])
}

func TestEntityManager_BoundToContext(t *testing.T) {
	t.Parallel()

	_, ok := gopa.CurrentEntityManager(context.Background())
	assert.False(t, ok)

	em, _ := newManager(t, "sqlite")
	ctx := gopa.WithEntityManager(context.Background(), em)
	got, ok := gopa.CurrentEntityManager(ctx)
	require.True(t, ok)
	assert.Same(t, em, got)
	assert.Equal(t, "sqlite", got.Dialect().Name())
}
