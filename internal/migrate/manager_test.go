package migrate

import (
	"context"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"0001_init.up.sql":     {Data: []byte("create table rfqs (id text primary key);")},
		"0001_init.down.sql":   {Data: []byte("drop table rfqs;")},
		"0002_awards.up.sql":   {Data: []byte("create table awards (id text);\ninsert into awards values ('a;b');\n")},
		"0002_awards.down.sql": {Data: []byte("drop table awards;")},
	}
}

func expectTables(mock sqlmock.Sqlmock) {
	mock.ExpectExec("create table if not exists schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists schema_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestUpAppliesPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectTables(mock)
	mock.ExpectQuery("select name from schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_init.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec("create table awards").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("insert into awards values ('a;b')")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("insert into schema_migrations").
		WithArgs("0002_awards.up.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mgr := NewManager(db, testFS(), nil)
	require.NoError(t, mgr.Up(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectTables(mock)
	mock.ExpectQuery("select name from schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	got, err := NewManager(db, testFS(), nil).Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.up.sql", "0002_awards.up.sql"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDownRollsBackLatest(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectTables(mock)
	mock.ExpectQuery("select name from schema_migrations order by applied_at asc").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_init.up.sql").AddRow("0002_awards.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec("drop table awards").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec("delete from schema_migrations where name").
		WithArgs("0002_awards.up.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewManager(db, testFS(), nil).Down(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDownWithoutHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectTables(mock)
	mock.ExpectQuery("select name from schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	err = NewManager(db, testFS(), nil).Down(context.Background())
	assert.ErrorIs(t, err, ErrNothingApplied)
}

func TestSeedSkipsApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	seeds := fstest.MapFS{
		"0001_demo.sql": {Data: []byte("insert into rfqs values ('rfq-demo');")},
		"0002_more.sql": {Data: []byte("insert into rfqs values ('rfq-more');")},
	}

	expectTables(mock)
	mock.ExpectQuery("select name from schema_seeds").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_demo.sql"))
	mock.ExpectBegin()
	mock.ExpectExec("insert into rfqs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("insert into schema_seeds").
		WithArgs("0002_more.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewManager(db, testFS(), seeds).Seed(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("create table a (x text);insert into a values ('1;2');  \n")
	require.Len(t, got, 2)
	assert.Equal(t, "create table a (x text);", got[0])
	assert.Equal(t, "insert into a values ('1;2');", got[1])
}

func TestCustomTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("create table if not exists award_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists schema_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from award_migrations order by applied_at asc").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_init.up.sql"))

	got, err := NewManager(db, testFS(), nil, WithTables("award_migrations", "")).Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.up.sql"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
