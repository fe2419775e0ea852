package goduck

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryDatabase(t *testing.T, path string, config map[string]string) Database {
	t.Helper()
	nc, err := NewMemoryEngine().NewCache()
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	db, err := nc.GetOrCreate(path, config)
	require.NoError(t, err)
	return db
}

func newMemoryConn(t *testing.T) Connection {
	t.Helper()
	conn, err := newMemoryDatabase(t, ":memory:test", nil).Connect()
	require.NoError(t, err)
	t.Cleanup(conn.Close)
	return conn
}

func namedArgs(args []any) []driver.NamedValue {
	nv := make([]driver.NamedValue, len(args))
	for i, a := range args {
		nv[i] = driver.NamedValue{Ordinal: i + 1, Value: a}
	}
	return nv
}

// memExecute prepares, binds and executes query, returning the open result.
func memExecute(conn Connection, query string, args ...any) (Result, error) {
	stmt, err := conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	if err := stmt.Bind(namedArgs(args)); err != nil {
		return nil, err
	}
	return stmt.Execute(true)
}

func mustExec(t *testing.T, conn Connection, query string, args ...any) int64 {
	t.Helper()
	res, err := memExecute(conn, query, args...)
	require.NoError(t, err, query)
	defer res.Close()
	return res.RowsChanged()
}

func memQuery(t *testing.T, conn Connection, query string, args ...any) ([]string, [][]any) {
	t.Helper()
	res, err := memExecute(conn, query, args...)
	require.NoError(t, err, query)
	defer res.Close()

	names := make([]string, res.ColumnCount())
	for i := range names {
		names[i] = res.ColumnName(i)
	}

	var rows [][]any
	for {
		chunk, err := res.Fetch()
		require.NoError(t, err, query)
		if chunk == nil {
			break
		}
		cols := make([]ColumnVector, chunk.ColumnCount())
		for i := range cols {
			v, err := chunk.Vector(i)
			require.NoError(t, err)
			cols[i] = ColumnVector{Name: names[i], Vector: v}
		}
		decoded, err := DecodeChunk(cols, chunk.Len())
		require.NoError(t, err, query)
		for _, r := range decoded {
			rows = append(rows, r.Values())
		}
		chunk.Close()
	}
	return names, rows
}

func TestMemory_select(t *testing.T) {
	conn := newMemoryConn(t)

	_, err := conn.Prepare("SELECT * FROM test")
	assert.ErrorIs(t, err, ErrTableDoesNotExist)

	mustExec(t, conn, "CREATE TABLE test(x INT, y INT, z INT);")
	mustExec(t, conn, "INSERT INTO test VALUES(100, 200, 300)")

	want := map[string]int32{"x": 100, "y": 200, "z": 300}
	for _, str := range []string{
		"SELECT * FROM test",
		"SELECT x FROM test",
		"SELECT x, y FROM test",
		"SELECT x, y, z FROM test",
		"SELECT *, x FROM test",
		"SELECT *, x, y FROM test",
		"SELECT *, x, y, z FROM test",
	} {
		names, rows := memQuery(t, conn, str)
		require.Len(t, rows, 1, str)
		require.Len(t, rows[0], len(names), str)
		for i, name := range names {
			assert.Equal(t, want[name], rows[0][i], str)
		}
	}

	names, rows := memQuery(t, conn, "SELECT x AS a, y + 1, 'lit' FROM test")
	assert.Equal(t, []string{"a", "(\"y\" + 1)", "'lit'"}, names)
	assert.Equal(t, [][]any{{int32(100), int64(201), "lit"}}, rows)

	_, err = memExecute(conn, "SELECT nope FROM test")
	assert.ErrorIs(t, err, ErrColumnDoesNotExist)

	_, err = memExecute(conn, "SELECT *")
	assert.ErrorIs(t, err, ErrInvalidSelectItem)
}

func TestMemory_insert(t *testing.T) {
	conn := newMemoryConn(t)

	_, err := conn.Prepare("INSERT INTO test VALUES(100, 200, 300)")
	assert.ErrorIs(t, err, ErrTableDoesNotExist)

	mustExec(t, conn, "CREATE TABLE test(x INT, y INT, z INT);")

	res, err := memExecute(conn, "INSERT INTO test VALUES (1, 2, 3), (4, 5, 6)")
	require.NoError(t, err)
	assert.Equal(t, StatementInsert, res.StatementType())
	assert.Equal(t, int64(2), res.RowsChanged())
	require.Equal(t, 1, res.ColumnCount())
	assert.Equal(t, "Count", res.ColumnName(0))
	res.Close()

	_, err = memExecute(conn, "INSERT INTO test VALUES (1, 2)")
	assert.ErrorIs(t, err, ErrMissingValues)

	mustExec(t, conn, "CREATE TABLE small (a TINYINT)")
	_, err = memExecute(conn, "INSERT INTO small VALUES (300)")
	assert.ErrorIs(t, err, ErrInvalidCast)
	assert.Contains(t, err.Error(), "TINYINT")

	_, rows := memQuery(t, conn, "SELECT count(*) FROM small")
	assert.Equal(t, int64(0), rows[0][0])
}

func TestMemory_createTable(t *testing.T) {
	conn := newMemoryConn(t)

	mustExec(t, conn, "CREATE TABLE test(x INT, y INT, z INT)")

	_, err := memExecute(conn, "CREATE TABLE test(x INT)")
	assert.ErrorIs(t, err, ErrTableAlreadyExists)

	mustExec(t, conn, "CREATE TABLE IF NOT EXISTS test(x INT)")

	_, err = memExecute(conn, "CREATE TABLE dup(x INT, x INT)")
	assert.ErrorContains(t, err, "Column with name x already exists")
}

func TestMemory_dropTable(t *testing.T) {
	conn := newMemoryConn(t)

	_, err := memExecute(conn, "DROP TABLE test;")
	assert.ErrorIs(t, err, ErrTableDoesNotExist)

	mustExec(t, conn, "CREATE TABLE test(x INT, y INT, z INT);")
	mustExec(t, conn, "DROP TABLE test;")
	mustExec(t, conn, "DROP TABLE IF EXISTS test;")

	_, err = conn.Prepare("SELECT * FROM test")
	assert.ErrorIs(t, err, ErrTableDoesNotExist)
}

func TestMemory_whereAndDelete(t *testing.T) {
	conn := newMemoryConn(t)

	mustExec(t, conn, "CREATE TABLE users (id INTEGER, name VARCHAR)")
	mustExec(t, conn, "INSERT INTO users VALUES (1, 'ann'), (2, 'bob'), (3, NULL), (4, 'dan')")

	_, rows := memQuery(t, conn, "SELECT id FROM users WHERE id >= 2 AND name <> 'dan'")
	assert.Equal(t, [][]any{{int32(2)}}, rows)

	_, rows = memQuery(t, conn, "SELECT name FROM users WHERE id = 3 OR id = 1")
	assert.Equal(t, [][]any{{"ann"}, {nil}}, rows)

	_, rows = memQuery(t, conn, "SELECT id FROM users WHERE id = ?", int64(4))
	assert.Equal(t, [][]any{{int32(4)}}, rows)

	_, err := memExecute(conn, "SELECT id FROM users WHERE name")
	assert.ErrorIs(t, err, ErrInvalidCast)

	assert.Equal(t, int64(2), mustExec(t, conn, "DELETE FROM users WHERE id < 3"))
	_, rows = memQuery(t, conn, "SELECT id FROM users")
	assert.Equal(t, [][]any{{int32(3)}, {int32(4)}}, rows)

	assert.Equal(t, int64(2), mustExec(t, conn, "DELETE FROM users"))
	_, rows = memQuery(t, conn, "SELECT id FROM users")
	assert.Empty(t, rows)
}

func TestMemory_aggregates(t *testing.T) {
	conn := newMemoryConn(t)

	mustExec(t, conn, "CREATE TABLE people (name VARCHAR, age INTEGER, score DOUBLE, price DECIMAL(6, 2))")

	names, rows := memQuery(t, conn, "SELECT count(*), sum(age) FROM people")
	assert.Equal(t, []string{"count_star()", "sum(age)"}, names)
	assert.Equal(t, [][]any{{int64(0), nil}}, rows)

	mustExec(t, conn, "INSERT INTO people VALUES ('a', 20, 1.5, 1.25), ('b', 22, 2.5, 2.50), (NULL, NULL, NULL, NULL)")

	_, rows = memQuery(t, conn, "SELECT count(*), count(name), sum(age), sum(score), sum(price) FROM people")
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0][0])
	assert.Equal(t, int64(2), rows[0][1])
	assert.Equal(t, "42", rows[0][2].(*big.Int).String())
	assert.Equal(t, 4.0, rows[0][3])
	assert.Equal(t, "3.75", rows[0][4].(decimal.Decimal).String())

	_, err := memExecute(conn, "SELECT name, count(*) FROM people")
	assert.ErrorIs(t, err, ErrInvalidSelectItem)

	_, err = memExecute(conn, "SELECT sum(name) FROM people")
	assert.ErrorIs(t, err, ErrInvalidDatatype)
}

func TestMemory_parameters(t *testing.T) {
	conn := newMemoryConn(t)

	names, rows := memQuery(t, conn, "SELECT ? + 1, ? || 'x'", int64(2), "a")
	assert.Equal(t, []string{"(? + 1)", "(? || 'x')"}, names)
	assert.Equal(t, [][]any{{int64(3), "ax"}}, rows)

	stmt, err := conn.Prepare("SELECT ?, ?")
	require.NoError(t, err)
	err = stmt.Bind(namedArgs([]any{1}))
	assert.ErrorContains(t, err, "Expected 2 parameters, but 1 were supplied")

	_, err = stmt.Execute(false)
	assert.ErrorContains(t, err, "Values were not provided")

	err = stmt.Bind(namedArgs([]any{struct{}{}, 1}))
	assert.ErrorIs(t, err, ErrInvalidDatatype)
}

func TestMemory_types(t *testing.T) {
	conn := newMemoryConn(t)

	mustExec(t, conn, `CREATE TABLE t (
		d DECIMAL(10, 2), h HUGEINT, u UUID, ts TIMESTAMP, day DATE,
		b BLOB, i INTERVAL, ok BOOLEAN, f DOUBLE, small UTINYINT)`)

	huge, _ := new(big.Int).SetString("-1267650600228229401496703205376", 10)
	id := uuid.MustParse("4ac7a9e9-607c-4c8a-84f3-843f0191e3fd")
	at := time.Date(2024, time.January, 2, 3, 4, 5, 6000, time.UTC)

	mustExec(t, conn, "INSERT INTO t VALUES (?, ?, ?, ?, '2024-03-01', ?, ?, true, 1.5, 255)",
		decimal.RequireFromString("12.34"), huge, id, at, []byte{1, 2}, 90*time.Minute)

	_, rows := memQuery(t, conn, "SELECT * FROM t")
	require.Len(t, rows, 1)
	row := rows[0]

	assert.Equal(t, "12.34", row[0].(decimal.Decimal).String())
	assert.Equal(t, huge.String(), row[1].(*big.Int).String())
	assert.Equal(t, id, row[2])
	assert.True(t, at.Equal(row[3].(time.Time)))
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), row[4])
	assert.Equal(t, []byte{1, 2}, row[5])
	assert.Equal(t, Interval{Micros: int64(90 * time.Minute / time.Microsecond)}, row[6])
	assert.Equal(t, true, row[7])
	assert.Equal(t, 1.5, row[8])
	assert.Equal(t, uint8(255), row[9])

	_, rows = memQuery(t, conn, "SELECT u FROM t WHERE u = '4ac7a9e9-607c-4c8a-84f3-843f0191e3fd'")
	assert.Len(t, rows, 1)
}

func TestMemory_transactions(t *testing.T) {
	conn := newMemoryConn(t)

	mustExec(t, conn, "BEGIN TRANSACTION")
	_, err := memExecute(conn, "BEGIN")
	assert.ErrorIs(t, err, ErrTxInProgress)
	mustExec(t, conn, "COMMIT")

	_, err = memExecute(conn, "ROLLBACK")
	assert.ErrorIs(t, err, ErrNoTx)
}

func TestMemory_showTables(t *testing.T) {
	conn := newMemoryConn(t)

	names, rows := memQuery(t, conn, "SHOW TABLES")
	assert.Equal(t, []string{"name"}, names)
	assert.Empty(t, rows)

	mustExec(t, conn, "CREATE TABLE b (x INT)")
	mustExec(t, conn, "CREATE TABLE a (x INT)")

	_, rows = memQuery(t, conn, "SHOW TABLES")
	assert.Equal(t, [][]any{{"a"}, {"b"}}, rows)
}

func TestMemory_chunks(t *testing.T) {
	conn := newMemoryConn(t)
	mustExec(t, conn, "CREATE TABLE n (v BIGINT)")

	var sb strings.Builder
	sb.WriteString("INSERT INTO n VALUES ")
	for i := 0; i < 5000; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "(%d)", i)
	}
	assert.Equal(t, int64(5000), mustExec(t, conn, sb.String()))

	res, err := memExecute(conn, "SELECT v FROM n")
	require.NoError(t, err)
	defer res.Close()

	var sizes []int
	for {
		chunk, err := res.Fetch()
		require.NoError(t, err)
		if chunk == nil {
			break
		}
		sizes = append(sizes, chunk.Len())
	}
	assert.Equal(t, []int{2048, 2048, 904}, sizes)
}

func TestMemory_interrupt(t *testing.T) {
	conn := newMemoryConn(t)
	mustExec(t, conn, "CREATE TABLE n (v BIGINT)")
	mustExec(t, conn, "INSERT INTO n VALUES (1), (2)")

	res, err := memExecute(conn, "SELECT v FROM n")
	require.NoError(t, err)
	defer res.Close()

	conn.Interrupt()
	_, err = res.Fetch()
	assert.ErrorIs(t, err, ErrInterrupted)

	// The next statement starts over.
	_, rows := memQuery(t, conn, "SELECT v FROM n")
	assert.Len(t, rows, 2)
}

func TestMemoryCache(t *testing.T) {
	nc, err := NewMemoryEngine().NewCache()
	require.NoError(t, err)
	defer nc.Close()

	a, err := nc.GetOrCreate(":memory:shared", nil)
	require.NoError(t, err)
	b, err := nc.GetOrCreate(":memory:shared", nil)
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = nc.GetOrCreate(":memory:x", map[string]string{"access_mode": "READ_ONLY"})
	assert.ErrorContains(t, err, "Cannot launch in-memory database in read-only mode")

	_, err = nc.GetOrCreate(":memory:y", map[string]string{"bogus": "1", "also_bogus": "2"})
	assert.ErrorContains(t, err, "not recognized: also_bogus, bogus")

	missing := filepath.Join(t.TempDir(), "missing.db")
	_, err = nc.GetOrCreate(missing, map[string]string{"access_mode": "READ_ONLY"})
	assert.ErrorContains(t, err, "IO Error")
}

func TestMemory_readOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.db")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	conn, err := newMemoryDatabase(t, path, map[string]string{"access_mode": "READ_ONLY"}).Connect()
	require.NoError(t, err)
	defer conn.Close()

	_, err = memExecute(conn, "CREATE TABLE t (x INT)")
	assert.ErrorIs(t, err, ErrReadOnly)

	_, rows := memQuery(t, conn, "SHOW TABLES")
	assert.Empty(t, rows)
}
