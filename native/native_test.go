package native_test

import (
	"context"
	"database/sql"
	"io"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barsdeveloper/goduck"
	"github.com/barsdeveloper/goduck/native"
)

type session struct {
	bridge *goduck.Bridge
	cache  *goduck.InstanceCache
	conn   *goduck.Conn
}

func newSession(t *testing.T, dsn string) *session {
	t.Helper()
	b, err := goduck.NewBridge(goduck.BridgeOptions{RowBuffer: 128})
	require.NoError(t, err)
	cache := goduck.NewInstanceCache(native.NewEngine(), nil)

	opts, err := goduck.ParseDSN(dsn)
	require.NoError(t, err)
	conn, err := goduck.Establish(cache, opts)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		b.Close(time.Second)
		cache.Close()
	})
	return &session{bridge: b, cache: cache, conn: conn}
}

func (s *session) run(t *testing.T, query string, c goduck.Cardinality) []goduck.Message {
	t.Helper()
	stream, err := s.bridge.Execute(t.Context(), s.conn, goduck.Request{SQL: query, Cardinality: c})
	require.NoError(t, err)
	defer stream.Close()
	messages, err := stream.Collect(t.Context())
	require.NoError(t, err, query)
	return messages
}

func (s *session) one(t *testing.T, query string) goduck.Row {
	t.Helper()
	messages := s.run(t, query, goduck.One)
	require.Len(t, messages, 1, query)
	return messages[0].Row
}

func TestNative_largeResult(t *testing.T) {
	s := newSession(t, ":memory:")

	s.run(t, "CREATE TABLE n AS SELECT range AS v FROM range(-10000, 40000)", goduck.None)
	messages := s.run(t, "SELECT v FROM n ORDER BY v", goduck.Many)
	require.Len(t, messages, 50000)
	for i, msg := range messages {
		require.Equal(t, int64(i-10000), *msg.Row[0].Field.AsInt64())
	}

	row := s.one(t, "SELECT sum(v) FROM n")
	assert.Equal(t, "749975000", row[0].Field.AsBigInt().String())
	name, err := row[0].Field.TypeName()
	require.NoError(t, err)
	assert.Equal(t, "HUGEINT", name)
}

func TestNative_specialValues(t *testing.T) {
	s := newSession(t, ":memory:")

	row := s.one(t, "SELECT 'NaN'::DOUBLE AS a, '-Infinity'::DOUBLE AS b, 340282366920938463463374607431768211455::UHUGEINT AS c")
	assert.True(t, math.IsNaN(*row[0].Field.AsFloat64()))
	assert.True(t, math.IsInf(*row[1].Field.AsFloat64(), -1))
	assert.Equal(t, "340282366920938463463374607431768211455", row[2].Field.AsBigInt().String())
	assert.Equal(t, []string{"a", "b", "c"}, []string{row[0].Name, row[1].Name, row[2].Name})

	s.run(t, "CREATE TABLE special (id INTEGER, d DOUBLE, u UHUGEINT, b BOOLEAN)", goduck.None)
	s.run(t, "INSERT INTO special VALUES (1, 'NaN', 340282366920938463463374607431768211455, true), (2, '-Infinity', 0, false), (3, 1.5, 1, NULL)", goduck.None)
	messages := s.run(t, "SELECT d, u, b FROM special ORDER BY id", goduck.Many)
	require.Len(t, messages, 3)
	assert.True(t, math.IsNaN(*messages[0].Row[0].Field.AsFloat64()))
	assert.Equal(t, "340282366920938463463374607431768211455", messages[0].Row[1].Field.AsBigInt().String())
	assert.Equal(t, true, *messages[0].Row[2].Field.AsBool())
	assert.True(t, math.IsInf(*messages[1].Row[0].Field.AsFloat64(), -1))
	assert.Equal(t, false, *messages[1].Row[2].Field.AsBool())
	assert.True(t, messages[2].Row[2].Field.IsNull())
}

func TestNative_idempotent(t *testing.T) {
	s := newSession(t, ":memory:")
	s.run(t, "CREATE TABLE n AS SELECT range AS v, range::VARCHAR AS t FROM range(5000)", goduck.None)

	const query = "SELECT v, t FROM n WHERE v % 3 = 0 ORDER BY v DESC"
	first := s.run(t, query, goduck.Many)
	second := s.run(t, query, goduck.Many)
	require.Len(t, first, 1667)
	require.Len(t, second, len(first))
	for i := range first {
		require.Equal(t, first[i].Row.Values(), second[i].Row.Values(), "row %d", i)
	}
}

func TestNative_types(t *testing.T) {
	s := newSession(t, ":memory:")

	tests := []struct {
		sql      string
		typeName string
		text     string
	}{
		{"SELECT true", "BOOLEAN", "true"},
		{"SELECT (-128)::TINYINT", "TINYINT", "-128"},
		{"SELECT 255::UTINYINT", "UTINYINT", "255"},
		{"SELECT 18446744073709551615::UBIGINT", "UBIGINT", "18446744073709551615"},
		{"SELECT (-170141183460469231731687303715884105728)::HUGEINT", "HUGEINT", "-170141183460469231731687303715884105728"},
		{"SELECT 1.5::FLOAT", "FLOAT", "1.5"},
		{"SELECT 'a string longer than twelve bytes'", "VARCHAR", "a string longer than twelve bytes"},
		{"SELECT 'short'", "VARCHAR", "short"},
		{"SELECT '\\xDE\\xAD'::BLOB", "BLOB", `\xdead`},
		{"SELECT 12.34::DECIMAL(4, 2)", "DECIMAL(4,2)", "12.34"},
		{"SELECT (-12345.6789)::DECIMAL(9, 4)", "DECIMAL(9,4)", "-12345.6789"},
		{"SELECT 123456789012.345::DECIMAL(18, 3)", "DECIMAL(18,3)", "123456789012.345"},
		{"SELECT 12345678901234567890.5::DECIMAL(38, 1)", "DECIMAL(38,1)", "12345678901234567890.5"},
		{"SELECT DATE '1969-12-31'", "DATE", "1969-12-31"},
		{"SELECT TIME '01:02:03.000004'", "TIME", "01:02:03.000004"},
		{"SELECT TIMESTAMP '2024-01-02 03:04:05.6'", "TIMESTAMP", "2024-01-02 03:04:05.6"},
		{"SELECT '2024-01-02 03:04:05'::TIMESTAMP_S", "TIMESTAMP_S", "2024-01-02 03:04:05"},
		{"SELECT '2024-01-02 03:04:05.123'::TIMESTAMP_MS", "TIMESTAMP_MS", "2024-01-02 03:04:05.123"},
		{"SELECT '2024-01-02 03:04:05.123456789'::TIMESTAMP_NS", "TIMESTAMP_NS", "2024-01-02 03:04:05.123456789"},
		{"SELECT INTERVAL 1 DAY + INTERVAL 90 MINUTE", "INTERVAL", "1 day 01:30:00"},
		{"SELECT '4ac7a9e9-607c-4c8a-84f3-843f0191e3fd'::UUID", "UUID", "4ac7a9e9-607c-4c8a-84f3-843f0191e3fd"},
		{"SELECT [1, NULL, 3]", "INTEGER[]", "[1, NULL, 3]"},
		{"SELECT [['a'], [], ['b', 'c']]", "VARCHAR[][]", "[['a'], [], ['b', 'c']]"},
		{"SELECT [1, 2, 3]::INTEGER[3]", "INTEGER[3]", "[1, 2, 3]"},
		{"SELECT {'id': 1, 'name': 'x'}", "STRUCT(id INTEGER, name VARCHAR)", "{'id': 1, 'name': 'x'}"},
		{"SELECT MAP {'a': 1, 'b': 2}", "MAP(VARCHAR,INTEGER)", "{'a'=1, 'b'=2}"},
	}

	for _, test := range tests {
		row := s.one(t, test.sql)
		require.Len(t, row, 1, test.sql)
		name, err := row[0].Field.TypeName()
		require.NoError(t, err, test.sql)
		assert.Equal(t, test.typeName, name, test.sql)
		assert.Equal(t, test.text, row[0].Field.String(), test.sql)
	}

	row := s.one(t, "SELECT '4ac7a9e9-607c-4c8a-84f3-843f0191e3fd'::UUID")
	assert.Equal(t, uuid.MustParse("4ac7a9e9-607c-4c8a-84f3-843f0191e3fd"), *row[0].Field.AsUUID())

	s.run(t, "CREATE TYPE mood AS ENUM ('sad', 'ok', 'happy')", goduck.None)
	row = s.one(t, "SELECT 'happy'::mood")
	assert.Equal(t, "happy", *row[0].Field.AsText())

	row = s.one(t, "SELECT NULL::INTEGER AS typed, NULL AS untyped")
	assert.True(t, row[0].Field.IsNull())
	name, err := row[0].Field.TypeName()
	require.NoError(t, err)
	assert.Equal(t, "INTEGER", name)
	assert.True(t, row[1].Field.IsNull())
}

func TestNative_nestedNulls(t *testing.T) {
	s := newSession(t, ":memory:")

	s.run(t, "CREATE TABLE nest (id INTEGER, a INTEGER[2], st STRUCT(id INTEGER, name VARCHAR), m MAP(VARCHAR, INTEGER))", goduck.None)
	s.run(t, "INSERT INTO nest VALUES (1, [10, 20], {'id': 1, 'name': 'x'}, MAP {'k': 1}), (2, NULL, NULL, NULL), (3, [NULL, 30], {'id': NULL, 'name': 'y'}, MAP {})", goduck.None)

	messages := s.run(t, "SELECT a, st, m FROM nest ORDER BY id", goduck.Many)
	require.Len(t, messages, 3)

	first := messages[0].Row
	require.False(t, first[0].Field.IsNull())
	assert.Len(t, first[0].Field.Items(), 2)
	assert.Equal(t, "[10, 20]", first[0].Field.String())
	assert.Equal(t, "{'id': 1, 'name': 'x'}", first[1].Field.String())
	assert.Equal(t, map[string]any{"id": int32(1), "name": "x"}, first[1].Field.Value())
	assert.Equal(t, "{'k'=1}", first[2].Field.String())

	second := messages[1].Row
	for _, col := range second {
		assert.True(t, col.Field.IsNull(), col.Name)
	}

	third := messages[2].Row
	assert.Equal(t, "[NULL, 30]", third[0].Field.String())
	assert.Equal(t, "{'id': NULL, 'name': 'y'}", third[1].Field.String())
	assert.Equal(t, "{}", third[2].Field.String())

	messages = s.run(t, "SELECT [10, 20]::INTEGER[2] AS a FROM range(2)", goduck.Many)
	require.Len(t, messages, 2)
	for _, msg := range messages {
		assert.Equal(t, []any{int32(10), int32(20)}, msg.Row[0].Field.Value())
	}
}

func TestNative_mutations(t *testing.T) {
	s := newSession(t, ":memory:")

	s.run(t, "CREATE TABLE users (id INTEGER, name VARCHAR)", goduck.None)
	messages := s.run(t, "INSERT INTO users VALUES (1, 'a'), (2, 'b'), (3, 'c')", goduck.Many)
	require.Len(t, messages, 1)
	assert.Equal(t, int64(3), messages[0].Summary.RowsAffected)

	messages = s.run(t, "DELETE FROM users WHERE id <= 2", goduck.None)
	assert.Equal(t, int64(2), messages[0].Summary.RowsAffected)
}

func TestNative_errors(t *testing.T) {
	s := newSession(t, ":memory:")

	stream, err := s.bridge.Execute(t.Context(), s.conn, goduck.Request{SQL: "SELEC 1"})
	require.NoError(t, err)
	_, err = stream.Next(t.Context())
	assert.ErrorIs(t, err, goduck.ErrPrepare)
	assert.ErrorContains(t, err, "syntax error")
	_, err = stream.Next(t.Context())
	assert.Equal(t, io.EOF, err)
	require.NoError(t, stream.Close())

	s.run(t, "CREATE TABLE words AS SELECT 'x' AS v", goduck.None)
	stream, err = s.bridge.Execute(t.Context(), s.conn, goduck.Request{SQL: "SELECT v::INTEGER FROM words"})
	require.NoError(t, err)
	_, err = stream.Collect(t.Context())
	assert.ErrorIs(t, err, goduck.ErrExecution)
	assert.ErrorContains(t, err, "Conversion Error")
	require.NoError(t, stream.Close())

	cache := goduck.NewInstanceCache(native.NewEngine(), nil)
	defer cache.Close()
	_, _, err = cache.GetOrCreate(":memory:bad", map[string]string{"not_a_setting": "1"})
	assert.ErrorIs(t, err, goduck.ErrConfiguration)
}

func TestNative_cancel(t *testing.T) {
	s := newSession(t, ":memory:")

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()
	stream, err := s.bridge.Execute(ctx, s.conn, goduck.Request{
		SQL: "SELECT count(*) FROM range(1000000000) a, range(1000) b",
	})
	require.NoError(t, err)
	_, err = stream.Collect(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, stream.Close())

	row := s.one(t, "SELECT 42")
	assert.Equal(t, int32(42), *row[0].Field.AsInt32())
}

func TestNative_sharedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")

	a := newSession(t, path)
	a.run(t, "CREATE TABLE t AS SELECT 1 AS x", goduck.None)

	// A second connection through the same cache sees the same instance.
	opts, err := goduck.ParseDSN(path)
	require.NoError(t, err)
	conn, err := goduck.Establish(a.cache, opts)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, 1, a.cache.Len())

	stream, err := a.bridge.Execute(t.Context(), conn, goduck.Request{SQL: "SELECT x FROM t"})
	require.NoError(t, err)
	defer stream.Close()
	messages, err := stream.Collect(t.Context())
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, int32(1), *messages[0].Row[0].Field.AsInt32())
}

func TestNative_sqlDriver(t *testing.T) {
	db, err := sql.Open("duckdb", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var (
		n    string
		list any
	)
	require.NoError(t, db.QueryRow("SELECT sum(range), [1, 2] FROM range(10)").Scan(&n, &list))
	assert.Equal(t, "45", n)
	assert.Equal(t, []any{int32(1), int32(2)}, list)
}
