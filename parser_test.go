package goduck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		source string
		kinds  []AstKind
		code   []string
	}{
		{
			source: "INSERT INTO users VALUES (105, 233)",
			kinds:  []AstKind{InsertKind},
			code:   []string{`INSERT INTO "users" VALUES (105, 233);`},
		},
		{
			source: "insert into t values (1, 'a'), (2, NULL), (-3, true)",
			kinds:  []AstKind{InsertKind},
			code:   []string{`INSERT INTO "t" VALUES (1, 'a'), (2, NULL), (-3, TRUE);`},
		},
		{
			source: "CREATE TABLE users (id INT, name TEXT)",
			kinds:  []AstKind{CreateTableKind},
			code:   []string{"CREATE TABLE \"users\" (\n\t\"id\" INTEGER,\n\t\"name\" VARCHAR\n);"},
		},
		{
			source: "create table if not exists prices (amount decimal(10, 2), n hugeint, at timestamp)",
			kinds:  []AstKind{CreateTableKind},
			code:   []string{"CREATE TABLE IF NOT EXISTS \"prices\" (\n\t\"amount\" DECIMAL(10,2),\n\t\"n\" HUGEINT,\n\t\"at\" TIMESTAMP\n);"},
		},
		{
			source: "DROP TABLE IF EXISTS users",
			kinds:  []AstKind{DropTableKind},
			code:   []string{`DROP TABLE IF EXISTS "users";`},
		},
		{
			source: "SELECT id, name AS fullname FROM users WHERE id = 1 AND name <> 'x'",
			kinds:  []AstKind{SelectKind},
			code:   []string{"SELECT\n\t\"id\",\n\t\"name\" AS \"fullname\"\nFROM\n\t\"users\"\nWHERE\n\t((\"id\" = 1) AND (\"name\" <> 'x'));"},
		},
		{
			source: "SELECT * FROM users WHERE a = 1 OR b = 2 AND c = 3",
			kinds:  []AstKind{SelectKind},
			code:   []string{"SELECT\n\t*\nFROM\n\t\"users\"\nWHERE\n\t((\"a\" = 1) OR ((\"b\" = 2) AND (\"c\" = 3)));"},
		},
		{
			source: "SELECT count(*), sum(age) FROM users",
			kinds:  []AstKind{SelectKind},
			code:   []string{"SELECT\n\tcount(*),\n\tsum(\"age\")\nFROM\n\t\"users\";"},
		},
		{
			source: "SELECT 'a' || 'b', -5, (1 + 2) - 3, ?",
			kinds:  []AstKind{SelectKind},
			code:   []string{"SELECT\n\t('a' || 'b'),\n\t-5,\n\t((1 + 2) - 3),\n\t?;"},
		},
		{
			source: "DELETE FROM users WHERE id >= ?",
			kinds:  []AstKind{DeleteKind},
			code:   []string{`DELETE FROM "users" WHERE ("id" >= ?);`},
		},
		{
			source: "BEGIN; COMMIT; ROLLBACK TRANSACTION;",
			kinds:  []AstKind{TransactionKind, TransactionKind, TransactionKind},
			code:   []string{"BEGIN TRANSACTION;", "COMMIT;", "ROLLBACK;"},
		},
		{
			source: ";; SHOW TABLES ;",
			kinds:  []AstKind{ShowTablesKind},
			code:   []string{"SHOW TABLES;"},
		},
	}

	for _, test := range tests {
		t.Run(test.source, func(t *testing.T) {
			ast, err := Parse(test.source)
			require.NoError(t, err)
			require.Len(t, ast.Statements, len(test.kinds))

			for i, stmt := range ast.Statements {
				assert.Equal(t, test.kinds[i], stmt.Kind)
				assert.Equal(t, test.code[i], stmt.GenerateCode())
			}
		})
	}
}

// Generated code parses back to itself.
func TestParse_roundTrip(t *testing.T) {
	for _, source := range []string{
		"SELECT id, name AS fullname FROM users WHERE id = 1 AND name <> 'it''s'",
		"CREATE TABLE IF NOT EXISTS t (a DECIMAL(38, 10), b UUID, c INTERVAL)",
		"INSERT INTO t VALUES (1.5, 'x', NULL)",
		"DELETE FROM t WHERE a < 2 OR b > 3",
	} {
		first, err := Parse(source)
		require.NoError(t, err, source)
		code := first.Statements[0].GenerateCode()

		second, err := Parse(code)
		require.NoError(t, err, code)
		assert.Equal(t, code, second.Statements[0].GenerateCode())
	}
}

func TestParse_parameters(t *testing.T) {
	ast, err := Parse("SELECT ?, a FROM t WHERE b = ? AND c = ?")
	require.NoError(t, err)
	stmt := ast.Statements[0]
	assert.Equal(t, uint(3), stmt.params)

	slct := stmt.SelectStatement
	assert.Equal(t, uint(1), slct.item[0].exp.param)
	where := slct.where.binary
	assert.Equal(t, uint(2), where.a.binary.b.param)
	assert.Equal(t, uint(3), where.b.binary.b.param)

	ast, err = Parse("INSERT INTO t VALUES (?, ?), (?, 1)")
	require.NoError(t, err)
	assert.Equal(t, uint(3), ast.Statements[0].params)
}

func TestParse_errors(t *testing.T) {
	tests := []struct {
		source string
		hint   string
	}{
		{source: "SELECT FROM users", hint: "[0,7]: Expected select item, got: from"},
		{source: "CREATE TABLE t (a nope)", hint: "Type with name nope does not exist"},
		{source: "CREATE TABLE t (a decimal(40, 2))", hint: "invalid DECIMAL(40,2)"},
		{source: "CREATE TABLE t (a integer(3))", hint: "type integer does not take parameters"},
		{source: "BEGIN COMMIT", hint: "Expected semi-colon delimiter between statements"},
		{source: "INSERT INTO t VALUES (1, 2", hint: "Expected )"},
		{source: "DELETE users", hint: "Expected FROM"},
		{source: "SELECT a FROM t WHERE", hint: "Expected WHERE conditionals"},
		{source: "UPDATE t", hint: "Expected statement"},
	}

	for _, test := range tests {
		_, err := Parse(test.source)
		require.Error(t, err, test.source)
		assert.Contains(t, err.Error(), test.hint, test.source)
	}
}

func TestParse_empty(t *testing.T) {
	ast, err := Parse("  ;\n;")
	require.NoError(t, err)
	assert.Empty(t, ast.Statements)
}
