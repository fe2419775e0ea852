package goduck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAstStatement_GenerateCode(t *testing.T) {
	ident := func(name string) expression {
		return expression{literal: &token{value: name, kind: identifierKind}, kind: literalKind}
	}

	tests := []struct {
		result string
		stmt   AstStatement
	}{
		{
			`DROP TABLE "foo";`,
			AstStatement{
				DropTableStatement: &DropTableStatement{name: token{value: "foo"}},
				Kind:               DropTableKind,
			},
		},
		{
			`CREATE TABLE "users" (
	"id" BIGINT,
	"name" VARCHAR,
	"tags" VARCHAR[]
);`,
			AstStatement{
				CreateTableStatement: &CreateTableStatement{
					name: token{value: "users"},
					cols: []*columnDefinition{
						{name: token{value: "id"}, datatype: NewType(TypeBigint)},
						{name: token{value: "name"}, datatype: NewType(TypeVarchar)},
						{name: token{value: "tags"}, datatype: ListType(NewType(TypeVarchar))},
					},
				},
				Kind: CreateTableKind,
			},
		},
		{
			`INSERT INTO "foo" VALUES (1, 'flubberty', TRUE, ?);`,
			AstStatement{
				InsertStatement: &InsertStatement{
					table: token{value: "foo"},
					values: [][]*expression{{
						{literal: &token{value: "1", kind: numericKind}, kind: literalKind},
						{literal: &token{value: "flubberty", kind: stringKind}, kind: literalKind},
						{literal: &token{value: "true", kind: boolKind}, kind: literalKind},
						{kind: parameterKind},
					}},
				},
				Kind: InsertKind,
			},
		},
		{
			`SELECT
	"id",
	"name"
FROM
	"users"
WHERE
	("id" = 2);`,
			AstStatement{
				SelectStatement: &SelectStatement{
					item: []*selectItem{
						{exp: &expression{literal: &token{value: "id", kind: identifierKind}, kind: literalKind}},
						{exp: &expression{literal: &token{value: "name", kind: identifierKind}, kind: literalKind}},
					},
					from: &fromItem{&token{value: "users"}},
					where: &expression{
						binary: &binaryExpression{
							a:  ident("id"),
							b:  expression{literal: &token{value: "2", kind: numericKind}, kind: literalKind},
							op: token{value: "=", kind: symbolKind},
						},
						kind: binaryKind,
					},
				},
				Kind: SelectKind,
			},
		},
		{
			`DELETE FROM "users" WHERE ("a" OR "b");`,
			AstStatement{
				DeleteStatement: &DeleteStatement{
					table: token{value: "users"},
					where: &expression{
						binary: &binaryExpression{a: ident("a"), b: ident("b"), op: token{value: "or", kind: keywordKind}},
						kind:   binaryKind,
					},
				},
				Kind: DeleteKind,
			},
		},
		{
			"COMMIT;",
			AstStatement{TransactionStatement: &TransactionStatement{action: commitKeyword}, Kind: TransactionKind},
		},
	}

	for _, test := range tests {
		assert.Equal(t, test.result, test.stmt.GenerateCode())
	}
}

func TestSelectItem_name(t *testing.T) {
	tests := []struct {
		item selectItem
		name string
	}{
		{selectItem{exp: &expression{literal: &token{value: "age", kind: identifierKind}, kind: literalKind}}, "age"},
		{selectItem{fn: "count", asterisk: true}, "count_star()"},
		{selectItem{fn: "sum", exp: &expression{literal: &token{value: "age", kind: identifierKind}, kind: literalKind}}, "sum(age)"},
		{selectItem{exp: &expression{literal: &token{value: "1", kind: numericKind}, kind: literalKind}, as: &token{value: "one"}}, "one"},
		{selectItem{exp: &expression{literal: &token{value: "x", kind: stringKind}, kind: literalKind}}, "'x'"},
	}

	for _, test := range tests {
		assert.Equal(t, test.name, test.item.name())
	}
}
