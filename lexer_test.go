package goduck

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_lexNumeric(t *testing.T) {
	tests := []struct {
		number bool
		value  string
	}{
		{number: true, value: "105"},
		{number: true, value: "105 "},
		{number: true, value: "123."},
		{number: true, value: "123.145"},
		{number: true, value: "1e5"},
		{number: true, value: "1.e21"},
		{number: true, value: "1.1e-2"},
		{number: true, value: "1.1e+2"},
		{number: true, value: ".1"},
		{number: false, value: "e4"},
		{number: false, value: "1.."},
		{number: false, value: "1ee4"},
		{number: false, value: "1e"},
		{number: false, value: " 1"},
	}

	for _, test := range tests {
		tok, _, ok := lexNumeric(test.value, cursor{})
		assert.Equal(t, test.number, ok, test.value)
		if ok {
			assert.Equal(t, strings.TrimSpace(test.value), tok.value, test.value)
		}
	}
}

func TestToken_lexNumericCursor(t *testing.T) {
	tok, cur, ok := lexNumeric("105, 2", cursor{})
	require.True(t, ok)
	assert.Equal(t, "105", tok.value)
	assert.Equal(t, uint(3), cur.pointer)
	assert.Equal(t, uint(3), cur.loc.col)
}

func TestToken_lexString(t *testing.T) {
	tests := []struct {
		input string
		value string
		ok    bool
	}{
		{input: "'abc'", value: "abc", ok: true},
		{input: "'a b'", value: "a b", ok: true},
		{input: "'a' ", value: "a", ok: true},
		{input: "''", value: "", ok: true},
		{input: "'a '' b'", value: "a ' b", ok: true},
		{input: "'it''s'", value: "it's", ok: true},
		{input: "a"},
		{input: "'"},
		{input: "'abc"},
		{input: ""},
		{input: " 'foo'"},
	}

	for _, test := range tests {
		tok, _, ok := lexString(test.input, cursor{})
		assert.Equal(t, test.ok, ok, test.input)
		if ok {
			assert.Equal(t, test.value, tok.value, test.input)
			assert.Equal(t, stringKind, tok.kind, test.input)
		}
	}
}

func TestToken_lexSymbol(t *testing.T) {
	tests := []struct {
		input string
		value string
		ok    bool
	}{
		{input: "= ", value: "=", ok: true},
		{input: "||", value: "||", ok: true},
		{input: "<=", value: "<=", ok: true},
		{input: "<>", value: "<>", ok: true},
		{input: "!=", value: "<>", ok: true},
		{input: "?", value: "?", ok: true},
		{input: "@"},
	}

	for _, test := range tests {
		tok, _, ok := lexSymbol(test.input, cursor{})
		assert.Equal(t, test.ok, ok, test.input)
		if ok {
			assert.Equal(t, test.value, tok.value, test.input)
		}
	}
}

func TestToken_lexSymbolWhitespace(t *testing.T) {
	tok, cur, ok := lexSymbol("\nx", cursor{loc: location{col: 4}})
	assert.True(t, ok)
	assert.Nil(t, tok)
	assert.Equal(t, location{line: 1, col: 0}, cur.loc)
}

func TestToken_lexWord(t *testing.T) {
	tests := []struct {
		input string
		value string
		kind  tokenKind
		ok    bool
	}{
		{input: "a", value: "a", kind: identifierKind, ok: true},
		{input: "abc ", value: "abc", kind: identifierKind, ok: true},
		{input: `" abc "`, value: " abc ", kind: identifierKind, ok: true},
		{input: `"select"`, value: "select", kind: identifierKind, ok: true},
		{input: "a9$", value: "a9$", kind: identifierKind, ok: true},
		{input: "userName", value: "username", kind: identifierKind, ok: true},
		{input: "_tmp", value: "_tmp", kind: identifierKind, ok: true},
		{input: "int", value: "int", kind: identifierKind, ok: true},
		{input: "SELECT", value: "select", kind: keywordKind, ok: true},
		{input: "from", value: "from", kind: keywordKind, ok: true},
		{input: "True", value: "true", kind: boolKind, ok: true},
		{input: "false", value: "false", kind: boolKind, ok: true},
		{input: "NULL", value: "null", kind: nullKind, ok: true},
		{input: `"`},
		{input: "1a"},
		{input: "$a"},
	}

	for _, test := range tests {
		tok, _, ok := lexWord(test.input, cursor{})
		assert.Equal(t, test.ok, ok, test.input)
		if ok {
			assert.Equal(t, test.value, tok.value, test.input)
			assert.Equal(t, test.kind, tok.kind, test.input)
		}
	}
}

func TestLex(t *testing.T) {
	tests := []struct {
		input  string
		tokens []token
	}{
		{
			input: "select a from b",
			tokens: []token{
				{loc: location{col: 0}, value: string(selectKeyword), kind: keywordKind},
				{loc: location{col: 7}, value: "a", kind: identifierKind},
				{loc: location{col: 9}, value: string(fromKeyword), kind: keywordKind},
				{loc: location{col: 14}, value: "b", kind: identifierKind},
			},
		},
		{
			input: "insert into users values (105, 233)",
			tokens: []token{
				{loc: location{col: 0}, value: string(insertKeyword), kind: keywordKind},
				{loc: location{col: 7}, value: string(intoKeyword), kind: keywordKind},
				{loc: location{col: 12}, value: "users", kind: identifierKind},
				{loc: location{col: 18}, value: string(valuesKeyword), kind: keywordKind},
				{loc: location{col: 25}, value: "(", kind: symbolKind},
				{loc: location{col: 26}, value: "105", kind: numericKind},
				{loc: location{col: 29}, value: ",", kind: symbolKind},
				{loc: location{col: 31}, value: "233", kind: numericKind},
				{loc: location{col: 34}, value: ")", kind: symbolKind},
			},
		},
		{
			input: "SELECT id\nFROM users;",
			tokens: []token{
				{loc: location{col: 0}, value: string(selectKeyword), kind: keywordKind},
				{loc: location{col: 7}, value: "id", kind: identifierKind},
				{loc: location{line: 1, col: 0}, value: string(fromKeyword), kind: keywordKind},
				{loc: location{line: 1, col: 5}, value: "users", kind: identifierKind},
				{loc: location{line: 1, col: 10}, value: ";", kind: symbolKind},
			},
		},
		{
			input: "select 'a '' b', true, null",
			tokens: []token{
				{loc: location{col: 0}, value: string(selectKeyword), kind: keywordKind},
				{loc: location{col: 7}, value: "a ' b", kind: stringKind},
				{loc: location{col: 15}, value: ",", kind: symbolKind},
				{loc: location{col: 17}, value: "true", kind: boolKind},
				{loc: location{col: 21}, value: ",", kind: symbolKind},
				{loc: location{col: 23}, value: "null", kind: nullKind},
			},
		},
		{
			input: "select 1 != 2",
			tokens: []token{
				{loc: location{col: 0}, value: string(selectKeyword), kind: keywordKind},
				{loc: location{col: 7}, value: "1", kind: numericKind},
				{loc: location{col: 9}, value: "<>", kind: symbolKind},
				{loc: location{col: 12}, value: "2", kind: numericKind},
			},
		},
	}

	for _, test := range tests {
		tokens, err := lex(test.input)
		require.NoError(t, err, test.input)
		require.Equal(t, len(test.tokens), len(tokens), test.input)

		for i, tok := range tokens {
			assert.Equal(t, &test.tokens[i], tok, test.input)
		}
	}
}

func TestLex_error(t *testing.T) {
	_, err := lex("select @")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after select")
	assert.Contains(t, err.Error(), "0:7")
}
