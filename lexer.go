package goduck

import (
	"fmt"
	"strings"
)

// location of the token in source code
type location struct {
	line uint
	col  uint
}

// for storing SQL reserved keywords
type keyword string

const (
	selectKeyword      keyword = "select"
	fromKeyword        keyword = "from"
	asKeyword          keyword = "as"
	tableKeyword       keyword = "table"
	tablesKeyword      keyword = "tables"
	createKeyword      keyword = "create"
	dropKeyword        keyword = "drop"
	insertKeyword      keyword = "insert"
	intoKeyword        keyword = "into"
	valuesKeyword      keyword = "values"
	deleteKeyword      keyword = "delete"
	whereKeyword       keyword = "where"
	andKeyword         keyword = "and"
	orKeyword          keyword = "or"
	trueKeyword        keyword = "true"
	falseKeyword       keyword = "false"
	nullKeyword        keyword = "null"
	beginKeyword       keyword = "begin"
	transactionKeyword keyword = "transaction"
	commitKeyword      keyword = "commit"
	rollbackKeyword    keyword = "rollback"
	showKeyword        keyword = "show"
	ifKeyword          keyword = "if"
	existsKeyword      keyword = "exists"
	notKeyword         keyword = "not"
)

var keywords = map[string]keyword{}

func init() {
	for _, k := range []keyword{
		selectKeyword, fromKeyword, asKeyword, tableKeyword, tablesKeyword,
		createKeyword, dropKeyword, insertKeyword, intoKeyword, valuesKeyword,
		deleteKeyword, whereKeyword, andKeyword, orKeyword, trueKeyword,
		falseKeyword, nullKeyword, beginKeyword, transactionKeyword,
		commitKeyword, rollbackKeyword, showKeyword, ifKeyword, existsKeyword,
		notKeyword,
	} {
		keywords[string(k)] = k
	}
}

// for storing SQL syntax
type symbol string

const (
	semicolonSymbol  symbol = ";"
	asteriskSymbol   symbol = "*"
	commaSymbol      symbol = ","
	leftParenSymbol  symbol = "("
	rightParenSymbol symbol = ")"
	eqSymbol         symbol = "="
	neqSymbol        symbol = "<>"
	neqSymbol2       symbol = "!="
	concatSymbol     symbol = "||"
	plusSymbol       symbol = "+"
	minusSymbol      symbol = "-"
	ltSymbol         symbol = "<"
	lteSymbol        symbol = "<="
	gtSymbol         symbol = ">"
	gteSymbol        symbol = ">="
	paramSymbol      symbol = "?"
)

type tokenKind uint

const (
	keywordKind tokenKind = iota
	symbolKind
	identifierKind
	stringKind
	numericKind
	boolKind
	nullKind
)

func (k tokenKind) String() string {
	switch k {
	case keywordKind:
		return "keyword"
	case symbolKind:
		return "symbol"
	case identifierKind:
		return "identifier"
	case stringKind:
		return "string"
	case numericKind:
		return "number"
	case boolKind:
		return "boolean"
	case nullKind:
		return "null"
	}
	return "?"
}

type token struct {
	value string
	kind  tokenKind
	loc   location
}

func (t token) bindingPower() uint {
	switch t.kind {
	case keywordKind:
		switch keyword(t.value) {
		case orKeyword:
			return 1
		case andKeyword:
			return 2
		}
	case symbolKind:
		switch symbol(t.value) {
		case eqSymbol, neqSymbol:
			return 3

		case ltSymbol, gtSymbol, lteSymbol, gteSymbol:
			return 4

		case concatSymbol, plusSymbol, minusSymbol:
			return 5
		}
	}

	return 0
}

func (t *token) equals(other *token) bool {
	return t.value == other.value && t.kind == other.kind
}

// cursor indicates the current position of the lexer
type cursor struct {
	pointer uint
	loc     location
}

// longestMatch iterates through a source string starting at the given
// cursor to find the longest matching substring among the provided
// options
func longestMatch(source string, ic cursor, options []string) string {
	var match string
	rest := source[ic.pointer:]
	for _, option := range options {
		if len(option) > len(match) && strings.HasPrefix(rest, option) {
			match = option
		}
	}
	return match
}

var symbols = []string{
	string(eqSymbol),
	string(neqSymbol),
	string(neqSymbol2),
	string(ltSymbol),
	string(lteSymbol),
	string(gtSymbol),
	string(gteSymbol),
	string(concatSymbol),
	string(plusSymbol),
	string(minusSymbol),
	string(commaSymbol),
	string(leftParenSymbol),
	string(rightParenSymbol),
	string(semicolonSymbol),
	string(asteriskSymbol),
	string(paramSymbol),
}

func lexSymbol(source string, ic cursor) (*token, cursor, bool) {
	c := source[ic.pointer]
	cur := ic
	// Will get overwritten later if not an ignored syntax
	cur.pointer++
	cur.loc.col++

	switch c {
	// Syntax that should be thrown away
	case '\n':
		cur.loc.line++
		cur.loc.col = 0
		return nil, cur, true
	case '\t', '\r', ' ':
		return nil, cur, true
	}

	// Use `ic`, not `cur`
	match := longestMatch(source, ic, symbols)
	// Unknown character
	if match == "" {
		return nil, ic, false
	}

	cur.pointer = ic.pointer + uint(len(match))
	cur.loc.col = ic.loc.col + uint(len(match))

	// != is rewritten as <>: https://www.postgresql.org/docs/9.5/functions-comparison.html
	if match == string(neqSymbol2) {
		match = string(neqSymbol)
	}

	return &token{
		value: match,
		loc:   ic.loc,
		kind:  symbolKind,
	}, cur, true
}

func lexNumeric(source string, ic cursor) (*token, cursor, bool) {
	cur := ic

	periodFound := false
	expMarkerFound := false

	for ; cur.pointer < uint(len(source)); cur.pointer++ {
		c := source[cur.pointer]
		cur.loc.col++

		isDigit := c >= '0' && c <= '9'
		isPeriod := c == '.'
		isExpMarker := c == 'e' || c == 'E'

		// Must start with a digit or period
		if cur.pointer == ic.pointer {
			if !isDigit && !isPeriod {
				return nil, ic, false
			}

			periodFound = isPeriod
			continue
		}

		if isPeriod {
			if periodFound {
				return nil, ic, false
			}

			periodFound = true
			continue
		}

		if isExpMarker {
			if expMarkerFound {
				return nil, ic, false
			}

			// No periods allowed after expMarker
			periodFound = true
			expMarkerFound = true

			// expMarker must be followed by digits
			if cur.pointer == uint(len(source)-1) {
				return nil, ic, false
			}

			cNext := source[cur.pointer+1]
			if cNext == '-' || cNext == '+' {
				cur.pointer++
				cur.loc.col++
			}
			continue
		}

		if !isDigit {
			cur.loc.col--
			break
		}
	}

	// No characters accumulated
	if cur.pointer == ic.pointer {
		return nil, ic, false
	}

	return &token{
		value: source[ic.pointer:cur.pointer],
		loc:   ic.loc,
		kind:  numericKind,
	}, cur, true
}

// lexCharacterDelimited looks through a source string starting at the
// given cursor to find a start- and end- delimiter. The delimiter can
// be escaped be preceeding the delimiter with itself.
func lexCharacterDelimited(source string, ic cursor, delimiter byte) (*token, cursor, bool) {
	cur := ic

	if len(source[cur.pointer:]) == 0 {
		return nil, ic, false
	}

	if source[cur.pointer] != delimiter {
		return nil, ic, false
	}

	cur.loc.col++
	cur.pointer++

	var value []byte
	for ; cur.pointer < uint(len(source)); cur.pointer++ {
		c := source[cur.pointer]

		if c == delimiter {
			// SQL escapes are via double characters, not backslash.
			if cur.pointer+1 >= uint(len(source)) || source[cur.pointer+1] != delimiter {
				cur.pointer++
				cur.loc.col++
				return &token{
					value: string(value),
					loc:   ic.loc,
					kind:  stringKind,
				}, cur, true
			}
			cur.pointer++
			cur.loc.col++
		}

		if c == '\n' {
			cur.loc.line++
			cur.loc.col = 0
		}

		value = append(value, c)
		cur.loc.col++
	}

	return nil, ic, false
}

// lexWord reads a bare word and classifies it as a keyword, a boolean, NULL
// or an identifier. Double-quoted identifiers are never keywords.
func lexWord(source string, ic cursor) (*token, cursor, bool) {
	if token, newCursor, ok := lexCharacterDelimited(source, ic, '"'); ok {
		token.kind = identifierKind
		return token, newCursor, true
	}

	cur := ic

	c := source[cur.pointer]
	// Other characters count too, big ignoring non-ascii for now
	isAlphabetical := (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_'
	if !isAlphabetical {
		return nil, ic, false
	}
	cur.pointer++
	cur.loc.col++

	for ; cur.pointer < uint(len(source)); cur.pointer++ {
		c = source[cur.pointer]

		isAlphabetical := (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
		isNumeric := c >= '0' && c <= '9'
		if isAlphabetical || isNumeric || c == '$' || c == '_' {
			cur.loc.col++
			continue
		}

		break
	}

	// Unquoted identifiers are case-insensitive
	value := strings.ToLower(source[ic.pointer:cur.pointer])

	kind := identifierKind
	if k, ok := keywords[value]; ok {
		kind = keywordKind
		switch k {
		case trueKeyword, falseKeyword:
			kind = boolKind
		case nullKeyword:
			kind = nullKind
		}
	}

	return &token{
		value: value,
		loc:   ic.loc,
		kind:  kind,
	}, cur, true
}

func lexString(source string, ic cursor) (*token, cursor, bool) {
	return lexCharacterDelimited(source, ic, '\'')
}

type lexer func(string, cursor) (*token, cursor, bool)

// lex splits an input string into a list of tokens. This process
// can be divided into following tasks:
//
// 1. Instantiating a cursor with pointing to the start of the string
//
// 2. Execute all the lexers in series.
//
// 3. If any of the lexer generate a token then add the token to the
// token slice, update the cursor and restart the process from the new
// cursor location.
func lex(source string) ([]*token, error) {
	var tokens []*token
	cur := cursor{}

lex:
	for cur.pointer < uint(len(source)) {
		lexers := []lexer{lexWord, lexString, lexNumeric, lexSymbol}
		for _, l := range lexers {
			if token, newCursor, ok := l(source, cur); ok {
				cur = newCursor

				// Omit nil tokens for valid, but empty syntax like newlines
				if token != nil {
					tokens = append(tokens, token)
				}

				continue lex
			}
		}

		hint := ""
		if len(tokens) > 0 {
			hint = " after " + tokens[len(tokens)-1].value
		}
		return nil, fmt.Errorf("unable to lex token%s, at %d:%d", hint, cur.loc.line, cur.loc.col)
	}

	return tokens, nil
}
