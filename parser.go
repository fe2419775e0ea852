package goduck

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// parser keeps the first diagnostic produced while parsing so Parse can
// report the innermost failure.
type parser struct {
	tokens []*token
	hint   string
}

func tokenFromKeyword(k keyword) token {
	return token{
		kind:  keywordKind,
		value: string(k),
	}
}

func tokenFromSymbol(s symbol) token {
	return token{
		kind:  symbolKind,
		value: string(s),
	}
}

func (p *parser) expectToken(cursor uint, t token) bool {
	if cursor >= uint(len(p.tokens)) {
		return false
	}

	return t.equals(p.tokens[cursor])
}

// atDelimiter reports whether cursor is at the end of the input or at one of
// the delimiters.
func (p *parser) atDelimiter(cursor uint, delimiters []token) bool {
	if cursor >= uint(len(p.tokens)) {
		return true
	}
	for _, d := range delimiters {
		if d.equals(p.tokens[cursor]) {
			return true
		}
	}
	return false
}

func (p *parser) helpMessage(cursor uint, msg string) {
	if p.hint != "" {
		return
	}
	if len(p.tokens) == 0 {
		p.hint = msg
		return
	}

	var c *token
	if cursor < uint(len(p.tokens)) {
		c = p.tokens[cursor]
	} else {
		c = p.tokens[len(p.tokens)-1]
		p.hint = fmt.Sprintf("[%d,%d]: %s, got end of input", c.loc.line, c.loc.col, msg)
		return
	}

	p.hint = fmt.Sprintf("[%d,%d]: %s, got: %s", c.loc.line, c.loc.col, msg, c.value)
}

func (p *parser) parseToken(initialCursor uint, kind tokenKind) (*token, uint, bool) {
	cursor := initialCursor

	if cursor >= uint(len(p.tokens)) {
		return nil, initialCursor, false
	}

	current := p.tokens[cursor]
	if current.kind == kind {
		return current, cursor + 1, true
	}

	return nil, initialCursor, false
}

// literal | ? | -number | ( expression )
func (p *parser) parseLiteralExpression(initialCursor uint) (*expression, uint, bool) {
	cursor := initialCursor

	if p.expectToken(cursor, tokenFromSymbol(paramSymbol)) {
		return &expression{kind: parameterKind}, cursor + 1, true
	}

	if p.expectToken(cursor, tokenFromSymbol(minusSymbol)) {
		num, newCursor, ok := p.parseToken(cursor+1, numericKind)
		if !ok {
			p.helpMessage(cursor+1, "Expected number after minus")
			return nil, initialCursor, false
		}
		negative := *num
		negative.value = "-" + num.value
		return &expression{literal: &negative, kind: literalKind}, newCursor, true
	}

	if p.expectToken(cursor, tokenFromSymbol(leftParenSymbol)) {
		cursor++
		rightParenToken := tokenFromSymbol(rightParenSymbol)
		exp, newCursor, ok := p.parseExpression(cursor, []token{rightParenToken}, 0)
		if !ok {
			p.helpMessage(cursor, "Expected expression after opening paren")
			return nil, initialCursor, false
		}
		cursor = newCursor
		if !p.expectToken(cursor, rightParenToken) {
			p.helpMessage(cursor, "Expected closing paren")
			return nil, initialCursor, false
		}
		return exp, cursor + 1, true
	}

	kinds := []tokenKind{identifierKind, numericKind, stringKind, boolKind, nullKind}
	for _, kind := range kinds {
		t, newCursor, ok := p.parseToken(cursor, kind)
		if ok {
			return &expression{
				literal: t,
				kind:    literalKind,
			}, newCursor, true
		}
	}

	return nil, initialCursor, false
}

var binaryOperators = []token{
	tokenFromKeyword(andKeyword),
	tokenFromKeyword(orKeyword),
	tokenFromSymbol(eqSymbol),
	tokenFromSymbol(neqSymbol),
	tokenFromSymbol(ltSymbol),
	tokenFromSymbol(lteSymbol),
	tokenFromSymbol(gtSymbol),
	tokenFromSymbol(gteSymbol),
	tokenFromSymbol(concatSymbol),
	tokenFromSymbol(plusSymbol),
	tokenFromSymbol(minusSymbol),
}

// parseExpression is a Pratt parser over the binary operators; minBp is the
// binding power an operator needs to be folded into the current expression.
func (p *parser) parseExpression(initialCursor uint, delimiters []token, minBp uint) (*expression, uint, bool) {
	cursor := initialCursor

	exp, newCursor, ok := p.parseLiteralExpression(cursor)
	if !ok {
		return nil, initialCursor, false
	}
	cursor = newCursor

	for cursor < uint(len(p.tokens)) {
		if p.atDelimiter(cursor, delimiters) {
			break
		}

		var op *token
		for _, candidate := range binaryOperators {
			if p.expectToken(cursor, candidate) {
				op = p.tokens[cursor]
				break
			}
		}
		if op == nil {
			p.helpMessage(cursor, "Expected binary operator")
			return nil, initialCursor, false
		}

		bp := op.bindingPower()
		if bp <= minBp {
			break
		}

		b, newCursor, ok := p.parseExpression(cursor+1, delimiters, bp)
		if !ok {
			p.helpMessage(cursor+1, "Expected right operand")
			return nil, initialCursor, false
		}
		exp = &expression{
			binary: &binaryExpression{*exp, *b, *op},
			kind:   binaryKind,
		}
		cursor = newCursor
	}

	return exp, cursor, true
}

var aggregates = map[string]bool{"sum": true, "count": true}

// expression [AS ident] [, ...]
func (p *parser) parseSelectItem(initialCursor uint, delimiters []token) ([]*selectItem, uint, bool) {
	cursor := initialCursor

	s := []*selectItem{}
	for !p.atDelimiter(cursor, delimiters) {
		if len(s) > 0 {
			if !p.expectToken(cursor, tokenFromSymbol(commaSymbol)) {
				p.helpMessage(cursor, "Expected comma")
				return nil, initialCursor, false
			}

			cursor++
		}

		var si selectItem
		if p.expectToken(cursor, tokenFromSymbol(asteriskSymbol)) {
			si = selectItem{asterisk: true}
			cursor++
		} else if fn, ok := p.parseAggregate(cursor); ok {
			si = *fn.item
			cursor = fn.cursor
		} else {
			itemDelimiters := append([]token{tokenFromSymbol(commaSymbol), tokenFromKeyword(asKeyword)}, delimiters...)
			exp, newCursor, ok := p.parseExpression(cursor, itemDelimiters, 0)
			if !ok {
				p.helpMessage(cursor, "Expected expression")
				return nil, initialCursor, false
			}

			cursor = newCursor
			si.exp = exp
		}

		if p.expectToken(cursor, tokenFromKeyword(asKeyword)) {
			cursor++

			id, newCursor, ok := p.parseToken(cursor, identifierKind)
			if !ok {
				p.helpMessage(cursor, "Expected identifier after AS")
				return nil, initialCursor, false
			}

			cursor = newCursor
			si.as = id
		}

		s = append(s, &si)
	}

	if len(s) == 0 {
		p.helpMessage(cursor, "Expected select item")
		return nil, initialCursor, false
	}

	return s, cursor, true
}

type parsedAggregate struct {
	item   *selectItem
	cursor uint
}

// sum(column) | count(column) | count(*)
func (p *parser) parseAggregate(initialCursor uint) (parsedAggregate, bool) {
	cursor := initialCursor
	name, cursor, ok := p.parseToken(cursor, identifierKind)
	if !ok || !aggregates[name.value] || !p.expectToken(cursor, tokenFromSymbol(leftParenSymbol)) {
		return parsedAggregate{}, false
	}
	cursor++

	si := &selectItem{fn: name.value}
	if p.expectToken(cursor, tokenFromSymbol(asteriskSymbol)) && name.value == "count" {
		si.asterisk = true
		cursor++
	} else {
		arg, newCursor, ok := p.parseToken(cursor, identifierKind)
		if !ok {
			p.helpMessage(cursor, "Expected column name in "+name.value)
			return parsedAggregate{}, false
		}
		si.exp = &expression{literal: arg, kind: literalKind}
		cursor = newCursor
	}

	if !p.expectToken(cursor, tokenFromSymbol(rightParenSymbol)) {
		p.helpMessage(cursor, "Expected closing paren")
		return parsedAggregate{}, false
	}

	return parsedAggregate{item: si, cursor: cursor + 1}, true
}

func (p *parser) parseFromItem(initialCursor uint) (*fromItem, uint, bool) {
	ident, newCursor, ok := p.parseToken(initialCursor, identifierKind)
	if !ok {
		return nil, initialCursor, false
	}

	return &fromItem{table: ident}, newCursor, true
}

// SELECT item [, ...] [FROM ident] [WHERE expression]
func (p *parser) parseSelectStatement(initialCursor uint, delimiter token) (*SelectStatement, uint, bool) {
	cursor := initialCursor
	if !p.expectToken(cursor, tokenFromKeyword(selectKeyword)) {
		return nil, initialCursor, false
	}
	cursor++

	slct := SelectStatement{}

	item, newCursor, ok := p.parseSelectItem(cursor, []token{tokenFromKeyword(fromKeyword), tokenFromKeyword(whereKeyword), delimiter})
	if !ok {
		return nil, initialCursor, false
	}

	slct.item = item
	cursor = newCursor

	if p.expectToken(cursor, tokenFromKeyword(fromKeyword)) {
		cursor++

		from, newCursor, ok := p.parseFromItem(cursor)
		if !ok {
			p.helpMessage(cursor, "Expected FROM item")
			return nil, initialCursor, false
		}

		slct.from = from
		cursor = newCursor
	}

	if p.expectToken(cursor, tokenFromKeyword(whereKeyword)) {
		cursor++

		where, newCursor, ok := p.parseExpression(cursor, []token{delimiter}, 0)
		if !ok {
			p.helpMessage(cursor, "Expected WHERE conditionals")
			return nil, initialCursor, false
		}

		slct.where = where
		cursor = newCursor
	}

	return &slct, cursor, true
}

func (p *parser) parseExpressions(initialCursor uint, delimiter token) ([]*expression, uint, bool) {
	cursor := initialCursor

	exps := []*expression{}
	for {
		if cursor >= uint(len(p.tokens)) {
			p.helpMessage(cursor, "Expected "+delimiter.value)
			return nil, initialCursor, false
		}

		current := p.tokens[cursor]
		if delimiter.equals(current) {
			break
		}

		if len(exps) > 0 {
			if !p.expectToken(cursor, tokenFromSymbol(commaSymbol)) {
				p.helpMessage(cursor, "Expected comma")
				return nil, initialCursor, false
			}

			cursor++
		}

		exp, newCursor, ok := p.parseExpression(cursor, []token{tokenFromSymbol(commaSymbol), delimiter}, 0)
		if !ok {
			p.helpMessage(cursor, "Expected expression")
			return nil, initialCursor, false
		}
		cursor = newCursor

		exps = append(exps, exp)
	}

	return exps, cursor, true
}

// INSERT INTO ident VALUES (expression [, ...]) [, (...)]
func (p *parser) parseInsertStatement(initialCursor uint) (*InsertStatement, uint, bool) {
	cursor := initialCursor

	if !p.expectToken(cursor, tokenFromKeyword(insertKeyword)) {
		return nil, initialCursor, false
	}
	cursor++

	if !p.expectToken(cursor, tokenFromKeyword(intoKeyword)) {
		p.helpMessage(cursor, "Expected into")
		return nil, initialCursor, false
	}
	cursor++

	table, newCursor, ok := p.parseToken(cursor, identifierKind)
	if !ok {
		p.helpMessage(cursor, "Expected table name")
		return nil, initialCursor, false
	}
	cursor = newCursor

	if !p.expectToken(cursor, tokenFromKeyword(valuesKeyword)) {
		p.helpMessage(cursor, "Expected VALUES")
		return nil, initialCursor, false
	}
	cursor++

	insert := InsertStatement{table: *table}
	for {
		if len(insert.values) > 0 {
			if !p.expectToken(cursor, tokenFromSymbol(commaSymbol)) {
				break
			}
			cursor++
		}

		if !p.expectToken(cursor, tokenFromSymbol(leftParenSymbol)) {
			p.helpMessage(cursor, "Expected left paren")
			return nil, initialCursor, false
		}
		cursor++

		values, newCursor, ok := p.parseExpressions(cursor, tokenFromSymbol(rightParenSymbol))
		if !ok {
			return nil, initialCursor, false
		}
		cursor = newCursor + 1

		insert.values = append(insert.values, values)
	}

	return &insert, cursor, true
}

// DELETE FROM ident [WHERE expression]
func (p *parser) parseDeleteStatement(initialCursor uint, delimiter token) (*DeleteStatement, uint, bool) {
	cursor := initialCursor

	if !p.expectToken(cursor, tokenFromKeyword(deleteKeyword)) {
		return nil, initialCursor, false
	}
	cursor++

	if !p.expectToken(cursor, tokenFromKeyword(fromKeyword)) {
		p.helpMessage(cursor, "Expected FROM")
		return nil, initialCursor, false
	}
	cursor++

	table, newCursor, ok := p.parseToken(cursor, identifierKind)
	if !ok {
		p.helpMessage(cursor, "Expected table name")
		return nil, initialCursor, false
	}
	cursor = newCursor

	del := DeleteStatement{table: *table}
	if p.expectToken(cursor, tokenFromKeyword(whereKeyword)) {
		cursor++

		where, newCursor, ok := p.parseExpression(cursor, []token{delimiter}, 0)
		if !ok {
			p.helpMessage(cursor, "Expected WHERE conditionals")
			return nil, initialCursor, false
		}

		del.where = where
		cursor = newCursor
	}

	return &del, cursor, true
}

// name | name(width) | name(width, scale)
func (p *parser) parseColumnType(initialCursor uint) (*Type, uint, bool) {
	cursor := initialCursor

	name, newCursor, ok := p.parseToken(cursor, identifierKind)
	if !ok {
		p.helpMessage(cursor, "Expected column type")
		return nil, initialCursor, false
	}
	cursor = newCursor

	var params []uint8
	if p.expectToken(cursor, tokenFromSymbol(leftParenSymbol)) {
		cursor++
		for !p.expectToken(cursor, tokenFromSymbol(rightParenSymbol)) {
			if len(params) > 0 {
				if !p.expectToken(cursor, tokenFromSymbol(commaSymbol)) {
					p.helpMessage(cursor, "Expected comma")
					return nil, initialCursor, false
				}
				cursor++
			}
			num, newCursor, ok := p.parseToken(cursor, numericKind)
			if !ok {
				p.helpMessage(cursor, "Expected type parameter")
				return nil, initialCursor, false
			}
			n, err := strconv.ParseUint(num.value, 10, 8)
			if err != nil {
				p.helpMessage(cursor, "Invalid type parameter")
				return nil, initialCursor, false
			}
			params = append(params, uint8(n))
			cursor = newCursor
		}
		cursor++
	}

	t, err := typeFromName(name.value, params)
	if err != nil {
		p.helpMessage(initialCursor, err.Error())
		return nil, initialCursor, false
	}

	return t, cursor, true
}

var typeAliases = map[string]TypeID{
	"boolean":   TypeBoolean,
	"bool":      TypeBoolean,
	"tinyint":   TypeTinyint,
	"int1":      TypeTinyint,
	"smallint":  TypeSmallint,
	"int2":      TypeSmallint,
	"integer":   TypeInteger,
	"int":       TypeInteger,
	"int4":      TypeInteger,
	"bigint":    TypeBigint,
	"int8":      TypeBigint,
	"hugeint":   TypeHugeint,
	"int128":    TypeHugeint,
	"utinyint":  TypeUtinyint,
	"usmallint": TypeUsmallint,
	"uinteger":  TypeUinteger,
	"ubigint":   TypeUbigint,
	"uhugeint":  TypeUhugeint,
	"float":     TypeFloat,
	"real":      TypeFloat,
	"float4":    TypeFloat,
	"double":    TypeDouble,
	"float8":    TypeDouble,
	"decimal":   TypeDecimal,
	"numeric":   TypeDecimal,
	"varchar":   TypeVarchar,
	"text":      TypeVarchar,
	"string":    TypeVarchar,
	"blob":      TypeBlob,
	"bytea":     TypeBlob,
	"date":      TypeDate,
	"time":      TypeTime,
	"timestamp": TypeTimestamp,
	"datetime":  TypeTimestamp,
	"interval":  TypeInterval,
	"uuid":      TypeUUID,
}

func typeFromName(name string, params []uint8) (*Type, error) {
	id, ok := typeAliases[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("Type with name %s does not exist", name)
	}

	if id == TypeDecimal {
		switch len(params) {
		case 0:
			return DecimalType(18, 3), nil
		case 1:
			params = append(params, 0)
		}
		width, scale := params[0], params[1]
		if width < 1 || width > 38 || scale > width {
			return nil, fmt.Errorf("invalid DECIMAL(%d,%d)", width, scale)
		}
		return DecimalType(width, scale), nil
	}

	if len(params) > 0 && id != TypeVarchar {
		return nil, fmt.Errorf("type %s does not take parameters", name)
	}
	return NewType(id), nil
}

func (p *parser) parseColumnDefinitions(initialCursor uint, delimiter token) ([]*columnDefinition, uint, bool) {
	cursor := initialCursor

	cds := []*columnDefinition{}
	for {
		if cursor >= uint(len(p.tokens)) {
			p.helpMessage(cursor, "Expected "+delimiter.value)
			return nil, initialCursor, false
		}

		current := p.tokens[cursor]
		if delimiter.equals(current) {
			break
		}

		if len(cds) > 0 {
			if !p.expectToken(cursor, tokenFromSymbol(commaSymbol)) {
				p.helpMessage(cursor, "Expected comma")
				return nil, initialCursor, false
			}

			cursor++
		}

		id, newCursor, ok := p.parseToken(cursor, identifierKind)
		if !ok {
			p.helpMessage(cursor, "Expected column name")
			return nil, initialCursor, false
		}
		cursor = newCursor

		ty, newCursor, ok := p.parseColumnType(cursor)
		if !ok {
			return nil, initialCursor, false
		}
		cursor = newCursor

		cds = append(cds, &columnDefinition{
			name:     *id,
			datatype: ty,
		})
	}

	return cds, cursor, true
}

// CREATE TABLE [IF NOT EXISTS] ident (column type [, ...])
func (p *parser) parseCreateTableStatement(initialCursor uint) (*CreateTableStatement, uint, bool) {
	cursor := initialCursor

	if !p.expectToken(cursor, tokenFromKeyword(createKeyword)) {
		return nil, initialCursor, false
	}
	cursor++

	if !p.expectToken(cursor, tokenFromKeyword(tableKeyword)) {
		p.helpMessage(cursor, "Expected TABLE")
		return nil, initialCursor, false
	}
	cursor++

	create := CreateTableStatement{}
	if p.expectToken(cursor, tokenFromKeyword(ifKeyword)) {
		if !p.expectToken(cursor+1, tokenFromKeyword(notKeyword)) || !p.expectToken(cursor+2, tokenFromKeyword(existsKeyword)) {
			p.helpMessage(cursor, "Expected IF NOT EXISTS")
			return nil, initialCursor, false
		}
		create.ifNotExists = true
		cursor += 3
	}

	name, newCursor, ok := p.parseToken(cursor, identifierKind)
	if !ok {
		p.helpMessage(cursor, "Expected table name")
		return nil, initialCursor, false
	}
	cursor = newCursor
	create.name = *name

	if !p.expectToken(cursor, tokenFromSymbol(leftParenSymbol)) {
		p.helpMessage(cursor, "Expected left parenthesis")
		return nil, initialCursor, false
	}
	cursor++

	cols, newCursor, ok := p.parseColumnDefinitions(cursor, tokenFromSymbol(rightParenSymbol))
	if !ok {
		return nil, initialCursor, false
	}
	cursor = newCursor
	create.cols = cols

	if !p.expectToken(cursor, tokenFromSymbol(rightParenSymbol)) {
		p.helpMessage(cursor, "Expected right parenthesis")
		return nil, initialCursor, false
	}
	cursor++

	return &create, cursor, true
}

// DROP TABLE [IF EXISTS] ident
func (p *parser) parseDropTableStatement(initialCursor uint) (*DropTableStatement, uint, bool) {
	cursor := initialCursor

	if !p.expectToken(cursor, tokenFromKeyword(dropKeyword)) {
		return nil, initialCursor, false
	}
	cursor++

	if !p.expectToken(cursor, tokenFromKeyword(tableKeyword)) {
		p.helpMessage(cursor, "Expected TABLE")
		return nil, initialCursor, false
	}
	cursor++

	drop := DropTableStatement{}
	if p.expectToken(cursor, tokenFromKeyword(ifKeyword)) {
		if !p.expectToken(cursor+1, tokenFromKeyword(existsKeyword)) {
			p.helpMessage(cursor, "Expected IF EXISTS")
			return nil, initialCursor, false
		}
		drop.ifExists = true
		cursor += 2
	}

	name, newCursor, ok := p.parseToken(cursor, identifierKind)
	if !ok {
		p.helpMessage(cursor, "Expected table name")
		return nil, initialCursor, false
	}
	drop.name = *name

	return &drop, newCursor, true
}

// BEGIN [TRANSACTION] | COMMIT | ROLLBACK
func (p *parser) parseTransactionStatement(initialCursor uint) (*TransactionStatement, uint, bool) {
	cursor := initialCursor

	for _, k := range []keyword{beginKeyword, commitKeyword, rollbackKeyword} {
		if p.expectToken(cursor, tokenFromKeyword(k)) {
			cursor++
			if p.expectToken(cursor, tokenFromKeyword(transactionKeyword)) {
				cursor++
			}
			return &TransactionStatement{action: k}, cursor, true
		}
	}

	return nil, initialCursor, false
}

func (p *parser) parseStatement(initialCursor uint, delimiter token) (*AstStatement, uint, bool) {
	cursor := initialCursor

	slct, newCursor, ok := p.parseSelectStatement(cursor, delimiter)
	if ok {
		return &AstStatement{
			Kind:            SelectKind,
			SelectStatement: slct,
		}, newCursor, true
	}

	inst, newCursor, ok := p.parseInsertStatement(cursor)
	if ok {
		return &AstStatement{
			Kind:            InsertKind,
			InsertStatement: inst,
		}, newCursor, true
	}

	crtTbl, newCursor, ok := p.parseCreateTableStatement(cursor)
	if ok {
		return &AstStatement{
			Kind:                 CreateTableKind,
			CreateTableStatement: crtTbl,
		}, newCursor, true
	}

	dropTbl, newCursor, ok := p.parseDropTableStatement(cursor)
	if ok {
		return &AstStatement{
			Kind:               DropTableKind,
			DropTableStatement: dropTbl,
		}, newCursor, true
	}

	del, newCursor, ok := p.parseDeleteStatement(cursor, delimiter)
	if ok {
		return &AstStatement{
			Kind:            DeleteKind,
			DeleteStatement: del,
		}, newCursor, true
	}

	tx, newCursor, ok := p.parseTransactionStatement(cursor)
	if ok {
		return &AstStatement{
			Kind:                 TransactionKind,
			TransactionStatement: tx,
		}, newCursor, true
	}

	if p.expectToken(cursor, tokenFromKeyword(showKeyword)) && p.expectToken(cursor+1, tokenFromKeyword(tablesKeyword)) {
		return &AstStatement{Kind: ShowTablesKind}, cursor + 2, true
	}

	return nil, initialCursor, false
}

// Parse splits source into statements. The semicolon after the last
// statement is optional.
func Parse(source string) (*Ast, error) {
	tokens, err := lex(source)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	a := Ast{}
	cursor := uint(0)
	for cursor < uint(len(tokens)) {
		// Empty statements
		if p.expectToken(cursor, tokenFromSymbol(semicolonSymbol)) {
			cursor++
			continue
		}

		stmt, newCursor, ok := p.parseStatement(cursor, tokenFromSymbol(semicolonSymbol))
		if !ok {
			p.helpMessage(cursor, "Expected statement")
			return nil, errors.New("failed to parse: " + p.hint)
		}
		cursor = newCursor
		stmt.params = numberParameters(stmt)

		a.Statements = append(a.Statements, stmt)

		atLeastOneSemicolon := false
		for p.expectToken(cursor, tokenFromSymbol(semicolonSymbol)) {
			cursor++
			atLeastOneSemicolon = true
		}

		if !atLeastOneSemicolon && cursor < uint(len(tokens)) {
			p.helpMessage(cursor, "Expected semi-colon delimiter between statements")
			return nil, errors.New("failed to parse: " + p.hint)
		}
	}

	return &a, nil
}

// numberParameters assigns ordinals to the ? parameters of stmt in the order
// they appear and returns how many there are.
func numberParameters(stmt *AstStatement) uint {
	var n uint
	var visit func(e *expression)
	visit = func(e *expression) {
		if e == nil {
			return
		}
		switch e.kind {
		case parameterKind:
			n++
			e.param = n
		case binaryKind:
			visit(&e.binary.a)
			visit(&e.binary.b)
		}
	}

	switch stmt.Kind {
	case SelectKind:
		for _, item := range stmt.SelectStatement.item {
			visit(item.exp)
		}
		visit(stmt.SelectStatement.where)
	case InsertKind:
		for _, row := range stmt.InsertStatement.values {
			for _, exp := range row {
				visit(exp)
			}
		}
	case DeleteKind:
		visit(stmt.DeleteStatement.where)
	}
	return n
}
