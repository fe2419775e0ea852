package goduck

import (
	"fmt"
	"strings"
)

type expressionKind uint

const (
	literalKind expressionKind = iota
	binaryKind
	parameterKind
)

type binaryExpression struct {
	a  expression
	b  expression
	op token
}

func (be binaryExpression) generateCode() string {
	op := be.op.value
	if be.op.kind == keywordKind {
		op = strings.ToUpper(op)
	}
	return fmt.Sprintf("(%s %s %s)", be.a.generateCode(), op, be.b.generateCode())
}

type expression struct {
	literal *token
	binary  *binaryExpression
	// 1-based ordinal of a ? parameter
	param uint
	kind  expressionKind
}

func (e expression) generateCode() string {
	switch e.kind {
	case literalKind:
		switch e.literal.kind {
		case identifierKind:
			return fmt.Sprintf("\"%s\"", e.literal.value)
		case stringKind:
			return fmt.Sprintf("'%s'", strings.ReplaceAll(e.literal.value, "'", "''"))
		case nullKind, boolKind:
			return strings.ToUpper(e.literal.value)
		default:
			return e.literal.value
		}

	case binaryKind:
		return e.binary.generateCode()

	case parameterKind:
		return "?"
	}

	return ""
}

type selectItem struct {
	exp      *expression
	asterisk bool
	// aggregate function name, "sum" or "count"
	fn string
	as *token
}

func (si selectItem) name() string {
	switch {
	case si.as != nil:
		return si.as.value
	case si.fn != "" && si.asterisk:
		return si.fn + "_star()"
	case si.fn != "":
		return fmt.Sprintf("%s(%s)", si.fn, si.exp.literal.value)
	case si.exp.kind == literalKind && si.exp.literal.kind == identifierKind:
		return si.exp.literal.value
	}
	return si.exp.generateCode()
}

type fromItem struct {
	table *token
}

type SelectStatement struct {
	item  []*selectItem
	from  *fromItem
	where *expression
}

func (ss SelectStatement) GenerateCode() string {
	item := []string{}
	for _, i := range ss.item {
		var s string
		switch {
		case i.fn != "" && i.asterisk:
			s = fmt.Sprintf("\t%s(*)", i.fn)
		case i.fn != "":
			s = fmt.Sprintf("\t%s(%s)", i.fn, i.exp.generateCode())
		case i.asterisk:
			s = "\t*"
		default:
			s = "\t" + i.exp.generateCode()
		}
		if i.as != nil {
			s = fmt.Sprintf("%s AS \"%s\"", s, i.as.value)
		}
		item = append(item, s)
	}

	from := ""
	if ss.from != nil {
		from = fmt.Sprintf("\nFROM\n\t\"%s\"", ss.from.table.value)
	}

	where := ""
	if ss.where != nil {
		where = fmt.Sprintf("\nWHERE\n\t%s", ss.where.generateCode())
	}

	return fmt.Sprintf("SELECT\n%s%s%s;", strings.Join(item, ",\n"), from, where)
}

type columnDefinition struct {
	name     token
	datatype *Type
}

type CreateTableStatement struct {
	name        token
	ifNotExists bool
	cols        []*columnDefinition
}

func (cts CreateTableStatement) GenerateCode() string {
	cols := []string{}
	for _, col := range cts.cols {
		cols = append(cols, fmt.Sprintf("\t\"%s\" %s", col.name.value, col.datatype))
	}
	ifNotExists := ""
	if cts.ifNotExists {
		ifNotExists = "IF NOT EXISTS "
	}
	return fmt.Sprintf("CREATE TABLE %s\"%s\" (\n%s\n);", ifNotExists, cts.name.value, strings.Join(cols, ",\n"))
}

type DropTableStatement struct {
	name     token
	ifExists bool
}

func (dts DropTableStatement) GenerateCode() string {
	ifExists := ""
	if dts.ifExists {
		ifExists = "IF EXISTS "
	}
	return fmt.Sprintf("DROP TABLE %s\"%s\";", ifExists, dts.name.value)
}

type InsertStatement struct {
	table  token
	values [][]*expression
}

func (is InsertStatement) GenerateCode() string {
	rows := []string{}
	for _, row := range is.values {
		values := []string{}
		for _, exp := range row {
			values = append(values, exp.generateCode())
		}
		rows = append(rows, "("+strings.Join(values, ", ")+")")
	}
	return fmt.Sprintf("INSERT INTO \"%s\" VALUES %s;", is.table.value, strings.Join(rows, ", "))
}

type DeleteStatement struct {
	table token
	where *expression
}

func (ds DeleteStatement) GenerateCode() string {
	where := ""
	if ds.where != nil {
		where = " WHERE " + ds.where.generateCode()
	}
	return fmt.Sprintf("DELETE FROM \"%s\"%s;", ds.table.value, where)
}

type TransactionStatement struct {
	// begin, commit or rollback
	action keyword
}

func (ts TransactionStatement) GenerateCode() string {
	if ts.action == beginKeyword {
		return "BEGIN TRANSACTION;"
	}
	return strings.ToUpper(string(ts.action)) + ";"
}

type AstKind uint

const (
	SelectKind AstKind = iota
	CreateTableKind
	DropTableKind
	InsertKind
	DeleteKind
	TransactionKind
	ShowTablesKind
)

type AstStatement struct {
	SelectStatement      *SelectStatement
	CreateTableStatement *CreateTableStatement
	DropTableStatement   *DropTableStatement
	InsertStatement      *InsertStatement
	DeleteStatement      *DeleteStatement
	TransactionStatement *TransactionStatement
	Kind                 AstKind

	// number of ? parameters
	params uint
}

func (s AstStatement) GenerateCode() string {
	switch s.Kind {
	case SelectKind:
		return s.SelectStatement.GenerateCode()
	case CreateTableKind:
		return s.CreateTableStatement.GenerateCode()
	case DropTableKind:
		return s.DropTableStatement.GenerateCode()
	case InsertKind:
		return s.InsertStatement.GenerateCode()
	case DeleteKind:
		return s.DeleteStatement.GenerateCode()
	case TransactionKind:
		return s.TransactionStatement.GenerateCode()
	case ShowTablesKind:
		return "SHOW TABLES;"
	}

	return "?unknown?"
}

// table is the table a statement reads or writes, if any.
func (s AstStatement) table() (string, bool) {
	switch s.Kind {
	case SelectKind:
		if s.SelectStatement.from != nil {
			return s.SelectStatement.from.table.value, true
		}
	case InsertKind:
		return s.InsertStatement.table.value, true
	case DeleteKind:
		return s.DeleteStatement.table.value, true
	}
	return "", false
}

type Ast struct {
	Statements []*AstStatement
}
