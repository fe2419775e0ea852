package goduck

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/petar/GoLLRB/llrb"
	"github.com/shopspring/decimal"
)

// memoryChunkSize matches the engine's vector size.
const memoryChunkSize = 2048

var memoryConfigKeys = map[string]bool{
	"access_mode":               true,
	"default_order":             true,
	"default_null_order":        true,
	"enable_external_access":    true,
	"allow_unsigned_extensions": true,
	"max_memory":                true,
	"threads":                   true,
}

// MemoryEngine is a pure Go Engine over a small SQL dialect: CREATE/DROP
// TABLE, INSERT, SELECT with sum and count, DELETE, SHOW TABLES and
// transaction statements. Nothing is written to disk and transactions are
// accepted without isolation.
type MemoryEngine struct{}

func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{}
}

func (*MemoryEngine) NewCache() (NativeCache, error) {
	return &memoryCache{dbs: map[string]*memoryDatabase{}}, nil
}

type memoryCache struct {
	mu  sync.Mutex
	dbs map[string]*memoryDatabase
}

func (mc *memoryCache) GetOrCreate(path string, config map[string]string) (Database, error) {
	keys := make([]string, 0, len(config))
	for k := range config {
		if !memoryConfigKeys[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		return nil, fmt.Errorf("Invalid Input Error: The following options were not recognized: %s", strings.Join(keys, ", "))
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if db, ok := mc.dbs[path]; ok && !db.closed.Load() {
		return db, nil
	}

	readOnly := config["access_mode"] == "READ_ONLY"
	inMemory := path == "" || strings.HasPrefix(path, ":memory:")
	if readOnly {
		if inMemory {
			return nil, errors.New("Catalog Error: Cannot launch in-memory database in read-only mode!")
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("IO Error: Cannot open database %q in read-only mode: database does not exist", path)
		}
	}

	db := &memoryDatabase{
		path:     path,
		readOnly: readOnly,
		tables:   llrb.New(),
	}
	mc.dbs[path] = db
	return db, nil
}

func (mc *memoryCache) Close() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for path, db := range mc.dbs {
		db.Close()
		delete(mc.dbs, path)
	}
}

type memoryColumn struct {
	name string
	typ  *Type
}

type memoryTable struct {
	name    string
	columns []memoryColumn
	rows    [][]any
}

func (mt *memoryTable) Less(than llrb.Item) bool {
	return mt.name < than.(*memoryTable).name
}

type memoryDatabase struct {
	path     string
	readOnly bool
	closed   atomic.Bool

	mu     sync.RWMutex
	tables *llrb.LLRB
}

func (db *memoryDatabase) Connect() (Connection, error) {
	if db.closed.Load() {
		return nil, fmt.Errorf("Connection Error: database %q is closed", db.path)
	}
	return &memoryConn{db: db}, nil
}

func (db *memoryDatabase) Close() {
	db.closed.Store(true)
}

// table must be called with db.mu held.
func (db *memoryDatabase) table(name string) (*memoryTable, error) {
	item := db.tables.Get(&memoryTable{name: name})
	if item == nil {
		return nil, fmt.Errorf("Catalog Error: %w: Table with name %s does not exist!", ErrTableDoesNotExist, name)
	}
	return item.(*memoryTable), nil
}

func (db *memoryDatabase) tableNames() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var names []string
	db.tables.AscendGreaterOrEqual(&memoryTable{}, func(i llrb.Item) bool {
		names = append(names, i.(*memoryTable).name)
		return true
	})
	return names
}

func (db *memoryDatabase) checkWritable(stmt string) error {
	if db.readOnly {
		return fmt.Errorf("Invalid Input Error: %w: Cannot execute statement of type %q on database %q which is attached in read-only mode!", ErrReadOnly, stmt, db.path)
	}
	return nil
}

type memoryConn struct {
	db          *memoryDatabase
	inTx        bool
	interrupted atomic.Bool
	closed      atomic.Bool
}

func (mc *memoryConn) Prepare(query string) (Statement, error) {
	if mc.closed.Load() {
		return nil, fmt.Errorf("Connection Error: %w", ErrConnClosed)
	}
	mc.interrupted.Store(false)

	ast, err := Parse(query)
	if err != nil {
		return nil, fmt.Errorf("Parser Error: %s", err)
	}
	switch len(ast.Statements) {
	case 0:
		return nil, errors.New("Invalid Input Error: No statement to prepare!")
	case 1:
	default:
		return nil, errors.New("Invalid Input Error: Cannot prepare multiple statements at once!")
	}

	stmt := ast.Statements[0]
	if name, ok := stmt.table(); ok {
		mc.db.mu.RLock()
		_, err := mc.db.table(name)
		mc.db.mu.RUnlock()
		if err != nil {
			return nil, err
		}
	}

	return &memoryStatement{conn: mc, stmt: stmt}, nil
}

func (mc *memoryConn) Interrupt() {
	mc.interrupted.Store(true)
}

func (mc *memoryConn) Close() {
	mc.closed.Store(true)
}

func (mc *memoryConn) checkInterrupt() error {
	if mc.interrupted.Load() {
		return fmt.Errorf("INTERRUPT Error: %w", ErrInterrupted)
	}
	return nil
}

type memoryStatement struct {
	conn   *memoryConn
	stmt   *AstStatement
	params []any
	bound  bool
}

func (ms *memoryStatement) Bind(args []driver.NamedValue) error {
	if uint(len(args)) != ms.stmt.params {
		return fmt.Errorf("Invalid Input Error: Expected %d parameters, but %d were supplied", ms.stmt.params, len(args))
	}
	params := make([]any, len(args))
	for i, arg := range args {
		ordinal := arg.Ordinal
		if ordinal == 0 {
			ordinal = i + 1
		}
		if ordinal < 1 || ordinal > len(args) {
			return fmt.Errorf("Invalid Input Error: parameter ordinal %d out of range", ordinal)
		}
		if _, _, err := paramValue(arg.Value); err != nil {
			return err
		}
		params[ordinal-1] = arg.Value
	}
	ms.params = params
	ms.bound = true
	return nil
}

func (ms *memoryStatement) Execute(streaming bool) (Result, error) {
	if ms.stmt.params > 0 && !ms.bound {
		return nil, errors.New("Invalid Input Error: Values were not provided for the following prepared statement parameters")
	}
	if err := ms.conn.checkInterrupt(); err != nil {
		return nil, err
	}

	result := &memoryResult{conn: ms.conn, streaming: streaming}
	var err error
	switch ms.stmt.Kind {
	case CreateTableKind:
		result.typ = StatementCreate
		err = ms.createTable(ms.stmt.CreateTableStatement)
	case DropTableKind:
		result.typ = StatementDrop
		err = ms.dropTable(ms.stmt.DropTableStatement)
	case InsertKind:
		result.typ = StatementInsert
		result.changed, err = ms.insert(ms.stmt.InsertStatement)
		result.setCount()
	case DeleteKind:
		result.typ = StatementDelete
		result.changed, err = ms.delete(ms.stmt.DeleteStatement)
		result.setCount()
	case SelectKind:
		result.typ = StatementSelect
		err = ms.selectRows(ms.stmt.SelectStatement, result)
	case TransactionKind:
		result.typ = StatementTransaction
		err = ms.transaction(ms.stmt.TransactionStatement)
	case ShowTablesKind:
		result.typ = StatementSelect
		result.columns = []memoryColumn{{name: "name", typ: NewType(TypeVarchar)}}
		for _, name := range ms.conn.db.tableNames() {
			result.rows = append(result.rows, []any{[]byte(name)})
		}
	default:
		err = fmt.Errorf("Not implemented Error: statement kind %d", ms.stmt.Kind)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (ms *memoryStatement) Close() {}

func (ms *memoryStatement) createTable(crt *CreateTableStatement) error {
	db := ms.conn.db
	if err := db.checkWritable("CREATE"); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.table(crt.name.value); err == nil {
		if crt.ifNotExists {
			return nil
		}
		return fmt.Errorf("Catalog Error: %w: Table with name %q already exists!", ErrTableAlreadyExists, crt.name.value)
	}

	t := &memoryTable{name: crt.name.value}
	seen := map[string]bool{}
	for _, col := range crt.cols {
		if seen[col.name.value] {
			return fmt.Errorf("Catalog Error: Column with name %s already exists!", col.name.value)
		}
		seen[col.name.value] = true
		t.columns = append(t.columns, memoryColumn{name: col.name.value, typ: col.datatype})
	}
	db.tables.ReplaceOrInsert(t)
	return nil
}

func (ms *memoryStatement) dropTable(drop *DropTableStatement) error {
	db := ms.conn.db
	if err := db.checkWritable("DROP"); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.tables.Delete(&memoryTable{name: drop.name.value}) == nil && !drop.ifExists {
		return fmt.Errorf("Catalog Error: %w: Table with name %s does not exist!", ErrTableDoesNotExist, drop.name.value)
	}
	return nil
}

func (ms *memoryStatement) insert(inst *InsertStatement) (int64, error) {
	db := ms.conn.db
	if err := db.checkWritable("INSERT"); err != nil {
		return 0, err
	}

	db.mu.RLock()
	t, err := db.table(inst.table.value)
	var columns []memoryColumn
	if err == nil {
		columns = t.columns
	}
	db.mu.RUnlock()
	if err != nil {
		return 0, err
	}

	ctx := &evalContext{params: ms.params}
	rows := make([][]any, 0, len(inst.values))
	for _, values := range inst.values {
		if len(values) != len(columns) {
			return 0, fmt.Errorf("Binder Error: %w: table %s has %d columns but %d values were supplied", ErrMissingValues, t.name, len(columns), len(values))
		}
		row := make([]any, len(columns))
		for i, exp := range values {
			v, _, err := ctx.eval(exp)
			if err != nil {
				return 0, err
			}
			if row[i], err = toStorage(columns[i].typ, v); err != nil {
				return 0, err
			}
		}
		rows = append(rows, row)
		if len(rows)%memoryChunkSize == 0 {
			if err := ms.conn.checkInterrupt(); err != nil {
				return 0, err
			}
		}
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	t.rows = append(t.rows, rows...)
	return int64(len(rows)), nil
}

func (ms *memoryStatement) delete(del *DeleteStatement) (int64, error) {
	db := ms.conn.db
	if err := db.checkWritable("DELETE"); err != nil {
		return 0, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	t, err := db.table(del.table.value)
	if err != nil {
		return 0, err
	}

	if del.where == nil {
		n := len(t.rows)
		t.rows = nil
		return int64(n), nil
	}

	ctx := &evalContext{columns: t.columns, params: ms.params}
	kept := make([][]any, 0, len(t.rows))
	for _, row := range t.rows {
		ctx.row = row
		match, err := ctx.filter(del.where)
		if err != nil {
			return 0, err
		}
		if !match {
			kept = append(kept, row)
		}
	}
	removed := len(t.rows) - len(kept)
	t.rows = kept
	return int64(removed), nil
}

func (ms *memoryStatement) transaction(tx *TransactionStatement) error {
	switch tx.action {
	case beginKeyword:
		if ms.conn.inTx {
			return fmt.Errorf("TransactionContext Error: %w: cannot start a transaction within a transaction", ErrTxInProgress)
		}
		ms.conn.inTx = true
	default:
		if !ms.conn.inTx {
			return fmt.Errorf("TransactionContext Error: %w: cannot %s - no transaction is active", ErrNoTx, tx.action)
		}
		ms.conn.inTx = false
	}
	return nil
}

func (ms *memoryStatement) selectRows(slct *SelectStatement, result *memoryResult) error {
	ctx := &evalContext{params: ms.params}
	source := [][]any{{}}

	if slct.from != nil {
		db := ms.conn.db
		db.mu.RLock()
		t, err := db.table(slct.from.table.value)
		if err == nil {
			ctx.columns = t.columns
			// Later inserts append past len and deletes replace the slice,
			// so the snapshot stays stable.
			source = t.rows[:len(t.rows):len(t.rows)]
		}
		db.mu.RUnlock()
		if err != nil {
			return err
		}
	}

	if slct.where != nil {
		filtered := make([][]any, 0, len(source))
		for i, row := range source {
			if i%memoryChunkSize == 0 {
				if err := ms.conn.checkInterrupt(); err != nil {
					return err
				}
			}
			ctx.row = row
			match, err := ctx.filter(slct.where)
			if err != nil {
				return err
			}
			if match {
				filtered = append(filtered, row)
			}
		}
		source = filtered
	}

	aggregated := 0
	for _, item := range slct.item {
		if item.fn != "" {
			aggregated++
		}
	}
	if aggregated > 0 {
		if aggregated != len(slct.item) {
			return fmt.Errorf("Binder Error: %w: column must appear in the GROUP BY clause or be used in an aggregate function", ErrInvalidSelectItem)
		}
		return ctx.aggregate(slct.item, source, result)
	}

	// Plain column lists are projected lazily, chunk by chunk.
	var project []int
	plain := true
	for _, item := range slct.item {
		switch {
		case item.asterisk:
			if slct.from == nil {
				return fmt.Errorf("Binder Error: %w: SELECT * with no tables specified is not valid", ErrInvalidSelectItem)
			}
			for i, col := range ctx.columns {
				project = append(project, i)
				result.columns = append(result.columns, col)
			}
		case item.exp.kind == literalKind && item.exp.literal.kind == identifierKind:
			i, err := ctx.column(item.exp.literal.value)
			if err != nil {
				return err
			}
			project = append(project, i)
			result.columns = append(result.columns, memoryColumn{name: item.name(), typ: ctx.columns[i].typ})
		default:
			plain = false
		}
	}
	if plain {
		result.rows = source
		result.project = project
		return nil
	}

	result.columns = result.columns[:0]
	for _, item := range slct.item {
		if item.asterisk {
			result.columns = append(result.columns, ctx.columns...)
			continue
		}
		ctx.row = nil
		_, t, err := ctx.eval(item.exp)
		if err != nil {
			return err
		}
		result.columns = append(result.columns, memoryColumn{name: item.name(), typ: t})
	}

	rows := make([][]any, 0, len(source))
	for _, row := range source {
		ctx.row = row
		out := make([]any, 0, len(result.columns))
		for _, item := range slct.item {
			if item.asterisk {
				out = append(out, row...)
				continue
			}
			v, _, err := ctx.eval(item.exp)
			if err != nil {
				return err
			}
			stored, err := toStorage(result.columns[len(out)].typ, v)
			if err != nil {
				return err
			}
			out = append(out, stored)
		}
		rows = append(rows, out)
	}
	result.rows = rows
	return nil
}

type memoryResult struct {
	conn      *memoryConn
	typ       StatementType
	changed   int64
	streaming bool

	columns []memoryColumn
	rows    [][]any
	// column indexes into rows, nil when rows are already projected
	project []int
	pos     int
}

// setCount gives a mutating statement the single "Count" row the engine
// returns for it.
func (mr *memoryResult) setCount() {
	mr.columns = []memoryColumn{{name: "Count", typ: NewType(TypeBigint)}}
	mr.rows = [][]any{{mr.changed}}
}

func (mr *memoryResult) StatementType() StatementType { return mr.typ }
func (mr *memoryResult) RowsChanged() int64           { return mr.changed }
func (mr *memoryResult) Streaming() bool              { return mr.streaming }
func (mr *memoryResult) ColumnCount() int             { return len(mr.columns) }

func (mr *memoryResult) ColumnName(i int) string {
	if i < 0 || i >= len(mr.columns) {
		return ""
	}
	return mr.columns[i].name
}

func (mr *memoryResult) ColumnType(i int) (*Type, error) {
	if i < 0 || i >= len(mr.columns) {
		return nil, fmt.Errorf("%w: column %d of %d", ErrIndexOutOfRange, i, len(mr.columns))
	}
	return mr.columns[i].typ, nil
}

func (mr *memoryResult) Fetch() (Chunk, error) {
	if err := mr.conn.checkInterrupt(); err != nil {
		return nil, err
	}
	if mr.pos >= len(mr.rows) {
		return nil, nil
	}

	n := min(memoryChunkSize, len(mr.rows)-mr.pos)
	vectors := make([]*memVector, len(mr.columns))
	for c, col := range mr.columns {
		src := c
		if mr.project != nil {
			src = mr.project[c]
		}
		values := make([]any, n)
		for r := 0; r < n; r++ {
			values[r] = mr.rows[mr.pos+r][src]
		}
		vectors[c] = newMemVector(col.typ, values...)
	}
	mr.pos += n
	return &memChunk{vectors: vectors, n: n}, nil
}

func (mr *memoryResult) Close() {
	mr.rows = nil
}

type memChunk struct {
	vectors []*memVector
	n       int
}

func (mc *memChunk) Len() int         { return mc.n }
func (mc *memChunk) ColumnCount() int { return len(mc.vectors) }
func (mc *memChunk) Close()           {}

func (mc *memChunk) Vector(i int) (Vector, error) {
	if i < 0 || i >= len(mc.vectors) {
		return nil, fmt.Errorf("%w: vector %d of %d", ErrIndexOutOfRange, i, len(mc.vectors))
	}
	return mc.vectors[i], nil
}

// evalContext evaluates expressions against one row of a table.
type evalContext struct {
	columns []memoryColumn
	// stored values; nil evaluates every column as NULL
	row    []any
	params []any
}

func (ec *evalContext) column(name string) (int, error) {
	for i, col := range ec.columns {
		if col.name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("Binder Error: %w: Referenced column %q not found in FROM clause!", ErrColumnDoesNotExist, name)
}

func (ec *evalContext) filter(e *expression) (bool, error) {
	v, _, err := ec.eval(e)
	if err != nil {
		return false, err
	}
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	}
	return false, fmt.Errorf("Binder Error: %w: WHERE clause must be a boolean, got %T", ErrInvalidCast, v)
}

// eval returns the value of e and its type. The type does not depend on
// the row.
func (ec *evalContext) eval(e *expression) (any, *Type, error) {
	switch e.kind {
	case parameterKind:
		if int(e.param) > len(ec.params) {
			return nil, nil, fmt.Errorf("Invalid Input Error: parameter %d is not bound", e.param)
		}
		return paramValue(ec.params[e.param-1])

	case literalKind:
		if e.literal.kind != identifierKind {
			return literalValue(e.literal)
		}
		i, err := ec.column(e.literal.value)
		if err != nil {
			return nil, nil, err
		}
		t := ec.columns[i].typ
		if ec.row == nil {
			return nil, t, nil
		}
		v, err := fromStorage(t, ec.row[i])
		return v, t, err

	case binaryKind:
		return ec.evalBinary(e.binary)
	}

	return nil, nil, fmt.Errorf("%w: unknown expression", ErrInvalidSelectItem)
}

func (ec *evalContext) evalBinary(be *binaryExpression) (any, *Type, error) {
	a, at, err := ec.eval(&be.a)
	if err != nil {
		return nil, nil, err
	}
	b, bt, err := ec.eval(&be.b)
	if err != nil {
		return nil, nil, err
	}
	boolType := NewType(TypeBoolean)

	switch be.op.kind {
	case keywordKind:
		x, xok := a.(bool)
		y, yok := b.(bool)
		if (a != nil && !xok) || (b != nil && !yok) {
			return nil, nil, fmt.Errorf("Binder Error: %w: %s needs boolean operands", ErrInvalidCast, strings.ToUpper(be.op.value))
		}
		switch keyword(be.op.value) {
		case andKeyword:
			if (xok && !x) || (yok && !y) {
				return false, boolType, nil
			}
			if a == nil || b == nil {
				return nil, boolType, nil
			}
			return true, boolType, nil
		case orKeyword:
			if (xok && x) || (yok && y) {
				return true, boolType, nil
			}
			if a == nil || b == nil {
				return nil, boolType, nil
			}
			return false, boolType, nil
		}

	case symbolKind:
		switch symbol(be.op.value) {
		case concatSymbol:
			t := NewType(TypeVarchar)
			if a == nil || b == nil {
				return nil, t, nil
			}
			return toText(a) + toText(b), t, nil

		case plusSymbol, minusSymbol:
			t := arithmeticType(at, bt)
			if a == nil || b == nil {
				return nil, t, nil
			}
			v, err := arithmetic(symbol(be.op.value), a, b, t)
			return v, t, err

		case eqSymbol, neqSymbol, ltSymbol, lteSymbol, gtSymbol, gteSymbol:
			if a == nil || b == nil {
				return nil, boolType, nil
			}
			c, err := compareValues(a, b)
			if err != nil {
				return nil, nil, fmt.Errorf("Binder Error: %w", err)
			}
			var r bool
			switch symbol(be.op.value) {
			case eqSymbol:
				r = c == 0
			case neqSymbol:
				r = c != 0
			case ltSymbol:
				r = c < 0
			case lteSymbol:
				r = c <= 0
			case gtSymbol:
				r = c > 0
			case gteSymbol:
				r = c >= 0
			}
			return r, boolType, nil
		}
	}

	return nil, nil, fmt.Errorf("%w: unknown operator %s", ErrInvalidSelectItem, be.op.value)
}

func isIntegerType(id TypeID) bool {
	switch id {
	case TypeTinyint, TypeSmallint, TypeInteger, TypeBigint, TypeHugeint,
		TypeUtinyint, TypeUsmallint, TypeUinteger, TypeUbigint, TypeUhugeint:
		return true
	}
	return false
}

func arithmeticType(a, b *Type) *Type {
	switch {
	case a.ID == TypeFloat || a.ID == TypeDouble || b.ID == TypeFloat || b.ID == TypeDouble:
		return NewType(TypeDouble)
	case a.ID == TypeDecimal || b.ID == TypeDecimal:
		return DecimalType(38, max(a.Scale, b.Scale))
	case a.ID == TypeHugeint || a.ID == TypeUhugeint || b.ID == TypeHugeint || b.ID == TypeUhugeint:
		return NewType(TypeHugeint)
	case isIntegerType(a.ID) || isIntegerType(b.ID) || a.ID == TypeSQLNull || b.ID == TypeSQLNull:
		return NewType(TypeBigint)
	}
	return NewType(TypeDouble)
}

func arithmetic(op symbol, a, b any, t *Type) (any, error) {
	if t.ID == TypeDouble {
		x, err := toFloat(a)
		if err != nil {
			return nil, err
		}
		y, err := toFloat(b)
		if err != nil {
			return nil, err
		}
		if op == minusSymbol {
			return x - y, nil
		}
		return x + y, nil
	}

	x, err := toDecimal(a)
	if err != nil {
		return nil, err
	}
	y, err := toDecimal(b)
	if err != nil {
		return nil, err
	}
	if op == minusSymbol {
		return x.Sub(y), nil
	}
	return x.Add(y), nil
}

// aggregate computes one row of sum and count results over rows.
func (ec *evalContext) aggregate(items []*selectItem, rows [][]any, result *memoryResult) error {
	out := make([]any, len(items))
	for n, item := range items {
		name := item.name()
		if item.fn == "count" && item.asterisk {
			result.columns = append(result.columns, memoryColumn{name: name, typ: NewType(TypeBigint)})
			out[n] = int64(len(rows))
			continue
		}

		i, err := ec.column(item.exp.literal.value)
		if err != nil {
			return err
		}
		col := ec.columns[i]

		if item.fn == "count" {
			var count int64
			for _, row := range rows {
				if row[i] != nil {
					count++
				}
			}
			result.columns = append(result.columns, memoryColumn{name: name, typ: NewType(TypeBigint)})
			out[n] = count
			continue
		}

		t, total, err := sum(col, i, rows)
		if err != nil {
			return err
		}
		result.columns = append(result.columns, memoryColumn{name: name, typ: t})
		out[n] = total
	}
	result.rows = [][]any{out}
	return nil
}

// sum adds up column i. Integers sum into HUGEINT, floats into DOUBLE and
// decimals into DECIMAL(38, scale). The result is NULL when no row has a
// value.
func sum(col memoryColumn, i int, rows [][]any) (*Type, any, error) {
	switch {
	case isIntegerType(col.typ.ID):
		t := NewType(TypeHugeint)
		total := new(big.Int)
		seen := false
		for _, row := range rows {
			if row[i] == nil {
				continue
			}
			n, err := toBigInt(row[i])
			if err != nil {
				return nil, nil, err
			}
			total.Add(total, n)
			seen = true
		}
		if !seen {
			return t, nil, nil
		}
		stored, err := toStorage(t, total)
		return t, stored, err

	case col.typ.ID == TypeFloat || col.typ.ID == TypeDouble:
		t := NewType(TypeDouble)
		var total float64
		seen := false
		for _, row := range rows {
			if row[i] == nil {
				continue
			}
			f, err := toFloat(row[i])
			if err != nil {
				return nil, nil, err
			}
			total += f
			seen = true
		}
		if !seen {
			return t, nil, nil
		}
		return t, total, nil

	case col.typ.ID == TypeDecimal:
		t := DecimalType(38, col.typ.Scale)
		total := decimal.Zero
		seen := false
		for _, row := range rows {
			if row[i] == nil {
				continue
			}
			v, err := fromStorage(col.typ, row[i])
			if err != nil {
				return nil, nil, err
			}
			total = total.Add(v.(decimal.Decimal))
			seen = true
		}
		if !seen {
			return t, nil, nil
		}
		stored, err := toStorage(t, total)
		return t, stored, err
	}

	return nil, nil, fmt.Errorf("Binder Error: %w: No function matches sum(%s)", ErrInvalidDatatype, col.typ)
}
