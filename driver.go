package goduck

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"math/big"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Driver is a database/sql driver over an Engine. All connections opened
// through one Driver share its instance cache and its bridge.
type Driver struct {
	engine Engine
	opts   BridgeOptions

	once   sync.Once
	cache  *InstanceCache
	bridge *Bridge
	err    error
}

func NewDriver(engine Engine, opts BridgeOptions) *Driver {
	return &Driver{engine: engine, opts: opts}
}

func (d *Driver) init() error {
	d.once.Do(func() {
		d.bridge, d.err = NewBridge(d.opts)
		d.cache = NewInstanceCache(d.engine, d.opts.Logger)
	})
	return d.err
}

// Open parses dsn on every call, so each Open of a private :memory: DSN gets
// a database of its own. sql.Open goes through OpenConnector instead and
// shares one database across its pool.
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	c, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return c.Connect(context.Background())
}

func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	if err := d.init(); err != nil {
		return nil, err
	}
	opts, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return &connector{driver: d, opts: opts}, nil
}

// Cache returns the driver's instance cache.
func (d *Driver) Cache() (*InstanceCache, error) {
	if err := d.init(); err != nil {
		return nil, err
	}
	return d.cache, nil
}

// Bridge returns the driver's execution bridge.
func (d *Driver) Bridge() (*Bridge, error) {
	if err := d.init(); err != nil {
		return nil, err
	}
	return d.bridge, nil
}

// Close stops the bridge and closes every cached database.
func (d *Driver) Close() error {
	if err := d.init(); err != nil {
		return err
	}
	err := d.bridge.Close(3 * time.Second)
	d.cache.Close()
	return err
}

type connector struct {
	driver *Driver
	opts   Options
}

func (c *connector) Connect(ctx context.Context) (driver.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := Establish(c.driver.cache, c.opts)
	if err != nil {
		return nil, err
	}
	return &sqlConn{conn: conn, bridge: c.driver.bridge}, nil
}

func (c *connector) Driver() driver.Driver {
	return c.driver
}

type sqlConn struct {
	conn   *Conn
	bridge *Bridge
}

var (
	_ driver.QueryerContext     = (*sqlConn)(nil)
	_ driver.ExecerContext      = (*sqlConn)(nil)
	_ driver.ConnPrepareContext = (*sqlConn)(nil)
	_ driver.ConnBeginTx        = (*sqlConn)(nil)
	_ driver.NamedValueChecker  = (*sqlConn)(nil)
	_ driver.Validator          = (*sqlConn)(nil)
)

func (sc *sqlConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	s, err := sc.bridge.Execute(ctx, sc.conn, Request{SQL: query, Args: args, Cardinality: Many})
	if err != nil {
		return nil, err
	}
	columns, err := s.Columns(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	return &rows{stream: s, columns: columns}, nil
}

func (sc *sqlConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	s, err := sc.bridge.Execute(ctx, sc.conn, Request{SQL: query, Args: args, Cardinality: None})
	if err != nil {
		return nil, err
	}
	defer s.Close()

	messages, err := s.Collect(ctx)
	if err != nil {
		return nil, err
	}
	var res result
	for _, msg := range messages {
		if msg.Summary != nil {
			res.summary = *msg.Summary
		}
	}
	return res, nil
}

func (sc *sqlConn) Prepare(query string) (driver.Stmt, error) {
	return sc.PrepareContext(context.Background(), query)
}

// PrepareContext defers to execution time. The statement is prepared on
// the worker that runs it, once per execution.
func (sc *sqlConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	return &stmt{conn: sc, query: query}, nil
}

func (sc *sqlConn) Begin() (driver.Tx, error) {
	return sc.BeginTx(context.Background(), driver.TxOptions{})
}

func (sc *sqlConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if sql.IsolationLevel(opts.Isolation) != sql.LevelDefault {
		return nil, newError(ErrExecution, nil, "isolation level %s is not supported", sql.IsolationLevel(opts.Isolation))
	}
	if opts.ReadOnly {
		return nil, newError(ErrExecution, nil, "read-only transactions are not supported")
	}
	if sc.conn.inTransaction.Load() {
		return nil, newError(ErrExecution, ErrTxInProgress, "cannot begin")
	}
	if _, err := sc.ExecContext(ctx, "BEGIN TRANSACTION", nil); err != nil {
		return nil, err
	}
	sc.conn.inTransaction.Store(true)
	return &tx{conn: sc}, nil
}

func (sc *sqlConn) CheckNamedValue(nv *driver.NamedValue) error {
	switch v := nv.Value.(type) {
	case nil, bool, string, []byte, time.Time, time.Duration,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64,
		*big.Int, decimal.Decimal, Interval, uuid.UUID:
		return nil
	case *Interval:
		if v == nil {
			nv.Value = nil
		} else {
			nv.Value = *v
		}
		return nil
	}
	converted, err := driver.DefaultParameterConverter.ConvertValue(nv.Value)
	if err != nil {
		return newError(ErrExecution, err, "parameter %d", nv.Ordinal)
	}
	nv.Value = converted
	return nil
}

func (sc *sqlConn) IsValid() bool {
	return !sc.conn.closed.Load()
}

func (sc *sqlConn) Close() error {
	return sc.conn.Close()
}

type stmt struct {
	conn  *sqlConn
	query string
}

func (s *stmt) Close() error { return nil }

// NumInput is unknown until the engine prepares the statement.
func (s *stmt) NumInput() int { return -1 }

func (s *stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), named(args))
}

func (s *stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), named(args))
}

func (s *stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	return s.conn.ExecContext(ctx, s.query, args)
}

func (s *stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	return s.conn.QueryContext(ctx, s.query, args)
}

func named(args []driver.Value) []driver.NamedValue {
	nv := make([]driver.NamedValue, len(args))
	for i, v := range args {
		nv[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return nv
}

type result struct {
	summary Summary
}

func (r result) LastInsertId() (int64, error) { return r.summary.LastInsertID, nil }
func (r result) RowsAffected() (int64, error) { return r.summary.RowsAffected, nil }

type tx struct {
	conn *sqlConn
}

func (t *tx) Commit() error   { return t.end("COMMIT") }
func (t *tx) Rollback() error { return t.end("ROLLBACK") }

func (t *tx) end(query string) error {
	if !t.conn.conn.inTransaction.Load() {
		return newError(ErrExecution, ErrNoTx, "cannot %s", query)
	}
	_, err := t.conn.ExecContext(context.Background(), query, nil)
	// A failed COMMIT leaves the transaction open for a ROLLBACK.
	if err == nil || query == "ROLLBACK" {
		t.conn.conn.inTransaction.Store(false)
	}
	return err
}

type rows struct {
	stream  *Stream
	columns []ColumnInfo
}

var (
	_ driver.RowsColumnTypeDatabaseTypeName = (*rows)(nil)
	_ driver.RowsColumnTypeScanType         = (*rows)(nil)
	_ driver.RowsColumnTypeNullable         = (*rows)(nil)
)

func (r *rows) Columns() []string {
	columns := []string{}
	for _, c := range r.columns {
		columns = append(columns, c.Name)
	}

	return columns
}

func (r *rows) Close() error {
	return r.stream.Close()
}

func (r *rows) Next(dest []driver.Value) error {
	for {
		msg, err := r.stream.Next(context.Background())
		if err != nil {
			if errors.Is(err, ErrStreamClosed) {
				return io.EOF
			}
			return err
		}
		// A mutating statement sent through Query reports a summary.
		if msg.Summary != nil {
			continue
		}
		for i, c := range msg.Row {
			dest[i] = driverValue(c.Field)
		}
		return nil
	}
}

func (r *rows) ColumnTypeDatabaseTypeName(i int) string {
	return r.columns[i].Type.String()
}

func (r *rows) ColumnTypeNullable(i int) (nullable, ok bool) {
	return true, true
}

func (r *rows) ColumnTypeScanType(i int) reflect.Type {
	t := r.columns[i].Type
	if t == nil {
		return reflect.TypeFor[any]()
	}
	switch t.ID {
	case TypeBoolean:
		return reflect.TypeFor[bool]()
	case TypeTinyint:
		return reflect.TypeFor[int8]()
	case TypeSmallint:
		return reflect.TypeFor[int16]()
	case TypeInteger:
		return reflect.TypeFor[int32]()
	case TypeBigint:
		return reflect.TypeFor[int64]()
	case TypeUtinyint:
		return reflect.TypeFor[uint8]()
	case TypeUsmallint:
		return reflect.TypeFor[uint16]()
	case TypeUinteger:
		return reflect.TypeFor[uint32]()
	case TypeUbigint:
		return reflect.TypeFor[uint64]()
	case TypeFloat:
		return reflect.TypeFor[float32]()
	case TypeDouble:
		return reflect.TypeFor[float64]()
	case TypeHugeint, TypeUhugeint, TypeDecimal, TypeVarchar, TypeEnum, TypeUUID:
		return reflect.TypeFor[string]()
	case TypeBlob:
		return reflect.TypeFor[[]byte]()
	case TypeDate, TypeTime, TypeTimestamp, TypeTimestampS, TypeTimestampMS, TypeTimestampNS, TypeTimestampTZ:
		return reflect.TypeFor[time.Time]()
	case TypeInterval:
		return reflect.TypeFor[Interval]()
	case TypeList, TypeArray:
		return reflect.TypeFor[[]any]()
	case TypeStruct:
		return reflect.TypeFor[map[string]any]()
	case TypeMap:
		return reflect.TypeFor[map[any]any]()
	}
	return reflect.TypeFor[any]()
}

// driverValue is Field.Value with wide numbers and UUIDs as text, which
// database/sql scans into strings, numbers, *big.Int holders and
// decimal.Decimal alike.
func driverValue(f Field) driver.Value {
	if f.IsNull() {
		return nil
	}
	switch f.Type.ID {
	case TypeHugeint, TypeUhugeint, TypeDecimal, TypeUUID:
		return f.String()
	}
	return f.Value()
}

// RegisterDriver makes engine available to sql.Open under name, with default
// bridge options.
func RegisterDriver(name string, engine Engine) {
	sql.Register(name, NewDriver(engine, BridgeOptions{}))
}

func init() {
	RegisterDriver("duckmem", NewMemoryEngine())
}
