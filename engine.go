package goduck

import (
	"database/sql/driver"
	"strconv"
)

// Engine is the native side of the bridge. It is implemented over the DuckDB
// C API in the native package and in pure Go by MemoryEngine. All of its
// methods may block; the bridge only calls them from pool workers.
type Engine interface {
	NewCache() (NativeCache, error)
}

// NativeCache is the engine level registry of open database instances.
type NativeCache interface {
	// GetOrCreate opens path with config, or returns the instance already
	// open at path. The returned error text is the engine's own.
	GetOrCreate(path string, config map[string]string) (Database, error)
	Close()
}

type Database interface {
	Connect() (Connection, error)
	Close()
}

type Connection interface {
	Prepare(query string) (Statement, error)
	// Interrupt asks the statement running on this connection to stop. It is
	// the only method that may be called concurrently with the others.
	Interrupt()
	Close()
}

type Statement interface {
	// Bind assigns args to the statement's parameters by ordinal.
	Bind(args []driver.NamedValue) error
	// Execute runs the statement. With streaming set the engine may produce
	// chunks lazily as they are fetched.
	Execute(streaming bool) (Result, error)
	Close()
}

type Result interface {
	StatementType() StatementType
	RowsChanged() int64
	Streaming() bool
	ColumnCount() int
	ColumnName(i int) string
	ColumnType(i int) (*Type, error)
	// Fetch returns the next chunk, or nil at the end of the result.
	Fetch() (Chunk, error)
	Close()
}

type Chunk interface {
	Len() int
	ColumnCount() int
	Vector(i int) (Vector, error)
	Close()
}

// Vector is a bounds-checked reader over one column of a chunk. Every typed
// reader fails with ErrIndexOutOfRange for a row past the vector's data and
// does not check that the vector's type matches the reader.
type Vector interface {
	Type() *Type
	Len() int
	// Valid reports whether row has a value. It is false for every row of a
	// vector without data.
	Valid(row int) bool

	BoolAt(row int) (bool, error)
	Int8At(row int) (int8, error)
	Int16At(row int) (int16, error)
	Int32At(row int) (int32, error)
	Int64At(row int) (int64, error)
	Uint8At(row int) (uint8, error)
	Uint16At(row int) (uint16, error)
	Uint32At(row int) (uint32, error)
	Uint64At(row int) (uint64, error)
	HugeintAt(row int) (upper int64, lower uint64, err error)
	UhugeintAt(row int) (upper uint64, lower uint64, err error)
	Float32At(row int) (float32, error)
	Float64At(row int) (float64, error)
	// BytesAt returns the bytes of a VARCHAR or BLOB value. The slice may
	// alias engine memory that is freed with the chunk.
	BytesAt(row int) ([]byte, error)
	// DateAt returns days since 1970-01-01.
	DateAt(row int) (int32, error)
	// TimeAt returns microseconds since midnight.
	TimeAt(row int) (int64, error)
	// TimestampAt returns the raw count in the vector's unit: seconds,
	// milliseconds, microseconds or nanoseconds since the epoch.
	TimestampAt(row int) (int64, error)
	IntervalAt(row int) (Interval, error)
	// ListEntryAt returns the range of the child vector holding row's
	// elements, for LIST and MAP vectors.
	ListEntryAt(row int) (offset, length uint64, err error)
	// Child returns the element vector of a LIST, ARRAY or MAP.
	Child() (Vector, error)
	// StructChild returns the i-th member vector of a STRUCT.
	StructChild(i int) (Vector, error)
}

// StatementType classifies an executed statement.
type StatementType uint8

const (
	StatementInvalid StatementType = iota
	StatementSelect
	StatementInsert
	StatementUpdate
	StatementExplain
	StatementDelete
	StatementPrepare
	StatementCreate
	StatementExecute
	StatementAlter
	StatementTransaction
	StatementCopy
	StatementAnalyze
	StatementVariableSet
	StatementCreateFunc
	StatementDrop
	StatementExport
	StatementPragma
	StatementVacuum
	StatementCall
	StatementSet
	StatementLoad
	StatementRelation
	StatementExtension
	StatementLogicalPlan
	StatementAttach
	StatementDetach
	StatementMulti
)

// Mutates reports whether the statement changes rows, in which case its
// result is a row count rather than rows.
func (s StatementType) Mutates() bool {
	switch s {
	case StatementInsert, StatementUpdate, StatementDelete:
		return true
	}
	return false
}

func (s StatementType) String() string {
	switch s {
	case StatementSelect:
		return "SELECT"
	case StatementInsert:
		return "INSERT"
	case StatementUpdate:
		return "UPDATE"
	case StatementDelete:
		return "DELETE"
	case StatementCreate:
		return "CREATE"
	case StatementDrop:
		return "DROP"
	case StatementTransaction:
		return "TRANSACTION"
	case StatementExplain:
		return "EXPLAIN"
	case StatementPragma:
		return "PRAGMA"
	case StatementInvalid:
		return "INVALID"
	}
	return "STATEMENT(" + strconv.Itoa(int(s)) + ")"
}

// ColumnVector pairs a chunk's vector with its result column name.
type ColumnVector struct {
	Name   string
	Vector Vector
}
