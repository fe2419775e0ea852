package native

/*
#include <stdlib.h>
#include <duckdb.h>
*/
import "C"

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"
	"time"
	"unsafe"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barsdeveloper/goduck"
)

type statement struct {
	ptr C.duckdb_prepared_statement
}

func (s *statement) Bind(args []driver.NamedValue) error {
	n := int(C.duckdb_nparams(s.ptr))
	if len(args) != n {
		return fmt.Errorf("Invalid Input Error: Expected %d parameters, but %d were supplied", n, len(args))
	}
	if C.duckdb_clear_bindings(s.ptr) != C.DuckDBSuccess {
		return errors.New("could not clear bindings")
	}
	for i, arg := range args {
		ordinal := arg.Ordinal
		if ordinal == 0 {
			ordinal = i + 1
		}
		if err := s.bind(C.idx_t(ordinal), arg.Value); err != nil {
			return fmt.Errorf("parameter %d: %w", ordinal, err)
		}
	}
	return nil
}

func (s *statement) bind(idx C.idx_t, value any) error {
	var state C.duckdb_state
	switch v := value.(type) {
	case nil:
		state = C.duckdb_bind_null(s.ptr, idx)
	case bool:
		state = C.duckdb_bind_boolean(s.ptr, idx, C.bool(v))
	case int8:
		state = C.duckdb_bind_int8(s.ptr, idx, C.int8_t(v))
	case int16:
		state = C.duckdb_bind_int16(s.ptr, idx, C.int16_t(v))
	case int32:
		state = C.duckdb_bind_int32(s.ptr, idx, C.int32_t(v))
	case int64:
		state = C.duckdb_bind_int64(s.ptr, idx, C.int64_t(v))
	case int:
		state = C.duckdb_bind_int64(s.ptr, idx, C.int64_t(v))
	case uint8:
		state = C.duckdb_bind_uint8(s.ptr, idx, C.uint8_t(v))
	case uint16:
		state = C.duckdb_bind_uint16(s.ptr, idx, C.uint16_t(v))
	case uint32:
		state = C.duckdb_bind_uint32(s.ptr, idx, C.uint32_t(v))
	case uint64:
		state = C.duckdb_bind_uint64(s.ptr, idx, C.uint64_t(v))
	case uint:
		state = C.duckdb_bind_uint64(s.ptr, idx, C.uint64_t(v))
	case float32:
		state = C.duckdb_bind_float(s.ptr, idx, C.float(v))
	case float64:
		state = C.duckdb_bind_double(s.ptr, idx, C.double(v))
	case string:
		state = s.bindText(idx, v)
	case []byte:
		var p unsafe.Pointer
		if len(v) > 0 {
			p = unsafe.Pointer(&v[0])
		}
		state = C.duckdb_bind_blob(s.ptr, idx, p, C.idx_t(len(v)))
	case time.Time:
		state = C.duckdb_bind_timestamp(s.ptr, idx, C.duckdb_timestamp{micros: C.int64_t(v.UnixMicro())})
	case time.Duration:
		state = s.bindInterval(idx, goduck.IntervalFromDuration(v))
	case goduck.Interval:
		state = s.bindInterval(idx, v)
	case uuid.UUID:
		state = s.bindText(idx, v.String())
	case *big.Int:
		upper, lower, ok := hugeWords(v)
		switch {
		case ok:
			state = C.duckdb_bind_hugeint(s.ptr, idx, C.duckdb_hugeint{lower: C.uint64_t(lower), upper: C.int64_t(upper)})
		case v.Sign() > 0 && v.BitLen() <= 128:
			state = C.duckdb_bind_uhugeint(s.ptr, idx, C.duckdb_uhugeint{lower: C.uint64_t(lower), upper: C.uint64_t(upper)})
		default:
			return fmt.Errorf("%s does not fit in 128 bits", v)
		}
	case decimal.Decimal:
		state = s.bindDecimal(idx, v)
	default:
		return fmt.Errorf("unsupported type %T", value)
	}
	if state != C.DuckDBSuccess {
		return fmt.Errorf("could not bind %T", value)
	}
	return nil
}

func (s *statement) bindText(idx C.idx_t, v string) C.duckdb_state {
	cs := C.CString(v)
	defer C.free(unsafe.Pointer(cs))
	return C.duckdb_bind_varchar_length(s.ptr, idx, cs, C.idx_t(len(v)))
}

func (s *statement) bindInterval(idx C.idx_t, v goduck.Interval) C.duckdb_state {
	return C.duckdb_bind_interval(s.ptr, idx, C.duckdb_interval{
		months: C.int32_t(v.Months),
		days:   C.int32_t(v.Days),
		micros: C.int64_t(v.Micros),
	})
}

// bindDecimal binds d as DECIMAL(38, scale) when it fits and as text, left
// for the engine to cast, when it does not.
func (s *statement) bindDecimal(idx C.idx_t, d decimal.Decimal) C.duckdb_state {
	scale := -d.Exponent()
	coef := d.Coefficient()
	if scale < 0 {
		coef.Mul(coef, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-scale)), nil))
		scale = 0
	}
	upper, lower, ok := hugeWords(coef)
	if scale > 38 || !ok || len(new(big.Int).Abs(coef).String()) > 38 {
		return s.bindText(idx, d.String())
	}
	return C.duckdb_bind_decimal(s.ptr, idx, C.duckdb_decimal{
		width: 38,
		scale: C.uint8_t(scale),
		value: C.duckdb_hugeint{lower: C.uint64_t(lower), upper: C.int64_t(upper)},
	})
}

var (
	mask64     = new(big.Int).SetUint64(^uint64(0))
	minHugeint = new(big.Int).Lsh(big.NewInt(-1), 127)
	maxHugeint = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
)

// hugeWords splits n into the two's complement words of a HUGEINT. ok is
// false when n is outside the HUGEINT range, in which case the words still
// hold n's low 128 bits.
func hugeWords(n *big.Int) (upper int64, lower uint64, ok bool) {
	lower = new(big.Int).And(n, mask64).Uint64()
	hi := new(big.Int).Rsh(n, 64)
	upper = int64(new(big.Int).And(hi, mask64).Uint64())
	ok = n.Cmp(minHugeint) >= 0 && n.Cmp(maxHugeint) <= 0
	return upper, lower, ok
}

func (s *statement) Execute(streaming bool) (goduck.Result, error) {
	r := (*C.duckdb_result)(C.malloc(C.sizeof_duckdb_result))
	var state C.duckdb_state
	if streaming {
		state = C.duckdb_execute_prepared_streaming(s.ptr, r)
	} else {
		state = C.duckdb_execute_prepared(s.ptr, r)
	}
	if state != C.DuckDBSuccess {
		msg := "could not execute statement"
		if e := C.duckdb_result_error(r); e != nil {
			msg = C.GoString(e)
		}
		C.duckdb_destroy_result(r)
		C.free(unsafe.Pointer(r))
		return nil, errors.New(msg)
	}
	return &result{ptr: r, streaming: bool(C.duckdb_result_is_streaming(*r))}, nil
}

func (s *statement) Close() {
	C.duckdb_destroy_prepare(&s.ptr)
}

type result struct {
	ptr       *C.duckdb_result
	streaming bool
}

func (r *result) StatementType() goduck.StatementType {
	return goduck.StatementType(C.duckdb_result_statement_type(*r.ptr))
}

func (r *result) RowsChanged() int64 {
	return int64(C.duckdb_rows_changed(r.ptr))
}

func (r *result) Streaming() bool {
	return r.streaming
}

func (r *result) ColumnCount() int {
	return int(C.duckdb_column_count(r.ptr))
}

func (r *result) ColumnName(i int) string {
	if i < 0 || i >= r.ColumnCount() {
		return ""
	}
	return C.GoString(C.duckdb_column_name(r.ptr, C.idx_t(i)))
}

func (r *result) ColumnType(i int) (*goduck.Type, error) {
	if i < 0 || i >= r.ColumnCount() {
		return nil, fmt.Errorf("%w: column %d of %d", goduck.ErrIndexOutOfRange, i, r.ColumnCount())
	}
	lt := C.duckdb_column_logical_type(r.ptr, C.idx_t(i))
	defer C.duckdb_destroy_logical_type(&lt)
	return typeOf(lt), nil
}

func (r *result) Fetch() (goduck.Chunk, error) {
	var chunk C.duckdb_data_chunk
	if r.streaming {
		chunk = C.duckdb_stream_fetch_chunk(*r.ptr)
	} else {
		chunk = C.duckdb_fetch_chunk(*r.ptr)
	}
	if chunk == nil {
		if e := C.duckdb_result_error(r.ptr); e != nil {
			return nil, errors.New(C.GoString(e))
		}
		return nil, nil
	}
	return newChunk(chunk), nil
}

func (r *result) Close() {
	if r.ptr == nil {
		return
	}
	C.duckdb_destroy_result(r.ptr)
	C.free(unsafe.Pointer(r.ptr))
	r.ptr = nil
}
