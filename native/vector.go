package native

/*
#include <duckdb.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/barsdeveloper/goduck"
)

type chunk struct {
	ptr     C.duckdb_data_chunk
	size    int
	vectors []*vector
}

func newChunk(ptr C.duckdb_data_chunk) *chunk {
	return &chunk{
		ptr:     ptr,
		size:    int(C.duckdb_data_chunk_get_size(ptr)),
		vectors: make([]*vector, int(C.duckdb_data_chunk_get_column_count(ptr))),
	}
}

func (c *chunk) Len() int         { return c.size }
func (c *chunk) ColumnCount() int { return len(c.vectors) }

func (c *chunk) Vector(i int) (goduck.Vector, error) {
	if c.ptr == nil {
		return nil, errors.New("chunk is closed")
	}
	if i < 0 || i >= len(c.vectors) {
		return nil, fmt.Errorf("%w: vector %d of %d", goduck.ErrIndexOutOfRange, i, len(c.vectors))
	}
	if c.vectors[i] == nil {
		v := C.duckdb_data_chunk_get_vector(c.ptr, C.idx_t(i))
		lt := C.duckdb_vector_get_column_type(v)
		t := typeOf(lt)
		C.duckdb_destroy_logical_type(&lt)
		c.vectors[i] = newVector(v, t, c.size)
	}
	return c.vectors[i], nil
}

// Close frees the chunk. Vectors read from it and byte slices returned by
// their BytesAt must not be used afterwards.
func (c *chunk) Close() {
	if c.ptr != nil {
		C.duckdb_destroy_data_chunk(&c.ptr)
		c.ptr = nil
	}
}

// Layouts of the engine's fixed width values.
type (
	hugeint struct {
		lower uint64
		upper int64
	}
	uhugeint struct {
		lower uint64
		upper uint64
	}
	interval struct {
		months int32
		days   int32
		micros int64
	}
	listEntry struct {
		offset uint64
		length uint64
	}
	// stringT is duckdb_string_t: strings up to 12 bytes live inline after
	// the length, longer ones behind ptr.
	stringT struct {
		length uint32
		prefix [4]byte
		ptr    unsafe.Pointer
	}
)

const stringInlineLength = 12

// vector reads size rows of one engine vector.
type vector struct {
	ptr      C.duckdb_vector
	typ      *goduck.Type
	size     int
	data     unsafe.Pointer
	validity *uint64
}

func newVector(ptr C.duckdb_vector, t *goduck.Type, size int) *vector {
	return &vector{
		ptr:      ptr,
		typ:      t,
		size:     size,
		data:     C.duckdb_vector_get_data(ptr),
		validity: (*uint64)(unsafe.Pointer(C.duckdb_vector_get_validity(ptr))),
	}
}

func (v *vector) Type() *goduck.Type { return v.typ }
func (v *vector) Len() int           { return v.size }

// Valid reports whether row is non-NULL. ARRAY and STRUCT vectors carry no
// data buffer of their own, only a validity mask over their children.
func (v *vector) Valid(row int) bool {
	if row < 0 || row >= v.size {
		return false
	}
	if v.data == nil && v.typ.ID != goduck.TypeArray && v.typ.ID != goduck.TypeStruct {
		return false
	}
	if v.validity == nil {
		return true
	}
	words := unsafe.Slice(v.validity, (v.size+63)/64)
	return words[row/64]>>(row%64)&1 == 1
}

// load reads the row-th T of v's data after checking row against the
// vector's size.
func load[T any](v *vector, row int) (T, error) {
	var zero T
	if row < 0 || row >= v.size {
		return zero, fmt.Errorf("%w: row %d of %d", goduck.ErrIndexOutOfRange, row, v.size)
	}
	if v.data == nil {
		return zero, fmt.Errorf("%s vector has no data", v.typ)
	}
	return unsafe.Slice((*T)(v.data), v.size)[row], nil
}

func (v *vector) BoolAt(row int) (bool, error)       { return load[bool](v, row) }
func (v *vector) Int8At(row int) (int8, error)       { return load[int8](v, row) }
func (v *vector) Int16At(row int) (int16, error)     { return load[int16](v, row) }
func (v *vector) Int32At(row int) (int32, error)     { return load[int32](v, row) }
func (v *vector) Int64At(row int) (int64, error)     { return load[int64](v, row) }
func (v *vector) Uint8At(row int) (uint8, error)     { return load[uint8](v, row) }
func (v *vector) Uint16At(row int) (uint16, error)   { return load[uint16](v, row) }
func (v *vector) Uint32At(row int) (uint32, error)   { return load[uint32](v, row) }
func (v *vector) Uint64At(row int) (uint64, error)   { return load[uint64](v, row) }
func (v *vector) Float32At(row int) (float32, error) { return load[float32](v, row) }
func (v *vector) Float64At(row int) (float64, error) { return load[float64](v, row) }
func (v *vector) DateAt(row int) (int32, error)      { return load[int32](v, row) }
func (v *vector) TimeAt(row int) (int64, error)      { return load[int64](v, row) }
func (v *vector) TimestampAt(row int) (int64, error) { return load[int64](v, row) }

func (v *vector) HugeintAt(row int) (int64, uint64, error) {
	h, err := load[hugeint](v, row)
	return h.upper, h.lower, err
}

func (v *vector) UhugeintAt(row int) (uint64, uint64, error) {
	h, err := load[uhugeint](v, row)
	return h.upper, h.lower, err
}

func (v *vector) IntervalAt(row int) (goduck.Interval, error) {
	i, err := load[interval](v, row)
	return goduck.Interval{Months: i.months, Days: i.days, Micros: i.micros}, err
}

func (v *vector) ListEntryAt(row int) (uint64, uint64, error) {
	e, err := load[listEntry](v, row)
	return e.offset, e.length, err
}

// BytesAt returns a slice over engine memory, valid until the chunk is
// closed.
func (v *vector) BytesAt(row int) ([]byte, error) {
	if row < 0 || row >= v.size {
		return nil, fmt.Errorf("%w: row %d of %d", goduck.ErrIndexOutOfRange, row, v.size)
	}
	if v.data == nil {
		return nil, fmt.Errorf("%s vector has no data", v.typ)
	}
	s := &unsafe.Slice((*stringT)(v.data), v.size)[row]
	if s.length == 0 {
		return []byte{}, nil
	}
	if s.length <= stringInlineLength {
		return unsafe.Slice(&s.prefix[0], s.length), nil
	}
	if s.ptr == nil {
		return nil, fmt.Errorf("string of %d bytes at row %d has no data", s.length, row)
	}
	return unsafe.Slice((*byte)(s.ptr), s.length), nil
}

func (v *vector) Child() (goduck.Vector, error) {
	switch v.typ.ID {
	case goduck.TypeList:
		return newVector(C.duckdb_list_vector_get_child(v.ptr), v.typ.Elem, int(C.duckdb_list_vector_get_size(v.ptr))), nil
	case goduck.TypeMap:
		return newVector(C.duckdb_list_vector_get_child(v.ptr), v.typ.EntryType(), int(C.duckdb_list_vector_get_size(v.ptr))), nil
	case goduck.TypeArray:
		return newVector(C.duckdb_array_vector_get_child(v.ptr), v.typ.Elem, v.size*v.typ.Size), nil
	}
	return nil, fmt.Errorf("%w: %s has no child vector", goduck.ErrUnsupportedType, v.typ)
}

func (v *vector) StructChild(i int) (goduck.Vector, error) {
	if v.typ.ID != goduck.TypeStruct {
		return nil, fmt.Errorf("%w: %s has no members", goduck.ErrUnsupportedType, v.typ)
	}
	if i < 0 || i >= len(v.typ.Members) {
		return nil, fmt.Errorf("%w: member %d of %d", goduck.ErrIndexOutOfRange, i, len(v.typ.Members))
	}
	return newVector(C.duckdb_struct_vector_get_child(v.ptr, C.idx_t(i)), v.typ.Members[i].Type, v.size), nil
}
