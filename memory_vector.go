package goduck

import (
	"fmt"
	"math/big"
)

// memVector is the memory engine's column vector. data holds one value per
// row in the engine's storage form: native Go integers, *big.Int for 128-bit
// integers, the unscaled storage integer for DECIMAL, []byte for VARCHAR and
// BLOB, days for DATE, micros for TIME and TIMESTAMP.
type memVector struct {
	typ   *Type
	data  []any
	valid []bool

	// LIST and MAP
	entries [][2]uint64
	// LIST, ARRAY and MAP
	child *memVector
	// STRUCT
	members []*memVector
}

func newMemVector(t *Type, values ...any) *memVector {
	v := &memVector{typ: t, data: values, valid: make([]bool, len(values))}
	for i, value := range values {
		v.valid[i] = value != nil
	}
	return v
}

// newListMemVector builds a LIST or MAP vector whose rows are ranges of
// child. A nil entry is an invalid row.
func newListMemVector(t *Type, child *memVector, entries ...*[2]uint64) *memVector {
	v := &memVector{typ: t, child: child, valid: make([]bool, len(entries)), entries: make([][2]uint64, len(entries))}
	for i, e := range entries {
		if e != nil {
			v.entries[i] = *e
			v.valid[i] = true
		}
	}
	v.data = make([]any, len(entries))
	return v
}

// newArrayMemVector builds an ARRAY vector of fixed-size rows over child.
// Like STRUCT vectors it has no data of its own, only validity.
func newArrayMemVector(t *Type, child *memVector, valid ...bool) *memVector {
	return &memVector{typ: t, child: child, valid: valid}
}

func newStructMemVector(t *Type, members []*memVector, valid ...bool) *memVector {
	return &memVector{typ: t, members: members, valid: valid}
}

func (v *memVector) Type() *Type { return v.typ }
func (v *memVector) Len() int    { return len(v.valid) }

func (v *memVector) Valid(row int) bool {
	return row >= 0 && row < len(v.valid) && v.valid[row]
}

func memAt[T any](v *memVector, row int) (T, error) {
	var zero T
	if row < 0 || row >= len(v.data) {
		return zero, fmt.Errorf("%w: row %d of %d", ErrIndexOutOfRange, row, len(v.data))
	}
	value, ok := v.data[row].(T)
	if !ok {
		return zero, fmt.Errorf("%s vector holds %T at row %d, not %T", v.typ, v.data[row], row, zero)
	}
	return value, nil
}

func (v *memVector) BoolAt(row int) (bool, error)       { return memAt[bool](v, row) }
func (v *memVector) Int8At(row int) (int8, error)       { return memAt[int8](v, row) }
func (v *memVector) Int16At(row int) (int16, error)     { return memAt[int16](v, row) }
func (v *memVector) Int32At(row int) (int32, error)     { return memAt[int32](v, row) }
func (v *memVector) Int64At(row int) (int64, error)     { return memAt[int64](v, row) }
func (v *memVector) Uint8At(row int) (uint8, error)     { return memAt[uint8](v, row) }
func (v *memVector) Uint16At(row int) (uint16, error)   { return memAt[uint16](v, row) }
func (v *memVector) Uint32At(row int) (uint32, error)   { return memAt[uint32](v, row) }
func (v *memVector) Uint64At(row int) (uint64, error)   { return memAt[uint64](v, row) }
func (v *memVector) Float32At(row int) (float32, error) { return memAt[float32](v, row) }
func (v *memVector) Float64At(row int) (float64, error) { return memAt[float64](v, row) }
func (v *memVector) DateAt(row int) (int32, error)      { return memAt[int32](v, row) }
func (v *memVector) TimeAt(row int) (int64, error)      { return memAt[int64](v, row) }
func (v *memVector) TimestampAt(row int) (int64, error) { return memAt[int64](v, row) }
func (v *memVector) IntervalAt(row int) (Interval, error) {
	return memAt[Interval](v, row)
}

var mask64 = new(big.Int).SetUint64(^uint64(0))

// Two's complement words of n. Rsh floors for negative values, which is the
// arithmetic shift the upper word needs.
func hugeWords(n *big.Int) (upper int64, lower uint64) {
	lower = new(big.Int).And(n, mask64).Uint64()
	upper = new(big.Int).Rsh(n, 64).Int64()
	return upper, lower
}

func (v *memVector) HugeintAt(row int) (int64, uint64, error) {
	n, err := memAt[*big.Int](v, row)
	if err != nil {
		return 0, 0, err
	}
	upper, lower := hugeWords(n)
	return upper, lower, nil
}

func (v *memVector) UhugeintAt(row int) (uint64, uint64, error) {
	n, err := memAt[*big.Int](v, row)
	if err != nil {
		return 0, 0, err
	}
	upper := new(big.Int).Rsh(n, 64).Uint64()
	return upper, new(big.Int).And(n, mask64).Uint64(), nil
}

func (v *memVector) BytesAt(row int) ([]byte, error) {
	if row < 0 || row >= len(v.data) {
		return nil, fmt.Errorf("%w: row %d of %d", ErrIndexOutOfRange, row, len(v.data))
	}
	switch b := v.data[row].(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	}
	return nil, fmt.Errorf("%s vector holds %T at row %d", v.typ, v.data[row], row)
}

func (v *memVector) ListEntryAt(row int) (uint64, uint64, error) {
	if row < 0 || row >= len(v.entries) {
		return 0, 0, fmt.Errorf("%w: list entry %d of %d", ErrIndexOutOfRange, row, len(v.entries))
	}
	return v.entries[row][0], v.entries[row][1], nil
}

func (v *memVector) Child() (Vector, error) {
	if v.child == nil {
		return nil, fmt.Errorf("%s vector has no child", v.typ)
	}
	return v.child, nil
}

func (v *memVector) StructChild(i int) (Vector, error) {
	if i < 0 || i >= len(v.members) {
		return nil, fmt.Errorf("%w: member %d of %d", ErrIndexOutOfRange, i, len(v.members))
	}
	return v.members[i], nil
}
