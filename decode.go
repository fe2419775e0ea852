package goduck

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	minTime = time.Date(-9999, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxTime = time.Date(9999, time.December, 31, 23, 59, 59, 999999999, time.UTC)
)

// Decode reads the value at row of v. The payload is absent exactly when the
// vector marks the row invalid; nested types recurse into their child
// vectors.
func Decode(v Vector, row int) (Field, error) {
	t := v.Type()
	if t == nil {
		return Field{}, newError(ErrDecode, nil, "vector has no type")
	}
	if t.ID == TypeSQLNull {
		return NullSentinel(), nil
	}
	if row < 0 || row >= v.Len() {
		return Field{}, newError(ErrDecode, ErrIndexOutOfRange, "row %d of %d", row, v.Len())
	}
	if !v.Valid(row) {
		if !t.ID.Known() {
			return Field{}, newError(ErrDecode, ErrUnsupportedType, "type id %d", uint32(t.ID))
		}
		return NullField(t), nil
	}

	switch t.ID {
	case TypeBoolean:
		return scalar(t, row, v.BoolAt)
	case TypeTinyint:
		return scalar(t, row, v.Int8At)
	case TypeSmallint:
		return scalar(t, row, v.Int16At)
	case TypeInteger:
		return scalar(t, row, v.Int32At)
	case TypeBigint:
		return scalar(t, row, v.Int64At)
	case TypeUtinyint:
		return scalar(t, row, v.Uint8At)
	case TypeUsmallint:
		return scalar(t, row, v.Uint16At)
	case TypeUinteger:
		return scalar(t, row, v.Uint32At)
	case TypeUbigint:
		return scalar(t, row, v.Uint64At)
	case TypeFloat:
		return scalar(t, row, v.Float32At)
	case TypeDouble:
		return scalar(t, row, v.Float64At)
	case TypeInterval:
		return scalar(t, row, v.IntervalAt)

	case TypeHugeint:
		upper, lower, err := v.HugeintAt(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		return NewField(t, hugeint(upper, lower)), nil
	case TypeUhugeint:
		upper, lower, err := v.UhugeintAt(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		return NewField(t, uhugeint(upper, lower)), nil

	case TypeDecimal:
		return decodeDecimal(v, t, row)

	case TypeVarchar:
		b, err := v.BytesAt(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		return NewField(t, string(b)), nil
	case TypeBlob:
		b, err := v.BytesAt(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		return NewField(t, append([]byte{}, b...)), nil

	case TypeDate:
		days, err := v.DateAt(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		return timeField(t, row, int64(days)*86400, 0)
	case TypeTime:
		micros, err := v.TimeAt(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		if micros < 0 || micros >= microsPerDay {
			return Field{}, newError(ErrDecode, nil, "TIME value %d at row %d is outside of a day", micros, row)
		}
		return NewField(t, time.UnixMicro(micros).UTC()), nil
	case TypeTimestamp, TypeTimestampTZ:
		micros, err := v.TimestampAt(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		return timeField(t, row, floorDiv(micros, microsPerSecond), floorMod(micros, microsPerSecond)*1000)
	case TypeTimestampS:
		secs, err := v.TimestampAt(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		return timeField(t, row, secs, 0)
	case TypeTimestampMS:
		millis, err := v.TimestampAt(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		return timeField(t, row, floorDiv(millis, 1000), floorMod(millis, 1000)*1_000_000)
	case TypeTimestampNS:
		nanos, err := v.TimestampAt(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		return NewField(t, time.Unix(0, nanos).UTC()), nil

	case TypeUUID:
		upper, lower, err := v.HugeintAt(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		return NewField(t, uuidFromHugeint(upper, lower)), nil

	case TypeEnum:
		return decodeEnum(v, t, row)

	case TypeList, TypeMap:
		offset, length, err := v.ListEntryAt(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		child, err := v.Child()
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		return decodeRange(t, child, int(offset), int(length))
	case TypeArray:
		child, err := v.Child()
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		return decodeRange(t, child, row*t.Size, t.Size)

	case TypeStruct:
		items := make([]Field, len(t.Members))
		for i := range t.Members {
			child, err := v.StructChild(i)
			if err != nil {
				return Field{}, readError(t, row, err)
			}
			if items[i], err = Decode(child, row); err != nil {
				return Field{}, err
			}
		}
		return NewNestedField(t, items), nil

	case TypeUnion, TypeBit, TypeTimeTZ, TypeVarint, TypeAny:
		return Field{}, newError(ErrDecode, ErrUnsupportedType, "%s", t.ID)
	}

	return Field{}, newError(ErrDecode, ErrUnsupportedType, "type id %d", uint32(t.ID))
}

func scalar[T any](t *Type, row int, read func(int) (T, error)) (Field, error) {
	v, err := read(row)
	if err != nil {
		return Field{}, readError(t, row, err)
	}
	return NewField(t, v), nil
}

func readError(t *Type, row int, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return newError(ErrDecode, err, "reading %s at row %d", t, row)
}

func hugeint(upper int64, lower uint64) *big.Int {
	n := big.NewInt(upper)
	n.Lsh(n, 64)
	return n.Add(n, new(big.Int).SetUint64(lower))
}

func uhugeint(upper, lower uint64) *big.Int {
	n := new(big.Int).SetUint64(upper)
	n.Lsh(n, 64)
	return n.Add(n, new(big.Int).SetUint64(lower))
}

// uuidFromHugeint undoes the engine's storage of a UUID as a HUGEINT with the
// top bit flipped, which keeps UUIDs sorting as unsigned values.
func uuidFromHugeint(upper int64, lower uint64) uuid.UUID {
	var u uuid.UUID
	hi := uint64(upper) ^ (1 << 63)
	for i := 0; i < 8; i++ {
		u[i] = byte(hi >> (56 - 8*i))
		u[8+i] = byte(lower >> (56 - 8*i))
	}
	return u
}

func decodeDecimal(v Vector, t *Type, row int) (Field, error) {
	exp := -int32(t.Scale)
	var d decimal.Decimal
	switch t.Storage {
	case TypeSmallint:
		n, err := v.Int16At(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		d = decimal.New(int64(n), exp)
	case TypeInteger:
		n, err := v.Int32At(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		d = decimal.New(int64(n), exp)
	case TypeBigint:
		n, err := v.Int64At(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		d = decimal.New(n, exp)
	case TypeHugeint:
		upper, lower, err := v.HugeintAt(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		d = decimal.NewFromBigInt(hugeint(upper, lower), exp)
	default:
		return Field{}, newError(ErrDecode, ErrInvalidStorage, "%s stored as %s", t, t.Storage)
	}
	return NewField(t, d), nil
}

func decodeEnum(v Vector, t *Type, row int) (Field, error) {
	var idx uint64
	switch t.Storage {
	case TypeUtinyint:
		n, err := v.Uint8At(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		idx = uint64(n)
	case TypeUsmallint:
		n, err := v.Uint16At(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		idx = uint64(n)
	case TypeUinteger:
		n, err := v.Uint32At(row)
		if err != nil {
			return Field{}, readError(t, row, err)
		}
		idx = uint64(n)
	default:
		return Field{}, newError(ErrDecode, ErrInvalidStorage, "ENUM stored as %s", t.Storage)
	}
	if idx >= uint64(len(t.Dictionary)) {
		return Field{}, newError(ErrDecode, ErrIndexOutOfRange, "ENUM index %d with %d entries", idx, len(t.Dictionary))
	}
	return NewField(t, t.Dictionary[idx]), nil
}

// decodeRange decodes child rows [offset, offset+length) as the items of a
// nested value of type t.
func decodeRange(t *Type, child Vector, offset, length int) (Field, error) {
	if offset < 0 || length < 0 || (length > 0 && offset+length > child.Len()) {
		return Field{}, newError(ErrDecode, ErrIndexOutOfRange,
			"%s range %d+%d past child of %d rows", t, offset, length, child.Len())
	}
	items := make([]Field, length)
	for i := range items {
		item, err := Decode(child, offset+i)
		if err != nil {
			return Field{}, err
		}
		items[i] = item
	}
	return NewNestedField(t, items), nil
}

func timeField(t *Type, row int, secs, nanos int64) (Field, error) {
	if secs < minTime.Unix() || secs > maxTime.Unix() {
		return Field{}, newError(ErrDecode, nil, "%s value at row %d is out of range", t, row)
	}
	return NewField(t, time.Unix(secs, nanos).UTC()), nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}

// DecodeRow decodes one row across cols. The row has one Column per vector,
// in order.
func DecodeRow(cols []ColumnVector, row int) (Row, error) {
	r := make(Row, len(cols))
	for i, col := range cols {
		f, err := Decode(col.Vector, row)
		if err != nil {
			var e *Error
			if errors.As(err, &e) {
				e.Message = fmt.Sprintf("column %q: %s", col.Name, e.Message)
			}
			return nil, err
		}
		r[i] = Column{Name: col.Name, Ordinal: i, Field: f}
	}
	return r, nil
}

// DecodeChunk decodes the first rowCount rows of cols.
func DecodeChunk(cols []ColumnVector, rowCount int) ([]Row, error) {
	rows := make([]Row, 0, rowCount)
	for i := 0; i < rowCount; i++ {
		r, err := DecodeRow(cols, i)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return rows, nil
}
