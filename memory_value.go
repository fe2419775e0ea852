package goduck

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	minHugeint  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxHugeint  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	maxUhugeint = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	maxInt32    = big.NewInt(math.MaxInt32)
	minInt32    = big.NewInt(math.MinInt32)
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func castError(v any, t *Type) error {
	if s, ok := v.(string); ok {
		return fmt.Errorf("Conversion Error: %w: could not convert string '%s' to %s", ErrInvalidCast, s, t)
	}
	return fmt.Errorf("Conversion Error: %w: could not convert %T %v to %s", ErrInvalidCast, v, v, t)
}

// literalValue returns the value of a literal token and the type the engine
// gives it.
func literalValue(t *token) (any, *Type, error) {
	switch t.kind {
	case nullKind:
		return nil, NewType(TypeSQLNull), nil
	case boolKind:
		return t.value == string(trueKeyword), NewType(TypeBoolean), nil
	case stringKind:
		return t.value, NewType(TypeVarchar), nil
	case numericKind:
		if strings.ContainsAny(t.value, "eE") {
			f, err := strconv.ParseFloat(t.value, 64)
			if err != nil {
				return nil, nil, castError(t.value, NewType(TypeDouble))
			}
			return f, NewType(TypeDouble), nil
		}
		if strings.Contains(t.value, ".") {
			d, err := decimal.NewFromString(t.value)
			if err != nil {
				return nil, nil, castError(t.value, NewType(TypeDecimal))
			}
			scale := int(-d.Exponent())
			digits := len(new(big.Int).Abs(d.Coefficient()).String())
			width := max(digits, scale, 1)
			if width > 38 {
				return d.InexactFloat64(), NewType(TypeDouble), nil
			}
			return d, DecimalType(uint8(width), uint8(scale)), nil
		}
		n, ok := new(big.Int).SetString(t.value, 10)
		if !ok {
			return nil, nil, castError(t.value, NewType(TypeBigint))
		}
		switch {
		case n.Cmp(minInt32) >= 0 && n.Cmp(maxInt32) <= 0:
			return n, NewType(TypeInteger), nil
		case n.IsInt64():
			return n, NewType(TypeBigint), nil
		case n.Cmp(minHugeint) >= 0 && n.Cmp(maxHugeint) <= 0:
			return n, NewType(TypeHugeint), nil
		case n.Sign() > 0 && n.Cmp(maxUhugeint) <= 0:
			return n, NewType(TypeUhugeint), nil
		}
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, NewType(TypeDouble), nil
	}
	return nil, nil, fmt.Errorf("%w: %s is not a value", ErrInvalidSelectItem, t.value)
}

// paramValue returns a bound argument and the type it binds as.
func paramValue(v any) (any, *Type, error) {
	switch x := v.(type) {
	case nil:
		return nil, NewType(TypeSQLNull), nil
	case bool:
		return x, NewType(TypeBoolean), nil
	case int8:
		return x, NewType(TypeTinyint), nil
	case int16:
		return x, NewType(TypeSmallint), nil
	case int32:
		return x, NewType(TypeInteger), nil
	case int64:
		return x, NewType(TypeBigint), nil
	case int:
		return int64(x), NewType(TypeBigint), nil
	case uint8:
		return x, NewType(TypeUtinyint), nil
	case uint16:
		return x, NewType(TypeUsmallint), nil
	case uint32:
		return x, NewType(TypeUinteger), nil
	case uint64:
		return x, NewType(TypeUbigint), nil
	case uint:
		return uint64(x), NewType(TypeUbigint), nil
	case float32:
		return x, NewType(TypeFloat), nil
	case float64:
		return x, NewType(TypeDouble), nil
	case string:
		return x, NewType(TypeVarchar), nil
	case []byte:
		return x, NewType(TypeBlob), nil
	case time.Time:
		return x, NewType(TypeTimestamp), nil
	case time.Duration:
		return IntervalFromDuration(x), NewType(TypeInterval), nil
	case Interval:
		return x, NewType(TypeInterval), nil
	case uuid.UUID:
		return x, NewType(TypeUUID), nil
	case *big.Int:
		if x.Cmp(minHugeint) >= 0 && x.Cmp(maxHugeint) <= 0 {
			return x, NewType(TypeHugeint), nil
		}
		return x, NewType(TypeUhugeint), nil
	case decimal.Decimal:
		scale := max(int(-x.Exponent()), 0)
		return x, DecimalType(38, uint8(min(scale, 38))), nil
	}
	return nil, nil, fmt.Errorf("%w: unsupported parameter type %T", ErrInvalidDatatype, v)
}

// fromStorage turns a stored value back into its Go value by decoding it
// from a one row vector.
func fromStorage(t *Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	f, err := Decode(newMemVector(t, v), 0)
	if err != nil {
		return nil, err
	}
	return f.Value(), nil
}

func toBigInt(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		return x, nil
	case int8:
		return big.NewInt(int64(x)), nil
	case int16:
		return big.NewInt(int64(x)), nil
	case int32:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case int:
		return big.NewInt(int64(x)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case uint:
		return new(big.Int).SetUint64(uint64(x)), nil
	case bool:
		if x {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	case float32, float64:
		f, _ := toFloat(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %v is not an integer", ErrInvalidCast, f)
		}
		n, _ := big.NewFloat(math.Round(f)).Int(nil)
		return n, nil
	case decimal.Decimal:
		return x.Round(0).BigInt(), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return nil, err
		}
		return d.Round(0).BigInt(), nil
	}
	return nil, fmt.Errorf("%w: %T is not a number", ErrInvalidCast, v)
}

func isFloat(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case decimal.Decimal:
		return x.InexactFloat64(), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	n, err := toBigInt(v)
	if err != nil {
		return 0, err
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	return f, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case float32, float64:
		f, _ := toFloat(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, fmt.Errorf("%w: %v is not a decimal", ErrInvalidCast, f)
		}
		return decimal.NewFromFloat(f), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(x))
	}
	n, err := toBigInt(v)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromBigInt(n, 0), nil
}

func toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("%w: %v is not a timestamp", ErrInvalidCast, v)
}

func toText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return x.Format("2006-01-02 15:04:05.999999")
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func fitsSigned(n *big.Int, bits uint) bool {
	if !n.IsInt64() {
		return false
	}
	if bits == 64 {
		return true
	}
	i := n.Int64()
	return i >= -(1<<(bits-1)) && i <= 1<<(bits-1)-1
}

func fitsUnsigned(n *big.Int, bits uint) bool {
	if !n.IsUint64() {
		return false
	}
	if bits == 64 {
		return true
	}
	return n.Uint64() <= 1<<bits-1
}

func uuidToHugeint(u uuid.UUID) *big.Int {
	upper := int64(binary.BigEndian.Uint64(u[:8]) ^ (1 << 63))
	return hugeint(upper, binary.BigEndian.Uint64(u[8:]))
}

// toStorage casts a Go value into the storage form of t that memVector
// readers expect.
func toStorage(t *Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch t.ID {
	case TypeBoolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(x))
			if err != nil {
				return nil, castError(v, t)
			}
			return b, nil
		}
		n, err := toBigInt(v)
		if err != nil {
			return nil, castError(v, t)
		}
		return n.Sign() != 0, nil

	case TypeTinyint, TypeSmallint, TypeInteger, TypeBigint,
		TypeUtinyint, TypeUsmallint, TypeUinteger, TypeUbigint,
		TypeHugeint, TypeUhugeint:
		n, err := toBigInt(v)
		if err != nil {
			return nil, castError(v, t)
		}
		return intStorage(t, n, v)

	case TypeFloat:
		f, err := toFloat(v)
		if err != nil {
			return nil, castError(v, t)
		}
		return float32(f), nil
	case TypeDouble:
		f, err := toFloat(v)
		if err != nil {
			return nil, castError(v, t)
		}
		return f, nil

	case TypeDecimal:
		d, err := toDecimal(v)
		if err != nil {
			return nil, castError(v, t)
		}
		scale := int32(t.Scale)
		unscaled := d.Round(scale).Shift(scale).BigInt()
		limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(t.Width)), nil)
		if new(big.Int).Abs(unscaled).Cmp(limit) >= 0 {
			return nil, castError(v, t)
		}
		switch t.Storage {
		case TypeSmallint:
			return int16(unscaled.Int64()), nil
		case TypeInteger:
			return int32(unscaled.Int64()), nil
		case TypeBigint:
			return unscaled.Int64(), nil
		}
		return unscaled, nil

	case TypeVarchar:
		return []byte(toText(v)), nil
	case TypeBlob:
		switch x := v.(type) {
		case []byte:
			return append([]byte{}, x...), nil
		case string:
			return []byte(x), nil
		}
		return nil, castError(v, t)

	case TypeDate:
		tm, err := toTime(v)
		if err != nil {
			return nil, castError(v, t)
		}
		day := time.Date(tm.Year(), tm.Month(), tm.Day(), 0, 0, 0, 0, time.UTC)
		return int32(floorDiv(day.Unix(), 86400)), nil
	case TypeTime:
		if s, ok := v.(string); ok {
			for _, layout := range []string{"15:04:05.999999999", "15:04:05", "15:04"} {
				if tm, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
					v = tm
					break
				}
			}
		}
		tm, ok := v.(time.Time)
		if !ok {
			return nil, castError(v, t)
		}
		h, m, s := tm.Clock()
		return int64(h)*microsPerHour + int64(m)*microsPerMinute + int64(s)*microsPerSecond + int64(tm.Nanosecond()/1000), nil
	case TypeTimestamp, TypeTimestampTZ, TypeTimestampS, TypeTimestampMS, TypeTimestampNS:
		tm, err := toTime(v)
		if err != nil {
			return nil, castError(v, t)
		}
		switch t.ID {
		case TypeTimestampS:
			return tm.Unix(), nil
		case TypeTimestampMS:
			return tm.UnixMilli(), nil
		case TypeTimestampNS:
			return tm.UnixNano(), nil
		}
		return tm.UnixMicro(), nil

	case TypeInterval:
		switch x := v.(type) {
		case Interval:
			return x, nil
		case time.Duration:
			return IntervalFromDuration(x), nil
		}
		return nil, castError(v, t)

	case TypeUUID:
		switch x := v.(type) {
		case uuid.UUID:
			return uuidToHugeint(x), nil
		case string:
			u, err := uuid.Parse(x)
			if err != nil {
				return nil, castError(v, t)
			}
			return uuidToHugeint(u), nil
		case []byte:
			u, err := uuid.FromBytes(x)
			if err != nil {
				return nil, castError(v, t)
			}
			return uuidToHugeint(u), nil
		}
		return nil, castError(v, t)
	}

	return nil, fmt.Errorf("%w: %s columns are not supported", ErrInvalidDatatype, t)
}

func intStorage(t *Type, n *big.Int, v any) (any, error) {
	ok := false
	var out any
	switch t.ID {
	case TypeTinyint:
		if ok = fitsSigned(n, 8); ok {
			out = int8(n.Int64())
		}
	case TypeSmallint:
		if ok = fitsSigned(n, 16); ok {
			out = int16(n.Int64())
		}
	case TypeInteger:
		if ok = fitsSigned(n, 32); ok {
			out = int32(n.Int64())
		}
	case TypeBigint:
		if ok = fitsSigned(n, 64); ok {
			out = n.Int64()
		}
	case TypeUtinyint:
		if ok = fitsUnsigned(n, 8); ok {
			out = uint8(n.Uint64())
		}
	case TypeUsmallint:
		if ok = fitsUnsigned(n, 16); ok {
			out = uint16(n.Uint64())
		}
	case TypeUinteger:
		if ok = fitsUnsigned(n, 32); ok {
			out = uint32(n.Uint64())
		}
	case TypeUbigint:
		if ok = fitsUnsigned(n, 64); ok {
			out = n.Uint64()
		}
	case TypeHugeint:
		if ok = n.Cmp(minHugeint) >= 0 && n.Cmp(maxHugeint) <= 0; ok {
			out = new(big.Int).Set(n)
		}
	case TypeUhugeint:
		if ok = n.Sign() >= 0 && n.Cmp(maxUhugeint) <= 0; ok {
			out = new(big.Int).Set(n)
		}
	}
	if !ok {
		return nil, castError(v, t)
	}
	return out, nil
}

// compareValues orders two non-NULL Go values, casting across types the
// way a comparison against a literal would. NaN sorts above every other
// number and equals itself.
func compareValues(a, b any) (int, error) {
	switch x := a.(type) {
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, fmt.Errorf("%w: cannot compare BOOLEAN with %T", ErrInvalidCast, b)
		}
		switch {
		case x == y:
			return 0, nil
		case !x:
			return -1, nil
		}
		return 1, nil
	case string:
		switch y := b.(type) {
		case string:
			return strings.Compare(x, y), nil
		case []byte:
			return bytes.Compare([]byte(x), y), nil
		case time.Time, uuid.UUID:
			return compareSwapped(b, a)
		}
	case []byte:
		switch y := b.(type) {
		case []byte:
			return bytes.Compare(x, y), nil
		case string:
			return bytes.Compare(x, []byte(y)), nil
		}
		return 0, fmt.Errorf("%w: cannot compare BLOB with %T", ErrInvalidCast, b)
	case time.Time:
		y, err := toTime(b)
		if err != nil {
			return 0, err
		}
		return x.Compare(y), nil
	case Interval:
		y, ok := b.(Interval)
		if !ok {
			return 0, fmt.Errorf("%w: cannot compare INTERVAL with %T", ErrInvalidCast, b)
		}
		dx, _ := x.Duration(30)
		dy, _ := y.Duration(30)
		return cmpOrdered(dx, dy), nil
	case uuid.UUID:
		switch y := b.(type) {
		case uuid.UUID:
			return bytes.Compare(x[:], y[:]), nil
		case string:
			u, err := uuid.Parse(y)
			if err != nil {
				return 0, castError(y, NewType(TypeUUID))
			}
			return bytes.Compare(x[:], u[:]), nil
		}
		return 0, fmt.Errorf("%w: cannot compare UUID with %T", ErrInvalidCast, b)
	}

	if isFloat(a) || isFloat(b) {
		fa, err := toFloat(a)
		if err != nil {
			return 0, err
		}
		fb, err := toFloat(b)
		if err != nil {
			return 0, err
		}
		switch {
		case math.IsNaN(fa) && math.IsNaN(fb):
			return 0, nil
		case math.IsNaN(fa):
			return 1, nil
		case math.IsNaN(fb):
			return -1, nil
		}
		return cmpOrdered(fa, fb), nil
	}

	da, err := toDecimal(a)
	if err != nil {
		return 0, err
	}
	db, err := toDecimal(b)
	if err != nil {
		return 0, err
	}
	return da.Cmp(db), nil
}

func compareSwapped(a, b any) (int, error) {
	c, err := compareValues(a, b)
	return -c, err
}

func cmpOrdered[T int64 | float64 | time.Duration](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
