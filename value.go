package goduck

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field is one decoded value: its type, whether it is NULL, and the payload.
//
// Payload types by type id:
//
//	BOOLEAN                  bool
//	TINYINT..BIGINT          int8, int16, int32, int64
//	UTINYINT..UBIGINT        uint8, uint16, uint32, uint64
//	HUGEINT, UHUGEINT        *big.Int
//	FLOAT, DOUBLE            float32, float64
//	DECIMAL                  decimal.Decimal
//	VARCHAR, ENUM            string
//	BLOB                     []byte
//	DATE, TIME, TIMESTAMP*   time.Time (UTC)
//	INTERVAL                 Interval
//	UUID                     uuid.UUID
//	LIST, ARRAY, STRUCT, MAP items ([]Field)
//
// MAP items are STRUCT(key, value) fields.
type Field struct {
	Type  *Type
	valid bool
	value any
	items []Field
}

// NewField returns a present scalar field.
func NewField(t *Type, value any) Field {
	return Field{Type: t, valid: true, value: value}
}

// NewNestedField returns a present LIST, ARRAY, STRUCT or MAP field.
func NewNestedField(t *Type, items []Field) Field {
	if items == nil {
		items = []Field{}
	}
	return Field{Type: t, valid: true, items: items}
}

// NullField returns an absent value of type t.
func NullField(t *Type) Field {
	return Field{Type: t}
}

// NullSentinel is the value of the NULL type: absent and with no type
// information.
func NullSentinel() Field {
	return Field{Type: NewType(TypeSQLNull)}
}

func (f Field) IsNull() bool {
	return !f.valid
}

// TypeName is the name of the field's type. It fails only for the NULL
// sentinel.
func (f Field) TypeName() (string, error) {
	return f.Type.Name()
}

func (f Field) id() TypeID {
	if f.Type == nil {
		return TypeSQLNull
	}
	return f.Type.ID
}

func as[T any](f Field) *T {
	if !f.valid {
		return nil
	}
	v, ok := f.value.(T)
	if !ok {
		return nil
	}
	return &v
}

func (f Field) AsBool() *bool       { return as[bool](f) }
func (f Field) AsInt8() *int8       { return as[int8](f) }
func (f Field) AsInt16() *int16     { return as[int16](f) }
func (f Field) AsInt32() *int32     { return as[int32](f) }
func (f Field) AsInt64() *int64     { return as[int64](f) }
func (f Field) AsUint8() *uint8     { return as[uint8](f) }
func (f Field) AsUint16() *uint16   { return as[uint16](f) }
func (f Field) AsUint32() *uint32   { return as[uint32](f) }
func (f Field) AsUint64() *uint64   { return as[uint64](f) }
func (f Field) AsFloat32() *float32 { return as[float32](f) }
func (f Field) AsFloat64() *float64 { return as[float64](f) }

// AsBigInt returns HUGEINT and UHUGEINT payloads, and every other integer
// payload widened.
func (f Field) AsBigInt() *big.Int {
	if !f.valid {
		return nil
	}
	switch v := f.value.(type) {
	case *big.Int:
		return new(big.Int).Set(v)
	case int8:
		return big.NewInt(int64(v))
	case int16:
		return big.NewInt(int64(v))
	case int32:
		return big.NewInt(int64(v))
	case int64:
		return big.NewInt(v)
	case uint8:
		return new(big.Int).SetUint64(uint64(v))
	case uint16:
		return new(big.Int).SetUint64(uint64(v))
	case uint32:
		return new(big.Int).SetUint64(uint64(v))
	case uint64:
		return new(big.Int).SetUint64(v)
	}
	return nil
}

func (f Field) AsDecimal() *decimal.Decimal { return as[decimal.Decimal](f) }
func (f Field) AsText() *string             { return as[string](f) }
func (f Field) AsTime() *time.Time          { return as[time.Time](f) }
func (f Field) AsInterval() *Interval       { return as[Interval](f) }
func (f Field) AsUUID() *uuid.UUID          { return as[uuid.UUID](f) }

func (f Field) AsBytes() []byte {
	if !f.valid {
		return nil
	}
	b, _ := f.value.([]byte)
	return b
}

// Items returns the elements of a LIST or ARRAY, the members of a STRUCT or
// the entries of a MAP. It is nil when the field is NULL.
func (f Field) Items() []Field {
	if !f.valid {
		return nil
	}
	return f.items
}

// Value converts the field into a plain Go value, nil when NULL. Nested
// values become []any, STRUCT becomes map[string]any and MAP becomes
// map[any]any.
func (f Field) Value() any {
	if !f.valid {
		return nil
	}
	switch f.id() {
	case TypeList, TypeArray:
		out := make([]any, len(f.items))
		for i, item := range f.items {
			out[i] = item.Value()
		}
		return out
	case TypeStruct:
		out := make(map[string]any, len(f.items))
		for i, item := range f.items {
			out[f.Type.Members[i].Name] = item.Value()
		}
		return out
	case TypeMap:
		out := make(map[any]any, len(f.items))
		for _, entry := range f.items {
			k, v, ok := entry.mapEntry()
			if !ok {
				continue
			}
			key := k.Value()
			switch key.(type) {
			case []byte, []any, map[string]any, map[any]any:
				key = k.String()
			}
			out[key] = v.Value()
		}
		return out
	}
	return f.value
}

// mapEntry splits a MAP entry into its key and value. NULL or malformed
// entries report false.
func (f Field) mapEntry() (key, value Field, ok bool) {
	if !f.valid || len(f.items) < 2 {
		return Field{}, Field{}, false
	}
	return f.items[0], f.items[1], true
}

func (f Field) String() string {
	if !f.valid {
		return "NULL"
	}
	switch f.id() {
	case TypeList, TypeArray:
		items := make([]string, len(f.items))
		for i, item := range f.items {
			items[i] = item.literal()
		}
		return "[" + strings.Join(items, ", ") + "]"
	case TypeStruct:
		items := make([]string, len(f.items))
		for i, item := range f.items {
			items[i] = fmt.Sprintf("'%s': %s", f.Type.Members[i].Name, item.literal())
		}
		return "{" + strings.Join(items, ", ") + "}"
	case TypeMap:
		items := make([]string, len(f.items))
		for i, entry := range f.items {
			k, v, ok := entry.mapEntry()
			if !ok {
				items[i] = "NULL"
				continue
			}
			items[i] = k.literal() + "=" + v.literal()
		}
		return "{" + strings.Join(items, ", ") + "}"
	case TypeDate:
		return f.value.(time.Time).Format("2006-01-02")
	case TypeTime:
		return f.value.(time.Time).Format("15:04:05.999999")
	case TypeTimestamp, TypeTimestampS, TypeTimestampMS:
		return f.value.(time.Time).Format("2006-01-02 15:04:05.999999")
	case TypeTimestampNS:
		return f.value.(time.Time).Format("2006-01-02 15:04:05.999999999")
	case TypeTimestampTZ:
		return f.value.(time.Time).Format("2006-01-02 15:04:05.999999-07")
	case TypeBlob:
		return `\x` + hex.EncodeToString(f.value.([]byte))
	}

	switch v := f.value.(type) {
	case string:
		return v
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(f.value)
}

// literal is String with text quoted, for use inside nested values.
func (f Field) literal() string {
	if f.valid && (f.id() == TypeVarchar || f.id() == TypeEnum) {
		return "'" + f.String() + "'"
	}
	return f.String()
}
