package goduck

import (
	"fmt"
	"math"
	"strings"
)

// TypeID is the engine's native type tag for a column vector. The numbering
// follows duckdb.h.
type TypeID uint32

const (
	TypeInvalid     TypeID = 0
	TypeBoolean     TypeID = 1
	TypeTinyint     TypeID = 2
	TypeSmallint    TypeID = 3
	TypeInteger     TypeID = 4
	TypeBigint      TypeID = 5
	TypeUtinyint    TypeID = 6
	TypeUsmallint   TypeID = 7
	TypeUinteger    TypeID = 8
	TypeUbigint     TypeID = 9
	TypeFloat       TypeID = 10
	TypeDouble      TypeID = 11
	TypeTimestamp   TypeID = 12
	TypeDate        TypeID = 13
	TypeTime        TypeID = 14
	TypeInterval    TypeID = 15
	TypeHugeint     TypeID = 16
	TypeVarchar     TypeID = 17
	TypeBlob        TypeID = 18
	TypeDecimal     TypeID = 19
	TypeTimestampS  TypeID = 20
	TypeTimestampMS TypeID = 21
	TypeTimestampNS TypeID = 22
	TypeEnum        TypeID = 23
	TypeList        TypeID = 24
	TypeStruct      TypeID = 25
	TypeMap         TypeID = 26
	TypeUUID        TypeID = 27
	TypeUnion       TypeID = 28
	TypeBit         TypeID = 29
	TypeTimeTZ      TypeID = 30
	TypeTimestampTZ TypeID = 31
	TypeUhugeint    TypeID = 32
	TypeArray       TypeID = 33
	TypeAny         TypeID = 34
	TypeVarint      TypeID = 35
	TypeSQLNull     TypeID = 36
)

var typeNames = map[TypeID]string{
	TypeBoolean:     "BOOLEAN",
	TypeTinyint:     "TINYINT",
	TypeSmallint:    "SMALLINT",
	TypeInteger:     "INTEGER",
	TypeBigint:      "BIGINT",
	TypeUtinyint:    "UTINYINT",
	TypeUsmallint:   "USMALLINT",
	TypeUinteger:    "UINTEGER",
	TypeUbigint:     "UBIGINT",
	TypeFloat:       "FLOAT",
	TypeDouble:      "DOUBLE",
	TypeTimestamp:   "TIMESTAMP",
	TypeDate:        "DATE",
	TypeTime:        "TIME",
	TypeInterval:    "INTERVAL",
	TypeHugeint:     "HUGEINT",
	TypeVarchar:     "VARCHAR",
	TypeBlob:        "BLOB",
	TypeDecimal:     "DECIMAL",
	TypeTimestampS:  "TIMESTAMP_S",
	TypeTimestampMS: "TIMESTAMP_MS",
	TypeTimestampNS: "TIMESTAMP_NS",
	TypeEnum:        "ENUM",
	TypeList:        "LIST",
	TypeStruct:      "STRUCT",
	TypeMap:         "MAP",
	TypeUUID:        "UUID",
	TypeUnion:       "UNION",
	TypeBit:         "BIT",
	TypeTimeTZ:      "TIME WITH TIME ZONE",
	TypeTimestampTZ: "TIMESTAMP WITH TIME ZONE",
	TypeUhugeint:    "UHUGEINT",
	TypeArray:       "ARRAY",
	TypeAny:         "ANY",
	TypeVarint:      "VARINT",
	TypeSQLNull:     "NULL",
}

func (id TypeID) String() string {
	if name, ok := typeNames[id]; ok {
		return name
	}
	return fmt.Sprintf("TYPE(%d)", uint32(id))
}

// Known reports whether id is one of the tags the engine can produce.
func (id TypeID) Known() bool {
	_, ok := typeNames[id]
	return ok
}

// Member is one named field of a STRUCT type.
type Member struct {
	Name string
	Type *Type
}

// Type is the logical type of a column: what the decoder reads to know how a
// vector is laid out, and the descriptor a decoded Field carries.
type Type struct {
	ID TypeID

	// DECIMAL precision and scale.
	Width uint8
	Scale uint8
	// Physical storage of DECIMAL and ENUM values.
	Storage TypeID

	// Fixed length of an ARRAY.
	Size int
	// Element type of LIST and ARRAY, value type of MAP.
	Elem *Type
	// Key type of MAP.
	Key *Type

	Members    []Member
	Dictionary []string

	// Alias is the user facing name of an aliased type, e.g. JSON over VARCHAR.
	Alias string
}

// NewType returns the descriptor of a type that needs no parameters.
func NewType(id TypeID) *Type {
	return &Type{ID: id}
}

// DecimalType returns DECIMAL(width, scale) with the storage the engine uses
// for that width.
func DecimalType(width, scale uint8) *Type {
	return &Type{ID: TypeDecimal, Width: width, Scale: scale, Storage: decimalStorage(width)}
}

func decimalStorage(width uint8) TypeID {
	switch {
	case width <= 4:
		return TypeSmallint
	case width <= 9:
		return TypeInteger
	case width <= 18:
		return TypeBigint
	default:
		return TypeHugeint
	}
}

func ListType(elem *Type) *Type {
	return &Type{ID: TypeList, Elem: elem}
}

func ArrayType(elem *Type, size int) *Type {
	return &Type{ID: TypeArray, Elem: elem, Size: size}
}

func MapType(key, value *Type) *Type {
	return &Type{ID: TypeMap, Key: key, Elem: value}
}

func StructType(members ...Member) *Type {
	return &Type{ID: TypeStruct, Members: members}
}

func EnumType(dictionary ...string) *Type {
	storage := TypeUtinyint
	switch {
	case len(dictionary) > math.MaxUint16:
		storage = TypeUinteger
	case len(dictionary) > math.MaxUint8:
		storage = TypeUsmallint
	}
	return &Type{ID: TypeEnum, Storage: storage, Dictionary: dictionary}
}

// EntryType is the STRUCT(key, value) a MAP vector stores its entries as.
func (t *Type) EntryType() *Type {
	return StructType(Member{Name: "key", Type: t.Key}, Member{Name: "value", Type: t.Elem})
}

// Name renders the canonical name of the type, recursing into element
// types. Only the NULL type has no name.
func (t *Type) Name() (string, error) {
	if t == nil || t.ID == TypeSQLNull {
		return "", ErrNoTypeInfo
	}
	if t.Alias != "" {
		return t.Alias, nil
	}

	switch t.ID {
	case TypeDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", t.Width, t.Scale), nil
	case TypeList:
		elem, err := t.Elem.Name()
		if err != nil {
			return "", err
		}
		return elem + "[]", nil
	case TypeArray:
		elem, err := t.Elem.Name()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s[%d]", elem, t.Size), nil
	case TypeMap:
		key, err := t.Key.Name()
		if err != nil {
			return "", err
		}
		value, err := t.Elem.Name()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("MAP(%s,%s)", key, value), nil
	case TypeStruct:
		members := make([]string, 0, len(t.Members))
		for _, m := range t.Members {
			name, err := m.Type.Name()
			if err != nil {
				return "", err
			}
			members = append(members, m.Name+" "+name)
		}
		return "STRUCT(" + strings.Join(members, ", ") + ")", nil
	}

	return t.ID.String(), nil
}

func (t *Type) String() string {
	name, err := t.Name()
	if err != nil {
		return "NULL"
	}
	return name
}

// Equal compares two descriptors by name.
func (t *Type) Equal(other *Type) bool {
	a, errA := t.Name()
	b, errB := other.Name()
	if errA != nil || errB != nil {
		return errA != nil && errB != nil
	}
	return a == b
}
