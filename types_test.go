package goduck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestType_Name(t *testing.T) {
	tests := []struct {
		typ  *Type
		name string
	}{
		{NewType(TypeInteger), "INTEGER"},
		{NewType(TypeTimestampTZ), "TIMESTAMP WITH TIME ZONE"},
		{DecimalType(18, 3), "DECIMAL(18,3)"},
		{ListType(NewType(TypeVarchar)), "VARCHAR[]"},
		{ListType(ListType(NewType(TypeBigint))), "BIGINT[][]"},
		{ArrayType(NewType(TypeDouble), 3), "DOUBLE[3]"},
		{MapType(NewType(TypeVarchar), NewType(TypeInteger)), "MAP(VARCHAR,INTEGER)"},
		{
			StructType(Member{Name: "a", Type: NewType(TypeBoolean)}, Member{Name: "b", Type: ListType(NewType(TypeUUID))}),
			"STRUCT(a BOOLEAN, b UUID[])",
		},
		{EnumType("x", "y"), "ENUM"},
		{&Type{ID: TypeVarchar, Alias: "JSON"}, "JSON"},
		{&Type{ID: 99}, "TYPE(99)"},
	}

	for _, test := range tests {
		name, err := test.typ.Name()
		assert.NoError(t, err)
		assert.Equal(t, test.name, name)
		assert.Equal(t, test.name, test.typ.String())
	}
}

func TestType_NameNull(t *testing.T) {
	_, err := NewType(TypeSQLNull).Name()
	assert.ErrorIs(t, err, ErrNoTypeInfo)

	var missing *Type
	_, err = missing.Name()
	assert.ErrorIs(t, err, ErrNoTypeInfo)

	_, err = ListType(NewType(TypeSQLNull)).Name()
	assert.ErrorIs(t, err, ErrNoTypeInfo)
	assert.Equal(t, "NULL", NewType(TypeSQLNull).String())
}

func TestType_storage(t *testing.T) {
	tests := []struct {
		width   uint8
		storage TypeID
	}{
		{1, TypeSmallint},
		{4, TypeSmallint},
		{5, TypeInteger},
		{9, TypeInteger},
		{10, TypeBigint},
		{18, TypeBigint},
		{19, TypeHugeint},
		{38, TypeHugeint},
	}
	for _, test := range tests {
		assert.Equal(t, test.storage, DecimalType(test.width, 0).Storage, test.width)
	}

	assert.Equal(t, TypeUtinyint, EnumType("a").Storage)
	assert.Equal(t, TypeUtinyint, EnumType(make([]string, 255)...).Storage)
	assert.Equal(t, TypeUsmallint, EnumType(make([]string, 256)...).Storage)
	assert.Equal(t, TypeUsmallint, EnumType(make([]string, 65535)...).Storage)
	assert.Equal(t, TypeUinteger, EnumType(make([]string, 65536)...).Storage)
}

func TestType_EntryType(t *testing.T) {
	m := MapType(NewType(TypeVarchar), NewType(TypeBigint))
	entry := m.EntryType()
	assert.Equal(t, "STRUCT(key VARCHAR, value BIGINT)", entry.String())
	assert.True(t, entry.Equal(StructType(
		Member{Name: "key", Type: NewType(TypeVarchar)},
		Member{Name: "value", Type: NewType(TypeBigint)},
	)))
}

func TestType_Equal(t *testing.T) {
	assert.True(t, DecimalType(10, 2).Equal(DecimalType(10, 2)))
	assert.False(t, DecimalType(10, 2).Equal(DecimalType(10, 3)))
	assert.True(t, NewType(TypeSQLNull).Equal(NewType(TypeSQLNull)))
	assert.False(t, NewType(TypeSQLNull).Equal(NewType(TypeInteger)))
}

func TestTypeID_Known(t *testing.T) {
	assert.True(t, TypeUhugeint.Known())
	assert.True(t, TypeSQLNull.Known())
	assert.False(t, TypeInvalid.Known())
	assert.False(t, TypeID(200).Known())
}
