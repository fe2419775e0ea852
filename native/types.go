package native

/*
#include <duckdb.h>
*/
import "C"

import (
	"unsafe"

	"github.com/barsdeveloper/goduck"
)

// typeOf builds the descriptor of lt, recursing into nested types. lt stays
// owned by the caller.
func typeOf(lt C.duckdb_logical_type) *goduck.Type {
	id := goduck.TypeID(C.duckdb_get_type_id(lt))
	var t *goduck.Type

	switch id {
	case goduck.TypeDecimal:
		t = &goduck.Type{
			ID:      id,
			Width:   uint8(C.duckdb_decimal_width(lt)),
			Scale:   uint8(C.duckdb_decimal_scale(lt)),
			Storage: goduck.TypeID(C.duckdb_decimal_internal_type(lt)),
		}

	case goduck.TypeEnum:
		n := int(C.duckdb_enum_dictionary_size(lt))
		dict := make([]string, n)
		for i := range dict {
			dict[i] = takeString(C.duckdb_enum_dictionary_value(lt, C.idx_t(i)))
		}
		t = &goduck.Type{ID: id, Storage: goduck.TypeID(C.duckdb_enum_internal_type(lt)), Dictionary: dict}

	case goduck.TypeList:
		child := C.duckdb_list_type_child_type(lt)
		t = goduck.ListType(typeOf(child))
		C.duckdb_destroy_logical_type(&child)

	case goduck.TypeArray:
		child := C.duckdb_array_type_child_type(lt)
		t = goduck.ArrayType(typeOf(child), int(C.duckdb_array_type_array_size(lt)))
		C.duckdb_destroy_logical_type(&child)

	case goduck.TypeMap:
		key := C.duckdb_map_type_key_type(lt)
		value := C.duckdb_map_type_value_type(lt)
		t = goduck.MapType(typeOf(key), typeOf(value))
		C.duckdb_destroy_logical_type(&key)
		C.duckdb_destroy_logical_type(&value)

	case goduck.TypeStruct:
		n := int(C.duckdb_struct_type_child_count(lt))
		members := make([]goduck.Member, n)
		for i := range members {
			child := C.duckdb_struct_type_child_type(lt, C.idx_t(i))
			members[i] = goduck.Member{
				Name: takeString(C.duckdb_struct_type_child_name(lt, C.idx_t(i))),
				Type: typeOf(child),
			}
			C.duckdb_destroy_logical_type(&child)
		}
		t = goduck.StructType(members...)

	default:
		t = goduck.NewType(id)
	}

	if alias := C.duckdb_logical_type_get_alias(lt); alias != nil {
		t.Alias = takeString(alias)
	}
	return t
}

// takeString copies a string the engine allocated for us and frees it.
func takeString(s *C.char) string {
	if s == nil {
		return ""
	}
	defer C.duckdb_free(unsafe.Pointer(s))
	return C.GoString(s)
}
