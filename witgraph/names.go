package witgraph

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"
)

func snake(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// typeName derives a C identifier for t from its structure:
// list<u8> is list_u8, result<u32, string> is result_u32_string.
func typeName(t wit.Type) string {
	switch typ := t.(type) {
	case nil:
		return "void"
	case wit.Bool:
		return "bool"
	case wit.S8:
		return "s8"
	case wit.U8:
		return "u8"
	case wit.S16:
		return "s16"
	case wit.U16:
		return "u16"
	case wit.S32:
		return "s32"
	case wit.U32:
		return "u32"
	case wit.S64:
		return "s64"
	case wit.U64:
		return "u64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if typ.Name != nil {
			return snake(*typ.Name)
		}
		return kindName(typ.Kind)
	}
	return "unknown"
}

func kindName(kind wit.TypeDefKind) string {
	switch k := kind.(type) {
	case *wit.List:
		return "list_" + typeName(k.Type)
	case *wit.Option:
		return "option_" + typeName(k.Type)
	case *wit.Result:
		return "result_" + typeName(k.OK) + "_" + typeName(k.Err)
	case *wit.Tuple:
		parts := make([]string, len(k.Types))
		for i, t := range k.Types {
			parts[i] = typeName(t)
		}
		return fmt.Sprintf("tuple%d_%s", len(k.Types), strings.Join(parts, "_"))
	case *wit.Own:
		return "own_" + handleName(k.Type)
	case *wit.Borrow:
		return "borrow_" + handleName(k.Type)
	case *wit.Record:
		return "record"
	case *wit.Variant:
		return "variant"
	case *wit.Enum:
		return "enum"
	case *wit.Flags:
		return "flags"
	case wit.Type:
		return typeName(k)
	}
	return "unknown"
}

func handleName(td *wit.TypeDef) string {
	if td == nil {
		return "handle"
	}
	return typeName(td)
}
