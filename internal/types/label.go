package types

import (
	"fmt"
	"strconv"
	"strings"

	"hydra/internal/source"
)

// Label returns a user-friendly label for a TypeID.
func Label(typesIn *Interner, id TypeID) string {
	return labelDepth(typesIn, id, 0)
}

func labelDepth(typesIn *Interner, id TypeID, depth int) string {
	if id == NoTypeID {
		return "?"
	}
	if depth > 6 {
		return "..."
	}
	if typesIn == nil {
		return "?"
	}
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindUnresolved:
		return "<unresolved>"
	case KindVoid:
		return "void"
	case KindNothing:
		return "none"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindInt:
		return formatIntType(tt.Width, true)
	case KindUint:
		return formatIntType(tt.Width, false)
	case KindFloat:
		return fmt.Sprintf("f%d", tt.Width)
	case KindConst:
		return strconv.FormatUint(uint64(tt.Count), 10)
	case KindGenericSize:
		return typesIn.sizeLabel(SizeValue{Param: tt.Param, Value: int64(tt.Offset)})
	case KindGenericType:
		return typesIn.paramName(tt.Param)
	case KindOptional:
		return labelDepth(typesIn, tt.Elem, depth+1) + "?"
	case KindHeap:
		return "heap " + labelDepth(typesIn, tt.Elem, depth+1)
	case KindArray:
		elem := labelDepth(typesIn, tt.Elem, depth+1)
		if tt.ElemConst {
			elem = "const " + elem
		}
		size := strconv.FormatUint(uint64(tt.Count), 10)
		if tt.HasGenericSize() {
			size = typesIn.sizeLabel(SizeValue{Param: tt.Param, Value: int64(tt.Offset)})
		}
		return "[" + elem + ", " + size + "]"
	case KindStruct:
		return formatStructType(typesIn, id, depth)
	case KindFn:
		info, ok := typesIn.FnInfo(id)
		if !ok || info == nil {
			return "fn(?)"
		}
		params := make([]string, len(info.Params))
		for i, param := range info.Params {
			params[i] = labelDepth(typesIn, param, depth+1)
		}
		ret := labelDepth(typesIn, info.Result, depth+1)
		return "fn(" + strings.Join(params, ", ") + ") -> " + ret
	default:
		return "?"
	}
}

func formatIntType(width Width, signed bool) string {
	prefix := "u"
	if signed {
		prefix = "i"
	}
	if width == WidthAny {
		return prefix + "size"
	}
	return fmt.Sprintf("%s%d", prefix, width)
}

func formatStructType(typesIn *Interner, id TypeID, depth int) string {
	info, ok := typesIn.StructInfo(id)
	if !ok || info == nil {
		return "?"
	}
	name := lookupNameFallback(typesIn.Strings, info.Name)
	args := typesIn.StructArgs(id)
	if len(args) == 0 {
		return name
	}
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = labelDepth(typesIn, arg, depth+1)
	}
	return name + "<" + strings.Join(parts, ", ") + ">"
}

func (in *Interner) sizeLabel(v SizeValue) string {
	if v.IsConcrete() {
		return strconv.FormatInt(v.Value, 10)
	}
	name := in.paramName(v.Param)
	switch {
	case v.Value > 0:
		return fmt.Sprintf("%s+%d", name, v.Value)
	case v.Value < 0:
		return fmt.Sprintf("%s-%d", name, -v.Value)
	}
	return name
}

func (in *Interner) paramName(p ParamID) string {
	info, ok := in.ParamInfo(p)
	if !ok {
		return "?"
	}
	return lookupNameFallback(in.Strings, info.Name)
}

func lookupNameFallback(strs *source.Interner, id source.StringID) string {
	if strs == nil {
		return "?"
	}
	if s, ok := strs.Lookup(id); ok && s != "" {
		return s
	}
	return "?"
}
