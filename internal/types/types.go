package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindUnresolved poisons expressions whose type could not be computed;
	// checks that meet it stay silent.
	KindUnresolved
	KindVoid
	KindNothing // type of the none literal
	KindBool
	KindChar
	KindString
	KindInt
	KindUint
	KindFloat
	KindArray
	KindStruct
	KindFn
	KindOptional
	KindHeap
	KindGenericSize
	KindGenericType
	KindConst // size argument of a generic struct instance
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnresolved:
		return "unresolved"
	case KindVoid:
		return "void"
	case KindNothing:
		return "nothing"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindFn:
		return "fn"
	case KindOptional:
		return "optional"
	case KindHeap:
		return "heap"
	case KindGenericSize:
		return "generic-size"
	case KindGenericType:
		return "generic-type"
	case KindConst:
		return "const"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers/floats. WidthAny is the
// pointer-sized isize/usize.
type Width uint8

const (
	WidthAny Width = 0
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
)

// Type is a compact descriptor for any supported type.
//
// Arrays carry either a concrete Count or a size placeholder: the size is then
// value(Param)+Offset and becomes concrete once a substitution binds Param.
type Type struct {
	Kind      Kind
	Elem      TypeID  // array, optional, heap
	Count     uint32  // concrete array size; value of KindConst
	Width     Width   // numeric primitives
	ElemConst bool    // arrays: elements are immutable
	Param     ParamID // placeholder of KindGeneric*, size placeholder of arrays
	Offset    int32   // added to the placeholder value
	Payload   uint32  // struct / fn slot
}

// Descriptor helpers ---------------------------------------------------------

// MakeInt describes a signed integer of the given width (WidthAny for isize).
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeUint describes an unsigned integer type.
func MakeUint(width Width) Type {
	return Type{Kind: KindUint, Width: width}
}

// MakeFloat describes a floating-point type.
func MakeFloat(width Width) Type {
	return Type{Kind: KindFloat, Width: width}
}

// MakeArray describes a fixed-size array.
func MakeArray(elem TypeID, count uint32, elemConst bool) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count, ElemConst: elemConst}
}

// MakeGenericArray describes an array whose size is value(param)+offset.
func MakeGenericArray(elem TypeID, param ParamID, offset int32, elemConst bool) Type {
	return Type{Kind: KindArray, Elem: elem, Param: param, Offset: offset, ElemConst: elemConst}
}

// MakeOptional describes T?.
func MakeOptional(elem TypeID) Type {
	return Type{Kind: KindOptional, Elem: elem}
}

// MakeHeap describes heap T.
func MakeHeap(elem TypeID) Type {
	return Type{Kind: KindHeap, Elem: elem}
}

// MakeConst describes a concrete size argument.
func MakeConst(value uint32) Type {
	return Type{Kind: KindConst, Count: value}
}

// MakeGenericSize describes the size placeholder param plus offset.
func MakeGenericSize(param ParamID, offset int32) Type {
	return Type{Kind: KindGenericSize, Param: param, Offset: offset}
}

// MakeGenericType describes the type placeholder param.
func MakeGenericType(param ParamID) Type {
	return Type{Kind: KindGenericType, Param: param}
}

// HasGenericSize reports whether an array descriptor still waits for its size.
func (t Type) HasGenericSize() bool {
	return t.Kind == KindArray && t.Param != NoParamID
}
