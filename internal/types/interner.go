package types

import (
	"fmt"

	"fortio.org/safecast"

	"hydra/internal/source"
)

// Builtins stores TypeIDs for primitive types.
type Builtins struct {
	Invalid    TypeID
	Unresolved TypeID
	Void       TypeID
	Nothing    TypeID
	Bool       TypeID
	Char       TypeID
	String     TypeID
	I8         TypeID
	I16        TypeID
	I32        TypeID
	I64        TypeID
	Isize      TypeID
	U8         TypeID
	U16        TypeID
	U32        TypeID
	U64        TypeID
	Usize      TypeID
	F32        TypeID
	F64        TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Structs are nominal: every RegisterStruct call yields a fresh id.
type Interner struct {
	Strings *source.Interner

	types     []Type
	index     map[typeKey]TypeID
	builtins  Builtins
	structs   []StructInfo
	instances map[instanceKey]TypeID
	fns       []FnInfo
	fnIndex   map[string]TypeID
	params    []ParamInfo
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner(strs *source.Interner) *Interner {
	if strs == nil {
		strs = source.NewInterner()
	}
	in := &Interner{
		Strings:   strs,
		index:     make(map[typeKey]TypeID, 64),
		instances: make(map[instanceKey]TypeID),
		fnIndex:   make(map[string]TypeID),
	}
	in.structs = append(in.structs, StructInfo{}) // reserve 0 as invalid sentinel
	in.fns = append(in.fns, FnInfo{})
	in.params = append(in.params, ParamInfo{})
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Unresolved = in.Intern(Type{Kind: KindUnresolved})
	in.builtins.Void = in.Intern(Type{Kind: KindVoid})
	in.builtins.Nothing = in.Intern(Type{Kind: KindNothing})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Char = in.Intern(Type{Kind: KindChar})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	in.builtins.I8 = in.Intern(MakeInt(Width8))
	in.builtins.I16 = in.Intern(MakeInt(Width16))
	in.builtins.I32 = in.Intern(MakeInt(Width32))
	in.builtins.I64 = in.Intern(MakeInt(Width64))
	in.builtins.Isize = in.Intern(MakeInt(WidthAny))
	in.builtins.U8 = in.Intern(MakeUint(Width8))
	in.builtins.U16 = in.Intern(MakeUint(Width16))
	in.builtins.U32 = in.Intern(MakeUint(Width32))
	in.builtins.U64 = in.Intern(MakeUint(Width64))
	in.builtins.Usize = in.Intern(MakeUint(WidthAny))
	in.builtins.F32 = in.Intern(MakeFloat(Width32))
	in.builtins.F64 = in.Intern(MakeFloat(Width64))
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Primitive maps a builtin type name to its TypeID.
func (in *Interner) Primitive(name string) (TypeID, bool) {
	b := in.builtins
	switch name {
	case "void":
		return b.Void, true
	case "bool":
		return b.Bool, true
	case "char":
		return b.Char, true
	case "string":
		return b.String, true
	case "i8":
		return b.I8, true
	case "i16":
		return b.I16, true
	case "i32":
		return b.I32, true
	case "i64":
		return b.I64, true
	case "isize":
		return b.Isize, true
	case "u8":
		return b.U8, true
	case "u16":
		return b.U16, true
	case "u32":
		return b.U32, true
	case "u64":
		return b.U64, true
	case "usize":
		return b.Usize, true
	case "f32":
		return b.F32, true
	case "f64":
		return b.F64, true
	}
	return NoTypeID, false
}

// PrimitiveNames lists the names accepted by Primitive.
func PrimitiveNames() []string {
	return []string{
		"void", "bool", "char", "string",
		"i8", "i16", "i32", "i64", "isize",
		"u8", "u16", "u32", "u64", "usize",
		"f32", "f64",
	}
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	key := typeKey(t)
	in.index[key] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Len reports the number of interned types including the invalid sentinel.
func (in *Interner) Len() int {
	return len(in.types)
}

// KindOf returns the kind of id, KindInvalid for unknown ids.
func (in *Interner) KindOf(id TypeID) Kind {
	tt, ok := in.Lookup(id)
	if !ok {
		return KindInvalid
	}
	return tt.Kind
}

// Array interns an array descriptor.
func (in *Interner) Array(elem TypeID, count uint32, elemConst bool) TypeID {
	return in.Intern(MakeArray(elem, count, elemConst))
}

// Optional interns T?. Optionals do not nest: (T?)? is T?.
func (in *Interner) Optional(elem TypeID) TypeID {
	if in.KindOf(elem) == KindOptional {
		return elem
	}
	return in.Intern(MakeOptional(elem))
}

// Heap interns heap T.
func (in *Interner) Heap(elem TypeID) TypeID {
	return in.Intern(MakeHeap(elem))
}

type typeKey Type
