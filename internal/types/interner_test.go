package types

import (
	"testing"

	"hydra/internal/source"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner(nil)
	b := in.Builtins()
	if b.Void == NoTypeID || b.Bool == NoTypeID || b.I32 == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	if b.Invalid != NoTypeID {
		t.Fatalf("invalid builtin must be the sentinel, got %d", b.Invalid)
	}
	for _, name := range PrimitiveNames() {
		id, ok := in.Primitive(name)
		if !ok {
			t.Fatalf("primitive %s missing", name)
		}
		if got := Label(in, id); got != name {
			t.Fatalf("label of %s = %q", name, got)
		}
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner(nil)
	i32 := in.Builtins().I32
	if in.Array(i32, 3, false) != in.Array(i32, 3, false) {
		t.Fatalf("array types should be deduplicated")
	}
	if in.Array(i32, 3, false) == in.Array(i32, 3, true) {
		t.Fatalf("element constness is part of array identity")
	}
	if in.Optional(in.Optional(i32)) != in.Optional(i32) {
		t.Fatalf("optionals must not nest")
	}
	f1 := in.RegisterFn([]TypeID{i32}, in.Builtins().Bool)
	f2 := in.RegisterFn([]TypeID{i32}, in.Builtins().Bool)
	if f1 != f2 {
		t.Fatalf("fn types should be deduplicated")
	}
}

func TestStructsAreNominal(t *testing.T) {
	strs := source.NewInterner()
	in := NewInterner(strs)
	a := in.RegisterStruct(strs.Intern("P"), source.Span{}, nil)
	b := in.RegisterStruct(strs.Intern("P"), source.Span{}, nil)
	if a == b {
		t.Fatalf("two declarations must produce distinct struct types")
	}
}

func TestGenericStructInstance(t *testing.T) {
	strs := source.NewInterner()
	in := NewInterner(strs)
	tp, tType := in.NewParam(strs.Intern("T"), ParamType, 0)
	np, _ := in.NewParam(strs.Intern("N"), ParamSize, 0)
	box := in.RegisterStruct(strs.Intern("Box"), source.Span{}, []ParamID{tp, np})
	in.SetStructFields(box, []StructField{
		{Name: strs.Intern("items"), Type: in.Intern(MakeGenericArray(tType, np, 0, false))},
		{Name: strs.Intern("first"), Type: tType},
	})

	i32 := in.Builtins().I32
	inst := in.Instantiate(box, []TypeID{i32, in.Intern(MakeConst(4))})
	if again := in.Instantiate(box, []TypeID{i32, in.Intern(MakeConst(4))}); again != inst {
		t.Fatalf("instances must be cached")
	}
	if got := Label(in, inst); got != "Box<i32, 4>" {
		t.Fatalf("unexpected label %q", got)
	}
	fields := in.StructFields(inst)
	if len(fields) != 2 || fields[0].Type != in.Array(i32, 4, false) || fields[1].Type != i32 {
		t.Fatalf("fields not substituted: %+v", fields)
	}
	if Label(in, box) != "Box<T, N>" {
		t.Fatalf("declaration label %q", Label(in, box))
	}
	if in.Instantiate(box, in.StructArgs(box)) != box {
		t.Fatalf("identity args must return the declaration")
	}
}
