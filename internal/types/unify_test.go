package types

import (
	"errors"
	"testing"

	"hydra/internal/source"
)

func TestAssignable(t *testing.T) {
	in := NewInterner(nil)
	b := in.Builtins()
	tests := []struct {
		name     string
		dst, src TypeID
		want     bool
	}{
		{"same", b.I32, b.I32, true},
		{"widths differ", b.I64, b.I32, false},
		{"const elements copy", in.Array(b.I32, 3, true), in.Array(b.I32, 3, false), true},
		{"sizes differ", in.Array(b.I32, 3, false), in.Array(b.I32, 2, false), false},
		{"none into optional", in.Optional(b.I32), b.Nothing, true},
		{"value into optional", in.Optional(b.I32), b.I32, true},
		{"none into plain", b.I32, b.Nothing, false},
		{"unresolved is silent", b.Bool, b.Unresolved, true},
		{"heap is not its element", in.Heap(b.I32), b.I32, false},
	}
	for _, tt := range tests {
		if got := in.Assignable(tt.dst, tt.src); got != tt.want {
			t.Fatalf("%s: Assignable(%s, %s) = %v", tt.name, Label(in, tt.dst), Label(in, tt.src), got)
		}
	}
}

func TestUnify(t *testing.T) {
	in := NewInterner(nil)
	b := in.Builtins()
	if u, ok := in.Unify(b.I32, b.Nothing); !ok || u != in.Optional(b.I32) {
		t.Fatalf("i32 with none should give i32?, got %s", Label(in, u))
	}
	if u, ok := in.Unify(in.Optional(b.Bool), b.Bool); !ok || u != in.Optional(b.Bool) {
		t.Fatalf("bool? with bool should give bool?, got %s", Label(in, u))
	}
	if _, ok := in.Unify(b.I32, b.String); ok {
		t.Fatalf("i32 and string must not unify")
	}
	if u, ok := in.Unify(b.Unresolved, b.String); !ok || u != b.String {
		t.Fatalf("unresolved must adopt the other side")
	}
}

func TestMatchBindsSizesAndTypes(t *testing.T) {
	strs := source.NewInterner()
	in := NewInterner(strs)
	b := in.Builtins()
	np, _ := in.NewParam(strs.Intern("N"), ParamSize, 0)
	tp, tType := in.NewParam(strs.Intern("T"), ParamType, 0)

	param := in.Intern(MakeGenericArray(tType, np, -1, false)) // [T, N-1]
	s := NewSubst()
	if err := in.Match(param, in.Array(b.F64, 4, false), s); err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if v, _ := s.Size(np); v != (SizeValue{Value: 5}) {
		t.Fatalf("N should be 5, got %+v", v)
	}
	if got, _ := s.Type(tp); got != b.F64 {
		t.Fatalf("T should be f64, got %s", Label(in, got))
	}
	applied, err := in.Apply(param, s)
	if err != nil || applied != in.Array(b.F64, 4, false) {
		t.Fatalf("apply gave %s, %v", Label(in, applied), err)
	}

	// second argument with a different size conflicts
	if err := in.Match(param, in.Array(b.F64, 7, false), s); !errors.Is(err, ErrConflictingBinding) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestMatchSymbolicSize(t *testing.T) {
	strs := source.NewInterner()
	in := NewInterner(strs)
	b := in.Builtins()
	outer, _ := in.NewParam(strs.Intern("N"), ParamSize, 1)
	inner, _ := in.NewParam(strs.Intern("M"), ParamSize, 2)

	s := NewSubst()
	arg := in.Intern(MakeGenericArray(b.I32, outer, 0, false))
	if err := in.Match(in.Intern(MakeGenericArray(b.I32, inner, 0, false)), arg, s); err != nil {
		t.Fatalf("match failed: %v", err)
	}
	v, _ := s.Size(inner)
	if v.IsConcrete() || v.Param != outer {
		t.Fatalf("M should be bound to N, got %+v", v)
	}
	if !in.IsGeneric(arg) {
		t.Fatalf("array over N must be generic")
	}
}

func TestApplyNegativeSize(t *testing.T) {
	strs := source.NewInterner()
	in := NewInterner(strs)
	np, _ := in.NewParam(strs.Intern("N"), ParamSize, 0)
	arr := in.Intern(MakeGenericArray(in.Builtins().I32, np, -1, false))
	s := NewSubst()
	s.BindSize(np, SizeValue{Value: 0})
	if _, err := in.Apply(arr, s); !errors.Is(err, ErrNegativeSize) {
		t.Fatalf("expected ErrNegativeSize, got %v", err)
	}
	if Label(in, arr) != "[i32, N-1]" {
		t.Fatalf("unexpected label %q", Label(in, arr))
	}
}

func TestIntRange(t *testing.T) {
	in := NewInterner(nil)
	b := in.Builtins()
	lo, hi, ok := in.IntRange(b.I8)
	if !ok || lo != -128 || hi != 127 {
		t.Fatalf("i8 range %d..%d", lo, hi)
	}
	lo, hi, ok = in.IntRange(b.U16)
	if !ok || lo != 0 || hi != 65535 {
		t.Fatalf("u16 range %d..%d", lo, hi)
	}
}
