package sema_test

import (
	"fmt"
	"slices"
	"testing"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/testkit"
)

func declare(p *testkit.Program, mutable bool, name string, typ ast.TypeID, value ast.ExprID) ast.StmtID {
	if mutable {
		return p.Let(name, typ, value)
	}
	return p.Const(name, typ, value)
}

func TestArrayElementMutation(t *testing.T) {
	tests := []struct {
		bindingMutable bool
		elemMutable    bool
		want           diag.Code
	}{
		{true, true, diag.UnknownCode},
		{true, false, diag.SemaConstElementAssignment},
		{false, true, diag.SemaConstAssignment},
		{false, false, diag.SemaConstAssignment},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("binding=%v/elem=%v", tt.bindingMutable, tt.elemMutable), func(t *testing.T) {
			p := testkit.NewProgram()
			typ := p.ConstArray(p.Named("i32"), 3)
			if tt.elemMutable {
				typ = p.Array(p.Named("i32"), 3)
			}
			p.Fn("main", nil, ast.NoTypeID,
				declare(p, tt.bindingMutable, "a", typ, p.Ints(1, 2, 3)),
				p.Do(p.Assign(p.Index(p.Ident("a"), p.Int(0)), p.Int(100))),
			)
			_, bag := check(t, p)
			got := testkit.ErrorCodes(bag)
			if tt.want == diag.UnknownCode {
				if len(got) != 0 {
					t.Fatalf("unexpected diagnostics:\n%s", testkit.Dump(bag))
				}
				return
			}
			if !slices.Equal(got, []diag.Code{tt.want}) {
				t.Fatalf("codes = %v, want [%v]:\n%s", got, tt.want, testkit.Dump(bag))
			}
		})
	}
}

func TestSliceMutationTable(t *testing.T) {
	for _, kind := range []ast.SliceKind{ast.SliceReference, ast.SliceHeapCopy} {
		for _, srcMutable := range []bool{true, false} {
			for _, srcElemMutable := range []bool{true, false} {
				for _, sliceMutable := range []bool{true, false} {
					name := fmt.Sprintf("%s/src=%v/elem=%v/slice=%v", kind, srcMutable, srcElemMutable, sliceMutable)
					t.Run(name, func(t *testing.T) {
						p := testkit.NewProgram()
						typ := p.ConstArray(p.Named("i32"), 3)
						if srcElemMutable {
							typ = p.Array(p.Named("i32"), 3)
						}
						slice := p.Slice(kind, p.Ident("a"), p.Int(0), p.Int(2), false)
						p.Fn("main", nil, ast.NoTypeID,
							declare(p, srcMutable, "a", typ, p.Ints(1, 2, 3)),
							declare(p, sliceMutable, "s", p.Array(p.Named("i32"), 2), slice),
							p.Do(p.Assign(p.Index(p.Ident("s"), p.Int(0)), p.Int(1))),
						)
						res, bag := check(t, p)

						permitted := sliceMutable
						if kind == ast.SliceReference {
							permitted = srcMutable && srcElemMutable && sliceMutable
						}
						var want []diag.Code
						switch {
						case !sliceMutable:
							want = []diag.Code{diag.SemaConstAssignment}
						case !permitted:
							want = []diag.Code{diag.SemaSliceOfImmutableSource}
						}
						if got := testkit.ErrorCodes(bag); !slices.Equal(got, want) {
							t.Fatalf("codes = %v, want %v:\n%s", got, want, testkit.Dump(bag))
						}
						view := res.Root.Slices[slice]
						if view == nil {
							t.Fatalf("slice view not recorded")
						}
						if view.Permits(sliceMutable) != permitted {
							t.Fatalf("Permits(%v) = %v, want %v (view %+v)", sliceMutable, !permitted, permitted, view)
						}
					})
				}
			}
		}
	}
}

func TestMutabilityScenarios(t *testing.T) {
	tests := []struct {
		name  string
		build func(p *testkit.Program) []ast.StmtID
		want  []diag.Code
	}{
		{"mutable array element", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Let("a", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Do(p.Assign(p.Index(p.Ident("a"), p.Int(0)), p.Int(100))),
			}
		}, nil},
		{"const element", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Let("b", p.ConstArray(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Do(p.Assign(p.Index(p.Ident("b"), p.Int(0)), p.Int(100))),
			}
		}, []diag.Code{diag.SemaConstElementAssignment}},
		{"slice of immutable array", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("arr2", p.Array(p.Named("i32"), 5), p.Ints(1, 2, 3, 4, 5)),
				p.Let("s", p.Array(p.Named("i32"), 2), p.RefSlice(p.Ident("arr2"), 0, 2)),
				p.Do(p.Assign(p.Index(p.Ident("s"), p.Int(0)), p.Int(1))),
			}
		}, []diag.Code{diag.SemaSliceOfImmutableSource}},
		{"copy keeps the view", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("src", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Const("s", ast.NoTypeID, p.RefSlice(p.Ident("src"), 0, 2)),
				p.Let("t", ast.NoTypeID, p.Ident("s")),
				p.Do(p.Assign(p.Index(p.Ident("t"), p.Int(1)), p.Int(1))),
			}
		}, []diag.Code{diag.SemaSliceOfImmutableSource}},
		{"slice of a slice", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("src", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Let("s", ast.NoTypeID, p.RefSlice(p.Ident("src"), 0, 3)),
				p.Let("t", ast.NoTypeID, p.RefSlice(p.Ident("s"), 1, 2)),
				p.Do(p.Assign(p.Index(p.Ident("t"), p.Int(0)), p.Int(1))),
			}
		}, []diag.Code{diag.SemaSliceOfImmutableSource}},
		{"heap copy of a read-only view", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("src", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Let("s", ast.NoTypeID, p.RefSlice(p.Ident("src"), 0, 3)),
				p.Let("h", ast.NoTypeID, p.HeapSlice(p.Ident("s"), 0, 2)),
				p.Do(p.Assign(p.Index(p.Ident("h"), p.Int(0)), p.Int(1))),
			}
		}, nil},
		{"reassignment replaces the view", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("ro", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Let("rw", p.Array(p.Named("i32"), 3), p.Ints(4, 5, 6)),
				p.Let("s", ast.NoTypeID, p.RefSlice(p.Ident("ro"), 0, 2)),
				p.Do(p.Assign(p.Ident("s"), p.RefSlice(p.Ident("rw"), 0, 2))),
				p.Do(p.Assign(p.Index(p.Ident("s"), p.Int(0)), p.Int(1))),
			}
		}, nil},
		{"reassignment to a read-only view", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("ro", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Let("rw", p.Array(p.Named("i32"), 3), p.Ints(4, 5, 6)),
				p.Let("s", ast.NoTypeID, p.RefSlice(p.Ident("rw"), 0, 2)),
				p.Do(p.Assign(p.Ident("s"), p.RefSlice(p.Ident("ro"), 0, 2))),
				p.Do(p.Assign(p.Index(p.Ident("s"), p.Int(0)), p.Int(1))),
			}
		}, []diag.Code{diag.SemaSliceOfImmutableSource}},
		{"branch joins views", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("ro", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Let("rw", p.Array(p.Named("i32"), 3), p.Ints(4, 5, 6)),
				p.Let("c", ast.NoTypeID, p.Bool(true)),
				p.Let("s", ast.NoTypeID, p.RefSlice(p.Ident("ro"), 0, 2)),
				p.If(p.Ident("c"), p.Block(p.Do(p.Assign(p.Ident("s"), p.RefSlice(p.Ident("rw"), 0, 2)))), ast.NoStmtID),
				p.Do(p.Assign(p.Index(p.Ident("s"), p.Int(0)), p.Int(1))),
			}
		}, []diag.Code{diag.SemaSliceOfImmutableSource}},
		{"both branches rebind", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("ro", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Let("rw", p.Array(p.Named("i32"), 3), p.Ints(4, 5, 6)),
				p.Let("c", ast.NoTypeID, p.Bool(true)),
				p.Let("s", ast.NoTypeID, p.RefSlice(p.Ident("ro"), 0, 2)),
				p.If(p.Ident("c"),
					p.Block(p.Do(p.Assign(p.Ident("s"), p.RefSlice(p.Ident("rw"), 0, 2)))),
					p.Block(p.Do(p.Assign(p.Ident("s"), p.RefSlice(p.Ident("rw"), 1, 3))))),
				p.Do(p.Assign(p.Index(p.Ident("s"), p.Int(0)), p.Int(1))),
			}
		}, nil},
		{"write inside the branch that rebinds", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("ro", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Let("rw", p.Array(p.Named("i32"), 3), p.Ints(4, 5, 6)),
				p.Let("c", ast.NoTypeID, p.Bool(true)),
				p.Let("s", ast.NoTypeID, p.RefSlice(p.Ident("ro"), 0, 2)),
				p.If(p.Ident("c"), p.Block(
					p.Do(p.Assign(p.Ident("s"), p.RefSlice(p.Ident("rw"), 0, 2))),
					p.Do(p.Assign(p.Index(p.Ident("s"), p.Int(0)), p.Int(1))),
				), ast.NoStmtID),
			}
		}, nil},
		{"loop carries a later rebinding", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("ro", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Let("rw", p.Array(p.Named("i32"), 3), p.Ints(4, 5, 6)),
				p.Let("s", ast.NoTypeID, p.RefSlice(p.Ident("rw"), 0, 2)),
				p.ForRange("i", p.Int(0), p.Int(3), false, p.Block(
					p.Do(p.Assign(p.Index(p.Ident("s"), p.Int(0)), p.Int(1))),
					p.Do(p.Assign(p.Ident("s"), p.RefSlice(p.Ident("ro"), 0, 2))),
				)),
			}
		}, []diag.Code{diag.SemaSliceOfImmutableSource}},
		{"increment of constant", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("n", ast.NoTypeID, p.Int(1)),
				p.Do(p.Un(ast.OpPostInc, p.Ident("n"))),
			}
		}, []diag.Code{diag.SemaConstAssignment}},
		{"compound assignment", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Let("n", ast.NoTypeID, p.Int(1)),
				p.Do(p.CompoundAssign(ast.OpAdd, p.Ident("n"), p.Int(2))),
				p.Const("m", ast.NoTypeID, p.Int(1)),
				p.Do(p.CompoundAssign(ast.OpMul, p.Ident("m"), p.Int(2))),
			}
		}, []diag.Code{diag.SemaConstAssignment}},
		{"field of immutable struct", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("pt", ast.NoTypeID, p.StructLit(p.Named("Pt"), p.Init("x", p.Int(1)))),
				p.Do(p.Assign(p.Field(p.Ident("pt"), "x"), p.Int(2))),
			}
		}, []diag.Code{diag.SemaConstAssignment}},
		{"loop variable", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.ForRange("i", p.Int(0), p.Int(3), false, p.Block(p.Do(p.Assign(p.Ident("i"), p.Int(0))))),
			}
		}, []diag.Code{diag.SemaConstAssignment}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testkit.NewProgram()
			p.Struct("Pt", nil, p.FieldDecl("x", p.Named("i32")))
			p.Fn("main", nil, ast.NoTypeID, tt.build(p)...)
			_, bag := check(t, p)
			if got := testkit.ErrorCodes(bag); !slices.Equal(got, tt.want) {
				t.Fatalf("codes = %v, want %v:\n%s", got, tt.want, testkit.Dump(bag))
			}
		})
	}
}

func TestConstAssignmentPointsAtDeclaration(t *testing.T) {
	p := testkit.NewProgram()
	p.Fn("main", nil, ast.NoTypeID,
		p.Const("x", ast.NoTypeID, p.Int(1)),
		p.Do(p.Assign(p.Ident("x"), p.Int(2))),
	)
	_, bag := check(t, p)
	d := expectCode(t, bag, diag.SemaConstAssignment)
	if len(d.Notes) != 1 || d.Notes[0].Msg != "'x' declared here" {
		t.Fatalf("notes = %+v", d.Notes)
	}
	if d.Code.Category() != diag.CategoryMutabilityViolation {
		t.Fatalf("category = %v", d.Code.Category())
	}
}

func TestSliceRangeErrors(t *testing.T) {
	tests := []struct {
		name  string
		slice func(p *testkit.Program) ast.ExprID
		want  diag.Code
	}{
		{"past the end", func(p *testkit.Program) ast.ExprID {
			return p.RefSlice(p.Ident("a"), 1, 4)
		}, diag.SemaSliceRangeOutOfBounds},
		{"inclusive past the end", func(p *testkit.Program) ast.ExprID {
			return p.Slice(ast.SliceReference, p.Ident("a"), p.Int(0), p.Int(3), true)
		}, diag.SemaSliceRangeOutOfBounds},
		{"reversed", func(p *testkit.Program) ast.ExprID {
			return p.RefSlice(p.Ident("a"), 2, 1)
		}, diag.SemaInvalidSliceRange},
		{"negative start", func(p *testkit.Program) ast.ExprID {
			return p.Slice(ast.SliceHeapCopy, p.Ident("a"), p.Un(ast.OpNeg, p.Int(1)), p.Int(1), false)
		}, diag.SemaSliceRangeOutOfBounds},
		{"temporary source", func(p *testkit.Program) ast.ExprID {
			return p.RefSlice(p.Ints(1, 2, 3), 0, 1)
		}, diag.SemaSliceOfTemporary},
		{"runtime bound", func(p *testkit.Program) ast.ExprID {
			return p.Slice(ast.SliceReference, p.Ident("a"), p.Int(0), p.Ident("n"), false)
		}, diag.SemaSliceBoundsNotConstant},
		{"not an array", func(p *testkit.Program) ast.ExprID {
			return p.RefSlice(p.Ident("n"), 0, 1)
		}, diag.SemaSliceOfNonArray},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testkit.NewProgram()
			p.Fn("main", nil, ast.NoTypeID,
				p.Let("a", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Let("n", ast.NoTypeID, p.Int(2)),
				p.Do(tt.slice(p)),
			)
			_, bag := check(t, p)
			if got := testkit.ErrorCodes(bag); !slices.Equal(got, []diag.Code{tt.want}) {
				t.Fatalf("codes = %v, want [%v]:\n%s", got, tt.want, testkit.Dump(bag))
			}
		})
	}
}

func TestSliceLengthFromConstantBounds(t *testing.T) {
	p := testkit.NewProgram()
	inclusive := p.Slice(ast.SliceReference, p.Ident("a"), p.Ident("lo"), p.Ident("hi"), true)
	p.Fn("main", nil, ast.NoTypeID,
		p.Let("a", p.Array(p.Named("i32"), 5), p.Ints(1, 2, 3, 4, 5)),
		p.Const("lo", ast.NoTypeID, p.Int(1)),
		p.Const("hi", ast.NoTypeID, p.Bin(ast.OpAdd, p.Ident("lo"), p.Int(2))),
		p.Let("s", p.Array(p.Named("i32"), 3), inclusive),
		p.Let("bad", p.Array(p.Named("i32"), 4), p.RefSlice(p.Ident("a"), 0, 2)),
	)
	res, bag := check(t, p)
	if got := testkit.ErrorCodes(bag); !slices.Equal(got, []diag.Code{diag.SemaSliceLengthMismatch}) {
		t.Fatalf("codes = %v:\n%s", got, testkit.Dump(bag))
	}
	view := res.Root.Slices[inclusive]
	if view.Start != 1 || view.End != 4 {
		t.Fatalf("range = %d..%d, want 1..4", view.Start, view.End)
	}
}

func TestViewsFollowValues(t *testing.T) {
	tests := []struct {
		name  string
		build func(p *testkit.Program) []ast.StmtID
		want  []diag.Code
	}{
		{"struct field holds a read-only slice", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("a", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Let("h", ast.NoTypeID, p.StructLit(p.Named("H"), p.Init("s", p.RefSlice(p.Ident("a"), 0, 2)))),
				p.Do(p.Assign(p.Index(p.Field(p.Ident("h"), "s"), p.Int(0)), p.Int(9))),
			}
		}, []diag.Code{diag.SemaSliceOfImmutableSource}},
		{"struct field holds a writable slice", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Let("a", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Let("h", ast.NoTypeID, p.StructLit(p.Named("H"), p.Init("s", p.RefSlice(p.Ident("a"), 0, 2)))),
				p.Do(p.Assign(p.Index(p.Field(p.Ident("h"), "s"), p.Int(0)), p.Int(9))),
			}
		}, nil},
		{"nested field", func(p *testkit.Program) []ast.StmtID {
			inner := p.StructLit(p.Named("H"), p.Init("s", p.RefSlice(p.Ident("a"), 0, 2)))
			return []ast.StmtID{
				p.Const("a", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Let("o", ast.NoTypeID, p.StructLit(p.Named("Outer"), p.Init("inner", inner))),
				p.Do(p.Assign(p.Index(p.Field(p.Field(p.Ident("o"), "inner"), "s"), p.Int(0)), p.Int(9))),
			}
		}, []diag.Code{diag.SemaSliceOfImmutableSource}},
		{"field copied out of the struct", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("a", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Let("h", ast.NoTypeID, p.StructLit(p.Named("H"), p.Init("s", p.RefSlice(p.Ident("a"), 0, 2)))),
				p.Let("s", ast.NoTypeID, p.Field(p.Ident("h"), "s")),
				p.Do(p.Assign(p.Index(p.Ident("s"), p.Int(0)), p.Int(9))),
			}
		}, []diag.Code{diag.SemaSliceOfImmutableSource}},
		{"field assigned a read-only slice", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("a", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Let("h", ast.NoTypeID, p.StructLit(p.Named("H"), p.Init("s", p.Ints(7, 8)))),
				p.Do(p.Assign(p.Index(p.Field(p.Ident("h"), "s"), p.Int(0)), p.Int(9))),
				p.Do(p.Assign(p.Field(p.Ident("h"), "s"), p.RefSlice(p.Ident("a"), 0, 2))),
				p.Do(p.Assign(p.Index(p.Field(p.Ident("h"), "s"), p.Int(1)), p.Int(9))),
			}
		}, []diag.Code{diag.SemaSliceOfImmutableSource}},
		{"match arms join views", func(p *testkit.Program) []ast.StmtID {
			m := p.Match(p.Bool(true),
				p.LitArm(p.Bool(true), p.RefSlice(p.Ident("rw"), 0, 2)),
				p.WildArm(p.RefSlice(p.Ident("a"), 1, 3)))
			return []ast.StmtID{
				p.Const("a", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Let("rw", p.Array(p.Named("i32"), 3), p.Ints(4, 5, 6)),
				p.Let("s", ast.NoTypeID, m),
				p.Do(p.Assign(p.Index(p.Ident("s"), p.Int(0)), p.Int(9))),
			}
		}, []diag.Code{diag.SemaSliceOfImmutableSource}},
		{"match arms over writable views", func(p *testkit.Program) []ast.StmtID {
			m := p.Match(p.Bool(true),
				p.LitArm(p.Bool(true), p.RefSlice(p.Ident("rw"), 0, 2)),
				p.WildArm(p.RefSlice(p.Ident("rw"), 1, 3)))
			return []ast.StmtID{
				p.Let("rw", p.Array(p.Named("i32"), 3), p.Ints(4, 5, 6)),
				p.Let("s", ast.NoTypeID, m),
				p.Do(p.Assign(p.Index(p.Ident("s"), p.Int(0)), p.Int(9))),
			}
		}, nil},
		{"read-only slice to a writing parameter", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("a", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Do(p.Call("poke", p.RefSlice(p.Ident("a"), 0, 2))),
			}
		}, []diag.Code{diag.SemaSliceOfImmutableSource}},
		{"read-only slice to a reading parameter", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("a", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Do(p.Call("peek", p.RefSlice(p.Ident("a"), 0, 2))),
			}
		}, nil},
		{"writable slice to a writing parameter", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Let("a", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Do(p.Call("poke", p.RefSlice(p.Ident("a"), 0, 2))),
			}
		}, nil},
		{"parameter passed on to a writer", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("a", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Do(p.Call("relay", p.RefSlice(p.Ident("a"), 0, 2))),
			}
		}, []diag.Code{diag.SemaSliceOfImmutableSource}},
		{"parameter copied into a local", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("a", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Do(p.Call("sneak", p.RefSlice(p.Ident("a"), 0, 2))),
			}
		}, []diag.Code{diag.SemaSliceOfImmutableSource}},
		{"struct with a read-only field to a writing parameter", func(p *testkit.Program) []ast.StmtID {
			return []ast.StmtID{
				p.Const("a", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
				p.Do(p.Call("pokeField", p.StructLit(p.Named("H"), p.Init("s", p.RefSlice(p.Ident("a"), 0, 2))))),
			}
		}, []diag.Code{diag.SemaSliceOfImmutableSource}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testkit.NewProgram()
			pair := func() ast.TypeID { return p.Array(p.Named("i32"), 2) }
			p.Struct("H", nil, p.FieldDecl("s", pair()))
			p.Struct("Outer", nil, p.FieldDecl("inner", p.Named("H")))
			p.Fn("main", nil, ast.NoTypeID, tt.build(p)...)
			p.Fn("poke", []ast.FnParam{p.MutParam("s", pair())}, ast.NoTypeID,
				p.Do(p.Assign(p.Index(p.Ident("s"), p.Int(0)), p.Int(9))))
			p.Fn("peek", []ast.FnParam{p.Param("s", pair())}, p.Named("i32"),
				p.Return(p.Index(p.Ident("s"), p.Int(0))))
			p.Fn("relay", []ast.FnParam{p.Param("s", pair())}, ast.NoTypeID,
				p.Do(p.Call("poke", p.Ident("s"))))
			p.Fn("sneak", []ast.FnParam{p.Param("s", pair())}, ast.NoTypeID,
				p.Let("t", ast.NoTypeID, p.Ident("s")),
				p.Do(p.Assign(p.Index(p.Ident("t"), p.Int(0)), p.Int(9))))
			p.Fn("pokeField", []ast.FnParam{p.MutParam("h", p.Named("H"))}, ast.NoTypeID,
				p.Do(p.Assign(p.Index(p.Field(p.Ident("h"), "s"), p.Int(0)), p.Int(9))))

			_, bag := check(t, p)
			if got := testkit.ErrorCodes(bag); !slices.Equal(got, tt.want) {
				t.Fatalf("codes = %v, want %v:\n%s", got, tt.want, testkit.Dump(bag))
			}
		})
	}
}
