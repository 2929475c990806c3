package sema_test

import (
	"testing"

	"hydra/internal/ast"
	"hydra/internal/ownership"
	"hydra/internal/sema"
	"hydra/internal/testkit"
)

func structClass(res *sema.Result, item ast.ItemID) ownership.Class {
	return res.Classifier.Classify(res.StructTypes[res.Symbols.ItemSymbols[item]])
}

func TestOwnershipContagion(t *testing.T) {
	p := testkit.NewProgram()
	inner := p.Struct("Inner", nil, p.FieldDecl("p", p.Heap(p.Named("i32"))))
	mid := p.Struct("Mid", nil, p.FieldDecl("i", p.Named("Inner")), p.FieldDecl("n", p.Named("i32")))
	outer := p.Struct("Outer", nil, p.FieldDecl("m", p.Array(p.Named("Mid"), 2)))
	flat := p.Struct("Flat", nil, p.FieldDecl("x", p.Named("i32")), p.FieldDecl("s", p.Named("string")))

	res := checkClean(t, p)
	for _, tc := range []struct {
		name string
		item ast.ItemID
		want ownership.Class
	}{
		{"Inner", inner, ownership.Heap},
		{"Mid", mid, ownership.Heap},
		{"Outer", outer, ownership.Heap},
		{"Flat", flat, ownership.Stack},
	} {
		if got := structClass(res, tc.item); got != tc.want {
			t.Fatalf("%s: class = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestOwnershipCyclicStruct(t *testing.T) {
	p := testkit.NewProgram()
	node := p.Struct("Node", nil,
		p.FieldDecl("value", p.Named("i32")),
		p.FieldDecl("next", p.Opt(p.Heap(p.Named("Node")))),
	)
	pair := p.Struct("Pair", nil, p.FieldDecl("a", p.Named("i32")), p.FieldDecl("b", p.Named("i32")))

	res := checkClean(t, p)
	if got := structClass(res, node); got != ownership.Heap {
		t.Fatalf("Node = %s", got)
	}
	if got := structClass(res, pair); got != ownership.Stack {
		t.Fatalf("Pair = %s", got)
	}
}

func TestOwnershipHeapConstructor(t *testing.T) {
	p := testkit.NewProgram()
	point := p.Struct("Point", nil, p.FieldDecl("x", p.Named("i32")), p.FieldDecl("y", p.Named("i32")))
	p.Method(point, "wrap", []ast.FnParam{p.Param("v", p.Heap(p.Named("Point")))}, p.Heap(p.Named("Point")),
		p.Return(p.Ident("v")))
	line := p.Struct("Line", nil, p.FieldDecl("a", p.Named("Point")), p.FieldDecl("b", p.Named("Point")))

	res := checkClean(t, p)
	if got := structClass(res, point); got != ownership.Heap {
		t.Fatalf("Point = %s", got)
	}
	if got := structClass(res, line); got != ownership.Heap {
		t.Fatalf("Line = %s", got)
	}
}

func TestOwnershipOfExpressions(t *testing.T) {
	p := testkit.NewProgram()
	heapSlice := p.HeapSlice(p.Ident("a"), 0, 2)
	refSlice := p.RefSlice(p.Ident("a"), 0, 2)
	sum := p.Bin(ast.OpAdd, p.Int(1), p.Int(2))
	p.Fn("main", nil, ast.NoTypeID,
		p.Let("a", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
		p.Let("h", ast.NoTypeID, heapSlice),
		p.Let("r", ast.NoTypeID, refSlice),
		p.Do(sum),
	)

	res := checkClean(t, p)
	for _, tc := range []struct {
		name string
		expr ast.ExprID
		want ownership.Class
	}{
		{"heap copy", heapSlice, ownership.Heap},
		{"reference", refSlice, ownership.Stack},
		{"arithmetic", sum, ownership.Stack},
	} {
		if got := res.Root.Ownership[tc.expr]; got != tc.want {
			t.Fatalf("%s: class = %s, want %s", tc.name, got, tc.want)
		}
	}
	for _, b := range res.Root.Bindings {
		want := ownership.Stack
		if b.Name == "h" {
			want = ownership.Heap
		}
		if b.Class != want {
			t.Fatalf("binding %s: class = %s, want %s", b.Name, b.Class, want)
		}
	}
}
