package ownership

import (
	"testing"

	"hydra/internal/source"
	"hydra/internal/types"
)

type fixture struct {
	in  *types.Interner
	b   types.Builtins
	pos uint32
}

func newFixture() *fixture {
	in := types.NewInterner(nil)
	return &fixture{in: in, b: in.Builtins()}
}

func (f *fixture) structType(name string, fields ...types.StructField) types.TypeID {
	f.pos += 2
	id := f.in.RegisterStruct(f.in.Strings.Intern(name), source.Span{File: 1, Start: f.pos, End: f.pos + 1}, nil)
	if len(fields) > 0 {
		f.in.SetStructFields(id, fields)
	}
	return id
}

func (f *fixture) field(name string, typ types.TypeID) types.StructField {
	return types.StructField{Name: f.in.Strings.Intern(name), Type: typ}
}

func TestClassifyBasics(t *testing.T) {
	f := newFixture()
	c := New(f.in)
	heapInt := f.in.Heap(f.b.I32)

	cases := []struct {
		name string
		typ  types.TypeID
		want Class
	}{
		{"primitive", f.b.I32, Stack},
		{"string", f.b.String, Stack},
		{"heap", heapInt, Heap},
		{"array of stack", f.in.Array(f.b.I32, 3, false), Stack},
		{"array of heap", f.in.Array(heapInt, 3, false), Heap},
		{"optional heap", f.in.Optional(heapInt), Heap},
		{"optional stack", f.in.Optional(f.b.Bool), Stack},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.typ); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestClassifyContagion(t *testing.T) {
	f := newFixture()
	c := New(f.in)
	plain := f.structType("Plain", f.field("x", f.b.I32))
	mixed := f.structType("Mixed", f.field("p", plain), f.field("h", f.in.Heap(f.b.I32)))
	outer := f.structType("Outer", f.field("m", f.in.Array(mixed, 2, false)))

	if got := c.Classify(plain); got != Stack {
		t.Fatalf("Plain = %v", got)
	}
	if got := c.Classify(outer); got != Heap {
		t.Fatalf("Outer = %v", got)
	}
	if got := c.Classify(mixed); got != Heap {
		t.Fatalf("Mixed = %v", got)
	}
}

func TestClassifyCyclesTerminate(t *testing.T) {
	f := newFixture()
	c := New(f.in)
	x := f.structType("X")
	y := f.structType("Y")
	f.in.SetStructFields(x, []types.StructField{f.field("y", f.in.Array(y, 0, false))})
	f.in.SetStructFields(y, []types.StructField{
		f.field("x", f.in.Array(x, 0, false)),
		f.field("h", f.in.Heap(f.b.U8)),
	})
	if got := c.Classify(x); got != Heap {
		t.Fatalf("X = %v", got)
	}
	if got := c.Classify(y); got != Heap {
		t.Fatalf("Y = %v", got)
	}

	node := f.structType("Node")
	f.in.SetStructFields(node, []types.StructField{
		f.field("value", f.b.I32),
		f.field("next", f.in.Optional(f.in.Heap(node))),
	})
	if got := c.Classify(node); got != Heap {
		t.Fatalf("Node = %v", got)
	}
	if err := c.CheckFinite(node); err != nil {
		t.Fatalf("heap link must break the cycle: %v", err)
	}
}

func TestHeapConstructorMarksStruct(t *testing.T) {
	f := newFixture()
	c := New(f.in)
	shared := f.structType("Shared", f.field("v", f.b.I32))
	holder := f.structType("Holder", f.field("s", shared))

	if got := c.Classify(holder); got != Stack {
		t.Fatalf("Holder before = %v", got)
	}
	c.MarkHeapConstructed(shared)
	if !c.HeapConstructed(shared) {
		t.Fatalf("mark lost")
	}
	if got := c.Classify(shared); got != Heap {
		t.Fatalf("Shared = %v", got)
	}
	if got := c.Classify(holder); got != Heap {
		t.Fatalf("Holder after = %v", got)
	}
}

func TestInstancesClassifiedSeparately(t *testing.T) {
	f := newFixture()
	c := New(f.in)
	p, pt := f.in.NewParam(f.in.Strings.Intern("T"), types.ParamType, 0)
	box := f.in.RegisterStruct(f.in.Strings.Intern("Box"), source.Span{File: 1, Start: 1, End: 2}, []types.ParamID{p})
	f.in.SetStructFields(box, []types.StructField{f.field("v", pt)})

	ofInt := f.in.Instantiate(box, []types.TypeID{f.b.I32})
	ofHeap := f.in.Instantiate(box, []types.TypeID{f.in.Heap(f.b.I32)})
	if ofInt == ofHeap {
		t.Fatalf("instances must be distinct types")
	}
	if got := c.Classify(ofInt); got != Stack {
		t.Fatalf("Box<i32> = %v", got)
	}
	if got := c.Classify(ofHeap); got != Heap {
		t.Fatalf("Box<heap i32> = %v", got)
	}
	if got := c.Classify(box); got != Stack {
		t.Fatalf("placeholders classify as stack, got %v", got)
	}
}

func TestCheckFiniteReportsCycle(t *testing.T) {
	f := newFixture()
	c := New(f.in)
	self := f.structType("Loop")
	f.in.SetStructFields(self, []types.StructField{f.field("again", f.in.Optional(self))})

	err := c.CheckFinite(self)
	if err == nil {
		t.Fatalf("expected cycle")
	}
	if len(err.Cycle) != 3 || err.Cycle[0] != self || err.Cycle[len(err.Cycle)-1] != self {
		t.Fatalf("cycle = %v", err.Cycle)
	}
	if err.Error() == "" {
		t.Fatalf("empty message")
	}

	empty := f.structType("Empty")
	f.in.SetStructFields(empty, []types.StructField{f.field("none", f.in.Array(empty, 0, false))})
	if err := c.CheckFinite(empty); err != nil {
		t.Fatalf("zero-length array must not recurse: %v", err)
	}
}
