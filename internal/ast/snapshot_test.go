package ast

import (
	"errors"
	"testing"

	"hydra/internal/source"
)

func sampleTree(t *testing.T) (*Builder, FileID) {
	t.Helper()
	b := NewBuilder(Hints{}, nil)
	file := b.NewFile(source.Span{File: 1, End: 40})
	i32 := b.Types.NewPath(source.Span{File: 1}, b.Name("i32"), nil)
	arr := b.Types.NewArray(source.Span{File: 1}, i32, true, SizeExpr{Value: 3})
	one := b.Exprs.NewLiteral(source.Span{File: 1, Start: 5, End: 6}, LitInt, b.Name("1"))
	lit := b.Exprs.NewArrayLit(source.Span{File: 1, Start: 4, End: 10}, []ExprID{one, one, one})
	let := b.Stmts.NewLet(source.Span{File: 1, Start: 0, End: 12}, LetData{Name: b.Name("a"), Type: arr, Value: lit})
	body := b.Stmts.NewBlock(source.Span{File: 1, End: 20}, []StmtID{let})
	fn := b.Items.NewFn(source.Span{File: 1, End: 20}, FnItem{Name: b.Name("main"), Body: body})
	b.PushItem(file, fn)
	return b, file
}

func TestSnapshotRestoreKeepsIDs(t *testing.T) {
	b, file := sampleTree(t)
	restored := Restore(b.Snapshot())
	if err := restored.Validate(); err != nil {
		t.Fatalf("restored tree invalid: %v", err)
	}
	f := restored.Files.Get(file)
	if f == nil || len(f.Items) != 1 {
		t.Fatalf("file not restored: %+v", f)
	}
	fn, ok := restored.Items.Fn(f.Items[0])
	if !ok || restored.NameOf(fn.Name) != "main" {
		t.Fatalf("fn not restored")
	}
	block := restored.Stmts.Block(fn.Body)
	if block == nil || len(block.Stmts) != 1 {
		t.Fatalf("body not restored")
	}
	let := restored.Stmts.Let(block.Stmts[0])
	arr, ok := restored.Types.Array(let.Type)
	if !ok || !arr.ElemConst || arr.Size.Value != 3 {
		t.Fatalf("array type not restored: %+v", arr)
	}
	if lit, ok := restored.Exprs.ArrayLit(let.Value); !ok || len(lit.Elems) != 3 {
		t.Fatalf("array literal not restored")
	}
}

func TestValidateRejectsDanglingPayload(t *testing.T) {
	b, _ := sampleTree(t)
	snap := b.Snapshot()
	snap.Exprs[0].Payload = 99
	err := Restore(snap).Validate()
	if !errors.Is(err, ErrMalformedTree) {
		t.Fatalf("expected ErrMalformedTree, got %v", err)
	}
}
