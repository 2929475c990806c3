package treeio_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/sema"
	"hydra/internal/source"
	"hydra/internal/symbols"
	"hydra/internal/testkit"
	"hydra/internal/treeio"
)

// sample declares a generic sum and calls it on a five element array.
func sample() *testkit.Program {
	p := testkit.NewProgram()
	arr := p.SizedArray(p.Named("i32"), "N", 0, false)
	p.Fn("first", []ast.FnParam{p.Param("a", arr)}, p.Named("i32"),
		p.Return(p.Index(p.Ident("a"), p.Int(0))))
	p.Fn("main", nil, ast.NoTypeID,
		p.Let("x", p.Array(p.Named("i32"), 5), p.Ints(1, 2, 3, 4, 5)),
		p.Let("v", ast.NoTypeID, p.RefSlice(p.Ident("x"), 1, 3)),
		p.Do(p.Call("first", p.Ident("x"))),
	)
	return p
}

func analyze(t *testing.T, b *ast.Builder, file ast.FileID) (*sema.Result, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(0)
	rep := diag.BagReporter{Bag: bag}
	syms := symbols.ResolveFile(b, file, symbols.ResolveOptions{Reporter: rep})
	res := sema.Check(context.Background(), b, syms, sema.Options{Reporter: rep})
	return res, bag
}

func TestDocumentRoundTrip(t *testing.T) {
	for _, format := range []treeio.Format{treeio.FormatMsgpack, treeio.FormatYAML} {
		t.Run(format.String(), func(t *testing.T) {
			p := sample()
			var buf bytes.Buffer
			if err := treeio.Encode(&buf, treeio.NewDocument("sample", p.B, p.File), format); err != nil {
				t.Fatalf("encode: %v", err)
			}
			doc, err := treeio.Decode(&buf, format)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if doc.Unit != "sample" || doc.File != p.File {
				t.Fatalf("header = %+v", doc)
			}
			b, file, err := doc.Builder()
			if err != nil {
				t.Fatalf("builder: %v", err)
			}
			res, bag := analyze(t, b, file)
			if bag.HasErrors() {
				t.Fatalf("restored tree does not check:\n%s", testkit.Dump(bag))
			}
			if res.Engine.Len() != 1 {
				t.Fatalf("instances = %d", res.Engine.Len())
			}
		})
	}
}

func TestDocumentRejects(t *testing.T) {
	tests := []struct {
		name string
		edit func(doc *treeio.Document)
		want error
	}{
		{"schema", func(doc *treeio.Document) { doc.Schema = 99 }, treeio.ErrSchema},
		{"no tree", func(doc *treeio.Document) { doc.Tree = nil }, ast.ErrMalformedTree},
		{"file", func(doc *treeio.Document) { doc.File = 7 }, ast.ErrMalformedTree},
		{"payload", func(doc *treeio.Document) { doc.Tree.Exprs[0].Payload = 999 }, ast.ErrMalformedTree},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := sample()
			doc := treeio.NewDocument("bad", p.B, p.File)
			tc.edit(doc)
			if _, _, err := doc.Builder(); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestYAMLRejectsUnknownFields(t *testing.T) {
	src := "schema: 1\nunit: x\nfile: 1\nbogus: true\n"
	if _, err := treeio.Decode(bytes.NewBufferString(src), treeio.FormatYAML); err == nil {
		t.Fatalf("unknown field accepted")
	}
	if _, err := treeio.Decode(bytes.NewBufferString(""), treeio.FormatYAML); err == nil {
		t.Fatalf("empty document accepted")
	}
}

func TestFilesUseExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"unit.hyt", "unit.yaml"} {
		p := sample()
		path := filepath.Join(dir, name)
		if err := treeio.WriteFile(path, treeio.NewDocument("", p.B, p.File)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		doc, err := treeio.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if doc.Unit != path {
			t.Fatalf("unit = %q", doc.Unit)
		}
		if _, _, err := doc.Builder(); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
	if treeio.FormatFor("a.YML") != treeio.FormatYAML || treeio.FormatFor("a.bin") != treeio.FormatMsgpack {
		t.Fatalf("FormatFor")
	}
}

func TestResultDocument(t *testing.T) {
	p := sample()
	res, bag := analyze(t, p.B, p.File)
	if bag.HasErrors() {
		t.Fatalf("diagnostics:\n%s", testkit.Dump(bag))
	}
	doc := treeio.NewResultDocument("sample", res, bag.Items(), nil)

	var buf bytes.Buffer
	if err := treeio.EncodeResult(&buf, doc, treeio.FormatMsgpack); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := treeio.DecodeResult(&buf, treeio.FormatMsgpack)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Specializations) != 1 || got.Specializations[0].Signature != "first<5>" || got.Specializations[0].State != "specialized" {
		t.Fatalf("specializations = %+v", got.Specializations)
	}
	root, ok := got.Body("<module>")
	if !ok || len(root.Exprs) == 0 {
		t.Fatalf("bodies = %+v", got.Bodies)
	}
	if len(root.Calls) != 1 || root.Calls[0].Instance != "first<5>" || root.Calls[0].Callee != "first" {
		t.Fatalf("calls = %+v", root.Calls)
	}
	if len(root.Slices) != 1 || root.Slices[0].Start != 1 || root.Slices[0].End != 3 || !root.Slices[0].Writable {
		t.Fatalf("slices = %+v", root.Slices)
	}
	var sawView bool
	for _, b := range root.Bindings {
		if b.Name == "v" {
			sawView = b.View != ast.NoExprID && b.Type == "[i32, 2]" && b.Class == "stack"
		}
	}
	if !sawView {
		t.Fatalf("bindings = %+v", root.Bindings)
	}
	if _, ok := got.Body("first<5>"); !ok {
		t.Fatalf("specialized body missing")
	}
}

func TestResultDocumentWithoutResult(t *testing.T) {
	d := diag.NewError(diag.IODecodeTreeError, source.Span{}, "broken")
	doc := treeio.NewResultDocument("broken", nil, []diag.Diagnostic{d}, nil)
	if len(doc.Bodies) != 0 || len(doc.Diagnostics) != 1 {
		t.Fatalf("doc = %+v", doc)
	}
}
