package testkit

import (
	"fmt"
	"slices"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a built file:
// 1) file.Span is non-empty
// 2) every item span is non-empty and fully contained in file.Span
// 3) every item span belongs to the same source file
func CheckSpanInvariants(b *ast.Builder, fileID ast.FileID) error {
	if b == nil {
		return fmt.Errorf("nil builder")
	}
	f := b.Files.Get(fileID)
	if f == nil {
		return fmt.Errorf("file node not found")
	}
	if f.Span.End <= f.Span.Start {
		return fmt.Errorf("file span is empty: %v", f.Span)
	}

	var union source.Span
	var haveItem bool
	for _, it := range f.Items {
		item := b.Items.Get(it)
		if item == nil {
			return fmt.Errorf("nil item for id=%d", it)
		}
		sp := item.Span
		if sp.End <= sp.Start {
			return fmt.Errorf("empty item span: %v", sp)
		}
		if sp.File != f.Span.File {
			return fmt.Errorf("item span file mismatch: got=%d want=%d", sp.File, f.Span.File)
		}
		if !f.Span.Contains(sp) {
			return fmt.Errorf("item span %v is outside file span %v", sp, f.Span)
		}
		if !haveItem {
			union = sp
			haveItem = true
		} else {
			union = union.Cover(sp)
		}
	}
	if haveItem && !f.Span.Contains(union) {
		return fmt.Errorf("file span %v does not cover union of items %v", f.Span, union)
	}
	return nil
}

// Codes lists the codes of a bag in report order.
func Codes(bag *diag.Bag) []diag.Code {
	items := bag.Items()
	codes := make([]diag.Code, 0, len(items))
	for _, d := range items {
		codes = append(codes, d.Code)
	}
	return codes
}

// ErrorCodes lists the codes of error diagnostics only.
func ErrorCodes(bag *diag.Bag) []diag.Code {
	var codes []diag.Code
	for _, d := range bag.Items() {
		if d.Severity >= diag.SevError {
			codes = append(codes, d.Code)
		}
	}
	return codes
}

// HasCode reports whether any diagnostic in bag carries code.
func HasCode(bag *diag.Bag, code diag.Code) bool {
	return slices.Contains(Codes(bag), code)
}

// Find returns the first diagnostic with code.
func Find(bag *diag.Bag, code diag.Code) (diag.Diagnostic, bool) {
	for _, d := range bag.Items() {
		if d.Code == code {
			return d, true
		}
	}
	return diag.Diagnostic{}, false
}

// Dump renders a bag for test failure messages.
func Dump(bag *diag.Bag) string {
	return diag.FormatShort(bag.Items(), func(diag.Diagnostic) string { return "main.hy" }, true)
}
