package sema

import (
	"fmt"
	"strconv"

	"fortio.org/safecast"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/source"
	"hydra/internal/types"
)

// typeSlice checks `&src[a..b]` and `|src|[a..b]` and records the view.
// Bounds must fold to constants; in a generic body they may still depend on
// the body's size parameters and are checked again per specialization.
func (tc *typeChecker) typeSlice(id ast.ExprID, span source.Span) types.TypeID {
	b := tc.types.Builtins()
	data, _ := tc.builder.Exprs.Slice(id)
	st := tc.derefHeap(tc.typeExpr(data.Source, types.NoTypeID))
	tc.typeBound(data.Start)
	tc.typeBound(data.End)

	view := &SliceView{Expr: id, Kind: data.Kind, Start: -1, End: -1, Type: b.Unresolved}
	arr, isArray := tc.types.Lookup(st)
	switch {
	case tc.types.IsUnresolved(st):
		return b.Unresolved
	case !isArray || arr.Kind != types.KindArray:
		if !tc.symbolic(st) {
			diag.ReportError(tc.rep(), diag.SemaSliceOfNonArray, tc.exprSpan(data.Source),
				fmt.Sprintf("cannot slice a value of type %s", tc.label(st))).
				WithArgs(tc.label(st)).
				Emit()
		}
		return b.Unresolved
	}
	if !tc.bindViewSource(view, data, arr, span) {
		return b.Unresolved
	}
	tc.body.ann.Slices[id] = view

	start, sok, ssym := tc.constInt(data.Start)
	end, eok, esym := tc.constInt(data.End)
	if !sok || !eok {
		if tc.body.template && (sok || ssym) && (eok || esym) {
			return b.Unresolved
		}
		diag.ReportError(tc.rep(), diag.SemaSliceBoundsNotConstant, span,
			"slice bounds must be known at compile time").
			Emit()
		return b.Unresolved
	}
	if start > end {
		diag.ReportError(tc.rep(), diag.SemaInvalidSliceRange, span,
			fmt.Sprintf("slice range %d..%d is reversed", start, end)).
			WithArgs(strconv.FormatInt(start, 10), strconv.FormatInt(end, 10)).
			Emit()
		return b.Unresolved
	}
	if data.Inclusive {
		end++
	}
	n, known := tc.types.ArrayLen(st)
	if start < 0 || (known && end > int64(n)) {
		diag.ReportError(tc.rep(), diag.SemaSliceRangeOutOfBounds, span,
			fmt.Sprintf("slice range %d..%d is out of bounds for %s", start, end, tc.label(st))).
			WithArgs(strconv.FormatInt(start, 10), strconv.FormatInt(end, 10), tc.label(st)).
			Emit()
		return b.Unresolved
	}
	count, err := safecast.Conv[uint32](end - start)
	if err != nil {
		return b.Unresolved
	}
	view.Start, view.End = start, end
	view.Type = tc.types.Array(arr.Elem, count, false)
	return view.Type
}

func (tc *typeChecker) typeBound(id ast.ExprID) {
	t := tc.typeExpr(id, types.NoTypeID)
	if tc.types.IsUnresolved(t) || tc.isIntegerLike(t) {
		return
	}
	diag.ReportError(tc.rep(), diag.SemaTypeMismatch, tc.exprSpan(id),
		fmt.Sprintf("slice bound must be an integer, found %s", tc.label(t))).
		WithArgs(tc.label(t)).
		Emit()
}

// bindViewSource fills the writability of the storage a view reaches.
func (tc *typeChecker) bindViewSource(view *SliceView, data *ast.ExprSliceData, arr types.Type, span source.Span) bool {
	p, ok := tc.placeOf(data.Source)
	if data.Kind == ast.SliceHeapCopy {
		if ok {
			view.Source = p.root
		}
		view.SourceMutable, view.SourceElemMutable = true, true
		return true
	}
	if !ok {
		diag.ReportError(tc.rep(), diag.SemaSliceOfTemporary, span,
			"cannot take a reference slice of a temporary value").
			WithNote(tc.exprSpan(data.Source), "a heap-copy slice |...|[a..b] owns its elements").
			Emit()
		return false
	}
	view.Source = p.root
	if p.binding == nil {
		view.SourceMutable, view.SourceElemMutable = true, true
		return true
	}
	view.SourceMutable = p.binding.Mutable && p.viewWritable()
	view.SourceElemMutable = !arr.ElemConst && !p.elemConst
	return true
}
