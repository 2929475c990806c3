package sema

import (
	"fmt"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/source"
	"hydra/internal/symbols"
	"hydra/internal/types"
)

// place is an assignable location rooted at a binding.
type place struct {
	root    symbols.SymbolID
	binding *Binding
	// elemConst: the location is (inside) an element of a const-element array.
	elemConst bool
	// throughElem: the location is an element, not the whole binding.
	throughElem bool
	// path names the fields crossed from the root, "inner.s".
	path string
	view *SliceView
}

// viewWritable reports whether elements reached through the location's view
// may be written, ignoring the mutability of the root binding itself.
func (p place) viewWritable() bool {
	return p.view.writable()
}

func (tc *typeChecker) placeOf(id ast.ExprID) (place, bool) {
	e := tc.builder.Exprs.Get(id)
	if e == nil {
		return place{}, false
	}
	switch e.Kind {
	case ast.ExprIdent:
		sym, ok := tc.syms.ExprSymbols[id]
		if !ok {
			// имя не разрешено, ошибка уже выдана
			return place{}, true
		}
		s := tc.symbol(sym)
		if s == nil || (s.Kind != symbols.SymbolLet && s.Kind != symbols.SymbolParam) {
			return place{}, false
		}
		p := place{root: sym, binding: tc.lookupBinding(sym)}
		if p.binding != nil {
			p.view = tc.viewOf(p.binding.View)
		}
		return p, true
	case ast.ExprIndex:
		data, _ := tc.builder.Exprs.Index(id)
		p, ok := tc.placeOf(data.Target)
		if !ok {
			return place{}, false
		}
		if tt, found := tc.types.Lookup(tc.derefHeap(tc.body.ann.ExprTypes[data.Target])); found && tt.Kind == types.KindArray && tt.ElemConst {
			p.elemConst = true
		}
		p.throughElem = true
		return p, true
	case ast.ExprField:
		data, _ := tc.builder.Exprs.Field(id)
		p, ok := tc.placeOf(data.Target)
		if !ok || p.binding == nil || p.throughElem {
			return p, ok
		}
		name := tc.builder.NameOf(data.Field)
		if p.path != "" {
			name = p.path + "." + name
		}
		p.path = name
		p.view = tc.viewOf(p.binding.Fields[name])
		return p, true
	}
	return place{}, false
}

// viewOf finds the slice recorded for expr in the current body or among
// module initializers.
func (tc *typeChecker) viewOf(expr ast.ExprID) *SliceView {
	if !expr.IsValid() {
		return nil
	}
	if v, ok := tc.body.ann.Slices[expr]; ok {
		return v
	}
	return tc.result.Root.Slices[expr]
}

func (tc *typeChecker) sliceView(expr ast.ExprID) (*SliceView, bool) {
	v := tc.viewOf(expr)
	return v, v != nil
}

// checkMutation validates a write to target.
func (tc *typeChecker) checkMutation(target ast.ExprID, span source.Span) {
	p, ok := tc.placeOf(target)
	if !ok {
		diag.ReportError(tc.rep(), diag.SemaInvalidAssignTarget, tc.exprSpan(target),
			"left side of an assignment must be a variable, field or element").
			Emit()
		return
	}
	if p.binding == nil {
		return
	}
	name := p.binding.Name
	switch {
	case !p.binding.Mutable:
		d := diag.ReportError(tc.rep(), diag.SemaConstAssignment, span,
			fmt.Sprintf("cannot assign to immutable binding '%s'", name)).
			WithArgs(name)
		if s := tc.symbol(p.root); s != nil {
			d = d.WithNote(s.Span, fmt.Sprintf("'%s' declared here", name))
		}
		d.Emit()
	case p.elemConst:
		diag.ReportError(tc.rep(), diag.SemaConstElementAssignment, span,
			fmt.Sprintf("cannot assign to a const element of '%s'", name)).
			WithArgs(name).
			Emit()
	case p.throughElem && !p.viewWritable():
		d := diag.ReportError(tc.rep(), diag.SemaSliceOfImmutableSource, span,
			fmt.Sprintf("cannot mutate through '%s': it references immutable storage", name)).
			WithArgs(name)
		if p.view != nil {
			d = d.WithNote(tc.exprSpan(p.view.Expr), "slice taken here")
		}
		d.Emit()
	case p.throughElem:
		tc.markParamWrite(p.binding.Alias)
	}
}

// rebindView tracks the views an assigned binding holds. Locals take the
// assigned views; paths that join later are merged by branch and loop.
// Globals may be assigned from any function, so their views only widen.
func (tc *typeChecker) rebindView(target, value ast.ExprID) {
	b, path := tc.fieldPath(target)
	if b == nil || !b.Mutable {
		return
	}
	old := b.state()
	next := old
	if path == "" {
		next = viewState{view: tc.viewExpr(value), fields: tc.fieldViews(value), alias: tc.aliasOf(value)}
	} else {
		next.fields = replaceFields(old.fields, path, tc.viewExpr(value), tc.fieldViews(value))
		if !next.alias.IsValid() {
			next.alias = tc.aliasOf(value)
		}
	}
	if s := tc.symbol(b.Symbol); s != nil && s.Flags&symbols.SymbolFlagGlobal != 0 {
		next = tc.joinState(old, next)
	}
	b.setState(next)
}
