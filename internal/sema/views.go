package sema

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/source"
	"hydra/internal/symbols"
)

// maxLoopPasses bounds how often a loop body is re-checked until the views
// its bindings hold stop changing.
const maxLoopPasses = 3

// viewState is what a binding may alias at one program point.
type viewState struct {
	view   ast.ExprID
	fields map[string]ast.ExprID
	alias  symbols.SymbolID
}

func (b *Binding) state() viewState {
	return viewState{view: b.View, fields: b.Fields, alias: b.Alias}
}

// setState replaces the binding's views. Field maps are never mutated in
// place, so states may share them.
func (b *Binding) setState(s viewState) {
	b.View, b.Fields, b.Alias = s.view, s.fields, s.alias
}

func (s viewState) equal(o viewState) bool {
	return s.view == o.view && s.alias == o.alias && maps.Equal(s.fields, o.fields)
}

// viewSnapshot holds the views of the mutable locals of the current body.
type viewSnapshot map[*Binding]viewState

func (tc *typeChecker) saveViews() viewSnapshot {
	snap := make(viewSnapshot, len(tc.body.locals))
	for _, b := range tc.body.locals {
		snap[b] = b.state()
	}
	return snap
}

func (s viewSnapshot) restore() {
	for b, st := range s {
		b.setState(st)
	}
}

// track registers a binding whose views may change by assignment.
func (tc *typeChecker) track(b *Binding) {
	if b != nil && b.Mutable && tc.body != nil {
		tc.body.locals = append(tc.body.locals, b)
	}
}

// branch checks alternative paths that start from the same views and joins
// the views they leave behind.
func (tc *typeChecker) branch(paths ...func()) {
	entry := tc.saveViews()
	var joined viewSnapshot
	for i, path := range paths {
		if i > 0 {
			entry.restore()
		}
		path()
		if joined == nil {
			joined = make(viewSnapshot, len(entry))
			for b := range entry {
				joined[b] = b.state()
			}
			continue
		}
		for b := range entry {
			joined[b] = tc.joinState(joined[b], b.state())
		}
	}
	joined.restore()
}

// loop checks a body that runs zero or more times. The body is checked
// again while the views at its entry keep widening.
func (tc *typeChecker) loop(body func()) {
	entry := tc.saveViews()
	for range maxLoopPasses {
		body()
		changed := false
		for b, before := range entry {
			after := tc.joinState(before, b.state())
			b.setState(after)
			if !after.equal(before) {
				entry[b] = after
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

func (tc *typeChecker) joinState(a, b viewState) viewState {
	out := viewState{view: tc.stricter(a.view, b.view), alias: a.alias}
	if !out.alias.IsValid() {
		out.alias = b.alias
	}
	if len(a.fields)+len(b.fields) == 0 {
		return out
	}
	out.fields = maps.Clone(a.fields)
	if out.fields == nil {
		out.fields = make(map[string]ast.ExprID, len(b.fields))
	}
	for k, v := range b.fields {
		out.fields[k] = tc.stricter(out.fields[k], v)
	}
	return out
}

// stricter picks the view that permits fewer writes.
func (tc *typeChecker) stricter(a, b ast.ExprID) ast.ExprID {
	switch {
	case a == b:
		return a
	case !tc.viewOf(a).writable():
		return a
	case !tc.viewOf(b).writable():
		return b
	case a.IsValid():
		return a
	}
	return b
}

// fieldPath walks a chain of field accesses down to a named binding.
func (tc *typeChecker) fieldPath(id ast.ExprID) (*Binding, string) {
	var names []string
	for {
		if data, ok := tc.builder.Exprs.Field(id); ok {
			names = append(names, tc.builder.NameOf(data.Field))
			id = data.Target
			continue
		}
		break
	}
	if _, ok := tc.builder.Exprs.Ident(id); !ok {
		return nil, ""
	}
	sym, ok := tc.syms.ExprSymbols[id]
	if !ok {
		return nil, ""
	}
	b := tc.lookupBinding(sym)
	if b == nil {
		return nil, ""
	}
	slices.Reverse(names)
	return b, strings.Join(names, ".")
}

// viewExpr returns the slice expression a binding initialised from value
// would hold.
func (tc *typeChecker) viewExpr(value ast.ExprID) ast.ExprID {
	e := tc.builder.Exprs.Get(value)
	if e == nil {
		return ast.NoExprID
	}
	switch e.Kind {
	case ast.ExprSlice:
		if _, ok := tc.sliceView(value); ok {
			return value
		}
	case ast.ExprIdent, ast.ExprField:
		b, path := tc.fieldPath(value)
		switch {
		case b == nil:
		case path == "":
			return b.View
		default:
			return b.Fields[path]
		}
	case ast.ExprMatch:
		data, _ := tc.builder.Exprs.Match(value)
		out := ast.NoExprID
		for i, arm := range data.Arms {
			v := tc.viewExpr(arm.Value)
			if i == 0 {
				out = v
				continue
			}
			out = tc.stricter(out, v)
		}
		return out
	}
	return ast.NoExprID
}

// fieldViews returns the views held by the fields of value, keyed by path.
func (tc *typeChecker) fieldViews(value ast.ExprID) map[string]ast.ExprID {
	e := tc.builder.Exprs.Get(value)
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ast.ExprStructLit:
		data, _ := tc.builder.Exprs.StructLit(value)
		var out map[string]ast.ExprID
		put := func(k string, v ast.ExprID) {
			if out == nil {
				out = make(map[string]ast.ExprID)
			}
			out[k] = v
		}
		for _, init := range data.Fields {
			name := tc.builder.NameOf(init.Name)
			if v := tc.viewExpr(init.Value); v.IsValid() {
				put(name, v)
			}
			for k, v := range tc.fieldViews(init.Value) {
				put(name+"."+k, v)
			}
		}
		return out
	case ast.ExprIdent, ast.ExprField:
		b, path := tc.fieldPath(value)
		if b == nil {
			return nil
		}
		if path == "" {
			return b.Fields
		}
		return subFields(b.Fields, path)
	case ast.ExprMatch:
		data, _ := tc.builder.Exprs.Match(value)
		var out viewState
		for i, arm := range data.Arms {
			next := viewState{fields: tc.fieldViews(arm.Value)}
			if i == 0 {
				out = next
				continue
			}
			out = tc.joinState(out, next)
		}
		return out.fields
	}
	return nil
}

// subFields selects the entries below prefix with the prefix removed.
func subFields(fields map[string]ast.ExprID, prefix string) map[string]ast.ExprID {
	var out map[string]ast.ExprID
	for k, v := range fields {
		rest, ok := strings.CutPrefix(k, prefix+".")
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]ast.ExprID)
		}
		out[rest] = v
	}
	return out
}

// replaceFields stores the views of a value assigned to the field at path.
func replaceFields(fields map[string]ast.ExprID, path string, view ast.ExprID, nested map[string]ast.ExprID) map[string]ast.ExprID {
	out := make(map[string]ast.ExprID, len(fields)+len(nested)+1)
	for k, v := range fields {
		if k == path || strings.HasPrefix(k, path+".") {
			continue
		}
		out[k] = v
	}
	if view.IsValid() {
		out[path] = view
	}
	for k, v := range nested {
		out[path+"."+k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// aliasOf finds the parameter whose caller storage value may reach.
func (tc *typeChecker) aliasOf(value ast.ExprID) symbols.SymbolID {
	e := tc.builder.Exprs.Get(value)
	if e == nil {
		return symbols.NoSymbolID
	}
	switch e.Kind {
	case ast.ExprIdent, ast.ExprField:
		if b, _ := tc.fieldPath(value); b != nil {
			return b.Alias
		}
	case ast.ExprSlice:
		if v := tc.viewOf(value); v != nil && v.Kind == ast.SliceReference {
			if b := tc.lookupBinding(v.Source); b != nil {
				return b.Alias
			}
		}
	case ast.ExprMatch:
		data, _ := tc.builder.Exprs.Match(value)
		for _, arm := range data.Arms {
			if a := tc.aliasOf(arm.Value); a.IsValid() {
				return a
			}
		}
	}
	return symbols.NoSymbolID
}

// readOnlyView returns a reference view reachable from value, directly or
// through its fields, that forbids writes.
func (tc *typeChecker) readOnlyView(value ast.ExprID) *SliceView {
	if v := tc.viewOf(tc.viewExpr(value)); !v.writable() {
		return v
	}
	fields := tc.fieldViews(value)
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		if v := tc.viewOf(fields[k]); !v.writable() {
			return v
		}
	}
	return nil
}

// argFlow is a value handed to a parameter: a view that forbids writes, or
// the caller's own parameter passed on.
type argFlow struct {
	callee *Signature
	index  int
	span   source.Span
	view   *SliceView
	from   *Signature
	alias  int
	rep    diag.Reporter
}

// recordArgFlow remembers what the argument for parameter i of callee may
// alias. Whether the callee writes through it is known once every body is
// checked.
func (tc *typeChecker) recordArgFlow(callee *Signature, i int, arg ast.ExprID) {
	if !arg.IsValid() {
		return
	}
	if v := tc.readOnlyView(arg); v != nil {
		tc.flows = append(tc.flows, argFlow{callee: callee, index: i, span: tc.exprSpan(arg), view: v, rep: tc.rep()})
	}
	if tc.body.sig == nil {
		return
	}
	if idx, ok := tc.paramIndex(tc.body.sig, tc.aliasOf(arg)); ok {
		tc.flows = append(tc.flows, argFlow{callee: callee, index: i, from: tc.body.sig, alias: idx})
	}
}

func (tc *typeChecker) paramIndex(sig *Signature, sym symbols.SymbolID) (int, bool) {
	if !sym.IsValid() {
		return 0, false
	}
	s := tc.symbol(sym)
	if s == nil || s.Kind != symbols.SymbolParam {
		return 0, false
	}
	params := tc.syms.ParamSymbols[sig.Item]
	i := s.Decl.Index
	if i < 0 || i >= len(params) || params[i] != sym {
		return 0, false
	}
	return i, true
}

// markParamWrite records a write through the storage of a parameter of the
// body being checked.
func (tc *typeChecker) markParamWrite(alias symbols.SymbolID) {
	if tc.body == nil || tc.body.sig == nil {
		return
	}
	if i, ok := tc.paramIndex(tc.body.sig, alias); ok {
		tc.body.sig.markWrite(i)
	}
}

// checkArgFlows rejects read-only views handed to parameters the callee
// writes through, including writes made further down the call chain.
func (tc *typeChecker) checkArgFlows() {
	for changed := true; changed; {
		changed = false
		for _, f := range tc.flows {
			if f.from != nil && f.callee.WritesParam(f.index) && f.from.markWrite(f.alias) {
				changed = true
			}
		}
	}
	for _, f := range tc.flows {
		if f.view == nil || !f.callee.WritesParam(f.index) {
			continue
		}
		pname := ""
		if f.index < len(f.callee.ParamNames) {
			pname = f.callee.ParamNames[f.index]
		}
		diag.ReportError(f.rep, diag.SemaSliceOfImmutableSource, f.span,
			fmt.Sprintf("'%s' writes through parameter '%s', but the argument references immutable storage", f.callee.Name, pname)).
			WithArgs(f.callee.Name, pname).
			WithNote(tc.exprSpan(f.view.Expr), "slice taken here").
			Emit()
	}
}
