package sema

import (
	"fmt"
	"slices"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/source"
	"hydra/internal/symbols"
	"hydra/internal/types"
)

func (tc *typeChecker) declareGenerics(fns []ast.ItemID) {
	for _, item := range fns {
		for _, g := range tc.syms.FnGenerics[item] {
			tc.declareParam(g)
		}
	}
}

// qualifiedName renders `Shape::area` for type-scoped functions.
func (tc *typeChecker) qualifiedName(sym symbols.SymbolID) string {
	s := tc.symbol(sym)
	if s != nil && s.Owner.IsValid() && s.Kind == symbols.SymbolFunction {
		return tc.name(s.Owner) + "::" + tc.name(sym)
	}
	return tc.name(sym)
}

func (tc *typeChecker) buildSignature(item ast.ItemID) {
	fn, _ := tc.builder.Items.Fn(item)
	sym := tc.syms.ItemSymbols[item]
	b := tc.types.Builtins()
	sig := &Signature{Symbol: sym, Item: item, Name: tc.qualifiedName(sym)}
	if fn.Owner.IsValid() {
		if ownerSym, ok := tc.syms.ItemSymbols[fn.Owner]; ok {
			sig.Owner = tc.result.StructTypes[ownerSym]
		}
	}
	for i, p := range fn.Params {
		t := b.Unresolved
		switch {
		case p.Type.IsValid():
			t = tc.resolveType(p.Type)
		case i == 0 && sig.Owner != types.NoTypeID:
			t = sig.Owner
			sig.Method = true
		}
		pname := tc.builder.NameOf(p.Name)
		if tc.types.KindOf(t) == types.KindVoid {
			diag.ReportError(tc.reporter, diag.SemaVoidValue, p.Span,
				fmt.Sprintf("parameter '%s' cannot have type void", pname)).
				WithArgs(pname).
				Emit()
			t = b.Unresolved
		}
		sig.Params = append(sig.Params, t)
		sig.ParamNames = append(sig.ParamNames, pname)
	}
	sig.Result = b.Void
	if fn.Result.IsValid() {
		sig.Result = tc.resolveType(fn.Result)
	}

	inferable := make(map[types.ParamID]bool)
	for _, t := range sig.Params {
		for _, p := range tc.types.Params(t) {
			inferable[p] = true
		}
	}
	for _, g := range tc.syms.FnGenerics[item] {
		p, ok := tc.params[g]
		if !ok {
			continue
		}
		sig.Generics = append(sig.Generics, p)
		if !inferable[p] {
			sig.Unconstrained = true
			tc.reportUnconstrained(sig, p, tc.name(g), tc.symbol(g).Span, fn)
		}
	}
	// плейсхолдеры структуры-владельца, пришедшие через self или параметры
	for _, t := range sig.Params {
		for _, p := range tc.types.Params(t) {
			if !slices.Contains(sig.Generics, p) {
				sig.Generics = append(sig.Generics, p)
			}
		}
	}
	for _, p := range tc.types.Params(sig.Result) {
		if slices.Contains(sig.Generics, p) {
			continue
		}
		sig.Generics = append(sig.Generics, p)
		sig.Unconstrained = true
		info, _ := tc.types.ParamInfo(p)
		span := fn.NameSpan
		if te := tc.builder.Types.Get(fn.Result); te != nil {
			span = te.Span
		}
		tc.reportUnconstrained(sig, p, tc.builder.NameOf(info.Name), span, fn)
	}
	tc.result.Signatures[sym] = sig
}

func (tc *typeChecker) reportUnconstrained(sig *Signature, p types.ParamID, param string, at source.Span, fn *ast.FnItem) {
	rb := diag.ReportError(tc.reporter, diag.SemaUnconstrainedGenericParam, at,
		fmt.Sprintf("generic parameter '%s' of '%s' cannot be inferred from its parameters", param, sig.Name)).
		WithArgs(param, sig.Name)
	if te := tc.builder.Types.Get(fn.Result); te != nil && slices.Contains(tc.types.Params(sig.Result), p) {
		rb = rb.WithNote(te.Span, "it appears only in the result type")
	}
	rb.Emit()
}

// markHeapConstructors flags structs with a type-scoped function returning
// the struct heap-wrapped.
func (tc *typeChecker) markHeapConstructors() {
	for _, sym := range tc.sortedSignatures() {
		sig := tc.result.Signatures[sym]
		if sig.Owner == types.NoTypeID {
			continue
		}
		rt, ok := tc.types.Lookup(sig.Result)
		if !ok || rt.Kind != types.KindHeap || tc.types.KindOf(rt.Elem) != types.KindStruct {
			continue
		}
		if tc.types.StructOrigin(rt.Elem) == tc.types.StructOrigin(sig.Owner) {
			tc.classes.MarkHeapConstructed(sig.Owner)
		}
	}
}

func (tc *typeChecker) sortedSignatures() []symbols.SymbolID {
	ids := make([]symbols.SymbolID, 0, len(tc.result.Signatures))
	for id := range tc.result.Signatures {
		ids = append(ids, id)
	}
	sortSymbols(ids)
	return ids
}
