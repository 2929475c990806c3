package sema

import (
	"errors"
	"fmt"
	"strconv"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/mono"
	"hydra/internal/source"
	"hydra/internal/symbols"
	"hydra/internal/types"
)

func (tc *typeChecker) typeCall(id ast.ExprID, e *ast.Expr) types.TypeID {
	switch e.Kind {
	case ast.ExprCall:
		data, _ := tc.builder.Exprs.Call(id)
		return tc.typeNamedCall(id, e.Span, data.Args)
	case ast.ExprStaticCall:
		data, _ := tc.builder.Exprs.StaticCall(id)
		return tc.typeNamedCall(id, e.Span, data.Args)
	case ast.ExprMethodCall:
		return tc.typeMethodCall(id, e.Span)
	}
	return tc.types.Builtins().Unresolved
}

// typeArgsLoose types arguments of a call whose callee is unknown so that
// errors inside them are still reported.
func (tc *typeChecker) typeArgsLoose(args []ast.ExprID) types.TypeID {
	for _, a := range args {
		tc.typeExpr(a, types.NoTypeID)
	}
	return tc.types.Builtins().Unresolved
}

func (tc *typeChecker) typeNamedCall(id ast.ExprID, span source.Span, args []ast.ExprID) types.TypeID {
	res, ok := tc.syms.Callees[id]
	if !ok || res.Kind != symbols.ResolutionUnique {
		return tc.typeArgsLoose(args)
	}
	s := tc.symbol(res.Symbol)
	if s == nil {
		return tc.typeArgsLoose(args)
	}
	switch s.Kind {
	case symbols.SymbolFunction:
		sig := tc.result.Signatures[res.Symbol]
		if sig == nil {
			return tc.typeArgsLoose(args)
		}
		return tc.checkCall(id, span, sig, types.NoTypeID, args)
	case symbols.SymbolLet, symbols.SymbolParam:
		return tc.checkFnValueCall(span, res.Symbol, args)
	}
	name := tc.name(res.Symbol)
	diag.ReportError(tc.rep(), diag.SemaNotCallable, span,
		fmt.Sprintf("'%s' is not a function", name)).
		WithArgs(name).
		Emit()
	return tc.typeArgsLoose(args)
}

// checkFnValueCall calls through a binding of function type.
func (tc *typeChecker) checkFnValueCall(span source.Span, sym symbols.SymbolID, args []ast.ExprID) types.TypeID {
	binding := tc.lookupBinding(sym)
	if binding == nil || tc.types.IsUnresolved(binding.Type) {
		return tc.typeArgsLoose(args)
	}
	info, ok := tc.types.FnInfo(binding.Type)
	if !ok {
		diag.ReportError(tc.rep(), diag.SemaNotCallable, span,
			fmt.Sprintf("'%s' of type %s is not callable", binding.Name, tc.label(binding.Type))).
			WithArgs(binding.Name, tc.label(binding.Type)).
			Emit()
		return tc.typeArgsLoose(args)
	}
	if len(args) != len(info.Params) {
		tc.reportArgCount(span, binding.Name, len(info.Params), len(args))
		tc.typeArgsLoose(args)
		return info.Result
	}
	for i, a := range args {
		at := tc.typeExpr(a, info.Params[i])
		tc.checkArg(binding.Name, i, info.Params[i], at, a)
	}
	return info.Result
}

func (tc *typeChecker) typeMethodCall(id ast.ExprID, span source.Span) types.TypeID {
	data, _ := tc.builder.Exprs.MethodCall(id)
	st := tc.derefHeap(tc.typeExpr(data.Receiver, types.NoTypeID))
	member := tc.builder.NameOf(data.Member)
	if tc.types.IsUnresolved(st) {
		return tc.typeArgsLoose(data.Args)
	}
	if tc.types.KindOf(st) != types.KindStruct {
		if !tc.symbolic(st) {
			tc.reportNoMethod(span, st, member)
		}
		return tc.typeArgsLoose(data.Args)
	}
	owner, ok := tc.structSyms[tc.types.StructOrigin(st)]
	if !ok {
		return tc.typeArgsLoose(data.Args)
	}
	fn, found := tc.table.Member(owner, data.Member)
	sig := tc.result.Signatures[fn]
	if !found || sig == nil || !sig.Method {
		tc.reportNoMethod(span, st, member)
		return tc.typeArgsLoose(data.Args)
	}
	// self принимает структуру, heap-обёртка снимается
	return tc.checkCall(id, span, sig, st, data.Args)
}

func (tc *typeChecker) reportNoMethod(span source.Span, t types.TypeID, member string) {
	diag.ReportError(tc.rep(), diag.SemaMemberNotFound, span,
		fmt.Sprintf("type %s has no method '%s'", tc.label(t), member)).
		WithArgs(tc.label(t), member).
		Emit()
}

func (tc *typeChecker) reportArgCount(span source.Span, name string, want, got int) {
	diag.ReportError(tc.rep(), diag.SemaArgCount, span,
		fmt.Sprintf("'%s' expects %d arguments, got %d", name, want, got)).
		WithArgs(name, strconv.Itoa(want), strconv.Itoa(got)).
		Emit()
}

func (tc *typeChecker) checkArg(name string, i int, param, arg types.TypeID, expr ast.ExprID) bool {
	if tc.types.Assignable(param, arg) {
		return true
	}
	diag.ReportError(tc.rep(), diag.SemaTypeMismatch, tc.exprSpan(expr),
		fmt.Sprintf("argument %d of '%s' expects %s, found %s", i+1, name, tc.label(param), tc.label(arg))).
		WithArgs(name, tc.label(param), tc.label(arg)).
		Emit()
	return false
}

// argHint is the expected type passed to an argument: placeholders give no
// hint, literals then take their default type.
func (tc *typeChecker) argHint(param types.TypeID) types.TypeID {
	if tc.types.IsGeneric(param) {
		return types.NoTypeID
	}
	return param
}

// checkCall checks a call of a declared function. recv is the receiver type
// of a method call; it stands for the first parameter.
func (tc *typeChecker) checkCall(id ast.ExprID, span source.Span, sig *Signature, recv types.TypeID, args []ast.ExprID) types.TypeID {
	b := tc.types.Builtins()
	offset := 0
	if recv != types.NoTypeID {
		offset = 1
	}
	if len(args)+offset != len(sig.Params) {
		tc.reportArgCount(span, sig.Name, len(sig.Params)-offset, len(args))
		tc.typeArgsLoose(args)
		if sig.Template() {
			return b.Unresolved
		}
		return sig.Result
	}
	argTypes := make([]types.TypeID, len(sig.Params))
	exprs := make([]ast.ExprID, len(sig.Params))
	if offset == 1 {
		argTypes[0] = recv
		if data, ok := tc.builder.Exprs.MethodCall(id); ok {
			exprs[0] = data.Receiver
		}
	}
	for i, a := range args {
		argTypes[i+offset] = tc.typeExpr(a, tc.argHint(sig.Params[i+offset]))
		exprs[i+offset] = a
	}
	for i, a := range exprs {
		tc.recordArgFlow(sig, i, a)
	}

	if !sig.Template() {
		for i, pt := range sig.Params {
			tc.checkArg(sig.Name, i, pt, argTypes[i], exprs[i])
		}
		tc.body.ann.Calls[id] = CallBinding{Callee: sig.Symbol}
		return sig.Result
	}
	if sig.Unconstrained {
		tc.body.ann.Calls[id] = CallBinding{Callee: sig.Symbol}
		return b.Unresolved
	}

	subst, ok := tc.inferCall(span, sig, argTypes, exprs)
	if !ok {
		return b.Unresolved
	}
	for i, pt := range sig.Params {
		concrete, err := tc.types.Apply(pt, subst)
		if err != nil {
			tc.reportNegativeSize(span, sig, err)
			return b.Unresolved
		}
		tc.checkArg(sig.Name, i, concrete, argTypes[i], exprs[i])
	}
	result, err := tc.types.Apply(sig.Result, subst)
	if err != nil {
		tc.reportNegativeSize(span, sig, err)
		return b.Unresolved
	}

	if !tc.concreteBinding(sig, subst) {
		caller := symbols.NoSymbolID
		if tc.body.sig != nil {
			caller = tc.body.sig.Symbol
		}
		tc.engine.Defer(mono.DeferredCall{Caller: caller, Callee: sig.Symbol, Site: span})
		tc.body.ann.Calls[id] = CallBinding{Callee: sig.Symbol, Deferred: true}
		return result
	}
	tc.requestSpecialization(id, span, sig, subst)
	return result
}

// inferCall binds the callee placeholders from the argument types.
func (tc *typeChecker) inferCall(span source.Span, sig *Signature, argTypes []types.TypeID, exprs []ast.ExprID) (*types.Subst, bool) {
	subst := types.NewSubst()
	poisoned := false
	for i, pt := range sig.Params {
		at := argTypes[i]
		if tc.types.IsUnresolved(at) {
			poisoned = true
			continue
		}
		if err := tc.types.Match(pt, at, subst); err != nil {
			diag.ReportError(tc.rep(), diag.SemaGenericArgMismatch, tc.exprSpan(exprs[i]),
				fmt.Sprintf("argument %d of '%s': cannot match %s against %s", i+1, sig.Name, tc.label(at), tc.label(pt))).
				WithArgs(sig.Name, tc.label(pt), tc.label(at)).
				Emit()
			return nil, false
		}
	}
	for _, p := range sig.Generics {
		if tc.bound(subst, p) {
			continue
		}
		if poisoned {
			return nil, false
		}
		info, _ := tc.types.ParamInfo(p)
		pname := tc.builder.NameOf(info.Name)
		diag.ReportError(tc.rep(), diag.SemaGenericArgMismatch, span,
			fmt.Sprintf("cannot infer '%s' for call to '%s'", pname, sig.Name)).
			WithArgs(sig.Name, pname).
			Emit()
		return nil, false
	}
	return subst, true
}

func (tc *typeChecker) bound(s *types.Subst, p types.ParamID) bool {
	info, _ := tc.types.ParamInfo(p)
	if info.Kind == types.ParamSize {
		_, ok := s.Size(p)
		return ok
	}
	_, ok := s.Type(p)
	return ok
}

// concreteBinding reports whether every placeholder of sig is bound to a
// concrete size or a type free of placeholders.
func (tc *typeChecker) concreteBinding(sig *Signature, s *types.Subst) bool {
	for _, p := range sig.Generics {
		info, _ := tc.types.ParamInfo(p)
		if info.Kind == types.ParamSize {
			if v, _ := s.Size(p); !v.IsConcrete() {
				return false
			}
			continue
		}
		if t, _ := s.Type(p); tc.types.IsGeneric(t) {
			return false
		}
	}
	return true
}

func (tc *typeChecker) keyArgs(sig *Signature, s *types.Subst) (sizes []int64, typeArgs []types.TypeID) {
	for _, p := range sig.Generics {
		info, _ := tc.types.ParamInfo(p)
		if info.Kind == types.ParamSize {
			v, _ := s.Size(p)
			sizes = append(sizes, v.Value)
			continue
		}
		t, _ := s.Type(p)
		typeArgs = append(typeArgs, t)
	}
	return sizes, typeArgs
}

func (tc *typeChecker) requestSpecialization(id ast.ExprID, span source.Span, sig *Signature, subst *types.Subst) {
	sizes, typeArgs := tc.keyArgs(sig, subst)
	req := mono.Request{
		Fn:     sig.Symbol,
		Sizes:  sizes,
		Types:  typeArgs,
		Subst:  subst,
		Parent: tc.body.instance,
		Site:   span,
	}
	if tc.body.sig != nil {
		req.Caller = tc.body.sig.Symbol
	}
	inst, _, err := tc.engine.Request(req)
	if err != nil {
		tc.reportSpecialization(span, req, err)
		tc.body.ann.Calls[id] = CallBinding{Callee: sig.Symbol}
		return
	}
	tc.body.ann.Calls[id] = CallBinding{Callee: sig.Symbol, Instance: inst.ID}
}

func (tc *typeChecker) reportSpecialization(span source.Span, req mono.Request, err error) {
	label := tc.result.Namer().Signature(&mono.Instance{Fn: req.Fn, Sizes: req.Sizes, Types: req.Types})
	var limit *mono.LimitError
	if errors.As(err, &limit) && errors.Is(err, mono.ErrDivergence) {
		rb := diag.ReportError(tc.rep(), diag.SemaMonomorphizationDivergence, span,
			fmt.Sprintf("specialization of '%s' does not terminate", label)).
			WithArgs(label)
		for _, anc := range tc.engine.Chain(limit.Ancestor) {
			inst, ok := tc.engine.Instance(anc)
			if !ok || len(inst.Sites) == 0 {
				continue
			}
			rb = rb.WithNote(inst.Sites[0].Span, fmt.Sprintf("'%s' requested here", tc.result.Namer().Signature(inst)))
		}
		rb.Emit()
		return
	}
	diag.ReportError(tc.rep(), diag.SemaSpecializationLimit, span,
		fmt.Sprintf("cannot specialize '%s': %v", label, err)).
		WithArgs(label).
		Emit()
}

func (tc *typeChecker) reportNegativeSize(span source.Span, sig *Signature, err error) {
	diag.ReportError(tc.rep(), diag.SemaNegativeArraySize, span,
		fmt.Sprintf("call to '%s' produces a negative array size: %v", sig.Name, err)).
		WithArgs(sig.Name).
		Emit()
}
