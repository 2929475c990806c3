package sema

import (
	"fmt"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/mono"
	"hydra/internal/source"
	"hydra/internal/symbols"
	"hydra/internal/trace"
	"hydra/internal/types"
)

// checkFunction checks a concrete body into Root, or a generic body in
// symbolic form into its own template annotations.
func (tc *typeChecker) checkFunction(item ast.ItemID) {
	sym := tc.syms.ItemSymbols[item]
	sig := tc.result.Signatures[sym]
	if sig == nil {
		return
	}
	span, ctx := trace.Start(tc.ctx, trace.ScopeFunction, "check "+sig.Name)
	prev := tc.ctx
	tc.ctx = ctx
	defer func() {
		tc.ctx = prev
		span.End("")
	}()

	if sig.Template() {
		ann := newAnnotations(sym, mono.NoInstanceID)
		tc.result.Templates[sym] = ann
		tc.checkBody(sig, ann, nil, mono.NoInstanceID, true, tc.reporter)
		return
	}
	tc.checkBody(sig, tc.result.Root, nil, mono.NoInstanceID, false, tc.reporter)
}

func (tc *typeChecker) checkBody(sig *Signature, ann *Annotations, subst *types.Subst, inst mono.InstanceID, template bool, rep diag.Reporter) {
	fn, ok := tc.builder.Items.Fn(sig.Item)
	if !ok {
		return
	}
	prev := tc.body
	tc.body = &bodyState{
		sig:      sig,
		ann:      ann,
		subst:    subst,
		instance: inst,
		template: template,
		reporter: rep,
	}
	defer func() { tc.body = prev }()

	tc.body.result = tc.substitute(sig.Result, fn.NameSpan)
	for i, psym := range tc.syms.ParamSymbols[sig.Item] {
		if !psym.IsValid() || i >= len(sig.Params) {
			continue
		}
		s := tc.symbol(psym)
		pb := &Binding{
			Symbol:  psym,
			Name:    tc.name(psym),
			Type:    tc.substitute(sig.Params[i], s.Span),
			Mutable: s.Mutable(),
			Scope:   s.Scope,
			Alias:   psym,
		}
		ann.Bindings[psym] = pb
		tc.track(pb)
	}

	block := tc.builder.Stmts.Block(fn.Body)
	if block == nil {
		return
	}
	for _, st := range block.Stmts {
		tc.checkStmt(st)
	}
	res := tc.body.result
	if tc.types.KindOf(res) != types.KindVoid && !tc.types.IsUnresolved(res) && !tc.blockReturns(block.Stmts) {
		diag.ReportError(tc.rep(), diag.SemaMissingReturn, fn.NameSpan,
			fmt.Sprintf("function '%s' must return a value of type %s on every path", sig.Name, tc.label(res))).
			WithArgs(sig.Name, tc.label(res)).
			Emit()
	}
}

func (tc *typeChecker) checkGlobal(item ast.ItemID) {
	sym := tc.syms.ItemSymbols[item]
	if tc.globalDone[sym] {
		return
	}
	tc.globalDone[sym] = true
	let, _ := tc.builder.Items.Let(item)
	prev := tc.body
	tc.body = &bodyState{ann: tc.result.Root, reporter: tc.reporter}
	defer func() { tc.body = prev }()
	if b := tc.checkLet(sym, let); b != nil {
		tc.globals[sym] = b
	}
}

// lookupBinding finds the checked binding behind a value symbol. Globals are
// checked on first use so initializers may refer to later declarations.
func (tc *typeChecker) lookupBinding(sym symbols.SymbolID) *Binding {
	if tc.body != nil {
		if b, ok := tc.body.ann.Bindings[sym]; ok {
			return b
		}
	}
	s := tc.symbol(sym)
	if s == nil || s.Flags&symbols.SymbolFlagGlobal == 0 {
		return nil
	}
	if b, ok := tc.globals[sym]; ok {
		return b
	}
	if item, ok := tc.itemOf[sym]; ok && !tc.globalDone[sym] {
		tc.checkGlobal(item)
	}
	return tc.globals[sym]
}

func (tc *typeChecker) checkLet(sym symbols.SymbolID, let *ast.LetData) *Binding {
	b := tc.types.Builtins()
	name := tc.builder.NameOf(let.Name)
	declared := types.NoTypeID
	if let.Type.IsValid() {
		declared = tc.bodyType(let.Type, let.NameSpan)
	}
	var vt types.TypeID
	if let.Value.IsValid() {
		vt = tc.typeExpr(let.Value, declared)
	}
	t := declared
	switch {
	case !let.Value.IsValid():
		if !let.Mutable {
			diag.ReportError(tc.rep(), diag.SemaConstAssignment, let.NameSpan,
				fmt.Sprintf("constant '%s' must be initialized", name)).
				WithArgs(name).
				Emit()
		}
		if declared == types.NoTypeID {
			diag.ReportError(tc.rep(), diag.SemaTypeMismatch, let.NameSpan,
				fmt.Sprintf("cannot infer the type of '%s' without an initializer", name)).
				WithArgs(name).
				Emit()
			t = b.Unresolved
		}
	case declared != types.NoTypeID:
		tc.checkInit(name, declared, vt, let.Value)
	default:
		t = tc.inferredType(name, vt, let.Value)
	}
	binding := &Binding{
		Symbol:  sym,
		Name:    name,
		Type:    t,
		Mutable: let.Mutable,
		Init:    let.Value,
		View:    tc.viewExpr(let.Value),
		Fields:  tc.fieldViews(let.Value),
		Alias:   tc.aliasOf(let.Value),
	}
	if s := tc.symbol(sym); s != nil {
		binding.Scope = s.Scope
	}
	if sym.IsValid() {
		tc.body.ann.Bindings[sym] = binding
		if tc.body.sig != nil {
			tc.track(binding)
		}
	}
	return binding
}

func (tc *typeChecker) checkInit(name string, dst, src types.TypeID, value ast.ExprID) {
	span := tc.exprSpan(value)
	if tc.types.KindOf(src) == types.KindVoid {
		tc.reportVoid(span)
		return
	}
	if tc.types.Assignable(dst, src) {
		return
	}
	if e := tc.builder.Exprs.Get(value); e != nil && e.Kind == ast.ExprSlice {
		dn, dok := tc.types.ArrayLen(dst)
		sn, sok := tc.types.ArrayLen(src)
		if dok && sok && dn != sn {
			diag.ReportError(tc.rep(), diag.SemaSliceLengthMismatch, span,
				fmt.Sprintf("slice of length %d cannot initialize '%s' of type %s", sn, name, tc.label(dst))).
				WithArgs(name, tc.label(dst), tc.label(src)).
				Emit()
			return
		}
	}
	diag.ReportError(tc.rep(), diag.SemaTypeMismatch, span,
		fmt.Sprintf("cannot initialize '%s' of type %s with a value of type %s", name, tc.label(dst), tc.label(src))).
		WithArgs(name, tc.label(dst), tc.label(src)).
		Emit()
}

func (tc *typeChecker) inferredType(name string, vt types.TypeID, value ast.ExprID) types.TypeID {
	b := tc.types.Builtins()
	switch tc.types.KindOf(vt) {
	case types.KindVoid:
		tc.reportVoid(tc.exprSpan(value))
		return b.Unresolved
	case types.KindNothing:
		diag.ReportError(tc.rep(), diag.SemaTypeMismatch, tc.exprSpan(value),
			fmt.Sprintf("cannot infer the type of '%s' from none; annotate it as an optional", name)).
			WithArgs(name).
			Emit()
		return b.Unresolved
	}
	return vt
}

func (tc *typeChecker) reportVoid(span source.Span) {
	diag.ReportError(tc.rep(), diag.SemaVoidValue, span, "expression produces no value").Emit()
}

func (tc *typeChecker) exprSpan(id ast.ExprID) source.Span {
	if e := tc.builder.Exprs.Get(id); e != nil {
		return e.Span
	}
	return source.Span{}
}

func (tc *typeChecker) checkStmt(id ast.StmtID) {
	st := tc.builder.Stmts.Get(id)
	if st == nil {
		return
	}
	switch st.Kind {
	case ast.StmtBlock:
		for _, s := range tc.builder.Stmts.Block(id).Stmts {
			tc.checkStmt(s)
		}
	case ast.StmtLet:
		tc.checkLet(tc.syms.StmtSymbols[id], tc.builder.Stmts.Let(id))
	case ast.StmtExpr:
		tc.typeExpr(tc.builder.Stmts.Expr(id).Expr, types.NoTypeID)
	case ast.StmtReturn:
		tc.checkReturn(tc.builder.Stmts.Return(id), st.Span)
	case ast.StmtIf:
		data := tc.builder.Stmts.If(id)
		tc.checkCond(data.Cond)
		if taken, known := tc.sizeCond(data.Cond); known {
			// ветка, которая в этой специализации не выполняется, не проверяется
			if taken {
				tc.checkStmt(data.Then)
			} else if data.Else.IsValid() {
				tc.checkStmt(data.Else)
			}
			return
		}
		otherwise := func() {}
		if data.Else.IsValid() {
			otherwise = func() { tc.checkStmt(data.Else) }
		}
		tc.branch(func() { tc.checkStmt(data.Then) }, otherwise)
	case ast.StmtWhile:
		data := tc.builder.Stmts.While(id)
		tc.checkCond(data.Cond)
		if taken, known := tc.sizeCond(data.Cond); known && !taken {
			return
		}
		tc.inLoop(func() { tc.checkStmt(data.Body) })
	case ast.StmtForRange:
		tc.checkForRange(id, tc.builder.Stmts.ForRange(id))
	case ast.StmtForEach:
		tc.checkForEach(id, tc.builder.Stmts.ForEach(id))
	case ast.StmtBreak, ast.StmtSkip:
		if tc.body.loops == 0 {
			kw := "break"
			if st.Kind == ast.StmtSkip {
				kw = "skip"
			}
			diag.ReportError(tc.rep(), diag.SemaBreakOutsideLoop, st.Span,
				fmt.Sprintf("'%s' outside of a loop", kw)).
				WithArgs(kw).
				Emit()
		}
	}
}

// inLoop checks a loop body; see loop for how views settle.
func (tc *typeChecker) inLoop(fn func()) {
	tc.body.loops++
	tc.loop(fn)
	tc.body.loops--
}

func (tc *typeChecker) checkCond(cond ast.ExprID) {
	b := tc.types.Builtins()
	t := tc.typeExpr(cond, b.Bool)
	if t == b.Bool || tc.types.IsUnresolved(t) || tc.symbolic(t) {
		return
	}
	diag.ReportError(tc.rep(), diag.SemaInvalidBoolContext, tc.exprSpan(cond),
		fmt.Sprintf("condition must be bool, found %s", tc.label(t))).
		WithArgs(tc.label(t)).
		Emit()
}

func (tc *typeChecker) checkReturn(data *ast.ReturnStmt, span source.Span) {
	if tc.body.sig == nil {
		return
	}
	res := tc.body.result
	name := tc.body.sig.Name
	if !data.Value.IsValid() {
		if tc.types.KindOf(res) != types.KindVoid && !tc.types.IsUnresolved(res) {
			diag.ReportError(tc.rep(), diag.SemaTypeMismatch, span,
				fmt.Sprintf("function '%s' must return a value of type %s", name, tc.label(res))).
				WithArgs(name, tc.label(res)).
				Emit()
		}
		return
	}
	vt := tc.typeExpr(data.Value, res)
	if tc.types.KindOf(res) == types.KindVoid {
		diag.ReportError(tc.rep(), diag.SemaTypeMismatch, tc.exprSpan(data.Value),
			fmt.Sprintf("function '%s' does not return a value", name)).
			WithArgs(name).
			Emit()
		return
	}
	if !tc.types.Assignable(res, vt) {
		diag.ReportError(tc.rep(), diag.SemaTypeMismatch, tc.exprSpan(data.Value),
			fmt.Sprintf("cannot return %s from function '%s' returning %s", tc.label(vt), name, tc.label(res))).
			WithArgs(tc.label(vt), name, tc.label(res)).
			Emit()
	}
}

func (tc *typeChecker) checkForRange(id ast.StmtID, data *ast.ForRangeStmt) {
	b := tc.types.Builtins()
	lt, rt := tc.typePair(data.Start, data.End, types.NoTypeID)
	vt := b.Unresolved
	switch {
	case tc.types.IsUnresolved(lt) || tc.types.IsUnresolved(rt):
	case !tc.isIntegerLike(lt) || !tc.isIntegerLike(rt) || !tc.types.SameIgnoringConst(lt, rt):
		diag.ReportError(tc.rep(), diag.SemaTypeMismatch, data.VarSpan,
			fmt.Sprintf("range bounds must be integers of one type, found %s and %s", tc.label(lt), tc.label(rt))).
			WithArgs(tc.label(lt), tc.label(rt)).
			Emit()
	default:
		vt = lt
	}
	tc.declareLoopVar(id, vt)
	tc.inLoop(func() { tc.checkStmt(data.Body) })
}

func (tc *typeChecker) checkForEach(id ast.StmtID, data *ast.ForEachStmt) {
	b := tc.types.Builtins()
	it := tc.derefHeap(tc.typeExpr(data.Iterable, types.NoTypeID))
	vt := b.Unresolved
	if tt, ok := tc.types.Lookup(it); ok && tt.Kind == types.KindArray {
		vt = tt.Elem
	} else if !tc.types.IsUnresolved(it) && !tc.symbolic(it) {
		diag.ReportError(tc.rep(), diag.SemaNotIterable, tc.exprSpan(data.Iterable),
			fmt.Sprintf("cannot iterate over a value of type %s", tc.label(it))).
			WithArgs(tc.label(it)).
			Emit()
	}
	tc.declareLoopVar(id, vt)
	tc.inLoop(func() { tc.checkStmt(data.Body) })
}

func (tc *typeChecker) declareLoopVar(id ast.StmtID, t types.TypeID) {
	sym, ok := tc.syms.StmtSymbols[id]
	if !ok {
		return
	}
	s := tc.symbol(sym)
	tc.body.ann.Bindings[sym] = &Binding{Symbol: sym, Name: tc.name(sym), Type: t, Scope: s.Scope}
}

// blockReturns reports whether control cannot fall off the end of stmts.
func (tc *typeChecker) blockReturns(stmts []ast.StmtID) bool {
	for _, s := range stmts {
		if tc.stmtReturns(s) {
			return true
		}
	}
	return false
}

func (tc *typeChecker) stmtReturns(id ast.StmtID) bool {
	st := tc.builder.Stmts.Get(id)
	if st == nil {
		return false
	}
	switch st.Kind {
	case ast.StmtReturn:
		return true
	case ast.StmtBlock:
		return tc.blockReturns(tc.builder.Stmts.Block(id).Stmts)
	case ast.StmtIf:
		data := tc.builder.Stmts.If(id)
		return data.Else.IsValid() && tc.stmtReturns(data.Then) && tc.stmtReturns(data.Else)
	case ast.StmtWhile:
		// while true без break не завершается
		data := tc.builder.Stmts.While(id)
		return tc.isTrueLiteral(data.Cond) && !tc.breaks(data.Body)
	}
	return false
}

func (tc *typeChecker) isTrueLiteral(id ast.ExprID) bool {
	lit, ok := tc.builder.Exprs.Literal(id)
	return ok && lit.Kind == ast.LitBool && tc.builder.NameOf(lit.Value) == "true"
}

// breaks reports a break that leaves the loop whose body is id; breaks of
// nested loops do not count.
func (tc *typeChecker) breaks(id ast.StmtID) bool {
	st := tc.builder.Stmts.Get(id)
	if st == nil {
		return false
	}
	switch st.Kind {
	case ast.StmtBreak:
		return true
	case ast.StmtBlock:
		for _, s := range tc.builder.Stmts.Block(id).Stmts {
			if tc.breaks(s) {
				return true
			}
		}
	case ast.StmtIf:
		data := tc.builder.Stmts.If(id)
		return tc.breaks(data.Then) || (data.Else.IsValid() && tc.breaks(data.Else))
	}
	return false
}
