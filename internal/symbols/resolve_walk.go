package symbols

import (
	"fmt"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/source"
)

func (w *walker) owner(kind ScopeOwnerKind) ScopeOwner {
	return ScopeOwner{Kind: kind, SourceFile: w.file, ASTFile: w.astFile}
}

func (w *walker) resolveStmt(id ast.StmtID) {
	stmt := w.builder.Stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtBlock:
		owner := w.owner(ScopeOwnerStmt)
		owner.Stmt = id
		scope := w.resolver.Enter(ScopeBlock, owner, stmt.Span)
		for _, s := range w.builder.Stmts.Block(id).Stmts {
			w.resolveStmt(s)
		}
		w.resolver.Leave(scope)
	case ast.StmtLet:
		let := w.builder.Stmts.Let(id)
		if let.Type.IsValid() {
			w.resolveType(let.Type)
		}
		// инициализатор видит только предыдущие объявления
		if let.Value.IsValid() {
			w.resolveExpr(let.Value)
		}
		var flags SymbolFlags
		if let.Mutable {
			flags |= SymbolFlagMutable
		}
		decl := w.decl(ast.NoItemID)
		decl.Stmt = id
		if sym, ok := w.resolver.Declare(let.Name, let.NameSpan, SymbolLet, flags, decl); ok {
			w.result.StmtSymbols[id] = sym
		}
	case ast.StmtExpr:
		w.resolveExpr(w.builder.Stmts.Expr(id).Expr)
	case ast.StmtReturn:
		if ret := w.builder.Stmts.Return(id); ret.Value.IsValid() {
			w.resolveExpr(ret.Value)
		}
	case ast.StmtIf:
		st := w.builder.Stmts.If(id)
		w.resolveExpr(st.Cond)
		w.resolveStmt(st.Then)
		if st.Else.IsValid() {
			w.resolveStmt(st.Else)
		}
	case ast.StmtWhile:
		st := w.builder.Stmts.While(id)
		w.resolveExpr(st.Cond)
		w.loop(id, stmt.Span, func() { w.resolveStmt(st.Body) })
	case ast.StmtForRange:
		st := w.builder.Stmts.ForRange(id)
		w.resolveExpr(st.Start)
		w.resolveExpr(st.End)
		w.loop(id, stmt.Span, func() {
			w.declareLoopVar(id, st.Var, st.VarSpan)
			w.resolveStmt(st.Body)
		})
	case ast.StmtForEach:
		st := w.builder.Stmts.ForEach(id)
		w.resolveExpr(st.Iterable)
		w.loop(id, stmt.Span, func() {
			w.declareLoopVar(id, st.Var, st.VarSpan)
			w.resolveStmt(st.Body)
		})
	case ast.StmtBreak, ast.StmtSkip:
	}
}

func (w *walker) loop(id ast.StmtID, span source.Span, body func()) {
	owner := w.owner(ScopeOwnerStmt)
	owner.Stmt = id
	scope := w.resolver.Enter(ScopeLoop, owner, span)
	body()
	w.resolver.Leave(scope)
}

func (w *walker) declareLoopVar(id ast.StmtID, name source.StringID, span source.Span) {
	decl := w.decl(ast.NoItemID)
	decl.Stmt = id
	if sym, ok := w.resolver.Declare(name, span, SymbolLet, 0, decl); ok {
		w.result.StmtSymbols[id] = sym
	}
}

func (w *walker) resolveExprs(ids []ast.ExprID) {
	for _, id := range ids {
		w.resolveExpr(id)
	}
}

func (w *walker) resolveExpr(id ast.ExprID) {
	expr := w.builder.Exprs.Get(id)
	if expr == nil {
		return
	}
	exprs := w.builder.Exprs
	switch expr.Kind {
	case ast.ExprIdent:
		data, _ := exprs.Ident(id)
		sym, ok := w.resolver.LookupOne(data.Name, KindMaskValue)
		if !ok {
			w.reportUnresolved(data.Name, expr.Span)
			return
		}
		w.result.ExprSymbols[id] = sym
	case ast.ExprLit:
	case ast.ExprBinary:
		data, _ := exprs.Binary(id)
		w.resolveExpr(data.Left)
		w.resolveExpr(data.Right)
	case ast.ExprUnary:
		data, _ := exprs.Unary(id)
		w.resolveExpr(data.Operand)
	case ast.ExprCall:
		data, _ := exprs.Call(id)
		w.resolveCall(id, data)
		w.resolveExprs(data.Args)
	case ast.ExprStaticCall:
		data, _ := exprs.StaticCall(id)
		w.resolveStaticCall(id, expr.Span, data)
		w.resolveExprs(data.Args)
	case ast.ExprMethodCall:
		data, _ := exprs.MethodCall(id)
		w.result.ExprScopes[id] = w.resolver.CurrentScope()
		w.resolveExpr(data.Receiver)
		w.resolveExprs(data.Args)
	case ast.ExprStructLit:
		data, _ := exprs.StructLit(id)
		w.resolveType(data.Type)
		for _, f := range data.Fields {
			w.resolveExpr(f.Value)
		}
	case ast.ExprArrayLit:
		data, _ := exprs.ArrayLit(id)
		w.resolveExprs(data.Elems)
	case ast.ExprField:
		data, _ := exprs.Field(id)
		w.resolveExpr(data.Target)
	case ast.ExprIndex:
		data, _ := exprs.Index(id)
		w.resolveExpr(data.Target)
		w.resolveExpr(data.Index)
	case ast.ExprSlice:
		data, _ := exprs.Slice(id)
		w.resolveExpr(data.Source)
		w.resolveExpr(data.Start)
		w.resolveExpr(data.End)
	case ast.ExprCast:
		data, _ := exprs.Cast(id)
		w.resolveExpr(data.Value)
		w.resolveType(data.Type)
	case ast.ExprMatch:
		data, _ := exprs.Match(id)
		w.resolveExpr(data.Scrutinee)
		for i, arm := range data.Arms {
			w.resolveArm(id, i, arm)
		}
	case ast.ExprAssign:
		data, _ := exprs.Assign(id)
		w.resolveExpr(data.Target)
		w.resolveExpr(data.Value)
	}
}

func (w *walker) resolveArm(matchID ast.ExprID, index int, arm ast.MatchArm) {
	switch arm.Pattern.Kind {
	case ast.PatternBinding:
		owner := w.owner(ScopeOwnerExpr)
		owner.Expr = matchID
		scope := w.resolver.Enter(ScopeMatchArm, owner, arm.Span)
		decl := w.decl(ast.NoItemID)
		decl.Expr = matchID
		decl.Index = index
		if sym, ok := w.resolver.Declare(arm.Pattern.Name, arm.Pattern.Span, SymbolLet, 0, decl); ok {
			w.result.ArmSymbols[ArmRef{Match: matchID, Index: index}] = sym
		}
		w.resolveExpr(arm.Value)
		w.resolver.Leave(scope)
	case ast.PatternLiteral:
		w.resolveExpr(arm.Pattern.Lit)
		w.resolveExpr(arm.Value)
	default:
		w.resolveExpr(arm.Value)
	}
}

func (w *walker) resolveCall(id ast.ExprID, data *ast.ExprCallData) {
	w.result.ExprScopes[id] = w.resolver.CurrentScope()
	res := w.table.ResolveCall(w.resolver.CurrentScope(), data.Name)
	w.result.Callees[id] = res
	switch res.Kind {
	case ResolutionMissing:
		w.reportUnresolved(data.Name, data.NameSpan)
	case ResolutionAmbiguous:
		w.reportAmbiguous(data, res.Candidates)
	}
}

func (w *walker) reportAmbiguous(data *ast.ExprCallData, candidates []SymbolID) {
	name := w.name(data.Name)
	labels := make([]string, 0, len(candidates))
	qualified := ""
	for _, c := range candidates {
		sym := w.table.Symbols.Get(c)
		label := name
		if sym != nil && sym.Owner.IsValid() {
			label = w.table.Name(sym.Owner) + "::" + name
			if qualified == "" {
				qualified = label
			}
		}
		labels = append(labels, label)
	}
	msg := fmt.Sprintf("call to '%s' is ambiguous", name)
	b := diag.ReportError(w.reporter, diag.SemaAmbiguousCall, data.NameSpan, msg).
		WithArgs(append([]string{name}, labels...)...)
	for i, c := range candidates {
		if sym := w.table.Symbols.Get(c); sym != nil {
			b.WithNote(sym.Span, fmt.Sprintf("candidate '%s' declared here", labels[i]))
		}
	}
	if qualified != "" {
		b.WithFix("qualify as "+qualified, diag.FixEdit{Span: data.NameSpan, NewText: qualified})
	}
	b.Emit()
}

func (w *walker) resolveStaticCall(id ast.ExprID, span source.Span, data *ast.ExprStaticCallData) {
	scope := w.resolver.CurrentScope()
	w.result.ExprScopes[id] = scope
	res := w.table.ResolveQualified(scope, data.Type, data.Member)
	w.result.Callees[id] = res
	if res.Kind == ResolutionUnique {
		return
	}
	typeSym, ok := w.resolver.LookupOne(data.Type, SymbolType.Mask())
	if !ok {
		w.report(diag.SemaUnresolvedType, span, fmt.Sprintf("unknown type '%s'", w.name(data.Type)))
		return
	}
	msg := fmt.Sprintf("type '%s' has no function '%s'", w.name(data.Type), w.name(data.Member))
	b := diag.ReportError(w.reporter, diag.SemaMemberNotFound, span, msg).
		WithArgs(w.name(data.Type), w.name(data.Member))
	if sym := w.table.Symbols.Get(typeSym); sym != nil && sym.Span != (source.Span{}) {
		b.WithNote(sym.Span, "type declared here")
	}
	b.Emit()
}

func (w *walker) reportUnresolved(name source.StringID, span source.Span) {
	text := w.name(name)
	diag.ReportError(w.reporter, diag.SemaUnresolvedSymbol, span, fmt.Sprintf("undefined name '%s'", text)).
		WithArgs(text).
		Emit()
}

func (w *walker) resolveType(id ast.TypeID) {
	te := w.builder.Types.Get(id)
	if te == nil {
		return
	}
	switch te.Kind {
	case ast.TypeExprPath:
		data, _ := w.builder.Types.Path(id)
		sym, ok := w.resolver.LookupOne(data.Name, KindMaskType)
		if !ok {
			text := w.name(data.Name)
			diag.ReportError(w.reporter, diag.SemaUnresolvedType, te.Span, fmt.Sprintf("unknown type '%s'", text)).
				WithArgs(text).
				Emit()
		} else {
			w.result.TypeRefs[id] = sym
		}
		for i, arg := range data.Args {
			if arg.IsSize {
				w.resolveSize(SizeRef{Type: id, Arg: i}, arg.Size)
				continue
			}
			w.resolveType(arg.Type)
		}
	case ast.TypeExprArray:
		data, _ := w.builder.Types.Array(id)
		w.resolveType(data.Elem)
		w.resolveSize(SizeRef{Type: id, Arg: -1}, data.Size)
	case ast.TypeExprHeap, ast.TypeExprOptional:
		data, _ := w.builder.Types.Wrap(id)
		w.resolveType(data.Elem)
	case ast.TypeExprFn:
		data, _ := w.builder.Types.Fn(id)
		for _, p := range data.Params {
			w.resolveType(p)
		}
		if data.Result.IsValid() {
			w.resolveType(data.Result)
		}
	}
}

func (w *walker) resolveSize(ref SizeRef, size ast.SizeExpr) {
	if size.IsLiteral() {
		return
	}
	if sym, ok := w.resolver.LookupOne(size.Name, SymbolGeneric.Mask()); ok {
		if s := w.table.Symbols.Get(sym); s != nil && s.Flags&SymbolFlagSizeParam != 0 {
			w.result.SizeRefs[ref] = sym
			return
		}
	}
	if w.discover {
		if sym := w.declareImplicitSize(size.Name, size.Span); sym.IsValid() {
			w.result.SizeRefs[ref] = sym
		}
		return
	}
	text := w.name(size.Name)
	diag.ReportError(w.reporter, diag.SemaUnresolvedSymbol, size.Span, fmt.Sprintf("unknown size parameter '%s'", text)).
		WithArgs(text).
		Emit()
}
