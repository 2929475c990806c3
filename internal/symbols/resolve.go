package symbols

import (
	"fmt"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/source"
)

// ResolveOptions configure ResolveFile.
type ResolveOptions struct {
	Reporter diag.Reporter
	// Table is reused when several files share one symbol space; a fresh
	// table backed by the builder's interner is allocated when nil.
	Table   *Table
	Prelude []PreludeEntry
}

// Result maps every name use of one file to its symbol.
type Result struct {
	Table     *Table
	File      ast.FileID
	FileScope ScopeID

	ItemSymbols map[ast.ItemID]SymbolID
	ItemScopes  map[ast.ItemID]ScopeID
	StmtSymbols map[ast.StmtID]SymbolID
	ExprSymbols map[ast.ExprID]SymbolID
	ExprScopes  map[ast.ExprID]ScopeID // scope active at each call site
	Callees     map[ast.ExprID]Resolution
	TypeRefs    map[ast.TypeID]SymbolID
	SizeRefs    map[SizeRef]SymbolID
	ArmSymbols  map[ArmRef]SymbolID

	FnGenerics     map[ast.ItemID][]SymbolID // explicit generics first, then implicit sizes
	StructGenerics map[ast.ItemID][]SymbolID
	ParamSymbols   map[ast.ItemID][]SymbolID
}

func newResult(table *Table, file ast.FileID) *Result {
	return &Result{
		Table:          table,
		File:           file,
		ItemSymbols:    make(map[ast.ItemID]SymbolID),
		ItemScopes:     make(map[ast.ItemID]ScopeID),
		StmtSymbols:    make(map[ast.StmtID]SymbolID),
		ExprSymbols:    make(map[ast.ExprID]SymbolID),
		ExprScopes:     make(map[ast.ExprID]ScopeID),
		Callees:        make(map[ast.ExprID]Resolution),
		TypeRefs:       make(map[ast.TypeID]SymbolID),
		SizeRefs:       make(map[SizeRef]SymbolID),
		ArmSymbols:     make(map[ArmRef]SymbolID),
		FnGenerics:     make(map[ast.ItemID][]SymbolID),
		StructGenerics: make(map[ast.ItemID][]SymbolID),
		ParamSymbols:   make(map[ast.ItemID][]SymbolID),
	}
}

// ResolveFile builds the scope tree of one file and resolves every name use.
// Module-level items are declared before any body is visited, so resolution
// does not depend on declaration order.
func ResolveFile(builder *ast.Builder, fileID ast.FileID, opts ResolveOptions) *Result {
	table := opts.Table
	if table == nil {
		table = NewTable(Hints{}, builder.StringsInterner)
	}
	res := newResult(table, fileID)
	file := builder.Files.Get(fileID)
	if file == nil {
		return res
	}
	root := table.FileRoot(file.Span.File, file.Span)
	if scope := table.Scopes.Get(root); scope != nil {
		scope.Owner.ASTFile = fileID
	}
	res.FileScope = root

	w := &walker{
		builder:  builder,
		table:    table,
		reporter: opts.Reporter,
		resolver: NewResolver(table, root, ResolverOptions{Reporter: opts.Reporter, Prelude: opts.Prelude}),
		result:   res,
		file:     file.Span.File,
		astFile:  fileID,
	}
	for _, itemID := range file.Items {
		w.declareItem(itemID)
	}
	for _, itemID := range file.Items {
		w.resolveItem(itemID)
	}
	return res
}

type walker struct {
	builder  *ast.Builder
	table    *Table
	reporter diag.Reporter
	resolver *Resolver
	result   *Result
	file     source.FileID
	astFile  ast.FileID

	// fnItem is the function whose signature may introduce implicit sizes.
	fnItem   ast.ItemID
	fnSym    SymbolID
	discover bool
}

func (w *walker) decl(item ast.ItemID) SymbolDecl {
	return SymbolDecl{SourceFile: w.file, ASTFile: w.astFile, Item: item}
}

func (w *walker) name(id source.StringID) string {
	return w.builder.NameOf(id)
}

// declareItem is the first pass: module-level names, struct type scopes and
// the functions living in them.
func (w *walker) declareItem(itemID ast.ItemID) {
	item := w.builder.Items.Get(itemID)
	if item == nil {
		return
	}
	switch item.Kind {
	case ast.ItemStruct:
		st, _ := w.builder.Items.Struct(itemID)
		w.declareStruct(itemID, item, st)
	case ast.ItemTypedef:
		td, _ := w.builder.Items.Typedef(itemID)
		if sym, ok := w.resolver.Declare(td.Name, td.NameSpan, SymbolType, SymbolFlagTypedef, w.decl(itemID)); ok {
			w.result.ItemSymbols[itemID] = sym
		}
	case ast.ItemFn:
		fn, _ := w.builder.Items.Fn(itemID)
		if fn.Owner.IsValid() {
			// объявляется вместе со своей структурой
			return
		}
		if sym, ok := w.resolver.Declare(fn.Name, fn.NameSpan, SymbolFunction, 0, w.decl(itemID)); ok {
			w.result.ItemSymbols[itemID] = sym
		}
	case ast.ItemLet:
		let, _ := w.builder.Items.Let(itemID)
		flags := SymbolFlagGlobal
		if let.Mutable {
			flags |= SymbolFlagMutable
		}
		if sym, ok := w.resolver.Declare(let.Name, let.NameSpan, SymbolLet, flags, w.decl(itemID)); ok {
			w.result.ItemSymbols[itemID] = sym
		}
	}
}

func (w *walker) declareStruct(itemID ast.ItemID, item *ast.Item, st *ast.StructItem) {
	sym, ok := w.resolver.Declare(st.Name, st.NameSpan, SymbolType, SymbolFlagStruct, w.decl(itemID))
	if !ok {
		return
	}
	w.result.ItemSymbols[itemID] = sym
	scope := w.resolver.Enter(ScopeStruct, ScopeOwner{
		Kind:       ScopeOwnerItem,
		SourceFile: w.file,
		ASTFile:    w.astFile,
		Item:       itemID,
	}, item.Span)
	w.table.Symbols.Get(sym).TypeScope = scope
	w.result.ItemScopes[itemID] = scope

	generics := make([]SymbolID, 0, len(st.Generics))
	for i, g := range st.Generics {
		if gen := w.declareGeneric(itemID, sym, g, i); gen.IsValid() {
			generics = append(generics, gen)
		}
	}
	w.result.StructGenerics[itemID] = generics

	for _, methodID := range st.Methods {
		fn, ok := w.builder.Items.Fn(methodID)
		if !ok {
			continue
		}
		var flags SymbolFlags
		if len(fn.Params) > 0 && !fn.Params[0].Type.IsValid() {
			flags |= SymbolFlagMethod
		}
		fnSym, ok := w.resolver.Declare(fn.Name, fn.NameSpan, SymbolFunction, flags, w.decl(methodID))
		if !ok {
			continue
		}
		w.table.Symbols.Get(fnSym).Owner = sym
		w.result.ItemSymbols[methodID] = fnSym
	}
	w.resolver.Leave(scope)
}

func (w *walker) declareGeneric(itemID ast.ItemID, owner SymbolID, g ast.GenericParam, index int) SymbolID {
	var flags SymbolFlags
	if g.Kind == ast.GenericSize {
		flags |= SymbolFlagSizeParam
	}
	decl := w.decl(itemID)
	decl.Index = index
	id, ok := w.resolver.Declare(g.Name, g.Span, SymbolGeneric, flags, decl)
	if !ok {
		return NoSymbolID
	}
	w.table.Symbols.Get(id).Owner = owner
	return id
}

// resolveItem is the second pass over signatures, field types and bodies.
func (w *walker) resolveItem(itemID ast.ItemID) {
	item := w.builder.Items.Get(itemID)
	if item == nil {
		return
	}
	switch item.Kind {
	case ast.ItemStruct:
		st, _ := w.builder.Items.Struct(itemID)
		scope, ok := w.result.ItemScopes[itemID]
		if !ok {
			return
		}
		w.resolver.Reenter(scope)
		for _, field := range st.Fields {
			w.resolveType(field.Type)
		}
		for _, methodID := range st.Methods {
			if fn, ok := w.builder.Items.Fn(methodID); ok {
				w.resolveFn(methodID, fn)
			}
		}
		w.resolver.Leave(scope)
	case ast.ItemTypedef:
		td, _ := w.builder.Items.Typedef(itemID)
		w.resolveType(td.Target)
	case ast.ItemFn:
		fn, _ := w.builder.Items.Fn(itemID)
		if fn.Owner.IsValid() {
			return
		}
		w.resolveFn(itemID, fn)
	case ast.ItemLet:
		let, _ := w.builder.Items.Let(itemID)
		if let.Type.IsValid() {
			w.resolveType(let.Type)
		}
		if let.Value.IsValid() {
			w.resolveExpr(let.Value)
		}
	}
}

func (w *walker) resolveFn(itemID ast.ItemID, fn *ast.FnItem) {
	item := w.builder.Items.Get(itemID)
	fnSym := w.result.ItemSymbols[itemID]
	scope := w.resolver.Enter(ScopeFunction, ScopeOwner{
		Kind:       ScopeOwnerItem,
		SourceFile: w.file,
		ASTFile:    w.astFile,
		Item:       itemID,
	}, item.Span)
	w.result.ItemScopes[itemID] = scope

	generics := make([]SymbolID, 0, len(fn.Generics))
	for i, g := range fn.Generics {
		if gen := w.declareGeneric(itemID, fnSym, g, i); gen.IsValid() {
			generics = append(generics, gen)
		}
	}
	w.result.FnGenerics[itemID] = generics

	w.fnItem, w.fnSym, w.discover = itemID, fnSym, true
	for _, p := range fn.Params {
		if p.Type.IsValid() {
			w.resolveType(p.Type)
		}
	}
	if fn.Result.IsValid() {
		w.resolveType(fn.Result)
	}
	w.fnItem, w.fnSym, w.discover = ast.NoItemID, NoSymbolID, false

	params := make([]SymbolID, 0, len(fn.Params))
	for i, p := range fn.Params {
		var flags SymbolFlags
		if p.Mutable {
			flags |= SymbolFlagMutable
		}
		if !p.Type.IsValid() {
			if i != 0 || fn.Owner == ast.NoItemID {
				w.report(diag.SemaUnresolvedType, p.Span, fmt.Sprintf("parameter '%s' has no type", w.name(p.Name)))
			}
			flags |= SymbolFlagSelf
		}
		decl := w.decl(itemID)
		decl.Index = i
		if id, ok := w.resolver.Declare(p.Name, p.Span, SymbolParam, flags, decl); ok {
			params = append(params, id)
		} else {
			params = append(params, NoSymbolID)
		}
	}
	w.result.ParamSymbols[itemID] = params

	if body := w.builder.Stmts.Block(fn.Body); body != nil {
		for _, stmt := range body.Stmts {
			w.resolveStmt(stmt)
		}
	}
	w.resolver.Leave(scope)
}

// declareImplicitSize introduces a size placeholder first seen in a function
// signature, e.g. `fn sum(a: [i32, N]) -> i32`.
func (w *walker) declareImplicitSize(name source.StringID, span source.Span) SymbolID {
	decl := w.decl(w.fnItem)
	decl.Index = len(w.result.FnGenerics[w.fnItem])
	id, ok := w.resolver.Declare(name, span, SymbolGeneric, SymbolFlagSizeParam|SymbolFlagImplicit, decl)
	if !ok {
		return NoSymbolID
	}
	w.table.Symbols.Get(id).Owner = w.fnSym
	w.result.FnGenerics[w.fnItem] = append(w.result.FnGenerics[w.fnItem], id)
	return id
}

func (w *walker) report(code diag.Code, span source.Span, msg string) {
	diag.ReportError(w.reporter, code, span, msg).Emit()
}
