package sema

import (
	"fmt"

	"fortio.org/safecast"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/source"
	"hydra/internal/symbols"
	"hydra/internal/types"
)

// registerStructs allocates a nominal type and placeholders for every struct.
func (tc *typeChecker) registerStructs(items []ast.ItemID) {
	for _, item := range items {
		st, _ := tc.builder.Items.Struct(item)
		sym, ok := tc.syms.ItemSymbols[item]
		if !ok {
			continue
		}
		generics := tc.syms.StructGenerics[item]
		params := make([]types.ParamID, 0, len(generics))
		for _, g := range generics {
			params = append(params, tc.declareParam(g))
		}
		origin := tc.types.RegisterStruct(st.Name, st.NameSpan, params)
		tc.result.StructTypes[sym] = origin
		tc.structSyms[origin] = sym
	}
}

func (tc *typeChecker) declareParam(sym symbols.SymbolID) types.ParamID {
	if p, ok := tc.params[sym]; ok {
		return p
	}
	s := tc.symbol(sym)
	kind := types.ParamType
	if s.Flags&symbols.SymbolFlagSizeParam != 0 {
		kind = types.ParamSize
	}
	p, t := tc.types.NewParam(s.Name, kind, uint32(sym))
	tc.params[sym] = p
	tc.paramTypes[sym] = t
	return p
}

func (tc *typeChecker) resolveTypedefs() {
	syms := make([]symbols.SymbolID, 0, len(tc.itemOf))
	for sym, item := range tc.itemOf {
		if _, ok := tc.builder.Items.Typedef(item); ok {
			syms = append(syms, sym)
		}
	}
	sortSymbols(syms)
	for _, sym := range syms {
		tc.typedefType(sym)
	}
}

// typedefType resolves an alias lazily; an alias reached again while its own
// target is being resolved forms a cycle.
func (tc *typeChecker) typedefType(sym symbols.SymbolID) types.TypeID {
	if t, ok := tc.typedefs[sym]; ok {
		return t
	}
	td, ok := tc.builder.Items.Typedef(tc.itemOf[sym])
	if !ok {
		return tc.types.Builtins().Unresolved
	}
	if tc.aliasBusy[sym] {
		diag.ReportError(tc.reporter, diag.SemaAliasCycle, td.NameSpan,
			fmt.Sprintf("type alias '%s' refers to itself", tc.name(sym))).
			WithArgs(tc.name(sym)).
			Emit()
		tc.typedefs[sym] = tc.types.Builtins().Unresolved
		return tc.typedefs[sym]
	}
	tc.aliasBusy[sym] = true
	t := tc.resolveType(td.Target)
	delete(tc.aliasBusy, sym)
	if _, done := tc.typedefs[sym]; !done {
		tc.typedefs[sym] = t
	}
	return tc.typedefs[sym]
}

func (tc *typeChecker) resolveStructFields(items []ast.ItemID) {
	for _, item := range items {
		st, _ := tc.builder.Items.Struct(item)
		sym, ok := tc.syms.ItemSymbols[item]
		if !ok {
			continue
		}
		seen := make(map[source.StringID]source.Span, len(st.Fields))
		fields := make([]types.StructField, 0, len(st.Fields))
		for _, f := range st.Fields {
			name := tc.builder.NameOf(f.Name)
			if prev, dup := seen[f.Name]; dup {
				diag.ReportError(tc.reporter, diag.SemaDuplicateField, f.Span,
					fmt.Sprintf("duplicate field '%s' in struct '%s'", name, tc.name(sym))).
					WithArgs(name, tc.name(sym)).
					WithNote(prev, "previous field here").
					Emit()
				continue
			}
			seen[f.Name] = f.Span
			ft := tc.resolveType(f.Type)
			if tc.types.KindOf(ft) == types.KindVoid {
				diag.ReportError(tc.reporter, diag.SemaVoidValue, f.Span,
					fmt.Sprintf("field '%s' cannot have type void", name)).
					WithArgs(name).
					Emit()
				ft = tc.types.Builtins().Unresolved
			}
			fields = append(fields, types.StructField{Name: f.Name, Type: ft})
		}
		tc.types.SetStructFields(tc.result.StructTypes[sym], fields)
	}
}

func (tc *typeChecker) checkRecursiveStructs(items []ast.ItemID) {
	for _, item := range items {
		sym, ok := tc.syms.ItemSymbols[item]
		if !ok {
			continue
		}
		origin := tc.result.StructTypes[sym]
		err := tc.classes.CheckFinite(origin)
		if err == nil || len(err.Cycle) == 0 || err.Cycle[0] != origin {
			continue
		}
		st, _ := tc.builder.Items.Struct(item)
		path := ""
		for i, t := range err.Cycle {
			if i > 0 {
				path += " -> "
			}
			path += tc.label(t)
		}
		diag.ReportError(tc.reporter, diag.SemaRecursiveStruct, st.NameSpan,
			fmt.Sprintf("struct '%s' contains itself by value (%s)", tc.name(sym), path)).
			WithArgs(tc.name(sym)).
			WithNote(st.NameSpan, "wrap the recursive field in heap to give it a finite size").
			Emit()
	}
}

// resolveType maps a type expression to a type. Placeholders stay symbolic;
// bodyType applies the substitution of the current body on top.
func (tc *typeChecker) resolveType(id ast.TypeID) types.TypeID {
	b := tc.types.Builtins()
	te := tc.builder.Types.Get(id)
	if te == nil {
		return b.Unresolved
	}
	switch te.Kind {
	case ast.TypeExprPath:
		data, _ := tc.builder.Types.Path(id)
		sym, ok := tc.syms.TypeRefs[id]
		if !ok {
			return b.Unresolved
		}
		return tc.namedType(id, te.Span, sym, data)
	case ast.TypeExprArray:
		data, _ := tc.builder.Types.Array(id)
		elem := tc.resolveType(data.Elem)
		if tc.types.IsUnresolved(elem) {
			return b.Unresolved
		}
		if tc.types.KindOf(elem) == types.KindVoid {
			diag.ReportError(tc.rep(), diag.SemaVoidValue, te.Span, "array of void").Emit()
			return b.Unresolved
		}
		if data.Size.IsLiteral() {
			n, ok := tc.arraySize(data.Size.Value, data.Size.Span)
			if !ok {
				return b.Unresolved
			}
			return tc.types.Array(elem, n, data.ElemConst)
		}
		param, ok := tc.sizeParam(symbols.SizeRef{Type: id, Arg: -1})
		if !ok {
			return b.Unresolved
		}
		off, ok := tc.sizeOffset(data.Size)
		if !ok {
			return b.Unresolved
		}
		return tc.types.Intern(types.MakeGenericArray(elem, param, off, data.ElemConst))
	case ast.TypeExprHeap, ast.TypeExprOptional:
		data, _ := tc.builder.Types.Wrap(id)
		elem := tc.resolveType(data.Elem)
		if tc.types.IsUnresolved(elem) {
			return b.Unresolved
		}
		if te.Kind == ast.TypeExprHeap {
			return tc.types.Heap(elem)
		}
		if tc.types.KindOf(elem) == types.KindVoid {
			diag.ReportError(tc.rep(), diag.SemaVoidValue, te.Span, "optional of void").Emit()
			return b.Unresolved
		}
		return tc.types.Optional(elem)
	case ast.TypeExprFn:
		data, _ := tc.builder.Types.Fn(id)
		params := make([]types.TypeID, 0, len(data.Params))
		for _, p := range data.Params {
			params = append(params, tc.resolveType(p))
		}
		result := b.Void
		if data.Result.IsValid() {
			result = tc.resolveType(data.Result)
		}
		return tc.types.RegisterFn(params, result)
	}
	return b.Unresolved
}

func (tc *typeChecker) arraySize(v int64, span source.Span) (uint32, bool) {
	if v < 0 {
		diag.ReportError(tc.rep(), diag.SemaNegativeArraySize, span,
			fmt.Sprintf("array size %d is negative", v)).
			WithArgs(fmt.Sprint(v)).
			Emit()
		return 0, false
	}
	n, err := safecast.Conv[uint32](v)
	if err != nil {
		diag.ReportError(tc.rep(), diag.SemaNegativeArraySize, span,
			fmt.Sprintf("array size %d is out of range", v)).
			WithArgs(fmt.Sprint(v)).
			Emit()
		return 0, false
	}
	return n, true
}

func (tc *typeChecker) sizeOffset(size ast.SizeExpr) (int32, bool) {
	off, err := safecast.Conv[int32](size.Value)
	if err != nil {
		diag.ReportError(tc.rep(), diag.SemaNegativeArraySize, size.Span,
			fmt.Sprintf("size offset %d is out of range", size.Value)).
			Emit()
		return 0, false
	}
	return off, true
}

func (tc *typeChecker) sizeParam(ref symbols.SizeRef) (types.ParamID, bool) {
	sym, ok := tc.syms.SizeRefs[ref]
	if !ok {
		return types.NoParamID, false
	}
	p, ok := tc.params[sym]
	return p, ok
}

func (tc *typeChecker) namedType(id ast.TypeID, span source.Span, sym symbols.SymbolID, data *ast.TypePathData) types.TypeID {
	b := tc.types.Builtins()
	s := tc.symbol(sym)
	if s == nil {
		return b.Unresolved
	}
	name := tc.name(sym)
	switch {
	case s.Kind == symbols.SymbolType && s.Flags&symbols.SymbolFlagStruct != 0:
		return tc.instantiate(id, span, sym, data)
	case s.Kind == symbols.SymbolType && s.Flags&symbols.SymbolFlagTypedef != 0:
		if len(data.Args) > 0 {
			tc.reportTypeArgCount(span, name, 0, len(data.Args))
		}
		return tc.typedefType(sym)
	case s.Kind == symbols.SymbolType:
		if len(data.Args) > 0 {
			tc.reportTypeArgCount(span, name, 0, len(data.Args))
		}
		t, ok := tc.types.Primitive(name)
		if !ok {
			return b.Unresolved
		}
		return t
	case s.Kind == symbols.SymbolGeneric && s.Flags&symbols.SymbolFlagSizeParam == 0:
		if t, ok := tc.paramTypes[sym]; ok {
			return t
		}
		return b.Unresolved
	}
	what := s.Kind.String()
	if s.Kind == symbols.SymbolGeneric {
		what = "size parameter"
	}
	diag.ReportError(tc.rep(), diag.SemaNotAType, span,
		fmt.Sprintf("'%s' is a %s, not a type", name, what)).
		WithArgs(name).
		WithNote(s.Span, fmt.Sprintf("'%s' declared here", name)).
		Emit()
	return b.Unresolved
}

func (tc *typeChecker) reportTypeArgCount(span source.Span, name string, want, got int) {
	diag.ReportError(tc.rep(), diag.SemaArgCount, span,
		fmt.Sprintf("type '%s' expects %d generic arguments, got %d", name, want, got)).
		WithArgs(name, fmt.Sprint(want), fmt.Sprint(got)).
		Emit()
}

// instantiate builds `Box<T, 4>`. Size slots accept literals, size
// expressions and bare names of size parameters.
func (tc *typeChecker) instantiate(id ast.TypeID, span source.Span, sym symbols.SymbolID, data *ast.TypePathData) types.TypeID {
	b := tc.types.Builtins()
	origin := tc.result.StructTypes[sym]
	info, ok := tc.types.StructInfo(origin)
	if !ok {
		return b.Unresolved
	}
	if len(data.Args) != len(info.Params) {
		tc.reportTypeArgCount(span, tc.name(sym), len(info.Params), len(data.Args))
		return b.Unresolved
	}
	if len(info.Params) == 0 {
		return origin
	}
	args := make([]types.TypeID, len(data.Args))
	for i, arg := range data.Args {
		pi, _ := tc.types.ParamInfo(info.Params[i])
		var t types.TypeID
		if pi.Kind == types.ParamSize {
			t = tc.sizeArg(id, i, arg)
		} else {
			t = tc.typeArg(arg)
		}
		if tc.types.IsUnresolved(t) {
			return b.Unresolved
		}
		args[i] = t
	}
	return tc.types.Instantiate(origin, args)
}

func (tc *typeChecker) sizeArg(id ast.TypeID, index int, arg ast.TypeArg) types.TypeID {
	b := tc.types.Builtins()
	if !arg.IsSize {
		// голое имя в позиции размера
		sym, ok := tc.syms.TypeRefs[arg.Type]
		if s := tc.symbol(sym); ok && s != nil && s.Flags&symbols.SymbolFlagSizeParam != 0 {
			if p, ok := tc.params[sym]; ok {
				return tc.types.Intern(types.MakeGenericSize(p, 0))
			}
		}
		span := source.Span{}
		if te := tc.builder.Types.Get(arg.Type); te != nil {
			span = te.Span
		}
		diag.ReportError(tc.rep(), diag.SemaTypeMismatch, span, "expected a size argument, found a type").Emit()
		return b.Unresolved
	}
	if arg.Size.IsLiteral() {
		n, ok := tc.arraySize(arg.Size.Value, arg.Size.Span)
		if !ok {
			return b.Unresolved
		}
		return tc.types.Intern(types.MakeConst(n))
	}
	p, ok := tc.sizeParam(symbols.SizeRef{Type: id, Arg: index})
	if !ok {
		return b.Unresolved
	}
	off, ok := tc.sizeOffset(arg.Size)
	if !ok {
		return b.Unresolved
	}
	return tc.types.Intern(types.MakeGenericSize(p, off))
}

func (tc *typeChecker) typeArg(arg ast.TypeArg) types.TypeID {
	if arg.IsSize {
		diag.ReportError(tc.rep(), diag.SemaTypeMismatch, arg.Size.Span, "expected a type argument, found a size").Emit()
		return tc.types.Builtins().Unresolved
	}
	return tc.resolveType(arg.Type)
}

// bodyType resolves a type expression inside the current body and applies
// the body's substitution.
func (tc *typeChecker) bodyType(id ast.TypeID, span source.Span) types.TypeID {
	return tc.substitute(tc.resolveType(id), span)
}

// substitute applies the current substitution. A size that drops below zero
// is reported at span.
func (tc *typeChecker) substitute(t types.TypeID, span source.Span) types.TypeID {
	if tc.body == nil || tc.body.subst.Empty() {
		return t
	}
	out, err := tc.types.Apply(t, tc.body.subst)
	if err != nil {
		diag.ReportError(tc.rep(), diag.SemaNegativeArraySize, span,
			fmt.Sprintf("array size of %s becomes negative: %v", tc.label(t), err)).
			WithArgs(tc.label(t)).
			Emit()
		return tc.types.Builtins().Unresolved
	}
	return out
}
