package sema

import (
	"context"
	"fmt"
	"slices"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/mono"
	"hydra/internal/ownership"
	"hydra/internal/symbols"
	"hydra/internal/trace"
	"hydra/internal/types"
)

// Options configure Check.
type Options struct {
	Reporter diag.Reporter
	// Types is shared by units that exchange types; a fresh interner backed by
	// the builder's strings is allocated when nil.
	Types *types.Interner
	Mono  mono.Config
}

// Check annotates the resolved file. The returned result is complete even
// when diagnostics were reported: unresolved spots carry the poisoned type.
func Check(ctx context.Context, builder *ast.Builder, syms *symbols.Result, opts Options) *Result {
	if ctx == nil {
		ctx = context.Background()
	}
	typesIn := opts.Types
	if typesIn == nil {
		typesIn = types.NewInterner(builder.StringsInterner)
	}
	tc := newTypeChecker(ctx, builder, syms, typesIn, opts)
	tc.run()
	return tc.result
}

type typeChecker struct {
	ctx      context.Context
	builder  *ast.Builder
	syms     *symbols.Result
	table    *symbols.Table
	types    *types.Interner
	reporter diag.Reporter
	engine   *mono.Engine
	classes  *ownership.Classifier
	result   *Result

	itemOf     map[symbols.SymbolID]ast.ItemID
	params     map[symbols.SymbolID]types.ParamID
	paramTypes map[symbols.SymbolID]types.TypeID
	structSyms map[types.TypeID]symbols.SymbolID // origin -> declaring symbol
	typedefs   map[symbols.SymbolID]types.TypeID
	aliasBusy  map[symbols.SymbolID]bool
	globals    map[symbols.SymbolID]*Binding
	globalDone map[symbols.SymbolID]bool
	flows      []argFlow

	body *bodyState
}

// bodyState is the context of the body being checked.
type bodyState struct {
	sig      *Signature // nil for module-level initializers
	ann      *Annotations
	subst    *types.Subst
	instance mono.InstanceID
	template bool
	result   types.TypeID
	loops    int
	reporter diag.Reporter
	locals   []*Binding // mutable bindings whose views assignments change
}

func newTypeChecker(ctx context.Context, builder *ast.Builder, syms *symbols.Result, typesIn *types.Interner, opts Options) *typeChecker {
	classes := ownership.New(typesIn)
	engine := mono.NewEngine(opts.Mono)
	tc := &typeChecker{
		ctx:        ctx,
		builder:    builder,
		syms:       syms,
		table:      syms.Table,
		types:      typesIn,
		reporter:   diag.NewDedupReporter(opts.Reporter),
		engine:     engine,
		classes:    classes,
		itemOf:     make(map[symbols.SymbolID]ast.ItemID, len(syms.ItemSymbols)),
		params:     make(map[symbols.SymbolID]types.ParamID),
		paramTypes: make(map[symbols.SymbolID]types.TypeID),
		structSyms: make(map[types.TypeID]symbols.SymbolID),
		typedefs:   make(map[symbols.SymbolID]types.TypeID),
		aliasBusy:  make(map[symbols.SymbolID]bool),
		globals:    make(map[symbols.SymbolID]*Binding),
		globalDone: make(map[symbols.SymbolID]bool),
	}
	tc.result = &Result{
		Types:           typesIn,
		Symbols:         syms,
		Engine:          engine,
		Classifier:      classes,
		Root:            newAnnotations(symbols.NoSymbolID, mono.NoInstanceID),
		Templates:       make(map[symbols.SymbolID]*Annotations),
		Specializations: make(map[mono.InstanceID]*Annotations),
		Signatures:      make(map[symbols.SymbolID]*Signature),
		StructTypes:     make(map[symbols.SymbolID]types.TypeID),
	}
	for item, sym := range syms.ItemSymbols {
		tc.itemOf[sym] = item
	}
	return tc
}

func (tc *typeChecker) run() {
	span, ctx := trace.Start(tc.ctx, trace.ScopePass, "sema")
	defer span.End("")
	tc.ctx = ctx

	structs, fns, globals := tc.collectItems()

	tc.phase("register", func() {
		tc.registerStructs(structs)
		tc.resolveTypedefs()
		tc.resolveStructFields(structs)
		tc.checkRecursiveStructs(structs)
	})
	tc.phase("signatures", func() {
		tc.declareGenerics(fns)
		for _, item := range fns {
			tc.buildSignature(item)
		}
		tc.markHeapConstructors()
	})
	tc.phase("globals", func() {
		for _, item := range globals {
			tc.checkGlobal(item)
		}
	})
	tc.phase("bodies", func() {
		for _, item := range fns {
			tc.checkFunction(item)
		}
	})
	tc.phase("specialize", tc.specialize)
	tc.phase("aliasing", tc.checkArgFlows)
	tc.phase("ownership", tc.annotateOwnership)

	span.WithExtra("specializations", fmt.Sprint(tc.engine.Len())).
		WithExtra("functions", fmt.Sprint(tc.table.Symbols.Count(symbols.SymbolFunction))).
		WithExtra("locals", fmt.Sprint(tc.table.Symbols.Count(symbols.SymbolLet)))
}

func (tc *typeChecker) phase(name string, fn func()) {
	span, ctx := trace.Start(tc.ctx, trace.ScopePass, name)
	prev := tc.ctx
	tc.ctx = ctx
	fn()
	tc.ctx = prev
	span.End("")
}

// collectItems lists struct, function (including type-scoped ones) and global
// items in declaration order.
func (tc *typeChecker) collectItems() (structs, fns, globals []ast.ItemID) {
	file := tc.builder.Files.Get(tc.syms.File)
	if file == nil {
		return nil, nil, nil
	}
	for _, id := range file.Items {
		item := tc.builder.Items.Get(id)
		if item == nil {
			continue
		}
		switch item.Kind {
		case ast.ItemStruct:
			structs = append(structs, id)
			st, _ := tc.builder.Items.Struct(id)
			for _, m := range st.Methods {
				if _, ok := tc.syms.ItemSymbols[m]; ok {
					fns = append(fns, m)
				}
			}
		case ast.ItemFn:
			if _, ok := tc.syms.ItemSymbols[id]; ok {
				fns = append(fns, id)
			}
		case ast.ItemLet:
			if _, ok := tc.syms.ItemSymbols[id]; ok {
				globals = append(globals, id)
			}
		}
	}
	// методы объявлены внутри структур, но проверяются в порядке исходника
	slices.SortStableFunc(fns, func(a, b ast.ItemID) int {
		return int(tc.builder.Items.Get(a).Span.Start) - int(tc.builder.Items.Get(b).Span.Start)
	})
	return structs, fns, globals
}

// rep is the reporter of the current body, or the checker-wide one.
func (tc *typeChecker) rep() diag.Reporter {
	if tc.body != nil && tc.body.reporter != nil {
		return tc.body.reporter
	}
	return tc.reporter
}

func (tc *typeChecker) name(id symbols.SymbolID) string {
	return tc.table.Name(id)
}

func (tc *typeChecker) label(id types.TypeID) string {
	return types.Label(tc.types, id)
}

func (tc *typeChecker) symbol(id symbols.SymbolID) *symbols.Symbol {
	return tc.table.Symbols.Get(id)
}

func sortSymbols(ids []symbols.SymbolID) {
	slices.Sort(ids)
}
