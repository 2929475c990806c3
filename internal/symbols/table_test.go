package symbols

import (
	"testing"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/source"
)

func TestTableFileRootReuse(t *testing.T) {
	table := NewTable(Hints{}, nil)
	file := source.FileID(1)
	span := source.Span{File: file}

	first := table.FileRoot(file, span)
	second := table.FileRoot(file, span)

	if !first.IsValid() {
		t.Fatalf("expected valid scope ID")
	}
	if first != second {
		t.Fatalf("expected FileRoot to reuse existing scope, got %v and %v", first, second)
	}

	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestResolverLifecycle(t *testing.T) {
	table := NewTable(Hints{}, nil)
	file := source.FileID(10)
	root := table.FileRoot(file, source.Span{File: file})

	res := NewResolver(table, root, ResolverOptions{})
	scope := res.Enter(ScopeFunction, ScopeOwner{
		Kind:       ScopeOwnerItem,
		SourceFile: file,
		Item:       ast.ItemID(42),
	}, source.Span{File: file})

	name := table.Strings.Intern("value")
	if _, ok := res.Declare(name, source.Span{File: file}, SymbolLet, 0, SymbolDecl{
		SourceFile: file,
	}); !ok {
		t.Fatalf("declare returned false")
	}

	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	res.Leave(scope)

	if err := table.Validate(); err != nil {
		t.Fatalf("validate after leave: %v", err)
	}
}

func TestResolverPreludeAndDuplicates(t *testing.T) {
	table := NewTable(Hints{}, nil)
	file := source.FileID(3)
	root := table.FileRoot(file, source.Span{File: file})
	bag := diag.NewBag(0)
	res := NewResolver(table, root, ResolverOptions{Reporter: diag.BagReporter{Bag: bag}})

	i32 := table.Strings.InternIdent("i32")
	if _, ok := res.LookupOne(i32, SymbolType.Mask()); !ok {
		t.Fatalf("prelude type i32 not visible")
	}
	if _, ok := res.Declare(i32, source.Span{File: file, Start: 4, End: 7}, SymbolType, SymbolFlagStruct, SymbolDecl{}); ok {
		t.Fatalf("redeclaring a builtin must fail")
	}
	d, found := firstDiag(bag, diag.SemaDuplicateSymbol)
	if !found {
		t.Fatalf("expected duplicate diagnostic, got %v", bag.Items())
	}
	if len(d.Notes) != 0 {
		t.Fatalf("builtin has no span, expected no note, got %+v", d.Notes)
	}

	name := table.Strings.Intern("f")
	first, ok := res.Declare(name, source.Span{File: file, Start: 10, End: 11}, SymbolFunction, 0, SymbolDecl{})
	if !ok {
		t.Fatalf("first declaration failed")
	}
	if _, ok := res.Declare(name, source.Span{File: file, Start: 20, End: 21}, SymbolFunction, 0, SymbolDecl{}); ok {
		t.Fatalf("functions are not overloaded")
	}
	if got := len(bag.ByCode(diag.SemaDuplicateSymbol)); got != 2 {
		t.Fatalf("expected 2 duplicate diagnostics, got %d", got)
	}
	if sym, ok := table.Resolve(root, name); !ok || sym != first {
		t.Fatalf("Resolve = %v, %v; want %v", sym, ok, first)
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestResolverShadowingWarning(t *testing.T) {
	table := NewTable(Hints{}, nil)
	file := source.FileID(4)
	root := table.FileRoot(file, source.Span{File: file})
	bag := diag.NewBag(0)
	res := NewResolver(table, root, ResolverOptions{Reporter: diag.BagReporter{Bag: bag}})

	x := table.Strings.Intern("x")
	outer, _ := res.Declare(x, source.Span{File: file, Start: 1, End: 2}, SymbolLet, 0, SymbolDecl{})
	block := res.Enter(ScopeBlock, ScopeOwner{}, source.Span{File: file})
	inner, ok := res.Declare(x, source.Span{File: file, Start: 5, End: 6}, SymbolLet, SymbolFlagMutable, SymbolDecl{})
	if !ok {
		t.Fatalf("shadowing is allowed")
	}
	d, found := firstDiag(bag, diag.SemaShadowSymbol)
	if !found || d.Severity != diag.SevWarning {
		t.Fatalf("expected shadow warning, got %v", bag.Items())
	}
	if got, _ := res.Lookup(x); got != inner {
		t.Fatalf("inner lookup = %v, want %v", got, inner)
	}
	if all := res.LookupAll(x, KindMaskAny); len(all) != 2 || all[0] != inner || all[1] != outer {
		t.Fatalf("LookupAll order = %v", all)
	}
	res.Leave(block)
	if got, _ := res.Lookup(x); got != outer {
		t.Fatalf("outer lookup = %v, want %v", got, outer)
	}
}

func firstDiag(bag *diag.Bag, code diag.Code) (diag.Diagnostic, bool) {
	if items := bag.ByCode(code); len(items) > 0 {
		return items[0], true
	}
	return diag.Diagnostic{}, false
}

func TestSymbolsCountByKind(t *testing.T) {
	table := NewTable(Hints{}, nil)
	file := source.FileID(5)
	root := table.FileRoot(file, source.Span{File: file})
	res := NewResolver(table, root, ResolverOptions{})

	before := table.Symbols.Count(SymbolLet)
	for i, name := range []string{"a", "b", "c"} {
		span := source.Span{File: file, Start: uint32(i), End: uint32(i + 1)}
		if _, ok := res.Declare(table.Strings.Intern(name), span, SymbolLet, 0, SymbolDecl{}); !ok {
			t.Fatalf("declare %s failed", name)
		}
	}
	fns := table.Symbols.Count(SymbolFunction)
	if _, ok := res.Declare(table.Strings.Intern("main"), source.Span{File: file, Start: 9, End: 10}, SymbolFunction, 0, SymbolDecl{}); !ok {
		t.Fatalf("declare main failed")
	}

	if got := table.Symbols.Count(SymbolLet) - before; got != 3 {
		t.Fatalf("lets = %d, want 3", got)
	}
	if got := table.Symbols.Count(SymbolFunction) - fns; got != 1 {
		t.Fatalf("functions = %d, want 1", got)
	}
}
