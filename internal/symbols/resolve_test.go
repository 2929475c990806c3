package symbols_test

import (
	"strings"
	"testing"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/symbols"
	"hydra/internal/testkit"
)

func resolve(t *testing.T, p *testkit.Program) (*symbols.Result, *diag.Bag) {
	t.Helper()
	if err := testkit.CheckSpanInvariants(p.B, p.File); err != nil {
		t.Fatalf("span invariants: %v", err)
	}
	bag := diag.NewBag(0)
	res := symbols.ResolveFile(p.B, p.File, symbols.ResolveOptions{Reporter: diag.BagReporter{Bag: bag}})
	if err := res.Table.Validate(); err != nil {
		t.Fatalf("table validate: %v", err)
	}
	return res, bag
}

func TestResolveIsOrderIndependent(t *testing.T) {
	p := testkit.NewProgram()
	i32 := p.Named("i32")
	call := p.Call("helper", p.Int(1))
	p.Fn("main", nil, ast.NoTypeID, p.Do(call))
	helper := p.Fn("helper", []ast.FnParam{p.Param("x", p.Named("i32"))}, i32, p.Return(p.Ident("x")))

	res, bag := resolve(t, p)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics:\n%s", testkit.Dump(bag))
	}
	callee := res.Callees[call]
	if callee.Kind != symbols.ResolutionUnique || callee.Symbol != res.ItemSymbols[helper] {
		t.Fatalf("callee = %+v, want helper %v", callee, res.ItemSymbols[helper])
	}
}

func TestResolveLocalVisibleAfterDeclaration(t *testing.T) {
	p := testkit.NewProgram()
	early := p.Ident("y")
	p.Fn("main", nil, ast.NoTypeID,
		p.Let("x", ast.NoTypeID, early),
		p.Let("y", ast.NoTypeID, p.Int(2)),
	)

	_, bag := resolve(t, p)
	d, ok := testkit.Find(bag, diag.SemaUnresolvedSymbol)
	if !ok {
		t.Fatalf("expected unresolved name, got:\n%s", testkit.Dump(bag))
	}
	if d.Code.Category() != diag.CategoryNameResolution {
		t.Fatalf("category = %v", d.Code.Category())
	}
	if len(d.Args) != 1 || d.Args[0] != "y" {
		t.Fatalf("args = %v", d.Args)
	}
}

func TestResolveDuplicateDeclaration(t *testing.T) {
	p := testkit.NewProgram()
	p.Fn("f", nil, ast.NoTypeID)
	p.Fn("f", nil, ast.NoTypeID)
	p.Struct("i32", nil)

	_, bag := resolve(t, p)
	dups := bag.ByCode(diag.SemaDuplicateSymbol)
	if len(dups) != 2 {
		t.Fatalf("expected 2 duplicates, got:\n%s", testkit.Dump(bag))
	}
	if len(dups[0].Notes) != 1 || dups[0].Notes[0].Msg != "previous declaration here" {
		t.Fatalf("notes = %+v", dups[0].Notes)
	}
}

func TestResolveInitializerSeesOuterBinding(t *testing.T) {
	p := testkit.NewProgram()
	outer := p.Ident("x")
	inner := p.Let("x", ast.NoTypeID, outer)
	p.Fn("main", nil, ast.NoTypeID,
		p.Const("x", ast.NoTypeID, p.Int(1)),
		p.Block(inner),
	)

	res, bag := resolve(t, p)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", testkit.Dump(bag))
	}
	if !testkit.HasCode(bag, diag.SemaShadowSymbol) {
		t.Fatalf("expected shadow warning")
	}
	outerSym := res.ExprSymbols[outer]
	if outerSym == res.StmtSymbols[inner] {
		t.Fatalf("initializer resolved to the binding it declares")
	}
	if res.Table.Symbols.Get(res.StmtSymbols[inner]).Mutable() != true {
		t.Fatalf("let binding must be mutable")
	}
	if res.Table.Symbols.Get(outerSym).Mutable() {
		t.Fatalf("const binding must be immutable")
	}
}

func TestResolveAmbiguousTypeScopedCall(t *testing.T) {
	p := testkit.NewProgram()
	i32 := p.Named("i32")
	shape := p.Struct("Shape", nil, p.FieldDecl("w", p.Named("i32")))
	inside := p.Call("area")
	p.Method(shape, "area", nil, i32, p.Return(p.Int(0)))
	p.Method(shape, "describe", []ast.FnParam{p.SelfParam()}, p.Named("i32"), p.Return(inside))
	p.Fn("area", nil, p.Named("i32"), p.Return(p.Int(1)))
	outside := p.Call("area")
	p.Fn("main", nil, ast.NoTypeID, p.Do(outside))

	res, bag := resolve(t, p)
	amb := bag.ByCode(diag.SemaAmbiguousCall)
	if len(amb) != 1 {
		t.Fatalf("expected one ambiguity, got:\n%s", testkit.Dump(bag))
	}
	d := amb[0]
	if len(d.Notes) != 2 {
		t.Fatalf("expected a note per candidate, got %+v", d.Notes)
	}
	if len(d.Fixes) != 1 || d.Fixes[0].Edits[0].NewText != "Shape::area" {
		t.Fatalf("fix = %+v", d.Fixes)
	}
	if !strings.Contains(strings.Join(d.Args, ","), "Shape::area") {
		t.Fatalf("args = %v", d.Args)
	}
	if got := res.Callees[inside]; got.Kind != symbols.ResolutionAmbiguous || len(got.Candidates) != 2 {
		t.Fatalf("inside = %+v", got)
	}
	if got := res.Callees[outside]; got.Kind != symbols.ResolutionUnique {
		t.Fatalf("outside = %+v", got)
	}

	q := res.Table.ResolveQualified(res.FileScope, p.Name("Shape"), p.Name("area"))
	if q.Kind != symbols.ResolutionUnique {
		t.Fatalf("qualified = %+v", q)
	}
	if owner := res.Table.Symbols.Get(q.Symbol).Owner; owner != res.ItemSymbols[shape] {
		t.Fatalf("owner = %v", owner)
	}
	describe, _ := res.Table.Member(res.ItemSymbols[shape], p.Name("describe"))
	if res.Table.Symbols.Get(describe).Flags&symbols.SymbolFlagMethod == 0 {
		t.Fatalf("describe takes self and must be flagged as method")
	}
}

func TestResolveImplicitSizeParameter(t *testing.T) {
	p := testkit.NewProgram()
	arr := p.SizedArray(p.Named("i32"), "N", 0, false)
	ret := p.SizedArray(p.Named("i32"), "N", -1, false)
	sum := p.Fn("drop_last", []ast.FnParam{p.Param("a", arr)}, ret, p.Return(p.Ident("a")))
	bad := p.SizedArray(p.Named("i32"), "M", 0, false)
	p.Fn("main", nil, ast.NoTypeID, p.Let("x", bad, p.Ints(1)))

	res, bag := resolve(t, p)
	generics := res.FnGenerics[sum]
	if len(generics) != 1 {
		t.Fatalf("expected one implicit size, got %v", generics)
	}
	sym := res.Table.Symbols.Get(generics[0])
	if sym.Flags&symbols.SymbolFlagImplicit == 0 || sym.Flags&symbols.SymbolFlagSizeParam == 0 {
		t.Fatalf("flags = %v", sym.Flags.Strings())
	}
	if res.SizeRefs[symbols.SizeRef{Type: arr, Arg: -1}] != generics[0] || res.SizeRefs[symbols.SizeRef{Type: ret, Arg: -1}] != generics[0] {
		t.Fatalf("size refs do not point to N: %v", res.SizeRefs)
	}
	if !testkit.HasCode(bag, diag.SemaUnresolvedSymbol) {
		t.Fatalf("sizes in bodies are never implicit:\n%s", testkit.Dump(bag))
	}
}

func TestResolveStaticCallErrors(t *testing.T) {
	p := testkit.NewProgram()
	p.Struct("Point", nil)
	missing := p.Static("Point", "origin")
	unknown := p.Static("Nope", "origin")
	p.Fn("main", nil, ast.NoTypeID, p.Do(missing), p.Do(unknown))

	res, bag := resolve(t, p)
	if !testkit.HasCode(bag, diag.SemaMemberNotFound) || !testkit.HasCode(bag, diag.SemaUnresolvedType) {
		t.Fatalf("diagnostics:\n%s", testkit.Dump(bag))
	}
	if res.Callees[missing].Kind != symbols.ResolutionMissing {
		t.Fatalf("missing = %+v", res.Callees[missing])
	}
}

func TestResolveMatchArmScope(t *testing.T) {
	p := testkit.NewProgram()
	use := p.Ident("v")
	after := p.Ident("v")
	m := p.Match(p.Int(3), p.LitArm(p.Int(1), p.Int(0)), p.BindArm("v", use))
	p.Fn("main", nil, ast.NoTypeID, p.Do(m), p.Do(after))

	res, bag := resolve(t, p)
	arm := res.ArmSymbols[symbols.ArmRef{Match: m, Index: 1}]
	if !arm.IsValid() || res.ExprSymbols[use] != arm {
		t.Fatalf("arm binding not resolved: %v", res.ExprSymbols[use])
	}
	if _, ok := res.ExprSymbols[after]; ok {
		t.Fatalf("arm binding leaked out of its arm")
	}
	if len(bag.ByCode(diag.SemaUnresolvedSymbol)) != 1 {
		t.Fatalf("diagnostics:\n%s", testkit.Dump(bag))
	}
}

func TestResolveLoopScopes(t *testing.T) {
	p := testkit.NewProgram()
	inBody := p.Ident("i")
	loop := p.ForRange("i", p.Int(0), p.Int(3), false, p.Block(p.Do(inBody), p.Skip(), p.Break()))
	p.Fn("main", nil, ast.NoTypeID, loop)

	res, bag := resolve(t, p)
	if bag.HasErrors() {
		t.Fatalf("diagnostics:\n%s", testkit.Dump(bag))
	}
	sym := res.StmtSymbols[loop]
	if res.ExprSymbols[inBody] != sym {
		t.Fatalf("loop variable not resolved")
	}
	if res.Table.Symbols.Get(sym).Mutable() {
		t.Fatalf("loop variable must be immutable")
	}
	if !res.Table.IsLoop(res.Table.Symbols.Get(sym).Scope) {
		t.Fatalf("loop variable scope is not a loop")
	}
}

func TestResolveParameterMutability(t *testing.T) {
	p := testkit.NewProgram()
	fn := p.Fn("fill", []ast.FnParam{
		p.MutParam("buf", p.Array(p.Named("i32"), 2)),
		p.Param("v", p.Named("i32")),
	}, ast.NoTypeID)

	res, bag := resolve(t, p)
	if bag.HasErrors() {
		t.Fatalf("diagnostics:\n%s", testkit.Dump(bag))
	}
	params := res.ParamSymbols[fn]
	if len(params) != 2 {
		t.Fatalf("params = %v", params)
	}
	if !res.Table.Symbols.Get(params[0]).Mutable() {
		t.Fatalf("buf must be a mutable parameter")
	}
	if res.Table.Symbols.Get(params[1]).Mutable() {
		t.Fatalf("v must be immutable")
	}
}
