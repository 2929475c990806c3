package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/testkit"
	"hydra/internal/treeio"
)

// unitWith builds a unit that calls a generic function on an array of n
// elements.
func unitWith(name string, n int) Unit {
	p := testkit.NewProgram()
	p.Fn("first", []ast.FnParam{p.Param("a", p.SizedArray(p.Named("i32"), "N", 0, false))}, p.Named("i32"),
		p.Return(p.Index(p.Ident("a"), p.Int(0))))
	values := make([]int64, n)
	p.Fn("main", nil, ast.NoTypeID,
		p.Let("x", p.Array(p.Named("i32"), int64(n)), p.Ints(values...)),
		p.Do(p.Call("first", p.Ident("x"))),
	)
	return Unit{Name: name, Builder: p.B, File: p.File}
}

func brokenUnit(name string) Unit {
	p := testkit.NewProgram()
	p.Fn("main", nil, ast.NoTypeID,
		p.Const("x", p.Named("i32"), p.Int(1)),
		p.Do(p.Assign(p.Ident("x"), p.Int(2))),
		p.Let("shadow", ast.NoTypeID, p.Int(0)),
		p.Block(p.Let("shadow", ast.NoTypeID, p.Int(1))),
	)
	return Unit{Name: name, Builder: p.B, File: p.File}
}

func TestAnalyzeUnitsKeepsOrder(t *testing.T) {
	var units []Unit
	for i := 1; i <= 8; i++ {
		units = append(units, unitWith(string(rune('a'+i-1)), i))
	}
	units = append(units, brokenUnit("broken"))

	var mu sync.Mutex
	events := map[string]int{}
	opts := Options{
		Config: DefaultConfig(),
		Jobs:   3,
		Observer: func(ev PhaseEvent) {
			mu.Lock()
			defer mu.Unlock()
			events[ev.Unit]++
		},
	}
	results, err := AnalyzeUnits(context.Background(), units, opts)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	for i, res := range results[:8] {
		if res.Unit != units[i].Name {
			t.Fatalf("result %d is %q", i, res.Unit)
		}
		if res.Bag.HasErrors() {
			t.Fatalf("%s:\n%s", res.Unit, testkit.Dump(res.Bag))
		}
		if res.Sema.Engine.Len() != 1 {
			t.Fatalf("%s: instances = %d", res.Unit, res.Sema.Engine.Len())
		}
		if len(res.Timing.Phases) != 2 || res.Timing.Phases[1].Note != "1 specializations" {
			t.Fatalf("%s: timing = %+v", res.Unit, res.Timing)
		}
	}
	broken := results[8]
	if !testkit.HasCode(broken.Bag, diag.SemaConstAssignment) || !testkit.HasCode(broken.Bag, diag.SemaShadowSymbol) {
		t.Fatalf("broken:\n%s", testkit.Dump(broken.Bag))
	}
	for _, u := range units {
		if events[u.Name] != 4 {
			t.Fatalf("%s: %d phase events", u.Name, events[u.Name])
		}
	}
}

func TestAnalyzeUnitHonorsDiagnosticsConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Diagnostics.Warnings = false
	cfg.Diagnostics.Max = 1
	res := AnalyzeUnit(context.Background(), brokenUnit("broken"), Options{Config: cfg})
	if testkit.HasCode(res.Bag, diag.SemaShadowSymbol) {
		t.Fatalf("warnings not filtered:\n%s", testkit.Dump(res.Bag))
	}
	if res.Bag.Len() != 1 {
		t.Fatalf("bag len = %d", res.Bag.Len())
	}
}

func TestAnalyzeUnitsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := AnalyzeUnits(ctx, []Unit{unitWith("a", 1), unitWith("b", 2)}, Options{Config: DefaultConfig(), Jobs: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	for _, res := range results {
		if res != nil {
			t.Fatalf("unit %s ran after cancellation", res.Unit)
		}
	}
}

func TestAnalyzeFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	u := unitWith("good", 4)
	if err := treeio.WriteFile(good, treeio.NewDocument(u.Name, u.Builder, u.File)); err != nil {
		t.Fatalf("write: %v", err)
	}
	corrupt := filepath.Join(dir, "corrupt.hyt")
	if err := os.WriteFile(corrupt, []byte{0xc1, 0x00}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	missing := filepath.Join(dir, "missing.hyt")

	results, err := AnalyzeFiles(context.Background(), []string{good, corrupt, missing}, Options{Config: DefaultConfig()})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if results[0].Sema == nil || results[0].Bag.HasErrors() || results[0].Unit != "good" {
		t.Fatalf("good: %+v", results[0])
	}
	for _, tc := range []struct {
		res  *UnitResult
		code diag.Code
	}{
		{results[1], diag.IODecodeTreeError},
		{results[2], diag.IOLoadFileError},
	} {
		if tc.res.Sema != nil || !testkit.HasCode(tc.res.Bag, tc.code) {
			t.Fatalf("%s:\n%s", tc.res.Unit, testkit.Dump(tc.res.Bag))
		}
		if doc := tc.res.Document(); len(doc.Bodies) != 0 || len(doc.Diagnostics) != 1 {
			t.Fatalf("document = %+v", doc)
		}
	}
	doc := results[0].Document()
	if len(doc.Specializations) != 1 || doc.Timings == nil || len(doc.Timings.Phases) != 2 {
		t.Fatalf("document = %+v", doc)
	}
}
