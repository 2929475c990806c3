package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/observ"
	"hydra/internal/sema"
	"hydra/internal/source"
	"hydra/internal/symbols"
	"hydra/internal/trace"
	"hydra/internal/treeio"
)

// Unit is one program tree ready for analysis.
type Unit struct {
	Name    string
	Builder *ast.Builder
	File    ast.FileID
}

// UnitResult is the outcome of one unit. Symbols and Sema are nil when the
// unit could not be loaded; Bag then holds the I/O diagnostic.
type UnitResult struct {
	Unit    string
	Symbols *symbols.Result
	Sema    *sema.Result
	Bag     *diag.Bag
	Timing  observ.Report
}

// Document flattens the result for treeio.
func (r *UnitResult) Document() *treeio.ResultDocument {
	timing := r.Timing
	return treeio.NewResultDocument(r.Unit, r.Sema, r.Bag.Items(), &timing)
}

// Options configure AnalyzeUnits and AnalyzeFiles.
type Options struct {
	Config Config
	// Jobs bounds the number of units checked at once; GOMAXPROCS when <= 0.
	Jobs     int
	Observer PhaseObserver
}

// AnalyzeUnit resolves and checks one unit.
func AnalyzeUnit(ctx context.Context, unit Unit, opts Options) *UnitResult {
	span, ctx := trace.Start(ctx, trace.ScopeDriver, "unit "+unit.Name)
	defer span.End("")

	bag := diag.NewBag(opts.Config.Diagnostics.Max)
	reporter := diag.WarningFilter{Next: diag.BagReporter{Bag: bag}, Warnings: opts.Config.Diagnostics.Warnings}
	timer := observ.NewTimer()
	out := &UnitResult{Unit: unit.Name, Bag: bag}

	phase := func(name string, fn func() string) {
		emit(opts.Observer, PhaseEvent{Unit: unit.Name, Name: name, Status: PhaseStart})
		start := time.Now()
		timer.Time(name, fn)
		emit(opts.Observer, PhaseEvent{Unit: unit.Name, Name: name, Status: PhaseEnd, Elapsed: time.Since(start)})
	}

	phase("resolve", func() string {
		out.Symbols = symbols.ResolveFile(unit.Builder, unit.File, symbols.ResolveOptions{Reporter: reporter})
		return ""
	})
	phase("check", func() string {
		out.Sema = sema.Check(ctx, unit.Builder, out.Symbols, sema.Options{
			Reporter: reporter,
			Mono:     opts.Config.Engine(),
		})
		return fmt.Sprintf("%d specializations", out.Sema.Engine.Len())
	})

	bag.Sort()
	out.Timing = timer.Report()
	span.WithExtra("diagnostics", fmt.Sprint(bag.Len()))
	return out
}

func emit(obs PhaseObserver, ev PhaseEvent) {
	if obs != nil {
		obs(ev)
	}
}

// loadFailure turns a load error into a unit carrying one I/O diagnostic.
func loadFailure(path string, err error) *UnitResult {
	code := diag.IODecodeTreeError
	msg := "failed to decode program tree: " + err.Error()
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		code = diag.IOLoadFileError
		msg = "failed to load file: " + err.Error()
	}
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(code, source.Span{}, msg).WithArgs(path))
	return &UnitResult{Unit: path, Bag: bag}
}
