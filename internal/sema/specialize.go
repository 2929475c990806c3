package sema

import (
	"fmt"
	"strconv"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/mono"
	"hydra/internal/ownership"
	"hydra/internal/source"
	"hydra/internal/trace"
)

// specialize drains the engine queue. Checking a specialization may request
// further ones; calls deferred in templates are resolved this way once their
// caller is specialized.
func (tc *typeChecker) specialize() {
	for tc.ctx.Err() == nil {
		inst, ok := tc.engine.Next()
		if !ok {
			return
		}
		tc.specializeOne(inst)
	}
}

func (tc *typeChecker) specializeOne(inst *mono.Instance) {
	sig := tc.result.Signatures[inst.Fn]
	label := tc.result.Namer().Signature(inst)
	span, ctx := trace.Start(tc.ctx, trace.ScopeFunction, "specialize "+label)
	prev := tc.ctx
	tc.ctx = ctx
	defer func() {
		tc.ctx = prev
		span.WithExtra("depth", strconv.Itoa(inst.Depth)).End("")
	}()

	ann := newAnnotations(inst.Fn, inst.ID)
	tc.result.Specializations[inst.ID] = ann
	if sig != nil {
		rep := &specializationReporter{next: tc.reporter, label: label}
		if len(inst.Sites) > 0 {
			rep.site = inst.Sites[0].Span
		}
		tc.checkBody(sig, ann, inst.Subst, inst.ID, false, rep)
	}
	tc.engine.Complete(inst.ID)
}

// specializationReporter points diagnostics found in a specialized body at
// the call that requested it.
type specializationReporter struct {
	next  diag.Reporter
	site  source.Span
	label string
}

func (r *specializationReporter) Report(d diag.Diagnostic) {
	if r.next == nil {
		return
	}
	r.next.Report(d.WithNote(r.site, fmt.Sprintf("in specialization '%s' requested here", r.label)))
}

// annotateOwnership classifies every typed expression and binding. Classes
// are computed last so that heap constructors of every struct are known.
func (tc *typeChecker) annotateOwnership() {
	for _, ann := range tc.result.Bodies() {
		for expr, t := range ann.ExprTypes {
			class := tc.classes.Classify(t)
			if v, ok := ann.Slices[expr]; ok && v.Kind == ast.SliceHeapCopy {
				class = ownership.Heap
			}
			ann.Ownership[expr] = class
		}
		for _, b := range ann.Bindings {
			b.Class = tc.classes.Classify(b.Type)
			if v, ok := ann.Slices[b.View]; ok && v.Kind == ast.SliceHeapCopy {
				b.Class = ownership.Heap
			}
		}
	}
}
