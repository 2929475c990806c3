package sema

import (
	"errors"
	"fmt"

	"hydra/internal/ast"
	"hydra/internal/mono"
	"hydra/internal/ownership"
	"hydra/internal/symbols"
	"hydra/internal/types"
)

// Binding is a checked local, parameter, loop variable, match binding or
// global.
type Binding struct {
	Symbol  symbols.SymbolID
	Name    string
	Type    types.TypeID
	Mutable bool
	Init    ast.ExprID
	Scope   symbols.ScopeID
	// View is the slice expression the binding holds, if any. Copying a
	// binding that holds a view copies the view.
	View ast.ExprID
	// Fields maps a field path ("s", "inner.s") to the slice expression the
	// field holds.
	Fields map[string]ast.ExprID
	// Alias is the parameter whose caller storage the binding may reach.
	Alias symbols.SymbolID
	// Class is filled in by the ownership pass.
	Class ownership.Class
}

// SliceView is the result of `&src[a..b]` or `|src|[a..b]`.
type SliceView struct {
	Expr   ast.ExprID
	Kind   ast.SliceKind
	Source symbols.SymbolID // root binding of the source; NoSymbolID for temporaries
	Start  int64            // half-open range, -1 when it depends on an unbound size
	End    int64
	Type   types.TypeID

	// Writability of the storage a reference view aliases, composed through
	// every view the source itself was sliced from.
	SourceMutable     bool
	SourceElemMutable bool
}

// Permits reports whether a binding of the given mutability may write
// elements through the view.
func (v *SliceView) Permits(bindingMutable bool) bool {
	return v.writable() && bindingMutable
}

// writable: elements reached through the view may be written. A nil view
// stands for storage the binding owns.
func (v *SliceView) writable() bool {
	if v == nil || v.Kind == ast.SliceHeapCopy {
		return true
	}
	return v.SourceMutable && v.SourceElemMutable
}

// CallBinding ties a call site to its callee and, for generic callees, to
// the specialization it uses.
type CallBinding struct {
	Callee   symbols.SymbolID
	Instance mono.InstanceID
	// Deferred: the call was met while checking a generic body and depends on
	// that body's placeholders.
	Deferred bool
}

// Annotations hold everything the checker learned about one body: a concrete
// function, a generic template, one specialization, or module initializers.
type Annotations struct {
	Fn        symbols.SymbolID
	Instance  mono.InstanceID
	ExprTypes map[ast.ExprID]types.TypeID
	Ownership map[ast.ExprID]ownership.Class
	Bindings  map[symbols.SymbolID]*Binding
	Calls     map[ast.ExprID]CallBinding
	Slices    map[ast.ExprID]*SliceView
}

func newAnnotations(fn symbols.SymbolID, inst mono.InstanceID) *Annotations {
	return &Annotations{
		Fn:        fn,
		Instance:  inst,
		ExprTypes: make(map[ast.ExprID]types.TypeID),
		Ownership: make(map[ast.ExprID]ownership.Class),
		Bindings:  make(map[symbols.SymbolID]*Binding),
		Calls:     make(map[ast.ExprID]CallBinding),
		Slices:    make(map[ast.ExprID]*SliceView),
	}
}

// Signature is the checked header of a function.
type Signature struct {
	Symbol     symbols.SymbolID
	Item       ast.ItemID
	Name       string
	Params     []types.TypeID
	ParamNames []string
	Result     types.TypeID
	// Generics lists every placeholder of the signature: declared and
	// implicit ones first, then those reached through a generic receiver.
	Generics []types.ParamID
	Owner    types.TypeID // struct of a type-scoped function
	Method   bool         // first parameter is self
	// Unconstrained: some placeholder cannot be inferred from the parameters.
	Unconstrained bool
	// Writes marks parameters whose caller storage the body writes through.
	Writes []bool
}

// Template reports whether the function is generic.
func (s *Signature) Template() bool { return len(s.Generics) > 0 }

// WritesParam reports whether the body writes through parameter i.
func (s *Signature) WritesParam(i int) bool {
	return i >= 0 && i < len(s.Writes) && s.Writes[i]
}

func (s *Signature) markWrite(i int) bool {
	if i < 0 || i >= len(s.Params) || s.WritesParam(i) {
		return false
	}
	if s.Writes == nil {
		s.Writes = make([]bool, len(s.Params))
	}
	s.Writes[i] = true
	return true
}

// Result is the output of Check.
type Result struct {
	Types      *types.Interner
	Symbols    *symbols.Result
	Engine     *mono.Engine
	Classifier *ownership.Classifier

	// Root covers concrete functions and module-level initializers.
	Root            *Annotations
	Templates       map[symbols.SymbolID]*Annotations
	Specializations map[mono.InstanceID]*Annotations

	Signatures  map[symbols.SymbolID]*Signature
	StructTypes map[symbols.SymbolID]types.TypeID
}

// Bodies returns every annotation set: root, templates, then specializations
// in registration order.
func (r *Result) Bodies() []*Annotations {
	out := []*Annotations{r.Root}
	for _, sig := range r.sortedTemplates() {
		out = append(out, r.Templates[sig])
	}
	if r.Engine != nil {
		for _, inst := range r.Engine.Instances() {
			if ann, ok := r.Specializations[inst.ID]; ok {
				out = append(out, ann)
			}
		}
	}
	return out
}

func (r *Result) sortedTemplates() []symbols.SymbolID {
	ids := make([]symbols.SymbolID, 0, len(r.Templates))
	for id := range r.Templates {
		ids = append(ids, id)
	}
	sortSymbols(ids)
	return ids
}

// Namer renders symbols and types of this result for mono dumps.
func (r *Result) Namer() mono.Namer {
	return mono.Namer{
		Symbol: func(id symbols.SymbolID) string { return r.Symbols.Table.Name(id) },
		Type:   func(id types.TypeID) string { return types.Label(r.Types, id) },
	}
}

// Validate checks invariants the checker guarantees on its output.
// 1) every expression of a concrete body has a concrete type and a class
// 2) every specialization is keyed uniquely and has been checked
// 3) every call bound to an instance refers to an instance of its callee
func (r *Result) Validate() error {
	if r == nil || r.Root == nil {
		return errors.New("sema: empty result")
	}
	var errs []error
	concrete := []*Annotations{r.Root}
	for _, ann := range r.Specializations {
		concrete = append(concrete, ann)
	}
	for _, ann := range concrete {
		for expr, t := range ann.ExprTypes {
			if r.Types.IsGeneric(t) {
				errs = append(errs, fmt.Errorf("expr %d in %s has generic type %s", expr, r.BodyLabel(ann), types.Label(r.Types, t)))
			}
			if _, ok := ann.Ownership[expr]; !ok {
				errs = append(errs, fmt.Errorf("expr %d in %s has no ownership class", expr, r.BodyLabel(ann)))
			}
		}
	}
	seen := make(map[mono.Key]mono.InstanceID)
	for _, inst := range r.Engine.Instances() {
		if prev, ok := seen[inst.Key]; ok {
			errs = append(errs, fmt.Errorf("instances %d and %d share key %v", prev, inst.ID, inst.Key))
		}
		seen[inst.Key] = inst.ID
		if inst.State != mono.Specialized {
			errs = append(errs, fmt.Errorf("instance %d left in state %s", inst.ID, inst.State))
		}
		if _, ok := r.Specializations[inst.ID]; !ok {
			errs = append(errs, fmt.Errorf("instance %d has no annotations", inst.ID))
		}
	}
	for _, ann := range r.Bodies() {
		for expr, call := range ann.Calls {
			if !call.Instance.IsValid() {
				continue
			}
			inst, ok := r.Engine.Instance(call.Instance)
			if !ok || inst.Fn != call.Callee {
				errs = append(errs, fmt.Errorf("call %d bound to foreign instance %d", expr, call.Instance))
			}
		}
	}
	return errors.Join(errs...)
}

// BodyLabel names an annotation set: a function, a specialization signature
// or "<module>" for the root.
func (r *Result) BodyLabel(ann *Annotations) string {
	switch {
	case ann.Instance.IsValid():
		if inst, ok := r.Engine.Instance(ann.Instance); ok {
			return r.Namer().Signature(inst)
		}
		return fmt.Sprintf("instance %d", ann.Instance)
	case ann.Fn.IsValid():
		return r.Symbols.Table.Name(ann.Fn)
	}
	return "<module>"
}
