package treeio

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/observ"
	"hydra/internal/sema"
	"hydra/internal/types"
)

// ResultDocument is the annotated output of one unit. Types and callees are
// rendered as labels so that consumers need no interner.
type ResultDocument struct {
	Schema          uint16                 `msgpack:"schema" yaml:"schema"`
	Unit            string                 `msgpack:"unit" yaml:"unit"`
	Bodies          []BodyRecord           `msgpack:"bodies" yaml:"bodies"`
	Specializations []SpecializationRecord `msgpack:"specializations,omitempty" yaml:"specializations,omitempty"`
	Diagnostics     []diag.Diagnostic      `msgpack:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Timings         *observ.Report         `msgpack:"timings,omitempty" yaml:"timings,omitempty"`
}

type BodyRecord struct {
	Label    string          `msgpack:"label" yaml:"label"`
	Exprs    []ExprRecord    `msgpack:"exprs" yaml:"exprs"`
	Bindings []BindingRecord `msgpack:"bindings,omitempty" yaml:"bindings,omitempty"`
	Calls    []CallRecord    `msgpack:"calls,omitempty" yaml:"calls,omitempty"`
	Slices   []SliceRecord   `msgpack:"slices,omitempty" yaml:"slices,omitempty"`
}

type ExprRecord struct {
	Expr  ast.ExprID `msgpack:"expr" yaml:"expr"`
	Type  string     `msgpack:"type" yaml:"type"`
	Class string     `msgpack:"class" yaml:"class"`
}

type BindingRecord struct {
	Name    string     `msgpack:"name" yaml:"name"`
	Type    string     `msgpack:"type" yaml:"type"`
	Mutable bool       `msgpack:"mutable" yaml:"mutable"`
	Class   string     `msgpack:"class" yaml:"class"`
	View    ast.ExprID `msgpack:"view,omitempty" yaml:"view,omitempty"`
}

type CallRecord struct {
	Expr     ast.ExprID `msgpack:"expr" yaml:"expr"`
	Callee   string     `msgpack:"callee" yaml:"callee"`
	Instance string     `msgpack:"instance,omitempty" yaml:"instance,omitempty"`
	Deferred bool       `msgpack:"deferred,omitempty" yaml:"deferred,omitempty"`
}

type SliceRecord struct {
	Expr     ast.ExprID `msgpack:"expr" yaml:"expr"`
	Kind     string     `msgpack:"kind" yaml:"kind"`
	Start    int64      `msgpack:"start" yaml:"start"`
	End      int64      `msgpack:"end" yaml:"end"`
	Writable bool       `msgpack:"writable" yaml:"writable"`
}

type SpecializationRecord struct {
	ID        uint32 `msgpack:"id" yaml:"id"`
	Signature string `msgpack:"signature" yaml:"signature"`
	Parent    string `msgpack:"parent,omitempty" yaml:"parent,omitempty"`
	Depth     int    `msgpack:"depth" yaml:"depth"`
	Sites     int    `msgpack:"sites" yaml:"sites"`
	State     string `msgpack:"state" yaml:"state"`
}

// NewResultDocument flattens res. res may be nil when the unit could not be
// analyzed; the document then carries only diagnostics.
func NewResultDocument(unit string, res *sema.Result, diags []diag.Diagnostic, timings *observ.Report) *ResultDocument {
	doc := &ResultDocument{
		Schema:      SchemaVersion,
		Unit:        unit,
		Diagnostics: diags,
		Timings:     timings,
	}
	if res == nil {
		return doc
	}
	namer := res.Namer()
	label := func(t types.TypeID) string { return types.Label(res.Types, t) }

	signature := make(map[uint32]string)
	for _, inst := range res.Engine.Instances() {
		signature[uint32(inst.ID)] = namer.Signature(inst)
	}
	for _, inst := range res.Engine.Instances() {
		doc.Specializations = append(doc.Specializations, SpecializationRecord{
			ID:        uint32(inst.ID),
			Signature: signature[uint32(inst.ID)],
			Parent:    signature[uint32(inst.Parent)],
			Depth:     inst.Depth,
			Sites:     len(inst.Sites),
			State:     inst.State.String(),
		})
	}

	for _, ann := range res.Bodies() {
		body := BodyRecord{Label: res.BodyLabel(ann)}
		for _, expr := range slices.Sorted(maps.Keys(ann.ExprTypes)) {
			body.Exprs = append(body.Exprs, ExprRecord{
				Expr:  expr,
				Type:  label(ann.ExprTypes[expr]),
				Class: ann.Ownership[expr].String(),
			})
		}
		for _, sym := range slices.Sorted(maps.Keys(ann.Bindings)) {
			b := ann.Bindings[sym]
			body.Bindings = append(body.Bindings, BindingRecord{
				Name:    b.Name,
				Type:    label(b.Type),
				Mutable: b.Mutable,
				Class:   b.Class.String(),
				View:    b.View,
			})
		}
		for _, expr := range slices.Sorted(maps.Keys(ann.Calls)) {
			call := ann.Calls[expr]
			body.Calls = append(body.Calls, CallRecord{
				Expr:     expr,
				Callee:   res.Symbols.Table.Name(call.Callee),
				Instance: signature[uint32(call.Instance)],
				Deferred: call.Deferred,
			})
		}
		for _, expr := range slices.Sorted(maps.Keys(ann.Slices)) {
			v := ann.Slices[expr]
			body.Slices = append(body.Slices, SliceRecord{
				Expr:     expr,
				Kind:     v.Kind.String(),
				Start:    v.Start,
				End:      v.End,
				Writable: v.Permits(true),
			})
		}
		doc.Bodies = append(doc.Bodies, body)
	}
	return doc
}

// EncodeResult writes doc in the given format.
func EncodeResult(w io.Writer, doc *ResultDocument, f Format) error {
	if err := encode(w, doc, f); err != nil {
		return fmt.Errorf("encode result %s: %w", doc.Unit, err)
	}
	return nil
}

func DecodeResult(r io.Reader, f Format) (*ResultDocument, error) {
	var doc ResultDocument
	if err := decode(r, &doc, f); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", f, err)
	}
	if doc.Schema != SchemaVersion {
		return nil, fmt.Errorf("%s: %w: %d", doc.Unit, ErrSchema, doc.Schema)
	}
	return &doc, nil
}

// Body returns the record labelled label.
func (d *ResultDocument) Body(label string) (*BodyRecord, bool) {
	for i := range d.Bodies {
		if d.Bodies[i].Label == label {
			return &d.Bodies[i], true
		}
	}
	return nil, false
}
