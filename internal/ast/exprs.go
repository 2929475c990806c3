package ast

import (
	"hydra/internal/source"
)

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena       *Arena[Expr]
	Idents      *Arena[ExprIdentData]
	Literals    *Arena[ExprLiteralData]
	Binaries    *Arena[ExprBinaryData]
	Unaries     *Arena[ExprUnaryData]
	Calls       *Arena[ExprCallData]
	StaticCalls *Arena[ExprStaticCallData]
	MethodCalls *Arena[ExprMethodCallData]
	StructLits  *Arena[ExprStructLitData]
	ArrayLits   *Arena[ExprArrayLitData]
	Fields      *Arena[ExprFieldData]
	Indices     *Arena[ExprIndexData]
	Slices      *Arena[ExprSliceData]
	Casts       *Arena[ExprCastData]
	Matches     *Arena[ExprMatchData]
	Assigns     *Arena[ExprAssignData]
}

// NewExprs creates Exprs with per-kind arenas preallocated using capHint.
// If capHint is 0, a default capacity of 1<<8 is used.
func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Exprs{
		Arena:       NewArena[Expr](capHint),
		Idents:      NewArena[ExprIdentData](capHint),
		Literals:    NewArena[ExprLiteralData](capHint),
		Binaries:    NewArena[ExprBinaryData](capHint),
		Unaries:     NewArena[ExprUnaryData](capHint),
		Calls:       NewArena[ExprCallData](capHint),
		StaticCalls: NewArena[ExprStaticCallData](capHint),
		MethodCalls: NewArena[ExprMethodCallData](capHint),
		StructLits:  NewArena[ExprStructLitData](capHint),
		ArrayLits:   NewArena[ExprArrayLitData](capHint),
		Fields:      NewArena[ExprFieldData](capHint),
		Indices:     NewArena[ExprIndexData](capHint),
		Slices:      NewArena[ExprSliceData](capHint),
		Casts:       NewArena[ExprCastData](capHint),
		Matches:     NewArena[ExprMatchData](capHint),
		Assigns:     NewArena[ExprAssignData](capHint),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload uint32) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

// Get returns the expression with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

func (e *Exprs) payload(id ExprID, kind ExprKind) (uint32, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != kind {
		return 0, false
	}
	return uint32(expr.Payload), true
}

func (e *Exprs) NewIdent(span source.Span, name source.StringID) ExprID {
	return e.new(ExprIdent, span, e.Idents.Allocate(ExprIdentData{Name: name}))
}

func (e *Exprs) Ident(id ExprID) (*ExprIdentData, bool) {
	p, ok := e.payload(id, ExprIdent)
	if !ok {
		return nil, false
	}
	return e.Idents.Get(p), true
}

func (e *Exprs) NewLiteral(span source.Span, kind ExprLitKind, value source.StringID) ExprID {
	return e.new(ExprLit, span, e.Literals.Allocate(ExprLiteralData{Kind: kind, Value: value}))
}

func (e *Exprs) Literal(id ExprID) (*ExprLiteralData, bool) {
	p, ok := e.payload(id, ExprLit)
	if !ok {
		return nil, false
	}
	return e.Literals.Get(p), true
}

func (e *Exprs) NewBinary(span source.Span, op ExprBinaryOp, left, right ExprID) ExprID {
	return e.new(ExprBinary, span, e.Binaries.Allocate(ExprBinaryData{Op: op, Left: left, Right: right}))
}

func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	p, ok := e.payload(id, ExprBinary)
	if !ok {
		return nil, false
	}
	return e.Binaries.Get(p), true
}

func (e *Exprs) NewUnary(span source.Span, op ExprUnaryOp, operand ExprID) ExprID {
	return e.new(ExprUnary, span, e.Unaries.Allocate(ExprUnaryData{Op: op, Operand: operand}))
}

func (e *Exprs) Unary(id ExprID) (*ExprUnaryData, bool) {
	p, ok := e.payload(id, ExprUnary)
	if !ok {
		return nil, false
	}
	return e.Unaries.Get(p), true
}

func (e *Exprs) NewCall(span source.Span, data ExprCallData) ExprID {
	return e.new(ExprCall, span, e.Calls.Allocate(data))
}

func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	p, ok := e.payload(id, ExprCall)
	if !ok {
		return nil, false
	}
	return e.Calls.Get(p), true
}

func (e *Exprs) NewStaticCall(span source.Span, data ExprStaticCallData) ExprID {
	return e.new(ExprStaticCall, span, e.StaticCalls.Allocate(data))
}

func (e *Exprs) StaticCall(id ExprID) (*ExprStaticCallData, bool) {
	p, ok := e.payload(id, ExprStaticCall)
	if !ok {
		return nil, false
	}
	return e.StaticCalls.Get(p), true
}

func (e *Exprs) NewMethodCall(span source.Span, data ExprMethodCallData) ExprID {
	return e.new(ExprMethodCall, span, e.MethodCalls.Allocate(data))
}

func (e *Exprs) MethodCall(id ExprID) (*ExprMethodCallData, bool) {
	p, ok := e.payload(id, ExprMethodCall)
	if !ok {
		return nil, false
	}
	return e.MethodCalls.Get(p), true
}

func (e *Exprs) NewStructLit(span source.Span, data ExprStructLitData) ExprID {
	return e.new(ExprStructLit, span, e.StructLits.Allocate(data))
}

func (e *Exprs) StructLit(id ExprID) (*ExprStructLitData, bool) {
	p, ok := e.payload(id, ExprStructLit)
	if !ok {
		return nil, false
	}
	return e.StructLits.Get(p), true
}

func (e *Exprs) NewArrayLit(span source.Span, elems []ExprID) ExprID {
	return e.new(ExprArrayLit, span, e.ArrayLits.Allocate(ExprArrayLitData{Elems: elems}))
}

func (e *Exprs) ArrayLit(id ExprID) (*ExprArrayLitData, bool) {
	p, ok := e.payload(id, ExprArrayLit)
	if !ok {
		return nil, false
	}
	return e.ArrayLits.Get(p), true
}

func (e *Exprs) NewField(span source.Span, target ExprID, field source.StringID) ExprID {
	return e.new(ExprField, span, e.Fields.Allocate(ExprFieldData{Target: target, Field: field}))
}

func (e *Exprs) Field(id ExprID) (*ExprFieldData, bool) {
	p, ok := e.payload(id, ExprField)
	if !ok {
		return nil, false
	}
	return e.Fields.Get(p), true
}

func (e *Exprs) NewIndex(span source.Span, target, index ExprID) ExprID {
	return e.new(ExprIndex, span, e.Indices.Allocate(ExprIndexData{Target: target, Index: index}))
}

func (e *Exprs) Index(id ExprID) (*ExprIndexData, bool) {
	p, ok := e.payload(id, ExprIndex)
	if !ok {
		return nil, false
	}
	return e.Indices.Get(p), true
}

func (e *Exprs) NewSlice(span source.Span, data ExprSliceData) ExprID {
	return e.new(ExprSlice, span, e.Slices.Allocate(data))
}

func (e *Exprs) Slice(id ExprID) (*ExprSliceData, bool) {
	p, ok := e.payload(id, ExprSlice)
	if !ok {
		return nil, false
	}
	return e.Slices.Get(p), true
}

func (e *Exprs) NewCast(span source.Span, value ExprID, typ TypeID) ExprID {
	return e.new(ExprCast, span, e.Casts.Allocate(ExprCastData{Value: value, Type: typ}))
}

func (e *Exprs) Cast(id ExprID) (*ExprCastData, bool) {
	p, ok := e.payload(id, ExprCast)
	if !ok {
		return nil, false
	}
	return e.Casts.Get(p), true
}

func (e *Exprs) NewMatch(span source.Span, scrutinee ExprID, arms []MatchArm) ExprID {
	return e.new(ExprMatch, span, e.Matches.Allocate(ExprMatchData{Scrutinee: scrutinee, Arms: arms}))
}

func (e *Exprs) Match(id ExprID) (*ExprMatchData, bool) {
	p, ok := e.payload(id, ExprMatch)
	if !ok {
		return nil, false
	}
	return e.Matches.Get(p), true
}

func (e *Exprs) NewAssign(span source.Span, data ExprAssignData) ExprID {
	return e.new(ExprAssign, span, e.Assigns.Allocate(data))
}

func (e *Exprs) Assign(id ExprID) (*ExprAssignData, bool) {
	p, ok := e.payload(id, ExprAssign)
	if !ok {
		return nil, false
	}
	return e.Assigns.Get(p), true
}
