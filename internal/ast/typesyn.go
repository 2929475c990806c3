package ast

import (
	"hydra/internal/source"
)

type TypeExprKind uint8

const (
	TypeExprPath     TypeExprKind = iota // i32, Point, Box<T, 4>
	TypeExprArray                        // [T, N], [const T, 4]
	TypeExprHeap                         // heap T
	TypeExprOptional                     // T?
	TypeExprFn                           // fn(T, U) -> R
)

func (k TypeExprKind) String() string {
	switch k {
	case TypeExprPath:
		return "path"
	case TypeExprArray:
		return "array"
	case TypeExprHeap:
		return "heap"
	case TypeExprOptional:
		return "optional"
	case TypeExprFn:
		return "fn"
	}
	return "invalid"
}

type TypeExpr struct {
	Kind    TypeExprKind `msgpack:"kind" yaml:"kind"`
	Span    source.Span  `msgpack:"span" yaml:"span"`
	Payload PayloadID    `msgpack:"payload" yaml:"payload"`
}

// SizeExpr is an array size: a literal when Name is empty, otherwise the
// size parameter Name plus Value (N, N-1, N+2).
type SizeExpr struct {
	Name  source.StringID `msgpack:"name,omitempty" yaml:"name,omitempty"`
	Value int64           `msgpack:"value" yaml:"value"`
	Span  source.Span     `msgpack:"span" yaml:"span"`
}

func (s SizeExpr) IsLiteral() bool { return s.Name == source.NoStringID }

// TypeArg is one argument of a generic type path. Size arguments set IsSize;
// a bare name argument is kept as a path and the resolver decides what it denotes.
type TypeArg struct {
	Type   TypeID   `msgpack:"type,omitempty" yaml:"type,omitempty"`
	Size   SizeExpr `msgpack:"size" yaml:"size"`
	IsSize bool     `msgpack:"is_size,omitempty" yaml:"is_size,omitempty"`
}

type TypePathData struct {
	Name source.StringID `msgpack:"name" yaml:"name"`
	Args []TypeArg       `msgpack:"args,omitempty" yaml:"args,omitempty"`
}

type TypeArrayData struct {
	Elem      TypeID   `msgpack:"elem" yaml:"elem"`
	ElemConst bool     `msgpack:"elem_const,omitempty" yaml:"elem_const,omitempty"`
	Size      SizeExpr `msgpack:"size" yaml:"size"`
}

// TypeWrapData backs heap T and T?.
type TypeWrapData struct {
	Elem TypeID `msgpack:"elem" yaml:"elem"`
}

type TypeFnData struct {
	Params []TypeID `msgpack:"params" yaml:"params"`
	Result TypeID   `msgpack:"result,omitempty" yaml:"result,omitempty"`
}

type TypeExprs struct {
	Arena  *Arena[TypeExpr]
	Paths  *Arena[TypePathData]
	Arrays *Arena[TypeArrayData]
	Wraps  *Arena[TypeWrapData]
	Fns    *Arena[TypeFnData]
}

func NewTypeExprs(capHint uint) *TypeExprs {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &TypeExprs{
		Arena:  NewArena[TypeExpr](capHint),
		Paths:  NewArena[TypePathData](capHint),
		Arrays: NewArena[TypeArrayData](capHint),
		Wraps:  NewArena[TypeWrapData](capHint),
		Fns:    NewArena[TypeFnData](capHint),
	}
}

func (t *TypeExprs) new(kind TypeExprKind, span source.Span, payload uint32) TypeID {
	return TypeID(t.Arena.Allocate(TypeExpr{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

func (t *TypeExprs) Get(id TypeID) *TypeExpr {
	return t.Arena.Get(uint32(id))
}

func (t *TypeExprs) NewPath(span source.Span, name source.StringID, args []TypeArg) TypeID {
	return t.new(TypeExprPath, span, t.Paths.Allocate(TypePathData{Name: name, Args: args}))
}

func (t *TypeExprs) NewArray(span source.Span, elem TypeID, elemConst bool, size SizeExpr) TypeID {
	return t.new(TypeExprArray, span, t.Arrays.Allocate(TypeArrayData{Elem: elem, ElemConst: elemConst, Size: size}))
}

func (t *TypeExprs) NewHeap(span source.Span, elem TypeID) TypeID {
	return t.new(TypeExprHeap, span, t.Wraps.Allocate(TypeWrapData{Elem: elem}))
}

func (t *TypeExprs) NewOptional(span source.Span, elem TypeID) TypeID {
	return t.new(TypeExprOptional, span, t.Wraps.Allocate(TypeWrapData{Elem: elem}))
}

func (t *TypeExprs) NewFn(span source.Span, params []TypeID, result TypeID) TypeID {
	return t.new(TypeExprFn, span, t.Fns.Allocate(TypeFnData{Params: params, Result: result}))
}

func (t *TypeExprs) Path(id TypeID) (*TypePathData, bool) {
	te := t.Get(id)
	if te == nil || te.Kind != TypeExprPath {
		return nil, false
	}
	return t.Paths.Get(uint32(te.Payload)), true
}

func (t *TypeExprs) Array(id TypeID) (*TypeArrayData, bool) {
	te := t.Get(id)
	if te == nil || te.Kind != TypeExprArray {
		return nil, false
	}
	return t.Arrays.Get(uint32(te.Payload)), true
}

// Wrap returns the payload of heap T or T?.
func (t *TypeExprs) Wrap(id TypeID) (*TypeWrapData, bool) {
	te := t.Get(id)
	if te == nil || (te.Kind != TypeExprHeap && te.Kind != TypeExprOptional) {
		return nil, false
	}
	return t.Wraps.Get(uint32(te.Payload)), true
}

func (t *TypeExprs) Fn(id TypeID) (*TypeFnData, bool) {
	te := t.Get(id)
	if te == nil || te.Kind != TypeExprFn {
		return nil, false
	}
	return t.Fns.Get(uint32(te.Payload)), true
}
