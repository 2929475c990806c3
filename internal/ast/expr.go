package ast

import (
	"hydra/internal/source"
)

type ExprKind uint8

const (
	ExprIdent ExprKind = iota
	ExprLit
	ExprBinary
	ExprUnary
	ExprCall       // f(args)
	ExprStaticCall // Type::f(args)
	ExprMethodCall // recv.f(args)
	ExprStructLit
	ExprArrayLit
	ExprField
	ExprIndex
	ExprSlice
	ExprCast
	ExprMatch
	ExprAssign
)

func (k ExprKind) String() string {
	switch k {
	case ExprIdent:
		return "ident"
	case ExprLit:
		return "literal"
	case ExprBinary:
		return "binary"
	case ExprUnary:
		return "unary"
	case ExprCall:
		return "call"
	case ExprStaticCall:
		return "static-call"
	case ExprMethodCall:
		return "method-call"
	case ExprStructLit:
		return "struct-literal"
	case ExprArrayLit:
		return "array-literal"
	case ExprField:
		return "field"
	case ExprIndex:
		return "index"
	case ExprSlice:
		return "slice"
	case ExprCast:
		return "cast"
	case ExprMatch:
		return "match"
	case ExprAssign:
		return "assign"
	}
	return "invalid"
}

type Expr struct {
	Kind    ExprKind    `msgpack:"kind" yaml:"kind"`
	Span    source.Span `msgpack:"span" yaml:"span"`
	Payload PayloadID   `msgpack:"payload" yaml:"payload"`
}

type ExprLitKind uint8

const (
	LitInt ExprLitKind = iota
	LitFloat
	LitString
	LitChar
	LitBool
	LitNone
)

func (k ExprLitKind) String() string {
	switch k {
	case LitInt:
		return "int"
	case LitFloat:
		return "float"
	case LitString:
		return "string"
	case LitChar:
		return "char"
	case LitBool:
		return "bool"
	case LitNone:
		return "none"
	}
	return "invalid"
}

type ExprIdentData struct {
	Name source.StringID `msgpack:"name" yaml:"name"`
}

// ExprLiteralData keeps the literal text as written (without quotes).
type ExprLiteralData struct {
	Kind  ExprLitKind     `msgpack:"kind" yaml:"kind"`
	Value source.StringID `msgpack:"value,omitempty" yaml:"value,omitempty"`
}

type ExprBinaryData struct {
	Op    ExprBinaryOp `msgpack:"op" yaml:"op"`
	Left  ExprID       `msgpack:"left" yaml:"left"`
	Right ExprID       `msgpack:"right" yaml:"right"`
}

type ExprUnaryData struct {
	Op      ExprUnaryOp `msgpack:"op" yaml:"op"`
	Operand ExprID      `msgpack:"operand" yaml:"operand"`
}

type ExprCallData struct {
	Name     source.StringID `msgpack:"name" yaml:"name"`
	NameSpan source.Span     `msgpack:"name_span" yaml:"name_span"`
	Args     []ExprID        `msgpack:"args,omitempty" yaml:"args,omitempty"`
}

type ExprStaticCallData struct {
	Type   source.StringID `msgpack:"type" yaml:"type"`
	Member source.StringID `msgpack:"member" yaml:"member"`
	Args   []ExprID        `msgpack:"args,omitempty" yaml:"args,omitempty"`
}

type ExprMethodCallData struct {
	Receiver ExprID          `msgpack:"receiver" yaml:"receiver"`
	Member   source.StringID `msgpack:"member" yaml:"member"`
	Args     []ExprID        `msgpack:"args,omitempty" yaml:"args,omitempty"`
}

type FieldInit struct {
	Name  source.StringID `msgpack:"name" yaml:"name"`
	Value ExprID          `msgpack:"value" yaml:"value"`
	Span  source.Span     `msgpack:"span" yaml:"span"`
}

type ExprStructLitData struct {
	Type   TypeID      `msgpack:"type" yaml:"type"`
	Fields []FieldInit `msgpack:"fields,omitempty" yaml:"fields,omitempty"`
}

type ExprArrayLitData struct {
	Elems []ExprID `msgpack:"elems,omitempty" yaml:"elems,omitempty"`
}

type ExprFieldData struct {
	Target ExprID          `msgpack:"target" yaml:"target"`
	Field  source.StringID `msgpack:"field" yaml:"field"`
}

type ExprIndexData struct {
	Target ExprID `msgpack:"target" yaml:"target"`
	Index  ExprID `msgpack:"index" yaml:"index"`
}

type SliceKind uint8

const (
	SliceReference SliceKind = iota // &src[a..b]
	SliceHeapCopy                   // |src|[a..b]
)

func (k SliceKind) String() string {
	if k == SliceHeapCopy {
		return "heap-copy"
	}
	return "reference"
}

type ExprSliceData struct {
	Kind      SliceKind `msgpack:"kind" yaml:"kind"`
	Source    ExprID    `msgpack:"source" yaml:"source"`
	Start     ExprID    `msgpack:"start" yaml:"start"`
	End       ExprID    `msgpack:"end" yaml:"end"`
	Inclusive bool      `msgpack:"inclusive,omitempty" yaml:"inclusive,omitempty"`
}

type ExprCastData struct {
	Value ExprID `msgpack:"value" yaml:"value"`
	Type  TypeID `msgpack:"type" yaml:"type"`
}

type PatternKind uint8

const (
	PatternLiteral PatternKind = iota
	PatternWildcard
	PatternBinding
)

type Pattern struct {
	Kind PatternKind     `msgpack:"kind" yaml:"kind"`
	Lit  ExprID          `msgpack:"lit,omitempty" yaml:"lit,omitempty"`
	Name source.StringID `msgpack:"name,omitempty" yaml:"name,omitempty"`
	Span source.Span     `msgpack:"span" yaml:"span"`
}

type MatchArm struct {
	Pattern Pattern     `msgpack:"pattern" yaml:"pattern"`
	Value   ExprID      `msgpack:"value" yaml:"value"`
	Span    source.Span `msgpack:"span" yaml:"span"`
}

type ExprMatchData struct {
	Scrutinee ExprID     `msgpack:"scrutinee" yaml:"scrutinee"`
	Arms      []MatchArm `msgpack:"arms" yaml:"arms"`
}

// ExprAssignData covers `=` and compound forms; Compound selects Op.
type ExprAssignData struct {
	Compound bool         `msgpack:"compound,omitempty" yaml:"compound,omitempty"`
	Op       ExprBinaryOp `msgpack:"op,omitempty" yaml:"op,omitempty"`
	Target   ExprID       `msgpack:"target" yaml:"target"`
	Value    ExprID       `msgpack:"value" yaml:"value"`
}
