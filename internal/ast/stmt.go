package ast

import (
	"hydra/internal/source"
)

type StmtKind uint8

const (
	StmtBlock StmtKind = iota
	StmtLet
	StmtExpr
	StmtReturn
	StmtIf
	StmtWhile
	StmtForRange
	StmtForEach
	StmtBreak
	StmtSkip
)

func (k StmtKind) String() string {
	switch k {
	case StmtBlock:
		return "block"
	case StmtLet:
		return "let"
	case StmtExpr:
		return "expr"
	case StmtReturn:
		return "return"
	case StmtIf:
		return "if"
	case StmtWhile:
		return "while"
	case StmtForRange:
		return "for-range"
	case StmtForEach:
		return "for-each"
	case StmtBreak:
		return "break"
	case StmtSkip:
		return "skip"
	}
	return "invalid"
}

type Stmt struct {
	Kind    StmtKind    `msgpack:"kind" yaml:"kind"`
	Span    source.Span `msgpack:"span" yaml:"span"`
	Payload PayloadID   `msgpack:"payload,omitempty" yaml:"payload,omitempty"`
}

type BlockStmt struct {
	Stmts []StmtID `msgpack:"stmts" yaml:"stmts"`
}

type ExprStmt struct {
	Expr ExprID `msgpack:"expr" yaml:"expr"`
}

type ReturnStmt struct {
	Value ExprID `msgpack:"value,omitempty" yaml:"value,omitempty"`
}

type IfStmt struct {
	Cond ExprID `msgpack:"cond" yaml:"cond"`
	Then StmtID `msgpack:"then" yaml:"then"`
	Else StmtID `msgpack:"else,omitempty" yaml:"else,omitempty"`
}

type WhileStmt struct {
	Cond ExprID `msgpack:"cond" yaml:"cond"`
	Body StmtID `msgpack:"body" yaml:"body"`
}

// ForRangeStmt is `for i in a..b` / `for i in a..=b`. A range whose start is
// greater than its end counts down.
type ForRangeStmt struct {
	Var       source.StringID `msgpack:"var" yaml:"var"`
	VarSpan   source.Span     `msgpack:"var_span" yaml:"var_span"`
	Start     ExprID          `msgpack:"start" yaml:"start"`
	End       ExprID          `msgpack:"end" yaml:"end"`
	Inclusive bool            `msgpack:"inclusive,omitempty" yaml:"inclusive,omitempty"`
	Body      StmtID          `msgpack:"body" yaml:"body"`
}

type ForEachStmt struct {
	Var      source.StringID `msgpack:"var" yaml:"var"`
	VarSpan  source.Span     `msgpack:"var_span" yaml:"var_span"`
	Iterable ExprID          `msgpack:"iterable" yaml:"iterable"`
	Body     StmtID          `msgpack:"body" yaml:"body"`
}

type Stmts struct {
	Arena     *Arena[Stmt]
	Blocks    *Arena[BlockStmt]
	Lets      *Arena[LetData]
	Exprs     *Arena[ExprStmt]
	Returns   *Arena[ReturnStmt]
	Ifs       *Arena[IfStmt]
	Whiles    *Arena[WhileStmt]
	ForRanges *Arena[ForRangeStmt]
	ForEachs  *Arena[ForEachStmt]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Stmts{
		Arena:     NewArena[Stmt](capHint),
		Blocks:    NewArena[BlockStmt](capHint),
		Lets:      NewArena[LetData](capHint),
		Exprs:     NewArena[ExprStmt](capHint),
		Returns:   NewArena[ReturnStmt](capHint),
		Ifs:       NewArena[IfStmt](capHint),
		Whiles:    NewArena[WhileStmt](capHint),
		ForRanges: NewArena[ForRangeStmt](capHint),
		ForEachs:  NewArena[ForEachStmt](capHint),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload uint32) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

func (s *Stmts) NewBlock(span source.Span, stmts []StmtID) StmtID {
	return s.new(StmtBlock, span, s.Blocks.Allocate(BlockStmt{Stmts: stmts}))
}

func (s *Stmts) NewLet(span source.Span, let LetData) StmtID {
	return s.new(StmtLet, span, s.Lets.Allocate(let))
}

func (s *Stmts) NewExpr(span source.Span, expr ExprID) StmtID {
	return s.new(StmtExpr, span, s.Exprs.Allocate(ExprStmt{Expr: expr}))
}

func (s *Stmts) NewReturn(span source.Span, value ExprID) StmtID {
	return s.new(StmtReturn, span, s.Returns.Allocate(ReturnStmt{Value: value}))
}

func (s *Stmts) NewIf(span source.Span, cond ExprID, then, els StmtID) StmtID {
	return s.new(StmtIf, span, s.Ifs.Allocate(IfStmt{Cond: cond, Then: then, Else: els}))
}

func (s *Stmts) NewWhile(span source.Span, cond ExprID, body StmtID) StmtID {
	return s.new(StmtWhile, span, s.Whiles.Allocate(WhileStmt{Cond: cond, Body: body}))
}

func (s *Stmts) NewForRange(span source.Span, data ForRangeStmt) StmtID {
	return s.new(StmtForRange, span, s.ForRanges.Allocate(data))
}

func (s *Stmts) NewForEach(span source.Span, data ForEachStmt) StmtID {
	return s.new(StmtForEach, span, s.ForEachs.Allocate(data))
}

func (s *Stmts) NewBreak(span source.Span) StmtID {
	return s.new(StmtBreak, span, 0)
}

func (s *Stmts) NewSkip(span source.Span) StmtID {
	return s.new(StmtSkip, span, 0)
}

func (s *Stmts) payload(id StmtID, kind StmtKind) (uint32, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != kind {
		return 0, false
	}
	return uint32(st.Payload), true
}

func (s *Stmts) Block(id StmtID) *BlockStmt {
	p, ok := s.payload(id, StmtBlock)
	if !ok {
		return nil
	}
	return s.Blocks.Get(p)
}

func (s *Stmts) Let(id StmtID) *LetData {
	p, ok := s.payload(id, StmtLet)
	if !ok {
		return nil
	}
	return s.Lets.Get(p)
}

func (s *Stmts) Expr(id StmtID) *ExprStmt {
	p, ok := s.payload(id, StmtExpr)
	if !ok {
		return nil
	}
	return s.Exprs.Get(p)
}

func (s *Stmts) Return(id StmtID) *ReturnStmt {
	p, ok := s.payload(id, StmtReturn)
	if !ok {
		return nil
	}
	return s.Returns.Get(p)
}

func (s *Stmts) If(id StmtID) *IfStmt {
	p, ok := s.payload(id, StmtIf)
	if !ok {
		return nil
	}
	return s.Ifs.Get(p)
}

func (s *Stmts) While(id StmtID) *WhileStmt {
	p, ok := s.payload(id, StmtWhile)
	if !ok {
		return nil
	}
	return s.Whiles.Get(p)
}

func (s *Stmts) ForRange(id StmtID) *ForRangeStmt {
	p, ok := s.payload(id, StmtForRange)
	if !ok {
		return nil
	}
	return s.ForRanges.Get(p)
}

func (s *Stmts) ForEach(id StmtID) *ForEachStmt {
	p, ok := s.payload(id, StmtForEach)
	if !ok {
		return nil
	}
	return s.ForEachs.Get(p)
}
