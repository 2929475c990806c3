package testkit

import (
	"strconv"

	"hydra/internal/ast"
	"hydra/internal/source"
)

// FileSpanEnd bounds every span handed out by a Program.
const FileSpanEnd = 1 << 24

// Program builds a single-file tree the way the parser would. Every node gets
// a fresh, strictly increasing span so diagnostics can be told apart.
type Program struct {
	B    *ast.Builder
	File ast.FileID
	src  source.FileID
	pos  uint32
}

// NewProgram starts an empty file with source id 1.
func NewProgram() *Program {
	b := ast.NewBuilder(ast.Hints{}, nil)
	src := source.FileID(1)
	file := b.NewFile(source.Span{File: src, Start: 0, End: FileSpanEnd})
	return &Program{B: b, File: file, src: src, pos: 1}
}

// Span returns the next unused span.
func (p *Program) Span() source.Span {
	sp := source.Span{File: p.src, Start: p.pos, End: p.pos + 1}
	p.pos += 2
	return sp
}

func (p *Program) Name(s string) source.StringID { return p.B.Name(s) }

// --- types ---

func (p *Program) Named(name string, args ...ast.TypeArg) ast.TypeID {
	return p.B.Types.NewPath(p.Span(), p.Name(name), args)
}

// Array is `[elem, n]`.
func (p *Program) Array(elem ast.TypeID, n int64) ast.TypeID {
	return p.B.Types.NewArray(p.Span(), elem, false, ast.SizeExpr{Value: n, Span: p.Span()})
}

// ConstArray is `[const elem, n]`.
func (p *Program) ConstArray(elem ast.TypeID, n int64) ast.TypeID {
	return p.B.Types.NewArray(p.Span(), elem, true, ast.SizeExpr{Value: n, Span: p.Span()})
}

// SizedArray is `[elem, name+offset]` with an optional const element marker.
func (p *Program) SizedArray(elem ast.TypeID, name string, offset int64, elemConst bool) ast.TypeID {
	size := ast.SizeExpr{Name: p.Name(name), Value: offset, Span: p.Span()}
	return p.B.Types.NewArray(p.Span(), elem, elemConst, size)
}

func (p *Program) Heap(elem ast.TypeID) ast.TypeID { return p.B.Types.NewHeap(p.Span(), elem) }

func (p *Program) Opt(elem ast.TypeID) ast.TypeID { return p.B.Types.NewOptional(p.Span(), elem) }

func (p *Program) FnType(result ast.TypeID, params ...ast.TypeID) ast.TypeID {
	return p.B.Types.NewFn(p.Span(), params, result)
}

func (p *Program) TypeArg(t ast.TypeID) ast.TypeArg { return ast.TypeArg{Type: t} }

func (p *Program) SizeArg(n int64) ast.TypeArg {
	return ast.TypeArg{IsSize: true, Size: ast.SizeExpr{Value: n, Span: p.Span()}}
}

// --- expressions ---

func (p *Program) Ident(name string) ast.ExprID { return p.B.Exprs.NewIdent(p.Span(), p.Name(name)) }

func (p *Program) Int(v int64) ast.ExprID { return p.IntText(strconv.FormatInt(v, 10)) }

func (p *Program) IntText(text string) ast.ExprID {
	return p.B.Exprs.NewLiteral(p.Span(), ast.LitInt, p.B.StringsInterner.Intern(text))
}

func (p *Program) Float(text string) ast.ExprID {
	return p.B.Exprs.NewLiteral(p.Span(), ast.LitFloat, p.B.StringsInterner.Intern(text))
}

func (p *Program) Str(text string) ast.ExprID {
	return p.B.Exprs.NewLiteral(p.Span(), ast.LitString, p.B.StringsInterner.Intern(text))
}

func (p *Program) Char(text string) ast.ExprID {
	return p.B.Exprs.NewLiteral(p.Span(), ast.LitChar, p.B.StringsInterner.Intern(text))
}

func (p *Program) Bool(v bool) ast.ExprID {
	return p.B.Exprs.NewLiteral(p.Span(), ast.LitBool, p.B.StringsInterner.Intern(strconv.FormatBool(v)))
}

func (p *Program) None() ast.ExprID {
	return p.B.Exprs.NewLiteral(p.Span(), ast.LitNone, source.NoStringID)
}

func (p *Program) Bin(op ast.ExprBinaryOp, left, right ast.ExprID) ast.ExprID {
	return p.B.Exprs.NewBinary(p.Span(), op, left, right)
}

func (p *Program) Un(op ast.ExprUnaryOp, operand ast.ExprID) ast.ExprID {
	return p.B.Exprs.NewUnary(p.Span(), op, operand)
}

func (p *Program) Call(name string, args ...ast.ExprID) ast.ExprID {
	return p.B.Exprs.NewCall(p.Span(), ast.ExprCallData{Name: p.Name(name), NameSpan: p.Span(), Args: args})
}

// Static is `typ::member(args)`.
func (p *Program) Static(typ, member string, args ...ast.ExprID) ast.ExprID {
	return p.B.Exprs.NewStaticCall(p.Span(), ast.ExprStaticCallData{Type: p.Name(typ), Member: p.Name(member), Args: args})
}

func (p *Program) MethodCall(recv ast.ExprID, member string, args ...ast.ExprID) ast.ExprID {
	return p.B.Exprs.NewMethodCall(p.Span(), ast.ExprMethodCallData{Receiver: recv, Member: p.Name(member), Args: args})
}

func (p *Program) Init(name string, value ast.ExprID) ast.FieldInit {
	return ast.FieldInit{Name: p.Name(name), Value: value, Span: p.Span()}
}

func (p *Program) StructLit(typ ast.TypeID, fields ...ast.FieldInit) ast.ExprID {
	return p.B.Exprs.NewStructLit(p.Span(), ast.ExprStructLitData{Type: typ, Fields: fields})
}

func (p *Program) ArrayLit(elems ...ast.ExprID) ast.ExprID {
	return p.B.Exprs.NewArrayLit(p.Span(), elems)
}

// Ints is an array literal of integer literals.
func (p *Program) Ints(values ...int64) ast.ExprID {
	elems := make([]ast.ExprID, 0, len(values))
	for _, v := range values {
		elems = append(elems, p.Int(v))
	}
	return p.ArrayLit(elems...)
}

func (p *Program) Field(target ast.ExprID, name string) ast.ExprID {
	return p.B.Exprs.NewField(p.Span(), target, p.Name(name))
}

func (p *Program) Index(target, index ast.ExprID) ast.ExprID {
	return p.B.Exprs.NewIndex(p.Span(), target, index)
}

// RefSlice is `&src[start..end]`.
func (p *Program) RefSlice(src ast.ExprID, start, end int64) ast.ExprID {
	return p.Slice(ast.SliceReference, src, p.Int(start), p.Int(end), false)
}

// HeapSlice is `|src|[start..end]`.
func (p *Program) HeapSlice(src ast.ExprID, start, end int64) ast.ExprID {
	return p.Slice(ast.SliceHeapCopy, src, p.Int(start), p.Int(end), false)
}

func (p *Program) Slice(kind ast.SliceKind, src, start, end ast.ExprID, inclusive bool) ast.ExprID {
	return p.B.Exprs.NewSlice(p.Span(), ast.ExprSliceData{Kind: kind, Source: src, Start: start, End: end, Inclusive: inclusive})
}

func (p *Program) Cast(value ast.ExprID, typ ast.TypeID) ast.ExprID {
	return p.B.Exprs.NewCast(p.Span(), value, typ)
}

func (p *Program) LitArm(lit, value ast.ExprID) ast.MatchArm {
	return ast.MatchArm{Pattern: ast.Pattern{Kind: ast.PatternLiteral, Lit: lit, Span: p.Span()}, Value: value, Span: p.Span()}
}

func (p *Program) WildArm(value ast.ExprID) ast.MatchArm {
	return ast.MatchArm{Pattern: ast.Pattern{Kind: ast.PatternWildcard, Span: p.Span()}, Value: value, Span: p.Span()}
}

func (p *Program) BindArm(name string, value ast.ExprID) ast.MatchArm {
	return ast.MatchArm{Pattern: ast.Pattern{Kind: ast.PatternBinding, Name: p.Name(name), Span: p.Span()}, Value: value, Span: p.Span()}
}

func (p *Program) Match(scrutinee ast.ExprID, arms ...ast.MatchArm) ast.ExprID {
	return p.B.Exprs.NewMatch(p.Span(), scrutinee, arms)
}

func (p *Program) Assign(target, value ast.ExprID) ast.ExprID {
	return p.B.Exprs.NewAssign(p.Span(), ast.ExprAssignData{Target: target, Value: value})
}

func (p *Program) CompoundAssign(op ast.ExprBinaryOp, target, value ast.ExprID) ast.ExprID {
	return p.B.Exprs.NewAssign(p.Span(), ast.ExprAssignData{Compound: true, Op: op, Target: target, Value: value})
}

// --- statements ---

// Let declares a mutable binding; typ may be ast.NoTypeID.
func (p *Program) Let(name string, typ ast.TypeID, value ast.ExprID) ast.StmtID {
	return p.letStmt(name, true, typ, value)
}

// Const declares an immutable binding.
func (p *Program) Const(name string, typ ast.TypeID, value ast.ExprID) ast.StmtID {
	return p.letStmt(name, false, typ, value)
}

func (p *Program) letStmt(name string, mutable bool, typ ast.TypeID, value ast.ExprID) ast.StmtID {
	return p.B.Stmts.NewLet(p.Span(), ast.LetData{
		Name:     p.Name(name),
		NameSpan: p.Span(),
		Mutable:  mutable,
		Type:     typ,
		Value:    value,
	})
}

func (p *Program) Do(expr ast.ExprID) ast.StmtID { return p.B.Stmts.NewExpr(p.Span(), expr) }

func (p *Program) Return(value ast.ExprID) ast.StmtID { return p.B.Stmts.NewReturn(p.Span(), value) }

func (p *Program) Block(stmts ...ast.StmtID) ast.StmtID { return p.B.Stmts.NewBlock(p.Span(), stmts) }

func (p *Program) If(cond ast.ExprID, then, els ast.StmtID) ast.StmtID {
	return p.B.Stmts.NewIf(p.Span(), cond, then, els)
}

func (p *Program) While(cond ast.ExprID, body ast.StmtID) ast.StmtID {
	return p.B.Stmts.NewWhile(p.Span(), cond, body)
}

func (p *Program) ForRange(name string, start, end ast.ExprID, inclusive bool, body ast.StmtID) ast.StmtID {
	return p.B.Stmts.NewForRange(p.Span(), ast.ForRangeStmt{
		Var:       p.Name(name),
		VarSpan:   p.Span(),
		Start:     start,
		End:       end,
		Inclusive: inclusive,
		Body:      body,
	})
}

func (p *Program) ForEach(name string, iterable ast.ExprID, body ast.StmtID) ast.StmtID {
	return p.B.Stmts.NewForEach(p.Span(), ast.ForEachStmt{Var: p.Name(name), VarSpan: p.Span(), Iterable: iterable, Body: body})
}

func (p *Program) Break() ast.StmtID { return p.B.Stmts.NewBreak(p.Span()) }

func (p *Program) Skip() ast.StmtID { return p.B.Stmts.NewSkip(p.Span()) }

// --- items ---

func (p *Program) Param(name string, typ ast.TypeID) ast.FnParam {
	return ast.FnParam{Name: p.Name(name), Type: typ, Span: p.Span()}
}

func (p *Program) MutParam(name string, typ ast.TypeID) ast.FnParam {
	return ast.FnParam{Name: p.Name(name), Type: typ, Mutable: true, Span: p.Span()}
}

func (p *Program) SelfParam() ast.FnParam {
	return ast.FnParam{Name: p.Name("self"), Span: p.Span()}
}

func (p *Program) SizeGeneric(name string) ast.GenericParam {
	return ast.GenericParam{Name: p.Name(name), Kind: ast.GenericSize, Span: p.Span()}
}

func (p *Program) TypeGeneric(name string) ast.GenericParam {
	return ast.GenericParam{Name: p.Name(name), Kind: ast.GenericType, Span: p.Span()}
}

// Fn declares a free function. A NoTypeID result means void.
func (p *Program) Fn(name string, params []ast.FnParam, result ast.TypeID, body ...ast.StmtID) ast.ItemID {
	return p.GenericFn(name, nil, params, result, body...)
}

func (p *Program) GenericFn(name string, generics []ast.GenericParam, params []ast.FnParam, result ast.TypeID, body ...ast.StmtID) ast.ItemID {
	id := p.newFn(name, generics, params, result, ast.NoItemID, body)
	p.B.PushItem(p.File, id)
	return id
}

// Method declares a function in the type scope of an existing struct item.
func (p *Program) Method(owner ast.ItemID, name string, params []ast.FnParam, result ast.TypeID, body ...ast.StmtID) ast.ItemID {
	id := p.newFn(name, nil, params, result, owner, body)
	if st, ok := p.B.Items.Struct(owner); ok {
		st.Methods = append(st.Methods, id)
	}
	return id
}

func (p *Program) newFn(name string, generics []ast.GenericParam, params []ast.FnParam, result ast.TypeID, owner ast.ItemID, body []ast.StmtID) ast.ItemID {
	return p.B.Items.NewFn(p.Span(), ast.FnItem{
		Name:     p.Name(name),
		NameSpan: p.Span(),
		Generics: generics,
		Params:   params,
		Result:   result,
		Body:     p.Block(body...),
		Owner:    owner,
	})
}

func (p *Program) FieldDecl(name string, typ ast.TypeID) ast.StructField {
	return ast.StructField{Name: p.Name(name), Type: typ, Span: p.Span()}
}

func (p *Program) Struct(name string, generics []ast.GenericParam, fields ...ast.StructField) ast.ItemID {
	id := p.B.Items.NewStruct(p.Span(), ast.StructItem{
		Name:     p.Name(name),
		NameSpan: p.Span(),
		Generics: generics,
		Fields:   fields,
	})
	p.B.PushItem(p.File, id)
	return id
}

func (p *Program) Typedef(name string, target ast.TypeID) ast.ItemID {
	id := p.B.Items.NewTypedef(p.Span(), ast.TypedefItem{Name: p.Name(name), NameSpan: p.Span(), Target: target})
	p.B.PushItem(p.File, id)
	return id
}

func (p *Program) Global(name string, mutable bool, typ ast.TypeID, value ast.ExprID) ast.ItemID {
	id := p.B.Items.NewLet(p.Span(), ast.LetData{
		Name:     p.Name(name),
		NameSpan: p.Span(),
		Mutable:  mutable,
		Type:     typ,
		Value:    value,
	})
	p.B.PushItem(p.File, id)
	return id
}
