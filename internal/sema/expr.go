package sema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"hydra/internal/ast"
	"hydra/internal/diag"
	"hydra/internal/source"
	"hydra/internal/symbols"
	"hydra/internal/types"
)

// typeExpr computes and records the type of id. expected only guides
// literals; compatibility is checked by the caller.
func (tc *typeChecker) typeExpr(id ast.ExprID, expected types.TypeID) types.TypeID {
	if !id.IsValid() {
		return tc.types.Builtins().Unresolved
	}
	t := tc.exprType(id, expected)
	tc.body.ann.ExprTypes[id] = t
	return t
}

func (tc *typeChecker) exprType(id ast.ExprID, expected types.TypeID) types.TypeID {
	b := tc.types.Builtins()
	e := tc.builder.Exprs.Get(id)
	if e == nil {
		return b.Unresolved
	}
	switch e.Kind {
	case ast.ExprIdent:
		return tc.typeIdent(id, e.Span)
	case ast.ExprLit:
		return tc.typeLiteral(id, e.Span, expected, false)
	case ast.ExprBinary:
		return tc.typeBinary(id, e.Span, expected)
	case ast.ExprUnary:
		return tc.typeUnary(id, e.Span, expected)
	case ast.ExprCall, ast.ExprStaticCall, ast.ExprMethodCall:
		return tc.typeCall(id, e)
	case ast.ExprStructLit:
		return tc.typeStructLit(id, e.Span)
	case ast.ExprArrayLit:
		return tc.typeArrayLit(id, e.Span, expected)
	case ast.ExprField:
		return tc.typeField(id, e.Span)
	case ast.ExprIndex:
		return tc.typeIndex(id, e.Span)
	case ast.ExprSlice:
		return tc.typeSlice(id, e.Span)
	case ast.ExprCast:
		return tc.typeCast(id, e.Span)
	case ast.ExprMatch:
		return tc.typeMatch(id, e.Span, expected)
	case ast.ExprAssign:
		return tc.typeAssign(id, e.Span)
	}
	return b.Unresolved
}

// symbolic reports a type that still mentions placeholders while a template
// is checked; operations on such values are validated per specialization.
func (tc *typeChecker) symbolic(t types.TypeID) bool {
	return tc.body != nil && tc.body.template && tc.types.IsGeneric(t)
}

func (tc *typeChecker) isIntegerLike(t types.TypeID) bool {
	return tc.types.IsInteger(t) || tc.symbolic(t)
}

func (tc *typeChecker) derefHeap(t types.TypeID) types.TypeID {
	if tt, ok := tc.types.Lookup(t); ok && tt.Kind == types.KindHeap {
		return tt.Elem
	}
	return t
}

func (tc *typeChecker) typeIdent(id ast.ExprID, span source.Span) types.TypeID {
	b := tc.types.Builtins()
	sym, ok := tc.syms.ExprSymbols[id]
	if !ok {
		return b.Unresolved
	}
	s := tc.symbol(sym)
	if s == nil {
		return b.Unresolved
	}
	switch s.Kind {
	case symbols.SymbolLet, symbols.SymbolParam:
		if binding := tc.lookupBinding(sym); binding != nil {
			return binding.Type
		}
	case symbols.SymbolGeneric:
		if s.Flags&symbols.SymbolFlagSizeParam != 0 {
			return b.Usize
		}
		diag.ReportError(tc.rep(), diag.SemaTypeMismatch, span,
			fmt.Sprintf("'%s' is a type, not a value", tc.name(sym))).
			WithArgs(tc.name(sym)).
			Emit()
	case symbols.SymbolFunction:
		sig := tc.result.Signatures[sym]
		if sig == nil {
			break
		}
		if sig.Template() {
			diag.ReportError(tc.rep(), diag.SemaGenericArgMismatch, span,
				fmt.Sprintf("generic function '%s' cannot be used as a value", sig.Name)).
				WithArgs(sig.Name).
				Emit()
			break
		}
		return tc.types.RegisterFn(sig.Params, sig.Result)
	}
	return b.Unresolved
}

// literalTarget is the type a literal adopts from its context.
func (tc *typeChecker) literalTarget(expected types.TypeID) types.TypeID {
	if tt, ok := tc.types.Lookup(expected); ok && tt.Kind == types.KindOptional {
		return tt.Elem
	}
	return expected
}

func (tc *typeChecker) isUntypedLiteral(id ast.ExprID) bool {
	e := tc.builder.Exprs.Get(id)
	if e == nil {
		return false
	}
	switch e.Kind {
	case ast.ExprLit:
		lit, _ := tc.builder.Exprs.Literal(id)
		return lit.Kind == ast.LitInt || lit.Kind == ast.LitFloat
	case ast.ExprUnary:
		un, _ := tc.builder.Exprs.Unary(id)
		return un.Op == ast.OpNeg && tc.isUntypedLiteral(un.Operand)
	}
	return false
}

func (tc *typeChecker) typeLiteral(id ast.ExprID, span source.Span, expected types.TypeID, negative bool) types.TypeID {
	b := tc.types.Builtins()
	lit, _ := tc.builder.Exprs.Literal(id)
	want := tc.literalTarget(expected)
	switch lit.Kind {
	case ast.LitInt:
		switch {
		case tc.types.IsFloat(want):
			return want
		case !tc.types.IsInteger(want):
			want = b.I32
		}
		text := tc.builder.NameOf(lit.Value)
		v, ok := parseIntLiteral(text)
		if !ok {
			diag.ReportError(tc.rep(), diag.SemaLiteralOverflow, span,
				fmt.Sprintf("integer literal %s is too large", text)).
				WithArgs(text).
				Emit()
			return want
		}
		tc.checkIntRange(span, text, v, negative, want)
		return want
	case ast.LitFloat:
		if tc.types.IsFloat(want) {
			return want
		}
		return b.F64
	case ast.LitString:
		return b.String
	case ast.LitChar:
		return b.Char
	case ast.LitBool:
		return b.Bool
	case ast.LitNone:
		return b.Nothing
	}
	return b.Unresolved
}

func parseIntLiteral(text string) (uint64, bool) {
	v, err := strconv.ParseUint(strings.ReplaceAll(text, "_", ""), 0, 64)
	return v, err == nil
}

func (tc *typeChecker) checkIntRange(span source.Span, text string, v uint64, negative bool, t types.TypeID) {
	lo, hi, ok := tc.types.IntRange(t)
	if !ok || negative && lo == 0 {
		return
	}
	fits := v <= hi
	if negative && lo < 0 {
		// |lo| без переполнения на MinInt64
		fits = v <= uint64(-(lo+1))+1
	}
	if fits {
		return
	}
	if negative {
		text = "-" + text
	}
	diag.ReportError(tc.rep(), diag.SemaLiteralOverflow, span,
		fmt.Sprintf("literal %s does not fit in %s", text, tc.label(t))).
		WithArgs(text, tc.label(t)).
		Emit()
}

// typePair types two operands so that an untyped literal on either side
// adopts the type of the other one.
func (tc *typeChecker) typePair(left, right ast.ExprID, hint types.TypeID) (types.TypeID, types.TypeID) {
	if tc.isUntypedLiteral(left) && !tc.isUntypedLiteral(right) {
		rt := tc.typeExpr(right, hint)
		lt := tc.typeExpr(left, rt)
		return lt, rt
	}
	lt := tc.typeExpr(left, hint)
	rt := tc.typeExpr(right, lt)
	return lt, rt
}

func (tc *typeChecker) typeBinary(id ast.ExprID, span source.Span, expected types.TypeID) types.TypeID {
	b := tc.types.Builtins()
	data, _ := tc.builder.Exprs.Binary(id)
	if data.Op.IsLogical() {
		lt := tc.typeExpr(data.Left, b.Bool)
		rt := tc.typeExpr(data.Right, b.Bool)
		if !tc.boolLike(lt) || !tc.boolLike(rt) {
			tc.reportBinary(span, data.Op, lt, rt)
		}
		return b.Bool
	}
	hint := expected
	if data.Op.IsComparison() {
		hint = types.NoTypeID
	}
	lt, rt := tc.typePair(data.Left, data.Right, hint)
	fallback := b.Unresolved
	if data.Op.IsComparison() {
		fallback = b.Bool
	}
	if tc.types.IsUnresolved(lt) || tc.types.IsUnresolved(rt) {
		return fallback
	}
	if tc.symbolic(lt) || tc.symbolic(rt) {
		if data.Op.IsComparison() {
			return b.Bool
		}
		return lt
	}
	res, ok := tc.binaryResult(data.Op, lt, rt)
	if !ok {
		tc.reportBinary(span, data.Op, lt, rt)
		return fallback
	}
	return res
}

func (tc *typeChecker) boolLike(t types.TypeID) bool {
	return t == tc.types.Builtins().Bool || tc.types.IsUnresolved(t) || tc.symbolic(t)
}

func (tc *typeChecker) reportBinary(span source.Span, op ast.ExprBinaryOp, lt, rt types.TypeID) {
	diag.ReportError(tc.rep(), diag.SemaInvalidBinaryOperands, span,
		fmt.Sprintf("invalid operands to '%s': %s and %s", op, tc.label(lt), tc.label(rt))).
		WithArgs(op.String(), tc.label(lt), tc.label(rt)).
		Emit()
}

// binaryResult is the type of `lt op rt` for concrete operands.
func (tc *typeChecker) binaryResult(op ast.ExprBinaryOp, lt, rt types.TypeID) (types.TypeID, bool) {
	b := tc.types.Builtins()
	same := tc.types.SameIgnoringConst(lt, rt)
	switch {
	case op == ast.OpEq || op == ast.OpNe:
		if same {
			return b.Bool, true
		}
		if _, ok := tc.types.Unify(lt, rt); ok {
			return b.Bool, true
		}
	case op.IsComparison():
		if same && (tc.types.IsNumeric(lt) || lt == b.Char || lt == b.String) {
			return b.Bool, true
		}
	case op == ast.OpShl || op == ast.OpShr:
		if tc.types.IsInteger(lt) && tc.types.IsInteger(rt) {
			return lt, true
		}
	case op.IsBitwise():
		if same && (tc.types.IsInteger(lt) || lt == b.Bool) {
			return lt, true
		}
	case op == ast.OpAdd && same && lt == b.String:
		return lt, true
	default:
		if same && tc.types.IsNumeric(lt) {
			return lt, true
		}
	}
	return types.NoTypeID, false
}

func (tc *typeChecker) typeUnary(id ast.ExprID, span source.Span, expected types.TypeID) types.TypeID {
	b := tc.types.Builtins()
	data, _ := tc.builder.Exprs.Unary(id)
	switch data.Op {
	case ast.OpNot:
		t := tc.typeExpr(data.Operand, b.Bool)
		if !tc.boolLike(t) {
			tc.reportUnary(span, data.Op, t)
		}
		return b.Bool
	case ast.OpNeg:
		if lit, ok := tc.builder.Exprs.Literal(data.Operand); ok && lit.Kind == ast.LitInt {
			t := tc.typeLiteral(data.Operand, span, expected, true)
			tc.body.ann.ExprTypes[data.Operand] = t
			if tc.types.KindOf(t) == types.KindUint {
				tc.reportUnary(span, data.Op, t)
			}
			return t
		}
		t := tc.typeExpr(data.Operand, expected)
		if tc.types.IsUnresolved(t) || tc.symbolic(t) {
			return t
		}
		if tc.types.IsSigned(t) || tc.types.IsFloat(t) {
			return t
		}
		tc.reportUnary(span, data.Op, t)
		return b.Unresolved
	}
	t := tc.typeExpr(data.Operand, types.NoTypeID)
	if !tc.types.IsUnresolved(t) && !tc.isIntegerLike(t) {
		tc.reportUnary(span, data.Op, t)
	}
	tc.checkMutation(data.Operand, span)
	return t
}

func (tc *typeChecker) reportUnary(span source.Span, op ast.ExprUnaryOp, t types.TypeID) {
	diag.ReportError(tc.rep(), diag.SemaInvalidUnaryOperand, span,
		fmt.Sprintf("invalid operand to '%s': %s", op, tc.label(t))).
		WithArgs(op.String(), tc.label(t)).
		Emit()
}

func (tc *typeChecker) typeCast(id ast.ExprID, span source.Span) types.TypeID {
	data, _ := tc.builder.Exprs.Cast(id)
	vt := tc.typeExpr(data.Value, types.NoTypeID)
	target := tc.bodyType(data.Type, span)
	if tc.types.IsUnresolved(vt) || tc.types.IsUnresolved(target) || tc.castable(vt, target) {
		return target
	}
	diag.ReportError(tc.rep(), diag.SemaInvalidCast, span,
		fmt.Sprintf("cannot cast %s to %s", tc.label(vt), tc.label(target))).
		WithArgs(tc.label(vt), tc.label(target)).
		Emit()
	return target
}

func (tc *typeChecker) castable(from, to types.TypeID) bool {
	b := tc.types.Builtins()
	switch {
	case tc.types.SameIgnoringConst(from, to), tc.symbolic(from), tc.symbolic(to):
		return true
	case tc.types.IsNumeric(from) && tc.types.IsNumeric(to):
		return true
	case from == b.Char && tc.types.IsInteger(to), tc.types.IsInteger(from) && to == b.Char:
		return true
	case from == b.Bool && tc.types.IsInteger(to):
		return true
	}
	return false
}

func (tc *typeChecker) typeField(id ast.ExprID, span source.Span) types.TypeID {
	b := tc.types.Builtins()
	data, _ := tc.builder.Exprs.Field(id)
	tt := tc.derefHeap(tc.typeExpr(data.Target, types.NoTypeID))
	if tc.types.IsUnresolved(tt) {
		return b.Unresolved
	}
	field := tc.builder.NameOf(data.Field)
	if tc.types.KindOf(tt) != types.KindStruct {
		if tc.symbolic(tt) {
			return b.Unresolved
		}
		diag.ReportError(tc.rep(), diag.SemaUnknownField, span,
			fmt.Sprintf("type %s has no field '%s'", tc.label(tt), field)).
			WithArgs(tc.label(tt), field).
			Emit()
		return b.Unresolved
	}
	f, _, ok := tc.types.Field(tt, data.Field)
	if !ok {
		diag.ReportError(tc.rep(), diag.SemaUnknownField, span,
			fmt.Sprintf("type %s has no field '%s'", tc.label(tt), field)).
			WithArgs(tc.label(tt), field).
			Emit()
		return b.Unresolved
	}
	return f.Type
}

func (tc *typeChecker) typeIndex(id ast.ExprID, span source.Span) types.TypeID {
	b := tc.types.Builtins()
	data, _ := tc.builder.Exprs.Index(id)
	at := tc.derefHeap(tc.typeExpr(data.Target, types.NoTypeID))
	it := tc.typeExpr(data.Index, types.NoTypeID)
	if !tc.types.IsUnresolved(it) && !tc.isIntegerLike(it) {
		diag.ReportError(tc.rep(), diag.SemaTypeMismatch, tc.exprSpan(data.Index),
			fmt.Sprintf("array index must be an integer, found %s", tc.label(it))).
			WithArgs(tc.label(it)).
			Emit()
	}
	if tc.types.IsUnresolved(at) {
		return b.Unresolved
	}
	arr, _ := tc.types.Lookup(at)
	if arr.Kind != types.KindArray {
		if !tc.symbolic(at) {
			diag.ReportError(tc.rep(), diag.SemaNotIndexable, span,
				fmt.Sprintf("cannot index into a value of type %s", tc.label(at))).
				WithArgs(tc.label(at)).
				Emit()
		}
		return b.Unresolved
	}
	if v, ok, _ := tc.constInt(data.Index); ok {
		if n, known := tc.types.ArrayLen(at); known && (v < 0 || v >= int64(n)) {
			diag.ReportError(tc.rep(), diag.SemaIndexOutOfBounds, tc.exprSpan(data.Index),
				fmt.Sprintf("index %d is out of bounds for %s of length %d", v, tc.label(at), n)).
				WithArgs(strconv.FormatInt(v, 10), tc.label(at)).
				Emit()
		}
	}
	return arr.Elem
}

func (tc *typeChecker) typeStructLit(id ast.ExprID, span source.Span) types.TypeID {
	b := tc.types.Builtins()
	data, _ := tc.builder.Exprs.StructLit(id)
	t := tc.bodyType(data.Type, span)
	if tc.types.KindOf(t) != types.KindStruct {
		if !tc.types.IsUnresolved(t) {
			diag.ReportError(tc.rep(), diag.SemaTypeMismatch, span,
				fmt.Sprintf("%s is not a struct type", tc.label(t))).
				WithArgs(tc.label(t)).
				Emit()
		}
		for _, init := range data.Fields {
			tc.typeExpr(init.Value, types.NoTypeID)
		}
		return b.Unresolved
	}
	seen := make(map[source.StringID]source.Span, len(data.Fields))
	for _, init := range data.Fields {
		name := tc.builder.NameOf(init.Name)
		f, _, ok := tc.types.Field(t, init.Name)
		if !ok {
			diag.ReportError(tc.rep(), diag.SemaUnknownField, init.Span,
				fmt.Sprintf("struct %s has no field '%s'", tc.label(t), name)).
				WithArgs(tc.label(t), name).
				Emit()
			tc.typeExpr(init.Value, types.NoTypeID)
			continue
		}
		if prev, dup := seen[init.Name]; dup {
			diag.ReportError(tc.rep(), diag.SemaDuplicateField, init.Span,
				fmt.Sprintf("field '%s' is initialized twice", name)).
				WithArgs(name).
				WithNote(prev, "first initialized here").
				Emit()
		}
		seen[init.Name] = init.Span
		vt := tc.typeExpr(init.Value, f.Type)
		if !tc.types.Assignable(f.Type, vt) {
			diag.ReportError(tc.rep(), diag.SemaTypeMismatch, tc.exprSpan(init.Value),
				fmt.Sprintf("field '%s' of %s expects %s, found %s", name, tc.label(t), tc.label(f.Type), tc.label(vt))).
				WithArgs(name, tc.label(f.Type), tc.label(vt)).
				Emit()
		}
	}
	for _, f := range tc.types.StructFields(t) {
		if _, ok := seen[f.Name]; ok {
			continue
		}
		name := tc.builder.NameOf(f.Name)
		diag.ReportError(tc.rep(), diag.SemaMissingField, span,
			fmt.Sprintf("missing field '%s' in literal of %s", name, tc.label(t))).
			WithArgs(name, tc.label(t)).
			Emit()
	}
	return t
}

func (tc *typeChecker) typeArrayLit(id ast.ExprID, span source.Span, expected types.TypeID) types.TypeID {
	b := tc.types.Builtins()
	data, _ := tc.builder.Exprs.ArrayLit(id)
	hint := types.NoTypeID
	elemConst := false
	if et, ok := tc.types.Lookup(tc.literalTarget(expected)); ok && et.Kind == types.KindArray {
		hint, elemConst = et.Elem, et.ElemConst
	}
	if len(data.Elems) == 0 {
		if hint == types.NoTypeID {
			diag.ReportError(tc.rep(), diag.SemaTypeMismatch, span,
				"cannot infer the element type of an empty array literal").
				Emit()
			return b.Unresolved
		}
		return tc.types.Array(hint, 0, elemConst)
	}
	elem := hint
	for i, e := range data.Elems {
		t := tc.typeExpr(e, elem)
		switch {
		case elem == types.NoTypeID:
			elem = t
			continue
		case tc.types.Assignable(elem, t):
			continue
		}
		if u, ok := tc.types.Unify(elem, t); ok && hint == types.NoTypeID {
			elem = u
			continue
		}
		diag.ReportError(tc.rep(), diag.SemaTypeMismatch, tc.exprSpan(e),
			fmt.Sprintf("array element %d has type %s, expected %s", i, tc.label(t), tc.label(elem))).
			WithArgs(tc.label(t), tc.label(elem)).
			Emit()
	}
	switch tc.types.KindOf(elem) {
	case types.KindVoid:
		tc.reportVoid(span)
		return b.Unresolved
	case types.KindNothing:
		diag.ReportError(tc.rep(), diag.SemaTypeMismatch, span,
			"cannot infer the element type of an array of none").
			Emit()
		return b.Unresolved
	}
	if tc.types.IsUnresolved(elem) {
		return b.Unresolved
	}
	n, err := safecast.Conv[uint32](len(data.Elems))
	if err != nil || n > math.MaxInt32 {
		return b.Unresolved
	}
	return tc.types.Array(elem, n, elemConst)
}

func (tc *typeChecker) typeAssign(id ast.ExprID, span source.Span) types.TypeID {
	b := tc.types.Builtins()
	data, _ := tc.builder.Exprs.Assign(id)
	tt := tc.typeExpr(data.Target, types.NoTypeID)
	vt := tc.typeExpr(data.Value, tt)
	switch {
	case tc.types.IsUnresolved(tt) || tc.types.IsUnresolved(vt):
	case data.Compound:
		if tc.symbolic(tt) || tc.symbolic(vt) {
			break
		}
		if res, ok := tc.binaryResult(data.Op, tt, vt); !ok || !tc.types.Assignable(tt, res) {
			tc.reportBinary(span, data.Op, tt, vt)
		}
	case !tc.types.Assignable(tt, vt):
		diag.ReportError(tc.rep(), diag.SemaTypeMismatch, tc.exprSpan(data.Value),
			fmt.Sprintf("cannot assign a value of type %s to a location of type %s", tc.label(vt), tc.label(tt))).
			WithArgs(tc.label(vt), tc.label(tt)).
			Emit()
	}
	tc.checkMutation(data.Target, span)
	if !data.Compound {
		tc.rebindView(data.Target, data.Value)
	}
	return b.Void
}
