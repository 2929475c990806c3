package sema

import (
	"math"

	"hydra/internal/ast"
	"hydra/internal/symbols"
)

const maxFoldDepth = 16

// constInt folds id to an integer known at check time. symbolic reports an
// expression that depends on a size parameter still unbound in this body.
func (tc *typeChecker) constInt(id ast.ExprID) (v int64, ok, symbolic bool) {
	return tc.foldInt(id, 0)
}

func (tc *typeChecker) foldInt(id ast.ExprID, depth int) (int64, bool, bool) {
	if depth > maxFoldDepth {
		return 0, false, false
	}
	e := tc.builder.Exprs.Get(id)
	if e == nil {
		return 0, false, false
	}
	switch e.Kind {
	case ast.ExprLit:
		lit, _ := tc.builder.Exprs.Literal(id)
		if lit.Kind != ast.LitInt {
			return 0, false, false
		}
		u, ok := parseIntLiteral(tc.builder.NameOf(lit.Value))
		if !ok || u > math.MaxInt64 {
			return 0, false, false
		}
		return int64(u), true, false
	case ast.ExprUnary:
		un, _ := tc.builder.Exprs.Unary(id)
		if un.Op != ast.OpNeg {
			return 0, false, false
		}
		v, ok, sym := tc.foldInt(un.Operand, depth+1)
		return -v, ok, sym
	case ast.ExprCast:
		c, _ := tc.builder.Exprs.Cast(id)
		return tc.foldInt(c.Value, depth+1)
	case ast.ExprBinary:
		bin, _ := tc.builder.Exprs.Binary(id)
		l, lok, lsym := tc.foldInt(bin.Left, depth+1)
		r, rok, rsym := tc.foldInt(bin.Right, depth+1)
		if !lok || !rok {
			return 0, false, (lsym || lok) && (rsym || rok) && (lsym || rsym)
		}
		return foldBinary(bin.Op, l, r)
	case ast.ExprIdent:
		return tc.foldIdent(id, depth)
	}
	return 0, false, false
}

func foldBinary(op ast.ExprBinaryOp, l, r int64) (int64, bool, bool) {
	switch op {
	case ast.OpAdd:
		return l + r, true, false
	case ast.OpSub:
		return l - r, true, false
	case ast.OpMul:
		return l * r, true, false
	case ast.OpDiv:
		if r == 0 {
			return 0, false, false
		}
		return l / r, true, false
	case ast.OpMod:
		if r == 0 {
			return 0, false, false
		}
		return l % r, true, false
	}
	return 0, false, false
}

func (tc *typeChecker) foldIdent(id ast.ExprID, depth int) (int64, bool, bool) {
	sym, ok := tc.syms.ExprSymbols[id]
	if !ok {
		return 0, false, false
	}
	s := tc.symbol(sym)
	if s == nil {
		return 0, false, false
	}
	switch s.Kind {
	case symbols.SymbolGeneric:
		if s.Flags&symbols.SymbolFlagSizeParam == 0 {
			return 0, false, false
		}
		p, known := tc.params[sym]
		if !known {
			return 0, false, true
		}
		if tc.body != nil {
			if sv, bound := tc.body.subst.Size(p); bound && sv.IsConcrete() {
				return sv.Value, true, false
			}
		}
		return 0, false, true
	case symbols.SymbolLet:
		b := tc.lookupBinding(sym)
		if b == nil || b.Mutable || !b.Init.IsValid() {
			return 0, false, false
		}
		return tc.foldInt(b.Init, depth+1)
	}
	return 0, false, false
}

// sizeCond folds a condition of a specialized body once its sizes are bound.
// Branches it rules out are not checked for this specialization; the
// template check has already seen them.
func (tc *typeChecker) sizeCond(cond ast.ExprID) (taken, known bool) {
	if tc.body == nil || !tc.body.instance.IsValid() {
		return false, false
	}
	return tc.foldBool(cond, 0)
}

func (tc *typeChecker) foldBool(id ast.ExprID, depth int) (bool, bool) {
	if depth > maxFoldDepth {
		return false, false
	}
	e := tc.builder.Exprs.Get(id)
	if e == nil {
		return false, false
	}
	switch e.Kind {
	case ast.ExprLit:
		lit, _ := tc.builder.Exprs.Literal(id)
		if lit.Kind != ast.LitBool {
			return false, false
		}
		return tc.builder.NameOf(lit.Value) == "true", true
	case ast.ExprUnary:
		un, _ := tc.builder.Exprs.Unary(id)
		if un.Op != ast.OpNot {
			return false, false
		}
		inner, found := tc.foldBool(un.Operand, depth+1)
		return !inner, found
	case ast.ExprBinary:
		bin, _ := tc.builder.Exprs.Binary(id)
		switch {
		case bin.Op.IsLogical():
			l, lok := tc.foldBool(bin.Left, depth+1)
			if lok && l == (bin.Op == ast.OpOr) {
				return l, true
			}
			r, rok := tc.foldBool(bin.Right, depth+1)
			if !lok {
				// x && false, x || true
				if rok && r == (bin.Op == ast.OpOr) {
					return r, true
				}
				return false, false
			}
			return r, rok
		case bin.Op.IsComparison():
			l, lok, _ := tc.foldInt(bin.Left, depth+1)
			r, rok, _ := tc.foldInt(bin.Right, depth+1)
			if !lok || !rok {
				return false, false
			}
			return compareInts(bin.Op, l, r), true
		}
	}
	return false, false
}

func compareInts(op ast.ExprBinaryOp, l, r int64) bool {
	switch op {
	case ast.OpEq:
		return l == r
	case ast.OpNe:
		return l != r
	case ast.OpLt:
		return l < r
	case ast.OpLe:
		return l <= r
	case ast.OpGt:
		return l > r
	}
	return l >= r
}
