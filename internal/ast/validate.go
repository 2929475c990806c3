package ast

import (
	"errors"
	"fmt"
)

// ErrMalformedTree is wrapped by every Validate failure.
var ErrMalformedTree = errors.New("malformed program tree")

// Validate checks that every payload and child reference stays inside its
// arena. Decoded trees must pass it before analysis.
func (b *Builder) Validate() error {
	for idx, f := range b.Files.Arena.Slice() {
		for _, it := range f.Items {
			if b.Items.Get(it) == nil {
				return fmt.Errorf("%w: file %d refers to missing item %d", ErrMalformedTree, idx+1, it)
			}
		}
	}
	for idx, it := range b.Items.Arena.Slice() {
		var n uint32
		switch it.Kind {
		case ItemFn:
			n = b.Items.Fns.Len()
		case ItemStruct:
			n = b.Items.Structs.Len()
		case ItemTypedef:
			n = b.Items.Typedefs.Len()
		case ItemLet:
			n = b.Items.Lets.Len()
		default:
			return fmt.Errorf("%w: item %d has unknown kind %d", ErrMalformedTree, idx+1, it.Kind)
		}
		if err := checkPayload("item", idx, it.Payload, n); err != nil {
			return err
		}
	}
	for idx, st := range b.Stmts.Arena.Slice() {
		var n uint32
		switch st.Kind {
		case StmtBlock:
			n = b.Stmts.Blocks.Len()
		case StmtLet:
			n = b.Stmts.Lets.Len()
		case StmtExpr:
			n = b.Stmts.Exprs.Len()
		case StmtReturn:
			n = b.Stmts.Returns.Len()
		case StmtIf:
			n = b.Stmts.Ifs.Len()
		case StmtWhile:
			n = b.Stmts.Whiles.Len()
		case StmtForRange:
			n = b.Stmts.ForRanges.Len()
		case StmtForEach:
			n = b.Stmts.ForEachs.Len()
		case StmtBreak, StmtSkip:
			continue
		default:
			return fmt.Errorf("%w: stmt %d has unknown kind %d", ErrMalformedTree, idx+1, st.Kind)
		}
		if err := checkPayload("stmt", idx, st.Payload, n); err != nil {
			return err
		}
	}
	for idx, ex := range b.Exprs.Arena.Slice() {
		if err := checkPayload("expr", idx, ex.Payload, b.exprArenaLen(ex.Kind)); err != nil {
			return err
		}
	}
	for idx, te := range b.Types.Arena.Slice() {
		var n uint32
		switch te.Kind {
		case TypeExprPath:
			n = b.Types.Paths.Len()
		case TypeExprArray:
			n = b.Types.Arrays.Len()
		case TypeExprHeap, TypeExprOptional:
			n = b.Types.Wraps.Len()
		case TypeExprFn:
			n = b.Types.Fns.Len()
		default:
			return fmt.Errorf("%w: type %d has unknown kind %d", ErrMalformedTree, idx+1, te.Kind)
		}
		if err := checkPayload("type", idx, te.Payload, n); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) exprArenaLen(kind ExprKind) uint32 {
	switch kind {
	case ExprIdent:
		return b.Exprs.Idents.Len()
	case ExprLit:
		return b.Exprs.Literals.Len()
	case ExprBinary:
		return b.Exprs.Binaries.Len()
	case ExprUnary:
		return b.Exprs.Unaries.Len()
	case ExprCall:
		return b.Exprs.Calls.Len()
	case ExprStaticCall:
		return b.Exprs.StaticCalls.Len()
	case ExprMethodCall:
		return b.Exprs.MethodCalls.Len()
	case ExprStructLit:
		return b.Exprs.StructLits.Len()
	case ExprArrayLit:
		return b.Exprs.ArrayLits.Len()
	case ExprField:
		return b.Exprs.Fields.Len()
	case ExprIndex:
		return b.Exprs.Indices.Len()
	case ExprSlice:
		return b.Exprs.Slices.Len()
	case ExprCast:
		return b.Exprs.Casts.Len()
	case ExprMatch:
		return b.Exprs.Matches.Len()
	case ExprAssign:
		return b.Exprs.Assigns.Len()
	}
	return 0
}

func checkPayload(what string, idx int, payload PayloadID, n uint32) error {
	if !payload.IsValid() || uint32(payload) > n {
		return fmt.Errorf("%w: %s %d has payload %d outside [1,%d]", ErrMalformedTree, what, idx+1, payload, n)
	}
	return nil
}
