package ast

type ExprBinaryOp uint8

const (
	OpAdd ExprBinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
)

var binaryOpText = [...]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpAnd: "&&", OpOr: "||",
	OpBitAnd: "&", OpBitOr: "|", OpBitXor: "^", OpShl: "<<", OpShr: ">>",
}

func (op ExprBinaryOp) String() string {
	if int(op) < len(binaryOpText) {
		return binaryOpText[op]
	}
	return "?"
}

func (op ExprBinaryOp) IsComparison() bool {
	return op >= OpEq && op <= OpGe
}

func (op ExprBinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

func (op ExprBinaryOp) IsBitwise() bool {
	return op >= OpBitAnd && op <= OpShr
}

type ExprUnaryOp uint8

const (
	OpNot ExprUnaryOp = iota
	OpNeg
	OpPreInc
	OpPreDec
	OpPostInc
	OpPostDec
)

func (op ExprUnaryOp) String() string {
	switch op {
	case OpNot:
		return "!"
	case OpNeg:
		return "-"
	case OpPreInc, OpPostInc:
		return "++"
	case OpPreDec, OpPostDec:
		return "--"
	}
	return "?"
}

// Mutates reports whether the operator writes its operand back.
func (op ExprUnaryOp) Mutates() bool {
	return op >= OpPreInc
}
