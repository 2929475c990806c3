package symbols

import (
	"hydra/internal/ast"
	"hydra/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeFile               // module-level declarations of one file plus the prelude
	ScopeStruct             // type scope: generics and type-scoped functions
	ScopeFunction           // generics, params and top-level body bindings
	ScopeBlock              // nested block
	ScopeLoop               // loop body, holds the loop variable
	ScopeMatchArm           // binding pattern of a single arm
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeFile:
		return "file"
	case ScopeStruct:
		return "struct"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	case ScopeLoop:
		return "loop"
	case ScopeMatchArm:
		return "match-arm"
	default:
		return "invalid"
	}
}

// ScopeOwnerKind distinguishes what AST element owns a scope.
type ScopeOwnerKind uint8

const (
	ScopeOwnerUnknown ScopeOwnerKind = iota
	ScopeOwnerFile
	ScopeOwnerItem
	ScopeOwnerStmt
	ScopeOwnerExpr
)

// ScopeOwner references an AST construct associated with the scope.
type ScopeOwner struct {
	Kind       ScopeOwnerKind
	SourceFile source.FileID
	ASTFile    ast.FileID
	Item       ast.ItemID
	Stmt       ast.StmtID
	Expr       ast.ExprID
}

// Scope models a lexical scope with a parent-child hierarchy.
type Scope struct {
	Kind      ScopeKind
	Parent    ScopeID
	Owner     ScopeOwner
	Span      source.Span
	NameIndex map[source.StringID][]SymbolID
	Symbols   []SymbolID
	Children  []ScopeID
}

// IsLoop reports whether the scope or one of its ancestors up to the
// enclosing function is a loop scope.
func (t *Table) IsLoop(id ScopeID) bool {
	for id.IsValid() {
		scope := t.Scopes.Get(id)
		if scope == nil {
			return false
		}
		switch scope.Kind {
		case ScopeLoop:
			return true
		case ScopeFunction, ScopeStruct, ScopeFile:
			return false
		}
		id = scope.Parent
	}
	return false
}
