package symbols

import "hydra/internal/ast"

// ScopeID identifies a scope in the resolver arena.
type ScopeID uint32

const (
	// NoScopeID marks the absence of a scope reference.
	NoScopeID ScopeID = 0
)

// IsValid reports whether the scope ID refers to an allocated scope.
func (id ScopeID) IsValid() bool { return id != NoScopeID }

// SymbolID identifies a symbol inside the resolver arena.
type SymbolID uint32

const (
	// NoSymbolID marks the absence of a symbol reference.
	NoSymbolID SymbolID = 0
)

// IsValid reports whether the symbol ID refers to an allocated symbol.
func (id SymbolID) IsValid() bool { return id != NoSymbolID }

// SizeRef addresses a size-parameter use inside a type expression: the array
// size of Type when Arg is -1, otherwise the Arg-th generic argument of a path.
type SizeRef struct {
	Type ast.TypeID
	Arg  int
}

// ArmRef addresses the binding pattern of one match arm.
type ArmRef struct {
	Match ast.ExprID
	Index int
}
