package symbols

import (
	"hydra/internal/ast"
	"hydra/internal/source"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolFunction
	SymbolLet
	SymbolParam
	SymbolType
	SymbolGeneric
)

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint16

const (
	SymbolFlagMutable SymbolFlags = 1 << iota
	SymbolFlagBuiltin
	SymbolFlagGlobal
	SymbolFlagStruct    // SymbolType declared by a struct item
	SymbolFlagTypedef   // SymbolType declared by a typedef item
	SymbolFlagMethod    // function with a self receiver
	SymbolFlagSelf      // the self parameter
	SymbolFlagSizeParam // SymbolGeneric standing for an array size
	SymbolFlagImplicit  // size placeholder discovered in a signature
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolFunction:
		return "function"
	case SymbolLet:
		return "let"
	case SymbolParam:
		return "param"
	case SymbolType:
		return "type"
	case SymbolGeneric:
		return "generic"
	default:
		return "invalid"
	}
}

var flagLabels = [...]struct {
	flag  SymbolFlags
	label string
}{
	{SymbolFlagMutable, "mutable"},
	{SymbolFlagBuiltin, "builtin"},
	{SymbolFlagGlobal, "global"},
	{SymbolFlagStruct, "struct"},
	{SymbolFlagTypedef, "typedef"},
	{SymbolFlagMethod, "method"},
	{SymbolFlagSelf, "self"},
	{SymbolFlagSizeParam, "size"},
	{SymbolFlagImplicit, "implicit"},
}

// Strings returns a slice of textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	for _, fl := range flagLabels {
		if f&fl.flag != 0 {
			labels = append(labels, fl.label)
		}
	}
	return labels
}

// SymbolDecl focuses on the AST origin for diagnostics.
type SymbolDecl struct {
	SourceFile source.FileID
	ASTFile    ast.FileID
	Item       ast.ItemID
	Stmt       ast.StmtID
	Expr       ast.ExprID
	Index      int // position among params or generics
}

// Symbol describes a named entity available in a scope.
type Symbol struct {
	Name      source.StringID
	Kind      SymbolKind
	Scope     ScopeID
	Span      source.Span
	Flags     SymbolFlags
	Decl      SymbolDecl
	Owner     SymbolID // struct of a type-scoped function, declarer of a generic
	TypeScope ScopeID  // type scope of a struct
}

// Mutable reports whether the binding may be assigned.
func (s *Symbol) Mutable() bool { return s.Flags&SymbolFlagMutable != 0 }
