package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"hydra/internal/source"
)

// Hints provide optional capacity suggestions for the symbol table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table aggregates symbol-related arenas and shared resources.
type Table struct {
	Scopes   *Scopes
	Symbols  *Symbols
	Strings  *source.Interner
	fileRoot map[source.FileID]ScopeID
}

// NewTable builds a fresh table with optional capacity hints.
// If strings is nil, a fresh interner is allocated.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Table{
		Scopes:   NewScopes(scopeCap),
		Symbols:  NewSymbols(symCap),
		Strings:  strings,
		fileRoot: make(map[source.FileID]ScopeID),
	}
}

// FileRoot returns (and creates if needed) a file-level scope for the given file.
func (t *Table) FileRoot(file source.FileID, span source.Span) ScopeID {
	if scope, ok := t.fileRoot[file]; ok {
		return scope
	}
	scope := t.Scopes.New(ScopeFile, NoScopeID, ScopeOwner{
		Kind:       ScopeOwnerFile,
		SourceFile: file,
	}, span)
	t.fileRoot[file] = scope
	return scope
}

// Name returns the text of a symbol name, or "" for invalid ids.
func (t *Table) Name(id SymbolID) string {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return ""
	}
	s, _ := t.Strings.Lookup(sym.Name)
	return s
}

// Resolve looks name up starting at scope and walking towards the file root.
// The innermost, most recent declaration wins.
func (t *Table) Resolve(scope ScopeID, name source.StringID) (SymbolID, bool) {
	for scope.IsValid() {
		s := t.Scopes.Get(scope)
		if s == nil {
			break
		}
		if ids := s.NameIndex[name]; len(ids) > 0 {
			return ids[len(ids)-1], true
		}
		scope = s.Parent
	}
	return NoSymbolID, false
}

// ResolutionKind tags the outcome of a lookup that may find several candidates.
type ResolutionKind uint8

const (
	ResolutionMissing ResolutionKind = iota
	ResolutionUnique
	ResolutionAmbiguous
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolutionUnique:
		return "unique"
	case ResolutionAmbiguous:
		return "ambiguous"
	default:
		return "missing"
	}
}

// Resolution is the result of call and qualified lookups. Symbol is set for
// ResolutionUnique; Candidates lists every match for ResolutionAmbiguous.
type Resolution struct {
	Kind       ResolutionKind
	Symbol     SymbolID
	Candidates []SymbolID
}

// Member finds a type-scoped function declared in the type scope of typeSym.
func (t *Table) Member(typeSym SymbolID, member source.StringID) (SymbolID, bool) {
	sym := t.Symbols.Get(typeSym)
	if sym == nil || !sym.TypeScope.IsValid() {
		return NoSymbolID, false
	}
	scope := t.Scopes.Get(sym.TypeScope)
	if scope == nil {
		return NoSymbolID, false
	}
	for _, id := range scope.NameIndex[member] {
		if s := t.Symbols.Get(id); s != nil && s.Kind == SymbolFunction {
			return id, true
		}
	}
	return NoSymbolID, false
}

// ResolveQualified resolves `typeName::member` as seen from scope.
func (t *Table) ResolveQualified(scope ScopeID, typeName, member source.StringID) Resolution {
	typeSym, ok := t.Resolve(scope, typeName)
	if !ok {
		return Resolution{Kind: ResolutionMissing}
	}
	if sym := t.Symbols.Get(typeSym); sym == nil || sym.Kind != SymbolType {
		return Resolution{Kind: ResolutionMissing}
	}
	fn, ok := t.Member(typeSym, member)
	if !ok {
		return Resolution{Kind: ResolutionMissing}
	}
	return Resolution{Kind: ResolutionUnique, Symbol: fn}
}

// ResolveCall collects every function named name visible from scope. A local
// non-function binding hides functions entirely. Functions from a type scope
// and the file scope with the same name are ambiguous.
func (t *Table) ResolveCall(scope ScopeID, name source.StringID) Resolution {
	var candidates []SymbolID
	for scope.IsValid() {
		s := t.Scopes.Get(scope)
		if s == nil {
			break
		}
		if ids := s.NameIndex[name]; len(ids) > 0 {
			id := ids[len(ids)-1]
			sym := t.Symbols.Get(id)
			if sym != nil && sym.Kind != SymbolFunction {
				if len(candidates) == 0 {
					return Resolution{Kind: ResolutionUnique, Symbol: id}
				}
				break
			}
			candidates = append(candidates, id)
		}
		scope = s.Parent
	}
	switch len(candidates) {
	case 0:
		return Resolution{Kind: ResolutionMissing}
	case 1:
		return Resolution{Kind: ResolutionUnique, Symbol: candidates[0]}
	default:
		return Resolution{Kind: ResolutionAmbiguous, Candidates: candidates}
	}
}
