package symbols

import "hydra/internal/types"

// builtinPreludeEntries returns the primitive type names exposed to every file.
func builtinPreludeEntries() []PreludeEntry {
	names := types.PrimitiveNames()
	entries := make([]PreludeEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, PreludeEntry{Name: name, Kind: SymbolType, Flags: SymbolFlagBuiltin})
	}
	return entries
}

// mergePrelude combines default builtins with user provided entries.
func mergePrelude(custom []PreludeEntry) []PreludeEntry {
	defaults := builtinPreludeEntries()
	if len(custom) == 0 {
		return defaults
	}
	result := make([]PreludeEntry, 0, len(defaults)+len(custom))
	result = append(result, defaults...)
	result = append(result, custom...)
	return result
}
