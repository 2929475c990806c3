package mono

import (
	"strconv"
	"strings"

	"hydra/internal/source"
	"hydra/internal/symbols"
	"hydra/internal/types"
)

// Key identifies one specialization: a generic function plus its ordered
// size and type arguments.
//
// Note: Go maps cannot use slices as keys, so the arguments are folded into a
// stable Args string. The arguments themselves live on the Instance.
type Key struct {
	Fn   symbols.SymbolID
	Args string
}

// KeyOf builds the cache key of fn specialized with sizes and typeArgs.
func KeyOf(fn symbols.SymbolID, sizes []int64, typeArgs []types.TypeID) Key {
	var b strings.Builder
	for i, s := range sizes {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(s, 10))
	}
	b.WriteByte('|')
	for i, t := range typeArgs {
		if i > 0 {
			b.WriteByte('#')
		}
		b.WriteString(strconv.FormatUint(uint64(t), 10))
	}
	return Key{Fn: fn, Args: b.String()}
}

// UseSite records a call that requested a specialization.
type UseSite struct {
	Span   source.Span
	Caller symbols.SymbolID
	From   InstanceID // specialization whose body issued the call
}

// DeferredCall is a generic call met while checking a generic body whose
// arguments still mention the caller's own placeholders. It is resolved when
// the caller itself is specialized.
type DeferredCall struct {
	Caller symbols.SymbolID
	Callee symbols.SymbolID
	Site   source.Span
}
