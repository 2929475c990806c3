package mono

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"hydra/internal/symbols"
	"hydra/internal/types"
)

// Namer renders symbols and types for dumps.
type Namer struct {
	Symbol func(symbols.SymbolID) string
	Type   func(types.TypeID) string
}

func (n Namer) symbol(id symbols.SymbolID) string {
	if n.Symbol == nil {
		return fmt.Sprintf("sym#%d", id)
	}
	return n.Symbol(id)
}

func (n Namer) typ(id types.TypeID) string {
	if n.Type == nil {
		return fmt.Sprintf("type#%d", id)
	}
	return n.Type(id)
}

// Signature renders fn<sizes, types> for one instance.
func (n Namer) Signature(inst *Instance) string {
	args := make([]string, 0, len(inst.Sizes)+len(inst.Types))
	for _, s := range inst.Sizes {
		args = append(args, strconv.FormatInt(s, 10))
	}
	for _, t := range inst.Types {
		args = append(args, n.typ(t))
	}
	return n.symbol(inst.Fn) + "<" + strings.Join(args, ", ") + ">"
}

// Dump writes a stable, human-readable listing of every specialization,
// sorted by function then arguments.
func Dump(w io.Writer, e *Engine, n Namer) error {
	if e == nil {
		_, err := fmt.Fprintln(w, "<nil>")
		return err
	}
	insts := e.Instances()
	slices.SortFunc(insts, func(a, b *Instance) int {
		if c := cmp.Compare(n.symbol(a.Fn), n.symbol(b.Fn)); c != 0 {
			return c
		}
		if c := slices.Compare(a.Sizes, b.Sizes); c != 0 {
			return c
		}
		if c := slices.Compare(a.Types, b.Types); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	for _, inst := range insts {
		if _, err := fmt.Fprintf(w, "fn %s  state=%s depth=%d uses=%d\n", n.Signature(inst), inst.State, inst.Depth, len(inst.Sites)); err != nil {
			return err
		}
		for _, site := range inst.Sites {
			caller := "<toplevel>"
			if site.Caller.IsValid() {
				caller = n.symbol(site.Caller)
			}
			if _, err := fmt.Fprintf(w, "  - at %d:%d-%d caller=%s\n", site.Span.File, site.Span.Start, site.Span.End, caller); err != nil {
				return err
			}
		}
	}
	return nil
}
