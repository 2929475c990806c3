package mono

import (
	"slices"

	"hydra/internal/source"
	"hydra/internal/symbols"
	"hydra/internal/types"
)

// InstanceID identifies a specialization in registration order, starting at 1.
type InstanceID uint32

// NoInstanceID marks a call issued from a non-generic body.
const NoInstanceID InstanceID = 0

func (id InstanceID) IsValid() bool { return id != NoInstanceID }

// State is the lifecycle of a generic function body.
type State uint8

const (
	// Template: signature mentions placeholders, body checked only symbolically.
	Template State = iota
	// Pending: registered and queued, body not yet checked for these arguments.
	Pending
	// Specialized: body checked under the substitution.
	Specialized
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Specialized:
		return "specialized"
	default:
		return "template"
	}
}

// Instance is one specialization of a generic function.
type Instance struct {
	ID     InstanceID
	Key    Key
	Fn     symbols.SymbolID
	Sizes  []int64
	Types  []types.TypeID
	Subst  *types.Subst
	State  State
	Parent InstanceID
	Depth  int
	Sites  []UseSite
}

func (inst *Instance) clone() *Instance {
	out := *inst
	out.Sizes = slices.Clone(inst.Sizes)
	out.Types = slices.Clone(inst.Types)
	out.Sites = slices.Clone(inst.Sites)
	return &out
}

func (inst *Instance) addSite(site UseSite) {
	if site.Span == (source.Span{}) {
		return
	}
	if slices.Contains(inst.Sites, site) {
		return
	}
	inst.Sites = append(inst.Sites, site)
}
