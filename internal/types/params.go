package types

import (
	"fmt"

	"fortio.org/safecast"

	"hydra/internal/source"
)

// ParamID identifies a generic placeholder.
type ParamID uint32

const NoParamID ParamID = 0

func (id ParamID) IsValid() bool { return id != NoParamID }

type ParamKind uint8

const (
	ParamSize ParamKind = iota
	ParamType
)

func (k ParamKind) String() string {
	if k == ParamType {
		return "type"
	}
	return "size"
}

// ParamInfo describes a placeholder. Owner is opaque to this package; the
// checker stores the declaring symbol there.
type ParamInfo struct {
	Name  source.StringID
	Kind  ParamKind
	Owner uint32
}

// NewParam allocates a placeholder and returns its id together with the
// matching placeholder type.
func (in *Interner) NewParam(name source.StringID, kind ParamKind, owner uint32) (ParamID, TypeID) {
	in.params = append(in.params, ParamInfo{Name: name, Kind: kind, Owner: owner})
	n, err := safecast.Conv[uint32](len(in.params) - 1)
	if err != nil {
		panic(fmt.Errorf("params overflow: %w", err))
	}
	id := ParamID(n)
	if kind == ParamType {
		return id, in.Intern(MakeGenericType(id))
	}
	return id, in.Intern(MakeGenericSize(id, 0))
}

// ParamInfo returns metadata for a placeholder.
func (in *Interner) ParamInfo(id ParamID) (ParamInfo, bool) {
	if !id.IsValid() || int(id) >= len(in.params) {
		return ParamInfo{}, false
	}
	return in.params[id], true
}
