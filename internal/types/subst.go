package types

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
)

// ErrNegativeSize is returned when a substituted array size drops below zero.
var ErrNegativeSize = errors.New("negative array size")

// SizeValue is a bound size: Value alone when Param is empty, otherwise
// value(Param)+Value. The symbolic form appears while checking generic bodies.
type SizeValue struct {
	Param ParamID
	Value int64
}

func (v SizeValue) IsConcrete() bool { return v.Param == NoParamID }

// Subst maps placeholders to sizes and types.
type Subst struct {
	Sizes map[ParamID]SizeValue
	Types map[ParamID]TypeID
}

func NewSubst() *Subst {
	return &Subst{
		Sizes: make(map[ParamID]SizeValue),
		Types: make(map[ParamID]TypeID),
	}
}

func (s *Subst) Empty() bool {
	return s == nil || (len(s.Sizes) == 0 && len(s.Types) == 0)
}

func (s *Subst) BindSize(p ParamID, v SizeValue) {
	s.Sizes[p] = v
}

func (s *Subst) BindType(p ParamID, t TypeID) {
	s.Types[p] = t
}

func (s *Subst) Size(p ParamID) (SizeValue, bool) {
	if s == nil {
		return SizeValue{}, false
	}
	v, ok := s.Sizes[p]
	return v, ok
}

func (s *Subst) Type(p ParamID) (TypeID, bool) {
	if s == nil {
		return NoTypeID, false
	}
	t, ok := s.Types[p]
	return t, ok
}

// Clone returns an independent copy.
func (s *Subst) Clone() *Subst {
	if s == nil {
		return NewSubst()
	}
	return &Subst{Sizes: maps.Clone(s.Sizes), Types: maps.Clone(s.Types)}
}

// Apply substitutes bound placeholders inside id. Unbound placeholders stay.
func (in *Interner) Apply(id TypeID, s *Subst) (TypeID, error) {
	if s.Empty() || !in.IsGeneric(id) {
		return id, nil
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return id, nil
	}
	switch tt.Kind {
	case KindGenericType:
		if bound, ok := s.Type(tt.Param); ok {
			return bound, nil
		}
		return id, nil
	case KindGenericSize:
		v, ok := s.Size(tt.Param)
		if !ok {
			return id, nil
		}
		v.Value += int64(tt.Offset)
		if !v.IsConcrete() {
			return in.Intern(MakeGenericSize(v.Param, clampOffset(v.Value))), nil
		}
		n, err := sizeToCount(v.Value)
		if err != nil {
			return NoTypeID, err
		}
		return in.Intern(MakeConst(n)), nil
	case KindArray:
		elem, err := in.Apply(tt.Elem, s)
		if err != nil {
			return NoTypeID, err
		}
		if !tt.HasGenericSize() {
			return in.Intern(MakeArray(elem, tt.Count, tt.ElemConst)), nil
		}
		v, ok := s.Size(tt.Param)
		if !ok {
			return in.Intern(MakeGenericArray(elem, tt.Param, tt.Offset, tt.ElemConst)), nil
		}
		v.Value += int64(tt.Offset)
		if !v.IsConcrete() {
			return in.Intern(MakeGenericArray(elem, v.Param, clampOffset(v.Value), tt.ElemConst)), nil
		}
		n, err := sizeToCount(v.Value)
		if err != nil {
			return NoTypeID, err
		}
		return in.Intern(MakeArray(elem, n, tt.ElemConst)), nil
	case KindOptional:
		elem, err := in.Apply(tt.Elem, s)
		if err != nil {
			return NoTypeID, err
		}
		return in.Optional(elem), nil
	case KindHeap:
		elem, err := in.Apply(tt.Elem, s)
		if err != nil {
			return NoTypeID, err
		}
		return in.Heap(elem), nil
	case KindFn:
		info, _ := in.FnInfo(id)
		params := make([]TypeID, len(info.Params))
		for i, p := range info.Params {
			np, err := in.Apply(p, s)
			if err != nil {
				return NoTypeID, err
			}
			params[i] = np
		}
		result, err := in.Apply(info.Result, s)
		if err != nil {
			return NoTypeID, err
		}
		return in.RegisterFn(params, result), nil
	case KindStruct:
		args := in.StructArgs(id)
		for i, a := range args {
			na, err := in.Apply(a, s)
			if err != nil {
				return NoTypeID, err
			}
			args[i] = na
		}
		return in.Instantiate(id, args), nil
	}
	return id, nil
}

func sizeToCount(v int64) (uint32, error) {
	if v < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeSize, v)
	}
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("array size %d overflows", v)
	}
	return uint32(v), nil
}

func clampOffset(v int64) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

// IsGeneric reports whether id mentions any placeholder.
func (in *Interner) IsGeneric(id TypeID) bool {
	found := false
	in.walkParams(id, func(ParamID) { found = true }, 0)
	return found
}

// Params collects the placeholders mentioned by id in first-seen order.
func (in *Interner) Params(id TypeID) []ParamID {
	var out []ParamID
	in.walkParams(id, func(p ParamID) {
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}, 0)
	return out
}

func (in *Interner) walkParams(id TypeID, visit func(ParamID), depth int) {
	if depth > 64 {
		return
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return
	}
	switch tt.Kind {
	case KindGenericType, KindGenericSize:
		visit(tt.Param)
	case KindArray:
		if tt.HasGenericSize() {
			visit(tt.Param)
		}
		in.walkParams(tt.Elem, visit, depth+1)
	case KindOptional, KindHeap:
		in.walkParams(tt.Elem, visit, depth+1)
	case KindFn:
		info, _ := in.FnInfo(id)
		for _, p := range info.Params {
			in.walkParams(p, visit, depth+1)
		}
		in.walkParams(info.Result, visit, depth+1)
	case KindStruct:
		for _, a := range in.StructArgs(id) {
			in.walkParams(a, visit, depth+1)
		}
	}
}
