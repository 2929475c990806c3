package types

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch is returned by Match when argument and parameter differ structurally.
	ErrShapeMismatch = errors.New("argument does not match parameter shape")
	// ErrConflictingBinding is returned by Match when a placeholder receives two different values.
	ErrConflictingBinding = errors.New("conflicting placeholder binding")
)

// IsUnresolved reports whether id is missing or poisoned.
func (in *Interner) IsUnresolved(id TypeID) bool {
	k := in.KindOf(id)
	return k == KindUnresolved || k == KindInvalid
}

// SameIgnoringConst compares two types treating array element constness as
// irrelevant: copying an array never aliases its storage.
func (in *Interner) SameIgnoringConst(a, b TypeID) bool {
	if a == b {
		return true
	}
	ta, okA := in.Lookup(a)
	tb, okB := in.Lookup(b)
	if !okA || !okB || ta.Kind != KindArray || tb.Kind != KindArray {
		return false
	}
	if ta.Count != tb.Count || ta.Param != tb.Param || ta.Offset != tb.Offset {
		return false
	}
	return in.SameIgnoringConst(ta.Elem, tb.Elem)
}

// Assignable reports whether a value of type src may initialise a location of type dst.
func (in *Interner) Assignable(dst, src TypeID) bool {
	if dst == src || in.IsUnresolved(dst) || in.IsUnresolved(src) {
		return true
	}
	if in.SameIgnoringConst(dst, src) {
		return true
	}
	td, _ := in.Lookup(dst)
	if td.Kind == KindOptional {
		if in.KindOf(src) == KindNothing {
			return true
		}
		return in.Assignable(td.Elem, src) && in.KindOf(src) != KindOptional
	}
	return false
}

// Unify computes the common type of a and b. none unifies with T into T?.
func (in *Interner) Unify(a, b TypeID) (TypeID, bool) {
	switch {
	case a == b:
		return a, true
	case in.IsUnresolved(a):
		return b, true
	case in.IsUnresolved(b):
		return a, true
	case in.SameIgnoringConst(a, b):
		return a, true
	}
	ka, kb := in.KindOf(a), in.KindOf(b)
	switch {
	case ka == KindNothing:
		if kb == KindVoid {
			return NoTypeID, false
		}
		return in.Optional(b), true
	case kb == KindNothing:
		if ka == KindVoid {
			return NoTypeID, false
		}
		return in.Optional(a), true
	case ka == KindOptional && in.Assignable(a, b):
		return a, true
	case kb == KindOptional && in.Assignable(b, a):
		return b, true
	}
	return NoTypeID, false
}

// Match binds the placeholders of param against the concrete or symbolic
// arg. It only records bindings; callers check Assignable on the substituted
// parameter afterwards.
func (in *Interner) Match(param, arg TypeID, s *Subst) error {
	if !in.IsGeneric(param) || in.IsUnresolved(arg) {
		return nil
	}
	tp, _ := in.Lookup(param)
	ta, _ := in.Lookup(arg)
	switch tp.Kind {
	case KindGenericType:
		if ta.Kind == KindNothing || ta.Kind == KindVoid {
			return nil
		}
		if prev, ok := s.Type(tp.Param); ok {
			if prev == arg || in.SameIgnoringConst(prev, arg) {
				return nil
			}
			if u, ok := in.Unify(prev, arg); ok && u == prev {
				return nil
			}
			return fmt.Errorf("%w: %s vs %s", ErrConflictingBinding, Label(in, prev), Label(in, arg))
		}
		s.BindType(tp.Param, arg)
		return nil
	case KindGenericSize:
		switch ta.Kind {
		case KindConst:
			return in.bindSize(s, tp.Param, SizeValue{Value: int64(ta.Count) - int64(tp.Offset)})
		case KindGenericSize:
			return in.bindSize(s, tp.Param, SizeValue{Param: ta.Param, Value: int64(ta.Offset) - int64(tp.Offset)})
		}
		return ErrShapeMismatch
	case KindArray:
		if ta.Kind != KindArray {
			return ErrShapeMismatch
		}
		if tp.HasGenericSize() {
			var v SizeValue
			if ta.HasGenericSize() {
				v = SizeValue{Param: ta.Param, Value: int64(ta.Offset) - int64(tp.Offset)}
			} else {
				v = SizeValue{Value: int64(ta.Count) - int64(tp.Offset)}
			}
			if err := in.bindSize(s, tp.Param, v); err != nil {
				return err
			}
		}
		return in.Match(tp.Elem, ta.Elem, s)
	case KindOptional:
		if ta.Kind == KindNothing {
			return nil
		}
		if ta.Kind == KindOptional {
			return in.Match(tp.Elem, ta.Elem, s)
		}
		return in.Match(tp.Elem, arg, s)
	case KindHeap:
		if ta.Kind != KindHeap {
			return ErrShapeMismatch
		}
		return in.Match(tp.Elem, ta.Elem, s)
	case KindFn:
		pi, _ := in.FnInfo(param)
		ai, ok := in.FnInfo(arg)
		if !ok || len(pi.Params) != len(ai.Params) {
			return ErrShapeMismatch
		}
		for i := range pi.Params {
			if err := in.Match(pi.Params[i], ai.Params[i], s); err != nil {
				return err
			}
		}
		return in.Match(pi.Result, ai.Result, s)
	case KindStruct:
		if ta.Kind != KindStruct || in.StructOrigin(param) != in.StructOrigin(arg) {
			return ErrShapeMismatch
		}
		pargs, aargs := in.StructArgs(param), in.StructArgs(arg)
		if len(pargs) != len(aargs) {
			return ErrShapeMismatch
		}
		for i := range pargs {
			if err := in.Match(pargs[i], aargs[i], s); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func (in *Interner) bindSize(s *Subst, p ParamID, v SizeValue) error {
	if v.IsConcrete() && v.Value < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeSize, v.Value)
	}
	if prev, ok := s.Size(p); ok {
		if prev != v {
			return fmt.Errorf("%w: size %s vs %s", ErrConflictingBinding, in.sizeLabel(prev), in.sizeLabel(v))
		}
		return nil
	}
	s.BindSize(p, v)
	return nil
}
