package types

import "math"

func (in *Interner) IsInteger(id TypeID) bool {
	k := in.KindOf(id)
	return k == KindInt || k == KindUint
}

func (in *Interner) IsSigned(id TypeID) bool {
	return in.KindOf(id) == KindInt
}

func (in *Interner) IsFloat(id TypeID) bool {
	return in.KindOf(id) == KindFloat
}

func (in *Interner) IsNumeric(id TypeID) bool {
	return in.IsInteger(id) || in.IsFloat(id)
}

// IntRange returns the inclusive bounds of an integer type. Pointer-sized
// integers are treated as 64-bit.
func (in *Interner) IntRange(id TypeID) (lo int64, hi uint64, ok bool) {
	tt, found := in.Lookup(id)
	if !found {
		return 0, 0, false
	}
	w := tt.Width
	if w == WidthAny {
		w = Width64
	}
	switch tt.Kind {
	case KindInt:
		if w == Width64 {
			return math.MinInt64, math.MaxInt64, true
		}
		half := int64(1) << (w - 1)
		return -half, uint64(half - 1), true
	case KindUint:
		if w == Width64 {
			return 0, math.MaxUint64, true
		}
		return 0, uint64(1)<<w - 1, true
	}
	return 0, 0, false
}

// ArrayLen returns the concrete length of an array type.
func (in *Interner) ArrayLen(id TypeID) (uint32, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindArray || tt.HasGenericSize() {
		return 0, false
	}
	return tt.Count, true
}
