package ownership

import "hydra/internal/types"

// settledSet marks TypeIDs whose class is final. The interner keeps growing
// while specializations are produced, so the set grows on demand.
type settledSet []uint64

func (s settledSet) has(id types.TypeID) bool {
	word := int(id / 64)
	if word >= len(s) {
		return false
	}
	return s[word]&(1<<(id%64)) != 0
}

func (s *settledSet) add(id types.TypeID) {
	word := int(id / 64)
	for word >= len(*s) {
		*s = append(*s, 0)
	}
	(*s)[word] |= 1 << (id % 64)
}

func (s *settledSet) reset() {
	clear(*s)
}
