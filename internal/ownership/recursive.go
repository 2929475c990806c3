package ownership

import (
	"fmt"
	"slices"
	"strings"

	"hydra/internal/types"
)

// CycleError reports a struct that contains itself by value and therefore has
// no finite size.
type CycleError struct {
	Type  types.TypeID
	Cycle []types.TypeID
}

func (e *CycleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Cycle) == 0 {
		return fmt.Sprintf("recursive value type has infinite size (type#%d)", e.Type)
	}
	parts := make([]string, 0, len(e.Cycle))
	for _, id := range e.Cycle {
		parts = append(parts, fmt.Sprintf("type#%d", id))
	}
	return fmt.Sprintf("recursive value type has infinite size (cycle: %s)", strings.Join(parts, " -> "))
}

type walkState struct {
	stack []types.TypeID
	index map[types.TypeID]int
}

// CheckFinite follows by-value containment from id. Heap wrappers and empty
// arrays break the chain.
func (c *Classifier) CheckFinite(id types.TypeID) *CycleError {
	return c.finiteWalk(id, &walkState{index: make(map[types.TypeID]int, 16)})
}

func (c *Classifier) finiteWalk(id types.TypeID, st *walkState) *CycleError {
	if c.finite[id] {
		return nil
	}
	if idx, ok := st.index[id]; ok {
		cycle := append(slices.Clone(st.stack[idx:]), id)
		return &CycleError{Type: id, Cycle: cycle}
	}
	st.index[id] = len(st.stack)
	st.stack = append(st.stack, id)
	var err *CycleError
	for _, next := range c.byValue(id) {
		if err = c.finiteWalk(next, st); err != nil {
			break
		}
	}
	st.stack = st.stack[:len(st.stack)-1]
	delete(st.index, id)
	if err == nil {
		c.finite[id] = true
	}
	return err
}

func (c *Classifier) byValue(t types.TypeID) []types.TypeID {
	tt, ok := c.Types.Lookup(t)
	if !ok {
		return nil
	}
	switch tt.Kind {
	case types.KindArray:
		if !tt.HasGenericSize() && tt.Count == 0 {
			return nil
		}
		return []types.TypeID{tt.Elem}
	case types.KindOptional, types.KindStruct:
		return c.components(t)
	}
	return nil
}
