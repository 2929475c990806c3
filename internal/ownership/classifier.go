package ownership

import (
	"hydra/internal/types"
)

// Classifier assigns a storage class to every type. Results are memoized per
// TypeID; a struct is classified together with its dependency closure so
// mutually recursive structs settle in one fixpoint run.
type Classifier struct {
	Types *types.Interner

	memo      map[types.TypeID]Class
	settled   settledSet
	heapCtors map[types.TypeID]struct{}
	finite    map[types.TypeID]bool
}

// New creates a classifier bound to the interner.
func New(typesIn *types.Interner) *Classifier {
	return &Classifier{
		Types:     typesIn,
		memo:      make(map[types.TypeID]Class, 64),
		heapCtors: make(map[types.TypeID]struct{}),
		finite:    make(map[types.TypeID]bool),
	}
}

// MarkHeapConstructed records that a type-scoped function of the struct
// returns it heap-wrapped. Instances share the mark of their declaration.
func (c *Classifier) MarkHeapConstructed(structType types.TypeID) {
	origin := c.Types.StructOrigin(structType)
	if _, ok := c.heapCtors[origin]; ok {
		return
	}
	c.heapCtors[origin] = struct{}{}
	// уже посчитанные классы могли измениться
	c.settled.reset()
	clear(c.memo)
}

// HeapConstructed reports whether the struct (or its declaration) was marked.
func (c *Classifier) HeapConstructed(structType types.TypeID) bool {
	_, ok := c.heapCtors[c.Types.StructOrigin(structType)]
	return ok
}

// Classify returns the class of id.
func (c *Classifier) Classify(id types.TypeID) Class {
	if c.settled.has(id) {
		return c.memo[id]
	}
	closure := c.closure(id)
	for _, t := range closure {
		c.memo[t] = c.seed(t)
	}
	for changed := true; changed; {
		changed = false
		for _, t := range closure {
			if c.memo[t] == Heap {
				continue
			}
			if c.derive(t) == Heap {
				c.memo[t] = Heap
				changed = true
			}
		}
	}
	for _, t := range closure {
		c.settled.add(t)
	}
	return c.memo[id]
}

// closure lists id and every unsettled type its class depends on.
func (c *Classifier) closure(id types.TypeID) []types.TypeID {
	var out []types.TypeID
	seen := make(map[types.TypeID]struct{})
	stack := []types.TypeID{id}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[t]; ok || c.settled.has(t) {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		stack = append(stack, c.components(t)...)
	}
	return out
}

// components are the types whose class flows into t. A heap wrapper is heap
// on its own, so its element is not a component.
func (c *Classifier) components(t types.TypeID) []types.TypeID {
	tt, ok := c.Types.Lookup(t)
	if !ok {
		return nil
	}
	switch tt.Kind {
	case types.KindArray, types.KindOptional:
		return []types.TypeID{tt.Elem}
	case types.KindStruct:
		fields := c.Types.StructFields(t)
		out := make([]types.TypeID, 0, len(fields))
		for _, f := range fields {
			out = append(out, f.Type)
		}
		return out
	}
	return nil
}

func (c *Classifier) seed(t types.TypeID) Class {
	switch c.Types.KindOf(t) {
	case types.KindHeap:
		return Heap
	case types.KindStruct:
		if c.HeapConstructed(t) {
			return Heap
		}
	}
	return Stack
}

func (c *Classifier) derive(t types.TypeID) Class {
	class := Stack
	for _, comp := range c.components(t) {
		class = class.Join(c.memo[comp])
	}
	return class
}
