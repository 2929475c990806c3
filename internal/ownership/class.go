package ownership

// Class is the storage class of a value.
type Class uint8

const (
	// Stack values are released when their scope ends.
	Stack Class = iota
	// Heap values are reference counted.
	Heap
)

func (c Class) String() string {
	if c == Heap {
		return "heap"
	}
	return "stack"
}

// Join returns Heap if either side is Heap.
func (c Class) Join(other Class) Class {
	if c == Heap || other == Heap {
		return Heap
	}
	return Stack
}
