package ast

import (
	"hydra/internal/source"
)

type ItemKind uint8

const (
	ItemFn ItemKind = iota
	ItemStruct
	ItemTypedef
	ItemLet
)

func (k ItemKind) String() string {
	switch k {
	case ItemFn:
		return "fn"
	case ItemStruct:
		return "struct"
	case ItemTypedef:
		return "typedef"
	case ItemLet:
		return "let"
	}
	return "invalid"
}

type Item struct {
	Kind    ItemKind    `msgpack:"kind" yaml:"kind"`
	Span    source.Span `msgpack:"span" yaml:"span"`
	Payload PayloadID   `msgpack:"payload" yaml:"payload"`
}

type GenericKind uint8

const (
	GenericSize GenericKind = iota // compile-time array size
	GenericType                    // type parameter
)

// GenericParam is an explicitly declared placeholder. Size placeholders used in
// parameter types without a declaration are discovered by the resolver.
type GenericParam struct {
	Name source.StringID `msgpack:"name" yaml:"name"`
	Kind GenericKind     `msgpack:"kind" yaml:"kind"`
	Span source.Span     `msgpack:"span" yaml:"span"`
}

type FnParam struct {
	Name    source.StringID `msgpack:"name" yaml:"name"`
	Type    TypeID          `msgpack:"type,omitempty" yaml:"type,omitempty"` // NoTypeID только у self
	Mutable bool            `msgpack:"mutable,omitempty" yaml:"mutable,omitempty"`
	Span    source.Span     `msgpack:"span" yaml:"span"`
}

type FnItem struct {
	Name     source.StringID `msgpack:"name" yaml:"name"`
	NameSpan source.Span     `msgpack:"name_span" yaml:"name_span"`
	Generics []GenericParam  `msgpack:"generics,omitempty" yaml:"generics,omitempty"`
	Params   []FnParam       `msgpack:"params,omitempty" yaml:"params,omitempty"`
	Result   TypeID          `msgpack:"result,omitempty" yaml:"result,omitempty"` // NoTypeID -> void
	Body     StmtID          `msgpack:"body,omitempty" yaml:"body,omitempty"`
	Owner    ItemID          `msgpack:"owner,omitempty" yaml:"owner,omitempty"` // struct for type-scoped functions
}

type StructField struct {
	Name source.StringID `msgpack:"name" yaml:"name"`
	Type TypeID          `msgpack:"type" yaml:"type"`
	Span source.Span     `msgpack:"span" yaml:"span"`
}

type StructItem struct {
	Name     source.StringID `msgpack:"name" yaml:"name"`
	NameSpan source.Span     `msgpack:"name_span" yaml:"name_span"`
	Generics []GenericParam  `msgpack:"generics,omitempty" yaml:"generics,omitempty"`
	Fields   []StructField   `msgpack:"fields,omitempty" yaml:"fields,omitempty"`
	Methods  []ItemID        `msgpack:"methods,omitempty" yaml:"methods,omitempty"`
}

type TypedefItem struct {
	Name     source.StringID `msgpack:"name" yaml:"name"`
	NameSpan source.Span     `msgpack:"name_span" yaml:"name_span"`
	Target   TypeID          `msgpack:"target" yaml:"target"`
}

// LetData is shared by module-level and local bindings. Mutable is false for const.
type LetData struct {
	Name     source.StringID `msgpack:"name" yaml:"name"`
	NameSpan source.Span     `msgpack:"name_span" yaml:"name_span"`
	Mutable  bool            `msgpack:"mutable,omitempty" yaml:"mutable,omitempty"`
	Type     TypeID          `msgpack:"type,omitempty" yaml:"type,omitempty"` // NoTypeID if type is inferred
	Value    ExprID          `msgpack:"value,omitempty" yaml:"value,omitempty"`
}

type Items struct {
	Arena    *Arena[Item]
	Fns      *Arena[FnItem]
	Structs  *Arena[StructItem]
	Typedefs *Arena[TypedefItem]
	Lets     *Arena[LetData]
}

// NewItems creates Items with per-kind arenas; capHint 0 means 1<<7.
func NewItems(capHint uint) *Items {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &Items{
		Arena:    NewArena[Item](capHint),
		Fns:      NewArena[FnItem](capHint),
		Structs:  NewArena[StructItem](capHint),
		Typedefs: NewArena[TypedefItem](capHint),
		Lets:     NewArena[LetData](capHint),
	}
}

func (i *Items) New(kind ItemKind, span source.Span, payloadID PayloadID) ItemID {
	return ItemID(i.Arena.Allocate(Item{
		Kind:    kind,
		Span:    span,
		Payload: payloadID,
	}))
}

func (i *Items) Get(id ItemID) *Item {
	return i.Arena.Get(uint32(id))
}

func (i *Items) NewFn(span source.Span, fn FnItem) ItemID {
	return i.New(ItemFn, span, PayloadID(i.Fns.Allocate(fn)))
}

func (i *Items) NewStruct(span source.Span, st StructItem) ItemID {
	return i.New(ItemStruct, span, PayloadID(i.Structs.Allocate(st)))
}

func (i *Items) NewTypedef(span source.Span, td TypedefItem) ItemID {
	return i.New(ItemTypedef, span, PayloadID(i.Typedefs.Allocate(td)))
}

func (i *Items) NewLet(span source.Span, let LetData) ItemID {
	return i.New(ItemLet, span, PayloadID(i.Lets.Allocate(let)))
}

func (i *Items) Fn(id ItemID) (*FnItem, bool) {
	item := i.Get(id)
	if item == nil || item.Kind != ItemFn {
		return nil, false
	}
	return i.Fns.Get(uint32(item.Payload)), true
}

func (i *Items) Struct(id ItemID) (*StructItem, bool) {
	item := i.Get(id)
	if item == nil || item.Kind != ItemStruct {
		return nil, false
	}
	return i.Structs.Get(uint32(item.Payload)), true
}

func (i *Items) Typedef(id ItemID) (*TypedefItem, bool) {
	item := i.Get(id)
	if item == nil || item.Kind != ItemTypedef {
		return nil, false
	}
	return i.Typedefs.Get(uint32(item.Payload)), true
}

func (i *Items) Let(id ItemID) (*LetData, bool) {
	item := i.Get(id)
	if item == nil || item.Kind != ItemLet {
		return nil, false
	}
	return i.Lets.Get(uint32(item.Payload)), true
}
