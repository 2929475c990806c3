package types

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"hydra/internal/source"
)

// StructField describes a single field inside a nominal struct type.
type StructField struct {
	Name source.StringID
	Type TypeID
}

// StructInfo stores metadata for a struct type. A generic struct declaration
// lists its Params; an instance points at its Origin and carries one Arg per
// param (KindConst / KindGenericSize for sizes, any type otherwise).
type StructInfo struct {
	Name   source.StringID
	Decl   source.Span
	Fields []StructField
	Params []ParamID
	Origin TypeID
	Args   []TypeID

	fieldsSet bool
}

type instanceKey struct {
	origin TypeID
	args   string
}

// RegisterStruct allocates a nominal struct type slot and returns its TypeID.
func (in *Interner) RegisterStruct(name source.StringID, decl source.Span, params []ParamID) TypeID {
	slot := in.appendStructInfo(StructInfo{Name: name, Decl: decl, Params: slices.Clone(params)})
	return in.internRaw(Type{Kind: KindStruct, Payload: slot})
}

// SetStructFields stores the resolved field descriptors for the struct type.
func (in *Interner) SetStructFields(typeID TypeID, fields []StructField) {
	info := in.structInfo(typeID)
	if info == nil {
		return
	}
	info.Fields = slices.Clone(fields)
	info.fieldsSet = true
}

// StructInfo returns metadata for the provided struct TypeID.
func (in *Interner) StructInfo(typeID TypeID) (*StructInfo, bool) {
	info := in.structInfo(typeID)
	if info == nil {
		return nil, false
	}
	return info, true
}

// StructOrigin returns the declaring struct of an instance, or id itself.
func (in *Interner) StructOrigin(id TypeID) TypeID {
	info := in.structInfo(id)
	if info == nil || info.Origin == NoTypeID {
		return id
	}
	return info.Origin
}

// StructFields returns the fields of a struct or instance with arguments
// substituted.
func (in *Interner) StructFields(typeID TypeID) []StructField {
	info := in.structInfo(typeID)
	if info == nil {
		return nil
	}
	if info.Origin == NoTypeID || info.fieldsSet {
		return slices.Clone(info.Fields)
	}
	origin := in.structInfo(info.Origin)
	if origin == nil || !origin.fieldsSet {
		return nil
	}
	subst := in.StructSubst(typeID)
	fields := make([]StructField, len(origin.Fields))
	for i, f := range origin.Fields {
		ft, err := in.Apply(f.Type, subst)
		if err != nil {
			ft = in.builtins.Unresolved
		}
		fields[i] = StructField{Name: f.Name, Type: ft}
	}
	info = in.structInfo(typeID) // Apply may grow the slot table
	info.Fields = fields
	info.fieldsSet = true
	return slices.Clone(fields)
}

// Field looks a field up by name.
func (in *Interner) Field(typeID TypeID, name source.StringID) (StructField, int, bool) {
	for i, f := range in.StructFields(typeID) {
		if f.Name == name {
			return f, i, true
		}
	}
	return StructField{}, -1, false
}

// StructSubst maps the origin's params to the instance args.
func (in *Interner) StructSubst(instance TypeID) *Subst {
	info := in.structInfo(instance)
	if info == nil || info.Origin == NoTypeID {
		return nil
	}
	origin := in.structInfo(info.Origin)
	if origin == nil {
		return nil
	}
	s := NewSubst()
	for i, p := range origin.Params {
		if i >= len(info.Args) {
			break
		}
		in.bindArg(s, p, info.Args[i])
	}
	return s
}

func (in *Interner) bindArg(s *Subst, p ParamID, arg TypeID) {
	pi, _ := in.ParamInfo(p)
	if pi.Kind == ParamType {
		s.BindType(p, arg)
		return
	}
	tt, _ := in.Lookup(arg)
	switch tt.Kind {
	case KindConst:
		s.BindSize(p, SizeValue{Value: int64(tt.Count)})
	case KindGenericSize:
		s.BindSize(p, SizeValue{Param: tt.Param, Value: int64(tt.Offset)})
	}
}

// Instantiate returns the instance of a generic struct for args. Passing the
// struct's own placeholders returns the declaration itself.
func (in *Interner) Instantiate(origin TypeID, args []TypeID) TypeID {
	info := in.structInfo(origin)
	if info == nil || len(info.Params) == 0 {
		return origin
	}
	if info.Origin != NoTypeID {
		origin = info.Origin
		info = in.structInfo(origin)
	}
	if in.isIdentityArgs(info.Params, args) {
		return origin
	}
	key := instanceKey{origin: origin, args: in.argsKey(args)}
	if id, ok := in.instances[key]; ok {
		return id
	}
	slot := in.appendStructInfo(StructInfo{
		Name:   info.Name,
		Decl:   info.Decl,
		Origin: origin,
		Args:   slices.Clone(args),
	})
	id := in.internRaw(Type{Kind: KindStruct, Payload: slot})
	in.instances[key] = id
	return id
}

// StructArgs returns instance args; a generic declaration yields its own placeholders.
func (in *Interner) StructArgs(id TypeID) []TypeID {
	info := in.structInfo(id)
	if info == nil {
		return nil
	}
	if info.Origin != NoTypeID {
		return slices.Clone(info.Args)
	}
	out := make([]TypeID, 0, len(info.Params))
	for _, p := range info.Params {
		out = append(out, in.paramType(p))
	}
	return out
}

func (in *Interner) paramType(p ParamID) TypeID {
	pi, _ := in.ParamInfo(p)
	if pi.Kind == ParamType {
		return in.Intern(MakeGenericType(p))
	}
	return in.Intern(MakeGenericSize(p, 0))
}

func (in *Interner) isIdentityArgs(params []ParamID, args []TypeID) bool {
	if len(params) != len(args) {
		return false
	}
	for i, p := range params {
		if args[i] != in.paramType(p) {
			return false
		}
	}
	return true
}

func (in *Interner) argsKey(args []TypeID) string {
	var b strings.Builder
	for i, a := range args {
		if i > 0 {
			b.WriteByte('#')
		}
		b.WriteString(strconv.FormatUint(uint64(a), 10))
	}
	return b.String()
}

func (in *Interner) structInfo(typeID TypeID) *StructInfo {
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindStruct {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.structs) {
		return nil
	}
	return &in.structs[tt.Payload]
}

func (in *Interner) appendStructInfo(info StructInfo) uint32 {
	in.structs = append(in.structs, info)
	slot, err := safecast.Conv[uint32](len(in.structs) - 1)
	if err != nil {
		panic(fmt.Errorf("struct info overflow: %w", err))
	}
	return slot
}
