package ast

import (
	"slices"

	"hydra/internal/source"
)

// Snapshot is a flat copy of every arena, suitable for serialisation.
type Snapshot struct {
	Strings []string `msgpack:"strings" yaml:"strings"`

	Files []File `msgpack:"files" yaml:"files"`

	Items    []Item        `msgpack:"items" yaml:"items"`
	Fns      []FnItem      `msgpack:"fns,omitempty" yaml:"fns,omitempty"`
	Structs  []StructItem  `msgpack:"structs,omitempty" yaml:"structs,omitempty"`
	Typedefs []TypedefItem `msgpack:"typedefs,omitempty" yaml:"typedefs,omitempty"`
	Globals  []LetData     `msgpack:"globals,omitempty" yaml:"globals,omitempty"`

	Stmts     []Stmt         `msgpack:"stmts" yaml:"stmts"`
	Blocks    []BlockStmt    `msgpack:"blocks,omitempty" yaml:"blocks,omitempty"`
	Lets      []LetData      `msgpack:"lets,omitempty" yaml:"lets,omitempty"`
	ExprStmts []ExprStmt     `msgpack:"expr_stmts,omitempty" yaml:"expr_stmts,omitempty"`
	Returns   []ReturnStmt   `msgpack:"returns,omitempty" yaml:"returns,omitempty"`
	Ifs       []IfStmt       `msgpack:"ifs,omitempty" yaml:"ifs,omitempty"`
	Whiles    []WhileStmt    `msgpack:"whiles,omitempty" yaml:"whiles,omitempty"`
	ForRanges []ForRangeStmt `msgpack:"for_ranges,omitempty" yaml:"for_ranges,omitempty"`
	ForEachs  []ForEachStmt  `msgpack:"for_eachs,omitempty" yaml:"for_eachs,omitempty"`

	Exprs       []Expr               `msgpack:"exprs" yaml:"exprs"`
	Idents      []ExprIdentData      `msgpack:"idents,omitempty" yaml:"idents,omitempty"`
	Literals    []ExprLiteralData    `msgpack:"literals,omitempty" yaml:"literals,omitempty"`
	Binaries    []ExprBinaryData     `msgpack:"binaries,omitempty" yaml:"binaries,omitempty"`
	Unaries     []ExprUnaryData      `msgpack:"unaries,omitempty" yaml:"unaries,omitempty"`
	Calls       []ExprCallData       `msgpack:"calls,omitempty" yaml:"calls,omitempty"`
	StaticCalls []ExprStaticCallData `msgpack:"static_calls,omitempty" yaml:"static_calls,omitempty"`
	MethodCalls []ExprMethodCallData `msgpack:"method_calls,omitempty" yaml:"method_calls,omitempty"`
	StructLits  []ExprStructLitData  `msgpack:"struct_lits,omitempty" yaml:"struct_lits,omitempty"`
	ArrayLits   []ExprArrayLitData   `msgpack:"array_lits,omitempty" yaml:"array_lits,omitempty"`
	Fields      []ExprFieldData      `msgpack:"fields,omitempty" yaml:"fields,omitempty"`
	Indices     []ExprIndexData      `msgpack:"indices,omitempty" yaml:"indices,omitempty"`
	Slices      []ExprSliceData      `msgpack:"slices,omitempty" yaml:"slices,omitempty"`
	Casts       []ExprCastData       `msgpack:"casts,omitempty" yaml:"casts,omitempty"`
	Matches     []ExprMatchData      `msgpack:"matches,omitempty" yaml:"matches,omitempty"`
	Assigns     []ExprAssignData     `msgpack:"assigns,omitempty" yaml:"assigns,omitempty"`

	TypeExprs  []TypeExpr      `msgpack:"type_exprs" yaml:"type_exprs"`
	TypePaths  []TypePathData  `msgpack:"type_paths,omitempty" yaml:"type_paths,omitempty"`
	TypeArrays []TypeArrayData `msgpack:"type_arrays,omitempty" yaml:"type_arrays,omitempty"`
	TypeWraps  []TypeWrapData  `msgpack:"type_wraps,omitempty" yaml:"type_wraps,omitempty"`
	TypeFns    []TypeFnData    `msgpack:"type_fns,omitempty" yaml:"type_fns,omitempty"`
}

// Snapshot copies the builder's arenas. The result does not alias the builder.
func (b *Builder) Snapshot() *Snapshot {
	return &Snapshot{
		Strings: b.StringsInterner.Snapshot(),
		Files:   slices.Clone(b.Files.Arena.Slice()),

		Items:    slices.Clone(b.Items.Arena.Slice()),
		Fns:      slices.Clone(b.Items.Fns.Slice()),
		Structs:  slices.Clone(b.Items.Structs.Slice()),
		Typedefs: slices.Clone(b.Items.Typedefs.Slice()),
		Globals:  slices.Clone(b.Items.Lets.Slice()),

		Stmts:     slices.Clone(b.Stmts.Arena.Slice()),
		Blocks:    slices.Clone(b.Stmts.Blocks.Slice()),
		Lets:      slices.Clone(b.Stmts.Lets.Slice()),
		ExprStmts: slices.Clone(b.Stmts.Exprs.Slice()),
		Returns:   slices.Clone(b.Stmts.Returns.Slice()),
		Ifs:       slices.Clone(b.Stmts.Ifs.Slice()),
		Whiles:    slices.Clone(b.Stmts.Whiles.Slice()),
		ForRanges: slices.Clone(b.Stmts.ForRanges.Slice()),
		ForEachs:  slices.Clone(b.Stmts.ForEachs.Slice()),

		Exprs:       slices.Clone(b.Exprs.Arena.Slice()),
		Idents:      slices.Clone(b.Exprs.Idents.Slice()),
		Literals:    slices.Clone(b.Exprs.Literals.Slice()),
		Binaries:    slices.Clone(b.Exprs.Binaries.Slice()),
		Unaries:     slices.Clone(b.Exprs.Unaries.Slice()),
		Calls:       slices.Clone(b.Exprs.Calls.Slice()),
		StaticCalls: slices.Clone(b.Exprs.StaticCalls.Slice()),
		MethodCalls: slices.Clone(b.Exprs.MethodCalls.Slice()),
		StructLits:  slices.Clone(b.Exprs.StructLits.Slice()),
		ArrayLits:   slices.Clone(b.Exprs.ArrayLits.Slice()),
		Fields:      slices.Clone(b.Exprs.Fields.Slice()),
		Indices:     slices.Clone(b.Exprs.Indices.Slice()),
		Slices:      slices.Clone(b.Exprs.Slices.Slice()),
		Casts:       slices.Clone(b.Exprs.Casts.Slice()),
		Matches:     slices.Clone(b.Exprs.Matches.Slice()),
		Assigns:     slices.Clone(b.Exprs.Assigns.Slice()),

		TypeExprs:  slices.Clone(b.Types.Arena.Slice()),
		TypePaths:  slices.Clone(b.Types.Paths.Slice()),
		TypeArrays: slices.Clone(b.Types.Arrays.Slice()),
		TypeWraps:  slices.Clone(b.Types.Wraps.Slice()),
		TypeFns:    slices.Clone(b.Types.Fns.Slice()),
	}
}

// Restore rebuilds a builder from a snapshot. The snapshot must not be reused.
func Restore(s *Snapshot) *Builder {
	return &Builder{
		Files: &Files{Arena: arenaFrom(s.Files)},
		Items: &Items{
			Arena:    arenaFrom(s.Items),
			Fns:      arenaFrom(s.Fns),
			Structs:  arenaFrom(s.Structs),
			Typedefs: arenaFrom(s.Typedefs),
			Lets:     arenaFrom(s.Globals),
		},
		Stmts: &Stmts{
			Arena:     arenaFrom(s.Stmts),
			Blocks:    arenaFrom(s.Blocks),
			Lets:      arenaFrom(s.Lets),
			Exprs:     arenaFrom(s.ExprStmts),
			Returns:   arenaFrom(s.Returns),
			Ifs:       arenaFrom(s.Ifs),
			Whiles:    arenaFrom(s.Whiles),
			ForRanges: arenaFrom(s.ForRanges),
			ForEachs:  arenaFrom(s.ForEachs),
		},
		Exprs: &Exprs{
			Arena:       arenaFrom(s.Exprs),
			Idents:      arenaFrom(s.Idents),
			Literals:    arenaFrom(s.Literals),
			Binaries:    arenaFrom(s.Binaries),
			Unaries:     arenaFrom(s.Unaries),
			Calls:       arenaFrom(s.Calls),
			StaticCalls: arenaFrom(s.StaticCalls),
			MethodCalls: arenaFrom(s.MethodCalls),
			StructLits:  arenaFrom(s.StructLits),
			ArrayLits:   arenaFrom(s.ArrayLits),
			Fields:      arenaFrom(s.Fields),
			Indices:     arenaFrom(s.Indices),
			Slices:      arenaFrom(s.Slices),
			Casts:       arenaFrom(s.Casts),
			Matches:     arenaFrom(s.Matches),
			Assigns:     arenaFrom(s.Assigns),
		},
		Types: &TypeExprs{
			Arena:  arenaFrom(s.TypeExprs),
			Paths:  arenaFrom(s.TypePaths),
			Arrays: arenaFrom(s.TypeArrays),
			Wraps:  arenaFrom(s.TypeWraps),
			Fns:    arenaFrom(s.TypeFns),
		},
		StringsInterner: source.NewInternerFrom(s.Strings),
	}
}
