// Package ast is the program tree the semantic core consumes.
//
// The tree is produced by an external parser and is assumed to be
// syntactically well formed. Nodes live in per-kind arenas addressed by
// 1-based ids (0 means "absent"); each node carries an opaque source.Span that
// the core passes through to diagnostics untouched.
//
// Generic surface syntax is not modelled: a function lists explicit
// GenericParams, and array sizes are SizeExpr values that either carry a
// literal or name a size parameter plus an offset (N, N-1). Names used as
// sizes in parameter types without a declaration become implicit size
// parameters during resolution.
//
// Snapshot / Restore flatten the arenas for interchange (see internal/treeio).
package ast
