// Package sema is the semantic core of the hydra front end. It consumes a
// resolved tree (see package symbols) and computes for every expression a
// type, a storage class and, for generic code, the concrete specialization it
// runs in. Mutability of bindings, array elements and slice views is enforced
// here, as is match exhaustiveness.
//
// Check runs the phases in a fixed order:
//
//	register   struct and typedef declarations, recursive-struct detection
//	signatures function headers, generic placeholders, heap constructors
//	globals    module-level bindings
//	bodies     concrete bodies, then generic templates in symbolic form
//	specialize drains the mono engine, checking each instance body
//	ownership  storage class of every checked expression
//
// Diagnostics go through the reporter in Options; Check itself never fails.
package sema
