// Package mono keeps the specialization table of generic functions.
//
// A generic function is checked once symbolically (Template). Each call with
// concrete arguments requests a specialization keyed by the function and its
// ordered size and type arguments; a miss registers a Pending instance and
// enqueues it. The checker drains the queue after the current body, re-checks
// the body under the instance substitution and marks it Specialized. Calls
// issued from the drained body may enqueue further instances; recursive
// chains that never shrink their sizes are rejected.
package mono
