// Package trace records what the analyzer is doing: driver runs, checker
// phases and per-function work such as body checks and specializations.
//
// A Tracer receives span begin/end and point events. Verbosity is a Level;
// every event carries a Scope and is dropped when the level does not cover
// that scope:
//
//	off < error < phase (driver, pass) < detail (+function) < debug (+node)
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, t)
//	span, ctx := trace.Start(ctx, trace.ScopePass, "check_bodies")
//	defer span.End("")
//
// StreamTracer writes text or NDJSON as events arrive, RingTracer keeps the
// last events in memory for tests and crash dumps, MultiTracer fans out.
package trace
