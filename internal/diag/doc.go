// Package diag defines the diagnostic model shared by the analysis phases.
//
// Diagnostic is the central record: Severity, a numeric Code with a stable
// string ID (SEM3230 and so on), a message, the primary span, the names and
// types the message mentions (Args), optional notes pointing at related
// declarations, and optional fix suggestions made of text edits.
//
// Every Code maps to a coarse Category (name resolution, type mismatch,
// mutability violation, slice range, generic parameter, match coverage) so
// consumers can filter without knowing individual codes.
//
// Phases emit through a Reporter. ReportBuilder chains WithNote / WithArgs /
// WithFix before Emit. BagReporter stores into a Bag, DedupReporter drops
// repeated findings (a generic body checked both as a template and as a
// specialization reports the same error twice), LockedReporter guards a
// reporter shared by concurrent units.
//
// The package performs no IO. FormatShort is the only renderer and produces
// one line per diagnostic for the CLI and tests.
package diag
