// Package ownership classifies types into stack-released and reference-counted
// heap storage and detects structs that contain themselves by value.
package ownership
