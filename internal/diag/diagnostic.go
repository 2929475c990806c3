package diag

import (
	"hydra/internal/source"
)

type Note struct {
	Span source.Span `msgpack:"span" yaml:"span"`
	Msg  string      `msgpack:"msg" yaml:"msg"`
}

type FixEdit struct {
	Span    source.Span `msgpack:"span" yaml:"span"`
	NewText string      `msgpack:"new_text" yaml:"new_text"`
}

type Fix struct {
	Title string    `msgpack:"title" yaml:"title"`
	Edits []FixEdit `msgpack:"edits" yaml:"edits"`
}

// Diagnostic is a single finding of an analysis phase. Args carries the
// names and types the message mentions, in the order they appear.
type Diagnostic struct {
	Severity Severity    `msgpack:"severity" yaml:"severity"`
	Code     Code        `msgpack:"code" yaml:"code"`
	Message  string      `msgpack:"message" yaml:"message"`
	Primary  source.Span `msgpack:"primary" yaml:"primary"`
	Args     []string    `msgpack:"args,omitempty" yaml:"args,omitempty"`
	Notes    []Note      `msgpack:"notes,omitempty" yaml:"notes,omitempty"`
	Fixes    []Fix       `msgpack:"fixes,omitempty" yaml:"fixes,omitempty"`
}

func (d Diagnostic) Category() Category {
	return d.Code.Category()
}
