package ast

import (
	"hydra/internal/source"
)

// File is one compilation unit handed over by the parser.
type File struct {
	Span  source.Span `msgpack:"span" yaml:"span"`
	Items []ItemID    `msgpack:"items" yaml:"items"`
}

type Files struct {
	Arena *Arena[File]
}

func NewFiles(capHint uint) *Files {
	return &Files{
		Arena: NewArena[File](capHint),
	}
}

func (f *Files) New(sp source.Span) FileID {
	return FileID(f.Arena.Allocate(File{
		Span:  sp,
		Items: make([]ItemID, 0),
	}))
}

func (f *Files) Get(id FileID) *File {
	return f.Arena.Get(uint32(id))
}
