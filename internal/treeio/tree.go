package treeio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"hydra/internal/ast"
)

// SchemaVersion is bumped whenever Document or ResultDocument change shape.
const SchemaVersion uint16 = 1

// ErrSchema is returned for documents written by another schema version.
var ErrSchema = errors.New("unsupported document schema")

type Format uint8

const (
	FormatMsgpack Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "msgpack"
}

// FormatFor picks the format from a file extension: .yaml and .yml are YAML,
// everything else is msgpack.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatMsgpack
}

// Document is one compilation unit: the parser's arenas and the file to check.
type Document struct {
	Schema uint16        `msgpack:"schema" yaml:"schema"`
	Unit   string        `msgpack:"unit" yaml:"unit"`
	File   ast.FileID    `msgpack:"file" yaml:"file"`
	Tree   *ast.Snapshot `msgpack:"tree" yaml:"tree"`
}

func NewDocument(unit string, b *ast.Builder, file ast.FileID) *Document {
	return &Document{
		Schema: SchemaVersion,
		Unit:   unit,
		File:   file,
		Tree:   b.Snapshot(),
	}
}

// Builder restores the arenas and checks that the tree is well formed.
func (d *Document) Builder() (*ast.Builder, ast.FileID, error) {
	if d.Schema != SchemaVersion {
		return nil, ast.NoFileID, fmt.Errorf("%s: %w: %d (want %d)", d.Unit, ErrSchema, d.Schema, SchemaVersion)
	}
	if d.Tree == nil {
		return nil, ast.NoFileID, fmt.Errorf("%s: %w: missing tree", d.Unit, ast.ErrMalformedTree)
	}
	b := ast.Restore(d.Tree)
	d.Tree = nil // Restore takes ownership of the slices
	if b.Files.Get(d.File) == nil {
		return nil, ast.NoFileID, fmt.Errorf("%s: %w: file %d not in tree", d.Unit, ast.ErrMalformedTree, d.File)
	}
	if err := b.Validate(); err != nil {
		return nil, ast.NoFileID, fmt.Errorf("%s: %w", d.Unit, err)
	}
	return b, d.File, nil
}

func encode(w io.Writer, v any, f Format) error {
	if f == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return msgpack.NewEncoder(w).Encode(v)
}

func decode(r io.Reader, v any, f Format) error {
	if f == FormatYAML {
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return errors.New("empty document")
			}
			return err
		}
		return nil
	}
	return msgpack.NewDecoder(r).Decode(v)
}

func Encode(w io.Writer, doc *Document, f Format) error {
	if err := encode(w, doc, f); err != nil {
		return fmt.Errorf("encode %s: %w", doc.Unit, err)
	}
	return nil
}

func Decode(r io.Reader, f Format) (*Document, error) {
	var doc Document
	if err := decode(r, &doc, f); err != nil {
		return nil, fmt.Errorf("decode %s tree: %w", f, err)
	}
	return &doc, nil
}

// ReadFile decodes the document at path. An empty Unit is replaced by the
// path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := Decode(f, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.Unit == "" {
		doc.Unit = path
	}
	return doc, nil
}

// WriteFile encodes v next to path and renames it into place.
func WriteFile(path string, v any) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".hydra-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, v, FormatFor(path)); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	// атомарная замена
	return os.Rename(tmp.Name(), path)
}
