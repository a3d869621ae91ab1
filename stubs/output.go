package stubs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// DefaultOutputFile is where the download command writes by default
const DefaultOutputFile = "type_stubs.json"

// SerializeOptions controls document rendering
type SerializeOptions struct {
	Indent bool
}

// Serialize renders the document as JSON. Absent descriptions are kept as
// explicit nulls.
func Serialize(doc *Document, opts SerializeOptions) ([]byte, error) {
	out := NewDocument()
	if doc != nil {
		if doc.ObjectTypes != nil {
			out.ObjectTypes = doc.ObjectTypes
		}
		if doc.Collections != nil {
			out.Collections = doc.Collections
		}
	}

	var (
		data []byte
		err  error
	)
	if opts.Indent {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// Generate builds the document from src, serializes it and hands it to sink.
// Nothing reaches the sink unless both steps succeed.
func Generate(ctx context.Context, src Source, sink Sink, variant Arguments, opts SerializeOptions) (*Document, error) {
	doc, err := Build(ctx, src, variant)
	if err != nil {
		return nil, err
	}

	data, err := Serialize(doc, opts)
	if err != nil {
		return nil, err
	}

	if err := sink.Write(ctx, data); err != nil {
		return nil, err
	}
	return doc, nil
}

// FileSink replaces a file with the written content
type FileSink struct {
	Path string
}

// NewFileSink creates a sink writing to path
func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path}
}

// Write stages data in a temp file next to the target and renames it into
// place, so a failed write leaves the previous file untouched.
func (s *FileSink) Write(_ context.Context, data []byte) error {
	dir := filepath.Dir(s.Path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return &WriteError{Path: s.Path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &WriteError{Path: s.Path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Path: s.Path, Err: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return &WriteError{Path: s.Path, Err: err}
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return &WriteError{Path: s.Path, Err: err}
	}

	slog.Info("wrote type stubs", "path", s.Path, "bytes", len(data))
	return nil
}

// WriterSink writes to an arbitrary writer such as stdout
type WriterSink struct {
	Name string
	W    io.Writer
}

func (s *WriterSink) Write(_ context.Context, data []byte) error {
	if _, err := s.W.Write(data); err != nil {
		return &WriteError{Path: s.Name, Err: err}
	}
	return nil
}
