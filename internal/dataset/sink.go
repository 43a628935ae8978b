// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset writes extraction records to their destination and checks
// existing JSON-Lines datasets.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/invoice-dataset/pkg/types"
)

// Sink is the destination of extraction records.
type Sink interface {
	Write(rec types.ExtractionRecord) error
	Close() error
}

// NewSink returns the sink selected by kind. The jsonl sink appends to path;
// the console sink prints to w.
func NewSink(kind types.SinkKind, path string, w io.Writer) (Sink, error) {
	switch kind {
	case types.SinkJSONL, "":
		s, err := OpenJSONL(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case types.SinkConsole:
		return NewConsoleSink(w), nil
	default:
		return nil, fmt.Errorf("unsupported sink %q: use jsonl or console", kind)
	}
}

// JSONLSink appends one JSON object per record to a file. The file is never
// truncated, so reruns add lines after the existing ones.
type JSONLSink struct {
	f    *os.File
	path string
}

// OpenJSONL opens path for appending, creating it if absent.
func OpenJSONL(path string) (*JSONLSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", path, err)
	}
	return &JSONLSink{f: f, path: path}, nil
}

// Path returns the dataset file path.
func (s *JSONLSink) Path() string { return s.path }

// Write encodes rec as a single line and syncs it to disk before returning.
func (s *JSONLSink) Write(rec types.ExtractionRecord) error {
	line, err := EncodeLine(rec)
	if err != nil {
		return err
	}
	if _, err := s.f.Write(line); err != nil {
		return fmt.Errorf("appending to %s: %w", s.path, err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", s.path, err)
	}
	return nil
}

// Close closes the dataset file.
func (s *JSONLSink) Close() error {
	return s.f.Close()
}

// EncodeLine returns rec as one newline-terminated JSON object. HTML
// characters are left unescaped so markdown reads the same in the dataset.
func EncodeLine(rec types.ExtractionRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("encoding record %s: %w", rec.Source, err)
	}
	return buf.Bytes(), nil
}

// ConsoleSink prints each extraction instead of persisting it.
type ConsoleSink struct {
	w io.Writer
}

// NewConsoleSink returns a sink that prints to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Write(rec types.ExtractionRecord) error {
	_, err := fmt.Fprintf(s.w, "=== %s ===\nExtracted data: %s\n---\n\n", rec.Source, rec.Reply())
	return err
}

func (s *ConsoleSink) Close() error { return nil }
