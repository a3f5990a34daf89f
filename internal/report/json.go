package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/prodcheck/internal/model"
)

// Default file names of the persisted results.
const (
	// DefaultLiveOutput receives the results of the live run.
	DefaultLiveOutput = "api_test_results.json"

	// DefaultSyntheticOutput receives the results of the synthetic run.
	DefaultSyntheticOutput = "synthetic_test_results.json"
)

// Document is the persisted form of a run.
type Document struct {
	// Report is the aggregated view of the run.
	Report *model.Report `json:"report"`

	// DetailedDefects lists every defect in validation order.
	DetailedDefects []model.Defect `json:"detailed_defects"`

	// TestData holds the validated records; only synthetic runs carry it.
	TestData []model.Record `json:"test_data,omitempty"`
}

// NewDocument builds the persisted form of run.
func NewDocument(run *model.Run) *Document {
	doc := &Document{
		Report:          reportOf(run),
		DetailedDefects: run.Defects,
	}
	if doc.DetailedDefects == nil {
		doc.DetailedDefects = []model.Defect{}
	}
	if run.Kind == model.RunKindSynthetic {
		doc.TestData = run.Records
	}
	return doc
}

// JSONWriter outputs runs in JSON format.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the persisted document of run.
func (w *JSONWriter) Write(run *model.Run) (int, error) {
	return w.writeJSON(NewDocument(run))
}

// writeJSON marshals v and writes it to the output with a trailing newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent {
		enc.SetIndent(w.indentPrefix, w.indentString)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}

// SaveFile writes the persisted document of run to path, creating parent
// directories as needed. The file is written with owner-only permissions.
func SaveFile(path string, run *model.Run) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(run); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write results to %s: %w", path, err)
	}
	return nil
}

// LoadFile reads a document written by SaveFile.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read results from %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode results from %s: %w", path, err)
	}
	return &doc, nil
}
