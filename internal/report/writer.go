package report

import (
	"io"
	"strings"

	"github.com/nao1215/prodcheck/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Writer defines the interface for report output.
// Implementations write the result of one run in a particular format.
type Writer interface {
	// Write outputs the run to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.Run) (int, error)
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the run to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(run *model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// reportOf returns the run's report, building one from its defects when the
// run stopped before the report step.
func reportOf(run *model.Run) *model.Report {
	if run.Report != nil {
		return run.Report
	}
	return model.GenerateReport(run.Defects, len(run.Records))
}

// categoryTitle returns the display name of a category ("Missing Attributes").
func categoryTitle(c model.Category) string {
	title := cases.Title(language.English).String(c.Label())
	return strings.Replace(title, "Api ", "API ", 1)
}
