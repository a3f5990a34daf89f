package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nao1215/prodcheck/internal/model"
)

// ruleWidth is the width of the report's horizontal rules.
const ruleWidth = 50

var (
	passColor = lipgloss.Color("#22C55E")
	failColor = lipgloss.Color("#EF4444")
	dimColor  = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().Bold(true)
	passStyle  = lipgloss.NewStyle().Foreground(passColor)
	failStyle  = lipgloss.NewStyle().Foreground(failColor).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(dimColor)
)

// SimpleWriter outputs the console view of a run: progress lines while the
// records are checked, followed by the test report.
type SimpleWriter struct {
	baseWriter

	// styled enables terminal colors and emphasis.
	styled bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithStyle enables colored output. Plain text is written by default so the
// output can be piped and compared.
func WithStyle(styled bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.styled = styled
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the progress lines and the report of run.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	n, err := w.WriteProgress(run)
	if err != nil {
		return n, err
	}
	m, err := w.WriteReport(reportOf(run))
	return n + m, err
}

// WriteProgress outputs the response check and one line per record.
func (w *SimpleWriter) WriteProgress(run *model.Run) (int, error) {
	var sb strings.Builder

	if run.ResponseChecked {
		sb.WriteString(fmt.Sprintf("Starting API Testing for %s\n\n", run.Source))
		sb.WriteString("Test 1: Checking API response...\n")
		verdict := w.render(passStyle, "PASS")
		if !run.ResponseValid {
			verdict = w.render(failStyle, "FAIL")
		}
		sb.WriteString(fmt.Sprintf("Response Code: %d - %s\n\n", run.StatusCode, verdict))
		sb.WriteString("Test 2: Validating product data...\n")
	}

	if len(run.Results) == 0 {
		sb.WriteString("No products to validate\n")
	}
	for _, r := range run.Results {
		if r.OK() {
			sb.WriteString(fmt.Sprintf("Product %s: %s\n", r.Label, w.render(passStyle, "OK")))
			continue
		}
		sb.WriteString(fmt.Sprintf("Product %s: %s\n", r.Label, w.render(failStyle, "DEFECTS FOUND")))
		for _, d := range r.Defects {
			sb.WriteString(fmt.Sprintf("  - %s\n", d.Message))
		}
	}

	return io.WriteString(w.output, sb.String())
}

// WriteReport outputs the test report.
func (w *SimpleWriter) WriteReport(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb)
	w.writeSummary(&sb, report)
	w.writeProducts(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) rule() string {
	return w.render(dimStyle, strings.Repeat("=", ruleWidth))
}

// writeHeader writes the report banner.
func (w *SimpleWriter) writeHeader(sb *strings.Builder) {
	sb.WriteString("\n")
	sb.WriteString(w.rule())
	sb.WriteString("\n")
	sb.WriteString(w.render(titleStyle, "TEST REPORT"))
	sb.WriteString("\n")
	sb.WriteString(w.rule())
	sb.WriteString("\n")
}

// writeSummary writes the totals and the per-category counts.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.Report) {
	sb.WriteString(fmt.Sprintf("Total Products Tested: %d\n", report.TotalProducts))
	sb.WriteString(fmt.Sprintf("Total Defects Found: %d\n", report.TotalDefects))
	sb.WriteString("\nDefect Summary:\n")
	for _, c := range model.Categories() {
		sb.WriteString(fmt.Sprintf("  - %s: %d\n", categoryTitle(c), report.Summary.Count(c)))
	}
}

// writeProducts lists every defective product in first-seen order.
func (w *SimpleWriter) writeProducts(sb *strings.Builder, report *model.Report) {
	if !report.HasDefectiveProducts() {
		sb.WriteString("\n")
		sb.WriteString(w.render(passStyle, "No defective products found!"))
		sb.WriteString("\n")
		return
	}

	sb.WriteString(fmt.Sprintf("\nDefective Products (%d):\n", report.DefectiveProducts.Len()))
	for _, p := range report.DefectiveProducts.All() {
		sb.WriteString(fmt.Sprintf("\nProduct ID: %s\n", p.ID.String()))
		sb.WriteString(fmt.Sprintf("Title: %s\n", p.Title))
		sb.WriteString("Defects:\n")
		for _, d := range p.Defects {
			sb.WriteString(fmt.Sprintf("  - %s\n", d))
		}
	}
}

// writeFooter writes the closing rule.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString("\n")
	sb.WriteString(w.rule())
	sb.WriteString("\n")
}

func (w *SimpleWriter) render(style lipgloss.Style, s string) string {
	if !w.styled {
		return s
	}
	return style.Render(s)
}
