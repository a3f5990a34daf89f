package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/prodcheck/internal/model"
)

// MarkdownWriter outputs runs in Markdown format for sharing, for example
// as a CI job summary.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)
	report := reportOf(run)

	w.writeHeader(md, run, report)
	w.writeSummary(md, report)
	w.writeProducts(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run, report *model.Report) {
	md.H1("Product Catalog Test Report")
	md.PlainText("")

	rows := [][]string{
		{"Run ID", "`" + run.ID + "`"},
		{"Kind", string(run.Kind)},
		{"Source", run.Source},
		{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Duration", run.Duration.Round(time.Millisecond).String()},
	}
	if run.ResponseChecked {
		rows = append(rows, []string{"Response Code", w.statusText(run)})
	}
	if run.PayloadDigest != "" {
		rows = append(rows, []string{"Payload SHA3-256", "`" + shortDigest(run.PayloadDigest) + "`"})
	}
	rows = append(rows,
		[]string{"Products Tested", strconv.Itoa(report.TotalProducts)},
		[]string{"Defects Found", strconv.Itoa(report.TotalDefects)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// statusText returns the response code with its verdict.
func (w *MarkdownWriter) statusText(run *model.Run) string {
	if run.ResponseValid {
		return fmt.Sprintf("✅ %d", run.StatusCode)
	}
	if run.FetchError != "" {
		return fmt.Sprintf("❌ %d (%s)", run.StatusCode, run.FetchError)
	}
	return fmt.Sprintf("❌ %d", run.StatusCode)
}

// writeSummary writes the category table, chart and verdict.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.Report) {
	md.H2("Defect Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(model.Categories())+1)
	for _, c := range model.Categories() {
		rows = append(rows, []string{categoryTitle(c), strconv.Itoa(report.Summary.Count(c))})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(report.TotalDefects) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Category", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.TotalDefects > 0 {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of the category distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.Report) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Defect Category Distribution"),
		piechart.WithShowData(true),
	)

	for _, c := range model.Categories() {
		if n := report.Summary.Count(c); n > 0 {
			chart.LabelAndIntValue(categoryTitle(c), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the outcome of the run.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.Report) {
	switch {
	case report.Summary.APIResponseErrors > 0:
		md.Cautionf(
			"The catalog API did not respond as expected. %d response error(s) recorded.",
			report.Summary.APIResponseErrors,
		)
	case report.HasDefectiveProducts():
		md.Warningf(
			"%d of %d product(s) failed validation.",
			report.DefectiveProducts.Len(),
			report.TotalProducts,
		)
	case report.TotalProducts == 0:
		md.Note("No products to validate.")
	default:
		md.Tip("No defective products found!")
	}
	md.PlainText("")
}

// writeProducts writes one defect table per defective product.
func (w *MarkdownWriter) writeProducts(md *markdown.Markdown, report *model.Report) {
	md.H2("Defective Products")
	md.PlainText("")

	if !report.HasDefectiveProducts() {
		md.PlainText("No defective products found!")
		md.PlainText("")
		return
	}

	for _, p := range report.DefectiveProducts.All() {
		md.PlainText("### Product " + p.ID.String())
		md.PlainText("")
		md.PlainTextf("Title: %s", titleOrDash(p.Title))
		md.PlainText("")

		rows := make([][]string, len(p.Defects))
		for i, d := range p.Defects {
			rows[i] = []string{strconv.Itoa(i + 1), categoryTitle(model.ClassifyMessage(d)), d}
		}
		md.Table(markdown.TableSet{
			Header: []string{"#", "Category", "Defect"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [prodcheck](https://github.com/nao1215/prodcheck)*")
}

func titleOrDash(title string) string {
	if title == "" {
		return "-"
	}
	return title
}

// shortDigest keeps the first 16 hex digits of a digest.
func shortDigest(digest string) string {
	if len(digest) <= 16 {
		return digest
	}
	return digest[:16]
}
