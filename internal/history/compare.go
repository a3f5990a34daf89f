// Package history compares stored validation runs.
//
// A comparison lines up two runs of the same kind and reports which product
// defects appeared, which were resolved and how the per-category counts
// moved.
package history

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/prodcheck/internal/model"
)

// Direction summarizes how the defect count moved between two runs.
type Direction string

const (
	// DirectionImproved means the current run has fewer defects.
	DirectionImproved Direction = "improved"

	// DirectionWorsened means the current run has more defects.
	DirectionWorsened Direction = "worsened"

	// DirectionUnchanged means both runs have the same number of defects.
	DirectionUnchanged Direction = "unchanged"
)

// RunMetadata describes one side of a comparison.
type RunMetadata struct {
	// ID is the run ID.
	ID string `json:"id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// StatusCode is the response status of the run.
	StatusCode int `json:"status_code"`

	// TotalProducts is the number of records validated.
	TotalProducts int `json:"total_products"`

	// TotalDefects is the number of defects found.
	TotalDefects int `json:"total_defects"`

	// Summary holds the per-category counts.
	Summary model.Summary `json:"summary"`
}

// SummaryDelta holds the per-category change, current minus previous.
type SummaryDelta struct {
	APIResponseErrors int `json:"api_response_errors"`
	MissingAttributes int `json:"missing_attributes"`
	EmptyValues       int `json:"empty_values"`
	InvalidValues     int `json:"invalid_values"`
	TotalDefects      int `json:"total_defects"`
}

// DefectChange is a product defect present in only one of the two runs.
type DefectChange struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	Defect    string `json:"defect"`
}

// Comparison is the result of comparing two runs.
type Comparison struct {
	// Kind is the kind of the compared runs.
	Kind model.RunKind `json:"kind"`

	// Source is the source of the current run.
	Source string `json:"source"`

	// Previous describes the older run.
	Previous RunMetadata `json:"previous_run"`

	// Current describes the newer run.
	Current RunMetadata `json:"current_run"`

	// NewDefects are product defects found only in the current run.
	NewDefects []DefectChange `json:"new_defects,omitempty"`

	// ResolvedDefects are product defects found only in the previous run.
	ResolvedDefects []DefectChange `json:"resolved_defects,omitempty"`

	// NewProducts are products defective only in the current run.
	NewProducts []string `json:"new_defective_products,omitempty"`

	// ResolvedProducts are products defective only in the previous run.
	ResolvedProducts []string `json:"resolved_defective_products,omitempty"`

	// UnchangedCount is the number of product defects present in both runs.
	UnchangedCount int `json:"unchanged_count"`

	// Delta holds the per-category change.
	Delta SummaryDelta `json:"delta"`

	// Direction summarizes the change.
	Direction Direction `json:"direction"`
}

// Compare compares previous with current. Both runs must carry a report.
// New entries follow the current run's product order and resolved entries
// follow the previous run's.
func Compare(previous, current *model.Run) *Comparison {
	prevReport := reportOf(previous)
	currReport := reportOf(current)

	c := &Comparison{
		Kind:     current.Kind,
		Source:   current.Source,
		Previous: metadataOf(previous, prevReport),
		Current:  metadataOf(current, currReport),
	}

	prevDefects := defectSet(prevReport)
	currDefects := defectSet(currReport)

	for _, p := range currReport.DefectiveProducts.All() {
		key := p.ID.String()
		if _, ok := prevReport.DefectiveProducts.Get(key); !ok {
			c.NewProducts = append(c.NewProducts, key)
		}
		for _, d := range p.Defects {
			if _, ok := prevDefects[defectKey(key, d)]; ok {
				c.UnchangedCount++
				continue
			}
			c.NewDefects = append(c.NewDefects, DefectChange{ProductID: key, Title: p.Title, Defect: d})
		}
	}

	for _, p := range prevReport.DefectiveProducts.All() {
		key := p.ID.String()
		if _, ok := currReport.DefectiveProducts.Get(key); !ok {
			c.ResolvedProducts = append(c.ResolvedProducts, key)
		}
		for _, d := range p.Defects {
			if _, ok := currDefects[defectKey(key, d)]; !ok {
				c.ResolvedDefects = append(c.ResolvedDefects, DefectChange{ProductID: key, Title: p.Title, Defect: d})
			}
		}
	}

	c.Delta = SummaryDelta{
		APIResponseErrors: currReport.Summary.APIResponseErrors - prevReport.Summary.APIResponseErrors,
		MissingAttributes: currReport.Summary.MissingAttributes - prevReport.Summary.MissingAttributes,
		EmptyValues:       currReport.Summary.EmptyValues - prevReport.Summary.EmptyValues,
		InvalidValues:     currReport.Summary.InvalidValues - prevReport.Summary.InvalidValues,
		TotalDefects:      currReport.TotalDefects - prevReport.TotalDefects,
	}

	switch {
	case c.Delta.TotalDefects < 0:
		c.Direction = DirectionImproved
	case c.Delta.TotalDefects > 0:
		c.Direction = DirectionWorsened
	default:
		c.Direction = DirectionUnchanged
	}

	return c
}

func reportOf(run *model.Run) *model.Report {
	if run.Report != nil {
		return run.Report
	}
	return model.GenerateReport(run.Defects, len(run.Records))
}

func metadataOf(run *model.Run, report *model.Report) RunMetadata {
	return RunMetadata{
		ID:            run.ID,
		StartedAt:     run.StartedAt,
		StatusCode:    run.StatusCode,
		TotalProducts: report.TotalProducts,
		TotalDefects:  report.TotalDefects,
		Summary:       report.Summary,
	}
}

// defectSet indexes the product defects of report by product and message.
func defectSet(report *model.Report) map[string]struct{} {
	set := make(map[string]struct{})
	for _, p := range report.DefectiveProducts.All() {
		for _, d := range p.Defects {
			set[defectKey(p.ID.String(), d)] = struct{}{}
		}
	}
	return set
}

func defectKey(productID, message string) string {
	return productID + "|" + message
}

// WriteJSON writes c as indented JSON.
func WriteJSON(w io.Writer, c *Comparison) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(c)
}

// WriteText writes c in human-readable form.
func WriteText(w io.Writer, c *Comparison) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Run Comparison: %s (%s)\n", c.Source, c.Kind))
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("\nStatus: %s\n", formatDirection(c.Direction)))
	sb.WriteString(fmt.Sprintf("\nPrevious run: %s  %s\n", c.Previous.StartedAt.Format("2006-01-02 15:04:05"), c.Previous.ID))
	sb.WriteString(fmt.Sprintf("Current run:  %s  %s\n", c.Current.StartedAt.Format("2006-01-02 15:04:05"), c.Current.ID))

	sb.WriteString("\nDefect Summary:\n")
	sb.WriteString(fmt.Sprintf("  %-20s  %-10s  %-10s  %-10s\n", "Category", "Previous", "Current", "Change"))
	sb.WriteString("  " + strings.Repeat("-", 56) + "\n")
	rows := []struct {
		label      string
		prev, curr int
		delta      int
	}{
		{"API Response Errors", c.Previous.Summary.APIResponseErrors, c.Current.Summary.APIResponseErrors, c.Delta.APIResponseErrors},
		{"Missing Attributes", c.Previous.Summary.MissingAttributes, c.Current.Summary.MissingAttributes, c.Delta.MissingAttributes},
		{"Empty Values", c.Previous.Summary.EmptyValues, c.Current.Summary.EmptyValues, c.Delta.EmptyValues},
		{"Invalid Values", c.Previous.Summary.InvalidValues, c.Current.Summary.InvalidValues, c.Delta.InvalidValues},
	}
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("  %-20s  %-10d  %-10d  %-10s\n", r.label, r.prev, r.curr, FormatDelta(r.delta)))
	}
	sb.WriteString("  " + strings.Repeat("-", 56) + "\n")
	sb.WriteString(fmt.Sprintf("  %-20s  %-10d  %-10d  %-10s\n", "Total",
		c.Previous.TotalDefects, c.Current.TotalDefects, FormatDelta(c.Delta.TotalDefects)))

	if len(c.NewDefects) > 0 {
		sb.WriteString(fmt.Sprintf("\nNew Defects (%d):\n", len(c.NewDefects)))
		for _, d := range c.NewDefects {
			sb.WriteString(fmt.Sprintf("  [+] Product %s: %s\n", d.ProductID, d.Defect))
		}
	}

	if len(c.ResolvedDefects) > 0 {
		sb.WriteString(fmt.Sprintf("\nResolved Defects (%d):\n", len(c.ResolvedDefects)))
		for _, d := range c.ResolvedDefects {
			sb.WriteString(fmt.Sprintf("  [-] Product %s: %s\n", d.ProductID, d.Defect))
		}
	}

	if c.UnchangedCount > 0 {
		sb.WriteString(fmt.Sprintf("\nUnchanged: %d defects\n", c.UnchangedCount))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// formatDirection formats the change direction for display.
func formatDirection(d Direction) string {
	switch d {
	case DirectionImproved:
		return "IMPROVED (fewer defects)"
	case DirectionWorsened:
		return "WORSENED (more defects)"
	default:
		return "UNCHANGED"
	}
}

// FormatDelta formats a numeric delta with sign for display.
func FormatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
