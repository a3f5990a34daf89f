package validator

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/nao1215/prodcheck/internal/model"
)

// ExpectedStatusCode is the only status code accepted from the catalog API.
const ExpectedStatusCode = http.StatusOK

// MaxRating is the upper bound of rating.rate.
const MaxRating = 5

// finding is a rule violation before it is attached to a product.
type finding struct {
	category model.Category
	message  string
}

func missing(attr string) finding {
	return finding{model.CategoryMissing, fmt.Sprintf("Missing '%s' attribute", attr)}
}

func invalid(format string, args ...any) finding {
	return finding{model.CategoryInvalid, fmt.Sprintf(format, args...)}
}

// ValidateStatus checks the status code of the catalog response.
// A code other than 200 yields exactly one response-level defect.
func ValidateStatus(code int) (bool, []model.Defect) {
	if code == ExpectedStatusCode {
		return true, nil
	}
	return false, []model.Defect{
		model.NewResponseDefect(fmt.Sprintf("Expected status code %d, got %d", ExpectedStatusCode, code)),
	}
}

// ValidateRecord applies the title, price and rating rules to one record.
// index is the record's zero-based position and names records without an id.
// Defects are returned in rule order; a valid record yields none.
func ValidateRecord(r model.Record, index int) []model.Defect {
	var findings []finding
	findings = appendFinding(findings, checkTitle(r.Title))
	findings = appendFinding(findings, checkPrice(r.Price))
	findings = appendFinding(findings, checkRating(r.Rating))

	if len(findings) == 0 {
		return nil
	}

	id := r.ProductID(index)
	title := r.DisplayTitle()
	defects := make([]model.Defect, len(findings))
	for i, f := range findings {
		defects[i] = model.NewProductDefect(id, title, f.category, f.message)
	}
	return defects
}

func appendFinding(findings []finding, f *finding) []finding {
	if f == nil {
		return findings
	}
	return append(findings, *f)
}

// checkTitle requires a non-blank title.
func checkTitle(title model.Field) *finding {
	if !title.Present {
		f := missing(model.KeyTitle)
		return &f
	}
	if isBlank(title) {
		return &finding{model.CategoryEmpty, "Empty 'title' attribute"}
	}
	return nil
}

// isBlank reports whether a present title counts as empty: blank strings,
// and falsy JSON values (null, false, 0, empty array or object).
func isBlank(title model.Field) bool {
	if s, ok := title.String(); ok {
		return strings.TrimSpace(s) == ""
	}
	raw := bytes.TrimSpace(title.Raw)
	switch string(raw) {
	case "null", "false", "[]", "{}":
		return true
	}
	if v, ok := ParseNumber(title); ok && raw[0] != 't' && raw[0] != 'f' {
		return v == 0
	}
	compact := strings.Join(strings.Fields(string(raw)), "")
	return compact == "[]" || compact == "{}"
}

// checkPrice requires a non-negative number.
func checkPrice(price model.Field) *finding {
	if !price.Present {
		f := missing(model.KeyPrice)
		return &f
	}
	v, ok := ParseNumber(price)
	if !ok {
		f := invalid("Invalid price format: %s", FormatValue(price))
		return &f
	}
	if v < 0 {
		f := invalid("Negative price: %s", FormatNumber(v))
		return &f
	}
	return nil
}

// checkRating requires an object whose rate lies in [0, MaxRating].
// The upper bound is checked before the lower one.
func checkRating(rating model.Field) *finding {
	if !rating.Present {
		f := missing(model.KeyRating)
		return &f
	}
	obj, ok := rating.Object()
	if !ok {
		f := invalid("Invalid 'rating' structure")
		return &f
	}
	raw, ok := obj[model.KeyRate]
	if !ok {
		f := missing(model.KeyRating + "." + model.KeyRate)
		return &f
	}
	rate := model.Field{Present: true, Raw: raw}
	v, ok := ParseNumber(rate)
	if !ok {
		f := invalid("Invalid rating format: %s", FormatValue(rate))
		return &f
	}
	switch {
	case v > MaxRating:
		f := invalid("Rating exceeds %d: %s", MaxRating, FormatNumber(v))
		return &f
	case v < 0:
		f := invalid("Negative rating: %s", FormatNumber(v))
		return &f
	}
	return nil
}
