package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotRecordList is returned when a payload is not a JSON array of objects.
var ErrNotRecordList = errors.New("payload is not a list of product records")

// DefectKind is the origin of a defect.
type DefectKind string

const (
	// KindAPIResponse marks a defect in the API response itself,
	// such as an unexpected status code or a failed request.
	KindAPIResponse DefectKind = "API Response Error"

	// KindProductValidation marks a defect in a single product record.
	KindProductValidation DefectKind = "Product Validation Error"
)

// ProductID identifies the product a defect belongs to.
// It is either the record's own id (kept as raw JSON so that numbers stay
// numbers in persisted output), a positional fallback label, or empty for
// response-level defects.
type ProductID struct {
	raw      json.RawMessage
	fallback string
}

// RawProductID wraps the JSON value of a record's id key.
func RawProductID(raw json.RawMessage) ProductID {
	return ProductID{raw: append(json.RawMessage(nil), bytes.TrimSpace(raw)...)}
}

// FallbackProductID is used for records without an id.
func FallbackProductID(index int) ProductID {
	return ProductID{fallback: fmt.Sprintf("Unknown (index %d)", index)}
}

// IsZero reports whether the ID is empty (response-level defects).
func (p ProductID) IsZero() bool {
	return len(p.raw) == 0 && p.fallback == ""
}

// isNull reports whether the ID is empty or an explicit JSON null.
func (p ProductID) isNull() bool {
	return p.IsZero() || bytes.Equal(p.raw, []byte("null"))
}

// String returns the key under which the product is listed in a Report.
// String ids are returned without quotes and a null id reads "null", so
// ids 1 and "1" share a key while remaining distinct products.
func (p ProductID) String() string {
	switch {
	case p.isNull():
		return "null"
	case len(p.raw) > 0:
		var s string
		if err := json.Unmarshal(p.raw, &s); err == nil {
			return s
		}
		return p.compact()
	default:
		return p.fallback
	}
}

// identity distinguishes ids by JSON type as well as value.
func (p ProductID) identity() string {
	switch {
	case p.isNull():
		return "null"
	case len(p.raw) > 0:
		return p.compact()
	default:
		return "fallback:" + p.fallback
	}
}

func (p ProductID) compact() string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, p.raw); err != nil {
		return string(p.raw)
	}
	return buf.String()
}

// MarshalJSON emits the original id value, the fallback label as a string,
// or null.
func (p ProductID) MarshalJSON() ([]byte, error) {
	switch {
	case len(p.raw) > 0:
		return p.raw, nil
	case p.fallback != "":
		return json.Marshal(p.fallback)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON restores a ProductID from persisted output.
func (p *ProductID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*p = ProductID{}
		return nil
	}
	*p = RawProductID(trimmed)
	return nil
}

// Defect is a single validation or transport finding.
// Defects are values; nothing mutates them after creation.
type Defect struct {
	// Kind is the defect origin.
	Kind DefectKind `json:"type"`

	// ProductID is the affected product, empty for response-level defects.
	ProductID ProductID `json:"product_id"`

	// ProductTitle is the affected product's title.
	// It is nil for response-level defects and omitted from output.
	ProductTitle *string `json:"product_title,omitempty"`

	// Message is the human-readable description.
	Message string `json:"error"`

	// Category is the summary bucket the defect counts towards.
	// It is derived from the rule that produced the defect.
	Category Category `json:"-"`
}

// NewResponseDefect creates a response-level defect.
func NewResponseDefect(message string) Defect {
	return Defect{
		Kind:     KindAPIResponse,
		Message:  message,
		Category: CategoryAPIResponse,
	}
}

// NewProductDefect creates a defect for one product.
func NewProductDefect(id ProductID, title string, category Category, message string) Defect {
	return Defect{
		Kind:         KindProductValidation,
		ProductID:    id,
		ProductTitle: &title,
		Message:      message,
		Category:     category,
	}
}

// Title returns the product title, or UnknownTitle when none is set.
func (d Defect) Title() string {
	if d.ProductTitle == nil {
		return UnknownTitle
	}
	return *d.ProductTitle
}

// Messages extracts the messages of the given defects, preserving order.
func Messages(defects []Defect) []string {
	messages := make([]string, len(defects))
	for i, d := range defects {
		messages[i] = d.Message
	}
	return messages
}
