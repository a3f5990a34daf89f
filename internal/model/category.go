package model

import "strings"

// Category is a report summary bucket.
type Category string

const (
	// CategoryUnknown is the zero value; such defects are classified by message.
	CategoryUnknown Category = ""

	// CategoryAPIResponse counts response-level defects.
	CategoryAPIResponse Category = "api_response_errors"

	// CategoryMissing counts absent attributes.
	CategoryMissing Category = "missing_attributes"

	// CategoryEmpty counts present but empty attributes.
	CategoryEmpty Category = "empty_values"

	// CategoryInvalid counts malformed or out-of-range attributes.
	CategoryInvalid Category = "invalid_values"
)

// Categories lists the summary buckets in report order.
func Categories() []Category {
	return []Category{
		CategoryAPIResponse,
		CategoryMissing,
		CategoryEmpty,
		CategoryInvalid,
	}
}

// Label returns the lower-case words of the category ("missing attributes").
func (c Category) Label() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

// ClassifyMessage buckets a product defect message by its wording:
// "missing" wins over "empty", everything else is invalid.
// The match is case-insensitive.
//
// Defects created by the validator carry their category already;
// this is applied to defects that arrive without one.
func ClassifyMessage(message string) Category {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "missing"):
		return CategoryMissing
	case strings.Contains(lower, "empty"):
		return CategoryEmpty
	default:
		return CategoryInvalid
	}
}

// categoryOf returns the bucket a defect counts towards.
func categoryOf(d Defect) Category {
	if d.Kind == KindAPIResponse {
		return CategoryAPIResponse
	}
	if d.Category != CategoryUnknown && d.Category != CategoryAPIResponse {
		return d.Category
	}
	return ClassifyMessage(d.Message)
}
