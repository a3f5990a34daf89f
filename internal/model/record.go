package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Keys of a catalog record that the validator inspects.
const (
	KeyID     = "id"
	KeyTitle  = "title"
	KeyPrice  = "price"
	KeyRating = "rating"
	KeyRate   = "rate"
)

// UnknownTitle is reported for products without a usable title.
const UnknownTitle = "Unknown"

// Field is one optional, loosely typed value of a catalog record.
// Present distinguishes an absent key from a key holding JSON null.
type Field struct {
	// Present is true when the key exists in the source object.
	Present bool

	// Raw is the undecoded JSON value. It is nil when Present is false.
	Raw json.RawMessage
}

// IsNull reports whether the field is present and holds JSON null.
func (f Field) IsNull() bool {
	return f.Present && bytes.Equal(bytes.TrimSpace(f.Raw), []byte("null"))
}

// String decodes the field as a JSON string.
// The second return value is false when the field is absent or not a string.
func (f Field) String() (string, bool) {
	trimmed := bytes.TrimSpace(f.Raw)
	if !f.Present || len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}

// Object decodes the field as a JSON object.
// The second return value is false when the field is absent or not an object.
func (f Field) Object() (map[string]json.RawMessage, bool) {
	if !f.Present {
		return nil, false
	}
	trimmed := bytes.TrimSpace(f.Raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// Text returns a printable form of the value: the content of a JSON string,
// otherwise the compact JSON text.
func (f Field) Text() string {
	if s, ok := f.String(); ok {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, f.Raw); err != nil {
		return string(f.Raw)
	}
	return buf.String()
}

// Record is one product entry returned by the catalog API.
// Only the keys the validator inspects are broken out; the complete source
// object is kept in Raw so it can be persisted unchanged.
type Record struct {
	ID     Field
	Title  Field
	Price  Field
	Rating Field

	// Raw is the original JSON object.
	Raw json.RawMessage
}

// UnmarshalJSON decodes a record from a JSON object.
func (r *Record) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("record is not a JSON object: %w", err)
	}
	if obj == nil {
		return fmt.Errorf("record is not a JSON object: %s", bytes.TrimSpace(data))
	}

	*r = Record{
		ID:     fieldOf(obj, KeyID),
		Title:  fieldOf(obj, KeyTitle),
		Price:  fieldOf(obj, KeyPrice),
		Rating: fieldOf(obj, KeyRating),
		Raw:    append(json.RawMessage(nil), data...),
	}
	return nil
}

// MarshalJSON returns the original JSON object.
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r.Raw) == 0 {
		return []byte("{}"), nil
	}
	return r.Raw, nil
}

func fieldOf(obj map[string]json.RawMessage, key string) Field {
	raw, ok := obj[key]
	if !ok {
		return Field{}
	}
	return Field{Present: true, Raw: raw}
}

// ProductID resolves the identifier used when reporting defects for the
// record at the given zero-based position. A present id is used as is,
// including null; only a missing id falls back to the position.
func (r Record) ProductID(index int) ProductID {
	if r.ID.Present {
		return RawProductID(r.ID.Raw)
	}
	return FallbackProductID(index)
}

// Label names the record in progress output: the id as written, or the
// record's position when it has no id key.
func (r Record) Label(index int) string {
	if r.ID.Present {
		return r.ID.Text()
	}
	return strconv.Itoa(index)
}

// DisplayTitle returns the title as it appears in reports.
// Absent and null titles are reported as UnknownTitle.
func (r Record) DisplayTitle() string {
	if !r.Title.Present || r.Title.IsNull() {
		return UnknownTitle
	}
	return r.Title.Text()
}

// ParseRecords decodes a JSON array of records.
// It returns an error when data is not an array of objects.
func ParseRecords(data []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotRecordList
	}

	var records []Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotRecordList, err)
	}
	return records, nil
}
