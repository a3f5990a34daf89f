package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Summary holds the defect counts per category.
type Summary struct {
	APIResponseErrors int `json:"api_response_errors"`
	MissingAttributes int `json:"missing_attributes"`
	EmptyValues       int `json:"empty_values"`
	InvalidValues     int `json:"invalid_values"`
}

// Count returns the count for a category.
func (s Summary) Count(c Category) int {
	switch c {
	case CategoryAPIResponse:
		return s.APIResponseErrors
	case CategoryMissing:
		return s.MissingAttributes
	case CategoryEmpty:
		return s.EmptyValues
	case CategoryInvalid:
		return s.InvalidValues
	default:
		return 0
	}
}

func (s *Summary) add(c Category) {
	switch c {
	case CategoryAPIResponse:
		s.APIResponseErrors++
	case CategoryMissing:
		s.MissingAttributes++
	case CategoryEmpty:
		s.EmptyValues++
	case CategoryInvalid:
		s.InvalidValues++
	}
}

// ProductDefects lists the defects of one product.
type ProductDefects struct {
	// ID is the product identifier; it is the key of the JSON object.
	ID ProductID `json:"-"`

	// Title is the product title at the product's first defect.
	Title string `json:"title"`

	// Defects holds the messages in validation order.
	Defects []string `json:"defects"`
}

// DefectiveProducts maps product ids to their defects, keeping the order in
// which products were first seen. Ids of different JSON types, such as 1
// and "1", are separate products.
type DefectiveProducts struct {
	entries []*ProductDefects
	index   map[string]int
}

// Len returns the number of defective products.
func (dp *DefectiveProducts) Len() int {
	return len(dp.entries)
}

// Get returns the first product whose ID string is key.
func (dp *DefectiveProducts) Get(key string) (ProductDefects, bool) {
	for _, e := range dp.entries {
		if e.ID.String() == key {
			return *e, true
		}
	}
	return ProductDefects{}, false
}

// Keys returns the product ID strings in first-seen order.
func (dp *DefectiveProducts) Keys() []string {
	keys := make([]string, len(dp.entries))
	for i, e := range dp.entries {
		keys[i] = e.ID.String()
	}
	return keys
}

// All returns copies of every entry in first-seen order.
func (dp *DefectiveProducts) All() []ProductDefects {
	all := make([]ProductDefects, len(dp.entries))
	for i, e := range dp.entries {
		all[i] = ProductDefects{
			ID:      e.ID,
			Title:   e.Title,
			Defects: append([]string(nil), e.Defects...),
		}
	}
	return all
}

// entry returns the product's entry, creating it with title on first use.
func (dp *DefectiveProducts) entry(id ProductID, title string) *ProductDefects {
	if i, ok := dp.index[id.identity()]; ok {
		return dp.entries[i]
	}
	return dp.add(id, title)
}

// add appends a new entry for id.
func (dp *DefectiveProducts) add(id ProductID, title string) *ProductDefects {
	if dp.index == nil {
		dp.index = make(map[string]int)
	}
	e := &ProductDefects{ID: id, Title: title, Defects: []string{}}
	dp.entries = append(dp.entries, e)
	if _, ok := dp.index[id.identity()]; !ok {
		dp.index[id.identity()] = len(dp.entries) - 1
	}
	return e
}

// MarshalJSON writes a JSON object keyed by product id in first-seen order.
func (dp DefectiveProducts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range dp.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.ID.String())
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keyed by product id, keeping key order.
func (dp *DefectiveProducts) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("defective_products must be a JSON object")
	}

	*dp = DefectiveProducts{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return errors.New("defective_products key must be a string")
		}
		var entry ProductDefects
		if err := dec.Decode(&entry); err != nil {
			return err
		}
		id, err := json.Marshal(key)
		if err != nil {
			return err
		}
		// Each member is one product; repeated keys come from ids of
		// different JSON types.
		e := dp.add(RawProductID(id), entry.Title)
		e.Defects = append(e.Defects, entry.Defects...)
	}
	_, err = dec.Token()
	return err
}

// Report is the categorized view of all defects of one run.
// It is always derived from a defect list by GenerateReport and never
// edited afterwards.
type Report struct {
	TotalProducts     int               `json:"total_products"`
	TotalDefects      int               `json:"total_defects"`
	DefectiveProducts DefectiveProducts `json:"defective_products"`
	Summary           Summary           `json:"summary"`
}

// HasDefectiveProducts reports whether any product failed validation.
func (r *Report) HasDefectiveProducts() bool {
	return r.DefectiveProducts.Len() > 0
}

// GenerateReport builds a Report from a defect list in a single pass.
//
// Response-level defects only increment the API error count. Product defects
// are grouped by product ID; the first defect of a product fixes its title.
// Each product defect counts towards exactly one summary category.
//
// defects is not modified, so calling GenerateReport repeatedly with the same
// arguments yields equal reports.
func GenerateReport(defects []Defect, totalProducts int) *Report {
	report := &Report{
		TotalProducts: totalProducts,
		TotalDefects:  len(defects),
	}

	for _, d := range defects {
		category := categoryOf(d)
		report.Summary.add(category)
		if d.Kind == KindAPIResponse {
			continue
		}
		e := report.DefectiveProducts.entry(d.ProductID, d.Title())
		e.Defects = append(e.Defects, d.Message)
	}

	return report
}
