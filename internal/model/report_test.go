package model

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"
)

// productDefect is a shorthand for tests.
func productDefect(id int, title string, category Category, message string) Defect {
	raw, _ := json.Marshal(id) //nolint:errcheck // int marshaling cannot fail
	return NewProductDefect(RawProductID(raw), title, category, message)
}

// syntheticDefects mirrors the defects produced by the built-in data set.
func syntheticDefects() []Defect {
	return []Defect{
		productDefect(101, "", CategoryEmpty, "Empty 'title' attribute"),
		productDefect(102, "Product with negative price", CategoryInvalid, "Negative price: -19.99"),
		productDefect(103, "Product with high rating", CategoryInvalid, "Rating exceeds 5: 6.5"),
		productDefect(104, "Product missing price", CategoryMissing, "Missing 'price' attribute"),
		productDefect(105, "Product missing rating", CategoryMissing, "Missing 'rating' attribute"),
		productDefect(106, UnknownTitle, CategoryMissing, "Missing 'title' attribute"),
	}
}

func TestGenerateReport(t *testing.T) {
	t.Parallel()

	t.Run("synthetic scenario counts", func(t *testing.T) {
		t.Parallel()

		report := GenerateReport(syntheticDefects(), 6)

		if report.TotalProducts != 6 {
			t.Errorf("expected 6 products, got %d", report.TotalProducts)
		}
		if report.TotalDefects != 6 {
			t.Errorf("expected 6 defects, got %d", report.TotalDefects)
		}
		want := Summary{MissingAttributes: 3, EmptyValues: 1, InvalidValues: 2}
		if report.Summary != want {
			t.Errorf("expected summary %+v, got %+v", want, report.Summary)
		}
		if report.DefectiveProducts.Len() != 6 {
			t.Errorf("expected 6 defective products, got %d", report.DefectiveProducts.Len())
		}
		wantKeys := []string{"101", "102", "103", "104", "105", "106"}
		if got := report.DefectiveProducts.Keys(); !reflect.DeepEqual(got, wantKeys) {
			t.Errorf("expected keys %v, got %v", wantKeys, got)
		}
	})

	t.Run("response errors are counted but not listed", func(t *testing.T) {
		t.Parallel()

		defects := []Defect{NewResponseDefect("Expected status code 200, got 500")}
		report := GenerateReport(defects, 0)

		if report.Summary.APIResponseErrors != 1 {
			t.Errorf("expected 1 api response error, got %d", report.Summary.APIResponseErrors)
		}
		if report.HasDefectiveProducts() {
			t.Error("expected no defective products")
		}
		if report.TotalDefects != 1 {
			t.Errorf("expected total defects 1, got %d", report.TotalDefects)
		}
	})

	t.Run("defects of one product are grouped in order", func(t *testing.T) {
		t.Parallel()

		defects := []Defect{
			productDefect(7, "First title", CategoryEmpty, "Empty 'title' attribute"),
			productDefect(8, "Other", CategoryMissing, "Missing 'price' attribute"),
			productDefect(7, "Second title", CategoryInvalid, "Negative price: -1.0"),
			productDefect(7, "Third title", CategoryMissing, "Missing 'rating' attribute"),
		}
		report := GenerateReport(defects, 2)

		entry, ok := report.DefectiveProducts.Get("7")
		if !ok {
			t.Fatal("expected product 7 to be listed")
		}
		if entry.Title != "First title" {
			t.Errorf("expected title from first defect, got %q", entry.Title)
		}
		want := []string{"Empty 'title' attribute", "Negative price: -1.0", "Missing 'rating' attribute"}
		if !reflect.DeepEqual(entry.Defects, want) {
			t.Errorf("expected %v, got %v", want, entry.Defects)
		}
		if report.DefectiveProducts.Len() != 2 {
			t.Errorf("expected 2 products, got %d", report.DefectiveProducts.Len())
		}
	})

	t.Run("ids of different JSON types are separate products", func(t *testing.T) {
		t.Parallel()

		defects := []Defect{
			NewProductDefect(RawProductID([]byte(`1`)), "", CategoryEmpty, "Empty 'title' attribute"),
			NewProductDefect(RawProductID([]byte(`"1"`)), "", CategoryEmpty, "Empty 'title' attribute"),
			NewProductDefect(RawProductID([]byte(`"1"`)), "", CategoryMissing, "Missing 'price' attribute"),
		}
		report := GenerateReport(defects, 2)

		if report.DefectiveProducts.Len() != 2 {
			t.Fatalf("expected 2 products, got %d", report.DefectiveProducts.Len())
		}
		all := report.DefectiveProducts.All()
		if len(all[0].Defects) != 1 || len(all[1].Defects) != 2 {
			t.Errorf("expected 1 and 2 defects, got %v and %v", all[0].Defects, all[1].Defects)
		}
		if want := []string{"1", "1"}; !reflect.DeepEqual(report.DefectiveProducts.Keys(), want) {
			t.Errorf("expected keys %v, got %v", want, report.DefectiveProducts.Keys())
		}
		if report.Summary.EmptyValues != 2 || report.Summary.MissingAttributes != 1 {
			t.Errorf("unexpected summary %+v", report.Summary)
		}

		data, err := json.Marshal(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var decoded Report
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if decoded.DefectiveProducts.Len() != 2 {
			t.Errorf("expected 2 products after decoding, got %d", decoded.DefectiveProducts.Len())
		}
	})

	t.Run("null ids are grouped under null", func(t *testing.T) {
		t.Parallel()

		defects := []Defect{
			NewProductDefect(RawProductID([]byte(`null`)), "A", CategoryEmpty, "Empty 'title' attribute"),
			NewProductDefect(RawProductID([]byte(`null`)), "B", CategoryMissing, "Missing 'price' attribute"),
		}
		report := GenerateReport(defects, 2)

		entry, ok := report.DefectiveProducts.Get("null")
		if !ok {
			t.Fatal("expected product null to be listed")
		}
		if len(entry.Defects) != 2 || entry.Title != "A" {
			t.Errorf("unexpected entry %+v", entry)
		}
	})

	t.Run("untagged defects are classified by message", func(t *testing.T) {
		t.Parallel()

		defects := syntheticDefects()
		for i := range defects {
			defects[i].Category = CategoryUnknown
		}
		report := GenerateReport(defects, 6)

		want := Summary{MissingAttributes: 3, EmptyValues: 1, InvalidValues: 2}
		if report.Summary != want {
			t.Errorf("expected summary %+v, got %+v", want, report.Summary)
		}
	})

	t.Run("is idempotent and does not mutate input", func(t *testing.T) {
		t.Parallel()

		defects := append(syntheticDefects(), NewResponseDefect("Expected status code 200, got 0"))
		before := make([]Defect, len(defects))
		copy(before, defects)

		first := GenerateReport(defects, 6)
		second := GenerateReport(defects, 6)

		if !reflect.DeepEqual(first, second) {
			t.Error("expected identical reports")
		}
		a, err := json.Marshal(first)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := json.Marshal(second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(a, b) {
			t.Errorf("expected byte-identical JSON, got\n%s\n%s", a, b)
		}
		if !reflect.DeepEqual(before, defects) {
			t.Error("expected defects to be unchanged")
		}
	})

	t.Run("empty defect list", func(t *testing.T) {
		t.Parallel()

		report := GenerateReport(nil, 20)
		if report.TotalDefects != 0 || report.HasDefectiveProducts() {
			t.Errorf("expected empty report, got %+v", report)
		}
		if report.TotalProducts != 20 {
			t.Errorf("expected 20 products, got %d", report.TotalProducts)
		}
	})
}

func TestClassifyMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		message string
		want    Category
	}{
		{"Missing 'title' attribute", CategoryMissing},
		{"Missing 'rating.rate' attribute", CategoryMissing},
		{"Empty 'title' attribute", CategoryEmpty},
		{"Negative price: -19.99", CategoryInvalid},
		{"Rating exceeds 5: 6.5", CategoryInvalid},
		{"Invalid 'rating' structure", CategoryInvalid},
		{"Invalid price format: abc", CategoryInvalid},
		{"MISSING and EMPTY", CategoryMissing},
		{"value is EMPTY", CategoryEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			t.Parallel()
			if got := ClassifyMessage(tt.message); got != tt.want {
				t.Errorf("ClassifyMessage(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestReportJSON(t *testing.T) {
	t.Parallel()

	t.Run("defective products keep first-seen order", func(t *testing.T) {
		t.Parallel()

		defects := []Defect{
			productDefect(30, "c", CategoryEmpty, "Empty 'title' attribute"),
			productDefect(4, "a", CategoryMissing, "Missing 'price' attribute"),
		}
		data, err := json.Marshal(GenerateReport(defects, 2))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := `{"total_products":2,"total_defects":2,"defective_products":{"30":{"title":"c","defects":["Empty 'title' attribute"]},"4":{"title":"a","defects":["Missing 'price' attribute"]}},"summary":{"api_response_errors":0,"missing_attributes":1,"empty_values":1,"invalid_values":0}}`
		if string(data) != want {
			t.Errorf("unexpected JSON:\n got: %s\nwant: %s", data, want)
		}
	})

	t.Run("round trips through JSON", func(t *testing.T) {
		t.Parallel()

		original := GenerateReport(syntheticDefects(), 6)
		data, err := json.Marshal(original)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded Report
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(decoded.DefectiveProducts.Keys(), original.DefectiveProducts.Keys()) {
			t.Errorf("expected keys %v, got %v", original.DefectiveProducts.Keys(), decoded.DefectiveProducts.Keys())
		}
		if decoded.Summary != original.Summary {
			t.Errorf("expected summary %+v, got %+v", original.Summary, decoded.Summary)
		}
	})
}
