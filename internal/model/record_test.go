package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseRecords(t *testing.T) {
	t.Parallel()

	t.Run("parses array of objects", func(t *testing.T) {
		t.Parallel()

		data := []byte(`[{"id":1,"title":"Bag","price":"109.95","rating":{"rate":3.9,"count":120}},{"title":null}]`)
		records, err := ParseRecords(data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}

		first := records[0]
		if !first.ID.Present || !first.Title.Present || !first.Price.Present || !first.Rating.Present {
			t.Errorf("expected all fields present, got %+v", first)
		}
		if title, ok := first.Title.String(); !ok || title != "Bag" {
			t.Errorf("expected title Bag, got %q (%v)", title, ok)
		}

		second := records[1]
		if second.ID.Present || second.Price.Present || second.Rating.Present {
			t.Errorf("expected absent fields, got %+v", second)
		}
		if !second.Title.IsNull() {
			t.Error("expected null title")
		}
	})

	t.Run("rejects non-array payloads", func(t *testing.T) {
		t.Parallel()

		for _, payload := range []string{`{"id":1}`, `"text"`, ``, `null`} {
			_, err := ParseRecords([]byte(payload))
			if !errors.Is(err, ErrNotRecordList) {
				t.Errorf("payload %q: expected ErrNotRecordList, got %v", payload, err)
			}
		}
	})

	t.Run("rejects arrays with non-object elements", func(t *testing.T) {
		t.Parallel()

		_, err := ParseRecords([]byte(`[{"id":1}, 5]`))
		if !errors.Is(err, ErrNotRecordList) {
			t.Errorf("expected ErrNotRecordList, got %v", err)
		}
	})

	t.Run("empty array", func(t *testing.T) {
		t.Parallel()

		records, err := ParseRecords([]byte(` [] `))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected no records, got %d", len(records))
		}
	})
}

func TestRecordMarshalJSON(t *testing.T) {
	t.Parallel()

	src := `{"id":104,"title":"Product missing price","category":"test","rating":{"rate":4.0,"count":75}}`
	var r Record
	if err := json.Unmarshal([]byte(src), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != src {
		t.Errorf("expected original object, got %s", out)
	}
}

func TestRecordProductID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		index    int
		wantKey  string
		wantJSON string
	}{
		{"numeric id", `{"id":101}`, 0, "101", `101`},
		{"string id", `{"id":"sku-9"}`, 3, "sku-9", `"sku-9"`},
		{"missing id", `{"title":"x"}`, 4, "Unknown (index 4)", `"Unknown (index 4)"`},
		{"null id", `{"id":null}`, 2, "null", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var r Record
			if err := json.Unmarshal([]byte(tt.src), &r); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			id := r.ProductID(tt.index)
			if id.String() != tt.wantKey {
				t.Errorf("expected key %q, got %q", tt.wantKey, id.String())
			}
			data, err := json.Marshal(id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(data) != tt.wantJSON {
				t.Errorf("expected JSON %s, got %s", tt.wantJSON, data)
			}
		})
	}

	t.Run("zero id marshals to null", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(ProductID{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "null" {
			t.Errorf("expected null, got %s", data)
		}
	})
}

func TestRecordDisplayTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want string
	}{
		{`{"title":"Backpack"}`, "Backpack"},
		{`{"title":""}`, ""},
		{`{"title":null}`, UnknownTitle},
		{`{}`, UnknownTitle},
		{`{"title":42}`, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			var r Record
			if err := json.Unmarshal([]byte(tt.src), &r); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := r.DisplayTitle(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDefectJSON(t *testing.T) {
	t.Parallel()

	t.Run("product defect", func(t *testing.T) {
		t.Parallel()

		d := NewProductDefect(RawProductID([]byte("101")), "", CategoryEmpty, "Empty 'title' attribute")
		data, err := json.Marshal(d)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"type":"Product Validation Error","product_id":101,"product_title":"","error":"Empty 'title' attribute"}`
		if string(data) != want {
			t.Errorf("expected %s, got %s", want, data)
		}
	})

	t.Run("response defect", func(t *testing.T) {
		t.Parallel()

		d := NewResponseDefect("Expected status code 200, got 404")
		data, err := json.Marshal(d)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"type":"API Response Error","product_id":null,"error":"Expected status code 200, got 404"}`
		if string(data) != want {
			t.Errorf("expected %s, got %s", want, data)
		}
	})
}
