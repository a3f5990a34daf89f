package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/nao1215/prodcheck/internal/model"
)

// ParseNumber converts a record field to a number.
//
// JSON numbers, strings holding a decimal number (surrounding whitespace is
// ignored) and booleans (true is 1, false is 0) convert. Absent fields, null,
// arrays, objects and non-numeric strings do not; the second return value
// reports success.
func ParseNumber(f model.Field) (float64, bool) {
	if !f.Present {
		return 0, false
	}

	raw := bytes.TrimSpace(f.Raw)
	if len(raw) == 0 {
		return 0, false
	}

	switch raw[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return 0, false
		}
		if b {
			return 1, true
		}
		return 0, true
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		return parseDecimal(strings.TrimSpace(s))
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return parseDecimal(string(raw))
	default:
		return 0, false
	}
}

// parseDecimal parses a decimal float literal. Out-of-range values convert
// to signed infinity; hexadecimal literals are rejected.
func parseDecimal(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	lower := strings.ToLower(strings.TrimLeft(s, "+-"))
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0b") || strings.HasPrefix(lower, "0o") {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return v, true
		}
		return 0, false
	}
	return v, true
}

// FormatNumber renders a converted value the way a float literal reads:
// integral values keep a trailing ".0", very large and very small
// magnitudes use exponent notation.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	abs := math.Abs(v)
	if v != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// FormatValue renders an unconvertible field value for a message:
// string content as is, anything else as compact JSON.
func FormatValue(f model.Field) string {
	return f.Text()
}
