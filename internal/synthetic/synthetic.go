// Package synthetic provides a fixed catalog of deliberately defective
// products. Running the validator over it exercises every rule family and
// gives a known report to compare live results against.
package synthetic

import (
	_ "embed"
	"fmt"

	"github.com/nao1215/prodcheck/internal/model"
)

// Source is the run source recorded for synthetic runs.
const Source = "synthetic"

//go:embed products.json
var productsJSON []byte

// JSON returns the raw synthetic data set.
func JSON() []byte {
	return append([]byte(nil), productsJSON...)
}

// Records returns a fresh copy of the synthetic records.
//
// The set contains six products, ids 101 to 106:
//   - 101 has an empty title
//   - 102 has a negative price
//   - 103 has a rating above 5
//   - 104 has no price
//   - 105 has no rating
//   - 106 has no title
func Records() ([]model.Record, error) {
	records, err := model.ParseRecords(productsJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to parse synthetic products: %w", err)
	}
	return records, nil
}
