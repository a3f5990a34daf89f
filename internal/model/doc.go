// Package model defines the data structures shared by prodcheck packages.
//
// This package contains the following main types:
//   - Record: one product entry from the catalog API, with optional fields
//   - Defect: one validation or response finding
//   - Report: the categorized view of all defects of a run
//   - Run: one fetch, validate, aggregate pass
//
// GenerateReport, the defect aggregation, lives here as well because it is a
// pure function of a defect list.
//
// All types serialize to the JSON shapes written to result files and to the
// run history database.
package model
