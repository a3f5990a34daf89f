// Package pipeline executes a validation run as a sequence of steps.
//
// A live run fetches the catalog, checks the response status, validates
// every record and aggregates the defects into a report. A synthetic run
// replaces the first two steps with the built-in defective data set.
// Each run is a fresh model.Run, so defects never leak between passes.
package pipeline
