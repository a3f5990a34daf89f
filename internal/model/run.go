package model

import (
	"time"

	"github.com/google/uuid"
)

// RunKind distinguishes the data source of a run.
type RunKind string

const (
	// RunKindLive validates records fetched from the catalog API.
	RunKindLive RunKind = "live"

	// RunKindSynthetic validates the built-in defective data set.
	RunKindSynthetic RunKind = "synthetic"
)

// RecordResult is the outcome of validating one record.
type RecordResult struct {
	// Index is the zero-based position of the record in fetch order.
	Index int `json:"index"`

	// ProductID identifies the record in reports.
	ProductID ProductID `json:"product_id"`

	// Label names the record in progress output.
	Label string `json:"label"`

	// Defects holds the record's defects in rule order.
	Defects []Defect `json:"defects,omitempty"`
}

// OK reports whether the record passed every rule.
func (r RecordResult) OK() bool {
	return len(r.Defects) == 0
}

// Run is one fetch, validate, aggregate pass.
// A Run owns its records and defects; a new Run is created for every pass
// so defects never carry over between passes.
type Run struct {
	// ID uniquely identifies the run in the run history.
	ID string `json:"id"`

	// Kind is the data source of the run.
	Kind RunKind `json:"kind"`

	// Source is the catalog URL, or "synthetic".
	Source string `json:"source"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall time of the run.
	Duration time.Duration `json:"duration"`

	// StatusCode is the HTTP status of the fetch, 0 when the request failed.
	StatusCode int `json:"status_code"`

	// ResponseChecked is true when the status code was validated.
	ResponseChecked bool `json:"response_checked"`

	// ResponseValid is the outcome of the status code check.
	ResponseValid bool `json:"response_valid"`

	// PayloadDigest is the hex SHA3-256 of the response body.
	PayloadDigest string `json:"payload_digest,omitempty"`

	// FetchError describes a transport failure, if any.
	FetchError string `json:"fetch_error,omitempty"`

	// Records are the validated records in fetch order.
	Records []Record `json:"-"`

	// Results holds per-record outcomes in fetch order.
	Results []RecordResult `json:"-"`

	// Defects is every defect of the run in validation order.
	Defects []Defect `json:"-"`

	// Report is generated from Defects once validation completes.
	Report *Report `json:"report,omitempty"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error records the last step failure, if any.
	Error string `json:"error,omitempty"`
}

// NewRun creates an empty run for the given source.
func NewRun(kind RunKind, source string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		Source:    source,
		StartedAt: time.Now(),
		Records:   make([]Record, 0),
		Results:   make([]RecordResult, 0),
		Defects:   make([]Defect, 0),
	}
}

// AddDefects appends defects to the run in the order given.
func (r *Run) AddDefects(defects ...Defect) {
	r.Defects = append(r.Defects, defects...)
}

// GenerateReport rebuilds the report from the run's current defects.
func (r *Run) GenerateReport() *Report {
	r.Report = GenerateReport(r.Defects, len(r.Records))
	return r.Report
}
