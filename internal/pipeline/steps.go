package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/prodcheck/internal/fetcher"
	"github.com/nao1215/prodcheck/internal/model"
	"github.com/nao1215/prodcheck/internal/synthetic"
	"github.com/nao1215/prodcheck/internal/validator"
)

// FetchStep loads the records of a live run from the catalog API.
// A failed request is not a step failure: the run keeps status 0 and no
// records, and the response check turns that into a defect.
type FetchStep struct {
	fetcher *fetcher.Fetcher
	url     string
}

// NewFetchStep creates a step that fetches url with f.
func NewFetchStep(f *fetcher.Fetcher, url string) *FetchStep {
	return &FetchStep{fetcher: f, url: url}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do executes the fetch step.
func (s *FetchStep) Do(ctx context.Context, run *model.Run) error {
	res := s.fetcher.FetchResult(ctx, s.url)

	run.StatusCode = res.StatusCode
	run.Records = res.Records
	run.PayloadDigest = res.Digest
	if res.Err != nil {
		run.FetchError = res.Err.Error()
	}
	return nil
}

// SyntheticSourceStep loads the built-in defective data set.
type SyntheticSourceStep struct{}

// NewSyntheticSourceStep creates a step that loads the synthetic records.
func NewSyntheticSourceStep() *SyntheticSourceStep {
	return &SyntheticSourceStep{}
}

// Name returns the step name.
func (s *SyntheticSourceStep) Name() string {
	return "synthetic_source"
}

// Do executes the synthetic source step.
func (s *SyntheticSourceStep) Do(_ context.Context, run *model.Run) error {
	records, err := synthetic.Records()
	if err != nil {
		return fmt.Errorf("failed to load synthetic records: %w", err)
	}
	run.Records = records
	run.PayloadDigest = fetcher.Digest(synthetic.JSON())
	return nil
}

// ResponseCheckStep validates the status code of the fetch.
type ResponseCheckStep struct{}

// NewResponseCheckStep creates a response check step.
func NewResponseCheckStep() *ResponseCheckStep {
	return &ResponseCheckStep{}
}

// Name returns the step name.
func (s *ResponseCheckStep) Name() string {
	return "response_check"
}

// Do executes the response check step.
func (s *ResponseCheckStep) Do(_ context.Context, run *model.Run) error {
	valid, defects := validator.ValidateStatus(run.StatusCode)
	run.ResponseChecked = true
	run.ResponseValid = valid
	run.AddDefects(defects...)
	return nil
}

// RecordCheckStep validates every record of the run.
type RecordCheckStep struct {
	concurrency int
	logger      *slog.Logger
}

// RecordCheckStepOption configures a RecordCheckStep.
type RecordCheckStepOption func(*RecordCheckStep)

// WithRecordConcurrency validates up to n records at once.
func WithRecordConcurrency(n int) RecordCheckStepOption {
	return func(s *RecordCheckStep) {
		s.concurrency = n
	}
}

// WithRecordLogger sets a custom logger for the record check step.
func WithRecordLogger(logger *slog.Logger) RecordCheckStepOption {
	return func(s *RecordCheckStep) {
		s.logger = logger
	}
}

// NewRecordCheckStep creates a record check step.
func NewRecordCheckStep(opts ...RecordCheckStepOption) *RecordCheckStep {
	s := &RecordCheckStep{
		concurrency: 1,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *RecordCheckStep) Name() string {
	return "record_check"
}

// Do executes the record check step.
func (s *RecordCheckStep) Do(ctx context.Context, run *model.Run) error {
	results, err := validator.ValidateAll(ctx, run.Records, validator.WithConcurrency(s.concurrency))
	if err != nil {
		return fmt.Errorf("record validation interrupted: %w", err)
	}

	run.Results = results
	defects := validator.Defects(results)
	run.AddDefects(defects...)

	s.logger.Debug("records validated",
		"records", len(results),
		"defects", len(defects),
	)
	return nil
}

// ReportStep aggregates the run's defects into its report.
type ReportStep struct{}

// NewReportStep creates a report step.
func NewReportStep() *ReportStep {
	return &ReportStep{}
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Do executes the report step.
func (s *ReportStep) Do(_ context.Context, run *model.Run) error {
	run.GenerateReport()
	return nil
}

// DefaultPipelineConfig holds configuration for the standard pipelines.
type DefaultPipelineConfig struct {
	// Concurrency is the number of records validated at once.
	Concurrency int
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineConcurrency sets the record validation concurrency.
func WithPipelineConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Concurrency = n
	}
}

func newDefaultConfig(configOpts []DefaultPipelineOption) *DefaultPipelineConfig {
	cfg := &DefaultPipelineConfig{Concurrency: 1}
	for _, opt := range configOpts {
		opt(cfg)
	}
	return cfg
}

// LivePipeline creates the pipeline for a live run against url:
// fetch, response check, record check, report.
func LivePipeline(f *fetcher.Fetcher, url string, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)
	cfg := newDefaultConfig(configOpts)

	p.AddSteps(
		NewFetchStep(f, url),
		NewResponseCheckStep(),
		NewRecordCheckStep(
			WithRecordConcurrency(cfg.Concurrency),
			WithRecordLogger(p.logger),
		),
		NewReportStep(),
	)

	return p
}

// SyntheticPipeline creates the pipeline for a run over the synthetic data
// set. There is no response to check, so only record defects are reported.
func SyntheticPipeline(pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)
	cfg := newDefaultConfig(configOpts)

	p.AddSteps(
		NewSyntheticSourceStep(),
		NewRecordCheckStep(
			WithRecordConcurrency(cfg.Concurrency),
			WithRecordLogger(p.logger),
		),
		NewReportStep(),
	)

	return p
}
