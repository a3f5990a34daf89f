package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate and Config.ValidateMonitor
// so callers can use errors.Is for programmatic handling.
var (
	// ErrNothingToRun is returned when both the live and the synthetic
	// pass are skipped.
	ErrNothingToRun = errors.New("nothing to run: --skip-live and --skip-synthetic cannot be used together")

	// ErrInvalidURL is returned when the catalog URL is not an absolute
	// http or https URL.
	ErrInvalidURL = errors.New("invalid catalog URL: must be an absolute http or https URL")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when fewer than one record would be
	// validated at a time.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrNoOutput is returned when an enabled pass has no results file.
	ErrNoOutput = errors.New("no output file: every enabled pass needs a results file")

	// ErrSameOutput is returned when the live and synthetic passes would
	// write the same results file.
	ErrSameOutput = errors.New("conflicting output files: --output and --synthetic-output must differ")

	// ErrInvalidSchedule is returned when the monitor schedule is not a
	// valid cron expression.
	ErrInvalidSchedule = errors.New("invalid schedule: must be a cron expression or descriptor such as @every 1h")

	// ErrInvalidKeepRuns is returned when the number of runs to keep is negative.
	ErrInvalidKeepRuns = errors.New("invalid keep: must be non-negative")
)
