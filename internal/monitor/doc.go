// Package monitor repeats the live validation run on a cron schedule.
//
// Each scheduled run is recorded in the Prometheus collector, saved to the
// run history and followed by pruning of old runs, so a long-running
// monitor keeps a bounded history and an up-to-date metrics endpoint.
package monitor
