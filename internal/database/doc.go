// Package database provides SQLite-based storage for prodcheck.
//
// RunDB keeps one row per completed validation run: the run metadata, the
// report and the detailed defects. The history command lists and compares
// stored runs, and the monitor command writes a row for every scheduled run.
//
// The database is a single file in the XDG data directory, opened through
// the CGO-free modernc.org/sqlite driver in WAL mode.
package database
