// Package history stores the outcome of download runs in SQLite.
//
// Each run is one row of the runs table: the targets, start and end time,
// the final status and the counters. The database lives in the xenforo-dl
// data directory and is shared by every run on the machine.
package history
