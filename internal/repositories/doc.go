// Package repositories implements SQLite persistence for import history.
//
// [RunRepository] stores each finished import together with the outcome of every spreadsheet row.
// Runs are soft-deleted via a deleted_at timestamp and excluded from queries once deleted.
//
// Sequence numbers provide stable, human-readable references (e.g., import #15) independent of UUIDs.
// The [NextSequence] function atomically increments named counters in the sequences table.
package repositories
