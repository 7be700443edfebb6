// Package sqlite implements a durable db.KVDB backed by a single SQLite file,
// using the pure Go driver modernc.org/sqlite (no cgo).
//
// Every shard replica owns its own file. Entries live in a WITHOUT ROWID table
// keyed by the string key, so Scan is an index range read in key order. The write
// index is stored in a meta table and updated in the same transaction as the data,
// which lets a replicated state machine resume from WriteIdx() after a restart
// without re-applying log entries.
//
// Save and Load use the snapshot codec from the util package, so snapshots are
// interchangeable with the maple engine.
package sqlite
