// Package util provides utility components for
// database implementations that satisfy the db.KVDB interface.
//
// The package contains:
//   - statistics: Size histogram and distribution statistics used by GetInfo
//   - functions: Hash functions and seed generation
//   - snapshot: The binary snapshot format written by Save and read by Load
//
// The snapshot format is shared by all engines, so a snapshot taken from one
// engine can be restored into another (e.g. seeding a sqlite file from a
// maple dump).
package util
