// Package db provides a standardized interface for the key-value engines that
// hold the patient record registry. It defines the KVDB interface that allows for
// consistent interaction with various database backends while abstracting
// implementation details.
//
// The package focuses on:
//   - A unified interface for key-value operations
//   - Ordered prefix scans (the record map is ordered by id)
//   - Feature discovery through capability flags
//   - Standardized persistence operations
//
// Key Components:
//
//   - KVDB Interface: The core interface that all database implementations must satisfy.
//     It provides methods for basic operations (Set, Get, Has, Delete), ordered
//     iteration (Scan), metadata retrieval (GetInfo) and persistence (Save, Load).
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     can advertise through the SupportsFeature method. This allows clients to
//     discover supported operations at runtime.
//
//   - Implementation Identifiers: The Implementation type provides string constants
//     for the available backends ("maple" and "sqlite").
//
//   - Database Information: The DatabaseInfo structure provides standardized
//     reporting on database state, including size statistics, implementation type,
//     and implementation-specific metadata. Size statistics may be estimates.
//
// Note on the write index:
//   - All write operations take a write-index parameter that serves as a logical
//     timestamp. It records when an entry was modified and advances the database's
//     global logical clock.
//   - Monotonicity Guarantee: All implementations must ensure that the write-index only
//     increases monotonically. Attempts to set a write-index lower than the current
//     one must be ignored.
//   - Durable engines persist the write index together with the data. A replicated
//     state machine uses WriteIdx() after a restart to skip log entries that were
//     already applied to the durable engine.
//
// Related Packages:
//
// The engines/maple package provides a sharded in-memory implementation built on
// xsync maps. The engines/sqlite package provides a durable implementation backed by a
// SQLite file. The util package contains hashing, size statistics and the snapshot
// codec shared by both engines. The testing package provides a conformance suite
// (RunKVDBTests) that every engine runs from its own tests.
package db
