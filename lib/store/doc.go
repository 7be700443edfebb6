// Package store provides the key-value storage layer the record registry is built on.
// It serves as an abstraction layer over the lower-level db.KVDB implementations, adding
// write index management, atomic read-modify-write primitives and unified error reporting.
//
// Key Components:
//
//   - IStore Interface: The abstraction all backends share. Besides plain Set/Get/Delete it
//     offers the primitives a registry needs to stay consistent without external locking:
//     Increment (identifier generation), SetIfPresent (update of an existing record),
//     Delete returning the removed value, and Scan (ordered listing).
//
//   - Error System: Storage failures are reported as *Error with a RetCode, so callers and
//     the RPC layer can distinguish internal errors from unsupported or invalid operations.
//
//   - DBFactory: Creates the db.KVDB a store uses for a shard, so the engine (maple or sqlite)
//     is chosen by configuration.
//
// Implementations:
//
//   - Local Store (lstore): Uses a db.KVDB directly on a single node. Read-modify-write
//     operations are serialized by a mutex.
//
//   - Distributed Store (dstore): Replicates every write through the Dragonboat RAFT
//     library. Read-modify-write operations are executed inside the replicated state
//     machine, so they are applied atomically and in the same order on every replica.
//
//   - Etcd Store (estore): Keeps the data in an etcd cluster. Read-modify-write operations
//     use etcd transactions (compare-and-swap on the key revision).
//
// The testing sub package contains a conformance suite (RunStoreTests) that every
// implementation runs from its own tests.
package store
