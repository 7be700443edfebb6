// Package maple implements an in-memory key-value database (KVDB) that holds
// the record registry of a shard when no durability is required, or when
// durability is provided by a layer above it (raft log and snapshots).
//
// Key Components:
//
//   - mapleImpl: The database structure implementing db.KVDB. It manages the shards and
//     a monotonically increasing write index. The write index is not generated by maple
//     itself. The caller passes it with every write (the raft log index in a replicated
//     store, a local counter otherwise).
//
//   - Shard: A partition of the key space backed by an xsync.MapOf. Keys are hashed
//     with HashString and a per-instance seed, and the upper bits of the hash select
//     the shard.
//
//   - Entry: The stored value together with its original key and the write index of
//     the last modification.
//
// Internal Mechanisms:
//
//   - Stale Write Prevention: A write is only applied if its write index is greater
//     than or equal to the index stored with the entry. Out-of-order writes never
//     overwrite newer data.
//
//   - Ordered Scans: The shards are hash maps and have no key order. Scan visits every
//     shard, filters by prefix and lower bound, then sorts and truncates. This is linear
//     in the number of entries, which is acceptable for the registry sizes maple is used for.
//     Use the sqlite engine when the registry grows large.
//
//   - Persistence Format: Save and Load use the snapshot codec from the util package.
//     Save takes a fuzzy snapshot without blocking writers. Load builds a fresh set
//     of shards and swaps them in atomically, so a failed Load leaves the database
//     untouched.
package maple
