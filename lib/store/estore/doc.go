// Package estore implements store.IStore on top of an etcd cluster using the
// official client (go.etcd.io/etcd/client/v3).
//
// Every shard owns the key prefix /medrec/shard/<id>/, so several shards (and several
// medrec servers) can share one etcd cluster. etcd provides replication and durability;
// the medrec server itself stays stateless for estore shards.
//
// Read-modify-write operations are expressed as etcd transactions:
//
//   - SetIfPresent: Put guarded by CreateRevision(key) > 0
//   - Delete: DeleteRange with WithPrevKV, the previous value is returned by etcd
//   - Increment: optimistic compare-and-swap on ModRevision (CreateRevision == 0 for
//     a missing counter), retried until the transaction succeeds
//
// Scan maps directly to a sorted, limited range read.
package estore
