// Package dstore implements store.IStore on top of a Dragonboat RAFT shard.
// Every medrec replica hosting the shard holds a full copy of the registry, and
// all replicas agree on the order in which record ids are issued.
//
// Components:
//
//   - Store (store.go): proposes commands with SyncPropose and reads with
//     SyncRead. ErrSystemBusy is retried a few times with a short delay,
//     everything else fails after the configured timeout.
//
//   - State machine (statemachine.go): a Dragonboat IConcurrentStateMachine
//     wrapping a db.KVDB. Update applies the committed entries in log order and
//     uses the log index as write index. Lookup answers queries.
//
//   - internal: the Command and Query codecs, i.e. the bytes stored in the raft log.
//
// Read-modify-write commands (SetIfPresent, Delete, Increment) read and write
// inside one Update call. Update is never called concurrently, so two replicas
// adding a record at the same time always receive different ids, and a delete
// returns exactly the value it removed.
//
// Snapshots are fuzzy: SaveSnapshot streams db.KVDB.Save while writes continue,
// RecoverFromSnapshot replaces the engine content with db.KVDB.Load and the log
// entries committed after the snapshot are replayed on top.
//
// With the sqlite engine the data survives a restart without a snapshot. The
// engine persists the index of the last applied entry and Update skips every
// entry with a lower or equal index, so a replay does not apply entries twice.
//
// Example:
//
//	nh, err := dragonboat.NewNodeHost(nodeHostConfig)
//	if err != nil { ... }
//
//	dbFactory := func(uint64) (db.KVDB, error) { return maple.NewMapleDB(nil), nil }
//	err = nh.StartConcurrentReplica(members, false, dstore.CreateStateMachineFactory(dbFactory), shardConfig)
//	if err != nil { ... }
//
//	st := dstore.NewDistributedStore(nh, shardID, 5*time.Second)
//	svc := records.NewService(st)
//
// A shard needs a majority of its replicas to accept writes. Use lstore when a
// single process is enough.
package dstore
