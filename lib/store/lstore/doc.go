// Package lstore implements a local, single-node key-value store based on the
// store.IStore interface. It is a thin wrapper around any db.KVDB implementation
// with automatic write index management. Whether data survives a restart depends on
// the engine: maple keeps everything in memory, sqlite persists every write.
//
// Implementation Details:
//
//   - Write Index Management: The store keeps an atomic counter that is incremented
//     with each write operation and passed to the engine as logical timestamp. The
//     counter starts at the engine's WriteIdx(), so a reopened sqlite file keeps
//     counting from where it stopped.
//
//   - Read-Modify-Write: SetIfPresent, Delete and Increment read a value and write a
//     new one. They are serialized by a mutex, which makes them atomic with respect
//     to each other and to Set. Plain reads do not take the mutex.
//
//   - Feature Detection: Before executing operations, the store checks if the underlying
//     db.KVDB implementation supports the requested feature. Unsupported operations
//     return RetCUnsupportedOperation.
//
// Usage Example:
//
//	factory := func(uint64) (db.KVDB, error) { return maple.NewMapleDB(nil), nil }
//	s, err := lstore.NewLocalStore(1, factory)
//
//	id, err := s.Increment("__id_counter")
//	err = s.Set("record/00000000000000000001", encoded)
//
// For replicated deployments use the dstore package, which provides a RAFT based
// implementation of the same interface.
package lstore
