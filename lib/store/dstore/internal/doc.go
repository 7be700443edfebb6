// Package internal provides the communication protocol structures and serialization
// logic for the dstore package. It defines the format used to transmit operations
// between the store client and the replicated state machine.
//
// This package is intended for internal use by the dstore implementation and should
// not be imported directly by external code.
//
//   - Command System: Write operations (Set, SetIfPresent, Delete, Increment). Commands
//     are serialized, proposed to the RAFT cluster and executed on the state machine of
//     every replica. The result payload is returned to the proposing client.
//
//   - Query System: Read operations (Get, Has, Scan, GetDBInfo). Queries are executed
//     locally on the state machine and therefore do not require serialization.
//
// Command Format:
//
//	- 1 byte: Command type
//	- 4 bytes: Key length (uint32, big endian)
//	- N bytes: Key data
//	- M bytes: Value data (optional, only present for Set-type operations)
//
// Result Format:
//
//	sm.Result.Value holds the store.RetCode. On success sm.Result.Data holds:
//
//	- Set: nothing
//	- SetIfPresent: one presence byte
//	- Delete: one presence byte followed by the removed value
//	- Increment: the new counter value (8 bytes, big endian)
//
//	On failure sm.Result.Data holds the error message.
package internal
