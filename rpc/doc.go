// Package rpc provides the remote procedure call layer of medrec. It connects
// record clients with the registries hosted by a server.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, configuration structures, and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP).
//
//   - serializer: Message serialization with multiple format options (Binary, JSON,
//     GOB, MessagePack) for converting between Message objects and byte arrays.
//
//   - client: RPC client implementing records.IRecordService, so a remote
//     registry can be used like a local one.
//
//   - server: RPC server that hosts one registry per shard and dispatches
//     incoming requests to it.
package rpc
