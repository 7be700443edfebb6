// Package common provides the data structures shared by the medrec RPC client,
// server and transports.
//
// Key Components:
//
//   - Message: The single structure used for all requests and responses. Which fields
//     are set depends on the MessageType. Factory functions create the requests and
//     responses of every patient record operation.
//
//   - ErrorCode: Classifies response errors. ErrCNotFound is turned back into a
//     *records.NotFoundError by Message.Error, so the not found condition survives the
//     round trip.
//
//   - ServerConfig / ClientConfig: Configuration of server nodes (shards, engine, RAFT,
//     etcd, transport) and clients (endpoints, retries, timeouts), including helpers
//     converting the server configuration to Dragonboat configurations.
//
//   - Logger: A logger factory for Dragonboat's logger facade, used by every package of
//     the module. InitLoggers installs it and sets the level of all loggers.
package common
