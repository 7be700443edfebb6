// Package base provides the stream transport shared by the tcp and unix transports.
// It implements framing, request multiplexing and connection handling independent of
// the network protocol; protocol specific parts are supplied by connectors.
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     (dial, listen, socket options).
//
//   - clientTransport: Manages several connections per endpoint with round-robin
//     selection. Requests are written as frames tagged with a request id, a reader
//     goroutine per connection hands responses back to the waiting callers. A broken
//     connection fails its pending requests and is dialed again.
//
//   - serverTransport: Accepts connections and runs up to WorkersPerConn requests of
//     a connection concurrently. Close stops the listener and closes all connections.
//
// Frame format (big endian):
//
//	8 bytes shard id | 8 bytes request id | 4 bytes length | payload
//
// Thread Safety:
//
//	All public methods are thread-safe.
package base
