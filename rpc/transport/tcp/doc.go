// Package tcp implements the TCP transport of the medrec RPC system on top of the
// base package, which provides framing, connection pooling and request multiplexing.
//
// The connectors apply the TCPConf options (no delay, keep-alive, linger) and the
// SocketConf buffer sizes to every connection. The default server buffer size is 512 KB.
package tcp
