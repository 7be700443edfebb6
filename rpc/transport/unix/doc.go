// Package unix implements the RPC transport over Unix domain sockets for clients and
// servers on the same machine. It reuses the base package for framing, pooling and
// request multiplexing and only supplies the socket specific connectors.
//
// The default server buffer size is 64 KB. An existing socket file at the endpoint
// path is removed before listening.
package unix
