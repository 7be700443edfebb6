// Package http implements an HTTP based transport for the medrec RPC system.
//
// Every request is a "POST /{shardId}" whose body is the serialized message; the
// response body is the serialized reply. The client selects endpoints round-robin and
// retries failed requests up to RetryCount times.
//
// Key Components:
//
//   - httpClientTransport: Implements IRPCClientTransport on top of a pooled
//     http.Client. Endpoints without a scheme are treated as http.
//
//   - httpServerTransport: Implements IRPCServerTransport with an http.Server. At
//     log level debug every request is logged with its status and duration.
//
// Thread Safety:
//
//	The client transport is thread-safe and can be used concurrently.
package http
