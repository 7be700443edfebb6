// Package transport defines the interfaces for RPC communication between medrec
// clients and servers. All transport implementations fulfill the same contract, so
// client and server code is independent of the network protocol.
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     handles connection management and request sending.
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     receives requests and routes them to the handler together with the shard id.
//
//   - ServerHandleFunc: Function type for request handling callbacks.
//
// Implementations live in the http, tcp and unix subpackages. The tcp and unix
// transports share the framed, multiplexed implementation of the base package.
package transport
