// Package serializer provides message serialization for the medrec RPC system.
// It defines a common interface and several implementations for encoding and
// decoding common.Message values exchanged between client and server.
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - binarySerializerImpl: Custom binary format optimized for speed and size. A flags
//     byte marks which of the eight optional fields are present, absent fields cost
//     nothing on the wire.
//
//   - msgpackSerializerImpl: MessagePack encoding (vmihailenco/msgpack). Compact and
//     self describing, a good choice when non-Go clients talk to the server.
//
//   - jsonSerializerImpl: JSON encoding, useful for debugging or interoperability
//     with other systems, but with lower performance.
//
//   - gobSerializerImpl: Go's gob encoding. Works, but produces larger payloads than
//     the other implementations for the small messages used here.
//
// Client and server must use the same serializer.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	serializer := serializer.NewBinarySerializer()
//	data, err := serializer.Serialize(message)
//	// ... send data ...
//	var receivedMsg common.Message
//	err = serializer.Deserialize(receivedData, &receivedMsg)
package serializer
