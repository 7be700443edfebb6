// Package server implements the medrec RPC server. It hosts one or more patient
// record registries (shards), routes incoming requests to them and reports request
// metrics.
//
// Key Components:
//
//   - IRPCServerAdapter: Translates a request message into a call on a
//     records.IRecordService and the result back into a response message.
//
//   - NewRecordsServerAdapter: The adapter for the patient record operations
//     (get, add, update, delete, list).
//
//   - NewRPCServer: Creates a server with the given transport and serializer. Serve
//     creates the shards and blocks in the transport, Close shuts everything down.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 1, Type: common.ShardTypeLocal},
//	    {ShardID: 2, Type: common.ShardTypeRaft},
//	  },
//	  Engine:        "sqlite",
//	  DataDir:       "/var/lib/medrec",
//	  Transport:     common.ServerTransportConfig{Endpoint: "0.0.0.0:8080"},
//	  TimeoutSecond: 5,
//	  LogLevel:      "info",
//	}
//
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport(), serializer.NewBinarySerializer())
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Shard types (can be mixed within a single server):
//
//   - lstore: The registry lives in a local engine (maple or sqlite).
//
//   - dstore: The registry is replicated with Raft. RTTMillisecond, SnapshotEntries,
//     CompactionOverhead, DataDir, ReplicaID and ClusterMembers must be configured.
//
//   - estore: The registry lives in etcd under /medrec/shard/<id>/. EtcdEndpoints must
//     be configured.
//
// Metrics:
//
// If MetricsEndpoint is set, GET /metrics on that address serves request counters
// (medrec_requests_total by shard, operation and error code) and latency histograms
// (medrec_request_duration_seconds) in prometheus format.
//
// Thread Safety:
//
//	Requests are handled concurrently. The registries serialize their own operations.
//	Serve should be called only once.
package server
