// Package client implements the medrec RPC client. RPCRecordService implements
// records.IRecordService and forwards every call to the registry of one shard on a
// medrec server, so code written against the interface works the same with a local
// records.Service and a remote server.
//
// Errors:
//
// A not found response is returned as *records.NotFoundError, so
// errors.Is(err, records.ErrNotFound) works on the client side as well. Transport and
// server failures are returned as plain errors.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:8080"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	svc, err := client.NewRPCRecordService(1, config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	if err != nil {
//	  log.Fatal(err)
//	}
//	defer svc.Close()
//
//	rec, _ := svc.AddPatientRecord(records.Payload{Name: "A", Complaint: "cough"})
//	_, err = svc.GetPatientRecord(rec.ID + 1)
//	// errors.Is(err, records.ErrNotFound) == true
//
// Performance Considerations:
//
//   - More connections per endpoint help when many goroutines share one client.
//
//   - The binary serializer gives the smallest payloads and the best throughput.
//
// Thread Safety:
//
//	RPCRecordService is safe for concurrent use from multiple goroutines.
package client
