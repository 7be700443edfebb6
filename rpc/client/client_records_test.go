package client_test

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records"
	recordstesting "github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records/testing"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/client"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/common"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/serializer"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/server"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/transport"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/transport/http"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/transport/tcp"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/transport/unix"
	"github.com/stretchr/testify/require"
)

const numShards = 16

type transportPair struct {
	server func() transport.IRPCServerTransport
	client func() transport.IRPCClientTransport
	// endpoint returns a fresh endpoint for the transport
	endpoint func(t *testing.T) string
}

var transports = map[string]transportPair{
	"unix": {unix.NewUnixServerTransport, unix.NewUnixClientTransport, socketPath},
	"tcp":  {tcp.NewTCPServerTransport, tcp.NewTCPClientTransport, freeAddr},
	"http": {http.NewHttpServerTransport, http.NewHttpClientTransport, freeAddr},
}

var serializers = map[string]func() serializer.IRPCSerializer{
	"binary":  serializer.NewBinarySerializer,
	"msgpack": serializer.NewMsgpackSerializer,
	"json":    serializer.NewJSONSerializer,
	"gob":     serializer.NewGOBSerializer,
}

func socketPath(t *testing.T) string {
	// unix socket paths are limited to ~100 bytes, t.TempDir() can be longer
	dir, err := os.MkdirTemp("", "medrec")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, "rpc.sock")
}

func freeAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

// startServer runs a medrec server with numShards maple shards and returns its endpoint
func startServer(t *testing.T, pair transportPair, newSerializer func() serializer.IRPCSerializer) string {
	endpoint := pair.endpoint(t)

	shards := make([]common.ServerShard, numShards)
	for i := range shards {
		shards[i] = common.ServerShard{ShardID: uint64(i + 1), Type: common.ShardTypeLocal}
	}

	s := server.NewRPCServer(common.ServerConfig{
		Shards:        shards,
		Engine:        "maple",
		TimeoutSecond: 5,
		LogLevel:      "error",
		Transport: common.ServerTransportConfig{
			Endpoint:       endpoint,
			WorkersPerConn: 4,
		},
	}, pair.server(), newSerializer())

	done := make(chan error, 1)
	go func() { done <- s.Serve() }()
	t.Cleanup(func() {
		require.NoError(t, s.Close())
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return endpoint
}

func clientConfig(endpoint string) common.ClientConfig {
	return common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{endpoint},
			ConnectionsPerEndpoint: 2,
			RetryCount:             3,
		},
	}
}

// connect waits until the server answers and returns a client for shardID
func connect(t *testing.T, pair transportPair, newSerializer func() serializer.IRPCSerializer, endpoint string, shardID uint64) *client.RPCRecordService {
	var svc *client.RPCRecordService
	require.Eventually(t, func() bool {
		c, err := client.NewRPCRecordService(shardID, clientConfig(endpoint), pair.client(), newSerializer())
		if err != nil {
			return false
		}
		if _, err := c.ListPatientRecords(0, 1); err != nil {
			_ = c.Close()
			return false
		}
		svc = c
		return true
	}, 5*time.Second, 20*time.Millisecond)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestRecordServiceOverRPC(t *testing.T) {
	for name, pair := range transports {
		t.Run(name, func(t *testing.T) {
			endpoint := startServer(t, pair, serializer.NewBinarySerializer)

			var nextShard atomic.Uint64
			recordstesting.RunRecordServiceTests(t, name, func() records.IRecordService {
				shard := nextShard.Add(1)
				require.LessOrEqual(t, shard, uint64(numShards), "not enough shards")
				return connect(t, pair, serializer.NewBinarySerializer, endpoint, shard)
			})
		})
	}
}

func TestSerializersOverRPC(t *testing.T) {
	pair := transports["unix"]
	for name, newSerializer := range serializers {
		t.Run(name, func(t *testing.T) {
			endpoint := startServer(t, pair, newSerializer)
			svc := connect(t, pair, newSerializer, endpoint, 1)

			rec, err := svc.AddPatientRecord(records.Payload{Name: "A", Complaint: "cough"})
			require.NoError(t, err)
			require.Equal(t, records.Record{ID: 1, Name: "A", Complaint: "cough"}, rec)

			_, err = svc.DeletePatientRecord(2)
			require.True(t, errors.Is(err, records.ErrNotFound))
			require.EqualError(t, err, "Couldn't delete patient record with id=2. Record not found.")

			list, err := svc.ListPatientRecords(0, 1<<32)
			require.NoError(t, err)
			require.Equal(t, []records.Record{rec}, list)

			list, err = svc.ListPatientRecords(1, 0)
			require.NoError(t, err)
			require.Empty(t, list)
		})
	}
}

func TestUnknownShard(t *testing.T) {
	pair := transports["unix"]
	endpoint := startServer(t, pair, serializer.NewBinarySerializer)
	connect(t, pair, serializer.NewBinarySerializer, endpoint, 1)

	svc, err := client.NewRPCRecordService(numShards+1, clientConfig(endpoint), pair.client(), serializer.NewBinarySerializer())
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.GetPatientRecord(1)
	require.Error(t, err)
	require.False(t, errors.Is(err, records.ErrNotFound))
	require.Contains(t, err.Error(), fmt.Sprintf("shard %d not found", numShards+1))
}

func TestConnectFails(t *testing.T) {
	_, err := client.NewRPCRecordService(1, clientConfig(socketPath(t)), unix.NewUnixClientTransport(), serializer.NewBinarySerializer())
	require.Error(t, err)

	_, err = client.NewRPCRecordService(1, common.ClientConfig{}, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
	require.Error(t, err)
}
