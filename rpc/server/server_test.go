package server

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/common"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/serializer"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/transport/unix"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, engine string) *rpcServer {
	dir := t.TempDir()
	s := NewRPCServer(common.ServerConfig{
		Shards: []common.ServerShard{
			{ShardID: 1, Type: common.ShardTypeLocal},
			{ShardID: 2, Type: common.ShardTypeLocal},
		},
		Engine:        engine,
		DataDir:       dir,
		TimeoutSecond: 5,
		LogLevel:      "error",
		Transport:     common.ServerTransportConfig{Endpoint: filepath.Join(dir, "medrec.sock")},
	}, unix.NewUnixServerTransport(), serializer.NewBinarySerializer())

	require.NoError(t, s.init())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// call runs a request through the server handler without a transport
func call(t *testing.T, s *rpcServer, shardID uint64, req *common.Message) common.Message {
	t.Helper()
	data, err := s.serializer.Serialize(*req)
	require.NoError(t, err)

	var resp common.Message
	require.NoError(t, s.serializer.Deserialize(s.handle(shardID, data), &resp))
	return resp
}

func TestHandleRecordOperations(t *testing.T) {
	for _, engine := range []string{"maple", "sqlite"} {
		t.Run(engine, func(t *testing.T) {
			s := newTestServer(t, engine)

			resp := call(t, s, 1, common.NewAddRequest(records.Payload{Name: "A", Complaint: "cough"}))
			require.NoError(t, resp.Error())
			require.Equal(t, []records.Record{{ID: 1, Name: "A", Complaint: "cough"}}, resp.Records)

			resp = call(t, s, 1, common.NewUpdateRequest(1, records.Payload{Name: "B", Complaint: "fever"}))
			require.NoError(t, resp.Error())
			require.Equal(t, []records.Record{{ID: 1, Name: "B", Complaint: "fever"}}, resp.Records)

			resp = call(t, s, 1, common.NewListRequest(0, 10))
			require.NoError(t, resp.Error())
			require.Len(t, resp.Records, 1)

			resp = call(t, s, 1, common.NewDeleteRequest(1))
			require.NoError(t, resp.Error())
			require.Equal(t, "B", resp.Records[0].Name)

			resp = call(t, s, 1, common.NewGetRequest(1))
			require.Equal(t, common.ErrCNotFound, resp.Code)
			require.ErrorIs(t, resp.Error(), records.ErrNotFound)
			require.EqualError(t, resp.Error(), "Patient record with id=1 not found")
		})
	}
}

func TestShardsAreIndependent(t *testing.T) {
	s := newTestServer(t, "maple")

	call(t, s, 1, common.NewAddRequest(records.Payload{Name: "one"}))
	resp := call(t, s, 2, common.NewAddRequest(records.Payload{Name: "two"}))
	require.Equal(t, uint64(1), resp.Records[0].ID)

	resp = call(t, s, 2, common.NewGetRequest(1))
	require.Equal(t, "two", resp.Records[0].Name)
}

func TestHandleInvalidRequests(t *testing.T) {
	s := newTestServer(t, "maple")

	resp := call(t, s, 99, common.NewGetRequest(1))
	require.Equal(t, common.MsgTError, resp.MsgType)
	require.Equal(t, common.ErrCInvalidRequest, resp.Code)
	require.Contains(t, resp.Err, "shard 99 not found")

	resp = call(t, s, 1, &common.Message{MsgType: common.MsgTSuccess})
	require.Equal(t, common.ErrCInvalidRequest, resp.Code)

	var msg common.Message
	require.NoError(t, s.serializer.Deserialize(s.handle(1, []byte{1}), &msg))
	require.Equal(t, common.ErrCInvalidRequest, msg.Code)
	require.Contains(t, msg.Err, "deserialize")
}

func TestInitRejectsBadConfig(t *testing.T) {
	cases := map[string]common.ServerConfig{
		"engine": {
			Shards:   []common.ServerShard{{ShardID: 1, Type: common.ShardTypeLocal}},
			Engine:   "leveldb",
			LogLevel: "info",
		},
		"log level": {
			LogLevel: "loud",
		},
		"duplicate shard": {
			Shards: []common.ServerShard{
				{ShardID: 1, Type: common.ShardTypeLocal},
				{ShardID: 1, Type: common.ShardTypeLocal},
			},
			LogLevel: "info",
		},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewRPCServer(cfg, unix.NewUnixServerTransport(), serializer.NewJSONSerializer())
			require.Error(t, s.init())
			_ = s.Close()
		})
	}
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, "maple")
	call(t, s, 1, common.NewAddRequest(records.Payload{Name: "A"}))
	call(t, s, 1, common.NewGetRequest(42))

	rec := httptest.NewRecorder()
	s.metrics.handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	require.Contains(t, body, `medrec_requests_total{shard="1",op="add",code="none"} 1`)
	require.Contains(t, body, `medrec_requests_total{shard="1",op="get",code="not_found"} 1`)
	require.Contains(t, body, `medrec_shards_started_total{type="lstore"} 2`)
	require.True(t, strings.Contains(body, "medrec_request_duration_seconds_bucket"))

	// requests to shards the server does not host share one series
	for id := uint64(1000); id < 1500; id++ {
		call(t, s, id, common.NewAddRequest(records.Payload{Name: "A"}))
	}

	rec = httptest.NewRecorder()
	s.metrics.handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body = rec.Body.String()

	var series []string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "medrec_requests_total{") {
			series = append(series, line)
		}
	}
	require.Len(t, series, 3)
	require.Contains(t, body, `medrec_requests_total{shard="unknown",op="unknown",code="invalid_request"} 500`)
	require.NotContains(t, body, `shard="1000"`)
}

func TestEncodeFallsBackToErrorResponse(t *testing.T) {
	s := newTestServer(t, "maple")
	s.serializer = failingSerializer{serializer.NewJSONSerializer()}

	out := s.encode(common.NewRecordResponse(common.MsgTRecGet, records.Record{ID: 1}, nil))
	require.True(t, bytes.Contains(out, []byte("failed to serialize response")))
}

// failingSerializer refuses to serialize anything but error responses
type failingSerializer struct {
	serializer.IRPCSerializer
}

func (f failingSerializer) Serialize(msg common.Message) ([]byte, error) {
	if msg.MsgType != common.MsgTError {
		return nil, errFailing
	}
	return f.IRPCSerializer.Serialize(msg)
}

var errFailing = errors.New("serializer broken")
