package client

import (
	"fmt"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/common"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/serializer"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/transport"
)

// NewRPCRecordService creates a client for the registry on the given shard.
// The transport is connected with config; Close releases it.
func NewRPCRecordService(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (*RPCRecordService, error) {
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &RPCRecordService{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

// RPCRecordService implements records.IRecordService by forwarding every call to a medrec server
type RPCRecordService struct {
	rpcClientAdapter
}

var _ records.IRecordService = (*RPCRecordService)(nil)

// Close closes the underlying transport
func (c *RPCRecordService) Close() error {
	return c.transport.Close()
}

// --------------------------------------------------------------------------
// Interface Methods (docu see records.IRecordService)
// --------------------------------------------------------------------------

func (c *RPCRecordService) GetPatientRecord(id uint64) (records.Record, error) {
	return c.single(common.NewGetRequest(id))
}

func (c *RPCRecordService) AddPatientRecord(payload records.Payload) (records.Record, error) {
	return c.single(common.NewAddRequest(payload))
}

func (c *RPCRecordService) UpdatePatientRecord(id uint64, payload records.Payload) (records.Record, error) {
	return c.single(common.NewUpdateRequest(id, payload))
}

func (c *RPCRecordService) DeletePatientRecord(id uint64) (records.Record, error) {
	return c.single(common.NewDeleteRequest(id))
}

func (c *RPCRecordService) ListPatientRecords(after uint64, limit int) ([]records.Record, error) {
	resp, err := c.invokeRPCRequest(common.NewListRequest(after, limit))
	if err != nil {
		return nil, err
	}
	if resp.Records == nil {
		return []records.Record{}, nil
	}
	return resp.Records, nil
}

// single sends a request that is answered with exactly one record
func (c *RPCRecordService) single(req *common.Message) (records.Record, error) {
	resp, err := c.invokeRPCRequest(req)
	if err != nil {
		return records.Record{}, err
	}
	if len(resp.Records) != 1 {
		return records.Record{}, fmt.Errorf("RPC RecordClient - expected one record in %s response, got %d", req.MsgType, len(resp.Records))
	}
	return resp.Records[0], nil
}
