package client

import (
	"fmt"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/common"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/serializer"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter stores everything needed to send requests to one shard
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invokeRPCRequest sends a request to the shard and returns the decoded response.
// Error responses are returned as errors: a not found response becomes a
// *records.NotFoundError, everything else a plain error with the server message.
// It also checks that the type of the response matches the request.
func (a *rpcClientAdapter) invokeRPCRequest(req *common.Message) (*common.Message, error) {
	reqBytes, err := a.serializer.Serialize(*req)
	if err != nil {
		return nil, err
	}

	respBytes, err := a.transport.Send(a.shardId, reqBytes)
	if err != nil {
		return nil, err
	}

	resp := &common.Message{}
	if err := a.serializer.Deserialize(respBytes, resp); err != nil {
		return nil, fmt.Errorf("RPC RecordClient - failed to decode response: %w", err)
	}

	if err := resp.Error(); err != nil {
		return nil, err
	}
	if resp.MsgType == common.MsgTError {
		return nil, fmt.Errorf("RPC RecordClient - server returned an error without message")
	}

	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("RPC RecordClient - Unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	return resp, nil
}
