package server

import (
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response
	// It takes a Message and the registry of the addressed shard as parameters.
	// If an error occurs, it should be set in the response
	Handle(req *common.Message, svc records.IRecordService) (resp *common.Message)
}
