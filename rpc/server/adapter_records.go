package server

import (
	"fmt"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/common"
)

func NewRecordsServerAdapter() IRPCServerAdapter {
	return &recordsServerAdapterImpl{}
}

type recordsServerAdapterImpl struct{}

func (adapter *recordsServerAdapterImpl) Handle(req *common.Message, svc records.IRecordService) *common.Message {
	if svc == nil {
		return common.NewErrorResponse(common.ErrCInternal, "handler: registry is nil")
	}

	switch req.MsgType {
	case common.MsgTRecGet:
		rec, err := svc.GetPatientRecord(req.ID)
		return common.NewRecordResponse(req.MsgType, rec, err)
	case common.MsgTRecAdd:
		rec, err := svc.AddPatientRecord(records.Payload{Name: req.Name, Complaint: req.Complaint})
		return common.NewRecordResponse(req.MsgType, rec, err)
	case common.MsgTRecUpdate:
		rec, err := svc.UpdatePatientRecord(req.ID, records.Payload{Name: req.Name, Complaint: req.Complaint})
		return common.NewRecordResponse(req.MsgType, rec, err)
	case common.MsgTRecDelete:
		rec, err := svc.DeletePatientRecord(req.ID)
		return common.NewRecordResponse(req.MsgType, rec, err)
	case common.MsgTRecList:
		recs, err := svc.ListPatientRecords(req.After, int(req.Limit))
		return common.NewListResponse(recs, err)
	default:
		return common.NewErrorResponse(
			common.ErrCInvalidRequest,
			fmt.Sprintf("RPC RecordsAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
