package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Request fields
	ID        uint64 `json:"id,omitempty"`        // Used for: Get, Update, Delete
	After     uint64 `json:"after,omitempty"`     // Used for: List
	Limit     uint32 `json:"limit,omitempty"`     // Used for: List
	Name      string `json:"name,omitempty"`      // Used for: Add, Update
	Complaint string `json:"complaint,omitempty"` // Used for: Add, Update

	// Response only fields
	Records []records.Record `json:"records,omitempty"` // one record for Get, Add, Update, Delete; a page for List
	Code    ErrorCode        `json:"code,omitempty"`    // ErrCNone if the call succeeded
	Err     string           `json:"err,omitempty"`     // Empty if no error, otherwise contains the error message
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewGetRequest creates a new Get request
func NewGetRequest(id uint64) *Message {
	return &Message{
		MsgType: MsgTRecGet,
		ID:      id,
	}
}

// NewAddRequest creates a new Add request
func NewAddRequest(payload records.Payload) *Message {
	return &Message{
		MsgType:   MsgTRecAdd,
		Name:      payload.Name,
		Complaint: payload.Complaint,
	}
}

// NewUpdateRequest creates a new Update request
func NewUpdateRequest(id uint64, payload records.Payload) *Message {
	return &Message{
		MsgType:   MsgTRecUpdate,
		ID:        id,
		Name:      payload.Name,
		Complaint: payload.Complaint,
	}
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(id uint64) *Message {
	return &Message{
		MsgType: MsgTRecDelete,
		ID:      id,
	}
}

// NewListRequest creates a new List request.
// limit is capped at records.MaxListLimit before it is narrowed to the 32 bit wire field.
func NewListRequest(after uint64, limit int) *Message {
	return &Message{
		MsgType: MsgTRecList,
		After:   after,
		Limit:   uint32(min(max(limit, 0), records.MaxListLimit)),
	}
}

// NewRecordResponse creates the response of a single record operation
func NewRecordResponse(t MessageType, rec records.Record, err error) *Message {
	msg := &Message{MsgType: t}
	if err != nil {
		setError(msg, err)
		return msg
	}
	msg.Records = []records.Record{rec}
	return msg
}

// NewListResponse creates a new List response
func NewListResponse(recs []records.Record, err error) *Message {
	msg := &Message{MsgType: MsgTRecList}
	if err != nil {
		setError(msg, err)
		return msg
	}
	msg.Records = recs
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(code ErrorCode, err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Code:    code,
		Err:     err,
	}
}

func setError(msg *Message, err error) {
	msg.Err = err.Error()
	msg.Code = ErrCInternal
	if errors.Is(err, records.ErrNotFound) {
		msg.Code = ErrCNotFound
	}
}

// Error converts the error fields of a response back into an error.
// ErrCNotFound becomes a *records.NotFoundError, so errors.Is(err, records.ErrNotFound) holds on the client.
func (m *Message) Error() error {
	if m.Code == ErrCNone && m.Err == "" {
		return nil
	}
	switch m.Code {
	case ErrCNotFound:
		return records.NewNotFoundError(m.Err)
	case ErrCInvalidRequest:
		return fmt.Errorf("invalid request: %s", m.Err)
	default:
		return errors.New(m.Err)
	}
}

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

// ErrorCode classifies the error carried by a response
type ErrorCode uint8

const (
	ErrCNone           ErrorCode = iota // no error
	ErrCInternal                        // store or server failure
	ErrCNotFound                        // the addressed patient record does not exist
	ErrCInvalidRequest                  // malformed request, unknown shard or message type
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCNone:
		return "none"
	case ErrCInternal:
		return "internal"
	case ErrCNotFound:
		return "not found"
	case ErrCInvalidRequest:
		return "invalid request"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTRecGet:
		return "get"
	case MsgTRecAdd:
		return "add"
	case MsgTRecUpdate:
		return "update"
	case MsgTRecDelete:
		return "delete"
	case MsgTRecList:
		return "list"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "get":
		*t = MsgTRecGet
	case "add":
		*t = MsgTRecAdd
	case "update":
		*t = MsgTRecUpdate
	case "delete":
		*t = MsgTRecDelete
	case "list":
		*t = MsgTRecList
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	case "unknown":
		*t = MsgTUnknown
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// Patient record operations

	MsgTRecGet    // Get a record by id
	MsgTRecAdd    // Add a new record
	MsgTRecUpdate // Update name and complaint of a record
	MsgTRecDelete // Delete a record
	MsgTRecList   // List records in id order
)
