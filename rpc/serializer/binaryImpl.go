package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasID        byte = 1 << 0
	hasAfter     byte = 1 << 1
	hasLimit     byte = 1 << 2
	hasName      byte = 1 << 3
	hasComplaint byte = 1 << 4
	hasRecords   byte = 1 << 5
	hasCode      byte = 1 << 6
	hasErr       byte = 1 << 7
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

// Serialize writes the message type, a flags byte and then every present field in flag order.
// Integers are big endian, strings are prefixed with a 4 byte length.
// Records are written as a 4 byte count followed by id, name and complaint of each record.
func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	result := make([]byte, 2, b.sizeBytes(msg))
	result[0] = byte(msg.MsgType)

	var flags byte
	if msg.ID != 0 {
		flags |= hasID
		result = binary.BigEndian.AppendUint64(result, msg.ID)
	}
	if msg.After != 0 {
		flags |= hasAfter
		result = binary.BigEndian.AppendUint64(result, msg.After)
	}
	if msg.Limit != 0 {
		flags |= hasLimit
		result = binary.BigEndian.AppendUint32(result, msg.Limit)
	}
	if msg.Name != "" {
		flags |= hasName
		result = appendString(result, msg.Name)
	}
	if msg.Complaint != "" {
		flags |= hasComplaint
		result = appendString(result, msg.Complaint)
	}
	if len(msg.Records) > 0 {
		flags |= hasRecords
		result = binary.BigEndian.AppendUint32(result, uint32(len(msg.Records)))
		for _, rec := range msg.Records {
			result = binary.BigEndian.AppendUint64(result, rec.ID)
			result = appendString(result, rec.Name)
			result = appendString(result, rec.Complaint)
		}
	}
	if msg.Code != common.ErrCNone {
		flags |= hasCode
		result = append(result, byte(msg.Code))
	}
	if msg.Err != "" {
		flags |= hasErr
		result = appendString(result, msg.Err)
	}

	// Set flags byte after knowing which fields are present
	result[1] = flags
	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	*msg = common.Message{MsgType: common.MessageType(data[0])}
	flags := data[1]
	r := reader{data: data, pos: 2}

	if flags&hasID != 0 {
		msg.ID = r.u64("ID")
	}
	if flags&hasAfter != 0 {
		msg.After = r.u64("After")
	}
	if flags&hasLimit != 0 {
		msg.Limit = r.u32("Limit")
	}
	if flags&hasName != 0 {
		msg.Name = r.str("Name")
	}
	if flags&hasComplaint != 0 {
		msg.Complaint = r.str("Complaint")
	}
	if flags&hasRecords != 0 {
		count := r.u32("record count")
		// every record needs at least 16 bytes, reject counts the data cannot hold
		if r.err == nil && uint64(count)*16 > uint64(len(data)-r.pos) {
			return fmt.Errorf("data too short for %d records", count)
		}
		msg.Records = make([]records.Record, 0, count)
		for i := uint32(0); i < count && r.err == nil; i++ {
			msg.Records = append(msg.Records, records.Record{
				ID:        r.u64("record id"),
				Name:      r.str("record name"),
				Complaint: r.str("record complaint"),
			})
		}
	}
	if flags&hasCode != 0 {
		msg.Code = common.ErrorCode(r.u8("Code"))
	}
	if flags&hasErr != 0 {
		msg.Err = r.str("Err")
	}

	return r.err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	if msg.ID != 0 {
		size += 8
	}
	if msg.After != 0 {
		size += 8
	}
	if msg.Limit != 0 {
		size += 4
	}
	if msg.Name != "" {
		size += 4 + len(msg.Name)
	}
	if msg.Complaint != "" {
		size += 4 + len(msg.Complaint)
	}
	if len(msg.Records) > 0 {
		size += 4
		for _, rec := range msg.Records {
			size += 8 + 4 + len(rec.Name) + 4 + len(rec.Complaint)
		}
	}
	if msg.Code != common.ErrCNone {
		size += 1
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}

	return size
}

func appendString(b []byte, s string) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}

// reader consumes fields from a serialized message.
// After the first error all reads return zero values and err is kept.
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) take(n int, field string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = fmt.Errorf("data too short for %s", field)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u8(field string) byte {
	if b := r.take(1, field); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) u32(field string) uint32 {
	if b := r.take(4, field); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

func (r *reader) u64(field string) uint64 {
	if b := r.take(8, field); b != nil {
		return binary.BigEndian.Uint64(b)
	}
	return 0
}

func (r *reader) str(field string) string {
	n := r.u32(field + " length")
	return string(r.take(int(n), field))
}
