package records

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Record is a stored patient record. ID is assigned by the registry and never changes.
type Record struct {
	ID        uint64 `json:"id" yaml:"id" msgpack:"id"`
	Name      string `json:"name" yaml:"name" msgpack:"name"`
	Complaint string `json:"complaint" yaml:"complaint" msgpack:"complaint"`
}

// Payload holds the caller supplied fields of a record, used by add and update
type Payload struct {
	Name      string `json:"name" yaml:"name" msgpack:"name"`
	Complaint string `json:"complaint" yaml:"complaint" msgpack:"complaint"`
}

// --------------------------------------------------------------------------
// Keys
// --------------------------------------------------------------------------

const (
	// CounterKey holds the last issued id (8 bytes big endian)
	CounterKey = "__id_counter"
	// KeyPrefix is the common prefix of all record keys
	KeyPrefix = "record/"
)

// RecordKey returns the store key of the record with the given id
func RecordKey(id uint64) string {
	return fmt.Sprintf("%s%020d", KeyPrefix, id)
}

// ParseRecordKey is the inverse of RecordKey
func ParseRecordKey(key string) (uint64, error) {
	if !strings.HasPrefix(key, KeyPrefix) {
		return 0, fmt.Errorf("not a record key: %q", key)
	}
	return strconv.ParseUint(key[len(KeyPrefix):], 10, 64)
}

// --------------------------------------------------------------------------
// Codec
// --------------------------------------------------------------------------

func encodeRecord(rec Record) ([]byte, error) {
	return msgpack.Marshal(&rec)
}

func decodeRecord(data []byte) (Record, error) {
	var rec Record
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to decode patient record: %w", err)
	}
	return rec, nil
}
