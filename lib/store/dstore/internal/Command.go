package internal

import (
	"encoding/binary"
	"fmt"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db"
)

// CommandType defines the possible operations for the state machine.
type CommandType uint8

const (
	CommandTSet          CommandType = iota // Insert or update an entry.
	CommandTSetIfPresent                    // Overwrite an entry only if it exists.
	CommandTDelete                          // Delete an entry and return its value.
	CommandTIncrement                       // Increment a counter entry and return the new value.
)

func (ct CommandType) String() string {
	switch ct {
	case CommandTSet:
		return "Set"
	case CommandTSetIfPresent:
		return "SetIfPresent"
	case CommandTDelete:
		return "Delete"
	case CommandTIncrement:
		return "Increment"
	default:
		return fmt.Sprintf("Unknown(%d)", ct)
	}
}

// ToDBFeature returns the db.Feature flags the state machine needs to execute the command.
func (ct CommandType) ToDBFeature() (db.Feature, error) {
	switch ct {
	case CommandTSet:
		return db.FeatureSet, nil
	case CommandTSetIfPresent:
		return db.FeatureSet | db.FeatureHas, nil
	case CommandTDelete:
		return db.FeatureGet | db.FeatureDelete, nil
	case CommandTIncrement:
		return db.FeatureGet | db.FeatureSet, nil
	default:
		return 0, fmt.Errorf("unknown command type %d", ct)
	}
}

// headerSize is Type (1 byte) + KeyLen (4 bytes)
const headerSize = 1 + 4

// Command represents a command to be executed by the state machine (a single entry in the raft log)
type Command struct {
	Type  CommandType
	Key   string
	Value []byte
}

// SizeBytes returns the exact number of bytes needed to serialize this command
func (command *Command) SizeBytes() int {
	return headerSize + len(command.Key) + len(command.Value)
}

// Serialize serializes a command into a byte array with the format:
// 1 byte for operation type,
// 4 bytes for key length (big endian),
// N bytes for key data,
// N bytes for value data (optional)
func (command *Command) Serialize() []byte {
	result := make([]byte, command.SizeBytes())

	result[0] = byte(command.Type)
	binary.BigEndian.PutUint32(result[1:headerSize], uint32(len(command.Key)))
	n := copy(result[headerSize:], command.Key)
	copy(result[headerSize+n:], command.Value)

	return result
}

// Deserialize extracts all Command fields from a byte array.
func (command *Command) Deserialize(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("data too short for command")
	}

	command.Type = CommandType(data[0])
	keyLen := int(binary.BigEndian.Uint32(data[1:headerSize]))

	if len(data) < headerSize+keyLen {
		return fmt.Errorf("data too short for key of length %d", keyLen)
	}
	command.Key = string(data[headerSize : headerSize+keyLen])

	if rest := data[headerSize+keyLen:]; len(rest) > 0 {
		command.Value = make([]byte, len(rest))
		copy(command.Value, rest)
	} else {
		command.Value = nil
	}

	return nil
}

// --------------------------------------------------------------------------
// Result payloads (sm.Result.Data)
// --------------------------------------------------------------------------

// EncodeFound prefixes value with a presence byte.
// It is used for the results of SetIfPresent (no value) and Delete (old value).
func EncodeFound(found bool, value []byte) []byte {
	out := make([]byte, 1+len(value))
	if found {
		out[0] = 1
	}
	copy(out[1:], value)
	return out
}

// DecodeFound is the inverse of EncodeFound
func DecodeFound(data []byte) (found bool, value []byte, err error) {
	if len(data) == 0 {
		return false, nil, fmt.Errorf("empty result")
	}
	if data[0] == 0 {
		return false, nil, nil
	}
	return true, data[1:], nil
}
