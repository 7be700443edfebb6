package store

import (
	"encoding/binary"
	"fmt"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory creates the db used by a store for the given shard.
// This is used to abstract the creation of the db from the store implementation.
type DBFactory func(shardID uint64) (db.KVDB, error)

// IStore is the generic interface for interacting with a key–value store.
// Every method is atomic with respect to all other methods of the same store,
// also when the store is replicated or backed by a remote service.
type IStore interface {
	// Set inserts or updates a key–value pair.
	Set(key string, value []byte) (err error)
	// SetIfPresent overwrites the value of an existing key.
	// If the key does not exist nothing is written and updated is false.
	SetIfPresent(key string, value []byte) (updated bool, err error)
	// Delete removes a key–value pair and returns the removed value.
	// Deleting a missing key is not an error; loaded is false in that case.
	Delete(key string) (old []byte, loaded bool, err error)
	// Increment adds one to the counter stored under key and returns the new value.
	// A missing key counts as 0. The counter is stored as 8 byte big endian.
	// Incrementing past math.MaxUint64 fails with RetCCounterOverflow and leaves the counter unchanged.
	Increment(key string) (value uint64, err error)
	// Get returns the value for a key. The boolean return value indicates whether a value for the key was found.
	Get(key string) (value []byte, loaded bool, err error)
	// Has returns whether a key exists in the store.
	Has(key string) (loaded bool, err error)
	// Scan returns up to limit entries whose key starts with prefix and is greater than after,
	// in ascending key order. A limit <= 0 means no limit.
	Scan(prefix, after string, limit int) (entries []db.KeyValue, err error)
	// GetDBInfo returns metadata about the database underlying the store.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo() (info db.DatabaseInfo, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new store error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by underlying database.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCCounterOverflow                     // 4: Increment would exceed the counter range.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCCounterOverflow:
		return "CounterOverflow"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Counter encoding
// --------------------------------------------------------------------------

// CounterSize is the length of an encoded counter value
const CounterSize = 8

// DecodeCounter parses a counter value. A nil value is 0.
func DecodeCounter(value []byte) (uint64, error) {
	if value == nil {
		return 0, nil
	}
	if len(value) != CounterSize {
		return 0, NewError(RetCInvalidOperation, fmt.Sprintf("counter value has %d bytes, expected %d", len(value), CounterSize))
	}
	return binary.BigEndian.Uint64(value), nil
}

// EncodeCounter is the inverse of DecodeCounter
func EncodeCounter(v uint64) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, CounterSize), v)
}
