// Package testing provides a behavioural test suite for records.IRecordService
// implementations. It is run against the local Service over every store and engine
// combination, and against the RPC client over every transport.
package testing
