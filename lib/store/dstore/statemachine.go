package dstore

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store/dstore/internal"
	sm "github.com/lni/dragonboat/v4/statemachine"
)

// --------------------------------------------------------------------------
// State Machine Implementation
// --------------------------------------------------------------------------

// KVStateMachine is a state machine implementation for Dragonboat RAFT
type KVStateMachine struct {
	replicaID uint64
	shardID   uint64
	database  db.KVDB // the actual dataStorage
}

// CreateStateMachineFactory returns a function that can be used by dragonboat to create a new state machine for a node host.
// Dragonboat offers no way to report a factory error, so a failing dbFactory stops the process.
func CreateStateMachineFactory(dbFactory store.DBFactory) func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
	return func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
		database, err := dbFactory(shardID)
		if err != nil {
			log.Panicf("failed to create db for shard %d (replica %d): %v", shardID, replicaID, err)
		}
		return &KVStateMachine{
			replicaID: replicaID,
			shardID:   shardID,
			database:  database,
		}
	}
}

// Lookup handles read-only queries by mapping each Query operation to the corresponding KVDB method.
func (fsm *KVStateMachine) Lookup(itf interface{}) (interface{}, error) {
	q, ok := itf.(internal.Query)
	if !ok {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("invalid Query type: %T", itf))
	}

	switch q.Type {
	case internal.QueryTGet:
		if !fsm.database.SupportsFeature(db.FeatureGet) {
			return nil, store.NewError(store.RetCUnsupportedOperation, "Get operation is not supported")
		}
		val, ok, err := fsm.database.Get(q.Key)
		if err != nil {
			return nil, store.NewError(store.RetCInternalError, err.Error())
		}
		return internal.QueryResult{Value: val, Ok: ok}, nil
	case internal.QueryTHas:
		if !fsm.database.SupportsFeature(db.FeatureHas) {
			return nil, store.NewError(store.RetCUnsupportedOperation, "Has operation is not supported")
		}
		ok, err := fsm.database.Has(q.Key)
		if err != nil {
			return nil, store.NewError(store.RetCInternalError, err.Error())
		}
		return ok, nil
	case internal.QueryTScan:
		if !fsm.database.SupportsFeature(db.FeatureScan) {
			return nil, store.NewError(store.RetCUnsupportedOperation, "Scan operation is not supported")
		}
		entries, err := fsm.database.Scan(q.Prefix, q.After, q.Limit)
		if err != nil {
			return nil, store.NewError(store.RetCInternalError, err.Error())
		}
		return entries, nil
	case internal.QueryTGetDBInfo:
		return fsm.database.GetInfo(), nil
	default:
		return nil, store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown Query operation: %d", q.Type))
	}
}

// Update applies write commands to the KVDB instance.
// Dragonboat never calls Update concurrently, which makes the read-modify-write
// commands atomic on every replica.
func (fsm *KVStateMachine) Update(entries []sm.Entry) ([]sm.Entry, error) {
	if len(entries) == 0 {
		return entries, nil
	}

	start := time.Now()
	durable := fsm.database.SupportsFeature(db.FeatureDurable)

	for idx, e := range entries {
		// durable engines already contain entries applied before a restart
		if durable && e.Index <= fsm.database.WriteIdx() {
			entries[idx].Result = sm.Result{Value: uint64(store.RetCSuccess)}
			continue
		}
		entries[idx].Result = fsm.apply(e)
	}

	if elapsed := time.Since(start); elapsed > time.Millisecond {
		log.Infof("State machine took long to update. Batch updated %d entries, took %.2fms", len(entries), float64(elapsed)/float64(time.Millisecond))
	}
	return entries, nil
}

func failure(code store.RetCode, format string, args ...any) sm.Result {
	return sm.Result{Value: uint64(code), Data: []byte(fmt.Sprintf(format, args...))}
}

func success(data []byte) sm.Result {
	return sm.Result{Value: uint64(store.RetCSuccess), Data: data}
}

// apply executes a single log entry and returns its result
func (fsm *KVStateMachine) apply(e sm.Entry) sm.Result {
	if len(e.Cmd) == 0 {
		return failure(store.RetCInvalidOperation, "empty command ignored")
	}

	cmd := internal.Command{}
	if err := cmd.Deserialize(e.Cmd); err != nil {
		return failure(store.RetCInternalError, "failed to deserialize command: %v", err)
	}

	feat, err := cmd.Type.ToDBFeature()
	if err != nil {
		return failure(store.RetCInvalidOperation, "unknown Command operation: %s", cmd.Type)
	}
	if !fsm.database.SupportsFeature(feat) {
		return failure(store.RetCUnsupportedOperation, "%s operation is not supported", cmd.Type)
	}

	switch cmd.Type {
	case internal.CommandTSet:
		if err := fsm.database.Set(cmd.Key, cmd.Value, e.Index); err != nil {
			return failure(store.RetCInternalError, "set %s: %v", cmd.Key, err)
		}
		return success(nil)

	case internal.CommandTSetIfPresent:
		ok, err := fsm.database.Has(cmd.Key)
		if err != nil {
			return failure(store.RetCInternalError, "setIfPresent %s: %v", cmd.Key, err)
		}
		if ok {
			if err := fsm.database.Set(cmd.Key, cmd.Value, e.Index); err != nil {
				return failure(store.RetCInternalError, "setIfPresent %s: %v", cmd.Key, err)
			}
		} else {
			fsm.database.SetWriteIdx(e.Index)
		}
		return success(internal.EncodeFound(ok, nil))

	case internal.CommandTDelete:
		old, ok, err := fsm.database.Get(cmd.Key)
		if err != nil {
			return failure(store.RetCInternalError, "delete %s: %v", cmd.Key, err)
		}
		if err := fsm.database.Delete(cmd.Key, e.Index); err != nil {
			return failure(store.RetCInternalError, "delete %s: %v", cmd.Key, err)
		}
		return success(internal.EncodeFound(ok, old))

	case internal.CommandTIncrement:
		raw, _, err := fsm.database.Get(cmd.Key)
		if err != nil {
			return failure(store.RetCInternalError, "increment %s: %v", cmd.Key, err)
		}
		curr, err := store.DecodeCounter(raw)
		if err != nil {
			return failure(store.RetCInvalidOperation, "increment %s: %v", cmd.Key, err)
		}
		if curr == math.MaxUint64 {
			fsm.database.SetWriteIdx(e.Index)
			return failure(store.RetCCounterOverflow, "counter %s overflowed", cmd.Key)
		}
		next := store.EncodeCounter(curr + 1)
		if err := fsm.database.Set(cmd.Key, next, e.Index); err != nil {
			return failure(store.RetCInternalError, "increment %s: %v", cmd.Key, err)
		}
		return success(next)

	default:
		return failure(store.RetCInvalidOperation, "unknown Command operation: %s", cmd.Type)
	}
}

// decodeCounterResult parses the Data of a successful increment
func decodeCounterResult(data []byte) (uint64, error) {
	if len(data) != store.CounterSize {
		return 0, store.NewError(store.RetCInternalError, fmt.Sprintf("invalid increment result of %d bytes", len(data)))
	}
	return binary.BigEndian.Uint64(data), nil
}

// PrepareSnapshot is not used. We don't need to prepare anything since we use fuzzy snapshotting
func (fsm *KVStateMachine) PrepareSnapshot() (interface{}, error) {
	return nil, nil
}

// SaveSnapshot saves a fuzzy db snapshot to the writer
func (fsm *KVStateMachine) SaveSnapshot(_ interface{}, writer io.Writer, _ sm.ISnapshotFileCollection, _ <-chan struct{}) error {
	if !fsm.database.SupportsFeature(db.FeatureSave) {
		return fmt.Errorf("the used KVDB implementation does not support Save() operations")
	}
	return fsm.database.Save(writer)
}

// RecoverFromSnapshot replaces the db content with the snapshot
func (fsm *KVStateMachine) RecoverFromSnapshot(r io.Reader, _ []sm.SnapshotFile, _ <-chan struct{}) error {
	if !fsm.database.SupportsFeature(db.FeatureLoad) {
		return fmt.Errorf("the used KVDB implementation does not support Load() operations")
	}
	return fsm.database.Load(r)
}

// Close performs any necessary cleanup.
func (fsm *KVStateMachine) Close() error {
	return fsm.database.Close()
}
