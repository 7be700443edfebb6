package lstore

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store"
)

type storeImpl struct {
	db    db.KVDB
	index atomic.Uint64
	rmw   sync.Mutex // serializes writes so read-modify-write operations are atomic
}

// NewLocalStore creates a new local store for the given shard.
// This store implementation is not distributed and only works on a single node.
func NewLocalStore(shardID uint64, factory store.DBFactory) (store.IStore, error) {
	database, err := factory(shardID)
	if err != nil {
		return nil, err
	}
	s := &storeImpl{db: database}
	s.index.Store(database.WriteIdx())
	return s, nil
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

func (s *storeImpl) requireFeature(feature db.Feature, op string) error {
	if !s.db.SupportsFeature(feature) {
		return store.NewError(store.RetCUnsupportedOperation, op+" operation is not supported")
	}
	return nil
}

func internalError(err error) error {
	if err == nil {
		return nil
	}
	return store.NewError(store.RetCInternalError, err.Error())
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	if err := s.requireFeature(db.FeatureSet, "Set"); err != nil {
		return err
	}
	s.rmw.Lock()
	defer s.rmw.Unlock()
	return internalError(s.db.Set(key, value, s.incAndGetIndex()))
}

func (s *storeImpl) SetIfPresent(key string, value []byte) (bool, error) {
	if err := s.requireFeature(db.FeatureSet|db.FeatureHas, "SetIfPresent"); err != nil {
		return false, err
	}
	s.rmw.Lock()
	defer s.rmw.Unlock()

	ok, err := s.db.Has(key)
	if err != nil || !ok {
		return false, internalError(err)
	}
	if err := s.db.Set(key, value, s.incAndGetIndex()); err != nil {
		return false, internalError(err)
	}
	return true, nil
}

func (s *storeImpl) Delete(key string) ([]byte, bool, error) {
	if err := s.requireFeature(db.FeatureGet|db.FeatureDelete, "Delete"); err != nil {
		return nil, false, err
	}
	s.rmw.Lock()
	defer s.rmw.Unlock()

	old, ok, err := s.db.Get(key)
	if err != nil || !ok {
		return nil, false, internalError(err)
	}
	if err := s.db.Delete(key, s.incAndGetIndex()); err != nil {
		return nil, false, internalError(err)
	}
	return old, true, nil
}

func (s *storeImpl) Increment(key string) (uint64, error) {
	if err := s.requireFeature(db.FeatureGet|db.FeatureSet, "Increment"); err != nil {
		return 0, err
	}
	s.rmw.Lock()
	defer s.rmw.Unlock()

	raw, _, err := s.db.Get(key)
	if err != nil {
		return 0, internalError(err)
	}
	curr, err := store.DecodeCounter(raw)
	if err != nil {
		return 0, err
	}
	if curr == math.MaxUint64 {
		return 0, store.NewError(store.RetCCounterOverflow, "counter "+key+" overflowed")
	}
	if err := s.db.Set(key, store.EncodeCounter(curr+1), s.incAndGetIndex()); err != nil {
		return 0, internalError(err)
	}
	return curr + 1, nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	if err := s.requireFeature(db.FeatureGet, "Get"); err != nil {
		return nil, false, err
	}
	val, ok, err := s.db.Get(key)
	return val, ok, internalError(err)
}

func (s *storeImpl) Has(key string) (bool, error) {
	if err := s.requireFeature(db.FeatureHas, "Has"); err != nil {
		return false, err
	}
	ok, err := s.db.Has(key)
	return ok, internalError(err)
}

func (s *storeImpl) Scan(prefix, after string, limit int) ([]db.KeyValue, error) {
	if err := s.requireFeature(db.FeatureScan, "Scan"); err != nil {
		return nil, err
	}
	entries, err := s.db.Scan(prefix, after, limit)
	return entries, internalError(err)
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}
