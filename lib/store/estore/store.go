package estore

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	clientv3 "go.etcd.io/etcd/client/v3"
)

var log = logger.GetLogger("store")

// maxCASAttempts bounds the optimistic retry loop of Increment
const maxCASAttempts = 64

type storeImpl struct {
	client  *clientv3.Client
	shardID uint64
	base    string
	timeout time.Duration
}

// KeyPrefix returns the etcd key prefix used for a shard
func KeyPrefix(shardID uint64) string {
	return fmt.Sprintf("/medrec/shard/%d/", shardID)
}

// NewEtcdStore creates a store for shardID that keeps its data in etcd.
// The client is shared and not closed by the store.
func NewEtcdStore(client *clientv3.Client, shardID uint64, timeout time.Duration) store.IStore {
	return &storeImpl{
		client:  client,
		shardID: shardID,
		base:    KeyPrefix(shardID),
		timeout: timeout,
	}
}

func (s *storeImpl) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *storeImpl) key(k string) string {
	return s.base + k
}

func internalError(op string, err error) error {
	return store.NewError(store.RetCInternalError, fmt.Sprintf("etcd %s: %v", op, err))
}

// --------------------------------------------------------------------------
// Interface Methods (docs see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	ctx, cancel := s.ctx()
	defer cancel()

	if _, err := s.client.Put(ctx, s.key(key), string(value)); err != nil {
		return internalError("put", err)
	}
	return nil
}

func (s *storeImpl) SetIfPresent(key string, value []byte) (bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	k := s.key(key)
	resp, err := s.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(k), ">", 0)).
		Then(clientv3.OpPut(k, string(value))).
		Commit()
	if err != nil {
		return false, internalError("txn", err)
	}
	return resp.Succeeded, nil
}

func (s *storeImpl) Delete(key string) ([]byte, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	resp, err := s.client.Delete(ctx, s.key(key), clientv3.WithPrevKV())
	if err != nil {
		return nil, false, internalError("delete", err)
	}
	if len(resp.PrevKvs) == 0 {
		return nil, false, nil
	}
	return resp.PrevKvs[0].Value, true, nil
}

func (s *storeImpl) Increment(key string) (uint64, error) {
	k := s.key(key)

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		ctx, cancel := s.ctx()
		getResp, err := s.client.Get(ctx, k)
		if err != nil {
			cancel()
			return 0, internalError("get", err)
		}

		var (
			curr uint64
			cmp  clientv3.Cmp
		)
		if len(getResp.Kvs) == 0 {
			cmp = clientv3.Compare(clientv3.CreateRevision(k), "=", 0)
		} else {
			kv := getResp.Kvs[0]
			if curr, err = store.DecodeCounter(kv.Value); err != nil {
				cancel()
				return 0, err
			}
			cmp = clientv3.Compare(clientv3.ModRevision(k), "=", kv.ModRevision)
		}

		if curr == math.MaxUint64 {
			cancel()
			return 0, store.NewError(store.RetCCounterOverflow, "counter "+key+" overflowed")
		}

		txnResp, err := s.client.Txn(ctx).
			If(cmp).
			Then(clientv3.OpPut(k, string(store.EncodeCounter(curr+1)))).
			Commit()
		cancel()
		if err != nil {
			return 0, internalError("txn", err)
		}
		if txnResp.Succeeded {
			return curr + 1, nil
		}
		log.Debugf("increment of %s lost a race, retrying (%d/%d)", k, attempt+1, maxCASAttempts)
	}

	return 0, store.NewError(store.RetCInternalError, fmt.Sprintf("increment of %s did not converge", key))
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	resp, err := s.client.Get(ctx, s.key(key))
	if err != nil {
		return nil, false, internalError("get", err)
	}
	if len(resp.Kvs) == 0 {
		return nil, false, nil
	}
	return resp.Kvs[0].Value, true, nil
}

func (s *storeImpl) Has(key string) (bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	resp, err := s.client.Get(ctx, s.key(key), clientv3.WithCountOnly())
	if err != nil {
		return false, internalError("get", err)
	}
	return resp.Count > 0, nil
}

func (s *storeImpl) Scan(prefix, after string, limit int) ([]db.KeyValue, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	// the smallest key greater than after is after+"\x00"
	start := s.key(prefix)
	if after >= prefix {
		start = s.key(after) + "\x00"
	}
	end := clientv3.GetPrefixRangeEnd(s.key(prefix))

	opts := []clientv3.OpOption{
		clientv3.WithRange(end),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend),
	}
	if limit > 0 {
		opts = append(opts, clientv3.WithLimit(int64(limit)))
	}

	resp, err := s.client.Get(ctx, start, opts...)
	if err != nil {
		return nil, internalError("range", err)
	}

	entries := make([]db.KeyValue, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		entries = append(entries, db.KeyValue{
			Key:   string(kv.Key[len(s.base):]),
			Value: kv.Value,
		})
	}
	return entries, nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	resp, err := s.client.Get(ctx, s.base, clientv3.WithPrefix(), clientv3.WithCountOnly())
	if err != nil {
		return db.DatabaseInfo{}, internalError("count", err)
	}

	return db.DatabaseInfo{
		Entries: int(resp.Count),
		DbType:  db.ImplEtcd,
		SupportedFeatures: []db.Feature{
			db.FeatureSet, db.FeatureGet, db.FeatureDelete, db.FeatureHas,
			db.FeatureScan, db.FeatureDurable,
		},
		Metadata: &struct {
			KeyPrefix string   `json:"key_prefix"`
			Endpoints []string `json:"endpoints"`
			Revision  int64    `json:"revision"`
		}{
			KeyPrefix: s.base,
			Endpoints: s.client.Endpoints(),
			Revision:  resp.Header.Revision,
		},
	}, nil
}
