package maple

import (
	"io"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db/engines/maple/internal"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db/util"
)

// --------------------------------------------------------------------------
// Core Maple database structure
// --------------------------------------------------------------------------

// mapleImpl implements an in-memory database with sharded data
type mapleImpl struct {
	// loadMu is held exclusively by Load (which swaps the shard slice) and
	// shared by every other operation
	loadMu    sync.RWMutex
	seed      uint64
	shards    []*internal.Shard
	numShards int
	currIndex atomic.Uint64
}

// DBOptions configures the mapleImpl behavior during initialization
type DBOptions struct {
	NumShards int // Number of shards (0 = runtime.NumCPU())
}

// DefaultOptions returns the default mapleImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		NumShards: runtime.NumCPU(),
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMapleDB creates a new MapleDB instance with the specified options (optional)
func NewMapleDB(opts *DBOptions) db.KVDB {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.NumShards <= 0 {
		opts.NumShards = runtime.NumCPU()
	}

	maple := &mapleImpl{
		numShards: opts.NumShards,
		seed:      util.GenerateSeed(),
	}
	maple.shards = maple.newShards()
	return maple
}

func (maple *mapleImpl) newShards() []*internal.Shard {
	hasher := func(key util.UintKey, mapSeed uint64) uint64 {
		return uint64(key) ^ mapSeed
	}
	shards := make([]*internal.Shard, maple.numShards)
	for i := range shards {
		shards[i] = internal.NewShard(hasher)
	}
	return shards
}

// shardFor hashes key and returns it together with the responsible shard.
// The caller must hold loadMu.
func (maple *mapleImpl) shardFor(key string) (util.UintKey, *internal.Shard) {
	intKey := util.HashString(key, maple.seed)
	return intKey, internal.GetShard(intKey, maple.shards)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.KVDB)
// --------------------------------------------------------------------------

func (maple *mapleImpl) Set(key string, value []byte, writeIndex uint64) error {
	maple.loadMu.RLock()
	defer maple.loadMu.RUnlock()

	maple.SetWriteIdx(writeIndex)

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	intKey, shard := maple.shardFor(key)
	shard.Data.Compute(intKey, func(old internal.Entry, loaded bool) (internal.Entry, bool) {
		// stale writes are ignored
		if loaded && writeIndex < old.Index {
			return old, false
		}
		return internal.Entry{Key: key, Value: valueCopy, Index: writeIndex}, false
	})
	return nil
}

func (maple *mapleImpl) Delete(key string, writeIndex uint64) error {
	maple.loadMu.RLock()
	defer maple.loadMu.RUnlock()

	maple.SetWriteIdx(writeIndex)

	intKey, shard := maple.shardFor(key)
	shard.Data.Compute(intKey, func(old internal.Entry, loaded bool) (internal.Entry, bool) {
		if !loaded {
			return old, true // returning delete=true keeps the missing key missing
		}
		if writeIndex < old.Index {
			return old, false
		}
		return internal.Entry{}, true
	})
	return nil
}

func (maple *mapleImpl) Get(key string) ([]byte, bool, error) {
	maple.loadMu.RLock()
	defer maple.loadMu.RUnlock()

	intKey, shard := maple.shardFor(key)
	entry, ok := shard.Data.Load(intKey)
	if !ok {
		return nil, false, nil
	}

	data := make([]byte, len(entry.Value))
	copy(data, entry.Value)
	return data, true, nil
}

func (maple *mapleImpl) Has(key string) (bool, error) {
	maple.loadMu.RLock()
	defer maple.loadMu.RUnlock()

	intKey, shard := maple.shardFor(key)
	_, ok := shard.Data.Load(intKey)
	return ok, nil
}

// Scan collects matching entries from all shards and sorts them.
// The shards are unordered hash maps, so every Scan visits every entry.
func (maple *mapleImpl) Scan(prefix, after string, limit int) ([]db.KeyValue, error) {
	maple.loadMu.RLock()
	defer maple.loadMu.RUnlock()

	var entries []db.KeyValue
	for _, shard := range maple.shards {
		shard.Data.Range(func(_ util.UintKey, e internal.Entry) bool {
			if strings.HasPrefix(e.Key, prefix) && e.Key > after {
				value := make([]byte, len(e.Value))
				copy(value, e.Value)
				entries = append(entries, db.KeyValue{Key: e.Key, Value: value})
			}
			return true
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

// Save writes all entries in the shared snapshot format.
// Concurrent writes are allowed; an entry written during Save may or may not be included.
func (maple *mapleImpl) Save(w io.Writer) error {
	maple.loadMu.RLock()
	var entries []util.SnapshotEntry
	for _, shard := range maple.shards {
		shard.Data.Range(func(_ util.UintKey, e internal.Entry) bool {
			value := make([]byte, len(e.Value))
			copy(value, e.Value)
			entries = append(entries, util.SnapshotEntry{Key: e.Key, Value: value, Index: e.Index})
			return true
		})
	}
	header := util.SnapshotHeader{WriteIndex: maple.currIndex.Load(), Count: uint64(len(entries))}
	maple.loadMu.RUnlock()

	i := 0
	return util.WriteSnapshot(w, header, func() (util.SnapshotEntry, bool) {
		if i >= len(entries) {
			return util.SnapshotEntry{}, false
		}
		i++
		return entries[i-1], true
	})
}

// Load replaces the content of the database with the snapshot read from r.
// On error the database keeps its previous content.
func (maple *mapleImpl) Load(r io.Reader) error {
	shards := maple.newShards()

	header, err := util.ReadSnapshot(r, func(e util.SnapshotEntry) error {
		intKey := util.HashString(e.Key, maple.seed)
		internal.GetShard(intKey, shards).Data.Store(intKey, internal.Entry{
			Key:   e.Key,
			Value: e.Value,
			Index: e.Index,
		})
		return nil
	})
	if err != nil {
		return err
	}

	maple.loadMu.Lock()
	defer maple.loadMu.Unlock()
	maple.shards = shards
	maple.currIndex.Store(header.WriteIndex)
	return nil
}

// --------------------------------------------------------------------------
// Features and Metadata
// --------------------------------------------------------------------------

const supportedFeatures = db.FeatureSet |
	db.FeatureGet |
	db.FeatureDelete |
	db.FeatureHas |
	db.FeatureScan |
	db.FeatureSave |
	db.FeatureLoad

// GetInfo returns statistics about the database
func (maple *mapleImpl) GetInfo() db.DatabaseInfo {
	maple.loadMu.RLock()
	defer maple.loadMu.RUnlock()

	histogram := util.NewSizeHistogram()
	shardSizes := make([]float64, len(maple.shards))
	entries := 0

	for i, shard := range maple.shards {
		shard.Data.Range(func(_ util.UintKey, e internal.Entry) bool {
			histogram.AddSample(len(e.Key) + len(e.Value))
			return true
		})
		size := shard.Data.Size()
		shardSizes[i] = float64(size)
		entries += size
	}

	// 8 bytes hash + 8 bytes index per entry
	const entryOverhead = 16

	meta := &struct {
		CurrentWriteIndex uint64                 `json:"current_write_index"`
		ShardCount        int                    `json:"shard_count"`
		ShardDistribution util.DistributionStats `json:"shard_distribution"`
		MedianEntrySize   int                    `json:"median_entry_size"`
		P99EntrySize      int                    `json:"p99_entry_size"`
	}{
		CurrentWriteIndex: maple.currIndex.Load(),
		ShardCount:        len(maple.shards),
		ShardDistribution: util.NewDistributionStats(shardSizes),
		MedianEntrySize:   histogram.MedianEstimate(),
		P99EntrySize:      histogram.GetPercentileEstimate(99),
	}

	return db.DatabaseInfo{
		SizeBytes: int(histogram.TotalSize()) + entries*entryOverhead,
		Entries:   entries,
		DbType:    db.ImplMaple,
		SupportedFeatures: []db.Feature{
			db.FeatureSet, db.FeatureGet, db.FeatureDelete, db.FeatureHas,
			db.FeatureScan, db.FeatureSave, db.FeatureLoad,
		},
		Metadata: meta,
	}
}

func (maple *mapleImpl) SupportsFeature(feature db.Feature) bool {
	return supportedFeatures&feature == feature
}

// Close is a no-op, the data is released with the instance
func (maple *mapleImpl) Close() error {
	return nil
}

// --------------------------------------------------------------------------
// Index Management
// --------------------------------------------------------------------------

// SetWriteIdx only updates the index if newIdx is greater than the current one
//
// Thread-safety: uses a CAS loop so that the index only increases.
func (maple *mapleImpl) SetWriteIdx(newIdx uint64) {
	for {
		currIdx := maple.currIndex.Load()
		if newIdx <= currIdx {
			return
		}
		if maple.currIndex.CompareAndSwap(currIdx, newIdx) {
			return
		}
	}
}

func (maple *mapleImpl) WriteIdx() uint64 {
	return maple.currIndex.Load()
}
