package testing

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db"
	"github.com/stretchr/testify/require"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs the conformance suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory())
		})

		t.Run("Scan", func(t *testing.T) {
			testScan(t, factory())
		})

		t.Run("StaleWrites", func(t *testing.T) {
			testStaleWrites(t, factory())
		})

		t.Run("WriteIdx", func(t *testing.T) {
			testWriteIdx(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory())
		})

		t.Run("ConcurrentUsage", func(t *testing.T) {
			testConcurrentUsage(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// requireFeature skips the test if the database does not support feature
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skipf("feature %s not supported", feature)
	}
}

func mustGet(t *testing.T, database db.KVDB, key string) ([]byte, bool) {
	t.Helper()
	value, ok, err := database.Get(key)
	require.NoError(t, err)
	return value, ok
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	require.NoError(t, database.Set("test-key", []byte("value-1"), 1))
	value, ok := mustGet(t, database, "test-key")
	require.True(t, ok)
	require.Equal(t, []byte("value-1"), value)

	require.NoError(t, database.Set("test-key", []byte("value-2"), 2))
	value, ok = mustGet(t, database, "test-key")
	require.True(t, ok)
	require.Equal(t, []byte("value-2"), value)

	_, ok = mustGet(t, database, "nonexistent-key")
	require.False(t, ok)

	// Get must return a copy
	value[0] = 'X'
	original, _ := mustGet(t, database, "test-key")
	require.Equal(t, []byte("value-2"), original)

	// the caller may reuse the slice passed to Set
	buf := []byte("value-3")
	require.NoError(t, database.Set("test-key", buf, 3))
	buf[0] = 'X'
	value, _ = mustGet(t, database, "test-key")
	require.Equal(t, []byte("value-3"), value)
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete)

	require.NoError(t, database.Set("delete-key", []byte("v"), 1))
	require.NoError(t, database.Delete("delete-key", 2))

	_, ok := mustGet(t, database, "delete-key")
	require.False(t, ok)

	// deleting a missing key is not an error
	require.NoError(t, database.Delete("delete-key", 3))
	require.NoError(t, database.Delete("never-existed", 4))

	// a deleted key can be written again
	require.NoError(t, database.Set("delete-key", []byte("again"), 5))
	value, ok := mustGet(t, database, "delete-key")
	require.True(t, ok)
	require.Equal(t, []byte("again"), value)
}

func testHas(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureHas|db.FeatureDelete)

	ok, err := database.Has("has-key")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, database.Set("has-key", nil, 1))
	ok, err = database.Has("has-key")
	require.NoError(t, err)
	require.True(t, ok, "a key with an empty value must exist")

	require.NoError(t, database.Delete("has-key", 2))
	ok, err = database.Has("has-key")
	require.NoError(t, err)
	require.False(t, ok)
}

func testScan(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureScan)

	// insert out of order and with a foreign prefix
	for _, i := range []int{5, 1, 9, 3, 7, 2, 8, 4, 6, 10} {
		key := fmt.Sprintf("scan/%03d", i)
		require.NoError(t, database.Set(key, []byte(key), uint64(i)))
	}
	require.NoError(t, database.Set("other/001", []byte("x"), 11))
	require.NoError(t, database.Set("scan", []byte("x"), 12))

	all, err := database.Scan("scan/", "", 0)
	require.NoError(t, err)
	require.Len(t, all, 10)
	for i, kv := range all {
		expected := fmt.Sprintf("scan/%03d", i+1)
		require.Equal(t, expected, kv.Key)
		require.Equal(t, []byte(expected), kv.Value)
	}

	page, err := database.Scan("scan/", "scan/003", 4)
	require.NoError(t, err)
	require.Len(t, page, 4)
	require.Equal(t, "scan/004", page[0].Key)
	require.Equal(t, "scan/007", page[3].Key)

	tail, err := database.Scan("scan/", "scan/009", 100)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	require.Equal(t, "scan/010", tail[0].Key)

	empty, err := database.Scan("scan/", "scan/010", 100)
	require.NoError(t, err)
	require.Empty(t, empty)

	none, err := database.Scan("missing/", "", 0)
	require.NoError(t, err)
	require.Empty(t, none)
}

func testStaleWrites(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete)

	require.NoError(t, database.Set("stale-key", []byte("new"), 10))
	require.NoError(t, database.Set("stale-key", []byte("old"), 5))

	value, ok := mustGet(t, database, "stale-key")
	require.True(t, ok)
	require.Equal(t, []byte("new"), value, "a write with a lower index must be ignored")

	require.NoError(t, database.Delete("stale-key", 7))
	_, ok = mustGet(t, database, "stale-key")
	require.True(t, ok, "a delete with a lower index must be ignored")

	require.NoError(t, database.Delete("stale-key", 10))
	_, ok = mustGet(t, database, "stale-key")
	require.False(t, ok)
}

func testWriteIdx(t *testing.T, database db.KVDB) {
	defer database.Close()

	require.Equal(t, uint64(0), database.WriteIdx())

	require.NoError(t, database.Set("idx-key", []byte("v"), 7))
	require.Equal(t, uint64(7), database.WriteIdx())

	database.SetWriteIdx(3)
	require.Equal(t, uint64(7), database.WriteIdx(), "the write index must never decrease")

	database.SetWriteIdx(20)
	require.Equal(t, uint64(20), database.WriteIdx())
}

func testSaveLoad(t *testing.T, factory DBFactory) {
	database := factory()
	database2 := factory()
	defer database.Close()
	defer database2.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureSave|db.FeatureLoad)

	numEntries := 1000
	for i := 0; i < numEntries; i++ {
		key := fmt.Sprintf("save-load-key-%04d", i)
		require.NoError(t, database.Set(key, []byte(fmt.Sprintf("value-%d", i)), uint64(i+1)))
	}

	// database2 holds data that must be replaced by Load
	require.NoError(t, database2.Set("leftover", []byte("x"), 1))

	var buf bytes.Buffer
	require.NoError(t, database.Save(&buf))
	require.NoError(t, database2.Load(&buf))

	for i := 0; i < numEntries; i++ {
		key := fmt.Sprintf("save-load-key-%04d", i)
		value, ok := mustGet(t, database2, key)
		require.True(t, ok, "key %s not found after Load", key)
		require.Equal(t, []byte(fmt.Sprintf("value-%d", i)), value)
	}

	_, ok := mustGet(t, database2, "leftover")
	require.False(t, ok, "Load must replace all existing entries")
	require.Equal(t, uint64(numEntries), database2.WriteIdx())

	// the source is unchanged
	value, ok := mustGet(t, database, "save-load-key-0000")
	require.True(t, ok)
	require.Equal(t, []byte("value-0"), value)

	// a corrupt snapshot is rejected
	require.Error(t, database2.Load(bytes.NewReader([]byte("garbage"))))
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	require.NoError(t, database.Set("", []byte("value for empty key"), 1))
	value, ok := mustGet(t, database, "")
	require.True(t, ok)
	require.Equal(t, []byte("value for empty key"), value)

	require.NoError(t, database.Set("nil-value-key", nil, 2))
	value, ok = mustGet(t, database, "nil-value-key")
	require.True(t, ok)
	require.Empty(t, value)

	largeKey := string(bytes.Repeat([]byte("k"), 1000))
	require.NoError(t, database.Set(largeKey, []byte("large key"), 3))
	value, ok = mustGet(t, database, largeKey)
	require.True(t, ok)
	require.Equal(t, []byte("large key"), value)

	largeValue := make([]byte, 4*1024*1024)
	for i := range largeValue {
		largeValue[i] = byte(i % 256)
	}
	require.NoError(t, database.Set("large-value-key", largeValue, 4))
	value, ok = mustGet(t, database, "large-value-key")
	require.True(t, ok)
	require.True(t, bytes.Equal(largeValue, value), "large value mismatch")
}

func testInfo(t *testing.T, database db.KVDB) {
	defer database.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, database.Set(fmt.Sprintf("info-%d", i), []byte("value"), uint64(i+1)))
	}

	info := database.GetInfo()
	require.Equal(t, 10, info.Entries)
	require.Greater(t, info.SizeBytes, 0)
	require.NotEmpty(t, info.DbType)
	for _, f := range info.SupportedFeatures {
		require.True(t, database.SupportsFeature(f), "advertised feature %s not supported", f)
	}
}

func testConcurrentUsage(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete)

	numWorkers := 8
	opsPerWorker := 250

	var wg sync.WaitGroup
	errs := make(chan error, numWorkers)
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < opsPerWorker; i++ {
				key := fmt.Sprintf("worker-%d/key-%d", worker, i)
				idx := uint64(worker*opsPerWorker + i + 1)
				if err := database.Set(key, []byte(key), idx); err != nil {
					errs <- err
					return
				}
				if i%3 == 0 {
					if err := database.Delete(key, idx); err != nil {
						errs <- err
						return
					}
				}
				if _, _, err := database.Get(key); err != nil {
					errs <- err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// every worker owns its keys, so the final state is deterministic
	for w := 0; w < numWorkers; w++ {
		for i := 0; i < opsPerWorker; i++ {
			key := fmt.Sprintf("worker-%d/key-%d", w, i)
			value, ok := mustGet(t, database, key)
			if i%3 == 0 {
				require.False(t, ok, "key %s should be deleted", key)
			} else {
				require.True(t, ok, "key %s should exist", key)
				require.Equal(t, []byte(key), value)
			}
		}
	}
}
