// Package testing provides a conformance suite for store.IStore implementations.
package testing

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store"
	"github.com/stretchr/testify/require"
)

// StoreFactory creates a new, empty store
type StoreFactory func() store.IStore

// RunStoreTests runs the conformance suite for an IStore implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("SetIfPresent", func(t *testing.T) {
			testSetIfPresent(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Increment", func(t *testing.T) {
			testIncrement(t, factory())
		})

		t.Run("ConcurrentIncrement", func(t *testing.T) {
			testConcurrentIncrement(t, factory())
		})

		t.Run("IncrementOverflow", func(t *testing.T) {
			testIncrementOverflow(t, factory())
		})

		t.Run("Scan", func(t *testing.T) {
			testScan(t, factory())
		})

		t.Run("DBInfo", func(t *testing.T) {
			testDBInfo(t, factory())
		})
	})
}

func testSetGet(t *testing.T, s store.IStore) {
	require.NoError(t, s.Set("key", []byte("value")))

	value, ok, err := s.Get("key")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("value"), value)

	ok, err = s.Has("key")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = s.Get("missing")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.Has("missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func testSetIfPresent(t *testing.T, s store.IStore) {
	updated, err := s.SetIfPresent("key", []byte("value"))
	require.NoError(t, err)
	require.False(t, updated)

	ok, err := s.Has("key")
	require.NoError(t, err)
	require.False(t, ok, "SetIfPresent must not create missing keys")

	require.NoError(t, s.Set("key", []byte("v1")))
	updated, err = s.SetIfPresent("key", []byte("v2"))
	require.NoError(t, err)
	require.True(t, updated)

	value, _, err := s.Get("key")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), value)
}

func testDelete(t *testing.T, s store.IStore) {
	require.NoError(t, s.Set("key", []byte("value")))

	old, loaded, err := s.Delete("key")
	require.NoError(t, err)
	require.True(t, loaded)
	require.Equal(t, []byte("value"), old)

	_, ok, err := s.Get("key")
	require.NoError(t, err)
	require.False(t, ok)

	old, loaded, err = s.Delete("key")
	require.NoError(t, err)
	require.False(t, loaded)
	require.Empty(t, old)
}

func testIncrement(t *testing.T, s store.IStore) {
	for want := uint64(1); want <= 5; want++ {
		got, err := s.Increment("counter")
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	raw, ok, err := s.Get("counter")
	require.NoError(t, err)
	require.True(t, ok)
	value, err := store.DecodeCounter(raw)
	require.NoError(t, err)
	require.Equal(t, uint64(5), value)

	// counters are independent
	got, err := s.Increment("other-counter")
	require.NoError(t, err)
	require.Equal(t, uint64(1), got)
}

func testConcurrentIncrement(t *testing.T, s store.IStore) {
	const workers, perWorker = 8, 25

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[uint64]bool)
		errs []error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				v, err := s.Increment("counter")
				mu.Lock()
				if err != nil {
					errs = append(errs, err)
				} else {
					if seen[v] {
						errs = append(errs, fmt.Errorf("value %d issued twice", v))
					}
					seen[v] = true
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, seen, workers*perWorker)
	for v := uint64(1); v <= workers*perWorker; v++ {
		require.True(t, seen[v], "value %d was never issued", v)
	}
}

func testIncrementOverflow(t *testing.T, s store.IStore) {
	require.NoError(t, s.Set("counter", store.EncodeCounter(math.MaxUint64)))

	_, err := s.Increment("counter")
	require.Error(t, err)

	var se *store.Error
	require.True(t, errors.As(err, &se))
	require.Equal(t, store.RetCCounterOverflow, se.Code)

	raw, _, err := s.Get("counter")
	require.NoError(t, err)
	value, err := store.DecodeCounter(raw)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), value, "a failed increment must not change the counter")
}

func testScan(t *testing.T, s store.IStore) {
	for _, i := range []int{3, 1, 2, 5, 4} {
		require.NoError(t, s.Set(fmt.Sprintf("item/%02d", i), []byte{byte(i)}))
	}
	require.NoError(t, s.Set("other/01", []byte("x")))

	entries, err := s.Scan("item/", "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for i, e := range entries {
		require.Equal(t, fmt.Sprintf("item/%02d", i+1), e.Key)
		require.Equal(t, []byte{byte(i + 1)}, e.Value)
	}

	entries, err = s.Scan("item/", "item/02", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "item/03", entries[0].Key)
	require.Equal(t, "item/04", entries[1].Key)
}

func testDBInfo(t *testing.T, s store.IStore) {
	require.NoError(t, s.Set("key", []byte("value")))
	info, err := s.GetDBInfo()
	require.NoError(t, err)
	require.NotEmpty(t, info.DbType)
}
