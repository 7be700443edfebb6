package testing

import (
	"bytes"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db"
)

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementation
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Set", func(b *testing.B) {
			benchmarkSet(b, factory())
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory())
		})

		b.Run("Delete", func(b *testing.B) {
			benchmarkDelete(b, factory())
		})

		b.Run("Scan", func(b *testing.B) {
			benchmarkScan(b, factory())
		})

		b.Run("SaveLoad", func(b *testing.B) {
			benchmarkSaveLoad(b, factory)
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// recordValue mimics the size of an encoded patient record
var recordValue = bytes.Repeat([]byte("r"), 96)

func prefill(b *testing.B, database db.KVDB, n int) {
	for i := 0; i < n; i++ {
		if err := database.Set(fmt.Sprintf("record/%020d", i), recordValue, uint64(i+1)); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkSet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { _ = database.Close() })
	requireFeature(b, database, db.FeatureSet)

	var idx atomic.Uint64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := idx.Add(1)
			_ = database.Set(fmt.Sprintf("record/%020d", i), recordValue, i)
		}
	})
}

func benchmarkGet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { _ = database.Close() })
	requireFeature(b, database, db.FeatureSet|db.FeatureGet)

	const numKeys = 10_000
	prefill(b, database, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			_, _, _ = database.Get(fmt.Sprintf("record/%020d", r.Intn(numKeys)))
		}
	})
}

func benchmarkDelete(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { _ = database.Close() })
	requireFeature(b, database, db.FeatureSet|db.FeatureDelete)

	prefill(b, database, b.N)
	idx := uint64(b.N)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx++
		_ = database.Delete(fmt.Sprintf("record/%020d", i), idx)
	}
}

func benchmarkScan(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { _ = database.Close() })
	requireFeature(b, database, db.FeatureSet|db.FeatureScan)

	prefill(b, database, 10_000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		after := fmt.Sprintf("record/%020d", i%9_900)
		if _, err := database.Scan("record/", after, 100); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkSaveLoad(b *testing.B, factory DBFactory) {
	database := factory()
	b.Cleanup(func() { _ = database.Close() })
	requireFeature(b, database, db.FeatureSave|db.FeatureLoad)

	prefill(b, database, 10_000)

	var snapshot bytes.Buffer
	if err := database.Save(&snapshot); err != nil {
		b.Fatal(err)
	}

	b.Run("Save", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var buf bytes.Buffer
			if err := database.Save(&buf); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Load", func(b *testing.B) {
		target := factory()
		b.Cleanup(func() { _ = target.Close() })
		for i := 0; i < b.N; i++ {
			if err := target.Load(bytes.NewReader(snapshot.Bytes())); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// benchmarkMixedUsage approximates registry traffic: mostly reads, some adds,
// few updates and deletes
func benchmarkMixedUsage(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { _ = database.Close() })
	requireFeature(b, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete)

	const numKeys = 10_000
	prefill(b, database, numKeys)

	var idx atomic.Uint64
	idx.Store(numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			key := fmt.Sprintf("record/%020d", r.Intn(numKeys))
			switch op := r.Intn(10); {
			case op < 7:
				_, _, _ = database.Get(key)
			case op < 9:
				_ = database.Set(key, recordValue, idx.Add(1))
			default:
				_ = database.Delete(key, idx.Add(1))
			}
		}
	})
}
