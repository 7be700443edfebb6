package sqlite

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db"
	dbtesting "github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db/testing"
	"github.com/stretchr/testify/require"
)

func fileFactory(t testing.TB) dbtesting.DBFactory {
	dir := t.TempDir()
	var n atomic.Int32
	return func() db.KVDB {
		path := filepath.Join(dir, fmt.Sprintf("db-%d.sqlite", n.Add(1)))
		database, err := Open(path)
		require.NoError(t, err)
		return database
	}
}

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "SQLite", fileFactory(t))
}

func TestInMemory(t *testing.T) {
	dbtesting.RunKVDBTests(t, "SQLite(memory)", func() db.KVDB {
		database, err := Open("")
		require.NoError(t, err)
		return database
	})
}

func TestReopenKeepsDataAndWriteIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.sqlite")

	database, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, database.Set("record/1", []byte("a"), 41))
	require.NoError(t, database.Set("record/2", []byte("b"), 42))
	require.NoError(t, database.Delete("record/1", 43))
	require.NoError(t, database.Close())

	database, err = Open(path)
	require.NoError(t, err)
	defer database.Close()

	require.Equal(t, uint64(43), database.WriteIdx())

	_, ok, err := database.Get("record/1")
	require.NoError(t, err)
	require.False(t, ok)

	value, ok, err := database.Get("record/2")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("b"), value)

	require.True(t, database.SupportsFeature(db.FeatureDurable))
}

func TestScanPrefixWithLikeWildcards(t *testing.T) {
	database, err := Open("")
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, database.Set("a%b/1", []byte("x"), 1))
	require.NoError(t, database.Set("axb/1", []byte("y"), 2))

	entries, err := database.Scan("a%b/", "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "a%b/1", entries[0].Key)
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "SQLite", fileFactory(b))
}
