package lstore

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db/engines/maple"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db/engines/sqlite"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store"
	storetesting "github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store/testing"
	"github.com/stretchr/testify/require"
)

func mapleFactory(uint64) (db.KVDB, error) {
	return maple.NewMapleDB(nil), nil
}

func TestLocalStoreMaple(t *testing.T) {
	storetesting.RunStoreTests(t, "lstore/maple", func() store.IStore {
		s, err := NewLocalStore(1, mapleFactory)
		require.NoError(t, err)
		return s
	})
}

func TestLocalStoreSQLite(t *testing.T) {
	dir := t.TempDir()
	n := 0
	storetesting.RunStoreTests(t, "lstore/sqlite", func() store.IStore {
		n++
		path := filepath.Join(dir, fmt.Sprintf("store-%d.sqlite", n))
		s, err := NewLocalStore(1, func(uint64) (db.KVDB, error) { return sqlite.Open(path) })
		require.NoError(t, err)
		return s
	})
}

func TestFactoryError(t *testing.T) {
	_, err := NewLocalStore(7, func(shardID uint64) (db.KVDB, error) {
		return nil, fmt.Errorf("no db for shard %d", shardID)
	})
	require.EqualError(t, err, "no db for shard 7")
}

func TestCounterSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.sqlite")
	factory := func(uint64) (db.KVDB, error) { return sqlite.Open(path) }

	s, err := NewLocalStore(1, factory)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := s.Increment("counter")
		require.NoError(t, err)
	}
	require.NoError(t, s.(*storeImpl).db.Close())

	s, err = NewLocalStore(1, factory)
	require.NoError(t, err)
	defer s.(*storeImpl).db.Close()

	v, err := s.Increment("counter")
	require.NoError(t, err)
	require.Equal(t, uint64(4), v)

	// the write index continues instead of restarting at 1, so new writes are not stale
	require.NoError(t, s.Set("counter", store.EncodeCounter(10)))
	v, err = s.Increment("counter")
	require.NoError(t, err)
	require.Equal(t, uint64(11), v)
}
