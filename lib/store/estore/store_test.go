package estore

import (
	"context"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store"
	storetesting "github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store/testing"
	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// newTestClient connects to the etcd cluster named in MEDREC_TEST_ETCD_ENDPOINTS
func newTestClient(t *testing.T) *clientv3.Client {
	endpoints := os.Getenv("MEDREC_TEST_ETCD_ENDPOINTS")
	if endpoints == "" {
		t.Skip("MEDREC_TEST_ETCD_ENDPOINTS not set")
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   strings.Split(endpoints, ","),
		DialTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestEtcdStore(t *testing.T) {
	client := newTestClient(t)

	// shard ids derived from the clock keep repeated runs apart
	var nextShard atomic.Uint64
	nextShard.Store(uint64(time.Now().UnixNano()))

	storetesting.RunStoreTests(t, "estore", func() store.IStore {
		shardID := nextShard.Add(1)
		t.Cleanup(func() {
			_, _ = client.Delete(context.Background(), KeyPrefix(shardID), clientv3.WithPrefix())
		})
		return NewEtcdStore(client, shardID, 5*time.Second)
	})
}

func TestKeyPrefix(t *testing.T) {
	require.Equal(t, "/medrec/shard/42/", KeyPrefix(42))
}
