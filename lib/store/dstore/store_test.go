package dstore

import (
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db/engines/maple"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records"
	recordstesting "github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records/testing"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store"
	storetesting "github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store/testing"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/config"
	"github.com/stretchr/testify/require"
)

// freeAddr returns a localhost address that was free a moment ago
func freeAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

// startNodeHost starts a single replica node host
func startNodeHost(t *testing.T) (*dragonboat.NodeHost, string) {
	dir := t.TempDir()
	addr := freeAddr(t)

	nh, err := dragonboat.NewNodeHost(config.NodeHostConfig{
		WALDir:         dir,
		NodeHostDir:    dir,
		RTTMillisecond: 5,
		RaftAddress:    addr,
	})
	require.NoError(t, err)
	t.Cleanup(nh.Close)
	return nh, addr
}

// startShard starts an empty single replica shard and waits until it has a leader
func startShard(t *testing.T, nh *dragonboat.NodeHost, addr string, shardID uint64) store.IStore {
	factory := CreateStateMachineFactory(func(uint64) (db.KVDB, error) {
		return maple.NewMapleDB(nil), nil
	})

	err := nh.StartConcurrentReplica(
		map[uint64]dragonboat.Target{1: addr},
		false,
		factory,
		config.Config{
			ReplicaID:          1,
			ShardID:            shardID,
			ElectionRTT:        10,
			HeartbeatRTT:       1,
			CheckQuorum:        true,
			SnapshotEntries:    50,
			CompactionOverhead: 25,
		},
	)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, _, ok, err := nh.GetLeaderID(shardID)
		return err == nil && ok
	}, 10*time.Second, 20*time.Millisecond, "no leader elected for shard %d", shardID)

	return NewDistributedStore(nh, shardID, 5*time.Second)
}

func TestDistributedStore(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a raft node host")
	}

	nh, addr := startNodeHost(t)

	// every store gets its own (empty) shard on the same node host
	var nextShard atomic.Uint64
	storetesting.RunStoreTests(t, "dstore/maple", func() store.IStore {
		return startShard(t, nh, addr, nextShard.Add(1))
	})
}

func TestRecordServiceOnDistributedStore(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a raft node host")
	}

	nh, addr := startNodeHost(t)

	var nextShard atomic.Uint64
	recordstesting.RunRecordServiceTests(t, "dstore/maple", func() records.IRecordService {
		return records.NewService(startShard(t, nh, addr, nextShard.Add(1)))
	})
}
