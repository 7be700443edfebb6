package serve

import (
	"testing"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db/util"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/common"
	"github.com/stretchr/testify/require"
)

func TestParseShards(t *testing.T) {
	shards, err := parseShards("1=lstore, 2=dstore,3=ESTORE")
	require.NoError(t, err)
	require.Equal(t, []common.ServerShard{
		{ShardID: 1, Type: common.ShardTypeLocal},
		{ShardID: 2, Type: common.ShardTypeRaft},
		{ShardID: 3, Type: common.ShardTypeRemote},
	}, shards)

	for _, invalid := range []string{"", "1", "x=lstore", "1=lockmgr", "1=lstore=2"} {
		_, err := parseShards(invalid)
		require.Error(t, err, invalid)
	}
}

func TestParseClusterMembers(t *testing.T) {
	members, err := parseClusterMembers("node-1=localhost:63001,node-2=localhost:63002")
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, "localhost:63001", members[uint64(util.HashString("node-1", 0))])

	members, err = parseClusterMembers("")
	require.NoError(t, err)
	require.Empty(t, members)

	_, err = parseClusterMembers("node-1")
	require.Error(t, err)
	_, err = parseClusterMembers("=localhost:1")
	require.Error(t, err)
}
