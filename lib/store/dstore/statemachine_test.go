package dstore

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db/engines/maple"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db/engines/sqlite"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store/dstore/internal"
	sm "github.com/lni/dragonboat/v4/statemachine"
	"github.com/stretchr/testify/require"
)

func newMapleSM(t *testing.T) *KVStateMachine {
	factory := CreateStateMachineFactory(func(uint64) (db.KVDB, error) {
		return maple.NewMapleDB(nil), nil
	})
	fsm := factory(1, 1).(*KVStateMachine)
	t.Cleanup(func() { _ = fsm.Close() })
	return fsm
}

func entry(index uint64, cmd internal.Command) sm.Entry {
	return sm.Entry{Index: index, Cmd: cmd.Serialize()}
}

func apply(t *testing.T, fsm *KVStateMachine, entries ...sm.Entry) []sm.Entry {
	t.Helper()
	out, err := fsm.Update(entries)
	require.NoError(t, err)
	return out
}

func TestUpdateCommands(t *testing.T) {
	fsm := newMapleSM(t)

	res := apply(t, fsm,
		entry(1, internal.Command{Type: internal.CommandTIncrement, Key: "counter"}),
		entry(2, internal.Command{Type: internal.CommandTIncrement, Key: "counter"}),
		entry(3, internal.Command{Type: internal.CommandTSetIfPresent, Key: "rec", Value: []byte("x")}),
		entry(4, internal.Command{Type: internal.CommandTSet, Key: "rec", Value: []byte("a")}),
		entry(5, internal.Command{Type: internal.CommandTSetIfPresent, Key: "rec", Value: []byte("b")}),
		entry(6, internal.Command{Type: internal.CommandTDelete, Key: "rec"}),
		entry(7, internal.Command{Type: internal.CommandTDelete, Key: "rec"}),
	)

	for i, e := range res {
		require.Equal(t, uint64(store.RetCSuccess), e.Result.Value, "entry %d: %s", i, e.Result.Data)
	}

	v, err := decodeCounterResult(res[1].Result.Data)
	require.NoError(t, err)
	require.Equal(t, uint64(2), v)

	updated, _, _ := internal.DecodeFound(res[2].Result.Data)
	require.False(t, updated)
	updated, _, _ = internal.DecodeFound(res[4].Result.Data)
	require.True(t, updated)

	loaded, old, _ := internal.DecodeFound(res[5].Result.Data)
	require.True(t, loaded)
	require.Equal(t, []byte("b"), old)
	loaded, _, _ = internal.DecodeFound(res[6].Result.Data)
	require.False(t, loaded)

	require.Equal(t, uint64(7), fsm.database.WriteIdx())
}

func TestUpdateInvalidEntries(t *testing.T) {
	fsm := newMapleSM(t)

	res := apply(t, fsm,
		sm.Entry{Index: 1},
		sm.Entry{Index: 2, Cmd: []byte{1}},
		entry(3, internal.Command{Type: internal.CommandType(99), Key: "k"}),
	)
	require.Equal(t, uint64(store.RetCInvalidOperation), res[0].Result.Value)
	require.Equal(t, uint64(store.RetCInternalError), res[1].Result.Value)
	require.Equal(t, uint64(store.RetCInvalidOperation), res[2].Result.Value)
}

func TestLookup(t *testing.T) {
	fsm := newMapleSM(t)
	apply(t, fsm,
		entry(1, internal.Command{Type: internal.CommandTSet, Key: "p/2", Value: []byte("b")}),
		entry(2, internal.Command{Type: internal.CommandTSet, Key: "p/1", Value: []byte("a")}),
	)

	res, err := fsm.Lookup(internal.Query{Type: internal.QueryTGet, Key: "p/1"})
	require.NoError(t, err)
	require.Equal(t, internal.QueryResult{Ok: true, Value: []byte("a")}, res)

	res, err = fsm.Lookup(internal.Query{Type: internal.QueryTHas, Key: "p/3"})
	require.NoError(t, err)
	require.Equal(t, false, res)

	res, err = fsm.Lookup(internal.Query{Type: internal.QueryTScan, Prefix: "p/"})
	require.NoError(t, err)
	require.Equal(t, []db.KeyValue{{Key: "p/1", Value: []byte("a")}, {Key: "p/2", Value: []byte("b")}}, res)

	_, err = fsm.Lookup("not a query")
	require.Error(t, err)
	_, err = fsm.Lookup(internal.Query{Type: internal.QueryType(42)})
	require.Error(t, err)
}

func TestSnapshotRoundTrip(t *testing.T) {
	src := newMapleSM(t)
	apply(t, src,
		entry(1, internal.Command{Type: internal.CommandTIncrement, Key: "counter"}),
		entry(2, internal.Command{Type: internal.CommandTSet, Key: "rec", Value: []byte("a")}),
	)

	var buf bytes.Buffer
	require.NoError(t, src.SaveSnapshot(nil, &buf, nil, nil))

	dst := newMapleSM(t)
	require.NoError(t, dst.RecoverFromSnapshot(&buf, nil, nil))

	res, err := dst.Lookup(internal.Query{Type: internal.QueryTGet, Key: "rec"})
	require.NoError(t, err)
	require.Equal(t, []byte("a"), res.(internal.QueryResult).Value)

	out := apply(t, dst, entry(3, internal.Command{Type: internal.CommandTIncrement, Key: "counter"}))
	v, err := decodeCounterResult(out[0].Result.Data)
	require.NoError(t, err)
	require.Equal(t, uint64(2), v)
}

func TestDurableReplayIsSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replica.sqlite")
	factory := CreateStateMachineFactory(func(uint64) (db.KVDB, error) { return sqlite.Open(path) })

	fsm := factory(1, 1).(*KVStateMachine)
	apply(t, fsm,
		entry(1, internal.Command{Type: internal.CommandTIncrement, Key: "counter"}),
		entry(2, internal.Command{Type: internal.CommandTIncrement, Key: "counter"}),
	)
	require.NoError(t, fsm.Close())

	// after a restart the log is replayed from the beginning
	fsm = factory(1, 1).(*KVStateMachine)
	defer fsm.Close()
	out := apply(t, fsm,
		entry(1, internal.Command{Type: internal.CommandTIncrement, Key: "counter"}),
		entry(2, internal.Command{Type: internal.CommandTIncrement, Key: "counter"}),
		entry(3, internal.Command{Type: internal.CommandTIncrement, Key: "counter"}),
	)

	v, err := decodeCounterResult(out[2].Result.Data)
	require.NoError(t, err)
	require.Equal(t, uint64(3), v, "replayed entries must not be applied twice")
}
