package records_test

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db/engines/maple"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db/engines/sqlite"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records"
	recordstesting "github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records/testing"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store/lstore"
	"github.com/stretchr/testify/require"
)

func newMapleStore(t *testing.T) store.IStore {
	st, err := lstore.NewLocalStore(1, func(uint64) (db.KVDB, error) {
		return maple.NewMapleDB(nil), nil
	})
	require.NoError(t, err)
	return st
}

func TestServiceMaple(t *testing.T) {
	recordstesting.RunRecordServiceTests(t, "maple", func() records.IRecordService {
		return records.NewService(newMapleStore(t))
	})
}

func TestServiceSQLite(t *testing.T) {
	dir := t.TempDir()
	n := 0
	recordstesting.RunRecordServiceTests(t, "sqlite", func() records.IRecordService {
		n++
		path := filepath.Join(dir, fmt.Sprintf("records-%d.sqlite", n))
		st, err := lstore.NewLocalStore(1, func(uint64) (db.KVDB, error) { return sqlite.Open(path) })
		require.NoError(t, err)
		return records.NewService(st)
	})
}

func TestRecordKeyOrder(t *testing.T) {
	require.Equal(t, "record/00000000000000000001", records.RecordKey(1))
	require.Less(t, records.RecordKey(9), records.RecordKey(10))
	require.Less(t, records.RecordKey(math.MaxUint64-1), records.RecordKey(math.MaxUint64))

	id, err := records.ParseRecordKey(records.RecordKey(12345))
	require.NoError(t, err)
	require.Equal(t, uint64(12345), id)

	_, err = records.ParseRecordKey("__id_counter")
	require.Error(t, err)
}

func TestNotFoundError(t *testing.T) {
	err := fmt.Errorf("rpc: %w", records.NewNotFoundError("Patient record with id=3 not found"))
	require.True(t, errors.Is(err, records.ErrNotFound))

	var nf *records.NotFoundError
	require.True(t, errors.As(err, &nf))
	require.Equal(t, "Patient record with id=3 not found", nf.Msg)
}

func TestCounterOverflowInsertsNothing(t *testing.T) {
	st := newMapleStore(t)
	require.NoError(t, st.Set(records.CounterKey, store.EncodeCounter(math.MaxUint64)))
	svc := records.NewService(st)

	_, err := svc.AddPatientRecord(records.Payload{Name: "overflow"})
	require.Error(t, err)
	require.False(t, errors.Is(err, records.ErrNotFound))

	var storeErr *store.Error
	require.True(t, errors.As(err, &storeErr))
	require.Equal(t, store.RetCCounterOverflow, storeErr.Code)

	list, err := svc.ListPatientRecords(0, 0)
	require.NoError(t, err)
	require.Empty(t, list)

	last, err := svc.LastIssuedID()
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), last)
}

func TestListLimitIsCapped(t *testing.T) {
	svc := records.NewService(newMapleStore(t))
	for i := 0; i < records.MaxListLimit+5; i++ {
		_, err := svc.AddPatientRecord(records.Payload{Name: "p"})
		require.NoError(t, err)
	}

	list, err := svc.ListPatientRecords(0, records.MaxListLimit*2)
	require.NoError(t, err)
	require.Len(t, list, records.MaxListLimit)

	list, err = svc.ListPatientRecords(0, 0)
	require.NoError(t, err)
	require.Len(t, list, records.DefaultListLimit)
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := records.NewService(newMapleStore(t))
	b := records.NewService(newMapleStore(t))

	recA, err := a.AddPatientRecord(records.Payload{Name: "A"})
	require.NoError(t, err)
	recB, err := b.AddPatientRecord(records.Payload{Name: "B"})
	require.NoError(t, err)
	require.Equal(t, uint64(1), recA.ID)
	require.Equal(t, uint64(1), recB.ID)

	got, err := a.GetPatientRecord(1)
	require.NoError(t, err)
	require.Equal(t, "A", got.Name)
}
