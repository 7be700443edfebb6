package testing

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records"
	"github.com/stretchr/testify/require"
)

// ServiceFactory returns a fresh, empty registry
type ServiceFactory func() records.IRecordService

// RunRecordServiceTests runs the registry behaviour tests against the implementation
func RunRecordServiceTests(t *testing.T, name string, factory ServiceFactory) {
	t.Run(name+"/Scenario", func(t *testing.T) {
		testScenario(t, factory())
	})
	t.Run(name+"/IncreasingIDs", func(t *testing.T) {
		testIncreasingIDs(t, factory())
	})
	t.Run(name+"/GetAfterAdd", func(t *testing.T) {
		testGetAfterAdd(t, factory())
	})
	t.Run(name+"/UpdateMissing", func(t *testing.T) {
		testUpdateMissing(t, factory())
	})
	t.Run(name+"/DeleteMissing", func(t *testing.T) {
		testDeleteMissing(t, factory())
	})
	t.Run(name+"/IDsNotReused", func(t *testing.T) {
		testIDsNotReused(t, factory())
	})
	t.Run(name+"/List", func(t *testing.T) {
		testList(t, factory())
	})
	t.Run(name+"/ConcurrentAdd", func(t *testing.T) {
		testConcurrentAdd(t, factory())
	})
}

func requireNotFound(t *testing.T, err error, msg string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, records.ErrNotFound), "expected not found, got %v", err)
	require.EqualError(t, err, msg)
}

func testScenario(t *testing.T, svc records.IRecordService) {
	rec, err := svc.AddPatientRecord(records.Payload{Name: "A", Complaint: "cough"})
	require.NoError(t, err)
	require.Equal(t, records.Record{ID: 1, Name: "A", Complaint: "cough"}, rec)

	rec, err = svc.GetPatientRecord(1)
	require.NoError(t, err)
	require.Equal(t, records.Record{ID: 1, Name: "A", Complaint: "cough"}, rec)

	rec, err = svc.UpdatePatientRecord(1, records.Payload{Name: "B", Complaint: "fever"})
	require.NoError(t, err)
	require.Equal(t, records.Record{ID: 1, Name: "B", Complaint: "fever"}, rec)

	rec, err = svc.DeletePatientRecord(1)
	require.NoError(t, err)
	require.Equal(t, records.Record{ID: 1, Name: "B", Complaint: "fever"}, rec)

	_, err = svc.GetPatientRecord(1)
	requireNotFound(t, err, "Patient record with id=1 not found")
}

func testIncreasingIDs(t *testing.T, svc records.IRecordService) {
	var last uint64
	for i := 0; i < 20; i++ {
		rec, err := svc.AddPatientRecord(records.Payload{Name: fmt.Sprintf("p%d", i)})
		require.NoError(t, err)
		require.Greater(t, rec.ID, last)
		last = rec.ID
	}
	require.Equal(t, uint64(20), last)
}

func testGetAfterAdd(t *testing.T, svc records.IRecordService) {
	payloads := []records.Payload{
		{Name: "Siti", Complaint: "headache"},
		{Name: "", Complaint: ""},
		{Name: "Budi Santoso", Complaint: "demam tinggi\nsejak 3 hari"},
		{Name: "名前", Complaint: "🤒"},
	}
	for _, p := range payloads {
		added, err := svc.AddPatientRecord(p)
		require.NoError(t, err)
		require.Equal(t, p.Name, added.Name)
		require.Equal(t, p.Complaint, added.Complaint)

		got, err := svc.GetPatientRecord(added.ID)
		require.NoError(t, err)
		require.Equal(t, added, got)
	}
}

func testUpdateMissing(t *testing.T, svc records.IRecordService) {
	_, err := svc.UpdatePatientRecord(7, records.Payload{Name: "X"})
	requireNotFound(t, err, "Couldn't update patient record with id=7. Record not found")

	// an update of a missing id must not create the record
	_, err = svc.GetPatientRecord(7)
	requireNotFound(t, err, "Patient record with id=7 not found")

	// and must not consume an id
	rec, err := svc.AddPatientRecord(records.Payload{Name: "Y"})
	require.NoError(t, err)
	require.Equal(t, uint64(1), rec.ID)
}

func testDeleteMissing(t *testing.T, svc records.IRecordService) {
	kept, err := svc.AddPatientRecord(records.Payload{Name: "kept", Complaint: "none"})
	require.NoError(t, err)

	_, err = svc.DeletePatientRecord(kept.ID + 1)
	requireNotFound(t, err, fmt.Sprintf("Couldn't delete patient record with id=%d. Record not found.", kept.ID+1))

	list, err := svc.ListPatientRecords(0, 0)
	require.NoError(t, err)
	require.Equal(t, []records.Record{kept}, list)

	// deleting twice fails the second time
	_, err = svc.DeletePatientRecord(kept.ID)
	require.NoError(t, err)
	_, err = svc.DeletePatientRecord(kept.ID)
	require.ErrorIs(t, err, records.ErrNotFound)
}

func testIDsNotReused(t *testing.T, svc records.IRecordService) {
	first, err := svc.AddPatientRecord(records.Payload{Name: "first"})
	require.NoError(t, err)
	_, err = svc.DeletePatientRecord(first.ID)
	require.NoError(t, err)

	second, err := svc.AddPatientRecord(records.Payload{Name: "second"})
	require.NoError(t, err)
	require.Equal(t, first.ID+1, second.ID)
}

func testList(t *testing.T, svc records.IRecordService) {
	list, err := svc.ListPatientRecords(0, 0)
	require.NoError(t, err)
	require.Empty(t, list)

	// 12 records so that id 10 sorts after id 9
	var all []records.Record
	for i := 1; i <= 12; i++ {
		rec, err := svc.AddPatientRecord(records.Payload{Name: fmt.Sprintf("p%d", i)})
		require.NoError(t, err)
		all = append(all, rec)
	}
	_, err = svc.DeletePatientRecord(5)
	require.NoError(t, err)
	all = append(all[:4], all[5:]...)

	list, err = svc.ListPatientRecords(0, 0)
	require.NoError(t, err)
	require.Equal(t, all, list)

	// paging
	var paged []records.Record
	var after uint64
	for {
		page, err := svc.ListPatientRecords(after, 5)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		require.LessOrEqual(t, len(page), 5)
		paged = append(paged, page...)
		after = page[len(page)-1].ID
	}
	require.Equal(t, all, paged)

	list, err = svc.ListPatientRecords(10, 0)
	require.NoError(t, err)
	require.Equal(t, []uint64{11, 12}, ids(list))
}

func testConcurrentAdd(t *testing.T, svc records.IRecordService) {
	const workers, perWorker = 8, 10

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[uint64]bool)
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				rec, err := svc.AddPatientRecord(records.Payload{Name: fmt.Sprintf("w%d-%d", w, i)})
				if err != nil {
					t.Errorf("add failed: %v", err)
					return
				}
				mu.Lock()
				if seen[rec.ID] {
					t.Errorf("id %d issued twice", rec.ID)
				}
				seen[rec.ID] = true
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	require.Len(t, seen, workers*perWorker)
	for id := uint64(1); id <= workers*perWorker; id++ {
		require.True(t, seen[id], "id %d missing", id)
	}
}

func ids(recs []records.Record) []uint64 {
	out := make([]uint64, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
