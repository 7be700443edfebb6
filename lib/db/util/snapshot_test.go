package util

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	entries := []SnapshotEntry{
		{Key: "record/1", Value: []byte("alice"), Index: 3},
		{Key: "", Value: nil, Index: 4},
		{Key: "__id_counter", Value: []byte{0, 0, 0, 0, 0, 0, 0, 1}, Index: 5},
	}

	var buf bytes.Buffer
	i := 0
	err := WriteSnapshot(&buf, SnapshotHeader{WriteIndex: 5, Count: uint64(len(entries))}, func() (SnapshotEntry, bool) {
		if i >= len(entries) {
			return SnapshotEntry{}, false
		}
		i++
		return entries[i-1], true
	})
	require.NoError(t, err)

	var read []SnapshotEntry
	header, err := ReadSnapshot(&buf, func(e SnapshotEntry) error {
		read = append(read, e)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, uint64(5), header.WriteIndex)
	require.Equal(t, uint64(3), header.Count)
	require.Len(t, read, 3)
	for i := range entries {
		require.Equal(t, entries[i].Key, read[i].Key)
		require.Equal(t, entries[i].Index, read[i].Index)
		require.Equal(t, len(entries[i].Value), len(read[i].Value))
	}
}

func TestSnapshotCountMismatch(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSnapshot(&buf, SnapshotHeader{Count: 2}, func() (SnapshotEntry, bool) {
		return SnapshotEntry{}, false
	})
	require.Error(t, err)
}

func TestSnapshotRejectsForeignData(t *testing.T) {
	_, err := ReadSnapshot(bytes.NewReader([]byte("NOTASNAPSHOT")), func(SnapshotEntry) error { return nil })
	require.Error(t, err)

	_, err = ReadSnapshot(bytes.NewReader(nil), func(SnapshotEntry) error { return nil })
	require.Error(t, err)
}
