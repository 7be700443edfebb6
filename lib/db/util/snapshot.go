package util

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	snapshotMagic   = "MEDRECDB"  // File format identifier
	snapshotVersion = 1           // Snapshot format version
	bufferSize      = 1024 * 1024 // 1 MB
	maxKeyLen       = 1 << 16     // Sanity limit for a single key
)

// SnapshotEntry is a single key-value pair contained in a snapshot
type SnapshotEntry struct {
	Key   string
	Value []byte
	Index uint64 // write index at which the entry was last modified
}

// SnapshotHeader is written once at the start of every snapshot
type SnapshotHeader struct {
	WriteIndex uint64 // write index of the database when the snapshot was taken
	Count      uint64 // number of entries that follow
}

// --------------------------------------------------------------------------
// Writing
// --------------------------------------------------------------------------

// WriteSnapshot writes a header followed by all entries produced by next.
// next is called until it returns false. The number of entries produced must match
// header.Count.
//
// Format (little endian):
//   - 8 bytes magic number
//   - 1 byte version
//   - 8 bytes write index
//   - 8 bytes entry count
//   - per entry: 4 bytes key length, key, 8 bytes index, 4 bytes value length, value
func WriteSnapshot(w io.Writer, header SnapshotHeader, next func() (SnapshotEntry, bool)) error {
	bw := bufio.NewWriterSize(w, bufferSize)

	if _, err := bw.WriteString(snapshotMagic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint8(snapshotVersion)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, header.WriteIndex); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, header.Count); err != nil {
		return err
	}

	var written uint64
	for {
		entry, ok := next()
		if !ok {
			break
		}
		if err := writeEntry(bw, entry); err != nil {
			return err
		}
		written++
	}

	if written != header.Count {
		return fmt.Errorf("snapshot entry count mismatch: header=%d written=%d", header.Count, written)
	}

	return bw.Flush()
}

func writeEntry(w io.Writer, entry SnapshotEntry) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(entry.Key))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, entry.Key); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, entry.Index); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(entry.Value))); err != nil {
		return err
	}
	_, err := w.Write(entry.Value)
	return err
}

// --------------------------------------------------------------------------
// Reading
// --------------------------------------------------------------------------

// ReadSnapshot reads a snapshot and calls fn for every entry.
// The header is returned after all entries were consumed.
func ReadSnapshot(r io.Reader, fn func(SnapshotEntry) error) (SnapshotHeader, error) {
	var header SnapshotHeader
	br := bufio.NewReaderSize(r, bufferSize)

	// Read and verify magic number
	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return header, err
	}
	if string(magic) != snapshotMagic {
		return header, fmt.Errorf("invalid snapshot format: magic number mismatch")
	}

	// Read and verify version
	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return header, err
	}
	if version != snapshotVersion {
		return header, fmt.Errorf("unsupported snapshot version: %d (expected %d)", version, snapshotVersion)
	}

	if err := binary.Read(br, binary.LittleEndian, &header.WriteIndex); err != nil {
		return header, err
	}
	if err := binary.Read(br, binary.LittleEndian, &header.Count); err != nil {
		return header, err
	}

	for i := uint64(0); i < header.Count; i++ {
		entry, err := readEntry(br)
		if err != nil {
			return header, fmt.Errorf("failed to read entry %d: %w", i, err)
		}
		if err := fn(entry); err != nil {
			return header, err
		}
	}

	return header, nil
}

func readEntry(r io.Reader) (SnapshotEntry, error) {
	var entry SnapshotEntry

	var keyLen uint32
	if err := binary.Read(r, binary.LittleEndian, &keyLen); err != nil {
		return entry, err
	}
	if keyLen > maxKeyLen {
		return entry, fmt.Errorf("key length %d exceeds limit", keyLen)
	}
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return entry, err
	}
	entry.Key = string(key)

	if err := binary.Read(r, binary.LittleEndian, &entry.Index); err != nil {
		return entry, err
	}

	var valueLen uint32
	if err := binary.Read(r, binary.LittleEndian, &valueLen); err != nil {
		return entry, err
	}
	entry.Value = make([]byte, valueLen)
	if _, err := io.ReadFull(r, entry.Value); err != nil {
		return entry, err
	}

	return entry, nil
}
