package base

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/transport"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		_ = writeFrame(client, 7, 42, []byte("hello"))
	}()

	shardID, requestID, data, err := readFrame(server, make([]byte, 2))
	require.NoError(t, err)
	require.Equal(t, uint64(7), shardID)
	require.Equal(t, uint64(42), requestID)
	require.Equal(t, []byte("hello"), data)
}

func TestReadFrameRejectsOversizedFrames(t *testing.T) {
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint64(header[:8], 1)
	binary.BigEndian.PutUint64(header[8:16], 1)
	binary.BigEndian.PutUint32(header[16:20], transport.MaxMessageSize+1)

	_, _, _, err := readFrame(bytes.NewReader(header), nil)
	require.ErrorContains(t, err, "exceeds limit")
}
