package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/transport"
	"github.com/stretchr/testify/require"
)

func newEchoHandler(t *testing.T) http.Handler {
	tr := &httpServerTransport{}
	tr.RegisterHandler(func(shardId uint64, req []byte) []byte {
		require.Equal(t, uint64(3), shardId)
		return req
	})
	return tr.Handler()
}

func TestHandleRequest(t *testing.T) {
	h := newEchoHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/3", bytes.NewReader([]byte("ping"))))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ping", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/abc", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRequestBodyLimit(t *testing.T) {
	h := newEchoHandler(t)

	body := make([]byte, transport.MaxMessageSize+1)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/3", bytes.NewReader(body)))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/3", bytes.NewReader(body[:transport.MaxMessageSize])))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, transport.MaxMessageSize, rec.Body.Len())
}
