package util

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 40)
	for _, line := range strings.Split(WrapString(text), "\n") {
		require.LessOrEqual(t, len(line), Wrap)
	}
	require.Equal(t, "short text", WrapString("  short   text "))
	require.Equal(t, "", WrapString(""))
}

func TestSelectors(t *testing.T) {
	t.Cleanup(viper.Reset)

	for _, name := range []string{"json", "gob", "binary", "msgpack"} {
		viper.Set("serializer", name)
		s, err := GetSerializer()
		require.NoError(t, err, name)
		require.NotNil(t, s)
	}
	viper.Set("serializer", "xml")
	_, err := GetSerializer()
	require.Error(t, err)

	for _, name := range []string{"http", "tcp", "unix"} {
		viper.Set("transport", name)
		_, err := GetTransport()
		require.NoError(t, err, name)
		_, err = GetServerTransport()
		require.NoError(t, err, name)
	}
	viper.Set("transport", "carrier-pigeon")
	_, err = GetTransport()
	require.Error(t, err)
	_, err = GetServerTransport()
	require.Error(t, err)
}

func TestGetClientConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("timeout", 7)
	viper.Set("transport-endpoints", "a:1, b:2,,")
	viper.Set("transport-read-buffer", 4)
	viper.Set("transport-tcp-nodelay", true)

	conf := GetClientConfig()
	require.Equal(t, 7, conf.TimeoutSecond)
	require.Equal(t, []string{"a:1", "b:2"}, conf.Transport.Endpoints)
	require.Equal(t, 4096, conf.Transport.ReadBufferSize)
	require.True(t, conf.Transport.TCPNoDelay)
}
