package framing

import (
	"testing"

	"github.com/indigo-web/wire/http/proto"
	"github.com/indigo-web/wire/kv"
	"github.com/stretchr/testify/require"
)

func headers(pairs ...string) *kv.Storage {
	s := kv.New()
	for i := 0; i < len(pairs); i += 2 {
		s.Add(pairs[i], pairs[i+1])
	}

	return s
}

func TestPersistence(t *testing.T) {
	t.Run("HTTP/1.1 defaults to persistent", func(t *testing.T) {
		require.True(t, Persistence(proto.HTTP11, headers()))
		require.True(t, Persistence(proto.HTTP11, headers("Host", "localhost")))
	})

	t.Run("HTTP/1.1 connection close", func(t *testing.T) {
		require.False(t, Persistence(proto.HTTP11, headers("Connection", "close")))
		require.False(t, Persistence(proto.HTTP11, headers("Connection", "CLOSE")))
		require.False(t, Persistence(proto.HTTP11, headers("connection", "Close")))
	})

	t.Run("HTTP/1.1 explicit keep-alive", func(t *testing.T) {
		require.True(t, Persistence(proto.HTTP11, headers("Connection", "keep-alive")))
	})

	t.Run("HTTP/1.0 defaults to non-persistent", func(t *testing.T) {
		require.False(t, Persistence(proto.HTTP10, headers()))
		require.False(t, Persistence(proto.HTTP10, headers("Connection", "close")))
	})

	t.Run("HTTP/1.0 keep-alive", func(t *testing.T) {
		require.True(t, Persistence(proto.HTTP10, headers("Connection", "keep-alive")))
		require.True(t, Persistence(proto.HTTP10, headers("Connection", "Keep-Alive")))
	})

	t.Run("unknown protocol", func(t *testing.T) {
		require.False(t, Persistence(proto.Unknown, headers("Connection", "keep-alive")))
	})
}
