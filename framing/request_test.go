package framing

import (
	"testing"

	"github.com/indigo-web/wire/http/proto"
	"github.com/indigo-web/wire/http/status"
	"github.com/stretchr/testify/require"
)

func TestNegotiateRequest(t *testing.T) {
	t.Run("chunked transfer encoding", func(t *testing.T) {
		req, err := NegotiateRequest(headers("Transfer-Encoding", "chunked"), proto.HTTP11, true)
		require.NoError(t, err)
		require.Equal(t, Chunked, req.Decision.Kind)
		require.True(t, req.Persistent)
		require.False(t, req.Consumed)
	})

	t.Run("transfer encoding overrides content length", func(t *testing.T) {
		hdrs := headers("Content-Length", "13", "Transfer-Encoding", "chunked")
		req, err := NegotiateRequest(hdrs, proto.HTTP11, true)
		require.NoError(t, err)
		require.Equal(t, Chunked, req.Decision.Kind)
	})

	t.Run("last transfer encoding entry governs", func(t *testing.T) {
		hdrs := headers("Transfer-Encoding", "chunked", "Transfer-Encoding", "identity")
		req, err := NegotiateRequest(hdrs, proto.HTTP11, true)
		require.NoError(t, err)
		require.Equal(t, Identity, req.Decision.Kind)
		require.False(t, req.Persistent)
	})

	t.Run("zero content length", func(t *testing.T) {
		req, err := NegotiateRequest(headers("Content-Length", "0"), proto.HTTP11, true)
		require.NoError(t, err)
		require.Equal(t, Empty, req.Decision.Kind)
		require.True(t, req.Consumed)
		require.True(t, req.Persistent)
	})

	t.Run("positive content length", func(t *testing.T) {
		req, err := NegotiateRequest(headers("Content-Length", "100"), proto.HTTP11, true)
		require.NoError(t, err)
		require.Equal(t, FixedLength, req.Decision.Kind)
		require.EqualValues(t, 100, req.Decision.Length)
		require.False(t, req.Consumed)
	})

	t.Run("first content length entry governs", func(t *testing.T) {
		hdrs := headers("Content-Length", "5", "Content-Length", "10")
		req, err := NegotiateRequest(hdrs, proto.HTTP11, true)
		require.NoError(t, err)
		require.EqualValues(t, 5, req.Decision.Length)
	})

	t.Run("malformed content length", func(t *testing.T) {
		for _, value := range []string{"banana", "-5", "12banana", "1e3", ""} {
			_, err := NegotiateRequest(headers("Content-Length", value), proto.HTTP11, true)
			require.ErrorIs(t, err, status.ErrMalformedContentLength, value)
		}
	})

	t.Run("identity transfer encoding downgrades persistence", func(t *testing.T) {
		req, err := NegotiateRequest(headers("Transfer-Encoding", "identity"), proto.HTTP11, true)
		require.NoError(t, err)
		require.Equal(t, Identity, req.Decision.Kind)
		require.False(t, req.Persistent)
	})

	t.Run("no framing headers on a persistent connection", func(t *testing.T) {
		req, err := NegotiateRequest(headers(), proto.HTTP11, true)
		require.NoError(t, err)
		require.Equal(t, Empty, req.Decision.Kind)
		require.True(t, req.Consumed)
	})

	t.Run("no framing headers on a non-persistent connection", func(t *testing.T) {
		req, err := NegotiateRequest(headers(), proto.HTTP10, false)
		require.NoError(t, err)
		require.Equal(t, Identity, req.Decision.Kind)
		require.False(t, req.Persistent)
		require.False(t, req.Consumed)
	})
}
