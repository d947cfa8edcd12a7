package wire

import (
	"bufio"
	"bytes"
	"io"
	stdhttp "net/http"
	"strings"
	"testing"

	"github.com/indigo-web/wire/config"
	"github.com/indigo-web/wire/transport/dummy"
	"github.com/stretchr/testify/require"
)

func serveDummy(t *testing.T, handler Handler, pieces ...[]byte) *dummy.Client {
	client := dummy.NewClient(pieces...).OneTime()
	NewSuit(config.Default(), client, handler, nil).Serve()
	require.True(t, client.Closed())

	return client
}

func readResponses(t *testing.T, client *dummy.Client) []*stdhttp.Response {
	stdreq, err := stdhttp.NewRequest(stdhttp.MethodGet, "/", nil)
	require.NoError(t, err)

	reader := bufio.NewReader(bytes.NewReader(client.Written()))
	var responses []*stdhttp.Response
	for {
		resp, err := stdhttp.ReadResponse(reader, stdreq)
		if err == io.EOF {
			return responses
		}

		require.NoError(t, err)
		_, err = io.ReadAll(resp.Body)
		require.NoError(t, err)
		responses = append(responses, resp)
	}
}

func TestSuit(t *testing.T) {
	t.Run("pipelined requests", func(t *testing.T) {
		var paths []string
		client := serveDummy(t,
			func(exchange *Exchange) *Response {
				// Path views the parser's buffer, which the next request reuses
				paths = append(paths, strings.Clone(exchange.Path))
				return exchange.Respond().String("hello from " + exchange.Path)
			},
			[]byte("GET /first HTTP/1.1\r\n\r\nGET /second HTTP/1.1\r\n\r\n"),
		)

		require.Equal(t, []string{"/first", "/second"}, paths)
		responses := readResponses(t, client)
		require.Equal(t, 2, len(responses))
		for _, resp := range responses {
			require.Equal(t, 200, resp.StatusCode)
		}
	})

	t.Run("connection close stops the loop", func(t *testing.T) {
		served := 0
		client := serveDummy(t,
			func(exchange *Exchange) *Response {
				served++
				return nil
			},
			[]byte("GET / HTTP/1.1\r\nConnection: close\r\n\r\nGET /never HTTP/1.1\r\n\r\n"),
		)

		require.Equal(t, 1, served)
		responses := readResponses(t, client)
		require.Equal(t, 1, len(responses))
		require.Equal(t, []string{"close"}, responses[0].Header["Connection"])
	})

	t.Run("body consumed by the handler", func(t *testing.T) {
		var received string
		client := serveDummy(t,
			func(exchange *Exchange) *Response {
				body, err := exchange.Body.String()
				require.NoError(t, err)
				received = body
				return exchange.Respond().String(body)
			},
			[]byte("POST /echo HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello"),
		)

		require.Equal(t, "hello", received)
		responses := readResponses(t, client)
		require.Equal(t, 1, len(responses))
	})

	t.Run("chunked body", func(t *testing.T) {
		var received string
		serveDummy(t,
			func(exchange *Exchange) *Response {
				body, err := exchange.Body.String()
				require.NoError(t, err)
				received = body
				return nil
			},
			[]byte("POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n"+
				"4\r\nwiki\r\n5\r\npedia\r\n0\r\n\r\n"),
		)

		require.Equal(t, "wikipedia", received)
	})

	t.Run("unread body is drained before the next request", func(t *testing.T) {
		var paths []string
		var terminations []string
		client := serveDummy(t,
			func(exchange *Exchange) *Response {
				if len(paths) == 0 {
					exchange.OnRequestEnd(func() {
						terminations = append(terminations, "request")
					})
					exchange.OnResponseEnd(func() {
						terminations = append(terminations, "response")
					})
				}
				paths = append(paths, strings.Clone(exchange.Path))

				// the body is deliberately left unread
				return nil
			},
			[]byte("POST /upload HTTP/1.1\r\nContent-Length: 10\r\n\r\n"+
				"0123456789GET /next HTTP/1.1\r\n\r\n"),
		)

		require.Equal(t, []string{"/upload", "/next"}, paths)
		require.Equal(t, 2, len(readResponses(t, client)))
		require.Contains(t, terminations, "request")
		require.Contains(t, terminations, "response")
	})

	t.Run("zero content length terminates immediately", func(t *testing.T) {
		terminatedInsideHandler := false
		serveDummy(t,
			func(exchange *Exchange) *Response {
				terminatedInsideHandler = exchange.Body.Completed()
				return nil
			},
			[]byte("POST / HTTP/1.1\r\nContent-Length: 0\r\n\r\n"),
		)

		require.True(t, terminatedInsideHandler)
	})

	t.Run("malformed content length", func(t *testing.T) {
		invoked := false
		client := serveDummy(t,
			func(exchange *Exchange) *Response {
				invoked = true
				return nil
			},
			[]byte("POST / HTTP/1.1\r\nContent-Length: banana\r\n\r\n"),
		)

		require.False(t, invoked, "the handler must never see a request with untrusted body boundaries")
		responses := readResponses(t, client)
		require.Equal(t, 1, len(responses))
		require.Equal(t, 400, responses[0].StatusCode)
		require.Equal(t, []string{"close"}, responses[0].Header["Connection"])
	})

	t.Run("malformed request head", func(t *testing.T) {
		client := serveDummy(t,
			func(exchange *Exchange) *Response { return nil },
			[]byte("BREW /coffee HTTP/1.1\r\n\r\n"),
		)

		responses := readResponses(t, client)
		require.Equal(t, 1, len(responses))
		require.Equal(t, 501, responses[0].StatusCode)
	})

	t.Run("HTTP/1.0 keep-alive", func(t *testing.T) {
		served := 0
		client := serveDummy(t,
			func(exchange *Exchange) *Response {
				served++
				return nil
			},
			[]byte("GET / HTTP/1.0\r\nConnection: keep-alive\r\n\r\n"),
			[]byte("GET / HTTP/1.0\r\n\r\n"),
		)

		// the second request carries no keep-alive, so it is the last one
		require.Equal(t, 2, served)
		responses := readResponses(t, client)
		require.Equal(t, 2, len(responses))
		require.Equal(t, []string{"keep-alive"}, responses[0].Header["Connection"])
		require.NotContains(t, responses[1].Header, "Connection")
	})
}

func TestApp_NoHandler(t *testing.T) {
	require.ErrorIs(t, New(nil).Serve(nil), ErrNoHandler)
}
