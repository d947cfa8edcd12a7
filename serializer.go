package wire

import (
	"io"
	"strconv"

	"github.com/indigo-web/wire/framing"
	"github.com/indigo-web/wire/http/proto"
	"github.com/indigo-web/wire/http/status"
	"github.com/indigo-web/wire/transport"
)

var (
	crlf             = []byte("\r\n")
	chunkedFinalizer = []byte("0\r\n\r\n")
)

// Serializer renders response heads and pushes response bodies through the
// framed writer the negotiation picked. A head is always transmitted in a
// single write.
type Serializer struct {
	buff           []byte
	streamBuff     []byte
	streamBuffSize int
	chunked        chunkedWriter
	fixed          fixedWriter
	identity       identityWriter
}

func NewSerializer(buff []byte, streamBuffSize int) *Serializer {
	return &Serializer{
		buff:           buff[:0],
		streamBuffSize: streamBuffSize,
	}
}

// Write serializes the whole response: it completes the length declaration,
// negotiates the outbound framing (mutating the response headers on the way),
// transmits the head and then the body through the corresponding framed
// writer. Exchange state is updated with the final persistence verdict, and
// any framing or I/O violation marks the connection broken.
func (s *Serializer) Write(
	protocol proto.Protocol, exchange *Exchange, resp *Response, client transport.Client,
) error {
	defer s.clear()

	if protocol&proto.HTTP1 == 0 {
		// the request might have failed before the version was even parsed
		protocol = proto.HTTP11
	}

	s.declareLength(resp)

	negotiated, err := framing.NegotiateResponse(
		resp.headers, exchange.Method, resp.code, protocol, exchange.persistent,
	)
	if err != nil {
		exchange.markBroken()
		return err
	}

	exchange.persistent = negotiated.Persistent

	s.renderHead(protocol, resp)
	if err = client.Write(s.buff); err != nil {
		exchange.markBroken()
		return status.ErrCloseConnection
	}

	if err = s.writeBody(negotiated.Decision, resp, client); err != nil {
		exchange.markBroken()
		return err
	}

	exchange.terminateResponse()

	return nil
}

// declareLength fills in the Content-Length the handler did not bother to set
// itself. An unsized stream stays undeclared on purpose: negotiation then
// picks chunked on HTTP/1.1 and close-delimiting on older protocols.
func (s *Serializer) declareLength(resp *Response) {
	if resp.headers.Has("Content-Length") || resp.headers.Has("Transfer-Encoding") {
		return
	}

	switch {
	case resp.stream == nil:
		resp.headers.Set("Content-Length", strconv.Itoa(len(resp.body)))
	case resp.streamSize > 0:
		resp.headers.Set("Content-Length", strconv.FormatInt(resp.streamSize, 10))
	}
}

func (s *Serializer) renderHead(protocol proto.Protocol, resp *Response) {
	s.buff = append(s.buff, protocol.String()...)
	s.sp()
	s.buff = strconv.AppendUint(s.buff, uint64(resp.code), 10)
	s.sp()

	text := resp.status
	if text == "" {
		text = status.Text(resp.code)
	}
	s.buff = append(s.buff, text...)
	s.crlf()

	for _, pair := range resp.headers.Expose() {
		s.buff = append(s.buff, pair.Key...)
		s.buff = append(s.buff, ':', ' ')
		s.buff = append(s.buff, pair.Value...)
		s.crlf()
	}

	s.crlf()
}

func (s *Serializer) writeBody(
	decision framing.Decision, resp *Response, client transport.Client,
) error {
	if decision.Kind == framing.Empty {
		// HEAD responses and bodiless statuses: whatever body the handler set
		// stays off the wire
		closeStream(resp)
		return nil
	}

	writer := s.framedWriter(decision, client)

	var err error
	if resp.stream == nil {
		if len(resp.body) > 0 {
			err = writer.Write(resp.body)
		}
	} else {
		err = s.pump(resp.stream, writer)
		closeStream(resp)
	}

	if err != nil {
		return err
	}

	return writer.Close()
}

func (s *Serializer) framedWriter(decision framing.Decision, client transport.Client) framedWriter {
	switch decision.Kind {
	case framing.Chunked:
		s.chunked.client = client
		return &s.chunked
	case framing.FixedLength:
		s.fixed.client = client
		s.fixed.remaining = decision.Length
		return &s.fixed
	default:
		s.identity.client = client
		return &s.identity
	}
}

func (s *Serializer) pump(r io.Reader, writer framedWriter) error {
	if len(s.streamBuff) == 0 {
		s.streamBuff = make([]byte, s.streamBuffSize)
	}

	for {
		n, err := r.Read(s.streamBuff)
		if n > 0 {
			if werr := writer.Write(s.streamBuff[:n]); werr != nil {
				return werr
			}
		}

		switch err {
		case nil:
		case io.EOF:
			return nil
		default:
			return status.ErrCloseConnection
		}
	}
}

func (s *Serializer) sp() {
	s.buff = append(s.buff, ' ')
}

func (s *Serializer) crlf() {
	s.buff = append(s.buff, crlf...)
}

func (s *Serializer) clear() {
	s.buff = s.buff[:0]
}

func closeStream(resp *Response) {
	if closer, ok := resp.stream.(io.Closer); ok {
		_ = closer.Close()
	}
}

// framedWriter delimits the response body on the wire. Close finalizes the
// body and must be called exactly once; it is the point where too short
// bodies are caught.
type framedWriter interface {
	Write(p []byte) error
	Close() error
}

// chunkedWriter transmits every piece it is given as a single chunk: the
// chunk size in hex, CRLF, the payload, CRLF. Close transmits the terminating
// zero-length chunk.
type chunkedWriter struct {
	client   transport.Client
	sizeBuff []byte
}

func (c *chunkedWriter) Write(p []byte) error {
	if len(p) == 0 {
		// a zero-sized chunk would terminate the body prematurely
		return nil
	}

	c.sizeBuff = strconv.AppendUint(c.sizeBuff[:0], uint64(len(p)), 16)
	c.sizeBuff = append(c.sizeBuff, crlf...)

	if err := c.client.Write(c.sizeBuff); err != nil {
		return status.ErrCloseConnection
	}
	if err := c.client.Write(p); err != nil {
		return status.ErrCloseConnection
	}
	if err := c.client.Write(crlf); err != nil {
		return status.ErrCloseConnection
	}

	return nil
}

func (c *chunkedWriter) Close() error {
	if err := c.client.Write(chunkedFinalizer); err != nil {
		return status.ErrCloseConnection
	}

	return nil
}

// fixedWriter counts the declared Content-Length down and refuses to cross it
// in either direction.
type fixedWriter struct {
	client    transport.Client
	remaining int64
}

func (f *fixedWriter) Write(p []byte) error {
	if int64(len(p)) > f.remaining {
		return status.ErrLongWrite
	}

	f.remaining -= int64(len(p))
	if err := f.client.Write(p); err != nil {
		return status.ErrCloseConnection
	}

	return nil
}

func (f *fixedWriter) Close() error {
	if f.remaining > 0 {
		// the peer was promised more bytes than it got. There is no way to
		// signal the shortage in-band, so the connection must go down
		return status.ErrShortWrite
	}

	return nil
}

// identityWriter passes the body through as-is. Such a body is delimited by
// the connection closing, which the conn loop does anyway, as identity framing
// never leaves the connection reusable.
type identityWriter struct {
	client transport.Client
}

func (i *identityWriter) Write(p []byte) error {
	if err := i.client.Write(p); err != nil {
		return status.ErrCloseConnection
	}

	return nil
}

func (i *identityWriter) Close() error {
	return nil
}
