package wire

import (
	"io"
	"math"

	"github.com/indigo-web/chunkedbody"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
	"github.com/indigo-web/wire/config"
	"github.com/indigo-web/wire/framing"
	"github.com/indigo-web/wire/http/status"
	"github.com/indigo-web/wire/transport"
)

type OnBodyCallback func(data []byte) error

// Body reads the request body off the connection, decoded according to the
// framing negotiated for the current cycle. The end of the body is reported
// via io.EOF exactly once, possibly along with the last piece of data.
type Body struct {
	client        transport.Client
	chunkedParser *chunkedbody.Parser
	maxSize       uint

	kind       framing.Kind
	bytesLeft  int64
	received   uint
	hasTrailer bool
	eof        bool

	pending      []byte
	fullBodyBuff []byte
	onComplete   func()
}

func NewBody(client transport.Client, chunkedParser *chunkedbody.Parser, s config.Body) *Body {
	return &Body{
		client:        client,
		chunkedParser: chunkedParser,
		maxSize:       s.MaxSize,
	}
}

// Init arms the body for a new cycle. A fixed-length body on a connection
// that is not going to be reused is read straight through instead: limiting
// it buys nothing when the connection closes right afterwards anyway.
func (b *Body) Init(req framing.Request, hasTrailer bool) {
	b.kind = req.Decision.Kind
	b.bytesLeft = req.Decision.Length
	if b.kind == framing.FixedLength && !req.Persistent {
		b.kind = framing.Identity
	}

	b.received = 0
	b.hasTrailer = hasTrailer
	b.eof = b.kind == framing.Empty
	b.pending = nil
}

// Completed reports whether the body was consumed in its entirety.
func (b *Body) Completed() bool {
	return b.eof
}

// Retrieve returns the next piece of the body. The returned slice is valid
// only until the next call. io.EOF, possibly paired with the last piece,
// signals the end; all calls afterwards return io.EOF with no data.
func (b *Body) Retrieve() ([]byte, error) {
	if b.eof {
		return nil, io.EOF
	}

	var (
		piece []byte
		err   error
	)

	switch b.kind {
	case framing.FixedLength:
		piece, err = b.fixedRead()
	case framing.Chunked:
		piece, err = b.chunkedRead()
	default:
		piece, err = b.identityRead()
	}

	if err == io.EOF {
		b.eof = true
		if b.onComplete != nil {
			b.onComplete()
		}
	}

	return piece, err
}

// Bytes returns the whole body at once.
func (b *Body) Bytes() ([]byte, error) {
	if b.kind == framing.FixedLength && int64(cap(b.fullBodyBuff)) < b.bytesLeft {
		b.fullBodyBuff = make([]byte, 0, b.bytesLeft)
	}

	b.fullBodyBuff = b.fullBodyBuff[:0]

	for {
		data, err := b.Retrieve()
		b.fullBodyBuff = append(b.fullBodyBuff, data...)
		switch err {
		case nil:
		case io.EOF:
			return b.fullBodyBuff, nil
		default:
			return nil, err
		}
	}
}

// String returns the whole body at once as a string.
func (b *Body) String() (string, error) {
	bytes, err := b.Bytes()

	return uf.B2S(bytes), err
}

// JSON unmarshals the body into the model, which must be a pointer to a
// structure.
func (b *Body) JSON(model any) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, model)
}

// Callback invokes the callback for every piece of the body until it ends or
// the callback returns an error.
func (b *Body) Callback(cb OnBodyCallback) error {
	for {
		data, err := b.Retrieve()
		switch err {
		case nil:
		case io.EOF:
			return cb(data)
		default:
			return err
		}

		if err = cb(data); err != nil {
			return err
		}
	}
}

// Read implements io.Reader over the body.
func (b *Body) Read(p []byte) (int, error) {
	for len(b.pending) == 0 {
		if b.eof {
			return 0, io.EOF
		}

		data, err := b.Retrieve()
		if err != nil && err != io.EOF {
			return 0, err
		}

		b.pending = data
	}

	n := copy(p, b.pending)
	b.pending = b.pending[n:]

	return n, nil
}

// Discard reads the rest of the body out without keeping it. The amount of
// work is bounded by the framing itself: the declared byte count for
// fixed-length bodies, the terminating chunk for chunked ones.
func (b *Body) Discard() (err error) {
	for !b.eof {
		_, err = b.Retrieve()
		if err != nil {
			break
		}
	}

	if err == io.EOF {
		err = nil
	}

	return err
}

func (b *Body) fixedRead() (body []byte, err error) {
	data, err := b.client.Read()
	if err != nil {
		return nil, err
	}

	if uint64(b.bytesLeft) > uint64(b.maxSize) {
		return nil, status.ErrBodyTooLarge
	}

	if int64(len(data)) >= b.bytesLeft {
		body, data = data[:b.bytesLeft], data[b.bytesLeft:]
		b.client.Unread(data)
		b.bytesLeft = 0
		err = io.EOF
	} else {
		b.bytesLeft -= int64(len(data))
		body = data
	}

	return body, err
}

func (b *Body) chunkedRead() (body []byte, err error) {
	data, err := b.client.Read()
	if err != nil {
		return nil, err
	}

	chunk, extra, err := b.chunkedParser.Parse(data, b.hasTrailer)
	switch err {
	case nil, io.EOF:
	default:
		return nil, err
	}

	received, overflows := adduint(b.received, uint(len(chunk)))
	if overflows || received > b.maxSize {
		return nil, status.ErrBodyTooLarge
	}

	b.received = received
	b.client.Unread(extra)

	return chunk, err
}

func (b *Body) identityRead() ([]byte, error) {
	// the connection closing is the only thing delimiting the body
	return b.client.Read()
}

func adduint(x, y uint) (uint, bool) {
	return x + y, math.MaxUint-x < y
}
