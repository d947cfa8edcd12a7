package dummy

import (
	"io"
	"net"

	"github.com/indigo-web/wire/transport"
)

var _ transport.Client = new(Client)

// Client returns the pre-programmed pieces of data on reads, unless set to shoot
// once, in which case io.EOF follows the last piece. It also tracks all the
// written data, making it thereby a universal mock suitable for most of the tests.
type Client struct {
	closed  bool
	once    bool
	pointer int
	tmp     []byte
	written []byte
	data    [][]byte
}

func NewClient(data ...[]byte) *Client {
	return &Client{
		data:    data,
		pointer: 0,
	}
}

// OneTime makes the client return io.EOF once all the data pieces are exhausted,
// instead of starting over.
func (c *Client) OneTime() *Client {
	c.once = true
	return c
}

func (c *Client) Read() (data []byte, err error) {
	if c.closed {
		return nil, io.EOF
	}

	if len(c.tmp) > 0 {
		data, c.tmp = c.tmp, nil

		return data, nil
	}

	if c.pointer >= len(c.data) {
		if c.once {
			c.closed = true
			return nil, io.EOF
		}

		c.pointer = 0
	}

	piece := c.data[c.pointer]
	c.pointer++

	return piece, nil
}

func (c *Client) Unread(takeback []byte) {
	c.tmp = takeback
}

func (c *Client) Write(p []byte) error {
	c.written = append(c.written, p...)
	return nil
}

// Written exposes everything the client was asked to transmit so far.
func (c *Client) Written() []byte {
	return c.written
}

func (c *Client) Conn() net.Conn {
	return nil
}

func (c *Client) Remote() net.Addr {
	return nil
}

func (c *Client) Close() error {
	c.closed = true
	return nil
}

func (c *Client) Closed() bool {
	return c.closed
}

// NewNopClient returns a client without any data to serve, which reports io.EOF
// on the first read already.
func NewNopClient() *Client {
	return NewClient().OneTime()
}
