package wire

import (
	"net"

	"github.com/indigo-web/wire/http/method"
	"github.com/indigo-web/wire/http/proto"
	"github.com/indigo-web/wire/kv"
	"github.com/indigo-web/wire/transport"
)

// Exchange is a single request/response cycle on a connection. The same
// instance is reused for every cycle the connection serves.
type Exchange struct {
	// Method and Path are filled by the head parser.
	Method method.Method
	Path   string
	Proto  proto.Protocol
	// Headers holds the request headers exactly as they arrived, repetitions
	// included.
	Headers *kv.Storage
	// Body gives access to the request body, decoded according to the
	// negotiated framing.
	Body *Body

	client       transport.Client
	response     *Response
	persistent   bool
	broken       bool
	requestOver  bool
	responseOver bool

	onRequestEnd  func()
	onResponseEnd func()
}

func NewExchange(client transport.Client, body *Body) *Exchange {
	exchange := &Exchange{
		Headers:  kv.New(),
		Body:     body,
		client:   client,
		response: NewResponse(),
	}
	body.onComplete = exchange.terminateRequest

	return exchange
}

// Respond returns the connection's reusable response builder, cleared at the
// beginning of every cycle.
func (e *Exchange) Respond() *Response {
	return e.response
}

// Remote returns the address of the peer.
func (e *Exchange) Remote() net.Addr {
	return e.client.Remote()
}

// Persistent reports the current persistence verdict. It starts from the
// request headers and may only be downgraded as the cycle proceeds, never
// upgraded back.
func (e *Exchange) Persistent() bool {
	return e.persistent
}

// Reusable reports whether the connection may serve another request once the
// current response completes.
func (e *Exchange) Reusable() bool {
	return e.persistent && !e.broken
}

// OnRequestEnd registers a callback fired exactly once per cycle, when the
// request body is fully consumed or drained. The next pipelined request is
// not touched before that point.
func (e *Exchange) OnRequestEnd(cb func()) {
	e.onRequestEnd = cb
}

// OnResponseEnd registers a callback fired exactly once per cycle, when the
// response body has been transmitted completely.
func (e *Exchange) OnResponseEnd(cb func()) {
	e.onResponseEnd = cb
}

// markBroken rules out any further use of the connection. Used on I/O and
// framing violations, after which message boundaries cannot be trusted.
func (e *Exchange) markBroken() {
	e.broken = true
	e.persistent = false
}

func (e *Exchange) terminateRequest() {
	if e.requestOver {
		return
	}

	e.requestOver = true
	if e.onRequestEnd != nil {
		e.onRequestEnd()
	}
}

func (e *Exchange) terminateResponse() {
	if e.responseOver {
		return
	}

	e.responseOver = true
	if e.onResponseEnd != nil {
		e.onResponseEnd()
	}
}

// reset prepares the exchange for the next cycle on the same connection.
func (e *Exchange) reset() {
	e.Method = method.Unknown
	e.Path = ""
	e.Proto = proto.Unknown
	e.Headers.Clear()
	e.response.Clear()
	e.requestOver = false
	e.responseOver = false
}
