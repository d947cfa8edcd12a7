package wire

import (
	"github.com/indigo-web/chunkedbody"
	"github.com/indigo-web/utils/buffer"
	"github.com/indigo-web/wire/config"
	"github.com/indigo-web/wire/framing"
	"github.com/indigo-web/wire/transport"
)

// Suit drives a single connection: it parses request heads, negotiates the
// framing for both directions, dispatches the handler and enforces the
// negotiated verdicts on the byte stream. Requests on a connection are strictly
// sequential; the only concurrency involved is draining an unread request body
// in the background while the response is being written.
type Suit struct {
	client     transport.Client
	exchange   *Exchange
	parser     *Parser
	serializer *Serializer
	onRequest  Handler
	onError    ErrorHandler
}

func NewSuit(cfg *config.Config, client transport.Client, onRequest Handler, onError ErrorHandler) *Suit {
	if onError == nil {
		onError = defaultErrorHandler
	}

	chunkedSettings := chunkedbody.DefaultSettings()
	chunkedSettings.MaxChunkSize = cfg.Body.MaxChunkSize

	body := NewBody(client, chunkedbody.NewParser(chunkedSettings), cfg.Body)
	exchange := NewExchange(client, body)
	parser := NewParser(
		exchange,
		buffer.New(cfg.URI.RequestLineSize.Default, cfg.URI.RequestLineSize.Maximal),
		buffer.New(cfg.Headers.Space.Default, cfg.Headers.Space.Maximal),
		buffer.New(cfg.Headers.Space.Default, cfg.Headers.Space.Maximal),
		cfg.Headers,
	)
	serializer := NewSerializer(
		make([]byte, 0, cfg.HTTP.ResponseBuffSize), cfg.HTTP.BodyBuffSize,
	)

	return &Suit{
		client:     client,
		exchange:   exchange,
		parser:     parser,
		serializer: serializer,
		onRequest:  onRequest,
		onError:    onError,
	}
}

// Serve processes requests until the connection is to be closed, then closes it.
func (s *Suit) Serve() {
	for s.serve() {
	}

	_ = s.client.Close()
}

func (s *Suit) serve() (continues bool) {
	data, err := s.client.Read()
	if err != nil {
		// the peer went away or timed out in between requests, nothing to
		// respond to
		return false
	}

	state, extra, err := s.parser.Parse(data)
	switch state {
	case Pending:
		return true
	case HeadersCompleted:
		exchange := s.exchange
		s.client.Unread(extra)

		persistent := framing.Persistence(exchange.Proto, exchange.Headers)
		request, err := framing.NegotiateRequest(exchange.Headers, exchange.Proto, persistent)
		if err != nil {
			// the body boundaries cannot be trusted, so the handler is never
			// invoked for this request
			exchange.persistent = false
			s.respondError(err)
			return false
		}

		exchange.persistent = request.Persistent
		exchange.Body.Init(request, exchange.Headers.Has("Trailer"))
		if request.Consumed {
			exchange.terminateRequest()
		}

		resp := s.onRequest(exchange)
		if resp == nil {
			resp = exchange.Respond()
		}

		drain := s.scheduleDrain()
		err = s.serializer.Write(exchange.Proto, exchange, resp, s.client)

		if drain != nil {
			if drainErr := <-drain; drainErr != nil {
				exchange.markBroken()
			}
		}
		exchange.terminateRequest()

		if err != nil || !exchange.Reusable() {
			return false
		}

		exchange.reset()

		return true
	case Error:
		s.exchange.persistent = false
		s.respondError(err)
		return false
	default:
		panic("BUG: got unexpected parser state")
	}
}

// scheduleDrain arranges for the remainder of the request body to be discarded
// concurrently with writing the response. The returned channel reports the
// drain outcome; nil means there is nothing left to drain, or that draining is
// moot because the connection is not going to be reused anyway.
func (s *Suit) scheduleDrain() <-chan error {
	if s.exchange.Body.Completed() || !s.exchange.Reusable() {
		return nil
	}

	drained := make(chan error, 1)
	go func() {
		drained <- s.exchange.Body.Discard()
	}()

	return drained
}

func (s *Suit) respondError(err error) {
	resp := s.onError(s.exchange, err)
	if resp == nil {
		return
	}

	_ = s.serializer.Write(s.exchange.Proto, s.exchange, resp, s.client)
}
