// Package wire implements HTTP/1.x message framing and connection persistence:
// deciding how request and response bodies are delimited on the wire, enforcing
// those decisions on the byte stream and telling whether a connection may be
// reused for the next request. The negotiation rules themselves live in the
// framing subpackage; this package drives them over real connections.
package wire

import (
	"errors"
	"net"
	"sync"

	"github.com/indigo-web/wire/config"
	"github.com/indigo-web/wire/http/status"
	"github.com/indigo-web/wire/transport"
)

// Handler processes a single request/response cycle. It may return the
// response built via exchange.Respond(), or nil, which stands for an empty
// 200 OK.
type Handler func(exchange *Exchange) *Response

// ErrorHandler converts a request processing error into a response. Returning
// nil suppresses the response entirely and the connection is simply closed.
type ErrorHandler func(exchange *Exchange, err error) *Response

// ErrNoHandler is returned on an attempt to serve without a request handler.
// There is no implicit fallback: a handler is a required part of the setup,
// and missing one is a configuration error.
var ErrNoHandler = errors.New("wire: request handler is not set")

func defaultErrorHandler(exchange *Exchange, err error) *Response {
	if httpErr, ok := err.(status.HTTPError); ok && httpErr.Code == status.CloseConnection {
		// pseudo-code signaling that nothing is to be written back
		return nil
	}

	return exchange.Respond().Clear().Error(err)
}

// App glues the pieces together: a listener, per-connection clients and suits,
// and the handler pair shared by all of them.
type App struct {
	cfg       *config.Config
	onRequest Handler
	onError   ErrorHandler

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	shutdown bool
}

// New returns an App serving every request via the passed handler.
func New(onRequest Handler) *App {
	return &App{
		cfg:       config.Default(),
		onRequest: onRequest,
		conns:     map[net.Conn]struct{}{},
	}
}

// Config replaces the default config.
func (a *App) Config(cfg *config.Config) *App {
	a.cfg = cfg
	return a
}

// OnError sets the error handler. By default, errors are rendered via
// Response.Error with their own status codes.
func (a *App) OnError(handler ErrorHandler) *App {
	a.onError = handler
	return a
}

// Listen starts serving plaintext connections on the address.
func (a *App) Listen(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	return a.Serve(listener)
}

// ListenTLS starts serving TLS connections on the address, using the passed
// certificate. If cert and key are both empty, a self-signed localhost
// certificate is generated, which suits development purposes only.
func (a *App) ListenTLS(addr, cert, key string) error {
	if cert == "" && key == "" {
		var err error
		cert, key, err = generateSelfSignedCert()
		if err != nil {
			return err
		}
	}

	listener, err := tlsListener(cert, key)("tcp", addr)
	if err != nil {
		return err
	}

	return a.Serve(listener)
}

// ListenAutoTLS starts serving TLS connections on the address, obtaining
// certificates via ACME. Passing domains restricts issuance to them.
func (a *App) ListenAutoTLS(addr string, domains ...string) error {
	listener, err := autoTLSListener(domains...)("tcp", addr)
	if err != nil {
		return err
	}

	return a.Serve(listener)
}

// Serve accepts and processes connections from the listener until it is
// stopped. Each connection gets a goroutine of its own.
func (a *App) Serve(listener net.Listener) error {
	if a.onRequest == nil {
		return ErrNoHandler
	}

	a.mu.Lock()
	a.listener = listener
	a.mu.Unlock()

	wg := new(sync.WaitGroup)

	for {
		conn, err := listener.Accept()
		if err != nil {
			wg.Wait()

			if a.stopping() {
				return status.ErrShutdown
			}

			return err
		}

		a.track(conn)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer a.untrack(conn)

			a.serveConn(conn)
		}()
	}
}

// Stop shuts the listener and ALL the connections down.
func (a *App) Stop() error {
	if err := a.stopListener(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for conn := range a.conns {
		_ = conn.Close()
	}

	return nil
}

// GracefulShutdown stops the listener, leaving all the connections free to end
// their lives peacefully.
func (a *App) GracefulShutdown() error {
	return a.stopListener()
}

func (a *App) serveConn(conn net.Conn) {
	readBuff := make([]byte, a.cfg.NET.ReadBufferSize)
	client := transport.NewClient(conn, a.cfg.NET.ReadTimeout, readBuff)
	NewSuit(a.cfg, client, a.onRequest, a.onError).Serve()
}

func (a *App) stopListener() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.shutdown = true
	if a.listener == nil {
		return nil
	}

	return a.listener.Close()
}

func (a *App) stopping() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.shutdown
}

func (a *App) track(conn net.Conn) {
	a.mu.Lock()
	a.conns[conn] = struct{}{}
	a.mu.Unlock()
}

func (a *App) untrack(conn net.Conn) {
	a.mu.Lock()
	delete(a.conns, conn)
	a.mu.Unlock()
}
