package status

type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	ErrCloseConnection = NewError(CloseConnection, "actively closing the connection")
	ErrShutdown        = NewError(CloseConnection, "graceful shutdown")

	ErrBadRequest              = NewError(BadRequest, "bad request")
	ErrTooLongRequestLine      = NewError(BadRequest, "request line is too long")
	ErrBadChunk                = NewError(BadRequest, "malformed chunk-encoded data")
	ErrMalformedContentLength  = NewError(BadRequest, "malformed Content-Length value")
	ErrNotFound                = NewError(NotFound, "not found")
	ErrInternalServerError     = NewError(InternalServerError, "internal server error")
	ErrMethodNotImplemented    = NewError(NotImplemented, "request method is not supported")
	ErrBodyTooLarge            = NewError(RequestEntityTooLarge, "request body is too large")
	ErrHeaderFieldsTooLarge    = NewError(RequestHeaderFieldsTooLarge, "too large headers section")
	ErrTooManyHeaders          = NewError(RequestHeaderFieldsTooLarge, "too many headers")
	ErrURITooLong              = NewError(RequestURITooLong, "request URI too long")
	ErrHTTPVersionNotSupported = NewError(HTTPVersionNotSupported, "HTTP version not supported")

	// ErrShortWrite is returned when a fixed-length response writer is closed
	// before the declared byte count was written. The client cannot recover
	// message boundaries at this point, so the connection must be closed.
	ErrShortWrite = NewError(InternalServerError, "response body is shorter than the declared Content-Length")
	// ErrLongWrite is returned on an attempt to write past the declared
	// Content-Length of a response.
	ErrLongWrite = NewError(InternalServerError, "response body exceeds the declared Content-Length")
)

// CloseConnection is a special internal code signaling that the connection must
// be closed without rendering any status line for it.
const CloseConnection Code = 0
