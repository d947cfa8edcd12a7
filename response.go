package wire

import (
	"io"

	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
	"github.com/indigo-web/wire/http/status"
	"github.com/indigo-web/wire/kv"
)

// why 8? No theory behind the number, it just comfortably fits the usual
// handful of headers a handler sets without growing.
const preallocResponseHeaders = 8

// Response is a builder of a response message. How its body ends up delimited
// on the wire is not up to the builder: the decision is made right before
// serialization, based on the headers set here, the request method and the
// status code.
type Response struct {
	code       status.Code
	status     status.Status
	headers    *kv.Storage
	body       []byte
	stream     io.Reader
	streamSize int64
}

// NewResponse returns a new instance of the Response builder with the status
// code set to 200 OK.
//
// NOTE: inside of handlers, prefer Exchange.Respond() instead, as it reuses
// a single instance across the whole connection.
func NewResponse() *Response {
	return &Response{
		code:    status.OK,
		headers: kv.NewPrealloc(preallocResponseHeaders),
	}
}

// Code sets the response code. The corresponding status text is chosen
// automatically, unless overridden via Status.
func (r *Response) Code(code status.Code) *Response {
	r.code = code
	return r
}

// Status sets a custom status text. Clients generally ignore it, so there is
// rarely a reason to call it.
func (r *Response) Status(text status.Status) *Response {
	r.status = text
	return r
}

// ContentType sets the Content-Type header value.
func (r *Response) ContentType(value string) *Response {
	r.headers.Set("Content-Type", value)
	return r
}

// Header adds header values to the key, keeping the already added ones.
func (r *Response) Header(key string, values ...string) *Response {
	for _, value := range values {
		r.headers.Add(key, value)
	}

	return r
}

// Headers exposes the response's header storage directly. Note that framing
// negotiation may adjust it during serialization: Transfer-Encoding and
// Connection in particular do not necessarily leave in the shape they were set.
func (r *Response) Headers() *kv.Storage {
	return r.headers
}

// String sets the response's body to the passed string.
func (r *Response) String(body string) *Response {
	return r.Bytes(uf.S2B(body))
}

// Bytes sets the response's body to the passed slice WITHOUT copying. Modifying
// it until the response is written affects the response itself.
func (r *Response) Bytes(body []byte) *Response {
	r.body = body
	r.stream = nil
	return r
}

// Write implements io.Writer by appending to the buffered body. It always
// returns n=len(b) and err=nil.
func (r *Response) Write(b []byte) (n int, err error) {
	r.body = append(r.body, b...)
	return len(b), nil
}

// Stream sets the response's body to an io.Reader. If size is known, pass it
// positive and the body will be transmitted with a Content-Length; otherwise
// pass a non-positive value, in which case chunked transfer encoding is used
// on HTTP/1.1 and close-delimiting on older protocols. If the reader also
// implements io.Closer, it is closed once the body is transmitted. A stream
// replaces any buffered body set before.
func (r *Response) Stream(reader io.Reader, size int64) *Response {
	r.stream = reader
	r.streamSize = size
	return r
}

// TryJSON serializes the model into the response's body and sets the
// application/json content type.
func (r *Response) TryJSON(model any) (*Response, error) {
	r.body = r.body[:0]
	stream := json.ConfigDefault.BorrowStream(r)
	stream.WriteVal(model)
	err := stream.Flush()
	json.ConfigDefault.ReturnStream(stream)

	return r.ContentType("application/json"), err
}

// JSON does the same as TryJSON does, except the returned error is implicitly
// wrapped by Error.
func (r *Response) JSON(model any) *Response {
	resp, err := r.TryJSON(model)
	if err != nil {
		return r.Error(err)
	}

	return resp
}

// Error fills the response from an error. status.HTTPError instances carry
// their own code; for any other error the code defaults to 500 Internal
// Server Error, unless overridden via the optional argument.
func (r *Response) Error(err error, code ...status.Code) *Response {
	if err == nil {
		return r
	}

	if httpErr, ok := err.(status.HTTPError); ok {
		return r.
			Code(httpErr.Code).
			String(httpErr.Message)
	}

	c := status.InternalServerError
	if len(code) > 0 {
		// peek the first, ignore the rest
		c = code[0]
	}

	return r.
		Code(c).
		String(err.Error())
}

// Clear brings the response builder back to its initial state, keeping the
// allocated space for reuse.
func (r *Response) Clear() *Response {
	r.code = status.OK
	r.status = ""
	r.headers.Clear()
	r.body = r.body[:0]
	r.stream = nil
	r.streamSize = 0
	return r
}
