package framing

import (
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/wire/http/method"
	"github.com/indigo-web/wire/http/proto"
	"github.com/indigo-web/wire/http/status"
	"github.com/indigo-web/wire/kv"
)

// Response is the outcome of the outbound negotiation phase.
type Response struct {
	Decision Decision
	// Persistent is the final verdict: may the connection be reused once the
	// response completes. Same as on the request side, only downgrades happen.
	Persistent bool
}

// NegotiateResponse decides how the outbound body is delimited and advertises
// the verdict by mutating the response headers in place. The mutations must
// therefore happen before the response head is serialized. Rules in order:
//
//  1. HEAD requests and 1xx/204/304 statuses never carry a body, no matter
//     what the headers claim.
//  2. An explicit Transfer-Encoding is honored on HTTP/1.1. On any other
//     version the field is invalid (RFC 2616 section 3.6, last paragraph) and
//     is stripped, falling back to length-based framing.
//  3. An HTTP/1.1 response of unknown length defaults to chunked, as otherwise
//     it could only be framed by closing the connection, defeating persistence.
//  4. Content-Length declares an exact size.
//  5. Close-delimited otherwise. The only way to signal the end of such a body
//     is to close the connection, so persistence is lost.
func NegotiateResponse(
	headers *kv.Storage,
	m method.Method,
	code status.Code,
	protocol proto.Protocol,
	persistent bool,
) (Response, error) {
	decision, persistent, err := negotiateResponse(headers, m, code, protocol, persistent)
	if err != nil {
		return Response{}, err
	}

	switch protocol {
	case proto.HTTP11:
		if persistent {
			// persistent is the default, no header needed
			headers.Remove("Connection")
		} else {
			headers.Set("Connection", "close")
		}
	case proto.HTTP10:
		if persistent {
			headers.Set("Connection", "keep-alive")
		} else {
			headers.Remove("Connection")
		}
	}

	return Response{decision, persistent}, nil
}

func negotiateResponse(
	headers *kv.Storage,
	m method.Method,
	code status.Code,
	protocol proto.Protocol,
	persistent bool,
) (Decision, bool, error) {
	if m == method.HEAD || (code >= 100 && code <= 199) || code == status.NoContent || code == status.NotModified {
		return Decision{Kind: Empty}, persistent, nil
	}

	te := "identity"
	if value, found := headers.Last("Transfer-Encoding"); found {
		if protocol == proto.HTTP11 {
			te = value
		} else {
			// transfer codings must not be sent to pre-HTTP/1.1 recipients
			headers.Remove("Transfer-Encoding")
		}
	} else if protocol == proto.HTTP11 && !headers.Has("Content-Length") {
		headers.Set("Transfer-Encoding", "chunked")
		te = "chunked"
	}

	switch {
	case !strcomp.EqualFold(te, "identity"):
		return Decision{Kind: Chunked}, persistent, nil
	case headers.Has("Content-Length"):
		n, err := parseContentLength(headers.Value("Content-Length"))
		if err != nil {
			return Decision{}, false, err
		}

		return Decision{Kind: FixedLength, Length: n}, persistent, nil
	default:
		return Decision{Kind: Identity}, false, nil
	}
}
