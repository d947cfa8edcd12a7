package framing

import (
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/wire/http/proto"
	"github.com/indigo-web/wire/kv"
)

// Request is the outcome of the inbound negotiation phase.
type Request struct {
	Decision Decision
	// Persistent is the possibly downgraded persistence verdict. It can never
	// be upgraded back: once false, the connection is closed after the response
	// completes.
	Persistent bool
	// Consumed marks requests whose body is already fully consumed without a
	// single read, so the next request in a pipeline may start immediately.
	Consumed bool
}

// NegotiateRequest decides how the inbound body is delimited. The rules follow
// RFC 2616 section 4.4, first match wins:
//
//  1. A Transfer-Encoding other than identity overrides everything: the body is
//     chunk-encoded. The last of repeated Transfer-Encoding fields governs.
//  2. Otherwise Content-Length, if present, declares the exact body size. The
//     first of repeated Content-Length fields governs. Zero means no body at all.
//  3. An explicit identity transfer coding without a length leaves the body
//     boundary unknowable, so the connection cannot be reused.
//  4. No framing headers at all mean no body.
//
// Negotiation errors are fatal for the connection and must prevent the handler
// from ever being invoked with an inconsistent body view.
func NegotiateRequest(headers *kv.Storage, protocol proto.Protocol, persistent bool) (Request, error) {
	_ = protocol // the version asymmetries are handled on the response side only

	te, hasTE := headers.Last("Transfer-Encoding")

	if hasTE && !strcomp.EqualFold(te, "identity") {
		return Request{Decision{Kind: Chunked}, persistent, false}, nil
	}

	if cl, hasCL := headers.Get("Content-Length"); hasCL {
		n, err := parseContentLength(cl)
		if err != nil {
			return Request{}, err
		}

		if n == 0 {
			return Request{Decision{Kind: Empty}, persistent, true}, nil
		}

		return Request{Decision{Kind: FixedLength, Length: n}, persistent, false}, nil
	}

	if hasTE {
		// identity transfer coding with no length: the server cannot safely know
		// where the body ends, so the connection must not be reused
		return Request{Decision{Kind: Identity}, false, false}, nil
	}

	if persistent {
		return Request{Decision{Kind: Empty}, persistent, true}, nil
	}

	// no framing headers on a non-persistent connection: body handling is moot,
	// whatever arrives before the close simply belongs to this request
	return Request{Decision{Kind: Identity}, false, false}, nil
}
