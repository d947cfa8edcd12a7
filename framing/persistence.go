package framing

import (
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/wire/http/proto"
	"github.com/indigo-web/wire/kv"
)

// Persistence reports whether the connection looks reusable, judging by the request
// line and headers alone. The verdict may still be downgraded later by either of
// the negotiation phases.
func Persistence(protocol proto.Protocol, requestHeaders *kv.Storage) bool {
	switch protocol {
	case proto.HTTP11:
		// in case of HTTP/1.1, keep-alive may only be explicitly disabled
		return !strcomp.EqualFold(requestHeaders.Value("Connection"), "close")
	case proto.HTTP10:
		return strcomp.EqualFold(requestHeaders.Value("Connection"), "keep-alive")
	default:
		return false
	}
}
