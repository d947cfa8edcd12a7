// Package framing decides how HTTP/1.x message bodies are delimited on the wire
// and whether the connection may be reused for a subsequent request. It faithfully
// implements the message-length determination algorithm of RFC 2616 section 4.4.
//
// The package is pure: negotiation only reads protocol state and mutates header
// storages it was explicitly given. Enforcing the decisions on actual byte streams
// is up to the wire package.
package framing

import "strconv"

type Kind uint8

const (
	// Identity stands for a close-delimited body: it runs until the connection
	// is closed, thereby precluding any reuse of it.
	Identity Kind = iota
	// FixedLength stands for a body of exactly Decision.Length bytes.
	FixedLength
	// Chunked stands for a sequence of length-prefixed chunks, terminated by a
	// zero-length one.
	Chunked
	// Empty stands for no body at all. Zero bytes belonging to it are on the wire.
	Empty
)

// Decision tells how exactly a message body is delimited. It is computed once per
// direction per request/response cycle and is immutable thereafter.
type Decision struct {
	Kind Kind
	// Length is the declared body size. Meaningful for FixedLength only.
	Length int64
}

func (d Decision) String() string {
	switch d.Kind {
	case Identity:
		return "close-delimited"
	case FixedLength:
		return "fixed-length(" + strconv.FormatInt(d.Length, 10) + ")"
	case Chunked:
		return "chunked"
	case Empty:
		return "empty"
	default:
		return "unknown framing"
	}
}
