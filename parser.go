package wire

import (
	"bytes"
	"fmt"

	"github.com/indigo-web/utils/buffer"
	"github.com/indigo-web/utils/uf"
	"github.com/indigo-web/wire/config"
	"github.com/indigo-web/wire/http/method"
	"github.com/indigo-web/wire/http/proto"
	"github.com/indigo-web/wire/http/status"
)

// RequestState is what the head parser reports back after every piece of data
// fed into it.
type RequestState uint8

const (
	// Pending means the head is incomplete and more data is wanted.
	Pending RequestState = iota + 1
	// HeadersCompleted means the whole head was parsed. Data following it,
	// body bytes or a pipelined next request, is handed back as extra.
	HeadersCompleted
	// Error means the request is malformed beyond recovery.
	Error
)

type parserState uint8

const (
	eMethod parserState = iota + 1
	ePath
	eHeaderKey
	eHeaderValue
	eHeaderValueCRLFCR
)

// Parser is a stream-based request head parser. It fills the exchange object
// by pointer in performance purposes: the request line lands in Method, Path
// and Proto, headers land in Headers untouched, repetitions included. Framing
// headers receive no special treatment here, interpreting them is a separate
// concern. The body must be processed separately as well.
type Parser struct {
	exchange        *Exchange
	startLineBuff   *buffer.Buffer
	headerKeyBuff   *buffer.Buffer
	headerValueBuff *buffer.Buffer
	headerKey       string
	headersNumber   int
	maxHeaders      int
	state           parserState
}

func NewParser(
	exchange *Exchange, startLineBuff, keyBuff, valBuff *buffer.Buffer, s config.Headers,
) *Parser {
	return &Parser{
		state:           eMethod,
		exchange:        exchange,
		startLineBuff:   startLineBuff,
		headerKeyBuff:   keyBuff,
		headerValueBuff: valBuff,
		maxHeaders:      s.Number.Maximal,
	}
}

func (p *Parser) Parse(data []byte) (state RequestState, extra []byte, err error) {
	exchange := p.exchange
	headerKeyBuff := p.headerKeyBuff
	headerValueBuff := p.headerValueBuff

	switch p.state {
	case eMethod:
		goto method
	case ePath:
		goto path
	case eHeaderKey:
		goto headerKey
	case eHeaderValue:
		goto headerValue
	case eHeaderValueCRLFCR:
		goto headerValueCRLFCR
	default:
		panic(fmt.Sprintf("BUG: request parser: unexpected state: %v", p.state))
	}

method:
	{
		sp := bytes.IndexByte(data, ' ')
		if sp == -1 {
			if !p.startLineBuff.Append(data) {
				return Error, nil, status.ErrTooLongRequestLine
			}

			return Pending, nil, nil
		}

		var methodValue []byte
		if p.startLineBuff.SegmentLength() == 0 {
			methodValue = data[:sp]
		} else {
			if !p.startLineBuff.Append(data[:sp]) {
				return Error, nil, status.ErrTooLongRequestLine
			}

			methodValue = p.startLineBuff.Finish()
		}

		if len(methodValue) == 0 {
			return Error, nil, status.ErrBadRequest
		}

		exchange.Method = method.Parse(uf.B2S(methodValue))
		if exchange.Method == method.Unknown {
			return Error, nil, status.ErrMethodNotImplemented
		}

		data = data[sp+1:]
		p.state = ePath
		goto path
	}

path:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.startLineBuff.Append(data) {
				return Error, nil, status.ErrURITooLong
			}

			return Pending, nil, nil
		}

		if !p.startLineBuff.Append(data[:lf]) {
			return Error, nil, status.ErrURITooLong
		}

		pathAndProto := p.startLineBuff.Finish()
		sp := bytes.LastIndexByte(pathAndProto, ' ')
		if sp == -1 {
			return Error, nil, status.ErrBadRequest
		}

		reqPath, reqProto := pathAndProto[:sp], pathAndProto[sp+1:]
		if len(reqProto) > 0 && reqProto[len(reqProto)-1] == '\r' {
			reqProto = reqProto[:len(reqProto)-1]
		}

		if len(reqPath) == 0 {
			return Error, nil, status.ErrBadRequest
		}

		exchange.Path = uf.B2S(reqPath)
		exchange.Proto = proto.FromBytes(reqProto)
		if exchange.Proto == proto.Unknown {
			return Error, nil, status.ErrHTTPVersionNotSupported
		}

		data = data[lf+1:]
		p.state = eHeaderKey
		goto headerKey
	}

headerKey:
	{
		if len(data) == 0 {
			return Pending, nil, nil
		}

		switch data[0] {
		case '\n':
			p.reset()

			return HeadersCompleted, data[1:], nil
		case '\r':
			data = data[1:]
			p.state = eHeaderValueCRLFCR
			goto headerValueCRLFCR
		}

		colon := bytes.IndexByte(data, ':')
		if colon == -1 {
			if !headerKeyBuff.Append(data) {
				return Error, nil, status.ErrHeaderFieldsTooLarge
			}

			return Pending, nil, nil
		}

		if !headerKeyBuff.Append(data[:colon]) {
			return Error, nil, status.ErrHeaderFieldsTooLarge
		}

		p.headerKey = uf.B2S(headerKeyBuff.Finish())
		data = data[colon+1:]

		if p.headersNumber++; p.headersNumber > p.maxHeaders {
			return Error, nil, status.ErrTooManyHeaders
		}

		p.state = eHeaderValue
		goto headerValue
	}

headerValue:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !headerValueBuff.Append(data) {
				return Error, nil, status.ErrHeaderFieldsTooLarge
			}

			return Pending, nil, nil
		}

		if !headerValueBuff.Append(data[:lf]) {
			return Error, nil, status.ErrHeaderFieldsTooLarge
		}

		data = data[lf+1:]
		value := uf.B2S(trimPrefixSpaces(headerValueBuff.Finish()))
		if len(value) > 0 && value[len(value)-1] == '\r' {
			value = value[:len(value)-1]
		}

		exchange.Headers.Add(p.headerKey, value)

		p.state = eHeaderKey
		goto headerKey
	}

headerValueCRLFCR:
	if len(data) == 0 {
		return Pending, nil, nil
	}

	if data[0] == '\n' {
		p.reset()

		return HeadersCompleted, data[1:], nil
	}

	return Error, nil, status.ErrBadRequest
}

func (p *Parser) reset() {
	p.headersNumber = 0
	p.startLineBuff.Clear()
	p.headerKeyBuff.Clear()
	p.headerValueBuff.Clear()
	p.state = eMethod
}

func trimPrefixSpaces(b []byte) []byte {
	for i, char := range b {
		if char != ' ' {
			return b[i:]
		}
	}

	return b[:0]
}
