package config

import (
	"time"
)

type (
	HeadersNumber struct {
		Default, Maximal int
	}

	HeadersSpace struct {
		Default, Maximal int
	}

	RequestLineSize struct {
		Default, Maximal int
	}
)

type (
	URI struct {
		// RequestLineSize is a shared buffer storing the method, path and protocol
		// while they are spread across multiple reads.
		RequestLineSize RequestLineSize
	}

	Headers struct {
		// Number is responsible for headers map size.
		// Default value is an initial size of the allocated headers map.
		// Maximal value is the maximal number of headers allowed to be present.
		Number HeadersNumber
		// Space limits the amount of memory occupied by request headers.
		Space HeadersSpace
	}

	Body struct {
		// MaxSize describes the maximal size of a body, that can be processed. 0 will
		// discard any request with a body (each call to the request body will result
		// in status.ErrBodyTooLarge).
		MaxSize uint
		// MaxChunkSize limits the size of a single chunk of a chunk-encoded body.
		MaxChunkSize int64
	}

	NET struct {
		// ReadBufferSize is a size of the buffer in bytes which will be used to read
		// from a socket. This is also the sizing hint for framed body readers.
		ReadBufferSize int
		// ReadTimeout controls the maximal lifetime of IDLE connections. If no data
		// was received in this period of time, the connection is closed.
		ReadTimeout time.Duration
	}

	HTTP struct {
		// ResponseBuffSize is the initial size of the buffer storing a response head
		// before it is transmitted.
		ResponseBuffSize int
		// BodyBuffSize is the size of the buffer used to pump streamed response
		// bodies, both sized and chunk-encoded, through the framed writers.
		BodyBuffSize int
	}
)

// Config holds settings used across the module, mainly restrictions, limitations
// and pre-allocations.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize
// the config manually, because most likely this will result in ambiguous errors.
type Config struct {
	URI     URI
	Headers Headers
	Body    Body
	NET     NET
	HTTP    HTTP
}

// Default returns the default config. Those are initially well-balanced, however
// maximal defaults are pretty permitting.
func Default() *Config {
	return &Config{
		URI: URI{
			RequestLineSize: RequestLineSize{
				Default: 2 * 1024,
				Maximal: 16 * 1024,
			},
		},
		Headers: Headers{
			Number: HeadersNumber{
				Default: 10,
				Maximal: 50,
			},
			Space: HeadersSpace{
				Default: 1 * 1024,  // 1kb for headers must be fairly enough in most cases.
				Maximal: 16 * 1024, // However, there also might be extremely long cookies.
			},
		},
		Body: Body{
			MaxSize:      512 * 1024 * 1024, // 512 megabytes
			MaxChunkSize: 16 * 1024 * 1024,
		},
		NET: NET{
			ReadBufferSize: 4 * 1024,
			ReadTimeout:    90 * time.Second,
		},
		HTTP: HTTP{
			ResponseBuffSize: 1 * 1024,
			BodyBuffSize:     4 * 1024,
		},
	}
}
