package framing

import (
	"strconv"
	"strings"

	"github.com/indigo-web/wire/http/status"
)

// parseContentLength interprets the header value as a non-negative decimal
// integer. Any other content yields status.ErrMalformedContentLength, which is
// fatal for the whole connection: once lengths cannot be trusted, neither can
// message boundaries.
func parseContentLength(value string) (int64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 63)
	if err != nil {
		return 0, status.ErrMalformedContentLength
	}

	return int64(n), nil
}
