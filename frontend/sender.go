package frontend

import (
	"context"
	"net/url"
)

// requestSender abstracts the platform-specific wire protocol: an HTTP
// client over a UNIX socket on POSIX, a JSON-envelope-per-message named pipe
// client on Windows (spec.md §4.6 "_send_request picks the transport based on
// platform"). It returns the raw response body and status code; HTTPError
// construction stays in Client so both platforms share one error type.
type requestSender interface {
	send(ctx context.Context, method, path string, query url.Values, body []byte) (respBody []byte, status int, err error)
}
