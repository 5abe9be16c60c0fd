//go:build unix

package frontend

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

type unixSender struct {
	client *http.Client
}

func newRequestSender(endpoint string, timeout time.Duration) requestSender {
	return &unixSender{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", endpoint)
				},
			},
		},
	}
}

func (s *unixSender) send(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, int, error) {
	u := "http://unix" + path
	if query != nil {
		u += "?" + query.Encode()
	}
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return data, resp.StatusCode, nil
}
