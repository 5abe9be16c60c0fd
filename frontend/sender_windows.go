//go:build windows

package frontend

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	winio "github.com/tailscale/go-winio"
)

type pipeSender struct {
	pipeName string
	timeout  time.Duration
}

func newRequestSender(endpoint string, timeout time.Duration) requestSender {
	return &pipeSender{pipeName: endpoint, timeout: timeout}
}

type envelopeRequest struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Body   string `json:"body,omitempty"`
	Params string `json:"params,omitempty"`
}

type envelopeResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

func (s *pipeSender) send(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, int, error) {
	dialCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := winio.DialPipeContext(dialCtx, s.pipeName)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = conn.Close() }()

	req := envelopeRequest{Method: method, Path: path}
	if body != nil {
		req.Body = string(body)
	}
	if query != nil {
		params, err := json.Marshal(flatten(query))
		if err != nil {
			return nil, 0, err
		}
		req.Params = string(params)
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, 0, err
	}
	if _, err := conn.Write(data); err != nil {
		return nil, 0, err
	}

	var resp envelopeResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, 0, err
	}
	return []byte(resp.Body), resp.Status, nil
}

func flatten(query url.Values) map[string]string {
	out := make(map[string]string, len(query))
	for k, v := range query {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
