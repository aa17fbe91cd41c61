package vtex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ProxyCall describes a pass-through request routed via the retail proxy.
type ProxyCall struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    map[string]any
}

type proxyEnvelope struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Data    map[string]any    `json:"data,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// ProxyRequest forwards a call to the VTEX API through the configured retail
// proxy. The bearer token is a hard requirement: calling without one is a
// caller contract violation, not a recoverable transport condition.
func (c *Client) ProxyRequest(ctx context.Context, bearerToken string, call ProxyCall) (map[string]any, error) {
	if bearerToken == "" {
		return nil, fmt.Errorf("auth token is required for proxy requests")
	}
	if c.proxyURL == "" {
		return nil, fmt.Errorf("proxy URL is not configured")
	}

	method := call.Method
	if method == "" {
		method = http.MethodGet
	}
	envelope := proxyEnvelope{
		Method:  method,
		Path:    call.Path,
		Data:    call.Body,
		Headers: call.Headers,
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshaling proxy request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.proxyURL+"/vtex/proxy/", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating proxy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("proxy request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading proxy response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("proxy status %d: %s", resp.StatusCode, truncateBody(body))
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parsing proxy response: %w", err)
	}
	return out, nil
}
