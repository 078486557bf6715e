// Package httpclient is the shared transport for upstream registry calls.
//
// Every failure mode (non-2xx status, timeout, network error, unexpected
// content type) surfaces as an *errs.UpstreamError so callers can treat
// transport failures uniformly; status 0 means the origin was never
// reached.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"naturatlas/internal/errs"
	"naturatlas/internal/observability"
)

// NewOutbound creates the outbound http client shared by all sources.
func NewOutbound() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   128,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}
}

// Client issues JSON GET requests against one registry's base URL.
type Client struct {
	source  string
	base    *url.URL
	http    *http.Client
	timeout time.Duration
}

func New(source, baseURL string, hc *http.Client, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url for %s: %w", source, err)
	}
	if hc == nil {
		hc = NewOutbound()
	}
	return &Client{source: source, base: u, http: hc, timeout: timeout}, nil
}

// GetJSON fetches base+path with the given query parameters and decodes the
// JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, out any) error {
	body, contentType, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	if ct := strings.ToLower(contentType); ct != "" && !strings.Contains(ct, "json") {
		return &errs.UpstreamError{Source: c.source, Status: http.StatusOK,
			Msg: fmt.Sprintf("unexpected content type %q", contentType)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &errs.UpstreamError{Source: c.source, Status: http.StatusOK,
			Msg: "malformed json response: " + err.Error()}
	}
	return nil
}

// GetText fetches base+path and returns the raw body, for endpoints that
// serve WKT as plain text.
func (c *Client) GetText(ctx context.Context, path string, params url.Values) (string, error) {
	body, _, err := c.get(ctx, path, params)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := *c.base
	u.Path = c.base.Path + path
	if params != nil {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.ObserveUpstreamLatency(c.source, time.Since(start).Seconds())
	if err != nil {
		// timeouts and network failures carry status 0
		msg := "network failure"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "timeout"
		}
		return nil, "", &errs.UpstreamError{Source: c.source, Status: 0, Msg: msg + ": " + err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, "", &errs.UpstreamError{Source: c.source, Status: resp.StatusCode,
			Msg: strings.TrimSpace(string(b))}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &errs.UpstreamError{Source: c.source, Status: 0, Msg: "read body: " + err.Error()}
	}
	return b, resp.Header.Get("Content-Type"), nil
}

// Source returns the registry this client talks to.
func (c *Client) Source() string { return c.source }
