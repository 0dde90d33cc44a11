// Package httpclient is the uniform outbound call used for every upstream that
// is not reached through a vendor SDK. Each call carries an explicit timeout and
// returns either a decoded body or an error from the generation taxonomy.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/platform/logger"
	"github.com/phrazzld/lessonforge/internal/redact"
)

const (
	defaultMaxBodyBytes = 4 << 20
	errorSnippetBytes   = 256
)

// Client performs upstream HTTP calls.
type Client struct {
	http    *http.Client
	maxBody int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithMaxBodyBytes caps how much of a response body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// NewTransport returns a traced transport whose dial and TLS handshake are
// bounded by connectTimeout.
func NewTransport(connectTimeout time.Duration) http.RoundTripper {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: connectTimeout,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}
	return otelhttp.NewTransport(base)
}

// New creates a Client whose connections time out after connectTimeout.
// Per-request timeouts are set on each Request.
func New(connectTimeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Transport: NewTransport(connectTimeout)},
		maxBody: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTPClient exposes the underlying client so vendor SDKs share the same transport.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Request describes one upstream call.
type Request struct {
	// Provider labels errors and log entries.
	Provider string
	Method   string
	URL      string
	Header   map[string]string
	// Body is JSON-encoded when non-nil.
	Body    any
	Timeout time.Duration
	// StatusOnly skips the response body beyond an error snippet, so the
	// body size limit does not apply. Response.Body is left empty.
	StatusOnly bool
}

// Response is a completed upstream exchange with a 2xx status.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do performs req. Non-2xx statuses yield *generation.UpstreamHTTPError;
// connection failures and timeouts yield generation.ErrTransport.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	log := logger.FromContext(ctx)

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request body: %w", req.Provider, err)
		}
		body = bytes.NewReader(payload)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %s", req.Provider, redact.Error(err))
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.DebugContext(ctx, "upstream call failed",
			slog.String("provider_id", req.Provider),
			slog.String("method", method),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", redact.Error(err)))
		// net/http errors embed the request URL, which may carry a key.
		return nil, fmt.Errorf("%w: %s: %s", generation.ErrTransport, req.Provider, redact.Error(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	limit := c.maxBody + 1
	if req.StatusOnly {
		limit = errorSnippetBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading response body: %s",
			generation.ErrTransport, req.Provider, redact.Error(err))
	}

	log.DebugContext(ctx, "upstream call completed",
		slog.String("provider_id", req.Provider),
		slog.String("method", method),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &generation.UpstreamHTTPError{
			Provider:   req.Provider,
			StatusCode: resp.StatusCode,
			Body:       snippet(data),
		}
	}
	if req.StatusOnly {
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header}, nil
	}
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("%w: %s: response body exceeds %d bytes",
			generation.ErrUpstreamMalformed, req.Provider, c.maxBody)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// DoJSON performs req and decodes the response body into out.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", generation.ErrUpstreamMalformed, req.Provider, err)
	}
	return nil
}

func snippet(data []byte) string {
	if len(data) > errorSnippetBytes {
		data = data[:errorSnippetBytes]
	}
	return redact.String(string(bytes.TrimSpace(data)))
}
