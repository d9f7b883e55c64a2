package tglog

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
)

// Response is the part of an HTTP response the delivery core inspects
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport posts a JSON body to a URL. A Transport is owned by one handler;
// the async handler only touches it from its worker goroutine.
type Transport interface {
	Post(ctx context.Context, url string, body []byte) (Response, error)
	Close() error
}

// HTTPTransport is the default Transport over a pooled fasthttp client
type HTTPTransport struct {
	client    *fasthttp.Client
	timeout   time.Duration
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewHTTPTransport creates a transport whose requests are bounded by timeout
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return NewHTTPTransportWithClient(&fasthttp.Client{
		Name:                     "tglog",
		MaxIdleConnDuration:      90 * time.Second,
		NoDefaultUserAgentHeader: false,
	}, timeout)
}

// NewHTTPTransportWithClient wraps an existing client, e.g. one dialing an in-memory listener
func NewHTTPTransportWithClient(client *fasthttp.Client, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{client: client, timeout: timeout}
}

// Post sends body with a JSON content type. The request deadline is the
// earlier of the context deadline and the transport timeout.
func (t *HTTPTransport) Post(ctx context.Context, url string, body []byte) (Response, error) {
	if t.closed.Load() {
		return Response{}, fmtErrorf("transport closed")
	}
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBodyRaw(body)

	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := t.client.DoDeadline(req, resp, deadline); err != nil {
		return Response{}, fmtErrorf("sendMessage request failed: %w", err)
	}

	return Response{
		StatusCode: resp.StatusCode(),
		Body:       append([]byte(nil), resp.Body()...),
	}, nil
}

// Close releases idle pooled connections. Safe to call more than once.
func (t *HTTPTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		t.client.CloseIdleConnections()
	})
	return nil
}

// apiReply is the subset of a Telegram error reply used for classification
type apiReply struct {
	Description string   `json:"description"`
	RetryAfter  *float64 `json:"retry_after"`
	Parameters  struct {
		RetryAfter *float64 `json:"retry_after"`
	} `json:"parameters"`
}

// classifyResponse maps a response to nil, *RateLimitError or *APIError
func classifyResponse(resp Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var reply apiReply
	// Bodies that are not JSON still produce an error carrying the raw text
	_ = json.Unmarshal(resp.Body, &reply)

	if resp.StatusCode == fasthttp.StatusTooManyRequests {
		hint := defaultRetryAfter
		switch {
		case reply.RetryAfter != nil:
			hint = seconds(*reply.RetryAfter)
		case reply.Parameters.RetryAfter != nil:
			hint = seconds(*reply.Parameters.RetryAfter)
		}
		return &RateLimitError{RetryAfter: hint}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Body:        string(resp.Body),
		Description: reply.Description,
	}
}

func seconds(s float64) time.Duration {
	if s < 0 || math.IsNaN(s) {
		return defaultRetryAfter
	}
	return time.Duration(s * float64(time.Second))
}
