// Package requests contain the outbound HTTP client used to reach
// the weather provider.
package requests

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
	pkgerrors "github.com/pkg/errors"
)

// ConnectTimeout bounds the dial phase of every outbound request.
const ConnectTimeout = 4 * time.Second

const maxRedirects = 10

// ErrInsecureRedirect is returned when a redirect would downgrade from https to http.
var ErrInsecureRedirect = errors.New("redirect from https to http refused")

// HTTPClient struct implements the HTTPRequester.
// It needs to receive a expected timeout value for his clients.
type HTTPClient struct {
	client    *http.Client
	userAgent string
}

// Option customizes an HTTPClient.
type Option func(*options)

type options struct {
	timeout   time.Duration
	userAgent string
	httpCache bool
	transport http.RoundTripper
}

// WithTimeout bounds the whole request, body read included.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithUserAgent sets the User-Agent header sent upstream.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithHTTPCache keeps cacheable upstream responses in memory, honoring
// the Cache-Control headers sent by the provider.
func WithHTTPCache() Option {
	return func(o *options) { o.httpCache = true }
}

// WithTransport replaces the dialing transport. Used by tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// NewHTTPRequestHandler build a new request handler
func NewHTTPRequestHandler(opts ...Option) HTTPClient {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	rt := o.transport
	if rt == nil {
		rt = newTransport()
	}
	if o.httpCache {
		t := httpcache.NewTransport(httpcache.NewMemoryCache())
		t.Transport = rt
		rt = t
	}

	return HTTPClient{
		client: &http.Client{
			Transport:     rt,
			Timeout:       o.timeout,
			CheckRedirect: checkRedirect,
		},
		userAgent: o.userAgent,
	}
}

func newDialer() *net.Dialer {
	return &net.Dialer{
		Timeout:   ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = newDialer().DialContext
	t.TLSHandshakeTimeout = ConnectTimeout
	return t
}

// checkRedirect follows redirects except those downgrading https to http.
func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return pkgerrors.Errorf("stopped after %d redirects", maxRedirects)
	}
	prev := via[len(via)-1]
	if prev.URL.Scheme == "https" && req.URL.Scheme == "http" {
		return ErrInsecureRedirect
	}
	return nil
}

// Fetch create a GET HTTP request asking for content.
// A non-nil error means no response was obtained; the status code is
// returned as-is otherwise.
func (h HTTPClient) Fetch(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "building request")
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "GET failed")
	}
	defer resp.Body.Close()

	bytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, pkgerrors.Wrap(err, "reading body")
	}
	return bytes, resp.StatusCode, nil
}
