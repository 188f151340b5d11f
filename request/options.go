package request

import (
	"net/http"
	"net/url"
	"time"

	"github.com/jrsteele09/oa-client/notice"
	"github.com/rs/zerolog"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is still
// wrapped with the client's middleware chain.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each individual HTTP exchange. A timeout surfaces as a
// network unreachable error.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithRefreshPath(path string) Option {
	return func(c *Client) {
		c.refreshPath = path
	}
}

// WithNotifier overrides the session's notifier for request failures.
func WithNotifier(n notice.Notifier) Option {
	return func(c *Client) {
		c.notifier = n
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithEnv sets the deployment environment; request logging is DEV only.
func WithEnv(env string) Option {
	return func(c *Client) {
		c.env = env
	}
}

// WithTransportMiddleware appends middleware after the default chain.
func WithTransportMiddleware(mw ...TransportMiddleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, mw...)
	}
}

type callConfig struct {
	skipAuthRefresh bool
	quiet           bool
	bearer          string
	contentType     string
	query           url.Values
	header          http.Header
}

// CallOption configures a single call.
type CallOption func(*callConfig)

// SkipAuthRefresh disables proactive refresh and the refresh-and-retry
// protocol for this call. The refresh call itself uses it.
func SkipAuthRefresh() CallOption {
	return func(cfg *callConfig) {
		cfg.skipAuthRefresh = true
	}
}

// Quiet suppresses the user-visible notice for this call's failure.
func Quiet() CallOption {
	return func(cfg *callConfig) {
		cfg.quiet = true
	}
}

// WithBearer sends token instead of the stored credential.
func WithBearer(token string) CallOption {
	return func(cfg *callConfig) {
		cfg.bearer = token
	}
}

func WithQuery(values url.Values) CallOption {
	return func(cfg *callConfig) {
		if cfg.query == nil {
			cfg.query = url.Values{}
		}
		for k, vs := range values {
			for _, v := range vs {
				cfg.query.Add(k, v)
			}
		}
	}
}

func WithHeader(key, value string) CallOption {
	return func(cfg *callConfig) {
		if cfg.header == nil {
			cfg.header = http.Header{}
		}
		cfg.header.Set(key, value)
	}
}

// WithMultipart sends the body as-is with the given multipart content type.
// The body must be an io.Reader or a []byte.
func WithMultipart(contentType string) CallOption {
	return func(cfg *callConfig) {
		cfg.contentType = contentType
	}
}
