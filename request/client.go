// Package request is the authenticated request pipeline: it attaches the
// stored bearer token, refreshes it ahead of expiry, recovers from
// unauthorized responses with a single shared refresh and one retry, and
// classifies every failure into a small set of kinds.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	oaerrors "github.com/jrsteele09/oa-client/internal/errors"
	"github.com/jrsteele09/oa-client/metrics"
	"github.com/jrsteele09/oa-client/notice"
	"github.com/jrsteele09/oa-client/session"
	"github.com/jrsteele09/oa-client/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultRefreshPath = "/api/auth/refresh"

	jsonContentType = "application/json;charset=utf-8"
	maxResponseSize = 32 << 20
)

// Client issues calls against the OA backend on behalf of an AuthSession.
type Client struct {
	baseURL     *url.URL
	session     *session.AuthSession
	httpClient  *http.Client
	timeout     time.Duration
	refreshPath string
	notifier    notice.Notifier
	logger      zerolog.Logger
	env         string
	middleware  []TransportMiddleware
}

func New(baseURL string, sess *session.AuthSession, options ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, oaerrors.Wrapf(oaerrors.ErrInvalidInput, "base url %q: %v", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, oaerrors.Wrapf(oaerrors.ErrInvalidInput, "base url %q must be absolute", baseURL)
	}
	if sess == nil {
		return nil, oaerrors.Wrapf(oaerrors.ErrInvalidInput, "nil session")
	}

	c := &Client{
		baseURL:     u,
		session:     sess,
		timeout:     DefaultTimeout,
		refreshPath: DefaultRefreshPath,
		notifier:    sess.Notifier(),
		logger:      log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}

	hc := &http.Client{}
	if c.httpClient != nil {
		copied := *c.httpClient
		hc = &copied
	}
	defaults := []TransportMiddleware{
		RequestIDMiddleware(),
		LoggingMiddleware(c.env, c.logger),
		MetricsMiddleware(),
	}
	hc.Transport = ChainTransport(hc.Transport, append(defaults, c.middleware...)...)
	c.httpClient = hc
	return c, nil
}

func (c *Client) Session() *session.AuthSession {
	return c.session
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) Get(ctx context.Context, path string, out any, opts ...CallOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...CallOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...CallOption) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...CallOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// RefreshToken exchanges current for a new token. It never triggers the
// refresh machinery itself and is what the session runs inside its flight.
func (c *Client) RefreshToken(ctx context.Context, current string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.Post(ctx, c.refreshPath, nil, &out, SkipAuthRefresh(), WithBearer(current), Quiet()); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Do runs one call through the pipeline. On success the unwrapped envelope
// payload is decoded into out, which may be nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...CallOption) error {
	cfg := &callConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	payload, contentType, err := encodeBody(body, cfg.contentType)
	if err != nil {
		return oaerrors.Wrapf(err, "%s %s", method, path)
	}

	if !cfg.skipAuthRefresh && c.session.RefreshInBackground(ctx, c.RefreshToken) {
		c.logger.Debug().Str("path", path).Msg("token close to expiry, refreshing in background")
	}

	err = c.send(ctx, method, path, payload, contentType, out, cfg)
	c.report(ctx, method, cfg, err)
	return err
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, contentType string, out any, cfg *callConfig) error {
	bearer := cfg.bearer
	if bearer == "" {
		bearer, _ = c.session.Token(ctx)
	}

	retried := false
	for {
		resp, err := c.exchange(ctx, method, path, payload, contentType, bearer, cfg)
		if err != nil {
			return &Error{Kind: KindNetworkUnreachable, Method: method, Path: path, Err: err}
		}

		env := parseEnvelope(resp.body)
		unauthorized := resp.status == http.StatusUnauthorized ||
			(env.shape == shapeLegacy && env.code == http.StatusUnauthorized)

		if unauthorized && !cfg.skipAuthRefresh && !retried {
			if bearer == "" {
				c.session.EndSession(ctx)
				return &Error{Kind: KindAuthTerminal, Method: method, Path: path, Status: resp.status, StatusText: resp.statusText, Err: oaerrors.ErrNoCredential}
			}

			c.logger.Debug().Str("method", method).Str("path", path).Msg("unauthorized, refreshing token")
			fresh, err := c.session.Reauthenticate(ctx, bearer, c.RefreshToken)
			if err != nil {
				return &Error{Kind: KindAuthTerminal, Method: method, Path: path, Status: resp.status, StatusText: resp.statusText, Err: err}
			}
			metrics.Retries.Inc()
			bearer = fresh
			retried = true
			continue
		}

		return c.classify(method, path, resp, env, out)
	}
}

type response struct {
	status     int
	statusText string
	body       []byte
}

func (c *Client) exchange(ctx context.Context, method, path string, payload []byte, contentType, bearer string, cfg *callConfig) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, cfg.query), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vs := range cfg.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if bearer != "" {
		token.OAuth2Token(bearer).SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}
	return &response{
		status:     resp.StatusCode,
		statusText: statusText(resp),
		body:       data,
	}, nil
}

func (c *Client) classify(method, path string, resp *response, env envelope, out any) error {
	fail := func(kind Kind, message string, err error) error {
		return &Error{Kind: kind, Method: method, Path: path, Status: resp.status, StatusText: resp.statusText, Message: message, Err: err}
	}

	if !env.recognised() {
		switch {
		case resp.status == http.StatusNoContent:
			return nil
		case resp.status == http.StatusUnauthorized:
			return fail(KindAuthExpired, "", nil)
		default:
			return fail(KindMalformedResponse, "", nil)
		}
	}

	if !env.ok {
		return fail(KindBusinessError, env.message, nil)
	}

	if out == nil || !env.hasData() {
		return nil
	}
	if err := json.Unmarshal(env.data, out); err != nil {
		return fail(KindMalformedResponse, "", err)
	}
	return nil
}

// report records the outcome and raises the single notice a failed call is
// owed. Session teardown has already told the user about terminal auth
// failures, and a caller that cancelled its own context is not told anything.
func (c *Client) report(ctx context.Context, method string, cfg *callConfig, err error) {
	if err == nil {
		metrics.Requests.WithLabelValues(method, metrics.OutcomeSuccess).Inc()
		return
	}

	var reqErr *Error
	if !oaerrors.As(err, &reqErr) {
		metrics.Requests.WithLabelValues(method, metrics.OutcomeFailure).Inc()
		return
	}
	metrics.Requests.WithLabelValues(method, reqErr.Kind.String()).Inc()
	c.logger.Warn().Err(err).Str("kind", reqErr.Kind.String()).Msg("request failed")

	if cfg.quiet || reqErr.Kind == KindAuthTerminal || ctx.Err() != nil {
		return
	}
	notice.Error(c.notifier, reqErr.NoticeMessage())
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	rel, err := url.Parse(path)
	if err != nil {
		rel = &url.URL{Path: path}
	}
	escaped := strings.TrimRight(c.baseURL.EscapedPath(), "/") + "/" + strings.TrimLeft(rel.EscapedPath(), "/")
	if unescaped, err := url.PathUnescape(escaped); err == nil {
		u.Path, u.RawPath = unescaped, escaped
	} else {
		u.Path, u.RawPath = escaped, ""
	}

	q := rel.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func encodeBody(body any, contentType string) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, orDefault(contentType, "application/octet-stream"), nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, "", oaerrors.Wrapf(oaerrors.ErrInvalidInput, "reading body: %v", err)
		}
		return data, orDefault(contentType, "application/octet-stream"), nil
	default:
		if contentType != "" {
			return nil, "", oaerrors.Wrapf(oaerrors.ErrInvalidInput, "raw content type %q needs an io.Reader or []byte body", contentType)
		}
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", oaerrors.Wrapf(oaerrors.ErrInvalidInput, "encoding body: %v", err)
		}
		return data, jsonContentType, nil
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
