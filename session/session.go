// Package session owns the credential shared by the route guard and the
// request pipeline, and serialises token refreshes so that at most one
// refresh call is in flight at any time.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/oa-client/credential"
	oaerrors "github.com/jrsteele09/oa-client/internal/errors"
	"github.com/jrsteele09/oa-client/metrics"
	"github.com/jrsteele09/oa-client/notice"
	"github.com/jrsteele09/oa-client/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultRefreshThreshold is how close to expiry a token may get before
	// outbound calls start a background refresh.
	DefaultRefreshThreshold = 300 * time.Second
	// DefaultLoginPath is the view a terminated session is sent to.
	DefaultLoginPath = "/login"

	defaultRefreshTimeout = 10 * time.Second
	refreshKey            = credential.Key
	sessionExpiredMessage = "Your session has expired, please log in again"
)

// RefreshFunc exchanges the current token for a new one.
type RefreshFunc func(ctx context.Context, current string) (string, error)

// Navigator moves the user to another view. The router implements it.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// AuthSession is the explicitly owned replacement for the browser's global
// token and refresh flag. It is shared by reference between the router and
// the request client and is safe for concurrent use.
type AuthSession struct {
	store          credential.Store
	group          singleflight.Group
	notifier       notice.Notifier
	logger         zerolog.Logger
	threshold      time.Duration
	refreshTimeout time.Duration
	loginPath      string
	nowFunc        func() time.Time

	navMu     sync.RWMutex
	navigator Navigator

	failMu sync.Mutex
	failed *flight
	// reactive counts callers waiting in Reauthenticate. Only failures seen by
	// one of them are remembered against the rejected token.
	reactive atomic.Int32
}

// flight is shared by every caller that joined the same refresh.
type flight struct {
	token    string
	teardown sync.Once

	// set when the refresh failed
	stale string
	err   error
}

type Option func(*AuthSession)

func WithNotifier(n notice.Notifier) Option {
	return func(s *AuthSession) {
		s.notifier = n
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *AuthSession) {
		s.logger = logger
	}
}

func WithRefreshThreshold(d time.Duration) Option {
	return func(s *AuthSession) {
		s.threshold = d
	}
}

// WithRefreshTimeout bounds a single refresh call. The call is detached from
// the context of whichever caller started it because other callers share it.
func WithRefreshTimeout(d time.Duration) Option {
	return func(s *AuthSession) {
		s.refreshTimeout = d
	}
}

func WithLoginPath(path string) Option {
	return func(s *AuthSession) {
		s.loginPath = path
	}
}

func WithNavigator(n Navigator) Option {
	return func(s *AuthSession) {
		s.navigator = n
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(s *AuthSession) {
		s.nowFunc = now
	}
}

func New(store credential.Store, options ...Option) *AuthSession {
	s := &AuthSession{
		store:          store,
		notifier:       notice.Discard,
		logger:         log.Logger,
		threshold:      DefaultRefreshThreshold,
		refreshTimeout: defaultRefreshTimeout,
		loginPath:      DefaultLoginPath,
		nowFunc:        time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// SetNavigator wires the navigator after construction, for the common case
// where the router itself needs the session.
func (s *AuthSession) SetNavigator(n Navigator) {
	s.navMu.Lock()
	defer s.navMu.Unlock()
	s.navigator = n
}

func (s *AuthSession) Notifier() notice.Notifier {
	return s.notifier
}

func (s *AuthSession) LoginPath() string {
	return s.loginPath
}

// Token returns the stored bearer token or errors.ErrNoCredential.
func (s *AuthSession) Token(ctx context.Context) (string, error) {
	return s.store.Get(ctx)
}

// Claims decodes the stored token without verifying it.
func (s *AuthSession) Claims(ctx context.Context) (*token.Claims, error) {
	raw, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	return token.Decode(raw)
}

// SignIn stores a freshly issued token.
func (s *AuthSession) SignIn(ctx context.Context, raw string) error {
	if _, err := token.Decode(raw); err != nil {
		return oaerrors.Wrapf(err, "[AuthSession SignIn]")
	}
	if err := s.store.Set(ctx, raw); err != nil {
		return oaerrors.Wrapf(err, "[AuthSession SignIn]")
	}
	return nil
}

// SignOut forgets the stored token.
func (s *AuthSession) SignOut(ctx context.Context) error {
	return s.store.Delete(ctx)
}

// NeedsRefresh reports whether the stored token expires within the refresh
// threshold. Tokens without an exp claim, or that cannot be decoded, never
// need a proactive refresh.
func (s *AuthSession) NeedsRefresh(ctx context.Context) bool {
	_, ok := s.expiring(ctx)
	return ok
}

func (s *AuthSession) expiring(ctx context.Context) (string, bool) {
	raw, err := s.store.Get(ctx)
	if err != nil {
		return "", false
	}
	claims, err := token.Decode(raw)
	if err != nil {
		return "", false
	}
	remaining, ok := claims.ExpiresIn(s.nowFunc())
	return raw, ok && remaining < s.threshold
}

// Refresh exchanges the stored token for a new one. Concurrent callers share
// a single call to fetch and all receive the same token or the same error.
// The new token is stored before any caller is released.
func (s *AuthSession) Refresh(ctx context.Context, fetch RefreshFunc) (string, error) {
	f, err := s.join(ctx, "", fetch)
	if err != nil {
		return "", err
	}
	return f.token, nil
}

// Reauthenticate recovers from an unauthorized response to a call that was
// sent with staleToken. If the stored token has changed since, another
// caller already refreshed it and it is returned directly. Otherwise a
// refresh is started or joined; when it fails the session is torn down
// exactly once, however many callers were waiting on it.
func (s *AuthSession) Reauthenticate(ctx context.Context, staleToken string, fetch RefreshFunc) (string, error) {
	current, err := s.store.Get(ctx)
	switch {
	case err == nil && current != staleToken:
		return current, nil
	case oaerrors.Is(err, oaerrors.ErrNoCredential) && staleToken != "":
		// Torn down by an earlier failed refresh, or signed out meanwhile.
		return "", fmt.Errorf("%w: %w", oaerrors.ErrAuthTerminal, err)
	}

	s.reactive.Add(1)
	f, err := s.join(ctx, staleToken, fetch)
	s.reactive.Add(-1)
	if err == nil {
		return f.token, nil
	}
	if f != nil {
		f.teardown.Do(func() { s.teardown(ctx) })
	}
	return "", err
}

// RefreshInBackground starts or joins a refresh without waiting for it when
// the stored token is close to expiry, and reports whether it did. Failures
// are logged and otherwise ignored; the reactive path deals with the
// unauthorized responses that follow.
func (s *AuthSession) RefreshInBackground(ctx context.Context, fetch RefreshFunc) bool {
	stale, ok := s.expiring(ctx)
	if !ok {
		return false
	}
	go func() {
		if _, err := s.join(context.Background(), stale, fetch); err != nil {
			s.logger.Warn().Err(err).Msg("background token refresh failed")
		}
	}()
	return true
}

// join starts or joins the refresh flight. A non-empty stale token means the
// caller only wants that token replaced.
func (s *AuthSession) join(ctx context.Context, stale string, fetch RefreshFunc) (*flight, error) {
	ch := s.group.DoChan(refreshKey, func() (interface{}, error) {
		return s.doRefresh(context.WithoutCancel(ctx), stale, fetch)
	})

	select {
	case res := <-ch:
		f, _ := res.Val.(*flight)
		return f, res.Err
	case <-ctx.Done():
		return nil, oaerrors.Wrapf(ctx.Err(), "waiting for token refresh")
	}
}

func (s *AuthSession) doRefresh(ctx context.Context, stale string, fetch RefreshFunc) (*flight, error) {
	f := &flight{}

	current, err := s.store.Get(ctx)
	if err != nil {
		metrics.Refreshes.WithLabelValues(metrics.OutcomeFailure).Inc()
		err = fmt.Errorf("%w: no credential to refresh: %w", oaerrors.ErrAuthTerminal, err)
		if stale == "" {
			return f, err
		}
		// The token this caller saw was cleared by a teardown that already ran
		// or is owned by the failed flight.
		if old := s.failedFor(stale); old != nil {
			return old, old.err
		}
		return nil, err
	}
	if stale != "" && current != stale {
		f.token = current
		return f, nil
	}
	// A triggered refresh never retries a token that has just been rejected;
	// callers share the earlier outcome and its teardown.
	if old := s.failedFor(stale); old != nil {
		return old, old.err
	}

	ctx, cancel := context.WithTimeout(ctx, s.refreshTimeout)
	defer cancel()

	s.logger.Debug().Msg("refreshing access token")
	newToken, err := fetch(ctx, current)
	if err == nil && newToken == "" {
		err = oaerrors.Wrapf(oaerrors.ErrMalformedResponse, "refresh response carried no token")
	}
	if err != nil {
		return s.fail(f, current, fmt.Errorf("%w: token refresh failed: %w", oaerrors.ErrAuthTerminal, err))
	}

	if err := s.store.Set(ctx, newToken); err != nil {
		return s.fail(f, current, fmt.Errorf("%w: storing refreshed token: %w", oaerrors.ErrAuthTerminal, err))
	}

	s.failMu.Lock()
	s.failed = nil
	s.failMu.Unlock()

	metrics.Refreshes.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info().Msg("access token refreshed")
	f.token = newToken
	return f, nil
}

func (s *AuthSession) fail(f *flight, stale string, err error) (*flight, error) {
	metrics.Refreshes.WithLabelValues(metrics.OutcomeFailure).Inc()
	f.stale, f.err = stale, err

	// A background attempt nobody was waiting on leaves the token eligible
	// for the refresh its next unauthorized response triggers.
	if s.reactive.Load() == 0 {
		return f, err
	}
	s.failMu.Lock()
	s.failed = f
	s.failMu.Unlock()
	return f, err
}

func (s *AuthSession) failedFor(stale string) *flight {
	if stale == "" {
		return nil
	}
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if s.failed != nil && s.failed.stale == stale {
		return s.failed
	}
	return nil
}

// EndSession tears the session down for a terminal unauthorized response
// that no refresh can recover from, such as a 401 while no credential is
// stored.
func (s *AuthSession) EndSession(ctx context.Context) {
	s.teardown(ctx)
}

// teardown ends the session: the credential is cleared, the user is told
// once and sent to the login view.
func (s *AuthSession) teardown(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	metrics.SessionTeardowns.Inc()

	if err := s.store.Delete(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to clear credential")
	}
	notice.Error(s.notifier, sessionExpiredMessage)

	s.navMu.RLock()
	nav := s.navigator
	s.navMu.RUnlock()
	if nav == nil {
		s.logger.Warn().Str("path", s.loginPath).Msg("session ended with no navigator attached")
		return
	}
	if err := nav.Navigate(ctx, s.loginPath); err != nil {
		s.logger.Error().Err(err).Str("path", s.loginPath).Msg("redirect to login failed")
	}
}
