// Package router resolves client-side navigation against the OA route table
// and applies the route guard before a view is entered.
package router

import (
	"context"
	"sync"

	"github.com/jrsteele09/oa-client/internal/config"
	oaerrors "github.com/jrsteele09/oa-client/internal/errors"
	"github.com/jrsteele09/oa-client/metrics"
	"github.com/jrsteele09/oa-client/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultMaxRedirects = 3

// TitleFunc receives the page title on every navigation.
type TitleFunc func(title string)

// Location is where a navigation ended up.
type Location struct {
	Route  Route
	Path   string
	Params map[string]string
	Title  string
	// Redirects lists the paths the guard sent the navigation through.
	Redirects []string
}

type Router struct {
	table        *Table
	guard        *Guard
	titleFunc    TitleFunc
	appName      string
	maxRedirects int
	logger       zerolog.Logger

	mu      sync.RWMutex
	current *Location
	title   string
}

var _ session.Navigator = (*Router)(nil)

type Option func(*Router)

func WithTitleFunc(fn TitleFunc) Option {
	return func(r *Router) {
		r.titleFunc = fn
	}
}

// WithAppName sets the title used by routes that have none.
func WithAppName(name string) Option {
	return func(r *Router) {
		r.appName = name
	}
}

func WithMaxRedirects(n int) Option {
	return func(r *Router) {
		r.maxRedirects = n
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

func New(table *Table, guard *Guard, options ...Option) *Router {
	r := &Router{
		table:        table,
		guard:        guard,
		titleFunc:    func(string) {},
		appName:      config.DefaultAppName,
		maxRedirects: defaultMaxRedirects,
		logger:       log.Logger,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Push navigates to path, following guard redirects, and returns the
// location finally entered.
func (r *Router) Push(ctx context.Context, path string) (*Location, error) {
	var redirects []string
	for hop := 0; hop <= r.maxRedirects; hop++ {
		route, params, err := r.table.Match(path)
		if err != nil {
			metrics.Navigations.WithLabelValues("not_found").Inc()
			return nil, err
		}

		title := route.Meta.Title
		if title == "" {
			title = r.appName
		}
		r.setTitle(title)

		decision := r.guard.Check(ctx, route)
		metrics.Navigations.WithLabelValues(decision.Outcome.String()).Inc()
		if decision.Outcome == Allow {
			loc := &Location{Route: route, Path: path, Params: params, Title: title, Redirects: redirects}
			r.mu.Lock()
			r.current = loc
			r.mu.Unlock()
			return loc, nil
		}

		r.logger.Debug().Str("from", path).Str("to", decision.Location).Str("outcome", decision.Outcome.String()).Msg("navigation redirected")
		redirects = append(redirects, decision.Location)
		path = decision.Location
	}
	return nil, oaerrors.Wrapf(oaerrors.ErrTooManyRedirects, "navigating via %v", redirects)
}

// Navigate implements session.Navigator.
func (r *Router) Navigate(ctx context.Context, path string) error {
	_, err := r.Push(ctx, path)
	return err
}

// Current is the last location entered, or nil before the first navigation.
func (r *Router) Current() *Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Router) Title() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.title
}

func (r *Router) setTitle(title string) {
	r.mu.Lock()
	r.title = title
	r.mu.Unlock()
	r.titleFunc(title)
}
