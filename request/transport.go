package request

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/oa-client/metrics"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries a per-exchange identifier for correlating client
// and server logs.
const RequestIDHeader = "X-Request-ID"

// TransportMiddleware wraps a RoundTripper.
type TransportMiddleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// ChainTransport wraps base so that mw[0] sees each request first.
func ChainTransport(base http.RoundTripper, mw ...TransportMiddleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	chained := base
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chained = mw[i](chained)
	}
	return chained
}

func RequestIDMiddleware() TransportMiddleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get(RequestIDHeader) == "" {
				r = r.Clone(r.Context())
				r.Header.Set(RequestIDHeader, uuid.New().String())
			}
			return next.RoundTrip(r)
		})
	}
}

// LoggingMiddleware logs every exchange, but only in the DEV environment.
func LoggingMiddleware(env string, logger zerolog.Logger) TransportMiddleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if env != "DEV" {
			return next
		}
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			evt := logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", r.Header.Get(RequestIDHeader)).
				Dur("elapsed", time.Since(start))
			if err != nil {
				evt.Err(err).Msg("request failed")
				return resp, err
			}
			evt.Int("status", resp.StatusCode).Msg("request")
			return resp, nil
		})
	}
}

func MetricsMiddleware() TransportMiddleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			metrics.RequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
			return resp, err
		})
	}
}
