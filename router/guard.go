package router

import (
	"context"

	"github.com/jrsteele09/oa-client/notice"
	"github.com/jrsteele09/oa-client/token"
)

const adminOnlyMessage = "You do not have permission to access this page"

// Outcome of a guard check.
type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

type Decision struct {
	Outcome Outcome
	// Location is where a redirect sends the user.
	Location string
}

// CredentialSource is what the guard needs from the session.
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
}

// Guard decides whether a navigation may proceed. It reads role claims
// without verifying the signature: this hides views, it does not protect
// data. The backend remains the only authority on access.
type Guard struct {
	credentials CredentialSource
	notifier    notice.Notifier
	loginPath   string
	homePath    string
}

type GuardOption func(*Guard)

func WithGuardLoginPath(path string) GuardOption {
	return func(g *Guard) {
		g.loginPath = path
	}
}

func WithGuardHomePath(path string) GuardOption {
	return func(g *Guard) {
		g.homePath = path
	}
}

func NewGuard(credentials CredentialSource, notifier notice.Notifier, options ...GuardOption) *Guard {
	if notifier == nil {
		notifier = notice.Discard
	}
	g := &Guard{
		credentials: credentials,
		notifier:    notifier,
		loginPath:   LoginPath,
		homePath:    HomePath,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *Guard) Check(ctx context.Context, route Route) Decision {
	if !route.Meta.RequiresAuth {
		return Decision{Outcome: Allow}
	}

	raw, err := g.credentials.Token(ctx)
	if err != nil {
		return Decision{Outcome: RedirectLogin, Location: g.loginPath}
	}
	if !route.Meta.RequiresAdmin {
		return Decision{Outcome: Allow}
	}

	claims, err := token.Decode(raw)
	if err != nil {
		// an undecodable token is no session at all
		return Decision{Outcome: RedirectLogin, Location: g.loginPath}
	}
	if claims.IsAdmin() {
		return Decision{Outcome: Allow}
	}

	notice.Warning(g.notifier, adminOnlyMessage)
	return Decision{Outcome: RedirectHome, Location: g.homePath}
}
