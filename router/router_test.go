package router_test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/jrsteele09/oa-client/credential"
	"github.com/jrsteele09/oa-client/internal/config"
	oaerrors "github.com/jrsteele09/oa-client/internal/errors"
	"github.com/jrsteele09/oa-client/notice"
	"github.com/jrsteele09/oa-client/router"
	"github.com/jrsteele09/oa-client/session"
	"github.com/jrsteele09/oa-client/token"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, role string) string {
	t.Helper()
	raw, err := token.NewHMACSigner("router-test").Sign(token.NewClaims("E1", "Tester", role, time.Hour))
	require.NoError(t, err)
	return raw
}

func newGuard(t *testing.T, raw string) (*router.Guard, *notice.Recorder) {
	t.Helper()
	store := credential.NewInMemoryStore()
	if raw != "" {
		require.NoError(t, store.Set(context.Background(), raw))
	}
	rec := &notice.Recorder{}
	return router.NewGuard(session.New(store), rec), rec
}

var (
	public    = router.Route{Path: "/", Name: "home"}
	protected = router.Route{Path: "/order", Name: "order", Meta: router.RouteMeta{RequiresAuth: true}}
	admin     = router.Route{Path: "/admin", Name: "admin", Meta: router.RouteMeta{RequiresAuth: true, RequiresAdmin: true}}
)

func TestGuardPublicRoutesAlwaysAllowed(t *testing.T) {
	for _, raw := range []string{"", "garbage", signed(t, "employee"), signed(t, token.RoleAdmin)} {
		g, rec := newGuard(t, raw)
		d := g.Check(context.Background(), public)
		require.Equal(t, router.Allow, d.Outcome)
		require.Empty(t, rec.Notices())
	}
}

func TestGuardProtectedRouteWithoutCredential(t *testing.T) {
	for _, route := range []router.Route{protected, admin} {
		g, _ := newGuard(t, "")
		d := g.Check(context.Background(), route)
		require.Equal(t, router.RedirectLogin, d.Outcome)
		require.Equal(t, router.LoginPath, d.Location)
	}
}

func TestGuardProtectedRouteWithCredential(t *testing.T) {
	// Non-admin routes do not look inside the token.
	g, _ := newGuard(t, "opaque-token")
	require.Equal(t, router.Allow, g.Check(context.Background(), protected).Outcome)
}

func TestGuardAdminRoute(t *testing.T) {
	g, rec := newGuard(t, signed(t, token.RoleAdmin))
	require.Equal(t, router.Allow, g.Check(context.Background(), admin).Outcome)
	require.Empty(t, rec.Notices())

	for _, role := range []string{"employee", "Admin", ""} {
		g, rec := newGuard(t, signed(t, role))
		d := g.Check(context.Background(), admin)
		require.Equal(t, router.RedirectHome, d.Outcome, role)
		require.Equal(t, router.HomePath, d.Location)
		require.Len(t, rec.Notices(), 1)
		require.Equal(t, notice.LevelWarning, rec.Notices()[0].Level)
	}
}

func TestGuardMalformedCredentialOnAdminRoute(t *testing.T) {
	notJSON := "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte("{not json")) + ".sig"
	for _, raw := range []string{"not-a-token", "a.!!!.c", notJSON} {
		g, rec := newGuard(t, raw)
		d := g.Check(context.Background(), admin)
		require.Equal(t, router.RedirectLogin, d.Outcome, raw)
		require.Empty(t, rec.Notices())
	}
}

func TestTableMatch(t *testing.T) {
	table := router.DefaultRoutes()

	route, params, err := table.Match("/machines/SW-420?tab=parts")
	require.NoError(t, err)
	require.Equal(t, "machineDetail", route.Name)
	require.Equal(t, map[string]string{"model": "SW-420"}, params)

	route, _, err = table.Match("/order/")
	require.NoError(t, err)
	require.Equal(t, "order", route.Name)

	_, _, err = table.Match("/nowhere")
	require.ErrorIs(t, err, oaerrors.ErrRouteNotFound)

	r, ok := table.ByName("login")
	require.True(t, ok)
	require.Equal(t, router.LoginPath, r.Path)
}

func TestNewTableValidation(t *testing.T) {
	_, err := router.NewTable(router.Route{Path: "relative"})
	require.ErrorIs(t, err, oaerrors.ErrInvalidInput)

	_, err = router.NewTable(router.Route{Path: "/a", Meta: router.RouteMeta{RequiresAdmin: true}})
	require.ErrorIs(t, err, oaerrors.ErrInvalidInput)

	_, err = router.NewTable(router.Route{Path: "/a", Name: "a"}, router.Route{Path: "/b", Name: "a"})
	require.ErrorIs(t, err, oaerrors.ErrInvalidInput)
}

func newRouter(t *testing.T, raw string, opts ...router.Option) (*router.Router, *notice.Recorder, *[]string) {
	t.Helper()
	g, rec := newGuard(t, raw)
	var titles []string
	opts = append([]router.Option{router.WithTitleFunc(func(title string) { titles = append(titles, title) })}, opts...)
	return router.New(router.DefaultRoutes(), g, opts...), rec, &titles
}

func TestPushSetsTitle(t *testing.T) {
	r, _, titles := newRouter(t, "")

	loc, err := r.Push(context.Background(), "/login")
	require.NoError(t, err)
	require.Equal(t, "登录", loc.Title)
	require.Equal(t, "登录", r.Title())

	loc, err = r.Push(context.Background(), "/")
	require.NoError(t, err)
	require.Equal(t, "首页", loc.Title)
	require.Equal(t, []string{"登录", "首页"}, *titles)
}

func TestPushDefaultsTitleToAppName(t *testing.T) {
	r, _, _ := newRouter(t, signed(t, "employee"))
	loc, err := r.Push(context.Background(), "/display-files")
	require.NoError(t, err)
	require.Equal(t, config.DefaultAppName, loc.Title)

	r, _, _ = newRouter(t, signed(t, "employee"), router.WithAppName("OA"))
	loc, err = r.Push(context.Background(), "/display-files")
	require.NoError(t, err)
	require.Equal(t, "OA", loc.Title)
}

func TestPushFollowsRedirects(t *testing.T) {
	r, _, titles := newRouter(t, "")
	loc, err := r.Push(context.Background(), "/order")
	require.NoError(t, err)
	require.Equal(t, "login", loc.Route.Name)
	require.Equal(t, []string{router.LoginPath}, loc.Redirects)
	require.Equal(t, []string{"订单管理", "登录"}, *titles)
	require.Equal(t, loc, r.Current())

	r, rec, _ := newRouter(t, signed(t, "employee"))
	loc, err = r.Push(context.Background(), "/admin/punch-records")
	require.NoError(t, err)
	require.Equal(t, "home", loc.Route.Name)
	require.Len(t, rec.Notices(), 1)
}

func TestPushUnknownRoute(t *testing.T) {
	r, _, _ := newRouter(t, "")
	_, err := r.Push(context.Background(), "/missing")
	require.ErrorIs(t, err, oaerrors.ErrRouteNotFound)
	require.Nil(t, r.Current())
}

func TestPushRedirectLoop(t *testing.T) {
	table := router.MustTable(
		router.Route{Path: router.LoginPath, Name: "login", Meta: router.RouteMeta{RequiresAuth: true}},
	)
	g, _ := newGuard(t, "")
	r := router.New(table, g, router.WithMaxRedirects(2))

	_, err := r.Push(context.Background(), router.LoginPath)
	require.ErrorIs(t, err, oaerrors.ErrTooManyRedirects)
}

func TestRouterAsSessionNavigator(t *testing.T) {
	ctx := context.Background()
	store := credential.NewInMemoryStore()
	require.NoError(t, store.Set(ctx, signed(t, "employee")))
	sess := session.New(store)
	r := router.New(router.DefaultRoutes(), router.NewGuard(sess, nil))
	sess.SetNavigator(r)

	_, err := r.Push(ctx, "/order")
	require.NoError(t, err)
	require.Equal(t, "order", r.Current().Route.Name)

	sess.EndSession(ctx)
	require.Equal(t, "login", r.Current().Route.Name)
}
