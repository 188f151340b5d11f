package router

import (
	"strings"

	oaerrors "github.com/jrsteele09/oa-client/internal/errors"
)

const (
	HomePath  = "/"
	LoginPath = "/login"
)

// RouteMeta holds the static attributes the guard consults.
type RouteMeta struct {
	Title         string
	RequiresAuth  bool
	RequiresAdmin bool
}

type Route struct {
	Path string
	Name string
	Meta RouteMeta
}

// Table is an ordered, immutable set of routes. Paths may contain ":name"
// segments that match any single segment.
type Table struct {
	routes   []Route
	segments [][]string
}

func NewTable(routes ...Route) (*Table, error) {
	t := &Table{}
	names := map[string]bool{}
	paths := map[string]bool{}
	for _, r := range routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, oaerrors.Wrapf(oaerrors.ErrInvalidInput, "route %q: path must start with /", r.Path)
		}
		if r.Meta.RequiresAdmin && !r.Meta.RequiresAuth {
			return nil, oaerrors.Wrapf(oaerrors.ErrInvalidInput, "route %q: admin routes must require auth", r.Path)
		}
		if r.Name != "" && names[r.Name] {
			return nil, oaerrors.Wrapf(oaerrors.ErrInvalidInput, "duplicate route name %q", r.Name)
		}
		if paths[r.Path] {
			return nil, oaerrors.Wrapf(oaerrors.ErrInvalidInput, "duplicate route path %q", r.Path)
		}
		names[r.Name], paths[r.Path] = true, true
		t.routes = append(t.routes, r)
		t.segments = append(t.segments, split(r.Path))
	}
	return t, nil
}

// MustTable is NewTable for static tables.
func MustTable(routes ...Route) *Table {
	t, err := NewTable(routes...)
	if err != nil {
		panic(err)
	}
	return t
}

// Match returns the first route matching path, with its ":name" parameters.
// Query strings and fragments are ignored.
func (t *Table) Match(path string) (Route, map[string]string, error) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	want := split(path)

	for i, segs := range t.segments {
		if params, ok := matchSegments(segs, want); ok {
			return t.routes[i], params, nil
		}
	}
	return Route{}, nil, oaerrors.Wrapf(oaerrors.ErrRouteNotFound, "%s", path)
}

// ByName looks a route up by its name.
func (t *Table) ByName(name string) (Route, bool) {
	for _, r := range t.routes {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

func matchSegments(pattern, path []string) (map[string]string, bool) {
	if len(pattern) != len(path) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			if path[i] == "" {
				return nil, false
			}
			if params == nil {
				params = map[string]string{}
			}
			params[seg[1:]] = path[i]
			continue
		}
		if seg != path[i] {
			return nil, false
		}
	}
	return params, true
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// DefaultRoutes is the OA client's route table.
func DefaultRoutes() *Table {
	return MustTable(
		Route{Path: HomePath, Name: "home", Meta: RouteMeta{Title: "首页"}},
		Route{Path: LoginPath, Name: "login", Meta: RouteMeta{Title: "登录"}},
		Route{Path: "/punch-success", Name: "punchSuccess", Meta: RouteMeta{Title: "打卡成功"}},
		Route{Path: "/order", Name: "order", Meta: RouteMeta{Title: "订单管理", RequiresAuth: true}},
		Route{Path: "/order/:id", Name: "orderDetail", Meta: RouteMeta{Title: "订单详情", RequiresAuth: true}},
		Route{Path: "/machines", Name: "machines", Meta: RouteMeta{Title: "机器管理", RequiresAuth: true}},
		Route{Path: "/machines/:model", Name: "machineDetail", Meta: RouteMeta{Title: "机器详情", RequiresAuth: true}},
		Route{Path: "/expenses", Name: "expenses", Meta: RouteMeta{Title: "费用核算", RequiresAuth: true}},
		Route{Path: "/inquiries", Name: "inquiries", Meta: RouteMeta{Title: "询盘管理", RequiresAuth: true}},
		Route{Path: "/display-files", Name: "displayFiles", Meta: RouteMeta{RequiresAuth: true}},
		Route{Path: "/admin/punch-records", Name: "punchRecords", Meta: RouteMeta{Title: "打卡记录", RequiresAuth: true, RequiresAdmin: true}},
		Route{Path: "/admin/employees", Name: "employees", Meta: RouteMeta{Title: "员工管理", RequiresAuth: true, RequiresAdmin: true}},
		Route{Path: "/admin/devices", Name: "devices", Meta: RouteMeta{Title: "设备管理", RequiresAuth: true, RequiresAdmin: true}},
	)
}
