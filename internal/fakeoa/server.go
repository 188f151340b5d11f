// Package fakeoa is an in-process OA backend for tests and local demos. It
// issues HS256 tokens, enforces bearer auth, answers in both the current and
// the legacy response envelopes, and can be told to misbehave.
package fakeoa

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/jrsteele09/oa-client/token"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSecret   = "fakeoa-secret"
	DefaultTokenTTL = 2 * time.Hour
	// RefreshLeeway lets a recently expired token still be exchanged.
	RefreshLeeway = 5 * time.Minute
)

// User is an account the fake backend accepts.
type User struct {
	EmpID    string
	Name     string
	Role     string
	TOTPCode string
}

var (
	DefaultUser  = User{EmpID: "E1001", Name: "Li Lei", Role: "employee", TOTPCode: "123456"}
	DefaultAdmin = User{EmpID: "A0001", Name: "Han Meimei", Role: token.RoleAdmin, TOTPCode: "654321"}
)

type Server struct {
	*httptest.Server

	signer  *token.HMACsigner
	revoked *token.RevocationList
	mux     *http.ServeMux

	mu           sync.Mutex
	users        map[string]User
	hits         map[string]int
	refreshCalls int
	failRefresh  bool
	refreshDelay time.Duration

	store   *store
	records *records
}

func New() *Server {
	s := &Server{
		signer:  token.NewHMACSigner(DefaultSecret),
		revoked: token.NewRevocationList(),
		mux:     http.NewServeMux(),
		users:   map[string]User{},
		hits:    map[string]int{},
		store:   newStore(),
		records: newRecords(),
	}
	s.AddUser(DefaultUser)
	s.AddUser(DefaultAdmin)
	s.routes()
	s.Server = httptest.NewServer(s.mux)
	return s
}

func (s *Server) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.EmpID] = u
}

// Issue signs a token for a known user that expires after ttl. A negative
// ttl yields an already expired token.
func (s *Server) Issue(empID string, ttl time.Duration) string {
	s.mu.Lock()
	u, ok := s.users[empID]
	s.mu.Unlock()
	if !ok {
		u = User{EmpID: empID, Name: empID}
	}
	raw, err := s.signer.Sign(token.NewClaims(u.EmpID, u.Name, u.Role, ttl))
	if err != nil {
		log.Error().Err(err).Msg("fakeoa: signing token")
	}
	return raw
}

// Handle registers an extra route, counted like the built in ones. Pass
// authenticated to put it behind bearer auth.
func (s *Server) Handle(pattern string, authenticated bool, h http.HandlerFunc) {
	mw := []func(http.HandlerFunc) http.HandlerFunc{s.CountingMiddleware}
	if authenticated {
		mw = append(mw, s.RequireAuth())
	}
	s.mux.HandleFunc(pattern, ChainMiddleware(h, mw...))
}

// FailRefresh makes the refresh endpoint reject every request.
func (s *Server) FailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// SetRefreshDelay holds each refresh response for d.
func (s *Server) SetRefreshDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshDelay = d
}

func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// Hits returns how often method and path were requested.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// Revoke stops a token from being accepted anywhere.
func (s *Server) Revoke(raw string) {
	claims, err := token.Decode(raw)
	if err != nil {
		return
	}
	s.revoked.Revoke(claims, RefreshLeeway)
}

func (s *Server) routes() {
	public := func(h http.HandlerFunc) http.HandlerFunc {
		return ChainMiddleware(h, s.CountingMiddleware)
	}
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return ChainMiddleware(h, s.CountingMiddleware, s.RequireAuth())
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return ChainMiddleware(h, s.CountingMiddleware, s.RequireAuth(), s.RequireAdmin())
	}

	s.mux.HandleFunc("POST /api/totp/login", public(s.handleLogin))
	s.mux.HandleFunc("POST /api/auth/refresh", public(s.handleRefresh))

	s.mux.HandleFunc("GET /api/machines", authed(s.handleListMachines))
	s.mux.HandleFunc("POST /api/machines", admin(s.handleCreateMachine))
	s.mux.HandleFunc("GET /api/machines/{model}", authed(s.handleGetMachine))
	s.mux.HandleFunc("PUT /api/machines/{model}", admin(s.handleUpdateMachine))
	s.mux.HandleFunc("DELETE /api/machines/{model}", admin(s.handleDeleteMachine))
	s.mux.HandleFunc("GET /api/parts", authed(s.handleListParts))

	s.mux.HandleFunc("GET /api/orders", authed(s.handleListOrders))
	s.mux.HandleFunc("GET /api/orders/statistics", authed(s.handleOrderStatistics))
	s.mux.HandleFunc("GET /api/orders/{id}", authed(s.handleGetOrder))
	s.mux.HandleFunc("GET /api/punch-records", admin(s.handlePunchRecords))

	s.mux.HandleFunc("GET /api/inquiries", authed(s.handleListInquiries))
	s.mux.HandleFunc("POST /api/inquiries", authed(s.handleCreateInquiry))
	s.mux.HandleFunc("GET /api/inquiries/stats", authed(s.handleInquiryStats))
	s.mux.HandleFunc("GET /api/inquiries/{id}", authed(s.handleGetInquiry))
	s.mux.HandleFunc("PUT /api/inquiries/{id}", authed(s.handleUpdateInquiry))
	s.mux.HandleFunc("DELETE /api/inquiries/{id}", authed(s.handleDeleteInquiry))

	s.mux.HandleFunc("GET /api/expenses", admin(s.handleListExpenses))
	s.mux.HandleFunc("POST /api/expenses", admin(s.handleCreateExpense))
	s.mux.HandleFunc("GET /api/expenses/{id}", admin(s.handleGetExpense))
	s.mux.HandleFunc("PUT /api/expenses/{id}", admin(s.handleUpdateExpense))
	s.mux.HandleFunc("DELETE /api/expenses/{id}", admin(s.handleDeleteExpense))

	s.mux.HandleFunc("POST /api/upload", authed(s.handleUpload))
	s.mux.HandleFunc("POST /api/upload/chunk", authed(s.handleUploadChunk))
	s.mux.HandleFunc("POST /api/upload/move", authed(s.handleMove))
	s.mux.HandleFunc("POST /api/upload/delete", authed(s.handleDelete))
}

// writeLegacy answers with {code, msg, data}.
func writeLegacy(w http.ResponseWriter, status, code int, msg string, data any) {
	writeJSON(w, status, map[string]any{"code": code, "msg": msg, "data": data})
}

// writeCurrent answers with {success, data, message}.
func writeCurrent(w http.ResponseWriter, status int, success bool, message string, data any) {
	body := map[string]any{"success": success}
	if data != nil {
		body["data"] = data
	}
	if message != "" {
		body["message"] = message
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("fakeoa: encoding response")
	}
}
