package fakeoa_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/oa-client/internal/fakeoa"
	"github.com/jrsteele09/oa-client/token"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, url, bearer, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestRefreshHonoursLeewayAndRevokes(t *testing.T) {
	srv := fakeoa.New()
	defer srv.Close()

	old := srv.Issue(fakeoa.DefaultUser.EmpID, -time.Minute)
	resp, body := post(t, srv.URL+"/api/auth/refresh", old, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 200, body["code"])

	fresh := body["data"].(map[string]any)["token"].(string)
	claims, err := token.Decode(fresh)
	require.NoError(t, err)
	require.Equal(t, fakeoa.DefaultUser.EmpID, claims.EmpID)

	// The exchanged token cannot be exchanged again.
	resp, _ = post(t, srv.URL+"/api/auth/refresh", old, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tooOld := srv.Issue(fakeoa.DefaultUser.EmpID, -time.Hour)
	resp, _ = post(t, srv.URL+"/api/auth/refresh", tooOld, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 3, srv.RefreshCalls())
}

func TestRequireAuthAnswersLegacyEnvelope(t *testing.T) {
	srv := fakeoa.New()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/machines")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.EqualValues(t, 401, body["code"])
	require.Equal(t, 1, srv.Hits(http.MethodGet, "/api/machines"))
}

func TestLogin(t *testing.T) {
	srv := fakeoa.New()
	defer srv.Close()

	resp, body := post(t, srv.URL+"/api/totp/login", "", `{"emp_id":"E1001","totp_code":"123456"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["data"].(map[string]any)["token"])

	resp, _ = post(t, srv.URL+"/api/totp/login", "", `{"emp_id":"E1001","totp_code":"999999"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
