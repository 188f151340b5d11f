package token_test

import (
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	oaerrors "github.com/jrsteele09/oa-client/internal/errors"
	"github.com/jrsteele09/oa-client/token"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestDecode(t *testing.T) {
	signer := token.NewHMACSigner(testSecret)
	raw, err := signer.Sign(token.NewClaims("E001", "Zhang San", token.RoleAdmin, time.Hour))
	require.NoError(t, err)

	claims, err := token.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "E001", claims.EmpID)
	require.Equal(t, "Zhang San", claims.Name)
	require.True(t, claims.IsAdmin())
	require.NotEmpty(t, claims.ID)

	remaining, ok := claims.ExpiresIn(time.Now())
	require.True(t, ok)
	require.InDelta(t, time.Hour.Seconds(), remaining.Seconds(), 5)
}

func TestDecodeIgnoresSignature(t *testing.T) {
	raw, err := token.NewHMACSigner("other-secret").Sign(token.NewClaims("E002", "Li Si", "user", time.Minute))
	require.NoError(t, err)

	claims, err := token.Decode(raw)
	require.NoError(t, err)
	require.False(t, claims.IsAdmin())
}

func TestDecodeMalformed(t *testing.T) {
	notJSON := base64.RawURLEncoding.EncodeToString([]byte("not json"))
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "not a jwt", raw: "abc"},
		{name: "bad base64", raw: "a.%%%.c"},
		{name: "payload not json", raw: "eyJhbGciOiJIUzI1NiJ9." + notJSON + ".sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := token.Decode(tt.raw)
			require.ErrorIs(t, err, oaerrors.ErrInvalidToken)
		})
	}
}

func TestExpiresInWithoutExp(t *testing.T) {
	claims := &token.Claims{UserRole: "user"}
	_, ok := claims.ExpiresIn(time.Now())
	require.False(t, ok)
	require.True(t, claims.Expiry().IsZero())
}

func TestOAuth2TokenSetsBearerHeader(t *testing.T) {
	raw, err := token.NewHMACSigner(testSecret).Sign(token.NewClaims("E001", "Zhang San", "user", time.Hour))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "http://localhost/api/machines", nil)
	require.NoError(t, err)

	tok := token.OAuth2Token(raw)
	tok.SetAuthHeader(req)
	require.Equal(t, "Bearer "+raw, req.Header.Get("Authorization"))
	require.False(t, tok.Expiry.IsZero())
}

func TestHMACSignerVerify(t *testing.T) {
	signer := token.NewHMACSigner(testSecret)

	t.Run("valid", func(t *testing.T) {
		raw, err := signer.Sign(token.NewClaims("E001", "Zhang San", "user", time.Hour))
		require.NoError(t, err)
		claims, err := signer.Verify(raw, 0)
		require.NoError(t, err)
		require.Equal(t, "E001", claims.EmpID)
	})

	t.Run("expired within leeway", func(t *testing.T) {
		raw, err := signer.Sign(token.NewClaims("E001", "Zhang San", "user", -time.Minute))
		require.NoError(t, err)
		_, err = signer.Verify(raw, 0)
		require.Error(t, err)
		_, err = signer.Verify(raw, 5*time.Minute)
		require.NoError(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		raw, err := token.NewHMACSigner("other").Sign(token.NewClaims("E001", "Zhang San", "user", time.Hour))
		require.NoError(t, err)
		_, err = signer.Verify(raw, 0)
		require.Error(t, err)
	})
}

func TestRevocationList(t *testing.T) {
	list := token.NewRevocationList()
	expired := token.NewClaims("E001", "Tester", "user", -time.Minute)
	expired.ID = "jti-expired"
	live := token.NewClaims("E001", "Tester", "user", time.Hour)
	live.ID = "jti-live"

	require.False(t, list.Revoke(&token.Claims{}, time.Minute))
	require.True(t, list.Revoke(&expired, 2*time.Minute))
	require.True(t, list.Revoke(&live, 0))

	// Still inside the grace window.
	require.True(t, list.IsRevoked(&expired))
	require.True(t, list.IsRevoked(&live))
	require.False(t, list.IsRevoked(&token.Claims{}))

	shortGrace := token.NewClaims("E002", "Other", "user", -time.Minute)
	shortGrace.ID = "jti-gone"
	list.Revoke(&shortGrace, 0)
	require.False(t, list.IsRevoked(&shortGrace))
	require.Equal(t, 2, list.Len())
}
