package api

import (
	"context"

	oaerrors "github.com/jrsteele09/oa-client/internal/errors"
	"github.com/jrsteele09/oa-client/request"
)

// DefaultLoginPath is the TOTP sign-in endpoint.
const DefaultLoginPath = "/api/totp/login"

type Auth struct {
	client *request.Client
	// Path overrides the sign-in endpoint.
	Path string
}

type loginRequest struct {
	EmpID    string `json:"emp_id" validate:"required,max=64"`
	TOTPCode string `json:"totp_code" validate:"required,len=6,numeric"`
}

// LoginTOTP signs in with an employee id and a six digit TOTP code and
// stores the issued token in the session.
func (a *Auth) LoginTOTP(ctx context.Context, empID, code string) (*LoginResult, error) {
	req := loginRequest{EmpID: empID, TOTPCode: code}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var res LoginResult
	if err := a.client.Post(ctx, a.path(), req, &res, request.SkipAuthRefresh()); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, oaerrors.Wrapf(oaerrors.ErrMalformedResponse, "login response carried no token")
	}
	if err := a.client.Session().SignIn(ctx, res.Token); err != nil {
		return nil, err
	}
	return &res, nil
}

// Logout forgets the stored token. The backend keeps no server side session.
func (a *Auth) Logout(ctx context.Context) error {
	return a.client.Session().SignOut(ctx)
}

// Refresh exchanges the stored token for a new one through the session's
// single refresh flight.
func (a *Auth) Refresh(ctx context.Context) (string, error) {
	return a.client.Session().Refresh(ctx, a.client.RefreshToken)
}

func (a *Auth) path() string {
	if a.Path == "" {
		return DefaultLoginPath
	}
	return a.Path
}
