// Package api exposes the OA backend endpoints as typed calls on top of the
// authenticated request pipeline.
package api

import (
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	oaerrors "github.com/jrsteele09/oa-client/internal/errors"
	"github.com/jrsteele09/oa-client/request"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// API groups the endpoint families behind one request client.
type API struct {
	Auth      *Auth
	Machines  *Machines
	Parts     *Parts
	Orders    *Orders
	Punch     *Punch
	Inquiries *Inquiries
	Expenses  *Expenses
	Uploads   *Uploads
}

func New(client *request.Client) *API {
	return &API{
		Auth:      &Auth{client: client, Path: DefaultLoginPath},
		Machines:  &Machines{client: client},
		Parts:     &Parts{client: client},
		Orders:    &Orders{client: client},
		Punch:     &Punch{client: client},
		Inquiries: &Inquiries{client: client},
		Expenses:  &Expenses{client: client},
		Uploads:   &Uploads{client: client, ChunkSize: DefaultChunkSize},
	}
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return oaerrors.Wrapf(oaerrors.ErrInvalidInput, "%v", err)
	}
	return nil
}

func (p PageParams) orDefault() PageParams {
	if p.Page == 0 {
		p.Page = DefaultPage.Page
	}
	if p.Size == 0 {
		p.Size = DefaultPage.Size
	}
	return p
}

func (p PageParams) values(sizeKey string) url.Values {
	return url.Values{
		"page":  {strconv.Itoa(p.Page)},
		sizeKey: {strconv.Itoa(p.Size)},
	}
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
