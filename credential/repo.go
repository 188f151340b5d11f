package credential

import "context"

// Key is the fixed entry name the bearer token is stored under.
const Key = "oa_token"

// Store persists the single bearer token shared by the route guard and the
// request pipeline. Get returns errors.ErrNoCredential when nothing is stored.
type Store interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}
