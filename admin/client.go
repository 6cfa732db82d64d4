// Package admin is the back-office client: category, product and user
// management behind the admin session. The admin credential lives in its own
// store key and has no refresh cookie, so a 401 outside the login endpoint
// simply ends the admin session.
package admin

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/shdpixel/storefront-client/api"
	"github.com/shdpixel/storefront-client/store"
)

// NewClient builds the admin transport: same Client as the storefront, bound
// to the admin token key, with refresh disabled.
func NewClient(baseURL string, s store.Store, log zerolog.Logger) (*api.Client, error) {
	client, err := api.New(baseURL, s,
		api.WithTokenKey(store.AdminAccessTokenKey),
		api.WithoutRefresh(),
		api.WithLogger(log),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[admin.NewClient]")
	}
	return client, nil
}
