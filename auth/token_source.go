package auth

import (
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	clienterrors "github.com/shdpixel/storefront-client/internal/errors"
)

// TokenSource exposes the session credential as a standard oauth2.TokenSource
// so it can be handed to libraries that expect one.
func (s *Service) TokenSource() oauth2.TokenSource {
	return tokenSource{service: s}
}

type tokenSource struct {
	service *Service
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	tok, ok := ts.service.client.Token()
	if !ok {
		return nil, errors.Wrap(clienterrors.ErrUnauthenticated, "[auth.TokenSource] no token held")
	}
	return tok, nil
}
