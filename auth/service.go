// Package auth owns the storefront session: a single object initialized from
// the persisted access token, mutated by login/refresh/logout, and cleared on
// irrecoverable auth failure. Components that need the current user or the
// bearer credential are handed this service rather than reading shared state.
package auth

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/shdpixel/storefront-client/api"
	"github.com/shdpixel/storefront-client/users"
)

// Session is a point-in-time snapshot of the authentication state.
type Session struct {
	Authenticated bool
	User          *users.User
}

// UserID returns the session user's id as a string, or "" when anonymous.
func (s Session) UserID() string {
	if !s.Authenticated || s.User == nil {
		return ""
	}
	return strconv.Itoa(s.User.ID)
}

// Service manages the session lifecycle over an api.Client.
type Service struct {
	client  *api.Client
	log     zerolog.Logger
	nowTime func() time.Time

	lock    sync.RWMutex
	session Session

	onAuthenticated []func(ctx context.Context, user *users.User)
}

// Option defines a function type to modify the Service instance.
type Option func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// NewService initializes the session service. The api client's session-expired
// signal is wired here so an exhausted refresh drops the in-memory session too.
func NewService(client *api.Client, options ...Option) (*Service, error) {
	if client == nil {
		return nil, errors.New("[auth.NewService] api client is required")
	}

	service := &Service{
		client:  client,
		log:     zerolog.Nop(),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(service)
	}

	client.OnSessionExpired(service.clearSession)
	return service, nil
}

// OnAuthenticated registers a callback fired on the transition to an
// authenticated session (process start with a valid token, or login). The cart
// reconciler hangs its merge-on-login off this.
func (s *Service) OnAuthenticated(fn func(ctx context.Context, user *users.User)) {
	s.onAuthenticated = append(s.onAuthenticated, fn)
}

// CheckStatus resolves the current session against the backend. With no token
// held the session is anonymous. Otherwise /auth/me decides: an expired access
// token is refreshed transparently by the api client, and only a failure of
// that recovery demotes the session to anonymous.
func (s *Service) CheckStatus(ctx context.Context) (Session, error) {
	if _, ok := s.client.Token(); !ok {
		s.clearSession()
		return s.Session(), nil
	}

	var user users.User
	if err := s.client.Do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		// Refresh was already attempted and failed; the session is over.
		if clearErr := s.client.ClearToken(); clearErr != nil {
			s.log.Error().Err(clearErr).Msg("failed to clear token")
		}
		s.clearSession()
		return s.Session(), nil
	}

	wasAuthenticated := s.Session().Authenticated
	s.lock.Lock()
	s.session = Session{Authenticated: true, User: &user}
	s.lock.Unlock()

	if !wasAuthenticated {
		for _, fn := range s.onAuthenticated {
			fn(ctx, &user)
		}
	}
	return s.Session(), nil
}

// Login exchanges credentials for an access token, persists it, and resolves
// the user profile. Bad credentials surface as ErrUnauthorized.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	payload := map[string]string{"username": username, "password": password}
	var response struct {
		AccessToken string `json:"access_token"`
	}
	if err := s.client.Do(ctx, http.MethodPost, "/auth/login", payload, &response); err != nil {
		return Session{}, errors.Wrap(err, "[Service.Login]")
	}
	if err := s.client.SetAccessToken(response.AccessToken); err != nil {
		return Session{}, errors.Wrap(err, "[Service.Login] persist token")
	}
	s.log.Info().Str("username", username).Msg("logged in")
	return s.CheckStatus(ctx)
}

// Register creates a new storefront account. It does not log the user in.
func (s *Service) Register(ctx context.Context, registration users.Registration) error {
	if err := s.client.Do(ctx, http.MethodPost, "/auth/register", registration, nil); err != nil {
		return errors.Wrap(err, "[Service.Register]")
	}
	return nil
}

// Logout ends the session. The backend call is best-effort: local state is
// cleared no matter what.
func (s *Service) Logout(ctx context.Context) {
	if err := s.client.Do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		s.log.Warn().Err(err).Msg("logout call failed")
	}
	if err := s.client.ClearToken(); err != nil {
		s.log.Error().Err(err).Msg("failed to clear token")
	}
	s.clearSession()
}

// Session returns the current session snapshot.
func (s *Service) Session() Session {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.session
}

func (s *Service) clearSession() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.session = Session{}
}
