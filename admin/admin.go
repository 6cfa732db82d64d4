package admin

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/shdpixel/storefront-client/api"
	"github.com/shdpixel/storefront-client/catalog"
	"github.com/shdpixel/storefront-client/internal/utils"
	"github.com/shdpixel/storefront-client/users"
)

// Profile is the authenticated admin account.
type Profile struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// CategoryInput creates or replaces a category.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProductInput creates or replaces a product.
type ProductInput struct {
	Name               string   `json:"name"`
	Description        string   `json:"description,omitempty"`
	CategoryID         *int     `json:"category_id,omitempty"`
	Price              float64  `json:"price"`
	DiscountPercentage float64  `json:"discount_percentage,omitempty"`
	StockQuantity      int      `json:"stock_quantity"`
	Brand              string   `json:"brand,omitempty"`
	SKU                string   `json:"sku,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	Images             []string `json:"images,omitempty"`
	Thumbnail          string   `json:"thumbnail,omitempty"`
}

// UserUpdate is a partial user update; nil fields are left unchanged.
// Use utils.Ptr to set the fields.
type UserUpdate struct {
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Service exposes the back-office operations over the admin client.
type Service struct {
	client *api.Client
	log    zerolog.Logger

	lock    sync.RWMutex
	profile *Profile
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

func NewService(client *api.Client, options ...Option) (*Service, error) {
	if client == nil {
		return nil, errors.New("[admin.NewService] api client is required")
	}
	s := &Service{
		client: client,
		log:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	client.OnSessionExpired(s.clearProfile)
	return s, nil
}

// Login authenticates the admin and persists the admin access token. There is
// no refresh credential for admin sessions.
func (s *Service) Login(ctx context.Context, username, password string) (*Profile, error) {
	payload := map[string]string{"username": username, "password": password}
	var response struct {
		AccessToken string `json:"access_token"`
	}
	if err := s.client.Do(ctx, http.MethodPost, "/auth/admin/login", payload, &response); err != nil {
		return nil, errors.Wrap(err, "[Service.Login]")
	}
	if err := s.client.SetAccessToken(response.AccessToken); err != nil {
		return nil, errors.Wrap(err, "[Service.Login] persist token")
	}
	return s.Me(ctx)
}

// Logout drops the admin credential. Purely local; the backend keeps no admin
// session state.
func (s *Service) Logout() {
	if err := s.client.ClearToken(); err != nil {
		s.log.Error().Err(err).Msg("failed to clear admin token")
	}
	s.clearProfile()
}

// Me fetches (and caches) the admin profile.
func (s *Service) Me(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := s.client.Do(ctx, http.MethodGet, "/auth/admin/me", nil, &profile); err != nil {
		return nil, errors.Wrap(err, "[Service.Me]")
	}
	s.lock.Lock()
	s.profile = &profile
	s.lock.Unlock()
	return &profile, nil
}

// Profile returns the cached admin profile, if logged in.
func (s *Service) Profile() (*Profile, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.profile, s.profile != nil
}

func (s *Service) clearProfile() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.profile = nil
}

// Categories

func (s *Service) Categories(ctx context.Context) ([]catalog.Category, error) {
	var categories []catalog.Category
	if err := s.client.Do(ctx, http.MethodGet, "/admin/categories/", nil, &categories); err != nil {
		return nil, errors.Wrap(err, "[Service.Categories]")
	}
	return categories, nil
}

func (s *Service) CreateCategory(ctx context.Context, input CategoryInput) (*catalog.Category, error) {
	var category catalog.Category
	if err := s.client.Do(ctx, http.MethodPost, "/admin/categories/", input, &category); err != nil {
		return nil, errors.Wrap(err, "[Service.CreateCategory]")
	}
	return &category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id int, input CategoryInput) (*catalog.Category, error) {
	var category catalog.Category
	if err := s.client.Do(ctx, http.MethodPut, fmt.Sprintf("/admin/categories/%d", id), input, &category); err != nil {
		return nil, errors.Wrapf(err, "[Service.UpdateCategory] id %d", id)
	}
	return &category, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int) error {
	if err := s.client.Do(ctx, http.MethodDelete, fmt.Sprintf("/admin/categories/%d", id), nil, nil); err != nil {
		return errors.Wrapf(err, "[Service.DeleteCategory] id %d", id)
	}
	return nil
}

// Products

func (s *Service) Products(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := s.client.Do(ctx, http.MethodGet, "/admin/products/", nil, &products); err != nil {
		return nil, errors.Wrap(err, "[Service.Products]")
	}
	return products, nil
}

func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*catalog.Product, error) {
	var product catalog.Product
	if err := s.client.Do(ctx, http.MethodPost, "/admin/products/", input, &product); err != nil {
		return nil, errors.Wrap(err, "[Service.CreateProduct]")
	}
	return &product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int, input ProductInput) (*catalog.Product, error) {
	var product catalog.Product
	if err := s.client.Do(ctx, http.MethodPut, fmt.Sprintf("/admin/products/%d", id), input, &product); err != nil {
		return nil, errors.Wrapf(err, "[Service.UpdateProduct] id %d", id)
	}
	return &product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int) error {
	if err := s.client.Do(ctx, http.MethodDelete, fmt.Sprintf("/admin/products/%d", id), nil, nil); err != nil {
		return errors.Wrapf(err, "[Service.DeleteProduct] id %d", id)
	}
	return nil
}

// Users

// Users lists storefront accounts (admin accounts are excluded server-side).
func (s *Service) Users(ctx context.Context) ([]users.User, error) {
	var list []users.User
	if err := s.client.Do(ctx, http.MethodGet, "/admin/users/", nil, &list); err != nil {
		return nil, errors.Wrap(err, "[Service.Users]")
	}
	return list, nil
}

// UpdateUser applies a partial update to a storefront account.
func (s *Service) UpdateUser(ctx context.Context, id int, update UserUpdate) (*users.User, error) {
	var user users.User
	if err := s.client.Do(ctx, http.MethodPut, fmt.Sprintf("/admin/users/%d", id), update, &user); err != nil {
		return nil, errors.Wrapf(err, "[Service.UpdateUser] id %d", id)
	}
	return &user, nil
}

// SetUserActive enables or disables a storefront account.
func (s *Service) SetUserActive(ctx context.Context, id int, active bool) (*users.User, error) {
	return s.UpdateUser(ctx, id, UserUpdate{IsActive: utils.Ptr(active)})
}
