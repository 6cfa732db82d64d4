// Package catalog provides read access to the storefront's products and
// categories. Browsing works anonymously; the endpoints need no session.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/shdpixel/storefront-client/api"
)

type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Product struct {
	ID                 int      `json:"id"`
	Name               string   `json:"name"`
	Description        string   `json:"description,omitempty"`
	CategoryID         *int     `json:"category_id,omitempty"`
	Price              float64  `json:"price"`
	DiscountPercentage float64  `json:"discount_percentage,omitempty"`
	StockQuantity      int      `json:"stock_quantity"`
	Brand              string   `json:"brand,omitempty"`
	SKU                string   `json:"sku,omitempty"`
	AvailabilityStatus string   `json:"availability_status,omitempty"`
	Rating             float64  `json:"rating,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	Images             []string `json:"images,omitempty"`
	Thumbnail          string   `json:"thumbnail,omitempty"`
	Reviews            []Review `json:"reviews,omitempty"`
}

// Review is a customer product review. The backend embeds them in the product
// payload and also serves them standalone.
type Review struct {
	ID            int        `json:"id"`
	ProductID     int        `json:"product_id"`
	Rating        int        `json:"rating"`
	Comment       string     `json:"comment,omitempty"`
	ReviewerName  string     `json:"reviewer_name"`
	ReviewerEmail string     `json:"reviewer_email"`
	Date          *time.Time `json:"date,omitempty"`
}

// ReviewInput creates a review for a product.
type ReviewInput struct {
	Rating        int    `json:"rating"`
	Comment       string `json:"comment,omitempty"`
	ReviewerName  string `json:"reviewer_name"`
	ReviewerEmail string `json:"reviewer_email"`
}

// ListParams control product listing filters and pagination.
type ListParams struct {
	Search     string
	CategoryID int
	Skip       int
	Limit      int
}

// Service wraps the catalog endpoints.
type Service struct {
	client *api.Client
}

func NewService(client *api.Client) (*Service, error) {
	if client == nil {
		return nil, errors.New("[catalog.NewService] api client is required")
	}
	return &Service{client: client}, nil
}

// Products lists products with pagination.
func (s *Service) Products(ctx context.Context, params ListParams) ([]Product, error) {
	query := url.Values{}
	if params.Search != "" {
		query.Set("search", params.Search)
	}
	if params.CategoryID > 0 {
		query.Set("category_id", fmt.Sprintf("%d", params.CategoryID))
	}
	if params.Skip > 0 {
		query.Set("skip", fmt.Sprintf("%d", params.Skip))
	}
	if params.Limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", params.Limit))
	}
	path := "/products/"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var products []Product
	if err := s.client.Do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, errors.Wrap(err, "[Service.Products]")
	}
	return products, nil
}

// Product fetches a single product by id.
func (s *Service) Product(ctx context.Context, id int) (*Product, error) {
	var product Product
	if err := s.client.Do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &product); err != nil {
		return nil, errors.Wrapf(err, "[Service.Product] id %d", id)
	}
	return &product, nil
}

// Reviews lists the reviews for a product.
func (s *Service) Reviews(ctx context.Context, productID int) ([]Review, error) {
	var reviews []Review
	if err := s.client.Do(ctx, http.MethodGet, fmt.Sprintf("/products/%d/reviews/", productID), nil, &reviews); err != nil {
		return nil, errors.Wrapf(err, "[Service.Reviews] product %d", productID)
	}
	return reviews, nil
}

// AddReview submits a review for a product.
func (s *Service) AddReview(ctx context.Context, productID int, input ReviewInput) (*Review, error) {
	var review Review
	if err := s.client.Do(ctx, http.MethodPost, fmt.Sprintf("/products/%d/reviews/", productID), input, &review); err != nil {
		return nil, errors.Wrapf(err, "[Service.AddReview] product %d", productID)
	}
	return &review, nil
}

// Categories lists all categories.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := s.client.Do(ctx, http.MethodGet, "/categories/", nil, &categories); err != nil {
		return nil, errors.Wrap(err, "[Service.Categories]")
	}
	return categories, nil
}
