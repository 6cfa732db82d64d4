// Package orders places orders and reads order history.
package orders

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/shdpixel/storefront-client/api"
)

// Supported payment methods.
const (
	PaymentCashOnDelivery = "cash_on_delivery"
	PaymentRazorpay       = "razorpay"
)

type ItemRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// CreateOrder is the order placement payload.
type CreateOrder struct {
	ShippingAddress string        `json:"shipping_address"`
	PaymentMethod   string        `json:"payment_method"`
	Items           []ItemRequest `json:"order_items"`
}

type Item struct {
	ID        int     `json:"id"`
	ProductID int     `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Subtotal  float64 `json:"subtotal"`
}

type Order struct {
	ID              int        `json:"id"`
	UserID          int        `json:"user_id"`
	ShippingAddress string     `json:"shipping_address"`
	PaymentMethod   string     `json:"payment_method"`
	Status          string     `json:"status"`
	PaymentStatus   string     `json:"payment_status"`
	TotalAmount     float64    `json:"total_amount"`
	Items           []Item     `json:"order_items"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

// Service wraps the order endpoints. All of them require a session.
type Service struct {
	client *api.Client
}

func NewService(client *api.Client) (*Service, error) {
	if client == nil {
		return nil, errors.New("[orders.NewService] api client is required")
	}
	return &Service{client: client}, nil
}

// Create places a new order.
func (s *Service) Create(ctx context.Context, order CreateOrder) (*Order, error) {
	if len(order.Items) == 0 {
		return nil, errors.New("[Service.Create] order must contain at least one item")
	}
	var created Order
	if err := s.client.Do(ctx, http.MethodPost, "/orders/", order, &created); err != nil {
		return nil, errors.Wrap(err, "[Service.Create]")
	}
	return &created, nil
}

// List returns the current user's order history.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := s.client.Do(ctx, http.MethodGet, "/orders/", nil, &orders); err != nil {
		return nil, errors.Wrap(err, "[Service.List]")
	}
	return orders, nil
}

// Get fetches a single order.
func (s *Service) Get(ctx context.Context, id int) (*Order, error) {
	var order Order
	if err := s.client.Do(ctx, http.MethodGet, fmt.Sprintf("/orders/%d", id), nil, &order); err != nil {
		return nil, errors.Wrapf(err, "[Service.Get] id %d", id)
	}
	return &order, nil
}
