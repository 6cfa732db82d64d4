package payments

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/shdpixel/storefront-client/api"
)

// ProviderOrder is the backend's answer to a provider order request.
type ProviderOrder struct {
	KeyID           string `json:"key_id"`
	ProviderOrderID string `json:"razorpay_order_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	InternalOrderID int    `json:"internal_order_id"`
}

type verifyRequest struct {
	OrderID           int    `json:"order_id"`
	ProviderOrderID   string `json:"razorpay_order_id"`
	ProviderPaymentID string `json:"razorpay_payment_id"`
	Signature         string `json:"razorpay_signature"`
}

type failRequest struct {
	OrderID          int    `json:"order_id"`
	ProviderOrderID  string `json:"razorpay_order_id,omitempty"`
	ErrorCode        string `json:"error_code,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Coordinator runs a gateway checkout for an order and settles the result
// with the backend.
type Coordinator struct {
	client  *api.Client
	gateway Gateway
	log     zerolog.Logger

	fallbackKeyID    string
	fallbackCurrency string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.log = log
	}
}

// WithFallbackKeyID sets the provider public key to hand the gateway when the
// backend's provider order does not carry one.
func WithFallbackKeyID(keyID string) Option {
	return func(c *Coordinator) {
		c.fallbackKeyID = keyID
	}
}

// WithFallbackCurrency sets the currency used when the provider order omits it.
func WithFallbackCurrency(currency string) Option {
	return func(c *Coordinator) {
		c.fallbackCurrency = currency
	}
}

func NewCoordinator(client *api.Client, gateway Gateway, options ...Option) (*Coordinator, error) {
	if client == nil {
		return nil, errors.New("[payments.NewCoordinator] api client is required")
	}
	if gateway == nil {
		return nil, errors.New("[payments.NewCoordinator] gateway is required")
	}
	c := &Coordinator{
		client:  client,
		gateway: gateway,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// CreateProviderOrder asks the backend for a provider-side order for the given
// internal order.
func (c *Coordinator) CreateProviderOrder(ctx context.Context, provider string, orderID int) (*ProviderOrder, error) {
	payload := map[string]int{"order_id": orderID}
	var po ProviderOrder
	path := fmt.Sprintf("/payments/%s/order", provider)
	if err := c.client.Do(ctx, http.MethodPost, path, payload, &po); err != nil {
		return nil, errors.Wrapf(err, "[Coordinator.CreateProviderOrder] order %d", orderID)
	}
	return &po, nil
}

// Collect runs the gateway flow for the order and maps the outcome:
// success → verify (a verify failure is reported back as a failed payment),
// cancelled/failed → fail. Fail reports are best-effort. The returned bool
// says whether the payment completed.
func (c *Coordinator) Collect(ctx context.Context, provider string, order *ProviderOrder, description string) (bool, error) {
	keyID := order.KeyID
	if keyID == "" {
		keyID = c.fallbackKeyID
	}
	currency := order.Currency
	if currency == "" {
		currency = c.fallbackCurrency
	}
	outcome, err := c.gateway.Open(ctx, CheckoutOptions{
		KeyID:           keyID,
		ProviderOrderID: order.ProviderOrderID,
		Amount:          order.Amount,
		Currency:        currency,
		Description:     description,
		Receipt:         uuid.New().String(),
	})
	if err != nil {
		c.fail(ctx, provider, order, "gateway_error", err.Error())
		return false, errors.Wrap(err, "[Coordinator.Collect] gateway")
	}

	switch outcome.Status {
	case OutcomeSuccess:
		verify := verifyRequest{
			OrderID:           order.InternalOrderID,
			ProviderOrderID:   outcome.ProviderOrderID,
			ProviderPaymentID: outcome.ProviderPaymentID,
			Signature:         outcome.Signature,
		}
		path := fmt.Sprintf("/payments/%s/verify", provider)
		if err := c.client.Do(ctx, http.MethodPost, path, verify, nil); err != nil {
			c.fail(ctx, provider, order, "verification_failed", err.Error())
			return false, errors.Wrap(err, "[Coordinator.Collect] verify")
		}
		return true, nil

	case OutcomeCancelled:
		c.fail(ctx, provider, order, "cancelled", "user cancelled the checkout")
		return false, nil

	default:
		code := outcome.ErrCode
		if code == "" {
			code = "failed"
		}
		c.fail(ctx, provider, order, code, outcome.ErrDescription)
		return false, nil
	}
}

func (c *Coordinator) fail(ctx context.Context, provider string, order *ProviderOrder, code, description string) {
	payload := failRequest{
		OrderID:          order.InternalOrderID,
		ProviderOrderID:  order.ProviderOrderID,
		ErrorCode:        code,
		ErrorDescription: description,
	}
	path := fmt.Sprintf("/payments/%s/fail", provider)
	if err := c.client.Do(ctx, http.MethodPost, path, payload, nil); err != nil {
		c.log.Warn().Err(err).Int("order_id", order.InternalOrderID).Msg("failed to report payment failure")
	}
}
