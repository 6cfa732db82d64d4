// Package checkout runs the place-order flow: validate the cart, create the
// order, collect payment through the gateway when needed, and clear the cart
// once the order is settled.
package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/shdpixel/storefront-client/cart"
	"github.com/shdpixel/storefront-client/orders"
	"github.com/shdpixel/storefront-client/payments"
)

// Request is the checkout input.
type Request struct {
	ShippingAddress string
	PaymentMethod   string
}

// Result reports how the checkout ended.
type Result struct {
	OrderID int
	Paid    bool // true for a verified online payment; false for cash on delivery or a failed payment
}

// Flow coordinates cart, orders and payments.
type Flow struct {
	cart     *cart.Reconciler
	orders   *orders.Service
	payments *payments.Coordinator
	log      zerolog.Logger
}

// Option configures a Flow.
type Option func(*Flow)

// WithLogger sets the flow logger.
func WithLogger(log zerolog.Logger) Option {
	return func(f *Flow) {
		f.log = log
	}
}

func NewFlow(cartRec *cart.Reconciler, orderSvc *orders.Service, paymentCoord *payments.Coordinator, options ...Option) (*Flow, error) {
	if cartRec == nil {
		return nil, errors.New("[checkout.NewFlow] cart reconciler is required")
	}
	if orderSvc == nil {
		return nil, errors.New("[checkout.NewFlow] orders service is required")
	}
	if paymentCoord == nil {
		return nil, errors.New("[checkout.NewFlow] payments coordinator is required")
	}
	f := &Flow{
		cart:     cartRec,
		orders:   orderSvc,
		payments: paymentCoord,
		log:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(f)
	}
	return f, nil
}

// Run places the order from the current cart contents. For an online payment
// method the gateway flow must complete and verify before the cart is
// cleared; a failed or cancelled payment leaves the cart intact so the user
// can retry.
func (f *Flow) Run(ctx context.Context, request Request) (*Result, error) {
	items := f.cart.Items()
	if len(items) == 0 {
		return nil, errors.New("[Flow.Run] cart is empty")
	}
	if strings.TrimSpace(request.ShippingAddress) == "" {
		return nil, errors.New("[Flow.Run] shipping address is required")
	}

	orderItems := make([]orders.ItemRequest, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, orders.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := f.orders.Create(ctx, orders.CreateOrder{
		ShippingAddress: strings.TrimSpace(request.ShippingAddress),
		PaymentMethod:   request.PaymentMethod,
		Items:           orderItems,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Flow.Run] create order")
	}
	f.log.Info().Int("order_id", order.ID).Str("payment_method", request.PaymentMethod).Msg("order created")

	if request.PaymentMethod != orders.PaymentRazorpay {
		f.cart.Clear(ctx)
		return &Result{OrderID: order.ID, Paid: false}, nil
	}

	providerOrder, err := f.payments.CreateProviderOrder(ctx, orders.PaymentRazorpay, order.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[Flow.Run] provider order")
	}

	paid, err := f.payments.Collect(ctx, orders.PaymentRazorpay, providerOrder, fmt.Sprintf("Order #%d", order.ID))
	if err != nil {
		return &Result{OrderID: order.ID, Paid: false}, errors.Wrap(err, "[Flow.Run] collect payment")
	}
	if !paid {
		return &Result{OrderID: order.ID, Paid: false}, nil
	}

	f.cart.Clear(ctx)
	return &Result{OrderID: order.ID, Paid: true}, nil
}
