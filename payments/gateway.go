// Package payments coordinates order payment against an opaque checkout
// gateway. The gateway (e.g. the Razorpay widget) is injected: it is handed a
// provider order reference and an amount, and eventually reports success,
// cancellation, or failure. This package maps that outcome onto the backend's
// verify/fail endpoints.
package payments

import "context"

// OutcomeStatus is the terminal state reported by the checkout gateway.
type OutcomeStatus string

const (
	OutcomeSuccess   OutcomeStatus = "success"
	OutcomeCancelled OutcomeStatus = "cancelled"
	OutcomeFailed    OutcomeStatus = "failed"
)

// CheckoutOptions is everything the gateway needs to run its flow.
type CheckoutOptions struct {
	KeyID           string // provider public key
	ProviderOrderID string // provider-side order reference
	Amount          int64  // smallest currency unit (paise)
	Currency        string
	Description     string
	Receipt         string // client-generated receipt reference
}

// Outcome is the gateway's eventual answer. On success the provider fields
// carry what the backend needs to verify the payment signature.
type Outcome struct {
	Status            OutcomeStatus
	ProviderOrderID   string
	ProviderPaymentID string
	Signature         string
	ErrCode           string
	ErrDescription    string
}

// Gateway is the opaque checkout widget. Open blocks until the flow settles.
type Gateway interface {
	Open(ctx context.Context, options CheckoutOptions) (Outcome, error)
}
