package payments_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shdpixel/storefront-client/api"
	"github.com/shdpixel/storefront-client/payments"
	"github.com/shdpixel/storefront-client/store/storefakes"
)

// fakeGateway settles with a canned outcome.
type fakeGateway struct {
	outcome payments.Outcome
	err     error

	lock    sync.Mutex
	options []payments.CheckoutOptions
}

func (g *fakeGateway) Open(_ context.Context, options payments.CheckoutOptions) (payments.Outcome, error) {
	g.lock.Lock()
	g.options = append(g.options, options)
	g.lock.Unlock()
	return g.outcome, g.err
}

type testFixture struct {
	client      *api.Client
	coordinator *payments.Coordinator
	gateway     *fakeGateway

	lock        sync.Mutex
	verifyCalls []map[string]any
	failCalls   []map[string]any
	verifyFails bool
}

func setupTestFixture(t *testing.T, outcome payments.Outcome) *testFixture {
	t.Helper()

	f := &testFixture{gateway: &fakeGateway{outcome: outcome}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /payments/razorpay/order", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"key_id":"rzp_test_key","razorpay_order_id":"order_rp_1","amount":9998,"currency":"INR","internal_order_id":11}`))
	})
	mux.HandleFunc("POST /payments/razorpay/verify", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		f.lock.Lock()
		f.verifyCalls = append(f.verifyCalls, payload)
		fails := f.verifyFails
		f.lock.Unlock()
		if fails {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail":"Payment verification failed"}`))
			return
		}
		w.Write([]byte(`{"message":"Payment verified"}`))
	})
	mux.HandleFunc("POST /payments/razorpay/fail", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		f.lock.Lock()
		f.failCalls = append(f.failCalls, payload)
		f.lock.Unlock()
		w.Write([]byte(`{"id":1,"provider":"razorpay","status":"failed","order_id":11}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := api.New(server.URL, storefakes.NewFakeStore())
	require.NoError(t, err)
	f.client = client

	coordinator, err := payments.NewCoordinator(client, f.gateway)
	require.NoError(t, err)
	f.coordinator = coordinator
	return f
}

func TestCollect(t *testing.T) {
	ctx := context.Background()

	successOutcome := payments.Outcome{
		Status:            payments.OutcomeSuccess,
		ProviderOrderID:   "order_rp_1",
		ProviderPaymentID: "pay_1",
		Signature:         "sig_1",
	}

	t.Run("success verifies the payment", func(t *testing.T) {
		f := setupTestFixture(t, successOutcome)

		order, err := f.coordinator.CreateProviderOrder(ctx, "razorpay", 11)
		require.NoError(t, err)
		require.Equal(t, "rzp_test_key", order.KeyID)
		require.Equal(t, int64(9998), order.Amount)

		paid, err := f.coordinator.Collect(ctx, "razorpay", order, "Order #11")
		require.NoError(t, err)
		require.True(t, paid)

		require.Len(t, f.verifyCalls, 1)
		require.Equal(t, "pay_1", f.verifyCalls[0]["razorpay_payment_id"])
		require.Equal(t, "sig_1", f.verifyCalls[0]["razorpay_signature"])
		require.Empty(t, f.failCalls)

		require.Len(t, f.gateway.options, 1)
		require.Equal(t, "order_rp_1", f.gateway.options[0].ProviderOrderID)
		require.NotEmpty(t, f.gateway.options[0].Receipt)
	})

	t.Run("verify failure is reported as failed payment", func(t *testing.T) {
		f := setupTestFixture(t, successOutcome)
		f.verifyFails = true

		order, err := f.coordinator.CreateProviderOrder(ctx, "razorpay", 11)
		require.NoError(t, err)

		paid, err := f.coordinator.Collect(ctx, "razorpay", order, "Order #11")
		require.Error(t, err)
		require.False(t, paid)

		require.Len(t, f.failCalls, 1)
		require.Equal(t, "verification_failed", f.failCalls[0]["error_code"])
	})

	t.Run("cancellation is reported", func(t *testing.T) {
		f := setupTestFixture(t, payments.Outcome{Status: payments.OutcomeCancelled})

		order, err := f.coordinator.CreateProviderOrder(ctx, "razorpay", 11)
		require.NoError(t, err)

		paid, err := f.coordinator.Collect(ctx, "razorpay", order, "Order #11")
		require.NoError(t, err)
		require.False(t, paid)

		require.Empty(t, f.verifyCalls)
		require.Len(t, f.failCalls, 1)
		require.Equal(t, "cancelled", f.failCalls[0]["error_code"])
	})

	t.Run("fallbacks fill a sparse provider order", func(t *testing.T) {
		f := setupTestFixture(t, successOutcome)

		coordinator, err := payments.NewCoordinator(f.client, f.gateway,
			payments.WithFallbackKeyID("rzp_env_key"),
			payments.WithFallbackCurrency("INR"),
		)
		require.NoError(t, err)

		order := &payments.ProviderOrder{ProviderOrderID: "order_rp_2", Amount: 500, InternalOrderID: 12}
		paid, err := coordinator.Collect(ctx, "razorpay", order, "Order #12")
		require.NoError(t, err)
		require.True(t, paid)

		opened := f.gateway.options[len(f.gateway.options)-1]
		require.Equal(t, "rzp_env_key", opened.KeyID)
		require.Equal(t, "INR", opened.Currency)
	})

	t.Run("gateway failure carries the provider error code", func(t *testing.T) {
		f := setupTestFixture(t, payments.Outcome{
			Status:         payments.OutcomeFailed,
			ErrCode:        "BAD_REQUEST_ERROR",
			ErrDescription: "card declined",
		})

		order, err := f.coordinator.CreateProviderOrder(ctx, "razorpay", 11)
		require.NoError(t, err)

		paid, err := f.coordinator.Collect(ctx, "razorpay", order, "Order #11")
		require.NoError(t, err)
		require.False(t, paid)

		require.Len(t, f.failCalls, 1)
		require.Equal(t, "BAD_REQUEST_ERROR", f.failCalls[0]["error_code"])
		require.Equal(t, "card declined", f.failCalls[0]["error_description"])
	})
}
