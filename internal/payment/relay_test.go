package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-sync/pkg/errors"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

func waitPending(t *testing.T, r *Relay, n int) []Checkout {
	t.Helper()
	var pending []Checkout
	require.Eventually(t, func() bool {
		pending = r.Pending()
		return len(pending) == n
	}, time.Second, time.Millisecond)
	return pending
}

func TestRelayCompletesThroughAdapter(t *testing.T) {
	relay := NewRelay()
	adapter, err := NewAdapter(relay, "Green Grocer", "")
	require.NoError(t, err)

	intent := Intent{GatewayOrderID: "order_rp1", KeyID: "rzp_test", Amount: decimal.RequireFromString("600.50")}
	done := make(chan struct{})
	var (
		got    Success
		payErr error
	)
	go func() {
		defer close(done)
		got, payErr = adapter.Pay(context.Background(), intent, types.Order{OrderID: "o1", OrderNumber: "1001"}, nil)
	}()

	pending := waitPending(t, relay, 1)
	assert.Equal(t, int64(60050), pending[0].Amount)
	assert.Equal(t, "Order #1001", pending[0].Description)

	require.NoError(t, relay.Complete("order_rp1", Success{PaymentID: "pay_1", Signature: "sig"}))
	<-done
	require.NoError(t, payErr)
	assert.Equal(t, "order_rp1", got.OrderID)
	assert.Empty(t, relay.Pending())
}

func TestRelayCancelAndRejectFailPayment(t *testing.T) {
	cases := map[string]func(*Relay) error{
		"cancel": func(r *Relay) error { return r.Cancel("order_rp1") },
		"reject": func(r *Relay) error { return r.Reject("order_rp1", "card declined") },
	}
	for name, settle := range cases {
		t.Run(name, func(t *testing.T) {
			relay := NewRelay()
			adapter, err := NewAdapter(relay, "Green Grocer", "INR")
			require.NoError(t, err)

			errCh := make(chan error, 1)
			go func() {
				_, err := adapter.Pay(context.Background(),
					Intent{GatewayOrderID: "order_rp1", KeyID: "k", Amount: decimal.NewFromInt(10)},
					types.Order{OrderID: "o1"}, nil)
				errCh <- err
			}()
			waitPending(t, relay, 1)
			require.NoError(t, settle(relay))
			assert.True(t, pkgerrors.IsCode(<-errCh, pkgerrors.CodePaymentFailed))
		})
	}
}

func TestRelaySettleUnknownOrder(t *testing.T) {
	err := NewRelay().Complete("missing", Success{PaymentID: "p"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRelayRejectsDuplicateAndHonoursContext(t *testing.T) {
	relay := NewRelay()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := relay.Open(ctx, Checkout{OrderID: "order_rp1"})
		errCh <- err
	}()
	waitPending(t, relay, 1)

	_, err := relay.Open(context.Background(), Checkout{OrderID: "order_rp1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	cancel()
	assert.True(t, errors.Is(<-errCh, context.Canceled))
	assert.Empty(t, relay.Pending())
}
