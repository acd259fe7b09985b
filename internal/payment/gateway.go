// Package payment is the boundary to the hosted payment widget. The widget
// speaks minor currency units; everything on this side of the boundary is in
// major units.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront-sync/pkg/errors"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

// ErrCancelled is returned by a Gateway when the shopper dismisses the
// widget. It is handled exactly like a rejection.
var ErrCancelled = errors.New("payment cancelled")

// Prefill seeds the widget's contact form.
type Prefill struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// Checkout is what the widget is opened with.
type Checkout struct {
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	OrderID     string  `json:"order_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Prefill     Prefill `json:"prefill"`
}

// Success is the widget's success callback.
type Success struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

// Gateway opens the widget and blocks until the shopper pays, cancels or the
// gateway rejects the payment.
type Gateway interface {
	Open(ctx context.Context, checkout Checkout) (Success, error)
}

// Intent is the gateway order the backend opened, in major units.
type Intent struct {
	GatewayOrderID string
	KeyID          string
	Amount         decimal.Decimal
	Currency       string
}

// Validate checks that the intent can be handed to the widget.
func (i Intent) Validate() error {
	var missing []string
	if strings.TrimSpace(i.GatewayOrderID) == "" {
		missing = append(missing, "razorpayOrderId")
	}
	if strings.TrimSpace(i.KeyID) == "" {
		missing = append(missing, "keyId")
	}
	if !i.Amount.IsPositive() {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodePaymentFailed, "payment intent is incomplete").
			WithDetails(map[string]any{"fields": missing})
	}
	return nil
}

// Adapter converts intents into widget checkouts and widget outcomes into
// coded results.
type Adapter struct {
	gateway      Gateway
	merchantName string
	currency     string
}

// NewAdapter wires a gateway. currency is the fallback when an intent does
// not name one.
func NewAdapter(gateway Gateway, merchantName, currency string) (*Adapter, error) {
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway is required")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "INR"
	}
	return &Adapter{gateway: gateway, merchantName: strings.TrimSpace(merchantName), currency: currency}, nil
}

// Pay opens the widget for intent. Any outcome other than a success callback
// matching the intent's gateway order is a PAYMENT_FAILED error, and nothing
// has been committed.
func (a *Adapter) Pay(ctx context.Context, intent Intent, order types.Order, profile *types.Profile) (Success, error) {
	if err := intent.Validate(); err != nil {
		return Success{}, err
	}

	checkout := Checkout{
		Key:         intent.KeyID,
		Amount:      ToMinorUnits(intent.Amount),
		Currency:    a.currencyFor(intent),
		OrderID:     intent.GatewayOrderID,
		Name:        a.merchantName,
		Description: fmt.Sprintf("Order #%s", order.DisplayNumber()),
	}
	if profile != nil {
		checkout.Prefill = Prefill{Name: profile.Name, Email: profile.Email, Contact: profile.Phone}
	}

	result, err := a.gateway.Open(ctx, checkout)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return Success{}, pkgerrors.Wrap(pkgerrors.CodePaymentFailed, err, "payment was cancelled")
		}
		return Success{}, pkgerrors.Wrap(pkgerrors.CodePaymentFailed, err, "payment was rejected")
	}
	if strings.TrimSpace(result.PaymentID) == "" {
		return Success{}, pkgerrors.New(pkgerrors.CodePaymentFailed, "gateway returned no payment id")
	}
	if result.OrderID == "" {
		result.OrderID = intent.GatewayOrderID
	}
	if result.OrderID != intent.GatewayOrderID {
		return Success{}, pkgerrors.New(pkgerrors.CodePaymentFailed, "gateway order mismatch")
	}
	return result, nil
}

func (a *Adapter) currencyFor(intent Intent) string {
	if c := strings.ToUpper(strings.TrimSpace(intent.Currency)); c != "" {
		return c
	}
	return a.currency
}

// ToMinorUnits converts a major-unit amount to the widget's integer minor
// units, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
