// Package checkout derives the order quote and the placement gates from the
// cart, the payment preference and the shopper's session state. Everything
// here is a pure function of its inputs.
package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-sync/pkg/config"
)

// DefaultAdvancePercent is the share of the total collected upfront for
// partial payment.
const DefaultAdvancePercent int64 = 30

// Policy holds the money rules checkout is computed with. The same
// AdvancePercent drives both the split and its label.
type Policy struct {
	DeliveryFee           decimal.Decimal
	FreeDeliveryThreshold decimal.Decimal
	MinOrderValue         decimal.Decimal
	AdvancePercent        int64
	Currency              string
}

// DefaultPolicy returns the stock storefront rules.
func DefaultPolicy() Policy {
	return Policy{
		DeliveryFee:           decimal.NewFromInt(50),
		FreeDeliveryThreshold: decimal.NewFromInt(2000),
		MinOrderValue:         decimal.NewFromInt(2000),
		AdvancePercent:        DefaultAdvancePercent,
		Currency:              "INR",
	}
}

// PolicyFromConfig builds a Policy from the checkout configuration.
func PolicyFromConfig(cfg config.CheckoutConfig) Policy {
	fee, threshold, minOrder := cfg.Amounts()
	return Policy{
		DeliveryFee:           fee,
		FreeDeliveryThreshold: threshold,
		MinOrderValue:         minOrder,
		AdvancePercent:        cfg.AdvancePercent,
		Currency:              cfg.Currency,
	}
}

// AdvanceLabel is the copy shown next to the advance amount, e.g.
// "Advance (30%)".
func (p Policy) AdvanceLabel() string {
	return fmt.Sprintf("Advance (%d%%)", p.AdvancePercent)
}

// RemainingLabel is the copy shown next to the amount due on delivery.
func (p Policy) RemainingLabel() string {
	return fmt.Sprintf("Pay on delivery (%d%%)", 100-p.AdvancePercent)
}

// Shipping is the delivery option chosen at checkout. A zero Fee with an
// empty Method means the policy's flat fee applies.
type Shipping struct {
	Method string          `json:"method"`
	Fee    decimal.Decimal `json:"fee"`
}

// StandardShipping is the flat-fee delivery option for p.
func (p Policy) StandardShipping() Shipping {
	return Shipping{Method: "standard", Fee: p.DeliveryFee}
}

func (p Policy) shippingFee(s Shipping) decimal.Decimal {
	if s.Method == "" && s.Fee.IsZero() {
		return p.DeliveryFee
	}
	return s.Fee
}
