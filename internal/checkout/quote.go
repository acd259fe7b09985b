package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-sync/pkg/enums"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// Quote is the price breakdown the shopper sees before committing.
type Quote struct {
	Preference     enums.PaymentPreference `json:"paymentPreference"`
	Shipping       Shipping                `json:"shipping"`
	ItemCount      int                     `json:"itemCount"`
	Subtotal       decimal.Decimal         `json:"subtotal"`
	DeliveryFee    decimal.Decimal         `json:"deliveryFee"`
	Discount       decimal.Decimal         `json:"discount"`
	Total          decimal.Decimal         `json:"total"`
	Advance        decimal.Decimal         `json:"advance"`
	Remaining      decimal.Decimal         `json:"remaining"`
	AdvancePercent int64                   `json:"advancePercent"`
	AdvanceLabel   string                  `json:"advanceLabel"`
}

// Compute prices lines under policy. Delivery is free once the subtotal
// reaches the threshold, and always free for full upfront payment. A full
// payment collects the whole total as advance; partial collects
// AdvancePercent of it, rounded to the nearest whole unit.
func Compute(lines []types.CartLine, preference enums.PaymentPreference, shipping Shipping, policy Policy) Quote {
	if !preference.IsValid() {
		preference = enums.PaymentPreferencePartial
	}

	q := Quote{
		Preference:     preference,
		Shipping:       shipping,
		Subtotal:       Subtotal(lines),
		Discount:       decimal.Zero,
		AdvancePercent: policy.AdvancePercent,
		AdvanceLabel:   policy.AdvanceLabel(),
	}
	for _, line := range lines {
		q.ItemCount += line.Quantity
	}

	q.DeliveryFee = DeliveryFee(q.Subtotal, preference, shipping, policy)
	q.Total = q.Subtotal.Add(q.DeliveryFee).Sub(q.Discount)
	q.Advance = Advance(q.Total, preference, policy)
	q.Remaining = q.Total.Sub(q.Advance)
	return q
}

// Subtotal is the sum of unit price times quantity.
func Subtotal(lines []types.CartLine) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal())
	}
	return subtotal
}

// DeliveryFee returns the fee charged for shipping.
func DeliveryFee(subtotal decimal.Decimal, preference enums.PaymentPreference, shipping Shipping, policy Policy) decimal.Decimal {
	if preference == enums.PaymentPreferenceFull {
		return decimal.Zero
	}
	if subtotal.GreaterThanOrEqual(policy.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return policy.shippingFee(shipping)
}

// Advance returns the amount collected upfront.
func Advance(total decimal.Decimal, preference enums.PaymentPreference, policy Policy) decimal.Decimal {
	if preference == enums.PaymentPreferenceFull {
		return total
	}
	if total.IsNegative() {
		return decimal.Zero
	}
	return total.Mul(decimal.NewFromInt(policy.AdvancePercent)).Div(hundred).Round(0)
}
