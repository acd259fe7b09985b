package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-sync/api/responses"
	"github.com/angelmondragon/storefront-sync/internal/checkout"
	"github.com/angelmondragon/storefront-sync/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-sync/pkg/errors"
	"github.com/angelmondragon/storefront-sync/pkg/logger"
)

type quoteResponse struct {
	Quote          checkout.Quote       `json:"quote"`
	RemainingLabel string               `json:"remainingLabel"`
	Eligibility    checkout.Eligibility `json:"eligibility"`
}

// CheckoutQuote prices the current cart without touching any state.
// preference defaults to partial; shipping_method and shipping_fee select a
// non-standard delivery option.
func CheckoutQuote(st Snapshotter, policy checkout.Policy, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		preference := enums.PaymentPreferencePartial
		if raw := query.Get("preference"); raw != "" {
			parsed, err := enums.ParsePaymentPreference(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment preference").
						WithDetails(map[string]string{"preference": "must be full or partial"}))
				return
			}
			preference = parsed
		}

		shipping, err := shippingFromQuery(policy, query.Get("shipping_method"), query.Get("shipping_fee"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap := st.Snapshot()
		quote := checkout.Compute(snap.Cart, preference, shipping, policy)
		responses.WriteSuccess(w, quoteResponse{
			Quote:          quote,
			RemainingLabel: policy.RemainingLabel(),
			Eligibility:    checkout.Evaluate(snap, quote, policy),
		})
	}
}

func shippingFromQuery(policy checkout.Policy, method, fee string) (checkout.Shipping, error) {
	method = strings.TrimSpace(method)
	fee = strings.TrimSpace(fee)
	if method == "" && fee == "" {
		return policy.StandardShipping(), nil
	}
	shipping := checkout.Shipping{Method: method, Fee: policy.DeliveryFee}
	if fee != "" {
		parsed, err := decimal.NewFromString(fee)
		if err != nil || parsed.IsNegative() {
			return checkout.Shipping{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping fee").
				WithDetails(map[string]string{"shipping_fee": "must be a non-negative amount"})
		}
		shipping.Fee = parsed
	}
	return shipping, nil
}
