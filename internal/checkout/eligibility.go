package checkout

import (
	"fmt"

	"github.com/angelmondragon/storefront-sync/internal/store"
	pkgerrors "github.com/angelmondragon/storefront-sync/pkg/errors"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

// ReasonCode identifies a failed checkout gate.
type ReasonCode string

const (
	ReasonEmptyCart         ReasonCode = "empty_cart"
	ReasonMissingAddress    ReasonCode = "missing_address"
	ReasonBelowMinimum      ReasonCode = "below_minimum_order"
	ReasonVendorUnavailable ReasonCode = "vendor_unavailable"
)

// Reason is a user-facing explanation of one failed gate.
type Reason struct {
	Code    ReasonCode `json:"code"`
	Message string     `json:"message"`
}

// Eligibility is the outcome of evaluating every checkout gate.
type Eligibility struct {
	Eligible bool          `json:"eligible"`
	Address  types.Address `json:"address"`
	Reasons  []Reason      `json:"reasons"`
}

// Blocked reports whether the given gate failed.
func (e Eligibility) Blocked(code ReasonCode) bool {
	for _, r := range e.Reasons {
		if r.Code == code {
			return true
		}
	}
	return false
}

// Err returns nil when eligible, otherwise a CHECKOUT_BLOCKED error carrying
// the reasons as details.
func (e Eligibility) Err() error {
	if e.Eligible {
		return nil
	}
	message := "checkout is not available"
	if len(e.Reasons) > 0 {
		message = e.Reasons[0].Message
	}
	return pkgerrors.New(pkgerrors.CodeCheckoutBlocked, message).WithDetails(e.Reasons)
}

// DeliveryAddress picks the address checkout ships to: the default one, or
// the first saved address when none is flagged.
func DeliveryAddress(state store.State) (types.Address, bool) {
	if addr, ok := state.DefaultAddress(); ok {
		return addr, true
	}
	if len(state.Addresses) > 0 {
		return state.Addresses[0], true
	}
	return types.Address{}, false
}

// Evaluate checks the four independent placement gates: a non-empty cart, a
// complete delivery address, the minimum order value (inclusive) and vendor
// availability, where the buffer zone counts as available. Every failed gate
// is reported.
func Evaluate(state store.State, quote Quote, policy Policy) Eligibility {
	result := Eligibility{Reasons: []Reason{}}

	if len(state.Cart) == 0 {
		result.Reasons = append(result.Reasons, Reason{
			Code:    ReasonEmptyCart,
			Message: "Your cart is empty.",
		})
	}

	addr, ok := DeliveryAddress(state)
	if ok && addr.Deliverable() {
		result.Address = addr
	} else {
		result.Reasons = append(result.Reasons, Reason{
			Code:    ReasonMissingAddress,
			Message: "Add a delivery address with city, state and pincode.",
		})
	}

	if quote.Total.LessThan(policy.MinOrderValue) {
		result.Reasons = append(result.Reasons, Reason{
			Code: ReasonBelowMinimum,
			Message: fmt.Sprintf("Minimum order value is %s %s; add %s more.",
				policy.Currency, policy.MinOrderValue.StringFixed(0), policy.MinOrderValue.Sub(quote.Total).StringFixed(2)),
		})
	}

	switch {
	case state.VendorAvailability == nil:
		result.Reasons = append(result.Reasons, Reason{
			Code:    ReasonVendorUnavailable,
			Message: "Vendor availability for your location is not known yet.",
		})
	case !state.VendorAvailability.Permits():
		result.Reasons = append(result.Reasons, Reason{
			Code:    ReasonVendorUnavailable,
			Message: "No vendor is delivering to your location right now.",
		})
	}

	result.Eligible = len(result.Reasons) == 0
	return result
}
