package commands

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/storefront-sync/internal/backend"
	"github.com/angelmondragon/storefront-sync/internal/checkout"
	"github.com/angelmondragon/storefront-sync/internal/payment"
	"github.com/angelmondragon/storefront-sync/internal/store"
	"github.com/angelmondragon/storefront-sync/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-sync/pkg/errors"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

// Preview is the locally computed checkout summary.
type Preview struct {
	State       enums.PlacementState `json:"state"`
	Quote       checkout.Quote       `json:"quote"`
	Eligibility checkout.Eligibility `json:"eligibility"`
}

// Placement is where an order-placement attempt ended.
type Placement struct {
	State     enums.PlacementState `json:"state"`
	Order     *types.Order         `json:"order,omitempty"`
	PaymentID string               `json:"paymentId,omitempty"`
}

type placement struct {
	mu         sync.Mutex
	state      enums.PlacementState
	preference enums.PaymentPreference
	shipping   checkout.Shipping
	running    bool
}

func newPlacement() *placement {
	return &placement{state: enums.PlacementIdle}
}

func (p *placement) current() enums.PlacementState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *placement) advance(next enums.PlacementState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.state.CanTransition(next) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order placement from %s to %s", p.state, next))
	}
	p.state = next
	return nil
}

// PlacementState reports the current step of the order-placement flow.
func (s *Service) PlacementState() enums.PlacementState {
	return s.placement.current()
}

// ResetPlacement returns a finished or abandoned flow to idle. A flow that
// is still talking to the backend is left alone.
func (s *Service) ResetPlacement() {
	s.placement.mu.Lock()
	defer s.placement.mu.Unlock()
	if !s.placement.running {
		s.placement.state = enums.PlacementIdle
	}
}

// BuildPreview prices the current cart and evaluates the checkout gates. It
// touches neither the backend nor the store; a blocked preview is still a
// preview, its reasons say what is missing.
func (s *Service) BuildPreview(preference enums.PaymentPreference, shipping checkout.Shipping) Result[Preview] {
	p := s.placement
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fail[Preview](pkgerrors.New(pkgerrors.CodeStateConflict, "an order is already being placed"))
	}
	if p.state != enums.PlacementPreviewBuilt {
		p.state = enums.PlacementIdle
	}
	if !p.state.CanTransition(enums.PlacementPreviewBuilt) {
		return fail[Preview](pkgerrors.New(pkgerrors.CodeStateConflict, "cannot build a preview now"))
	}
	if !preference.IsValid() {
		preference = enums.PaymentPreferencePartial
	}

	snap := s.store.Snapshot()
	quote := checkout.Compute(snap.Cart, preference, shipping, s.policy)
	eligibility := checkout.Evaluate(snap, quote, s.policy)

	p.state = enums.PlacementPreviewBuilt
	p.preference = preference
	p.shipping = shipping
	return ok(Preview{State: p.state, Quote: quote, Eligibility: eligibility})
}

// PlaceOrder runs the placement flow for the last preview: gates are checked
// again against the current state, then the order is created, a payment
// intent opened, the payment collected and the backend confirmation awaited.
// The cart is cleared only after that confirmation; every failure leaves it
// as it was.
func (s *Service) PlaceOrder(ctx context.Context) Result[Placement] {
	p := s.placement
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fail[Placement](pkgerrors.New(pkgerrors.CodeStateConflict, "an order is already being placed"))
	}
	if p.state != enums.PlacementPreviewBuilt {
		state := p.state
		p.mu.Unlock()
		return Result[Placement]{
			Data: Placement{State: state},
			Err:  pkgerrors.New(pkgerrors.CodeStateConflict, "build a checkout preview first"),
		}
	}
	p.running = true
	preference, shipping := p.preference, p.shipping
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	snap := s.store.Snapshot()
	quote := checkout.Compute(snap.Cart, preference, shipping, s.policy)
	eligibility := checkout.Evaluate(snap, quote, s.policy)
	if err := eligibility.Err(); err != nil {
		return Result[Placement]{Data: Placement{State: enums.PlacementPreviewBuilt}, Err: err}
	}

	order, err := s.backend.CreateOrder(ctx, backend.CreateOrderRequest{
		AddressID:         eligibility.Address.AddressID,
		PaymentPreference: preference.String(),
		ShippingMethod:    shipping.Method,
		DeliveryCharge:    quote.DeliveryFee,
		UpfrontAmount:     quote.Advance,
	})
	if err != nil {
		s.logg.Error(ctx, "order creation failed", err)
		return s.endPlacement(enums.PlacementOrderCreationFailed, nil, err)
	}
	if err := p.advance(enums.PlacementOrderCreated); err != nil {
		return fail[Placement](err)
	}
	_, _ = s.fold(ctx, snap.Session, "create order", store.AddOrder{Order: order})
	ctx = s.logg.WithOrderID(ctx, order.OrderID)

	raw, err := s.backend.CreatePaymentIntent(ctx, order.OrderID)
	if err != nil {
		s.logg.Error(ctx, "payment intent failed", err)
		return s.endPlacement(enums.PlacementPaymentFailed, &order, asPaymentFailure(err, "payment intent could not be created"))
	}
	intent := payment.Intent{
		GatewayOrderID: raw.RazorpayOrderID,
		KeyID:          raw.KeyID,
		Amount:         raw.Amount,
		Currency:       raw.Currency,
	}
	if err := intent.Validate(); err != nil {
		s.logg.Warn(ctx, "payment intent incomplete")
		return s.endPlacement(enums.PlacementPaymentFailed, &order, err)
	}
	if err := p.advance(enums.PlacementPaymentIntentCreated); err != nil {
		return fail[Placement](err)
	}

	paid, err := s.payer.Pay(ctx, intent, order, snap.Profile)
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("payment not completed: %v", err))
		return s.endPlacement(enums.PlacementPaymentFailed, &order, asPaymentFailure(err, "payment not completed"))
	}

	confirmed, err := s.backend.ConfirmPayment(ctx, backend.PaymentConfirmation{
		OrderID:           order.OrderID,
		RazorpayOrderID:   paid.OrderID,
		RazorpayPaymentID: paid.PaymentID,
		RazorpaySignature: paid.Signature,
	})
	if err != nil {
		s.logg.Error(ctx, "payment confirmation failed", err)
		return s.endPlacement(enums.PlacementPaymentFailed, &order, asPaymentFailure(err, "payment could not be confirmed"))
	}

	if err := p.advance(enums.PlacementPaymentConfirmed); err != nil {
		return fail[Placement](err)
	}
	// the payment stands even if the session moved on; the next bootstrap
	// brings the order and cart back in line
	_, _ = s.fold(ctx, snap.Session, "confirm payment", store.AddOrder{Order: confirmed}, store.ClearCart{})
	s.logg.Info(ctx, "order placed")
	return ok(Placement{State: enums.PlacementPaymentConfirmed, Order: &confirmed, PaymentID: paid.PaymentID})
}

func (s *Service) endPlacement(state enums.PlacementState, order *types.Order, cause error) Result[Placement] {
	if err := s.placement.advance(state); err != nil {
		return fail[Placement](err)
	}
	return Result[Placement]{Data: Placement{State: state, Order: order}, Err: cause}
}

func asPaymentFailure(err error, message string) error {
	if pkgerrors.IsCode(err, pkgerrors.CodePaymentFailed) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodePaymentFailed, err, message)
}
