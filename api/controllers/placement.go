package controllers

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-sync/api/middleware"
	"github.com/angelmondragon/storefront-sync/api/responses"
	"github.com/angelmondragon/storefront-sync/api/validators"
	"github.com/angelmondragon/storefront-sync/internal/checkout"
	"github.com/angelmondragon/storefront-sync/internal/commands"
	"github.com/angelmondragon/storefront-sync/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-sync/pkg/errors"
	"github.com/angelmondragon/storefront-sync/pkg/logger"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

type previewRequest struct {
	PaymentPreference string           `json:"paymentPreference" validate:"omitempty,oneof=full partial"`
	ShippingMethod    string           `json:"shippingMethod,omitempty"`
	ShippingFee       *decimal.Decimal `json:"shippingFee,omitempty"`
}

func (p previewRequest) shipping(policy checkout.Policy) (checkout.Shipping, error) {
	method := strings.TrimSpace(p.ShippingMethod)
	if method == "" && p.ShippingFee == nil {
		return policy.StandardShipping(), nil
	}
	shipping := checkout.Shipping{Method: method, Fee: policy.DeliveryFee}
	if p.ShippingFee != nil {
		if p.ShippingFee.IsNegative() {
			return checkout.Shipping{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping fee").
				WithDetails(map[string]string{"shippingFee": "must be a non-negative amount"})
		}
		shipping.Fee = *p.ShippingFee
	}
	return shipping, nil
}

// CheckoutPreview builds the preview that a later placement commits to.
func CheckoutPreview(cmds Commands, policy checkout.Policy, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req previewRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		preference := enums.PaymentPreferencePartial
		if req.PaymentPreference != "" {
			preference = enums.PaymentPreference(req.PaymentPreference)
		}
		shipping, err := req.shipping(policy)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeResult(w, r, logg, cmds.BuildPreview(preference, shipping))
	}
}

// Placements runs order placement in the background. Payment waits on the
// shopper, so a request only starts the flow; callers follow it through
// Status.
type Placements struct {
	cmds Commands
	base context.Context
	logg *logger.Logger

	mu      sync.Mutex
	running bool
	last    *placementOutcome
	wg      sync.WaitGroup
}

type placementOutcome struct {
	Placement commands.Placement `json:"placement"`
	Error     *types.APIError    `json:"error,omitempty"`
}

type placementStatus struct {
	State   enums.PlacementState `json:"state"`
	Running bool                 `json:"running"`
	Last    *placementOutcome    `json:"last,omitempty"`
}

// NewPlacements binds placement runs to base, which outlives any single
// request and is canceled on shutdown.
func NewPlacements(base context.Context, cmds Commands, logg *logger.Logger) *Placements {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Placements{cmds: cmds, base: base, logg: logg}
}

func (p *Placements) status() placementStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return placementStatus{State: p.cmds.PlacementState(), Running: p.running, Last: p.last}
}

// Reset returns a finished flow to idle and forgets its outcome.
func (p *Placements) Reset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		if p.running {
			p.mu.Unlock()
			responses.WriteError(r.Context(), p.logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "an order is being placed"))
			return
		}
		p.cmds.ResetPlacement()
		p.last = nil
		p.mu.Unlock()

		responses.WriteSuccess(w, p.status())
	}
}

// Start kicks off placement for the current preview.
func (p *Placements) Start() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		if p.running {
			p.mu.Unlock()
			responses.WriteError(r.Context(), p.logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "an order is already being placed"))
			return
		}
		if state := p.cmds.PlacementState(); state != enums.PlacementPreviewBuilt {
			p.mu.Unlock()
			responses.WriteError(r.Context(), p.logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "build a checkout preview first").
				WithDetails(map[string]string{"state": string(state)}))
			return
		}
		p.running = true
		p.last = nil
		p.mu.Unlock()

		ctx := p.base
		if reqID := middleware.RequestIDFromContext(r.Context()); reqID != "" {
			ctx = p.logg.WithRequestID(ctx, reqID)
		}
		p.wg.Add(1)
		go p.run(ctx)

		responses.WriteSuccessStatus(w, http.StatusAccepted, p.status())
	}
}

func (p *Placements) run(ctx context.Context) {
	defer p.wg.Done()
	res := p.cmds.PlaceOrder(ctx)

	outcome := &placementOutcome{Placement: res.Data}
	if res.Err != nil {
		described := responses.Describe(res.Err)
		outcome.Error = &described
	}

	p.mu.Lock()
	p.running = false
	p.last = outcome
	p.mu.Unlock()
}

// Status reports the placement state and the outcome of the last run.
func (p *Placements) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, p.status())
	}
}

// Wait blocks until any running placement has returned.
func (p *Placements) Wait() {
	p.wg.Wait()
}
