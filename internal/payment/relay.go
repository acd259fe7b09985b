package payment

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	pkgerrors "github.com/angelmondragon/storefront-sync/pkg/errors"
)

// Relay is a Gateway for a widget that runs in another process. Open parks
// the checkout until the widget's outcome is reported through Complete,
// Cancel or Reject, or until ctx ends.
type Relay struct {
	mu      sync.Mutex
	pending map[string]*parked
}

type parked struct {
	checkout Checkout
	outcome  chan outcome
}

type outcome struct {
	success Success
	err     error
}

func NewRelay() *Relay {
	return &Relay{pending: map[string]*parked{}}
}

// Open implements Gateway.
func (r *Relay) Open(ctx context.Context, checkout Checkout) (Success, error) {
	orderID := strings.TrimSpace(checkout.OrderID)
	if orderID == "" {
		return Success{}, pkgerrors.New(pkgerrors.CodeValidation, "checkout has no gateway order id")
	}

	p := &parked{checkout: checkout, outcome: make(chan outcome, 1)}
	r.mu.Lock()
	if _, busy := r.pending[orderID]; busy {
		r.mu.Unlock()
		return Success{}, pkgerrors.New(pkgerrors.CodeConflict, "checkout already open for this order")
	}
	r.pending[orderID] = p
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.pending[orderID] == p {
			delete(r.pending, orderID)
		}
		r.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return Success{}, ctx.Err()
	case out := <-p.outcome:
		return out.success, out.err
	}
}

// Pending lists the open checkouts ordered by gateway order id.
func (r *Relay) Pending() []Checkout {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Checkout, 0, len(r.pending))
	for _, p := range r.pending {
		out = append(out, p.checkout)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

// Complete reports the widget's success callback for orderID.
func (r *Relay) Complete(orderID string, success Success) error {
	return r.settle(orderID, outcome{success: success})
}

// Cancel reports that the shopper dismissed the widget.
func (r *Relay) Cancel(orderID string) error {
	return r.settle(orderID, outcome{err: ErrCancelled})
}

// Reject reports a gateway-side failure with the widget's reason.
func (r *Relay) Reject(orderID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "payment rejected by gateway"
	}
	return r.settle(orderID, outcome{err: errors.New(reason)})
}

func (r *Relay) settle(orderID string, out outcome) error {
	orderID = strings.TrimSpace(orderID)
	r.mu.Lock()
	p, ok := r.pending[orderID]
	if ok {
		delete(r.pending, orderID)
	}
	r.mu.Unlock()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no open checkout for this order").
			WithDetails(map[string]string{"orderId": orderID})
	}
	p.outcome <- out
	return nil
}
