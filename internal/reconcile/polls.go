package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-sync/internal/orders"
	"github.com/angelmondragon/storefront-sync/internal/store"
	"github.com/angelmondragon/storefront-sync/pkg/enums"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

const (
	jobOrderPoll = "order-status-poll"
	jobOfferPoll = "offer-poll"
)

// orderPoll compares cached orders with the server's. Only orders present
// on both sides are reconciled, and only a status change counts.
type orderPoll struct {
	s          *Scheduler
	generation uint64
}

func (j *orderPoll) Name() string { return jobOrderPoll }

func (j *orderPoll) Run(ctx context.Context) error {
	s := j.s
	snap := s.store.Snapshot()
	if !snap.Authenticated || len(snap.Orders) == 0 {
		return nil
	}

	remote, err := s.backend.Orders(ctx)
	if err != nil {
		return err
	}

	// compare against the tree as it is now, not as it was before the fetch
	snap = s.store.Snapshot()
	now := s.now().UTC()
	var actions []store.Action
	for _, server := range remote {
		local, ok := snap.Order(server.OrderID)
		if !ok {
			continue
		}
		patch, changed := orders.StatusPatch(local, server)
		if !changed {
			continue
		}
		title, message := orders.StatusMessage(local, server.Status)
		actions = append(actions,
			store.UpdateOrder{OrderID: server.OrderID, Patch: patch},
			store.AddNotification{Notification: types.Notification{
				ID:        uuid.NewString(),
				Type:      enums.NotificationTypeOrderStatus,
				Title:     title,
				Message:   message,
				Timestamp: now,
				OrderID:   server.OrderID,
				Status:    server.Status,
			}},
		)
	}
	if len(actions) == 0 {
		return nil
	}
	if s.dispatchIf(j.generation, true, actions...) {
		s.logg.Info(s.logg.WithField(ctx, "changes", len(actions)/2), "order statuses reconciled")
	}
	return nil
}

// offerPoll raises at most one aggregate notification per offer window. The
// window is measured from the last notification and persisted, so a restart
// does not repeat it.
type offerPoll struct {
	s          *Scheduler
	generation uint64
}

func (j *offerPoll) Name() string { return jobOfferPoll }

func (j *offerPoll) Run(ctx context.Context) error {
	s := j.s
	if !s.store.Snapshot().Authenticated {
		return nil
	}

	offers, err := s.backend.Offers(ctx)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	cutoff := now.Add(-s.cfg.OfferWindow)
	fresh := 0
	for _, offer := range offers {
		if offer.CreatedAt.After(cutoff) {
			fresh++
		}
	}
	if fresh == 0 {
		return nil
	}

	last, found, err := s.entries.LastOfferCheck(ctx)
	if err != nil {
		return err
	}
	if found && now.Sub(last) < s.cfg.OfferWindow {
		s.logg.Debug(ctx, "offer notification throttled")
		return nil
	}

	note := types.Notification{
		ID:        uuid.NewString(),
		Type:      enums.NotificationTypeOffer,
		Title:     "New offers",
		Message:   offerMessage(fresh),
		Timestamp: now,
	}
	if !s.dispatchIf(j.generation, true, store.AddNotification{Notification: note}) {
		return nil
	}
	return s.entries.SetLastOfferCheck(ctx, now)
}

func offerMessage(n int) string {
	if n == 1 {
		return "1 new offer is available. Check it out!"
	}
	return fmt.Sprintf("%d new offers are available. Check them out!", n)
}
