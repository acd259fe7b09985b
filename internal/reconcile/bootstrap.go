package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-sync/internal/backend"
	"github.com/angelmondragon/storefront-sync/internal/cart"
	"github.com/angelmondragon/storefront-sync/internal/store"
	"github.com/angelmondragon/storefront-sync/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-sync/pkg/errors"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

const jobBootstrap = "bootstrap"

// Bootstrap loads the session from the stored credential. Without a
// credential it does nothing. An expired or rejected credential is cleared
// and the store falls back to guest mode. Once the profile is in, the
// remaining resources load concurrently and each one that arrives is folded
// even when others fail; the failures come back combined.
func (s *Scheduler) Bootstrap(ctx context.Context) (err error) {
	ctx = s.logg.WithJob(ctx, jobBootstrap)
	start := s.now()
	defer func() {
		s.metrics.ObserveDuration(jobBootstrap, s.now().Sub(start))
		if err != nil {
			s.metrics.IncFailure(jobBootstrap)
		} else {
			s.metrics.IncSuccess(jobBootstrap)
		}
	}()

	generation := s.generation.Load()

	cred, found, err := s.entries.ValidCredential(ctx)
	if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		return s.dropCredential(ctx, generation, err)
	}
	if err != nil {
		return err
	}
	if !found {
		s.logg.Debug(ctx, "no stored credential; staying in guest mode")
		return nil
	}
	if cred.UserID != "" {
		ctx = s.logg.WithUserID(ctx, cred.UserID)
	}

	profile, err := s.backend.Profile(ctx)
	if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		return s.dropCredential(ctx, generation, err)
	}
	if err != nil {
		return err
	}
	if !s.dispatchIf(generation, false, store.Login{Profile: &profile}) {
		s.logg.Info(ctx, "bootstrap superseded before login")
		return nil
	}

	var (
		mu   sync.Mutex
		errs error
	)
	record := func(resource string, err error) {
		if err == nil {
			return
		}
		s.logg.Warn(s.logg.WithField(ctx, "resource", resource), "bootstrap fetch failed")
		mu.Lock()
		errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeOf(err), err, resource))
		mu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		availability, err := s.backend.VendorAvailability(ctx)
		if err == nil {
			s.dispatchIf(generation, true, availabilityActions(availability)...)
		}
		record("vendor availability", err)
		return nil
	})
	g.Go(func() error {
		orders, err := s.backend.Orders(ctx)
		if err == nil {
			s.dispatchIf(generation, true, store.SetOrders{Orders: orders})
		}
		record("orders", err)
		return nil
	})
	g.Go(func() error {
		payload, err := s.backend.Cart(ctx)
		if err == nil {
			s.dispatchIf(generation, true, store.SetCart{Lines: cart.Project(payload)})
		}
		record("cart", err)
		return nil
	})
	g.Go(func() error {
		addresses, err := s.backend.Addresses(ctx)
		if err == nil {
			actions := make([]store.Action, 0, len(addresses)+1)
			actions = append(actions, store.ClearAddresses{})
			for _, addr := range addresses {
				actions = append(actions, store.AddAddress{Address: addr})
			}
			s.dispatchIf(generation, true, actions...)
		}
		record("addresses", err)
		return nil
	})
	g.Go(func() error {
		favourites, err := s.backend.Favourites(ctx)
		if err == nil {
			s.dispatchIf(generation, true, store.SetFavourites{Favourites: favourites})
		}
		record("favourites", err)
		return nil
	})
	_ = g.Wait()

	if err := s.welcome(ctx, generation, profile); err != nil {
		record("welcome flag", err)
	}

	if errs == nil {
		s.logg.Info(ctx, "bootstrap complete")
	}
	return errs
}

func availabilityActions(a backend.Availability) []store.Action {
	actions := []store.Action{store.SetVendorAvailability{Availability: a.Availability}}
	if a.Vendor != nil {
		vendor := *a.Vendor
		actions = append(actions, store.AssignVendor{Vendor: &vendor}, store.SetSellerID{SellerID: vendor.VendorID})
	}
	return actions
}

func (s *Scheduler) dropCredential(ctx context.Context, generation uint64, cause error) error {
	s.logg.Warn(ctx, fmt.Sprintf("stored credential rejected, continuing as guest: %v", cause))
	clearErr := s.entries.ClearCredential(ctx)
	s.dispatchIf(generation, false, store.Logout{})
	return clearErr
}

// welcome raises the one-time greeting for a user who has never seen it.
func (s *Scheduler) welcome(ctx context.Context, generation uint64, profile types.Profile) error {
	seen, err := s.entries.WelcomeSeen(ctx, profile.UserID)
	if err != nil || seen {
		return err
	}
	name := profile.Name
	if name == "" {
		name = "there"
	}
	note := types.Notification{
		ID:        uuid.NewString(),
		Type:      enums.NotificationTypeWelcome,
		Title:     "Welcome!",
		Message:   "Hi " + name + ", thanks for shopping with us.",
		Timestamp: s.now().UTC(),
	}
	if !s.dispatchIf(generation, true, store.AddNotification{Notification: note}) {
		return nil
	}
	return s.entries.MarkWelcomeSeen(ctx, profile.UserID)
}
