// Package reconcile keeps the store in step with the backend. A session
// starts when the store becomes authenticated and owns two pollers (order
// status, offers) plus the push subscription; all of it is torn down when the
// store leaves the authenticated state or the scheduler stops.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/storefront-sync/internal/backend"
	"github.com/angelmondragon/storefront-sync/internal/cart"
	"github.com/angelmondragon/storefront-sync/internal/push"
	"github.com/angelmondragon/storefront-sync/internal/session"
	"github.com/angelmondragon/storefront-sync/internal/store"
	"github.com/angelmondragon/storefront-sync/pkg/config"
	"github.com/angelmondragon/storefront-sync/pkg/logger"
	"github.com/angelmondragon/storefront-sync/pkg/metrics"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

const (
	defaultOrderPollInterval = 30 * time.Second
	defaultOfferPollInterval = 5 * time.Minute
	defaultOfferWindow       = 24 * time.Hour
	defaultOrderMaxBackoff   = 5 * time.Minute
	defaultOfferMaxBackoff   = 30 * time.Minute
)

// Backend is the read side of the backend client used for reconciliation.
type Backend interface {
	Profile(ctx context.Context) (types.Profile, error)
	VendorAvailability(ctx context.Context) (backend.Availability, error)
	Orders(ctx context.Context) ([]types.Order, error)
	Cart(ctx context.Context) (*cart.Payload, error)
	Addresses(ctx context.Context) ([]types.Address, error)
	Favourites(ctx context.Context) ([]types.Favourite, error)
	Offers(ctx context.Context) ([]types.Offer, error)
}

// Entries is the persisted session state the scheduler reads and writes.
// *session.Manager satisfies it.
type Entries interface {
	ValidCredential(ctx context.Context) (session.Credential, bool, error)
	SaveCredential(ctx context.Context, token string) error
	ClearCredential(ctx context.Context) error
	LastOfferCheck(ctx context.Context) (time.Time, bool, error)
	SetLastOfferCheck(ctx context.Context, at time.Time) error
	WelcomeSeen(ctx context.Context, userID string) (bool, error)
	MarkWelcomeSeen(ctx context.Context, userID string) error
}

// PushSource opens the realtime channel. *push.Source satisfies it.
type PushSource interface {
	Subscribe(ctx context.Context, handler push.Handler) (*push.Subscription, error)
}

// Params wires a Scheduler. Push and Metrics are optional.
type Params struct {
	Store   *store.Store
	Backend Backend
	Entries Entries
	Push    PushSource
	Logger  *logger.Logger
	Metrics *metrics.SyncMetrics
	Config  config.SyncConfig
}

// Scheduler drives bootstrap, polling and push for one shopper.
type Scheduler struct {
	store   *store.Store
	backend Backend
	entries Entries
	push    PushSource
	logg    *logger.Logger
	metrics *metrics.SyncMetrics
	cfg     config.SyncConfig
	now     func() time.Time

	// generation changes on every teardown; work started under an older
	// generation must not touch the store.
	generation atomic.Uint64

	kick chan struct{}

	// life serializes session start and teardown; mu only guards running.
	life    sync.Mutex
	mu      sync.Mutex
	running *sessionRun
}

type sessionRun struct {
	generation uint64
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	sub        *push.Subscription
}

// New validates params and fills in default intervals.
func New(params Params) (*Scheduler, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if params.Backend == nil {
		return nil, fmt.Errorf("backend required")
	}
	if params.Entries == nil {
		return nil, fmt.Errorf("session entries required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	cfg := params.Config
	if cfg.OrderPollInterval <= 0 {
		cfg.OrderPollInterval = defaultOrderPollInterval
	}
	if cfg.OfferPollInterval <= 0 {
		cfg.OfferPollInterval = defaultOfferPollInterval
	}
	if cfg.OfferWindow <= 0 {
		cfg.OfferWindow = defaultOfferWindow
	}
	if cfg.OrderMaxBackoff <= 0 {
		cfg.OrderMaxBackoff = defaultOrderMaxBackoff
	}
	if cfg.OfferMaxBackoff <= 0 {
		cfg.OfferMaxBackoff = defaultOfferMaxBackoff
	}
	return &Scheduler{
		store:   params.Store,
		backend: params.Backend,
		entries: params.Entries,
		push:    params.Push,
		logg:    logg,
		metrics: params.Metrics,
		cfg:     cfg,
		now:     time.Now,
		kick:    make(chan struct{}, 1),
	}, nil
}

// Run resumes any stored session and then follows the store's
// authentication state until ctx is canceled. The session is always torn
// down before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	unsubscribe := s.store.Subscribe(func(prev, next store.State, _ store.Action) {
		if prev.Authenticated != next.Authenticated {
			s.nudge()
		}
	})
	defer unsubscribe()
	defer func() {
		s.life.Lock()
		defer s.life.Unlock()
		s.stopLocked(ctx)
	}()

	if err := s.Bootstrap(ctx); err != nil {
		s.logg.Error(ctx, "bootstrap incomplete", err)
	}
	s.nudge()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "reconcile scheduler stopping")
			return ctx.Err()
		case <-s.kick:
			s.follow(ctx)
		}
	}
}

// SignIn stores a fresh credential and bootstraps the session from it.
func (s *Scheduler) SignIn(ctx context.Context, token string) error {
	if err := s.entries.SaveCredential(ctx, token); err != nil {
		return err
	}
	return s.Bootstrap(ctx)
}

// SignOut drops the credential, returns the store to guest mode and tears
// the session down before returning. Results still in flight for the old
// session are discarded.
func (s *Scheduler) SignOut(ctx context.Context) error {
	s.life.Lock()
	defer s.life.Unlock()

	s.generation.Add(1)
	err := s.entries.ClearCredential(ctx)
	s.store.Dispatch(store.Logout{})
	s.stopLocked(ctx)
	return err
}

func (s *Scheduler) nudge() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// follow starts or stops the session to match the store. A run left over
// from an older generation is replaced.
func (s *Scheduler) follow(ctx context.Context) {
	s.life.Lock()
	defer s.life.Unlock()

	authenticated := s.store.Snapshot().Authenticated
	s.mu.Lock()
	run := s.running
	s.mu.Unlock()

	switch {
	case run != nil && (!authenticated || run.generation != s.generation.Load()):
		s.stopLocked(ctx)
		if authenticated {
			s.startLocked(ctx)
		}
	case run == nil && authenticated:
		s.startLocked(ctx)
	}
}

// startLocked requires s.life.
func (s *Scheduler) startLocked(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &sessionRun{generation: s.generation.Load(), cancel: cancel}

	pollers := []*poller{
		{job: &orderPoll{s: s, generation: run.generation}, interval: s.cfg.OrderPollInterval, maxBackoff: s.cfg.OrderMaxBackoff},
		{job: &offerPoll{s: s, generation: run.generation}, interval: s.cfg.OfferPollInterval, maxBackoff: s.cfg.OfferMaxBackoff},
	}
	for _, p := range pollers {
		p.logg = s.logg
		p.metrics = s.metrics
		run.wg.Add(1)
		go func(p *poller) {
			defer run.wg.Done()
			p.run(runCtx)
		}(p)
	}

	if s.push != nil {
		sub, err := s.push.Subscribe(runCtx, s.pushHandler(run.generation))
		if err != nil {
			s.logg.Error(ctx, "push subscribe failed", err)
		} else {
			run.sub = sub
			s.dispatchIf(run.generation, true, store.SetRealtimeConnected{Connected: true})
		}
	}

	s.running = run
	s.logg.Info(ctx, "sync session started")
}

// stopLocked requires s.life. It is a no-op with no session running.
func (s *Scheduler) stopLocked(ctx context.Context) {
	s.mu.Lock()
	run := s.running
	s.mu.Unlock()
	if run == nil {
		return
	}

	s.generation.Add(1)
	run.cancel()
	run.sub.Unsubscribe()
	run.wg.Wait()
	if run.sub != nil {
		s.store.Dispatch(store.SetRealtimeConnected{Connected: false})
	}

	// Active stays true until teardown has finished
	s.mu.Lock()
	if s.running == run {
		s.running = nil
	}
	s.mu.Unlock()
	s.logg.Info(ctx, "sync session stopped")
}

// dispatchIf applies actions only while generation is current and, when
// requireAuth is set, the store is still authenticated.
func (s *Scheduler) dispatchIf(generation uint64, requireAuth bool, actions ...store.Action) bool {
	_, applied := s.store.DispatchIf(func(state store.State) bool {
		if s.generation.Load() != generation {
			return false
		}
		return !requireAuth || state.Authenticated
	}, actions...)
	return applied
}

// Active reports whether a sync session is running.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running != nil
}
