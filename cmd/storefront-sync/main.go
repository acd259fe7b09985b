package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-sync/api/controllers"
	"github.com/angelmondragon/storefront-sync/api/routes"
	"github.com/angelmondragon/storefront-sync/internal/backend"
	"github.com/angelmondragon/storefront-sync/internal/checkout"
	"github.com/angelmondragon/storefront-sync/internal/commands"
	"github.com/angelmondragon/storefront-sync/internal/payment"
	"github.com/angelmondragon/storefront-sync/internal/push"
	"github.com/angelmondragon/storefront-sync/internal/reconcile"
	"github.com/angelmondragon/storefront-sync/internal/session"
	"github.com/angelmondragon/storefront-sync/internal/store"
	"github.com/angelmondragon/storefront-sync/pkg/config"
	"github.com/angelmondragon/storefront-sync/pkg/db"
	"github.com/angelmondragon/storefront-sync/pkg/instance"
	"github.com/angelmondragon/storefront-sync/pkg/logger"
	"github.com/angelmondragon/storefront-sync/pkg/metrics"
	"github.com/angelmondragon/storefront-sync/pkg/pubsub"
	"github.com/angelmondragon/storefront-sync/pkg/redis"
)

const (
	serviceName     = "storefront-sync"
	shutdownTimeout = 10 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"instance":    instance.ID(),
		"local_store": cfg.LocalStore.Driver,
	})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "storefront sync stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "storefront sync shut down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	ready := map[string]controllers.Pinger{}

	entries, closeEntries, err := openEntries(ctx, cfg, logg, ready)
	if err != nil {
		return err
	}
	defer closeEntries()

	manager, err := session.NewManager(entries)
	if err != nil {
		return err
	}
	if err := seedCredential(ctx, manager, cfg.Session.SeedToken); err != nil {
		return err
	}

	client, err := backend.NewClient(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithTokenSource(manager),
	)
	if err != nil {
		return err
	}

	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)
	st := store.New(store.WithObserver(syncMetrics))
	policy := checkout.PolicyFromConfig(cfg.Checkout)

	relay := payment.NewRelay()
	payer, err := payment.NewAdapter(relay, cfg.Checkout.MerchantName, cfg.Checkout.Currency)
	if err != nil {
		return err
	}
	cmds, err := commands.NewService(st, client, payer,
		commands.WithPolicy(policy),
		commands.WithLogger(logg),
	)
	if err != nil {
		return err
	}

	var source reconcile.PushSource
	if cfg.PubSub.Enabled(cfg.GCP) {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		ready["pubsub"] = psClient
		src, err := push.NewSource(psClient.PushSubscription(), logg)
		if err != nil {
			return err
		}
		source = src
	} else {
		logg.Info(ctx, "push channel disabled; relying on polling")
	}

	scheduler, err := reconcile.New(reconcile.Params{
		Store:   st,
		Backend: client,
		Entries: manager,
		Push:    source,
		Logger:  logg,
		Metrics: syncMetrics,
		Config:  cfg.Sync,
	})
	if err != nil {
		return err
	}

	placements := controllers.NewPlacements(ctx, cmds, logg)
	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		ReadHeaderTimeout: 5 * time.Second,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			Store:      st,
			Policy:     policy,
			Gatherer:   prometheus.DefaultGatherer,
			Ready:      ready,
			Commands:   cmds,
			Placements: placements,
			Payments:   relay,
			Sessions:   scheduler,
		}),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		logg.Info(logg.WithField(gctx, "addr", server.Addr), "starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		placements.Wait()
		return err
	})
	return g.Wait()
}

// openEntries opens the configured local key-value store and registers its
// readiness check.
func openEntries(ctx context.Context, cfg *config.Config, logg *logger.Logger, ready map[string]controllers.Pinger) (session.Entries, func(), error) {
	switch cfg.LocalStore.Driver {
	case config.LocalStoreRedis:
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, nil, err
		}
		ready["redis"] = redisClient
		entries, err := session.NewRedisEntries(redisClient)
		if err != nil {
			_ = redisClient.Close()
			return nil, nil, err
		}
		return entries, func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}, nil
	default:
		dbClient, err := db.New(ctx, cfg.LocalStore, logg)
		if err != nil {
			return nil, nil, err
		}
		ready["local_store"] = dbClient
		entries, err := session.NewSQLiteEntries(dbClient.DB())
		if err != nil {
			_ = dbClient.Close()
			return nil, nil, err
		}
		return entries, func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing local store", err)
			}
		}, nil
	}
}

// seedCredential stores the configured token unless a credential is
// already persisted.
func seedCredential(ctx context.Context, manager *session.Manager, token string) error {
	if token == "" {
		return nil
	}
	_, found, err := manager.Credential(ctx)
	if err != nil || found {
		return err
	}
	return manager.SaveCredential(ctx, token)
}
