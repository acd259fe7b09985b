package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-sync/api/controllers"
	"github.com/angelmondragon/storefront-sync/api/middleware"
	"github.com/angelmondragon/storefront-sync/internal/checkout"
	"github.com/angelmondragon/storefront-sync/pkg/config"
	"github.com/angelmondragon/storefront-sync/pkg/logger"
)

// Deps is what the HTTP surface reads from and dispatches to. Store and
// Policy are required; the command groups are mounted only when set.
type Deps struct {
	Store    controllers.Snapshotter
	Policy   checkout.Policy
	Gatherer prometheus.Gatherer
	// Ready maps dependency names to their health check.
	Ready map[string]controllers.Pinger

	Commands   controllers.Commands
	Placements *controllers.Placements
	Payments   controllers.PaymentRelay
	Sessions   controllers.Sessions
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Ready))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", controllers.StateSnapshot(deps.Store, logg))
		r.Get("/checkout/quote", controllers.CheckoutQuote(deps.Store, deps.Policy, logg))

		if deps.Sessions != nil {
			r.Route("/session", func(r chi.Router) {
				r.Post("/sign-in", controllers.SessionSignIn(deps.Sessions, deps.Store, logg))
				r.Post("/sign-out", controllers.SessionSignOut(deps.Sessions, logg))
			})
		}

		if cmds := deps.Commands; cmds != nil {
			r.Route("/cart", func(r chi.Router) {
				r.Post("/refresh", controllers.CartRefresh(cmds, logg))
				r.Delete("/", controllers.CartClear(cmds, logg))
				r.Post("/items", controllers.CartAddItem(cmds, logg))
				r.Patch("/items/{cartLineId}", controllers.CartUpdateItem(cmds, logg))
				r.Delete("/items/{cartLineId}", controllers.CartRemoveItem(cmds, logg))
			})
			r.Route("/addresses", func(r chi.Router) {
				r.Post("/", controllers.AddressCreate(cmds, logg))
				r.Put("/{addressId}", controllers.AddressUpdate(cmds, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(cmds, logg))
				r.Put("/{addressId}/default", controllers.AddressSetDefault(cmds, logg))
			})
			r.Route("/favourites", func(r chi.Router) {
				r.Put("/{productId}", controllers.FavouriteAdd(cmds, logg))
				r.Delete("/{productId}", controllers.FavouriteRemove(cmds, logg))
			})
			r.Route("/notifications", func(r chi.Router) {
				r.Post("/read-all", controllers.MarkAllNotificationsRead(cmds, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(cmds, logg))
			})
			r.Post("/checkout/preview", controllers.CheckoutPreview(cmds, deps.Policy, logg))
		}

		if p := deps.Placements; p != nil {
			r.Post("/checkout/place", p.Start())
			r.Get("/checkout/placement", p.Status())
			r.Delete("/checkout/placement", p.Reset())
		}

		if relay := deps.Payments; relay != nil {
			r.Route("/payments", func(r chi.Router) {
				r.Get("/pending", controllers.PaymentsPending(relay))
				r.Post("/{gatewayOrderId}/complete", controllers.PaymentComplete(relay, logg))
				r.Post("/{gatewayOrderId}/cancel", controllers.PaymentCancel(relay, logg))
				r.Post("/{gatewayOrderId}/reject", controllers.PaymentReject(relay, logg))
			})
		}
	})

	return r
}
