package controllers

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-sync/api/responses"
	"github.com/angelmondragon/storefront-sync/internal/store"
	pkgerrors "github.com/angelmondragon/storefront-sync/pkg/errors"
	"github.com/angelmondragon/storefront-sync/pkg/logger"
)

// Snapshotter is the read side of the store.
type Snapshotter interface {
	Snapshot() store.State
}

type stateResponse struct {
	store.State
	CartCount    int             `json:"cartCount"`
	CartSubtotal decimal.Decimal `json:"cartSubtotal"`
	UnreadCount  int             `json:"unreadCount"`
}

// StateSnapshot returns the current state tree with its derived counters.
// A caller that passes ?after=<version> and is already up to date gets 204.
func StateSnapshot(st Snapshotter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := st.Snapshot()

		if raw := r.URL.Query().Get("after"); raw != "" {
			after, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "after must be a non-negative integer").
						WithDetails(map[string]string{"after": raw}))
				return
			}
			if snap.Version <= after {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}

		responses.WriteSuccess(w, stateResponse{
			State:        snap,
			CartCount:    snap.CartCount(),
			CartSubtotal: snap.CartSubtotal(),
			UnreadCount:  snap.UnreadCount(),
		})
	}
}
