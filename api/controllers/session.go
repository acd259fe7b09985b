package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-sync/api/responses"
	"github.com/angelmondragon/storefront-sync/api/validators"
	pkgerrors "github.com/angelmondragon/storefront-sync/pkg/errors"
	"github.com/angelmondragon/storefront-sync/pkg/logger"
)

var errUnauthorized = pkgerrors.New(pkgerrors.CodeUnauthorized, "credential was rejected")

// Sessions signs the shopper in and out. *reconcile.Scheduler satisfies it.
type Sessions interface {
	SignIn(ctx context.Context, token string) error
	SignOut(ctx context.Context) error
}

type signInRequest struct {
	Token string `json:"token" validate:"required"`
}

// SessionSignIn stores the token and bootstraps from it. A partial bootstrap
// still signs the shopper in; its error is reported alongside the snapshot.
func SessionSignIn(sessions Sessions, st Snapshotter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signInRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		err := sessions.SignIn(r.Context(), req.Token)
		snap := st.Snapshot()
		if !snap.Authenticated {
			if err == nil {
				err = errUnauthorized
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body := map[string]any{"authenticated": true, "profile": snap.Profile}
		if err != nil {
			if logg != nil {
				logg.Warn(r.Context(), "sign-in bootstrap incomplete")
			}
			body["warning"] = responses.Describe(err)
		}
		responses.WriteSuccess(w, body)
	}
}

func SessionSignOut(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.SignOut(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"authenticated": false})
	}
}
